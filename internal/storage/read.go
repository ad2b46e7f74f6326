package storage

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// BatchOutput describes one batch directory found on disk
type BatchOutput struct {
	Name    string
	Path    string
	Created time.Time
	Items   int
	Frames  int
	Bytes   int64
	Staging bool // an interrupted batch left its staging area behind
}

// ListOutputs returns the batch directories under parent whose names match
// "<prefix>_<timestamp>", newest first
func ListOutputs(parent, prefix string) ([]BatchOutput, error) {
	entries, err := os.ReadDir(parent)
	if err != nil {
		return nil, fmt.Errorf("failed to read output directory %s: %w", parent, err)
	}

	var outputs []BatchOutput
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		created, ok := parseBatchName(entry.Name(), prefix)
		if !ok {
			continue
		}

		out := BatchOutput{
			Name:    entry.Name(),
			Path:    filepath.Join(parent, entry.Name()),
			Created: created,
		}
		if err := summarize(&out); err != nil {
			return nil, err
		}
		outputs = append(outputs, out)
	}

	sort.Slice(outputs, func(i, j int) bool {
		if outputs[i].Created.Equal(outputs[j].Created) {
			return outputs[i].Name > outputs[j].Name
		}
		return outputs[i].Created.After(outputs[j].Created)
	})
	return outputs, nil
}

// parseBatchName extracts the timestamp of a batch directory name
func parseBatchName(name, prefix string) (time.Time, bool) {
	if prefix == "" {
		prefix = DefaultOutputPrefix
	}
	rest, ok := strings.CutPrefix(name, prefix+"_")
	if !ok || len(rest) < len(TimestampLayout) {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(TimestampLayout, rest[:len(TimestampLayout)], time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// summarize counts item directories, frames and bytes of one batch
func summarize(out *BatchOutput) error {
	entries, err := os.ReadDir(out.Path)
	if err != nil {
		return fmt.Errorf("failed to read batch directory %s: %w", out.Path, err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if entry.Name() == StagingDirName {
			out.Staging = true
			continue
		}
		out.Items++
	}

	return filepath.WalkDir(out.Path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if d.Name() == StagingDirName {
				return filepath.SkipDir
			}
			return nil
		}
		if info, err := d.Info(); err == nil {
			out.Bytes += info.Size()
		}
		if IsFrameFile(d.Name()) {
			out.Frames++
		}
		return nil
	})
}

// IsFrameFile reports whether name looks like an extracted frame
func IsFrameFile(name string) bool {
	return strings.HasPrefix(name, "frame_") && filepath.Ext(name) != ""
}

// CountFrames returns the number of frame files directly inside dir
func CountFrames(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, entry := range entries {
		if entry.Type().IsRegular() && IsFrameFile(entry.Name()) {
			n++
		}
	}
	return n, nil
}
