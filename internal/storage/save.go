// Package storage lays out a batch's output tree: one timestamped batch
// directory, a hidden staging area named through SafeName, and one final
// directory per input named after the input's base name.
package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/JSH-Team/FrameHunter/internal/utils/files"
	"github.com/JSH-Team/FrameHunter/internal/utils/filesystem"
)

const (
	// DefaultOutputPrefix names batch directories when no prefix is configured
	DefaultOutputPrefix = "frames"
	// TimestampLayout is the time part of a batch directory name
	TimestampLayout = "20060102_150405"
	// StagingDirName holds in-progress extractions inside a batch directory
	StagingDirName = ".staging"
)

// PermissionError is returned when an output location cannot be written
type PermissionError struct {
	Path string
	Err  error
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied writing %s: %v", e.Path, e.Err)
}

func (e *PermissionError) Unwrap() error { return e.Err }

func writeError(op, path string, err error) error {
	if errors.Is(err, fs.ErrPermission) {
		return &PermissionError{Path: path, Err: err}
	}
	return fmt.Errorf("failed to %s %s: %w", op, path, err)
}

// BatchDirName returns "<prefix>_<YYYYMMDD_HHMMSS>"
func BatchDirName(prefix string, t time.Time) string {
	if prefix == "" {
		prefix = DefaultOutputPrefix
	}
	return filesystem.CleanPathComponent(prefix) + "_" + t.Format(TimestampLayout)
}

// CreateBatchRoot creates a fresh batch directory under parent. A second
// batch started within the same second gets a numeric suffix.
func CreateBatchRoot(parent, prefix string, now time.Time) (string, error) {
	if err := os.MkdirAll(parent, 0755); err != nil {
		return "", writeError("create output parent", parent, err)
	}

	base := filepath.Join(parent, BatchDirName(prefix, now))
	for i := 1; i < 1000; i++ {
		dir := base
		if i > 1 {
			dir = fmt.Sprintf("%s_%d", base, i)
		}
		err := os.Mkdir(dir, 0755)
		if err == nil {
			return dir, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", writeError("create batch directory", dir, err)
		}
	}
	return "", fmt.Errorf("no free batch directory name for %s", base)
}

// StagingDir is where the frames of the item at relPath are written before
// promotion. The name is derived with SafeName so it never collides with
// another item and never contains characters the filesystem rejects.
func StagingDir(batchRoot, relPath string) string {
	return filepath.Join(batchRoot, StagingDirName, filesystem.SafeName(relPath)+"_frames")
}

// PrepareStaging creates the staging directory of an item. Calling it twice
// is harmless.
func PrepareStaging(batchRoot, relPath string) (string, error) {
	dir := StagingDir(batchRoot, relPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", writeError("create staging directory", dir, err)
	}
	return dir, nil
}

// ReserveOutputDir claims the final output directory of an input, named from
// its base name. os.Mkdir is atomic, so concurrent workers in any process
// never share a directory; later claimants get "_2", "_3", ...
func ReserveOutputDir(batchRoot, inputPath string) (string, error) {
	stem := filesystem.StemName(inputPath)
	for i := 1; i < 10000; i++ {
		name := stem
		if i > 1 {
			name = fmt.Sprintf("%s_%d", stem, i)
		}
		dir := filepath.Join(batchRoot, name)
		err := os.Mkdir(dir, 0755)
		if err == nil {
			return dir, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", writeError("create output directory", dir, err)
		}
	}
	return "", fmt.Errorf("no free output directory name for %s", stem)
}

// PromoteFrames moves the staged files into finalDir and removes the
// staging directory. It returns the number of frame files in finalDir.
func PromoteFrames(stagingDir, finalDir string) (int, error) {
	moved, err := files.MoveDirContents(stagingDir, finalDir)
	if err != nil {
		return moved, writeError("promote frames to", finalDir, err)
	}
	if err := os.RemoveAll(stagingDir); err != nil {
		return moved, fmt.Errorf("failed to remove staging directory %s: %w", stagingDir, err)
	}
	frames, err := CountFrames(finalDir)
	if err != nil {
		return moved, fmt.Errorf("failed to count frames in %s: %w", finalDir, err)
	}
	return frames, nil
}

// DiscardStaging removes the staging directory of a failed item
func DiscardStaging(stagingDir string) error {
	return os.RemoveAll(stagingDir)
}

// CleanupStaging removes the staging area of a batch. Leftovers of items that
// were never promoted go with it.
func CleanupStaging(batchRoot string) error {
	dir := filepath.Join(batchRoot, StagingDirName)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove staging area %s: %w", dir, err)
	}
	return nil
}
