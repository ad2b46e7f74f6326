// Package scanner enumerates the media files of a directory tree.
package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/JSH-Team/FrameHunter/internal/models"
	"github.com/JSH-Team/FrameHunter/internal/utils/logger"
)

// DefaultExtensions are the media extensions scanned when none are configured
var DefaultExtensions = []string{".mp4", ".avi", ".mov", ".mkv", ".flv", ".wmv", ".mpeg"}

// InvalidRootError is returned when the scan root does not exist or is not a directory
type InvalidRootError struct {
	Root string
	Err  error
}

func (e *InvalidRootError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid root %q: %v", e.Root, e.Err)
	}
	return fmt.Sprintf("invalid root %q: not a directory", e.Root)
}

func (e *InvalidRootError) Unwrap() error { return e.Err }

// ExtensionSet normalises a list of extensions ("MP4", ".mkv") into a lookup set
func ExtensionSet(exts []string) map[string]bool {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	set := make(map[string]bool, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = true
	}
	return set
}

// Scan walks root and returns every regular file whose lowercase extension
// is in exts, sorted by relative path for a deterministic work order.
// Subtrees that cannot be read are logged and skipped; only an invalid root
// fails the scan.
func Scan(root string, exts []string) ([]models.WorkItem, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, &InvalidRootError{Root: root, Err: err}
	}
	if !info.IsDir() {
		return nil, &InvalidRootError{Root: root}
	}

	w := &walker{root: root, allowed: ExtensionSet(exts)}
	if err := filepath.WalkDir(root, w.visit); err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	sort.Slice(w.items, func(i, j int) bool {
		return w.items[i].RelPath < w.items[j].RelPath
	})
	return w.items, nil
}

// walker collects the WorkItems of one scan
type walker struct {
	root    string
	allowed map[string]bool
	items   []models.WorkItem
}

func (w *walker) visit(path string, d fs.DirEntry, err error) error {
	if err != nil {
		if path == w.root {
			return err
		}
		logger.Warn("Skipping %s: %v", path, err)
		if d != nil && d.IsDir() {
			return filepath.SkipDir
		}
		return nil
	}
	if d.IsDir() || !d.Type().IsRegular() {
		return nil
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !w.allowed[ext] {
		return nil
	}

	fi, err := d.Info()
	if err != nil {
		// removed between listing and stat
		logger.Warn("Skipping %s: %v", path, err)
		return nil
	}
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return err
	}

	w.items = append(w.items, models.WorkItem{
		Path:      path,
		RelPath:   rel,
		Size:      fi.Size(),
		Extension: ext,
	})
	return nil
}
