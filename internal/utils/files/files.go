package files

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// MoveDirContents moves every regular file directly inside sourceDir into
// destDir, creating destDir when needed. Existing files in destDir with the
// same name are replaced. It returns the number of files moved.
func MoveDirContents(sourceDir, destDir string) (int, error) {
	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read source directory: %w", err)
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create destination directory: %w", err)
	}

	moved := 0
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		src := filepath.Join(sourceDir, entry.Name())
		dst := filepath.Join(destDir, entry.Name())
		if err := MoveFile(src, dst); err != nil {
			return moved, fmt.Errorf("failed to move %s: %w", entry.Name(), err)
		}
		moved++
	}

	return moved, nil
}

// MoveFile moves a single file, falling back to copy and remove when a
// rename is not possible (e.g. across filesystems)
func MoveFile(source, dest string) error {
	// Try to rename first (fastest if on same filesystem)
	if err := os.Rename(source, dest); err == nil {
		return nil
	}

	if err := CopyFile(source, dest); err != nil {
		return err
	}

	return os.Remove(source)
}

// CopyFile copies a single file
func CopyFile(source, dest string) error {
	sourceFile, err := os.Open(source)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	// Create destination directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}

	destFile, err := os.Create(dest)
	if err != nil {
		return err
	}

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		destFile.Close()
		return err
	}
	return destFile.Close()
}
