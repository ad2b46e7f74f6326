package config

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/JSH-Team/FrameHunter/internal/media"
)

// MissingBinariesError names every external tool that could not be found
type MissingBinariesError struct {
	Names []string
}

func (e *MissingBinariesError) Error() string {
	return fmt.Sprintf("missing components: %s (install ffmpeg, put the binaries in the configured binaries_dir or set ffmpeg_path/ffprobe_path)",
		strings.Join(e.Names, ", "))
}

// getBinaryFileName returns the binary name for the current platform
func getBinaryFileName(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}

// ResolveBinaries locates ffmpeg and ffprobe: an explicit path first, then
// the binaries directory, then $PATH
func ResolveBinaries(cfg Config) (media.Binaries, error) {
	var missing []string

	ffmpeg, ok := resolveBinary("ffmpeg", cfg.FFmpegPath, cfg.BinariesDir)
	if !ok {
		missing = append(missing, "ffmpeg")
	}
	ffprobe, ok := resolveBinary("ffprobe", cfg.FFprobePath, cfg.BinariesDir)
	if !ok {
		missing = append(missing, "ffprobe")
	}

	if len(missing) > 0 {
		return media.Binaries{}, &MissingBinariesError{Names: missing}
	}
	return media.Binaries{FFmpeg: ffmpeg, FFprobe: ffprobe}, nil
}

func resolveBinary(name, explicit, dir string) (string, bool) {
	if explicit != "" {
		return explicit, isExecutableFile(explicit)
	}
	if dir != "" {
		candidate := filepath.Join(dir, getBinaryFileName(name))
		if isExecutableFile(candidate) {
			return candidate, true
		}
	}
	if path, err := exec.LookPath(name); err == nil {
		return path, true
	}
	return "", false
}

func isExecutableFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0111 != 0
}
