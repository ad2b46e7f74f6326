package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/JSH-Team/FrameHunter/internal/models"
	"github.com/JSH-Team/FrameHunter/internal/workers/frames"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "framehunter", ConfigFileName)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.FileExists(t, path)

	assert.Equal(t, "thread", cfg.Executor)
	assert.Equal(t, 0, cfg.Workers)
	assert.Equal(t, "time", cfg.Mode)
	assert.Equal(t, 1, cfg.Interval)
	assert.Equal(t, "png", cfg.ImageFormat)
	assert.Equal(t, 85, cfg.JPEGQuality)
	assert.Equal(t, time.Second, cfg.CPUSampleInterval)
	assert.Contains(t, cfg.Extensions, ".mkv")
	assert.Equal(t, "frames", cfg.OutputPrefix)
}

func TestLoadConfigReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	content := `
executor: process
workers: 3
mode: frame
interval: 30
image_format: jpg
jpeg_quality: 70
cpu_sample_interval: 250ms
extensions: [".mp4", ".webm"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, 250*time.Millisecond, cfg.CPUSampleInterval)
	assert.Equal(t, []string{".mp4", ".webm"}, cfg.Extensions)
	assert.Equal(t, "info", cfg.LogLevel, "keys missing from the file fall back to defaults")

	kind, err := cfg.ExecutorKind()
	require.NoError(t, err)
	assert.Equal(t, frames.ExecutorProcess, kind)

	pc, err := cfg.ProcessingConfig()
	require.NoError(t, err)
	assert.Equal(t, models.ProcessingConfig{
		Mode:        models.ModeFrame,
		Interval:    30,
		Workers:     3,
		ImageFormat: models.FormatJPG,
		Quality:     70,
	}, pc)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	t.Setenv("FRAMEHUNTER_WORKERS", "5")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Workers)
}

func TestProcessingConfigRejectsBadValues(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "hourly"
	_, err := cfg.ProcessingConfig()
	assert.Error(t, err)

	cfg = Defaults()
	cfg.Interval = 0
	_, err = cfg.ProcessingConfig()
	assert.Error(t, err)

	cfg = Defaults()
	cfg.ImageFormat = "gif"
	_, err = cfg.ProcessingConfig()
	assert.Error(t, err)
}

func fakeBinary(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, getBinaryFileName(name))
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0755))
	return path
}

func TestResolveBinaries(t *testing.T) {
	dir := t.TempDir()
	ffmpeg := fakeBinary(t, dir, "ffmpeg")
	ffprobe := fakeBinary(t, dir, "ffprobe")

	// binaries_dir
	bin, err := ResolveBinaries(Config{BinariesDir: dir})
	require.NoError(t, err)
	assert.Equal(t, ffmpeg, bin.FFmpeg)
	assert.Equal(t, ffprobe, bin.FFprobe)

	// explicit paths win
	other := t.TempDir()
	explicit := fakeBinary(t, other, "my-ffmpeg")
	bin, err = ResolveBinaries(Config{FFmpegPath: explicit, BinariesDir: dir})
	require.NoError(t, err)
	assert.Equal(t, explicit, bin.FFmpeg)
	assert.Equal(t, ffprobe, bin.FFprobe)
}

func TestResolveBinariesReportsEveryMissingTool(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("PATH handling differs")
	}
	t.Setenv("PATH", t.TempDir())

	_, err := ResolveBinaries(Config{
		FFmpegPath:  filepath.Join(t.TempDir(), "nope"),
		BinariesDir: t.TempDir(),
	})
	var missing *MissingBinariesError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"ffmpeg", "ffprobe"}, missing.Names)
	assert.Contains(t, err.Error(), "missing components")
}
