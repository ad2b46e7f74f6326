package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/JSH-Team/FrameHunter/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrameRate(t *testing.T) {
	fps, err := ParseFrameRate("30000/1001")
	require.NoError(t, err)
	assert.InDelta(t, 29.97, fps, 0.001)

	fps, err = ParseFrameRate(" 25/1 ")
	require.NoError(t, err)
	assert.Equal(t, 25.0, fps)

	fps, err = ParseFrameRate("23.976")
	require.NoError(t, err)
	assert.InDelta(t, 23.976, fps, 1e-9)

	for _, bad := range []string{"0/0", "N/A", "", "abc/1", "-30/1"} {
		_, err := ParseFrameRate(bad)
		var fpsErr *FrameRateParseError
		assert.True(t, errors.As(err, &fpsErr), "expr %q", bad)
	}
}

func TestFrameCount(t *testing.T) {
	assert.Equal(t, 12, FrameCount(models.ModeTime, 125.0, 0, 10))

	// 10s at 29.97 fps is 299 whole frames; every 30th gives 9
	duration, fps := 10.0, 29.97
	assert.Equal(t, 299, int(duration*fps))
	assert.Equal(t, 299, FrameCount(models.ModeFrame, duration, fps, 1))
	assert.Equal(t, 9, FrameCount(models.ModeFrame, duration, fps, 30))

	assert.Equal(t, 0, FrameCount(models.ModeTime, 5, 0, 10))
	assert.Equal(t, 0, FrameCount(models.ModeFrame, 10, 25, 0))
	assert.Equal(t, 0, FrameCount(models.ModeTime, -1, 0, 1))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "2m5s", FormatDuration(125.9))
	assert.Equal(t, "0m0s", FormatDuration(0))
	assert.Equal(t, "1h1m1s", FormatDuration(3661))
}

func TestParseProbeOutput(t *testing.T) {
	info, err := ParseProbeOutput("a.mp4", "30000/1001\n125.000000\n125.050000\n")
	require.NoError(t, err)
	assert.Equal(t, "30000/1001", info.FrameRateExpr)
	assert.Equal(t, 125.0, info.DurationSeconds)

	// Matroska leaves the stream duration unset; the format duration is used
	info, err = ParseProbeOutput("a.mkv", "25/1\nN/A\n61.2\n")
	require.NoError(t, err)
	assert.Equal(t, 61.2, info.DurationSeconds)

	var parseErr *ProbeParseError
	_, err = ParseProbeOutput("a.mp4", "25/1\n")
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, []string{"25/1"}, parseErr.Lines)

	_, err = ParseProbeOutput("a.mp4", "25/1\nN/A\nN/A\n")
	require.True(t, errors.As(err, &parseErr))
}

func TestSelectionFilter(t *testing.T) {
	assert.Equal(t,
		`select='not(mod(n\,30))',setpts=N/FRAME_RATE/TB`,
		SelectionFilter(models.ModeFrame, 30))
	assert.Equal(t,
		`select='isnan(prev_selected_t)+gte(t-prev_selected_t\,10)',setpts=N/FRAME_RATE/TB`,
		SelectionFilter(models.ModeTime, 10))
}

func TestJPEGQScale(t *testing.T) {
	assert.Equal(t, 5, JPEGQScale(85))
	assert.Equal(t, 5, JPEGQScale(0))
	assert.Equal(t, 2, JPEGQScale(100))
	assert.Equal(t, 21, JPEGQScale(1))
}

func TestBuildExtractArgs(t *testing.T) {
	args := BuildExtractArgs(ExtractRequest{
		InputPath: "in.mp4",
		OutputDir: "out",
		Mode:      models.ModeTime,
		Interval:  2,
		Format:    models.FormatJPG,
		Quality:   90,
		Threads:   4,
	})
	joined := strings.Join(args, " ")
	assert.Contains(t, joined, "-threads 4")
	assert.Contains(t, joined, "-i in.mp4")
	assert.Contains(t, joined, "-qscale:v 4")
	assert.Equal(t, filepath.Join("out", "frame_%04d.jpg"), args[len(args)-1])

	args = BuildExtractArgs(ExtractRequest{
		InputPath: "in.mp4",
		OutputDir: "out",
		Mode:      models.ModeFrame,
		Interval:  10,
		Format:    models.FormatPNG,
		Quality:   90,
	})
	joined = strings.Join(args, " ")
	assert.NotContains(t, joined, "-qscale:v")
	assert.NotContains(t, joined, "-threads")
	assert.Equal(t, filepath.Join("out", "frame_%04d.png"), args[len(args)-1])
}

// writeScript creates an executable shell script standing in for a tool
func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-ins need a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "tool")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755))
	return path
}

func TestFFmpegProbeRunsTool(t *testing.T) {
	probe := writeScript(t, "printf '30000/1001\\n12.5\\n'\n")
	adapter := NewFFmpeg(Binaries{FFprobe: probe}, 0)

	info, err := adapter.Probe(context.Background(), "clip.mp4")
	require.NoError(t, err)
	assert.Equal(t, 12.5, info.DurationSeconds)
	assert.Equal(t, "30000/1001", info.FrameRateExpr)
}

func TestFFmpegToolFailureCarriesDiagnostics(t *testing.T) {
	probe := writeScript(t, "echo 'clip.mp4: Invalid data found when processing input' >&2\nexit 1\n")
	adapter := NewFFmpeg(Binaries{FFprobe: probe}, 10)

	_, err := adapter.Probe(context.Background(), "clip.mp4")
	var toolErr *ToolInvocationError
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, "ffprobe", toolErr.Tool)
	assert.Equal(t, 1, toolErr.ExitCode)
	assert.Contains(t, toolErr.Output, "Invalid data")
	assert.Contains(t, toolErr.Error(), "Invalid data found when processing input")
}

func TestFFmpegExtractRejectsBadInterval(t *testing.T) {
	adapter := NewFFmpeg(Binaries{FFmpeg: "ffmpeg"}, 0)
	err := adapter.Extract(context.Background(), ExtractRequest{InputPath: "a.mp4", Interval: 0})
	require.Error(t, err)
}
