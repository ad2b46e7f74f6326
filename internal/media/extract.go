package media

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/JSH-Team/FrameHunter/internal/models"
)

// FramePattern is the ffmpeg output pattern for sequentially numbered frames
const FramePattern = "frame_%04d"

// SelectionFilter builds the -vf expression picking one frame every
// interval seconds (time mode) or every interval frames (frame mode)
func SelectionFilter(mode models.Mode, interval int) string {
	n := strconv.Itoa(interval)
	if mode == models.ModeTime {
		return "select='isnan(prev_selected_t)+gte(t-prev_selected_t\\," + n + ")',setpts=N/FRAME_RATE/TB"
	}
	return "select='not(mod(n\\," + n + "))',setpts=N/FRAME_RATE/TB"
}

// JPEGQScale maps a 1-100 quality onto ffmpeg's 2-31 qscale (lower is better)
func JPEGQScale(quality int) int {
	if quality <= 0 {
		quality = models.DefaultJPEGQuality
	}
	if quality > 100 {
		quality = 100
	}
	return (100-quality)/5 + 2
}

// BuildExtractArgs returns the ffmpeg arguments for req
func BuildExtractArgs(req ExtractRequest) []string {
	args := []string{"-hide_banner", "-loglevel", "error", "-y"}
	if req.Threads > 0 {
		args = append(args, "-threads", strconv.Itoa(req.Threads))
	}
	args = append(args,
		"-i", req.InputPath,
		"-vf", SelectionFilter(req.Mode, req.Interval),
		"-vsync", "vfr",
	)
	if req.Format.Lossy() {
		args = append(args, "-qscale:v", strconv.Itoa(JPEGQScale(req.Quality)))
	}
	pattern := filepath.Join(req.OutputDir, fmt.Sprintf("%s.%s", FramePattern, req.Format))
	return append(args, pattern)
}

// Extract writes the selected frames of req.InputPath into req.OutputDir
func (f *FFmpeg) Extract(ctx context.Context, req ExtractRequest) error {
	if req.Interval <= 0 {
		return fmt.Errorf("invalid interval %d", req.Interval)
	}
	_, err := f.run(ctx, "ffmpeg", f.bin.FFmpeg, req.InputPath, BuildExtractArgs(req))
	return err
}
