package media

import (
	"fmt"

	"github.com/JSH-Team/FrameHunter/internal/models"
)

// FrameCount predicts how many frames an extraction will produce.
// Time mode: floor(duration / interval). Frame mode: floor(floor(duration * fps) / interval).
func FrameCount(mode models.Mode, durationSeconds, fps float64, interval int) int {
	if interval <= 0 || durationSeconds <= 0 {
		return 0
	}
	if mode == models.ModeTime {
		return int(durationSeconds / float64(interval))
	}
	totalFrames := int(durationSeconds * fps)
	return totalFrames / interval
}

// FormatDuration renders seconds as "1h2m3s", or "2m3s" under an hour
func FormatDuration(seconds float64) string {
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%dh%dm%ds", h, m, s)
	}
	return fmt.Sprintf("%dm%ds", m, s)
}
