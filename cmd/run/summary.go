package run

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/JSH-Team/FrameHunter/internal/models"
	"github.com/JSH-Team/FrameHunter/internal/utils/console"
	"github.com/JSH-Team/FrameHunter/internal/workers/frames"

	"github.com/dustin/go-humanize"
)

// printSummary writes the per-video result table and the batch totals
func printSummary(w io.Writer, summary frames.Summary) {
	if len(summary.Results) > 0 {
		fmt.Fprintln(w, console.RenderTable(
			[]string{"File", "Folder", "Type", "Size", "Duration", "FPS", "Frames", "Written", "Status"},
			resultRows(summary.Results),
			3, 5, 6, 7,
		))
	}

	var frameTotal int
	var bytesTotal int64
	for _, r := range summary.Results {
		frameTotal += r.FramesWritten
		bytesTotal += r.SizeBytes
	}

	fmt.Fprintf(w, "%s: %d/%d videos (%s read), %d failed, %s frames written in %s\n",
		outcome(summary), summary.Completed, summary.Total, humanize.Bytes(uint64(bytesTotal)),
		summary.Failed, humanize.Comma(int64(frameTotal)), summary.Elapsed.Round(time.Second))
	if summary.OutputRoot != "" {
		fmt.Fprintf(w, "Output: %s\n", summary.OutputRoot)
	}
}

func resultRows(results []models.ItemResult) [][]string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		status := "ok"
		if r.Failed {
			status = "failed: " + r.Error
		}
		fps := "-"
		if r.FrameRate > 0 {
			fps = strconv.FormatFloat(r.FrameRate, 'f', -1, 64)
		}
		rows = append(rows, []string{
			r.FileName,
			r.SourceDir,
			r.Type,
			humanize.Bytes(uint64(r.SizeBytes)),
			r.Duration,
			fps,
			strconv.Itoa(r.FrameCount),
			strconv.Itoa(r.FramesWritten),
			status,
		})
	}
	return rows
}

func outcome(summary frames.Summary) string {
	if summary.Cancelled {
		return "Stopped"
	}
	return "Completed"
}
