package run

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/JSH-Team/FrameHunter/internal/models"
	"github.com/JSH-Team/FrameHunter/internal/sizer"
	"github.com/JSH-Team/FrameHunter/internal/utils/console"
	"github.com/JSH-Team/FrameHunter/internal/utils/logger"
	"github.com/JSH-Team/FrameHunter/internal/workers/frames"

	"github.com/schollz/progressbar/v3"
)

const maxNameWidth = 32

// progressUI turns pool events into a progress bar on a terminal, or into
// log lines when output is redirected
type progressUI struct {
	bar     *progressbar.ProgressBar
	aborted bool

	mu      sync.Mutex
	current string
	usage   string
}

func newProgressUI(out *os.File, plain bool) *progressUI {
	ui := &progressUI{}
	if plain || !console.IsTerminal(out) {
		return ui
	}

	ui.bar = progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("Scanning"),
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetWidth(20),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(out, "\n")
		}),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionFullWidth(),
	)
	return ui
}

func (ui *progressUI) events() frames.Events {
	return frames.Events{
		OnItemStarted: ui.itemStarted,
		OnProgress:    ui.progress,
		OnItemResult:  ui.itemResult,
		OnError: func(message string) {
			logger.Warn("%s", message)
		},
	}
}

// start switches the bar from a spinner to a counter over total items
func (ui *progressUI) start(total int) {
	if ui.bar == nil {
		return
	}
	ui.bar.ChangeMax(total)
	ui.describe()
}

func (ui *progressUI) itemStarted(name string) {
	ui.mu.Lock()
	ui.current = name
	ui.mu.Unlock()
	ui.describe()
}

func (ui *progressUI) progress(name string, completed, total int) {
	if ui.bar == nil {
		logger.Info("[%d/%d] %s", completed, total, name)
		return
	}
	ui.bar.Set(completed)
}

func (ui *progressUI) itemResult(result models.ItemResult) {
	if result.Failed {
		return
	}
	logger.Debug("%s: %d frames in %s", result.FileName, result.FramesWritten, result.OutputDir)
}

// setUsage is fed by the CPU monitor
func (ui *progressUI) setUsage(u sizer.Usage) {
	ui.mu.Lock()
	ui.usage = fmt.Sprintf("CPU %.0f%% | run %.0f%% (%.1f%%/core)", u.SystemPercent, u.ProcessPercent, u.PerCorePercent)
	ui.mu.Unlock()

	if ui.bar == nil {
		logger.Debug("CPU usage: system %.1f%%, this run %.1f%% across %d processes", u.SystemPercent, u.ProcessPercent, u.Processes)
		return
	}
	ui.describe()
}

func (ui *progressUI) describe() {
	if ui.bar == nil {
		return
	}

	ui.mu.Lock()
	desc := shorten(ui.current, maxNameWidth)
	if ui.usage != "" {
		desc = fmt.Sprintf("%s [%s]", desc, ui.usage)
	}
	ui.mu.Unlock()

	ui.bar.Describe(desc)
}

func (ui *progressUI) finish() {
	if ui.bar == nil || ui.aborted {
		return
	}
	ui.bar.Describe("Done")
	ui.bar.Finish()
}

// abort removes the bar when the batch never got going
func (ui *progressUI) abort() {
	if ui.bar == nil {
		return
	}
	ui.aborted = true
	ui.bar.Clear()
}

// shorten keeps the end of long names, which is where they differ
func shorten(name string, width int) string {
	runes := []rune(name)
	if len(runes) <= width {
		return name
	}
	return "..." + string(runes[len(runes)-width+3:])
}
