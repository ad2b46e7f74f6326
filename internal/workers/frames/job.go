package frames

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/JSH-Team/FrameHunter/internal/media"
	"github.com/JSH-Team/FrameHunter/internal/models"
	"github.com/JSH-Team/FrameHunter/internal/storage"
	"github.com/JSH-Team/FrameHunter/internal/utils/logger"
)

// Error kinds carried over the worker protocol
const (
	KindProbeParse = "probe_parse"
	KindFrameRate  = "frame_rate"
	KindTool       = "tool"
	KindPermission = "permission"
	KindWorker     = "worker"
	KindInternal   = "internal"
)

// Processor runs the per-item algorithm. The same code runs on a pool
// goroutine and inside a worker child process; only the Checkpointer differs.
type Processor struct {
	ID        int
	Adapter   media.Adapter
	Gate      Checkpointer
	OnStarted func(item models.WorkItem)
}

// Process runs one job. It returns ErrCancelled when the item was abandoned
// at a checkpoint; the result is then empty and must be dropped. Any other
// failure yields a result marked Failed together with its cause.
func (p *Processor) Process(ctx context.Context, job Job) (models.ItemResult, error) {
	if err := p.Gate.Checkpoint(); err != nil {
		return models.ItemResult{}, err
	}

	item := job.Item
	if p.OnStarted != nil {
		p.OnStarted(item)
	}
	startTime := time.Now()
	logger.Debug("Frame Worker %d processing %s", p.ID, item.Path)

	result := newResult(item)

	info, err := p.Adapter.Probe(ctx, item.Path)
	if err != nil {
		return p.fail(result, err)
	}
	fps, err := media.ParseFrameRate(info.FrameRateExpr)
	if err != nil {
		return p.fail(result, err)
	}
	result.Duration = media.FormatDuration(info.DurationSeconds)
	result.FrameRate = round2(fps)

	if err := p.Gate.Checkpoint(); err != nil {
		logger.Debug("Frame Worker %d abandoned %s", p.ID, item.Path)
		return models.ItemResult{}, err
	}

	result.FrameCount = media.FrameCount(job.Config.Mode, info.DurationSeconds, fps, job.Config.Interval)

	stagingDir, err := storage.PrepareStaging(job.OutputRoot, item.RelPath)
	if err != nil {
		return p.fail(result, err)
	}

	err = p.Adapter.Extract(ctx, media.ExtractRequest{
		InputPath: item.Path,
		OutputDir: stagingDir,
		Mode:      job.Config.Mode,
		Interval:  job.Config.Interval,
		Format:    job.Config.ImageFormat,
		Quality:   job.Config.EffectiveQuality(),
		Threads:   job.Config.ToolThreads,
	})
	if err != nil {
		storage.DiscardStaging(stagingDir)
		return p.fail(result, err)
	}

	outputDir, err := storage.ReserveOutputDir(job.OutputRoot, item.Path)
	if err != nil {
		storage.DiscardStaging(stagingDir)
		return p.fail(result, err)
	}
	written, err := storage.PromoteFrames(stagingDir, outputDir)
	result.OutputDir = outputDir
	result.FramesWritten = written
	if err != nil {
		return p.fail(result, err)
	}

	logger.Debug("Frame Worker %d finished %s in %v (%d frames)", p.ID, item.Name(), time.Since(startTime), written)
	return result, nil
}

// fail marks result as failed. Whatever was learned before the failure stays.
func (p *Processor) fail(result models.ItemResult, err error) (models.ItemResult, error) {
	logger.Error("Frame Worker %d failed to process %s: %v", p.ID, result.SourcePath, err)
	result.Failed = true
	result.Duration = models.FailureMarker
	result.Error = err.Error()
	return result, err
}

func newResult(item models.WorkItem) models.ItemResult {
	ext := item.Extension
	if ext == "" {
		ext = filepath.Ext(item.Path)
	}
	return models.ItemResult{
		FileName:   item.Name(),
		SourceDir:  filepath.Dir(item.Path),
		SourcePath: item.Path,
		Type:       strings.TrimPrefix(strings.ToLower(ext), "."),
		SizeMB:     round2(float64(item.Size) / (1024 * 1024)),
		SizeBytes:  item.Size,
	}
}

// failedResult builds the record of an item whose worker could not report
// back, e.g. because the child process died
func failedResult(item models.WorkItem, message string) models.ItemResult {
	result := newResult(item)
	result.Failed = true
	result.Duration = models.FailureMarker
	result.Error = message
	return result
}

// ErrorKind classifies a per-item failure
func ErrorKind(err error) string {
	var (
		probeErr *media.ProbeParseError
		fpsErr   *media.FrameRateParseError
		toolErr  *media.ToolInvocationError
		permErr  *storage.PermissionError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &probeErr):
		return KindProbeParse
	case errors.As(err, &fpsErr):
		return KindFrameRate
	case errors.As(err, &toolErr):
		return KindTool
	case errors.As(err, &permErr):
		return KindPermission
	}
	return KindInternal
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
