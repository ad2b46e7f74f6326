// Package batch wires the scanner, the resource sizer, the output layout and
// the frame worker pool into one run over a directory tree.
package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/JSH-Team/FrameHunter/internal/media"
	"github.com/JSH-Team/FrameHunter/internal/models"
	"github.com/JSH-Team/FrameHunter/internal/scanner"
	"github.com/JSH-Team/FrameHunter/internal/sizer"
	"github.com/JSH-Team/FrameHunter/internal/storage"
	"github.com/JSH-Team/FrameHunter/internal/utils/logger"
	"github.com/JSH-Team/FrameHunter/internal/workers/frames"
	"github.com/google/uuid"
)

// Options describes one batch run
type Options struct {
	Root           string   // directory tree to scan
	OutputParent   string   // where the batch directory is created, defaults to Root
	OutputPrefix   string   // batch directory prefix, defaults to storage.DefaultOutputPrefix
	Extensions     []string // defaults to scanner.DefaultExtensions
	Config         models.ProcessingConfig
	Executor       frames.ExecutorKind
	Adapter        media.Adapter
	Process        frames.ProcessOptions
	Events         frames.Events
	SampleInterval time.Duration // CPU sampling window of the sizer
	Now            func() time.Time
}

// Runner is a started batch
type Runner struct {
	runID      string
	items      []models.WorkItem
	workers    int
	outputRoot string
	pool       *frames.Pool
}

// Start scans the root, sizes the pool when no worker count is set, creates
// the batch directory and starts the pool. Batch-level failures are reported
// through Events.OnError as well as returned.
func Start(ctx context.Context, opts Options) (*Runner, error) {
	r, err := start(ctx, opts)
	if err != nil && opts.Events.OnError != nil {
		opts.Events.OnError(err.Error())
	}
	return r, err
}

func start(ctx context.Context, opts Options) (*Runner, error) {
	runID := uuid.NewString()
	log := logger.With("run", runID)

	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid processing config: %w", err)
	}

	items, err := scanner.Scan(opts.Root, opts.Extensions)
	if err != nil {
		return nil, err
	}
	log.Info().Int("items", len(items)).Msgf("Scanned %s", opts.Root)

	if cfg.Workers == 0 {
		workers, sample, err := sizer.Estimate(ctx, opts.SampleInterval)
		if err != nil {
			log.Warn().Err(err).Msg("CPU sampling failed, sizing from core count")
		}
		log.Info().
			Int("cores", sample.TotalCores).
			Float64("idle_percent", sample.IdlePercent).
			Int("workers", workers).
			Msg("Sized worker pool")
		cfg.Workers = workers
	}

	parent := opts.OutputParent
	if parent == "" {
		parent = opts.Root
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	outputRoot, err := storage.CreateBatchRoot(parent, opts.OutputPrefix, now())
	if err != nil {
		return nil, err
	}

	pool, err := frames.NewFrameWorkerPool(frames.Options{
		Adapter:  opts.Adapter,
		Executor: opts.Executor,
		Process:  opts.Process,
		Events:   opts.Events,
		RunID:    runID,
		Root:     opts.Root,
	})
	if err != nil {
		return nil, err
	}
	if err := pool.Start(ctx, items, cfg, outputRoot); err != nil {
		return nil, err
	}

	return &Runner{
		runID:      runID,
		items:      items,
		workers:    cfg.Workers,
		outputRoot: outputRoot,
		pool:       pool,
	}, nil
}

// RunID identifies the batch
func (r *Runner) RunID() string { return r.runID }

// Items returns the scanned work list
func (r *Runner) Items() []models.WorkItem { return r.items }

// Workers returns the number of execution units requested
func (r *Runner) Workers() int { return r.workers }

// OutputRoot returns the batch directory
func (r *Runner) OutputRoot() string { return r.outputRoot }

func (r *Runner) Pause()  { r.pool.Pause() }
func (r *Runner) Resume() { r.pool.Resume() }
func (r *Runner) Stop()   { r.pool.Stop() }

// Wait blocks until the batch is over
func (r *Runner) Wait() frames.Summary { return r.pool.Wait() }
