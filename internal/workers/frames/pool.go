package frames

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/JSH-Team/FrameHunter/internal/media"
	"github.com/JSH-Team/FrameHunter/internal/models"
	"github.com/JSH-Team/FrameHunter/internal/storage"
	"github.com/JSH-Team/FrameHunter/internal/utils/logger"
	"github.com/google/uuid"
)

// executor runs the execution units of one batch
type executor interface {
	// prepare is called once before run
	prepare(p *Pool) error
	// run drains queue with n units and returns once every unit has exited
	run(ctx context.Context, p *Pool, n int, queue <-chan models.WorkItem, cfg models.ProcessingConfig)
	// publish makes a pause, resume or stop visible to the units
	publish(state ControlState) error
	// cleanup releases what prepare acquired
	cleanup()
}

// NewFrameWorkerPool creates an idle pool
func NewFrameWorkerPool(opts Options) (*Pool, error) {
	kind := opts.Executor
	if kind == "" {
		kind = ExecutorThread
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}

	var exec executor
	switch kind {
	case ExecutorThread:
		if opts.Adapter == nil {
			return nil, fmt.Errorf("thread executor needs an adapter")
		}
		exec = &threadExecutor{adapter: opts.Adapter}
	case ExecutorProcess:
		exec = newProcessExecutor(opts.Process)
	default:
		return nil, fmt.Errorf("unknown executor %q", kind)
	}
	opts.Executor = kind

	return &Pool{
		opts:     opts,
		results:  NewAggregator(),
		executor: exec,
		status:   StateIdle,
		done:     make(chan struct{}),
	}, nil
}

// Start moves the pool from Idle to Running and dispatches items in the
// background. cfg.Workers units are started, never more than len(items).
// Cancelling ctx has the same effect as Stop; tools already running are
// never killed.
func (p *Pool) Start(ctx context.Context, items []models.WorkItem, cfg models.ProcessingConfig, outputRoot string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid processing config: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.status != StateIdle {
		return ErrNotIdle
	}

	p.total = len(items)
	p.outputRoot = outputRoot
	p.state = NewPoolState(len(items))
	p.started = time.Now()

	if err := p.executor.prepare(p); err != nil {
		return fmt.Errorf("failed to prepare %s executor: %w", p.opts.Executor, err)
	}

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(items) {
		workers = len(items)
	}

	queue := make(chan models.WorkItem, len(items))
	for _, item := range items {
		queue <- item
	}
	close(queue)

	p.status = StateRunning
	logger.Info("Started frame worker pool %s: %d items, %d %s workers", p.opts.RunID, len(items), workers, p.opts.Executor)

	// Tools keep running through a stop; only the run flag is cleared
	runCtx := context.WithoutCancel(ctx)
	go func() {
		select {
		case <-ctx.Done():
			p.Stop()
		case <-p.done:
		}
	}()

	go func() {
		p.executor.run(runCtx, p, workers, queue, cfg)
		p.finish()
	}()

	return nil
}

// Pause makes every unit block at its next checkpoint
func (p *Pool) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.status != StateRunning || !p.state.Pause() {
		return
	}
	p.status = StatePaused
	if err := p.executor.publish(ControlPaused); err != nil {
		p.opts.Events.error("failed to pause workers: %v", err)
	}
	logger.Info("Paused frame worker pool %s", p.opts.RunID)
}

// Resume wakes every unit blocked on a pause
func (p *Pool) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.status != StatePaused || !p.state.Resume() {
		return
	}
	p.status = StateRunning
	if err := p.executor.publish(ControlRunning); err != nil {
		p.opts.Events.error("failed to resume workers: %v", err)
	}
	logger.Info("Resumed frame worker pool %s", p.opts.RunID)
}

// Stop abandons the rest of the batch. Paused units wake up, undispatched
// items are never started and in-flight tool runs finish. Calling Stop more
// than once has no further effect.
func (p *Pool) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == nil || p.status.Terminal() || !p.state.Stop() {
		return
	}
	p.status = StateStopping
	if err := p.executor.publish(ControlCancelled); err != nil {
		p.opts.Events.error("failed to stop workers: %v", err)
	}
	logger.Info("Stopping frame worker pool %s", p.opts.RunID)
}

// Wait blocks until the batch has finished and returns its summary. On a
// pool that was never started it returns immediately.
func (p *Pool) Wait() Summary {
	p.mu.RLock()
	idle := p.status == StateIdle
	p.mu.RUnlock()
	if idle {
		return Summary{RunID: p.opts.RunID, State: StateIdle}
	}

	<-p.done
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.summary
}

// Done is closed once the batch has finished
func (p *Pool) Done() <-chan struct{} {
	return p.done
}

// State returns the lifecycle state
func (p *Pool) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

// Completed returns how many items have finished so far
func (p *Pool) Completed() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.state == nil {
		return 0
	}
	return p.state.Completed()
}

// Results exposes the live result collection
func (p *Pool) Results() *Aggregator {
	return p.results
}

// RunID identifies the batch in logs and control file names
func (p *Pool) RunID() string {
	return p.opts.RunID
}

// deliver records one finished item: the completed count, the progress
// event and the result are all emitted before the unit takes its next item
func (p *Pool) deliver(item models.WorkItem, result models.ItemResult, kind, cause string) {
	completed := p.state.Increment()
	p.results.Add(result)

	if kind == KindPermission {
		p.opts.Events.error("cannot write output for %s: %s", item.Path, cause)
	}

	p.opts.Events.progress(item.Name(), completed, p.total)
	p.opts.Events.itemResult(result)
}

func (p *Pool) finish() {
	cancelled := p.state.Cancelled()

	results := p.results.Snapshot()
	SortBySource(results)
	failed := 0
	for _, r := range results {
		if r.Failed {
			failed++
		}
	}

	if p.outputRoot != "" {
		if err := storage.CleanupStaging(p.outputRoot); err != nil {
			logger.Warn("Failed to clean up staging area: %v", err)
		}
	}
	p.executor.cleanup()
	p.results.Close()

	p.opts.Events.batchFinished(results, p.opts.Root, cancelled)

	final := StateCompleted
	if cancelled {
		final = StateCancelled
	}

	p.mu.Lock()
	p.status = final
	p.summary = Summary{
		RunID:      p.opts.RunID,
		State:      final,
		Root:       p.opts.Root,
		Total:      p.total,
		Completed:  p.state.Completed(),
		Failed:     failed,
		Cancelled:  cancelled,
		OutputRoot: p.outputRoot,
		Results:    results,
		Elapsed:    time.Since(p.started),
	}
	p.mu.Unlock()

	logger.Info("Frame worker pool %s %s: %d/%d items, %d failed", p.opts.RunID, final, p.summary.Completed, p.total, failed)
	close(p.done)
}

// threadExecutor runs each unit as a goroutine sharing the PoolState
type threadExecutor struct {
	adapter  media.Adapter
	workerWg sync.WaitGroup
}

func (e *threadExecutor) prepare(p *Pool) error { return nil }

func (e *threadExecutor) publish(state ControlState) error { return nil }

func (e *threadExecutor) cleanup() {}

func (e *threadExecutor) run(ctx context.Context, p *Pool, n int, queue <-chan models.WorkItem, cfg models.ProcessingConfig) {
	for i := 0; i < n; i++ {
		e.workerWg.Add(1)
		go e.worker(ctx, p, i, queue, cfg)
	}
	e.workerWg.Wait()
}

// worker is the loop of one goroutine unit
func (e *threadExecutor) worker(ctx context.Context, p *Pool, workerID int, queue <-chan models.WorkItem, cfg models.ProcessingConfig) {
	defer e.workerWg.Done()

	proc := &Processor{
		ID:      workerID,
		Adapter: e.adapter,
		Gate:    p.state,
		OnStarted: func(item models.WorkItem) {
			p.opts.Events.itemStarted(item.Name())
		},
	}

	for item := range queue {
		result, err := proc.Process(ctx, Job{Item: item, Config: cfg, OutputRoot: p.outputRoot})
		if errors.Is(err, ErrCancelled) {
			return
		}
		cause := ""
		if err != nil {
			cause = err.Error()
		}
		p.deliver(item, result, ErrorKind(err), cause)
	}
}
