package frames

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/JSH-Team/FrameHunter/internal/media"
	"github.com/JSH-Team/FrameHunter/internal/models"
)

var (
	// ErrCancelled is returned at a checkpoint once the batch has been stopped.
	// Workers swallow it; it never becomes a failed ItemResult.
	ErrCancelled = errors.New("batch cancelled")

	// ErrNotIdle is returned by Start on a pool that has already been started
	ErrNotIdle = errors.New("frame worker pool already started")
)

// State is the lifecycle state of a Pool
type State int32

const (
	StateIdle State = iota
	StateRunning
	StatePaused
	StateCompleted
	StateCancelled
	StateStopping // Stop was called, in-flight items are finishing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateStopping:
		return "stopping"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Terminal reports whether no further transition can happen
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled
}

// ExecutorKind selects how the pool's execution units are run
type ExecutorKind string

const (
	ExecutorThread  ExecutorKind = "thread"  // goroutines sharing memory
	ExecutorProcess ExecutorKind = "process" // worker child processes
)

// ParseExecutor converts a config or flag value into an ExecutorKind
func ParseExecutor(s string) (ExecutorKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "thread", "threads", "goroutine":
		return ExecutorThread, nil
	case "process", "processes":
		return ExecutorProcess, nil
	}
	return "", fmt.Errorf("unknown executor %q (want thread or process)", s)
}

// Events are the caller-facing notifications of a batch. Every field is
// optional. Callbacks may run concurrently on worker goroutines and must not
// call Pool.Wait.
type Events struct {
	OnItemStarted   func(itemName string)
	OnProgress      func(itemName string, completed, total int)
	OnItemResult    func(result models.ItemResult)
	OnBatchFinished func(results []models.ItemResult, rootPath string, cancelled bool)
	OnError         func(message string)
}

func (e Events) itemStarted(name string) {
	if e.OnItemStarted != nil {
		e.OnItemStarted(name)
	}
}

func (e Events) progress(name string, completed, total int) {
	if e.OnProgress != nil {
		e.OnProgress(name, completed, total)
	}
}

func (e Events) itemResult(result models.ItemResult) {
	if e.OnItemResult != nil {
		e.OnItemResult(result)
	}
}

func (e Events) batchFinished(results []models.ItemResult, root string, cancelled bool) {
	if e.OnBatchFinished != nil {
		e.OnBatchFinished(results, root, cancelled)
	}
}

func (e Events) error(format string, args ...interface{}) {
	if e.OnError != nil {
		e.OnError(fmt.Sprintf(format, args...))
	}
}

// ProcessOptions configures the worker child processes of ExecutorProcess
type ProcessOptions struct {
	Executable string    // defaults to the running binary
	Args       []string  // arguments before "--control <file>", defaults to ["worker"]
	Env        []string  // extra environment for the children
	ControlDir string    // where the control file lives, defaults to os.TempDir()
	Stderr     io.Writer // child log output, defaults to os.Stderr
}

// Options configures a Pool
type Options struct {
	Adapter  media.Adapter // used by ExecutorThread; children build their own
	Executor ExecutorKind
	Process  ProcessOptions
	Events   Events
	RunID    string
	Root     string // scanned directory, reported by OnBatchFinished
}

// Summary is the final outcome of a batch
type Summary struct {
	RunID      string
	State      State
	Total      int
	Completed  int
	Failed     int
	Cancelled  bool
	Root       string
	OutputRoot string
	Results    []models.ItemResult
	Elapsed    time.Duration
}

// Job is one item to run through the adapter
type Job struct {
	Item       models.WorkItem         `json:"item"`
	Config     models.ProcessingConfig `json:"config"`
	OutputRoot string                  `json:"output_root"`
}

// Checkpointer blocks while the batch is paused and returns ErrCancelled
// once it has been stopped
type Checkpointer interface {
	Checkpoint() error
}

// Pool runs a batch of WorkItems over a bounded set of execution units
type Pool struct {
	opts     Options
	state    *PoolState
	results  *Aggregator
	executor executor

	status     State
	total      int
	outputRoot string
	started    time.Time
	summary    Summary
	done       chan struct{}
	mu         sync.RWMutex
}
