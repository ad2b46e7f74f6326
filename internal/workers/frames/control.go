package frames

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/JSH-Team/FrameHunter/internal/utils/logger"
	"github.com/fsnotify/fsnotify"
	"github.com/gofrs/flock"
)

// ControlState is the shared run/pause/cancel flag of a process-model batch
type ControlState string

const (
	ControlRunning   ControlState = "running"
	ControlPaused    ControlState = "paused"
	ControlCancelled ControlState = "cancelled"
)

type controlDoc struct {
	State ControlState `json:"state"`
}

// ControlFile is the cross-process PoolState of the process executor. The
// parent writes it under an exclusive flock; worker children read it under a
// shared lock at every checkpoint.
type ControlFile struct {
	path string
	lock *flock.Flock
}

// CreateControlFile creates a control file for runID in dir, initially running
func CreateControlFile(dir, runID string) (*ControlFile, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create control directory: %w", err)
	}

	c := OpenControlFile(filepath.Join(dir, "framehunter-"+runID+".ctl"))
	if err := c.Write(ControlRunning); err != nil {
		return nil, err
	}
	return c, nil
}

// OpenControlFile opens an existing control file
func OpenControlFile(path string) *ControlFile {
	return &ControlFile{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Path returns the location of the control file
func (c *ControlFile) Path() string {
	return c.path
}

// Write replaces the shared state
func (c *ControlFile) Write(state ControlState) error {
	if err := c.lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock control file: %w", err)
	}
	defer c.lock.Unlock()

	data, err := json.Marshal(controlDoc{State: state})
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write control file: %w", err)
	}
	return nil
}

// Read returns the shared state. A missing control file reads as cancelled:
// the parent removes it only after the batch is over.
func (c *ControlFile) Read() (ControlState, error) {
	if err := c.lock.RLock(); err != nil {
		return "", fmt.Errorf("failed to lock control file: %w", err)
	}
	defer c.lock.Unlock()

	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return ControlCancelled, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read control file: %w", err)
	}

	var doc controlDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("failed to parse control file: %w", err)
	}
	switch doc.State {
	case ControlRunning, ControlPaused, ControlCancelled:
		return doc.State, nil
	}
	return "", fmt.Errorf("unknown control state %q", doc.State)
}

// Remove deletes the control file and its lock file
func (c *ControlFile) Remove() error {
	err := os.Remove(c.path)
	os.Remove(c.lock.Path())
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// ControlGate is the Checkpointer of a worker child process. While paused it
// waits for the control file to change, falling back to polling when the
// file cannot be watched.
type ControlGate struct {
	file    *ControlFile
	watcher *fsnotify.Watcher
	poll    time.Duration
}

// NewControlGate creates a gate over the control file at path
func NewControlGate(path string) *ControlGate {
	g := &ControlGate{
		file: OpenControlFile(path),
		poll: 250 * time.Millisecond,
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Debug("Control file watch unavailable, polling: %v", err)
		return g
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		logger.Debug("Control file watch unavailable, polling: %v", err)
		watcher.Close()
		return g
	}
	g.watcher = watcher
	return g
}

// Checkpoint blocks while the batch is paused and returns ErrCancelled once
// it has been stopped
func (g *ControlGate) Checkpoint() error {
	for {
		state, err := g.file.Read()
		if err != nil {
			logger.Warn("Failed to read control file: %v", err)
			g.waitForChange()
			continue
		}

		switch state {
		case ControlRunning:
			return nil
		case ControlCancelled:
			return ErrCancelled
		}
		g.waitForChange()
	}
}

// waitForChange returns after the control file changed or one poll interval
func (g *ControlGate) waitForChange() {
	timer := time.NewTimer(g.poll)
	defer timer.Stop()

	if g.watcher == nil {
		<-timer.C
		return
	}

	target := filepath.Clean(g.file.Path())
	for {
		select {
		case event, ok := <-g.watcher.Events:
			if !ok {
				<-timer.C
				return
			}
			if filepath.Clean(event.Name) == target {
				return
			}
		case _, ok := <-g.watcher.Errors:
			if !ok {
				<-timer.C
				return
			}
		case <-timer.C:
			return
		}
	}
}

// Close stops watching the control file
func (g *ControlGate) Close() error {
	if g.watcher == nil {
		return nil
	}
	return g.watcher.Close()
}
