package frames

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/JSH-Team/FrameHunter/internal/models"
	"github.com/JSH-Team/FrameHunter/internal/utils/logger"
	"github.com/JSH-Team/FrameHunter/internal/utils/sysproc"
)

// processExecutor runs each unit as a worker child process. The PoolState
// stays in the parent; children see pause and stop through the control file.
type processExecutor struct {
	opts     ProcessOptions
	control  *ControlFile
	mu       sync.Mutex
	closed   bool
	workerWg sync.WaitGroup
}

func newProcessExecutor(opts ProcessOptions) *processExecutor {
	return &processExecutor{opts: opts}
}

func (e *processExecutor) prepare(p *Pool) error {
	if e.opts.Executable == "" {
		exe, err := os.Executable()
		if err != nil {
			return fmt.Errorf("failed to locate worker executable: %w", err)
		}
		e.opts.Executable = exe
	}
	if len(e.opts.Args) == 0 {
		e.opts.Args = []string{"worker"}
	}
	if e.opts.Stderr == nil {
		e.opts.Stderr = os.Stderr
	}

	control, err := CreateControlFile(e.opts.ControlDir, p.opts.RunID)
	if err != nil {
		return err
	}
	e.control = control
	return nil
}

func (e *processExecutor) publish(state ControlState) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || e.control == nil {
		return nil
	}
	return e.control.Write(state)
}

func (e *processExecutor) cleanup() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.closed = true
	if e.control != nil {
		if err := e.control.Remove(); err != nil {
			logger.Warn("Failed to remove control file %s: %v", e.control.Path(), err)
		}
	}
}

func (e *processExecutor) run(ctx context.Context, p *Pool, n int, queue <-chan models.WorkItem, cfg models.ProcessingConfig) {
	for i := 0; i < n; i++ {
		e.workerWg.Add(1)
		go e.worker(p, i, queue, cfg)
	}
	e.workerWg.Wait()
}

// worker feeds one child process. A child that dies is replaced on the next
// item; the item it was holding is recorded as failed.
func (e *processExecutor) worker(p *Pool, workerID int, queue <-chan models.WorkItem, cfg models.ProcessingConfig) {
	defer e.workerWg.Done()

	var c *child
	defer func() {
		if c != nil {
			if err := c.close(); err != nil {
				logger.Debug("Worker process %d exited: %v", workerID, err)
			}
		}
	}()

	for {
		if err := p.state.Checkpoint(); err != nil {
			return
		}
		item, ok := <-queue
		if !ok {
			return
		}

		if c == nil {
			var err error
			if c, err = e.spawn(); err != nil {
				msg := fmt.Sprintf("failed to start worker process: %v", err)
				logger.Error("Worker process %d: %s", workerID, msg)
				p.opts.Events.error("%s", msg)
				p.deliver(item, failedResult(item, msg), KindWorker, msg)
				continue
			}
		}

		job := Job{Item: item, Config: cfg, OutputRoot: p.outputRoot}
		reply, err := c.exchange(job, func() {
			p.opts.Events.itemStarted(item.Name())
		})
		if err != nil {
			if waitErr := c.close(); waitErr != nil {
				err = fmt.Errorf("%v (%w)", err, waitErr)
			}
			c = nil
			msg := fmt.Sprintf("worker process died while processing: %v", err)
			logger.Error("Worker process %d failed on %s: %v", workerID, item.Path, err)
			p.deliver(item, failedResult(item, msg), KindWorker, msg)
			continue
		}

		if reply.Cancelled {
			return
		}

		var result models.ItemResult
		kind, cause := "", ""
		if reply.Error != nil {
			kind, cause = reply.Error.Kind, reply.Error.Message
		}
		if reply.Result != nil {
			result = *reply.Result
		} else {
			result = failedResult(item, cause)
		}
		p.deliver(item, result, kind, cause)
	}
}

// child is one running worker process
type child struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
	enc   *json.Encoder
	dec   *json.Decoder
}

func (e *processExecutor) spawn() (*child, error) {
	args := append(append([]string(nil), e.opts.Args...), "--control", e.control.Path())
	cmd := exec.Command(e.opts.Executable, args...)
	cmd.Env = append(os.Environ(), e.opts.Env...)
	cmd.Stderr = e.opts.Stderr
	sysproc.Detach(cmd)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	return &child{
		cmd:   cmd,
		stdin: stdin,
		enc:   json.NewEncoder(stdin),
		dec:   json.NewDecoder(bufio.NewReader(stdout)),
	}, nil
}

// exchange sends one task and reads messages until its reply arrives
func (c *child) exchange(job Job, onStarted func()) (Message, error) {
	if err := c.enc.Encode(Message{Type: MsgTask, Job: &job}); err != nil {
		return Message{}, fmt.Errorf("failed to send task: %w", err)
	}

	for {
		var msg Message
		if err := c.dec.Decode(&msg); err != nil {
			if errors.Is(err, io.EOF) {
				return Message{}, fmt.Errorf("worker exited before replying")
			}
			return Message{}, fmt.Errorf("failed to read reply: %w", err)
		}

		switch msg.Type {
		case MsgStarted:
			onStarted()
		case MsgReply:
			return msg, nil
		default:
			logger.Debug("Ignoring unexpected worker message %q", msg.Type)
		}
	}
}

// close ends the child's input and waits for it to exit
func (c *child) close() error {
	c.stdin.Close()
	return c.cmd.Wait()
}
