package frames

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/JSH-Team/FrameHunter/internal/media"
	"github.com/JSH-Team/FrameHunter/internal/models"
	"github.com/JSH-Team/FrameHunter/internal/utils/logger"
)

// Message types of the worker protocol. Each message is one JSON line.
const (
	MsgTask    = "task"    // parent → child
	MsgStarted = "started" // child → parent, before probing
	MsgReply   = "reply"   // child → parent, once per task
)

// WireError is a per-item failure as sent over the protocol
type WireError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Message is the single envelope exchanged with worker children
type Message struct {
	Type      string             `json:"type"`
	Job       *Job               `json:"job,omitempty"`
	Path      string             `json:"path,omitempty"`
	Result    *models.ItemResult `json:"result,omitempty"`
	Error     *WireError         `json:"error,omitempty"`
	Cancelled bool               `json:"cancelled,omitempty"`
}

// ServeWorker is the body of a worker child process: it reads tasks from r
// until EOF and answers each on w. gate is consulted at every checkpoint.
func ServeWorker(ctx context.Context, r io.Reader, w io.Writer, adapter media.Adapter, gate Checkpointer) error {
	dec := json.NewDecoder(bufio.NewReader(r))
	enc := json.NewEncoder(w)

	proc := &Processor{
		Adapter: adapter,
		Gate:    gate,
		OnStarted: func(item models.WorkItem) {
			if err := enc.Encode(Message{Type: MsgStarted, Path: item.Path}); err != nil {
				logger.Debug("Failed to report start of %s: %v", item.Path, err)
			}
		},
	}

	for {
		var msg Message
		if err := dec.Decode(&msg); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("failed to read task: %w", err)
		}
		if msg.Type != MsgTask || msg.Job == nil {
			reply := Message{Type: MsgReply, Error: &WireError{Kind: KindWorker, Message: fmt.Sprintf("unexpected message %q", msg.Type)}}
			if err := enc.Encode(reply); err != nil {
				return fmt.Errorf("failed to write reply: %w", err)
			}
			continue
		}

		if err := enc.Encode(replyFor(proc.Process(ctx, *msg.Job))); err != nil {
			return fmt.Errorf("failed to write reply: %w", err)
		}
	}
}

// replyFor turns the outcome of Processor.Process into a reply message
func replyFor(result models.ItemResult, err error) Message {
	if errors.Is(err, ErrCancelled) {
		return Message{Type: MsgReply, Cancelled: true}
	}
	reply := Message{Type: MsgReply, Result: &result}
	if err != nil {
		reply.Error = &WireError{Kind: ErrorKind(err), Message: err.Error()}
	}
	return reply
}
