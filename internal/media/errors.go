package media

import (
	"fmt"
	"strings"
)

// ProbeParseError is returned when the probe output is missing fields
type ProbeParseError struct {
	Path   string
	Lines  []string
	Reason string
}

func (e *ProbeParseError) Error() string {
	return fmt.Sprintf("unexpected ffprobe output for %s: %s %q", e.Path, e.Reason, e.Lines)
}

// FrameRateParseError is returned when a rational frame rate cannot be parsed
type FrameRateParseError struct {
	Expr string
}

func (e *FrameRateParseError) Error() string {
	return fmt.Sprintf("cannot parse frame rate %q", e.Expr)
}

// ToolInvocationError wraps a failed ffmpeg/ffprobe run together with the
// diagnostic output the tool printed
type ToolInvocationError struct {
	Tool     string
	Path     string
	ExitCode int
	Output   string
	Err      error
}

func (e *ToolInvocationError) Error() string {
	msg := fmt.Sprintf("%s failed on %s", e.Tool, e.Path)
	if e.ExitCode >= 0 {
		msg += fmt.Sprintf(" (exit %d)", e.ExitCode)
	}
	if last := lastLine(e.Output); last != "" {
		return msg + ": " + last
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *ToolInvocationError) Unwrap() error { return e.Err }

func lastLine(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}
