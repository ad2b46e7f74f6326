// Package media wraps the external ffprobe/ffmpeg tools used to read video
// metadata and write extracted frames.
package media

import (
	"bytes"
	"context"
	"errors"
	"os/exec"

	"github.com/JSH-Team/FrameHunter/internal/models"
	"github.com/JSH-Team/FrameHunter/internal/utils/sysproc"
	"go.uber.org/ratelimit"
)

// ProbeInfo is the metadata read from the first video stream of a file
type ProbeInfo struct {
	DurationSeconds float64
	FrameRateExpr   string
}

// ExtractRequest describes one frame extraction run
type ExtractRequest struct {
	InputPath string
	OutputDir string
	Mode      models.Mode
	Interval  int
	Format    models.ImageFormat
	Quality   int // only meaningful for lossy formats
	Threads   int // 0 lets ffmpeg decide
}

// Adapter is the per-item capability the orchestrator drives
type Adapter interface {
	Probe(ctx context.Context, path string) (ProbeInfo, error)
	Extract(ctx context.Context, req ExtractRequest) error
}

// Binaries holds the resolved tool locations
type Binaries struct {
	FFmpeg  string
	FFprobe string
}

// FFmpeg implements Adapter on top of the ffprobe and ffmpeg binaries
type FFmpeg struct {
	bin     Binaries
	limiter ratelimit.Limiter
}

// NewFFmpeg creates an adapter. launchesPerSecond throttles how often a tool
// process may be started across all workers sharing the adapter; 0 disables
// the throttle.
func NewFFmpeg(bin Binaries, launchesPerSecond int) *FFmpeg {
	limiter := ratelimit.NewUnlimited()
	if launchesPerSecond > 0 {
		limiter = ratelimit.New(launchesPerSecond)
	}
	return &FFmpeg{bin: bin, limiter: limiter}
}

// run starts a tool and returns its stdout. A non-zero exit becomes a
// ToolInvocationError carrying stderr.
func (f *FFmpeg) run(ctx context.Context, tool, binary, path string, args []string) ([]byte, error) {
	f.limiter.Take()

	cmd := exec.CommandContext(ctx, binary, args...)
	sysproc.Detach(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return nil, &ToolInvocationError{
			Tool:     tool,
			Path:     path,
			ExitCode: exitCode,
			Output:   stderr.String(),
			Err:      err,
		}
	}
	return stdout.Bytes(), nil
}
