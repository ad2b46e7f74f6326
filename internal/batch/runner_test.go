package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/JSH-Team/FrameHunter/internal/media"
	"github.com/JSH-Team/FrameHunter/internal/models"
	"github.com/JSH-Team/FrameHunter/internal/scanner"
	"github.com/JSH-Team/FrameHunter/internal/workers/frames"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAdapter struct{}

func (stubAdapter) Probe(ctx context.Context, path string) (media.ProbeInfo, error) {
	return media.ProbeInfo{DurationSeconds: 125, FrameRateExpr: "30000/1001"}, nil
}

func (stubAdapter) Extract(ctx context.Context, req media.ExtractRequest) error {
	return os.WriteFile(filepath.Join(req.OutputDir, "frame_0001."+string(req.Format)), []byte("img"), 0644)
}

func writeFiles(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("video"), 0644))
	}
}

func TestRunnerProcessesSupportedFilesOnly(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a.mp4", "nested/b.MOV", "nested/deeper/c.mkv", "notes.txt", "cover.jpg")

	var mu sync.Mutex
	var totals []int
	var errs []string
	var finishedRoot string
	events := frames.Events{
		OnBatchFinished: func(results []models.ItemResult, rootPath string, cancelled bool) {
			mu.Lock()
			defer mu.Unlock()
			finishedRoot = rootPath
		},
		OnProgress: func(name string, completed, total int) {
			mu.Lock()
			defer mu.Unlock()
			totals = append(totals, total)
		},
		OnError: func(message string) {
			mu.Lock()
			defer mu.Unlock()
			errs = append(errs, message)
		},
	}

	runner, err := Start(context.Background(), Options{
		Root:           root,
		OutputParent:   t.TempDir(),
		Config:         models.ProcessingConfig{Mode: models.ModeTime, Interval: 10, ImageFormat: models.FormatJPG},
		Executor:       frames.ExecutorThread,
		Adapter:        stubAdapter{},
		Events:         events,
		SampleInterval: 50 * time.Millisecond,
		Now:            func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.Local) },
	})
	require.NoError(t, err)
	assert.Len(t, runner.Items(), 3)
	assert.GreaterOrEqual(t, runner.Workers(), 1, "auto-sized")
	assert.Equal(t, "frames_20240102_030405", filepath.Base(runner.OutputRoot()))

	summary := runner.Wait()
	require.Len(t, summary.Results, 3)
	assert.Equal(t, 3, summary.Completed)
	assert.Equal(t, frames.StateCompleted, summary.State)
	for _, r := range summary.Results {
		assert.Equal(t, 12, r.FrameCount)
		assert.Equal(t, "2m5s", r.Duration)
		assert.Equal(t, 29.97, r.FrameRate)
		assert.Equal(t, 1, r.FramesWritten)
	}
	assert.FileExists(t, filepath.Join(runner.OutputRoot(), "b", "frame_0001.jpg"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{3, 3, 3}, totals)
	assert.Empty(t, errs)
	assert.Equal(t, root, finishedRoot, "batch finished reports the scanned directory")
	assert.Equal(t, root, summary.Root)
}

func TestRunnerInvalidRoot(t *testing.T) {
	var reported []string
	_, err := Start(context.Background(), Options{
		Root:    filepath.Join(t.TempDir(), "missing"),
		Config:  models.ProcessingConfig{Mode: models.ModeFrame, Interval: 5, Workers: 1, ImageFormat: models.FormatPNG},
		Adapter: stubAdapter{},
		Events:  frames.Events{OnError: func(m string) { reported = append(reported, m) }},
	})

	var rootErr *scanner.InvalidRootError
	require.True(t, errors.As(err, &rootErr))
	assert.Len(t, reported, 1)
}

func TestRunnerExplicitWorkersWin(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a.mp4")

	runner, err := Start(context.Background(), Options{
		Root:         root,
		OutputParent: t.TempDir(),
		OutputPrefix: "shots",
		Config:       models.ProcessingConfig{Mode: models.ModeFrame, Interval: 30, Workers: 6, ImageFormat: models.FormatPNG},
		Adapter:      stubAdapter{},
	})
	require.NoError(t, err)
	assert.Equal(t, 6, runner.Workers())
	assert.Contains(t, filepath.Base(runner.OutputRoot()), "shots_")

	summary := runner.Wait()
	require.Len(t, summary.Results, 1)
	// 125s at 29.97 fps = 3746 frames, every 30th
	assert.Equal(t, 124, summary.Results[0].FrameCount)
}
