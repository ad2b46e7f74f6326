package frames

import (
	"context"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/JSH-Team/FrameHunter/internal/models"
	"github.com/JSH-Team/FrameHunter/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newThreadPool(t *testing.T, adapter *fakeAdapter, rec *recorder) *Pool {
	t.Helper()
	pool, err := NewFrameWorkerPool(Options{Adapter: adapter, Executor: ExecutorThread, Events: rec.events(), Root: "/videos"})
	require.NoError(t, err)
	return pool
}

func TestPoolCompletesEveryItem(t *testing.T) {
	out := t.TempDir()
	items := numberedItems("/videos", 10)
	rec := newRecorder()
	pool := newThreadPool(t, newFakeAdapter(), rec)

	require.NoError(t, pool.Start(context.Background(), items, testConfig(3), out))
	summary := waitDone(t, pool, 10*time.Second)

	assert.Equal(t, StateCompleted, summary.State)
	assert.Equal(t, StateCompleted, pool.State())
	assert.False(t, summary.Cancelled)
	assert.Equal(t, len(items), summary.Completed)
	assert.Equal(t, len(items), pool.Completed())
	assert.Equal(t, 0, summary.Failed)
	require.Len(t, summary.Results, len(items))
	assert.Equal(t, len(items), rec.startedCount())

	// every progress event carries the batch total and counts 1..n exactly once
	events := rec.progressEvents()
	require.Len(t, events, len(items))
	seen := make([]int, 0, len(events))
	for _, e := range events {
		assert.Equal(t, len(items), e.total)
		seen = append(seen, e.completed)
	}
	sort.Ints(seen)
	for i, c := range seen {
		assert.Equal(t, i+1, c)
	}

	first := summary.Results[0]
	assert.Equal(t, "clip00.mp4", first.FileName)
	assert.Equal(t, "/videos", first.SourceDir)
	assert.Equal(t, "mp4", first.Type)
	assert.Equal(t, 3.0, first.SizeMB)
	assert.Equal(t, "0m10s", first.Duration)
	assert.Equal(t, 25.0, first.FrameRate)
	assert.Equal(t, 5, first.FrameCount)
	assert.Equal(t, 2, first.FramesWritten)
	assert.Equal(t, filepath.Join(out, "clip00"), first.OutputDir)
	assert.FileExists(t, filepath.Join(out, "clip00", "frame_0002.png"))
	assert.NoDirExists(t, filepath.Join(out, storage.StagingDirName))

	assert.Equal(t, "/videos", summary.Root)
	assert.Equal(t, out, summary.OutputRoot)

	finished := <-rec.finished
	assert.False(t, finished.cancelled)
	assert.Equal(t, "/videos", finished.root, "the scanned directory, not the batch output")
	assert.Len(t, finished.results, len(items))
}

func TestPoolRecordsFailures(t *testing.T) {
	adapter := newFakeAdapter()
	adapter.probeErr["broken.mp4"] = toolError("broken.mp4")
	items := makeItems("/videos", "good.mp4", "broken.mp4", "badfps.mp4")
	rec := newRecorder()
	pool := newThreadPool(t, adapter, rec)

	require.NoError(t, pool.Start(context.Background(), items, testConfig(2), t.TempDir()))
	summary := waitDone(t, pool, 10*time.Second)

	require.Len(t, summary.Results, 3)
	assert.Equal(t, 3, summary.Completed)
	assert.Equal(t, 2, summary.Failed)

	byName := map[string]models.ItemResult{}
	for _, r := range summary.Results {
		byName[r.FileName] = r
	}
	assert.False(t, byName["good.mp4"].Failed)

	broken := byName["broken.mp4"]
	assert.True(t, broken.Failed)
	assert.Equal(t, models.FailureMarker, broken.Duration)
	assert.Contains(t, broken.Error, "Invalid data found")
	assert.Empty(t, broken.OutputDir)

	badFPS := byName["badfps.mp4"]
	assert.True(t, badFPS.Failed)
	assert.Equal(t, models.FailureMarker, badFPS.Duration)
	assert.Contains(t, badFPS.Error, "0/0")

	assert.Equal(t, int32(1), adapter.extracts.Load(), "failed items never reach extraction")
}

func TestPoolStopIsIdempotent(t *testing.T) {
	adapter := newFakeAdapter()
	adapter.delay = 20 * time.Millisecond
	items := numberedItems("/videos", 20)
	rec := newRecorder()
	pool := newThreadPool(t, adapter, rec)

	require.NoError(t, pool.Start(context.Background(), items, testConfig(2), t.TempDir()))
	pool.Stop()
	pool.Stop()
	summary := waitDone(t, pool, 10*time.Second)
	pool.Stop()

	assert.Equal(t, StateCancelled, summary.State)
	assert.Equal(t, StateCancelled, pool.State())
	assert.True(t, summary.Cancelled)
	assert.LessOrEqual(t, summary.Completed, len(items))
	assert.Len(t, summary.Results, summary.Completed, "abandoned items leave no result")

	finished := <-rec.finished
	assert.True(t, finished.cancelled)
}

func TestPoolPauseThenStopTerminates(t *testing.T) {
	adapter := newFakeAdapter()
	adapter.delay = 30 * time.Millisecond
	items := numberedItems("/videos", 12)
	pool := newThreadPool(t, adapter, newRecorder())

	require.NoError(t, pool.Start(context.Background(), items, testConfig(3), t.TempDir()))
	waitFor(t, 5*time.Second, func() bool { return pool.Completed() >= 1 })

	pool.Pause()
	assert.Equal(t, StatePaused, pool.State())

	// in-flight items drain, then nothing moves
	time.Sleep(150 * time.Millisecond)
	settled := pool.Completed()
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, settled, pool.Completed())

	pool.Stop()
	assert.NotEqual(t, StateRunning, pool.State(), "a stopped pool never reads as resumed")
	pool.Resume()
	assert.NotEqual(t, StateRunning, pool.State())
	summary := waitDone(t, pool, 5*time.Second)
	assert.Equal(t, StateCancelled, summary.State)
	assert.Less(t, summary.Completed, len(items))
	assert.Equal(t, settled, summary.Completed)
}

func TestPoolPauseResume(t *testing.T) {
	adapter := newFakeAdapter()
	adapter.delay = 20 * time.Millisecond
	items := numberedItems("/videos", 8)
	pool := newThreadPool(t, adapter, newRecorder())

	require.NoError(t, pool.Start(context.Background(), items, testConfig(2), t.TempDir()))
	pool.Pause()
	pool.Pause()
	assert.Equal(t, StatePaused, pool.State())

	time.Sleep(100 * time.Millisecond)
	settled := pool.Completed()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, settled, pool.Completed())

	pool.Resume()
	assert.Equal(t, StateRunning, pool.State())
	summary := waitDone(t, pool, 10*time.Second)

	assert.Equal(t, StateCompleted, summary.State)
	assert.Equal(t, len(items), summary.Completed)
}

func TestPoolContextCancelStops(t *testing.T) {
	adapter := newFakeAdapter()
	adapter.delay = 20 * time.Millisecond
	pool := newThreadPool(t, adapter, newRecorder())

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, pool.Start(ctx, numberedItems("/videos", 50), testConfig(2), t.TempDir()))
	cancel()

	summary := waitDone(t, pool, 10*time.Second)
	assert.True(t, summary.Cancelled)
	assert.Less(t, summary.Completed, 50)
}

func TestPoolStartTwice(t *testing.T) {
	pool := newThreadPool(t, newFakeAdapter(), newRecorder())
	require.NoError(t, pool.Start(context.Background(), numberedItems("/videos", 1), testConfig(1), t.TempDir()))
	assert.ErrorIs(t, pool.Start(context.Background(), nil, testConfig(1), t.TempDir()), ErrNotIdle)
	waitDone(t, pool, 5*time.Second)
}

func TestPoolRejectsInvalidConfig(t *testing.T) {
	pool := newThreadPool(t, newFakeAdapter(), newRecorder())
	cfg := testConfig(1)
	cfg.Interval = 0
	assert.Error(t, pool.Start(context.Background(), numberedItems("/videos", 1), cfg, t.TempDir()))
	assert.Equal(t, StateIdle, pool.State())
	assert.Equal(t, StateIdle, pool.Wait().State)
}

func TestPoolEmptyBatch(t *testing.T) {
	rec := newRecorder()
	pool := newThreadPool(t, newFakeAdapter(), rec)
	require.NoError(t, pool.Start(context.Background(), nil, testConfig(4), t.TempDir()))

	summary := waitDone(t, pool, 5*time.Second)
	assert.Equal(t, StateCompleted, summary.State)
	assert.Zero(t, summary.Completed)
	finished := <-rec.finished
	assert.Empty(t, finished.results)
}

func TestPoolSameBaseNameGetsDistinctDirs(t *testing.T) {
	out := t.TempDir()
	items := []models.WorkItem{
		{Path: "/videos/a/clip.mp4", RelPath: "a/clip.mp4", Extension: ".mp4"},
		{Path: "/videos/b/clip.mp4", RelPath: "b/clip.mp4", Extension: ".mp4"},
	}
	pool := newThreadPool(t, newFakeAdapter(), newRecorder())
	require.NoError(t, pool.Start(context.Background(), items, testConfig(2), out))
	summary := waitDone(t, pool, 5*time.Second)

	require.Len(t, summary.Results, 2)
	assert.NotEqual(t, summary.Results[0].OutputDir, summary.Results[1].OutputDir)
	for _, r := range summary.Results {
		assert.Equal(t, 2, r.FramesWritten)
	}
}

func TestPoolLiveResults(t *testing.T) {
	pool := newThreadPool(t, newFakeAdapter(), newRecorder())
	stream := pool.Results().Stream(context.Background())

	require.NoError(t, pool.Start(context.Background(), numberedItems("/videos", 5), testConfig(2), t.TempDir()))

	count := 0
	for range stream {
		count++
	}
	assert.Equal(t, 5, count)
	waitDone(t, pool, 5*time.Second)
}

func TestPoolPauseDuringProbeHoldsExtraction(t *testing.T) {
	hold := t.TempDir()
	adapter := newFakeAdapter()
	adapter.holdDir = hold
	rec := newRecorder()
	pool := newThreadPool(t, adapter, rec)

	require.NoError(t, pool.Start(context.Background(), makeItems("/videos", "a.mp4"), testConfig(1), t.TempDir()))
	waitFor(t, 5*time.Second, func() bool { return markerExists(hold, "a.mp4.probing") })

	// the pause lands while the probe runs; the item stops at the next checkpoint
	pool.Pause()
	touchMarker(hold, "release")
	waitFor(t, 5*time.Second, func() bool { return markerExists(hold, "a.mp4.probed") })
	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, int32(0), adapter.extracts.Load())
	assert.Equal(t, 0, pool.Completed())
	assert.Equal(t, StatePaused, pool.State())

	pool.Stop()
	summary := waitDone(t, pool, 5*time.Second)

	assert.Equal(t, StateCancelled, summary.State)
	assert.Zero(t, summary.Completed)
	assert.Empty(t, summary.Results)
	assert.Empty(t, rec.progressEvents())
	assert.Equal(t, int32(0), adapter.extracts.Load(), "a stopped item is never extracted")
}
