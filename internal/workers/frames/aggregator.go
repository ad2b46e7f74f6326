package frames

import (
	"context"
	"sort"
	"sync"

	"github.com/JSH-Team/FrameHunter/internal/models"
)

// Aggregator is an append-only, concurrency-safe collection of ItemResults.
// Any number of workers may Add; a reader either polls with Since, follows
// Stream, or takes the Snapshot once the batch has finished.
type Aggregator struct {
	mu      sync.Mutex
	results []models.ItemResult
	updated chan struct{}
	closed  bool
}

// NewAggregator creates an empty aggregator
func NewAggregator() *Aggregator {
	return &Aggregator{updated: make(chan struct{})}
}

// Add appends a result and wakes readers waiting for new data
func (a *Aggregator) Add(result models.ItemResult) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.results = append(a.results, result)
	a.notify()
}

// Close marks the end of the batch
func (a *Aggregator) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return
	}
	a.closed = true
	a.notify()
}

func (a *Aggregator) notify() {
	close(a.updated)
	a.updated = make(chan struct{})
}

// Snapshot returns a copy of every result collected so far
func (a *Aggregator) Snapshot() []models.ItemResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]models.ItemResult(nil), a.results...)
}

// Since returns the results added after the first offset ones together with
// the offset to pass on the next call
func (a *Aggregator) Since(offset int) ([]models.ItemResult, int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if offset < 0 {
		offset = 0
	}
	if offset >= len(a.results) {
		return nil, len(a.results)
	}
	return append([]models.ItemResult(nil), a.results[offset:]...), len(a.results)
}

// Stream delivers every result, past and future, on the returned channel.
// The channel is closed after the aggregator is closed and drained, or when
// ctx is done.
func (a *Aggregator) Stream(ctx context.Context) <-chan models.ItemResult {
	out := make(chan models.ItemResult)

	go func() {
		defer close(out)

		offset := 0
		for {
			a.mu.Lock()
			pending := append([]models.ItemResult(nil), a.results[offset:]...)
			closed := a.closed
			updated := a.updated
			a.mu.Unlock()

			for _, r := range pending {
				select {
				case out <- r:
				case <-ctx.Done():
					return
				}
			}
			offset += len(pending)

			if closed {
				return
			}

			select {
			case <-updated:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// SortBySource orders results by source path, the stable order callers
// display and persist
func SortBySource(results []models.ItemResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].SourcePath < results[j].SourcePath
	})
}
