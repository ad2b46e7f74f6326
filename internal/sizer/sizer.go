// Package sizer picks a worker count from the machine's spare CPU capacity
// and samples CPU usage while a batch runs.
package sizer

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
)

// DefaultSampleInterval is how long the CPU is observed before sizing
const DefaultSampleInterval = time.Second

// Sample is a snapshot of the host CPU
type Sample struct {
	TotalCores  int
	IdlePercent float64
}

// Recommend returns max(1, min(floor(totalCores*idleFraction), totalCores-1)).
// One core stays reserved for the controlling process; single-core hosts get 1.
func Recommend(totalCores int, idleFraction float64) int {
	if totalCores < 1 {
		totalCores = 1
	}
	if math.IsNaN(idleFraction) || idleFraction < 0 {
		idleFraction = 0
	}
	if idleFraction > 1 {
		idleFraction = 1
	}

	idleCores := int(math.Floor(float64(totalCores) * idleFraction))
	n := idleCores
	if totalCores-1 < n {
		n = totalCores - 1
	}
	if n < 1 {
		return 1
	}
	return n
}

// SampleCPU measures the logical core count and the host idle percentage over interval
func SampleCPU(ctx context.Context, interval time.Duration) (Sample, error) {
	if interval <= 0 {
		interval = DefaultSampleInterval
	}

	cores, err := cpu.CountsWithContext(ctx, true)
	if err != nil || cores < 1 {
		cores = runtime.NumCPU()
	}

	percents, err := cpu.PercentWithContext(ctx, interval, false)
	if err != nil {
		return Sample{TotalCores: cores}, fmt.Errorf("failed to sample cpu usage: %w", err)
	}
	if len(percents) == 0 {
		return Sample{TotalCores: cores}, fmt.Errorf("failed to sample cpu usage: no data")
	}

	busy := math.Min(math.Max(percents[0], 0), 100)
	return Sample{TotalCores: cores, IdlePercent: 100 - busy}, nil
}

// Estimate samples the CPU and returns the recommended worker count. When
// sampling fails the count is derived from the core count alone and the
// error is returned alongside it.
func Estimate(ctx context.Context, interval time.Duration) (int, Sample, error) {
	sample, err := SampleCPU(ctx, interval)
	if err != nil {
		return Recommend(sample.TotalCores, 1), sample, err
	}
	return Recommend(sample.TotalCores, sample.IdlePercent/100), sample, nil
}
