package sizer

import (
	"context"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/process"
)

// Usage is one CPU usage reading of the host and of this process tree
type Usage struct {
	SystemPercent  float64 // whole host, 0-100
	ProcessPercent float64 // this process and its descendants, summed over cores
	PerCorePercent float64 // ProcessPercent divided by the logical core count
	Cores          int
	Processes      int
}

// Monitor samples the CPU usage of the current process tree. Worker child
// processes and the tools they start are included.
type Monitor struct {
	mu    sync.Mutex
	root  int32
	cores int
	procs map[int32]*process.Process
	last  Usage
}

// NewMonitor creates a monitor rooted at the current process
func NewMonitor() *Monitor {
	cores, err := cpu.Counts(true)
	if err != nil || cores < 1 {
		cores = runtime.NumCPU()
	}
	return &Monitor{
		root:  int32(os.Getpid()),
		cores: cores,
		procs: make(map[int32]*process.Process),
	}
}

// Sample takes a reading relative to the previous call. The first reading of
// a newly seen process contributes zero.
func (m *Monitor) Sample(ctx context.Context) (Usage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tree, err := m.collectTree(ctx)
	if err != nil {
		return m.last, err
	}

	var total float64
	for _, p := range tree {
		pct, err := p.PercentWithContext(ctx, 0)
		if err != nil {
			continue // process exited between listing and sampling
		}
		total += pct
	}

	system := 0.0
	if percents, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(percents) > 0 {
		system = percents[0]
	}

	m.last = Usage{
		SystemPercent:  system,
		ProcessPercent: total,
		PerCorePercent: total / float64(m.cores),
		Cores:          m.cores,
		Processes:      len(tree),
	}
	return m.last, nil
}

// collectTree returns the root process and all descendants, reusing the
// process handles of earlier samples so per-process deltas stay meaningful
func (m *Monitor) collectTree(ctx context.Context) ([]*process.Process, error) {
	root, err := m.handle(ctx, m.root)
	if err != nil {
		return nil, err
	}

	seen := map[int32]bool{m.root: true}
	tree := []*process.Process{root}
	for i := 0; i < len(tree); i++ {
		children, err := tree[i].ChildrenWithContext(ctx)
		if err != nil {
			continue
		}
		for _, child := range children {
			if seen[child.Pid] {
				continue
			}
			seen[child.Pid] = true
			if h, err := m.handle(ctx, child.Pid); err == nil {
				tree = append(tree, h)
			}
		}
	}

	for pid := range m.procs {
		if !seen[pid] {
			delete(m.procs, pid)
		}
	}
	return tree, nil
}

func (m *Monitor) handle(ctx context.Context, pid int32) (*process.Process, error) {
	if p, ok := m.procs[pid]; ok {
		return p, nil
	}
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return nil, err
	}
	m.procs[pid] = p
	return p, nil
}

// Run samples every interval until ctx is done, passing each reading to fn
func (m *Monitor) Run(ctx context.Context, interval time.Duration, fn func(Usage)) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Prime the per-process baselines
	m.Sample(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			usage, err := m.Sample(ctx)
			if err == nil && fn != nil {
				fn(usage)
			}
		}
	}
}
