// Package profiler records how long the stages of a run take.
package profiler

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"
)

// TimeTracker tracks operation timing statistics.
type TimeTracker struct {
	name      string
	totalTime time.Duration
	minTime   time.Duration
	maxTime   time.Duration
	count     int64
}

// OperationStats is a snapshot of one tracked operation.
type OperationStats struct {
	Name  string        `json:"name"`
	Count int64         `json:"count"`
	Total time.Duration `json:"total"`
	Min   time.Duration `json:"min"`
	Max   time.Duration `json:"max"`
}

// Mean returns the average duration of the operation.
func (s OperationStats) Mean() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Count)
}

// Profiler collects operation timings. It is safe for concurrent use.
//
// @example
// prof := profiler.New()
// done := prof.StartOperation("segmentation")
// masks, err := seg.Segment(ctx, frames)
// done()
type Profiler struct {
	mu         sync.Mutex
	startTime  time.Time
	operations map[string]*TimeTracker
	order      []string
}

// New creates a profiler whose uptime starts now.
func New() *Profiler {
	return &Profiler{
		startTime:  time.Now(),
		operations: make(map[string]*TimeTracker),
	}
}

// StartOperation begins timing an operation.
//
// Arguments:
// - name: The name of the operation to track
//
// Returns:
// - A function to call when the operation completes
func (p *Profiler) StartOperation(name string) func() {
	start := time.Now()
	return func() {
		p.Record(name, time.Since(start))
	}
}

// Record adds one completed run of an operation.
func (p *Profiler) Record(name string, duration time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tracker, exists := p.operations[name]
	if !exists {
		tracker = &TimeTracker{
			name:    name,
			minTime: duration,
			maxTime: duration,
		}
		p.operations[name] = tracker
		p.order = append(p.order, name)
	}

	tracker.totalTime += duration
	tracker.count++

	if duration < tracker.minTime {
		tracker.minTime = duration
	}
	if duration > tracker.maxTime {
		tracker.maxTime = duration
	}
}

// Stats returns the tracked operations in the order they were first recorded.
func (p *Profiler) Stats() []OperationStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]OperationStats, 0, len(p.order))
	for _, name := range p.order {
		t := p.operations[name]
		out = append(out, OperationStats{
			Name:  t.name,
			Count: t.count,
			Total: t.totalTime,
			Min:   t.minTime,
			Max:   t.maxTime,
		})
	}
	return out
}

// Uptime returns the time since the profiler was created.
func (p *Profiler) Uptime() time.Duration {
	return time.Since(p.startTime)
}

// LogValue implements slog.LogValuer: one group attribute per operation with its total time,
// followed by the heap in use.
func (p *Profiler) LogValue() slog.Value {
	stats := p.Stats()
	attrs := make([]slog.Attr, 0, len(stats)+2)
	for _, s := range stats {
		attrs = append(attrs, slog.Duration(s.Name, s.Total))
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	attrs = append(attrs,
		slog.Duration("uptime", p.Uptime()),
		slog.String("heap", formatBytes(mem.HeapAlloc)))
	return slog.GroupValue(attrs...)
}

// formatBytes formats byte counts in human-readable format.
func formatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
