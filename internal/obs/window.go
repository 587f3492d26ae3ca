package obs

import "time"

// DefaultWindowSize is the per-window event count for periodic telemetry
// reports.
const DefaultWindowSize = 10000

// WindowReport summarizes one filled telemetry window.
type WindowReport struct {
	Events       uint64
	Avg          time.Duration
	Min          time.Duration
	Max          time.Duration
	EventsPerSec float64
}

// WindowStats accumulates per-event latency over fixed-count windows and
// emits a report each time a window fills, then starts the next window
// empty. It is owned by a single consumer loop and is not safe for
// concurrent use.
type WindowStats struct {
	size   uint64
	report func(WindowReport)

	count uint64
	sum   uint64
	min   uint64
	max   uint64
	start time.Time
}

// NewWindowStats creates window stats reporting every size events. A size
// of zero or below falls back to DefaultWindowSize; a nil report func
// only resets windows.
func NewWindowStats(size int, report func(WindowReport)) *WindowStats {
	if size <= 0 {
		size = DefaultWindowSize
	}
	return &WindowStats{
		size:   uint64(size),
		report: report,
	}
}

// Observe records one event latency. Negative samples count as zero.
func (w *WindowStats) Observe(latency time.Duration) {
	if latency < 0 {
		latency = 0
	}
	if w.count == 0 {
		w.start = time.Now()
		w.min = uint64(latency)
	}
	nanos := uint64(latency)
	w.count++
	w.sum += nanos
	if nanos < w.min {
		w.min = nanos
	}
	if nanos > w.max {
		w.max = nanos
	}
	if w.count >= w.size {
		w.flush()
	}
}

// Pending returns the event count of the currently filling window.
func (w *WindowStats) Pending() uint64 {
	return w.count
}

func (w *WindowStats) flush() {
	elapsed := time.Since(w.start).Seconds()
	if elapsed <= 0 {
		elapsed = 1e-9
	}
	if w.report != nil {
		w.report(WindowReport{
			Events:       w.count,
			Avg:          time.Duration(w.sum / w.count),
			Min:          time.Duration(w.min),
			Max:          time.Duration(w.max),
			EventsPerSec: float64(w.count) / elapsed,
		})
	}
	w.count = 0
	w.sum = 0
	w.min = 0
	w.max = 0
}
