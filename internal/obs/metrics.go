package obs

import (
	"sync/atomic"
	"time"

	"main/internal/schema"
)

const maxMsgType = int(schema.MsgOrder)

// Metrics collects lightweight counters and latency stats for one journal
// consumer or producer.
type Metrics struct {
	frameCounts [maxMsgType + 1]uint64
	otherFrames uint64
	bytes       uint64
	remaps      uint64
	grows       uint64

	frameLatency LatencyStats
}

// LatencyStats aggregates duration samples in nanoseconds.
type LatencyStats struct {
	count uint64
	sum   uint64
	min   uint64
	max   uint64
}

// LatencySnapshot is a point-in-time view of latency stats.
type LatencySnapshot struct {
	Count uint64
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
}

// Snapshot captures the current metrics values.
type Snapshot struct {
	FrameCounts  map[schema.MsgType]uint64
	OtherFrames  uint64
	Bytes        uint64
	Remaps       uint64
	Grows        uint64
	FrameLatency LatencySnapshot
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// ObserveFrame counts one frame and tracks its latency when positive.
func (m *Metrics) ObserveFrame(msgType schema.MsgType, size uint32, latency time.Duration) {
	if m == nil {
		return
	}
	idx := int(msgType)
	if idx > 0 && idx < len(m.frameCounts) {
		atomic.AddUint64(&m.frameCounts[idx], 1)
	} else {
		atomic.AddUint64(&m.otherFrames, 1)
	}
	atomic.AddUint64(&m.bytes, uint64(size))
	if latency >= 0 {
		m.frameLatency.Observe(latency)
	}
}

// IncRemap records one mapping refresh on the reader side.
func (m *Metrics) IncRemap() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.remaps, 1)
}

// IncGrow records one capacity doubling on the writer side.
func (m *Metrics) IncGrow() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.grows, 1)
}

// Snapshot returns a copy of the current metrics values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	frameCounts := make(map[schema.MsgType]uint64)
	for i := range m.frameCounts {
		if v := atomic.LoadUint64(&m.frameCounts[i]); v > 0 {
			frameCounts[schema.MsgType(i)] = v
		}
	}
	return Snapshot{
		FrameCounts:  frameCounts,
		OtherFrames:  atomic.LoadUint64(&m.otherFrames),
		Bytes:        atomic.LoadUint64(&m.bytes),
		Remaps:       atomic.LoadUint64(&m.remaps),
		Grows:        atomic.LoadUint64(&m.grows),
		FrameLatency: m.frameLatency.Snapshot(),
	}
}

// Observe records a duration sample.
func (l *LatencyStats) Observe(d time.Duration) {
	if d < 0 {
		return
	}
	nanos := uint64(d)
	atomic.AddUint64(&l.count, 1)
	atomic.AddUint64(&l.sum, nanos)

	for {
		min := atomic.LoadUint64(&l.min)
		if min != 0 && nanos >= min {
			break
		}
		if atomic.CompareAndSwapUint64(&l.min, min, nanos) {
			break
		}
	}

	for {
		max := atomic.LoadUint64(&l.max)
		if nanos <= max {
			break
		}
		if atomic.CompareAndSwapUint64(&l.max, max, nanos) {
			break
		}
	}
}

// Snapshot returns the aggregated latency stats.
func (l *LatencyStats) Snapshot() LatencySnapshot {
	count := atomic.LoadUint64(&l.count)
	if count == 0 {
		return LatencySnapshot{}
	}
	sum := atomic.LoadUint64(&l.sum)
	min := atomic.LoadUint64(&l.min)
	max := atomic.LoadUint64(&l.max)
	return LatencySnapshot{
		Count: count,
		Min:   time.Duration(min),
		Max:   time.Duration(max),
		Avg:   time.Duration(sum / count),
	}
}
