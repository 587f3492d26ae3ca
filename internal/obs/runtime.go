package obs

import (
	"context"
	"log"
	"runtime"
	"strconv"
	"time"
)

// MemReporter logs a single-line heap and GC report on a schedule. The
// line is appended into a fixed buffer so the reporter itself stays off
// the allocation profile it is describing.
type MemReporter struct {
	buf        [1024]byte
	prev, curr runtime.MemStats
	prevAt     time.Time
	currAt     time.Time
}

// Run reports every interval until ctx is done.
func (m *MemReporter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.snapshot()
			m.print()
		}
	}
}

func (m *MemReporter) snapshot() {
	m.prev, m.curr = m.curr, m.prev
	m.prevAt = m.currAt
	m.currAt = time.Now()
	runtime.ReadMemStats(&m.curr)
	if m.prevAt.IsZero() {
		m.prevAt = m.currAt
	}
}

func (m *MemReporter) print() {
	line := m.buf[:0]

	dt := m.currAt.Sub(m.prevAt).Seconds()
	if dt <= 0 {
		dt = 1
	}

	line = append(line, "[HEAP] alloc="...)
	b, unit := carryBytes(m.curr.HeapAlloc)
	line = strconv.AppendUint(line, b, 10)
	line = append(line, unit...)

	line = append(line, " inuse="...)
	b, unit = carryBytes(m.curr.HeapInuse)
	line = strconv.AppendUint(line, b, 10)
	line = append(line, unit...)

	line = append(line, " objects="...)
	line = strconv.AppendUint(line, m.curr.HeapObjects, 10)

	line = append(line, " alloc_rate="...)
	rate := float64(m.curr.TotalAlloc-m.prev.TotalAlloc) / dt
	line = strconv.AppendFloat(line, rate/1024, 'f', 1, 64)
	line = append(line, " KB/s"...)

	line = append(line, " [GC] runs="...)
	line = strconv.AppendUint(line, uint64(m.curr.NumGC-m.prev.NumGC), 10)

	line = append(line, " stw="...)
	stwMs := float64(m.curr.PauseTotalNs-m.prev.PauseTotalNs) / 1e6
	line = strconv.AppendFloat(line, stwMs, 'f', 3, 64)
	line = append(line, "ms"...)

	line = append(line, " live="...)
	line = strconv.AppendInt(line, int64(m.curr.Mallocs)-int64(m.curr.Frees), 10)

	line = append(line, '\n')
	_, _ = log.Writer().Write(line)
}

const carryThreshold = 1 << 15

func carryBytes(value uint64) (uint64, string) {
	if value < carryThreshold {
		return value, " B"
	}
	value >>= 10
	if value < carryThreshold {
		return value, " KB"
	}
	value >>= 10
	if value < carryThreshold {
		return value, " MB"
	}
	return value >> 10, " GB"
}
