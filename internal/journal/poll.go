package journal

import "time"

const (
	napShort = time.Microsecond
	napLong  = 10 * time.Microsecond
)

// backoff picks the idle strategy from the consecutive empty-poll count:
// hot spin below the threshold, short naps below ten times the threshold,
// long naps beyond.
type backoff struct {
	threshold uint64
	idle      uint64
}

// next records one empty poll and returns how long to sleep before the
// next one. Zero means keep spinning.
func (b *backoff) next() time.Duration {
	b.idle++
	switch {
	case b.idle < b.threshold:
		return 0
	case b.idle < 10*b.threshold:
		return napShort
	default:
		return napLong
	}
}

// reset clears the idle streak once data arrives.
func (b *backoff) reset() {
	b.idle = 0
}
