package feed

import (
	"sync/atomic"
	"time"
)

// IDGenerator allocates monotonically increasing order IDs. It is safe
// for concurrent use.
type IDGenerator struct {
	last uint64
}

// NewIDGenerator returns a generator starting after seed. A zero seed
// starts from the current wall clock so restarts do not reuse IDs.
func NewIDGenerator(seed uint64) *IDGenerator {
	if seed == 0 {
		seed = uint64(time.Now().UTC().UnixNano())
	}
	return &IDGenerator{last: seed}
}

// Next returns the next order ID.
func (g *IDGenerator) Next() uint64 {
	if g == nil {
		return 0
	}
	return atomic.AddUint64(&g.last, 1)
}
