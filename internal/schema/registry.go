package schema

import (
	"fmt"
	"sort"
)

// FrameHeaderSize is the wire size of the common frame header.
const FrameHeaderSize = 32

// Default total frame sizes, header included.
const (
	TickerFrameSize uint32 = 128
	OrderFrameSize  uint32 = 256
)

// Registry maps message types to their fixed total frame size. It is the
// single source of truth for frame sizing: writers force the embedded
// length from it and readers validate the embedded length against it.
type Registry struct {
	sizes map[MsgType]uint32
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sizes: make(map[MsgType]uint32),
	}
}

// DefaultRegistry returns a fresh registry with the built-in frame types.
// Callers may Register additional types on the returned copy.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	if err := r.Register(MsgTicker, TickerFrameSize); err != nil {
		panic(err)
	}
	if err := r.Register(MsgOrder, OrderFrameSize); err != nil {
		panic(err)
	}
	return r
}

// defaultFrameSize returns the built-in frame size for a type, zero when
// the type is not built in.
func defaultFrameSize(msgType MsgType) uint32 {
	switch msgType {
	case MsgTicker:
		return TickerFrameSize
	case MsgOrder:
		return OrderFrameSize
	default:
		return 0
	}
}

// Register adds a frame type with its total size in bytes. Registration
// must complete before any writer or reader is opened; both sides of a
// journal must be built with identical tables.
func (r *Registry) Register(msgType MsgType, size uint32) error {
	if msgType == MsgUnknown {
		return fmt.Errorf("msg type is zero")
	}
	if size < FrameHeaderSize {
		return fmt.Errorf("frame size %d below header size %d", size, FrameHeaderSize)
	}
	if size%8 != 0 {
		return fmt.Errorf("frame size %d is not a multiple of 8", size)
	}
	if existing, ok := r.sizes[msgType]; ok {
		return fmt.Errorf("msg type %d already registered with size %d", msgType, existing)
	}
	r.sizes[msgType] = size
	return nil
}

// FrameSize returns the total frame size for a type.
func (r *Registry) FrameSize(msgType MsgType) (uint32, bool) {
	size, ok := r.sizes[msgType]
	return size, ok
}

// Types returns the registered types in ascending order.
func (r *Registry) Types() []MsgType {
	types := make([]MsgType, 0, len(r.sizes))
	for t := range r.sizes {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Count returns the number of registered types.
func (r *Registry) Count() int {
	return len(r.sizes)
}
