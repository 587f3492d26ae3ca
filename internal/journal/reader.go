package journal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"main/internal/codec"
	"main/internal/schema"
)

// ReaderOptions controls journal following.
type ReaderOptions struct {
	// SpinThreshold is the consecutive empty-poll count below which Run
	// hot-spins. Defaults to 1000.
	SpinThreshold uint64

	// Registry defines the frame types this journal carries. Must match
	// the writer's table. Defaults to schema.DefaultRegistry.
	Registry *schema.Registry

	// OnFrame is called for every consumed frame with its type and size.
	// Optional.
	OnFrame func(msgType schema.MsgType, size uint32)

	// OnRemap is called after the mapping is refreshed to follow file
	// growth. Optional.
	OnRemap func(size int64)

	// sleep replaces time.Sleep in Run. Tests only.
	sleep func(time.Duration)
}

func (o ReaderOptions) withDefaults() ReaderOptions {
	if o.SpinThreshold == 0 {
		o.SpinThreshold = defaultSpinThreshold
	}
	if o.Registry == nil {
		o.Registry = schema.DefaultRegistry()
	}
	if o.sleep == nil {
		o.sleep = time.Sleep
	}
	return o
}

// Validate checks option consistency.
func (o ReaderOptions) Validate() error {
	if o.Registry.Count() == 0 {
		return fmt.Errorf("registry is empty")
	}
	return validateBuiltinSizes(o.Registry)
}

// Handlers receives typed events during Run. A nil handler consumes and
// counts frames of that type without delivering them.
type Handlers struct {
	OnTicker func(schema.FrameHeader, schema.Ticker) error
	OnOrder  func(schema.FrameHeader, schema.Order) error
}

// Reader follows one journal file. Its position is private; the shared
// mapping is never written. A Reader is not safe for concurrent use, but
// any number of Readers may follow the same journal independently.
type Reader struct {
	file   *os.File
	mem    []byte
	local  uint32
	opts   ReaderOptions
	closed bool
}

// Open maps an existing journal for reading, positioned at the first
// frame. It blocks, polling at a coarse interval, until the file exists
// with a published page header or ctx is done. Permission and mapping
// failures are returned immediately.
func Open(ctx context.Context, path string, opts ReaderOptions) (*Reader, error) {
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	ticker := time.NewTicker(openPollInterval)
	defer ticker.Stop()
	for {
		file, mem, err := mapJournal(path)
		if err == nil {
			return &Reader{
				file:  file,
				mem:   mem,
				local: PageHeaderSize,
				opts:  opts,
			}, nil
		}
		if !errors.Is(err, errNotReady) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// mapJournal opens and maps path once it carries a published write
// cursor. Absent files, files shorter than the page header, and files
// whose cursor is still inside the header report errNotReady: a creating
// writer sizes the file first and publishes the cursor last.
func mapJournal(path string) (*os.File, []byte, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, errNotReady
		}
		return nil, nil, fmt.Errorf("open journal: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, nil, fmt.Errorf("stat journal: %w", err)
	}
	if info.Size() < PageHeaderSize {
		_ = file.Close()
		return nil, nil, errNotReady
	}
	mem, err := mapFile(file, int(info.Size()), false)
	if err != nil {
		_ = file.Close()
		return nil, nil, err
	}
	if loadCursor(mem) < PageHeaderSize {
		_ = unmapFile(mem)
		_ = file.Close()
		return nil, nil, errNotReady
	}
	return file, mem, nil
}

// WriteCursor returns the writer's published cursor, refreshing the
// mapping first when it has fallen behind a grown file.
func (r *Reader) WriteCursor() (uint32, error) {
	if r.closed {
		return 0, ErrClosed
	}
	cursor := loadCursor(r.mem)
	if int(cursor) > len(r.mem) {
		if err := r.remap(); err != nil {
			return 0, err
		}
		cursor = loadCursor(r.mem)
		if int(cursor) > len(r.mem) {
			return 0, fmt.Errorf("%w: cursor %d beyond file size %d", ErrCorruptJournal, cursor, len(r.mem))
		}
	}
	return cursor, nil
}

// LocalCursor returns the reader's private position.
func (r *Reader) LocalCursor() uint32 {
	return r.local
}

func (r *Reader) remap() error {
	info, err := r.file.Stat()
	if err != nil {
		return fmt.Errorf("stat journal: %w", err)
	}
	size := info.Size()
	if size <= int64(len(r.mem)) {
		return nil
	}
	if err := unmapFile(r.mem); err != nil {
		r.mem = nil
		r.closed = true
		return fmt.Errorf("unmap journal: %w", err)
	}
	mem, err := mapFile(r.file, int(size), false)
	if err != nil {
		r.mem = nil
		r.closed = true
		return err
	}
	r.mem = mem
	if r.opts.OnRemap != nil {
		r.opts.OnRemap(size)
	}
	return nil
}

// next consumes one frame if one is published. ok is false when idle.
func (r *Reader) next() (ev schema.Event, ok bool, err error) {
	cursor, err := r.WriteCursor()
	if err != nil {
		return schema.Event{}, false, err
	}
	if cursor == r.local {
		return schema.Event{}, false, nil
	}
	if cursor < r.local {
		return schema.Event{}, false, fmt.Errorf("%w: cursor moved backward from %d to %d", ErrCorruptJournal, r.local, cursor)
	}
	ev, size, err := r.decodeFrame(r.local, cursor)
	if err != nil {
		return schema.Event{}, false, err
	}
	r.local += size
	if r.opts.OnFrame != nil {
		r.opts.OnFrame(ev.Header.Type, size)
	}
	return ev, true, nil
}

// decodeFrame validates and decodes the frame at offset. The registry
// size for the embedded msg type is authoritative; a disagreeing length
// field means the stream is corrupt, not resizable.
func (r *Reader) decodeFrame(offset, cursor uint32) (schema.Event, uint32, error) {
	header, ok := codec.DecodeFrameHeader(r.mem[offset:cursor])
	if !ok {
		return schema.Event{}, 0, fmt.Errorf("%w: truncated frame header at offset %d", ErrCorruptJournal, offset)
	}
	size, ok := r.opts.Registry.FrameSize(header.Type)
	if !ok {
		return schema.Event{}, 0, fmt.Errorf("%w: msg type %d at offset %d", ErrUnknownMsgType, header.Type, offset)
	}
	if header.Length != size {
		return schema.Event{}, 0, fmt.Errorf("%w: msg type %s embedded %d registry %d at offset %d",
			ErrFrameSizeMismatch, header.Type, header.Length, size, offset)
	}
	if cursor-offset < size {
		return schema.Event{}, 0, fmt.Errorf("%w: frame at offset %d passes cursor %d", ErrCorruptJournal, offset, cursor)
	}

	frame := r.mem[offset : offset+size]
	switch header.Type {
	case schema.MsgTicker:
		tk, ok := codec.DecodeTicker(frame)
		if !ok {
			return schema.Event{}, 0, fmt.Errorf("%w: ticker frame at offset %d", ErrCorruptJournal, offset)
		}
		return schema.TickerEvent(header, tk), size, nil
	case schema.MsgOrder:
		o, ok := codec.DecodeOrder(frame)
		if !ok {
			return schema.Event{}, 0, fmt.Errorf("%w: order frame at offset %d", ErrCorruptJournal, offset)
		}
		return schema.OrderEvent(header, o), size, nil
	default:
		// Registered but not a built-in type: sized, counted, undecoded.
		return schema.Event{Header: header}, size, nil
	}
}

// PollOnce drains every whole frame between the local cursor and a single
// snapshot of the write cursor. It never blocks; nil, nil means idle. On a
// fatal decode error the events decoded before the failure are returned
// with the error.
func (r *Reader) PollOnce() ([]schema.Event, error) {
	cursor, err := r.WriteCursor()
	if err != nil {
		return nil, err
	}
	if cursor == r.local {
		return nil, nil
	}
	if cursor < r.local {
		return nil, fmt.Errorf("%w: cursor moved backward from %d to %d", ErrCorruptJournal, r.local, cursor)
	}
	var events []schema.Event
	for r.local < cursor {
		ev, size, err := r.decodeFrame(r.local, cursor)
		if err != nil {
			return events, err
		}
		r.local += size
		if r.opts.OnFrame != nil {
			r.opts.OnFrame(ev.Header.Type, size)
		}
		events = append(events, ev)
	}
	return events, nil
}

// Run dispatches frames until ctx is done, maxEvents frames have been
// consumed (0 = unbounded), a handler fails, or the journal desyncs.
// Idle periods follow the spin/nap backoff around SpinThreshold.
func (r *Reader) Run(ctx context.Context, h Handlers, maxEvents uint64) error {
	b := backoff{threshold: r.opts.SpinThreshold}
	var consumed uint64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		ev, ok, err := r.next()
		if err != nil {
			return err
		}
		if !ok {
			if d := b.next(); d > 0 {
				r.opts.sleep(d)
			}
			continue
		}
		b.reset()
		if err := dispatch(h, ev); err != nil {
			return err
		}
		consumed++
		if maxEvents > 0 && consumed >= maxEvents {
			return nil
		}
	}
}

func dispatch(h Handlers, ev schema.Event) error {
	switch {
	case ev.Ticker != nil:
		if h.OnTicker != nil {
			return h.OnTicker(ev.Header, *ev.Ticker)
		}
	case ev.Order != nil:
		if h.OnOrder != nil {
			return h.OnOrder(ev.Header, *ev.Order)
		}
	}
	return nil
}

// Close unmaps and closes the journal file.
func (r *Reader) Close() error {
	if r.closed {
		return ErrClosed
	}
	r.closed = true
	err := unmapFile(r.mem)
	r.mem = nil
	if cerr := r.file.Close(); err == nil {
		err = cerr
	}
	return err
}
