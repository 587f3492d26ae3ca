package journal

import (
	"fmt"
	"os"

	"main/internal/codec"
	"main/internal/schema"
)

// WriterOptions controls journal creation and resumption.
type WriterOptions struct {
	// Capacity is the initial file size in bytes. The file doubles when an
	// append would pass it. Defaults to 64 MiB.
	Capacity int64

	// Registry defines the frame types this journal carries. Defaults to
	// schema.DefaultRegistry.
	Registry *schema.Registry

	// OnAppend is called after each published frame with its type and
	// size. Optional.
	OnAppend func(msgType schema.MsgType, size uint32)

	// OnGrow is called after each capacity doubling. Optional.
	OnGrow func(capacity int64)
}

func (o WriterOptions) withDefaults() WriterOptions {
	if o.Capacity == 0 {
		o.Capacity = defaultCapacity
	}
	if o.Registry == nil {
		o.Registry = schema.DefaultRegistry()
	}
	return o
}

// Validate checks option consistency.
func (o WriterOptions) Validate() error {
	if o.Capacity < PageHeaderSize+int64(schema.FrameHeaderSize) {
		return fmt.Errorf("capacity %d cannot hold a single frame", o.Capacity)
	}
	if o.Capacity > maxJournalBytes {
		return fmt.Errorf("capacity %d beyond cursor range %d", o.Capacity, maxJournalBytes)
	}
	if o.Registry.Count() == 0 {
		return fmt.Errorf("registry is empty")
	}
	return validateBuiltinSizes(o.Registry)
}

// validateBuiltinSizes rejects registries whose ticker or order entry
// disagrees with the codec layouts.
func validateBuiltinSizes(reg *schema.Registry) error {
	if size, ok := reg.FrameSize(schema.MsgTicker); ok && size != schema.TickerFrameSize {
		return fmt.Errorf("ticker frame size %d, codec layout is %d", size, schema.TickerFrameSize)
	}
	if size, ok := reg.FrameSize(schema.MsgOrder); ok && size != schema.OrderFrameSize {
		return fmt.Errorf("order frame size %d, codec layout is %d", size, schema.OrderFrameSize)
	}
	return nil
}

// Writer is the producing side of one journal file. A journal has exactly
// one writer; Writer is not safe for concurrent use.
type Writer struct {
	file     *os.File
	mem      []byte
	cursor   uint32
	registry *schema.Registry
	onAppend func(schema.MsgType, uint32)
	onGrow   func(int64)
	frames   uint64
	closed   bool
}

// Create starts a fresh journal session. It refuses an existing file so a
// stale journal is never silently overwritten.
func Create(path string, opts WriterOptions) (*Writer, error) {
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create journal: %w", err)
	}
	if err := file.Truncate(opts.Capacity); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("size journal to %d: %w", opts.Capacity, err)
	}
	mem, err := mapFile(file, int(opts.Capacity), true)
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	initPageHeader(mem)
	return newWriter(file, mem, PageHeaderSize, opts), nil
}

// Resume reopens an existing journal and continues at its published
// cursor. The region below the cursor is verified against the registry
// before any append.
func Resume(path string, opts WriterOptions) (*Writer, error) {
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("stat journal: %w", err)
	}
	size := info.Size()
	if size < PageHeaderSize {
		_ = file.Close()
		return nil, fmt.Errorf("%w: file size %d below page header", ErrCorruptJournal, size)
	}
	if size > maxJournalBytes {
		_ = file.Close()
		return nil, fmt.Errorf("%w: file size %d beyond cursor range", ErrCorruptJournal, size)
	}
	mem, err := mapFile(file, int(size), true)
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	if err := validatePageHeader(mem); err != nil {
		_ = unmapFile(mem)
		_ = file.Close()
		return nil, err
	}
	cursor := loadCursor(mem)
	if int64(cursor) > size {
		_ = unmapFile(mem)
		_ = file.Close()
		return nil, fmt.Errorf("%w: cursor %d beyond file size %d", ErrCorruptJournal, cursor, size)
	}
	if err := verifyFrames(mem, opts.Registry, PageHeaderSize, cursor); err != nil {
		_ = unmapFile(mem)
		_ = file.Close()
		return nil, err
	}
	return newWriter(file, mem, cursor, opts), nil
}

func newWriter(file *os.File, mem []byte, cursor uint32, opts WriterOptions) *Writer {
	return &Writer{
		file:     file,
		mem:      mem,
		cursor:   cursor,
		registry: opts.Registry,
		onAppend: opts.OnAppend,
		onGrow:   opts.OnGrow,
	}
}

// AppendTicker appends a ticker frame and publishes the cursor.
func (w *Writer) AppendTicker(h schema.FrameHeader, tk schema.Ticker) error {
	buf, size, err := w.slot(schema.MsgTicker)
	if err != nil {
		return err
	}
	codec.EncodeTicker(buf, h, tk)
	w.publish(schema.MsgTicker, size)
	return nil
}

// AppendOrder appends an order frame and publishes the cursor.
func (w *Writer) AppendOrder(h schema.FrameHeader, o schema.Order) error {
	buf, size, err := w.slot(schema.MsgOrder)
	if err != nil {
		return err
	}
	codec.EncodeOrder(buf, h, o)
	w.publish(schema.MsgOrder, size)
	return nil
}

// Append appends a typed event.
func (w *Writer) Append(ev schema.Event) error {
	switch {
	case ev.Ticker != nil:
		return w.AppendTicker(ev.Header, *ev.Ticker)
	case ev.Order != nil:
		return w.AppendOrder(ev.Header, *ev.Order)
	default:
		return ErrUnknownMsgType
	}
}

// slot reserves the next frame region in the mapping, growing the file
// when the append would pass the mapped capacity.
func (w *Writer) slot(msgType schema.MsgType) ([]byte, uint32, error) {
	if w.closed {
		return nil, 0, ErrClosed
	}
	size, ok := w.registry.FrameSize(msgType)
	if !ok {
		return nil, 0, fmt.Errorf("%w: msg type %d", ErrUnknownMsgType, msgType)
	}
	end := uint64(w.cursor) + uint64(size)
	if end > uint64(len(w.mem)) {
		if err := w.grow(int64(end)); err != nil {
			return nil, 0, err
		}
	}
	return w.mem[w.cursor:end], size, nil
}

// publish makes the frame visible to readers. The release store orders
// every frame byte before the cursor update.
func (w *Writer) publish(msgType schema.MsgType, size uint32) {
	w.cursor += size
	storeCursor(w.mem, w.cursor)
	w.frames++
	if w.onAppend != nil {
		w.onAppend(msgType, size)
	}
}

func (w *Writer) grow(need int64) error {
	if need > maxJournalBytes {
		return fmt.Errorf("%w: need %d bytes, cursor range ends at %d", ErrJournalFull, need, maxJournalBytes)
	}
	capacity := int64(len(w.mem))
	for capacity < need {
		capacity *= 2
	}
	if capacity > maxJournalBytes {
		capacity = maxJournalBytes
	}
	if err := w.file.Truncate(capacity); err != nil {
		return fmt.Errorf("grow journal to %d: %w", capacity, err)
	}
	if err := unmapFile(w.mem); err != nil {
		w.mem = nil
		w.closed = true
		return fmt.Errorf("unmap journal: %w", err)
	}
	mem, err := mapFile(w.file, int(capacity), true)
	if err != nil {
		w.mem = nil
		w.closed = true
		return err
	}
	w.mem = mem
	if w.onGrow != nil {
		w.onGrow(capacity)
	}
	return nil
}

// Cursor returns the published write cursor.
func (w *Writer) Cursor() uint32 {
	return w.cursor
}

// Frames returns the number of frames appended by this writer instance.
func (w *Writer) Frames() uint64 {
	return w.frames
}

// Capacity returns the current mapped file size.
func (w *Writer) Capacity() int64 {
	return int64(len(w.mem))
}

// Path returns the journal file path.
func (w *Writer) Path() string {
	return w.file.Name()
}

// Close unmaps and closes the journal file. The file stays in place for
// readers and a later Resume.
func (w *Writer) Close() error {
	if w.closed {
		return ErrClosed
	}
	w.closed = true
	err := unmapFile(w.mem)
	w.mem = nil
	if cerr := w.file.Close(); err == nil {
		err = cerr
	}
	return err
}
