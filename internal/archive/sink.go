package archive

import (
	"sync"

	"github.com/yanun0323/errors"
	"gorm.io/gorm"

	"main/internal/schema"
)

const defaultBatchSize = 500

// SinkOptions configures a Sink.
type SinkOptions struct {
	// BatchSize is the row count that triggers an automatic flush.
	BatchSize int
}

func (o SinkOptions) withDefaults() SinkOptions {
	if o.BatchSize <= 0 {
		o.BatchSize = defaultBatchSize
	}
	return o
}

// Sink buffers decoded journal events and writes them to Postgres in
// batches. Enqueue flushes automatically once a buffer reaches
// BatchSize; a periodic Flush drains partial batches. Safe for a
// consumer goroutine plus a flush timer.
type Sink struct {
	mu      sync.Mutex
	db      *gorm.DB
	opts    SinkOptions
	tickers []TickerRow
	orders  []OrderRow
	written uint64
	skipped uint64
}

// NewSink creates a sink on an open database handle.
func NewSink(db *gorm.DB, opts SinkOptions) (*Sink, error) {
	if db == nil {
		return nil, errors.New("archive sink requires a database")
	}
	opts = opts.withDefaults()
	return &Sink{
		db:      db,
		opts:    opts,
		tickers: make([]TickerRow, 0, opts.BatchSize),
		orders:  make([]OrderRow, 0, opts.BatchSize),
	}, nil
}

// Migrate creates or updates the archive tables.
func (s *Sink) Migrate() error {
	if err := s.db.AutoMigrate(&TickerRow{}, &OrderRow{}); err != nil {
		return errors.Wrap(err, "migrate archive tables")
	}
	return nil
}

// Enqueue buffers one event, flushing the owning buffer when it reaches
// the batch size. Events without a decoded payload are skipped.
func (s *Sink) Enqueue(ev schema.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case ev.Ticker != nil:
		s.tickers = append(s.tickers, FromTicker(ev.Header, *ev.Ticker))
		if len(s.tickers) >= s.opts.BatchSize {
			return s.flushTickers()
		}
	case ev.Order != nil:
		s.orders = append(s.orders, FromOrder(ev.Header, *ev.Order))
		if len(s.orders) >= s.opts.BatchSize {
			return s.flushOrders()
		}
	default:
		s.skipped++
	}
	return nil
}

// Flush writes all buffered rows.
func (s *Sink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.flushTickers(); err != nil {
		return err
	}
	return s.flushOrders()
}

// Written returns the number of rows written so far.
func (s *Sink) Written() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.written
}

// Skipped returns the number of events dropped for lacking a payload.
func (s *Sink) Skipped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.skipped
}

// Pending returns the number of buffered rows awaiting a flush.
func (s *Sink) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tickers) + len(s.orders)
}

func (s *Sink) flushTickers() error {
	if len(s.tickers) == 0 {
		return nil
	}
	if err := s.db.CreateInBatches(s.tickers, s.opts.BatchSize).Error; err != nil {
		return errors.Wrapf(err, "insert %d tickers", len(s.tickers))
	}
	s.written += uint64(len(s.tickers))
	s.tickers = s.tickers[:0]
	return nil
}

func (s *Sink) flushOrders() error {
	if len(s.orders) == 0 {
		return nil
	}
	if err := s.db.CreateInBatches(s.orders, s.opts.BatchSize).Error; err != nil {
		return errors.Wrapf(err, "insert %d orders", len(s.orders))
	}
	s.written += uint64(len(s.orders))
	s.orders = s.orders[:0]
	return nil
}
