package journal

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/schema"
)

func TestOpenWaitsForJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "md.journal")

	go func() {
		time.Sleep(150 * time.Millisecond)
		w, err := Create(path, WriterOptions{Capacity: 4096})
		if err != nil {
			t.Error(err)
			return
		}
		defer w.Close()
		_ = w.AppendTicker(schema.NewHeader(schema.MsgTicker, 1, 1, 1, 0), testTicker("BTC-USDT"))
	}()

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()
	r, err := Open(ctx, path, ReaderOptions{})
	require.NoError(t, err)
	defer r.Close()

	require.EqualValues(t, PageHeaderSize, r.LocalCursor())

	require.Eventually(t, func() bool {
		events, err := r.PollOnce()
		require.NoError(t, err)
		return len(events) == 1
	}, 5*time.Second, 10*time.Millisecond)
}

func TestOpenContextDone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.journal")
	ctx, cancel := context.WithTimeout(t.Context(), 150*time.Millisecond)
	defer cancel()

	_, err := Open(ctx, path, ReaderOptions{})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestOpenWaitsForPublishedCursor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "md.journal")

	// A creating writer sizes the file before it publishes the cursor;
	// a reader arriving in between must keep polling.
	require.NoError(t, os.WriteFile(path, make([]byte, 4096), 0o644))

	go func() {
		time.Sleep(100 * time.Millisecond)
		f, err := os.OpenFile(path, os.O_RDWR, 0)
		if err != nil {
			t.Error(err)
			return
		}
		defer f.Close()
		mem, err := mapFile(f, 4096, true)
		if err != nil {
			t.Error(err)
			return
		}
		initPageHeader(mem)
		_ = unmapFile(mem)
	}()

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()
	r, err := Open(ctx, path, ReaderOptions{})
	require.NoError(t, err)
	defer r.Close()

	cursor, err := r.WriteCursor()
	require.NoError(t, err)
	require.EqualValues(t, PageHeaderSize, cursor)
	require.EqualValues(t, PageHeaderSize, r.LocalCursor())
}

func TestOpenUnpublishedCursorTimesOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "md.journal")
	require.NoError(t, os.WriteFile(path, make([]byte, 4096), 0o644))

	ctx, cancel := context.WithTimeout(t.Context(), 150*time.Millisecond)
	defer cancel()

	_, err := Open(ctx, path, ReaderOptions{})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSingleTickerExactFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "md.journal")
	w, err := Create(path, WriterOptions{Capacity: 4096})
	require.NoError(t, err)
	defer w.Close()

	genTime := uint64(time.Now().UnixNano())
	tk := schema.Ticker{
		Symbol:    schema.NewSymbol("BTC-USDT"),
		LastPrice: 50000.0,
		BidPrice:  49999.5,
		AskPrice:  50000.5,
		Volume:    12.3,
	}
	require.NoError(t, w.AppendTicker(schema.NewHeader(schema.MsgTicker, genTime, genTime, 1, 0), tk))

	r, err := Open(t.Context(), path, ReaderOptions{})
	require.NoError(t, err)
	defer r.Close()

	events, err := r.PollOnce()
	require.NoError(t, err)
	require.Len(t, events, 1)

	ev := events[0]
	require.NotNil(t, ev.Ticker)
	assert.Equal(t, "BTC-USDT", ev.Ticker.Symbol.String())
	assert.Equal(t, 50000.0, ev.Ticker.LastPrice)
	assert.Equal(t, 49999.5, ev.Ticker.BidPrice)
	assert.Equal(t, 50000.5, ev.Ticker.AskPrice)
	assert.Equal(t, 12.3, ev.Ticker.Volume)

	latency := time.Now().UnixNano() - int64(ev.Header.GenTime)
	assert.GreaterOrEqual(t, latency, int64(0))

	cursor, err := r.WriteCursor()
	require.NoError(t, err)
	assert.Equal(t, cursor, r.LocalCursor())
}

func TestBatchCursorSequence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "md.journal")
	w, err := Create(path, WriterOptions{Capacity: 4096})
	require.NoError(t, err)
	defer w.Close()

	for i := 0; i < 3; i++ {
		require.NoError(t, w.AppendTicker(schema.NewHeader(schema.MsgTicker, 1, 1, 1, 0), testTicker("BTC-USDT")))
	}
	require.NoError(t, w.AppendOrder(schema.NewHeader(schema.MsgOrder, 2, 2, 1, 0), testOrder("BTC-USDT", 9)))

	r, err := Open(t.Context(), path, ReaderOptions{})
	require.NoError(t, err)
	defer r.Close()

	// Consuming one frame at a time walks the local cursor across each
	// frame boundary.
	want := []uint32{192, 320, 448, 704}
	for i, pos := range want {
		require.NoError(t, r.Run(t.Context(), Handlers{}, 1), "frame %d", i)
		assert.Equal(t, pos, r.LocalCursor(), "frame %d", i)
	}

	cursor, err := r.WriteCursor()
	require.NoError(t, err)
	assert.Equal(t, cursor, r.LocalCursor())
}

func TestPollOnceTypedSequence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "md.journal")
	w, err := Create(path, WriterOptions{Capacity: 4096})
	require.NoError(t, err)
	defer w.Close()

	for i := 0; i < 3; i++ {
		require.NoError(t, w.AppendTicker(schema.NewHeader(schema.MsgTicker, 1, 1, 1, 0), testTicker("ETH-USDT")))
	}
	require.NoError(t, w.AppendOrder(schema.NewHeader(schema.MsgOrder, 2, 2, 1, 0), testOrder("ETH-USDT", 11)))

	r, err := Open(t.Context(), path, ReaderOptions{})
	require.NoError(t, err)
	defer r.Close()

	events, err := r.PollOnce()
	require.NoError(t, err)
	require.Len(t, events, 4)
	for i := 0; i < 3; i++ {
		require.NotNilf(t, events[i].Ticker, "event %d", i)
		assert.EqualValues(t, 128, events[i].Header.Length)
	}
	require.NotNil(t, events[3].Order)
	assert.EqualValues(t, 256, events[3].Header.Length)
	assert.EqualValues(t, 11, events[3].Order.OrderID)

	// Idle poll after the drain.
	events, err = r.PollOnce()
	require.NoError(t, err)
	require.Empty(t, events)
}

func TestReaderIndependence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "md.journal")
	w, err := Create(path, WriterOptions{Capacity: 4096})
	require.NoError(t, err)
	defer w.Close()

	for i := 0; i < 5; i++ {
		require.NoError(t, w.AppendTicker(schema.NewHeader(schema.MsgTicker, uint64(i+1), 0, 1, 0), testTicker("BTC-USDT")))
	}

	r1, err := Open(t.Context(), path, ReaderOptions{})
	require.NoError(t, err)
	r2, err := Open(t.Context(), path, ReaderOptions{})
	require.NoError(t, err)
	defer r2.Close()

	ev1, err := r1.PollOnce()
	require.NoError(t, err)
	ev2, err := r2.PollOnce()
	require.NoError(t, err)
	require.Len(t, ev1, 5)
	require.Len(t, ev2, 5)
	for i := range ev1 {
		assert.Equal(t, ev1[i].Header, ev2[i].Header)
		assert.Equal(t, *ev1[i].Ticker, *ev2[i].Ticker)
	}

	// Closing one reader leaves the other following the journal.
	require.NoError(t, r1.Close())
	require.NoError(t, w.AppendOrder(schema.NewHeader(schema.MsgOrder, 9, 9, 1, 0), testOrder("BTC-USDT", 3)))
	events, err := r2.PollOnce()
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.NotNil(t, events[0].Order)
}

func TestUnknownMsgTypeFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "md.journal")
	w, err := Create(path, WriterOptions{Capacity: 4096})
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.AppendTicker(schema.NewHeader(schema.MsgTicker, 1, 1, 1, 0), testTicker("BTC-USDT")))

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	require.NoError(t, err)
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], 99)
	_, err = f.WriteAt(buf[:], PageHeaderSize+4)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	r, err := Open(t.Context(), path, ReaderOptions{})
	require.NoError(t, err)
	defer r.Close()

	events, err := r.PollOnce()
	require.ErrorIs(t, err, ErrUnknownMsgType)
	assert.ErrorContains(t, err, "offset 64")
	assert.Empty(t, events)
}

func TestFrameSizeMismatchFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "md.journal")
	w, err := Create(path, WriterOptions{Capacity: 4096})
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.AppendTicker(schema.NewHeader(schema.MsgTicker, 1, 1, 1, 0), testTicker("BTC-USDT")))

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	require.NoError(t, err)
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], 120)
	_, err = f.WriteAt(buf[:], PageHeaderSize)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	r, err := Open(t.Context(), path, ReaderOptions{})
	require.NoError(t, err)
	defer r.Close()

	_, err = r.PollOnce()
	require.ErrorIs(t, err, ErrFrameSizeMismatch)
	assert.ErrorContains(t, err, "offset 64")
}

func TestRunDispatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "md.journal")
	w, err := Create(path, WriterOptions{Capacity: 4096})
	require.NoError(t, err)
	defer w.Close()

	for i := 0; i < 3; i++ {
		require.NoError(t, w.AppendTicker(schema.NewHeader(schema.MsgTicker, 1, 1, 1, 0), testTicker("BTC-USDT")))
	}
	require.NoError(t, w.AppendOrder(schema.NewHeader(schema.MsgOrder, 2, 2, 1, 0), testOrder("BTC-USDT", 5)))

	r, err := Open(t.Context(), path, ReaderOptions{})
	require.NoError(t, err)
	defer r.Close()

	var tickers, orders int
	h := Handlers{
		OnTicker: func(_ schema.FrameHeader, _ schema.Ticker) error {
			tickers++
			return nil
		},
		OnOrder: func(_ schema.FrameHeader, o schema.Order) error {
			orders++
			assert.EqualValues(t, 5, o.OrderID)
			return nil
		},
	}
	require.NoError(t, r.Run(t.Context(), h, 4))
	assert.Equal(t, 3, tickers)
	assert.Equal(t, 1, orders)
}

func TestRunHandlerError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "md.journal")
	w, err := Create(path, WriterOptions{Capacity: 4096})
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.AppendTicker(schema.NewHeader(schema.MsgTicker, 1, 1, 1, 0), testTicker("BTC-USDT")))

	r, err := Open(t.Context(), path, ReaderOptions{})
	require.NoError(t, err)
	defer r.Close()

	boom := assert.AnError
	h := Handlers{OnTicker: func(schema.FrameHeader, schema.Ticker) error { return boom }}
	require.ErrorIs(t, r.Run(t.Context(), h, 0), boom)
}

func TestRunBackoffSleeps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "md.journal")
	w, err := Create(path, WriterOptions{Capacity: 4096})
	require.NoError(t, err)
	defer w.Close()

	sleeps := make(chan time.Duration, 1024)
	opts := ReaderOptions{
		SpinThreshold: 1,
		sleep: func(d time.Duration) {
			select {
			case sleeps <- d:
			default:
			}
		},
	}
	r, err := Open(t.Context(), path, opts)
	require.NoError(t, err)
	defer r.Close()

	done := make(chan error, 1)
	go func() { done <- r.Run(t.Context(), Handlers{}, 1) }()

	var sawShort, sawLong bool
	deadline := time.After(5 * time.Second)
	for seen := 0; seen < 20; seen++ {
		select {
		case d := <-sleeps:
			switch d {
			case napShort:
				sawShort = true
			case napLong:
				sawLong = true
			default:
				t.Fatalf("unexpected nap %v", d)
			}
		case <-deadline:
			t.Fatal("timed out waiting for idle naps")
		}
	}
	assert.True(t, sawShort)
	assert.True(t, sawLong)

	require.NoError(t, w.AppendTicker(schema.NewHeader(schema.MsgTicker, 1, 1, 1, 0), testTicker("BTC-USDT")))
	require.NoError(t, <-done)
}

func TestRemapOnGrowth(t *testing.T) {
	path := filepath.Join(t.TempDir(), "md.journal")
	w, err := Create(path, WriterOptions{Capacity: 4096})
	require.NoError(t, err)
	defer w.Close()

	var remaps int
	r, err := Open(t.Context(), path, ReaderOptions{
		OnRemap: func(int64) { remaps++ },
	})
	require.NoError(t, err)
	defer r.Close()

	// Push the journal past its initial capacity while the reader holds
	// the old mapping.
	for i := 0; i < 40; i++ {
		require.NoError(t, w.AppendTicker(schema.NewHeader(schema.MsgTicker, uint64(i+1), 0, 1, 0), testTicker("SOL-USDT")))
	}

	events, err := r.PollOnce()
	require.NoError(t, err)
	require.Len(t, events, 40)
	require.GreaterOrEqual(t, remaps, 1)

	cursor, err := r.WriteCursor()
	require.NoError(t, err)
	assert.Equal(t, w.Cursor(), cursor)
	assert.Equal(t, cursor, r.LocalCursor())
}

func TestReaderClosed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "md.journal")
	w, err := Create(path, WriterOptions{Capacity: 4096})
	require.NoError(t, err)
	defer w.Close()

	r, err := Open(t.Context(), path, ReaderOptions{})
	require.NoError(t, err)
	require.NoError(t, r.Close())

	_, err = r.PollOnce()
	require.ErrorIs(t, err, ErrClosed)
	require.ErrorIs(t, r.Close(), ErrClosed)
}
