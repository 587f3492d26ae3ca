package journal

import (
	"errors"
	"time"
)

// PageHeaderSize is the size of the page header at the start of every
// journal file. The write cursor lives in its first four bytes; the rest
// is reserved and zero. The first frame begins at this offset.
const PageHeaderSize = 64

const (
	defaultCapacity      = int64(64 << 20)
	defaultSpinThreshold = uint64(1000)

	// openPollInterval paces the reader's wait for a journal file to
	// appear.
	openPollInterval = 50 * time.Millisecond

	// maxJournalBytes keeps every frame offset representable by the
	// 32-bit cursor, rounded down to frame alignment.
	maxJournalBytes = int64(^uint32(0)) &^ 7
)

var (
	ErrClosed            = errors.New("journal closed")
	ErrJournalFull       = errors.New("journal full")
	ErrUnknownMsgType    = errors.New("unknown msg type")
	ErrFrameSizeMismatch = errors.New("frame size mismatch")
	ErrCorruptJournal    = errors.New("corrupt journal")

	// errNotReady marks a journal file that does not exist yet or has no
	// page header; Open retries on it.
	errNotReady = errors.New("journal not ready")
)
