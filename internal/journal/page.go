package journal

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"main/internal/codec"
	"main/internal/schema"
)

// loadCursor reads the published write cursor with acquire ordering.
// Everything written before the matching storeCursor is visible after it.
func loadCursor(mem []byte) uint32 {
	return atomic.LoadUint32((*uint32)(unsafe.Pointer(&mem[0])))
}

// storeCursor publishes a new write cursor with release ordering. All
// frame bytes below the new cursor must be written before the store.
func storeCursor(mem []byte, cursor uint32) {
	atomic.StoreUint32((*uint32)(unsafe.Pointer(&mem[0])), cursor)
}

// initPageHeader zeroes the page header and publishes the first write
// position.
func initPageHeader(mem []byte) {
	clear(mem[:PageHeaderSize])
	storeCursor(mem, PageHeaderSize)
}

// validatePageHeader checks the header of a freshly mapped journal.
func validatePageHeader(mem []byte) error {
	if len(mem) < PageHeaderSize {
		return fmt.Errorf("%w: mapping %d bytes below page header size", ErrCorruptJournal, len(mem))
	}
	if cursor := loadCursor(mem); cursor < PageHeaderSize {
		return fmt.Errorf("%w: cursor %d inside page header", ErrCorruptJournal, cursor)
	}
	return nil
}

// verifyFrames walks [from, to) and checks that it holds a whole number
// of frames consistent with the registry. Used when resuming a writer on
// an existing journal.
func verifyFrames(mem []byte, reg *schema.Registry, from, to uint32) error {
	offset := from
	for offset < to {
		header, ok := codec.DecodeFrameHeader(mem[offset:])
		if !ok {
			return fmt.Errorf("%w: truncated frame header at offset %d", ErrCorruptJournal, offset)
		}
		size, ok := reg.FrameSize(header.Type)
		if !ok {
			return fmt.Errorf("%w: msg type %d at offset %d", ErrUnknownMsgType, header.Type, offset)
		}
		if header.Length != size {
			return fmt.Errorf("%w: msg type %s embedded %d registry %d at offset %d",
				ErrFrameSizeMismatch, header.Type, header.Length, size, offset)
		}
		if to-offset < size {
			return fmt.Errorf("%w: frame at offset %d passes cursor %d", ErrCorruptJournal, offset, to)
		}
		offset += size
	}
	return nil
}
