//go:build unix

package journal

import (
	"fmt"
	"os"
	"syscall"
)

// mapFile maps size bytes of f as MAP_SHARED, read-only unless writable.
func mapFile(f *os.File, size int, writable bool) ([]byte, error) {
	prot := syscall.PROT_READ
	if writable {
		prot |= syscall.PROT_WRITE
	}
	mem, err := syscall.Mmap(int(f.Fd()), 0, size, prot, syscall.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap %d bytes of %s: %w", size, f.Name(), err)
	}
	return mem, nil
}

// unmapFile releases a mapping created by mapFile.
func unmapFile(mem []byte) error {
	if len(mem) == 0 {
		return nil
	}
	return syscall.Munmap(mem)
}
