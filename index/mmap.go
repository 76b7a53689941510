package index

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// MappedReader is a Reader backed by a read-only memory-mapped index file
// rather than an in-memory copy. Get and Len behave identically to a
// Reader built from bytes read into memory; the only difference is that
// the kernel, not this process, owns the page cache backing the data.
type MappedReader struct {
	*Reader
	data []byte
}

// Map opens path, a sidecar index file, and memory-maps it read-only. The
// caller must call Close when done to release the mapping.
func Map(path string) (*MappedReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat index file: %w", err)
	}
	size := info.Size()
	if size == 0 {
		return &MappedReader{Reader: NewReader(nil)}, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap index file: %w", err)
	}

	return &MappedReader{Reader: NewReader(data), data: data}, nil
}

// Close unmaps the index file's memory region. The MappedReader must not
// be used afterward.
func (m *MappedReader) Close() error {
	if m.data == nil {
		return nil
	}
	data := m.data
	m.data = nil
	m.Reader = NewReader(nil)
	return unix.Munmap(data)
}
