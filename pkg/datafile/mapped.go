package datafile

import (
	"fmt"

	"golang.org/x/exp/mmap"
)

// MappedFile is a read-only Handle backed by a memory-mapped file. Mutators
// return ErrReadOnly.
type MappedFile struct {
	path   string
	reader *mmap.ReaderAt
}

// OpenMapped maps path for reading.
func OpenMapped(path string) (*MappedFile, error) {
	reader, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to map data file %s: %w", path, err)
	}
	return &MappedFile{path: path, reader: reader}, nil
}

func (m *MappedFile) Path() string   { return m.path }
func (m *MappedFile) Len() int64     { return int64(m.reader.Len()) }
func (m *MappedFile) ReadOnly() bool { return true }

func (m *MappedFile) ReadAt(p []byte, off int64) (int, error) {
	return m.reader.ReadAt(p, off)
}

func (m *MappedFile) Read(off int64, n int) ([]byte, error) {
	return readFull(m.reader, off, n)
}

func (m *MappedFile) WriteAt(p []byte, off int64) (int, error) { return 0, ErrReadOnly }
func (m *MappedFile) Append(p []byte) error                    { return ErrReadOnly }
func (m *MappedFile) Truncate(size int64) error                { return ErrReadOnly }

// Sync is a no-op; nothing is ever written through a mapped handle.
func (m *MappedFile) Sync() error { return nil }

func (m *MappedFile) Close() error {
	return m.reader.Close()
}
