package datafile

import (
	"fmt"
	"io"
	"os"
)

// File is a read-write Handle over an *os.File. It tracks the file length
// itself so Len does not stat on every call.
type File struct {
	path string
	file *os.File
	size int64
}

// Create creates path, overwriting any existing file.
func Create(path string) (*File, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create data file %s: %w", path, err)
	}
	return &File{path: path, file: file}, nil
}

// Open opens an existing file for reading and writing.
func Open(path string) (*File, error) {
	file, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open data file %s: %w", path, err)
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to stat data file %s: %w", path, err)
	}

	return &File{path: path, file: file, size: info.Size()}, nil
}

func (f *File) Path() string   { return f.path }
func (f *File) Len() int64     { return f.size }
func (f *File) ReadOnly() bool { return false }

// ReadAt implements io.ReaderAt.
func (f *File) ReadAt(p []byte, off int64) (int, error) {
	return f.file.ReadAt(p, off)
}

// Read returns exactly n bytes at off, or io.ErrUnexpectedEOF if the file ends
// first.
func (f *File) Read(off int64, n int) ([]byte, error) {
	return readFull(f, off, n)
}

// WriteAt implements io.WriterAt.
func (f *File) WriteAt(p []byte, off int64) (int, error) {
	n, err := f.file.WriteAt(p, off)
	if end := off + int64(n); end > f.size {
		f.size = end
	}
	return n, err
}

// Append writes p at the end of the file.
func (f *File) Append(p []byte) error {
	if _, err := f.WriteAt(p, f.size); err != nil {
		return fmt.Errorf("failed to append %d bytes: %w", len(p), err)
	}
	return nil
}

// Truncate changes the file size.
func (f *File) Truncate(size int64) error {
	if err := f.file.Truncate(size); err != nil {
		return fmt.Errorf("failed to truncate to %d bytes: %w", size, err)
	}
	f.size = size
	return nil
}

// Sync flushes the file to disk.
func (f *File) Sync() error {
	return f.file.Sync()
}

// Close syncs and closes the file.
func (f *File) Close() error {
	if err := f.file.Sync(); err != nil {
		_ = f.file.Close()
		return err
	}
	return f.file.Close()
}

func readFull(r io.ReaderAt, off int64, n int) ([]byte, error) {
	buf := make([]byte, n)
	read, err := r.ReadAt(buf, off)
	if read == n {
		return buf, nil
	}
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return nil, fmt.Errorf("short read at offset %d (%d of %d bytes): %w", off, read, n, err)
}
