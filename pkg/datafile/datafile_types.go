// Package datafile wraps the single file backing an enod store with
// offset-addressed read, write, append and truncate primitives.
package datafile

import (
	"errors"
	"io"
)

// ErrReadOnly is returned by mutators on a handle opened for reading only.
var ErrReadOnly = errors.New("data file is read-only")

// Handle is the set of byte-range primitives the engine needs from its file.
// All operations are synchronous. Writes are durable only once Sync returns.
type Handle interface {
	io.ReaderAt
	io.Closer

	// Read returns n bytes starting at off.
	Read(off int64, n int) ([]byte, error)
	// WriteAt writes p at off without changing the tracked length unless
	// the write extends past it.
	WriteAt(p []byte, off int64) (int, error)
	// Append writes p at the current end of file.
	Append(p []byte) error
	// Truncate shrinks or extends the file to size bytes.
	Truncate(size int64) error
	// Len returns the current file length in bytes.
	Len() int64
	// Sync commits written data to stable storage.
	Sync() error
	// Path returns the file path.
	Path() string
	// ReadOnly reports whether mutators are rejected.
	ReadOnly() bool
}

var (
	_ Handle = (*File)(nil)
	_ Handle = (*MappedFile)(nil)
)
