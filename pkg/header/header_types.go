package header

import (
	"errors"

	"github.com/dd0wney/enod/pkg/record"
)

// Header format (little-endian, fixed width):
//
//	[Magic: 4][Version: 2][RecordCount: 8][FirstValid: 8][MinTS: 8][MaxTS: 8]
const (
	Magic   = "ENOD"
	Version = uint16(1)
	Size    = 4 + 2 + 8 + 8 + 8 + 8
)

var (
	ErrShortHeader  = errors.New("header too short")
	ErrBadMagic     = errors.New("bad magic")
	ErrBadVersion   = errors.New("unsupported version")
	ErrInconsistent = errors.New("inconsistent header")
)

// Header is the in-memory copy of the metadata block at the start of a data
// file. RecordCount counts physical slots; slots before FirstValid have been
// trimmed and are invisible to queries.
//
// MinTS and MaxTS describe the visible region and are both zero when it is
// empty.
type Header struct {
	version     uint16
	recordCount uint64
	firstValid  uint64
	minTS       uint64
	maxTS       uint64
}

// New returns an initialized zero-record header.
func New() *Header {
	return &Header{version: Version}
}

// ExpectedFileSize returns the byte length a file with this header must have.
func (h *Header) ExpectedFileSize() int64 {
	return int64(Size) + int64(h.recordCount)*int64(record.Size)
}

// SlotOffset returns the byte offset of the record slot at index i.
func SlotOffset(i uint64) int64 {
	return int64(Size) + int64(i)*int64(record.Size)
}
