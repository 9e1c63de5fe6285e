// Package header implements the fixed-width metadata block stored at the start
// of every enod data file.
package header

import (
	"encoding/binary"
	"fmt"
)

func (h *Header) Version() uint16     { return h.version }
func (h *Header) RecordCount() uint64 { return h.recordCount }
func (h *Header) FirstValid() uint64  { return h.firstValid }

// Len returns the number of visible records.
func (h *Header) Len() uint64 {
	return h.recordCount - h.firstValid
}

// IsEmpty reports whether no records are visible.
func (h *Header) IsEmpty() bool {
	return h.Len() == 0
}

// Min returns the smallest visible timestamp; ok is false when empty.
func (h *Header) Min() (ts uint64, ok bool) {
	if h.IsEmpty() {
		return 0, false
	}
	return h.minTS, true
}

// Max returns the largest visible timestamp; ok is false when empty.
func (h *Header) Max() (ts uint64, ok bool) {
	if h.IsEmpty() {
		return 0, false
	}
	return h.maxTS, true
}

// SetCount sets the physical record count.
func (h *Header) SetCount(n uint64) {
	h.recordCount = n
}

// BumpMax records ts as the newest timestamp.
func (h *Header) BumpMax(ts uint64) {
	if ts > h.maxTS {
		h.maxTS = ts
	}
}

// SetMin overrides the cached minimum. Used when the first visible record is
// appended and after a trim moves the visible start.
func (h *Header) SetMin(ts uint64) {
	h.minTS = ts
}

// AdvanceFirstValid moves the visible start forward by up to n records and
// returns how many were actually skipped. When nothing stays visible the
// cached bounds are reset to the sentinel.
func (h *Header) AdvanceFirstValid(n uint64) uint64 {
	if n > h.Len() {
		n = h.Len()
	}
	h.firstValid += n
	if h.IsEmpty() {
		h.minTS, h.maxTS = 0, 0
	}
	return n
}

// Reset rebases the header onto a compacted file holding only the visible
// records, keeping the cached bounds.
func (h *Header) Reset() {
	h.recordCount = h.Len()
	h.firstValid = 0
}

// Clone returns a copy of h.
func (h *Header) Clone() *Header {
	c := *h
	return &c
}

// Validate checks internal consistency of a decoded header.
func (h *Header) Validate() error {
	if h.version != Version {
		return fmt.Errorf("%w: %d", ErrBadVersion, h.version)
	}
	if h.firstValid > h.recordCount {
		return fmt.Errorf("%w: first valid index %d beyond record count %d", ErrInconsistent, h.firstValid, h.recordCount)
	}
	if !h.IsEmpty() && h.minTS > h.maxTS {
		return fmt.Errorf("%w: min timestamp %d above max %d", ErrInconsistent, h.minTS, h.maxTS)
	}
	return nil
}

// MarshalBinary encodes the header into exactly Size bytes.
func (h *Header) MarshalBinary() ([]byte, error) {
	buf := make([]byte, Size)
	h.encode(buf)
	return buf, nil
}

func (h *Header) encode(buf []byte) {
	copy(buf[0:4], Magic)
	binary.LittleEndian.PutUint16(buf[4:6], h.version)
	binary.LittleEndian.PutUint64(buf[6:14], h.recordCount)
	binary.LittleEndian.PutUint64(buf[14:22], h.firstValid)
	binary.LittleEndian.PutUint64(buf[22:30], h.minTS)
	binary.LittleEndian.PutUint64(buf[30:38], h.maxTS)
}

// UnmarshalBinary decodes a header and validates magic, version and
// consistency.
func (h *Header) UnmarshalBinary(data []byte) error {
	if len(data) < Size {
		return fmt.Errorf("%w: %d bytes, need %d", ErrShortHeader, len(data), Size)
	}
	if string(data[0:4]) != Magic {
		return fmt.Errorf("%w: %x", ErrBadMagic, data[0:4])
	}
	h.version = binary.LittleEndian.Uint16(data[4:6])
	h.recordCount = binary.LittleEndian.Uint64(data[6:14])
	h.firstValid = binary.LittleEndian.Uint64(data[14:22])
	h.minTS = binary.LittleEndian.Uint64(data[22:30])
	h.maxTS = binary.LittleEndian.Uint64(data[30:38])
	return h.Validate()
}
