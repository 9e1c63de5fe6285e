// Package record encodes and decodes the fixed-width sample slots stored in an
// enod data file.
package record

import (
	"encoding/binary"
	"fmt"
)

// Record slot format (little-endian):
//
//	[Timestamp: 8][Value: 1]
const (
	TimestampSize = 8
	ValueSize     = 1
	Size          = TimestampSize + ValueSize
)

// Sample is one (timestamp, value) pair.
type Sample struct {
	Timestamp uint64
	Value     byte
}

// String implements fmt.Stringer
func (s Sample) String() string {
	return fmt.Sprintf("(%d, %d)", s.Timestamp, s.Value)
}

// Encode writes s into dst, which must hold at least Size bytes.
func Encode(dst []byte, s Sample) {
	_ = dst[Size-1] // bounds check hint
	binary.LittleEndian.PutUint64(dst[0:TimestampSize], s.Timestamp)
	dst[TimestampSize] = s.Value
}

// Decode reads a sample from the first Size bytes of src.
func Decode(src []byte) Sample {
	_ = src[Size-1]
	return Sample{
		Timestamp: binary.LittleEndian.Uint64(src[0:TimestampSize]),
		Value:     src[TimestampSize],
	}
}

// DecodeTimestamp reads only the timestamp of an encoded slot.
func DecodeTimestamp(src []byte) uint64 {
	return binary.LittleEndian.Uint64(src[0:TimestampSize])
}

// Append encodes s onto the end of dst and returns the extended slice.
func Append(dst []byte, s Sample) []byte {
	dst = binary.LittleEndian.AppendUint64(dst, s.Timestamp)
	return append(dst, s.Value)
}
