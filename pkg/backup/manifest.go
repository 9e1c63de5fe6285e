package backup

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// Magic opens every backup stream.
	Magic = "ENBK"

	// Version is the backup stream version this package writes.
	Version = uint16(1)

	// ManifestSize is the encoded manifest length.
	ManifestSize = 4 + 2 + 8 + 8 + 8
)

var (
	ErrBadManifest = errors.New("invalid backup manifest")
	ErrTruncated   = errors.New("backup stream truncated")
)

// Manifest describes the samples that follow it in a backup stream.
type Manifest struct {
	Version uint16
	Count   uint64
	Min     uint64 // zero when Count is zero
	Max     uint64
}

// MarshalBinary encodes the manifest into ManifestSize bytes.
func (m Manifest) MarshalBinary() ([]byte, error) {
	buf := make([]byte, ManifestSize)
	copy(buf[0:4], Magic)
	binary.LittleEndian.PutUint16(buf[4:6], m.Version)
	binary.LittleEndian.PutUint64(buf[6:14], m.Count)
	binary.LittleEndian.PutUint64(buf[14:22], m.Min)
	binary.LittleEndian.PutUint64(buf[22:30], m.Max)
	return buf, nil
}

// UnmarshalBinary decodes and checks a manifest.
func (m *Manifest) UnmarshalBinary(data []byte) error {
	if len(data) < ManifestSize {
		return fmt.Errorf("%w: %d bytes, need %d", ErrBadManifest, len(data), ManifestSize)
	}
	if string(data[0:4]) != Magic {
		return fmt.Errorf("%w: bad magic %x", ErrBadManifest, data[0:4])
	}

	m.Version = binary.LittleEndian.Uint16(data[4:6])
	m.Count = binary.LittleEndian.Uint64(data[6:14])
	m.Min = binary.LittleEndian.Uint64(data[14:22])
	m.Max = binary.LittleEndian.Uint64(data[22:30])

	if m.Version != Version {
		return fmt.Errorf("%w: unsupported version %d", ErrBadManifest, m.Version)
	}
	if m.Count > 0 && m.Min > m.Max {
		return fmt.Errorf("%w: min %d above max %d", ErrBadManifest, m.Min, m.Max)
	}
	return nil
}
