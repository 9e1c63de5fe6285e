// Package pools provides buffer pooling for the scan and copy paths, so long
// range scans and compactions do not allocate a fresh buffer per call.
package pools

import (
	"sync"
)

// BufferPool hands out byte slices of one fixed size. Engines size it to a
// whole number of record slots.
type BufferPool struct {
	size int
	pool sync.Pool
}

// NewBufferPool creates a pool of size-byte buffers.
func NewBufferPool(size int) *BufferPool {
	p := &BufferPool{size: size}
	p.pool.New = func() any {
		b := make([]byte, size)
		return &b
	}
	return p
}

// Size returns the length of buffers handed out by this pool.
func (p *BufferPool) Size() int {
	return p.size
}

// Get returns a buffer of exactly Size bytes. Its contents are undefined.
func (p *BufferPool) Get() *[]byte {
	bp, ok := p.pool.Get().(*[]byte)
	if !ok || len(*bp) != p.size {
		b := make([]byte, p.size)
		return &b
	}
	return bp
}

// Put returns a buffer to the pool. Buffers of another size are dropped.
func (p *BufferPool) Put(bp *[]byte) {
	if bp == nil || len(*bp) != p.size {
		return
	}
	p.pool.Put(bp)
}

var (
	poolsMu sync.Mutex
	bySize  = make(map[int]*BufferPool)
)

// ForSize returns a process-wide pool for size-byte buffers, creating it on
// first use. Engines configured with the same scan buffer size share one.
func ForSize(size int) *BufferPool {
	poolsMu.Lock()
	defer poolsMu.Unlock()

	p, ok := bySize[size]
	if !ok {
		p = NewBufferPool(size)
		bySize[size] = p
	}
	return p
}
