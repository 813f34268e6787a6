// Package pool provides reusable byte buffers for tag assembly and payload
// staging, so writing and copying tag streams does not allocate per tag.
package pool

import "sync"

const (
	// TagBufferDefaultSize fits every fixed-layout struct tag and most data
	// tags without growing.
	TagBufferDefaultSize = 16 * 1024
	// TagBufferMaxThreshold caps what the pool retains. Raw data buffers run
	// to a few megabytes per tag; anything larger is left to the collector.
	TagBufferMaxThreshold = 4 * 1024 * 1024
)

// ByteBuffer is a growable byte slice with its backing array exposed, so
// callers can append through encoding helpers and hand the result to a
// single Write.
type ByteBuffer struct {
	B []byte
}

// NewByteBuffer returns an empty buffer with the given capacity.
func NewByteBuffer(defaultSize int) *ByteBuffer {
	return &ByteBuffer{
		B: make([]byte, 0, defaultSize),
	}
}

// Bytes returns the filled portion of the buffer.
func (bb *ByteBuffer) Bytes() []byte {
	return bb.B
}

// Reset empties the buffer, keeping the allocation for reuse.
func (bb *ByteBuffer) Reset() {
	bb.B = bb.B[:0]
}

// Len returns the number of filled bytes.
func (bb *ByteBuffer) Len() int {
	return len(bb.B)
}

// Cap returns the capacity of the backing array.
func (bb *ByteBuffer) Cap() int {
	return cap(bb.B)
}

// Extend lengthens the buffer by n bytes if capacity allows, reporting
// whether it did.
func (bb *ByteBuffer) Extend(n int) bool {
	curLen := len(bb.B)
	if cap(bb.B)-curLen < n {
		return false
	}

	bb.B = bb.B[:curLen+n]

	return true
}

// ExtendOrGrow lengthens the buffer by n bytes, reallocating when capacity
// runs out. The extension is not zeroed when it comes from existing capacity.
func (bb *ByteBuffer) ExtendOrGrow(n int) {
	if bb.Extend(n) {
		return
	}

	start := len(bb.B)
	bb.Grow(n)
	bb.B = bb.B[:start+n]
}

// Grow ensures the buffer can take requiredBytes more bytes without
// reallocating. Small buffers step up by the default size; larger ones by a
// quarter of their capacity, to keep reallocation cost bounded without
// hoarding memory.
func (bb *ByteBuffer) Grow(requiredBytes int) {
	available := cap(bb.B) - len(bb.B)
	if available >= requiredBytes {
		return
	}

	growBy := TagBufferDefaultSize
	if cap(bb.B) > 4*TagBufferDefaultSize {
		growBy = cap(bb.B) / 4
	}
	if growBy < requiredBytes {
		growBy = requiredBytes
	}

	newBuf := make([]byte, len(bb.B), len(bb.B)+growBy)
	copy(newBuf, bb.B)
	bb.B = newBuf
}

// ByteBufferPool hands out ByteBuffers backed by a sync.Pool. Buffers whose
// capacity grew past maxThreshold are dropped on Put instead of retained.
type ByteBufferPool struct {
	pool         sync.Pool
	maxThreshold int
}

// NewByteBufferPool creates a pool whose fresh buffers have defaultSize
// capacity. A maxThreshold of zero retains everything.
func NewByteBufferPool(defaultSize int, maxThreshold int) *ByteBufferPool {
	return &ByteBufferPool{
		pool: sync.Pool{
			New: func() any {
				return NewByteBuffer(defaultSize)
			},
		},
		maxThreshold: maxThreshold,
	}
}

// Get retrieves an empty buffer from the pool.
func (bbp *ByteBufferPool) Get() *ByteBuffer {
	bb, _ := bbp.pool.Get().(*ByteBuffer)
	return bb
}

// Put returns a buffer to the pool for reuse.
func (bbp *ByteBufferPool) Put(bb *ByteBuffer) {
	if bb == nil {
		return
	}

	if bbp.maxThreshold > 0 && cap(bb.B) > bbp.maxThreshold {
		return
	}

	bb.Reset()
	bbp.pool.Put(bb)
}

var tagBufferPool = NewByteBufferPool(TagBufferDefaultSize, TagBufferMaxThreshold)

// GetTagBuffer retrieves a buffer sized for tag work from the shared pool.
func GetTagBuffer() *ByteBuffer {
	return tagBufferPool.Get()
}

// PutTagBuffer returns a tag buffer to the shared pool.
func PutTagBuffer(bb *ByteBuffer) {
	tagBufferPool.Put(bb)
}
