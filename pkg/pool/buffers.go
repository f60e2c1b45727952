// Package pool reuses render buffers across live sessions.
package pool

import (
	"bytes"
	"sync"
)

// MaxPooledBuffer is the largest buffer capacity returned to the pool.
const MaxPooledBuffer = 64 * 1024

var bufferPool = sync.Pool{
	New: func() any {
		return new(bytes.Buffer)
	},
}

// GetBuffer retrieves a buffer from the pool, resetting it for use.
func GetBuffer() *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// PutBuffer returns a buffer to the pool. Buffers that grew past
// MaxPooledBuffer are dropped.
func PutBuffer(buf *bytes.Buffer) {
	if buf == nil || buf.Cap() > MaxPooledBuffer {
		return
	}
	bufferPool.Put(buf)
}
