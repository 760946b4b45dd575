package internal

import (
	"bytes"
	"sync"
)

var bufPool = sync.Pool{New: func() any { return new(bytes.Buffer) }}

func GetBuffer() *bytes.Buffer {
	b := bufPool.Get().(*bytes.Buffer)
	b.Reset()
	return b
}

// PutBuffer returns b to the pool. Oversized buffers are dropped so one
// large message does not pin memory.
func PutBuffer(b *bytes.Buffer) {
	if b != nil && b.Cap() <= 1<<16 {
		bufPool.Put(b)
	}
}
