package internal

import (
	"bufio"
	"io"
)

// Reader tracks the stream offset for error reporting and provides the
// single-byte reads the header codec needs.
type Reader struct {
	r   io.ByteReader
	rd  io.Reader
	off int64
}

type byteReader interface {
	io.Reader
	io.ByteReader
}

// NewReader wraps r, buffering it only when it cannot read single bytes.
func NewReader(r io.Reader) *Reader {
	br, ok := r.(byteReader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &Reader{r: br, rd: br}
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int64 { return r.off }

func (r *Reader) Read(p []byte) (int, error) {
	n, err := r.rd.Read(p)
	r.off += int64(n)
	return n, err
}

func (r *Reader) ReadByte() (byte, error) {
	b, err := r.r.ReadByte()
	if err == nil {
		r.off++
	}
	return b, err
}
