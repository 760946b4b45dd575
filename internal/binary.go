package internal

import (
	"encoding/binary"
	"io"
	"math"
)

var be = binary.BigEndian

func AppendU16(dst []byte, v uint16) []byte { return be.AppendUint16(dst, v) }
func AppendU32(dst []byte, v uint32) []byte { return be.AppendUint32(dst, v) }
func AppendU64(dst []byte, v uint64) []byte { return be.AppendUint64(dst, v) }

func AppendF32(dst []byte, v float32) []byte { return be.AppendUint32(dst, math.Float32bits(v)) }
func AppendF64(dst []byte, v float64) []byte { return be.AppendUint64(dst, math.Float64bits(v)) }

// ReadFixed fills buf from r, mapping a short read to io.ErrUnexpectedEOF
// even when nothing at all was read.
func ReadFixed(r io.Reader, buf []byte) error {
	_, err := io.ReadFull(r, buf)
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

func ReadI8(r io.Reader) (int8, error) {
	var b [1]byte
	if err := ReadFixed(r, b[:]); err != nil {
		return 0, err
	}
	return int8(b[0]), nil
}

func ReadU8(r io.Reader) (uint8, error) {
	var b [1]byte
	if err := ReadFixed(r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func ReadU16(r io.Reader) (uint16, error) {
	var b [2]byte
	if err := ReadFixed(r, b[:]); err != nil {
		return 0, err
	}
	return be.Uint16(b[:]), nil
}

func ReadU32(r io.Reader) (uint32, error) {
	var b [4]byte
	if err := ReadFixed(r, b[:]); err != nil {
		return 0, err
	}
	return be.Uint32(b[:]), nil
}

func ReadU64(r io.Reader) (uint64, error) {
	var b [8]byte
	if err := ReadFixed(r, b[:]); err != nil {
		return 0, err
	}
	return be.Uint64(b[:]), nil
}

func ReadF32(r io.Reader) (float32, error) {
	u, err := ReadU32(r)
	return math.Float32frombits(u), err
}

func ReadF64(r io.Reader) (float64, error) {
	u, err := ReadU64(r)
	return math.Float64frombits(u), err
}

// Discard consumes exactly n bytes from r.
func Discard(r io.Reader, n int64) error {
	got, err := io.CopyN(io.Discard, r, n)
	if got < n && (err == nil || err == io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}
