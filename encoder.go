package jce

import (
	"io"
	"math"
	"unicode/utf8"

	intr "github.com/dadrian/jce/internal"
)

// Encoder writes JCE-encoded values to an io.Writer. Every write takes
// the tag of the value explicitly; the caller decides the tag from the
// enclosing container (field id, element index, or 0/1 for map
// entries).
//
// An Encoder is not safe for concurrent use.
type Encoder struct {
	w     io.Writer
	opts  Options
	depth int
	n     int64
	buf   []byte
}

// ElemFunc encodes the i-th element of a container under tag.
type ElemFunc func(e *Encoder, tag uint8, i int) error

func (e *Encoder) flush() error { return e.write(e.buf) }

func (e *Encoder) write(p []byte) error {
	n, err := e.w.Write(p)
	e.n += int64(n)
	if err != nil {
		return &Error{Offset: e.n, Kind: ErrIO, Detail: "writing sink", Err: err}
	}
	return nil
}

func (e *Encoder) enter() error {
	if e.depth >= e.opts.MaxDepth {
		return errorf(ErrDepthExceeded, "more than %d nested containers", e.opts.MaxDepth)
	}
	e.depth++
	return nil
}

func (e *Encoder) leave() { e.depth-- }

// WriteHeader writes a bare (tag, type) header.
func (e *Encoder) WriteHeader(tag uint8, t TypeCode) error {
	if !t.Valid() {
		return errorf(ErrUnknownTypeCode, "cannot write header with %v", t)
	}
	e.buf = intr.AppendHeader(e.buf[:0], tag, byte(t))
	return e.flush()
}

// WriteInt writes v at the narrowest integer width that holds it; zero
// takes no payload at all.
func (e *Encoder) WriteInt(tag uint8, v int64) error {
	typ := intr.NumberType(v)
	e.buf = intr.AppendHeader(e.buf[:0], tag, typ)
	e.buf = intr.AppendNumberPayload(e.buf, typ, v)
	return e.flush()
}

// writeIntAs writes v at a fixed integer width, bypassing the
// narrowest-width choice.
func (e *Encoder) writeIntAs(tag uint8, typ byte, v int64) error {
	e.buf = intr.AppendHeader(e.buf[:0], tag, typ)
	e.buf = intr.AppendNumberPayload(e.buf, typ, v)
	return e.flush()
}

// WriteUint writes v reinterpreted as a signed 64-bit integer.
func (e *Encoder) WriteUint(tag uint8, v uint64) error { return e.WriteInt(tag, int64(v)) }

// WriteBool writes false as 0 and true as 1.
func (e *Encoder) WriteBool(tag uint8, v bool) error {
	if v {
		return e.WriteInt(tag, 1)
	}
	return e.WriteInt(tag, 0)
}

// WriteFloat32 always writes the full 4-byte form, zero included.
func (e *Encoder) WriteFloat32(tag uint8, v float32) error {
	e.buf = intr.AppendHeader(e.buf[:0], tag, intr.Float32)
	e.buf = intr.AppendF32(e.buf, v)
	return e.flush()
}

// WriteFloat64 always writes the full 8-byte form, zero included.
func (e *Encoder) WriteFloat64(tag uint8, v float64) error {
	e.buf = intr.AppendHeader(e.buf[:0], tag, intr.Float64)
	e.buf = intr.AppendF64(e.buf, v)
	return e.flush()
}

// WriteString writes s with a 1-byte length when it fits, else a 4-byte
// length.
func (e *Encoder) WriteString(tag uint8, s string) error {
	if !utf8.ValidString(s) {
		return errorf(ErrInvalidUTF8, "string field %d", tag)
	}
	switch n := len(s); {
	case n <= math.MaxUint8:
		e.buf = intr.AppendHeader(e.buf[:0], tag, intr.String1)
		e.buf = append(e.buf, byte(n))
	case uint64(n) <= math.MaxUint32:
		e.buf = intr.AppendHeader(e.buf[:0], tag, intr.String4)
		e.buf = intr.AppendU32(e.buf, uint32(n))
	default:
		return errorf(ErrLengthOverflow, "string of %d bytes", n)
	}
	if err := e.flush(); err != nil {
		return err
	}
	n, err := io.WriteString(e.w, s)
	e.n += int64(n)
	if err != nil {
		return &Error{Offset: e.n, Kind: ErrIO, Detail: "writing sink", Err: err}
	}
	return nil
}

// WriteBytes writes b as a simple list: the block header, a fixed
// Int8 marker header with tag 0, the length as a number, then the raw
// bytes.
func (e *Encoder) WriteBytes(tag uint8, b []byte) error {
	e.buf = intr.AppendHeader(e.buf[:0], tag, intr.SimpleList)
	e.buf = intr.AppendHeader(e.buf, 0, intr.Int8)
	if err := e.flush(); err != nil {
		return err
	}
	if err := e.WriteInt(0, int64(len(b))); err != nil {
		return err
	}
	return e.write(b)
}

// WriteSequence writes a list header, the element count under tag 0,
// then n elements tagged with their index. Indices above 255 wrap.
func (e *Encoder) WriteSequence(tag uint8, n int, elem ElemFunc) error {
	if n < 0 {
		return errorf(ErrLengthOverflow, "negative sequence length %d", n)
	}
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()
	if err := e.WriteHeader(tag, TypeList); err != nil {
		return err
	}
	if err := e.WriteInt(0, int64(n)); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := elem(e, uint8(i), i); err != nil {
			return err
		}
	}
	return nil
}

// WriteMap writes a map header, the entry count, then for each entry
// the key under MapKeyTag and the value under MapValueTag.
func (e *Encoder) WriteMap(tag uint8, n int, key, value ElemFunc) error {
	if n < 0 {
		return errorf(ErrLengthOverflow, "negative map length %d", n)
	}
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()
	if err := e.WriteHeader(tag, TypeMap); err != nil {
		return err
	}
	if err := e.WriteInt(0, int64(n)); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := key(e, MapKeyTag, i); err != nil {
			return err
		}
		if err := value(e, MapValueTag, i); err != nil {
			return err
		}
	}
	return nil
}

// WriteRecord writes a nested record: a struct-begin header, the fields
// written by fields, and a struct-end sentinel with tag 0.
func (e *Encoder) WriteRecord(tag uint8, fields func(e *Encoder) error) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()
	if err := e.WriteHeader(tag, TypeStructBegin); err != nil {
		return err
	}
	if err := fields(e); err != nil {
		return err
	}
	return e.WriteHeader(0, TypeStructEnd)
}

// writeTopRecord writes the outermost record: its fields appear bare at
// stream start with neither a begin header nor an end sentinel.
func (e *Encoder) writeTopRecord(fields func(e *Encoder) error) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()
	return fields(e)
}
