package jce

import (
	"fmt"
	"io"
	"unicode/utf8"

	intr "github.com/dadrian/jce/internal"
)

// maxPrealloc caps up-front allocation for declared lengths; larger
// containers grow as their elements actually arrive.
const maxPrealloc = 1024

// Decoder reads JCE-encoded values from an io.Reader. The type code of
// the current position is passed explicitly to every typed read; it
// comes from the header the caller just read (ReadHeader), or NoType at
// the outermost position.
//
// A Decoder is not safe for concurrent use. After any error the stream
// position is undefined.
type Decoder struct {
	r      *intr.Reader
	opts   Options
	depth  int
	peek   Header
	peeked bool
}

// FieldFunc receives each field header of a record. It returns false,
// without consuming anything, for fields it does not recognize; those
// are skipped.
type FieldFunc func(d *Decoder, h Header) (bool, error)

// Offset returns the number of bytes consumed from the source.
func (d *Decoder) Offset() int64 { return d.r.Offset() }

func (d *Decoder) fail(kind ErrorKind, format string, args ...any) error {
	return &Error{Offset: d.r.Offset(), Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

func (d *Decoder) ioErr(err error) error {
	switch err {
	case nil:
		return nil
	case io.EOF, io.ErrUnexpectedEOF:
		return &Error{Offset: d.r.Offset(), Kind: ErrUnexpectedEnd, Err: io.ErrUnexpectedEOF}
	}
	if _, ok := err.(*Error); ok {
		return err
	}
	return &Error{Offset: d.r.Offset(), Kind: ErrIO, Detail: "reading source", Err: err}
}

func (d *Decoder) mismatch(got, want TypeCode) error {
	if got == NoType {
		return d.fail(ErrMissingType, "reading %v", want)
	}
	return d.fail(ErrTypeMismatch, "expected %v, got %v", want, got)
}

func (d *Decoder) enter() error {
	if d.depth >= d.opts.MaxDepth {
		return d.fail(ErrDepthExceeded, "more than %d nested containers", d.opts.MaxDepth)
	}
	d.depth++
	return nil
}

func (d *Decoder) leave() { d.depth-- }

// nextHeader returns ok=false when the source ends cleanly before a
// header starts.
func (d *Decoder) nextHeader() (h Header, ok bool, err error) {
	if d.peeked {
		d.peeked = false
		return d.peek, true, nil
	}
	tag, typ, err := intr.ReadHeader(d.r)
	if err == io.EOF {
		return Header{}, false, nil
	}
	if err != nil {
		return Header{}, false, d.ioErr(err)
	}
	return Header{Tag: tag, Type: TypeCode(typ)}, true, nil
}

// ReadHeader reads the next header, or returns the one pushed back by
// UnreadHeader.
func (d *Decoder) ReadHeader() (Header, error) {
	h, ok, err := d.nextHeader()
	if err == nil && !ok {
		err = &Error{Offset: d.r.Offset(), Kind: ErrUnexpectedEnd, Detail: "expected header", Err: io.EOF}
	}
	return h, err
}

// UnreadHeader pushes h back so the next ReadHeader returns it. Only one
// header may be pending.
func (d *Decoder) UnreadHeader(h Header) error {
	if d.peeked {
		return d.fail(ErrLookaheadFull, "pending %v", d.peek)
	}
	d.peek, d.peeked = h, true
	return nil
}

// PeekHeader returns the next header without consuming it.
func (d *Decoder) PeekHeader() (Header, error) {
	h, err := d.ReadHeader()
	if err != nil {
		return h, err
	}
	return h, d.UnreadHeader(h)
}

// ReadNumber reads a header and the integer it introduces.
func (d *Decoder) ReadNumber() (int64, error) {
	h, err := d.ReadHeader()
	if err != nil {
		return 0, err
	}
	return d.ReadNumberAs(h.Type)
}

// ReadNumberAs reads an integer payload of type t, widening to 64 bits.
// TypeZero yields 0 without consuming anything.
func (d *Decoder) ReadNumberAs(t TypeCode) (int64, error) {
	if t == NoType {
		return 0, d.fail(ErrMissingType, "reading integer")
	}
	v, ok, err := intr.ReadNumberPayload(d.r, byte(t))
	if !ok {
		return 0, d.fail(ErrTypeMismatch, "expected integer, got %v", t)
	}
	if err != nil {
		return 0, d.ioErr(err)
	}
	return v, nil
}

func (d *Decoder) checkLen(n int64, what string) (int, error) {
	if n < 0 || n > int64(d.opts.MaxLength) {
		return 0, d.fail(ErrLengthOverflow, "%s length %d", what, n)
	}
	return int(n), nil
}

func (d *Decoder) readLen(what string) (int, error) {
	n, err := d.ReadNumber()
	if err != nil {
		return 0, err
	}
	return d.checkLen(n, what)
}

func (d *Decoder) readN(n int) ([]byte, error) {
	if n <= maxPrealloc*4 {
		buf := make([]byte, n)
		if err := intr.ReadFixed(d.r, buf); err != nil {
			return nil, d.ioErr(err)
		}
		return buf, nil
	}
	buf, err := io.ReadAll(io.LimitReader(d.r, int64(n)))
	if err != nil {
		return nil, d.ioErr(err)
	}
	if len(buf) != n {
		return nil, d.ioErr(io.ErrUnexpectedEOF)
	}
	return buf, nil
}

// ReadBool reads an integer of type t; any non-zero value is true.
func (d *Decoder) ReadBool(t TypeCode) (bool, error) {
	n, err := d.ReadNumberAs(t)
	return n != 0, err
}

// ReadFloat32 reads a float of either width as float32.
func (d *Decoder) ReadFloat32(t TypeCode) (float32, error) {
	switch t {
	case TypeFloat32:
		f, err := intr.ReadF32(d.r)
		return f, d.ioErr(err)
	case TypeFloat64:
		f, err := intr.ReadF64(d.r)
		return float32(f), d.ioErr(err)
	case NoType:
		return 0, d.fail(ErrMissingType, "reading float")
	default:
		return 0, d.fail(ErrTypeMismatch, "expected float, got %v", t)
	}
}

// ReadFloat64 reads a float of either width as float64.
func (d *Decoder) ReadFloat64(t TypeCode) (float64, error) {
	switch t {
	case TypeFloat32:
		f, err := intr.ReadF32(d.r)
		return float64(f), d.ioErr(err)
	case TypeFloat64:
		f, err := intr.ReadF64(d.r)
		return f, d.ioErr(err)
	case NoType:
		return 0, d.fail(ErrMissingType, "reading double")
	default:
		return 0, d.fail(ErrTypeMismatch, "expected double, got %v", t)
	}
}

// ReadString reads a short or long string and validates its UTF-8.
func (d *Decoder) ReadString(t TypeCode) (string, error) {
	var n int64
	switch t {
	case TypeString1:
		u, err := intr.ReadU8(d.r)
		if err != nil {
			return "", d.ioErr(err)
		}
		n = int64(u)
	case TypeString4:
		u, err := intr.ReadU32(d.r)
		if err != nil {
			return "", d.ioErr(err)
		}
		n = int64(u)
	case NoType:
		return "", d.fail(ErrMissingType, "reading string")
	default:
		return "", d.fail(ErrTypeMismatch, "expected string, got %v", t)
	}
	size, err := d.checkLen(n, "string")
	if err != nil {
		return "", err
	}
	buf, err := d.readN(size)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(buf) {
		return "", d.fail(ErrInvalidUTF8, "string of %d bytes", size)
	}
	return string(buf), nil
}

// ReadBytes reads a simple list: the Int8 marker header, the length,
// then that many raw bytes.
func (d *Decoder) ReadBytes(t TypeCode) ([]byte, error) {
	switch t {
	case TypeSimpleList:
	case NoType:
		return nil, d.fail(ErrMissingType, "reading bytes")
	default:
		return nil, d.fail(ErrTypeMismatch, "expected simple-list, got %v", t)
	}
	h, err := d.ReadHeader()
	if err != nil {
		return nil, err
	}
	if h.Type != TypeInt8 {
		return nil, d.fail(ErrInvalidBlockMarker, "marker has %v", h.Type)
	}
	n, err := d.readLen("simple-list")
	if err != nil {
		return nil, err
	}
	return d.readN(n)
}

// ReadSequenceLen checks that t is a list and reads its element count.
// Each element then starts with its own header.
func (d *Decoder) ReadSequenceLen(t TypeCode) (int, error) {
	switch t {
	case TypeList:
		return d.readLen("list")
	case NoType:
		return 0, d.fail(ErrMissingType, "reading list")
	default:
		return 0, d.fail(ErrTypeMismatch, "expected list, got %v", t)
	}
}

// ReadMapLen checks that t is a map and reads its entry count. Each
// entry then holds a key and a value, each with its own header.
func (d *Decoder) ReadMapLen(t TypeCode) (int, error) {
	switch t {
	case TypeMap:
		return d.readLen("map")
	case NoType:
		return 0, d.fail(ErrMissingType, "reading map")
	default:
		return 0, d.fail(ErrTypeMismatch, "expected map, got %v", t)
	}
}

// ReadRecord decodes the fields of a record. With t == TypeStructBegin
// the record must end with a struct-end header; with t == NoType it is
// the outermost record and also ends cleanly at end of input. Fields
// that field declines are skipped.
func (d *Decoder) ReadRecord(t TypeCode, field FieldFunc) error {
	top := t == NoType
	if !top && t != TypeStructBegin {
		return d.fail(ErrTypeMismatch, "expected struct, got %v", t)
	}
	if err := d.enter(); err != nil {
		return err
	}
	defer d.leave()
	for {
		h, ok, err := d.nextHeader()
		if err != nil {
			return err
		}
		if !ok {
			if top {
				return nil
			}
			return &Error{Offset: d.r.Offset(), Kind: ErrUnexpectedEnd, Detail: "unterminated struct", Err: io.ErrUnexpectedEOF}
		}
		if h.Type == TypeStructEnd {
			return nil
		}
		handled, err := field(d, h)
		if err != nil {
			return err
		}
		if handled {
			continue
		}
		d.opts.Logger.Debug("jce: skipping unknown field",
			"tag", h.Tag, "type", h.Type.String(), "offset", d.r.Offset())
		if err := d.Skip(h.Type); err != nil {
			return err
		}
	}
}

// Skip consumes the payload of a value of type t whose header has
// already been read, without materializing it.
func (d *Decoder) Skip(t TypeCode) error {
	switch t {
	case TypeInt8, TypeInt16, TypeInt32, TypeInt64, TypeFloat32, TypeFloat64:
		n, _ := intr.FixedSize(byte(t))
		return d.discard(int64(n))
	case TypeString1:
		n, err := intr.ReadU8(d.r)
		if err != nil {
			return d.ioErr(err)
		}
		return d.discard(int64(n))
	case TypeString4:
		n, err := intr.ReadU32(d.r)
		if err != nil {
			return d.ioErr(err)
		}
		return d.discard(int64(n))
	case TypeMap:
		n, err := d.readLen("map")
		if err != nil {
			return err
		}
		return d.skipValues(n, 2)
	case TypeList:
		n, err := d.readLen("list")
		if err != nil {
			return err
		}
		return d.skipValues(n, 1)
	case TypeStructBegin:
		return d.ReadRecord(t, func(*Decoder, Header) (bool, error) { return false, nil })
	case TypeStructEnd, TypeZero:
		return nil
	case TypeSimpleList:
		h, err := d.ReadHeader()
		if err != nil {
			return err
		}
		if h.Type != TypeInt8 {
			return d.fail(ErrInvalidBlockMarker, "marker has %v", h.Type)
		}
		n, err := d.readLen("simple-list")
		if err != nil {
			return err
		}
		return d.discard(int64(n))
	case NoType:
		return d.fail(ErrMissingType, "skipping value")
	default:
		return d.fail(ErrUnknownTypeCode, "cannot skip %v", t)
	}
}

// skipValues skips n entries of width values each: 1 for list
// elements, 2 for map key/value pairs.
func (d *Decoder) skipValues(n, width int) error {
	if err := d.enter(); err != nil {
		return err
	}
	defer d.leave()
	for i := 0; i < n; i++ {
		for j := 0; j < width; j++ {
			h, err := d.ReadHeader()
			if err != nil {
				return err
			}
			if err := d.Skip(h.Type); err != nil {
				return err
			}
		}
	}
	return nil
}

func (d *Decoder) discard(n int64) error {
	if err := intr.Discard(d.r, n); err != nil {
		return d.ioErr(err)
	}
	return nil
}

// ReadValue decodes a value of type t into a generic tree node.
func (d *Decoder) ReadValue(t TypeCode) (Value, error) {
	switch t {
	case TypeInt8:
		n, err := intr.ReadI8(d.r)
		return Int8(n), d.ioErr(err)
	case TypeInt16:
		n, err := intr.ReadU16(d.r)
		return Int16(n), d.ioErr(err)
	case TypeInt32:
		n, err := intr.ReadU32(d.r)
		return Int32(n), d.ioErr(err)
	case TypeInt64:
		n, err := intr.ReadU64(d.r)
		return Int64(n), d.ioErr(err)
	case TypeFloat32:
		f, err := intr.ReadF32(d.r)
		return Float32(f), d.ioErr(err)
	case TypeFloat64:
		f, err := intr.ReadF64(d.r)
		return Float64(f), d.ioErr(err)
	case TypeString1, TypeString4:
		s, err := d.ReadString(t)
		return String(s), err
	case TypeMap:
		return d.readMapValue()
	case TypeList:
		return d.readListValue()
	case TypeStructBegin:
		rec := Record{}
		if err := d.ReadRecord(t, rec.UnmarshalJCEField); err != nil {
			return nil, err
		}
		return rec, nil
	case TypeStructEnd:
		return nil, d.fail(ErrTypeMismatch, "unexpected struct end")
	case TypeZero:
		return Zero{}, nil
	case TypeSimpleList:
		b, err := d.ReadBytes(t)
		return Bytes(b), err
	case NoType:
		return nil, d.fail(ErrMissingType, "reading value")
	default:
		return nil, d.fail(ErrUnknownTypeCode, "cannot decode %v", t)
	}
}

func (d *Decoder) readHeaderValue() (Value, error) {
	h, err := d.ReadHeader()
	if err != nil {
		return nil, err
	}
	return d.ReadValue(h.Type)
}

func (d *Decoder) readMapValue() (Value, error) {
	n, err := d.readLen("map")
	if err != nil {
		return nil, err
	}
	if err := d.enter(); err != nil {
		return nil, err
	}
	defer d.leave()
	m := make(Map, 0, min(n, maxPrealloc))
	for i := 0; i < n; i++ {
		k, err := d.readHeaderValue()
		if err != nil {
			return nil, err
		}
		v, err := d.readHeaderValue()
		if err != nil {
			return nil, err
		}
		m = append(m, Pair{Key: k, Value: v})
	}
	return m, nil
}

func (d *Decoder) readListValue() (Value, error) {
	n, err := d.readLen("list")
	if err != nil {
		return nil, err
	}
	if err := d.enter(); err != nil {
		return nil, err
	}
	defer d.leave()
	l := make(List, 0, min(n, maxPrealloc))
	for i := 0; i < n; i++ {
		v, err := d.readHeaderValue()
		if err != nil {
			return nil, err
		}
		l = append(l, v)
	}
	return l, nil
}

// DecodeAll decodes every top-level field into a Record. It stops at end
// of input or at a struct-end header; a repeated tag overwrites the
// earlier value.
func (d *Decoder) DecodeAll() (Record, error) {
	rec := Record{}
	if err := d.ReadRecord(NoType, rec.UnmarshalJCEField); err != nil {
		return nil, err
	}
	return rec, nil
}
