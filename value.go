package jce

import (
	"slices"

	intr "github.com/dadrian/jce/internal"
)

// Value is a node of the Generic Value Tree: a schema-less view of an
// encoded stream. The concrete types are Int8, Int16, Int32, Int64,
// Float32, Float64, String, Bytes, Map, Record, List and Zero.
//
// Every node re-encodes at the width it was decoded with, so decoding a
// stream and encoding the tree again reproduces the input for streams
// whose strings use the short form up to 255 bytes and whose record
// fields appear in ascending tag order.
type Value interface {
	Marshaler
	// Type returns the type code the node encodes as.
	Type() TypeCode
	isValue()
}

type (
	Int8    int8
	Int16   int16
	Int32   int32
	Int64   int64
	Float32 float32
	Float64 float64
	String  string
	Bytes   []byte
	// Map keeps entries in stream order; keys are neither deduplicated
	// nor indexed.
	Map []Pair
	// Record maps field tags to values. Encoding emits fields in
	// ascending tag order.
	Record map[uint8]Value
	List   []Value
	// Zero is the payload-free integer 0.
	Zero struct{}
)

// Pair is one map entry.
type Pair struct {
	Key   Value
	Value Value
}

func (Int8) isValue()    {}
func (Int16) isValue()   {}
func (Int32) isValue()   {}
func (Int64) isValue()   {}
func (Float32) isValue() {}
func (Float64) isValue() {}
func (String) isValue()  {}
func (Bytes) isValue()   {}
func (Map) isValue()     {}
func (Record) isValue()  {}
func (List) isValue()    {}
func (Zero) isValue()    {}

func (Int8) Type() TypeCode    { return TypeInt8 }
func (Int16) Type() TypeCode   { return TypeInt16 }
func (Int32) Type() TypeCode   { return TypeInt32 }
func (Int64) Type() TypeCode   { return TypeInt64 }
func (Float32) Type() TypeCode { return TypeFloat32 }
func (Float64) Type() TypeCode { return TypeFloat64 }
func (Bytes) Type() TypeCode   { return TypeSimpleList }
func (Map) Type() TypeCode     { return TypeMap }
func (Record) Type() TypeCode  { return TypeStructBegin }
func (List) Type() TypeCode    { return TypeList }
func (Zero) Type() TypeCode    { return TypeZero }

func (s String) Type() TypeCode {
	if len(s) <= 0xFF {
		return TypeString1
	}
	return TypeString4
}

func (v Int8) MarshalJCE(e *Encoder, tag uint8) error {
	return e.writeIntAs(tag, intr.Int8, int64(v))
}

func (v Int16) MarshalJCE(e *Encoder, tag uint8) error {
	return e.writeIntAs(tag, intr.Int16, int64(v))
}

func (v Int32) MarshalJCE(e *Encoder, tag uint8) error {
	return e.writeIntAs(tag, intr.Int32, int64(v))
}

func (v Int64) MarshalJCE(e *Encoder, tag uint8) error {
	return e.writeIntAs(tag, intr.Int64, int64(v))
}

func (v Float32) MarshalJCE(e *Encoder, tag uint8) error { return e.WriteFloat32(tag, float32(v)) }
func (v Float64) MarshalJCE(e *Encoder, tag uint8) error { return e.WriteFloat64(tag, float64(v)) }
func (v String) MarshalJCE(e *Encoder, tag uint8) error  { return e.WriteString(tag, string(v)) }
func (v Bytes) MarshalJCE(e *Encoder, tag uint8) error   { return e.WriteBytes(tag, v) }
func (Zero) MarshalJCE(e *Encoder, tag uint8) error      { return e.WriteHeader(tag, TypeZero) }

func (m Map) MarshalJCE(e *Encoder, tag uint8) error {
	return e.WriteMap(tag, len(m),
		func(e *Encoder, tag uint8, i int) error { return marshalNode(e, tag, m[i].Key) },
		func(e *Encoder, tag uint8, i int) error { return marshalNode(e, tag, m[i].Value) })
}

func (l List) MarshalJCE(e *Encoder, tag uint8) error {
	return e.WriteSequence(tag, len(l), func(e *Encoder, tag uint8, i int) error {
		return marshalNode(e, tag, l[i])
	})
}

func (r Record) MarshalJCE(e *Encoder, tag uint8) error {
	return e.WriteRecord(tag, r.MarshalJCEFields)
}

// MarshalJCEFields writes the fields in ascending tag order. Nil values
// are treated as absent.
func (r Record) MarshalJCEFields(e *Encoder) error {
	for _, tag := range r.Tags() {
		v := r[tag]
		if v == nil {
			continue
		}
		if err := v.MarshalJCE(e, tag); err != nil {
			return err
		}
	}
	return nil
}

// UnmarshalJCEField stores every field, whatever its tag.
func (r *Record) UnmarshalJCEField(d *Decoder, h Header) (bool, error) {
	v, err := d.ReadValue(h.Type)
	if err != nil {
		return false, err
	}
	if *r == nil {
		*r = Record{}
	}
	(*r)[h.Tag] = v
	return true, nil
}

// Tags returns the record's tags in ascending order.
func (r Record) Tags() []uint8 {
	tags := make([]uint8, 0, len(r))
	for tag := range r {
		tags = append(tags, tag)
	}
	slices.Sort(tags)
	return tags
}

func (m *Map) UnmarshalJCE(d *Decoder, t TypeCode) error {
	if t != TypeMap {
		return d.mismatch(t, TypeMap)
	}
	v, err := d.ReadValue(t)
	if err != nil {
		return err
	}
	*m = v.(Map)
	return nil
}

func (l *List) UnmarshalJCE(d *Decoder, t TypeCode) error {
	if t != TypeList {
		return d.mismatch(t, TypeList)
	}
	v, err := d.ReadValue(t)
	if err != nil {
		return err
	}
	*l = v.(List)
	return nil
}

func (z *Zero) UnmarshalJCE(d *Decoder, t TypeCode) error {
	if t != TypeZero {
		return d.mismatch(t, TypeZero)
	}
	return nil
}

func marshalNode(e *Encoder, tag uint8, v Value) error {
	if v == nil {
		return errorf(ErrTypeMismatch, "nil value in container at tag %d", tag)
	}
	return v.MarshalJCE(e, tag)
}

// AsInt widens any integer node, Zero included, to int64.
func AsInt(v Value) (int64, bool) {
	switch x := v.(type) {
	case Int8:
		return int64(x), true
	case Int16:
		return int64(x), true
	case Int32:
		return int64(x), true
	case Int64:
		return int64(x), true
	case Zero:
		return 0, true
	default:
		return 0, false
	}
}
