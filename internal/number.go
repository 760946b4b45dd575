package internal

import (
	"io"
	"math"
)

// Wire type codes. The root package re-exports these as TypeCode.
const (
	Int8 byte = iota
	Int16
	Int32
	Int64
	Float32
	Float64
	String1
	String4
	Map
	List
	StructBegin
	StructEnd
	Zero
	SimpleList
)

// NumberType returns the narrowest integer type code that holds v.
// Zero is special-cased to the payload-free Zero type.
func NumberType(v int64) byte {
	switch {
	case v == 0:
		return Zero
	case v >= math.MinInt8 && v <= math.MaxInt8:
		return Int8
	case v >= math.MinInt16 && v <= math.MaxInt16:
		return Int16
	case v >= math.MinInt32 && v <= math.MaxInt32:
		return Int32
	default:
		return Int64
	}
}

// AppendNumberPayload appends the payload for v at the width typ
// selects. typ must come from NumberType.
func AppendNumberPayload(dst []byte, typ byte, v int64) []byte {
	switch typ {
	case Int8:
		return append(dst, byte(int8(v)))
	case Int16:
		return AppendU16(dst, uint16(int16(v)))
	case Int32:
		return AppendU32(dst, uint32(int32(v)))
	case Int64:
		return AppendU64(dst, uint64(v))
	default:
		return dst
	}
}

// ReadNumberPayload reads an integer of type typ and sign-extends it.
// ok is false when typ is not an integer type.
func ReadNumberPayload(r io.Reader, typ byte) (v int64, ok bool, err error) {
	switch typ {
	case Zero:
		return 0, true, nil
	case Int8:
		n, err := ReadI8(r)
		return int64(n), true, err
	case Int16:
		n, err := ReadU16(r)
		return int64(int16(n)), true, err
	case Int32:
		n, err := ReadU32(r)
		return int64(int32(n)), true, err
	case Int64:
		n, err := ReadU64(r)
		return int64(n), true, err
	default:
		return 0, false, nil
	}
}

// FixedSize returns the payload width of a fixed-size type code. It
// returns (0, true) for the payload-free StructEnd and Zero codes and
// (0, false) for length-prefixed or unknown codes.
func FixedSize(typ byte) (int, bool) {
	switch typ {
	case Int8:
		return 1, true
	case Int16:
		return 2, true
	case Int32, Float32:
		return 4, true
	case Int64, Float64:
		return 8, true
	case StructEnd, Zero:
		return 0, true
	default:
		return 0, false
	}
}
