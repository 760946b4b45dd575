package jce

import (
	"fmt"

	intr "github.com/dadrian/jce/internal"
)

// TypeCode is the 4-bit wire shape discriminator carried in every header.
type TypeCode uint8

const (
	TypeInt8        TypeCode = TypeCode(intr.Int8)        // 1 byte
	TypeInt16       TypeCode = TypeCode(intr.Int16)       // 2 bytes, big-endian
	TypeInt32       TypeCode = TypeCode(intr.Int32)       // 4 bytes, big-endian
	TypeInt64       TypeCode = TypeCode(intr.Int64)       // 8 bytes, big-endian
	TypeFloat32     TypeCode = TypeCode(intr.Float32)     // 4 bytes, big-endian
	TypeFloat64     TypeCode = TypeCode(intr.Float64)     // 8 bytes, big-endian
	TypeString1     TypeCode = TypeCode(intr.String1)     // 1-byte length + UTF-8
	TypeString4     TypeCode = TypeCode(intr.String4)     // 4-byte length + UTF-8
	TypeMap         TypeCode = TypeCode(intr.Map)         // count, then key/value pairs
	TypeList        TypeCode = TypeCode(intr.List)        // count, then elements
	TypeStructBegin TypeCode = TypeCode(intr.StructBegin) // tagged fields until TypeStructEnd
	TypeStructEnd   TypeCode = TypeCode(intr.StructEnd)   // no payload
	TypeZero        TypeCode = TypeCode(intr.Zero)        // integer 0, no payload
	TypeSimpleList  TypeCode = TypeCode(intr.SimpleList)  // Int8 marker header, count, raw bytes
)

// NoType is passed where no header has been read for the current
// position. Operations that need a type fail with ErrMissingType; a
// record decoded with NoType is the outermost one.
const NoType TypeCode = 0xFF

// MapKeyTag and MapValueTag are the fixed tags of every map entry.
const (
	MapKeyTag   uint8 = 0
	MapValueTag uint8 = 1
)

var typeNames = [...]string{
	TypeInt8:        "int8",
	TypeInt16:       "int16",
	TypeInt32:       "int32",
	TypeInt64:       "int64",
	TypeFloat32:     "float32",
	TypeFloat64:     "float64",
	TypeString1:     "string1",
	TypeString4:     "string4",
	TypeMap:         "map",
	TypeList:        "list",
	TypeStructBegin: "struct-begin",
	TypeStructEnd:   "struct-end",
	TypeZero:        "zero",
	TypeSimpleList:  "simple-list",
}

func (t TypeCode) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	if t == NoType {
		return "none"
	}
	return fmt.Sprintf("type(%d)", uint8(t))
}

// Valid reports whether t is one of the fourteen defined wire types.
func (t TypeCode) Valid() bool { return t <= TypeSimpleList }

// Header is the (tag, type) pair that prefixes every encoded value.
type Header struct {
	Tag  uint8
	Type TypeCode
}

func (h Header) String() string { return fmt.Sprintf("%d:%v", h.Tag, h.Type) }
