// Package jcetext is a human-readable text form of the JCE generic value
// tree. Records are written as {TAG: VALUE, ...}, lists as [...], maps as
// map{KEY: VALUE, ...}. Integers print bare when their node width is the
// one the encoder would pick anyway and carry an i8/i16/i32/i64 prefix
// otherwise, so Parse(Format(v)) rebuilds v exactly.
package jcetext

import (
	"encoding/hex"
	"math"
	"strconv"
	"strings"

	"github.com/dadrian/jce"
)

const indent = "  "

// Format renders v as text.
func Format(v jce.Value) string {
	var b strings.Builder
	writeValue(&b, v, 0)
	return b.String()
}

// FormatRecord renders a record with its fields in ascending tag order.
func FormatRecord(r jce.Record) string { return Format(r) }

func writeValue(b *strings.Builder, v jce.Value, depth int) {
	switch x := v.(type) {
	case nil:
		b.WriteString("nil")
	case jce.Zero:
		b.WriteString("0")
	case jce.Int8:
		writeInt(b, "i8", int64(x), jce.TypeInt8)
	case jce.Int16:
		writeInt(b, "i16", int64(x), jce.TypeInt16)
	case jce.Int32:
		writeInt(b, "i32", int64(x), jce.TypeInt32)
	case jce.Int64:
		writeInt(b, "i64", int64(x), jce.TypeInt64)
	case jce.Float32:
		b.WriteString("f32 ")
		b.WriteString(formatFloat(float64(x), 32))
	case jce.Float64:
		b.WriteString(formatFloat(float64(x), 64))
	case jce.String:
		b.WriteString(strconv.Quote(string(x)))
	case jce.Bytes:
		b.WriteString(`bytes("`)
		b.WriteString(hex.EncodeToString(x))
		b.WriteString(`")`)
	case jce.List:
		if len(x) == 0 {
			b.WriteString("[]")
			return
		}
		b.WriteString("[\n")
		for _, e := range x {
			writeIndent(b, depth+1)
			writeValue(b, e, depth+1)
			b.WriteString(",\n")
		}
		writeIndent(b, depth)
		b.WriteString("]")
	case jce.Map:
		if len(x) == 0 {
			b.WriteString("map{}")
			return
		}
		b.WriteString("map{\n")
		for _, kv := range x {
			writeIndent(b, depth+1)
			writeValue(b, kv.Key, depth+1)
			b.WriteString(": ")
			writeValue(b, kv.Value, depth+1)
			b.WriteString(",\n")
		}
		writeIndent(b, depth)
		b.WriteString("}")
	case jce.Record:
		if len(x) == 0 {
			b.WriteString("{}")
			return
		}
		b.WriteString("{\n")
		for _, tag := range x.Tags() {
			writeIndent(b, depth+1)
			b.WriteString(strconv.Itoa(int(tag)))
			b.WriteString(": ")
			writeValue(b, x[tag], depth+1)
			b.WriteString(",\n")
		}
		writeIndent(b, depth)
		b.WriteString("}")
	}
}

func writeIndent(b *strings.Builder, depth int) {
	for range depth {
		b.WriteString(indent)
	}
}

func writeInt(b *strings.Builder, kw string, n int64, width jce.TypeCode) {
	if narrowest(n).Type() != width {
		b.WriteString(kw)
		b.WriteByte(' ')
	}
	b.WriteString(strconv.FormatInt(n, 10))
}

// formatFloat always yields something the lexer reads as a float.
func formatFloat(f float64, bits int) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	s := strconv.FormatFloat(f, 'g', -1, bits)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}
