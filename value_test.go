package jce

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// mixedStream holds one field per node kind at tags 0..11, plus an
// Int8 under extended tag 200.
var mixedStream = []byte{
	0x00, 0x01,
	0x11, 0x01, 0x00,
	0x22, 0x00, 0x01, 0x00, 0x00,
	0x33, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00,
	0x44, 0x3F, 0xC0, 0x00, 0x00,
	0x55, 0x3F, 0xF8, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x66, 0x02, 'h', 'i',
	0x78, 0x00, 0x01, 0x06, 0x01, 'k', 0x1C,
	0x89, 0x00, 0x01, 0x0A, 0x00, 0x07, 0x0B,
	0x9A, 0x1C, 0x0B,
	0xAC,
	0xBD, 0x00, 0x00, 0x02, 0xDE, 0xAD,
	0xF0, 0xC8, 0x00, 0xFF,
}

var mixedRecord = Record{
	0:   Int8(1),
	1:   Int16(256),
	2:   Int32(65536),
	3:   Int64(1 << 32),
	4:   Float32(1.5),
	5:   Float64(1.5),
	6:   String("hi"),
	7:   Map{{Key: String("k"), Value: Zero{}}},
	8:   List{Record{0: Int8(7)}},
	9:   Record{1: Zero{}},
	10:  Zero{},
	11:  Bytes{0xDE, 0xAD},
	200: Int8(-1),
}

func TestDecodeAllRecord(t *testing.T) {
	got, err := UnmarshalValue(mixedStream)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if diff := cmp.Diff(mixedRecord, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeAllStopsAndOverwrites(t *testing.T) {
	cases := []struct {
		name string
		in   []byte
		want Record
	}{
		{"struct-end", []byte{0x00, 0x01, 0x0B, 0x10, 0x02}, Record{0: Int8(1)}},
		{"repeated", []byte{0x00, 0x01, 0x10, 0x03, 0x01, 0x01, 0x00}, Record{0: Int16(256), 1: Int8(3)}},
	}
	for _, c := range cases {
		got, err := UnmarshalValue(c.in)
		if err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		if diff := cmp.Diff(c.want, got); diff != "" {
			t.Errorf("%s: mismatch (-want +got):\n%s", c.name, diff)
		}
	}
}

func TestValueReencodeIsIdentity(t *testing.T) {
	streams := map[string][]byte{
		"mixed":          mixedStream,
		"wide one":       {0x01, 0x00, 0x01, 0x13, 0, 0, 0, 0, 0, 0, 0, 0x02},
		"empty":          {},
		"empty block":    {0x0D, 0x00, 0x0C},
		"deep records":   {0x0A, 0x0A, 0x0A, 0x0B, 0x0B, 0x0B},
		"unordered map":  {0x08, 0x00, 0x02, 0x00, 0x02, 0x1C, 0x00, 0x01, 0x1C},
		"float zero":     {0x04, 0, 0, 0, 0},
		"list of list":   {0x09, 0x00, 0x01, 0x09, 0x0C},
		"extended field": {0xFC, 0x0F},
	}
	for name, in := range streams {
		rec, err := UnmarshalValue(in)
		if err != nil {
			t.Errorf("%s: decode failed: %v", name, err)
			continue
		}
		out, err := Marshal(rec)
		if err != nil {
			t.Errorf("%s: encode failed: %v", name, err)
			continue
		}
		if !bytes.Equal(out, in) {
			t.Errorf("%s: re-encoded % X, want % X", name, out, in)
		}
	}
}

func TestDecodeIntoInterface(t *testing.T) {
	var v any
	if err := Unmarshal(mixedStream, &v); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(any(mixedRecord), v); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordPointerRoundtrip(t *testing.T) {
	var rec Record
	if err := Unmarshal(mixedStream, &rec); err != nil {
		t.Fatal(err)
	}
	out, err := Marshal(&rec)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, mixedStream) {
		t.Fatalf("re-encoded % X", out)
	}
}

func TestValueNilInContainer(t *testing.T) {
	if _, err := Marshal(Record{0: List{nil}}); !errors.Is(err, TypeMismatch) {
		t.Fatalf("expected TypeMismatch, got %v", err)
	}
	out, err := Marshal(Record{0: nil, 1: Int8(2)})
	if err != nil {
		t.Fatal(err)
	}
	if want := []byte{0x10, 0x02}; !bytes.Equal(out, want) {
		t.Fatalf("got % X, want % X", out, want)
	}
}

func TestValueUnmarshalers(t *testing.T) {
	type shapes struct {
		M Map  `jce:"0"`
		L List `jce:"1"`
		Z Zero `jce:"2"`
	}
	var got shapes
	in := []byte{0x08, 0x00, 0x00, 0x19, 0x00, 0x01, 0x00, 0x05, 0x2C}
	if err := Unmarshal(in, &got); err != nil {
		t.Fatal(err)
	}
	want := shapes{M: Map{}, L: List{Int8(5)}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	if err := Unmarshal([]byte{0x09, 0x0C}, &got); !errors.Is(err, TypeMismatch) {
		t.Fatalf("list into Map: expected TypeMismatch, got %v", err)
	}
}

func TestAsInt(t *testing.T) {
	cases := []struct {
		v    Value
		want int64
		ok   bool
	}{
		{Int8(-3), -3, true},
		{Int16(300), 300, true},
		{Int32(-70000), -70000, true},
		{Int64(1 << 40), 1 << 40, true},
		{Zero{}, 0, true},
		{String("1"), 0, false},
		{Float64(1), 0, false},
	}
	for _, c := range cases {
		got, ok := AsInt(c.v)
		if got != c.want || ok != c.ok {
			t.Errorf("AsInt(%#v) = %d, %v", c.v, got, ok)
		}
	}
}

func TestRecordTagsSorted(t *testing.T) {
	r := Record{9: Zero{}, 0: Zero{}, 200: Zero{}, 3: Zero{}}
	if diff := cmp.Diff([]uint8{0, 3, 9, 200}, r.Tags()); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestStringTypeByLength(t *testing.T) {
	if got := String("short").Type(); got != TypeString1 {
		t.Fatalf("short string type %v", got)
	}
	if got := String(bytes.Repeat([]byte{'a'}, 256)).Type(); got != TypeString4 {
		t.Fatalf("long string type %v", got)
	}
}
