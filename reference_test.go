package jce

import (
	"bytes"
	"errors"
	"reflect"
	"testing"
)

// assertRoundtrip decodes the provided bytes into a value of the same
// dynamic type as expected, and then re-encodes it. It expects both
// operations to succeed and match the expected structures and bytes.
func assertRoundtrip(t *testing.T, expected any, b []byte) {
	t.Helper()

	// Decode
	dstPtr := reflect.New(reflect.TypeOf(expected))
	if err := Unmarshal(b, dstPtr.Interface()); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	got := reflect.Indirect(dstPtr).Interface()
	if !reflect.DeepEqual(got, expected) {
		t.Fatalf("decoded value mismatch:\n got: %#v\nwant: %#v", got, expected)
	}

	// Encode
	enc, err := Marshal(expected)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if !bytes.Equal(enc, b) {
		t.Fatalf("encoded bytes mismatch:\n got: % X\nwant: % X", enc, b)
	}
}

func Test_SimpleStruct(t *testing.T) {
	type Simple struct {
		Value uint32 `jce:"0"`
	}
	assertRoundtrip(t, Simple{Value: 42}, []byte{0x00, 0x2A})
}

func Test_MultipleFields(t *testing.T) {
	type MultiField struct {
		A uint32 `jce:"0"`
		B string `jce:"1"`
		C bool   `jce:"5"`
	}
	assertRoundtrip(t, MultiField{A: 42, B: "hello", C: true}, []byte{
		0x00, 0x2A, 0x16, 0x05, 'h', 'e', 'l', 'l', 'o', 0x50, 0x01,
	})
}

func ptr[T any](v T) *T { return &v }

func Test_OptionalFields(t *testing.T) {
	type WithOption struct {
		Required uint32  `jce:"0"`
		Optional *uint32 `jce:"1"`
	}
	assertRoundtrip(t, WithOption{Required: 10, Optional: ptr(uint32(20))}, []byte{0x00, 0x0A, 0x10, 0x14})
	assertRoundtrip(t, WithOption{Required: 10, Optional: nil}, []byte{0x00, 0x0A})
}

func Test_SkipField(t *testing.T) {
	type WithSkip struct {
		Included uint32 `jce:"0"`
		Skipped  string `jce:"-"`
		hidden   int    `jce:"1"`
	}
	// Expect the skipped field not to be serialized; only Included appears.
	v := WithSkip{Included: 42}
	assertRoundtrip(t, v, []byte{0x00, 0x2A})
}

func Test_SkipField_PreserveExisting(t *testing.T) {
	type WithSkip struct {
		Included uint32 `jce:"0"`
		Skipped  string `jce:"-"`
	}
	v := WithSkip{Skipped: "preserve me"}
	if err := Unmarshal([]byte{0x00, 0x2A, 0x16, 0x01, 'x'}, &v); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if v.Included != 42 {
		t.Fatalf("Included mismatch: got %v want 42", v.Included)
	}
	if v.Skipped != "preserve me" {
		t.Fatalf("Skipped was modified: got %q want %q", v.Skipped, "preserve me")
	}
}

func Test_EmptyStruct(t *testing.T) {
	type Empty struct{}
	assertRoundtrip(t, Empty{}, []byte{})
}

func Test_ZeroValues(t *testing.T) {
	type Zeros struct {
		A int64   `jce:"0"`
		B float32 `jce:"1"`
		C string  `jce:"2"`
		D bool    `jce:"3"`
	}
	assertRoundtrip(t, Zeros{}, []byte{0x0C, 0x14, 0x00, 0x00, 0x00, 0x00, 0x26, 0x00, 0x3C})
}

func Test_ParseWithUnknownFields(t *testing.T) {
	type Partial struct {
		A uint32 `jce:"0"`
	}
	data := []byte{0x00, 0x2A, 0x26, 0x05, 'h', 'e', 'l', 'l', 'o'}
	var got Partial
	if err := Unmarshal(data, &got); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got.A != 42 {
		t.Fatalf("unexpected value: got %v want 42", got.A)
	}
}

func Test_ParseFieldsNotInOrder(t *testing.T) {
	type Ordered struct {
		A uint32 `jce:"0"`
		B uint32 `jce:"1"`
	}
	data := []byte{0x10, 0x14, 0x00, 0x0A}
	var got Ordered
	if err := Unmarshal(data, &got); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got != (Ordered{A: 10, B: 20}) {
		t.Fatalf("unexpected value: %+v", got)
	}
}

func Test_NestedStructs(t *testing.T) {
	type Inner struct {
		Value uint32 `jce:"0"`
	}
	type Outer struct {
		Inner Inner  `jce:"0"`
		Other uint32 `jce:"1"`
	}
	assertRoundtrip(t, Outer{Inner: Inner{Value: 10}, Other: 20}, []byte{
		0x0A, 0x00, 0x0A, 0x0B, 0x10, 0x14,
	})
}

func Test_NestedPointerStruct(t *testing.T) {
	type Inner struct {
		X *uint32 `jce:"0"`
		Y *string `jce:"1"`
	}
	type Outer struct {
		Nested *Inner  `jce:"0"`
		Value  *uint32 `jce:"1"`
	}
	assertRoundtrip(t, Outer{Nested: &Inner{X: ptr(uint32(42))}}, []byte{0x0A, 0x00, 0x2A, 0x0B})
	assertRoundtrip(t, Outer{Value: ptr(uint32(10))}, []byte{0x10, 0x0A})
}

func Test_Containers(t *testing.T) {
	type Containers struct {
		L []int16          `jce:"0"`
		M map[string]int32 `jce:"1"`
		B []byte           `jce:"2"`
	}
	assertRoundtrip(t, Containers{
		L: []int16{1, -1},
		M: map[string]int32{"b": 2, "a": 1},
		B: []byte{9},
	}, []byte{
		0x09, 0x00, 0x02, 0x00, 0x01, 0x10, 0xFF,
		0x18, 0x00, 0x02, 0x06, 0x01, 'a', 0x10, 0x01, 0x06, 0x01, 'b', 0x10, 0x02,
		0x2D, 0x00, 0x00, 0x01, 0x09,
	})
}

func Test_Arrays(t *testing.T) {
	type Arrays struct {
		Raw  [2]byte  `jce:"0"`
		Ints [2]int32 `jce:"1"`
	}
	assertRoundtrip(t, Arrays{Raw: [2]byte{7, 8}, Ints: [2]int32{0, 300}}, []byte{
		0x0D, 0x00, 0x00, 0x02, 0x07, 0x08,
		0x19, 0x00, 0x02, 0x0C, 0x11, 0x01, 0x2C,
	})
}

func Test_ExtendedTags(t *testing.T) {
	type Wide struct {
		Low  int8 `jce:"14"`
		High int8 `jce:"200"`
	}
	assertRoundtrip(t, Wide{Low: 1, High: 5}, []byte{0xE0, 0x01, 0xF0, 0xC8, 0x05})
}

func Test_BoundaryIntegers(t *testing.T) {
	type Bounds struct {
		A int64 `jce:"0"`
		B int64 `jce:"1"`
		C int64 `jce:"2"`
		D int64 `jce:"3"`
	}
	assertRoundtrip(t, Bounds{A: 127, B: 128, C: 32768, D: 2147483648}, []byte{
		0x00, 0x7F,
		0x11, 0x00, 0x80,
		0x22, 0x00, 0x00, 0x80, 0x00,
		0x33, 0x00, 0x00, 0x00, 0x00, 0x80, 0x00, 0x00, 0x00,
	})
}

func Test_GenericField(t *testing.T) {
	type Envelope struct {
		ID   int32 `jce:"0"`
		Body Value `jce:"1"`
	}
	assertRoundtrip(t, Envelope{ID: 1, Body: List{String("a"), Zero{}}}, []byte{
		0x00, 0x01, 0x19, 0x00, 0x02, 0x06, 0x01, 'a', 0x1C,
	})
}

// celsius encodes itself as a float64 in hundredths of a degree.
type celsius float64

func (c celsius) MarshalJCE(e *Encoder, tag uint8) error {
	return e.WriteInt(tag, int64(c*100))
}

func (c *celsius) UnmarshalJCE(d *Decoder, t TypeCode) error {
	n, err := d.ReadNumberAs(t)
	if err != nil {
		return err
	}
	*c = celsius(n) / 100
	return nil
}

// pair writes its two fields in reverse tag order.
type pair struct {
	First, Second string
}

func (p pair) MarshalJCEFields(e *Encoder) error {
	if err := e.WriteString(1, p.Second); err != nil {
		return err
	}
	return e.WriteString(0, p.First)
}

func (p *pair) UnmarshalJCEField(d *Decoder, h Header) (bool, error) {
	var dst *string
	switch h.Tag {
	case 0:
		dst = &p.First
	case 1:
		dst = &p.Second
	default:
		return false, nil
	}
	s, err := d.ReadString(h.Type)
	*dst = s
	return true, err
}

// boxed hands its payload back to the encoder and decoder.
type boxed struct {
	P pair
}

func (b boxed) MarshalJCE(e *Encoder, tag uint8) error {
	return e.WriteValue(tag, b.P)
}

func (b *boxed) UnmarshalJCE(d *Decoder, t TypeCode) error {
	return d.ReadValueInto(t, &b.P)
}

func Test_CustomMarshalers(t *testing.T) {
	type Reading struct {
		Temp celsius `jce:"0"`
		Tags pair    `jce:"1"`
	}
	assertRoundtrip(t, Reading{Temp: 21.5, Tags: pair{First: "a", Second: "b"}}, []byte{
		0x01, 0x08, 0x66,
		0x1A, 0x16, 0x01, 'b', 0x06, 0x01, 'a', 0x0B,
	})
	assertRoundtrip(t, pair{First: "x", Second: "y"}, []byte{0x16, 0x01, 'y', 0x06, 0x01, 'x'})
}

func Test_DelegatingMarshaler(t *testing.T) {
	type Box struct {
		B boxed `jce:"2"`
	}
	assertRoundtrip(t, Box{B: boxed{P: pair{First: "x", Second: "y"}}}, []byte{
		0x2A, 0x16, 0x01, 'y', 0x06, 0x01, 'x', 0x0B,
	})

	var p pair
	d := NewDecoder(bytes.NewReader([]byte{0x00, 0x07}))
	if err := d.ReadValueInto(TypeInt8, p); !errors.Is(err, TypeMismatch) {
		t.Fatalf("non-pointer target: expected TypeMismatch, got %v", err)
	}
}
