package jce

import (
	"bytes"

	intr "github.com/dadrian/jce/internal"
)

// Marshal encodes v into a JCE byte slice. Structs and records become
// the outermost record; other values are written under tag 0.
func Marshal(v any) ([]byte, error) {
	return Options{}.Marshal(v)
}

// Marshal is like the package-level Marshal but honors o.
func (o Options) Marshal(v any) ([]byte, error) {
	buf := intr.GetBuffer()
	defer intr.PutBuffer(buf)
	if err := o.NewEncoder(buf).Encode(v); err != nil {
		return nil, err
	}
	return bytes.Clone(buf.Bytes()), nil
}

// Unmarshal decodes data into v, which must be a non-nil pointer.
func Unmarshal(data []byte, v any) error {
	return Options{}.Unmarshal(data, v)
}

// Unmarshal is like the package-level Unmarshal but honors o.
func (o Options) Unmarshal(data []byte, v any) error {
	return o.NewDecoder(bytes.NewReader(data)).Decode(v)
}

// UnmarshalValue decodes data without a schema into a Record holding
// every top-level field.
func UnmarshalValue(data []byte) (Record, error) {
	return Options{}.NewDecoder(bytes.NewReader(data)).DecodeAll()
}
