package jce

// Marshaler is implemented by types that write themselves as a single
// value under the tag chosen by the enclosing container.
type Marshaler interface {
	MarshalJCE(e *Encoder, tag uint8) error
}

// Unmarshaler is implemented by types that read themselves from a value
// whose header, of type t, has already been consumed.
type Unmarshaler interface {
	UnmarshalJCE(d *Decoder, t TypeCode) error
}

// RecordMarshaler is implemented by record types that write their own
// fields. The encoder supplies the begin header and end sentinel for
// nested records and omits both for the outermost one.
type RecordMarshaler interface {
	MarshalJCEFields(e *Encoder) error
}

// RecordUnmarshaler is implemented by record types that consume their
// own fields. UnmarshalJCEField reports false for tags it does not know;
// the decoder then skips the field.
type RecordUnmarshaler interface {
	UnmarshalJCEField(d *Decoder, h Header) (bool, error)
}
