// Package jce encodes and decodes the JCE (Tars) tagged binary format.
//
// Every value on the wire starts with a header packing a field tag and
// a 4-bit type code. Integers use the narrowest width that holds them,
// with a payload-free code for zero. Records are runs of tagged fields
// closed by a struct-end header; the outermost record has neither a
// begin header nor an end sentinel and runs to end of input. Decoders
// skip fields they do not recognize, which keeps old readers working
// against newer writers.
//
// Three layers are provided. Encoder and Decoder expose the wire
// primitives with explicit tags and type codes. Marshal, Unmarshal and
// the Marshaler interfaces map Go values onto them, using struct tags
// of the form `jce:"3"` or `jce:"3,omitempty"`. Value and Record give a
// schema-less tree for inspecting arbitrary streams.
package jce
