package internal

import (
	"io"
)

// ExtendedTag is the tag nibble that signals a second tag byte.
const ExtendedTag = 15

// AppendHeader packs (tag, typ) onto dst. Tags below 15 share one byte
// with the type; larger tags escape to a second byte.
func AppendHeader(dst []byte, tag, typ byte) []byte {
	if tag < ExtendedTag {
		return append(dst, tag<<4|typ&0x0F)
	}
	return append(dst, ExtendedTag<<4|typ&0x0F, tag)
}

// ReadHeader reads one header from r. It returns io.EOF only when r is
// exhausted before the first byte; a missing extended-tag byte yields
// io.ErrUnexpectedEOF.
func ReadHeader(r io.ByteReader) (tag, typ byte, err error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, 0, err
	}
	tag, typ = b>>4, b&0x0F
	if tag == ExtendedTag {
		tag, err = r.ReadByte()
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		if err != nil {
			return 0, 0, err
		}
	}
	return tag, typ, nil
}
