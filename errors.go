package jce

import "fmt"

// ErrorKind classifies decoding/encoding errors.
type ErrorKind int

const (
	ErrUnexpectedEnd ErrorKind = iota + 1
	ErrMissingType
	ErrTypeMismatch
	ErrInvalidBlockMarker
	ErrInvalidUTF8
	ErrUnknownTypeCode
	ErrInvalidFieldTag
	ErrLengthOverflow
	ErrDepthExceeded
	ErrLookaheadFull
	ErrIO
)

var kindNames = map[ErrorKind]string{
	ErrUnexpectedEnd:      "unexpected end of input",
	ErrMissingType:        "missing type",
	ErrTypeMismatch:       "type mismatch",
	ErrInvalidBlockMarker: "invalid simple-list marker",
	ErrInvalidUTF8:        "invalid utf-8",
	ErrUnknownTypeCode:    "unknown type code",
	ErrInvalidFieldTag:    "invalid field tag",
	ErrLengthOverflow:     "length out of range",
	ErrDepthExceeded:      "nesting too deep",
	ErrLookaheadFull:      "header lookahead already full",
	ErrIO:                 "i/o error",
}

func (k ErrorKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error carries offset and classification for better diagnostics.
type Error struct {
	Offset int64
	Kind   ErrorKind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Kind.String()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Offset > 0 {
		return fmt.Sprintf("jce: at %d: %s", e.Offset, msg)
	}
	return "jce: " + msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so the Kind sentinels below
// work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	UnexpectedEnd      = &Error{Kind: ErrUnexpectedEnd}
	MissingType        = &Error{Kind: ErrMissingType}
	TypeMismatch       = &Error{Kind: ErrTypeMismatch}
	InvalidBlockMarker = &Error{Kind: ErrInvalidBlockMarker}
	InvalidUTF8        = &Error{Kind: ErrInvalidUTF8}
	UnknownTypeCode    = &Error{Kind: ErrUnknownTypeCode}
	InvalidFieldTag    = &Error{Kind: ErrInvalidFieldTag}
	LengthOverflow     = &Error{Kind: ErrLengthOverflow}
	DepthExceeded      = &Error{Kind: ErrDepthExceeded}
	LookaheadFull      = &Error{Kind: ErrLookaheadFull}
	IOFailure          = &Error{Kind: ErrIO}
)

func errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}
