package jce

import (
	"io"
	"log/slog"

	intr "github.com/dadrian/jce/internal"
)

const (
	// DefaultMaxDepth bounds record/sequence/map nesting.
	DefaultMaxDepth = 100
	// DefaultMaxLength bounds any decoded length or element count.
	DefaultMaxLength = 64 << 20
)

// Options configures encoders and decoders. The zero value selects the
// defaults.
type Options struct {
	// MaxDepth limits container nesting on both encode and decode.
	MaxDepth int
	// MaxLength limits string, byte block, sequence and map lengths on
	// decode.
	MaxLength int
	// Logger receives debug records, such as unknown fields being
	// skipped. Nil discards.
	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.MaxLength <= 0 {
		o.MaxLength = DefaultMaxLength
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// NewEncoder creates a streaming encoder using o.
func (o Options) NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w, opts: o.withDefaults()}
}

// NewDecoder creates a streaming decoder using o.
func (o Options) NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: intr.NewReader(r), opts: o.withDefaults()}
}

// NewEncoder creates a streaming encoder with default options.
func NewEncoder(w io.Writer) *Encoder { return Options{}.NewEncoder(w) }

// NewDecoder creates a streaming decoder with default options.
func NewDecoder(r io.Reader) *Decoder { return Options{}.NewDecoder(r) }
