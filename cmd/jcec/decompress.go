package main

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// maxDecompressed bounds inflated input so a small hostile payload
// cannot exhaust memory.
const maxDecompressed = 1 << 30

// decompress inflates data captured from a transport that compresses
// JCE payloads. lz4 expects the frame format.
func decompress(name string, data []byte) ([]byte, error) {
	var r io.Reader
	switch name {
	case "", "none":
		return data, nil
	case "gzip":
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer zr.Close()
		r = zr
	case "zlib":
		zr, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("zlib: %w", err)
		}
		defer zr.Close()
		r = zr
	case "zstd":
		zr, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		defer zr.Close()
		r = zr
	case "lz4":
		r = lz4.NewReader(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("unknown compression %q (want none, gzip, zlib, zstd or lz4)", name)
	}
	out, err := io.ReadAll(io.LimitReader(r, maxDecompressed+1))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if len(out) > maxDecompressed {
		return nil, fmt.Errorf("%s: output exceeds %d bytes", name, maxDecompressed)
	}
	return out, nil
}
