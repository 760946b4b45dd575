package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"gopkg.in/yaml.v3"
)

// sample is {0: 7, 1: "x", 2: [1, 2]} on the wire.
var sample = []byte{
	0x00, 0x07,
	0x16, 0x01, 'x',
	0x29, 0x00, 0x02, 0x00, 0x01, 0x10, 0x02,
}

func runCmd(t *testing.T, stdin []byte, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(args, bytes.NewReader(stdin), &stdout, &stderr)
	return stdout.String(), err
}

func TestDecodeText(t *testing.T) {
	out, err := runCmd(t, sample)
	if err != nil {
		t.Fatal(err)
	}
	want := "{\n  0: 7,\n  1: \"x\",\n  2: [\n    1,\n    2,\n  ],\n}\n"
	if out != want {
		t.Fatalf("got:\n%s\nwant:\n%s", out, want)
	}
}

func TestDecodeHexInput(t *testing.T) {
	in := []byte("00 07 16 01 78\n29 00 02 00 01 10 02\n")
	out, err := runCmd(t, in, "--hex-in", "--info")
	if err != nil {
		t.Fatal(err)
	}
	if want := "0\tint8\n1\tstring1\n2\tlist\n"; out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestDecodeFormats(t *testing.T) {
	want := map[string]any{"0": float64(7), "1": "x", "2": []any{float64(1), float64(2)}}

	out, err := runCmd(t, sample, "--format", "json")
	if err != nil {
		t.Fatal(err)
	}
	var fromJSON map[string]any
	if err := json.Unmarshal([]byte(out), &fromJSON); err != nil {
		t.Fatalf("json output: %v", err)
	}
	if diff := cmp.Diff(want, fromJSON); diff != "" {
		t.Errorf("json mismatch (-want +got):\n%s", diff)
	}

	out, err = runCmd(t, sample, "-f", "yaml")
	if err != nil {
		t.Fatal(err)
	}
	var fromYAML map[int]any
	if err := yaml.Unmarshal([]byte(out), &fromYAML); err != nil {
		t.Fatalf("yaml output: %v", err)
	}
	if diff := cmp.Diff(map[int]any{0: 7, 1: "x", 2: []any{1, 2}}, fromYAML); diff != "" {
		t.Errorf("yaml mismatch (-want +got):\n%s", diff)
	}

	out, err = runCmd(t, sample, "--format", "cbor")
	if err != nil {
		t.Fatal(err)
	}
	var fromCBOR map[uint8]any
	if err := cbor.Unmarshal([]byte(out), &fromCBOR); err != nil {
		t.Fatalf("cbor output: %v", err)
	}
	wantCBOR := map[uint8]any{0: uint64(7), 1: "x", 2: []any{uint64(1), uint64(2)}}
	if diff := cmp.Diff(wantCBOR, fromCBOR); diff != "" {
		t.Errorf("cbor mismatch (-want +got):\n%s", diff)
	}

	if _, err := runCmd(t, sample, "--format", "xml"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestEncode(t *testing.T) {
	src := []byte(`{0: 7, 1: "x", 2: [1, 2]}`)
	out, err := runCmd(t, src, "--encode")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal([]byte(out), sample) {
		t.Fatalf("got % X, want % X", out, sample)
	}
	out, err = runCmd(t, src, "--encode", "--hex")
	if err != nil {
		t.Fatal(err)
	}
	if want := hex.EncodeToString(sample) + "\n"; out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestValidate(t *testing.T) {
	out, err := runCmd(t, sample, "--validate")
	if err != nil || out != "" {
		t.Fatalf("valid input: out=%q err=%v", out, err)
	}
	if _, err := runCmd(t, []byte{0x0A, 0x00, 0x01}, "--validate"); err == nil {
		t.Fatal("expected error for unterminated record")
	}
	if _, err := runCmd(t, []byte(`{0: `), "--encode", "--validate"); err == nil {
		t.Fatal("expected error for bad text")
	}
}

func TestDecompress(t *testing.T) {
	compressors := map[string]func(b []byte) []byte{
		"gzip": func(b []byte) []byte {
			var buf bytes.Buffer
			w := gzip.NewWriter(&buf)
			w.Write(b)
			w.Close()
			return buf.Bytes()
		},
		"zlib": func(b []byte) []byte {
			var buf bytes.Buffer
			w := zlib.NewWriter(&buf)
			w.Write(b)
			w.Close()
			return buf.Bytes()
		},
		"zstd": func(b []byte) []byte {
			enc, err := zstd.NewWriter(nil)
			if err != nil {
				t.Fatal(err)
			}
			defer enc.Close()
			return enc.EncodeAll(b, nil)
		},
		"lz4": func(b []byte) []byte {
			var buf bytes.Buffer
			w := lz4.NewWriter(&buf)
			w.Write(b)
			w.Close()
			return buf.Bytes()
		},
	}
	for name, compress := range compressors {
		out, err := runCmd(t, compress(sample), "--decompress", name, "--info")
		if err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		if !strings.HasPrefix(out, "0\tint8\n") {
			t.Errorf("%s: unexpected output %q", name, out)
		}
	}
	if _, err := runCmd(t, sample, "--decompress", "brotli"); err == nil {
		t.Fatal("expected error for unknown compression")
	}
}

func TestVerboseLogging(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if err := run([]string{"--verbose", "--validate"}, bytes.NewReader(sample), &stdout, &stderr); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stderr.String(), "level=DEBUG") {
		t.Fatalf("expected debug output, got %q", stderr.String())
	}
}
