package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"

	"github.com/dadrian/jce"
	"github.com/dadrian/jce/jcetext"
)

var cborMode cbor.EncMode

func init() {
	var err error
	cborMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("jcec: cbor mode: %v", err))
	}
}

// plain converts a value tree into ordinary Go values for the generic
// encoders. Records become maps keyed by tag; JCE maps become lists of
// [key, value] pairs since their keys need not be strings or unique.
func plain(v jce.Value) any {
	switch x := v.(type) {
	case jce.Zero:
		return int64(0)
	case jce.Int8, jce.Int16, jce.Int32, jce.Int64:
		n, _ := jce.AsInt(x)
		return n
	case jce.Float32:
		return float32(x)
	case jce.Float64:
		return float64(x)
	case jce.String:
		return string(x)
	case jce.Bytes:
		return []byte(x)
	case jce.List:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = plain(e)
		}
		return out
	case jce.Map:
		out := make([]any, len(x))
		for i, kv := range x {
			out[i] = []any{plain(kv.Key), plain(kv.Value)}
		}
		return out
	case jce.Record:
		out := make(map[uint8]any, len(x))
		for tag, f := range x {
			out[tag] = plain(f)
		}
		return out
	default:
		return nil
	}
}

func writeFormat(w io.Writer, format string, rec jce.Record) error {
	switch format {
	case "text":
		_, err := fmt.Fprintln(w, jcetext.FormatRecord(rec))
		return err
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(plain(rec))
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(plain(rec)); err != nil {
			return err
		}
		return enc.Close()
	case "cbor":
		b, err := cborMode.Marshal(plain(rec))
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	default:
		return fmt.Errorf("unknown format %q (want text, json, yaml or cbor)", format)
	}
}
