// jcec converts between JCE bytes and readable forms.
//
// By default it decodes JCE bytes into the generic value tree and prints
// it as text, JSON, YAML or CBOR. With --encode it reads the jcetext form
// and writes JCE bytes.
package main

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/dadrian/jce"
	"github.com/dadrian/jce/jcetext"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "jcec: %v\n", err)
		os.Exit(1)
	}
}

type config struct {
	in         string
	out        string
	hexIn      bool
	hexOut     bool
	decompress string
	format     string
	encode     bool
	info       bool
	validate   bool
	verbose    bool
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var cfg config
	flagSet := pflag.NewFlagSet("jcec", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVar(&cfg.in, "in", "-", "input file (or - for stdin)")
	flagSet.StringVar(&cfg.out, "out", "-", "output file (or - for stdout)")
	flagSet.BoolVar(&cfg.hexIn, "hex-in", false, "input JCE bytes are hex-encoded")
	flagSet.BoolVar(&cfg.hexOut, "hex", false, "with --encode, write hex instead of binary")
	flagSet.StringVar(&cfg.decompress, "decompress", "none", "input compression: none, gzip, zlib, zstd or lz4")
	flagSet.StringVarP(&cfg.format, "format", "f", "text", "output format: text, json, yaml or cbor")
	flagSet.BoolVarP(&cfg.encode, "encode", "e", false, "read jcetext and write JCE bytes")
	flagSet.BoolVar(&cfg.info, "info", false, "print the top-level field tags and types only")
	flagSet.BoolVar(&cfg.validate, "validate", false, "parse or decode only; the exit status reports the result")
	flagSet.BoolVarP(&cfg.verbose, "verbose", "v", false, "log debug detail to stderr")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return fmt.Errorf("unexpected argument: %s", rest[0])
	}

	level := slog.LevelWarn
	if cfg.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	opts := jce.Options{Logger: logger}

	input, err := readInput(cfg.in, stdin)
	if err != nil {
		return err
	}
	logger.Debug("read input", "bytes", len(input), "source", cfg.in)

	var rec jce.Record
	var encoded []byte
	if cfg.encode {
		if rec, err = jcetext.Parse(input); err != nil {
			return err
		}
		if encoded, err = opts.Marshal(rec); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		logger.Debug("encoded", "fields", len(rec), "bytes", len(encoded))
	} else {
		if cfg.hexIn {
			if input, err = decodeHex(input); err != nil {
				return err
			}
		}
		if input, err = decompress(cfg.decompress, input); err != nil {
			return err
		}
		if rec, err = opts.NewDecoder(bytes.NewReader(input)).DecodeAll(); err != nil {
			return fmt.Errorf("decode: %w", err)
		}
		logger.Debug("decoded", "fields", len(rec), "bytes", len(input))
	}

	if cfg.validate {
		return nil
	}

	w, closeOut, err := openOutput(cfg.out, stdout)
	if err != nil {
		return err
	}
	defer closeOut()

	switch {
	case cfg.info:
		return printInfo(w, rec)
	case cfg.encode && cfg.hexOut:
		_, err = fmt.Fprintln(w, hex.EncodeToString(encoded))
		return err
	case cfg.encode:
		_, err = w.Write(encoded)
		return err
	default:
		return writeFormat(w, cfg.format, rec)
	}
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return b, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return b, nil
}

func openOutput(path string, stdout io.Writer) (io.Writer, func(), error) {
	if path == "-" {
		return stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output: %w", err)
	}
	return f, func() { f.Close() }, nil
}

// decodeHex accepts hex with arbitrary whitespace, as produced by
// hexdump-style tools.
func decodeHex(b []byte) ([]byte, error) {
	clean := strings.Join(strings.Fields(string(b)), "")
	out, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("hex input: %w", err)
	}
	return out, nil
}

func printInfo(w io.Writer, rec jce.Record) error {
	for _, tag := range rec.Tags() {
		if _, err := fmt.Fprintf(w, "%d\t%v\n", tag, rec[tag].Type()); err != nil {
			return err
		}
	}
	return nil
}
