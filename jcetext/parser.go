package jcetext

import (
	"encoding/hex"
	"fmt"
	"math"
	"strconv"

	"github.com/dadrian/jce"
	intr "github.com/dadrian/jce/internal"
)

// SyntaxError reports malformed text along with the byte offset where
// parsing stopped.
type SyntaxError struct {
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("jcetext: offset %d: %s", e.Offset, e.Msg)
}

// Parse reads a document holding a single record literal.
func Parse(src []byte) (jce.Record, error) {
	v, err := ParseValue(src)
	if err != nil {
		return nil, err
	}
	rec, ok := v.(jce.Record)
	if !ok {
		return nil, &SyntaxError{Msg: fmt.Sprintf("top-level value is %v, not a record", v.Type())}
	}
	return rec, nil
}

// ParseValue reads a document holding a single value of any kind.
func ParseValue(src []byte) (jce.Value, error) {
	p := &parser{lx: newLexer(src)}
	p.lx.next()
	v, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	if p.lx.cur.kind != tokEOF {
		return nil, p.errorf("unexpected %v after value", p.lx.cur.kind)
	}
	return v, nil
}

type parser struct{ lx *lexer }

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Offset: p.lx.cur.off, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) expect(k tokKind) error {
	if p.lx.cur.kind != k {
		return p.unexpected(k.String())
	}
	p.lx.next()
	return nil
}

func (p *parser) unexpected(want string) error {
	if p.lx.cur.kind == tokError {
		return p.errorf("%s", p.lx.cur.lit)
	}
	return p.errorf("expected %s, got %v %q", want, p.lx.cur.kind, p.lx.cur.lit)
}

func (p *parser) parseValue() (jce.Value, error) {
	tok := p.lx.cur
	switch tok.kind {
	case tokLBrace:
		return p.parseRecord()
	case tokLBrack:
		return p.parseList()
	case tokString:
		p.lx.next()
		return jce.String(tok.lit), nil
	case tokInt:
		p.lx.next()
		n, err := strconv.ParseInt(tok.lit, 0, 64)
		if err != nil {
			return nil, &SyntaxError{Offset: tok.off, Msg: fmt.Sprintf("integer %s: %v", tok.lit, err)}
		}
		return narrowest(n), nil
	case tokFloat, tokMinus:
		f, err := p.parseFloat(64)
		return jce.Float64(f), err
	case tokIdent:
		switch tok.lit {
		case "zero":
			p.lx.next()
			return jce.Zero{}, nil
		case "map":
			p.lx.next()
			return p.parseMap()
		case "bytes":
			p.lx.next()
			return p.parseBytes()
		case "i8", "i16", "i32", "i64":
			p.lx.next()
			return p.parseTypedInt(tok.lit)
		case "f32":
			p.lx.next()
			f, err := p.parseFloat(32)
			return jce.Float32(f), err
		case "f64":
			p.lx.next()
			f, err := p.parseFloat(64)
			return jce.Float64(f), err
		case "inf", "nan":
			f, err := p.parseFloat(64)
			return jce.Float64(f), err
		}
		return nil, p.errorf("unknown keyword %q", tok.lit)
	default:
		return nil, p.unexpected("value")
	}
}

func narrowest(n int64) jce.Value {
	switch jce.TypeCode(intr.NumberType(n)) {
	case jce.TypeZero:
		return jce.Zero{}
	case jce.TypeInt8:
		return jce.Int8(n)
	case jce.TypeInt16:
		return jce.Int16(n)
	case jce.TypeInt32:
		return jce.Int32(n)
	default:
		return jce.Int64(n)
	}
}

// parseTypedInt reads the literal after an explicit width keyword. Hex
// literals without a sign are taken as bit patterns of that width.
func (p *parser) parseTypedInt(kw string) (jce.Value, error) {
	tok := p.lx.cur
	if tok.kind != tokInt {
		return nil, p.unexpected("integer after " + kw)
	}
	p.lx.next()
	bits := map[string]int{"i8": 8, "i16": 16, "i32": 32, "i64": 64}[kw]
	var n int64
	var err error
	if tok.intBase == 16 && tok.lit[0] == '0' {
		var u uint64
		u, err = strconv.ParseUint(tok.lit, 0, bits)
		n = int64(u) << (64 - bits) >> (64 - bits)
	} else {
		n, err = strconv.ParseInt(tok.lit, 0, bits)
	}
	if err != nil {
		return nil, &SyntaxError{Offset: tok.off, Msg: fmt.Sprintf("%s %s: %v", kw, tok.lit, err)}
	}
	switch kw {
	case "i8":
		return jce.Int8(n), nil
	case "i16":
		return jce.Int16(n), nil
	case "i32":
		return jce.Int32(n), nil
	default:
		return jce.Int64(n), nil
	}
}

// parseFloat accepts decimal literals, integers, inf, -inf and nan.
func (p *parser) parseFloat(bits int) (float64, error) {
	tok := p.lx.cur
	switch tok.kind {
	case tokFloat, tokInt:
		p.lx.next()
		f, err := strconv.ParseFloat(stripUnderscores(tok.lit), bits)
		if err != nil {
			return 0, &SyntaxError{Offset: tok.off, Msg: fmt.Sprintf("float %s: %v", tok.lit, err)}
		}
		return f, nil
	case tokMinus:
		p.lx.next()
		if p.lx.cur.kind != tokIdent || p.lx.cur.lit != "inf" {
			return 0, p.unexpected("inf after '-'")
		}
		p.lx.next()
		return math.Inf(-1), nil
	case tokIdent:
		switch tok.lit {
		case "inf":
			p.lx.next()
			return math.Inf(1), nil
		case "nan":
			p.lx.next()
			return math.NaN(), nil
		}
	}
	return 0, p.unexpected("float")
}

func (p *parser) parseBytes() (jce.Value, error) {
	if err := p.expect(tokLParen); err != nil {
		return nil, err
	}
	tok := p.lx.cur
	if tok.kind != tokString {
		return nil, p.unexpected("hex string")
	}
	b, err := hex.DecodeString(tok.lit)
	if err != nil {
		return nil, &SyntaxError{Offset: tok.off, Msg: fmt.Sprintf("bytes: %v", err)}
	}
	p.lx.next()
	if err := p.expect(tokRParen); err != nil {
		return nil, err
	}
	return jce.Bytes(b), nil
}

// endOfItem consumes the separator after a container item and reports
// whether the closing token follows.
func (p *parser) endOfItem(closing tokKind) (bool, error) {
	switch p.lx.cur.kind {
	case tokComma:
		p.lx.next()
		return p.lx.cur.kind == closing, nil
	case closing:
		return true, nil
	default:
		return false, p.unexpected(fmt.Sprintf("',' or %v", closing))
	}
}

func (p *parser) parseRecord() (jce.Value, error) {
	if err := p.expect(tokLBrace); err != nil {
		return nil, err
	}
	rec := jce.Record{}
	for done := p.lx.cur.kind == tokRBrace; !done; {
		tok := p.lx.cur
		if tok.kind != tokInt {
			return nil, p.unexpected("field tag")
		}
		tag, err := strconv.ParseUint(tok.lit, 0, 8)
		if err != nil {
			return nil, &SyntaxError{Offset: tok.off, Msg: fmt.Sprintf("field tag %s must be 0..255", tok.lit)}
		}
		if _, dup := rec[uint8(tag)]; dup {
			return nil, &SyntaxError{Offset: tok.off, Msg: fmt.Sprintf("duplicate field tag %d", tag)}
		}
		p.lx.next()
		if err := p.expect(tokColon); err != nil {
			return nil, err
		}
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		rec[uint8(tag)] = v
		if done, err = p.endOfItem(tokRBrace); err != nil {
			return nil, err
		}
	}
	p.lx.next()
	return rec, nil
}

func (p *parser) parseList() (jce.Value, error) {
	if err := p.expect(tokLBrack); err != nil {
		return nil, err
	}
	l := jce.List{}
	for done := p.lx.cur.kind == tokRBrack; !done; {
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		l = append(l, v)
		if done, err = p.endOfItem(tokRBrack); err != nil {
			return nil, err
		}
	}
	p.lx.next()
	return l, nil
}

func (p *parser) parseMap() (jce.Value, error) {
	if err := p.expect(tokLBrace); err != nil {
		return nil, err
	}
	m := jce.Map{}
	for done := p.lx.cur.kind == tokRBrace; !done; {
		k, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokColon); err != nil {
			return nil, err
		}
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		m = append(m, jce.Pair{Key: k, Value: v})
		if done, err = p.endOfItem(tokRBrace); err != nil {
			return nil, err
		}
	}
	p.lx.next()
	return m, nil
}
