package jcetext

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

type tokKind int

const (
	tokEOF tokKind = iota
	tokIdent
	tokInt
	tokFloat
	tokString
	tokError
	// symbols
	tokColon  // :
	tokComma  // ,
	tokMinus  // - not followed by a digit
	tokLBrace // {
	tokRBrace // }
	tokLBrack // [
	tokRBrack // ]
	tokLParen // (
	tokRParen // )
)

var tokNames = [...]string{
	tokEOF:    "end of input",
	tokIdent:  "identifier",
	tokInt:    "integer",
	tokFloat:  "float",
	tokString: "string",
	tokError:  "error",
	tokColon:  "':'",
	tokComma:  "','",
	tokMinus:  "'-'",
	tokLBrace: "'{'",
	tokRBrace: "'}'",
	tokLBrack: "'['",
	tokRBrack: "']'",
	tokLParen: "'('",
	tokRParen: "')'",
}

func (k tokKind) String() string {
	if int(k) < len(tokNames) {
		return tokNames[k]
	}
	return fmt.Sprintf("tokKind(%d)", int(k))
}

type token struct {
	kind    tokKind
	lit     string
	intBase int // 10 or 16 for tokInt
	off     int
}

type lexer struct {
	src []byte
	off int
	cur token
}

func newLexer(src []byte) *lexer { return &lexer{src: src} }

func (lx *lexer) next() {
	lx.skipSpaceAndComments()
	start := lx.off
	lx.cur = lx.scan()
	lx.cur.off = start
}

func (lx *lexer) scan() token {
	if lx.off >= len(lx.src) {
		return token{kind: tokEOF}
	}
	b := lx.src[lx.off]
	if isIdentStart(b) {
		start := lx.off
		lx.off++
		for lx.off < len(lx.src) && isIdentPart(lx.src[lx.off]) {
			lx.off++
		}
		return token{kind: tokIdent, lit: string(lx.src[start:lx.off])}
	}
	if isDigit(b) || ((b == '-' || b == '+') && lx.peekIsDigit()) {
		return lx.scanNumber()
	}
	if b == '"' || b == '`' {
		s, n, err := scanString(lx.src[lx.off:])
		if err != nil {
			lx.off = len(lx.src)
			return token{kind: tokError, lit: fmt.Sprintf("string: %v", err)}
		}
		lx.off += n
		return token{kind: tokString, lit: s}
	}
	lx.off++
	switch b {
	case ':':
		return token{kind: tokColon, lit: ":"}
	case ',':
		return token{kind: tokComma, lit: ","}
	case '-':
		return token{kind: tokMinus, lit: "-"}
	case '{':
		return token{kind: tokLBrace, lit: "{"}
	case '}':
		return token{kind: tokRBrace, lit: "}"}
	case '[':
		return token{kind: tokLBrack, lit: "["}
	case ']':
		return token{kind: tokRBrack, lit: "]"}
	case '(':
		return token{kind: tokLParen, lit: "("}
	case ')':
		return token{kind: tokRParen, lit: ")"}
	default:
		return token{kind: tokError, lit: fmt.Sprintf("unexpected char %q", b)}
	}
}

func (lx *lexer) scanNumber() token {
	start := lx.off
	if lx.src[lx.off] == '-' || lx.src[lx.off] == '+' {
		lx.off++
	}
	// hex prefix
	if lx.off+1 < len(lx.src) && lx.src[lx.off] == '0' && (lx.src[lx.off+1] == 'x' || lx.src[lx.off+1] == 'X') {
		lx.off += 2
		for lx.off < len(lx.src) && (isHexDigit(lx.src[lx.off]) || lx.src[lx.off] == '_') {
			lx.off++
		}
		return token{kind: tokInt, lit: string(lx.src[start:lx.off]), intBase: 16}
	}
	isFloat := false
	lx.digits()
	if lx.off < len(lx.src) && lx.src[lx.off] == '.' {
		isFloat = true
		lx.off++
		lx.digits()
	}
	// exponent part
	if lx.off < len(lx.src) && (lx.src[lx.off] == 'e' || lx.src[lx.off] == 'E') {
		isFloat = true
		lx.off++
		if lx.off < len(lx.src) && (lx.src[lx.off] == '+' || lx.src[lx.off] == '-') {
			lx.off++
		}
		lx.digits()
	}
	lit := string(lx.src[start:lx.off])
	if isFloat {
		return token{kind: tokFloat, lit: lit}
	}
	return token{kind: tokInt, lit: lit, intBase: 10}
}

func (lx *lexer) digits() {
	for lx.off < len(lx.src) && (isDigit(lx.src[lx.off]) || lx.src[lx.off] == '_') {
		lx.off++
	}
}

func (lx *lexer) skipSpaceAndComments() {
	for lx.off < len(lx.src) {
		b := lx.src[lx.off]
		// whitespace
		if b == ' ' || b == '\t' || b == '\n' || b == '\r' {
			lx.off++
			continue
		}
		// line comments: # or //
		if b == '#' || (b == '/' && lx.off+1 < len(lx.src) && lx.src[lx.off+1] == '/') {
			for lx.off < len(lx.src) && lx.src[lx.off] != '\n' {
				lx.off++
			}
			continue
		}
		// block comments: /* ... */
		if b == '/' && lx.off+1 < len(lx.src) && lx.src[lx.off+1] == '*' {
			end := strings.Index(string(lx.src[lx.off+2:]), "*/")
			if end < 0 {
				lx.off = len(lx.src)
			} else {
				lx.off += 2 + end + 2
			}
			continue
		}
		break
	}
}

func isIdentStart(b byte) bool { return b == '_' || ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z') }
func isIdentPart(b byte) bool  { return isIdentStart(b) || isDigit(b) }
func isDigit(b byte) bool      { return '0' <= b && b <= '9' }
func isHexDigit(b byte) bool {
	return ('0' <= b && b <= '9') || ('a' <= b && b <= 'f') || ('A' <= b && b <= 'F')
}

func (lx *lexer) peekIsDigit() bool {
	return lx.off+1 < len(lx.src) && isDigit(lx.src[lx.off+1])
}

// scanString scans a Go string literal at the start of src and returns
// its unquoted value and the number of bytes consumed.
func scanString(src []byte) (string, int, error) {
	quote := src[0]
	i := 1
	for i < len(src) {
		c := src[i]
		switch {
		case c == quote:
			i++
			s, err := strconv.Unquote(string(src[:i]))
			return s, i, err
		case c == '\\' && quote == '"':
			i += 2
		case c == '\n' && quote == '"':
			return "", 0, fmt.Errorf("newline in string")
		case c < utf8.RuneSelf:
			i++
		default:
			r, size := utf8.DecodeRune(src[i:])
			if r == utf8.RuneError && size <= 1 {
				return "", 0, fmt.Errorf("invalid utf-8")
			}
			i += size
		}
	}
	return "", 0, fmt.Errorf("unterminated string")
}

func stripUnderscores(s string) string { return strings.ReplaceAll(s, "_", "") }
