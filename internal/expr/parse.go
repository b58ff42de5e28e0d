package expr

import (
	"fmt"
	"strconv"
	"unicode"
)

// Parse parses a formula. The grammar is
//
//	expr   = term { ("+" | "-") term }
//	term   = unary { ("*" | "/") unary }
//	unary  = "-" unary | "+" unary | factor
//	factor = number | name | "(" expr ")"
//
// Names may be prefixed with "self." which is stripped.
func Parse(src string) (Expr, error) {
	p := &parser{src: src}
	p.next()
	e, err := p.expr()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, p.errorf("unexpected %q", p.tok.text)
	}
	return e, nil
}

// MustParse is like Parse but panics on error. It is meant for formulas
// authored in source code.
func MustParse(src string) Expr {
	e, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return e
}

// SyntaxError reports a malformed formula.
type SyntaxError struct {
	Src string
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("formula %q: %s at offset %d", e.Src, e.Msg, e.Pos)
}

type tokKind int

const (
	tokEOF tokKind = iota
	tokNum
	tokName
	tokOp
	tokLParen
	tokRParen
)

type token struct {
	kind tokKind
	text string
	pos  int
}

type parser struct {
	src string
	off int
	tok token
}

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Src: p.src, Pos: p.tok.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) next() {
	for p.off < len(p.src) && unicode.IsSpace(rune(p.src[p.off])) {
		p.off++
	}
	start := p.off
	if p.off >= len(p.src) {
		p.tok = token{kind: tokEOF, pos: start}
		return
	}

	c := p.src[p.off]
	switch {
	case c == '+' || c == '-' || c == '*' || c == '/':
		p.off++
		p.tok = token{kind: tokOp, text: string(c), pos: start}
	case c == '(':
		p.off++
		p.tok = token{kind: tokLParen, text: "(", pos: start}
	case c == ')':
		p.off++
		p.tok = token{kind: tokRParen, text: ")", pos: start}
	case isDigit(c) || c == '.':
		for p.off < len(p.src) && (isDigit(p.src[p.off]) || p.src[p.off] == '.') {
			p.off++
		}
		// exponent, e.g. 1e-3
		if p.off < len(p.src) && (p.src[p.off] == 'e' || p.src[p.off] == 'E') {
			p.off++
			if p.off < len(p.src) && (p.src[p.off] == '+' || p.src[p.off] == '-') {
				p.off++
			}
			for p.off < len(p.src) && isDigit(p.src[p.off]) {
				p.off++
			}
		}
		p.tok = token{kind: tokNum, text: p.src[start:p.off], pos: start}
	case isNameStart(c):
		for p.off < len(p.src) && (isNameStart(p.src[p.off]) || isDigit(p.src[p.off]) || p.src[p.off] == '.') {
			p.off++
		}
		p.tok = token{kind: tokName, text: p.src[start:p.off], pos: start}
	default:
		p.off++
		p.tok = token{kind: tokOp, text: string(c), pos: start}
	}
}

func (p *parser) expr() (Expr, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokOp && (p.tok.text == "+" || p.tok.text == "-") {
		op := Op(p.tok.text[0])
		p.next()
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		left = Binary{Op: op, L: left, R: right}
	}
	return left, nil
}

func (p *parser) term() (Expr, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokOp && (p.tok.text == "*" || p.tok.text == "/") {
		op := Op(p.tok.text[0])
		p.next()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = Binary{Op: op, L: left, R: right}
	}
	return left, nil
}

func (p *parser) unary() (Expr, error) {
	if p.tok.kind == tokOp && (p.tok.text == "-" || p.tok.text == "+") {
		neg := p.tok.text == "-"
		p.next()
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		if !neg {
			return x, nil
		}
		if n, ok := x.(Num); ok {
			return Num{Value: -n.Value}, nil
		}
		return Neg{X: x}, nil
	}
	return p.factor()
}

func (p *parser) factor() (Expr, error) {
	switch p.tok.kind {
	case tokNum:
		v, err := strconv.ParseFloat(p.tok.text, 64)
		if err != nil {
			return nil, p.errorf("bad number %q", p.tok.text)
		}
		p.next()
		return Num{Value: v}, nil
	case tokName:
		name := p.tok.text
		if len(name) > 5 && name[:5] == "self." {
			name = name[5:]
		}
		for i := 0; i < len(name); i++ {
			if name[i] == '.' {
				return nil, p.errorf("bad name %q", p.tok.text)
			}
		}
		p.next()
		return Ref{Name: name}, nil
	case tokLParen:
		p.next()
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		if p.tok.kind != tokRParen {
			return nil, p.errorf("missing )")
		}
		p.next()
		return e, nil
	case tokEOF:
		return nil, p.errorf("unexpected end of formula")
	}
	return nil, p.errorf("unexpected %q", p.tok.text)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
