package units

import (
	"fmt"
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/paveg/scmframe/internal/errors"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokMul
	tokDiv
	tokPow
	tokMinus
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
}

// parser is a recursive descent parser for unit expressions:
//
//	expr   = term { ("*" | "/" | implicit) term }
//	term   = factor [ ("**" | "^") ["-"] number ]
//	factor = ident | number | "(" expr ")"
type parser struct {
	expr   string
	pos    int
	tok    token
	lookup func(string) (Unit, bool)
}

func (p *parser) fail(msg string) error {
	return errors.NewSpecificationError("ParseUnit", fmt.Sprintf("%s in %q", msg, p.expr))
}

func identRune(r rune, first bool) bool {
	if unicode.IsLetter(r) || r == '_' || r == '%' || r == 'µ' {
		return true
	}
	return !first && unicode.IsDigit(r)
}

func (p *parser) next() error {
	for p.pos < len(p.expr) && p.expr[p.pos] == ' ' {
		p.pos++
	}
	if p.pos >= len(p.expr) {
		p.tok = token{kind: tokEOF}
		return nil
	}

	start := p.pos
	r, size := utf8.DecodeRuneInString(p.expr[p.pos:])
	switch {
	case r == '*':
		p.pos++
		if p.pos < len(p.expr) && p.expr[p.pos] == '*' {
			p.pos++
			p.tok = token{kind: tokPow, text: "**"}
			return nil
		}
		p.tok = token{kind: tokMul, text: "*"}
	case r == '/':
		p.pos++
		p.tok = token{kind: tokDiv, text: "/"}
	case r == '^':
		p.pos++
		p.tok = token{kind: tokPow, text: "^"}
	case r == '-':
		p.pos++
		p.tok = token{kind: tokMinus, text: "-"}
	case r == '(':
		p.pos++
		p.tok = token{kind: tokLParen, text: "("}
	case r == ')':
		p.pos++
		p.tok = token{kind: tokRParen, text: ")"}
	case unicode.IsDigit(r) || r == '.':
		for p.pos < len(p.expr) {
			c := p.expr[p.pos]
			if (c >= '0' && c <= '9') || c == '.' {
				p.pos++
				continue
			}
			if (c == 'e' || c == 'E') && p.pos+1 < len(p.expr) {
				n := p.expr[p.pos+1]
				if (n >= '0' && n <= '9') || n == '-' || n == '+' {
					p.pos += 2
					continue
				}
			}
			break
		}
		p.tok = token{kind: tokNumber, text: p.expr[start:p.pos]}
	case identRune(r, true):
		p.pos += size
		for p.pos < len(p.expr) {
			r, size = utf8.DecodeRuneInString(p.expr[p.pos:])
			if !identRune(r, false) {
				break
			}
			p.pos += size
		}
		p.tok = token{kind: tokIdent, text: p.expr[start:p.pos]}
	default:
		return p.fail(fmt.Sprintf("unexpected character %q", r))
	}
	return nil
}

func (p *parser) parse() (Unit, error) {
	if err := p.next(); err != nil {
		return Unit{}, err
	}
	u, err := p.parseExpr()
	if err != nil {
		return Unit{}, err
	}
	if p.tok.kind != tokEOF {
		return Unit{}, p.fail(fmt.Sprintf("unexpected %q", p.tok.text))
	}
	return u, nil
}

func (p *parser) parseExpr() (Unit, error) {
	u, err := p.parseTerm()
	if err != nil {
		return Unit{}, err
	}
	for {
		switch p.tok.kind {
		case tokMul, tokDiv:
			div := p.tok.kind == tokDiv
			if err := p.next(); err != nil {
				return Unit{}, err
			}
			rhs, err := p.parseTerm()
			if err != nil {
				return Unit{}, err
			}
			if div {
				rhs = rhs.pow(-1)
			}
			u = u.mul(rhs)
		case tokIdent, tokNumber, tokLParen:
			rhs, err := p.parseTerm()
			if err != nil {
				return Unit{}, err
			}
			u = u.mul(rhs)
		default:
			return u, nil
		}
	}
}

func (p *parser) parseTerm() (Unit, error) {
	u, err := p.parseFactor()
	if err != nil {
		return Unit{}, err
	}
	if p.tok.kind != tokPow {
		return u, nil
	}
	if err := p.next(); err != nil {
		return Unit{}, err
	}
	sign := 1
	if p.tok.kind == tokMinus {
		sign = -1
		if err := p.next(); err != nil {
			return Unit{}, err
		}
	}
	if p.tok.kind != tokNumber {
		return Unit{}, p.fail("expected exponent")
	}
	n, err := strconv.Atoi(p.tok.text)
	if err != nil {
		return Unit{}, p.fail(fmt.Sprintf("non-integer exponent %q", p.tok.text))
	}
	if err := p.next(); err != nil {
		return Unit{}, err
	}
	return u.pow(sign * n), nil
}

func (p *parser) parseFactor() (Unit, error) {
	switch p.tok.kind {
	case tokIdent:
		name := p.tok.text
		u, ok := p.lookup(name)
		if !ok {
			return Unit{}, p.fail(fmt.Sprintf("unknown unit %q", name))
		}
		return u, p.next()
	case tokNumber:
		v, err := strconv.ParseFloat(p.tok.text, 64)
		if err != nil {
			return Unit{}, p.fail(fmt.Sprintf("invalid number %q", p.tok.text))
		}
		return Unit{Scale: v}, p.next()
	case tokLParen:
		if err := p.next(); err != nil {
			return Unit{}, err
		}
		u, err := p.parseExpr()
		if err != nil {
			return Unit{}, err
		}
		if p.tok.kind != tokRParen {
			return Unit{}, p.fail("missing closing parenthesis")
		}
		return u, p.next()
	default:
		return Unit{}, p.fail("expected unit")
	}
}
