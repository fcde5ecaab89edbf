// SPDX-License-Identifier: MPL-2.0

package expr

import "fmt"

const (
	tokAnd tokenKind = iota
	tokOr
	tokNot
	tokOpen
	tokClose
	tokWild
	tokName
)

type (
	tokenKind int

	token struct {
		kind tokenKind
		name string
	}

	parser struct {
		source string
		tokens []token
		pos    int
	}

	options struct {
		strict bool
	}

	// Option configures Compile.
	Option func(*options)
)

func defaultOptions() options {
	return options{strict: false}
}

// Strict makes the tokenizer reject characters outside the expression
// alphabet instead of skipping them.
func Strict() Option {
	return func(o *options) {
		o.strict = true
	}
}

// WithStrict is Strict driven by a boolean, convenient for configuration flags.
func WithStrict(strict bool) Option {
	return func(o *options) {
		o.strict = strict
	}
}

func isNameChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '-'
}

func lex(text string, strict bool) ([]token, error) {
	var tokens []token
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case isNameChar(c):
			start := i
			for i+1 < len(text) && isNameChar(text[i+1]) {
				i++
			}
			tokens = append(tokens, token{kind: tokName, name: text[start : i+1]})
		case c == '+':
			tokens = append(tokens, token{kind: tokAnd})
		case c == '|':
			tokens = append(tokens, token{kind: tokOr})
		case c == '~':
			tokens = append(tokens, token{kind: tokNot})
		case c == '(':
			tokens = append(tokens, token{kind: tokOpen})
		case c == ')':
			tokens = append(tokens, token{kind: tokClose})
		case c == '*' || c == '?':
			tokens = append(tokens, token{kind: tokWild})
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
		default:
			if strict {
				return nil, &ParseError{Source: text, Reason: fmt.Sprintf("unexpected character %q at offset %d", c, i)}
			}
		}
	}
	return tokens, nil
}

func (p *parser) fail(reason string) error {
	return &ParseError{Source: p.source, Reason: reason}
}

func (p *parser) peek(kind tokenKind) bool {
	return p.pos < len(p.tokens) && p.tokens[p.pos].kind == kind
}

func (p *parser) parseOr() (Expr, error) {
	lhs, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	if !p.peek(tokOr) {
		return lhs, nil
	}
	p.pos++
	rhs, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	return Or{Left: lhs, Right: rhs}, nil
}

func (p *parser) parseAnd() (Expr, error) {
	lhs, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	if !p.peek(tokAnd) {
		return lhs, nil
	}
	p.pos++
	rhs, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	return And{Left: lhs, Right: rhs}, nil
}

func (p *parser) parseNot() (Expr, error) {
	if !p.peek(tokNot) {
		return p.parseAtom()
	}
	p.pos++
	inner, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	return Not{Inner: inner}, nil
}

func (p *parser) parseAtom() (Expr, error) {
	if p.pos >= len(p.tokens) {
		return nil, p.fail("unexpected end of expression")
	}
	tok := p.tokens[p.pos]
	p.pos++

	switch tok.kind {
	case tokName:
		return Atom{Name: tok.name}, nil
	case tokWild:
		return Wildcard{}, nil
	case tokOpen:
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if !p.peek(tokClose) {
			return nil, p.fail("expected close parenthesis")
		}
		p.pos++
		return Group{Inner: inner}, nil
	default:
		return nil, p.fail("expected name or open parenthesis")
	}
}
