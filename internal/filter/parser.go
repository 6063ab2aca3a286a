package filter

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrSyntax marks a malformed filter expression.
var ErrSyntax = errors.New("invalid filter expression")

type tokenKind int

const (
	tokenText tokenKind = iota // identifier or quoted string
	tokenColon
	tokenOpenParen
	tokenCloseParen
	tokenNot // '-' or 'not'
	tokenAnd // 'and', '&', '&&'
	tokenOr  // 'or', '|', '||'
)

type token struct {
	kind   tokenKind
	value  string
	quoted bool
}

// tokenize splits the expression into tokens. Quoted strings keep their
// spaces and never become operators.
func tokenize(input string) ([]token, error) {
	var tokens []token
	runes := []rune(input)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == ':':
			tokens = append(tokens, token{kind: tokenColon})
			i++
		case r == '(':
			tokens = append(tokens, token{kind: tokenOpenParen})
			i++
		case r == ')':
			tokens = append(tokens, token{kind: tokenCloseParen})
			i++
		case r == '-':
			tokens = append(tokens, token{kind: tokenNot})
			i++
		case r == '&':
			if i+1 < len(runes) && runes[i+1] == '&' {
				i++
			}
			tokens = append(tokens, token{kind: tokenAnd})
			i++
		case r == '|':
			if i+1 < len(runes) && runes[i+1] == '|' {
				i++
			}
			tokens = append(tokens, token{kind: tokenOr})
			i++
		case r == '"' || r == '\'':
			quote := r
			i++
			start := i
			for i < len(runes) && runes[i] != quote {
				i++
			}
			if i >= len(runes) {
				return nil, fmt.Errorf("%w: unterminated quote", ErrSyntax)
			}
			tokens = append(tokens, token{kind: tokenText, value: string(runes[start:i]), quoted: true})
			i++
		default:
			start := i
			for i < len(runes) && !unicode.IsSpace(runes[i]) &&
				!strings.ContainsRune(`:()-&|"'`, runes[i]) {
				i++
			}
			word := string(runes[start:i])
			switch strings.ToLower(word) {
			case "not":
				tokens = append(tokens, token{kind: tokenNot})
			case "and":
				tokens = append(tokens, token{kind: tokenAnd})
			case "or":
				tokens = append(tokens, token{kind: tokenOr})
			default:
				tokens = append(tokens, token{kind: tokenText, value: word})
			}
		}
	}
	return tokens, nil
}

// Parse builds a filter from an expression string. The empty expression
// yields the Null filter.
func Parse(input string) (Filter, error) {
	tokens, err := tokenize(input)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return Null, nil
	}
	p := &parser{tokens: tokens}
	f, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.eof() {
		return nil, fmt.Errorf("%w: unexpected token at position %d", ErrSyntax, p.pos)
	}
	return f, nil
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) eof() bool { return p.pos >= len(p.tokens) }

func (p *parser) peek() (token, bool) {
	if p.eof() {
		return token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *parser) parseOr() (Filter, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		t, ok := p.peek()
		if !ok || t.kind != tokenOr {
			return left, nil
		}
		p.pos++
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = Or(left, right)
	}
}

func (p *parser) parseAnd() (Filter, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		t, ok := p.peek()
		if !ok || t.kind == tokenOr || t.kind == tokenCloseParen {
			return left, nil
		}
		// Explicit AND consumes its token; any other adjacent term is an
		// implicit AND.
		if t.kind == tokenAnd {
			p.pos++
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = And(left, right)
	}
}

func (p *parser) parseUnary() (Filter, error) {
	t, ok := p.peek()
	if !ok {
		return nil, fmt.Errorf("%w: unexpected end of expression", ErrSyntax)
	}
	if t.kind == tokenNot {
		p.pos++
		inner, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return Negate(inner), nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Filter, error) {
	t, ok := p.peek()
	if !ok {
		return nil, fmt.Errorf("%w: unexpected end of expression", ErrSyntax)
	}
	switch t.kind {
	case tokenOpenParen:
		p.pos++
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		closing, ok := p.peek()
		if !ok || closing.kind != tokenCloseParen {
			return nil, fmt.Errorf("%w: missing closing parenthesis", ErrSyntax)
		}
		p.pos++
		return inner, nil
	case tokenText:
		p.pos++
		// An unquoted identifier followed by a colon is an operator.
		next, ok := p.peek()
		if ok && next.kind == tokenColon && !t.quoted {
			p.pos++
			value, ok := p.peek()
			if !ok || value.kind != tokenText {
				return nil, fmt.Errorf("%w: operator %q needs a value", ErrSyntax, t.value)
			}
			p.pos++
			return makeOperator(t.value, value.value), nil
		}
		return containsFilter{text: t.value}, nil
	default:
		return nil, fmt.Errorf("%w: unexpected token at position %d", ErrSyntax, p.pos)
	}
}

// makeOperator maps "key:value" primaries to filters. Unknown keys fall
// back to a contains-filter over the whole primary text.
func makeOperator(key, value string) Filter {
	switch strings.ToLower(key) {
	case "contains":
		return containsFilter{text: value}
	case "from":
		return fromFilter{value: value}
	case "mentions":
		return mentionsFilter{value: value}
	case "has":
		return hasFilter{kind: normalizeHasKind(value)}
	case "reaction":
		return reactionFilter{value: value}
	default:
		return containsFilter{text: key + ":" + value}
	}
}
