package calc

import (
	"fmt"
	"math"
	"strconv"
	"unicode/utf8"
)

type tokenKind uint8

const (
	tokNumber tokenKind = iota
	tokOperator
	tokLParen
	tokRParen
)

type token struct {
	kind   tokenKind
	op     byte    // operator byte for tokOperator
	value  float64 // parsed value for tokNumber
	offset int     // byte offset in the source
}

func (t token) String() string {
	switch t.kind {
	case tokNumber:
		return strconv.FormatFloat(t.value, 'g', -1, 64)
	case tokOperator:
		return string(t.op)
	case tokLParen:
		return "("
	default:
		return ")"
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isOperator(c byte) bool {
	return c == '+' || c == '-' || c == '*' || c == '/'
}

// tokenize splits src into tokens. A number is the maximal run of digits
// and dots starting at the current position; more than one dot in that run
// is an error.
func tokenize(src string) ([]token, error) {
	tokens := make([]token, 0, len(src)/2+1)
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case isSpace(c):
			i++
		case isDigit(c) || c == '.':
			start := i
			dots := 0
			for i < len(src) && (isDigit(src[i]) || src[i] == '.') {
				if src[i] == '.' {
					dots++
				}
				i++
			}
			text := src[start:i]
			if dots > 1 {
				return nil, syntaxErrorf(start, "number %q has more than one decimal point", text)
			}
			if text == "." {
				return nil, syntaxErrorf(start, "decimal point without digits")
			}
			v, err := strconv.ParseFloat(text, 64)
			if err != nil || math.IsInf(v, 0) {
				return nil, syntaxErrorf(start, "number %q out of range", text)
			}
			tokens = append(tokens, token{kind: tokNumber, value: v, offset: start})
		case isOperator(c):
			tokens = append(tokens, token{kind: tokOperator, op: c, offset: i})
			i++
		case c == '(':
			tokens = append(tokens, token{kind: tokLParen, offset: i})
			i++
		case c == ')':
			tokens = append(tokens, token{kind: tokRParen, offset: i})
			i++
		default:
			r, _ := utf8.DecodeRuneInString(src[i:])
			return nil, syntaxErrorf(i, "unexpected character %q", r)
		}
	}
	return tokens, nil
}

func syntaxErrorf(offset int, format string, args ...any) error {
	return &SyntaxError{Offset: offset, Msg: fmt.Sprintf(format, args...)}
}
