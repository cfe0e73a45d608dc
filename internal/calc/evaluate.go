// Package calc evaluates the arithmetic typed on the amount keypad.
//
// Expressions are made of non-negative decimal numbers, the four binary
// operators and parentheses. Multiplication and division bind tighter than
// addition and subtraction, equal precedence associates left to right.
// There is no unary minus: a sign in front of the whole input is handled by
// the Calculator, not by Evaluate.
package calc

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidExpression reports input outside the grammar.
	ErrInvalidExpression = errors.New("invalid expression")
	// ErrDivisionByZero reports a division whose right operand is zero.
	ErrDivisionByZero = errors.New("division by zero")
)

// SyntaxError locates a malformed expression. It matches
// ErrInvalidExpression with errors.Is.
type SyntaxError struct {
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid expression at offset %d: %s", e.Offset, e.Msg)
}

func (e *SyntaxError) Unwrap() error { return ErrInvalidExpression }

func precedence(op byte) int {
	switch op {
	case '*', '/':
		return 2
	case '+', '-':
		return 1
	}
	return 0
}

// Evaluate computes the value of expr using an operand stack and an
// operator stack. The only errors are ErrInvalidExpression (possibly
// wrapped in a *SyntaxError) and ErrDivisionByZero.
func Evaluate(expr string) (float64, error) {
	tokens, err := tokenize(expr)
	if err != nil {
		return 0, err
	}
	if len(tokens) == 0 {
		return 0, syntaxErrorf(0, "empty expression")
	}

	e := evaluator{
		operands:  newStack[float64](len(tokens)/2 + 1),
		operators: newStack[token](len(tokens) / 2),
	}

	// expectOperand tracks the grammar position: a number or "(" must come
	// next when true, an operator or ")" when false.
	expectOperand := true
	for _, tok := range tokens {
		switch tok.kind {
		case tokNumber:
			if !expectOperand {
				return 0, syntaxErrorf(tok.offset, "missing operator before %s", tok)
			}
			e.operands.push(tok.value)
			expectOperand = false

		case tokLParen:
			if !expectOperand {
				return 0, syntaxErrorf(tok.offset, "missing operator before (")
			}
			e.operators.push(tok)

		case tokRParen:
			if expectOperand {
				return 0, syntaxErrorf(tok.offset, "missing operand before )")
			}
			if err := e.closeGroup(tok); err != nil {
				return 0, err
			}

		case tokOperator:
			if expectOperand {
				return 0, syntaxErrorf(tok.offset, "missing operand before %s", tok)
			}
			for {
				top, ok := e.operators.peek()
				if !ok || top.kind == tokLParen || precedence(top.op) < precedence(tok.op) {
					break
				}
				if err := e.reduce(); err != nil {
					return 0, err
				}
			}
			e.operators.push(tok)
			expectOperand = true
		}
	}
	if expectOperand {
		return 0, syntaxErrorf(len(expr), "expression ends with an operator")
	}

	for e.operators.size() > 0 {
		top, _ := e.operators.peek()
		if top.kind == tokLParen {
			return 0, syntaxErrorf(top.offset, "unmatched (")
		}
		if err := e.reduce(); err != nil {
			return 0, err
		}
	}

	if e.operands.size() != 1 {
		return 0, syntaxErrorf(len(expr), "%d values left after evaluation", e.operands.size())
	}
	result, _ := e.operands.pop()
	return result, nil
}

type evaluator struct {
	operands  *stack[float64]
	operators *stack[token]
}

// closeGroup applies operators down to the matching "(" and discards it.
func (e *evaluator) closeGroup(closing token) error {
	for {
		top, ok := e.operators.peek()
		if !ok {
			return syntaxErrorf(closing.offset, "unmatched )")
		}
		if top.kind == tokLParen {
			e.operators.pop()
			return nil
		}
		if err := e.reduce(); err != nil {
			return err
		}
	}
}

// reduce pops one operator and two operands (b first, then a) and pushes
// a OP b.
func (e *evaluator) reduce() error {
	op, ok := e.operators.pop()
	if !ok {
		return syntaxErrorf(0, "no operator to apply")
	}
	b, okB := e.operands.pop()
	a, okA := e.operands.pop()
	if !okA || !okB {
		return syntaxErrorf(op.offset, "operator %s is missing an operand", op)
	}
	v, err := apply(op.op, a, b)
	if err != nil {
		return err
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return syntaxErrorf(op.offset, "result of %s out of range", op)
	}
	e.operands.push(v)
	return nil
}

func apply(op byte, a, b float64) (float64, error) {
	switch op {
	case '+':
		return a + b, nil
	case '-':
		return a - b, nil
	case '*':
		return a * b, nil
	case '/':
		if b == 0 {
			return 0, ErrDivisionByZero
		}
		return a / b, nil
	}
	return 0, fmt.Errorf("operator %q: %w", op, ErrInvalidExpression)
}
