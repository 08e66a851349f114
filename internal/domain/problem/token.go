package problem

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mathclub/daily-practice-bot/internal/domain/shared"
)

// Op identifies a binary arithmetic operator.
type Op string

const (
	OpMul Op = "mul"
	OpAdd Op = "add"
	OpSub Op = "sub"
	OpDiv Op = "div"
)

// IsValid checks if the operator is one of the supported kinds.
func (o Op) IsValid() bool {
	switch o {
	case OpMul, OpAdd, OpSub, OpDiv:
		return true
	default:
		return false
	}
}

// TokenKind distinguishes operand tokens from operator tokens.
type TokenKind int

const (
	// KindNumber is a literal operand token.
	KindNumber TokenKind = iota
	// KindOperator is a binary operator token.
	KindOperator
)

// Token is one element of a postfix (operator-after-operands) encoding of an
// expression. The wire form is "num(<value>)" for operands and
// "op(<mul|add|sub|div>)" for operators.
type Token struct {
	Kind  TokenKind
	Value int // set when Kind == KindNumber
	Op    Op  // set when Kind == KindOperator
}

// Num creates an operand token.
func Num(value int) Token {
	return Token{Kind: KindNumber, Value: value}
}

// Operator creates an operator token.
func Operator(op Op) Token {
	return Token{Kind: KindOperator, Op: op}
}

// String returns the wire form of the token.
func (t Token) String() string {
	if t.Kind == KindNumber {
		return fmt.Sprintf("num(%d)", t.Value)
	}
	return fmt.Sprintf("op(%s)", t.Op)
}

// ParseToken parses the wire form of a single token.
func ParseToken(s string) (Token, error) {
	switch {
	case strings.HasPrefix(s, "num(") && strings.HasSuffix(s, ")"):
		v, err := strconv.Atoi(s[len("num(") : len(s)-1])
		if err != nil {
			return Token{}, shared.WrapError("codec", "ParseToken", shared.ErrInvalidFormat,
				fmt.Sprintf("bad operand token %q", s), err)
		}
		return Num(v), nil
	case strings.HasPrefix(s, "op(") && strings.HasSuffix(s, ")"):
		op := Op(s[len("op(") : len(s)-1])
		if !op.IsValid() {
			return Token{}, shared.NewDomainError("codec", "ParseToken", shared.ErrInvalidFormat,
				fmt.Sprintf("unknown operator token %q", s))
		}
		return Operator(op), nil
	default:
		return Token{}, shared.NewDomainError("codec", "ParseToken", shared.ErrInvalidFormat,
			fmt.Sprintf("malformed token %q", s))
	}
}

// FormatTokens renders a token sequence as its wire strings, in order.
func FormatTokens(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.String()
	}
	return out
}

// ParseTokens parses a sequence of wire-form tokens.
func ParseTokens(raw []string) ([]Token, error) {
	tokens := make([]Token, len(raw))
	for i, s := range raw {
		t, err := ParseToken(s)
		if err != nil {
			return nil, err
		}
		tokens[i] = t
	}
	return tokens, nil
}

// EvalPostfix evaluates a postfix token sequence left to right with a stack.
// Division must be exact and subtraction sub-results must be non-negative;
// both are guaranteed for generated problems and enforced here so that a
// corrupted catalog row is detected instead of producing a wrong answer.
func EvalPostfix(tokens []Token) (int, error) {
	if len(tokens) == 0 {
		return 0, shared.NewDomainError("codec", "EvalPostfix", shared.ErrInvalidInput, "empty token sequence")
	}

	stack := make([]int, 0, len(tokens))
	for _, t := range tokens {
		if t.Kind == KindNumber {
			stack = append(stack, t.Value)
			continue
		}

		if len(stack) < 2 {
			return 0, shared.NewDomainError("codec", "EvalPostfix", shared.ErrInvalidInput,
				fmt.Sprintf("operator %s with fewer than two operands", t.Op))
		}
		b := stack[len(stack)-1]
		a := stack[len(stack)-2]
		stack = stack[:len(stack)-2]

		var v int
		switch t.Op {
		case OpMul:
			v = a * b
		case OpAdd:
			v = a + b
		case OpSub:
			if a < b {
				return 0, shared.NewDomainError("codec", "EvalPostfix", shared.ErrValueOutOfRange,
					fmt.Sprintf("negative sub-result %d - %d", a, b))
			}
			v = a - b
		case OpDiv:
			if b == 0 {
				return 0, shared.NewDomainError("codec", "EvalPostfix", shared.ErrInvalidInput, "division by zero")
			}
			if a%b != 0 {
				return 0, shared.NewDomainError("codec", "EvalPostfix", shared.ErrValueOutOfRange,
					fmt.Sprintf("inexact division %d / %d", a, b))
			}
			v = a / b
		default:
			return 0, shared.NewDomainError("codec", "EvalPostfix", shared.ErrInvalidInput,
				fmt.Sprintf("unknown operator %q", t.Op))
		}
		stack = append(stack, v)
	}

	if len(stack) != 1 {
		return 0, shared.NewDomainError("codec", "EvalPostfix", shared.ErrInvalidInput,
			fmt.Sprintf("unbalanced expression, %d values left on stack", len(stack)))
	}
	return stack[0], nil
}
