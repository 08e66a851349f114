// Package problem contains the domain model for daily arithmetic problems:
// the expression codec, the constrained random generator, and the catalog
// repository contract.
package problem

import (
	"fmt"

	"github.com/mathclub/daily-practice-bot/internal/domain/shared"
)

// Shape identifies one of the fixed expression templates. The codec supports
// exactly these shapes; there is no general expression grammar.
type Shape int

const (
	// ShapeProduct is "X * Y".
	ShapeProduct Shape = iota
	// ShapeProductPlusTerm is "X * Y + Z".
	ShapeProductPlusTerm
	// ShapeProductMinusTerm is "X * Y - Z".
	ShapeProductMinusTerm
	// ShapeTermMinusProduct is "Z - X * Y".
	ShapeTermMinusProduct
	// ShapeProductPlusProduct is "X * Y + Z * W".
	ShapeProductPlusProduct
	// ShapeProductMinusProduct is "X * Y - Z * W".
	ShapeProductMinusProduct
	// ShapeQuotient is "X / Y".
	ShapeQuotient
	// ShapeProductPlusQuotient is "X * Y + Z / W".
	ShapeProductPlusQuotient
)

// String returns the template with operand placeholders.
func (s Shape) String() string {
	switch s {
	case ShapeProduct:
		return "X * Y"
	case ShapeProductPlusTerm:
		return "X * Y + Z"
	case ShapeProductMinusTerm:
		return "X * Y - Z"
	case ShapeTermMinusProduct:
		return "Z - X * Y"
	case ShapeProductPlusProduct:
		return "X * Y + Z * W"
	case ShapeProductMinusProduct:
		return "X * Y - Z * W"
	case ShapeQuotient:
		return "X / Y"
	case ShapeProductPlusQuotient:
		return "X * Y + Z / W"
	default:
		return "unknown"
	}
}

// OperandCount returns the number of operands the shape requires.
func (s Shape) OperandCount() int {
	switch s {
	case ShapeProduct, ShapeQuotient:
		return 2
	case ShapeProductPlusTerm, ShapeProductMinusTerm, ShapeTermMinusProduct:
		return 3
	case ShapeProductPlusProduct, ShapeProductMinusProduct, ShapeProductPlusQuotient:
		return 4
	default:
		return 0
	}
}

// Encode maps a shape and its operands (in left-to-right display order) to the
// infix display string and the postfix token sequence. The codec performs no
// constraint checking; validity of the operands is the generator's concern.
func Encode(shape Shape, operands ...int) (string, []Token, error) {
	if got, want := len(operands), shape.OperandCount(); got != want {
		return "", nil, shared.NewDomainError("codec", "Encode", shared.ErrInvalidInput,
			fmt.Sprintf("shape %q needs %d operands, got %d", shape, want, got))
	}

	switch shape {
	case ShapeProduct:
		x, y := operands[0], operands[1]
		display := fmt.Sprintf("%d * %d", x, y)
		tokens := []Token{Num(x), Num(y), Operator(OpMul)}
		return display, tokens, nil

	case ShapeProductPlusTerm:
		x, y, z := operands[0], operands[1], operands[2]
		display := fmt.Sprintf("%d * %d + %d", x, y, z)
		tokens := []Token{Num(x), Num(y), Operator(OpMul), Num(z), Operator(OpAdd)}
		return display, tokens, nil

	case ShapeProductMinusTerm:
		x, y, z := operands[0], operands[1], operands[2]
		display := fmt.Sprintf("%d * %d - %d", x, y, z)
		tokens := []Token{Num(x), Num(y), Operator(OpMul), Num(z), Operator(OpSub)}
		return display, tokens, nil

	case ShapeTermMinusProduct:
		z, x, y := operands[0], operands[1], operands[2]
		display := fmt.Sprintf("%d - %d * %d", z, x, y)
		tokens := []Token{Num(z), Num(x), Num(y), Operator(OpMul), Operator(OpSub)}
		return display, tokens, nil

	case ShapeProductPlusProduct:
		x, y, z, w := operands[0], operands[1], operands[2], operands[3]
		display := fmt.Sprintf("%d * %d + %d * %d", x, y, z, w)
		tokens := []Token{
			Num(x), Num(y), Operator(OpMul),
			Num(z), Num(w), Operator(OpMul),
			Operator(OpAdd),
		}
		return display, tokens, nil

	case ShapeProductMinusProduct:
		x, y, z, w := operands[0], operands[1], operands[2], operands[3]
		display := fmt.Sprintf("%d * %d - %d * %d", x, y, z, w)
		tokens := []Token{
			Num(x), Num(y), Operator(OpMul),
			Num(z), Num(w), Operator(OpMul),
			Operator(OpSub),
		}
		return display, tokens, nil

	case ShapeQuotient:
		x, y := operands[0], operands[1]
		display := fmt.Sprintf("%d / %d", x, y)
		tokens := []Token{Num(x), Num(y), Operator(OpDiv)}
		return display, tokens, nil

	case ShapeProductPlusQuotient:
		x, y, z, w := operands[0], operands[1], operands[2], operands[3]
		display := fmt.Sprintf("%d * %d + %d / %d", x, y, z, w)
		tokens := []Token{
			Num(x), Num(y), Operator(OpMul),
			Num(z), Num(w), Operator(OpDiv),
			Operator(OpAdd),
		}
		return display, tokens, nil

	default:
		return "", nil, shared.NewDomainError("codec", "Encode", shared.ErrInvalidInput,
			fmt.Sprintf("unknown shape %d", shape))
	}
}
