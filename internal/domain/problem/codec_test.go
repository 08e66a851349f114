package problem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_DisplayAndTokens(t *testing.T) {
	cases := []struct {
		name        string
		shape       Shape
		operands    []int
		wantDisplay string
		wantTokens  []string
		wantAnswer  int
	}{
		{
			name:        "product",
			shape:       ShapeProduct,
			operands:    []int{7, 8},
			wantDisplay: "7 * 8",
			wantTokens:  []string{"num(7)", "num(8)", "op(mul)"},
			wantAnswer:  56,
		},
		{
			name:        "product plus term",
			shape:       ShapeProductPlusTerm,
			operands:    []int{3, 4, 10},
			wantDisplay: "3 * 4 + 10",
			wantTokens:  []string{"num(3)", "num(4)", "op(mul)", "num(10)", "op(add)"},
			wantAnswer:  22,
		},
		{
			name:        "product minus term",
			shape:       ShapeProductMinusTerm,
			operands:    []int{5, 6, 10},
			wantDisplay: "5 * 6 - 10",
			wantTokens:  []string{"num(5)", "num(6)", "op(mul)", "num(10)", "op(sub)"},
			wantAnswer:  20,
		},
		{
			name:        "term minus product",
			shape:       ShapeTermMinusProduct,
			operands:    []int{50, 3, 4},
			wantDisplay: "50 - 3 * 4",
			wantTokens:  []string{"num(50)", "num(3)", "num(4)", "op(mul)", "op(sub)"},
			wantAnswer:  38,
		},
		{
			name:        "product plus product",
			shape:       ShapeProductPlusProduct,
			operands:    []int{2, 3, 4, 5},
			wantDisplay: "2 * 3 + 4 * 5",
			wantTokens: []string{
				"num(2)", "num(3)", "op(mul)",
				"num(4)", "num(5)", "op(mul)",
				"op(add)",
			},
			wantAnswer: 26,
		},
		{
			name:        "product minus product",
			shape:       ShapeProductMinusProduct,
			operands:    []int{9, 9, 2, 2},
			wantDisplay: "9 * 9 - 2 * 2",
			wantTokens: []string{
				"num(9)", "num(9)", "op(mul)",
				"num(2)", "num(2)", "op(mul)",
				"op(sub)",
			},
			wantAnswer: 77,
		},
		{
			name:        "quotient",
			shape:       ShapeQuotient,
			operands:    []int{72, 9},
			wantDisplay: "72 / 9",
			wantTokens:  []string{"num(72)", "num(9)", "op(div)"},
			wantAnswer:  8,
		},
		{
			name:        "product plus quotient",
			shape:       ShapeProductPlusQuotient,
			operands:    []int{3, 4, 20, 5},
			wantDisplay: "3 * 4 + 20 / 5",
			wantTokens: []string{
				"num(3)", "num(4)", "op(mul)",
				"num(20)", "num(5)", "op(div)",
				"op(add)",
			},
			wantAnswer: 16,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			display, tokens, err := Encode(tc.shape, tc.operands...)
			require.NoError(t, err)

			assert.Equal(t, tc.wantDisplay, display)
			assert.Equal(t, tc.wantTokens, FormatTokens(tokens))

			// Both forms must describe the same expression.
			answer, err := EvalPostfix(tokens)
			require.NoError(t, err)
			assert.Equal(t, tc.wantAnswer, answer)
		})
	}
}

func TestEncode_OperandCountMismatch(t *testing.T) {
	_, _, err := Encode(ShapeProduct, 3)
	assert.Error(t, err)

	_, _, err = Encode(ShapeProductPlusTerm, 1, 2, 3, 4)
	assert.Error(t, err)

	_, _, err = Encode(ShapeProductPlusQuotient, 1, 2)
	assert.Error(t, err)
}

func TestShape_OperandCount(t *testing.T) {
	assert.Equal(t, 2, ShapeProduct.OperandCount())
	assert.Equal(t, 2, ShapeQuotient.OperandCount())
	assert.Equal(t, 3, ShapeProductPlusTerm.OperandCount())
	assert.Equal(t, 3, ShapeTermMinusProduct.OperandCount())
	assert.Equal(t, 4, ShapeProductPlusProduct.OperandCount())
	assert.Equal(t, 4, ShapeProductPlusQuotient.OperandCount())
}
