package expression

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculate_Success(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"integer addition", "2+2", "4"},
		{"division keeps fraction", "10/4", "2.5"},
		{"precedence", "2 + 3 * 4", "14"},
		{"parentheses", "(2 + 3) * 4", "20"},
		{"unary minus", "-5 + 2", "-3"},
		{"double unary", "--3", "3"},
		{"power is right associative", "2 ** 3 ** 2", "512"},
		{"unary binds looser than power", "-2 ** 2", "-4"},
		{"rounds to two places", "10/3", "3.33"},
		{"integral float collapses", "2.5 * 4", "10"},
		{"decimal literal", ".5 + .25", "0.75"},
		{"word operators", "12 plus 30", "42"},
		{"divided by before divide", "100 divided by 8", "12.5"},
		{"multiplied by", "6 multiplied by 7", "42"},
		{"minus and times", "10 minus 2 times 3", "4"},
		{"percent of", "15% of 200", "30"},
		{"percent of in words", "20 percent of 50", "10"},
		{"bare percent", "50%", "0.5"},
		{"upper case words", "3 PLUS 4", "7"},
		{"tiny negative rounds to zero", "0 - 0.001", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Calculate(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluate_Failures(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want ErrorKind
	}{
		{"division by zero", "5/0", DivisionByZero},
		{"division by parenthesised zero", "1 / (2 - 2)", DivisionByZero},
		{"zero to negative power", "0 ** -1", DivisionByZero},
		{"code injection", "__import__('os')", InvalidCharacters},
		{"letters", "2 + x", InvalidCharacters},
		{"question mark", "2+2?", InvalidCharacters},
		{"empty", "", EmptyExpression},
		{"only spaces", "   ", EmptyExpression},
		{"dangling operator", "2 +", ParseError},
		{"unbalanced parenthesis", "(2 + 3", ParseError},
		{"stray close parenthesis", "2 + 3)", ParseError},
		{"empty parentheses", "()", ParseError},
		{"two numbers", "2 3", ParseError},
		{"malformed number", "1.2.3", ParseError},
		{"lone dot", ".", ParseError},
		{"too long", strings.Repeat("1+", 50) + "1", ExpressionTooComplex},
		{"overflow", "10 ** 400", ExpressionTooComplex},
		{"deep nesting hits the length guard", strings.Repeat("(", 60) + "1" + strings.Repeat(")", 60), ExpressionTooComplex},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Evaluate(tt.in)
			require.Error(t, err)
			var evalErr *EvalError
			require.True(t, errors.As(err, &evalErr))
			assert.Equal(t, tt.want, evalErr.Kind)
			assert.NotEmpty(t, evalErr.Message())
		})
	}
}

func TestEvaluate_LengthGuardRunsFirst(t *testing.T) {
	// would be InvalidCharacters if it got past the guard
	in := strings.Repeat("a", MaxLength+1)
	_, err := Evaluate(in)
	var evalErr *EvalError
	require.True(t, errors.As(err, &evalErr))
	assert.Equal(t, ExpressionTooComplex, evalErr.Kind)

	_, err = Evaluate(strings.Repeat("1", MaxLength))
	assert.NoError(t, err)
}

func TestEvaluate_Idempotent(t *testing.T) {
	for _, in := range []string{"7 * 6", "5/0", "hello"} {
		v1, err1 := Evaluate(in)
		v2, err2 := Evaluate(in)
		assert.Equal(t, v1, v2)
		assert.Equal(t, err1, err2)
	}
}

func TestNormalize_WordBoundaries(t *testing.T) {
	assert.Equal(t, "2  +  3", Normalize("2 plus 3"))
	// "address" must not be rewritten through "add"
	assert.Contains(t, Normalize("address"), "address")
	assert.NotContains(t, Normalize("8 divided by 2"), "divide")
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "4", Format(4.0))
	assert.Equal(t, "2.5", Format(2.5))
	assert.Equal(t, "0.67", Format(2.0/3.0))
	assert.Equal(t, "-1.5", Format(-1.5))
}

func BenchmarkEvaluate(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = Evaluate("(12 plus 30) * 2 / 7 - 3 ** 2")
	}
}
