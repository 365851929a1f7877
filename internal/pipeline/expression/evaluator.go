// Package expression evaluates the restricted arithmetic grammar users type
// into chat: numbers, parentheses, unary +/-, and binary + - * / **.
//
// Word operators ("plus", "divided by", "percent of", ...) are rewritten to
// symbols first. Anything that survives rewriting and is not a digit,
// operator, parenthesis, dot or whitespace is rejected before parsing.
package expression

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// MaxLength bounds the input accepted by Evaluate.
const MaxLength = 100

// ErrorKind classifies evaluation failures.
type ErrorKind string

const (
	InvalidCharacters    ErrorKind = "InvalidCharacters"
	EmptyExpression      ErrorKind = "EmptyExpression"
	ParseError           ErrorKind = "ParseError"
	DivisionByZero       ErrorKind = "DivisionByZero"
	ExpressionTooComplex ErrorKind = "ExpressionTooComplex"
)

// EvalError is the only error type Evaluate returns.
type EvalError struct {
	Kind   ErrorKind
	Detail string
}

func (e *EvalError) Error() string {
	if e.Detail == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// Message is the user-facing wording for each failure.
func (e *EvalError) Message() string {
	switch e.Kind {
	case InvalidCharacters:
		return "Invalid characters in expression"
	case EmptyExpression:
		return "I couldn't find an expression to calculate"
	case DivisionByZero:
		return "Division by zero is not allowed"
	case ExpressionTooComplex:
		return "That expression is too complex"
	default:
		return "I couldn't understand that expression"
	}
}

func fail(kind ErrorKind, format string, args ...interface{}) *EvalError {
	return &EvalError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

type substitution struct {
	re   *regexp.Regexp
	repl string
}

// Longest phrases first so "divided by" is consumed before "divide" and
// "percent of" before "%".
var substitutions = func() []substitution {
	words := []struct{ phrase, symbol string }{
		{"multiplied by", " * "},
		{"divided by", " / "},
		{"percent of", " / 100 * "},
		{"subtract", " - "},
		{"multiply", " * "},
		{"percent", " / 100 "},
		{"divide", " / "},
		{"minus", " - "},
		{"times", " * "},
		{"plus", " + "},
		{"add", " + "},
	}
	out := make([]substitution, 0, len(words)+2)
	for _, w := range words {
		out = append(out, substitution{
			re:   regexp.MustCompile(`\b` + regexp.QuoteMeta(w.phrase) + `\b`),
			repl: w.symbol,
		})
	}
	out = append(out,
		substitution{re: regexp.MustCompile(`%\s*of\b`), repl: " / 100 * "},
		substitution{re: regexp.MustCompile(`%`), repl: " / 100 "},
	)
	return out
}()

var allowed = regexp.MustCompile(`^[0-9+\-*/().\s]*$`)

// Normalize lower-cases text and rewrites word operators to symbols.
func Normalize(text string) string {
	s := strings.ToLower(text)
	for _, sub := range substitutions {
		s = sub.re.ReplaceAllString(s, sub.repl)
	}
	return s
}

// Evaluate parses and evaluates text. It never panics and never evaluates
// anything outside the arithmetic grammar.
func Evaluate(text string) (float64, error) {
	if len(text) > MaxLength {
		return 0, fail(ExpressionTooComplex, "input longer than %d characters", MaxLength)
	}

	cleaned := Normalize(text)
	if !allowed.MatchString(cleaned) {
		return 0, &EvalError{Kind: InvalidCharacters}
	}
	if strings.TrimSpace(cleaned) == "" {
		return 0, &EvalError{Kind: EmptyExpression}
	}

	tokens, err := tokenize(cleaned)
	if err != nil {
		return 0, err
	}

	p := &parser{tokens: tokens}
	tree, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	if !p.done() {
		return 0, fail(ParseError, "unexpected %q", p.peek().text)
	}

	v, err := tree.eval()
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) {
		return 0, fail(ParseError, "result is not a number")
	}
	if math.IsInf(v, 0) {
		return 0, fail(ExpressionTooComplex, "result overflows")
	}
	return v, nil
}

// Round applies display rounding: two decimal places.
func Round(v float64) float64 {
	r := math.Round(v*100) / 100
	if r == 0 {
		return 0 // drop negative zero
	}
	return r
}

// Format renders a result: integral values without a fraction, everything
// else rounded to two decimals.
func Format(v float64) string {
	return strconv.FormatFloat(Round(v), 'f', -1, 64)
}

// Calculate evaluates and formats in one step.
func Calculate(text string) (string, error) {
	v, err := Evaluate(text)
	if err != nil {
		return "", err
	}
	return Format(v), nil
}
