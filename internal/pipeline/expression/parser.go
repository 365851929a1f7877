package expression

import (
	"math"
	"strconv"
)

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokOp
	tokLParen
	tokRParen
)

type token struct {
	kind  tokenKind
	text  string
	value float64
}

func tokenize(s string) ([]token, error) {
	var out []token
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v':
			i++
		case c >= '0' && c <= '9' || c == '.':
			start := i
			dots := 0
			for i < len(s) && (s[i] >= '0' && s[i] <= '9' || s[i] == '.') {
				if s[i] == '.' {
					dots++
				}
				i++
			}
			lit := s[start:i]
			if dots > 1 || lit == "." {
				return nil, fail(ParseError, "malformed number %q", lit)
			}
			v, err := strconv.ParseFloat(lit, 64)
			if err != nil {
				return nil, fail(ParseError, "malformed number %q", lit)
			}
			out = append(out, token{kind: tokNumber, text: lit, value: v})
		case c == '*' && i+1 < len(s) && s[i+1] == '*':
			out = append(out, token{kind: tokOp, text: "**"})
			i += 2
		case c == '+' || c == '-' || c == '*' || c == '/':
			out = append(out, token{kind: tokOp, text: string(c)})
			i++
		case c == '(':
			out = append(out, token{kind: tokLParen, text: "("})
			i++
		case c == ')':
			out = append(out, token{kind: tokRParen, text: ")"})
			i++
		default:
			return nil, &EvalError{Kind: InvalidCharacters}
		}
	}
	return out, nil
}

// node is an arithmetic AST node. Only three shapes exist.
type node interface {
	eval() (float64, error)
}

type numberNode struct{ v float64 }

type unaryNode struct {
	op      string
	operand node
}

type binaryNode struct {
	op          string
	left, right node
}

func (n numberNode) eval() (float64, error) { return n.v, nil }

func (n unaryNode) eval() (float64, error) {
	v, err := n.operand.eval()
	if err != nil {
		return 0, err
	}
	if n.op == "-" {
		return -v, nil
	}
	return v, nil
}

func (n binaryNode) eval() (float64, error) {
	l, err := n.left.eval()
	if err != nil {
		return 0, err
	}
	r, err := n.right.eval()
	if err != nil {
		return 0, err
	}
	switch n.op {
	case "+":
		return l + r, nil
	case "-":
		return l - r, nil
	case "*":
		return l * r, nil
	case "/":
		if r == 0 {
			return 0, &EvalError{Kind: DivisionByZero}
		}
		return l / r, nil
	case "**":
		if l == 0 && r < 0 {
			return 0, &EvalError{Kind: DivisionByZero}
		}
		return math.Pow(l, r), nil
	}
	return 0, fail(ParseError, "unknown operator %q", n.op)
}

// parser implements:
//
//	expr   := term (('+' | '-') term)*
//	term   := unary (('*' | '/') unary)*
//	unary  := ('+' | '-') unary | power
//	power  := atom ('**' unary)?
//	atom   := number | '(' expr ')'
type parser struct {
	tokens []token
	pos    int
	depth  int
}

const maxDepth = 50

func (p *parser) done() bool { return p.pos >= len(p.tokens) }

func (p *parser) peek() token {
	if p.done() {
		return token{}
	}
	return p.tokens[p.pos]
}

func (p *parser) isOp(ops ...string) bool {
	if p.done() || p.peek().kind != tokOp {
		return false
	}
	for _, op := range ops {
		if p.peek().text == op {
			return true
		}
	}
	return false
}

func (p *parser) parseExpr() (node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.isOp("+", "-") {
		op := p.tokens[p.pos].text
		p.pos++
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: op, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseTerm() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.isOp("*", "/") {
		op := p.tokens[p.pos].text
		p.pos++
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: op, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (node, error) {
	if p.isOp("+", "-") {
		op := p.tokens[p.pos].text
		p.pos++
		if err := p.enter(); err != nil {
			return nil, err
		}
		defer p.leave()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return unaryNode{op: op, operand: operand}, nil
	}
	return p.parsePower()
}

func (p *parser) parsePower() (node, error) {
	base, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	if p.isOp("**") {
		p.pos++
		if err := p.enter(); err != nil {
			return nil, err
		}
		defer p.leave()
		exp, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return binaryNode{op: "**", left: base, right: exp}, nil
	}
	return base, nil
}

func (p *parser) parseAtom() (node, error) {
	if p.done() {
		return nil, fail(ParseError, "unexpected end of expression")
	}
	tok := p.tokens[p.pos]
	switch tok.kind {
	case tokNumber:
		p.pos++
		return numberNode{v: tok.value}, nil
	case tokLParen:
		p.pos++
		if err := p.enter(); err != nil {
			return nil, err
		}
		defer p.leave()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.done() || p.peek().kind != tokRParen {
			return nil, fail(ParseError, "missing closing parenthesis")
		}
		p.pos++
		return inner, nil
	}
	return nil, fail(ParseError, "unexpected %q", tok.text)
}

func (p *parser) enter() error {
	p.depth++
	if p.depth > maxDepth {
		return fail(ExpressionTooComplex, "nesting deeper than %d", maxDepth)
	}
	return nil
}

func (p *parser) leave() { p.depth-- }
