// Package tools - calculator.go evaluates arithmetic expressions over a
// deliberately restricted grammar. The grammar check is a safety boundary:
// anything outside numerals, + - * / ( ) and whitespace is rejected before
// evaluation, never interpreted.
package tools

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrInvalidExpression is returned for any input outside the
	// calculator's grammar.
	ErrInvalidExpression = errors.New("invalid expression")

	// ErrDivisionByZero is returned when an expression divides by zero.
	ErrDivisionByZero = errors.New("division by zero")
)

// CalculatorSpec returns the calculator tool: one required string
// parameter "expression".
func CalculatorSpec() Spec {
	return Spec{
		Name: "calculator",
		Description: "Evaluates a basic arithmetic expression using +, -, *, / and parentheses. " +
			"Use this for any mathematical calculation.",
		Params: []Param{
			{
				Name:        "expression",
				Type:        "string",
				Description: "The arithmetic expression to evaluate, for example '(150 / 3) + 25 * 2'.",
				Required:    true,
			},
		},
		Handler: func(ctx context.Context, args map[string]any) (*Result, error) {
			expression := args["expression"].(string)
			value, err := Evaluate(expression)
			if err != nil {
				return nil, fmt.Errorf("evaluating %q: %w", expression, err)
			}
			return &Result{
				Content: fmt.Sprintf("%s = %s", strings.TrimSpace(expression), formatNumber(value)),
			}, nil
		},
	}
}

// Evaluate parses and evaluates an arithmetic expression with standard
// operator precedence.
func Evaluate(expression string) (float64, error) {
	tokens, err := tokenize(expression)
	if err != nil {
		return 0, err
	}
	p := &exprParser{tokens: tokens}
	value, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	if p.pos != len(p.tokens) {
		return 0, fmt.Errorf("%w: unexpected token %q", ErrInvalidExpression, p.tokens[p.pos])
	}
	return value, nil
}

// tokenize splits the expression into number and operator tokens,
// rejecting any character outside the allowed grammar.
func tokenize(expression string) ([]string, error) {
	var tokens []string
	i := 0
	for i < len(expression) {
		ch := expression[i]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\n':
			i++
		case ch == '+' || ch == '-' || ch == '*' || ch == '/' || ch == '(' || ch == ')':
			tokens = append(tokens, string(ch))
			i++
		case ch >= '0' && ch <= '9' || ch == '.':
			start := i
			for i < len(expression) && (expression[i] >= '0' && expression[i] <= '9' || expression[i] == '.') {
				i++
			}
			tokens = append(tokens, expression[start:i])
		default:
			return nil, fmt.Errorf("%w: disallowed character %q", ErrInvalidExpression, string(ch))
		}
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: empty expression", ErrInvalidExpression)
	}
	return tokens, nil
}

// exprParser is a recursive-descent parser:
//
//	expr   = term  (('+' | '-') term)*
//	term   = factor (('*' | '/') factor)*
//	factor = number | '(' expr ')' | ('+' | '-') factor
type exprParser struct {
	tokens []string
	pos    int
}

func (p *exprParser) peek() string {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return ""
}

func (p *exprParser) parseExpr() (float64, error) {
	value, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek() {
		case "+":
			p.pos++
			rhs, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			value += rhs
		case "-":
			p.pos++
			rhs, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			value -= rhs
		default:
			return value, nil
		}
	}
}

func (p *exprParser) parseTerm() (float64, error) {
	value, err := p.parseFactor()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek() {
		case "*":
			p.pos++
			rhs, err := p.parseFactor()
			if err != nil {
				return 0, err
			}
			value *= rhs
		case "/":
			p.pos++
			rhs, err := p.parseFactor()
			if err != nil {
				return 0, err
			}
			if rhs == 0 {
				return 0, ErrDivisionByZero
			}
			value /= rhs
		default:
			return value, nil
		}
	}
}

func (p *exprParser) parseFactor() (float64, error) {
	token := p.peek()
	switch token {
	case "":
		return 0, fmt.Errorf("%w: unexpected end of expression", ErrInvalidExpression)
	case "+":
		p.pos++
		return p.parseFactor()
	case "-":
		p.pos++
		value, err := p.parseFactor()
		return -value, err
	case "(":
		p.pos++
		value, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		if p.peek() != ")" {
			return 0, fmt.Errorf("%w: missing closing parenthesis", ErrInvalidExpression)
		}
		p.pos++
		return value, nil
	}

	value, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad number %q", ErrInvalidExpression, token)
	}
	p.pos++
	return value, nil
}

// formatNumber renders a result without trailing zeros but keeps at
// least one decimal digit for whole values ("100.0", not "100").
func formatNumber(value float64) string {
	s := strconv.FormatFloat(value, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
