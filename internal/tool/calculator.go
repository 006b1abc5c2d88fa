package tool

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Calculator performs arithmetic operations and evaluates infix
// expressions over + - * / and parentheses.
type Calculator struct{}

func (Calculator) Description() string {
	return `calculator: math operations - {"operation":"add|subtract|multiply|divide|power|sqrt", ...} or {"operation":"evaluate","expression":"(2+3)*4"}`
}

func (c Calculator) Execute(_ context.Context, input map[string]any) (string, error) {
	op, err := stringArg(input, "operation")
	if err != nil {
		return "", err
	}

	var result float64
	switch op {
	case "add", "subtract", "multiply", "divide":
		a, err := floatArg(input, "a")
		if err != nil {
			return "", err
		}
		b, err := floatArg(input, "b")
		if err != nil {
			return "", err
		}
		switch op {
		case "add":
			result = a + b
		case "subtract":
			result = a - b
		case "multiply":
			result = a * b
		case "divide":
			if b == 0 {
				return "", eris.New("division by zero")
			}
			result = a / b
		}
	case "power":
		base, err := floatArg(input, "base")
		if err != nil {
			return "", err
		}
		exp, err := floatArg(input, "exponent")
		if err != nil {
			return "", err
		}
		result = math.Pow(base, exp)
	case "sqrt":
		n, err := floatArg(input, "number")
		if err != nil {
			return "", err
		}
		if n < 0 {
			return "", eris.New("square root of negative number")
		}
		result = math.Sqrt(n)
	case "evaluate":
		expr, err := stringArg(input, "expression")
		if err != nil {
			return "", err
		}
		result, err = evalExpression(expr)
		if err != nil {
			return "", err
		}
	default:
		return "", eris.Errorf("unknown calculator operation %q", op)
	}

	return formatNumber(result), nil
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// evalExpression evaluates an infix arithmetic expression with a small
// recursive-descent parser. Only digits, . + - * / ( ) and spaces are
// accepted.
func evalExpression(expr string) (float64, error) {
	for _, r := range expr {
		if !strings.ContainsRune("0123456789.+-*/() ", r) {
			return 0, eris.Errorf("expression contains invalid character %q", r)
		}
	}

	p := &exprParser{src: strings.ReplaceAll(expr, " ", "")}
	val, err := p.parseSum()
	if err != nil {
		return 0, err
	}
	if p.pos != len(p.src) {
		return 0, eris.Errorf("unexpected trailing input at position %d", p.pos)
	}
	return val, nil
}

type exprParser struct {
	src string
	pos int
}

func (p *exprParser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *exprParser) parseSum() (float64, error) {
	left, err := p.parseProduct()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek() {
		case '+':
			p.pos++
			right, err := p.parseProduct()
			if err != nil {
				return 0, err
			}
			left += right
		case '-':
			p.pos++
			right, err := p.parseProduct()
			if err != nil {
				return 0, err
			}
			left -= right
		default:
			return left, nil
		}
	}
}

func (p *exprParser) parseProduct() (float64, error) {
	left, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek() {
		case '*':
			p.pos++
			right, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			left *= right
		case '/':
			p.pos++
			right, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			if right == 0 {
				return 0, eris.New("division by zero")
			}
			left /= right
		default:
			return left, nil
		}
	}
}

func (p *exprParser) parseUnary() (float64, error) {
	if p.peek() == '-' {
		p.pos++
		v, err := p.parseUnary()
		return -v, err
	}
	return p.parseAtom()
}

func (p *exprParser) parseAtom() (float64, error) {
	if p.peek() == '(' {
		p.pos++
		v, err := p.parseSum()
		if err != nil {
			return 0, err
		}
		if p.peek() != ')' {
			return 0, eris.Errorf("missing closing parenthesis at position %d", p.pos)
		}
		p.pos++
		return v, nil
	}

	start := p.pos
	for p.pos < len(p.src) && (p.src[p.pos] == '.' || (p.src[p.pos] >= '0' && p.src[p.pos] <= '9')) {
		p.pos++
	}
	if start == p.pos {
		return 0, eris.Errorf("expected number at position %d", start)
	}
	v, err := strconv.ParseFloat(p.src[start:p.pos], 64)
	if err != nil {
		return 0, eris.Wrapf(err, "bad number %q", p.src[start:p.pos])
	}
	return v, nil
}
