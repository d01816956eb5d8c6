package prolog

import (
	"fmt"
	"math"
)

// Arithmetic evaluation for is/2 and the numeric comparison operators.
//
// Number preservation rules:
//   - Integer operations stay integer when every operand is an integer
//     and the operation preserves integers.
//   - / on two integers yields an integer when the division is exact and
//     a float otherwise.
//   - // floor-divides to an integer; mod takes the divisor's sign.
//   - ** always yields a float.
//   - Any float operand makes the result float.

// Eval reduces expr to a number term (*Int or *Float) against the given
// bindings. Unbound variables raise ErrInstantiation; non-arithmetic
// terms raise ErrType; zero divisors raise ErrEvaluation.
func Eval(b *Bindings, expr Term) (Term, error) {
	t := b.Walk(expr)
	switch e := t.(type) {
	case *Int, *Float:
		return e, nil
	case *Var:
		return nil, ErrInstantiation.New("arithmetic expression is unbound")
	case *Atom:
		return nil, ErrType.New("evaluable", e.Name())
	case *Str:
		return nil, ErrType.New("evaluable", e.String())
	case *Compound:
		return evalCompound(b, e)
	default:
		return nil, ErrType.New("evaluable", t.String())
	}
}

func evalCompound(b *Bindings, c *Compound) (Term, error) {
	switch len(c.args) {
	case 1:
		x, err := Eval(b, c.args[0])
		if err != nil {
			return nil, err
		}
		return evalUnary(c.functor, x)
	case 2:
		x, err := Eval(b, c.args[0])
		if err != nil {
			return nil, err
		}
		y, err := Eval(b, c.args[1])
		if err != nil {
			return nil, err
		}
		return evalBinary(c.functor, x, y)
	default:
		return nil, ErrType.New("evaluable", fmt.Sprintf("%s/%d", c.functor, len(c.args)))
	}
}

func evalUnary(op string, x Term) (Term, error) {
	switch op {
	case "-":
		if i, ok := x.(*Int); ok {
			return NewInt(-i.value), nil
		}
		return NewFloat(-x.(*Float).value), nil
	case "+":
		return x, nil
	case "abs":
		if i, ok := x.(*Int); ok {
			if i.value < 0 {
				return NewInt(-i.value), nil
			}
			return i, nil
		}
		return NewFloat(math.Abs(x.(*Float).value)), nil
	default:
		return nil, ErrType.New("evaluable", op+"/1")
	}
}

func evalBinary(op string, x, y Term) (Term, error) {
	xi, xIsInt := x.(*Int)
	yi, yIsInt := y.(*Int)
	bothInt := xIsInt && yIsInt

	switch op {
	case "+":
		if bothInt {
			return NewInt(xi.value + yi.value), nil
		}
		return NewFloat(toF(x) + toF(y)), nil
	case "-":
		if bothInt {
			return NewInt(xi.value - yi.value), nil
		}
		return NewFloat(toF(x) - toF(y)), nil
	case "*":
		if bothInt {
			return NewInt(xi.value * yi.value), nil
		}
		return NewFloat(toF(x) * toF(y)), nil
	case "/":
		if bothInt {
			if yi.value == 0 {
				return nil, ErrEvaluation.New("division by zero")
			}
			if xi.value%yi.value == 0 {
				return NewInt(xi.value / yi.value), nil
			}
			return NewFloat(float64(xi.value) / float64(yi.value)), nil
		}
		if toF(y) == 0 {
			return nil, ErrEvaluation.New("division by zero")
		}
		return NewFloat(toF(x) / toF(y)), nil
	case "//":
		if !bothInt {
			return nil, ErrType.New("integer", nonInt(x, y).String())
		}
		if yi.value == 0 {
			return nil, ErrEvaluation.New("division by zero")
		}
		return NewInt(floorDiv(xi.value, yi.value)), nil
	case "mod":
		if !bothInt {
			return nil, ErrType.New("integer", nonInt(x, y).String())
		}
		if yi.value == 0 {
			return nil, ErrEvaluation.New("division by zero")
		}
		// Result carries the divisor's sign.
		m := xi.value % yi.value
		if m != 0 && (m < 0) != (yi.value < 0) {
			m += yi.value
		}
		return NewInt(m), nil
	case "**":
		return NewFloat(math.Pow(toF(x), toF(y))), nil
	case "min":
		if bothInt {
			if xi.value <= yi.value {
				return xi, nil
			}
			return yi, nil
		}
		if toF(x) <= toF(y) {
			return x, nil
		}
		return y, nil
	case "max":
		if bothInt {
			if xi.value >= yi.value {
				return xi, nil
			}
			return yi, nil
		}
		if toF(x) >= toF(y) {
			return x, nil
		}
		return y, nil
	default:
		return nil, ErrType.New("evaluable", op+"/2")
	}
}

// floorDiv is integer division rounding toward negative infinity.
func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func toF(t Term) float64 {
	switch n := t.(type) {
	case *Int:
		return float64(n.value)
	case *Float:
		return n.value
	}
	return math.NaN()
}

func nonInt(x, y Term) Term {
	if _, ok := x.(*Int); !ok {
		return x
	}
	return y
}

// CompareNumeric evaluates both sides and compares them, returning -1,
// 0 or 1. Mixed int/float comparisons go through float.
func CompareNumeric(b *Bindings, lhs, rhs Term) (int, error) {
	x, err := Eval(b, lhs)
	if err != nil {
		return 0, err
	}
	y, err := Eval(b, rhs)
	if err != nil {
		return 0, err
	}
	if xi, ok := x.(*Int); ok {
		if yi, ok2 := y.(*Int); ok2 {
			switch {
			case xi.value < yi.value:
				return -1, nil
			case xi.value > yi.value:
				return 1, nil
			default:
				return 0, nil
			}
		}
	}
	fx, fy := toF(x), toF(y)
	switch {
	case fx < fy:
		return -1, nil
	case fx > fy:
		return 1, nil
	default:
		return 0, nil
	}
}
