package value

import "math"

// numeric reports whether v is Int or Float, and its Float view (Int
// values are promoted) for the mixed-type paths.
func numeric(v Value) (isInt bool, asFloat float64, ok bool) {
	switch v.Kind() {
	case KindInt:
		return true, float64(v.AsInt()), true
	case KindFloat:
		return false, v.AsFloat(), true
	default:
		return false, 0, false
	}
}

// Add implements `+` per spec.md §4.3: Int+Int stays Int with overflow
// checked, any Int/Float mix promotes to Float.
func Add(a, b Value) (Value, error) {
	if a.Kind() == KindInt && b.Kind() == KindInt {
		x, y := a.AsInt(), b.AsInt()
		sum := x + y
		if (y > 0 && sum < x) || (y < 0 && sum > x) {
			return Value{}, &ArithmeticError{Op: "+", Message: "int64 overflow"}
		}
		return Int(sum), nil
	}
	_, lf, lok := numeric(a)
	_, rf, rok := numeric(b)
	if !lok || !rok {
		return Value{}, &TypeError{Message: "+ requires numeric operands, got " + a.TypeName() + " and " + b.TypeName()}
	}
	return Float(lf + rf), nil
}

// Sub implements `-`.
func Sub(a, b Value) (Value, error) {
	if a.Kind() == KindInt && b.Kind() == KindInt {
		x, y := a.AsInt(), b.AsInt()
		diff := x - y
		if (y < 0 && diff < x) || (y > 0 && diff > x) {
			return Value{}, &ArithmeticError{Op: "-", Message: "int64 overflow"}
		}
		return Int(diff), nil
	}
	_, lf, lok := numeric(a)
	_, rf, rok := numeric(b)
	if !lok || !rok {
		return Value{}, &TypeError{Message: "- requires numeric operands, got " + a.TypeName() + " and " + b.TypeName()}
	}
	return Float(lf - rf), nil
}

// Mul implements `*`.
func Mul(a, b Value) (Value, error) {
	if a.Kind() == KindInt && b.Kind() == KindInt {
		x, y := a.AsInt(), b.AsInt()
		if x == 0 || y == 0 {
			return Int(0), nil
		}
		prod := x * y
		if prod/y != x {
			return Value{}, &ArithmeticError{Op: "*", Message: "int64 overflow"}
		}
		return Int(prod), nil
	}
	_, lf, lok := numeric(a)
	_, rf, rok := numeric(b)
	if !lok || !rok {
		return Value{}, &TypeError{Message: "* requires numeric operands, got " + a.TypeName() + " and " + b.TypeName()}
	}
	return Float(lf * rf), nil
}

// Div implements `/`. Two Ints divide truncating toward zero with a
// zero divisor raising DivisionByZero; any Float operand divides as
// IEEE-754 float division (x/0.0 yields ±Inf or NaN, never an error).
func Div(a, b Value) (Value, error) {
	if a.Kind() == KindInt && b.Kind() == KindInt {
		x, y := a.AsInt(), b.AsInt()
		if y == 0 {
			return Value{}, &DivisionByZero{Op: "/"}
		}
		if x == math.MinInt64 && y == -1 {
			return Value{}, &ArithmeticError{Op: "/", Message: "int64 overflow"}
		}
		return Int(x / y), nil
	}
	_, lf, lok := numeric(a)
	_, rf, rok := numeric(b)
	if !lok || !rok {
		return Value{}, &TypeError{Message: "/ requires numeric operands, got " + a.TypeName() + " and " + b.TypeName()}
	}
	return Float(lf / rf), nil
}

// Mod implements `%`. Sign matches the dividend (spec.md §4.3), same as
// Go's native `%` for ints. Mixed Int/Float promotes and uses math.Mod.
func Mod(a, b Value) (Value, error) {
	if a.Kind() == KindInt && b.Kind() == KindInt {
		x, y := a.AsInt(), b.AsInt()
		if y == 0 {
			return Value{}, &DivisionByZero{Op: "%"}
		}
		if x == math.MinInt64 && y == -1 {
			return Int(0), nil
		}
		return Int(x % y), nil
	}
	_, lf, lok := numeric(a)
	_, rf, rok := numeric(b)
	if !lok || !rok {
		return Value{}, &TypeError{Message: "%% requires numeric operands, got " + a.TypeName() + " and " + b.TypeName()}
	}
	return Float(math.Mod(lf, rf)), nil
}

// Neg implements unary `-`.
func Neg(v Value) (Value, error) {
	switch v.Kind() {
	case KindInt:
		x := v.AsInt()
		if x == math.MinInt64 {
			return Value{}, &ArithmeticError{Op: "unary -", Message: "int64 overflow"}
		}
		return Int(-x), nil
	case KindFloat:
		return Float(-v.AsFloat()), nil
	default:
		return Value{}, &TypeError{Message: "unary - requires a numeric operand, got " + v.TypeName()}
	}
}

// Compare implements the ordering used by `< <= > >=` per spec.md §4.3:
// numeric cross-type promotes to Float, strings compare lexicographically
// by Unicode scalar, bools compare false<true. Returns -1, 0, or 1; NaN
// operands make every ordering false, signaled via ok=false.
func Compare(a, b Value) (cmp int, ok bool, err error) {
	_, lf, lok := numeric(a)
	_, rf, rok := numeric(b)
	if lok && rok {
		if math.IsNaN(lf) || math.IsNaN(rf) {
			return 0, false, nil
		}
		switch {
		case lf < rf:
			return -1, true, nil
		case lf > rf:
			return 1, true, nil
		default:
			return 0, true, nil
		}
	}
	if a.Kind() == KindString && b.Kind() == KindString {
		as, bs := a.AsString(), b.AsString()
		switch {
		case as < bs:
			return -1, true, nil
		case as > bs:
			return 1, true, nil
		default:
			return 0, true, nil
		}
	}
	if a.Kind() == KindBool && b.Kind() == KindBool {
		ab, bb := a.AsBool(), b.AsBool()
		switch {
		case ab == bb:
			return 0, true, nil
		case !ab && bb:
			return -1, true, nil
		default:
			return 1, true, nil
		}
	}
	return 0, false, &TypeError{Message: "cannot compare " + a.TypeName() + " and " + b.TypeName()}
}
