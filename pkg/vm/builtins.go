package vm

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pama-lee/ordo/pkg/value"
)

// BuiltinFunc is the backend's implementation of a registry function.
// Arity was already checked by pkg/lang.Validate at the frontend; these
// bodies still re-check argument kinds, since the frontend never sees
// runtime values.
type BuiltinFunc func(args []value.Value) (value.Value, error)

func newRegistry(vm *VM) map[string]BuiltinFunc {
	r := map[string]BuiltinFunc{
		"len":          builtinLen,
		"upper":        builtinUpper,
		"lower":        builtinLower,
		"trim":         builtinTrim,
		"starts_with":  builtinStartsWith,
		"ends_with":    builtinEndsWith,
		"contains_str": builtinContainsStr,
		"substring":    builtinSubstring,
		"abs":          builtinAbs,
		"floor":        builtinFloor,
		"ceil":         builtinCeil,
		"round":        builtinRound,
		"min":          builtinMin,
		"max":          builtinMax,
		"sum":          builtinSum,
		"avg":          builtinAvg,
		"first":        builtinFirst(vm),
		"last":         builtinLast(vm),
		"type":         builtinType,
		"is_null":      builtinIsNull,
		"is_number":    builtinIsNumber,
		"is_string":    builtinIsString,
		"is_array":     builtinIsArray,
		"to_int":       builtinToInt,
		"to_float":     builtinToFloat,
		"to_string":    builtinToString,
		"now":           builtinNow(vm),
		"now_millis":    builtinNowMillis(vm),
		"call_external": builtinCallExternal(vm),
		"__raise":       builtinRaise,
	}
	return r
}

// builtinRaise backs compiled ast.ErrorLiteral nodes: the optimizer
// determined the original sub-expression always fails, and this makes
// the VM fail at the same point with the same message and error type.
// Folding only fails inside pkg/value's operators, so the message
// identifies which of their three error types to rebuild.
func builtinRaise(args []value.Value) (value.Value, error) {
	msg := ""
	if len(args) == 1 {
		msg = args[0].AsString()
	}
	if op, ok := strings.CutPrefix(msg, "division by zero in "); ok {
		return value.Value{}, &value.DivisionByZero{Op: op}
	}
	if rest, ok := strings.CutPrefix(msg, "arithmetic error in "); ok {
		if op, detail, ok := strings.Cut(rest, ": "); ok {
			return value.Value{}, &value.ArithmeticError{Op: op, Message: detail}
		}
	}
	return value.Value{}, &value.TypeError{Message: msg}
}

func builtinLen(args []value.Value) (value.Value, error) {
	v := args[0]
	switch v.Kind() {
	case value.KindString:
		return value.Int(int64(utf8.RuneCountInString(v.AsString()))), nil
	case value.KindArray:
		return value.Int(int64(len(v.AsArray()))), nil
	case value.KindObject:
		return value.Int(int64(v.AsObject().Len())), nil
	default:
		return value.Value{}, &value.TypeError{Message: "len() requires String, Array, or Object, got " + v.TypeName()}
	}
}

func requireString(v value.Value, fn string) (string, error) {
	if v.Kind() != value.KindString {
		return "", &value.TypeError{Message: fn + "() requires a String argument, got " + v.TypeName()}
	}
	return v.AsString(), nil
}

func builtinUpper(args []value.Value) (value.Value, error) {
	s, err := requireString(args[0], "upper")
	if err != nil {
		return value.Value{}, err
	}
	return value.String(strings.ToUpper(s)), nil
}

func builtinLower(args []value.Value) (value.Value, error) {
	s, err := requireString(args[0], "lower")
	if err != nil {
		return value.Value{}, err
	}
	return value.String(strings.ToLower(s)), nil
}

func builtinTrim(args []value.Value) (value.Value, error) {
	s, err := requireString(args[0], "trim")
	if err != nil {
		return value.Value{}, err
	}
	return value.String(strings.TrimSpace(s)), nil
}

func builtinStartsWith(args []value.Value) (value.Value, error) {
	s, err := requireString(args[0], "starts_with")
	if err != nil {
		return value.Value{}, err
	}
	prefix, err := requireString(args[1], "starts_with")
	if err != nil {
		return value.Value{}, err
	}
	return value.Bool(strings.HasPrefix(s, prefix)), nil
}

func builtinEndsWith(args []value.Value) (value.Value, error) {
	s, err := requireString(args[0], "ends_with")
	if err != nil {
		return value.Value{}, err
	}
	suffix, err := requireString(args[1], "ends_with")
	if err != nil {
		return value.Value{}, err
	}
	return value.Bool(strings.HasSuffix(s, suffix)), nil
}

func builtinContainsStr(args []value.Value) (value.Value, error) {
	s, err := requireString(args[0], "contains_str")
	if err != nil {
		return value.Value{}, err
	}
	sub, err := requireString(args[1], "contains_str")
	if err != nil {
		return value.Value{}, err
	}
	return value.Bool(strings.Contains(s, sub)), nil
}

// builtinSubstring implements half-open substring over Unicode scalars;
// negative or out-of-range bounds clamp to [0, len], and start > end
// returns an empty string (spec.md §4.3).
func builtinSubstring(args []value.Value) (value.Value, error) {
	s, err := requireString(args[0], "substring")
	if err != nil {
		return value.Value{}, err
	}
	if args[1].Kind() != value.KindInt || args[2].Kind() != value.KindInt {
		return value.Value{}, &value.TypeError{Message: "substring() start/end must be Int"}
	}
	runes := []rune(s)
	n := len(runes)
	start := clampInt(int(args[1].AsInt()), 0, n)
	end := clampInt(int(args[2].AsInt()), 0, n)
	if start > end {
		return value.String(""), nil
	}
	return value.String(string(runes[start:end])), nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func requireNumeric(v value.Value, fn string) error {
	if v.Kind() != value.KindInt && v.Kind() != value.KindFloat {
		return &value.TypeError{Message: fn + "() requires a numeric argument, got " + v.TypeName()}
	}
	return nil
}

func builtinAbs(args []value.Value) (value.Value, error) {
	v := args[0]
	if err := requireNumeric(v, "abs"); err != nil {
		return value.Value{}, err
	}
	if v.Kind() == value.KindInt {
		x := v.AsInt()
		if x == math.MinInt64 {
			return value.Value{}, &value.ArithmeticError{Op: "abs", Message: "int64 overflow"}
		}
		if x < 0 {
			x = -x
		}
		return value.Int(x), nil
	}
	return value.Float(math.Abs(v.AsFloat())), nil
}

func builtinFloor(args []value.Value) (value.Value, error) {
	v := args[0]
	if err := requireNumeric(v, "floor"); err != nil {
		return value.Value{}, err
	}
	if v.Kind() == value.KindInt {
		return v, nil
	}
	return value.Float(math.Floor(v.AsFloat())), nil
}

func builtinCeil(args []value.Value) (value.Value, error) {
	v := args[0]
	if err := requireNumeric(v, "ceil"); err != nil {
		return value.Value{}, err
	}
	if v.Kind() == value.KindInt {
		return v, nil
	}
	return value.Float(math.Ceil(v.AsFloat())), nil
}

// builtinRound implements round-half-to-even (banker's rounding), chosen
// per spec.md §8's open question to minimize bias for financial use
// cases. Go's math.RoundToEven does exactly this.
func builtinRound(args []value.Value) (value.Value, error) {
	v := args[0]
	if err := requireNumeric(v, "round"); err != nil {
		return value.Value{}, err
	}
	if v.Kind() == value.KindInt {
		return v, nil
	}
	return value.Float(math.RoundToEven(v.AsFloat())), nil
}

// builtinMin/builtinMax are variadic with at least one argument; mixed
// Int/Float promotes to Float in the result only if a Float argument is
// present (spec.md §4.3).
func builtinMin(args []value.Value) (value.Value, error) {
	return minMax(args, "min", -1)
}

func builtinMax(args []value.Value) (value.Value, error) {
	return minMax(args, "max", 1)
}

func minMax(args []value.Value, fn string, want int) (value.Value, error) {
	if len(args) == 0 {
		return value.Value{}, &value.TypeError{Message: fn + "() requires at least one argument"}
	}
	best := args[0]
	if err := requireNumeric(best, fn); err != nil {
		return value.Value{}, err
	}
	anyFloat := best.Kind() == value.KindFloat
	for _, a := range args[1:] {
		if err := requireNumeric(a, fn); err != nil {
			return value.Value{}, err
		}
		if a.Kind() == value.KindFloat {
			anyFloat = true
		}
		cmp, ok, err := value.Compare(a, best)
		if err != nil {
			return value.Value{}, err
		}
		if ok && ((want < 0 && cmp < 0) || (want > 0 && cmp > 0)) {
			best = a
		}
	}
	if anyFloat && best.Kind() == value.KindInt {
		return value.Float(best.AsFloat()), nil
	}
	return best, nil
}

func builtinSum(args []value.Value) (value.Value, error) {
	v := args[0]
	if v.Kind() != value.KindArray {
		return value.Value{}, &value.TypeError{Message: "sum() requires an Array, got " + v.TypeName()}
	}
	arr := v.AsArray()
	acc := value.Int(0)
	var err error
	for _, el := range arr {
		if err = requireNumeric(el, "sum"); err != nil {
			return value.Value{}, err
		}
		acc, err = value.Add(acc, el)
		if err != nil {
			return value.Value{}, err
		}
	}
	return acc, nil
}

func builtinAvg(args []value.Value) (value.Value, error) {
	v := args[0]
	if v.Kind() != value.KindArray {
		return value.Value{}, &value.TypeError{Message: "avg() requires an Array, got " + v.TypeName()}
	}
	arr := v.AsArray()
	if len(arr) == 0 {
		return value.Value{}, &value.DomainError{Message: "avg() of an empty array"}
	}
	sum, err := builtinSum(args)
	if err != nil {
		return value.Value{}, err
	}
	return value.Float(sum.AsFloat() / float64(len(arr))), nil
}

// builtinFirst/builtinLast: empty Array yields Null under the Lenient
// policy or a DomainError under Strict (spec.md §4.3); Default policy
// behaves like Lenient here since there's no "default element" concept.
func builtinFirst(vm *VM) BuiltinFunc {
	return func(args []value.Value) (value.Value, error) {
		v := args[0]
		if v.Kind() != value.KindArray {
			return value.Value{}, &value.TypeError{Message: "first() requires an Array, got " + v.TypeName()}
		}
		arr := v.AsArray()
		if len(arr) == 0 {
			if vm.Policy == value.Strict {
				return value.Value{}, &value.DomainError{Message: "first() of an empty array"}
			}
			return value.Null(), nil
		}
		return arr[0], nil
	}
}

func builtinLast(vm *VM) BuiltinFunc {
	return func(args []value.Value) (value.Value, error) {
		v := args[0]
		if v.Kind() != value.KindArray {
			return value.Value{}, &value.TypeError{Message: "last() requires an Array, got " + v.TypeName()}
		}
		arr := v.AsArray()
		if len(arr) == 0 {
			if vm.Policy == value.Strict {
				return value.Value{}, &value.DomainError{Message: "last() of an empty array"}
			}
			return value.Null(), nil
		}
		return arr[len(arr)-1], nil
	}
}

func builtinType(args []value.Value) (value.Value, error) {
	return value.String(args[0].TypeName()), nil
}

func builtinIsNull(args []value.Value) (value.Value, error) {
	return value.Bool(args[0].IsNull()), nil
}

func builtinIsNumber(args []value.Value) (value.Value, error) {
	k := args[0].Kind()
	return value.Bool(k == value.KindInt || k == value.KindFloat), nil
}

func builtinIsString(args []value.Value) (value.Value, error) {
	return value.Bool(args[0].Kind() == value.KindString), nil
}

func builtinIsArray(args []value.Value) (value.Value, error) {
	return value.Bool(args[0].Kind() == value.KindArray), nil
}

func builtinToInt(args []value.Value) (value.Value, error) {
	v := args[0]
	switch v.Kind() {
	case value.KindInt:
		return v, nil
	case value.KindFloat:
		return value.Int(int64(v.AsFloat())), nil
	case value.KindString:
		n, err := strconv.ParseInt(strings.TrimSpace(v.AsString()), 10, 64)
		if err != nil {
			return value.Value{}, &value.ConversionError{Message: "to_int(): cannot parse " + strconv.Quote(v.AsString()) + " as an integer"}
		}
		return value.Int(n), nil
	case value.KindBool:
		if v.AsBool() {
			return value.Int(1), nil
		}
		return value.Int(0), nil
	default:
		return value.Value{}, &value.ConversionError{Message: "to_int(): cannot convert " + v.TypeName()}
	}
}

func builtinToFloat(args []value.Value) (value.Value, error) {
	v := args[0]
	switch v.Kind() {
	case value.KindFloat:
		return v, nil
	case value.KindInt:
		return value.Float(float64(v.AsInt())), nil
	case value.KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.AsString()), 64)
		if err != nil {
			return value.Value{}, &value.ConversionError{Message: "to_float(): cannot parse " + strconv.Quote(v.AsString()) + " as a float"}
		}
		return value.Float(f), nil
	default:
		return value.Value{}, &value.ConversionError{Message: "to_float(): cannot convert " + v.TypeName()}
	}
}

func builtinToString(args []value.Value) (value.Value, error) {
	v := args[0]
	switch v.Kind() {
	case value.KindString:
		return v, nil
	case value.KindInt:
		return value.String(strconv.FormatInt(v.AsInt(), 10)), nil
	case value.KindFloat:
		return value.String(strconv.FormatFloat(v.AsFloat(), 'g', -1, 64)), nil
	case value.KindBool:
		return value.String(strconv.FormatBool(v.AsBool())), nil
	case value.KindNull:
		return value.String("null"), nil
	default:
		return value.Value{}, &value.ConversionError{Message: "to_string(): cannot convert " + v.TypeName()}
	}
}

func builtinNow(vm *VM) BuiltinFunc {
	return func(args []value.Value) (value.Value, error) {
		if vm.Clock == nil {
			return value.Value{}, fmt.Errorf("now(): no clock configured")
		}
		return value.Int(vm.Clock.NowSeconds()), nil
	}
}

func builtinNowMillis(vm *VM) BuiltinFunc {
	return func(args []value.Value) (value.Value, error) {
		if vm.Clock == nil {
			return value.Value{}, fmt.Errorf("now_millis(): no clock configured")
		}
		return value.Int(vm.Clock.NowMillis()), nil
	}
}

// builtinCallExternal dispatches `call_external(name, arg1, ...)` to the
// host-provided ExternalCall capability (spec.md §6). The call is
// synchronous from the VM's point of view; the host is responsible for
// keeping it fast and free of side effects observable outside this run.
func builtinCallExternal(vm *VM) BuiltinFunc {
	return func(args []value.Value) (value.Value, error) {
		if args[0].Kind() != value.KindString {
			return value.Value{}, &value.TypeError{Message: "call_external() requires a String name as its first argument"}
		}
		if vm.External == nil {
			return value.Value{}, fmt.Errorf("call_external(): no external call capability configured")
		}
		return vm.External(args[0].AsString(), args[1:])
	}
}
