package lang

import "strconv"

// arity describes how many arguments a builtin accepts. Max of -1 means
// unbounded (variadic).
type arity struct {
	min, max int
}

// builtinArity is the frontend's view of the builtin registry (spec.md
// §4.3): just enough to catch unknown-function and wrong-arity mistakes
// at parse/validate time, before the backend ever sees the expression.
// The VM owns the actual function bodies; this table only mirrors their
// signatures so Validate can run without importing the backend.
var builtinArity = map[string]arity{
	"len":          {1, 1},
	"upper":        {1, 1},
	"lower":        {1, 1},
	"trim":         {1, 1},
	"starts_with":  {2, 2},
	"ends_with":    {2, 2},
	"contains_str": {2, 2},
	"substring":    {3, 3},
	"abs":          {1, 1},
	"floor":        {1, 1},
	"ceil":         {1, 1},
	"round":        {1, 1},
	"min":          {1, -1},
	"max":          {1, -1},
	"sum":          {1, 1},
	"avg":          {1, 1},
	"first":        {1, 1},
	"last":         {1, 1},
	"type":         {1, 1},
	"is_null":      {1, 1},
	"is_number":    {1, 1},
	"is_string":    {1, 1},
	"is_array":     {1, 1},
	"to_int":       {1, 1},
	"to_float":     {1, 1},
	"to_string":    {1, 1},
	"now":          {0, 0},
	"now_millis":   {0, 0},
	"exists":       {1, 1},
	"call_external": {1, -1},
}

func arityMessage(a arity) string {
	switch {
	case a.min == a.max:
		return strconv.Itoa(a.min)
	case a.max == -1:
		return "at least " + strconv.Itoa(a.min)
	default:
		return strconv.Itoa(a.min) + " to " + strconv.Itoa(a.max)
	}
}
