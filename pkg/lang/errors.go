package lang

import "fmt"

// SyntaxError is raised by the lexer or parser for malformed source.
type SyntaxError struct {
	Line    int
	Column  int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at line %d, column %d: %s", e.Line, e.Column, e.Message)
}

// UnknownFunction is raised during static validation when a Call node
// names a function not present in the builtin registry.
type UnknownFunction struct {
	Name   string
	Line   int
	Column int
}

func (e *UnknownFunction) Error() string {
	return fmt.Sprintf("unknown function %q at line %d, column %d", e.Name, e.Line, e.Column)
}

// ArityError is raised during static validation when a Call node's
// argument count does not match the builtin's declared arity.
type ArityError struct {
	Name     string
	Expected string
	Got      int
	Line     int
	Column   int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("%s expects %s argument(s), got %d (line %d, column %d)", e.Name, e.Expected, e.Got, e.Line, e.Column)
}
