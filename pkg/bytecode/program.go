package bytecode

import "github.com/pama-lee/ordo/pkg/value"

// Program is a compiled expression: a flat instruction vector plus the
// constant, field-path, and builtin-name pools it indexes into. MaxDepth
// is the statically computed peak value-stack height, so the VM can
// allocate a fixed-size stack up front (spec.md §4.3).
type Program struct {
	Instructions []Instruction
	Constants    []value.Value
	Paths        [][]string
	Names        []string
	MaxDepth     int
}
