package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble renders a Program as human-readable text, one instruction
// per line with its resolved operand (constant literal, interned field
// path, or builtin name) shown alongside the raw indices. Intended for
// `ordo inspect` and debugging, not for parsing back.
func Disassemble(p *Program) string {
	var b strings.Builder
	fmt.Fprintf(&b, "; max_depth=%d constants=%d paths=%d names=%d\n", p.MaxDepth, len(p.Constants), len(p.Paths), len(p.Names))
	for i, instr := range p.Instructions {
		fmt.Fprintf(&b, "%4d  %-16s", i, instr.Op.String())
		switch instr.Op {
		case OpConst:
			if instr.Operand < len(p.Constants) {
				fmt.Fprintf(&b, " #%d (%s)", instr.Operand, p.Constants[instr.Operand].String())
			}
		case OpLoadField:
			if instr.Operand < len(p.Paths) {
				fmt.Fprintf(&b, " #%d (%s)", instr.Operand, strings.Join(p.Paths[instr.Operand], "."))
			}
		case OpCallBuiltin:
			if instr.Operand < len(p.Names) {
				fmt.Fprintf(&b, " #%d (%s/%d)", instr.Operand, p.Names[instr.Operand], instr.Operand2)
			}
		case OpArrayBuild:
			fmt.Fprintf(&b, " n=%d", instr.Operand)
		case OpJump, OpJumpIfFalse, OpJumpIfTrue, OpJumpIfNotNull:
			fmt.Fprintf(&b, " -> %d", instr.Operand)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
