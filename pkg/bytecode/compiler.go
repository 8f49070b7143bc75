package bytecode

import (
	"fmt"

	"github.com/pama-lee/ordo/pkg/ast"
	"github.com/pama-lee/ordo/pkg/value"
)

// Compiler lowers a single ast.Expr to a Program in one post-order pass,
// interning field paths and deduplicating constants by structural
// equality (spec.md §4.3).
type Compiler struct {
	instructions []Instruction
	constants    []value.Value
	paths        [][]string
	names        []string

	depth    int
	maxDepth int
}

// Compile lowers e to a Program.
func Compile(e ast.Expr) (*Program, error) {
	c := &Compiler{}
	if err := c.compileExpr(e); err != nil {
		return nil, err
	}
	c.emit(OpReturn, 0, 0)
	return &Program{
		Instructions: c.instructions,
		Constants:    c.constants,
		Paths:        c.paths,
		Names:        c.names,
		MaxDepth:     c.maxDepth,
	}, nil
}

func (c *Compiler) push() {
	c.depth++
	if c.depth > c.maxDepth {
		c.maxDepth = c.depth
	}
}

func (c *Compiler) pop() { c.depth-- }

func (c *Compiler) emit(op Opcode, operand, operand2 int) int {
	c.instructions = append(c.instructions, Instruction{Op: op, Operand: operand, Operand2: operand2})
	return len(c.instructions) - 1
}

func (c *Compiler) patchTarget(at int, target int) {
	c.instructions[at].Operand = target
}

func (c *Compiler) here() int { return len(c.instructions) }

func (c *Compiler) addConstant(v value.Value) int {
	for i, existing := range c.constants {
		if existing.Kind() == v.Kind() && value.Equal(existing, v) {
			return i
		}
	}
	c.constants = append(c.constants, v)
	return len(c.constants) - 1
}

func (c *Compiler) addPath(segments []string) int {
	for i, existing := range c.paths {
		if pathEqual(existing, segments) {
			return i
		}
	}
	c.paths = append(c.paths, segments)
	return len(c.paths) - 1
}

func (c *Compiler) addName(name string) int {
	for i, existing := range c.names {
		if existing == name {
			return i
		}
	}
	c.names = append(c.names, name)
	return len(c.names) - 1
}

func pathEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (c *Compiler) compileExpr(e ast.Expr) error {
	switch n := e.(type) {
	case *ast.Literal:
		idx := c.addConstant(n.Value)
		c.emit(OpConst, idx, 0)
		c.push()
		return nil

	case *ast.FieldPath:
		idx := c.addPath(n.Segments)
		c.emit(OpLoadField, idx, 0)
		c.push()
		return nil

	case *ast.ArrayLiteral:
		for _, el := range n.Elements {
			if err := c.compileExpr(el); err != nil {
				return err
			}
		}
		c.emit(OpArrayBuild, len(n.Elements), 0)
		for range n.Elements {
			c.pop()
		}
		c.push()
		return nil

	case *ast.Index:
		if err := c.compileExpr(n.Target); err != nil {
			return err
		}
		if err := c.compileExpr(n.Index); err != nil {
			return err
		}
		c.emit(OpIndexGet, 0, 0)
		c.pop()
		c.pop()
		c.push()
		return nil

	case *ast.Unary:
		if err := c.compileExpr(n.Operand); err != nil {
			return err
		}
		switch n.Op {
		case ast.Not:
			c.emit(OpNot, 0, 0)
		case ast.Neg:
			c.emit(OpNeg, 0, 0)
		}
		return nil

	case *ast.Binary:
		return c.compileBinary(n)

	case *ast.Call:
		if n.Name == "exists" {
			return c.compileExists(n)
		}
		for _, arg := range n.Args {
			if err := c.compileExpr(arg); err != nil {
				return err
			}
		}
		nameIdx := c.addName(n.Name)
		c.emit(OpCallBuiltin, nameIdx, len(n.Args))
		for range n.Args {
			c.pop()
		}
		c.push()
		return nil

	case *ast.If:
		if err := c.compileExpr(n.Cond); err != nil {
			return err
		}
		c.emit(OpCoerceBool, 0, 0)
		elseJump := c.emit(OpJumpIfFalse, 0, 0)
		c.pop() // condition consumed
		if err := c.compileExpr(n.Then); err != nil {
			return err
		}
		endJump := c.emit(OpJump, 0, 0)
		c.pop() // then-branch value balanced against else-branch below
		c.patchTarget(elseJump, c.here())
		if err := c.compileExpr(n.Else); err != nil {
			return err
		}
		c.patchTarget(endJump, c.here())
		c.push() // net effect: exactly one branch's value remains
		return nil

	case *ast.Coalesce:
		if len(n.Args) == 0 {
			return fmt.Errorf("coalesce requires at least one argument")
		}
		var endJumps []int
		for i, arg := range n.Args {
			if err := c.compileExpr(arg); err != nil {
				return err
			}
			if i == len(n.Args)-1 {
				break
			}
			endJumps = append(endJumps, c.emit(OpJumpIfNotNull, 0, 0))
			c.emit(OpPop, 0, 0)
			c.pop()
		}
		end := c.here()
		for _, at := range endJumps {
			c.patchTarget(at, end)
		}
		c.push()
		return nil

	case *ast.ErrorLiteral:
		// The optimizer folded this sub-expression into a statically
		// known failure. Compile it as a call to a sentinel builtin so
		// the VM raises the same error at the same point in evaluation
		// order it would have without folding.
		idx := c.addConstant(value.String(n.Err.Error()))
		c.emit(OpConst, idx, 0)
		c.push()
		nameIdx := c.addName("__raise")
		c.emit(OpCallBuiltin, nameIdx, 1)
		c.pop()
		c.push()
		return nil

	default:
		return fmt.Errorf("bytecode: unsupported expression node %T", e)
	}
}

// compileExists lowers `exists(path)` to a dedicated presence check
// rather than a normal builtin call: the scope must be asked whether the
// path is present without raising a MissingFieldError under the Strict
// policy, which an ordinary field-path load would do (spec.md §3).
func (c *Compiler) compileExists(n *ast.Call) error {
	if len(n.Args) != 1 {
		return fmt.Errorf("exists() requires exactly 1 argument, got %d", len(n.Args))
	}
	fp, ok := n.Args[0].(*ast.FieldPath)
	if !ok {
		return fmt.Errorf("exists() requires a field path argument")
	}
	idx := c.addPath(fp.Segments)
	c.emit(OpFieldExists, idx, 0)
	c.push()
	return nil
}

func (c *Compiler) compileBinary(n *ast.Binary) error {
	switch n.Op {
	case ast.And:
		return c.compileShortCircuit(n, true)
	case ast.Or:
		return c.compileShortCircuit(n, false)
	}

	if err := c.compileExpr(n.Left); err != nil {
		return err
	}
	if err := c.compileExpr(n.Right); err != nil {
		return err
	}

	var op Opcode
	switch n.Op {
	case ast.Add:
		op = OpAdd
	case ast.Sub:
		op = OpSub
	case ast.Mul:
		op = OpMul
	case ast.Div:
		op = OpDiv
	case ast.Mod:
		op = OpMod
	case ast.Eq:
		op = OpEq
	case ast.Ne:
		op = OpNe
	case ast.Lt:
		op = OpLt
	case ast.Le:
		op = OpLe
	case ast.Gt:
		op = OpGt
	case ast.Ge:
		op = OpGe
	default:
		return fmt.Errorf("bytecode: unsupported binary operator %v", n.Op)
	}
	c.emit(op, 0, 0)
	c.pop()
	return nil
}

// compileShortCircuit emits `a && b` (isAnd) or `a || b` (!isAnd) with
// the jump pattern described in spec.md §4.3: evaluate the left operand,
// coerce it to Bool per the active truthiness mode, and only evaluate
// the right operand when the left one didn't already decide the result.
func (c *Compiler) compileShortCircuit(n *ast.Binary, isAnd bool) error {
	if err := c.compileExpr(n.Left); err != nil {
		return err
	}
	c.emit(OpCoerceBool, 0, 0)

	var shortCircuitJump int
	if isAnd {
		shortCircuitJump = c.emit(OpJumpIfFalse, 0, 0)
	} else {
		shortCircuitJump = c.emit(OpJumpIfTrue, 0, 0)
	}
	c.pop() // left consumed by the jump check

	if err := c.compileExpr(n.Right); err != nil {
		return err
	}
	c.emit(OpCoerceBool, 0, 0)
	endJump := c.emit(OpJump, 0, 0)
	c.pop() // balanced against the decided-result push below

	c.patchTarget(shortCircuitJump, c.here())
	idx := c.addConstant(value.Bool(!isAnd))
	c.emit(OpConst, idx, 0)
	c.patchTarget(endJump, c.here())
	c.push()
	return nil
}
