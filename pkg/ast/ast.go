// Package ast defines the expression abstract syntax tree shared by the
// parser, the constant-folding optimizer, and the bytecode compiler.
//
// Expr is a closed sum type: Literal, FieldPath, Index, Unary, Binary,
// Call, If, and Coalesce are its only variants (spec.md §3). All nodes are
// immutable after construction — passes that rewrite a node (optimizer,
// macro-free by design here) allocate a new one rather than mutating in
// place, so a single AST can be safely shared and recompiled.
package ast

import "github.com/pama-lee/ordo/pkg/value"

// Expr is implemented by every expression node. It is a marker interface;
// dispatch is by type switch, exhaustively, everywhere an Expr is consumed.
type Expr interface {
	exprNode()
	// Pos returns the source position this node was parsed from, for
	// error reporting. Synthetic nodes (e.g. produced by the optimizer)
	// inherit the position of the node they replace.
	Pos() Position
}

// Position locates a token in source text.
type Position struct {
	Line   int
	Column int
}

// BinOp enumerates binary operators.
type BinOp int

const (
	Add BinOp = iota
	Sub
	Mul
	Div
	Mod
	Eq
	Ne
	Lt
	Le
	Gt
	Ge
	And
	Or
)

func (op BinOp) String() string {
	switch op {
	case Add:
		return "+"
	case Sub:
		return "-"
	case Mul:
		return "*"
	case Div:
		return "/"
	case Mod:
		return "%"
	case Eq:
		return "=="
	case Ne:
		return "!="
	case Lt:
		return "<"
	case Le:
		return "<="
	case Gt:
		return ">"
	case Ge:
		return ">="
	case And:
		return "&&"
	case Or:
		return "||"
	default:
		return "?"
	}
}

// UnOp enumerates unary operators.
type UnOp int

const (
	Not UnOp = iota
	Neg
)

func (op UnOp) String() string {
	if op == Not {
		return "!"
	}
	return "-"
}

// Literal is a constant value baked into the expression at parse time.
type Literal struct {
	Value value.Value
	P     Position
}

func (l *Literal) exprNode()     {}
func (l *Literal) Pos() Position { return l.P }

// FieldPath is a non-empty sequence of dotted identifier segments resolved
// against the current scope (assignment variables first, then input).
type FieldPath struct {
	Segments []string
	P        Position
}

func (f *FieldPath) exprNode()     {}
func (f *FieldPath) Pos() Position { return f.P }

// Index applies a computed subscript (array index or object key) to
// Target, as opposed to FieldPath's static dotted segments.
type Index struct {
	Target Expr
	Index  Expr
	P      Position
}

func (i *Index) exprNode()     {}
func (i *Index) Pos() Position { return i.P }

// Unary is a unary operator application.
type Unary struct {
	Op      UnOp
	Operand Expr
	P       Position
}

func (u *Unary) exprNode()     {}
func (u *Unary) Pos() Position { return u.P }

// Binary is a binary operator application.
type Binary struct {
	Op    BinOp
	Left  Expr
	Right Expr
	P     Position
}

func (b *Binary) exprNode()     {}
func (b *Binary) Pos() Position { return b.P }

// Call invokes a builtin function by name with the given arguments,
// evaluated left to right (subject to each builtin's own short-circuit
// rules, e.g. coalesce).
type Call struct {
	Name string
	Args []Expr
	P    Position
}

func (c *Call) exprNode()     {}
func (c *Call) Pos() Position { return c.P }

// If is the `if cond then a else b` ternary conditional.
type If struct {
	Cond Expr
	Then Expr
	Else Expr
	P    Position
}

func (i *If) exprNode()     {}
func (i *If) Pos() Position { return i.P }

// Coalesce returns the first non-Null argument, evaluating left to right
// and never evaluating past the first non-Null argument.
type Coalesce struct {
	Args []Expr
	P    Position
}

func (c *Coalesce) exprNode()     {}
func (c *Coalesce) Pos() Position { return c.P }

// ArrayLiteral constructs an Array value from element expressions,
// evaluated left to right.
type ArrayLiteral struct {
	Elements []Expr
	P        Position
}

func (a *ArrayLiteral) exprNode()     {}
func (a *ArrayLiteral) Pos() Position { return a.P }

// ErrorLiteral wraps an error that the optimizer determined a constant-
// folded expression would raise at runtime. It preserves the failure
// behavior of the unfolded expression (spec.md §4.2): evaluating it always
// raises Err rather than producing a value.
type ErrorLiteral struct {
	Err error
	P   Position
}

func (e *ErrorLiteral) exprNode()     {}
func (e *ErrorLiteral) Pos() Position { return e.P }

// Equal reports whether two expressions are structurally identical,
// ignoring source Position. Used by the parse/print round-trip and
// interpreter/optimizer equivalence property tests (spec.md §8).
func Equal(a, b Expr) bool {
	if a == nil || b == nil {
		return a == b
	}
	switch x := a.(type) {
	case *Literal:
		y, ok := b.(*Literal)
		return ok && valueEqual(x.Value, y.Value)
	case *FieldPath:
		y, ok := b.(*FieldPath)
		if !ok || len(x.Segments) != len(y.Segments) {
			return false
		}
		for i := range x.Segments {
			if x.Segments[i] != y.Segments[i] {
				return false
			}
		}
		return true
	case *ArrayLiteral:
		y, ok := b.(*ArrayLiteral)
		return ok && equalExprSlice(x.Elements, y.Elements)
	case *Index:
		y, ok := b.(*Index)
		return ok && Equal(x.Target, y.Target) && Equal(x.Index, y.Index)
	case *Unary:
		y, ok := b.(*Unary)
		return ok && x.Op == y.Op && Equal(x.Operand, y.Operand)
	case *Binary:
		y, ok := b.(*Binary)
		return ok && x.Op == y.Op && Equal(x.Left, y.Left) && Equal(x.Right, y.Right)
	case *Call:
		y, ok := b.(*Call)
		return ok && x.Name == y.Name && equalExprSlice(x.Args, y.Args)
	case *If:
		y, ok := b.(*If)
		return ok && Equal(x.Cond, y.Cond) && Equal(x.Then, y.Then) && Equal(x.Else, y.Else)
	case *Coalesce:
		y, ok := b.(*Coalesce)
		return ok && equalExprSlice(x.Args, y.Args)
	case *ErrorLiteral:
		y, ok := b.(*ErrorLiteral)
		return ok && x.Err.Error() == y.Err.Error()
	default:
		return false
	}
}

func equalExprSlice(a, b []Expr) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func valueEqual(a, b value.Value) bool {
	return value.Equal(a, b) && a.Kind() == b.Kind()
}
