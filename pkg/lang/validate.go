package lang

import "github.com/pama-lee/ordo/pkg/ast"

// Validate walks e and checks every Call node against the builtin
// registry: unknown names raise UnknownFunction, wrong argument counts
// raise ArityError. It returns the first problem found (spec.md §4.2);
// unlike ruleset-level Validate (pkg/ruleset), this does not accumulate.
func Validate(e ast.Expr) error {
	switch n := e.(type) {
	case *ast.Literal:
		return nil
	case *ast.FieldPath:
		return nil
	case *ast.ArrayLiteral:
		for _, el := range n.Elements {
			if err := Validate(el); err != nil {
				return err
			}
		}
		return nil
	case *ast.Index:
		if err := Validate(n.Target); err != nil {
			return err
		}
		return Validate(n.Index)
	case *ast.Unary:
		return Validate(n.Operand)
	case *ast.Binary:
		if err := Validate(n.Left); err != nil {
			return err
		}
		return Validate(n.Right)
	case *ast.Call:
		a, ok := builtinArity[n.Name]
		if !ok {
			p := n.Pos()
			return &UnknownFunction{Name: n.Name, Line: p.Line, Column: p.Column}
		}
		got := len(n.Args)
		if got < a.min || (a.max != -1 && got > a.max) {
			p := n.Pos()
			return &ArityError{Name: n.Name, Expected: arityMessage(a), Got: got, Line: p.Line, Column: p.Column}
		}
		for _, arg := range n.Args {
			if err := Validate(arg); err != nil {
				return err
			}
		}
		return nil
	case *ast.If:
		if err := Validate(n.Cond); err != nil {
			return err
		}
		if err := Validate(n.Then); err != nil {
			return err
		}
		return Validate(n.Else)
	case *ast.Coalesce:
		if len(n.Args) < 1 {
			p := n.Pos()
			return &ArityError{Name: "coalesce", Expected: "at least 1", Got: 0, Line: p.Line, Column: p.Column}
		}
		for _, arg := range n.Args {
			if err := Validate(arg); err != nil {
				return err
			}
		}
		return nil
	case *ast.ErrorLiteral:
		return nil
	default:
		return nil
	}
}
