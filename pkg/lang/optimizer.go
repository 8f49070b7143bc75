package lang

import (
	"github.com/pama-lee/ordo/pkg/ast"
	"github.com/pama-lee/ordo/pkg/value"
)

// Optimize applies the optional constant-folding pass described in
// spec.md §4.2: folding of sub-expressions whose inputs are all literals,
// short-circuit pruning of `false && x`, `true || x`, and an `if` whose
// condition folds to a Bool literal. `x && false` and `x || true` fold
// only when x is itself a Bool literal, and comparison operands are never
// reordered or canonicalized. It must never change observable behavior: a sub-expression that would have
// raised at runtime still raises, via an ast.ErrorLiteral standing in
// for the folded node (e.g. `1 / 0` folds to an ErrorLiteral wrapping
// DivisionByZero, not to a silently different value).
func Optimize(e ast.Expr) ast.Expr {
	switch n := e.(type) {
	case *ast.Literal, *ast.FieldPath, *ast.ErrorLiteral:
		return e
	case *ast.ArrayLiteral:
		elems := make([]ast.Expr, len(n.Elements))
		for i, el := range n.Elements {
			elems[i] = Optimize(el)
		}
		return &ast.ArrayLiteral{Elements: elems, P: n.P}
	case *ast.Index:
		target := Optimize(n.Target)
		index := Optimize(n.Index)
		return &ast.Index{Target: target, Index: index, P: n.P}
	case *ast.Unary:
		return optimizeUnary(n)
	case *ast.Binary:
		return optimizeBinary(n)
	case *ast.Call:
		args := make([]ast.Expr, len(n.Args))
		for i, a := range n.Args {
			args[i] = Optimize(a)
		}
		return &ast.Call{Name: n.Name, Args: args, P: n.P}
	case *ast.Coalesce:
		dropRest := false
		var kept []ast.Expr
		for _, a := range n.Args {
			if dropRest {
				break
			}
			oa := Optimize(a)
			kept = append(kept, oa)
			// A literal, non-Null argument makes every later argument
			// unreachable: coalesce never evaluates past the first
			// non-Null value.
			if lit, ok := oa.(*ast.Literal); ok && !lit.Value.IsNull() {
				dropRest = true
			}
		}
		return &ast.Coalesce{Args: kept, P: n.P}
	case *ast.If:
		cond := Optimize(n.Cond)
		then := Optimize(n.Then)
		els := Optimize(n.Else)
		if lit, ok := cond.(*ast.Literal); ok && lit.Value.Kind() == value.KindBool {
			if lit.Value.AsBool() {
				return then
			}
			return els
		}
		return &ast.If{Cond: cond, Then: then, Else: els, P: n.P}
	default:
		return e
	}
}

func optimizeUnary(n *ast.Unary) ast.Expr {
	operand := Optimize(n.Operand)
	lit, ok := operand.(*ast.Literal)
	if !ok {
		return &ast.Unary{Op: n.Op, Operand: operand, P: n.P}
	}
	switch n.Op {
	case ast.Not:
		if lit.Value.Kind() == value.KindBool {
			return &ast.Literal{Value: value.Bool(!lit.Value.AsBool()), P: n.P}
		}
	case ast.Neg:
		if v, err := value.Neg(lit.Value); err == nil {
			return &ast.Literal{Value: v, P: n.P}
		} else {
			return &ast.ErrorLiteral{Err: err, P: n.P}
		}
	}
	return &ast.Unary{Op: n.Op, Operand: operand, P: n.P}
}

func optimizeBinary(n *ast.Binary) ast.Expr {
	left := Optimize(n.Left)
	right := Optimize(n.Right)

	// Short-circuit pruning: `x && false` => false (false is a definite
	// outcome regardless of x's truthiness, but x may still need to
	// raise, so only prune when x itself is already a literal too — see
	// the full-literal fold below. `false && x` can drop x entirely
	// since && short-circuits left to right and never evaluates x).
	if n.Op == ast.And {
		if lit, ok := left.(*ast.Literal); ok && lit.Value.Kind() == value.KindBool && !lit.Value.AsBool() {
			return &ast.Literal{Value: value.Bool(false), P: n.P}
		}
	}
	if n.Op == ast.Or {
		if lit, ok := left.(*ast.Literal); ok && lit.Value.Kind() == value.KindBool && lit.Value.AsBool() {
			return &ast.Literal{Value: value.Bool(true), P: n.P}
		}
	}

	leftLit, leftIsLit := left.(*ast.Literal)
	rightLit, rightIsLit := right.(*ast.Literal)
	if leftIsLit && rightIsLit {
		if v, foldErr, folded := foldBinaryLiterals(n.Op, leftLit.Value, rightLit.Value); folded {
			if foldErr != nil {
				return &ast.ErrorLiteral{Err: foldErr, P: n.P}
			}
			return &ast.Literal{Value: v, P: n.P}
		}
	}

	return &ast.Binary{Op: n.Op, Left: left, Right: right, P: n.P}
}

// foldBinaryLiterals evaluates op over two literal operands using the
// same arithmetic/comparison semantics the VM uses at runtime (pkg/value),
// so optimizer output is always equivalent to unoptimized evaluation.
// folded is false when op is a logical operator whose short-circuit
// behavior already handled the case above but needs runtime truthiness
// (strict-mode non-Bool operands raise a TypeError only at evaluation
// time, so non-Bool && / || operands are deliberately left unfolded).
func foldBinaryLiterals(op ast.BinOp, l, r value.Value) (result value.Value, err error, folded bool) {
	switch op {
	case ast.Add:
		v, e := value.Add(l, r)
		return v, e, true
	case ast.Sub:
		v, e := value.Sub(l, r)
		return v, e, true
	case ast.Mul:
		v, e := value.Mul(l, r)
		return v, e, true
	case ast.Div:
		v, e := value.Div(l, r)
		return v, e, true
	case ast.Mod:
		v, e := value.Mod(l, r)
		return v, e, true
	case ast.Eq:
		return value.Bool(value.Equal(l, r)), nil, true
	case ast.Ne:
		return value.Bool(!value.Equal(l, r)), nil, true
	case ast.Lt, ast.Le, ast.Gt, ast.Ge:
		cmp, ok, e := value.Compare(l, r)
		if e != nil {
			return value.Value{}, e, true
		}
		if !ok {
			return value.Bool(false), nil, true
		}
		switch op {
		case ast.Lt:
			return value.Bool(cmp < 0), nil, true
		case ast.Le:
			return value.Bool(cmp <= 0), nil, true
		case ast.Gt:
			return value.Bool(cmp > 0), nil, true
		default:
			return value.Bool(cmp >= 0), nil, true
		}
	case ast.And:
		if l.Kind() == value.KindBool && r.Kind() == value.KindBool {
			return value.Bool(l.AsBool() && r.AsBool()), nil, true
		}
		return value.Value{}, nil, false
	case ast.Or:
		if l.Kind() == value.KindBool && r.Kind() == value.KindBool {
			return value.Bool(l.AsBool() || r.AsBool()), nil, true
		}
		return value.Value{}, nil, false
	default:
		return value.Value{}, nil, false
	}
}
