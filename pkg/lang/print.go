package lang

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pama-lee/ordo/pkg/ast"
	"github.com/pama-lee/ordo/pkg/value"
)

// Print renders an expression back to source text. It fully parenthesizes
// every binary and unary application, so repeated Parse(Print(...)) round
// trips to a structurally identical AST even though the printed text is
// not byte-identical to arbitrary unparenthesized input (spec.md §8,
// property 1: "modulo parenthesization").
func Print(e ast.Expr) string {
	var b strings.Builder
	printExpr(&b, e)
	return b.String()
}

func printExpr(b *strings.Builder, e ast.Expr) {
	switch n := e.(type) {
	case *ast.Literal:
		printLiteral(b, n.Value)
	case *ast.FieldPath:
		b.WriteString(strings.Join(n.Segments, "."))
	case *ast.ArrayLiteral:
		b.WriteByte('[')
		for i, el := range n.Elements {
			if i > 0 {
				b.WriteString(", ")
			}
			printExpr(b, el)
		}
		b.WriteByte(']')
	case *ast.Index:
		printExpr(b, n.Target)
		b.WriteByte('[')
		printExpr(b, n.Index)
		b.WriteByte(']')
	case *ast.Unary:
		b.WriteString(n.Op.String())
		b.WriteByte('(')
		printExpr(b, n.Operand)
		b.WriteByte(')')
	case *ast.Binary:
		b.WriteByte('(')
		printExpr(b, n.Left)
		fmt.Fprintf(b, " %s ", n.Op.String())
		printExpr(b, n.Right)
		b.WriteByte(')')
	case *ast.Call:
		b.WriteString(n.Name)
		b.WriteByte('(')
		for i, a := range n.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			printExpr(b, a)
		}
		b.WriteByte(')')
	case *ast.Coalesce:
		b.WriteString("coalesce(")
		for i, a := range n.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			printExpr(b, a)
		}
		b.WriteByte(')')
	case *ast.If:
		b.WriteString("if ")
		printExpr(b, n.Cond)
		b.WriteString(" then ")
		printExpr(b, n.Then)
		b.WriteString(" else ")
		printExpr(b, n.Else)
	case *ast.ErrorLiteral:
		fmt.Fprintf(b, "error(%q)", n.Err.Error())
	default:
		b.WriteString("?")
	}
}

func printLiteral(b *strings.Builder, v value.Value) {
	switch v.Kind() {
	case value.KindNull:
		b.WriteString("null")
	case value.KindBool:
		if v.AsBool() {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case value.KindInt:
		b.WriteString(strconv.FormatInt(v.AsInt(), 10))
	case value.KindFloat:
		// Always print a decimal point, never an exponent, so the lexer
		// reads the literal back as a Float rather than an Int.
		s := strconv.FormatFloat(v.AsFloat(), 'f', -1, 64)
		if !strings.ContainsAny(s, ".NI") {
			s += ".0"
		}
		b.WriteString(s)
	case value.KindString:
		b.WriteString(strconv.Quote(v.AsString()))
	default:
		b.WriteString("?")
	}
}
