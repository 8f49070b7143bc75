package lang

import (
	"testing"

	"github.com/pama-lee/ordo/pkg/ast"
)

func TestLexerOperators(t *testing.T) {
	toks, err := NewLexer(`+ - * / % == != < <= > >= && || ! ( ) [ ] , .`).Tokenize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []TokenType{
		PLUS, MINUS, STAR, SLASH, PERCENT, EQ_EQ, NOT_EQ, LESS, LESS_EQ,
		GREATER, GREATER_EQ, AND, OR, BANG, LPAREN, RPAREN, LBRACKET,
		RBRACKET, COMMA, DOT, EOF,
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %+v", len(toks), len(want), toks)
	}
	for i, tt := range want {
		if toks[i].Type != tt {
			t.Errorf("token %d: got %s, want %s", i, toks[i].Type, tt)
		}
	}
}

func TestLexerStringEscapes(t *testing.T) {
	toks, err := NewLexer(`"a\nb\t\"c\""`).Tokenize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toks[0].Type != STRING {
		t.Fatalf("expected STRING, got %s", toks[0].Type)
	}
	if got, want := toks[0].Literal, "a\nb\t\"c\""; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestLexerUnterminatedString(t *testing.T) {
	_, err := NewLexer(`"unterminated`).Tokenize()
	if err == nil {
		t.Fatal("expected error for unterminated string")
	}
	if _, ok := err.(*SyntaxError); !ok {
		t.Errorf("expected *SyntaxError, got %T", err)
	}
}

func TestParserPrecedence(t *testing.T) {
	e, err := Parse("1 + 2 * 3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bin, ok := e.(*ast.Binary)
	if !ok || bin.Op != ast.Add {
		t.Fatalf("expected top-level Add, got %#v", e)
	}
	right, ok := bin.Right.(*ast.Binary)
	if !ok || right.Op != ast.Mul {
		t.Fatalf("expected right side Mul, got %#v", bin.Right)
	}
}

func TestParserLogicalPrecedence(t *testing.T) {
	e, err := Parse("a || b && c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bin, ok := e.(*ast.Binary)
	if !ok || bin.Op != ast.Or {
		t.Fatalf("expected top-level Or, got %#v", e)
	}
	if _, ok := bin.Right.(*ast.Binary); !ok {
		t.Fatalf("expected Right to be a Binary(And), got %#v", bin.Right)
	}
}

func TestParserFieldPathAndIndex(t *testing.T) {
	e, err := Parse(`user.address["city"]`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	idx, ok := e.(*ast.Index)
	if !ok {
		t.Fatalf("expected *ast.Index, got %#v", e)
	}
	fp, ok := idx.Target.(*ast.FieldPath)
	if !ok || len(fp.Segments) != 2 || fp.Segments[0] != "user" || fp.Segments[1] != "address" {
		t.Fatalf("expected FieldPath [user address], got %#v", idx.Target)
	}
}

func TestParserIfThenElseNesting(t *testing.T) {
	e, err := Parse("if a then 1 else if b then 2 else 3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	outer, ok := e.(*ast.If)
	if !ok {
		t.Fatalf("expected *ast.If, got %#v", e)
	}
	inner, ok := outer.Else.(*ast.If)
	if !ok {
		t.Fatalf("expected else branch to be a nested *ast.If, got %#v", outer.Else)
	}
	if inner.Then == nil || inner.Else == nil {
		t.Fatal("nested if missing branches")
	}
}

func TestParserCoalesceSpecialForm(t *testing.T) {
	e, err := Parse(`coalesce(a, b, "default")`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c, ok := e.(*ast.Coalesce)
	if !ok || len(c.Args) != 3 {
		t.Fatalf("expected *ast.Coalesce with 3 args, got %#v", e)
	}
}

func TestParserArrayLiteral(t *testing.T) {
	e, err := Parse(`[1, 2, 3]`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	arr, ok := e.(*ast.ArrayLiteral)
	if !ok || len(arr.Elements) != 3 {
		t.Fatalf("expected *ast.ArrayLiteral with 3 elements, got %#v", e)
	}
}

func TestParsePrintRoundTrip(t *testing.T) {
	cases := []string{
		`1 + 2 * 3`,
		`(1 + 2) * 3`,
		`a.b.c`,
		`a[0]`,
		`!x && y || z`,
		`-x + 1`,
		`if a then b else c`,
		`if a then b else if c then d else e`,
		`coalesce(a, b, "x")`,
		`len(s) == 0`,
		`[1, 2, "three"]`,
		`a == b != c`,
	}
	for _, src := range cases {
		e1, err := Parse(src)
		if err != nil {
			t.Fatalf("parse(%q): %v", src, err)
		}
		printed := Print(e1)
		e2, err := Parse(printed)
		if err != nil {
			t.Fatalf("re-parse of printed %q (from %q): %v", printed, src, err)
		}
		if !ast.Equal(e1, e2) {
			t.Errorf("round-trip mismatch for %q: printed %q reparsed to different AST", src, printed)
		}
	}
}

func TestValidateUnknownFunction(t *testing.T) {
	e, err := Parse("bogus(1, 2)")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	verr := Validate(e)
	if _, ok := verr.(*UnknownFunction); !ok {
		t.Fatalf("expected *UnknownFunction, got %#v", verr)
	}
}

func TestValidateArityError(t *testing.T) {
	e, err := Parse("len(1, 2)")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	verr := Validate(e)
	if _, ok := verr.(*ArityError); !ok {
		t.Fatalf("expected *ArityError, got %#v", verr)
	}
}

func TestValidateOK(t *testing.T) {
	e, err := Parse(`min(1, 2, 3) + len("abc")`)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if err := Validate(e); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestOptimizeConstantFolding(t *testing.T) {
	e, err := Parse("1 + 2 * 3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	opt := Optimize(e)
	lit, ok := opt.(*ast.Literal)
	if !ok {
		t.Fatalf("expected fully folded *ast.Literal, got %#v", opt)
	}
	if lit.Value.AsInt() != 7 {
		t.Errorf("got %v, want 7", lit.Value)
	}
}

func TestOptimizeShortCircuitAndFalse(t *testing.T) {
	e, err := Parse("false && x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	opt := Optimize(e)
	lit, ok := opt.(*ast.Literal)
	if !ok || lit.Value.AsBool() != false {
		t.Fatalf("expected literal false, got %#v", opt)
	}
}

func TestOptimizeShortCircuitOrTrue(t *testing.T) {
	e, err := Parse("true || x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	opt := Optimize(e)
	lit, ok := opt.(*ast.Literal)
	if !ok || lit.Value.AsBool() != true {
		t.Fatalf("expected literal true, got %#v", opt)
	}
}

func TestOptimizeIfConstantCondition(t *testing.T) {
	e, err := Parse("if true then 1 else 2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	opt := Optimize(e)
	lit, ok := opt.(*ast.Literal)
	if !ok || lit.Value.AsInt() != 1 {
		t.Fatalf("expected literal 1, got %#v", opt)
	}
}

func TestOptimizePreservesDivisionByZeroFailure(t *testing.T) {
	e, err := Parse("1 / 0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	opt := Optimize(e)
	if _, ok := opt.(*ast.ErrorLiteral); !ok {
		t.Fatalf("expected *ast.ErrorLiteral preserving the division-by-zero failure, got %#v", opt)
	}
}

func TestOptimizeCoalesceDropsUnreachableArgs(t *testing.T) {
	e, err := Parse(`coalesce(1, b, c)`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	opt := Optimize(e)
	c, ok := opt.(*ast.Coalesce)
	if !ok {
		t.Fatalf("expected *ast.Coalesce, got %#v", opt)
	}
	if len(c.Args) != 1 {
		t.Fatalf("expected coalesce to drop unreachable args after a literal non-null, got %d args", len(c.Args))
	}
}
