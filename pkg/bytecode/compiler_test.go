package bytecode

import (
	"testing"

	"github.com/pama-lee/ordo/pkg/lang"
)

func compileSource(t *testing.T, src string) *Program {
	t.Helper()
	e, err := lang.Parse(src)
	if err != nil {
		t.Fatalf("parse(%q): %v", src, err)
	}
	p, err := Compile(e)
	if err != nil {
		t.Fatalf("compile(%q): %v", src, err)
	}
	return p
}

func TestCompileConstantDedup(t *testing.T) {
	p := compileSource(t, `1 + 1`)
	if len(p.Constants) != 1 {
		t.Fatalf("expected 1 deduplicated constant, got %d: %v", len(p.Constants), p.Constants)
	}
}

func TestCompileFieldPathInterning(t *testing.T) {
	p := compileSource(t, `a.b + a.b`)
	if len(p.Paths) != 1 {
		t.Fatalf("expected 1 interned path, got %d: %v", len(p.Paths), p.Paths)
	}
}

func TestCompileEndsWithReturn(t *testing.T) {
	p := compileSource(t, `1`)
	last := p.Instructions[len(p.Instructions)-1]
	if last.Op != OpReturn {
		t.Fatalf("expected program to end with OpReturn, got %s", last.Op)
	}
}

func TestCompileShortCircuitEmitsJumps(t *testing.T) {
	p := compileSource(t, `a && b`)
	found := false
	for _, instr := range p.Instructions {
		if instr.Op == OpJumpIfFalse {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a JUMP_IF_FALSE instruction for &&")
	}
}

func TestCompileCoalesceEmitsJumpIfNotNull(t *testing.T) {
	p := compileSource(t, `coalesce(a, b, c)`)
	count := 0
	for _, instr := range p.Instructions {
		if instr.Op == OpJumpIfNotNull {
			count++
		}
	}
	if count != 2 {
		t.Fatalf("expected 2 JUMP_IF_NOT_NULL instructions (one per non-final arg), got %d", count)
	}
}

func TestDisassembleProducesOutput(t *testing.T) {
	p := compileSource(t, `1 + len(a)`)
	out := Disassemble(p)
	if out == "" {
		t.Fatal("expected non-empty disassembly")
	}
}
