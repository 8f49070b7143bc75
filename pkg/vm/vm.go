// Package vm executes pkg/bytecode Programs against a value stack
// (spec.md §4.3). Evaluation is deterministic, single-threaded, and
// non-suspending: a Run call never performs I/O or blocks, aside from
// consulting the injected Clock and ExternalCall capabilities, both of
// which the host is responsible for keeping fast and non-blocking.
package vm

import (
	"fmt"

	"github.com/pama-lee/ordo/pkg/bytecode"
	"github.com/pama-lee/ordo/pkg/value"
)

// Scope resolves a field path's root segment against either the current
// run's assignment bindings or its input document (spec.md §4.4,
// "variable scope resolution"), then walks any remaining segments.
// Implementations own the field-missing policy entirely; the VM never
// inspects path semantics itself.
type Scope interface {
	ResolvePath(segments []string) (value.Value, error)
	// Exists reports whether segments resolve to a present value, without
	// raising under the Strict policy the way ResolvePath does for an
	// absent path. Backs the `exists()` builtin.
	Exists(segments []string) bool
}

// Clock is the host-supplied source of wall-clock time for now()/
// now_millis(). Production executions pass the system clock; tests pass
// a fixed clock so runs stay deterministic (spec.md §4.3).
type Clock interface {
	NowSeconds() int64
	NowMillis() int64
}

// ExternalCall is the optional host capability a ruleset may invoke by
// name from within an expression. Nil if the host doesn't support it;
// invoking the `call_external` builtin without one configured is a
// TypeError.
type ExternalCall func(name string, args []value.Value) (value.Value, error)

// VM evaluates one bytecode.Program at a time. A single VM value is not
// safe for concurrent use by multiple goroutines evaluating different
// programs simultaneously; callers wanting parallelism construct one VM
// per goroutine (construction is cheap — it holds no large state).
type VM struct {
	Scope    Scope
	Clock    Clock
	External ExternalCall
	Policy   value.MissingPolicy
	Default  value.Value

	builtins map[string]BuiltinFunc
}

// New creates a VM. The truthiness mode OpCoerceBool applies to a
// non-Bool operand is derived from policy, per spec.md §8's open
// question on the truthiness boundary: Strict field-missing policy
// implies strict truthiness (non-Bool raises TypeError); Lenient or
// Default policy implies lenient truthiness (Value.Truthy applies).
// Implementations must pick one mode per execution and hold it fixed.
func New(scope Scope, clock Clock, external ExternalCall, policy value.MissingPolicy, defaultValue value.Value) *VM {
	vm := &VM{Scope: scope, Clock: clock, External: external, Policy: policy, Default: defaultValue}
	vm.builtins = newRegistry(vm)
	return vm
}

func (vm *VM) strictTruthiness() bool { return vm.Policy == value.Strict }

// Run executes p to completion and returns its result value.
func (vm *VM) Run(p *bytecode.Program) (value.Value, error) {
	stack := make([]value.Value, 0, p.MaxDepth+4)
	pc := 0

	push := func(v value.Value) { stack = append(stack, v) }
	pop := func() (value.Value, error) {
		if len(stack) == 0 {
			return value.Value{}, fmt.Errorf("vm: stack underflow at pc=%d", pc)
		}
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v, nil
	}
	peek := func() (value.Value, error) {
		if len(stack) == 0 {
			return value.Value{}, fmt.Errorf("vm: stack underflow (peek) at pc=%d", pc)
		}
		return stack[len(stack)-1], nil
	}

	for pc < len(p.Instructions) {
		instr := p.Instructions[pc]
		pc++

		switch instr.Op {
		case bytecode.OpConst:
			if instr.Operand < 0 || instr.Operand >= len(p.Constants) {
				return value.Value{}, fmt.Errorf("vm: constant index %d out of range", instr.Operand)
			}
			push(p.Constants[instr.Operand])

		case bytecode.OpLoadField:
			if instr.Operand < 0 || instr.Operand >= len(p.Paths) {
				return value.Value{}, fmt.Errorf("vm: path index %d out of range", instr.Operand)
			}
			if vm.Scope == nil {
				return value.Value{}, fmt.Errorf("vm: no scope configured to resolve field path")
			}
			v, err := vm.Scope.ResolvePath(p.Paths[instr.Operand])
			if err != nil {
				return value.Value{}, err
			}
			push(v)

		case bytecode.OpFieldExists:
			if instr.Operand < 0 || instr.Operand >= len(p.Paths) {
				return value.Value{}, fmt.Errorf("vm: path index %d out of range", instr.Operand)
			}
			if vm.Scope == nil {
				return value.Value{}, fmt.Errorf("vm: no scope configured to resolve field path")
			}
			push(value.Bool(vm.Scope.Exists(p.Paths[instr.Operand])))

		case bytecode.OpIndexGet:
			idx, err := pop()
			if err != nil {
				return value.Value{}, err
			}
			target, err := pop()
			if err != nil {
				return value.Value{}, err
			}
			v, err := value.Subscript(target, idx, vm.Policy, vm.Default)
			if err != nil {
				return value.Value{}, err
			}
			push(v)

		case bytecode.OpArrayBuild:
			n := instr.Operand
			if n < 0 || n > len(stack) {
				return value.Value{}, fmt.Errorf("vm: invalid array build count %d", n)
			}
			elems := make([]value.Value, n)
			copy(elems, stack[len(stack)-n:])
			stack = stack[:len(stack)-n]
			push(value.Array(elems))

		case bytecode.OpNeg:
			x, err := pop()
			if err != nil {
				return value.Value{}, err
			}
			v, err := value.Neg(x)
			if err != nil {
				return value.Value{}, err
			}
			push(v)

		case bytecode.OpNot:
			x, err := pop()
			if err != nil {
				return value.Value{}, err
			}
			b, err := vm.coerceBool(x)
			if err != nil {
				return value.Value{}, err
			}
			push(value.Bool(!b))

		case bytecode.OpAdd, bytecode.OpSub, bytecode.OpMul, bytecode.OpDiv, bytecode.OpMod:
			b, err := pop()
			if err != nil {
				return value.Value{}, err
			}
			a, err := pop()
			if err != nil {
				return value.Value{}, err
			}
			v, err := vm.arith(instr.Op, a, b)
			if err != nil {
				return value.Value{}, err
			}
			push(v)

		case bytecode.OpEq, bytecode.OpNe:
			b, err := pop()
			if err != nil {
				return value.Value{}, err
			}
			a, err := pop()
			if err != nil {
				return value.Value{}, err
			}
			eq := value.Equal(a, b)
			if instr.Op == bytecode.OpNe {
				eq = !eq
			}
			push(value.Bool(eq))

		case bytecode.OpLt, bytecode.OpLe, bytecode.OpGt, bytecode.OpGe:
			b, err := pop()
			if err != nil {
				return value.Value{}, err
			}
			a, err := pop()
			if err != nil {
				return value.Value{}, err
			}
			cmp, ok, err := value.Compare(a, b)
			if err != nil {
				return value.Value{}, err
			}
			var result bool
			if ok {
				switch instr.Op {
				case bytecode.OpLt:
					result = cmp < 0
				case bytecode.OpLe:
					result = cmp <= 0
				case bytecode.OpGt:
					result = cmp > 0
				case bytecode.OpGe:
					result = cmp >= 0
				}
			}
			push(value.Bool(result))

		case bytecode.OpCoerceBool:
			x, err := pop()
			if err != nil {
				return value.Value{}, err
			}
			b, err := vm.coerceBool(x)
			if err != nil {
				return value.Value{}, err
			}
			push(value.Bool(b))

		case bytecode.OpJump:
			pc = instr.Operand

		case bytecode.OpJumpIfFalse:
			x, err := pop()
			if err != nil {
				return value.Value{}, err
			}
			if !x.AsBool() {
				pc = instr.Operand
			}

		case bytecode.OpJumpIfTrue:
			x, err := pop()
			if err != nil {
				return value.Value{}, err
			}
			if x.AsBool() {
				pc = instr.Operand
			}

		case bytecode.OpJumpIfNotNull:
			x, err := peek()
			if err != nil {
				return value.Value{}, err
			}
			if !x.IsNull() {
				pc = instr.Operand
			}

		case bytecode.OpPop:
			if _, err := pop(); err != nil {
				return value.Value{}, err
			}

		case bytecode.OpCallBuiltin:
			if instr.Operand < 0 || instr.Operand >= len(p.Names) {
				return value.Value{}, fmt.Errorf("vm: name index %d out of range", instr.Operand)
			}
			name := p.Names[instr.Operand]
			argc := instr.Operand2
			if argc < 0 || argc > len(stack) {
				return value.Value{}, fmt.Errorf("vm: invalid arg count %d for %s", argc, name)
			}
			args := make([]value.Value, argc)
			copy(args, stack[len(stack)-argc:])
			stack = stack[:len(stack)-argc]
			fn, ok := vm.builtins[name]
			if !ok {
				return value.Value{}, fmt.Errorf("vm: unknown builtin %q", name)
			}
			v, err := fn(args)
			if err != nil {
				return value.Value{}, err
			}
			push(v)

		case bytecode.OpReturn:
			return pop()

		default:
			return value.Value{}, fmt.Errorf("vm: unhandled opcode %s", instr.Op)
		}
	}

	if len(stack) == 0 {
		return value.Null(), nil
	}
	return stack[len(stack)-1], nil
}

func (vm *VM) coerceBool(v value.Value) (bool, error) {
	if v.Kind() == value.KindBool {
		return v.AsBool(), nil
	}
	if vm.strictTruthiness() {
		return false, &value.TypeError{Message: "expected Bool, got " + v.TypeName()}
	}
	return v.Truthy(), nil
}

// CoerceBool applies the VM's truthiness mode to v, the same rule
// OpCoerceBool uses for &&/||/if. Callers outside this package that need
// to turn an arbitrary expression result into a branch decision (e.g. a
// ruleset Decision step's condition) use this instead of requiring
// KindBool directly, so a single run never mixes truthiness modes.
func (vm *VM) CoerceBool(v value.Value) (bool, error) {
	return vm.coerceBool(v)
}

func (vm *VM) arith(op bytecode.Opcode, a, b value.Value) (value.Value, error) {
	switch op {
	case bytecode.OpAdd:
		return value.Add(a, b)
	case bytecode.OpSub:
		return value.Sub(a, b)
	case bytecode.OpMul:
		return value.Mul(a, b)
	case bytecode.OpDiv:
		return value.Div(a, b)
	case bytecode.OpMod:
		return value.Mod(a, b)
	default:
		return value.Value{}, fmt.Errorf("vm: not an arithmetic opcode: %s", op)
	}
}
