// Package value implements the universal dynamic value type shared by
// ruleset inputs, variable bindings, and expression results.
package value

import (
	"fmt"
	"math"
	"sort"
	"unicode/utf8"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindBytes
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is a tagged union over the variants {Null, Bool, Int, Float,
// String, Bytes, Array, Object}. Exactly one of the typed accessors is
// meaningful for a given Kind; the rest hold the zero value.
//
// Value is deliberately a plain struct rather than an interface hierarchy:
// Kind + payload is exhaustively switchable and avoids an open class
// hierarchy for what is a closed sum type.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	byt  []byte
	arr  []Value
	obj  *Object
}

// Object is an insertion-ordered string-keyed mapping of Value. Go maps
// have no defined iteration order, so key order is tracked explicitly
// alongside the backing map.
type Object struct {
	keys   []string
	values map[string]Value
}

// NewObject creates an empty ordered object.
func NewObject() *Object {
	return &Object{values: make(map[string]Value)}
}

// Set inserts or overwrites a key. A fresh key is appended to the end of
// the iteration order; overwriting an existing key does not move it.
func (o *Object) Set(key string, v Value) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
}

// Get returns the value for key and whether it was present.
func (o *Object) Get(key string) (Value, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Keys returns the keys in insertion order. The caller must not mutate it.
func (o *Object) Keys() []string { return o.keys }

// Len returns the number of keys.
func (o *Object) Len() int { return len(o.keys) }

// SortedKeys returns a freshly allocated, lexicographically sorted copy of
// the keys — used by canonical-JSON encoding, never by normal iteration.
func (o *Object) SortedKeys() []string {
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	sort.Strings(out)
	return out
}

// Clone returns a deep copy of the object.
func (o *Object) Clone() *Object {
	if o == nil {
		return NewObject()
	}
	out := &Object{
		keys:   append([]string(nil), o.keys...),
		values: make(map[string]Value, len(o.values)),
	}
	for k, v := range o.values {
		out.values[k] = v.Clone()
	}
	return out
}

// Constructors

func Null() Value                { return Value{kind: KindNull} }
func Bool(b bool) Value          { return Value{kind: KindBool, b: b} }
func Int(i int64) Value          { return Value{kind: KindInt, i: i} }
func Float(f float64) Value      { return Value{kind: KindFloat, f: f} }
func String(s string) Value      { return Value{kind: KindString, s: s} }
func Bytes(b []byte) Value       { return Value{kind: KindBytes, byt: b} }
func Array(items []Value) Value  { return Value{kind: KindArray, arr: items} }
func FromObject(o *Object) Value { return Value{kind: KindObject, obj: o} }

// Accessors

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }
func (v Value) AsBool() bool { return v.b }
func (v Value) AsInt() int64 { return v.i }
func (v Value) AsFloat() float64 {
	if v.kind == KindInt {
		return float64(v.i)
	}
	return v.f
}
func (v Value) AsString() string { return v.s }
func (v Value) AsBytes() []byte  { return v.byt }
func (v Value) AsArray() []Value { return v.arr }
func (v Value) AsObject() *Object {
	if v.obj == nil {
		return NewObject()
	}
	return v.obj
}

// Clone returns a deep copy. Scalars are copied by value already; arrays
// and objects are recursively copied so that no Value ever shares mutable
// backing storage with another once cloned.
func (v Value) Clone() Value {
	switch v.kind {
	case KindArray:
		out := make([]Value, len(v.arr))
		for i, e := range v.arr {
			out[i] = e.Clone()
		}
		return Array(out)
	case KindObject:
		return FromObject(v.obj.Clone())
	case KindBytes:
		out := make([]byte, len(v.byt))
		copy(out, v.byt)
		return Bytes(out)
	default:
		return v
	}
}

// Truthy implements the lenient truthiness rules of spec.md §4.1: false
// for Null, Bool false, Int 0, Float ±0 or NaN, and empty String/Array/
// Object; true otherwise.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNull:
		return false
	case KindBool:
		return v.b
	case KindInt:
		return v.i != 0
	case KindFloat:
		return v.f != 0 && !math.IsNaN(v.f)
	case KindString:
		return v.s != ""
	case KindBytes:
		return len(v.byt) != 0
	case KindArray:
		return len(v.arr) != 0
	case KindObject:
		return v.obj != nil && v.obj.Len() != 0
	default:
		return true
	}
}

// Len implements the len() builtin's notion of length for String (Unicode
// scalar count), Array, and Object; any other Kind has no length.
func (v Value) Len() (int, bool) {
	switch v.kind {
	case KindString:
		return utf8.RuneCountInString(v.s), true
	case KindArray:
		return len(v.arr), true
	case KindObject:
		return v.AsObject().Len(), true
	default:
		return 0, false
	}
}

// Equal implements structural equality. NaN is explicitly unequal to
// itself, matching IEEE-754 equality semantics required by spec.md §4.3.
func Equal(a, b Value) bool {
	// Numeric cross-type equality promotes Int to Float.
	if (a.kind == KindInt || a.kind == KindFloat) && (b.kind == KindInt || b.kind == KindFloat) {
		if a.kind == KindInt && b.kind == KindInt {
			return a.i == b.i
		}
		af, bf := a.AsFloat(), b.AsFloat()
		if math.IsNaN(af) || math.IsNaN(bf) {
			return false
		}
		return af == bf
	}

	if a.kind != b.kind {
		return false
	}

	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindString:
		return a.s == b.s
	case KindBytes:
		if len(a.byt) != len(b.byt) {
			return false
		}
		for i := range a.byt {
			if a.byt[i] != b.byt[i] {
				return false
			}
		}
		return true
	case KindArray:
		if len(a.arr) != len(b.arr) {
			return false
		}
		for i := range a.arr {
			if !Equal(a.arr[i], b.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		ao, bo := a.AsObject(), b.AsObject()
		if ao.Len() != bo.Len() {
			return false
		}
		for _, k := range ao.Keys() {
			av, _ := ao.Get(k)
			bv, ok := bo.Get(k)
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// TypeName returns the type() builtin's name for the value's kind.
func (v Value) TypeName() string { return v.kind.String() }

func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindFloat:
		return fmt.Sprintf("%g", v.f)
	case KindString:
		return v.s
	case KindBytes:
		return fmt.Sprintf("bytes(%d)", len(v.byt))
	case KindArray:
		return fmt.Sprintf("array(%d)", len(v.arr))
	case KindObject:
		return fmt.Sprintf("object(%d)", v.AsObject().Len())
	default:
		return "?"
	}
}
