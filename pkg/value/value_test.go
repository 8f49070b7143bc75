package value

import (
	"math"
	"testing"
)

func TestTruthy(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want bool
	}{
		{"null", Null(), false},
		{"false", Bool(false), false},
		{"true", Bool(true), true},
		{"zero int", Int(0), false},
		{"nonzero int", Int(1), true},
		{"zero float", Float(0), false},
		{"negative zero float", Float(math.Copysign(0, -1)), false},
		{"nan float", Float(nan()), false},
		{"nonzero float", Float(1.5), true},
		{"empty string", String(""), false},
		{"nonempty string", String("x"), true},
		{"empty array", Array(nil), false},
		{"nonempty array", Array([]Value{Int(1)}), true},
		{"empty object", FromObject(NewObject()), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.Truthy(); got != tt.want {
				t.Errorf("Truthy() = %v, want %v", got, tt.want)
			}
		})
	}
}

func nan() float64 {
	var zero float64
	return zero / zero
}

func TestEqualNumericPromotion(t *testing.T) {
	if !Equal(Int(2), Float(2.0)) {
		t.Error("Int(2) should equal Float(2.0)")
	}
	if Equal(Float(nan()), Float(nan())) {
		t.Error("NaN must not equal NaN")
	}
	if Equal(Null(), Bool(false)) {
		t.Error("Null must only equal Null")
	}
	if !Equal(Null(), Null()) {
		t.Error("Null must equal Null")
	}
}

func TestObjectInsertionOrder(t *testing.T) {
	o := NewObject()
	o.Set("z", Int(1))
	o.Set("a", Int(2))
	o.Set("m", Int(3))

	want := []string{"z", "a", "m"}
	got := o.Keys()
	if len(got) != len(want) {
		t.Fatalf("Keys() length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Keys()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	sorted := o.SortedKeys()
	wantSorted := []string{"a", "m", "z"}
	for i := range wantSorted {
		if sorted[i] != wantSorted[i] {
			t.Errorf("SortedKeys()[%d] = %q, want %q", i, sorted[i], wantSorted[i])
		}
	}
}

func TestFieldLenientStrictDefault(t *testing.T) {
	o := NewObject()
	o.Set("user", FromObject(NewObject()))

	root := FromObject(o)

	v, err := Field(root, []string{"user", "vip"}, Lenient, Null())
	if err != nil {
		t.Fatalf("lenient Field returned error: %v", err)
	}
	if !v.IsNull() {
		t.Errorf("lenient missing field should be Null, got %v", v)
	}

	_, err = Field(root, []string{"user", "vip"}, Strict, Null())
	if err == nil {
		t.Fatal("strict Field should error on missing field")
	}
	if _, ok := err.(*MissingFieldError); !ok {
		t.Errorf("expected *MissingFieldError, got %T", err)
	}

	def := String("fallback")
	v, err = Field(root, []string{"user", "vip"}, Default, def)
	if err != nil {
		t.Fatalf("default Field returned error: %v", err)
	}
	if v.AsString() != "fallback" {
		t.Errorf("default Field = %v, want fallback", v)
	}
}

func TestFieldArrayIndex(t *testing.T) {
	arr := Array([]Value{String("a"), String("b"), String("c")})

	v, err := Field(arr, []string{"1"}, Strict, Null())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.AsString() != "b" {
		t.Errorf("Field index 1 = %v, want b", v)
	}

	_, err = Field(arr, []string{"9"}, Strict, Null())
	if err == nil {
		t.Fatal("out-of-range index under strict should error")
	}

	v, err = Field(arr, []string{"9"}, Lenient, Null())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.IsNull() {
		t.Errorf("out-of-range index under lenient should be Null, got %v", v)
	}
}

func TestCanonicalJSONKeyOrder(t *testing.T) {
	o := NewObject()
	o.Set("z", Int(1))
	o.Set("a", Int(2))

	b, err := FromObject(o).MarshalCanonicalJSON()
	if err != nil {
		t.Fatalf("MarshalCanonicalJSON failed: %v", err)
	}
	want := `{"a":2,"z":1}`
	if string(b) != want {
		t.Errorf("MarshalCanonicalJSON() = %s, want %s", string(b), want)
	}
}

func TestFromJSONOrderedPreservesKeyOrder(t *testing.T) {
	v, err := FromJSONOrdered([]byte(`{"z":1,"a":2,"m":3}`))
	if err != nil {
		t.Fatalf("FromJSONOrdered failed: %v", err)
	}
	got := v.AsObject().Keys()
	want := []string{"z", "a", "m"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Keys()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
