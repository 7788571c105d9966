package internal

import (
	"math"
	"testing"
)

func TestNumberToString(t *testing.T) {
	// Variables keep the sum from being computed exactly as a constant.
	tenth, fifth := 0.1, 0.2
	cases := []struct {
		f    float64
		want string
	}{
		{0, "0"},
		{math.Copysign(0, -1), "0"},
		{1, "1"},
		{-42, "-42"},
		{0.5, "0.5"},
		{tenth + fifth, "0.30000000000000004"},
		{123.456, "123.456"},
		{1e21, "1e+21"},
		{1.5e-7, "1.5e-7"},
		{1e-6, "0.000001"},
		{123456789012345680000, "123456789012345680000"},
		{math.NaN(), "NaN"},
		{math.Inf(1), "Infinity"},
		{math.Inf(-1), "-Infinity"},
	}
	for _, c := range cases {
		if got := NumberToString(c.f); got != c.want {
			t.Errorf("NumberToString(%v): want %q, got %q", c.f, c.want, got)
		}
	}
}

func TestStringToNumber(t *testing.T) {
	cases := map[string]float64{
		"":          0,
		"  ":        0,
		"12":        12,
		" 12 ":      12,
		"-3.5":      -3.5,
		"1e3":       1000,
		"0x1F":      31,
		"Infinity":  math.Inf(1),
		"-Infinity": math.Inf(-1),
		".5":        0.5,
	}
	for s, want := range cases {
		if got := StringToNumber(s); got != want {
			t.Errorf("StringToNumber(%q): want %v, got %v", s, want, got)
		}
	}
	for _, s := range []string{"abc", "12px", "0x", "0xZZ", "inf", "NaN", "1_000"} {
		if got := StringToNumber(s); !math.IsNaN(got) {
			t.Errorf("StringToNumber(%q): want NaN, got %v", s, got)
		}
	}
}

func TestToInt32(t *testing.T) {
	cases := []struct {
		f    float64
		want int32
	}{
		{0, 0},
		{1.9, 1},
		{-1.9, -1},
		{math.NaN(), 0},
		{math.Inf(1), 0},
		{1 << 31, math.MinInt32},
		{1 << 32, 0},
		{-(1 << 32) - 1, -1},
		{4294967295, -1},
	}
	for _, c := range cases {
		if got := ToInt32(c.f); got != c.want {
			t.Errorf("ToInt32(%v): want %d, got %d", c.f, c.want, got)
		}
	}
	if got := ToUint32(-1); got != math.MaxUint32 {
		t.Errorf("ToUint32(-1): want %d, got %d", uint32(math.MaxUint32), got)
	}
}

func TestToBoolean(t *testing.T) {
	vm := NewVM()
	falsy := []Value{Undefined(), Null(), Bool(false), Number(0), Number(math.NaN()), String("")}
	for _, v := range falsy {
		if ToBoolean(v) {
			t.Errorf("%v should be falsy", v)
		}
	}
	truthy := []Value{Bool(true), Number(-1), String("0"), String("false"), ObjectValue(vm.NewObject(nil)), ObjectValue(vm.NewBoolean(false))}
	for _, v := range truthy {
		if !ToBoolean(v) {
			t.Errorf("%v should be truthy", v)
		}
	}
}

func TestEquality(t *testing.T) {
	vm := NewVM()
	o := ObjectValue(vm.NewObject(nil))
	nan := Number(math.NaN())
	negz := Number(math.Copysign(0, -1))
	cases := []struct {
		name         string
		a, b         Value
		strict, same bool
		loose        bool
	}{
		{"NaN", nan, nan, false, true, false},
		{"Zeros", Number(0), negz, true, false, true},
		{"Object", o, o, true, true, true},
		{"DistinctObjects", o, ObjectValue(vm.NewObject(nil)), false, false, false},
		{"NumberString", Number(1), String("1"), false, false, true},
		{"BoolNumber", Bool(true), Number(1), false, false, true},
		{"NullUndefined", Null(), Undefined(), false, false, true},
		{"NullZero", Null(), Number(0), false, false, false},
		{"Strings", String("a"), String("a"), true, true, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := StrictEquals(c.a, c.b); got != c.strict {
				t.Errorf("StrictEquals: want %v, got %v", c.strict, got)
			}
			if got := SameValue(c.a, c.b); got != c.same {
				t.Errorf("SameValue: want %v, got %v", c.same, got)
			}
			got, r := vm.LooseEquals(c.a, c.b)
			if r.Abrupt() {
				t.Fatalf("LooseEquals threw %v", r)
			}
			if got != c.loose {
				t.Errorf("LooseEquals: want %v, got %v", c.loose, got)
			}
		})
	}
}

func TestToPrimitiveOrder(t *testing.T) {
	vm := NewVM()
	c, err := vm.RunString(`var o = {valueOf: function () { return 2 }, toString: function () { return "s" }}; [o + 1, String(o), o * 3].join()`, "TestToPrimitiveOrder")
	if err != nil {
		t.Fatal(err)
	}
	if c.Abrupt() || c.Value.Str() != "3,s,6" {
		t.Errorf("wrong conversions: %v", c)
	}
	c, err = vm.RunString(`var bad = {valueOf: function () { return {} }, toString: function () { return {} }}; bad + 1`, "TestToPrimitiveOrder")
	if err != nil {
		t.Fatal(err)
	}
	if e, ok := AsThrowError(c.Err()); !ok || !e.IsKind(TypeError) {
		t.Errorf("object without primitive conversion should throw TypeError, got %v", c)
	}
}
