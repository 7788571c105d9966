package internal

import (
	"math"
	"strconv"
	"strings"
)

// ToBoolean converts a value to a boolean.
func ToBoolean(v Value) bool {
	switch v.kind {
	case UndefinedKind, NullKind:
		return false
	case BooleanKind:
		return v.num != 0
	case NumberKind:
		return !(v.num == 0 || math.IsNaN(v.num))
	case StringKind:
		return v.str != ""
	}
	return true
}

// Hint selects the preferred result type of ToPrimitive.
type Hint int

// Conversion hints.
const (
	HintDefault Hint = iota
	HintNumber
	HintString
)

// ToPrimitive converts a value to a non-object value. Objects are converted by
// calling their valueOf and toString methods in the order the hint prefers.
func (vm *VM) ToPrimitive(v Value, hint Hint) (Value, Completion) {
	o := v.Object()
	if o == nil {
		return v, Completion{}
	}
	order := [2]string{"valueOf", "toString"}
	if hint == HintString {
		order = [2]string{"toString", "valueOf"}
	}
	for _, name := range order {
		m, _ := o.Get(name)
		if !IsCallable(m) {
			continue
		}
		r := vm.Call(m, v, List{})
		if r.Abrupt() {
			return Undefined(), r
		}
		if !r.Value.IsObject() {
			return r.Value, Completion{}
		}
	}
	return Undefined(), vm.TypeError("Cannot convert object to primitive value")
}

// ToNumber converts a value to a number.
func (vm *VM) ToNumber(v Value) (float64, Completion) {
	switch v.kind {
	case UndefinedKind:
		return math.NaN(), Completion{}
	case NullKind:
		return 0, Completion{}
	case BooleanKind, NumberKind:
		return v.num, Completion{}
	case StringKind:
		return StringToNumber(v.str), Completion{}
	}
	p, c := vm.ToPrimitive(v, HintNumber)
	if c.Abrupt() {
		return 0, c
	}
	return vm.ToNumber(p)
}

// ToString converts a value to a string.
func (vm *VM) ToString(v Value) (string, Completion) {
	if v.kind != ObjectKind {
		return v.String(), Completion{}
	}
	p, c := vm.ToPrimitive(v, HintString)
	if c.Abrupt() {
		return "", c
	}
	return p.String(), Completion{}
}

// ToObject converts a value to an object, wrapping primitives. Converting
// undefined or null is a TypeError.
func (vm *VM) ToObject(v Value) (*Object, Completion) {
	switch v.kind {
	case UndefinedKind, NullKind:
		return nil, vm.TypeError("Cannot convert %v to object", v)
	case BooleanKind:
		return vm.NewBoolean(v.num != 0), Completion{}
	case NumberKind:
		return vm.NewNumber(v.num), Completion{}
	case StringKind:
		return vm.NewString(v.str), Completion{}
	}
	return v.obj, Completion{}
}

// ToInteger converts a number to an integral value, truncating toward zero.
// NaN becomes 0.
func ToInteger(f float64) float64 {
	if math.IsNaN(f) {
		return 0
	}
	if math.IsInf(f, 0) {
		return f
	}
	return math.Trunc(f)
}

// ToInt32 converts a number to a 32-bit signed integer with wraparound.
func ToInt32(f float64) int32 {
	return int32(ToUint32(f))
}

// ToUint32 converts a number to a 32-bit unsigned integer with wraparound.
func ToUint32(f float64) uint32 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	f = math.Mod(math.Trunc(f), 1<<32)
	if f < 0 {
		f += 1 << 32
	}
	return uint32(f)
}

// StringToNumber parses a string using numeric literal syntax. Surrounding
// whitespace is ignored, the empty string is 0, and anything unparsable is
// NaN.
func StringToNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		n, err := strconv.ParseUint(s[2:], 16, 64)
		if err != nil {
			if isHex(s[2:]) {
				f, _ := strconv.ParseFloat("0x"+s[2:]+"p0", 64)
				return f
			}
			return math.NaN()
		}
		return float64(n)
	}
	switch s {
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	// ParseFloat accepts forms which are not numeric literals.
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.', r == 'e', r == 'E', r == '+', r == '-':
		default:
			return math.NaN()
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return f
		}
		return math.NaN()
	}
	return f
}

func isHex(s string) bool {
	for _, r := range s {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f' || r >= 'A' && r <= 'F') {
			return false
		}
	}
	return s != ""
}

// NumberToString formats a number the way scripts see it.
func NumberToString(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	a := math.Abs(f)
	if a >= 1e-6 && a < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	s := strconv.FormatFloat(f, 'e', -1, 64)
	// Go writes exponents with at least two digits and an explicit sign.
	mant, exp, _ := strings.Cut(s, "e")
	sign := exp[0]
	exp = strings.TrimLeft(exp[1:], "0")
	if exp == "" {
		exp = "0"
	}
	return mant + "e" + string(sign) + exp
}

// TypeOf returns the result of the typeof operator for v.
func TypeOf(v Value) string {
	switch v.kind {
	case UndefinedKind:
		return "undefined"
	case NullKind:
		return "object"
	case BooleanKind:
		return "boolean"
	case NumberKind:
		return "number"
	case StringKind:
		return "string"
	}
	if IsCallable(v) {
		return "function"
	}
	return "object"
}

// StrictEquals implements the === operator.
func StrictEquals(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case UndefinedKind, NullKind:
		return true
	case BooleanKind, NumberKind:
		return a.num == b.num
	case StringKind:
		return a.str == b.str
	}
	return a.obj == b.obj
}

// SameValue is like StrictEquals, except that NaN equals itself and positive
// and negative zero differ.
func SameValue(a, b Value) bool {
	if a.kind == NumberKind && b.kind == NumberKind {
		if math.IsNaN(a.num) && math.IsNaN(b.num) {
			return true
		}
		if a.num == 0 && b.num == 0 {
			return math.Signbit(a.num) == math.Signbit(b.num)
		}
	}
	return StrictEquals(a, b)
}

// LooseEquals implements the == operator.
func (vm *VM) LooseEquals(a, b Value) (bool, Completion) {
	for {
		if a.kind == b.kind {
			return StrictEquals(a, b), Completion{}
		}
		switch {
		case a.IsNullish() && b.IsNullish():
			return true, Completion{}
		case a.IsNullish() || b.IsNullish():
			return false, Completion{}
		case a.kind == NumberKind && b.kind == StringKind:
			return a.num == StringToNumber(b.str), Completion{}
		case a.kind == StringKind && b.kind == NumberKind:
			return StringToNumber(a.str) == b.num, Completion{}
		case a.kind == BooleanKind:
			a = Number(a.num)
		case b.kind == BooleanKind:
			b = Number(b.num)
		case a.kind == ObjectKind:
			p, c := vm.ToPrimitive(a, HintDefault)
			if c.Abrupt() {
				return false, c
			}
			a = p
		case b.kind == ObjectKind:
			p, c := vm.ToPrimitive(b, HintDefault)
			if c.Abrupt() {
				return false, c
			}
			b = p
		default:
			return false, Completion{}
		}
	}
}
