package internal

import (
	"math"
	"strconv"
	"strings"
)

// NumberTag is the Tag for Number wrapper objects. Their Value is the wrapped
// float64.
const NumberTag BasicTag = "Number"

func nan() float64 {
	return math.NaN()
}

// NewNumber creates a Number wrapper object.
func (vm *VM) NewNumber(f float64) *Object {
	return vm.ObjectWith(nil, vm.NumberPrototype, f, NumberTag)
}

// initNumber installs Number.
func (vm *VM) initNumber() {
	vm.NumberPrototype = vm.intrinsic(vm.ObjectWith(nil, vm.ObjectPrototype, 0.0, NumberTag))
	slots := Slots{
		"toFixed":  vm.fn("toFixed", 1, NumberToFixed),
		"toString": vm.fn("toString", 1, NumberToStringMethod),
		"valueOf":  vm.fn("valueOf", 0, NumberValueOf),
	}
	vm.SetSlots(vm.NumberPrototype, slots)
	c := vm.coreInstall("Number", 1, numberCall, numberConstruct, NumberTag, vm.NumberPrototype, nil)
	consts := map[string]float64{
		"MAX_VALUE":         math.MaxFloat64,
		"MIN_VALUE":         math.SmallestNonzeroFloat64,
		"NaN":               math.NaN(),
		"NEGATIVE_INFINITY": math.Inf(-1),
		"POSITIVE_INFINITY": math.Inf(1),
	}
	for _, name := range sortedKeys(consts) {
		c.DefineOwnProperty(name, Number(consts[name]), ReadOnly|DontEnum|DontDelete)
	}
}

func numberCall(vm *VM, this Value, args List) Completion {
	if args.Len() == 0 {
		return Normal(Number(0))
	}
	n, c := vm.ToNumber(args.At(0))
	if c.Abrupt() {
		return c
	}
	return Normal(Number(n))
}

func numberConstruct(vm *VM, obj *Object, args List) Completion {
	c := numberCall(vm, Undefined(), args)
	if c.Abrupt() {
		return c
	}
	obj.Value = c.Value.Num()
	return Normal(ObjectValue(obj))
}

// thisNumber extracts the number a Number.prototype method operates on.
func (vm *VM) thisNumber(this Value, method string) (float64, Completion) {
	if this.IsNumber() {
		return this.Num(), Completion{}
	}
	if o := this.Object(); o != nil && o.Tag() == NumberTag {
		f, _ := o.Value.(float64)
		return f, Completion{}
	}
	return 0, vm.TypeError("Number.prototype.%s requires that 'this' be a Number", method)
}

// NumberValueOf is a Number.prototype method.
//
// valueOf returns the wrapped number.
func NumberValueOf(vm *VM, this Value, args List) Completion {
	f, c := vm.thisNumber(this, "valueOf")
	if c.Abrupt() {
		return c
	}
	return Normal(Number(f))
}

// NumberToStringMethod is a Number.prototype method.
//
// toString formats the number in a radix between 2 and 36, default 10.
func NumberToStringMethod(vm *VM, this Value, args List) Completion {
	f, c := vm.thisNumber(this, "toString")
	if c.Abrupt() {
		return c
	}
	radix := 10.0
	if r := args.At(0); !r.IsUndefined() {
		if radix, c = vm.ToNumber(r); c.Abrupt() {
			return c
		}
		radix = ToInteger(radix)
	}
	if radix < 2 || radix > 36 {
		return vm.RangeError("toString() radix must be between 2 and 36")
	}
	if radix == 10 || math.IsNaN(f) || math.IsInf(f, 0) {
		return Normal(String(NumberToString(f)))
	}
	return Normal(String(formatRadix(f, int(radix))))
}

// formatRadix formats a finite number in the given radix.
func formatRadix(f float64, radix int) string {
	neg := f < 0
	f = math.Abs(f)
	ip, fp := math.Modf(f)
	b := strings.Builder{}
	if neg {
		b.WriteByte('-')
	}
	if ip < 1<<63 {
		b.WriteString(strconv.FormatUint(uint64(ip), radix))
	} else {
		b.WriteString(strconv.FormatFloat(ip, 'f', -1, 64))
	}
	if fp > 0 {
		b.WriteByte('.')
		for i := 0; i < 52 && fp > 0; i++ {
			fp *= float64(radix)
			d := int(fp)
			b.WriteByte(strconv.FormatInt(int64(d), radix)[0])
			fp -= float64(d)
		}
	}
	return b.String()
}

// NumberToFixed is a Number.prototype method.
//
// toFixed formats the number with a fixed number of fraction digits.
func NumberToFixed(vm *VM, this Value, args List) Completion {
	f, c := vm.thisNumber(this, "toFixed")
	if c.Abrupt() {
		return c
	}
	d, c := vm.ToNumber(args.At(0))
	if c.Abrupt() {
		return c
	}
	d = ToInteger(d)
	if d < 0 || d > 100 {
		return vm.RangeError("toFixed() digits argument must be between 0 and 100")
	}
	if math.Abs(f) >= 1e21 || math.IsNaN(f) {
		return Normal(String(NumberToString(f)))
	}
	return Normal(String(strconv.FormatFloat(f, 'f', int(d), 64)))
}
