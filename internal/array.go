package internal

import (
	"math"
	"strconv"
	"strings"
)

// array is the Value of Array objects. Elements are stored as ordinary
// properties named by their indices.
type array struct {
	length uint32
}

// tagArray is the Tag type for Array objects.
type tagArray struct{}

// ArrayTag is the Tag for Array objects. Their length property tracks the
// largest index assigned, and assigning it truncates the array.
var ArrayTag tagArray

func (tagArray) String() string {
	return "Array"
}

func (tagArray) GetOwn(self *Object, name string) (Value, bool) {
	if name == "length" {
		return Number(float64(arrayOf(self).length)), true
	}
	return Value{}, false
}

func (tagArray) PutOwn(self *Object, name string, v Value) bool {
	a := arrayOf(self)
	if name == "length" {
		// Scripts assign through setArrayLength, which converts and checks
		// the value. Here only primitives can be converted.
		var n float64
		switch v.Kind() {
		case NumberKind:
			n = v.Num()
		case StringKind:
			n = StringToNumber(v.Str())
		case BooleanKind:
			if v.Bool() {
				n = 1
			}
		}
		a.truncate(self, ToUint32(n))
		return true
	}
	if i, ok := arrayIndex(name); ok && i >= a.length {
		a.length = i + 1
	}
	return false
}

// setArrayLength assigns the length of an array. The value is converted to a
// number, which must be a valid array length.
func (vm *VM) setArrayLength(self *Object, v Value) Completion {
	n, c := vm.ToNumber(v)
	if c.Abrupt() {
		return c
	}
	if float64(ToUint32(n)) != n {
		return vm.RangeError("Invalid array length")
	}
	arrayOf(self).truncate(self, uint32(n))
	return Normal(v)
}

// truncate sets the length of the array, deleting elements at or past it.
func (a *array) truncate(self *Object, n uint32) {
	if n < a.length {
		for _, k := range self.Keys() {
			if i, ok := arrayIndex(k); ok && i >= n {
				self.Delete(k)
			}
		}
	}
	a.length = n
}

// arrayOf returns the array state of self, creating it for objects allocated
// by construction before the constructor ran.
func arrayOf(self *Object) *array {
	a, _ := self.Value.(*array)
	if a == nil {
		a = &array{}
		self.Value = a
	}
	return a
}

// arrayIndex parses a canonical array index.
func arrayIndex(name string) (uint32, bool) {
	if name == "" || len(name) > 10 || (name[0] == '0' && len(name) > 1) {
		return 0, false
	}
	n, err := strconv.ParseUint(name, 10, 32)
	if err != nil || n == math.MaxUint32 {
		return 0, false
	}
	return uint32(n), true
}

// NewArray creates an Array holding the given values.
func (vm *VM) NewArray(vals []Value) *Object {
	r := vm.ObjectWith(nil, vm.ArrayPrototype, &array{}, ArrayTag)
	for i, v := range vals {
		r.Put(strconv.Itoa(i), v)
	}
	return r
}

// ArrayValues returns the elements of an array-like object.
func (vm *VM) ArrayValues(o *Object) ([]Value, Completion) {
	return vm.arrayLikeValues(o)
}

// lengthOf returns the length property of an array-like object.
func (vm *VM) lengthOf(o *Object) (uint32, Completion) {
	v, _ := o.Get("length")
	n, c := vm.ToNumber(v)
	if c.Abrupt() {
		return 0, c
	}
	return ToUint32(n), Completion{}
}

func (vm *VM) arrayLikeValues(o *Object) ([]Value, Completion) {
	n, c := vm.lengthOf(o)
	if c.Abrupt() {
		return nil, c
	}
	vals := make([]Value, n)
	for i := range vals {
		vals[i], _ = o.Get(strconv.Itoa(i))
	}
	return vals, Completion{}
}

// initArray installs Array.
func (vm *VM) initArray() {
	vm.ArrayPrototype = vm.intrinsic(vm.ObjectWith(nil, vm.ObjectPrototype, &array{}, ArrayTag))
	slots := Slots{
		"concat":   vm.fn("concat", 1, ArrayConcat),
		"filter":   vm.fn("filter", 1, ArrayFilter),
		"forEach":  vm.fn("forEach", 1, ArrayForEach),
		"indexOf":  vm.fn("indexOf", 1, ArrayIndexOf),
		"join":     vm.fn("join", 1, ArrayJoin),
		"map":      vm.fn("map", 1, ArrayMap),
		"pop":      vm.fn("pop", 0, ArrayPop),
		"push":     vm.fn("push", 1, ArrayPush),
		"reverse":  vm.fn("reverse", 0, ArrayReverse),
		"shift":    vm.fn("shift", 0, ArrayShift),
		"slice":    vm.fn("slice", 2, ArraySlice),
		"toString": vm.fn("toString", 0, ArrayToString),
		"unshift":  vm.fn("unshift", 1, ArrayUnshift),
	}
	vm.SetSlots(vm.ArrayPrototype, slots)
	statics := Slots{
		"isArray": vm.fn("isArray", 1, ArrayIsArray),
	}
	vm.coreInstall("Array", 1, arrayCall, arrayConstruct, ArrayTag, vm.ArrayPrototype, statics)
}

func arrayCall(vm *VM, this Value, args List) Completion {
	r := vm.NewArray(nil)
	return arrayConstruct(vm, r, args)
}

func arrayConstruct(vm *VM, obj *Object, args List) Completion {
	if args.Len() == 1 && args.At(0).IsNumber() {
		n := args.At(0).Num()
		if n < 0 || n != math.Trunc(n) || n >= math.MaxUint32 {
			return vm.RangeError("Invalid array length")
		}
		arrayOf(obj).length = uint32(n)
		return Normal(ObjectValue(obj))
	}
	for i, v := range args.vals {
		obj.Put(strconv.Itoa(i), v)
	}
	return Normal(ObjectValue(obj))
}

// ArrayIsArray is an Array method.
//
// isArray returns whether its argument is an Array.
func ArrayIsArray(vm *VM, this Value, args List) Completion {
	o := args.At(0).Object()
	return Normal(Bool(o != nil && o.Tag() == ArrayTag))
}

// ArrayPush is an Array.prototype method.
//
// push appends its arguments and returns the new length.
func ArrayPush(vm *VM, this Value, args List) Completion {
	o, c := vm.ToObject(this)
	if c.Abrupt() {
		return c
	}
	n, c := vm.lengthOf(o)
	if c.Abrupt() {
		return c
	}
	for _, v := range args.vals {
		o.Put(strconv.FormatUint(uint64(n), 10), v)
		n++
	}
	o.Put("length", Number(float64(n)))
	return Normal(Number(float64(n)))
}

// ArrayPop is an Array.prototype method.
//
// pop removes and returns the last element.
func ArrayPop(vm *VM, this Value, args List) Completion {
	o, c := vm.ToObject(this)
	if c.Abrupt() {
		return c
	}
	n, c := vm.lengthOf(o)
	if c.Abrupt() {
		return c
	}
	if n == 0 {
		o.Put("length", Number(0))
		return Normal(Undefined())
	}
	k := strconv.FormatUint(uint64(n-1), 10)
	// The removed value is destroyed no sooner than the next safe point, so
	// it remains valid for the caller.
	v, _ := o.Get(k)
	o.Delete(k)
	o.Put("length", Number(float64(n-1)))
	return Normal(v)
}

// ArrayShift is an Array.prototype method.
//
// shift removes and returns the first element.
func ArrayShift(vm *VM, this Value, args List) Completion {
	o, c := vm.ToObject(this)
	if c.Abrupt() {
		return c
	}
	vals, c := vm.arrayLikeValues(o)
	if c.Abrupt() {
		return c
	}
	if len(vals) == 0 {
		o.Put("length", Number(0))
		return Normal(Undefined())
	}
	vm.rewrite(o, vals[1:])
	return Normal(vals[0])
}

// ArrayUnshift is an Array.prototype method.
//
// unshift prepends its arguments and returns the new length.
func ArrayUnshift(vm *VM, this Value, args List) Completion {
	o, c := vm.ToObject(this)
	if c.Abrupt() {
		return c
	}
	vals, c := vm.arrayLikeValues(o)
	if c.Abrupt() {
		return c
	}
	all := append(args.Values(), vals...)
	vm.rewrite(o, all)
	return Normal(Number(float64(len(all))))
}

// ArrayReverse is an Array.prototype method.
//
// reverse reverses the elements in place and returns the array.
func ArrayReverse(vm *VM, this Value, args List) Completion {
	o, c := vm.ToObject(this)
	if c.Abrupt() {
		return c
	}
	vals, c := vm.arrayLikeValues(o)
	if c.Abrupt() {
		return c
	}
	for i, j := 0, len(vals)-1; i < j; i, j = i+1, j-1 {
		vals[i], vals[j] = vals[j], vals[i]
	}
	vm.rewrite(o, vals)
	return Normal(ObjectValue(o))
}

// rewrite replaces the elements of an array-like object.
func (vm *VM) rewrite(o *Object, vals []Value) {
	o.Put("length", Number(0))
	for i, v := range vals {
		o.Put(strconv.Itoa(i), v)
	}
	o.Put("length", Number(float64(len(vals))))
}

// ArrayJoin is an Array.prototype method.
//
// join converts the elements to strings and concatenates them with a
// separator, which defaults to a comma.
func ArrayJoin(vm *VM, this Value, args List) Completion {
	o, c := vm.ToObject(this)
	if c.Abrupt() {
		return c
	}
	sep := ","
	if s := args.At(0); !s.IsUndefined() {
		if sep, c = vm.ToString(s); c.Abrupt() {
			return c
		}
	}
	vals, c := vm.arrayLikeValues(o)
	if c.Abrupt() {
		return c
	}
	b := strings.Builder{}
	for i, v := range vals {
		if i > 0 {
			b.WriteString(sep)
		}
		if v.IsNullish() {
			continue
		}
		s, c := vm.ToString(v)
		if c.Abrupt() {
			return c
		}
		b.WriteString(s)
	}
	return Normal(String(b.String()))
}

// ArrayToString is an Array.prototype method.
//
// toString joins the elements with commas.
func ArrayToString(vm *VM, this Value, args List) Completion {
	return ArrayJoin(vm, this, List{})
}

// ArrayIndexOf is an Array.prototype method.
//
// indexOf returns the first index holding a value strictly equal to the
// argument, or -1.
func ArrayIndexOf(vm *VM, this Value, args List) Completion {
	o, c := vm.ToObject(this)
	if c.Abrupt() {
		return c
	}
	vals, c := vm.arrayLikeValues(o)
	if c.Abrupt() {
		return c
	}
	start, c := vm.relativeIndex(args.At(1), len(vals), 0)
	if c.Abrupt() {
		return c
	}
	want := args.At(0)
	for i := start; i < len(vals); i++ {
		if StrictEquals(vals[i], want) && o.HasProperty(strconv.Itoa(i)) {
			return Normal(Number(float64(i)))
		}
	}
	return Normal(Number(-1))
}

// relativeIndex converts an index argument which may count from the end.
func (vm *VM) relativeIndex(v Value, length, def int) (int, Completion) {
	if v.IsUndefined() {
		return def, Completion{}
	}
	f, c := vm.ToNumber(v)
	if c.Abrupt() {
		return 0, c
	}
	f = ToInteger(f)
	if f < 0 {
		f += float64(length)
		if f < 0 {
			f = 0
		}
	}
	if f > float64(length) {
		f = float64(length)
	}
	return int(f), Completion{}
}

// ArraySlice is an Array.prototype method.
//
// slice returns a new array holding the elements from start up to end.
func ArraySlice(vm *VM, this Value, args List) Completion {
	o, c := vm.ToObject(this)
	if c.Abrupt() {
		return c
	}
	vals, c := vm.arrayLikeValues(o)
	if c.Abrupt() {
		return c
	}
	start, c := vm.relativeIndex(args.At(0), len(vals), 0)
	if c.Abrupt() {
		return c
	}
	end, c := vm.relativeIndex(args.At(1), len(vals), len(vals))
	if c.Abrupt() {
		return c
	}
	if end < start {
		end = start
	}
	return Normal(ObjectValue(vm.NewArray(vals[start:end])))
}

// ArrayConcat is an Array.prototype method.
//
// concat returns a new array holding the receiver's elements followed by each
// argument, with arrays flattened one level.
func ArrayConcat(vm *VM, this Value, args List) Completion {
	o, c := vm.ToObject(this)
	if c.Abrupt() {
		return c
	}
	var all []Value
	for _, v := range append([]Value{ObjectValue(o)}, args.vals...) {
		if a := v.Object(); a != nil && a.Tag() == ArrayTag {
			vals, c := vm.arrayLikeValues(a)
			if c.Abrupt() {
				return c
			}
			all = append(all, vals...)
			continue
		}
		all = append(all, v)
	}
	return Normal(ObjectValue(vm.NewArray(all)))
}

// iterate calls f with each element of an array-like receiver, along with its
// index, until f returns an abrupt completion.
func (vm *VM) iterate(this Value, f func(o *Object, i int, v Value) Completion) Completion {
	o, c := vm.ToObject(this)
	if c.Abrupt() {
		return c
	}
	n, c := vm.lengthOf(o)
	if c.Abrupt() {
		return c
	}
	for i := 0; i < int(n); i++ {
		k := strconv.Itoa(i)
		if !o.HasProperty(k) {
			continue
		}
		v, _ := o.Get(k)
		if c := f(o, i, v); c.Abrupt() {
			return c
		}
	}
	return Normal(Undefined())
}

// ArrayForEach is an Array.prototype method.
//
// forEach calls a function with each element, its index, and the array.
func ArrayForEach(vm *VM, this Value, args List) Completion {
	fn, recv := args.At(0), args.At(1)
	if !IsCallable(fn) {
		return vm.TypeError("%v is not a function", fn)
	}
	return vm.iterate(this, func(o *Object, i int, v Value) Completion {
		return vm.Call(fn, recv, NewList(v, Number(float64(i)), ObjectValue(o)))
	})
}

// ArrayMap is an Array.prototype method.
//
// map returns a new array holding the results of calling a function with each
// element.
func ArrayMap(vm *VM, this Value, args List) Completion {
	fn, recv := args.At(0), args.At(1)
	if !IsCallable(fn) {
		return vm.TypeError("%v is not a function", fn)
	}
	r := vm.NewArray(nil)
	c := vm.iterate(this, func(o *Object, i int, v Value) Completion {
		c := vm.Call(fn, recv, NewList(v, Number(float64(i)), ObjectValue(o)))
		if !c.Abrupt() {
			r.Put(strconv.Itoa(i), c.Value)
		}
		return c
	})
	if c.Abrupt() {
		return c
	}
	if o := this.Object(); o != nil {
		n, _ := vm.lengthOf(o)
		arrayOf(r).length = n
	}
	return Normal(ObjectValue(r))
}

// ArrayFilter is an Array.prototype method.
//
// filter returns a new array holding the elements for which a function
// returns a true value.
func ArrayFilter(vm *VM, this Value, args List) Completion {
	fn, recv := args.At(0), args.At(1)
	if !IsCallable(fn) {
		return vm.TypeError("%v is not a function", fn)
	}
	var kept []Value
	c := vm.iterate(this, func(o *Object, i int, v Value) Completion {
		c := vm.Call(fn, recv, NewList(v, Number(float64(i)), ObjectValue(o)))
		if !c.Abrupt() && ToBoolean(c.Value) {
			kept = append(kept, v)
		}
		return c
	})
	if c.Abrupt() {
		return c
	}
	return Normal(ObjectValue(vm.NewArray(kept)))
}
