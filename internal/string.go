package internal

import (
	"strconv"
	"strings"
	"unicode/utf16"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// tagString is the Tag type for String wrapper objects.
type tagString struct{}

// StringTag is the Tag for String wrapper objects. Their Value is the wrapped
// string. They have a length and one enumerable property per UTF-16 code unit.
var StringTag tagString

func (tagString) String() string {
	return "String"
}

func (tagString) GetOwn(self *Object, name string) (Value, bool) {
	s, _ := self.Value.(string)
	if name == "length" {
		return Number(float64(utf16Len(s))), true
	}
	if i, ok := arrayIndex(name); ok {
		u := utf16.Encode([]rune(s))
		if int(i) < len(u) {
			return String(string(utf16.Decode(u[i : i+1]))), true
		}
	}
	return Value{}, false
}

func (tagString) EnumerateOwn(self *Object) []string {
	s, _ := self.Value.(string)
	n := utf16Len(s)
	r := make([]string, n)
	for i := range r {
		r[i] = strconv.Itoa(i)
	}
	return r
}

// utf16Len returns the length of s in UTF-16 code units.
func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// compareUTF16 compares two strings by UTF-16 code units.
func compareUTF16(a, b string) int {
	x, y := utf16.Encode([]rune(a)), utf16.Encode([]rune(b))
	for i := 0; i < len(x) && i < len(y); i++ {
		if x[i] != y[i] {
			if x[i] < y[i] {
				return -1
			}
			return 1
		}
	}
	return len(x) - len(y)
}

// NewString creates a String wrapper object.
func (vm *VM) NewString(s string) *Object {
	return vm.ObjectWith(nil, vm.StringPrototype, s, StringTag)
}

// initString installs String.
func (vm *VM) initString() {
	vm.StringPrototype = vm.intrinsic(vm.ObjectWith(nil, vm.ObjectPrototype, "", StringTag))
	slots := Slots{
		"charAt":        vm.fn("charAt", 1, StringCharAt),
		"charCodeAt":    vm.fn("charCodeAt", 1, StringCharCodeAt),
		"concat":        vm.fn("concat", 1, StringConcat),
		"indexOf":       vm.fn("indexOf", 1, StringIndexOf),
		"lastIndexOf":   vm.fn("lastIndexOf", 1, StringLastIndexOf),
		"localeCompare": vm.fn("localeCompare", 1, StringLocaleCompare),
		"slice":         vm.fn("slice", 2, StringSlice),
		"split":         vm.fn("split", 2, StringSplit),
		"substring":     vm.fn("substring", 2, StringSubstring),
		"toLowerCase":   vm.fn("toLowerCase", 0, StringToLowerCase),
		"toString":      vm.fn("toString", 0, StringValueOf),
		"toUpperCase":   vm.fn("toUpperCase", 0, StringToUpperCase),
		"trim":          vm.fn("trim", 0, StringTrim),
		"valueOf":       vm.fn("valueOf", 0, StringValueOf),
	}
	vm.SetSlots(vm.StringPrototype, slots)
	statics := Slots{
		"fromCharCode": vm.fn("fromCharCode", 1, StringFromCharCode),
	}
	vm.coreInstall("String", 1, stringCall, stringConstruct, StringTag, vm.StringPrototype, statics)
}

func stringCall(vm *VM, this Value, args List) Completion {
	if args.Len() == 0 {
		return Normal(String(""))
	}
	s, c := vm.ToString(args.At(0))
	if c.Abrupt() {
		return c
	}
	return Normal(String(s))
}

func stringConstruct(vm *VM, obj *Object, args List) Completion {
	c := stringCall(vm, Undefined(), args)
	if c.Abrupt() {
		return c
	}
	obj.Value = c.Value.Str()
	return Normal(ObjectValue(obj))
}

// thisString coerces the receiver of a String.prototype method.
func (vm *VM) thisString(this Value) (string, Completion) {
	if this.IsNullish() {
		return "", vm.TypeError("String.prototype method called on %v", this)
	}
	if o := this.Object(); o != nil && o.Tag() == StringTag {
		s, _ := o.Value.(string)
		return s, Completion{}
	}
	return vm.ToString(this)
}

// StringValueOf is a String.prototype method.
//
// valueOf returns the wrapped string.
func StringValueOf(vm *VM, this Value, args List) Completion {
	if this.IsString() {
		return Normal(this)
	}
	if o := this.Object(); o != nil && o.Tag() == StringTag {
		s, _ := o.Value.(string)
		return Normal(String(s))
	}
	return vm.TypeError("String.prototype.valueOf requires that 'this' be a String")
}

// StringCharAt is a String.prototype method.
//
// charAt returns the UTF-16 code unit at an index as a string.
func StringCharAt(vm *VM, this Value, args List) Completion {
	s, c := vm.thisString(this)
	if c.Abrupt() {
		return c
	}
	u := utf16.Encode([]rune(s))
	i, c := vm.ToNumber(args.At(0))
	if c.Abrupt() {
		return c
	}
	i = ToInteger(i)
	if i < 0 || i >= float64(len(u)) {
		return Normal(String(""))
	}
	return Normal(String(string(utf16.Decode(u[int(i) : int(i)+1]))))
}

// StringCharCodeAt is a String.prototype method.
//
// charCodeAt returns the UTF-16 code unit at an index as a number.
func StringCharCodeAt(vm *VM, this Value, args List) Completion {
	s, c := vm.thisString(this)
	if c.Abrupt() {
		return c
	}
	u := utf16.Encode([]rune(s))
	i, c := vm.ToNumber(args.At(0))
	if c.Abrupt() {
		return c
	}
	i = ToInteger(i)
	if i < 0 || i >= float64(len(u)) {
		return Normal(Number(nan()))
	}
	return Normal(Number(float64(u[int(i)])))
}

// StringConcat is a String.prototype method.
//
// concat appends the string forms of its arguments.
func StringConcat(vm *VM, this Value, args List) Completion {
	s, c := vm.thisString(this)
	if c.Abrupt() {
		return c
	}
	b := strings.Builder{}
	b.WriteString(s)
	for _, v := range args.vals {
		t, c := vm.ToString(v)
		if c.Abrupt() {
			return c
		}
		b.WriteString(t)
	}
	return Normal(String(b.String()))
}

// stringAndArg coerces the receiver and first argument of a string method.
func (vm *VM) stringAndArg(this Value, args List) (string, string, Completion) {
	s, c := vm.thisString(this)
	if c.Abrupt() {
		return "", "", c
	}
	t, c := vm.ToString(args.At(0))
	return s, t, c
}

// StringIndexOf is a String.prototype method.
//
// indexOf returns the first UTF-16 index at which a substring occurs at or
// after a position, or -1.
func StringIndexOf(vm *VM, this Value, args List) Completion {
	s, t, c := vm.stringAndArg(this, args)
	if c.Abrupt() {
		return c
	}
	u, w := utf16.Encode([]rune(s)), utf16.Encode([]rune(t))
	start, c := vm.relativeIndex(args.At(1), len(u), 0)
	if c.Abrupt() {
		return c
	}
	for i := start; i+len(w) <= len(u); i++ {
		if equalUnits(u[i:i+len(w)], w) {
			return Normal(Number(float64(i)))
		}
	}
	return Normal(Number(-1))
}

// StringLastIndexOf is a String.prototype method.
//
// lastIndexOf returns the last UTF-16 index at which a substring occurs, or
// -1.
func StringLastIndexOf(vm *VM, this Value, args List) Completion {
	s, t, c := vm.stringAndArg(this, args)
	if c.Abrupt() {
		return c
	}
	u, w := utf16.Encode([]rune(s)), utf16.Encode([]rune(t))
	for i := len(u) - len(w); i >= 0; i-- {
		if equalUnits(u[i:i+len(w)], w) {
			return Normal(Number(float64(i)))
		}
	}
	return Normal(Number(-1))
}

func equalUnits(a, b []uint16) bool {
	for i := range b {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// StringSlice is a String.prototype method.
//
// slice returns the code units from start up to end, either of which may count
// from the end.
func StringSlice(vm *VM, this Value, args List) Completion {
	s, c := vm.thisString(this)
	if c.Abrupt() {
		return c
	}
	u := utf16.Encode([]rune(s))
	start, c := vm.relativeIndex(args.At(0), len(u), 0)
	if c.Abrupt() {
		return c
	}
	end, c := vm.relativeIndex(args.At(1), len(u), len(u))
	if c.Abrupt() {
		return c
	}
	if end < start {
		end = start
	}
	return Normal(String(string(utf16.Decode(u[start:end]))))
}

// StringSubstring is a String.prototype method.
//
// substring returns the code units between two indices, in either order.
func StringSubstring(vm *VM, this Value, args List) Completion {
	s, c := vm.thisString(this)
	if c.Abrupt() {
		return c
	}
	u := utf16.Encode([]rune(s))
	clamp := func(v Value, def int) (int, Completion) {
		if v.IsUndefined() {
			return def, Completion{}
		}
		f, c := vm.ToNumber(v)
		f = ToInteger(f)
		switch {
		case f < 0:
			f = 0
		case f > float64(len(u)):
			f = float64(len(u))
		}
		return int(f), c
	}
	start, c := clamp(args.At(0), 0)
	if c.Abrupt() {
		return c
	}
	end, c := clamp(args.At(1), len(u))
	if c.Abrupt() {
		return c
	}
	if end < start {
		start, end = end, start
	}
	return Normal(String(string(utf16.Decode(u[start:end]))))
}

// StringSplit is a String.prototype method.
//
// split divides the string at each occurrence of a separator string.
func StringSplit(vm *VM, this Value, args List) Completion {
	s, c := vm.thisString(this)
	if c.Abrupt() {
		return c
	}
	sep := args.At(0)
	limit := uint32(1<<32 - 1)
	if l := args.At(1); !l.IsUndefined() {
		n, c := vm.ToNumber(l)
		if c.Abrupt() {
			return c
		}
		limit = ToUint32(n)
	}
	if sep.IsUndefined() {
		return Normal(ObjectValue(vm.NewArray([]Value{String(s)})))
	}
	t, c := vm.ToString(sep)
	if c.Abrupt() {
		return c
	}
	var parts []string
	if t == "" {
		for _, u := range utf16.Encode([]rune(s)) {
			parts = append(parts, string(utf16.Decode([]uint16{u})))
		}
	} else {
		parts = strings.Split(s, t)
	}
	if uint32(len(parts)) > limit {
		parts = parts[:limit]
	}
	vals := make([]Value, len(parts))
	for i, p := range parts {
		vals[i] = String(p)
	}
	return Normal(ObjectValue(vm.NewArray(vals)))
}

// StringToUpperCase is a String.prototype method.
//
// toUpperCase maps the string to upper case.
func StringToUpperCase(vm *VM, this Value, args List) Completion {
	s, c := vm.thisString(this)
	if c.Abrupt() {
		return c
	}
	return Normal(String(cases.Upper(language.Und).String(s)))
}

// StringToLowerCase is a String.prototype method.
//
// toLowerCase maps the string to lower case.
func StringToLowerCase(vm *VM, this Value, args List) Completion {
	s, c := vm.thisString(this)
	if c.Abrupt() {
		return c
	}
	return Normal(String(cases.Lower(language.Und).String(s)))
}

// StringTrim is a String.prototype method.
//
// trim removes leading and trailing white space.
func StringTrim(vm *VM, this Value, args List) Completion {
	s, c := vm.thisString(this)
	if c.Abrupt() {
		return c
	}
	return Normal(String(strings.TrimSpace(s)))
}

// StringLocaleCompare is a String.prototype method.
//
// localeCompare orders two strings by the root collation, returning a
// negative number, zero, or a positive number.
func StringLocaleCompare(vm *VM, this Value, args List) Completion {
	s, t, c := vm.stringAndArg(this, args)
	if c.Abrupt() {
		return c
	}
	return Normal(Number(float64(collate.New(language.Und).CompareString(s, t))))
}

// StringFromCharCode is a String method.
//
// fromCharCode creates a string from UTF-16 code units.
func StringFromCharCode(vm *VM, this Value, args List) Completion {
	u := make([]uint16, args.Len())
	for i, v := range args.vals {
		n, c := vm.ToNumber(v)
		if c.Abrupt() {
			return c
		}
		u[i] = uint16(ToUint32(n))
	}
	return Normal(String(string(utf16.Decode(u))))
}
