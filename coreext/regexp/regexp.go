// Package regexp installs the RegExp built-in, backed by regexp2 in ECMAScript
// compatibility mode.
package regexp

import (
	"strings"
	"unicode/utf16"

	"github.com/dlclark/regexp2"

	"github.com/zephyrtronium/jsvm"
	"github.com/zephyrtronium/jsvm/internal"
)

// RegExpTag is the Tag for RegExp objects.
const RegExpTag = jsvm.BasicTag("RegExp")

// RegExp is the Value of RegExp objects.
type RegExp struct {
	// Source is the pattern text.
	Source string
	// Flags.
	Global, IgnoreCase, Multiline bool

	re *regexp2.Regexp
}

// Flags returns the flag string of the expression in canonical order.
func (r *RegExp) Flags() string {
	b := strings.Builder{}
	if r.Global {
		b.WriteByte('g')
	}
	if r.IgnoreCase {
		b.WriteByte('i')
	}
	if r.Multiline {
		b.WriteByte('m')
	}
	return b.String()
}

// String returns the expression in literal form.
func (r *RegExp) String() string {
	return "/" + r.Source + "/" + r.Flags()
}

// Compile parses a pattern and flag string. The empty pattern is written as
// (?:) so that the literal form remains valid.
func Compile(pattern, flags string) (*RegExp, error) {
	r := &RegExp{Source: pattern}
	if pattern == "" {
		r.Source = "(?:)"
	}
	var opts regexp2.RegexOptions = regexp2.ECMAScript
	for _, f := range flags {
		var p *bool
		switch f {
		case 'g':
			p = &r.Global
		case 'i':
			p = &r.IgnoreCase
			opts |= regexp2.IgnoreCase
		case 'm':
			p = &r.Multiline
			opts |= regexp2.Multiline
		default:
			return nil, &FlagError{Flags: flags}
		}
		if *p {
			return nil, &FlagError{Flags: flags}
		}
		*p = true
	}
	re, err := regexp2.Compile(pattern, opts)
	if err != nil {
		return nil, err
	}
	r.re = re
	return r, nil
}

// FlagError is the error for an invalid flag string.
type FlagError struct {
	Flags string
}

func (err *FlagError) Error() string {
	return "invalid flags supplied to RegExp constructor '" + err.Flags + "'"
}

// New creates a RegExp object.
func New(vm *jsvm.VM, r *RegExp) *jsvm.Object {
	p, _ := vm.GetGlobal("RegExp").Object().Get("prototype")
	o := vm.ObjectWith(nil, p.Object(), r, RegExpTag)
	initInstance(o, r)
	return o
}

func initInstance(o *jsvm.Object, r *RegExp) {
	const fixed = jsvm.ReadOnly | jsvm.DontEnum | jsvm.DontDelete
	o.DefineOwnProperty("source", jsvm.String(r.Source), fixed)
	o.DefineOwnProperty("global", jsvm.Bool(r.Global), fixed)
	o.DefineOwnProperty("ignoreCase", jsvm.Bool(r.IgnoreCase), fixed)
	o.DefineOwnProperty("multiline", jsvm.Bool(r.Multiline), fixed)
	o.DefineOwnProperty("lastIndex", jsvm.Number(0), jsvm.DontEnum|jsvm.DontDelete)
}

func init() {
	internal.Register(initRegExp)
}

func initRegExp(vm *jsvm.VM) {
	empty, _ := Compile("", "")
	proto := vm.Intrinsic(vm.ObjectWith(nil, vm.ObjectPrototype, empty, RegExpTag))
	slots := jsvm.Slots{
		"exec":     vm.Fn("exec", 1, exec),
		"test":     vm.Fn("test", 1, test),
		"toString": vm.Fn("toString", 0, toString),
	}
	vm.SetSlots(proto, slots)
	ctor := jsvm.CoreInstall(vm, "RegExp", 2, call, construct, RegExpTag, proto, nil)
	vm.RegExpConstructor = vm.Intrinsic(ctor)
}

// call implements RegExp invoked as a plain function, which does nothing.
func call(vm *jsvm.VM, this jsvm.Value, args jsvm.List) jsvm.Completion {
	return jsvm.Normal(jsvm.Undefined())
}

// construct initializes a new RegExp from a pattern and flags. A RegExp
// pattern is copied when no flags are given.
func construct(vm *jsvm.VM, obj *jsvm.Object, args jsvm.List) jsvm.Completion {
	pv, fv := args.At(0), args.At(1)
	var pattern, flags string
	if o := pv.Object(); o != nil && o.Tag() == RegExpTag {
		if !fv.IsUndefined() {
			return vm.TypeError("Cannot supply flags when constructing one RegExp from another")
		}
		r := o.Value.(*RegExp)
		pattern, flags = r.Source, r.Flags()
	} else {
		if !pv.IsUndefined() {
			s, c := vm.ToString(pv)
			if c.Abrupt() {
				return c
			}
			pattern = s
		}
		if !fv.IsUndefined() {
			s, c := vm.ToString(fv)
			if c.Abrupt() {
				return c
			}
			flags = s
		}
	}
	r, err := Compile(pattern, flags)
	if err != nil {
		return vm.SyntaxError("Invalid regular expression: /%s/: %v", pattern, err)
	}
	obj.Value = r
	initInstance(obj, r)
	return jsvm.Normal(jsvm.ObjectValue(obj))
}

// thisRegExp extracts the expression a RegExp.prototype method operates on.
func thisRegExp(vm *jsvm.VM, this jsvm.Value, method string) (*jsvm.Object, *RegExp, jsvm.Completion) {
	o := this.Object()
	if o != nil && o.Tag() == RegExpTag {
		if r, ok := o.Value.(*RegExp); ok {
			return o, r, jsvm.Completion{}
		}
	}
	return nil, nil, vm.TypeError("RegExp.prototype.%s requires that 'this' be a RegExp", method)
}

// Exec matches an expression against a string, honoring and updating
// lastIndex for global expressions. The result is null or an array of the
// match and its groups, with index and input properties.
func Exec(vm *jsvm.VM, o *jsvm.Object, r *RegExp, s string) jsvm.Completion {
	runes := []rune(s)
	start := 0
	if r.Global {
		lv, _ := o.Get("lastIndex")
		n, c := vm.ToNumber(lv)
		if c.Abrupt() {
			return c
		}
		n = internal.ToInteger(n)
		if n < 0 || n > float64(utf16Len(runes)) {
			o.Put("lastIndex", jsvm.Number(0))
			return jsvm.Normal(jsvm.Null())
		}
		start = runeIndex(runes, int(n))
	}
	m, err := r.re.FindRunesMatchStartingAt(runes, start)
	if err != nil {
		return vm.Throwf(internal.RangeError, "regular expression match failed: %v", err)
	}
	if m == nil {
		if r.Global {
			o.Put("lastIndex", jsvm.Number(0))
		}
		return jsvm.Normal(jsvm.Null())
	}
	groups := m.Groups()
	vals := make([]jsvm.Value, len(groups))
	for i, g := range groups {
		if len(g.Captures) == 0 {
			continue
		}
		vals[i] = jsvm.String(g.String())
	}
	if r.Global {
		end := m.Index + m.Length
		o.Put("lastIndex", jsvm.Number(float64(utf16Len(runes[:end]))))
	}
	arr := vm.NewArray(vals)
	arr.Put("index", jsvm.Number(float64(utf16Len(runes[:m.Index]))))
	arr.Put("input", jsvm.String(s))
	return jsvm.Normal(jsvm.ObjectValue(arr))
}

// exec is a RegExp.prototype method.
//
// exec returns the next match of the expression in a string, or null.
func exec(vm *jsvm.VM, this jsvm.Value, args jsvm.List) jsvm.Completion {
	o, r, c := thisRegExp(vm, this, "exec")
	if c.Abrupt() {
		return c
	}
	s, c := vm.ToString(args.At(0))
	if c.Abrupt() {
		return c
	}
	return Exec(vm, o, r, s)
}

// test is a RegExp.prototype method.
//
// test returns whether the expression matches a string.
func test(vm *jsvm.VM, this jsvm.Value, args jsvm.List) jsvm.Completion {
	c := exec(vm, this, args)
	if c.Abrupt() {
		return c
	}
	return jsvm.Normal(jsvm.Bool(!c.Value.IsNull()))
}

// toString is a RegExp.prototype method.
//
// toString returns the expression in literal form.
func toString(vm *jsvm.VM, this jsvm.Value, args jsvm.List) jsvm.Completion {
	_, r, c := thisRegExp(vm, this, "toString")
	if c.Abrupt() {
		return c
	}
	return jsvm.Normal(jsvm.String(r.String()))
}

// utf16Len returns the number of UTF-16 code units needed to encode runes.
func utf16Len(runes []rune) int {
	n := 0
	for _, r := range runes {
		n += utf16.RuneLen(r)
	}
	return n
}

// runeIndex converts a UTF-16 offset to an index into runes. An offset in the
// middle of a surrogate pair rounds up.
func runeIndex(runes []rune, u int) int {
	n := 0
	for i, r := range runes {
		if n >= u {
			return i
		}
		n += utf16.RuneLen(r)
	}
	return len(runes)
}
