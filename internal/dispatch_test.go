package internal_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zephyrtronium/jsvm"
	"github.com/zephyrtronium/jsvm/testutils"
)

// PointTag is the tag of the native type installed by installPoint.
const PointTag = jsvm.BasicTag("Point")

// installPoint adds a native Point constructor to vm. Points have x and y
// properties and a norm1 method on their prototype.
func installPoint(vm *jsvm.VM) *jsvm.Object {
	proto := vm.Intrinsic(vm.ObjectWith(nil, vm.ObjectPrototype, nil, PointTag))
	vm.SetSlots(proto, jsvm.Slots{
		"norm1": vm.Fn("norm1", 0, func(vm *jsvm.VM, this jsvm.Value, args jsvm.List) jsvm.Completion {
			o := this.Object()
			if o == nil || o.Tag() != PointTag {
				return vm.TypeError("norm1 called on incompatible receiver")
			}
			x, _ := o.Get("x")
			y, _ := o.Get("y")
			a, b := x.Num(), y.Num()
			if a < 0 {
				a = -a
			}
			if b < 0 {
				b = -b
			}
			return jsvm.Normal(jsvm.Number(a + b))
		}),
	})
	construct := func(vm *jsvm.VM, obj *jsvm.Object, args jsvm.List) jsvm.Completion {
		for i, name := range []string{"x", "y"} {
			n, c := vm.ToNumber(args.At(i))
			if c.Abrupt() {
				return c
			}
			obj.Put(name, jsvm.Number(n))
		}
		return jsvm.Normal(jsvm.ObjectValue(obj))
	}
	return jsvm.CoreInstall(vm, "Point", 2, nil, construct, PointTag, proto, nil)
}

// TestNativeType tests a native type defined entirely through the Go API.
func TestNativeType(t *testing.T) {
	vm := jsvm.NewVM()
	installPoint(vm)
	cases := map[string]testutils.SourceTestCase{
		"Construct":    {Source: `new Point(3, -4).norm1()`, Pass: testutils.PassEqual(jsvm.Number(7))},
		"Tag":          {Source: `new Point(1, 2)`, Pass: testutils.PassTag(PointTag)},
		"Prototype":    {Source: `Object.getPrototypeOf(new Point) === Point.prototype`, Pass: testutils.PassEqual(jsvm.Bool(true))},
		"InstanceOf":   {Source: `new Point(0, 0) instanceof Point`, Pass: testutils.PassEqual(jsvm.Bool(true))},
		"Constructor":  {Source: `new Point(0, 0).constructor === Point`, Pass: testutils.PassEqual(jsvm.Bool(true))},
		"Class":        {Source: `Object.prototype.toString.call(new Point(0, 0))`, Pass: testutils.PassEqual(jsvm.String("[object Point]"))},
		"CallWithout":  {Source: `Point(1, 2)`, Pass: testutils.PassThrow(jsvm.TypeError)},
		"WrongThis":    {Source: `Point.prototype.norm1.call({x: 1, y: 1})`, Pass: testutils.PassThrow(jsvm.TypeError)},
		"ConvertThrow": {Source: `new Point({valueOf: function () { throw 5 }}, 0)`, Pass: testutils.PassControl(jsvm.Number(5), jsvm.ThrowStop)},
		"Length":       {Source: `Point.length`, Pass: testutils.PassEqual(jsvm.Number(2))},
		"Subclass": {
			Source: `function P3(x, y, z) { this.z = z } P3.prototype = Point.prototype; var p = new P3(1, 2, 3); p instanceof Point && p.z === 3`,
			Pass:   testutils.PassEqual(jsvm.Bool(true)),
		},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			r, err := vm.RunString(c.Source, name)
			require.NoError(t, err)
			defer r.Value.Release()
			assert.True(t, c.Pass(r), "%q: %s", c.Source, testutils.Describe(r))
		})
	}
}

// counterTag is a tag whose objects are callable and constructible without
// being functions.
type counterTag struct{}

func (counterTag) String() string { return "Counter" }

func (counterTag) Call(vm *jsvm.VM, self *jsvm.Object, this jsvm.Value, args jsvm.List) jsvm.Completion {
	n := self.Value.(*int)
	*n++
	return jsvm.Normal(jsvm.Number(float64(*n)))
}

func (counterTag) InstanceTag(self *jsvm.Object) (jsvm.Tag, bool) {
	return jsvm.ObjectTag, true
}

func (counterTag) Construct(vm *jsvm.VM, self, obj *jsvm.Object, args jsvm.List) jsvm.Completion {
	obj.Put("count", jsvm.Number(float64(*self.Value.(*int))))
	// A primitive result does not replace the allocated object.
	return jsvm.Normal(jsvm.Number(-1))
}

// TestTagDispatch tests that calls and constructions dispatch on tags rather
// than on function objects.
func TestTagDispatch(t *testing.T) {
	vm := jsvm.NewVM()
	n := 0
	counter := vm.ObjectWith(nil, vm.ObjectPrototype, &n, counterTag{})
	vm.SetGlobal("counter", jsvm.ObjectValue(counter))
	assert.True(t, jsvm.IsCallable(jsvm.ObjectValue(counter)))
	assert.True(t, jsvm.IsConstructor(jsvm.ObjectValue(counter)))

	v := vm.MustRunString(`counter(); counter(); new counter().count`, "TestTagDispatch")
	assert.Equal(t, 2.0, v.Num())
	v.Release()
	v = vm.MustRunString(`typeof counter`, "TestTagDispatch")
	assert.Equal(t, "function", v.Str())

	c := vm.Call(jsvm.ObjectValue(counter), jsvm.Undefined(), jsvm.NewList())
	require.Equal(t, jsvm.NoStop, c.Stop)
	assert.Equal(t, 3.0, c.Value.Num())
}

// TestCallNonCallable tests the dispatcher's rejections.
func TestCallNonCallable(t *testing.T) {
	vm := testutils.VM()
	plain := jsvm.ObjectValue(vm.NewObject(nil))
	for name, v := range map[string]jsvm.Value{
		"Undefined": jsvm.Undefined(),
		"Number":    jsvm.Number(1),
		"String":    jsvm.String("f"),
		"Object":    plain,
	} {
		t.Run(name, func(t *testing.T) {
			assert.False(t, jsvm.IsCallable(v))
			assert.False(t, jsvm.IsConstructor(v))
			c := vm.Call(v, jsvm.Undefined(), jsvm.NewList())
			assert.True(t, testutils.PassThrow(jsvm.TypeError)(c), "call: %s", testutils.Describe(c))
			c = vm.Construct(v, jsvm.NewList())
			assert.True(t, testutils.PassThrow(jsvm.TypeError)(c), "construct: %s", testutils.Describe(c))
		})
	}
	t.Run("NativeFunction", func(t *testing.T) {
		f := vm.GetGlobal("parseInt")
		assert.True(t, jsvm.IsCallable(f))
		assert.False(t, jsvm.IsConstructor(f))
		c := vm.Construct(f, jsvm.NewList(jsvm.String("1")))
		assert.True(t, testutils.PassThrow(jsvm.TypeError)(c), "construct: %s", testutils.Describe(c))
	})
}

// TestConstructResult tests that a constructor's object result replaces the
// allocated object and that other results do not.
func TestConstructResult(t *testing.T) {
	cases := map[string]testutils.SourceTestCase{
		"ReturnObject":    {Source: `var o = {k: 1}; function F() { this.a = 1; return o } new F() === o`, Pass: testutils.PassEqual(jsvm.Bool(true))},
		"ReturnPrimitive": {Source: `function F() { this.a = 1; return 5 } new F().a`, Pass: testutils.PassEqual(jsvm.Number(1))},
		"ReturnNothing":   {Source: `function F() { this.a = 2 } new F().a`, Pass: testutils.PassEqual(jsvm.Number(2))},
		"PrototypeNotObject": {
			Source: `function F() {} F.prototype = 3; Object.getPrototypeOf(new F()) === Object.prototype`,
			Pass:   testutils.PassEqual(jsvm.Bool(true)),
		},
		"Throws": {Source: `function F() { throw "no" } new F()`, Pass: testutils.PassControl(jsvm.String("no"), jsvm.ThrowStop)},
	}
	for name, c := range cases {
		t.Run(name, c.TestFunc("TestConstructResult/"+name))
	}
}

// TestThisPolicy tests receiver substitution for calls with nullish receivers.
func TestThisPolicy(t *testing.T) {
	src := `function f() { return this } [f() === undefined, (function () { "use strict"; return this })() === undefined]`
	cases := map[string]struct {
		policy jsvm.ThisPolicy
		sloppy bool
	}{
		"Global":    {jsvm.ThisGlobal, false},
		"Undefined": {jsvm.ThisUndefined, true},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := jsvm.DefaultConfig()
			cfg.ThisPolicy = c.policy
			vm := jsvm.NewVM(jsvm.WithConfig(cfg))
			v := vm.MustRunString(src, name)
			defer v.Release()
			sloppy, _ := v.Object().Get("0")
			strict, _ := v.Object().Get("1")
			assert.Equal(t, c.sloppy, sloppy.Bool(), "non-strict receiver")
			assert.True(t, strict.Bool(), "strict functions always see undefined")
		})
	}
	t.Run("Native", func(t *testing.T) {
		vm := jsvm.NewVM()
		var got jsvm.Value
		vm.SetGlobal("self", vm.Fn("self", 0, func(vm *jsvm.VM, this jsvm.Value, args jsvm.List) jsvm.Completion {
			got = this
			return jsvm.Normal(jsvm.Undefined())
		}))
		vm.MustRunString(`self()`, "Native")
		assert.Equal(t, vm.Global, got.Object())
	})
}

// TestCallDepth tests that runaway recursion throws a RangeError which scripts
// can catch, and that the depth unwinds afterward.
func TestCallDepth(t *testing.T) {
	cfg := jsvm.DefaultConfig()
	cfg.MaxCallDepth = 50
	vm := jsvm.NewVM(jsvm.WithConfig(cfg))
	c, err := vm.RunString(`function f(n) { return f(n + 1) } f(0)`, "TestCallDepth")
	require.NoError(t, err)
	assert.True(t, testutils.PassThrow(jsvm.RangeError)(c), "%s", testutils.Describe(c))
	assert.Equal(t, 0, vm.Depth())

	v := vm.MustRunString(`var depth = 0; function g() { depth++; g() } try { g() } catch (e) { e instanceof RangeError && depth }`, "TestCallDepth")
	assert.Equal(t, 50.0, v.Num())
	assert.Equal(t, 0, vm.Depth())

	v = vm.MustRunString(`function h(n) { return n ? h(n - 1) + 1 : 0 } h(40)`, "TestCallDepth")
	assert.Equal(t, 40.0, v.Num())
}

// TestNativeCallsScript tests that natives can call back into scripts and see
// their completions.
func TestNativeCallsScript(t *testing.T) {
	vm := jsvm.NewVM()
	vm.SetGlobal("twice", vm.Fn("twice", 1, func(vm *jsvm.VM, this jsvm.Value, args jsvm.List) jsvm.Completion {
		for i := 0; i < 2; i++ {
			if c := vm.Call(args.At(0), jsvm.Undefined(), jsvm.NewList(jsvm.Number(float64(i)))); c.Abrupt() {
				return c
			}
		}
		return jsvm.Normal(jsvm.Undefined())
	}))
	v := vm.MustRunString(`var s = 0; twice(function (i) { s += i + 1 }); s`, "TestNativeCallsScript")
	assert.Equal(t, 3.0, v.Num())
	c, err := vm.RunString(`twice(function () { throw new TypeError("x") })`, "TestNativeCallsScript")
	require.NoError(t, err)
	assert.True(t, testutils.PassThrow(jsvm.TypeError)(c))
	c, err = vm.RunString(`try { twice(function () { throw 1 }) } catch (e) { e + 1 }`, "TestNativeCallsScript")
	require.NoError(t, err)
	assert.True(t, testutils.PassEqual(jsvm.Number(2))(c), "%s", testutils.Describe(c))
}
