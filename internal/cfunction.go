package internal

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"

	"github.com/robertkrimen/otto/ast"
)

// A NativeFn is a statically compiled function which can be called from
// scripts. this is the receiver after substitution; args holds the evaluated
// arguments.
type NativeFn func(vm *VM, this Value, args List) Completion

// A ConstructFn initializes an object allocated by construction. If it returns
// a normal completion holding an object, that object becomes the result of the
// construction in place of obj.
type ConstructFn func(vm *VM, obj *Object, args List) Completion

// Function is the Value of function objects.
type Function struct {
	// Name is the function's name, possibly empty.
	Name string
	// Length is the number of declared parameters.
	Length int

	// Native is the implementation of native functions.
	Native NativeFn
	// NativeConstruct, if not nil, makes a native function a constructor.
	NativeConstruct ConstructFn
	// Instance is the tag given to objects constructed by a native
	// constructor. If nil, constructed objects are plain.
	Instance Tag

	// Literal is the source of script functions.
	Literal *ast.FunctionLiteral
	// Params holds the parameter names of script functions.
	Params []string
	// Scope is the scope in which a script function was created.
	Scope *Object
	// Strict is true for strict mode script functions.
	Strict bool

	// bindSelf is true for named function expressions, which can refer to
	// themselves by name.
	bindSelf bool
}

// tagFunction is the Tag type for function objects.
type tagFunction struct{}

// FunctionTag is the Tag for function objects. Function objects are callable.
// Script functions and native functions with a construct handler are also
// constructible.
var FunctionTag tagFunction

func (tagFunction) String() string {
	return "Function"
}

func (tagFunction) Call(vm *VM, self *Object, this Value, args List) Completion {
	f := self.Value.(*Function)
	if f.Native != nil {
		return f.Native(vm, this, args)
	}
	return vm.callScript(self, f, this, args)
}

func (tagFunction) InstanceTag(self *Object) (Tag, bool) {
	f := self.Value.(*Function)
	switch {
	case f.Literal != nil:
		return ObjectTag, true
	case f.NativeConstruct == nil:
		return nil, false
	case f.Instance == nil:
		return ObjectTag, true
	}
	return f.Instance, true
}

func (tagFunction) Construct(vm *VM, self, obj *Object, args List) Completion {
	f := self.Value.(*Function)
	if f.NativeConstruct != nil {
		return f.NativeConstruct(vm, obj, args)
	}
	return vm.callScript(self, f, ObjectValue(obj), args)
}

func (tagFunction) Trace(self *Object, visit func(*Object)) {
	if f := self.Value.(*Function); f.Scope != nil {
		visit(f.Scope)
	}
}

func (tagFunction) Finalize(self *Object) {
	f := self.Value.(*Function)
	if f.Scope != nil {
		f.Scope.release()
		f.Scope = nil
	}
}

// NewFunction creates a native function object.
func (vm *VM) NewFunction(name string, length int, f NativeFn) *Object {
	if name == "" {
		name = fnName(f)
	}
	return vm.functionObject(&Function{Name: name, Length: length, Native: f})
}

// fn creates a native function and returns it as a value, for use in Slots.
func (vm *VM) fn(name string, length int, f NativeFn) Value {
	return ObjectValue(vm.NewFunction(name, length, f))
}

// Fn is the exported form of fn for core extensions.
func (vm *VM) Fn(name string, length int, f NativeFn) Value {
	return vm.fn(name, length, f)
}

// functionObject wraps f in a new object and defines its length and name.
func (vm *VM) functionObject(f *Function) *Object {
	r := vm.ObjectWith(nil, vm.FunctionPrototype, f, FunctionTag)
	r.DefineOwnProperty("length", Number(float64(f.Length)), ReadOnly|DontEnum|DontDelete)
	r.DefineOwnProperty("name", String(f.Name), ReadOnly|DontEnum|DontDelete)
	return r
}

// fnName derives a name for a native function from its Go symbol.
func fnName(f NativeFn) string {
	u := reflect.ValueOf(f).Pointer()
	name := runtime.FuncForPC(u).Name()
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// NewConstructor creates a native constructor. proto becomes the constructor's
// prototype property, and proto's constructor property links back. If proto is
// nil, a new plain object is used.
func (vm *VM) NewConstructor(name string, length int, call NativeFn, construct ConstructFn, instance Tag, proto *Object) *Object {
	if proto == nil {
		proto = vm.ObjectWith(nil, vm.ObjectPrototype, nil, ObjectTag)
	}
	if call == nil {
		call = func(vm *VM, this Value, args List) Completion {
			return vm.TypeError("%s constructor cannot be invoked without 'new'", name)
		}
	}
	c := vm.functionObject(&Function{
		Name:            name,
		Length:          length,
		Native:          call,
		NativeConstruct: construct,
		Instance:        instance,
	})
	c.DefineOwnProperty("prototype", ObjectValue(proto), ReadOnly|DontEnum|DontDelete)
	proto.DefineOwnProperty("constructor", ObjectValue(c), DontEnum)
	return c
}

// coreInstall creates a native constructor, defines statics on it, and binds
// it as a global. Returns the constructor.
func (vm *VM) coreInstall(name string, length int, call NativeFn, construct ConstructFn, instance Tag, proto *Object, statics Slots) *Object {
	c := vm.NewConstructor(name, length, call, construct, instance, proto)
	vm.SetSlots(c, statics)
	vm.SetGlobal(name, ObjectValue(c))
	return c
}

// CoreInstall is the exported form of coreInstall for core extensions.
func CoreInstall(vm *VM, name string, length int, call NativeFn, construct ConstructFn, instance Tag, proto *Object, statics Slots) *Object {
	return vm.coreInstall(name, length, call, construct, instance, proto, statics)
}

// functionPrototypeCall is the behavior of Function.prototype itself, which
// accepts any arguments and returns undefined.
func functionPrototypeCall(vm *VM, this Value, args List) Completion {
	return Normal(Undefined())
}

// initFunction installs Function.
func (vm *VM) initFunction() {
	vm.FunctionPrototype.DefineOwnProperty("length", Number(0), ReadOnly|DontEnum|DontDelete)
	vm.FunctionPrototype.DefineOwnProperty("name", String(""), ReadOnly|DontEnum|DontDelete)
	slots := Slots{
		"apply":    vm.fn("apply", 2, FunctionApply),
		"call":     vm.fn("call", 1, FunctionCall),
		"bind":     vm.fn("bind", 1, FunctionBind),
		"toString": vm.fn("toString", 0, FunctionToString),
	}
	vm.SetSlots(vm.FunctionPrototype, slots)
	vm.coreInstall("Function", 1, FunctionConstructorCall, FunctionConstruct, nil, vm.FunctionPrototype, nil)
}

// FunctionConstructorCall implements Function(args..., body), which creates a
// new function in the global scope.
func FunctionConstructorCall(vm *VM, this Value, args List) Completion {
	params := make([]string, 0, args.Len())
	body := ""
	for i := 0; i < args.Len(); i++ {
		s, c := vm.ToString(args.At(i))
		if c.Abrupt() {
			return c
		}
		if i == args.Len()-1 {
			body = s
		} else {
			params = append(params, s)
		}
	}
	lit, err := ParseFunction(strings.Join(params, ","), body)
	if err != nil {
		return vm.SyntaxError("%v", err)
	}
	return Normal(ObjectValue(vm.newScriptFunction(lit, vm.Global, false)))
}

// FunctionConstruct implements new Function(args..., body). The created
// function replaces the allocated object.
func FunctionConstruct(vm *VM, obj *Object, args List) Completion {
	return FunctionConstructorCall(vm, Undefined(), args)
}

// FunctionCall is a Function.prototype method.
//
// call invokes the function with the given receiver and arguments.
func FunctionCall(vm *VM, this Value, args List) Completion {
	return vm.Call(this, args.At(0), args.Slice(1))
}

// FunctionApply is a Function.prototype method.
//
// apply invokes the function with the given receiver and an array-like list of
// arguments.
func FunctionApply(vm *VM, this Value, args List) Completion {
	arr := args.At(1)
	if arr.IsNullish() {
		return vm.Call(this, args.At(0), List{})
	}
	o := arr.Object()
	if o == nil {
		return vm.TypeError("second argument to Function.prototype.apply must be an array-like object")
	}
	vals, c := vm.arrayLikeValues(o)
	if c.Abrupt() {
		return c
	}
	return vm.Call(this, args.At(0), List{vals: vals})
}

// boundFunction is the Value of a function created by bind.
type boundFunction struct {
	target *Object
	this   Value
	args   []Value
}

// tagBound is the Tag type for bound functions.
type tagBound struct{}

// BoundFunctionTag is the Tag for functions created by
// Function.prototype.bind.
var BoundFunctionTag tagBound

func (tagBound) String() string {
	return "Function"
}

func (tagBound) Call(vm *VM, self *Object, this Value, args List) Completion {
	b := self.Value.(*boundFunction)
	return vm.Call(ObjectValue(b.target), b.this, b.prepend(args))
}

func (tagBound) InstanceTag(self *Object) (Tag, bool) {
	b := self.Value.(*boundFunction)
	if c, ok := b.target.tag.(Constructor); ok {
		return c.InstanceTag(b.target)
	}
	return nil, false
}

func (tagBound) Construct(vm *VM, self, obj *Object, args List) Completion {
	b := self.Value.(*boundFunction)
	c := b.target.tag.(Constructor)
	return c.Construct(vm, b.target, obj, b.prepend(args))
}

func (tagBound) Trace(self *Object, visit func(*Object)) {
	b := self.Value.(*boundFunction)
	visit(b.target)
	if b.this.obj != nil {
		visit(b.this.obj)
	}
	for _, v := range b.args {
		if v.obj != nil {
			visit(v.obj)
		}
	}
}

func (tagBound) Finalize(self *Object) {
	b := self.Value.(*boundFunction)
	b.target.release()
	b.this.Release()
	for _, v := range b.args {
		v.Release()
	}
	b.args = nil
}

func (b *boundFunction) prepend(args List) List {
	if len(b.args) == 0 {
		return args
	}
	vals := make([]Value, 0, len(b.args)+args.Len())
	vals = append(vals, b.args...)
	vals = append(vals, args.vals...)
	return List{vals: vals}
}

// FunctionBind is a Function.prototype method.
//
// bind creates a function which calls this function with a fixed receiver and
// leading arguments.
func FunctionBind(vm *VM, this Value, args List) Completion {
	target := this.Object()
	if target == nil {
		return vm.TypeError("Bind must be called on a function")
	}
	if _, ok := target.tag.(Caller); !ok {
		return vm.TypeError("Bind must be called on a function")
	}
	b := &boundFunction{target: target, this: args.At(0).Retain()}
	target.retain()
	for _, v := range args.Slice(1).vals {
		b.args = append(b.args, v.Retain())
	}
	r := vm.ObjectWith(nil, vm.FunctionPrototype, b, BoundFunctionTag)
	n, _ := target.Get("length")
	length := int(n.Num()) - len(b.args)
	if length < 0 || n.Kind() != NumberKind {
		length = 0
	}
	r.DefineOwnProperty("length", Number(float64(length)), ReadOnly|DontEnum|DontDelete)
	name, _ := target.Get("name")
	r.DefineOwnProperty("name", String("bound "+name.Str()), ReadOnly|DontEnum|DontDelete)
	return Normal(ObjectValue(r))
}

// FunctionToString is a Function.prototype method.
//
// toString returns the source text of script functions or a placeholder body
// for native functions.
func FunctionToString(vm *VM, this Value, args List) Completion {
	o := this.Object()
	if o == nil {
		return vm.TypeError("Function.prototype.toString requires that 'this' be a Function")
	}
	switch v := o.Value.(type) {
	case *Function:
		if v.Literal != nil && v.Literal.Source != "" {
			return Normal(String(v.Literal.Source))
		}
		return Normal(String(fmt.Sprintf("function %s() { [native code] }", v.Name)))
	case *boundFunction:
		return Normal(String("function () { [native code] }"))
	}
	return vm.TypeError("Function.prototype.toString requires that 'this' be a Function")
}
