package internal

import "log/slog"

// Call invokes callee with the given receiver and arguments. If callee is not
// callable, the result is a TypeError throw. A Return completion from the
// callee's body becomes a normal completion carrying the returned value; a
// throw passes through unchanged.
//
// When this is undefined or null, the receiver is substituted according to
// Config.ThisPolicy, except for strict mode script functions, which always
// see the receiver as given.
func (vm *VM) Call(callee, this Value, args List) Completion {
	o := callee.Object()
	if o == nil {
		return vm.TypeError("%s is not a function", vm.describe(callee))
	}
	c, ok := o.tag.(Caller)
	if !ok {
		return vm.TypeError("%s is not a function", vm.describe(callee))
	}
	if this.IsNullish() && vm.Config.ThisPolicy == ThisGlobal && !isStrictFunction(o) {
		this = ObjectValue(vm.Global)
	}
	if r, ok := vm.enter(); !ok {
		return r
	}
	defer vm.leave()
	r := c.Call(vm, o, this, args)
	switch r.Stop {
	case NoStop, ThrowStop:
		return r
	default:
		// Natives only produce normal and throw completions, and script
		// bodies already passed through the call boundary.
		return vm.consumeReturn(r)
	}
}

// Construct instantiates callee with the given arguments. If callee is not a
// constructor, the result is a TypeError throw.
//
// A new object is allocated with the callee's instance tag and with its
// prototype set to the callee's prototype property, or Object.prototype if
// that is not an object. A bound function uses its target's prototype. The
// result is the object the construct handler returned, if it returned one, or
// else the allocated object.
func (vm *VM) Construct(callee Value, args List) Completion {
	o := callee.Object()
	if o == nil {
		return vm.TypeError("%s is not a constructor", vm.describe(callee))
	}
	c, ok := o.tag.(Constructor)
	if !ok {
		return vm.TypeError("%s is not a constructor", vm.describe(callee))
	}
	tag, ok := c.InstanceTag(o)
	if !ok {
		return vm.TypeError("%s is not a constructor", vm.describe(callee))
	}
	proto := vm.ObjectPrototype
	// Bound functions construct with their target's prototype.
	t := o
	for b, ok := t.Value.(*boundFunction); ok; b, ok = t.Value.(*boundFunction) {
		t = b.target
	}
	if p, _ := t.Get("prototype"); p.IsObject() {
		proto = p.Object()
	}
	if r, ok := vm.enter(); !ok {
		return r
	}
	defer vm.leave()
	obj := vm.ObjectWith(nil, proto, nil, tag)
	r := c.Construct(vm, o, obj, args)
	if r.Stop != NoStop && r.Stop != ThrowStop {
		r = vm.consumeReturn(r)
	}
	if r.Abrupt() {
		return r
	}
	if r.Value.IsObject() {
		return r
	}
	return Normal(ObjectValue(obj))
}

// enter increments the call depth, failing with a RangeError if the limit is
// exceeded.
func (vm *VM) enter() (Completion, bool) {
	if vm.Config.MaxCallDepth > 0 && vm.depth >= vm.Config.MaxCallDepth {
		vm.Logger.Warn("call depth exceeded", slog.Int("depth", vm.depth))
		return vm.RangeError("Maximum call stack size exceeded"), false
	}
	vm.depth++
	vm.active++
	return Completion{}, true
}

func (vm *VM) leave() {
	vm.depth--
	vm.active--
}

// Depth returns the current call depth.
func (vm *VM) Depth() int {
	return vm.depth
}

// IsCallable returns true if v is a callable object.
func IsCallable(v Value) bool {
	if o := v.Object(); o != nil {
		_, ok := o.tag.(Caller)
		return ok
	}
	return false
}

// IsConstructor returns true if v is a constructible object.
func IsConstructor(v Value) bool {
	if o := v.Object(); o != nil {
		if c, ok := o.tag.(Constructor); ok {
			_, ok = c.InstanceTag(o)
			return ok
		}
	}
	return false
}

func isStrictFunction(o *Object) bool {
	f, ok := o.Value.(*Function)
	return ok && f.Literal != nil && f.Strict
}

// describe gives a short description of a value for error messages.
func (vm *VM) describe(v Value) string {
	switch v.Kind() {
	case StringKind:
		return `"` + v.Str() + `"`
	case ObjectKind:
		if f, ok := v.Object().Value.(*Function); ok && f.Name != "" {
			return f.Name
		}
		return "object"
	}
	return v.String()
}
