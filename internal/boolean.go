package internal

// BooleanTag is the Tag for Boolean wrapper objects. Their Value is the
// wrapped bool.
const BooleanTag BasicTag = "Boolean"

// NewBoolean creates a Boolean wrapper object.
func (vm *VM) NewBoolean(b bool) *Object {
	return vm.ObjectWith(nil, vm.BooleanPrototype, b, BooleanTag)
}

// initBoolean installs Boolean.
func (vm *VM) initBoolean() {
	vm.BooleanPrototype = vm.intrinsic(vm.ObjectWith(nil, vm.ObjectPrototype, false, BooleanTag))
	slots := Slots{
		"toString": vm.fn("toString", 0, BooleanToString),
		"valueOf":  vm.fn("valueOf", 0, BooleanValueOf),
	}
	vm.SetSlots(vm.BooleanPrototype, slots)
	vm.coreInstall("Boolean", 1, booleanCall, booleanConstruct, BooleanTag, vm.BooleanPrototype, nil)
}

func booleanCall(vm *VM, this Value, args List) Completion {
	return Normal(Bool(ToBoolean(args.At(0))))
}

func booleanConstruct(vm *VM, obj *Object, args List) Completion {
	obj.Value = ToBoolean(args.At(0))
	return Normal(ObjectValue(obj))
}

func (vm *VM) thisBoolean(this Value, method string) (bool, Completion) {
	if this.IsBoolean() {
		return this.Bool(), Completion{}
	}
	if o := this.Object(); o != nil && o.Tag() == BooleanTag {
		b, _ := o.Value.(bool)
		return b, Completion{}
	}
	return false, vm.TypeError("Boolean.prototype.%s requires that 'this' be a Boolean", method)
}

// BooleanValueOf is a Boolean.prototype method.
//
// valueOf returns the wrapped boolean.
func BooleanValueOf(vm *VM, this Value, args List) Completion {
	b, c := vm.thisBoolean(this, "valueOf")
	if c.Abrupt() {
		return c
	}
	return Normal(Bool(b))
}

// BooleanToString is a Boolean.prototype method.
//
// toString returns "true" or "false".
func BooleanToString(vm *VM, this Value, args List) Completion {
	b, c := vm.thisBoolean(this, "toString")
	if c.Abrupt() {
		return c
	}
	return Normal(String(Bool(b).String()))
}
