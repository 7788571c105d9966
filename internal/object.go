package internal

import (
	"errors"
	"maps"
	"slices"
	"sync/atomic"

	"github.com/zephyrtronium/contains"
)

// Object is a property container with an optional prototype. Every value of
// object kind refers to an Object.
//
// Always use NewObject, ObjectWith, or a type-specific constructor to obtain
// new objects. Creating objects directly will result in arbitrary failures.
type Object struct {
	// props is the object's own properties.
	props slotTable
	// proto is the object's prototype, or nil if it has none.
	proto *Object

	// Value is the object's type-specific primitive value.
	Value interface{}
	// tag is the type indicator of the object.
	tag Tag

	// refs is the number of holders sharing the object.
	refs int32
	// dead becomes true once the object is destroyed.
	dead bool
	// heap is the heap that owns the object.
	heap *Heap

	// id is the object's unique ID.
	id uintptr
}

// Tag is a type indicator for objects. Tag values must be comparable. Tags for
// different types must not be equal, meaning they must have different
// underlying types or different values otherwise.
//
// A tag may implement any of Caller, Constructor, OwnGetter, OwnPutter,
// Tracer, and Finalizer to customize the behavior of objects carrying it.
type Tag interface {
	// String returns the name of the type associated with this tag. It is the
	// class name reported by Object.prototype.toString.
	String() string
}

// Caller is implemented by tags whose objects are callable.
type Caller interface {
	Tag
	// Call invokes self with the given receiver and arguments. The result is
	// a normal or throw completion.
	Call(vm *VM, self *Object, this Value, args List) Completion
}

// Constructor is implemented by tags whose objects are constructible.
type Constructor interface {
	Tag
	// InstanceTag returns the tag to give objects allocated by constructing
	// self. If ok is false, self is not a constructor.
	InstanceTag(self *Object) (tag Tag, ok bool)
	// Construct initializes obj, which has already been allocated with the
	// instance tag and prototype. If the result is a normal completion whose
	// value is an object, that object replaces obj as the result of the
	// construction.
	Construct(vm *VM, self, obj *Object, args List) Completion
}

// OwnGetter is implemented by tags which synthesize own properties.
type OwnGetter interface {
	Tag
	// GetOwn returns a synthesized own property of self.
	GetOwn(self *Object, name string) (Value, bool)
}

// OwnPutter is implemented by tags which intercept assignment to own
// properties.
type OwnPutter interface {
	Tag
	// PutOwn handles an assignment to self. If handled is false, the
	// assignment proceeds normally.
	PutOwn(self *Object, name string, v Value) (handled bool)
}

// OwnEnumerator is implemented by tags which synthesize enumerable own
// properties.
type OwnEnumerator interface {
	Tag
	// EnumerateOwn returns the names of self's synthesized enumerable
	// properties.
	EnumerateOwn(self *Object) []string
}

// Tracer is implemented by tags whose objects hold references to other objects
// in their Value.
type Tracer interface {
	Tag
	// Trace calls visit on each object referenced by self's Value.
	Trace(self *Object, visit func(*Object))
}

// Finalizer is implemented by tags whose objects must release resources when
// destroyed. Finalizers must release any references they hold in Value.
type Finalizer interface {
	Tag
	// Finalize is called exactly once when self is destroyed.
	Finalize(self *Object)
}

// BasicTag is a special Tag type for plain types which need no customized
// behavior.
type BasicTag string

// String returns the receiver.
func (t BasicTag) String() string {
	return string(t)
}

// ObjectTag is the tag for plain objects.
const ObjectTag BasicTag = "Object"

// ErrPrototypeCycle is the error returned when setting a prototype would make
// an object its own ancestor.
var ErrPrototypeCycle = errors.New("cyclic prototype chain")

// objcounter is the global counter for object IDs. All accesses to this must
// be atomic.
var objcounter uintptr

// nextObject increments the object counter and returns its value as a unique
// ID for a new object.
func nextObject() uintptr {
	return atomic.AddUintptr(&objcounter, 1)
}

// objectMark returns the ID of the most recently allocated object. Every
// object allocated afterward has a greater ID.
func objectMark() uintptr {
	return atomic.LoadUintptr(&objcounter)
}

// Tag returns the object's type indicator.
func (o *Object) Tag() Tag {
	return o.tag
}

// UniqueID returns the object's unique ID.
func (o *Object) UniqueID() uintptr {
	return o.id
}

// Prototype returns the object's prototype, or nil if it has none.
func (o *Object) Prototype() *Object {
	return o.proto
}

// SetPrototype sets the object's prototype. Returns ErrPrototypeCycle without
// modifying o if p is o or has o among its ancestors.
func (o *Object) SetPrototype(p *Object) error {
	if p != nil && p.IsKindOf(o) {
		return ErrPrototypeCycle
	}
	if p != nil {
		p.retain()
	}
	old := o.proto
	o.proto = p
	if old != nil {
		old.release()
	}
	return nil
}

// IsKindOf evaluates whether the object has kind as any of its ancestors, or
// is itself kind.
func (o *Object) IsKindOf(kind *Object) bool {
	set := contains.Set{}
	for p := o; p != nil; p = p.proto {
		if p == kind {
			return true
		}
		if !set.Add(p.UniqueID()) {
			// Already visited. SetPrototype prevents this, but host code
			// assigning protos before any check could still produce it.
			return false
		}
	}
	return false
}

// Refs returns the number of holders sharing the object.
func (o *Object) Refs() int {
	return int(o.refs)
}

// Alive returns false once the object has been destroyed.
func (o *Object) Alive() bool {
	return !o.dead
}

// Get looks up a property on the object or its prototype chain. The first
// object in the chain that has the property as its own supplies the result;
// if none does, the result is undefined and ok is false.
func (o *Object) Get(name string) (v Value, ok bool) {
	for p := o; p != nil; p = p.proto {
		if v, ok := p.GetOwn(name); ok {
			return v, true
		}
	}
	return Undefined(), false
}

// GetOwn looks up an own property of the object, not checking its prototype.
func (o *Object) GetOwn(name string) (Value, bool) {
	if g, ok := o.tag.(OwnGetter); ok {
		if v, ok := g.GetOwn(o, name); ok {
			return v, true
		}
	}
	if s := o.props.lookup(name); s != nil {
		return s.value, true
	}
	return Undefined(), false
}

// ownAttrs returns the attributes of an own property.
func (o *Object) ownAttrs(name string) (Attrs, bool) {
	if s := o.props.lookup(name); s != nil {
		return s.attrs, true
	}
	return 0, false
}

// Put assigns a property on the object itself. Prototypes are never modified;
// assigning a name that an ancestor has creates an own property which shadows
// it. If the object already has the property as its own and it is ReadOnly,
// Put does nothing and returns false.
func (o *Object) Put(name string, v Value) bool {
	if p, ok := o.tag.(OwnPutter); ok && p.PutOwn(o, name, v) {
		return true
	}
	if s := o.props.lookup(name); s != nil {
		if s.attrs.Has(ReadOnly) {
			return false
		}
		old := s.value
		s.value = v.Retain()
		old.Release()
		return true
	}
	o.props.insert(name, v.Retain(), 0)
	return true
}

// DefineOwnProperty creates or replaces an own property with the given
// attributes, regardless of whether an existing property is ReadOnly.
func (o *Object) DefineOwnProperty(name string, v Value, attrs Attrs) {
	v.Retain()
	if s := o.props.lookup(name); s != nil {
		old := s.value
		s.value = v
		s.attrs = attrs
		old.Release()
		return
	}
	o.props.insert(name, v, attrs)
}

// HasOwnProperty returns true if the object has an own property with the given
// name.
func (o *Object) HasOwnProperty(name string) bool {
	_, ok := o.GetOwn(name)
	return ok
}

// HasProperty returns true if the object or any of its ancestors has an own
// property with the given name.
func (o *Object) HasProperty(name string) bool {
	_, ok := o.Get(name)
	return ok
}

// Delete removes an own property. Returns false only if the property exists
// and is DontDelete. Deleting a property the object does not have succeeds.
func (o *Object) Delete(name string) bool {
	s := o.props.lookup(name)
	if s == nil {
		// Synthesized properties cannot be removed.
		if g, ok := o.tag.(OwnGetter); ok {
			_, has := g.GetOwn(o, name)
			return !has
		}
		return true
	}
	if s.attrs.Has(DontDelete) {
		return false
	}
	v, _ := o.props.remove(name)
	v.Release()
	return true
}

// Keys returns the names of all own properties in insertion order.
func (o *Object) Keys() []string {
	r := make([]string, 0, o.props.len())
	o.props.foreach(func(s *slot) bool {
		r = append(r, s.name)
		return true
	})
	return r
}

// EnumerableKeys returns the names of own properties which are not DontEnum,
// in insertion order.
func (o *Object) EnumerableKeys() []string {
	r := make([]string, 0, o.props.len())
	if e, ok := o.tag.(OwnEnumerator); ok {
		r = append(r, e.EnumerateOwn(o)...)
	}
	o.props.foreach(func(s *slot) bool {
		if !s.attrs.Has(DontEnum) {
			r = append(r, s.name)
		}
		return true
	})
	return r
}

// references calls visit on each object o holds a counted reference to.
func (o *Object) references(visit func(*Object)) {
	if o.proto != nil {
		visit(o.proto)
	}
	o.props.foreach(func(s *slot) bool {
		if s.value.obj != nil {
			visit(s.value.obj)
		}
		return true
	})
	if t, ok := o.tag.(Tracer); ok {
		t.Trace(o, visit)
	}
}

// ObjectWith creates a new object with the given properties, prototype, value,
// and tag. The properties are defined as with SetSlots.
func (vm *VM) ObjectWith(slots Slots, proto *Object, value interface{}, tag Tag) *Object {
	if tag == nil {
		tag = ObjectTag
	}
	r := &Object{
		Value: value,
		tag:   tag,
		id:    nextObject(),
	}
	if proto != nil {
		r.proto = proto
		proto.retain()
	}
	vm.Heap.track(r)
	vm.SetSlots(r, slots)
	return r
}

// NewObject creates a new plain object with the given properties as
// enumerable data properties and with Object.prototype as its prototype.
func (vm *VM) NewObject(slots Slots) *Object {
	r := vm.ObjectWith(nil, vm.ObjectPrototype, nil, ObjectTag)
	for _, name := range sortedKeys(slots) {
		r.Put(name, slots[name])
	}
	return r
}

// TypeName returns the class name of an object, which is its tag's name.
func (vm *VM) TypeName(o *Object) string {
	if o == nil {
		return "Null"
	}
	return o.Tag().String()
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}

// initObject installs Object.
func (vm *VM) initObject() {
	slots := Slots{
		"hasOwnProperty":       vm.fn("hasOwnProperty", 1, ObjectHasOwnProperty),
		"isPrototypeOf":        vm.fn("isPrototypeOf", 1, ObjectIsPrototypeOf),
		"propertyIsEnumerable": vm.fn("propertyIsEnumerable", 1, ObjectPropertyIsEnumerable),
		"toLocaleString":       vm.fn("toLocaleString", 0, ObjectToString),
		"toString":             vm.fn("toString", 0, ObjectToString),
		"valueOf":              vm.fn("valueOf", 0, ObjectValueOf),
	}
	vm.SetSlots(vm.ObjectPrototype, slots)
	statics := Slots{
		"create":              vm.fn("create", 2, ObjectCreate),
		"defineProperty":      vm.fn("defineProperty", 3, ObjectDefineProperty),
		"getOwnPropertyNames": vm.fn("getOwnPropertyNames", 1, ObjectGetOwnPropertyNames),
		"getPrototypeOf":      vm.fn("getPrototypeOf", 1, ObjectGetPrototypeOf),
		"keys":                vm.fn("keys", 1, ObjectKeys),
		"setPrototypeOf":      vm.fn("setPrototypeOf", 2, ObjectSetPrototypeOf),
	}
	vm.coreInstall("Object", 1, objectCall, objectConstruct, nil, vm.ObjectPrototype, statics)
}

func objectCall(vm *VM, this Value, args List) Completion {
	v := args.At(0)
	if v.IsNullish() {
		return Normal(ObjectValue(vm.NewObject(nil)))
	}
	o, c := vm.ToObject(v)
	if c.Abrupt() {
		return c
	}
	return Normal(ObjectValue(o))
}

func objectConstruct(vm *VM, obj *Object, args List) Completion {
	if v := args.At(0); !v.IsNullish() {
		return objectCall(vm, Undefined(), args)
	}
	return Normal(ObjectValue(obj))
}

// argObject returns the nth argument as an object, or a TypeError.
func (vm *VM) argObject(args List, n int, method string) (*Object, Completion) {
	o := args.At(n).Object()
	if o == nil {
		return nil, vm.TypeError("%s called on non-object", method)
	}
	return o, Completion{}
}

// ObjectGetPrototypeOf is an Object method.
//
// getPrototypeOf returns the prototype of an object, or null.
func ObjectGetPrototypeOf(vm *VM, this Value, args List) Completion {
	o, c := vm.argObject(args, 0, "Object.getPrototypeOf")
	if c.Abrupt() {
		return c
	}
	return Normal(ObjectValue(o.Prototype()))
}

// ObjectSetPrototypeOf is an Object method.
//
// setPrototypeOf sets the prototype of an object to another object or null.
// Creating a cycle is a TypeError.
func ObjectSetPrototypeOf(vm *VM, this Value, args List) Completion {
	o, c := vm.argObject(args, 0, "Object.setPrototypeOf")
	if c.Abrupt() {
		return c
	}
	p := args.At(1)
	if !p.IsObject() && !p.IsNull() {
		return vm.TypeError("Object prototype may only be an Object or null: %v", p)
	}
	if err := o.SetPrototype(p.Object()); err != nil {
		return vm.TypeError("%v", err)
	}
	return Normal(ObjectValue(o))
}

// ObjectCreate is an Object method.
//
// create returns a new object with the given prototype, which may be null,
// and optionally the given own properties.
func ObjectCreate(vm *VM, this Value, args List) Completion {
	p := args.At(0)
	if !p.IsObject() && !p.IsNull() {
		return vm.TypeError("Object prototype may only be an Object or null: %v", p)
	}
	r := vm.ObjectWith(nil, p.Object(), nil, ObjectTag)
	if props := args.At(1).Object(); props != nil {
		for _, name := range props.EnumerableKeys() {
			desc, _ := props.Get(name)
			if c := vm.defineFromDescriptor(r, name, desc); c.Abrupt() {
				return c
			}
		}
	}
	return Normal(ObjectValue(r))
}

// ObjectDefineProperty is an Object method.
//
// defineProperty defines an own data property from a descriptor object with
// value, writable, enumerable, and configurable fields. Absent fields are
// false. Accessor descriptors are a TypeError.
func ObjectDefineProperty(vm *VM, this Value, args List) Completion {
	o, c := vm.argObject(args, 0, "Object.defineProperty")
	if c.Abrupt() {
		return c
	}
	name, c := vm.ToString(args.At(1))
	if c.Abrupt() {
		return c
	}
	if c := vm.defineFromDescriptor(o, name, args.At(2)); c.Abrupt() {
		return c
	}
	return Normal(ObjectValue(o))
}

func (vm *VM) defineFromDescriptor(o *Object, name string, desc Value) Completion {
	d := desc.Object()
	if d == nil {
		return vm.TypeError("Property description must be an object: %v", desc)
	}
	if d.HasProperty("get") || d.HasProperty("set") {
		return vm.TypeError("accessor properties are not supported")
	}
	var attrs Attrs
	if w, _ := d.Get("writable"); !ToBoolean(w) {
		attrs |= ReadOnly
	}
	if e, _ := d.Get("enumerable"); !ToBoolean(e) {
		attrs |= DontEnum
	}
	if cf, _ := d.Get("configurable"); !ToBoolean(cf) {
		attrs |= DontDelete
	}
	if s := o.props.lookup(name); s != nil && s.attrs.Has(DontDelete) && s.attrs.Has(ReadOnly) {
		return vm.TypeError("Cannot redefine property: %s", name)
	}
	v, _ := d.Get("value")
	o.DefineOwnProperty(name, v, attrs)
	return Normal(Undefined())
}

// ObjectKeys is an Object method.
//
// keys returns an array of the enumerable own property names of an object.
func ObjectKeys(vm *VM, this Value, args List) Completion {
	o, c := vm.argObject(args, 0, "Object.keys")
	if c.Abrupt() {
		return c
	}
	return Normal(ObjectValue(vm.stringArray(o.EnumerableKeys())))
}

// ObjectGetOwnPropertyNames is an Object method.
//
// getOwnPropertyNames returns an array of all own property names of an object.
func ObjectGetOwnPropertyNames(vm *VM, this Value, args List) Completion {
	o, c := vm.argObject(args, 0, "Object.getOwnPropertyNames")
	if c.Abrupt() {
		return c
	}
	names := o.Keys()
	if g, ok := o.tag.(OwnGetter); ok {
		if _, ok := g.GetOwn(o, "length"); ok {
			names = append(names, "length")
		}
	}
	return Normal(ObjectValue(vm.stringArray(names)))
}

func (vm *VM) stringArray(names []string) *Object {
	vals := make([]Value, len(names))
	for i, name := range names {
		vals[i] = String(name)
	}
	return vm.NewArray(vals)
}

// ObjectHasOwnProperty is an Object.prototype method.
//
// hasOwnProperty returns whether the receiver has an own property with the
// given name, not checking its prototypes.
func ObjectHasOwnProperty(vm *VM, this Value, args List) Completion {
	name, c := vm.ToString(args.At(0))
	if c.Abrupt() {
		return c
	}
	o, c := vm.ToObject(this)
	if c.Abrupt() {
		return c
	}
	return Normal(Bool(o.HasOwnProperty(name)))
}

// ObjectIsPrototypeOf is an Object.prototype method.
//
// isPrototypeOf returns whether the receiver is among the ancestors of the
// argument.
func ObjectIsPrototypeOf(vm *VM, this Value, args List) Completion {
	v := args.At(0).Object()
	if v == nil {
		return Normal(Bool(false))
	}
	o, c := vm.ToObject(this)
	if c.Abrupt() {
		return c
	}
	return Normal(Bool(v.proto != nil && v.proto.IsKindOf(o)))
}

// ObjectPropertyIsEnumerable is an Object.prototype method.
//
// propertyIsEnumerable returns whether the receiver has an own enumerable
// property with the given name.
func ObjectPropertyIsEnumerable(vm *VM, this Value, args List) Completion {
	name, c := vm.ToString(args.At(0))
	if c.Abrupt() {
		return c
	}
	o, c := vm.ToObject(this)
	if c.Abrupt() {
		return c
	}
	if a, ok := o.ownAttrs(name); ok {
		return Normal(Bool(!a.Has(DontEnum)))
	}
	for _, k := range o.EnumerableKeys() {
		if k == name {
			return Normal(Bool(true))
		}
	}
	return Normal(Bool(false))
}

// ObjectToString is an Object.prototype method.
//
// toString returns "[object " + the class name of the receiver + "]".
func ObjectToString(vm *VM, this Value, args List) Completion {
	switch this.Kind() {
	case UndefinedKind:
		return Normal(String("[object Undefined]"))
	case NullKind:
		return Normal(String("[object Null]"))
	}
	o, c := vm.ToObject(this)
	if c.Abrupt() {
		return c
	}
	return Normal(String("[object " + vm.TypeName(o) + "]"))
}

// ObjectValueOf is an Object.prototype method.
//
// valueOf returns the receiver converted to an object.
func ObjectValueOf(vm *VM, this Value, args List) Completion {
	o, c := vm.ToObject(this)
	if c.Abrupt() {
		return c
	}
	return Normal(ObjectValue(o))
}
