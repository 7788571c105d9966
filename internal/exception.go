package internal

import (
	"errors"
	"fmt"
)

// ErrorKind identifies one of the built-in error constructors.
type ErrorKind string

// Built-in error kinds. Each is also the name of its global constructor.
const (
	PlainError     ErrorKind = "Error"
	TypeError      ErrorKind = "TypeError"
	ReferenceError ErrorKind = "ReferenceError"
	RangeError     ErrorKind = "RangeError"
	SyntaxError    ErrorKind = "SyntaxError"
	EvalError      ErrorKind = "EvalError"
	URIError       ErrorKind = "URIError"
)

var errorKinds = []ErrorKind{PlainError, TypeError, ReferenceError, RangeError, SyntaxError, EvalError, URIError}

// ErrorTag is the tag of error objects.
const ErrorTag BasicTag = "Error"

// ThrowError is the Go error form of an uncaught throw completion.
type ThrowError struct {
	// Value is the thrown value.
	Value Value
}

// Error returns a description of the thrown value. Error objects are described
// by their name and message.
func (e *ThrowError) Error() string {
	o := e.Value.Object()
	if o == nil {
		return "uncaught " + e.Value.String()
	}
	if err, ok := o.Value.(error); ok && o.Tag() == interruptTag {
		return "interrupted: " + err.Error()
	}
	if o.Tag() == ErrorTag {
		name, _ := o.Get("name")
		msg, _ := o.Get("message")
		if msg.Str() == "" {
			return name.String()
		}
		return name.String() + ": " + msg.String()
	}
	return "uncaught " + e.Value.String()
}

// Unwrap returns the error which interrupted evaluation, if any.
func (e *ThrowError) Unwrap() error {
	if o := e.Value.Object(); o != nil && o.Tag() == interruptTag {
		err, _ := o.Value.(error)
		return err
	}
	return nil
}

// IsKind returns true if the thrown value is an error object of the given
// kind.
func (e *ThrowError) IsKind(kind ErrorKind) bool {
	o := e.Value.Object()
	if o == nil || o.Tag() != ErrorTag {
		return false
	}
	name, _ := o.Get("name")
	return name.Str() == string(kind)
}

// AsThrowError extracts a *ThrowError from err.
func AsThrowError(err error) (*ThrowError, bool) {
	var t *ThrowError
	ok := errors.As(err, &t)
	return t, ok
}

// NewError creates an error object of the given kind with the given message.
func (vm *VM) NewError(kind ErrorKind, msg string) *Object {
	proto := vm.errorProtos[kind]
	if proto == nil {
		proto = vm.ErrorPrototype
	}
	e := vm.ObjectWith(nil, proto, nil, ErrorTag)
	e.DefineOwnProperty("message", String(msg), DontEnum)
	return e
}

// Throwf returns a throw completion carrying a new error of the given kind.
func (vm *VM) Throwf(kind ErrorKind, format string, args ...interface{}) Completion {
	return Throw(ObjectValue(vm.NewError(kind, fmt.Sprintf(format, args...))))
}

// TypeError returns a throw completion carrying a new TypeError.
func (vm *VM) TypeError(format string, args ...interface{}) Completion {
	return vm.Throwf(TypeError, format, args...)
}

// ReferenceError returns a throw completion carrying a new ReferenceError.
func (vm *VM) ReferenceError(format string, args ...interface{}) Completion {
	return vm.Throwf(ReferenceError, format, args...)
}

// RangeError returns a throw completion carrying a new RangeError.
func (vm *VM) RangeError(format string, args ...interface{}) Completion {
	return vm.Throwf(RangeError, format, args...)
}

// SyntaxError returns a throw completion carrying a new SyntaxError.
func (vm *VM) SyntaxError(format string, args ...interface{}) Completion {
	return vm.Throwf(SyntaxError, format, args...)
}

// interruptTag marks the thrown value of an interrupted evaluation. Catch
// clauses and finally blocks do not intercept it.
const interruptTag BasicTag = "Interrupt"

func (vm *VM) interruptCompletion(err error) Completion {
	return Throw(ObjectValue(vm.ObjectWith(nil, nil, err, interruptTag)))
}

// isInterrupt returns true if c unwinds an interrupted evaluation.
func isInterrupt(c Completion) bool {
	return c.Stop == ThrowStop && c.Value.obj != nil && c.Value.obj.tag == interruptTag
}

// initError installs Error and its subclasses.
func (vm *VM) initError() {
	vm.errorProtos = make(map[ErrorKind]*Object, len(errorKinds))
	for _, kind := range errorKinds {
		var proto *Object
		if kind == PlainError {
			proto = vm.intrinsic(vm.ObjectWith(nil, vm.ObjectPrototype, nil, ObjectTag))
			vm.ErrorPrototype = proto
			vm.SetSlots(proto, Slots{
				"message":  String(""),
				"toString": vm.fn("toString", 0, ErrorToString),
			})
		} else {
			proto = vm.intrinsic(vm.ObjectWith(nil, vm.ErrorPrototype, nil, ObjectTag))
		}
		proto.DefineOwnProperty("name", String(string(kind)), DontEnum)
		vm.errorProtos[kind] = proto
		// Calling an error constructor as a function behaves the same as
		// constructing it.
		var ctor *Object
		call := func(vm *VM, this Value, args List) Completion {
			return vm.Construct(ObjectValue(ctor), args)
		}
		ctor = vm.coreInstall(string(kind), 1, call, errorConstruct, ErrorTag, proto, nil)
	}
}

func errorConstruct(vm *VM, obj *Object, args List) Completion {
	if msg := args.At(0); !msg.IsUndefined() {
		s, c := vm.ToString(msg)
		if c.Abrupt() {
			return c
		}
		obj.DefineOwnProperty("message", String(s), DontEnum)
	}
	return Normal(ObjectValue(obj))
}

// ErrorToString is an Error.prototype method.
//
// toString returns the error's name and message separated by a colon.
func ErrorToString(vm *VM, this Value, args List) Completion {
	o := this.Object()
	if o == nil {
		return vm.TypeError("Error.prototype.toString called on non-object")
	}
	nv, _ := o.Get("name")
	mv, _ := o.Get("message")
	name, msg := "Error", ""
	if !nv.IsUndefined() {
		s, c := vm.ToString(nv)
		if c.Abrupt() {
			return c
		}
		name = s
	}
	if !mv.IsUndefined() {
		s, c := vm.ToString(mv)
		if c.Abrupt() {
			return c
		}
		msg = s
	}
	switch {
	case msg == "":
		return Normal(String(name))
	case name == "":
		return Normal(String(msg))
	}
	return Normal(String(name + ": " + msg))
}
