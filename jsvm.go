/*
Package jsvm implements an embeddable evaluation core for an ECMAScript-style
language.

Scripts are parsed into syntax trees and evaluated by walking them. Every
evaluation step produces a Completion, which pairs a control flow reason with a
value. Normal completions continue the enclosing construct; break, continue,
return, and throw completions propagate outward until a loop, switch, label,
function boundary, or try statement consumes them. Go errors are never used to
carry script control flow, and script failures never panic.

Objects are property tables linked into prototype chains. An object's Tag
identifies its native category, and a tag may supply call and construct
behavior by implementing Caller and Constructor. Functions, arrays, primitive
wrappers, and errors are all ordinary objects distinguished by tag, so a host
adds a native type by defining a tag, a prototype carrying that tag, and a
constructor:

	const PointTag = jsvm.BasicTag("Point")

	proto := vm.ObjectWith(nil, vm.ObjectPrototype, nil, PointTag)
	jsvm.CoreInstall(vm, "Point", 2, nil, func(vm *jsvm.VM, obj *jsvm.Object, args jsvm.List) jsvm.Completion {
		obj.Put("x", args.At(0))
		obj.Put("y", args.At(1))
		return jsvm.Normal(jsvm.ObjectValue(obj))
	}, PointTag, proto, nil)

Object lifetime is managed by deferred reference counting with a cycle
collection pass. Hosts that keep a Value beyond the evaluation that produced
it must Retain it and later Release it. Unheld objects are reclaimed between
top-level statements; call VM.Collect to reclaim cyclic garbage.

# Embedding

Create a VM with NewVM, then run programs with RunString or RunContext:

	vm := jsvm.NewVM()
	c, err := vm.RunString("var x = 6; x * 7", "example.js")
	if err != nil {
		// syntax error
	}
	if err := c.Err(); err != nil {
		// uncaught exception
	}
	fmt.Println(c.Value) // 42

Importing the coreext package installs the optional built-ins: RegExp, Date,
and Collector.
*/
package jsvm

import (
	"context"
	"io"
	"log/slog"

	"github.com/robertkrimen/otto/ast"

	"github.com/zephyrtronium/jsvm/internal"
)

// A VM evaluates scripts.
type VM = internal.VM

// Value is the result of evaluating any expression.
type Value = internal.Value

// Kind discriminates the representations a Value can hold.
type Kind = internal.Kind

// A Completion is the result of every evaluation step: a control flow reason
// and the value that goes with it.
type Completion = internal.Completion

// A Stop represents a reason for flow control.
type Stop = internal.Stop

// List is an ordered, immutable sequence of values, used for argument lists.
type List = internal.List

// Object is a property container with an optional prototype.
//
// Always use NewObject, ObjectWith, or a type-specific constructor to obtain
// new objects. Creating objects directly will result in arbitrary failures.
type Object = internal.Object

// Slots holds a set of properties to define at once.
type Slots = internal.Slots

// Attrs is a set of property attributes.
type Attrs = internal.Attrs

// Tag is a type indicator for objects. Tag values must be comparable.
type Tag = internal.Tag

// BasicTag is a special Tag type for plain types which need no customized
// behavior.
type BasicTag = internal.BasicTag

// Caller is implemented by tags whose objects are callable.
type Caller = internal.Caller

// Constructor is implemented by tags whose objects are constructible.
type Constructor = internal.Constructor

// Function is the Value of function objects.
type Function = internal.Function

// A NativeFn is a statically compiled function which can be called from
// scripts.
type NativeFn = internal.NativeFn

// A ConstructFn initializes an object allocated by construction.
type ConstructFn = internal.ConstructFn

// ThrowError is the Go error form of an uncaught throw completion.
type ThrowError = internal.ThrowError

// ErrorKind identifies one of the built-in error constructors.
type ErrorKind = internal.ErrorKind

// Config holds the tunable limits and policies of a VM.
type Config = internal.Config

// ThisPolicy selects the receiver a non-strict function sees when it is called
// with an undefined or null this.
type ThisPolicy = internal.ThisPolicy

// Option customizes a new VM.
type Option = internal.Option

// Heap tracks the objects created by a VM.
type Heap = internal.Heap

// HeapStats holds counters describing a heap's activity.
type HeapStats = internal.HeapStats

// Value kinds.
const (
	UndefinedKind = internal.UndefinedKind
	NullKind      = internal.NullKind
	BooleanKind   = internal.BooleanKind
	NumberKind    = internal.NumberKind
	StringKind    = internal.StringKind
	ObjectKind    = internal.ObjectKind
)

// Control flow reasons.
const (
	NoStop       = internal.NoStop
	ContinueStop = internal.ContinueStop
	BreakStop    = internal.BreakStop
	ReturnStop   = internal.ReturnStop
	ThrowStop    = internal.ThrowStop
)

// Property attributes.
const (
	ReadOnly   = internal.ReadOnly
	DontEnum   = internal.DontEnum
	DontDelete = internal.DontDelete
)

// Receiver substitution policies.
const (
	ThisGlobal    = internal.ThisGlobal
	ThisUndefined = internal.ThisUndefined
)

// Built-in error kinds.
const (
	PlainError     = internal.PlainError
	TypeError      = internal.TypeError
	ReferenceError = internal.ReferenceError
	RangeError     = internal.RangeError
	SyntaxError    = internal.SyntaxError
	EvalError      = internal.EvalError
	URIError       = internal.URIError
)

// Tag constants for core types.
const (
	ObjectTag    = internal.ObjectTag
	ErrorTag     = internal.ErrorTag
	NumberTag    = internal.NumberTag
	BooleanTag   = internal.BooleanTag
	ArgumentsTag = internal.ArgumentsTag
	GlobalTag    = internal.GlobalTag
)

// Tag variables for core types.
var (
	FunctionTag   = internal.FunctionTag
	ArrayTag      = internal.ArrayTag
	StringTag     = internal.StringTag
	ActivationTag = internal.ActivationTag
)

// ErrPrototypeCycle is the error returned when setting a prototype would make
// an object its own ancestor.
var ErrPrototypeCycle = internal.ErrPrototypeCycle

// NewVM prepares a new VM to evaluate scripts.
func NewVM(opts ...Option) *VM {
	return internal.NewVM(opts...)
}

// WithConfig sets the VM's configuration.
func WithConfig(cfg Config) Option {
	return internal.WithConfig(cfg)
}

// WithLogger sets the VM's logger.
func WithLogger(logger *slog.Logger) Option {
	return internal.WithLogger(logger)
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return internal.DefaultConfig()
}

// ParseConfig decodes a YAML configuration.
func ParseConfig(data []byte) (Config, error) {
	return internal.ParseConfig(data)
}

// LoadConfig reads and decodes a YAML configuration file.
func LoadConfig(path string) (Config, error) {
	return internal.LoadConfig(path)
}

// NewLogger returns a logger that writes to w at the given minimum level,
// colorized if w is a terminal.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return internal.NewLogger(w, level)
}

// NewJSONLogger returns a logger that writes JSON records to w.
func NewJSONLogger(w io.Writer, level slog.Level) *slog.Logger {
	return internal.NewJSONLogger(w, level)
}

// ParseLevel parses a log level name as used in configuration files.
func ParseLevel(s string) (slog.Level, error) {
	return internal.ParseLevel(s)
}

// Version is the version of the evaluator.
const Version = internal.Version

// Parse parses a program.
func Parse(src, name string) (*ast.Program, error) {
	return internal.Parse(src, name)
}

// Run parses and runs a program on a new VM, returning its completion value
// or the error that ended it.
func Run(ctx context.Context, src, name string, opts ...Option) (Value, error) {
	vm := NewVM(opts...)
	c, err := vm.RunContext(ctx, src, name)
	if err != nil {
		return Value{}, err
	}
	if err := c.Err(); err != nil {
		return Value{}, err
	}
	return c.Value, nil
}

// Undefined returns the undefined value.
func Undefined() Value { return internal.Undefined() }

// Null returns the null value.
func Null() Value { return internal.Null() }

// Bool returns a boolean value.
func Bool(b bool) Value { return internal.Bool(b) }

// Number returns a numeric value.
func Number(f float64) Value { return internal.Number(f) }

// String returns a string value.
func String(s string) Value { return internal.String(s) }

// ObjectValue returns a value referring to o, or null if o is nil.
func ObjectValue(o *Object) Value { return internal.ObjectValue(o) }

// NewList creates a list holding a copy of the given values.
func NewList(vals ...Value) List { return internal.NewList(vals...) }

// Normal returns a normal completion with the given value.
func Normal(v Value) Completion { return internal.Normal(v) }

// Throw returns a throw completion carrying the given value.
func Throw(v Value) Completion { return internal.Throw(v) }

// Return returns a return completion carrying the given value.
func Return(v Value) Completion { return internal.Return(v) }

// Break returns a break completion targeting label.
func Break(label string) Completion { return internal.Break(label) }

// Continue returns a continue completion targeting label.
func Continue(label string) Completion { return internal.Continue(label) }

// CoreInstall creates a native constructor with the given prototype, defines
// statics on it, and binds it as a global.
func CoreInstall(vm *VM, name string, length int, call NativeFn, construct ConstructFn, instance Tag, proto *Object, statics Slots) *Object {
	return internal.CoreInstall(vm, name, length, call, construct, instance, proto, statics)
}

// AsThrowError extracts a *ThrowError from err.
func AsThrowError(err error) (*ThrowError, bool) {
	return internal.AsThrowError(err)
}

// IsCallable reports whether v is an object that can be called.
func IsCallable(v Value) bool { return internal.IsCallable(v) }

// IsConstructor reports whether v is an object that can be constructed.
func IsConstructor(v Value) bool { return internal.IsConstructor(v) }

// ToBoolean converts a value to a boolean.
func ToBoolean(v Value) bool { return internal.ToBoolean(v) }

// TypeOf returns the result of the typeof operator applied to v.
func TypeOf(v Value) string { return internal.TypeOf(v) }

// StrictEquals implements the === operator.
func StrictEquals(a, b Value) bool { return internal.StrictEquals(a, b) }

// SameValue is like StrictEquals, except that NaN is equal to itself and
// positive and negative zero differ.
func SameValue(a, b Value) bool { return internal.SameValue(a, b) }

// NumberToString formats a number the way scripts see it.
func NumberToString(f float64) string { return internal.NumberToString(f) }
