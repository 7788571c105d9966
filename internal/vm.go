package internal

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Version is the interpreter version reported by the command-line shell.
const Version = "1"

// VM is an object for evaluating scripts. A VM and everything it creates are
// confined to a single goroutine, except for Interrupt-style hooks installed
// through RunContext.
type VM struct {
	// Global is the global object, the outermost scope of every program.
	Global *Object

	// Intrinsic prototypes.
	ObjectPrototype   *Object
	FunctionPrototype *Object
	ArrayPrototype    *Object
	StringPrototype   *Object
	NumberPrototype   *Object
	BooleanPrototype  *Object
	ErrorPrototype    *Object

	// RegExpConstructor builds the values of regular expression literals. It
	// is set by the extension that provides regular expressions.
	RegExpConstructor *Object

	// errorProtos maps error kinds to their prototypes.
	errorProtos map[ErrorKind]*Object
	// intrinsics holds every object the VM retains for its own lifetime.
	intrinsics []*Object

	// Heap owns every object the VM creates.
	Heap *Heap
	// Config holds the VM's limits and policies.
	Config Config
	// Logger receives diagnostic records.
	Logger *slog.Logger

	// depth is the current call depth.
	depth int
	// active is the number of evaluations in progress. Safe points exist only
	// while it is zero.
	active int
	// collectPending requests a cycle collection at the next safe point.
	collectPending bool

	// interrupt is checked every Config.InterruptEvery statements.
	interrupt func() error
	// steps counts statements since the last interrupt check.
	steps int

	// StartTime is the time at which VM initialization began.
	StartTime time.Time
}

// Option customizes a new VM.
type Option func(*VM)

// WithConfig sets the VM's configuration.
func WithConfig(cfg Config) Option {
	return func(vm *VM) {
		vm.Config = cfg
	}
}

// WithLogger sets the VM's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(vm *VM) {
		vm.Logger = logger
	}
}

// NewVM prepares a new VM to evaluate scripts.
func NewVM(opts ...Option) *VM {
	haveVM = true

	vm := &VM{
		Config:    DefaultConfig(),
		Logger:    discardLogger(),
		StartTime: time.Now(),
	}
	for _, opt := range opts {
		opt(vm)
	}
	vm.Heap = newHeap(vm.Logger)

	// Object.prototype and Function.prototype must exist before any function
	// can be created, and functions must exist before any constructor.
	vm.ObjectPrototype = vm.intrinsic(vm.ObjectWith(nil, nil, nil, ObjectTag))
	vm.FunctionPrototype = vm.intrinsic(vm.ObjectWith(nil, vm.ObjectPrototype, &Function{Name: "", Native: functionPrototypeCall}, FunctionTag))
	vm.Global = vm.intrinsic(vm.ObjectWith(nil, vm.ObjectPrototype, nil, GlobalTag))

	vm.initObject()
	vm.initFunction()
	vm.initError()
	vm.initArray()
	vm.initString()
	vm.initNumber()
	vm.initBoolean()
	vm.initGlobal()

	for _, ext := range coreExt {
		ext(vm)
	}
	// Everything created during initialization that nothing holds is garbage.
	vm.Heap.Reclaim()
	vm.Logger.Debug("vm initialized", slog.Int("live", vm.Heap.Live()), slog.Duration("took", time.Since(vm.StartTime)))
	return vm
}

// intrinsic retains o for the lifetime of the VM and returns it.
func (vm *VM) intrinsic(o *Object) *Object {
	o.retain()
	vm.intrinsics = append(vm.intrinsics, o)
	return o
}

// Intrinsic retains o for the lifetime of the VM and returns it. Core
// extensions use it for prototypes they need to reach directly.
func (vm *VM) Intrinsic(o *Object) *Object {
	return vm.intrinsic(o)
}

// SetInterrupt installs a hook which the evaluator calls periodically. If the
// hook returns a non-nil error, evaluation unwinds with an uncatchable
// completion wrapping it. A nil hook removes any existing one.
func (vm *VM) SetInterrupt(f func() error) {
	vm.interrupt = f
	vm.steps = 0
}

// checkInterrupt counts a statement and runs the interrupt hook if due.
func (vm *VM) checkInterrupt() (Completion, bool) {
	if vm.interrupt == nil {
		return Completion{}, false
	}
	vm.steps++
	if vm.steps < vm.Config.InterruptEvery {
		return Completion{}, false
	}
	vm.steps = 0
	if err := vm.interrupt(); err != nil {
		vm.Logger.Info("evaluation interrupted", slog.Any("err", err), slog.Int("depth", vm.depth))
		return vm.interruptCompletion(err), true
	}
	return Completion{}, false
}

// RunContext runs a program with the given source, returning an interrupted
// completion if ctx is canceled before it finishes.
func (vm *VM) RunContext(ctx context.Context, src, name string) (Completion, error) {
	prev := vm.interrupt
	vm.SetInterrupt(ctx.Err)
	defer vm.SetInterrupt(prev)
	return vm.RunString(src, name)
}

// Reclaim destroys every unheld object if called at a safe point. During
// evaluation it does nothing and returns 0.
func (vm *VM) Reclaim() int {
	if vm.active > 0 {
		return 0
	}
	return vm.Heap.Reclaim()
}

// Collect runs a cycle collection pass if called at a safe point. During
// evaluation it schedules one for the next safe point and returns 0.
func (vm *VM) Collect() int {
	if vm.active > 0 {
		vm.collectPending = true
		return 0
	}
	vm.collectPending = false
	return vm.Heap.Collect()
}

// safePoint performs pending memory management between top-level statements.
func (vm *VM) safePoint() {
	if vm.active > 0 {
		return
	}
	if vm.collectPending || (vm.Config.CollectThreshold > 0 && vm.Heap.Live() > vm.Config.CollectThreshold) {
		vm.Collect()
		return
	}
	vm.Heap.Reclaim()
}

// Register registers a core extension. Each function is called in the order it
// is registered; extensions that depend on other extensions need only import
// them. Register should be called from within init funcs. Panics if NewVM has
// been called.
func Register(f func(*VM)) {
	if haveVM {
		panic("jsvm/internal: Register must be called before any VM is created")
	}
	coreExt = append(coreExt, f)
}

// coreExt is a list of core extensions that have been registered.
var coreExt = make([]func(*VM), 0, 4)

// haveVM becomes true once NewVM has been called.
var haveVM = false

// GlobalTag is the tag of the global object.
const GlobalTag BasicTag = "global"

// SetGlobal defines a non-enumerable global binding.
func (vm *VM) SetGlobal(name string, v Value) {
	vm.Global.DefineOwnProperty(name, v, DontEnum)
}

// GetGlobal returns the value of a global binding.
func (vm *VM) GetGlobal(name string) Value {
	v, _ := vm.Global.Get(name)
	return v
}

// MustRunString runs a program and panics if it fails to parse or completes
// abruptly.
func (vm *VM) MustRunString(src, name string) Value {
	c, err := vm.RunString(src, name)
	if err != nil {
		panic(err)
	}
	if c.Abrupt() {
		panic(fmt.Errorf("jsvm: %s: %w", name, c.Err()))
	}
	return c.Value
}
