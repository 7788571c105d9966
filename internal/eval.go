package internal

import (
	"fmt"
	"io"
	"strings"

	"github.com/robertkrimen/otto/ast"
	"github.com/robertkrimen/otto/parser"
)

// frame is the evaluation context of a program or function body.
type frame struct {
	// scope is the innermost scope, used to resolve identifiers.
	scope *Object
	// varObj receives hoisted declarations.
	varObj *Object
	// this is the receiver.
	this Value
	// strict is true in strict mode code.
	strict bool
	// mark is the newest object allocated before a function call began, or 0
	// outside function bodies. Statement boundaries in the body may reclaim
	// unheld objects allocated after it.
	mark uintptr
}

// boundary is a statement boundary inside a function body. keep is a value
// the evaluator still carries, which survives even if nothing else holds it.
func (vm *VM) boundary(fr *frame, keep Value) {
	if fr.mark == 0 {
		return
	}
	keep.Retain()
	vm.Heap.reclaimSince(fr.mark)
	keep.Release()
}

// parseMode checks regular expression literals when they are constructed
// rather than against the parser's own regexp dialect.
const parseMode = parser.IgnoreRegExpErrors

// Parse parses a program.
func Parse(src, name string) (*ast.Program, error) {
	prog, err := parser.ParseFile(nil, name, src, parseMode)
	if err != nil {
		return nil, fmt.Errorf("jsvm: %w", err)
	}
	return prog, nil
}

// ParseReader parses a program read from r.
func ParseReader(r io.Reader, name string) (*ast.Program, error) {
	b := strings.Builder{}
	if _, err := io.Copy(&b, r); err != nil {
		return nil, fmt.Errorf("jsvm: reading %s: %w", name, err)
	}
	return Parse(b.String(), name)
}

// ParseFunction parses a function from its parameter list and body.
func ParseFunction(params, body string) (*ast.FunctionLiteral, error) {
	src := "(function(" + params + ") {\n" + body + "\n})"
	prog, err := parser.ParseFile(nil, "anonymous", src, parseMode)
	if err != nil {
		return nil, fmt.Errorf("jsvm: %w", err)
	}
	if len(prog.Body) == 1 {
		if st, ok := prog.Body[0].(*ast.ExpressionStatement); ok {
			if lit, ok := st.Expression.(*ast.FunctionLiteral); ok {
				return lit, nil
			}
		}
	}
	return nil, fmt.Errorf("jsvm: function body does not form a single function")
}

// RunString parses and runs a program. A parse failure is returned as an
// error; everything else is reported through the completion.
func (vm *VM) RunString(src, name string) (Completion, error) {
	prog, err := Parse(src, name)
	if err != nil {
		return Completion{}, err
	}
	return vm.RunProgram(prog), nil
}

// RunProgram runs a parsed program in the global scope. The result is the
// value of the last statement that produced one, or the abrupt completion that
// ended the program. The result value is retained on behalf of the caller,
// which should release it when done.
//
// Each statement boundary of a program that is not nested in another
// evaluation is a safe point for memory management.
func (vm *VM) RunProgram(prog *ast.Program) Completion {
	fr := &frame{
		scope:  vm.Global,
		varObj: vm.Global,
		this:   ObjectValue(vm.Global),
		strict: hasUseStrict(prog.Body),
	}
	vm.active++
	c := vm.hoist(fr, prog.Body)
	vm.active--
	if c.Abrupt() {
		return Completion{Stop: c.Stop, Value: c.Value.Retain()}
	}
	result := Undefined()
	for _, s := range prog.Body {
		vm.active++
		c := vm.evalStatement(fr, s, nil)
		vm.active--
		if !c.empty {
			v := c.Value.Retain()
			result.Release()
			result = v
		}
		switch c.Stop {
		case NoStop:
			vm.safePoint()
			continue
		case BreakStop, ContinueStop:
			c = vm.SyntaxError("illegal %v statement", c.Stop)
		case ReturnStop:
			c = vm.SyntaxError("illegal return statement")
		}
		result.Release()
		return Completion{Stop: ThrowStop, Value: c.Value.Retain()}
	}
	return Normal(result)
}

// Evaluate evaluates a single syntax node in the given scope. A nil scope
// means the global scope. Programs are run as by RunProgram.
func (vm *VM) Evaluate(node ast.Node, scope *Object) Completion {
	if prog, ok := node.(*ast.Program); ok {
		return vm.RunProgram(prog)
	}
	if scope == nil {
		scope = vm.Global
	}
	fr := &frame{scope: scope, varObj: scope, this: ObjectValue(vm.Global)}
	vm.active++
	defer func() { vm.active-- }()
	switch n := node.(type) {
	case ast.Statement:
		return vm.evalStatement(fr, n, nil)
	case ast.Expression:
		return vm.evalExpr(fr, n)
	}
	return vm.SyntaxError("cannot evaluate %T", node)
}

// NewScope creates a scope enclosed by outer, for use with Evaluate. A nil
// outer means the global scope.
func (vm *VM) NewScope(outer *Object) *Object {
	if outer == nil {
		outer = vm.Global
	}
	return vm.newActivation(outer)
}

// reference is the result of evaluating an expression that designates a
// binding rather than a value.
type reference struct {
	// base is the object or primitive holding the property, or the scope
	// holding the binding.
	base Value
	name string
	// unresolved is true for identifiers bound nowhere in the scope chain.
	unresolved bool
}

// lookup finds the scope which binds name.
func lookup(scope *Object, name string) *Object {
	for s := scope; s != nil; s = outerScope(s) {
		if s.HasProperty(name) {
			return s
		}
	}
	return nil
}

// evalRef evaluates an expression as a reference.
func (vm *VM) evalRef(fr *frame, e ast.Expression) (reference, Completion) {
	switch e := e.(type) {
	case *ast.Identifier:
		return identRef(fr, e.Name), Completion{}
	case *ast.VariableExpression:
		return identRef(fr, e.Name), Completion{}
	case *ast.DotExpression:
		c := vm.evalExpr(fr, e.Left)
		if c.Abrupt() {
			return reference{}, c
		}
		if c.Value.IsNullish() {
			return reference{}, vm.TypeError("Cannot read property '%s' of %v", e.Identifier.Name, c.Value)
		}
		return reference{base: c.Value, name: e.Identifier.Name}, Completion{}
	case *ast.BracketExpression:
		c := vm.evalExpr(fr, e.Left)
		if c.Abrupt() {
			return reference{}, c
		}
		base := c.Value
		c = vm.evalExpr(fr, e.Member)
		if c.Abrupt() {
			return reference{}, c
		}
		if base.IsNullish() {
			return reference{}, vm.TypeError("Cannot read property '%v' of %v", c.Value, base)
		}
		name, c := vm.ToString(c.Value)
		if c.Abrupt() {
			return reference{}, c
		}
		return reference{base: base, name: name}, Completion{}
	}
	return reference{}, vm.ReferenceError("Invalid left-hand side in assignment")
}

func identRef(fr *frame, name string) reference {
	if s := lookup(fr.scope, name); s != nil {
		return reference{base: ObjectValue(s), name: name}
	}
	return reference{name: name, unresolved: true}
}

// getValue reads through a reference.
func (vm *VM) getValue(ref reference) Completion {
	if ref.unresolved {
		return vm.ReferenceError("%s is not defined", ref.name)
	}
	o, c := vm.ToObject(ref.base)
	if c.Abrupt() {
		return c
	}
	v, _ := o.Get(ref.name)
	return Normal(v)
}

// putValue assigns through a reference.
func (vm *VM) putValue(fr *frame, ref reference, v Value) Completion {
	if ref.unresolved {
		if fr.strict {
			return vm.ReferenceError("%s is not defined", ref.name)
		}
		vm.Global.Put(ref.name, v)
		return Normal(v)
	}
	o := ref.base.Object()
	if o == nil {
		// Assignments to properties of primitives are discarded.
		return Normal(v)
	}
	if ref.name == "length" && o.Tag() == ArrayTag {
		return vm.setArrayLength(o, v)
	}
	if !o.Put(ref.name, v) && fr.strict {
		return vm.TypeError("Cannot assign to read only property '%s'", ref.name)
	}
	return Normal(v)
}

// exprName renders a callee expression for error messages.
func exprName(e ast.Expression) string {
	switch e := e.(type) {
	case *ast.Identifier:
		return e.Name
	case *ast.DotExpression:
		return exprName(e.Left) + "." + e.Identifier.Name
	case *ast.BracketExpression:
		return exprName(e.Left) + "[...]"
	case *ast.ThisExpression:
		return "this"
	case *ast.FunctionLiteral:
		return "function"
	}
	return "expression"
}
