package internal

import (
	"strconv"

	"github.com/robertkrimen/otto/ast"
)

// activation is the Value of scope objects. The global object is the
// outermost scope and has no activation.
type activation struct {
	// outer is the enclosing scope.
	outer *Object
}

// tagActivation is the Tag type for scope objects.
type tagActivation struct{}

// ActivationTag is the Tag for function and catch scopes.
var ActivationTag tagActivation

func (tagActivation) String() string {
	return "Activation"
}

func (tagActivation) Trace(self *Object, visit func(*Object)) {
	if a := self.Value.(*activation); a.outer != nil {
		visit(a.outer)
	}
}

func (tagActivation) Finalize(self *Object) {
	a := self.Value.(*activation)
	if a.outer != nil {
		a.outer.release()
		a.outer = nil
	}
}

// newActivation creates a scope enclosed by outer. Scopes have no prototype,
// so name resolution sees only their own bindings.
func (vm *VM) newActivation(outer *Object) *Object {
	outer.retain()
	return vm.ObjectWith(nil, nil, &activation{outer: outer}, ActivationTag)
}

// outerScope returns the scope enclosing s, or nil if s is outermost.
func outerScope(s *Object) *Object {
	if a, ok := s.Value.(*activation); ok {
		return a.outer
	}
	return nil
}

// ArgumentsTag is the tag of arguments objects.
const ArgumentsTag BasicTag = "Arguments"

// newScriptFunction creates a function object from a literal, closing over
// scope. Every script function gets a fresh prototype object whose constructor
// property links back to the function.
func (vm *VM) newScriptFunction(lit *ast.FunctionLiteral, scope *Object, strict bool) *Object {
	f := &Function{
		Literal: lit,
		Scope:   scope,
		Strict:  strict || isStrictBody(lit.Body),
	}
	if lit.Name != nil {
		f.Name = lit.Name.Name
	}
	if lit.ParameterList != nil {
		for _, id := range lit.ParameterList.List {
			f.Params = append(f.Params, id.Name)
		}
	}
	f.Length = len(f.Params)
	scope.retain()
	r := vm.functionObject(f)
	proto := vm.ObjectWith(nil, vm.ObjectPrototype, nil, ObjectTag)
	proto.DefineOwnProperty("constructor", ObjectValue(r), DontEnum)
	r.DefineOwnProperty("prototype", ObjectValue(proto), DontEnum|DontDelete)
	return r
}

// callScript evaluates the body of a script function in a new activation.
func (vm *VM) callScript(self *Object, f *Function, this Value, args List) Completion {
	act := vm.newActivation(f.Scope)
	fr := &frame{scope: act, varObj: act, this: this, strict: f.Strict}
	for i, name := range f.Params {
		act.DefineOwnProperty(name, args.At(i), DontDelete)
	}
	if !act.HasOwnProperty("arguments") {
		act.DefineOwnProperty("arguments", ObjectValue(vm.newArguments(self, args)), DontDelete)
	}
	if f.bindSelf && !act.HasOwnProperty(f.Name) {
		act.DefineOwnProperty(f.Name, ObjectValue(self), DontDelete)
	}
	fr.mark = objectMark()
	if c := vm.hoist(fr, bodyStatements(f.Literal.Body)); c.Abrupt() {
		return c
	}
	return vm.consumeReturn(vm.evalStatement(fr, f.Literal.Body, nil))
}

// newArguments creates the arguments object of a call.
func (vm *VM) newArguments(callee *Object, args List) *Object {
	r := vm.ObjectWith(nil, vm.ObjectPrototype, nil, ArgumentsTag)
	for i, v := range args.vals {
		r.Put(strconv.Itoa(i), v)
	}
	r.DefineOwnProperty("length", Number(float64(args.Len())), DontEnum)
	r.DefineOwnProperty("callee", ObjectValue(callee), DontEnum)
	return r
}

// bodyStatements returns the statements of a function body.
func bodyStatements(body ast.Statement) []ast.Statement {
	if b, ok := body.(*ast.BlockStatement); ok {
		return b.List
	}
	if body == nil {
		return nil
	}
	return []ast.Statement{body}
}

// isStrictBody reports whether a function body begins with a use strict
// directive.
func isStrictBody(body ast.Statement) bool {
	return hasUseStrict(bodyStatements(body))
}

// hasUseStrict reports whether a directive prologue contains use strict.
func hasUseStrict(body []ast.Statement) bool {
	for _, s := range body {
		es, ok := s.(*ast.ExpressionStatement)
		if !ok {
			return false
		}
		lit, ok := es.Expression.(*ast.StringLiteral)
		if !ok {
			return false
		}
		if lit.Value == "use strict" {
			return true
		}
	}
	return false
}

// hoist binds the variables and functions declared in body to the frame's
// variable object. Variables are initialized to undefined unless already
// bound; functions are created immediately.
func (vm *VM) hoist(fr *frame, body []ast.Statement) Completion {
	var vars []string
	var funcs []*ast.FunctionLiteral
	var walk func(s ast.Statement)
	walkExpr := func(e ast.Expression) {
		switch e := e.(type) {
		case *ast.VariableExpression:
			vars = append(vars, e.Name)
		case *ast.SequenceExpression:
			for _, x := range e.Sequence {
				if v, ok := x.(*ast.VariableExpression); ok {
					vars = append(vars, v.Name)
				}
			}
		}
	}
	walk = func(s ast.Statement) {
		switch s := s.(type) {
		case *ast.VariableStatement:
			for _, e := range s.List {
				walkExpr(e)
			}
		case *ast.FunctionStatement:
			funcs = append(funcs, s.Function)
		case *ast.BlockStatement:
			for _, t := range s.List {
				walk(t)
			}
		case *ast.IfStatement:
			walk(s.Consequent)
			walk(s.Alternate)
		case *ast.ForStatement:
			walkExpr(s.Initializer)
			walk(s.Body)
		case *ast.ForInStatement:
			walkExpr(s.Into)
			walk(s.Body)
		case *ast.WhileStatement:
			walk(s.Body)
		case *ast.DoWhileStatement:
			walk(s.Body)
		case *ast.LabelledStatement:
			walk(s.Statement)
		case *ast.SwitchStatement:
			for _, c := range s.Body {
				for _, t := range c.Consequent {
					walk(t)
				}
			}
		case *ast.TryStatement:
			walk(s.Body)
			if s.Catch != nil {
				walk(s.Catch.Body)
			}
			walk(s.Finally)
		case *ast.WithStatement:
			walk(s.Body)
		}
	}
	for _, s := range body {
		walk(s)
	}
	for _, name := range vars {
		if !fr.varObj.HasOwnProperty(name) {
			fr.varObj.DefineOwnProperty(name, Undefined(), DontDelete)
		}
	}
	for _, lit := range funcs {
		if lit.Name == nil {
			continue
		}
		fn := vm.newScriptFunction(lit, fr.scope, fr.strict)
		if !fr.varObj.Put(lit.Name.Name, ObjectValue(fn)) {
			return vm.TypeError("cannot redefine read-only %s", lit.Name.Name)
		}
	}
	return Normal(Undefined())
}
