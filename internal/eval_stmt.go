package internal

import (
	"github.com/robertkrimen/otto/ast"
	"github.com/robertkrimen/otto/token"
)

// evalStatement evaluates a statement. labels holds the labels directly
// attached to the statement, which loops and switches use to recognize
// breaks and continues aimed at them.
func (vm *VM) evalStatement(fr *frame, s ast.Statement, labels []string) Completion {
	if s == nil {
		return emptyCompletion()
	}
	if c, ok := vm.checkInterrupt(); ok {
		return c
	}
	switch s := s.(type) {
	case *ast.ExpressionStatement:
		return vm.evalExpr(fr, s.Expression)
	case *ast.BlockStatement:
		return vm.evalStatements(fr, s.List)
	case *ast.EmptyStatement, *ast.FunctionStatement, *ast.DebuggerStatement:
		return emptyCompletion()
	case *ast.VariableStatement:
		for _, e := range s.List {
			if c := vm.evalExpr(fr, e); c.Abrupt() {
				return c
			}
		}
		return emptyCompletion()
	case *ast.IfStatement:
		c := vm.evalExpr(fr, s.Test)
		if c.Abrupt() {
			return c
		}
		if ToBoolean(c.Value) {
			return vm.evalStatement(fr, s.Consequent, nil)
		}
		return vm.evalStatement(fr, s.Alternate, nil)
	case *ast.ReturnStatement:
		if s.Argument == nil {
			return Return(Undefined())
		}
		c := vm.evalExpr(fr, s.Argument)
		if c.Abrupt() {
			return c
		}
		return Return(c.Value)
	case *ast.ThrowStatement:
		c := vm.evalExpr(fr, s.Argument)
		if c.Abrupt() {
			return c
		}
		return Throw(c.Value)
	case *ast.BranchStatement:
		label := ""
		if s.Label != nil {
			label = s.Label.Name
		}
		if s.Token == token.CONTINUE {
			return Continue(label)
		}
		return Break(label)
	case *ast.LabelledStatement:
		name := s.Label.Name
		c := vm.evalStatement(fr, s.Statement, append(labels[:len(labels):len(labels)], name))
		if c.Stop == BreakStop && c.Label == name {
			return Completion{Value: c.Value, empty: c.empty}
		}
		return c
	case *ast.TryStatement:
		return vm.evalTry(fr, s)
	case *ast.WhileStatement:
		return vm.evalWhile(fr, s, labels)
	case *ast.DoWhileStatement:
		return vm.evalDoWhile(fr, s, labels)
	case *ast.ForStatement:
		return vm.evalFor(fr, s, labels)
	case *ast.ForInStatement:
		return vm.evalForIn(fr, s, labels)
	case *ast.SwitchStatement:
		return vm.evalSwitch(fr, s, labels)
	case *ast.WithStatement:
		return vm.SyntaxError("with statements are not supported")
	}
	return vm.SyntaxError("unsupported statement %T", s)
}

// evalStatements evaluates a statement list, stopping at the first abrupt
// completion. The result is the completion of the last statement that
// produced a value.
func (vm *VM) evalStatements(fr *frame, list []ast.Statement) Completion {
	r := emptyCompletion()
	for _, s := range list {
		c := vm.evalStatement(fr, s, nil)
		switch {
		case c.Stop == ThrowStop:
			return c
		case c.Abrupt():
			if c.empty && !r.empty {
				c.Value, c.empty = r.Value, false
			}
			return c
		case !c.empty:
			r = c
		}
		vm.boundary(fr, r.Value)
	}
	return r
}

func (vm *VM) evalTry(fr *frame, s *ast.TryStatement) Completion {
	c := vm.evalStatement(fr, s.Body, nil)
	if c.Stop == ThrowStop && s.Catch != nil && !isInterrupt(c) {
		act := vm.newActivation(fr.scope)
		act.retain()
		act.DefineOwnProperty(s.Catch.Parameter.Name, c.Value, DontDelete)
		cf := *fr
		cf.scope = act
		c = vm.evalStatement(&cf, s.Catch.Body, nil)
		act.release()
	}
	if s.Finally != nil && !isInterrupt(c) {
		c.Value.Retain()
		f := vm.evalStatement(fr, s.Finally, nil)
		c.Value.Release()
		if f.Abrupt() {
			return f
		}
	}
	return c
}

// loopResult tracks the value of the last body iteration that produced one.
type loopResult struct {
	v     Value
	empty bool
}

func (r *loopResult) update(c Completion) {
	if !c.empty {
		r.v, r.empty = c.Value, false
	}
}

func (r *loopResult) done(c Completion) Completion {
	if c.Abrupt() {
		if c.empty && !r.empty {
			c.Value, c.empty = r.v, false
		}
		return c
	}
	if !c.empty {
		return c
	}
	return Completion{Value: r.v, empty: r.empty}
}

func (vm *VM) evalWhile(fr *frame, s *ast.WhileStatement, labels []string) Completion {
	r := loopResult{empty: true}
	for {
		c := vm.evalExpr(fr, s.Test)
		if c.Abrupt() {
			return c
		}
		if !ToBoolean(c.Value) {
			return r.done(emptyCompletion())
		}
		c = vm.evalStatement(fr, s.Body, nil)
		r.update(c)
		if c, done := loopControl(c, labels); done {
			return r.done(c)
		}
		vm.boundary(fr, r.v)
	}
}

func (vm *VM) evalDoWhile(fr *frame, s *ast.DoWhileStatement, labels []string) Completion {
	r := loopResult{empty: true}
	for {
		c := vm.evalStatement(fr, s.Body, nil)
		r.update(c)
		if c, done := loopControl(c, labels); done {
			return r.done(c)
		}
		vm.boundary(fr, r.v)
		c = vm.evalExpr(fr, s.Test)
		if c.Abrupt() {
			return c
		}
		if !ToBoolean(c.Value) {
			return r.done(emptyCompletion())
		}
	}
}

func (vm *VM) evalFor(fr *frame, s *ast.ForStatement, labels []string) Completion {
	if s.Initializer != nil {
		if c := vm.evalExpr(fr, s.Initializer); c.Abrupt() {
			return c
		}
	}
	r := loopResult{empty: true}
	for {
		if s.Test != nil {
			c := vm.evalExpr(fr, s.Test)
			if c.Abrupt() {
				return c
			}
			if !ToBoolean(c.Value) {
				return r.done(emptyCompletion())
			}
		}
		c := vm.evalStatement(fr, s.Body, nil)
		r.update(c)
		if c, done := loopControl(c, labels); done {
			return r.done(c)
		}
		vm.boundary(fr, r.v)
		if s.Update != nil {
			if c := vm.evalExpr(fr, s.Update); c.Abrupt() {
				return c
			}
		}
	}
}

func (vm *VM) evalForIn(fr *frame, s *ast.ForInStatement, labels []string) Completion {
	c := vm.evalExpr(fr, s.Source)
	if c.Abrupt() {
		return c
	}
	if c.Value.IsNullish() {
		return emptyCompletion()
	}
	o, c := vm.ToObject(c.Value)
	if c.Abrupt() {
		return c
	}
	o.retain()
	defer o.release()
	r := loopResult{empty: true}
	for _, name := range enumerate(o) {
		// Properties deleted before being visited are skipped.
		if !o.HasProperty(name) {
			continue
		}
		ref, c := vm.evalRef(fr, s.Into)
		if c.Abrupt() {
			return c
		}
		if c := vm.putValue(fr, ref, String(name)); c.Abrupt() {
			return c
		}
		c = vm.evalStatement(fr, s.Body, nil)
		r.update(c)
		if c, done := loopControl(c, labels); done {
			return r.done(c)
		}
		vm.boundary(fr, r.v)
	}
	return r.done(emptyCompletion())
}

// enumerate returns the enumerable property names of o and its prototypes,
// own properties first, omitting names shadowed by a nearer object.
func enumerate(o *Object) []string {
	seen := make(map[string]bool)
	var names []string
	for p := o; p != nil; p = p.proto {
		for _, name := range p.EnumerableKeys() {
			if !seen[name] {
				names = append(names, name)
			}
		}
		for _, name := range p.Keys() {
			seen[name] = true
		}
	}
	return names
}

func (vm *VM) evalSwitch(fr *frame, s *ast.SwitchStatement, labels []string) Completion {
	c := vm.evalExpr(fr, s.Discriminant)
	if c.Abrupt() {
		return c
	}
	d := c.Value
	d.Retain()
	defer d.Release()
	start := -1
	for i, cs := range s.Body {
		if cs.Test == nil {
			continue
		}
		c := vm.evalExpr(fr, cs.Test)
		if c.Abrupt() {
			return c
		}
		if StrictEquals(d, c.Value) {
			start = i
			break
		}
	}
	if start < 0 {
		start = s.Default
	}
	r := loopResult{empty: true}
	if start < 0 {
		return r.done(emptyCompletion())
	}
	for _, cs := range s.Body[start:] {
		c := vm.evalStatements(fr, cs.Consequent)
		r.update(c)
		switch {
		case c.Stop == BreakStop && (c.Label == "" || hasLabel(labels, c.Label)):
			return r.done(emptyCompletion())
		case c.Abrupt():
			return r.done(c)
		}
	}
	return r.done(emptyCompletion())
}
