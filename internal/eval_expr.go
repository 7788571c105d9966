package internal

import (
	"math"
	"strconv"

	"github.com/robertkrimen/otto/ast"
	"github.com/robertkrimen/otto/token"
)

// evalExpr evaluates an expression. The result is a normal completion holding
// the expression's value or the abrupt completion that interrupted it.
func (vm *VM) evalExpr(fr *frame, e ast.Expression) Completion {
	switch e := e.(type) {
	case *ast.NumberLiteral:
		switch v := e.Value.(type) {
		case int64:
			return Normal(Number(float64(v)))
		case float64:
			return Normal(Number(v))
		}
		f, err := strconv.ParseFloat(e.Literal, 64)
		if err != nil {
			return vm.SyntaxError("invalid number literal %s", e.Literal)
		}
		return Normal(Number(f))
	case *ast.StringLiteral:
		return Normal(String(e.Value))
	case *ast.BooleanLiteral:
		return Normal(Bool(e.Value))
	case *ast.NullLiteral:
		return Normal(Null())
	case *ast.EmptyExpression:
		return Normal(Undefined())
	case *ast.ThisExpression:
		return Normal(fr.this)
	case *ast.Identifier:
		return vm.getValue(identRef(fr, e.Name))
	case *ast.DotExpression, *ast.BracketExpression:
		ref, c := vm.evalRef(fr, e)
		if c.Abrupt() {
			return c
		}
		return vm.getValue(ref)
	case *ast.VariableExpression:
		if e.Initializer == nil {
			return emptyCompletion()
		}
		c := vm.evalExpr(fr, e.Initializer)
		if c.Abrupt() {
			return c
		}
		return vm.putValue(fr, identRef(fr, e.Name), c.Value)
	case *ast.SequenceExpression:
		r := Normal(Undefined())
		for _, x := range e.Sequence {
			if r = vm.evalExpr(fr, x); r.Abrupt() {
				return r
			}
		}
		return r
	case *ast.ConditionalExpression:
		c := vm.evalExpr(fr, e.Test)
		if c.Abrupt() {
			return c
		}
		if ToBoolean(c.Value) {
			return vm.evalExpr(fr, e.Consequent)
		}
		return vm.evalExpr(fr, e.Alternate)
	case *ast.FunctionLiteral:
		fn := vm.newScriptFunction(e, fr.scope, fr.strict)
		if e.Name != nil {
			fn.Value.(*Function).bindSelf = true
		}
		return Normal(ObjectValue(fn))
	case *ast.ArrayLiteral:
		return vm.evalArrayLiteral(fr, e)
	case *ast.ObjectLiteral:
		return vm.evalObjectLiteral(fr, e)
	case *ast.RegExpLiteral:
		if vm.RegExpConstructor == nil {
			return vm.SyntaxError("regular expressions are not available")
		}
		return vm.Construct(ObjectValue(vm.RegExpConstructor), NewList(String(e.Pattern), String(e.Flags)))
	case *ast.CallExpression:
		return vm.evalCall(fr, e)
	case *ast.NewExpression:
		return vm.evalNew(fr, e)
	case *ast.UnaryExpression:
		return vm.evalUnary(fr, e)
	case *ast.BinaryExpression:
		return vm.evalBinary(fr, e)
	case *ast.AssignExpression:
		return vm.evalAssign(fr, e)
	}
	return vm.SyntaxError("unsupported expression %T", e)
}

// evalArgs evaluates an argument list in order.
func (vm *VM) evalArgs(fr *frame, exprs []ast.Expression) (List, Completion) {
	if len(exprs) == 0 {
		return List{}, Completion{}
	}
	vals := make([]Value, len(exprs))
	for i, x := range exprs {
		c := vm.evalExpr(fr, x)
		if c.Abrupt() {
			return List{}, c
		}
		vals[i] = c.Value
	}
	return List{vals: vals}, Completion{}
}

func (vm *VM) evalCall(fr *frame, e *ast.CallExpression) Completion {
	var f, this Value
	switch callee := e.Callee.(type) {
	case *ast.DotExpression, *ast.BracketExpression:
		ref, c := vm.evalRef(fr, callee)
		if c.Abrupt() {
			return c
		}
		c = vm.getValue(ref)
		if c.Abrupt() {
			return c
		}
		f, this = c.Value, ref.base
	default:
		c := vm.evalExpr(fr, callee)
		if c.Abrupt() {
			return c
		}
		f = c.Value
	}
	args, c := vm.evalArgs(fr, e.ArgumentList)
	if c.Abrupt() {
		return c
	}
	if !IsCallable(f) {
		return vm.TypeError("%s is not a function", exprName(e.Callee))
	}
	return vm.Call(f, this, args)
}

func (vm *VM) evalNew(fr *frame, e *ast.NewExpression) Completion {
	c := vm.evalExpr(fr, e.Callee)
	if c.Abrupt() {
		return c
	}
	f := c.Value
	args, c := vm.evalArgs(fr, e.ArgumentList)
	if c.Abrupt() {
		return c
	}
	if !IsConstructor(f) {
		return vm.TypeError("%s is not a constructor", exprName(e.Callee))
	}
	return vm.Construct(f, args)
}

func (vm *VM) evalArrayLiteral(fr *frame, e *ast.ArrayLiteral) Completion {
	arr := vm.NewArray(nil)
	for i, x := range e.Value {
		if x == nil {
			continue
		}
		c := vm.evalExpr(fr, x)
		if c.Abrupt() {
			return c
		}
		arr.Put(strconv.Itoa(i), c.Value)
	}
	arrayOf(arr).length = uint32(len(e.Value))
	return Normal(ObjectValue(arr))
}

func (vm *VM) evalObjectLiteral(fr *frame, e *ast.ObjectLiteral) Completion {
	obj := vm.NewObject(nil)
	for _, p := range e.Value {
		if p.Kind == "get" || p.Kind == "set" {
			return vm.SyntaxError("accessor properties are not supported")
		}
		c := vm.evalExpr(fr, p.Value)
		if c.Abrupt() {
			return c
		}
		obj.DefineOwnProperty(p.Key, c.Value, 0)
	}
	return Normal(ObjectValue(obj))
}

func (vm *VM) evalUnary(fr *frame, e *ast.UnaryExpression) Completion {
	switch e.Operator {
	case token.TYPEOF:
		if id, ok := e.Operand.(*ast.Identifier); ok {
			ref := identRef(fr, id.Name)
			if ref.unresolved {
				return Normal(String("undefined"))
			}
		}
		c := vm.evalExpr(fr, e.Operand)
		if c.Abrupt() {
			return c
		}
		return Normal(String(TypeOf(c.Value)))
	case token.DELETE:
		return vm.evalDelete(fr, e.Operand)
	case token.INCREMENT, token.DECREMENT:
		ref, c := vm.evalRef(fr, e.Operand)
		if c.Abrupt() {
			return c
		}
		c = vm.getValue(ref)
		if c.Abrupt() {
			return c
		}
		old, c := vm.ToNumber(c.Value)
		if c.Abrupt() {
			return c
		}
		n := old + 1
		if e.Operator == token.DECREMENT {
			n = old - 1
		}
		if c := vm.putValue(fr, ref, Number(n)); c.Abrupt() {
			return c
		}
		if e.Postfix {
			return Normal(Number(old))
		}
		return Normal(Number(n))
	}
	c := vm.evalExpr(fr, e.Operand)
	if c.Abrupt() {
		return c
	}
	v := c.Value
	switch e.Operator {
	case token.NOT:
		return Normal(Bool(!ToBoolean(v)))
	case token.VOID:
		return Normal(Undefined())
	case token.MINUS:
		n, c := vm.ToNumber(v)
		if c.Abrupt() {
			return c
		}
		return Normal(Number(-n))
	case token.PLUS:
		n, c := vm.ToNumber(v)
		if c.Abrupt() {
			return c
		}
		return Normal(Number(n))
	case token.BITWISE_NOT:
		n, c := vm.ToNumber(v)
		if c.Abrupt() {
			return c
		}
		return Normal(Number(float64(^ToInt32(n))))
	}
	return vm.SyntaxError("unsupported unary operator %v", e.Operator)
}

func (vm *VM) evalDelete(fr *frame, operand ast.Expression) Completion {
	switch operand.(type) {
	case *ast.Identifier, *ast.DotExpression, *ast.BracketExpression:
	default:
		c := vm.evalExpr(fr, operand)
		if c.Abrupt() {
			return c
		}
		return Normal(Bool(true))
	}
	ref, c := vm.evalRef(fr, operand)
	if c.Abrupt() {
		return c
	}
	if ref.unresolved {
		return Normal(Bool(true))
	}
	o, c := vm.ToObject(ref.base)
	if c.Abrupt() {
		return c
	}
	ok := o.Delete(ref.name)
	if !ok && fr.strict {
		return vm.TypeError("Cannot delete property '%s'", ref.name)
	}
	return Normal(Bool(ok))
}

func (vm *VM) evalBinary(fr *frame, e *ast.BinaryExpression) Completion {
	l := vm.evalExpr(fr, e.Left)
	if l.Abrupt() {
		return l
	}
	switch e.Operator {
	case token.LOGICAL_AND:
		if !ToBoolean(l.Value) {
			return l
		}
		return vm.evalExpr(fr, e.Right)
	case token.LOGICAL_OR:
		if ToBoolean(l.Value) {
			return l
		}
		return vm.evalExpr(fr, e.Right)
	}
	r := vm.evalExpr(fr, e.Right)
	if r.Abrupt() {
		return r
	}
	return vm.BinaryOp(e.Operator, l.Value, r.Value)
}

func (vm *VM) evalAssign(fr *frame, e *ast.AssignExpression) Completion {
	ref, c := vm.evalRef(fr, e.Left)
	if c.Abrupt() {
		return c
	}
	if e.Operator == token.ASSIGN {
		c = vm.evalExpr(fr, e.Right)
		if c.Abrupt() {
			return c
		}
		return vm.putValue(fr, ref, c.Value)
	}
	old := vm.getValue(ref)
	if old.Abrupt() {
		return old
	}
	c = vm.evalExpr(fr, e.Right)
	if c.Abrupt() {
		return c
	}
	c = vm.BinaryOp(e.Operator, old.Value, c.Value)
	if c.Abrupt() {
		return c
	}
	return vm.putValue(fr, ref, c.Value)
}

// BinaryOp applies a non-short-circuiting binary operator to two values.
func (vm *VM) BinaryOp(op token.Token, l, r Value) Completion {
	switch op {
	case token.PLUS:
		return vm.add(l, r)
	case token.STRICT_EQUAL:
		return Normal(Bool(StrictEquals(l, r)))
	case token.STRICT_NOT_EQUAL:
		return Normal(Bool(!StrictEquals(l, r)))
	case token.EQUAL, token.NOT_EQUAL:
		eq, c := vm.LooseEquals(l, r)
		if c.Abrupt() {
			return c
		}
		return Normal(Bool(eq == (op == token.EQUAL)))
	case token.LESS:
		return vm.compare(l, r, false, false)
	case token.GREATER:
		return vm.compare(r, l, true, false)
	case token.LESS_OR_EQUAL:
		return vm.compare(r, l, true, true)
	case token.GREATER_OR_EQUAL:
		return vm.compare(l, r, false, true)
	case token.INSTANCEOF:
		return vm.instanceOf(l, r)
	case token.IN:
		o := r.Object()
		if o == nil {
			return vm.TypeError("Cannot use 'in' operator to search for '%v' in %v", l, r)
		}
		name, c := vm.ToString(l)
		if c.Abrupt() {
			return c
		}
		return Normal(Bool(o.HasProperty(name)))
	}
	a, c := vm.ToNumber(l)
	if c.Abrupt() {
		return c
	}
	b, c := vm.ToNumber(r)
	if c.Abrupt() {
		return c
	}
	switch op {
	case token.MINUS:
		return Normal(Number(a - b))
	case token.MULTIPLY:
		return Normal(Number(a * b))
	case token.SLASH:
		return Normal(Number(a / b))
	case token.REMAINDER:
		return Normal(Number(math.Mod(a, b)))
	case token.AND:
		return Normal(Number(float64(ToInt32(a) & ToInt32(b))))
	case token.OR:
		return Normal(Number(float64(ToInt32(a) | ToInt32(b))))
	case token.EXCLUSIVE_OR:
		return Normal(Number(float64(ToInt32(a) ^ ToInt32(b))))
	case token.SHIFT_LEFT:
		return Normal(Number(float64(ToInt32(a) << (ToUint32(b) & 31))))
	case token.SHIFT_RIGHT:
		return Normal(Number(float64(ToInt32(a) >> (ToUint32(b) & 31))))
	case token.UNSIGNED_SHIFT_RIGHT:
		return Normal(Number(float64(ToUint32(a) >> (ToUint32(b) & 31))))
	}
	return vm.SyntaxError("unsupported binary operator %v", op)
}

// add implements the + operator.
func (vm *VM) add(l, r Value) Completion {
	a, c := vm.ToPrimitive(l, HintDefault)
	if c.Abrupt() {
		return c
	}
	b, c := vm.ToPrimitive(r, HintDefault)
	if c.Abrupt() {
		return c
	}
	if a.IsString() || b.IsString() {
		return Normal(String(a.String() + b.String()))
	}
	x, _ := vm.ToNumber(a)
	y, _ := vm.ToNumber(b)
	return Normal(Number(x + y))
}

// compare implements the relational operators as x < y. swapped indicates that
// the operands were reversed from source order, which matters only for the
// order of conversion. inclusive negates the result for <= and >=, in which
// case an undefined comparison is still false.
func (vm *VM) compare(x, y Value, swapped, inclusive bool) Completion {
	var a, b Value
	var c Completion
	if swapped {
		if b, c = vm.ToPrimitive(y, HintNumber); c.Abrupt() {
			return c
		}
		if a, c = vm.ToPrimitive(x, HintNumber); c.Abrupt() {
			return c
		}
	} else {
		if a, c = vm.ToPrimitive(x, HintNumber); c.Abrupt() {
			return c
		}
		if b, c = vm.ToPrimitive(y, HintNumber); c.Abrupt() {
			return c
		}
	}
	if a.IsString() && b.IsString() {
		lt := compareUTF16(a.Str(), b.Str()) < 0
		return Normal(Bool(lt != inclusive))
	}
	m, _ := vm.ToNumber(a)
	n, _ := vm.ToNumber(b)
	if math.IsNaN(m) || math.IsNaN(n) {
		return Normal(Bool(false))
	}
	return Normal(Bool((m < n) != inclusive))
}

// instanceOf implements the instanceof operator.
func (vm *VM) instanceOf(v, ctor Value) Completion {
	c := ctor.Object()
	if c == nil || !IsCallable(ctor) {
		return vm.TypeError("Right-hand side of 'instanceof' is not callable")
	}
	if b, ok := c.Value.(*boundFunction); ok {
		return vm.instanceOf(v, ObjectValue(b.target))
	}
	o := v.Object()
	if o == nil {
		return Normal(Bool(false))
	}
	p, _ := c.Get("prototype")
	proto := p.Object()
	if proto == nil {
		return vm.TypeError("Function has non-object prototype '%v' in instanceof check", p)
	}
	for q := o.proto; q != nil; q = q.proto {
		if q == proto {
			return Normal(Bool(true))
		}
	}
	return Normal(Bool(false))
}
