package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// destroyLog records the objects a heap destroys.
func destroyLog(vm *VM) map[uintptr]bool {
	m := make(map[uintptr]bool)
	vm.Heap.OnDestroy = func(o *Object) { m[o.UniqueID()] = true }
	return m
}

// TestReclaimTransitive tests that destroying an object releases everything it
// holds, and that nothing held is destroyed.
func TestReclaimTransitive(t *testing.T) {
	vm := NewVM() // Not testutils.VM; that would cause an import cycle.
	dead := destroyLog(vm)
	a := vm.NewObject(nil)
	b := vm.NewObject(nil)
	c := vm.NewObject(nil)
	a.Put("b", ObjectValue(b))
	b.Put("c", ObjectValue(c))
	held := ObjectValue(a).Retain()

	vm.Reclaim()
	assert.Empty(t, dead)
	assert.True(t, c.Alive())
	assert.Equal(t, 1, b.Refs())

	held.Release()
	n := vm.Reclaim()
	assert.Equal(t, 3, n)
	for _, o := range []*Object{a, b, c} {
		assert.True(t, dead[o.UniqueID()], "object %d not destroyed", o.UniqueID())
		assert.False(t, o.Alive())
	}
}

// TestReclaimShared tests that an object with two holders survives the
// destruction of one.
func TestReclaimShared(t *testing.T) {
	vm := NewVM()
	a := vm.NewObject(nil)
	b := vm.NewObject(nil)
	shared := vm.NewObject(nil)
	a.Put("s", ObjectValue(shared))
	b.Put("s", ObjectValue(shared))
	hb := ObjectValue(b).Retain()
	vm.Reclaim()
	assert.False(t, a.Alive())
	assert.True(t, shared.Alive())
	assert.Equal(t, 1, shared.Refs())
	hb.Release()
	vm.Reclaim()
	assert.False(t, shared.Alive())
}

// TestReclaimOverwrite tests that overwriting and deleting properties release
// their old values.
func TestReclaimOverwrite(t *testing.T) {
	vm := NewVM()
	o := vm.NewObject(nil)
	h := ObjectValue(o).Retain()
	defer h.Release()
	x := vm.NewObject(nil)
	y := vm.NewObject(nil)
	o.Put("p", ObjectValue(x))
	o.Put("q", ObjectValue(y))
	o.Put("p", Number(1))
	o.Delete("q")
	vm.Reclaim()
	assert.False(t, x.Alive())
	assert.False(t, y.Alive())
	assert.True(t, o.Alive())
}

// TestReclaimPrototype tests that prototypes are counted holders.
func TestReclaimPrototype(t *testing.T) {
	vm := NewVM()
	p := vm.NewObject(nil)
	o := vm.ObjectWith(nil, p, nil, nil)
	h := ObjectValue(o).Retain()
	vm.Reclaim()
	assert.True(t, p.Alive())
	require.NoError(t, o.SetPrototype(nil))
	vm.Reclaim()
	assert.False(t, p.Alive())
	h.Release()
}

// TestCollectCycle tests that cycles survive counting and fall to cycle
// collection, while objects held from outside and everything they reach
// survive collection.
func TestCollectCycle(t *testing.T) {
	vm := NewVM()
	dead := destroyLog(vm)
	a := vm.NewObject(nil)
	b := vm.NewObject(nil)
	a.Put("b", ObjectValue(b))
	b.Put("a", ObjectValue(a))

	kept := vm.NewObject(nil)
	k2 := vm.NewObject(nil)
	kept.Put("k2", ObjectValue(k2))
	k2.Put("kept", ObjectValue(kept))
	h := ObjectValue(kept).Retain()
	defer h.Release()

	vm.Reclaim()
	assert.True(t, a.Alive())
	assert.True(t, b.Alive())

	before := vm.Heap.Stats()
	n := vm.Collect()
	assert.GreaterOrEqual(t, n, 2)
	assert.True(t, dead[a.UniqueID()])
	assert.True(t, dead[b.UniqueID()])
	assert.True(t, kept.Alive())
	assert.True(t, k2.Alive())
	assert.True(t, vm.ObjectPrototype.Alive())
	after := vm.Heap.Stats()
	assert.Equal(t, before.Collections+1, after.Collections)
	assert.GreaterOrEqual(t, after.CycleDestroyed-before.CycleDestroyed, 2)
}

// TestCollectKeepsBuiltins tests that a collection pass on a fresh VM leaves
// every built-in usable.
func TestCollectKeepsBuiltins(t *testing.T) {
	vm := NewVM()
	vm.Collect()
	c, err := vm.RunString(`[1, 2, 3].map(function (x) { return x * 2 }).join("-")`, "TestCollectKeepsBuiltins")
	require.NoError(t, err)
	require.Equal(t, NoStop, c.Stop, "%v", c.Err())
	assert.Equal(t, "2-4-6", c.Value.Str())
}

// TestCollectScriptClosures tests that closures and their scopes, which are
// always cyclic through function prototypes, are reclaimed once unreachable.
func TestCollectScriptClosures(t *testing.T) {
	vm := NewVM()
	_, err := vm.RunString(`var keep = (function () { var n = 1; return function () { return n } })()`, "setup")
	require.NoError(t, err)
	vm.Collect()
	live := vm.Heap.Live()
	c, err := vm.RunString(`(function () { var big = []; for (var i = 0; i < 50; i++) big.push(function () { return i }); })(); keep()`, "garbage")
	require.NoError(t, err)
	require.Equal(t, NoStop, c.Stop)
	assert.Equal(t, 1.0, c.Value.Num())
	vm.Collect()
	assert.LessOrEqual(t, vm.Heap.Live(), live+1)
}

// TestCollectDeferred tests that collection requested during evaluation waits
// for the next safe point.
func TestCollectDeferred(t *testing.T) {
	vm := NewVM()
	var during int
	vm.SetGlobal("collectNow", ObjectValue(vm.NewFunction("collectNow", 0, func(vm *VM, this Value, args List) Completion {
		during = vm.Collect()
		return Normal(Undefined())
	})))
	before := vm.Heap.Stats().Collections
	_, err := vm.RunString(`collectNow(); 1`, "TestCollectDeferred")
	require.NoError(t, err)
	assert.Equal(t, 0, during)
	assert.Equal(t, before+1, vm.Heap.Stats().Collections)
}

// TestSafePointDestroysTemporaries tests that objects nothing holds are
// reclaimed between top-level statements.
func TestSafePointDestroysTemporaries(t *testing.T) {
	vm := NewVM()
	vm.Reclaim()
	live := vm.Heap.Live()
	_, err := vm.RunString(`({a: {b: {}}}); [1, 2, 3]; 0`, "TestSafePointDestroysTemporaries")
	require.NoError(t, err)
	assert.Equal(t, live, vm.Heap.Live())
}

// TestResultRetained tests that the value of a program survives until the
// caller releases it.
func TestResultRetained(t *testing.T) {
	vm := NewVM()
	c, err := vm.RunString(`({x: 1}); ({y: 2})`, "TestResultRetained")
	require.NoError(t, err)
	o := c.Value.Object()
	require.NotNil(t, o)
	vm.Reclaim()
	assert.True(t, o.Alive())
	v, _ := o.Get("y")
	assert.Equal(t, 2.0, v.Num())
	c.Value.Release()
	vm.Reclaim()
	assert.False(t, o.Alive())
}

// TestReclaimSince tests that partial reclamation leaves objects allocated
// before the mark on the table, even when a newer object held them.
func TestReclaimSince(t *testing.T) {
	vm := NewVM()
	vm.Reclaim()
	old := vm.NewObject(nil)
	mark := objectMark()
	parent := vm.NewObject(nil)
	child := vm.NewObject(nil)
	parent.Put("old", ObjectValue(old))
	parent.Put("child", ObjectValue(child))

	n := vm.Heap.reclaimSince(mark)
	assert.Equal(t, 2, n)
	assert.False(t, parent.Alive())
	assert.False(t, child.Alive())
	assert.True(t, old.Alive())
	assert.Equal(t, 0, old.Refs())

	// A deeper mark skips the old entry without losing it.
	assert.Equal(t, 0, vm.Heap.reclaimSince(objectMark()))
	assert.True(t, old.Alive())
	assert.Equal(t, 1, vm.Reclaim())
	assert.False(t, old.Alive())
}

// TestFunctionBodyReclaims tests that garbage made inside a long-running call
// is reclaimed before the call returns.
func TestFunctionBodyReclaims(t *testing.T) {
	vm := NewVM()
	vm.Reclaim()
	base := vm.Heap.Live()
	var inside int
	vm.SetGlobal("live", vm.Fn("live", 0, func(vm *VM, this Value, args List) Completion {
		inside = vm.Heap.Live()
		return Normal(Undefined())
	}))
	src := `function main() { for (var i = 0; i < 10000; i++) { var o = {a: {}} } live() } main()`
	_, err := vm.RunString(src, "TestFunctionBodyReclaims")
	require.NoError(t, err)
	assert.Less(t, inside, base+50, "live objects inside the call")
	assert.LessOrEqual(t, vm.Heap.Live(), base+5, "live objects after the call")
}

// TestFunctionBodyKeepsHeld tests that reclamation inside function bodies
// spares the values the evaluator and callers still hold.
func TestFunctionBodyKeepsHeld(t *testing.T) {
	churn := `for (var i = 0; i < 3; i++) { var t = {} }`
	cases := map[string]struct {
		src  string
		want float64
	}{
		"Argument":       {`function f(x) { var y = x; y = null; ` + churn + ` return x.k } f({k: 1})`, 1},
		"PendingOperand": {`function g() { ` + churn + ` return 1 } function mk() { return {v: 2} } [mk(), g()][0].v`, 2},
		"Receiver":       {`({v: 3, m: function () { ` + churn + ` return this.v }}).m()`, 3},
		"Finally":        {`function h() { try { return {v: 4} } finally { ` + churn + ` } } h().v`, 4},
		"Catch":          {`function c() { try { throw {v: 5} } catch (e) { ` + churn + ` return e.v } } c()`, 5},
		"ForIn":          {`function fi() { var n = 0; for (var k in {a: 1, b: 2, c: 3, d: 4, e: 5, f: 6}) { var t = {}; n++ } return n } fi()`, 6},
		"Closure":        {`function mkc() { var x = {v: 7}; ` + churn + ` return function () { return x.v } } mkc()()`, 7},
		"Constructed":    {`function P() { this.v = {w: 8}; ` + churn + ` } new P().v.w`, 8},
		"Callback":       {`var s = 0; [{v: 4}, {v: 5}].forEach(function (o) { ` + churn + ` s += o.v }); s`, 9},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			vm := NewVM()
			r, err := vm.RunString(c.src, name)
			require.NoError(t, err)
			defer r.Value.Release()
			require.Equal(t, NoStop, r.Stop, "%v", r.Value)
			assert.Equal(t, c.want, r.Value.Num())
		})
	}
}
