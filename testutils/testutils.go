// Package testutils provides utilities for testing scripts in Go.
package testutils

import (
	"fmt"
	"sync"
	"testing"

	"github.com/zephyrtronium/jsvm"
	_ "github.com/zephyrtronium/jsvm/coreext" // side effects
)

// testVM is the VM used for all tests.
var testVM *jsvm.VM

var testVMInit sync.Once

// VM returns a VM for testing scripts. The VM is shared by all tests that use
// this package.
func VM() *jsvm.VM {
	testVMInit.Do(ResetVM)
	return testVM
}

// ResetVM reinitializes the VM returned by VM. It is not safe to call this in
// parallel tests.
func ResetVM() {
	testVM = jsvm.NewVM()
}

// A SourceTestCase is a test case containing script source code and a
// predicate to check the result.
type SourceTestCase struct {
	// Source is the script source code to execute.
	Source string
	// Pass is a predicate taking the completion of executing Source. If Pass
	// returns false, then the test fails.
	Pass func(result jsvm.Completion) bool
}

// TestFunc returns a test function for the test case. This uses VM to parse
// and execute the code.
func (c SourceTestCase) TestFunc(name string) func(*testing.T) {
	return func(t *testing.T) {
		vm := VM()
		r, err := vm.RunString(c.Source, name)
		if err != nil {
			t.Fatalf("could not parse %q: %v", c.Source, err)
		}
		defer r.Value.Release()
		if !c.Pass(r) {
			if err := r.Err(); err != nil {
				t.Errorf("%q produced wrong result; an exception occurred: %v", c.Source, err)
			} else {
				t.Errorf("%q produced wrong result; got %s (%s)", c.Source, r.Value, r.Stop)
			}
		}
	}
}

// PassEqual returns a Pass function for a SourceTestCase that predicates on
// strict equality with want. NaN is considered equal to itself. If the
// completion is abrupt, then the predicate returns false.
func PassEqual(want jsvm.Value) func(jsvm.Completion) bool {
	return PassControl(want, jsvm.NoStop)
}

// PassControl returns a Pass function for a SourceTestCase that predicates on
// equality with a certain control flow status. The control flow check precedes
// the value check. Equality here has the same semantics as in PassEqual.
func PassControl(want jsvm.Value, stop jsvm.Stop) func(jsvm.Completion) bool {
	return func(result jsvm.Completion) bool {
		if result.Stop != stop {
			return false
		}
		return jsvm.SameValue(want, result.Value)
	}
}

// PassTag returns a Pass function for a SourceTestCase that predicates on
// equality of the Tag of the resulting object. If the completion is abrupt or
// the result is not an object, then the predicate returns false.
func PassTag(want jsvm.Tag) func(jsvm.Completion) bool {
	return func(result jsvm.Completion) bool {
		if result.Abrupt() {
			return false
		}
		o := result.Value.Object()
		return o != nil && o.Tag() == want
	}
}

// PassThrow returns a Pass function for a SourceTestCase that returns true
// iff the result is a thrown error of the given kind.
func PassThrow(kind jsvm.ErrorKind) func(jsvm.Completion) bool {
	return func(result jsvm.Completion) bool {
		e, ok := jsvm.AsThrowError(result.Err())
		return ok && e.IsKind(kind)
	}
}

// PassFailure returns a Pass function for a SourceTestCase that returns true
// iff the result is a throw completion of any value.
func PassFailure() func(jsvm.Completion) bool {
	return func(result jsvm.Completion) bool {
		return result.Stop == jsvm.ThrowStop
	}
}

// PassSuccess returns a Pass function for a SourceTestCase that returns true
// iff the completion is normal.
func PassSuccess() func(jsvm.Completion) bool {
	return func(result jsvm.Completion) bool {
		return result.Stop == jsvm.NoStop
	}
}

// PassUndefined returns a Pass function for a SourceTestCase that returns
// true iff the completion is normal with an undefined value.
func PassUndefined() func(jsvm.Completion) bool {
	return func(result jsvm.Completion) bool {
		return result.Stop == jsvm.NoStop && result.Value.IsUndefined()
	}
}

// CheckGlobals is a testing helper to check that the global object has
// bindings for each name.
func CheckGlobals(t *testing.T, vm *jsvm.VM, names []string) {
	t.Helper()
	for _, name := range names {
		t.Run("Have_"+name, func(t *testing.T) {
			if !vm.Global.HasOwnProperty(name) {
				t.Fatal("no global", name)
			}
		})
	}
}

// CheckSlots is a testing helper to check whether an object has exactly the
// own properties we expect.
func CheckSlots(t *testing.T, obj *jsvm.Object, slots []string) {
	t.Helper()
	checked := make(map[string]bool, len(slots))
	for _, name := range slots {
		checked[name] = true
		t.Run("Have_"+name, func(t *testing.T) {
			if !obj.HasOwnProperty(name) {
				t.Fatal("no property", name)
			}
		})
	}
	for _, name := range obj.Keys() {
		t.Run("Want_"+name, func(t *testing.T) {
			if !checked[name] {
				t.Fatal("unexpected property", name)
			}
		})
	}
}

// Describe formats a completion for test failure messages.
func Describe(c jsvm.Completion) string {
	if err := c.Err(); err != nil {
		return fmt.Sprintf("%s: %v", c.Stop, err)
	}
	return fmt.Sprintf("%s: %s", c.Stop, c.Value)
}
