package internal

import "fmt"

// Stop represents the reason for flow control.
type Stop int

// Control flow reasons.
const (
	// NoStop indicates normal completion. Only NoStop means that the
	// enclosing construct should continue evaluating.
	NoStop Stop = iota
	// ContinueStop should be interpreted by loops as a signal to restart the
	// loop immediately.
	ContinueStop
	// BreakStop should be interpreted by loops, switches, and labelled
	// statements as a signal to exit.
	BreakStop
	// ReturnStop should be interpreted by function calls as a signal to exit
	// with a value.
	ReturnStop
	// ThrowStop propagates through everything except try statements,
	// function boundaries (which pass it on unchanged), and the top level.
	ThrowStop
)

var stopNames = [...]string{"normal", "continue", "break", "return", "throw"}

// String returns a string representation of the Stop.
func (s Stop) String() string {
	if s < NoStop || s > ThrowStop {
		return fmt.Sprintf("Stop(%d)", s)
	}
	return stopNames[s]
}

// Err returns nil if s is NoStop or an error value otherwise. Panics if s is
// not a valid Stop.
func (s Stop) Err() error {
	switch s {
	case NoStop:
		return nil
	case ContinueStop, BreakStop, ReturnStop, ThrowStop:
		return stopError(s)
	default:
		panic(fmt.Sprintf("jsvm: invalid Stop: %d", int(s)))
	}
}

type stopError Stop

func (err stopError) Error() string {
	return Stop(err).String()
}

// A Completion is the result of every evaluation step: a control flow reason
// and the value that goes with it.
type Completion struct {
	// Stop is the control flow reason.
	Stop Stop
	// Value is the result value. For ThrowStop it is the thrown value.
	Value Value
	// Label is the target label of a BreakStop or ContinueStop, or empty if
	// it targets the innermost enclosing construct.
	Label string

	// empty marks statements that produce no value, so that blocks and
	// programs report the value of the last statement which did.
	empty bool
}

// Normal returns a normal completion with the given value.
func Normal(v Value) Completion {
	return Completion{Stop: NoStop, Value: v}
}

// Throw returns a throw completion carrying the given value.
func Throw(v Value) Completion {
	return Completion{Stop: ThrowStop, Value: v}
}

// Return returns a return completion carrying the given value.
func Return(v Value) Completion {
	return Completion{Stop: ReturnStop, Value: v}
}

// Break returns a break completion targeting label, or the innermost loop or
// switch if label is empty.
func Break(label string) Completion {
	return Completion{Stop: BreakStop, Label: label, empty: true}
}

// Continue returns a continue completion targeting label, or the innermost
// loop if label is empty.
func Continue(label string) Completion {
	return Completion{Stop: ContinueStop, Label: label, empty: true}
}

// empty returns the completion of a statement that produces no value.
func emptyCompletion() Completion {
	return Completion{empty: true}
}

// Abrupt returns true if c is anything other than a normal completion.
func (c Completion) Abrupt() bool {
	return c.Stop != NoStop
}

// Err returns nil for a normal completion, a *ThrowError for a throw, or the
// Stop's error otherwise.
func (c Completion) Err() error {
	if c.Stop == ThrowStop {
		return &ThrowError{Value: c.Value}
	}
	return c.Stop.Err()
}

// String returns a diagnostic representation of the completion.
func (c Completion) String() string {
	if c.Label != "" {
		return fmt.Sprintf("%v %s", c.Stop, c.Label)
	}
	return fmt.Sprintf("%v(%v)", c.Stop, c.Value)
}

// consumeReturn applies the function call boundary to the completion of a
// function body: Return becomes Normal with the returned value, Normal
// becomes Normal(undefined), and Throw passes through unchanged. Break and
// Continue cannot legally escape a function body; they become a SyntaxError.
func (vm *VM) consumeReturn(c Completion) Completion {
	switch c.Stop {
	case NoStop:
		return Normal(Undefined())
	case ReturnStop:
		return Normal(c.Value)
	case ThrowStop:
		return c
	case BreakStop, ContinueStop:
		return vm.SyntaxError("illegal %v statement", c.Stop)
	default:
		panic(fmt.Errorf("jsvm: invalid Stop: %w", c.Stop.Err()))
	}
}

// loopControl interprets the completion of a loop body. done reports whether
// the loop must exit, in which case r is the completion the loop yields.
// labels is the set of labels attached to the loop statement.
func loopControl(c Completion, labels []string) (r Completion, done bool) {
	switch c.Stop {
	case NoStop:
		return c, false
	case ContinueStop:
		if c.Label == "" || hasLabel(labels, c.Label) {
			return c, false
		}
		return c, true
	case BreakStop:
		if c.Label == "" || hasLabel(labels, c.Label) {
			return Completion{Value: c.Value, empty: c.empty}, true
		}
		return c, true
	case ReturnStop, ThrowStop:
		return c, true
	default:
		panic(fmt.Errorf("jsvm: invalid Stop: %w", c.Stop.Err()))
	}
}

func hasLabel(labels []string, label string) bool {
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}
