package internal

import "strings"

// List is an ordered, immutable sequence of values, used for argument lists.
// The zero List is empty.
type List struct {
	vals []Value
}

// NewList creates a list holding a copy of the given values.
func NewList(vals ...Value) List {
	if len(vals) == 0 {
		return List{}
	}
	v := make([]Value, len(vals))
	copy(v, vals)
	return List{vals: v}
}

// Len returns the number of values in the list.
func (l List) Len() int {
	return len(l.vals)
}

// At returns the ith value in the list. If i is out of range, the result is
// undefined, which lets callees treat missing arguments uniformly.
func (l List) At(i int) Value {
	if i < 0 || i >= len(l.vals) {
		return Undefined()
	}
	return l.vals[i]
}

// Slice returns the list of values from index i onward. If i is past the end
// of the list, the result is empty.
func (l List) Slice(i int) List {
	if i >= len(l.vals) {
		return List{}
	}
	if i < 0 {
		i = 0
	}
	return List{vals: l.vals[i:]}
}

// Values returns a copy of the values in the list.
func (l List) Values() []Value {
	v := make([]Value, len(l.vals))
	copy(v, l.vals)
	return v
}

// String returns a diagnostic representation of the list.
func (l List) String() string {
	b := strings.Builder{}
	b.WriteByte('(')
	for i, v := range l.vals {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(v.String())
	}
	b.WriteByte(')')
	return b.String()
}
