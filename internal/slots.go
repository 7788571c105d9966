package internal

/*
This file contains the own-property storage of objects. Property tables keep
insertion order so that enumeration is stable: keys appear in the order in
which they were first added, and a key that is deleted and added again moves to
the end.

Deletion leaves a tombstone in the order list rather than shifting it. The
table compacts itself once tombstones outnumber live entries.
*/

// Attrs is a set of property attributes.
type Attrs uint8

// Property attributes.
const (
	// ReadOnly properties cannot be assigned by Put. DefineOwnProperty still
	// replaces them.
	ReadOnly Attrs = 1 << iota
	// DontEnum properties are skipped by enumeration.
	DontEnum
	// DontDelete properties cannot be removed by Delete.
	DontDelete
)

// Has returns true if a includes all attributes in b.
func (a Attrs) Has(b Attrs) bool {
	return a&b == b
}

// slot is a single own property.
type slot struct {
	name  string
	value Value
	attrs Attrs
	// dead marks a tombstone in the order list.
	dead bool
}

// slotTable is an insertion-ordered map of own properties.
type slotTable struct {
	index map[string]int
	order []slot
	// tombs is the number of dead entries in order.
	tombs int
}

// lookup returns the slot for name, or nil if there is none.
func (t *slotTable) lookup(name string) *slot {
	i, ok := t.index[name]
	if !ok {
		return nil
	}
	return &t.order[i]
}

// insert adds a new slot. The caller must ensure name is not present and must
// already have retained value.
func (t *slotTable) insert(name string, value Value, attrs Attrs) {
	if t.index == nil {
		t.index = make(map[string]int)
	}
	t.index[name] = len(t.order)
	t.order = append(t.order, slot{name: name, value: value, attrs: attrs})
}

// remove deletes the slot for name and returns its value, which the caller
// must release.
func (t *slotTable) remove(name string) (Value, bool) {
	i, ok := t.index[name]
	if !ok {
		return Undefined(), false
	}
	v := t.order[i].value
	delete(t.index, name)
	t.order[i] = slot{dead: true}
	t.tombs++
	if t.tombs > 8 && t.tombs > len(t.index) {
		t.compact()
	}
	return v, true
}

// compact removes tombstones from the order list.
func (t *slotTable) compact() {
	order := make([]slot, 0, len(t.index))
	for _, s := range t.order {
		if !s.dead {
			t.index[s.name] = len(order)
			order = append(order, s)
		}
	}
	t.order = order
	t.tombs = 0
}

// len returns the number of live slots.
func (t *slotTable) len() int {
	return len(t.index)
}

// foreach calls exec on each live slot in insertion order until exec returns
// false. exec must not add or remove slots.
func (t *slotTable) foreach(exec func(s *slot) bool) {
	for i := range t.order {
		s := &t.order[i]
		if s.dead {
			continue
		}
		if !exec(s) {
			return
		}
	}
}

// clear removes all slots and returns their values, which the caller must
// release.
func (t *slotTable) clear() []Value {
	vals := make([]Value, 0, len(t.index))
	for _, s := range t.order {
		if !s.dead {
			vals = append(vals, s.value)
		}
	}
	t.index = nil
	t.order = nil
	t.tombs = 0
	return vals
}

// Slots holds a set of properties to define at once, typically the methods of
// a built-in prototype.
type Slots map[string]Value

// SetSlots defines each of slots on o as a non-enumerable property. Keys are
// defined in sorted order so that built-in enumeration is deterministic.
func (vm *VM) SetSlots(o *Object, slots Slots) {
	for _, name := range sortedKeys(slots) {
		o.DefineOwnProperty(name, slots[name], DontEnum)
	}
}
