package internal

import (
	"fmt"
	"math"
)

// Kind discriminates the representations a Value can hold.
type Kind uint8

// Value kinds.
const (
	UndefinedKind Kind = iota
	NullKind
	BooleanKind
	NumberKind
	StringKind
	ObjectKind
)

var kindNames = [...]string{"undefined", "null", "boolean", "number", "string", "object"}

// String returns the name of the kind.
func (k Kind) String() string {
	if int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", k)
	}
	return kindNames[k]
}

// Value is the result of evaluating any expression. The zero Value is
// undefined.
//
// A Value holding an object is a borrowed reference unless the holder calls
// Retain. Anything that stores a Value beyond the current evaluation step,
// such as a property table or a scope link, must Retain it when storing and
// Release it when the slot is overwritten or removed.
type Value struct {
	kind Kind
	// num holds numbers and booleans (0 or 1).
	num float64
	str string
	obj *Object
}

// Undefined returns the undefined value.
func Undefined() Value {
	return Value{}
}

// Null returns the null value.
func Null() Value {
	return Value{kind: NullKind}
}

// Bool returns a boolean value.
func Bool(b bool) Value {
	if b {
		return Value{kind: BooleanKind, num: 1}
	}
	return Value{kind: BooleanKind}
}

// Number returns a numeric value.
func Number(f float64) Value {
	return Value{kind: NumberKind, num: f}
}

// String returns a string value.
func String(s string) Value {
	return Value{kind: StringKind, str: s}
}

// ObjectValue returns a value referring to o. If o is nil, the result is null.
func ObjectValue(o *Object) Value {
	if o == nil {
		return Null()
	}
	return Value{kind: ObjectKind, obj: o}
}

// Kind returns the kind of the value.
func (v Value) Kind() Kind {
	return v.kind
}

// IsUndefined returns true if v is undefined.
func (v Value) IsUndefined() bool {
	return v.kind == UndefinedKind
}

// IsNull returns true if v is null.
func (v Value) IsNull() bool {
	return v.kind == NullKind
}

// IsNullish returns true if v is undefined or null.
func (v Value) IsNullish() bool {
	return v.kind <= NullKind
}

// IsBoolean returns true if v is a boolean.
func (v Value) IsBoolean() bool {
	return v.kind == BooleanKind
}

// IsNumber returns true if v is a number.
func (v Value) IsNumber() bool {
	return v.kind == NumberKind
}

// IsString returns true if v is a string.
func (v Value) IsString() bool {
	return v.kind == StringKind
}

// IsObject returns true if v refers to an object.
func (v Value) IsObject() bool {
	return v.kind == ObjectKind
}

// Object returns the object v refers to, or nil if v is not an object.
func (v Value) Object() *Object {
	return v.obj
}

// Bool returns the boolean v holds. It is false for non-boolean values; use
// ToBoolean to convert.
func (v Value) Bool() bool {
	return v.kind == BooleanKind && v.num != 0
}

// Num returns the number v holds, or NaN if v is not a number.
func (v Value) Num() float64 {
	if v.kind != NumberKind {
		return math.NaN()
	}
	return v.num
}

// Str returns the string v holds, or the empty string if v is not a string.
func (v Value) Str() string {
	return v.str
}

// Retain increments the share count of the object v refers to, if any, and
// returns v.
func (v Value) Retain() Value {
	if v.obj != nil {
		v.obj.retain()
	}
	return v
}

// Release decrements the share count of the object v refers to, if any. The
// object is destroyed at the next reclamation once no holder remains.
func (v Value) Release() {
	if v.obj != nil {
		v.obj.release()
	}
}

// String returns a diagnostic representation of the value. It does not
// activate any script code; use VM.ToString for language semantics.
func (v Value) String() string {
	switch v.kind {
	case UndefinedKind, NullKind:
		return v.kind.String()
	case BooleanKind:
		if v.num != 0 {
			return "true"
		}
		return "false"
	case NumberKind:
		return NumberToString(v.num)
	case StringKind:
		return v.str
	case ObjectKind:
		return fmt.Sprintf("[object %v]", v.obj.Tag())
	}
	return fmt.Sprintf("Value(%d)", v.kind)
}
