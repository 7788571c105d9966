package internal

import (
	"math"
	"strconv"
	"strings"
)

// initGlobal installs the value properties and functions of the global object.
func (vm *VM) initGlobal() {
	consts := Slots{
		"Infinity":  Number(math.Inf(1)),
		"NaN":       Number(math.NaN()),
		"undefined": Undefined(),
	}
	for _, name := range sortedKeys(consts) {
		vm.Global.DefineOwnProperty(name, consts[name], ReadOnly|DontEnum|DontDelete)
	}
	vm.SetSlots(vm.Global, Slots{
		"globalThis": ObjectValue(vm.Global),
		"isFinite":   vm.fn("isFinite", 1, GlobalIsFinite),
		"isNaN":      vm.fn("isNaN", 1, GlobalIsNaN),
		"parseFloat": vm.fn("parseFloat", 1, GlobalParseFloat),
		"parseInt":   vm.fn("parseInt", 2, GlobalParseInt),
	})
}

// GlobalIsNaN is a global function.
//
// isNaN returns whether its argument converts to NaN.
func GlobalIsNaN(vm *VM, this Value, args List) Completion {
	n, c := vm.ToNumber(args.At(0))
	if c.Abrupt() {
		return c
	}
	return Normal(Bool(math.IsNaN(n)))
}

// GlobalIsFinite is a global function.
//
// isFinite returns whether its argument converts to a finite number.
func GlobalIsFinite(vm *VM, this Value, args List) Completion {
	n, c := vm.ToNumber(args.At(0))
	if c.Abrupt() {
		return c
	}
	return Normal(Bool(!math.IsNaN(n) && !math.IsInf(n, 0)))
}

// GlobalParseInt is a global function.
//
// parseInt parses the longest prefix of a string that is an integer in the
// given radix, or NaN if there is none.
func GlobalParseInt(vm *VM, this Value, args List) Completion {
	s, c := vm.ToString(args.At(0))
	if c.Abrupt() {
		return c
	}
	r, c := vm.ToNumber(args.At(1))
	if c.Abrupt() {
		return c
	}
	radix := int(ToInt32(r))
	s = strings.TrimSpace(s)
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}
	switch {
	case radix == 0:
		radix = 10
		if len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
			radix, s = 16, s[2:]
		}
	case radix == 16:
		if len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
			s = s[2:]
		}
	case radix < 2 || radix > 36:
		return Normal(Number(math.NaN()))
	}
	end := 0
	for end < len(s) && digitVal(s[end]) < radix {
		end++
	}
	if end == 0 {
		return Normal(Number(math.NaN()))
	}
	n := 0.0
	for _, b := range []byte(s[:end]) {
		n = n*float64(radix) + float64(digitVal(b))
	}
	if neg {
		n = -n
	}
	return Normal(Number(n))
}

func digitVal(b byte) int {
	switch {
	case '0' <= b && b <= '9':
		return int(b - '0')
	case 'a' <= b && b <= 'z':
		return int(b-'a') + 10
	case 'A' <= b && b <= 'Z':
		return int(b-'A') + 10
	}
	return 99
}

// GlobalParseFloat is a global function.
//
// parseFloat parses the longest prefix of a string that is a decimal literal,
// or NaN if there is none.
func GlobalParseFloat(vm *VM, this Value, args List) Completion {
	s, c := vm.ToString(args.At(0))
	if c.Abrupt() {
		return c
	}
	s = strings.TrimSpace(s)
	for _, inf := range []string{"Infinity", "+Infinity", "-Infinity"} {
		if strings.HasPrefix(s, inf) {
			return Normal(Number(StringToNumber(inf)))
		}
	}
	// Find the longest prefix that parses.
	end := 0
	seenDot, seenExp := false, false
	for i := 0; i < len(s); i++ {
		b := s[i]
		switch {
		case b >= '0' && b <= '9':
			end = i + 1
		case (b == '+' || b == '-') && (i == 0 || s[i-1] == 'e' || s[i-1] == 'E'):
		case b == '.' && !seenDot && !seenExp:
			seenDot = true
		case (b == 'e' || b == 'E') && !seenExp && end > 0:
			seenExp = true
		default:
			i = len(s)
		}
	}
	if end == 0 {
		return Normal(Number(math.NaN()))
	}
	f, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); !ok || ne.Err != strconv.ErrRange {
			return Normal(Number(math.NaN()))
		}
	}
	return Normal(Number(f))
}
