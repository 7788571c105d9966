// Package date installs the Date built-in.
package date

import (
	"math"
	"time"

	"github.com/zephyrtronium/jsvm"
	"github.com/zephyrtronium/jsvm/internal"

	"gitlab.com/variadico/lctime"
)

// DateTag is the Tag for Date objects.
const DateTag = jsvm.BasicTag("Date")

// isoLayout is the layout of toISOString.
const isoLayout = "2006-01-02T15:04:05.000Z"

// defaultFormat is the strftime format of toString.
const defaultFormat = "%a %b %d %Y %H:%M:%S GMT%z"

// New creates a new Date object with the given time.
func New(vm *jsvm.VM, date time.Time) *jsvm.Object {
	p, _ := vm.GetGlobal("Date").Object().Get("prototype")
	return vm.ObjectWith(nil, p.Object(), date, DateTag)
}

// Millis converts a time to milliseconds since the epoch.
func Millis(t time.Time) float64 {
	return float64(t.UnixMilli())
}

// FromMillis converts milliseconds since the epoch to a time. The result is
// false if ms is not finite.
func FromMillis(ms float64) (time.Time, bool) {
	if math.IsNaN(ms) || math.IsInf(ms, 0) {
		return time.Time{}, false
	}
	return time.UnixMilli(int64(ms)), true
}

// Parse interprets a date string. With an empty format, RFC 3339 and a few
// common layouts are tried in turn. Otherwise format is a strftime format
// describing s.
func Parse(s, format string) (time.Time, error) {
	if format != "" {
		longDate := time.Date(2006, time.January, 2, 15, 4, 5, 0, time.FixedZone("MST", -7*60*60))
		return time.Parse(lctime.Strftime(format, longDate), s)
	}
	var err error
	for _, layout := range layouts {
		var t time.Time
		t, err = time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

var layouts = []string{
	time.RFC3339Nano,
	isoLayout,
	"2006-01-02T15:04:05",
	"2006-01-02",
	time.RFC1123,
	time.RFC1123Z,
}

func init() {
	internal.Register(initDate)
}

func initDate(vm *jsvm.VM) {
	proto := vm.Intrinsic(vm.ObjectWith(nil, vm.ObjectPrototype, time.UnixMilli(0), DateTag))
	slots := jsvm.Slots{
		"format":             vm.Fn("format", 1, format),
		"getDate":            vm.Fn("getDate", 0, getter(time.Time.Day)),
		"getDay":             vm.Fn("getDay", 0, getter(func(t time.Time) int { return int(t.Weekday()) })),
		"getFullYear":        vm.Fn("getFullYear", 0, getter(time.Time.Year)),
		"getHours":           vm.Fn("getHours", 0, getter(time.Time.Hour)),
		"getMilliseconds":    vm.Fn("getMilliseconds", 0, getter(func(t time.Time) int { return t.Nanosecond() / 1e6 })),
		"getMinutes":         vm.Fn("getMinutes", 0, getter(time.Time.Minute)),
		"getMonth":           vm.Fn("getMonth", 0, getter(func(t time.Time) int { return int(t.Month()) - 1 })),
		"getSeconds":         vm.Fn("getSeconds", 0, getter(time.Time.Second)),
		"getTime":            vm.Fn("getTime", 0, getTime),
		"getTimezoneOffset":  vm.Fn("getTimezoneOffset", 0, getTimezoneOffset),
		"getUTCDate":         vm.Fn("getUTCDate", 0, utcGetter(time.Time.Day)),
		"getUTCFullYear":     vm.Fn("getUTCFullYear", 0, utcGetter(time.Time.Year)),
		"getUTCHours":        vm.Fn("getUTCHours", 0, utcGetter(time.Time.Hour)),
		"getUTCMonth":        vm.Fn("getUTCMonth", 0, utcGetter(func(t time.Time) int { return int(t.Month()) - 1 })),
		"toISOString":        vm.Fn("toISOString", 0, toISOString),
		"toLocaleDateString": vm.Fn("toLocaleDateString", 0, strftime("%x")),
		"toString":           vm.Fn("toString", 0, strftime(defaultFormat)),
		"valueOf":            vm.Fn("valueOf", 0, getTime),
	}
	vm.SetSlots(proto, slots)
	statics := jsvm.Slots{
		"clock": vm.Fn("clock", 0, clock),
		"now":   vm.Fn("now", 0, now),
		"parse": vm.Fn("parse", 2, parse),
	}
	jsvm.CoreInstall(vm, "Date", 1, call, construct, DateTag, proto, statics)
}

// call implements Date invoked as a function, which returns the current time
// as a string.
func call(vm *jsvm.VM, this jsvm.Value, args jsvm.List) jsvm.Completion {
	return jsvm.Normal(jsvm.String(lctime.Strftime(defaultFormat, time.Now())))
}

// construct initializes a Date from nothing, a millisecond count, a string,
// or another Date.
func construct(vm *jsvm.VM, obj *jsvm.Object, args jsvm.List) jsvm.Completion {
	if args.Len() == 0 {
		obj.Value = time.Now()
		return jsvm.Normal(jsvm.ObjectValue(obj))
	}
	v := args.At(0)
	if o := v.Object(); o != nil && o.Tag() == DateTag {
		obj.Value = o.Value
		return jsvm.Normal(jsvm.ObjectValue(obj))
	}
	if v.IsString() {
		t, err := Parse(v.Str(), "")
		if err != nil {
			return vm.RangeError("Invalid time value: %q", v.Str())
		}
		obj.Value = t
		return jsvm.Normal(jsvm.ObjectValue(obj))
	}
	ms, c := vm.ToNumber(v)
	if c.Abrupt() {
		return c
	}
	t, ok := FromMillis(ms)
	if !ok {
		return vm.RangeError("Invalid time value")
	}
	obj.Value = t
	return jsvm.Normal(jsvm.ObjectValue(obj))
}

// thisDate extracts the time a Date.prototype method operates on.
func thisDate(vm *jsvm.VM, this jsvm.Value) (time.Time, jsvm.Completion) {
	if o := this.Object(); o != nil && o.Tag() == DateTag {
		if t, ok := o.Value.(time.Time); ok {
			return t, jsvm.Completion{}
		}
	}
	return time.Time{}, vm.TypeError("this is not a Date object.")
}

// getter creates a Date.prototype method returning a local time component.
func getter(f func(time.Time) int) jsvm.NativeFn {
	return func(vm *jsvm.VM, this jsvm.Value, args jsvm.List) jsvm.Completion {
		t, c := thisDate(vm, this)
		if c.Abrupt() {
			return c
		}
		return jsvm.Normal(jsvm.Number(float64(f(t.Local()))))
	}
}

// utcGetter creates a Date.prototype method returning a UTC time component.
func utcGetter(f func(time.Time) int) jsvm.NativeFn {
	return func(vm *jsvm.VM, this jsvm.Value, args jsvm.List) jsvm.Completion {
		t, c := thisDate(vm, this)
		if c.Abrupt() {
			return c
		}
		return jsvm.Normal(jsvm.Number(float64(f(t.UTC()))))
	}
}

// strftime creates a Date.prototype method formatting the local time.
func strftime(layout string) jsvm.NativeFn {
	return func(vm *jsvm.VM, this jsvm.Value, args jsvm.List) jsvm.Completion {
		t, c := thisDate(vm, this)
		if c.Abrupt() {
			return c
		}
		return jsvm.Normal(jsvm.String(lctime.Strftime(layout, t.Local())))
	}
}

// getTime is a Date.prototype method.
//
// getTime returns the number of milliseconds since 1970-01-01 00:00:00 UTC.
func getTime(vm *jsvm.VM, this jsvm.Value, args jsvm.List) jsvm.Completion {
	t, c := thisDate(vm, this)
	if c.Abrupt() {
		return c
	}
	return jsvm.Normal(jsvm.Number(Millis(t)))
}

// getTimezoneOffset is a Date.prototype method.
//
// getTimezoneOffset returns the difference in minutes between UTC and local
// time at the date.
func getTimezoneOffset(vm *jsvm.VM, this jsvm.Value, args jsvm.List) jsvm.Completion {
	t, c := thisDate(vm, this)
	if c.Abrupt() {
		return c
	}
	_, off := t.Local().Zone()
	return jsvm.Normal(jsvm.Number(float64(-off / 60)))
}

// toISOString is a Date.prototype method.
func toISOString(vm *jsvm.VM, this jsvm.Value, args jsvm.List) jsvm.Completion {
	t, c := thisDate(vm, this)
	if c.Abrupt() {
		return c
	}
	return jsvm.Normal(jsvm.String(t.UTC().Format(isoLayout)))
}

// format is a Date.prototype method.
//
// format converts the date to a string using ANSI C datetime formatting. See
// https://godoc.org/github.com/variadico/lctime for the full list of supported
// directives. An optional second argument of "UTC" formats in UTC instead of
// local time.
func format(vm *jsvm.VM, this jsvm.Value, args jsvm.List) jsvm.Completion {
	t, c := thisDate(vm, this)
	if c.Abrupt() {
		return c
	}
	layout := "%Y-%m-%d %H:%M:%S %Z"
	if !args.At(0).IsUndefined() {
		layout, c = vm.ToString(args.At(0))
		if c.Abrupt() {
			return c
		}
	}
	if args.At(1).IsString() && args.At(1).Str() == "UTC" {
		t = t.UTC()
	} else {
		t = t.Local()
	}
	return jsvm.Normal(jsvm.String(lctime.Strftime(layout, t)))
}

// now is a Date method.
//
// now returns the current time in milliseconds since the epoch.
func now(vm *jsvm.VM, this jsvm.Value, args jsvm.List) jsvm.Completion {
	return jsvm.Normal(jsvm.Number(Millis(time.Now())))
}

// clock is a Date method.
//
// clock returns the number of seconds since the VM was created.
func clock(vm *jsvm.VM, this jsvm.Value, args jsvm.List) jsvm.Completion {
	return jsvm.Normal(jsvm.Number(time.Since(vm.StartTime).Seconds()))
}

// parse is a Date method.
//
// parse converts a string to milliseconds since the epoch, or NaN if it is
// not a recognized date. An optional strftime format describes the string.
func parse(vm *jsvm.VM, this jsvm.Value, args jsvm.List) jsvm.Completion {
	s, c := vm.ToString(args.At(0))
	if c.Abrupt() {
		return c
	}
	var f string
	if !args.At(1).IsUndefined() {
		f, c = vm.ToString(args.At(1))
		if c.Abrupt() {
			return c
		}
	}
	t, err := Parse(s, f)
	if err != nil {
		return jsvm.Normal(jsvm.Number(math.NaN()))
	}
	return jsvm.Normal(jsvm.Number(Millis(t)))
}
