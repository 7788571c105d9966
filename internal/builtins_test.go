package internal_test

import (
	"math"
	"testing"

	"github.com/zephyrtronium/jsvm"
	"github.com/zephyrtronium/jsvm/testutils"
)

func TestArray(t *testing.T) {
	cases := map[string]testutils.SourceTestCase{
		"Literal":        {Source: `[1, 2, 3].length`, Pass: testutils.PassEqual(jsvm.Number(3))},
		"Tag":            {Source: `[]`, Pass: testutils.PassTag(jsvm.ArrayTag)},
		"GrowOnIndex":    {Source: `var a = []; a[5] = 1; a.length`, Pass: testutils.PassEqual(jsvm.Number(6))},
		"Truncate":       {Source: `var a = [1, 2, 3]; a.length = 1; a.join() + ":" + a[2]`, Pass: testutils.PassEqual(jsvm.String("1:undefined"))},
		"LengthBool":     {Source: `var a = [1, 2, 3]; a.length = true; a.join()`, Pass: testutils.PassEqual(jsvm.String("1"))},
		"LengthString":   {Source: `var a = [1, 2, 3]; a.length = "2"; a.join()`, Pass: testutils.PassEqual(jsvm.String("1,2"))},
		"LengthValueOf":  {Source: `var a = [1, 2, 3]; a.length = {valueOf: function () { return 0 }}; a.length`, Pass: testutils.PassEqual(jsvm.Number(0))},
		"LengthCompound": {Source: `var a = [1, 2, 3]; a.length -= 1; a.join()`, Pass: testutils.PassEqual(jsvm.String("1,2"))},
		"LengthFraction": {Source: `var a = [1, 2, 3]; a.length = 1.5`, Pass: testutils.PassThrow(jsvm.RangeError)},
		"LengthNegative": {Source: `[].length = -1`, Pass: testutils.PassThrow(jsvm.RangeError)},
		"LengthKept":     {Source: `var a = [1, 2, 3]; try { a.length = 2.5 } catch (e) {} a.length`, Pass: testutils.PassEqual(jsvm.Number(3))},
		"ConstructLen":   {Source: `new Array(3).length`, Pass: testutils.PassEqual(jsvm.Number(3))},
		"ConstructBad":   {Source: `new Array(-1)`, Pass: testutils.PassThrow(jsvm.RangeError)},
		"ConstructElems": {Source: `Array(1, "b").join("|")`, Pass: testutils.PassEqual(jsvm.String("1|b"))},
		"IsArray":        {Source: `Array.isArray([]) && !Array.isArray({length: 0})`, Pass: testutils.PassEqual(jsvm.Bool(true))},
		"PushPop":        {Source: `var a = [1]; a.push(2, 3); a.pop() + a.length`, Pass: testutils.PassEqual(jsvm.Number(5))},
		"PopEmpty":       {Source: `[].pop()`, Pass: testutils.PassUndefined()},
		"ShiftUnshift":   {Source: `var a = [2, 3]; a.unshift(0, 1); a.shift() + a.join("")`, Pass: testutils.PassEqual(jsvm.String("0123"))},
		"Reverse":        {Source: `[1, 2, 3].reverse().join()`, Pass: testutils.PassEqual(jsvm.String("3,2,1"))},
		"JoinNullish":    {Source: `[1, null, undefined, 2].join("-")`, Pass: testutils.PassEqual(jsvm.String("1---2"))},
		"ToString":       {Source: `String([1, [2, 3]])`, Pass: testutils.PassEqual(jsvm.String("1,2,3"))},
		"IndexOf":        {Source: `[1, "1", 1].indexOf(1, 1)`, Pass: testutils.PassEqual(jsvm.Number(2))},
		"IndexOfNaN":     {Source: `[NaN].indexOf(NaN)`, Pass: testutils.PassEqual(jsvm.Number(-1))},
		"Slice":          {Source: `[1, 2, 3, 4].slice(1, -1).join()`, Pass: testutils.PassEqual(jsvm.String("2,3"))},
		"Concat":         {Source: `[1].concat([2, [3]], 4).length`, Pass: testutils.PassEqual(jsvm.Number(4))},
		"ForEach":        {Source: `var s = 0; [1, 2, 3].forEach(function (x, i) { s += x * i }); s`, Pass: testutils.PassEqual(jsvm.Number(8))},
		"ForEachSparse":  {Source: `var n = 0; var a = []; a[3] = 1; a.forEach(function () { n++ }); n`, Pass: testutils.PassEqual(jsvm.Number(1))},
		"ForEachThis":    {Source: `var o = {k: 2}; var r; [1].forEach(function () { r = this.k }, o); r`, Pass: testutils.PassEqual(jsvm.Number(2))},
		"ForEachBad":     {Source: `[1].forEach(3)`, Pass: testutils.PassThrow(jsvm.TypeError)},
		"Map":            {Source: `[1, 2].map(function (x) { return x + 1 }).join()`, Pass: testutils.PassEqual(jsvm.String("2,3"))},
		"MapThrow":       {Source: `[1, 2].map(function (x) { throw x })`, Pass: testutils.PassControl(jsvm.Number(1), jsvm.ThrowStop)},
		"Filter":         {Source: `[1, 2, 3, 4].filter(function (x) { return x % 2 }).join()`, Pass: testutils.PassEqual(jsvm.String("1,3"))},
		"Generic":        {Source: `Array.prototype.join.call({length: 2, 0: "a", 1: "b"}, "")`, Pass: testutils.PassEqual(jsvm.String("ab"))},
		"Elision":        {Source: `[1, , 3].length`, Pass: testutils.PassEqual(jsvm.Number(3))},
	}
	for name, c := range cases {
		t.Run(name, c.TestFunc("TestArray/"+name))
	}
}

func TestString(t *testing.T) {
	cases := map[string]testutils.SourceTestCase{
		"Length":          {Source: `"abc".length`, Pass: testutils.PassEqual(jsvm.Number(3))},
		"LengthUTF16":     {Source: `"a😀".length`, Pass: testutils.PassEqual(jsvm.Number(3))},
		"Index":           {Source: `"abc"[1]`, Pass: testutils.PassEqual(jsvm.String("b"))},
		"Wrapper":         {Source: `new String("x")`, Pass: testutils.PassTag(jsvm.StringTag)},
		"WrapperTypeof":   {Source: `typeof new String("x")`, Pass: testutils.PassEqual(jsvm.String("object"))},
		"Call":            {Source: `String(12.5)`, Pass: testutils.PassEqual(jsvm.String("12.5"))},
		"CallEmpty":       {Source: `String()`, Pass: testutils.PassEqual(jsvm.String(""))},
		"CharAt":          {Source: `"abc".charAt(2) + "abc".charAt(9)`, Pass: testutils.PassEqual(jsvm.String("c"))},
		"CharCodeAt":      {Source: `"A".charCodeAt(0)`, Pass: testutils.PassEqual(jsvm.Number(65))},
		"CharCodeAtOut":   {Source: `"A".charCodeAt(1)`, Pass: testutils.PassEqual(jsvm.Number(math.NaN()))},
		"Concat":          {Source: `"a".concat(1, null)`, Pass: testutils.PassEqual(jsvm.String("a1null"))},
		"IndexOf":         {Source: `"banana".indexOf("an", 2)`, Pass: testutils.PassEqual(jsvm.Number(3))},
		"LastIndexOf":     {Source: `"banana".lastIndexOf("an")`, Pass: testutils.PassEqual(jsvm.Number(3))},
		"IndexOfMissing":  {Source: `"banana".indexOf("x")`, Pass: testutils.PassEqual(jsvm.Number(-1))},
		"Slice":           {Source: `"hello".slice(-3, -1)`, Pass: testutils.PassEqual(jsvm.String("ll"))},
		"Substring":       {Source: `"hello".substring(4, 1)`, Pass: testutils.PassEqual(jsvm.String("ell"))},
		"Split":           {Source: `"a,b,,c".split(",").length`, Pass: testutils.PassEqual(jsvm.Number(4))},
		"SplitLimit":      {Source: `"a,b,c".split(",", 2).join("|")`, Pass: testutils.PassEqual(jsvm.String("a|b"))},
		"SplitEmpty":      {Source: `"abc".split("").join(" ")`, Pass: testutils.PassEqual(jsvm.String("a b c"))},
		"SplitUndefined":  {Source: `"abc".split().length`, Pass: testutils.PassEqual(jsvm.Number(1))},
		"Upper":           {Source: `"abc é".toUpperCase()`, Pass: testutils.PassEqual(jsvm.String("ABC É"))},
		"Lower":           {Source: `"ÀB".toLowerCase()`, Pass: testutils.PassEqual(jsvm.String("àb"))},
		"Trim":            {Source: `"  x \n".trim()`, Pass: testutils.PassEqual(jsvm.String("x"))},
		"LocaleCompare":   {Source: `"a".localeCompare("B") < 0 && "b".localeCompare("a") > 0 && "a".localeCompare("a") === 0`, Pass: testutils.PassEqual(jsvm.Bool(true))},
		"FromCharCode":    {Source: `String.fromCharCode(104, 105)`, Pass: testutils.PassEqual(jsvm.String("hi"))},
		"Surrogates":      {Source: `String.fromCharCode(0xD83D, 0xDE00).length`, Pass: testutils.PassEqual(jsvm.Number(2))},
		"Compare":         {Source: `"B" < "a" && "a" < "ab"`, Pass: testutils.PassEqual(jsvm.Bool(true))},
		"ForIn":           {Source: `var r = ""; for (var k in new String("ab")) r += k; r`, Pass: testutils.PassEqual(jsvm.String("01"))},
		"MethodOnNull":    {Source: `String.prototype.trim.call(null)`, Pass: testutils.PassEqual(jsvm.String("[object global]"))},
		"ValueOfMismatch": {Source: `String.prototype.valueOf.call(1)`, Pass: testutils.PassThrow(jsvm.TypeError)},
	}
	for name, c := range cases {
		t.Run(name, c.TestFunc("TestString/"+name))
	}
}

// TestStringMethodReceiver tests that without receiver substitution, String
// methods reject null receivers.
func TestStringMethodReceiver(t *testing.T) {
	cfg := jsvm.DefaultConfig()
	cfg.ThisPolicy = jsvm.ThisUndefined
	vm := jsvm.NewVM(jsvm.WithConfig(cfg))
	for _, src := range []string{
		`String.prototype.trim.call(null)`,
		`String.prototype.charAt.call(undefined, 0)`,
	} {
		c, err := vm.RunString(src, "TestStringMethodReceiver")
		if err != nil {
			t.Fatal(err)
		}
		if !testutils.PassThrow(jsvm.TypeError)(c) {
			t.Errorf("%s: %s", src, testutils.Describe(c))
		}
	}
}

func TestNumber(t *testing.T) {
	cases := map[string]testutils.SourceTestCase{
		"Call":          {Source: `Number("0x10") + Number("") + Number(true)`, Pass: testutils.PassEqual(jsvm.Number(17))},
		"CallEmpty":     {Source: `Number()`, Pass: testutils.PassEqual(jsvm.Number(0))},
		"CallBad":       {Source: `Number("1px")`, Pass: testutils.PassEqual(jsvm.Number(math.NaN()))},
		"Wrapper":       {Source: `new Number(3)`, Pass: testutils.PassTag(jsvm.NumberTag)},
		"WrapperArith":  {Source: `new Number(3) + 1`, Pass: testutils.PassEqual(jsvm.Number(4))},
		"MaxValue":      {Source: `Number.MAX_VALUE`, Pass: testutils.PassEqual(jsvm.Number(math.MaxFloat64))},
		"NegInf":        {Source: `Number.NEGATIVE_INFINITY`, Pass: testutils.PassEqual(jsvm.Number(math.Inf(-1)))},
		"Radix16":       {Source: `(255).toString(16)`, Pass: testutils.PassEqual(jsvm.String("ff"))},
		"Radix2":        {Source: `(-5.5).toString(2)`, Pass: testutils.PassEqual(jsvm.String("-101.1"))},
		"RadixNaN":      {Source: `NaN.toString(2)`, Pass: testutils.PassEqual(jsvm.String("NaN"))},
		"RadixBad":      {Source: `(1).toString(1)`, Pass: testutils.PassThrow(jsvm.RangeError)},
		"ToFixed":       {Source: `(3.14159).toFixed(2)`, Pass: testutils.PassEqual(jsvm.String("3.14"))},
		"ToFixedZero":   {Source: `(2.4).toFixed()`, Pass: testutils.PassEqual(jsvm.String("2"))},
		"ToFixedLarge":  {Source: `(1e21).toFixed(2)`, Pass: testutils.PassEqual(jsvm.String("1e+21"))},
		"ToFixedBad":    {Source: `(1).toFixed(101)`, Pass: testutils.PassThrow(jsvm.RangeError)},
		"ValueOfBad":    {Source: `Number.prototype.valueOf.call("1")`, Pass: testutils.PassThrow(jsvm.TypeError)},
		"Formatting":    {Source: `String(0.1 + 0.2) + " " + 1e21 + " " + 1/3`, Pass: testutils.PassEqual(jsvm.String("0.30000000000000004 1e+21 0.3333333333333333"))},
		"NegativeZero":  {Source: `1 / -0`, Pass: testutils.PassEqual(jsvm.Number(math.Inf(-1)))},
		"Modulo":        {Source: `-7 % 3`, Pass: testutils.PassEqual(jsvm.Number(-1))},
		"Bitwise":       {Source: `(~5) + (1 << 31) + (-1 >>> 28) + (6 & 3) + (6 | 1) + (6 ^ 3)`, Pass: testutils.PassEqual(jsvm.Number(-6 - 2147483648 + 15 + 2 + 7 + 5))},
		"ShiftOverflow": {Source: `1 << 33`, Pass: testutils.PassEqual(jsvm.Number(2))},
	}
	for name, c := range cases {
		t.Run(name, c.TestFunc("TestNumber/"+name))
	}
}

func TestBoolean(t *testing.T) {
	cases := map[string]testutils.SourceTestCase{
		"Call":          {Source: `Boolean("") || Boolean(0) || !Boolean("0")`, Pass: testutils.PassEqual(jsvm.Bool(false))},
		"Wrapper":       {Source: `new Boolean(false)`, Pass: testutils.PassTag(jsvm.BooleanTag)},
		"WrapperTruthy": {Source: `new Boolean(false) ? 1 : 2`, Pass: testutils.PassEqual(jsvm.Number(1))},
		"ValueOf":       {Source: `new Boolean(false).valueOf()`, Pass: testutils.PassEqual(jsvm.Bool(false))},
		"ToString":      {Source: `true.toString() + false`, Pass: testutils.PassEqual(jsvm.String("truefalse"))},
		"Mismatch":      {Source: `Boolean.prototype.toString.call(1)`, Pass: testutils.PassThrow(jsvm.TypeError)},
	}
	for name, c := range cases {
		t.Run(name, c.TestFunc("TestBoolean/"+name))
	}
}

func TestGlobalFunctions(t *testing.T) {
	cases := map[string]testutils.SourceTestCase{
		"ParseInt":         {Source: `parseInt("  42px")`, Pass: testutils.PassEqual(jsvm.Number(42))},
		"ParseIntRadix":    {Source: `parseInt("ff", 16)`, Pass: testutils.PassEqual(jsvm.Number(255))},
		"ParseIntHex":      {Source: `parseInt("0x1A")`, Pass: testutils.PassEqual(jsvm.Number(26))},
		"ParseIntNegative": {Source: `parseInt("-12")`, Pass: testutils.PassEqual(jsvm.Number(-12))},
		"ParseIntNone":     {Source: `parseInt("z")`, Pass: testutils.PassEqual(jsvm.Number(math.NaN()))},
		"ParseIntBadRadix": {Source: `parseInt("1", 37)`, Pass: testutils.PassEqual(jsvm.Number(math.NaN()))},
		"ParseFloat":       {Source: `parseFloat("3.5e2x")`, Pass: testutils.PassEqual(jsvm.Number(350))},
		"ParseFloatDot":    {Source: `parseFloat(".5")`, Pass: testutils.PassEqual(jsvm.Number(0.5))},
		"ParseFloatInf":    {Source: `parseFloat("-Infinityx")`, Pass: testutils.PassEqual(jsvm.Number(math.Inf(-1)))},
		"ParseFloatNone":   {Source: `parseFloat("e5")`, Pass: testutils.PassEqual(jsvm.Number(math.NaN()))},
		"IsNaN":            {Source: `isNaN("x") && !isNaN("1")`, Pass: testutils.PassEqual(jsvm.Bool(true))},
		"IsFinite":         {Source: `isFinite("1") && !isFinite(Infinity) && !isFinite(NaN)`, Pass: testutils.PassEqual(jsvm.Bool(true))},
		"UndefinedFixed":   {Source: `undefined = 1; undefined`, Pass: testutils.PassUndefined()},
		"GlobalThis":       {Source: `globalThis.globalThis === globalThis`, Pass: testutils.PassEqual(jsvm.Bool(true))},
	}
	for name, c := range cases {
		t.Run(name, c.TestFunc("TestGlobalFunctions/"+name))
	}
}

func TestErrors(t *testing.T) {
	cases := map[string]testutils.SourceTestCase{
		"Message":      {Source: `new TypeError("bad").message`, Pass: testutils.PassEqual(jsvm.String("bad"))},
		"Name":         {Source: `new RangeError().name`, Pass: testutils.PassEqual(jsvm.String("RangeError"))},
		"ToString":     {Source: `String(new SyntaxError("x"))`, Pass: testutils.PassEqual(jsvm.String("SyntaxError: x"))},
		"ToStringBare": {Source: `String(new Error())`, Pass: testutils.PassEqual(jsvm.String("Error"))},
		"CallIsNew":    {Source: `TypeError("y") instanceof TypeError`, Pass: testutils.PassEqual(jsvm.Bool(true))},
		"Inheritance":  {Source: `new URIError() instanceof Error && !(new URIError() instanceof TypeError)`, Pass: testutils.PassEqual(jsvm.Bool(true))},
		"Tag":          {Source: `new EvalError("e")`, Pass: testutils.PassTag(jsvm.ErrorTag)},
		"Class":        {Source: `Object.prototype.toString.call(new Error)`, Pass: testutils.PassEqual(jsvm.String("[object Error]"))},
		"Thrown":       {Source: `try { null.x } catch (e) { e.name }`, Pass: testutils.PassEqual(jsvm.String("TypeError"))},
		"Custom": {
			Source: `function MyError(m) { this.message = m } MyError.prototype = new Error(); MyError.prototype.name = "MyError"; String(new MyError("z"))`,
			Pass:   testutils.PassEqual(jsvm.String("MyError: z")),
		},
	}
	for name, c := range cases {
		t.Run(name, c.TestFunc("TestErrors/"+name))
	}
}
