package value

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func TestFormatNumber(t *testing.T) {
	// Summed at run time; the constant expression would fold to exactly 0.3.
	a, b := 0.1, 0.2
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{math.Copysign(0, -1), "0"},
		{1, "1"},
		{-42, "-42"},
		{a + b, "0.30000000000000004"},
		{1.5, "1.5"},
		{1e21, "1e+21"},
		{123456789012345680000, "123456789012345680000"},
		{1e-7, "1e-7"},
		{0.000001, "0.000001"},
		{1.25e-8, "1.25e-8"},
		{math.NaN(), "NaN"},
		{math.Inf(1), "Infinity"},
		{math.Inf(-1), "-Infinity"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatNumber(tt.in))
		})
	}
}

func TestToNumber(t *testing.T) {
	tests := []struct {
		name string
		in   Value
		want float64
	}{
		{"null", nil, 0},
		{"true", true, 1},
		{"empty string", "", 0},
		{"padded", "  12  ", 12},
		{"hex", "0x1F", 31},
		{"exponent", "1e3", 1000},
		{"infinity", "-Infinity", math.Inf(-1)},
		{"single element array", NewArray(7.0), 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToNumber(tt.in))
		})
	}

	for _, nan := range []Value{Undefined, "abc", "1.2.3", "e5", NewObject()} {
		assert.True(t, math.IsNaN(ToNumber(nan)), "%v should be NaN", nan)
	}
}

func TestToString(t *testing.T) {
	obj := NewObject()
	obj.Set("a", 1.0)

	assert.Equal(t, "undefined", ToString(Undefined))
	assert.Equal(t, "null", ToString(nil))
	assert.Equal(t, "1,,3", ToString(NewArray(1.0, nil, 3.0)))
	assert.Equal(t, "[object Object]", ToString(obj))
	assert.Equal(t, "[Function: f]", ToString(NewFunction("f")))
}

func TestAdd(t *testing.T) {
	assert.Equal(t, Value(3.0), Add(1.0, 2.0))
	assert.Equal(t, Value("12"), Add("1", 2.0))
	assert.Equal(t, Value("1,2x"), Add(NewArray(1.0, 2.0), "x"))
	assert.Equal(t, Value(1.0), Add(true, nil))
	assert.True(t, math.IsNaN(Add(Undefined, 1.0).(float64)))
}

func TestDivByZero(t *testing.T) {
	assert.True(t, math.IsNaN(Div(1.0, 0.0).(float64)))
	assert.Equal(t, Value(2.5), Div(5.0, 2.0))
}

func TestEquality(t *testing.T) {
	arr := NewArray()

	tests := []struct {
		name         string
		a, b         Value
		loose, strict bool
	}{
		{"same number", 1.0, 1.0, true, true},
		{"number and string", 1.0, "1", true, false},
		{"null and undefined", nil, Undefined, true, false},
		{"null and zero", nil, 0.0, false, false},
		{"bool and number", true, 1.0, true, false},
		{"nan", math.NaN(), math.NaN(), false, false},
		{"array identity", arr, arr, true, true},
		{"distinct arrays", NewArray(), NewArray(), false, false},
		{"array and string", NewArray(1.0, 2.0), "1,2", true, false},
		{"empty string and zero", "", 0.0, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.loose, LooseEquals(tt.a, tt.b), "loose")
			assert.Equal(t, tt.strict, StrictEquals(tt.a, tt.b), "strict")
		})
	}
}

func TestComparison(t *testing.T) {
	assert.True(t, Less(1.0, 2.0))
	assert.True(t, Less("a", "b"))
	assert.True(t, Less("10", "9"), "strings compare by code unit")
	assert.False(t, Less(10.0, "9"))
	assert.True(t, Less("10", 9.5) == false)
	assert.True(t, LessOrEqual(nil, 0.0))
	assert.False(t, LessOrEqual(Undefined, 0.0))
	assert.False(t, GreaterOrEqual(math.NaN(), 1.0))
	assert.True(t, Greater(3.0, "2"))
}

func TestMember(t *testing.T) {
	arr := NewArray(10.0, 20.0)
	obj := NewObject()
	obj.Set("k", "v")

	assert.Equal(t, Value(2.0), Member(arr, "length"))
	assert.Equal(t, Value(20.0), Member(arr, 1.0))
	assert.Equal(t, Value(20.0), Member(arr, "1"))
	assert.True(t, IsUndefined(Member(arr, 5.0)))
	assert.Equal(t, Value("v"), Member(obj, "k"))
	assert.Equal(t, Value(3.0), Member("abc", "length"))
	assert.Equal(t, Value("b"), Member("abc", 1.0))
	assert.True(t, IsUndefined(Member(nil, "x")))
}

func TestCopyOnWrite(t *testing.T) {
	arr := NewArray(1.0)
	grown := arr.With(2, 3.0)
	assert.Equal(t, 1, arr.Len())
	assert.Equal(t, 3, grown.Len())
	assert.True(t, IsUndefined(grown.At(1)))

	obj := NewObject()
	obj.Set("a", 1.0)
	next := obj.With("b", 2.0)
	assert.Equal(t, []string{"a"}, obj.Keys())
	assert.Equal(t, []string{"a", "b"}, next.Keys())
}

func TestStringify(t *testing.T) {
	obj := NewObject()
	obj.Set("b", 1.0)
	obj.Set("a", "x<y")
	obj.Set("gone", Undefined)

	assert.Equal(t, `{"b":1,"a":"x<y"}`, Stringify(obj))
	assert.Equal(t, `[1,null,null]`, Stringify(NewArray(1.0, Undefined, math.NaN())))
	assert.Equal(t, "undefined", Stringify(Undefined))
	assert.Equal(t, `"line\nbreak"`, Stringify("line\nbreak"))
	assert.Equal(t, `"[Function: f]"`, Stringify(NewFunction("f")))
}

func TestParseBuiltins(t *testing.T) {
	assert.Equal(t, 42.0, ParseInt("42px", Undefined))
	assert.Equal(t, 255.0, ParseInt("ff", 16.0))
	assert.Equal(t, 31.0, ParseInt("0x1f", Undefined))
	assert.Equal(t, -7.0, ParseInt("  -7.9", Undefined))
	assert.True(t, math.IsNaN(ParseInt("px", Undefined)))

	assert.Equal(t, 3.14, ParseFloat("3.14abc"))
	assert.Equal(t, math.Inf(1), ParseFloat("Infinity"))
	assert.True(t, math.IsNaN(ParseFloat("abc")))
}

func TestCoerceInput(t *testing.T) {
	assert.Equal(t, Value(5.0), CoerceInput("5"))
	assert.Equal(t, Value("five"), CoerceInput("five"))
	assert.Equal(t, Value(""), CoerceInput(""))
}

func TestMsgpackRoundTrip(t *testing.T) {
	obj := NewObject()
	obj.Set("z", 1.0)
	obj.Set("a", NewArray("x", Undefined, nil, true))
	obj.Set("f", NewFunction("main"))

	b, err := msgpack.Marshal(map[string]any{"v": obj})
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, msgpack.Unmarshal(b, &out))

	decoded, ok := out["v"].(*Object)
	require.True(t, ok, "expected *Object, got %T", out["v"])
	assert.Equal(t, []string{"z", "a", "f"}, decoded.Keys())
	assert.Equal(t, Stringify(obj), Stringify(decoded))

	inner, ok := decoded.Get("a").(*Array)
	require.True(t, ok)
	assert.True(t, IsUndefined(inner.At(1)))
}
