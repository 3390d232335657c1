package value

import (
	"math"
	"strings"

	"fortio.org/safecast"
)

// Add implements the + operator: concatenation when either primitive side is
// a string, numeric addition otherwise.
func Add(a, b Value) Value {
	pa, pb := ToPrimitive(a), ToPrimitive(b)
	sa, aIsStr := pa.(string)
	sb, bIsStr := pb.(string)
	if aIsStr || bIsStr {
		if !aIsStr {
			sa = ToString(pa)
		}
		if !bIsStr {
			sb = ToString(pb)
		}
		return sa + sb
	}
	return ToNumber(pa) + ToNumber(pb)
}

// Sub implements the - operator.
func Sub(a, b Value) Value { return ToNumber(a) - ToNumber(b) }

// Mul implements the * operator.
func Mul(a, b Value) Value { return ToNumber(a) * ToNumber(b) }

// Div implements the / operator. A zero divisor yields NaN.
func Div(a, b Value) Value {
	d := ToNumber(b)
	if d == 0 {
		return math.NaN()
	}
	return ToNumber(a) / d
}

// Mod implements the % operator; the result takes the sign of the dividend.
func Mod(a, b Value) Value { return math.Mod(ToNumber(a), ToNumber(b)) }

// Pow implements the ** operator.
func Pow(a, b Value) Value {
	x, y := ToNumber(a), ToNumber(b)
	if math.IsNaN(y) {
		return math.NaN()
	}
	if (x == 1 || x == -1) && math.IsInf(y, 0) {
		return math.NaN()
	}
	return math.Pow(x, y)
}

// Negate implements unary minus.
func Negate(v Value) Value { return -ToNumber(v) }

// Plus implements unary plus.
func Plus(v Value) Value { return ToNumber(v) }

// less is the abstract relational comparison. ok is false when either side
// is NaN.
func less(a, b Value) (result, ok bool) {
	pa, pb := ToPrimitive(a), ToPrimitive(b)
	sa, aIsStr := pa.(string)
	sb, bIsStr := pb.(string)
	if aIsStr && bIsStr {
		return strings.Compare(sa, sb) < 0, true
	}
	x, y := ToNumber(pa), ToNumber(pb)
	if math.IsNaN(x) || math.IsNaN(y) {
		return false, false
	}
	return x < y, true
}

// Less implements a < b.
func Less(a, b Value) bool {
	r, ok := less(a, b)
	return ok && r
}

// Greater implements a > b.
func Greater(a, b Value) bool {
	r, ok := less(b, a)
	return ok && r
}

// LessOrEqual implements a <= b.
func LessOrEqual(a, b Value) bool {
	r, ok := less(b, a)
	return ok && !r
}

// GreaterOrEqual implements a >= b.
func GreaterOrEqual(a, b Value) bool {
	r, ok := less(a, b)
	return ok && !r
}

// StrictEquals implements ===. Arrays, objects and functions compare by
// identity.
func StrictEquals(a, b Value) bool {
	switch x := a.(type) {
	case undefined:
		return IsUndefined(b)
	case nil:
		return b == nil
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case float64:
		y, ok := b.(float64)
		return ok && x == y
	case string:
		y, ok := b.(string)
		return ok && x == y
	case *Array:
		y, ok := b.(*Array)
		return ok && x == y
	case *Object:
		y, ok := b.(*Object)
		return ok && x == y
	case *Function:
		y, ok := b.(*Function)
		return ok && x == y
	}
	return false
}

// LooseEquals implements ==.
func LooseEquals(a, b Value) bool {
	if sameType(a, b) {
		return StrictEquals(a, b)
	}
	if IsNullish(a) || IsNullish(b) {
		return IsNullish(a) && IsNullish(b)
	}

	switch x := a.(type) {
	case bool:
		return LooseEquals(ToNumber(x), b)
	case float64:
		switch y := b.(type) {
		case string:
			return x == StringToNumber(y)
		case bool:
			return LooseEquals(x, ToNumber(y))
		case *Array, *Object, *Function:
			return LooseEquals(x, ToPrimitive(y))
		}
	case string:
		switch y := b.(type) {
		case float64:
			return StringToNumber(x) == y
		case bool:
			return LooseEquals(x, ToNumber(y))
		case *Array, *Object, *Function:
			return LooseEquals(x, ToPrimitive(y))
		}
	case *Array, *Object, *Function:
		switch b.(type) {
		case float64, string, bool:
			return LooseEquals(ToPrimitive(x), b)
		}
	}
	return false
}

func sameType(a, b Value) bool {
	switch a.(type) {
	case undefined:
		return IsUndefined(b)
	case nil:
		return b == nil
	case bool:
		_, ok := b.(bool)
		return ok
	case float64:
		_, ok := b.(float64)
		return ok
	case string:
		_, ok := b.(string)
		return ok
	case *Array:
		_, ok := b.(*Array)
		return ok
	case *Object:
		_, ok := b.(*Object)
		return ok
	case *Function:
		_, ok := b.(*Function)
		return ok
	}
	return false
}

// Member reads obj[prop]. Nullish bases and unknown members read as
// Undefined.
func Member(obj Value, prop Value) Value {
	switch x := obj.(type) {
	case *Array:
		if key, ok := prop.(string); ok && key == "length" {
			return float64(x.Len())
		}
		if i, ok := ArrayIndex(prop); ok {
			return x.At(i)
		}
		return Undefined
	case string:
		if key, ok := prop.(string); ok && key == "length" {
			return float64(len([]rune(x)))
		}
		if i, ok := ArrayIndex(prop); ok {
			runes := []rune(x)
			if i < len(runes) {
				return string(runes[i])
			}
		}
		return Undefined
	case *Object:
		return x.Get(ToString(prop))
	default:
		return Undefined
	}
}

// ArrayIndex interprets prop as a non-negative integer index.
func ArrayIndex(prop Value) (int, bool) {
	var f float64
	switch p := prop.(type) {
	case float64:
		f = p
	case string:
		if p == "" {
			return 0, false
		}
		f = StringToNumber(p)
		if FormatNumber(f) != p {
			return 0, false
		}
	default:
		return 0, false
	}
	if f < 0 || f > math.MaxInt32 || f != math.Trunc(f) {
		return 0, false
	}
	i, err := safecast.Truncate[int](f)
	if err != nil {
		return 0, false
	}
	return i, true
}

// ToUint32 applies the ToUint32 conversion used by unsigned shifts.
func ToUint32(v Value) uint32 {
	f := ToNumber(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	m := math.Mod(math.Trunc(f), 1<<32)
	if m < 0 {
		m += 1 << 32
	}
	return uint32(m)
}

// ToInt32 applies the ToInt32 conversion used by bitwise operators.
func ToInt32(v Value) int32 {
	return int32(ToUint32(v))
}

// Bitwise applies one of the integer operators & | ^ << >> >>>.
func Bitwise(op string, a, b Value) Value {
	x, y := ToInt32(a), ToInt32(b)
	shift := ToUint32(b) & 31
	switch op {
	case "&":
		return float64(x & y)
	case "|":
		return float64(x | y)
	case "^":
		return float64(x ^ y)
	case "<<":
		return float64(x << shift)
	case ">>":
		return float64(x >> shift)
	case ">>>":
		return float64(ToUint32(a) >> shift)
	}
	return math.NaN()
}

// BitNot applies the ~ operator.
func BitNot(v Value) Value { return float64(^ToInt32(v)) }
