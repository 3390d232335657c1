package value

import (
	"math"
	"strconv"
	"strings"
)

// ToNumber converts v to a number.
func ToNumber(v Value) float64 {
	switch x := v.(type) {
	case undefined:
		return math.NaN()
	case nil:
		return 0
	case bool:
		if x {
			return 1
		}
		return 0
	case float64:
		return x
	case string:
		return StringToNumber(x)
	case *Array:
		return StringToNumber(ToString(x))
	default:
		return math.NaN()
	}
}

// StringToNumber parses s the way numeric coercion does: surrounding
// whitespace is ignored, the empty string is zero and anything that is not a
// complete numeric literal is NaN.
func StringToNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	switch s {
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			n, err := strconv.ParseUint(s[2:], base, 64)
			if err != nil {
				return math.NaN()
			}
			return float64(n)
		}
	}
	if !isDecimalLiteral(s) {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// Out of range literals saturate.
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return f
		}
		return math.NaN()
	}
	return f
}

func isDecimalLiteral(s string) bool {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return false
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		exp := 0
		for i < len(s) && isDigit(s[i]) {
			i++
			exp++
		}
		if exp == 0 {
			return false
		}
	}
	return i == len(s)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// ToString converts v to its string form.
func ToString(v Value) string {
	switch x := v.(type) {
	case undefined:
		return "undefined"
	case nil:
		return "null"
	case bool:
		if x {
			return "true"
		}
		return "false"
	case float64:
		return FormatNumber(x)
	case string:
		return x
	case *Array:
		parts := make([]string, len(x.elems))
		for i, e := range x.elems {
			if IsNullish(e) {
				continue
			}
			parts[i] = ToString(e)
		}
		return strings.Join(parts, ",")
	case *Object:
		return "[object Object]"
	case *Function:
		return x.String()
	default:
		return ""
	}
}

// FormatNumber renders f using the shortest round-tripping decimal form,
// switching to exponent notation outside [1e-7, 1e21).
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}

	sign := ""
	if f < 0 {
		sign = "-"
		f = -f
	}

	// d.dddde±XX
	sci := strconv.FormatFloat(f, 'e', -1, 64)
	mant, expPart, _ := strings.Cut(sci, "e")
	exp, _ := strconv.Atoi(expPart)
	digits := strings.Replace(mant, ".", "", 1)
	k := len(digits)
	n := exp + 1

	var b strings.Builder
	b.WriteString(sign)
	switch {
	case k <= n && n <= 21:
		b.WriteString(digits)
		b.WriteString(strings.Repeat("0", n-k))
	case 0 < n && n <= 21:
		b.WriteString(digits[:n])
		b.WriteByte('.')
		b.WriteString(digits[n:])
	case -6 < n && n <= 0:
		b.WriteString("0.")
		b.WriteString(strings.Repeat("0", -n))
		b.WriteString(digits)
	default:
		b.WriteByte(digits[0])
		if k > 1 {
			b.WriteByte('.')
			b.WriteString(digits[1:])
		}
		b.WriteByte('e')
		if n-1 >= 0 {
			b.WriteByte('+')
		}
		b.WriteString(strconv.Itoa(n - 1))
	}
	return b.String()
}

// ToPrimitive reduces arrays and objects to their string form.
func ToPrimitive(v Value) Value {
	switch v.(type) {
	case *Array, *Object, *Function:
		return ToString(v)
	default:
		return v
	}
}

// ParseInt implements the global parseInt built-in.
func ParseInt(v Value, radix Value) float64 {
	s := strings.TrimLeft(ToString(v), " \t\n\r\v\f")
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}

	base := 0
	if !IsUndefined(radix) {
		r := ToNumber(radix)
		if !math.IsNaN(r) && !math.IsInf(r, 0) {
			base = int(math.Trunc(r))
		}
	}
	switch {
	case base == 0:
		base = 10
		if len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
			base = 16
			s = s[2:]
		}
	case base < 2 || base > 36:
		return math.NaN()
	case base == 16:
		if len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
			s = s[2:]
		}
	}

	result := 0.0
	seen := false
	for i := 0; i < len(s); i++ {
		d := digitValue(s[i])
		if d < 0 || d >= base {
			break
		}
		result = result*float64(base) + float64(d)
		seen = true
	}
	if !seen {
		return math.NaN()
	}
	if neg {
		return -result
	}
	return result
}

func digitValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'z':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'Z':
		return int(c-'A') + 10
	default:
		return -1
	}
}

// ParseFloat implements the global parseFloat built-in: the longest numeric
// prefix wins.
func ParseFloat(v Value) float64 {
	s := strings.TrimLeft(ToString(v), " \t\n\r\v\f")
	rest := s
	sign := 1.0
	if rest != "" && (rest[0] == '+' || rest[0] == '-') {
		if rest[0] == '-' {
			sign = -1
		}
		rest = rest[1:]
	}
	if strings.HasPrefix(rest, "Infinity") {
		return math.Inf(int(sign))
	}
	for end := len(s); end > 0; end-- {
		if isDecimalLiteral(s[:end]) {
			f, _ := strconv.ParseFloat(s[:end], 64)
			return f
		}
	}
	return math.NaN()
}

// CoerceInput turns a queued input value into a number when it reads as one.
// Blank input stays a string.
func CoerceInput(s string) Value {
	if strings.TrimSpace(s) == "" {
		return s
	}
	n := StringToNumber(s)
	if math.IsNaN(n) {
		return s
	}
	return n
}
