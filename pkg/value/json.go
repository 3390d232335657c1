package value

import (
	"math"
	"strconv"
	"unicode/utf8"
)

// Stringify renders v the way JSON.stringify does, except that a bare
// Undefined renders as the word "undefined".
func Stringify(v Value) string {
	if IsUndefined(v) {
		return "undefined"
	}
	return string(AppendJSON(nil, v))
}

// AppendJSON appends the JSON encoding of v to dst. Undefined becomes null
// at the top level and inside arrays, and is omitted from objects. NaN and
// infinities become null.
func AppendJSON(dst []byte, v Value) []byte {
	switch x := v.(type) {
	case undefined, nil:
		return append(dst, "null"...)
	case bool:
		return strconv.AppendBool(dst, x)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return append(dst, "null"...)
		}
		return append(dst, FormatNumber(x)...)
	case string:
		return AppendQuoted(dst, x)
	case *Function:
		return AppendQuoted(dst, x.String())
	case *Array:
		dst = append(dst, '[')
		for i, e := range x.elems {
			if i > 0 {
				dst = append(dst, ',')
			}
			dst = AppendJSON(dst, e)
		}
		return append(dst, ']')
	case *Object:
		dst = append(dst, '{')
		first := true
		for pair := x.props.Oldest(); pair != nil; pair = pair.Next() {
			if IsUndefined(pair.Value) {
				continue
			}
			if !first {
				dst = append(dst, ',')
			}
			first = false
			dst = AppendQuoted(dst, pair.Key)
			dst = append(dst, ':')
			dst = AppendJSON(dst, pair.Value)
		}
		return append(dst, '}')
	default:
		return append(dst, "null"...)
	}
}

const hex = "0123456789abcdef"

// AppendQuoted appends s as a JSON string literal without HTML escaping.
func AppendQuoted(dst []byte, s string) []byte {
	dst = append(dst, '"')
	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			switch c {
			case '"', '\\':
				dst = append(dst, '\\', c)
			case '\n':
				dst = append(dst, '\\', 'n')
			case '\r':
				dst = append(dst, '\\', 'r')
			case '\t':
				dst = append(dst, '\\', 't')
			case '\b':
				dst = append(dst, '\\', 'b')
			case '\f':
				dst = append(dst, '\\', 'f')
			default:
				if c < 0x20 {
					dst = append(dst, '\\', 'u', '0', '0', hex[c>>4], hex[c&0xf])
				} else {
					dst = append(dst, c)
				}
			}
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			dst = append(dst, "\ufffd"...)
		} else {
			dst = append(dst, s[i:i+size]...)
		}
		i += size
	}
	return append(dst, '"')
}

// MarshalJSON encodes the array.
func (a *Array) MarshalJSON() ([]byte, error) {
	return AppendJSON(nil, a), nil
}

// MarshalJSON encodes the object in insertion order.
func (o *Object) MarshalJSON() ([]byte, error) {
	return AppendJSON(nil, o), nil
}

// MarshalJSON encodes the function marker as its display string.
func (f *Function) MarshalJSON() ([]byte, error) {
	return AppendQuoted(nil, f.String()), nil
}

// MarshalJSON encodes Undefined as null.
func (undefined) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}
