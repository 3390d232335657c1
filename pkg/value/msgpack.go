package value

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Extension ids used when values travel through msgpack (trace cache).
const (
	extUndefined int8 = 1
	extArray     int8 = 2
	extObject    int8 = 3
	extFunction  int8 = 4
)

func init() {
	msgpack.RegisterExt(extUndefined, undefined{})
	msgpack.RegisterExt(extArray, (*Array)(nil))
	msgpack.RegisterExt(extObject, (*Object)(nil))
	msgpack.RegisterExt(extFunction, (*Function)(nil))
}

func (undefined) MarshalMsgpack() ([]byte, error) { return []byte{}, nil }

func (undefined) UnmarshalMsgpack([]byte) error { return nil }

// MarshalMsgpack encodes the elements.
func (a *Array) MarshalMsgpack() ([]byte, error) {
	return msgpack.Marshal(toAny(a.elems))
}

// UnmarshalMsgpack decodes the elements.
func (a *Array) UnmarshalMsgpack(b []byte) error {
	var raw []any
	if err := msgpack.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("decode array: %w", err)
	}
	a.elems = make([]Value, len(raw))
	for i, e := range raw {
		a.elems[i] = e
	}
	return nil
}

// MarshalMsgpack encodes the properties as a flat key/value list so that
// insertion order survives the round trip.
func (o *Object) MarshalMsgpack() ([]byte, error) {
	flat := make([]any, 0, o.props.Len()*2)
	for pair := o.props.Oldest(); pair != nil; pair = pair.Next() {
		flat = append(flat, pair.Key, pair.Value)
	}
	return msgpack.Marshal(flat)
}

// UnmarshalMsgpack decodes the flat key/value list.
func (o *Object) UnmarshalMsgpack(b []byte) error {
	var flat []any
	if err := msgpack.Unmarshal(b, &flat); err != nil {
		return fmt.Errorf("decode object: %w", err)
	}
	if len(flat)%2 != 0 {
		return fmt.Errorf("decode object: odd property list length %d", len(flat))
	}
	fresh := NewObject()
	for i := 0; i < len(flat); i += 2 {
		key, ok := flat[i].(string)
		if !ok {
			return fmt.Errorf("decode object: key %v is not a string", flat[i])
		}
		fresh.props.Set(key, flat[i+1])
	}
	o.props = fresh.props
	return nil
}

// MarshalMsgpack encodes the function name.
func (f *Function) MarshalMsgpack() ([]byte, error) {
	return msgpack.Marshal(f.Name)
}

// UnmarshalMsgpack decodes the function name.
func (f *Function) UnmarshalMsgpack(b []byte) error {
	return msgpack.Unmarshal(b, &f.Name)
}

func toAny(vs []Value) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}
