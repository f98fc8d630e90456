package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
)

// Kind is the tag of a structured Value.
type Kind int

// Value kinds.
const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindSequence
	KindMapping
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return "unknown"
	}
}

// Value is a structured tree: null, bool, number, string, sequence or mapping.
// Numbers keep their textual form so integers survive a round trip.
type Value struct {
	kind Kind
	b    bool
	num  json.Number
	str  string
	seq  []Value
	m    map[string]Value
}

// Null returns the null value.
func Null() Value { return Value{} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number returns a numeric value from its textual form.
func Number(n json.Number) Value { return Value{kind: KindNumber, num: n} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Sequence returns a sequence value.
func Sequence(items ...Value) Value { return Value{kind: KindSequence, seq: items} }

// Mapping returns a mapping value.
func Mapping(fields map[string]Value) Value {
	if fields == nil {
		fields = map[string]Value{}
	}
	return Value{kind: KindMapping, m: fields}
}

// Kind returns the value tag.
func (v Value) Kind() Kind { return v.kind }

// Field returns a mapping entry.
func (v Value) Field(key string) (Value, bool) {
	if v.kind != KindMapping {
		return Value{}, false
	}
	f, ok := v.m[key]
	return f, ok
}

// Keys returns the sorted keys of a mapping.
func (v Value) Keys() []string {
	keys := make([]string, 0, len(v.m))
	for k := range v.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Str returns the string payload.
func (v Value) Str() string { return v.str }

// Merge overlays one value onto another.
// When both sides are mappings the merge recurses key by key; in every
// other case the overlay replaces the base. Sequences are replaced whole.
// Neither argument is modified.
func Merge(base, overlay Value) Value {
	if base.kind != KindMapping || overlay.kind != KindMapping {
		return overlay
	}
	out := make(map[string]Value, len(base.m)+len(overlay.m))
	for k, bv := range base.m {
		out[k] = bv
	}
	for k, ov := range overlay.m {
		if bv, ok := out[k]; ok {
			out[k] = Merge(bv, ov)
			continue
		}
		out[k] = ov
	}
	return Value{kind: KindMapping, m: out}
}

// ParseValue decodes JSON text into a Value.
func ParseValue(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return Value{}, fmt.Errorf("decoding value: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Value{}, errors.New("decoding value: trailing data")
	}
	return fromAny(raw)
}

// ValueOf converts any JSON-encodable Go value into a Value.
func ValueOf(x any) (Value, error) {
	data, err := json.Marshal(x)
	if err != nil {
		return Value{}, fmt.Errorf("encoding value: %w", err)
	}
	return ParseValue(data)
}

func fromAny(raw any) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		return Number(t), nil
	case string:
		return String(t), nil
	case []any:
		items := make([]Value, 0, len(t))
		for _, item := range t {
			v, err := fromAny(item)
			if err != nil {
				return Value{}, err
			}
			items = append(items, v)
		}
		return Sequence(items...), nil
	case map[string]any:
		fields := make(map[string]Value, len(t))
		for k, item := range t {
			v, err := fromAny(item)
			if err != nil {
				return Value{}, err
			}
			fields[k] = v
		}
		return Mapping(fields), nil
	default:
		return Value{}, fmt.Errorf("unsupported value type %T", raw)
	}
}

// MarshalJSON encodes the value as JSON.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindNumber:
		return []byte(v.num.String()), nil
	case KindString:
		return json.Marshal(v.str)
	case KindSequence:
		if v.seq == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.seq)
	case KindMapping:
		return json.Marshal(v.m)
	default:
		return nil, fmt.Errorf("unknown value kind %d", v.kind)
	}
}

// UnmarshalJSON decodes JSON text into the value.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := ParseValue(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
