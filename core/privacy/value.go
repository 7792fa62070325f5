package privacy

import (
	"bytes"
	"fmt"
	"math"
	"reflect"
	"strconv"

	json "github.com/goccy/go-json"
)

// Value is a node of a heterogeneous payload tree. The concrete variants are
// Mapping, Sequence, String, Number, Integer, Bool and Null; code walking a tree
// switches over them exhaustively.
type Value interface {
	isValue()
}

// Mapping is a payload object with string keys.
type Mapping map[string]Value

// Sequence is an ordered list of payload values.
type Sequence []Value

// String is a text scalar.
type String string

// Number is a numeric scalar. Integers and floats share the representation
// used by JSON.
type Number float64

// Integer holds an integer beyond the range float64 represents exactly, such
// as a large ID or a nanosecond timestamp.
type Integer int64

// maxExact is the largest magnitude float64 holds without losing integers.
const maxExact = 1 << 53

// Bool is a boolean scalar.
type Bool bool

// Null is the absent value.
type Null struct{}

func (Mapping) isValue()  {}
func (Sequence) isValue() {}
func (String) isValue()   {}
func (Number) isValue()   {}
func (Integer) isValue()  {}
func (Bool) isValue()     {}
func (Null) isValue()     {}

// MarshalJSON encodes Null as the JSON literal null.
func (Null) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

// UnmarshalJSON decodes any JSON object into the mapping, converting nested
// values with FromAny.
func (m *Mapping) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := decode(data, &raw); err != nil {
		return err
	}
	*m = FromMap(raw)
	return nil
}

// decode keeps numbers as json.Number so large integers survive.
func decode(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

// Get returns the value stored under key, or nil when absent.
func (m Mapping) Get(key string) Value {
	if m == nil {
		return nil
	}
	return m[key]
}

// MappingAt returns the nested mapping stored under key.
func (m Mapping) MappingAt(key string) (Mapping, bool) {
	v, ok := m.Get(key).(Mapping)
	return v, ok
}

// SequenceAt returns the nested sequence stored under key.
func (m Mapping) SequenceAt(key string) (Sequence, bool) {
	v, ok := m.Get(key).(Sequence)
	return v, ok
}

// StringAt returns the string stored under key.
func (m Mapping) StringAt(key string) (string, bool) {
	v, ok := m.Get(key).(String)
	return string(v), ok
}

// Clone returns a shallow copy of the mapping.
func (m Mapping) Clone() Mapping {
	if m == nil {
		return nil
	}
	out := make(Mapping, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// FromAny converts decoded JSON or plain Go data into a Value. Types without a
// direct counterpart are converted through their JSON encoding; values that
// cannot be encoded become their fmt representation.
func FromAny(v any) Value {
	switch val := v.(type) {
	case nil:
		return Null{}
	case Value:
		return val
	case map[string]any:
		return FromMap(val)
	case []any:
		seq := make(Sequence, len(val))
		for i, item := range val {
			seq[i] = FromAny(item)
		}
		return seq
	case map[string]string:
		m := make(Mapping, len(val))
		for k, s := range val {
			m[k] = String(s)
		}
		return m
	case []string:
		seq := make(Sequence, len(val))
		for i, s := range val {
			seq[i] = String(s)
		}
		return seq
	case string:
		return String(val)
	case bool:
		return Bool(val)
	case float64:
		return Number(val)
	case float32:
		return Number(val)
	case int:
		return fromInt64(int64(val))
	case int8:
		return Number(val)
	case int16:
		return Number(val)
	case int32:
		return Number(val)
	case int64:
		return fromInt64(val)
	case uint:
		return fromUint64(uint64(val))
	case uint8:
		return Number(val)
	case uint16:
		return Number(val)
	case uint32:
		return Number(val)
	case uint64:
		return fromUint64(val)
	case json.Number:
		return fromJSONNumber(val)
	case error:
		return String(val.Error())
	case fmt.Stringer:
		return String(val.String())
	}
	return fromReflect(v)
}

func fromInt64(v int64) Value {
	if v >= -maxExact && v <= maxExact {
		return Number(v)
	}
	return Integer(v)
}

// fromUint64 keeps values above math.MaxInt64 as decimal text.
func fromUint64(v uint64) Value {
	if v <= math.MaxInt64 {
		return fromInt64(int64(v))
	}
	return String(strconv.FormatUint(v, 10))
}

func fromJSONNumber(n json.Number) Value {
	if i, err := n.Int64(); err == nil {
		return fromInt64(i)
	}
	if u, err := strconv.ParseUint(n.String(), 10, 64); err == nil {
		return fromUint64(u)
	}
	f, err := n.Float64()
	if err != nil {
		return String(n.String())
	}
	return Number(f)
}

// FromMap converts a Go map into a Mapping.
func FromMap(m map[string]any) Mapping {
	if m == nil {
		return nil
	}
	out := make(Mapping, len(m))
	for k, v := range m {
		out[k] = FromAny(v)
	}
	return out
}

func fromReflect(v any) Value {
	rv := reflect.ValueOf(v)
	if (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) && rv.IsNil() {
		return Null{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return String(fmt.Sprint(v))
	}
	var decoded any
	if err := decode(b, &decoded); err != nil {
		return String(fmt.Sprint(v))
	}
	return FromAny(decoded)
}

// ToAny converts a Value back into plain Go data: map[string]any, []any,
// string, float64, int64, bool or nil.
func ToAny(v Value) any {
	switch val := v.(type) {
	case Mapping:
		return ToMap(val)
	case Sequence:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = ToAny(item)
		}
		return out
	case String:
		return string(val)
	case Number:
		return float64(val)
	case Integer:
		return int64(val)
	case Bool:
		return bool(val)
	case Null, nil:
		return nil
	}
	return nil
}

// ToMap converts a Mapping into a Go map.
func ToMap(m Mapping) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = ToAny(v)
	}
	return out
}
