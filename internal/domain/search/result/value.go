package result

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// maxDepth bounds nested list/mapping conversion.
const maxDepth = 32

// Kind enumerates the closed set of record value shapes.
type Kind int

// Value kinds.
const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindList
	KindMapping
	// KindUnsupported holds the printable form of a value that has no JSON shape.
	KindUnsupported
)

// Mapper is implemented by structured backend values that expose their fields.
type Mapper interface {
	Fields() map[string]any
}

// Value is a JSON-serializable record field value.
type Value struct {
	kind Kind
	b    bool
	num  string
	str  string
	list []Value
	m    map[string]Value
}

// Null returns the null value.
func Null() Value { return Value{kind: KindNull} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number wraps a float. Non-finite numbers become unsupported values.
func Number(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Unsupported(strconv.FormatFloat(f, 'g', -1, 64))
	}
	return Value{kind: KindNumber, num: strconv.FormatFloat(f, 'g', -1, 64)}
}

// Unsupported wraps the printable form of an unconvertible value.
func Unsupported(printed string) Value { return Value{kind: KindUnsupported, str: printed} }

// List wraps a list of values.
func List(items []Value) Value { return Value{kind: KindList, list: items} }

// Mapping wraps a field mapping.
func Mapping(m map[string]Value) Value { return Value{kind: KindMapping, m: m} }

// ValueOf coerces an arbitrary backend value. It never fails: anything without a
// JSON shape is stringified.
func ValueOf(v any) Value {
	return valueOf(v, 0)
}

//nolint:gocyclo // flat type switch
func valueOf(v any, depth int) Value {
	if depth > maxDepth {
		return Unsupported(fmt.Sprintf("%v", v))
	}
	switch x := v.(type) {
	case nil:
		return Null()
	case Value:
		return x
	case bool:
		return Bool(x)
	case string:
		return String(x)
	case json.Number:
		if !IsNumberLiteral(x.String()) {
			return Unsupported(x.String())
		}
		return Value{kind: KindNumber, num: x.String()}
	case float64:
		return Number(x)
	case float32:
		return Number(float64(x))
	case int:
		return Value{kind: KindNumber, num: strconv.Itoa(x)}
	case int8:
		return Value{kind: KindNumber, num: strconv.FormatInt(int64(x), 10)}
	case int16:
		return Value{kind: KindNumber, num: strconv.FormatInt(int64(x), 10)}
	case int32:
		return Value{kind: KindNumber, num: strconv.FormatInt(int64(x), 10)}
	case int64:
		return Value{kind: KindNumber, num: strconv.FormatInt(x, 10)}
	case uint:
		return Value{kind: KindNumber, num: strconv.FormatUint(uint64(x), 10)}
	case uint8:
		return Value{kind: KindNumber, num: strconv.FormatUint(uint64(x), 10)}
	case uint16:
		return Value{kind: KindNumber, num: strconv.FormatUint(uint64(x), 10)}
	case uint32:
		return Value{kind: KindNumber, num: strconv.FormatUint(uint64(x), 10)}
	case uint64:
		return Value{kind: KindNumber, num: strconv.FormatUint(x, 10)}
	case time.Time:
		return String(x.UTC().Format(time.RFC3339Nano))
	case json.RawMessage:
		return rawValue(x, depth)
	case map[string]any:
		m := make(map[string]Value, len(x))
		for k, item := range x {
			m[k] = valueOf(item, depth+1)
		}
		return Mapping(m)
	case map[string]string:
		m := make(map[string]Value, len(x))
		for k, item := range x {
			m[k] = String(item)
		}
		return Mapping(m)
	case []any:
		items := make([]Value, len(x))
		for i, item := range x {
			items[i] = valueOf(item, depth+1)
		}
		return List(items)
	case []string:
		items := make([]Value, len(x))
		for i, item := range x {
			items[i] = String(item)
		}
		return List(items)
	case []map[string]any:
		items := make([]Value, len(x))
		for i, item := range x {
			items[i] = valueOf(item, depth+1)
		}
		return List(items)
	case Mapper:
		return mapperValue(x, depth)
	case error:
		return Unsupported(x.Error())
	case fmt.Stringer:
		return Unsupported(x.String())
	default:
		return Unsupported(fmt.Sprintf("%v", x))
	}
}

// IsNumberLiteral reports whether s is a valid JSON number.
func IsNumberLiteral(s string) bool {
	if s == "" || (s[0] != '-' && (s[0] < '0' || s[0] > '9')) {
		return false
	}
	return json.Valid([]byte(s))
}

// mapperValue converts a Mapper, falling back to its printable form when
// Fields panics (typically a nil pointer receiver).
func mapperValue(m Mapper, depth int) (v Value) {
	defer func() {
		if r := recover(); r != nil {
			v = Unsupported(fmt.Sprintf("%v", m))
		}
	}()
	return valueOf(m.Fields(), depth+1)
}

func rawValue(raw json.RawMessage, depth int) Value {
	var decoded any
	if err := unmarshalNumber(raw, &decoded); err != nil {
		return Unsupported(string(raw))
	}
	return valueOf(decoded, depth+1)
}

// Kind returns the value shape.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean payload.
func (v Value) AsBool() bool { return v.b }

// AsString returns the string payload (also the printed form of unsupported values).
func (v Value) AsString() string { return v.str }

// AsNumber returns the numeric literal as written.
func (v Value) AsNumber() string { return v.num }

// AsList returns list items.
func (v Value) AsList() []Value { return v.list }

// AsMapping returns mapping entries.
func (v Value) AsMapping() map[string]Value { return v.m }

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return strconv.AppendBool(nil, v.b), nil
	case KindNumber:
		return []byte(v.num), nil
	case KindString, KindUnsupported:
		return marshal(v.str)
	case KindList:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return marshal(v.list)
	case KindMapping:
		if v.m == nil {
			return []byte("{}"), nil
		}
		return marshal(v.m)
	default:
		return []byte("null"), nil
	}
}

func marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal value: %w", err)
	}
	return data, nil
}
