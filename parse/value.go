package parse

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Kind discriminates the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindList
	KindObject
)

// Value is a dynamically-typed JSON value. Tool arguments arrive with shapes
// only known at parse time, so the pipeline carries them as a tagged variant
// instead of bare interface{} trees.
type Value struct {
	kind Kind
	str  string
	num  int64
	flt  float64
	flag bool
	list []Value
	obj  *Object
}

// Null returns the null Value.
func Null() Value { return Value{kind: KindNull} }

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Int wraps an integer.
func Int(i int64) Value { return Value{kind: KindInt, num: i} }

// Float wraps a floating-point number.
func Float(f float64) Value { return Value{kind: KindFloat, flt: f} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, flag: b} }

// List wraps a sequence of values.
func List(items ...Value) Value { return Value{kind: KindList, list: items} }

// ObjectValue wraps an ordered object.
func ObjectValue(obj *Object) Value {
	if obj == nil {
		obj = NewObject()
	}
	return Value{kind: KindObject, obj: obj}
}

// Kind reports which variant the value holds.
func (v Value) Kind() Kind { return v.kind }

// Str returns the string payload; empty for other kinds.
func (v Value) Str() string { return v.str }

// Int64 returns the integer payload; zero for other kinds.
func (v Value) Int64() int64 { return v.num }

// Float64 returns the numeric payload for both Int and Float kinds.
func (v Value) Float64() float64 {
	if v.kind == KindInt {
		return float64(v.num)
	}
	return v.flt
}

// Bool returns the boolean payload; false for other kinds.
func (v Value) Bool() bool { return v.flag }

// Items returns the list payload; nil for other kinds.
func (v Value) Items() []Value { return v.list }

// Object returns the object payload; nil for other kinds.
func (v Value) Object() *Object { return v.obj }

// Interface converts the value back into the plain interface{} tree that
// tool implementations consume.
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindString:
		return v.str
	case KindInt:
		return v.num
	case KindFloat:
		return v.flt
	case KindBool:
		return v.flag
	case KindList:
		out := make([]interface{}, len(v.list))
		for i, item := range v.list {
			out[i] = item.Interface()
		}
		return out
	case KindObject:
		return v.obj.Interface()
	default:
		return nil
	}
}

// MarshalJSON encodes the value preserving object key order.
func (v Value) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	if err := v.encode(&b, false); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}

// Canonical returns a deterministic, key-sorted encoding of the value. It is
// used only as a dedup-key comparison, never shown to users or tools.
func (v Value) Canonical() string {
	var b strings.Builder
	_ = v.encode(&b, true)
	return b.String()
}

func (v Value) encode(b *strings.Builder, sorted bool) error {
	switch v.kind {
	case KindNull:
		b.WriteString("null")
	case KindString:
		data, err := json.Marshal(v.str)
		if err != nil {
			return err
		}
		b.Write(data)
	case KindInt:
		b.WriteString(strconv.FormatInt(v.num, 10))
	case KindFloat:
		b.WriteString(strconv.FormatFloat(v.flt, 'g', -1, 64))
	case KindBool:
		b.WriteString(strconv.FormatBool(v.flag))
	case KindList:
		b.WriteByte('[')
		for i, item := range v.list {
			if i > 0 {
				b.WriteByte(',')
			}
			if err := item.encode(b, sorted); err != nil {
				return err
			}
		}
		b.WriteByte(']')
	case KindObject:
		keys := v.obj.Keys()
		if sorted {
			sort.Strings(keys)
		}
		b.WriteByte('{')
		for i, key := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			data, err := json.Marshal(key)
			if err != nil {
				return err
			}
			b.Write(data)
			b.WriteByte(':')
			item, _ := v.obj.Get(key)
			if err := item.encode(b, sorted); err != nil {
				return err
			}
		}
		b.WriteByte('}')
	}
	return nil
}

// Object is a string-keyed mapping that remembers insertion order. Parameter
// order matters when replaying an invocation back to the model, so the
// stdlib map alone is not enough.
type Object struct {
	keys []string
	vals map[string]Value
}

// NewObject returns an empty ordered object.
func NewObject() *Object {
	return &Object{vals: make(map[string]Value)}
}

// Set stores a value under key, keeping first-insertion order.
func (o *Object) Set(key string, v Value) {
	if _, exists := o.vals[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.vals[key] = v
}

// Get looks up a value by key.
func (o *Object) Get(key string) (Value, bool) {
	if o == nil {
		return Null(), false
	}
	v, ok := o.vals[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// Len reports the number of entries.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Interface converts the object into a plain map for tool execution. Order
// is lost here; callers needing order use Keys.
func (o *Object) Interface() map[string]interface{} {
	out := make(map[string]interface{}, o.Len())
	for _, key := range o.Keys() {
		v, _ := o.Get(key)
		out[key] = v.Interface()
	}
	return out
}

// MarshalJSON encodes the object preserving key order.
func (o *Object) MarshalJSON() ([]byte, error) {
	return ObjectValue(o).MarshalJSON()
}

// UnmarshalJSON decodes JSON into the object, preserving key order.
func (o *Object) UnmarshalJSON(data []byte) error {
	v, err := DecodeValue(string(data))
	if err != nil {
		return err
	}
	if v.Kind() != KindObject {
		return fmt.Errorf("cannot decode %s into object", string(data))
	}
	*o = *v.Object()
	return nil
}

// DecodeValue parses JSON text into a Value, preserving object key order and
// preferring int64 for numbers that fit exactly.
func DecodeValue(text string) (Value, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	v, err := decodeNext(dec)
	if err != nil {
		return Null(), err
	}
	return v, nil
}

func decodeNext(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Null(), err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeList(dec)
		default:
			return Null(), fmt.Errorf("unexpected delimiter %q", t.String())
		}
	case string:
		return String(t), nil
	case json.Number:
		return numberValue(t), nil
	case bool:
		return Bool(t), nil
	case nil:
		return Null(), nil
	default:
		return Null(), fmt.Errorf("unexpected token %v", tok)
	}
}

func decodeObject(dec *json.Decoder) (Value, error) {
	obj := NewObject()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return Null(), err
		}
		key, ok := keyTok.(string)
		if !ok {
			return Null(), fmt.Errorf("object key is %T, not string", keyTok)
		}
		item, err := decodeNext(dec)
		if err != nil {
			return Null(), err
		}
		obj.Set(key, item)
	}
	if _, err := dec.Token(); err != nil {
		return Null(), err
	}
	return ObjectValue(obj), nil
}

func decodeList(dec *json.Decoder) (Value, error) {
	var items []Value
	for dec.More() {
		item, err := decodeNext(dec)
		if err != nil {
			return Null(), err
		}
		items = append(items, item)
	}
	if _, err := dec.Token(); err != nil {
		return Null(), err
	}
	return List(items...), nil
}

// numberValue prefers the integral representation whenever the literal fits
// an int64 exactly, falling back to float64.
func numberValue(n json.Number) Value {
	if i, err := n.Int64(); err == nil {
		return Int(i)
	}
	f, err := n.Float64()
	if err != nil {
		return Null()
	}
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return Int(int64(f))
	}
	return Float(f)
}
