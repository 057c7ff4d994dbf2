// Package value models the generic JSON documents flowing through the pipeline.
package value

import (
	"bytes"
	"errors"
	"math"
	"strconv"
)

// Kind is the variant tag of a Value.
type Kind int

// Value kinds. The zero Value is Null.
const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindList
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is an immutable JSON value: String | Number | Bool | List | Object | Null.
// Numbers keep their source literal so documents re-encode without loss.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	list []Value
	obj  *Object
}

// Null returns the null value.
func Null() Value { return Value{} }

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number wraps a float with its shortest decimal literal.
func Number(f float64) Value {
	return Value{kind: KindNumber, num: f, str: strconv.FormatFloat(f, 'f', -1, 64)}
}

// NumberLiteral parses a JSON number literal, keeping the literal text.
func NumberLiteral(lit string) (Value, error) {
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return Value{}, err
	}
	// Out of range literals keep their text; the float saturates to ±Inf or 0.
	return Value{kind: KindNumber, num: f, str: lit}, nil
}

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// List wraps a sequence of values.
func List(items ...Value) Value { return Value{kind: KindList, list: items} }

// FromObject wraps a nested object. A nil object becomes Null.
func FromObject(o *Object) Value {
	if o == nil {
		return Null()
	}
	return Value{kind: KindObject, obj: o}
}

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Str returns the string payload ("" for non-strings).
func (v Value) Str() string {
	if v.kind != KindString {
		return ""
	}
	return v.str
}

// Num returns the numeric payload (0 for non-numbers).
func (v Value) Num() float64 { return v.num }

// Bool returns the boolean payload.
func (v Value) Bool() bool { return v.b }

// Items returns the list payload.
func (v Value) Items() []Value { return v.list }

// Object returns the nested object payload (nil for non-objects).
func (v Value) Object() *Object { return v.obj }

// Text renders the value as plain text: strings verbatim, numbers as their
// literal, booleans as true/false, null as "", lists and objects as JSON.
func (v Value) Text() string {
	switch v.kind {
	case KindString, KindNumber:
		return v.str
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindList, KindObject:
		var buf bytes.Buffer
		if err := appendJSON(&buf, v); err != nil {
			return ""
		}
		return buf.String()
	default:
		return ""
	}
}

func (v Value) String() string { return v.Text() }

// Native converts the value into plain Go types (string, int64, Decimal,
// bool, []any, map[string]any, nil) for consumers such as text/template.
// Integral literals become int64 and others Decimal, so both print as
// written; a literal outside the float64 range is returned as its text.
func (v Value) Native() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.nativeNumber()
	case KindBool:
		return v.b
	case KindList:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.Native()
		}
		return out
	case KindObject:
		return v.obj.Native()
	default:
		return nil
	}
}

func (v Value) nativeNumber() any {
	if i, err := strconv.ParseInt(v.str, 10, 64); err == nil {
		return i
	}
	if math.IsInf(v.num, 0) {
		return v.str
	}
	return Decimal(v.num)
}

// Decimal is a non-integral number handed to templates. It stays a float for
// comparisons and prints in plain decimal notation.
type Decimal float64

func (d Decimal) String() string { return strconv.FormatFloat(float64(d), 'f', -1, 64) }

// Equal reports deep equality. Numbers compare by value.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return v.str == o.str
	case KindNumber:
		return v.num == o.num
	case KindBool:
		return v.b == o.b
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	case KindObject:
		return v.obj.Equal(o.obj)
	default:
		return false
	}
}
