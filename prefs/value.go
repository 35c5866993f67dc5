package prefs

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"net/url"
	"strconv"
	"time"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindInvalid Kind = iota
	// KindInt is the platform int, stored by engines as 32 bits.
	KindInt
	KindLong
	KindFloat
	// KindDouble only appears in registered defaults; engines have no
	// double primitive.
	KindDouble
	KindBool
	KindString
	KindURL
	KindData
	// KindOther wraps any registered Go value with no defined coercion.
	KindOther
)

var kindNames = [...]string{
	KindInvalid: "invalid",
	KindInt:     "int",
	KindLong:    "long",
	KindFloat:   "float",
	KindDouble:  "double",
	KindBool:    "bool",
	KindString:  "string",
	KindURL:     "url",
	KindData:    "data",
	KindOther:   "other",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// ParseKind is the inverse of Kind.String.
func ParseKind(name string) (Kind, error) {
	for kind, candidate := range kindNames {
		if candidate == name {
			return Kind(kind), nil
		}
	}
	return KindInvalid, fmt.Errorf("prefs: unknown kind %q", name)
}

// Storable reports whether engines can hold k natively.
func (k Kind) Storable() bool {
	switch k {
	case KindInt, KindLong, KindFloat, KindBool, KindString:
		return true
	default:
		return false
	}
}

func (k Kind) numeric() bool {
	switch k {
	case KindInt, KindLong, KindFloat, KindDouble:
		return true
	default:
		return false
	}
}

// Value is a closed union over the kinds above. The zero Value is invalid
// and stands for "absent".
type Value struct {
	kind  Kind
	i     int64
	f     float64
	b     bool
	s     string
	u     *url.URL
	d     []byte
	other any
}

func IntValue(v int32) Value { return Value{kind: KindInt, i: int64(v)} }
func LongValue(v int64) Value { return Value{kind: KindLong, i: v} }
func FloatValue(v float32) Value { return Value{kind: KindFloat, f: float64(v)} }
func DoubleValue(v float64) Value { return Value{kind: KindDouble, f: v} }
func BoolValue(v bool) Value { return Value{kind: KindBool, b: v} }
func StringValue(v string) Value { return Value{kind: KindString, s: v} }
func URLValue(v *url.URL) Value { return Value{kind: KindURL, u: v} }
func DataValue(v []byte) Value { return Value{kind: KindData, d: append([]byte(nil), v...)} }
func otherValue(v any) Value { return Value{kind: KindOther, other: v} }

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsValid reports whether v holds anything.
func (v Value) IsValid() bool { return v.kind != KindInvalid }

// Int returns the integer payload of Int and Long values.
func (v Value) Int() int64 { return v.i }

// Float returns the payload of Float and Double values.
func (v Value) Float() float64 { return v.f }

// Bool returns the payload of Bool values.
func (v Value) Bool() bool { return v.b }

// Text returns the payload of String values.
func (v Value) Text() string { return v.s }

// URL returns the payload of URL values.
func (v Value) URL() *url.URL { return v.u }

// Data returns a copy of the payload of Data values.
func (v Value) Data() []byte { return append([]byte(nil), v.d...) }

// Interface returns v as a plain Go value: int, int64, float32, float64,
// bool, string, *url.URL, []byte, the wrapped value for KindOther, or nil.
func (v Value) Interface() any {
	switch v.kind {
	case KindInt:
		return int(v.i)
	case KindLong:
		return v.i
	case KindFloat:
		return float32(v.f)
	case KindDouble:
		return v.f
	case KindBool:
		return v.b
	case KindString:
		return v.s
	case KindURL:
		return v.u
	case KindData:
		return v.Data()
	case KindOther:
		return v.other
	default:
		return nil
	}
}

func (v Value) String() string {
	if v.kind == KindInvalid {
		return "<invalid>"
	}
	return fmt.Sprintf("%s(%v)", v.kind, v.Interface())
}

// Equal reports whether v and o hold the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindInt, KindLong:
		return v.i == o.i
	case KindFloat, KindDouble:
		return v.f == o.f || (math.IsNaN(v.f) && math.IsNaN(o.f))
	case KindBool:
		return v.b == o.b
	case KindString:
		return v.s == o.s
	case KindURL:
		if v.u == nil || o.u == nil {
			return v.u == o.u
		}
		return v.u.String() == o.u.String()
	case KindData:
		return string(v.d) == string(o.d)
	case KindOther:
		return fmt.Sprint(v.other) == fmt.Sprint(o.other)
	default:
		return true
	}
}

// ValueOf converts a registered Go value into a Value without narrowing.
// Unknown types become KindOther; nil becomes the invalid Value.
func ValueOf(raw any) Value {
	switch v := raw.(type) {
	case nil:
		return Value{}
	case Value:
		return v
	case int:
		return intValue(v)
	case int8:
		return IntValue(int32(v))
	case int16:
		return IntValue(int32(v))
	case int32:
		return IntValue(v)
	case uint8:
		return IntValue(int32(v))
	case uint16:
		return IntValue(int32(v))
	case int64:
		return LongValue(v)
	case uint32:
		return LongValue(int64(v))
	case uint:
		return unsignedValue(uint64(v))
	case uint64:
		return unsignedValue(v)
	case float32:
		return FloatValue(v)
	case float64:
		return DoubleValue(v)
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return LongValue(i)
		}
		if f, err := v.Float64(); err == nil {
			return DoubleValue(f)
		}
		return StringValue(v.String())
	case bool:
		return BoolValue(v)
	case string:
		return StringValue(v)
	case *url.URL:
		if v == nil {
			return Value{}
		}
		return URLValue(v)
	case url.URL:
		return URLValue(&v)
	case []byte:
		return DataValue(v)
	default:
		return otherValue(raw)
	}
}

// intValue keeps a platform int as KindInt when it fits in 32 bits and
// widens it to KindLong otherwise.
func intValue(v int) Value {
	if v >= math.MinInt32 && v <= math.MaxInt32 {
		return IntValue(int32(v))
	}
	return LongValue(int64(v))
}

func unsignedValue(v uint64) Value {
	if v <= math.MaxInt64 {
		return LongValue(int64(v))
	}
	return DoubleValue(float64(v))
}

// encode maps a Go value onto an engine-storable Value following the write
// matrix: float32, int64 and the small integer types keep a native kind;
// float64, other numbers, URLs, byte slices and times are stored as text.
func encode(raw any) (Value, bool) {
	switch v := raw.(type) {
	case Value:
		return encodeValue(v)
	case float32:
		return FloatValue(v), true
	case int64:
		return LongValue(v), true
	case int:
		return intValue(v), true
	case int8:
		return IntValue(int32(v)), true
	case int16:
		return IntValue(int32(v)), true
	case int32:
		return IntValue(v), true
	case uint8:
		return IntValue(int32(v)), true
	case uint16:
		return IntValue(int32(v)), true
	case bool:
		return BoolValue(v), true
	case float64:
		return StringValue(strconv.FormatFloat(v, 'g', -1, 64)), true
	case uint:
		return StringValue(strconv.FormatUint(uint64(v), 10)), true
	case uint32:
		return StringValue(strconv.FormatUint(uint64(v), 10)), true
	case uint64:
		return StringValue(strconv.FormatUint(v, 10)), true
	case json.Number:
		return StringValue(v.String()), true
	case *big.Int:
		if v == nil {
			return Value{}, false
		}
		return StringValue(v.String()), true
	case *big.Float:
		if v == nil {
			return Value{}, false
		}
		return StringValue(v.Text('g', -1)), true
	case string:
		return StringValue(v), true
	case *url.URL:
		if v == nil {
			return Value{}, false
		}
		return StringValue(v.String()), true
	case url.URL:
		return StringValue(v.String()), true
	case []byte:
		return StringValue(base64.StdEncoding.EncodeToString(v)), true
	case time.Time:
		return StringValue(v.Format(time.RFC3339)), true
	default:
		return Value{}, false
	}
}

func encodeValue(v Value) (Value, bool) {
	switch v.kind {
	case KindInt, KindLong, KindFloat, KindBool, KindString:
		return v, true
	case KindDouble:
		return encode(v.f)
	case KindURL:
		return encode(v.u)
	case KindData:
		return encode(v.d)
	case KindOther:
		return encode(v.other)
	default:
		return Value{}, false
	}
}
