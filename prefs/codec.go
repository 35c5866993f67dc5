package prefs

import (
	"fmt"
	"strconv"
)

// EncodeText renders a storable value as a kind name plus payload text, the
// form the sqlite, redis and file engines persist.
func EncodeText(v Value) (kind string, text string, err error) {
	switch v.kind {
	case KindInt, KindLong:
		return v.kind.String(), strconv.FormatInt(v.i, 10), nil
	case KindFloat:
		return v.kind.String(), strconv.FormatFloat(v.f, 'g', -1, 32), nil
	case KindBool:
		return v.kind.String(), strconv.FormatBool(v.b), nil
	case KindString:
		return v.kind.String(), v.s, nil
	default:
		return "", "", fmt.Errorf("prefs: kind %s is not storable", v.kind)
	}
}

// DecodeText is the inverse of EncodeText.
func DecodeText(kind, text string) (Value, error) {
	k, err := ParseKind(kind)
	if err != nil {
		return Value{}, err
	}
	switch k {
	case KindInt:
		i, err := strconv.ParseInt(text, 10, 32)
		if err != nil {
			return Value{}, fmt.Errorf("prefs: decode int: %w", err)
		}
		return IntValue(int32(i)), nil
	case KindLong:
		i, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("prefs: decode long: %w", err)
		}
		return LongValue(i), nil
	case KindFloat:
		f, err := strconv.ParseFloat(text, 32)
		if err != nil {
			return Value{}, fmt.Errorf("prefs: decode float: %w", err)
		}
		return FloatValue(float32(f)), nil
	case KindBool:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return Value{}, fmt.Errorf("prefs: decode bool: %w", err)
		}
		return BoolValue(b), nil
	case KindString:
		return StringValue(text), nil
	default:
		return Value{}, fmt.Errorf("prefs: kind %s is not storable", k)
	}
}
