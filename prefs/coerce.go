package prefs

import (
	"encoding/base64"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// AsString coerces v to text. Numbers use their shortest decimal form and
// bools read "YES" or "NO".
func (v Value) AsString() (string, bool) {
	switch v.kind {
	case KindInt, KindLong:
		return strconv.FormatInt(v.i, 10), true
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 32), true
	case KindDouble:
		return strconv.FormatFloat(v.f, 'g', -1, 64), true
	case KindBool:
		if v.b {
			return "YES", true
		}
		return "NO", true
	case KindString:
		return v.s, true
	default:
		return "", false
	}
}

// AsDouble coerces v to a float64.
func (v Value) AsDouble() (float64, bool) {
	switch v.kind {
	case KindInt, KindLong:
		return float64(v.i), true
	case KindFloat, KindDouble:
		return v.f, true
	case KindBool:
		if v.b {
			return 1, true
		}
		return 0, true
	case KindString:
		f, err := strconv.ParseFloat(v.s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// AsInteger coerces v to an int. Floating point values truncate toward
// zero; NaN reads as 0 and infinities saturate.
func (v Value) AsInteger() (int, bool) {
	switch v.kind {
	case KindInt, KindLong:
		return int(v.i), true
	case KindFloat, KindDouble:
		return truncate(v.f), true
	case KindBool:
		if v.b {
			return 1, true
		}
		return 0, true
	case KindString:
		i, err := strconv.Atoi(v.s)
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

func truncate(f float64) int {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt:
		return math.MaxInt
	case f <= math.MinInt:
		return math.MinInt
	default:
		return int(f)
	}
}

// AsBool coerces v to a bool. Strings are true only for "true", "yes" or
// "1", case-insensitively; any other string reads false.
func (v Value) AsBool() (bool, bool) {
	switch v.kind {
	case KindInt, KindLong:
		return v.i != 0, true
	case KindFloat, KindDouble:
		return v.f != 0, true
	case KindBool:
		return v.b, true
	case KindString:
		switch strings.ToLower(v.s) {
		case "true", "yes", "1":
			return true, true
		default:
			return false, true
		}
	default:
		return false, false
	}
}

// AsURL coerces URL values and parseable, non-empty strings.
func (v Value) AsURL() (*url.URL, bool) {
	switch v.kind {
	case KindURL:
		return v.u, v.u != nil
	case KindString:
		if v.s == "" {
			return nil, false
		}
		u, err := url.Parse(v.s)
		if err != nil {
			return nil, false
		}
		return u, true
	default:
		return nil, false
	}
}

// AsData coerces Data values and standard base64 strings.
func (v Value) AsData() ([]byte, bool) {
	switch v.kind {
	case KindData:
		return v.Data(), true
	case KindString:
		b, err := base64.StdEncoding.DecodeString(v.s)
		if err != nil {
			return nil, false
		}
		return b, true
	default:
		return nil, false
	}
}

// AsTime coerces RFC 3339 strings, the form Store writes timestamps in, and
// registered time.Time values.
func (v Value) AsTime() (time.Time, bool) {
	switch v.kind {
	case KindString:
		t, err := time.Parse(time.RFC3339, v.s)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	case KindOther:
		t, ok := v.other.(time.Time)
		return t, ok
	default:
		return time.Time{}, false
	}
}
