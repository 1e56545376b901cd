package archive

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind identifies which member of the scalar union a Value holds
type Kind int

const (
	// KindNull is an SQL NULL
	KindNull Kind = iota
	// KindBool is a boolean
	KindBool
	// KindNumber is a numeric value kept as raw decimal text (full precision)
	KindNumber
	// KindString is a text value
	KindString
	// KindTime is a timestamp
	KindTime
)

// String returns the kind name for error messages
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
	case KindTime:
		return "time"
	default:
		return "unknown"
	}
}

// Value is the tagged scalar union a record cell may hold:
// null | bool | number | string | timestamp. Anything outside the union is
// rejected where it enters the subsystem, never silently stringified.
type Value struct {
	kind Kind
	b    bool
	num  string
	str  string
	t    time.Time
}

// Null returns the NULL value
func Null() Value {
	return Value{kind: KindNull}
}

// Bool returns a boolean value
func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// Int returns a numeric value from an integer
func Int(i int64) Value {
	return Value{kind: KindNumber, num: strconv.FormatInt(i, 10)}
}

// Float returns a numeric value from a float, keeping full precision
func Float(f float64) Value {
	return Value{kind: KindNumber, num: strconv.FormatFloat(f, 'g', -1, 64)}
}

// NumberFromRaw returns a numeric value from raw decimal text, validating
// that the text is a well-formed number
func NumberFromRaw(raw string) (Value, error) {
	if _, err := strconv.ParseFloat(raw, 64); err != nil {
		if _, intErr := strconv.ParseInt(raw, 10, 64); intErr != nil {
			return Value{}, fmt.Errorf("invalid numeric literal %q", raw)
		}
	}
	return Value{kind: KindNumber, num: raw}, nil
}

// String returns a text value
func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// Time returns a timestamp value, normalized to UTC
func Time(t time.Time) Value {
	return Value{kind: KindTime, t: t.UTC()}
}

// FromAny converts a runtime value into a Value, rejecting anything outside
// the union. This is the single entry point for data coming from SQL drivers.
func FromAny(v interface{}) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(val), nil
	case int:
		return Int(int64(val)), nil
	case int32:
		return Int(int64(val)), nil
	case int64:
		return Int(val), nil
	case uint64:
		return Value{kind: KindNumber, num: strconv.FormatUint(val, 10)}, nil
	case float32:
		return Float(float64(val)), nil
	case float64:
		return Float(val), nil
	case string:
		return String(val), nil
	case []byte:
		return String(string(val)), nil
	case time.Time:
		return Time(val), nil
	default:
		return Value{}, fmt.Errorf("unsupported value type %T", v)
	}
}

// Kind returns which member of the union the value holds
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull reports whether the value is NULL
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// BoolVal returns the boolean member
func (v Value) BoolVal() bool {
	return v.b
}

// NumberRaw returns the raw decimal text of the numeric member
func (v Value) NumberRaw() string {
	return v.num
}

// StringVal returns the text member
func (v Value) StringVal() string {
	return v.str
}

// TimeVal returns the timestamp member
func (v Value) TimeVal() time.Time {
	return v.t
}

// MarshalJSON serializes the value as its natural JSON scalar. Timestamps
// are written as RFC 3339 strings in UTC.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		if v.b {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case KindNumber:
		return []byte(v.num), nil
	case KindString:
		return quoteJSON(v.str), nil
	case KindTime:
		return quoteJSON(v.t.UTC().Format(time.RFC3339)), nil
	default:
		return nil, fmt.Errorf("cannot marshal value of kind %s", v.kind)
	}
}

// UnmarshalJSON parses a JSON scalar into the union. Strings in RFC 3339
// form are promoted back to timestamps so a load/save round trip preserves
// the kind. Objects and arrays are rejected.
func (v *Value) UnmarshalJSON(data []byte) error {
	text := strings.TrimSpace(string(data))
	if text == "" {
		return fmt.Errorf("empty value literal")
	}

	switch text[0] {
	case 'n':
		if text != "null" {
			return fmt.Errorf("invalid literal %q", text)
		}
		*v = Null()
		return nil
	case 't', 'f':
		b, err := strconv.ParseBool(text)
		if err != nil {
			return fmt.Errorf("invalid literal %q", text)
		}
		*v = Bool(b)
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("invalid string literal: %w", err)
		}
		if t, timeErr := time.Parse(time.RFC3339, s); timeErr == nil {
			*v = Time(t)
			return nil
		}
		*v = String(s)
		return nil
	case '{', '[':
		return fmt.Errorf("non-scalar value is not allowed in a record")
	default:
		parsed, err := NumberFromRaw(text)
		if err != nil {
			return err
		}
		*v = parsed
		return nil
	}
}

func quoteJSON(s string) []byte {
	// Strings cannot fail to marshal.
	data, _ := json.Marshal(s)
	return data
}

// Record is one row of a table snapshot: column name to scalar value
type Record map[string]Value
