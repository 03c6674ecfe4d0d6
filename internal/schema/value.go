package schema

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// ValueKind tags the representation held by a Value.
type ValueKind int

const (
	KindText ValueKind = iota
	KindInteger
	KindReal
	KindBool
	KindDateTime
	KindBinary
)

func (k ValueKind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindReal:
		return "real"
	case KindBool:
		return "boolean"
	case KindDateTime:
		return "datetime"
	case KindBinary:
		return "binary"
	default:
		return "text"
	}
}

// Value is a tagged variant holding one sampled column value. Conversion
// from raw driver values happens exactly once, at the ingestion boundary
// (ConvertValue); everything downstream works with the tagged form.
type Value struct {
	Kind  ValueKind
	Int   int64
	Real  float64
	Text  string
	Bool  bool
	Time  time.Time
	Bytes []byte
}

// datetimeLayouts are the textual timestamp encodings accepted when a
// column is declared DATE or DATETIME but the driver hands back a string.
var datetimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ConvertValue converts a raw database/sql value into a Value, guided by
// the field's inferred semantic type. Values that do not fit the declared
// type keep their natural representation rather than failing: profiling is
// best-effort and a surprising value is still worth displaying.
func ConvertValue(raw any, ft FieldType) Value {
	switch v := raw.(type) {
	case nil:
		return Value{Kind: KindText}
	case int64:
		if ft == TypeBoolean {
			return Value{Kind: KindBool, Bool: v != 0}
		}
		return Value{Kind: KindInteger, Int: v}
	case float64:
		return Value{Kind: KindReal, Real: v}
	case bool:
		return Value{Kind: KindBool, Bool: v}
	case time.Time:
		return Value{Kind: KindDateTime, Time: v}
	case []byte:
		return Value{Kind: KindBinary, Bytes: v}
	case string:
		if ft == TypeDateTime {
			for _, layout := range datetimeLayouts {
				if t, err := time.Parse(layout, v); err == nil {
					return Value{Kind: KindDateTime, Time: t}
				}
			}
		}
		return Value{Kind: KindText, Text: v}
	default:
		return Value{Kind: KindText, Text: fmt.Sprint(v)}
	}
}

// Display returns the value rendered for human consumption.
func (v Value) Display() string {
	switch v.Kind {
	case KindInteger:
		return strconv.FormatInt(v.Int, 10)
	case KindReal:
		return strconv.FormatFloat(v.Real, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindDateTime:
		return v.Time.Format(time.RFC3339)
	case KindBinary:
		if len(v.Bytes) > 16 {
			return fmt.Sprintf("0x%s… (%d bytes)", hex.EncodeToString(v.Bytes[:16]), len(v.Bytes))
		}
		return "0x" + hex.EncodeToString(v.Bytes)
	default:
		return v.Text
	}
}
