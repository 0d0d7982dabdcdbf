package superq

import (
	"fmt"
	"strconv"
)

// Kind discriminates the three atom/scalar/name value types the system
// understands: str, int, float.
type Kind int

const (
	// KindNone marks "no scalar value" — used for the valueType of a
	// structured (non-scalar) element.
	KindNone Kind = iota
	KindStr
	KindInt
	KindFloat
)

func (k Kind) String() string {
	switch k {
	case KindStr:
		return "str"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	default:
		return ""
	}
}

func kindFromString(s string) (Kind, error) {
	switch s {
	case "str":
		return KindStr, nil
	case "int":
		return KindInt, nil
	case "float":
		return KindFloat, nil
	case "":
		return KindNone, nil
	default:
		return KindNone, &TypeError{Msg: "unsupported atom type (" + s + ")"}
	}
}

// Value is a tagged union over the three supported atom/name/scalar types.
// It exists so that an element's name or scalar value — which the
// specification allows to be str, int, or float — can be held and compared
// without resorting to an untyped interface{} everywhere.
type Value struct {
	Kind  Kind
	Str   string
	Int   int64
	Float float64
}

// StrValue builds a string-typed Value.
func StrValue(s string) Value { return Value{Kind: KindStr, Str: s} }

// IntValue builds an int-typed Value.
func IntValue(i int64) Value { return Value{Kind: KindInt, Int: i} }

// FloatValue builds a float-typed Value.
func FloatValue(f float64) Value { return Value{Kind: KindFloat, Float: f} }

// Any unwraps the Value to a plain Go value (string, int64, or float64),
// or nil if Kind is KindNone.
func (v Value) Any() any {
	switch v.Kind {
	case KindStr:
		return v.Str
	case KindInt:
		return v.Int
	case KindFloat:
		return v.Float
	default:
		return nil
	}
}

// String renders the value the way the wire format expects: the bare
// textual form, with no quoting.
func (v Value) String() string {
	switch v.Kind {
	case KindStr:
		return v.Str
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	default:
		return ""
	}
}

// sqlLiteral renders the value as a SQL literal suitable for inlining into
// a statement sent to the embedded engine (strings single-quoted).
func (v Value) sqlLiteral() string {
	switch v.Kind {
	case KindStr:
		return "'" + v.Str + "'"
	default:
		return v.String()
	}
}

// sqlType names the column type the embedded engine should use to store
// values of this kind.
func (k Kind) sqlType() string {
	switch k {
	case KindStr:
		return "TEXT"
	case KindInt:
		return "INTEGER"
	case KindFloat:
		return "REAL"
	default:
		return "TEXT"
	}
}

// valueFromString parses raw into a Value of the given kind.
func valueFromString(kind Kind, raw string) (Value, error) {
	switch kind {
	case KindStr:
		return StrValue(raw), nil
	case KindInt:
		i, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("superq: parse int value %q: %w", raw, err)
		}
		return IntValue(i), nil
	case KindFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Value{}, fmt.Errorf("superq: parse float value %q: %w", raw, err)
		}
		return FloatValue(f), nil
	case KindNone:
		return Value{}, nil
	default:
		return Value{}, &TypeError{Msg: "unsupported kind"}
	}
}
