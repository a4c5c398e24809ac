package accessor

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"math"
	"reflect"
	"strconv"
	"time"

	"github.com/Velocidex/ordereddict"
	"github.com/deppfellow/go-absl/internal/errs"
	"github.com/shopspring/decimal"
)

// ValueKind names the variant held by a Value.
type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindText
	KindInt
	KindFloat
	KindBool
	KindDecimal
	KindJSON
)

func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindText:
		return "text"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindDecimal:
		return "decimal"
	case KindJSON:
		return "json"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is a single bindable value. The zero Value is Null.
//
// Build one with Text, Int, Float, Bool, Decimal, JSON or Null, or
// convert dynamic input with ValueOf.
type Value struct {
	kind ValueKind
	s    string
	i    int64
	f    float64
	b    bool
	d    decimal.Decimal
	j    any
}

// Values is row data keyed by column name.
type Values map[string]Value

func Null() Value                     { return Value{} }
func Text(s string) Value             { return Value{kind: KindText, s: s} }
func Int(i int64) Value               { return Value{kind: KindInt, i: i} }
func Float(f float64) Value           { return Value{kind: KindFloat, f: f} }
func Bool(b bool) Value               { return Value{kind: KindBool, b: b} }
func Decimal(d decimal.Decimal) Value { return Value{kind: KindDecimal, d: d} }

// JSON wraps a structured value (map, slice, struct) that is stored as
// its JSON encoding.
func JSON(v any) Value { return Value{kind: KindJSON, j: v} }

// Kind reports the variant held by v.
func (v Value) Kind() ValueKind { return v.kind }

// IsEmpty reports whether v is Null or empty Text. Where-values must not be empty.
func (v Value) IsEmpty() bool {
	return v.kind == KindNull || (v.kind == KindText && v.s == "")
}

// String renders v for logs and error messages.
func (v Value) String() string {
	switch v.kind {
	case KindText:
		return v.s
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindDecimal:
		return v.d.String()
	case KindJSON:
		return fmt.Sprintf("%v", v.j)
	default:
		return "NULL"
	}
}

// bind converts v into the driver argument for its variant. Text is
// entity-encoded only when escapeHTML is set.
func (v Value) bind(op string, escapeHTML bool) (any, error) {
	switch v.kind {
	case KindNull:
		return nil, nil
	case KindText:
		if escapeHTML {
			return html.EscapeString(v.s), nil
		}
		return v.s, nil
	case KindInt:
		return v.i, nil
	case KindFloat:
		return v.f, nil
	case KindBool:
		return v.b, nil
	case KindDecimal:
		return v.d.String(), nil
	case KindJSON:
		data, err := json.Marshal(v.j)
		if err != nil {
			return nil, errs.Wrap(errs.KindSerialization, op, err, "could not encode structured value: "+err.Error())
		}
		return string(data), nil
	default:
		return nil, errs.New(errs.KindUnsupportedType, op, "no binding rule for %s", v.kind)
	}
}

// ValueOf converts dynamic input into a Value.
//
// Strings and []byte become Text, integer types Int, floats Float,
// time.Time RFC 3339 Text in UTC, decimal.Decimal Decimal, and maps,
// slices, arrays and structs JSON. A nil pointer is Null and a non-nil
// pointer is dereferenced. Channels, funcs, complex numbers and unsafe
// pointers fail with ErrUnsupportedType, as do uint64 values that do
// not fit in an int64.
func ValueOf(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case string:
		return Text(t), nil
	case []byte:
		return Text(string(t)), nil
	case bool:
		return Bool(t), nil
	case int:
		return Int(int64(t)), nil
	case int8:
		return Int(int64(t)), nil
	case int16:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case uint:
		return fromUint(uint64(t))
	case uint8:
		return Int(int64(t)), nil
	case uint16:
		return Int(int64(t)), nil
	case uint32:
		return Int(int64(t)), nil
	case uint64:
		return fromUint(t)
	case float32:
		return Float(float64(t)), nil
	case float64:
		return Float(t), nil
	case decimal.Decimal:
		return Decimal(t), nil
	case time.Time:
		return Text(t.UTC().Format(time.RFC3339Nano)), nil
	case json.RawMessage:
		return JSON(t), nil
	case *ordereddict.Dict:
		if t == nil {
			return Null(), nil
		}
		return JSON(t), nil
	}

	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return Null(), nil
		}
		return ValueOf(rv.Elem().Interface())
	case reflect.Map, reflect.Slice:
		if rv.IsNil() {
			return Null(), nil
		}
		return JSON(x), nil
	case reflect.Array, reflect.Struct:
		return JSON(x), nil
	case reflect.String:
		return Text(rv.String()), nil
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return fromUint(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return Float(rv.Float()), nil
	}
	return Null(), errs.New(errs.KindUnsupportedType, "accessor.value_of", "no binding rule for values of type %T", x)
}

func fromUint(u uint64) (Value, error) {
	if u > math.MaxInt64 {
		return Null(), errs.New(errs.KindUnsupportedType, "accessor.value_of", "unsigned value %d overflows int64", u)
	}
	return Int(int64(u)), nil
}

// ValuesOf converts a dynamic map into Values, failing on the first
// value with no binding rule.
func ValuesOf(m map[string]any) (Values, error) {
	return valuesOf(m, ValueOf)
}

func valuesOf(m map[string]any, convert func(any) (Value, error)) (Values, error) {
	const op = "accessor.values_of"
	out := make(Values, len(m))
	for k, raw := range m {
		v, err := convert(raw)
		if err != nil {
			var appErr *errs.Error
			if errors.As(err, &appErr) {
				appErr = appErr.WithOp(op)
			} else {
				appErr = errs.Wrap(errs.KindUnsupportedType, op, err, err.Error())
			}
			appErr.Fields = []errs.FieldError{{Field: k, Error: appErr.Message}}
			return nil, appErr
		}
		out[k] = v
	}
	return out, nil
}
