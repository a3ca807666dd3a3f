// Package cypher renders host values as Cypher literal text and builds the
// query strings the client sends: the parameter prelude, procedure calls and
// index statements.
//
// Parameters travel inline. A query with params is prefixed with
//
//	CYPHER name1=literal1 name2=literal2 <query>
//
// and the server binds $name1 and $name2 from the prelude. Encoding happens
// before anything is sent, so an unsupported value never reaches the network.
package cypher

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/orneryd/falkorgraph/pkg/value"
)

// Encoder error types
var (
	ErrUnsupportedType   = errors.New("unsupported parameter type")
	ErrInvalidIdentifier = errors.New("invalid identifier")
	ErrNonFinite         = errors.New("non-finite float")
	ErrOutOfRange        = errors.New("integer out of int64 range")
)

// EncodingError reports a parameter value that cannot be rendered. Path
// locates the value inside the parameter, e.g. "param.tags[2]".
type EncodingError struct {
	Path  string
	Value any
	Err   error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("cannot encode %s (%T): %v", e.Path, e.Value, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// IsIdentifier reports whether s can be used unquoted as a parameter name or
// map key.
func IsIdentifier(s string) bool {
	return identPattern.MatchString(s)
}

// EncodeValue renders v as a Cypher literal.
func EncodeValue(v any) (string, error) {
	var sb strings.Builder
	if err := encode(&sb, "param", v); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// EncodeParams renders the prelude assignments "a=1 b='x'" with names sorted.
// An empty map yields the empty string.
func EncodeParams(params map[string]any) (string, error) {
	if len(params) == 0 {
		return "", nil
	}
	names := make([]string, 0, len(params))
	for name := range params {
		if !IsIdentifier(name) {
			return "", &EncodingError{Path: "param " + strconv.Quote(name), Value: name, Err: ErrInvalidIdentifier}
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	for i, name := range names {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(name)
		sb.WriteByte('=')
		if err := encode(&sb, name, params[name]); err != nil {
			return "", err
		}
	}
	return sb.String(), nil
}

// PrepareQuery prefixes query with the parameter prelude. Without params the
// query is returned unchanged.
func PrepareQuery(query string, params map[string]any) (string, error) {
	if len(params) == 0 {
		return query, nil
	}
	prelude, err := EncodeParams(params)
	if err != nil {
		return "", err
	}
	return "CYPHER " + prelude + " " + query, nil
}

// QuoteString renders s as a single-quoted string literal. Backslashes are
// escaped first so the quote escapes stay unambiguous.
func QuoteString(s string) string {
	var sb strings.Builder
	writeString(&sb, s)
	return sb.String()
}

func writeString(sb *strings.Builder, s string) {
	sb.Grow(len(s) + 2)
	sb.WriteByte('\'')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\', '\'', '"':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte('\'')
}

func writeFloat(sb *strings.Builder, path string, orig any, f float64, bits int) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return &EncodingError{Path: path, Value: orig, Err: ErrNonFinite}
	}
	s := strconv.FormatFloat(f, 'f', -1, bits)
	sb.WriteString(s)
	// Keep whole floats typed as doubles.
	if !strings.ContainsRune(s, '.') {
		sb.WriteString(".0")
	}
	return nil
}

func encode(sb *strings.Builder, path string, v any) error {
	if v == nil {
		sb.WriteString("null")
		return nil
	}

	switch val := v.(type) {
	case string:
		writeString(sb, val)
		return nil
	case []byte:
		writeString(sb, string(val))
		return nil
	case bool:
		sb.WriteString(strconv.FormatBool(val))
		return nil
	case int:
		sb.WriteString(strconv.FormatInt(int64(val), 10))
		return nil
	case int8:
		sb.WriteString(strconv.FormatInt(int64(val), 10))
		return nil
	case int16:
		sb.WriteString(strconv.FormatInt(int64(val), 10))
		return nil
	case int32:
		sb.WriteString(strconv.FormatInt(int64(val), 10))
		return nil
	case int64:
		sb.WriteString(strconv.FormatInt(val, 10))
		return nil
	case uint:
		return writeUint(sb, path, v, uint64(val))
	case uint8:
		sb.WriteString(strconv.FormatUint(uint64(val), 10))
		return nil
	case uint16:
		sb.WriteString(strconv.FormatUint(uint64(val), 10))
		return nil
	case uint32:
		sb.WriteString(strconv.FormatUint(uint64(val), 10))
		return nil
	case uint64:
		return writeUint(sb, path, v, val)
	case float32:
		return writeFloat(sb, path, v, float64(val), 32)
	case float64:
		return writeFloat(sb, path, v, val, 64)
	case value.Value:
		return encodeGraphValue(sb, path, val)
	}

	return encodeReflect(sb, path, reflect.ValueOf(v))
}

func writeUint(sb *strings.Builder, path string, orig any, u uint64) error {
	if u > math.MaxInt64 {
		return &EncodingError{Path: path, Value: orig, Err: ErrOutOfRange}
	}
	sb.WriteString(strconv.FormatUint(u, 10))
	return nil
}

// encodeGraphValue renders values decoded from a previous result so they can
// be sent back as parameters.
func encodeGraphValue(sb *strings.Builder, path string, v value.Value) error {
	switch val := v.(type) {
	case value.Null:
		sb.WriteString("null")
		return nil
	case value.String:
		writeString(sb, string(val))
		return nil
	case value.Int64:
		sb.WriteString(strconv.FormatInt(int64(val), 10))
		return nil
	case value.Boolean:
		sb.WriteString(strconv.FormatBool(bool(val)))
		return nil
	case value.Double:
		return writeFloat(sb, path, v, float64(val), 64)
	case value.Array:
		sb.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				sb.WriteString(", ")
			}
			if err := encode(sb, path+"["+strconv.Itoa(i)+"]", item); err != nil {
				return err
			}
		}
		sb.WriteByte(']')
		return nil
	case value.Map:
		m := make(map[string]any, len(val))
		for k, item := range val {
			m[k] = item
		}
		return encodeReflect(sb, path, reflect.ValueOf(m))
	case value.Point:
		sb.WriteString("point({latitude: ")
		if err := writeFloat(sb, path+".latitude", v, val.X, 64); err != nil {
			return err
		}
		sb.WriteString(", longitude: ")
		if err := writeFloat(sb, path+".longitude", v, val.Y, 64); err != nil {
			return err
		}
		sb.WriteString("})")
		return nil
	case value.Vector:
		sb.WriteString("vecf32([")
		for i, f := range val {
			if i > 0 {
				sb.WriteString(", ")
			}
			if err := writeFloat(sb, path+"["+strconv.Itoa(i)+"]", v, f, 64); err != nil {
				return err
			}
		}
		sb.WriteString("])")
		return nil
	}
	return &EncodingError{Path: path, Value: v, Err: ErrUnsupportedType}
}

func encodeReflect(sb *strings.Builder, path string, rv reflect.Value) error {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			sb.WriteString("null")
			return nil
		}
		return encode(sb, path, rv.Elem().Interface())

	case reflect.Slice:
		if rv.IsNil() {
			sb.WriteString("null")
			return nil
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			writeString(sb, string(rv.Bytes()))
			return nil
		}
		return encodeList(sb, path, rv)

	case reflect.Array:
		return encodeList(sb, path, rv)

	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return &EncodingError{Path: path, Value: rv.Interface(), Err: fmt.Errorf("%w: map key %s", ErrUnsupportedType, rv.Type().Key())}
		}
		if rv.IsNil() {
			sb.WriteString("null")
			return nil
		}
		keys := make([]string, 0, rv.Len())
		byName := make(map[string]reflect.Value, rv.Len())
		for _, k := range rv.MapKeys() {
			name := k.String()
			if !IsIdentifier(name) {
				return &EncodingError{Path: path + "." + name, Value: name, Err: ErrInvalidIdentifier}
			}
			keys = append(keys, name)
			byName[name] = k
		}
		sort.Strings(keys)
		sb.WriteByte('{')
		for i, name := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(name)
			sb.WriteString(": ")
			if err := encode(sb, path+"."+name, rv.MapIndex(byName[name]).Interface()); err != nil {
				return err
			}
		}
		sb.WriteByte('}')
		return nil

	case reflect.String:
		writeString(sb, rv.String())
		return nil
	case reflect.Bool:
		sb.WriteString(strconv.FormatBool(rv.Bool()))
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		sb.WriteString(strconv.FormatInt(rv.Int(), 10))
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return writeUint(sb, path, rv.Interface(), rv.Uint())
	case reflect.Float32:
		return writeFloat(sb, path, rv.Interface(), rv.Float(), 32)
	case reflect.Float64:
		return writeFloat(sb, path, rv.Interface(), rv.Float(), 64)
	}

	var orig any
	if rv.IsValid() && rv.CanInterface() {
		orig = rv.Interface()
	}
	return &EncodingError{Path: path, Value: orig, Err: ErrUnsupportedType}
}

func encodeList(sb *strings.Builder, path string, rv reflect.Value) error {
	sb.WriteByte('[')
	for i := 0; i < rv.Len(); i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		if err := encode(sb, path+"["+strconv.Itoa(i)+"]", rv.Index(i).Interface()); err != nil {
			return err
		}
	}
	sb.WriteByte(']')
	return nil
}
