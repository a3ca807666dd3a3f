package reply

import (
	"fmt"
	"strconv"

	"github.com/gomodule/redigo/redis"
)

func describe(v any) string {
	switch x := v.(type) {
	case nil:
		return "nil"
	case []any:
		return fmt.Sprintf("array of %d", len(x))
	default:
		return fmt.Sprintf("%T", v)
	}
}

// serverError reports an error element found where data was expected. The
// server failed the query; the reply itself is not malformed.
func serverError(v any) error {
	if e, ok := v.(redis.Error); ok {
		return ClassifyError(e)
	}
	return nil
}

func asArray(v any) ([]any, error) {
	arr, ok := v.([]any)
	if !ok {
		if err := serverError(v); err != nil {
			return nil, err
		}
		return nil, malformed("expected array, got %s", describe(v))
	}
	return arr, nil
}

func asInt64(v any) (int64, error) {
	n, ok := v.(int64)
	if !ok {
		if err := serverError(v); err != nil {
			return 0, err
		}
		return 0, malformed("expected integer, got %s", describe(v))
	}
	return n, nil
}

func asString(v any) (string, error) {
	switch s := v.(type) {
	case []byte:
		return string(s), nil
	case string:
		return s, nil
	case redis.Error:
		return "", ClassifyError(s)
	}
	return "", malformed("expected string, got %s", describe(v))
}

// asBool accepts exactly "true" or "false".
func asBool(v any) (bool, error) {
	s, err := asString(v)
	if err != nil {
		return false, err
	}
	switch s {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, malformed("invalid boolean %q", s)
}

// asFloat64 accepts a native double or its text form. Integers are not
// widened.
func asFloat64(v any) (float64, error) {
	switch f := v.(type) {
	case float64:
		return f, nil
	case []byte, string:
		s, _ := asString(f)
		x, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, malformed("invalid double %q", s)
		}
		return x, nil
	case redis.Error:
		return 0, ClassifyError(f)
	}
	return 0, malformed("expected double, got %s", describe(v))
}

// asNumber is asFloat64 that also accepts integers, for point and vector
// components.
func asNumber(v any) (float64, error) {
	if n, ok := v.(int64); ok {
		return float64(n), nil
	}
	return asFloat64(v)
}
