package falkordb

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/orneryd/falkorgraph/pkg/reply"
	"github.com/orneryd/falkorgraph/pkg/value"
)

// TypedResult holds rows decoded into T.
type TypedResult[T any] struct {
	Columns []string
	Rows    []T
	Stats   reply.Statistics
}

// TypedQuery runs query on g and decodes every row into T.
//
// A struct T is filled by column name: the `falkor` tag wins, then the `json`
// tag, then the lower-cased field name. Columns written as "n.title" match
// "title". A single node, edge or map column is decoded field by field from
// its properties. A single column result may also decode straight into a
// scalar T.
//
//	type person struct {
//		Name string `falkor:"name"`
//		Age  int
//	}
//	res, err := falkordb.TypedQuery[person](ctx, g, "MATCH (p:Person) RETURN p", nil)
func TypedQuery[T any](ctx context.Context, g *Graph, query string, params map[string]any, opts ...QueryOption) (*TypedResult[T], error) {
	rs, err := g.Query(ctx, query, params, opts...)
	if err != nil {
		return nil, err
	}
	return Decode[T](rs)
}

// Decode converts an already assembled result.
func Decode[T any](rs *ResultSet) (*TypedResult[T], error) {
	columns := rs.Header().Names()
	rows := make([]T, 0, rs.Len())
	for i, rec := range rs.Records() {
		var decoded T
		if err := decodeRow(columns, rec.values, &decoded); err != nil {
			return nil, fmt.Errorf("failed to decode row %d: %w", i, err)
		}
		rows = append(rows, decoded)
	}
	return &TypedResult[T]{
		Columns: columns,
		Rows:    rows,
		Stats:   rs.Statistics(),
	}, nil
}

// First returns the first row, reporting false when there is none.
func (r *TypedResult[T]) First() (T, bool) {
	if len(r.Rows) == 0 {
		var zero T
		return zero, false
	}
	return r.Rows[0], true
}

func (r *TypedResult[T]) IsEmpty() bool { return len(r.Rows) == 0 }

func (r *TypedResult[T]) Count() int { return len(r.Rows) }

var (
	timeType  = reflect.TypeOf(time.Time{})
	valueType = reflect.TypeOf((*value.Value)(nil)).Elem()
)

func decodeRow(columns []string, values []value.Value, dest any) error {
	destVal := reflect.ValueOf(dest)
	if destVal.Kind() != reflect.Pointer || destVal.IsNil() {
		return fmt.Errorf("dest must be a non-nil pointer")
	}
	destElem := destVal.Elem()

	if len(values) == 1 {
		// The destination may want the graph value itself.
		if ok, err := assignGraphValue(destElem, values[0]); ok || err != nil {
			return err
		}
		if destElem.Kind() != reflect.Struct || destElem.Type() == timeType {
			return assignValue(destElem, value.Native(values[0]))
		}
		if props := propertiesOf(values[0]); props != nil {
			return decodeMap(props, destElem)
		}
	}

	if destElem.Kind() == reflect.Struct {
		return decodeStruct(columns, values, destElem)
	}
	return fmt.Errorf("unsupported destination type: %v", destElem.Kind())
}

// propertiesOf flattens an entity or map into plain values keyed by name.
func propertiesOf(v value.Value) map[string]any {
	switch val := v.(type) {
	case *value.Node:
		m := nativeMap(val.Properties.Map())
		if _, ok := m["id"]; !ok {
			m["id"] = val.ID
		}
		return m
	case *value.Edge:
		m := nativeMap(val.Properties.Map())
		if _, ok := m["id"]; !ok {
			m["id"] = val.ID
		}
		return m
	case value.Map:
		return nativeMap(val)
	}
	return nil
}

func nativeMap(m value.Map) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = value.Native(v)
	}
	return out
}

func fieldName(f reflect.StructField) string {
	name := f.Tag.Get("falkor")
	if name == "" {
		name, _, _ = strings.Cut(f.Tag.Get("json"), ",")
	}
	if name == "" || name == "-" {
		name = strings.ToLower(f.Name)
	}
	return name
}

func decodeStruct(columns []string, values []value.Value, destElem reflect.Value) error {
	destType := destElem.Type()
	fields := make(map[string]int, destType.NumField())
	for i := 0; i < destType.NumField(); i++ {
		fields[strings.ToLower(fieldName(destType.Field(i)))] = i
	}

	for i, col := range columns {
		if i >= len(values) {
			break
		}
		name := col
		if idx := strings.LastIndex(col, "."); idx != -1 {
			name = col[idx+1:]
		}
		fieldIdx, ok := fields[strings.ToLower(name)]
		if !ok {
			continue
		}
		field := destElem.Field(fieldIdx)
		if !field.CanSet() {
			continue
		}
		if ok, err := assignGraphValue(field, values[i]); ok || err != nil {
			if err != nil {
				return fmt.Errorf("column %s: %w", col, err)
			}
			continue
		}
		if err := assignValue(field, value.Native(values[i])); err != nil {
			return fmt.Errorf("column %s: %w", col, err)
		}
	}
	return nil
}

func decodeMap(m map[string]any, destElem reflect.Value) error {
	destType := destElem.Type()
	for i := 0; i < destType.NumField(); i++ {
		f := destType.Field(i)
		fieldVal := destElem.Field(i)
		if !fieldVal.CanSet() {
			continue
		}
		name := fieldName(f)
		val, ok := m[name]
		if !ok {
			val, ok = m[f.Name]
		}
		if !ok {
			continue
		}
		if err := assignValue(fieldVal, val); err != nil {
			return fmt.Errorf("field %s: %w", name, err)
		}
	}
	return nil
}

// assignGraphValue handles destinations typed as value.Value or as one of its
// variants, reporting whether it assigned anything.
func assignGraphValue(field reflect.Value, v value.Value) (bool, error) {
	if v == nil {
		return false, nil
	}
	t := field.Type()
	if t == valueType {
		field.Set(reflect.ValueOf(&v).Elem())
		return true, nil
	}
	rv := reflect.ValueOf(v)
	if t.Kind() != reflect.Interface && rv.Type() == t {
		field.Set(rv)
		return true, nil
	}
	return false, nil
}

// wholeInt64 converts f when it is a whole number inside the int64 range.
func wholeInt64(f float64) (int64, bool) {
	if math.IsNaN(f) || math.Trunc(f) != f || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

func assignValue(field reflect.Value, val any) error {
	if val == nil {
		return nil
	}
	valReflect := reflect.ValueOf(val)

	if field.Type() == timeType {
		switch v := val.(type) {
		case string:
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				t, err = time.Parse(time.DateTime, v)
			}
			if err != nil {
				return fmt.Errorf("cannot parse time: %v", v)
			}
			field.Set(reflect.ValueOf(t))
			return nil
		case int64:
			field.Set(reflect.ValueOf(time.Unix(v, 0)))
			return nil
		}
	}

	if field.Kind() == reflect.Pointer {
		ptr := reflect.New(field.Type().Elem())
		if err := assignValue(ptr.Elem(), val); err != nil {
			return err
		}
		field.Set(ptr)
		return nil
	}

	if valReflect.Type().AssignableTo(field.Type()) {
		field.Set(valReflect)
		return nil
	}

	switch field.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		switch v := val.(type) {
		case int64:
			if field.OverflowInt(v) {
				return fmt.Errorf("%d overflows %v", v, field.Type())
			}
			field.SetInt(v)
			return nil
		case float64:
			n, ok := wholeInt64(v)
			if !ok || field.OverflowInt(n) {
				return fmt.Errorf("%v does not fit %v", v, field.Type())
			}
			field.SetInt(n)
			return nil
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if v, ok := val.(int64); ok && v >= 0 && !field.OverflowUint(uint64(v)) {
			field.SetUint(uint64(v))
			return nil
		}
	case reflect.Float32, reflect.Float64:
		switch v := val.(type) {
		case float64:
			if field.OverflowFloat(v) {
				return fmt.Errorf("%v does not fit %v", v, field.Type())
			}
			field.SetFloat(v)
			return nil
		case int64:
			field.SetFloat(float64(v))
			return nil
		}
	case reflect.String:
		if v, ok := val.(string); ok {
			field.SetString(v)
			return nil
		}
	case reflect.Bool:
		if v, ok := val.(bool); ok {
			field.SetBool(v)
			return nil
		}
	case reflect.Slice:
		var items reflect.Value
		switch v := val.(type) {
		case value.Vector:
			items = reflect.ValueOf([]float64(v))
		default:
			items = valReflect
		}
		if items.Kind() == reflect.Slice {
			out := reflect.MakeSlice(field.Type(), items.Len(), items.Len())
			for i := 0; i < items.Len(); i++ {
				if err := assignValue(out.Index(i), items.Index(i).Interface()); err != nil {
					return fmt.Errorf("[%d]: %w", i, err)
				}
			}
			field.Set(out)
			return nil
		}
	case reflect.Map:
		if m, ok := val.(map[string]any); ok && field.Type().Key().Kind() == reflect.String {
			out := reflect.MakeMapWithSize(field.Type(), len(m))
			for k, item := range m {
				elem := reflect.New(field.Type().Elem()).Elem()
				if err := assignValue(elem, item); err != nil {
					return fmt.Errorf("%s: %w", k, err)
				}
				out.SetMapIndex(reflect.ValueOf(k).Convert(field.Type().Key()), elem)
			}
			field.Set(out)
			return nil
		}
	}

	return fmt.Errorf("cannot assign %T to %v", val, field.Type())
}
