package falkordb

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/orneryd/falkorgraph/pkg/reply"
	"github.com/orneryd/falkorgraph/pkg/value"
)

// Record is one result row. Columns are addressed by position or by the
// exact header text, e.g. "a.age".
type Record struct {
	header reply.Header
	values []value.Value
}

// NewRecord builds a record; mostly useful in tests.
func NewRecord(header reply.Header, values []value.Value) *Record {
	return &Record{header: header, values: values}
}

// Keys returns the column names.
func (r *Record) Keys() []string { return r.header.Names() }

// Values returns a copy of the row.
func (r *Record) Values() []value.Value {
	out := make([]value.Value, len(r.values))
	copy(out, r.values)
	return out
}

// Size returns the number of columns.
func (r *Record) Size() int { return len(r.values) }

// Get returns column i.
func (r *Record) Get(i int) (value.Value, error) {
	if i < 0 || i >= len(r.values) {
		return nil, fmt.Errorf("%w: index %d of %d", ErrColumnNotFound, i, len(r.values))
	}
	return r.values[i], nil
}

// GetByName returns the column named name.
func (r *Record) GetByName(name string) (value.Value, error) {
	i, ok := r.header.Index(name)
	if !ok || i >= len(r.values) {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	return r.values[i], nil
}

// IsNull reports whether the column is null. A missing column counts as
// null.
func (r *Record) IsNull(name string) bool {
	v, err := r.GetByName(name)
	return err != nil || value.IsNull(v)
}

func getAs[T value.Value](r *Record, name string) (T, error) {
	var zero T
	v, err := r.GetByName(name)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: column %q is %s", ErrTypeMismatch, name, kindOf(v))
	}
	return t, nil
}

func (r *Record) GetString(name string) (string, error) {
	s, err := getAs[value.String](r, name)
	return string(s), err
}

func (r *Record) GetInt64(name string) (int64, error) {
	n, err := getAs[value.Int64](r, name)
	return int64(n), err
}

// GetFloat64 also accepts integer columns.
func (r *Record) GetFloat64(name string) (float64, error) {
	v, err := r.GetByName(name)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case value.Double:
		return float64(n), nil
	case value.Int64:
		return float64(n), nil
	}
	return 0, fmt.Errorf("%w: column %q is %s", ErrTypeMismatch, name, kindOf(v))
}

func (r *Record) GetBool(name string) (bool, error) {
	b, err := getAs[value.Boolean](r, name)
	return bool(b), err
}

func (r *Record) GetNode(name string) (*value.Node, error) {
	return getAs[*value.Node](r, name)
}

func (r *Record) GetEdge(name string) (*value.Edge, error) {
	return getAs[*value.Edge](r, name)
}

func (r *Record) GetPath(name string) (*value.Path, error) {
	return getAs[*value.Path](r, name)
}

func (r *Record) GetMap(name string) (value.Map, error) {
	return getAs[value.Map](r, name)
}

func (r *Record) GetArray(name string) (value.Array, error) {
	return getAs[value.Array](r, name)
}

func (r *Record) GetPoint(name string) (value.Point, error) {
	return getAs[value.Point](r, name)
}

func (r *Record) GetVector(name string) (value.Vector, error) {
	return getAs[value.Vector](r, name)
}

// String renders the record as Record{name: value, ...}.
func (r *Record) String() string {
	var sb strings.Builder
	sb.WriteString("Record{")
	for i, v := range r.values {
		if i > 0 {
			sb.WriteString(", ")
		}
		if i < r.header.Len() {
			sb.WriteString(r.header.Name(i))
		} else {
			sb.WriteString(strconv.Itoa(i))
		}
		sb.WriteString(": ")
		sb.WriteString(value.Format(v))
	}
	sb.WriteByte('}')
	return sb.String()
}
