package reply

import (
	"strconv"
	"strings"
)

// ColumnType is the per-column type tag a compact header carries.
type ColumnType int

const (
	ColumnUnknown ColumnType = iota
	ColumnScalar
	ColumnNode
	ColumnRelation
)

func (c ColumnType) String() string {
	switch c {
	case ColumnUnknown:
		return "unknown"
	case ColumnScalar:
		return "scalar"
	case ColumnNode:
		return "node"
	case ColumnRelation:
		return "relation"
	}
	return "column(" + strconv.Itoa(int(c)) + ")"
}

// Header is the ordered list of result column names. Names are kept exactly
// as the server sent them, so a projected property reads "a.age".
type Header struct {
	names []string
	types []ColumnType
}

// NewHeader builds a header of scalar columns.
func NewHeader(names ...string) Header {
	types := make([]ColumnType, len(names))
	for i := range types {
		types[i] = ColumnScalar
	}
	return Header{names: names, types: types}
}

// ParseHeader reads the first element of a result reply. Compact entries are
// [columnType, name]; a bare name is accepted with an unknown column type.
func ParseHeader(raw any) (Header, error) {
	entries, ok := raw.([]any)
	if !ok {
		return Header{}, malformed("header: expected array, got %T", raw)
	}
	h := Header{
		names: make([]string, len(entries)),
		types: make([]ColumnType, len(entries)),
	}
	for i, entry := range entries {
		switch e := entry.(type) {
		case []any:
			if len(e) != 2 {
				return Header{}, withPath("header["+strconv.Itoa(i)+"]", malformed("expected [type, name], got %d elements", len(e)))
			}
			t, err := asInt64(e[0])
			if err != nil {
				return Header{}, withPath("header["+strconv.Itoa(i)+"]", err)
			}
			name, err := asString(e[1])
			if err != nil {
				return Header{}, withPath("header["+strconv.Itoa(i)+"]", err)
			}
			h.types[i], h.names[i] = ColumnType(t), name
		default:
			name, err := asString(e)
			if err != nil {
				return Header{}, withPath("header["+strconv.Itoa(i)+"]", err)
			}
			h.names[i] = name
		}
	}
	return h, nil
}

// Names returns a copy of the column names.
func (h Header) Names() []string {
	return append([]string(nil), h.names...)
}

// Types returns a copy of the column types.
func (h Header) Types() []ColumnType {
	return append([]ColumnType(nil), h.types...)
}

// Len returns the number of columns.
func (h Header) Len() int { return len(h.names) }

// Name returns column i's name.
func (h Header) Name(i int) string { return h.names[i] }

// Type returns column i's type.
func (h Header) Type(i int) ColumnType { return h.types[i] }

// Index returns the position of the first column called name.
func (h Header) Index(name string) (int, bool) {
	for i, n := range h.names {
		if n == name {
			return i, true
		}
	}
	return -1, false
}

// Equal compares column names in order.
func (h Header) Equal(o Header) bool {
	if len(h.names) != len(o.names) {
		return false
	}
	for i := range h.names {
		if h.names[i] != o.names[i] {
			return false
		}
	}
	return true
}

func (h Header) String() string {
	return "Header{schemaNames=[" + strings.Join(h.names, ", ") + "]}"
}
