// Package value defines the typed values decoded from compact graph replies.
//
// Value is a closed sum type: every decoded reply element is exactly one of
// Null, String, Int64, Boolean, Double, Array, Map, *Node, *Edge, *Path,
// Point, Vector or Unknown. Unknown carries payloads whose type tag this
// client does not recognise, so newer servers never break decoding.
//
// Example:
//
//	switch v := rec.Get(0).(type) {
//	case value.Int64:
//		fmt.Println("count", int64(v))
//	case *value.Node:
//		fmt.Println(v.Labels(), v.Properties.Get("name"))
//	case value.Null:
//		fmt.Println("missing")
//	}
package value

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies a Value variant.
type Kind int

const (
	KindUnknown Kind = iota
	KindNull
	KindString
	KindInt64
	KindBoolean
	KindDouble
	KindArray
	KindEdge
	KindNode
	KindPath
	KindMap
	KindPoint
	KindVector
)

var kindNames = [...]string{
	KindUnknown: "unknown",
	KindNull:    "null",
	KindString:  "string",
	KindInt64:   "int64",
	KindBoolean: "boolean",
	KindDouble:  "double",
	KindArray:   "array",
	KindEdge:    "edge",
	KindNode:    "node",
	KindPath:    "path",
	KindMap:     "map",
	KindPoint:   "point",
	KindVector:  "vector",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is implemented only by the types of this package.
type Value interface {
	Kind() Kind
	isValue()
}

// Null is the absent value. OPTIONAL MATCH misses decode to Null.
type Null struct{}

// String is a text value.
type String string

// Int64 is a 64-bit signed integer.
type Int64 int64

// Boolean is a boolean value.
type Boolean bool

// Double is a 64-bit float.
type Double float64

// Array is an ordered list of values.
type Array []Value

// Map is a string keyed map of values.
type Map map[string]Value

// Unknown holds the raw payload of an unrecognised type tag.
type Unknown struct {
	Tag     int64
	Payload any
}

func (Null) Kind() Kind    { return KindNull }
func (String) Kind() Kind  { return KindString }
func (Int64) Kind() Kind   { return KindInt64 }
func (Boolean) Kind() Kind { return KindBoolean }
func (Double) Kind() Kind  { return KindDouble }
func (Array) Kind() Kind   { return KindArray }
func (Map) Kind() Kind     { return KindMap }
func (Unknown) Kind() Kind { return KindUnknown }
func (*Node) Kind() Kind   { return KindNode }
func (*Edge) Kind() Kind   { return KindEdge }
func (*Path) Kind() Kind   { return KindPath }
func (Point) Kind() Kind   { return KindPoint }
func (Vector) Kind() Kind  { return KindVector }

func (Null) isValue()    {}
func (String) isValue()  {}
func (Int64) isValue()   {}
func (Boolean) isValue() {}
func (Double) isValue()  {}
func (Array) isValue()   {}
func (Map) isValue()     {}
func (Unknown) isValue() {}
func (*Node) isValue()   {}
func (*Edge) isValue()   {}
func (*Path) isValue()   {}
func (Point) isValue()   {}
func (Vector) isValue()  {}

func (Null) String() string { return "null" }

func (u Unknown) String() string {
	return fmt.Sprintf("Unknown{tag=%d, payload=%v}", u.Tag, u.Payload)
}

// IsNull reports whether v is nil or Null.
func IsNull(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Null)
	return ok
}

// Native converts v into plain Go values: nil, string, int64, bool, float64,
// []any, map[string]any. Graph entities, points and vectors are returned as-is.
func Native(v Value) any {
	switch val := v.(type) {
	case nil, Null:
		return nil
	case String:
		return string(val)
	case Int64:
		return int64(val)
	case Boolean:
		return bool(val)
	case Double:
		return float64(val)
	case Array:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Native(item)
		}
		return out
	case Map:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = Native(item)
		}
		return out
	case Unknown:
		return val.Payload
	default:
		return val
	}
}

// Format renders v the way the CLI prints cells.
func Format(v Value) string {
	switch val := v.(type) {
	case nil, Null:
		return "null"
	case String:
		return string(val)
	case Int64:
		return strconv.FormatInt(int64(val), 10)
	case Boolean:
		return strconv.FormatBool(bool(val))
	case Double:
		return strconv.FormatFloat(float64(val), 'g', -1, 64)
	case Array:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = Format(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case Map:
		keys := sortedKeys(val)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + Format(val[k])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
