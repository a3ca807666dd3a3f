package value

import "sort"

// Equal reports whether a and b are equal under graph value semantics.
//
// Node labels compare as sets and property maps compare by name regardless
// of insertion order. A nil Value equals Null.
func Equal(a, b Value) bool {
	if IsNull(a) || IsNull(b) {
		return IsNull(a) && IsNull(b)
	}
	switch x := a.(type) {
	case String:
		y, ok := b.(String)
		return ok && x == y
	case Int64:
		y, ok := b.(Int64)
		return ok && x == y
	case Boolean:
		y, ok := b.(Boolean)
		return ok && x == y
	case Double:
		y, ok := b.(Double)
		return ok && x == y
	case Array:
		y, ok := b.(Array)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case Map:
		y, ok := b.(Map)
		if !ok || len(x) != len(y) {
			return false
		}
		for k, xv := range x {
			yv, ok := y[k]
			if !ok || !Equal(xv, yv) {
				return false
			}
		}
		return true
	case *Node:
		y, ok := b.(*Node)
		return ok && x.Equal(y)
	case *Edge:
		y, ok := b.(*Edge)
		return ok && x.Equal(y)
	case *Path:
		y, ok := b.(*Path)
		return ok && x.Equal(y)
	case Point:
		y, ok := b.(Point)
		return ok && x == y
	case Vector:
		y, ok := b.(Vector)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if x[i] != y[i] {
				return false
			}
		}
		return true
	case Unknown:
		y, ok := b.(Unknown)
		return ok && x.Tag == y.Tag && Format(x) == Format(y)
	}
	return false
}

func sortedKeys(m Map) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
