package value

import (
	"strconv"
	"strings"
)

// Properties is an insertion-ordered property map. Setting an existing name
// overwrites the value and keeps its position.
type Properties struct {
	names  []string
	values map[string]Value
}

// Set adds or overwrites a property.
func (p *Properties) Set(name string, v Value) {
	if p.values == nil {
		p.values = make(map[string]Value)
	}
	if _, exists := p.values[name]; !exists {
		p.names = append(p.names, name)
	}
	if v == nil {
		v = Null{}
	}
	p.values[name] = v
}

// Get returns the property value and whether it exists.
func (p *Properties) Get(name string) (Value, bool) {
	v, ok := p.values[name]
	return v, ok
}

// Delete removes a property. It reports whether the property existed.
func (p *Properties) Delete(name string) bool {
	if _, ok := p.values[name]; !ok {
		return false
	}
	delete(p.values, name)
	for i, n := range p.names {
		if n == name {
			p.names = append(p.names[:i:i], p.names[i+1:]...)
			break
		}
	}
	return true
}

// Len returns the number of properties.
func (p *Properties) Len() int { return len(p.names) }

// Names returns the property names in insertion order.
func (p *Properties) Names() []string {
	out := make([]string, len(p.names))
	copy(out, p.names)
	return out
}

// Range calls fn for each property in insertion order until fn returns false.
func (p *Properties) Range(fn func(name string, v Value) bool) {
	for _, name := range p.names {
		if !fn(name, p.values[name]) {
			return
		}
	}
}

// Map returns the properties as a Map.
func (p *Properties) Map() Map {
	out := make(Map, len(p.names))
	for _, name := range p.names {
		out[name] = p.values[name]
	}
	return out
}

// Equal compares two property maps by name, ignoring insertion order.
func (p *Properties) Equal(o *Properties) bool {
	if p.Len() != o.Len() {
		return false
	}
	for name, v := range p.values {
		ov, ok := o.values[name]
		if !ok || !Equal(v, ov) {
			return false
		}
	}
	return true
}

func (p *Properties) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, name := range p.names {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(name)
		sb.WriteString(": ")
		sb.WriteString(Format(p.values[name]))
	}
	sb.WriteByte('}')
	return sb.String()
}

// Node is a graph node. ID is assigned by the server and may be reused
// after the node is deleted; it is only meaningful within one result.
type Node struct {
	ID         int64
	labels     []string
	Properties Properties
}

// NewNode creates a node with the given id and labels.
func NewNode(id int64, labels ...string) *Node {
	n := &Node{ID: id}
	for _, l := range labels {
		n.AddLabel(l)
	}
	return n
}

// AddLabel adds a label. Adding an existing label is a no-op.
func (n *Node) AddLabel(label string) {
	if n.HasLabel(label) {
		return
	}
	n.labels = append(n.labels, label)
}

// RemoveLabel removes a label and reports whether it was present.
func (n *Node) RemoveLabel(label string) bool {
	for i, l := range n.labels {
		if l == label {
			n.labels = append(n.labels[:i:i], n.labels[i+1:]...)
			return true
		}
	}
	return false
}

// HasLabel reports whether the node carries label.
func (n *Node) HasLabel(label string) bool {
	for _, l := range n.labels {
		if l == label {
			return true
		}
	}
	return false
}

// Labels returns the labels in the order they were added.
func (n *Node) Labels() []string {
	out := make([]string, len(n.labels))
	copy(out, n.labels)
	return out
}

// SetProperty is shorthand for n.Properties.Set.
func (n *Node) SetProperty(name string, v Value) *Node {
	n.Properties.Set(name, v)
	return n
}

// Equal compares id, label set and properties.
func (n *Node) Equal(o *Node) bool {
	if n == nil || o == nil {
		return n == o
	}
	if n.ID != o.ID || len(n.labels) != len(o.labels) {
		return false
	}
	for _, l := range n.labels {
		if !o.HasLabel(l) {
			return false
		}
	}
	return n.Properties.Equal(&o.Properties)
}

func (n *Node) String() string {
	return "Node{labels=[" + strings.Join(n.labels, ", ") + "], id=" +
		strconv.FormatInt(n.ID, 10) + ", properties=" + n.Properties.String() + "}"
}

// Edge is a relationship between two nodes of the same result.
type Edge struct {
	ID          int64
	Type        string
	Source      int64
	Destination int64
	Properties  Properties
}

// NewEdge creates an edge.
func NewEdge(id int64, relType string, src, dst int64) *Edge {
	return &Edge{ID: id, Type: relType, Source: src, Destination: dst}
}

// SetProperty is shorthand for e.Properties.Set.
func (e *Edge) SetProperty(name string, v Value) *Edge {
	e.Properties.Set(name, v)
	return e
}

// Equal compares id, type, endpoints and properties.
func (e *Edge) Equal(o *Edge) bool {
	if e == nil || o == nil {
		return e == o
	}
	return e.ID == o.ID &&
		e.Type == o.Type &&
		e.Source == o.Source &&
		e.Destination == o.Destination &&
		e.Properties.Equal(&o.Properties)
}

func (e *Edge) String() string {
	return "Edge{relationshipType='" + e.Type + "', source=" + strconv.FormatInt(e.Source, 10) +
		", destination=" + strconv.FormatInt(e.Destination, 10) + ", id=" +
		strconv.FormatInt(e.ID, 10) + ", properties=" + e.Properties.String() + "}"
}
