package value

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrPathOrder      = errors.New("path elements must alternate node, edge, node")
	ErrPathIncomplete = errors.New("path node count must be edge count + 1")
)

// Path is an alternating sequence node, edge, node, ..., edge, node.
type Path struct {
	nodes []*Node
	edges []*Edge
}

// NewPath validates the node/edge counts and returns a path.
// A path with no nodes and no edges is accepted as the empty path.
func NewPath(nodes []*Node, edges []*Edge) (*Path, error) {
	if len(nodes) == 0 && len(edges) == 0 {
		return &Path{}, nil
	}
	if len(nodes) != len(edges)+1 {
		return nil, fmt.Errorf("%w: %d nodes, %d edges", ErrPathIncomplete, len(nodes), len(edges))
	}
	for i, n := range nodes {
		if n == nil {
			return nil, fmt.Errorf("path node %d is nil", i)
		}
	}
	for i, e := range edges {
		if e == nil {
			return nil, fmt.Errorf("path edge %d is nil", i)
		}
	}
	return &Path{nodes: nodes, edges: edges}, nil
}

// Nodes returns the path nodes in order.
func (p *Path) Nodes() []*Node {
	out := make([]*Node, len(p.nodes))
	copy(out, p.nodes)
	return out
}

// Edges returns the path edges in order.
func (p *Path) Edges() []*Edge {
	out := make([]*Edge, len(p.edges))
	copy(out, p.edges)
	return out
}

// Length is the number of edges.
func (p *Path) Length() int { return len(p.edges) }

// NodeCount is the number of nodes.
func (p *Path) NodeCount() int { return len(p.nodes) }

// NodeAt returns the i-th node or nil when out of range.
func (p *Path) NodeAt(i int) *Node {
	if i < 0 || i >= len(p.nodes) {
		return nil
	}
	return p.nodes[i]
}

// EdgeAt returns the i-th edge or nil when out of range.
func (p *Path) EdgeAt(i int) *Edge {
	if i < 0 || i >= len(p.edges) {
		return nil
	}
	return p.edges[i]
}

// FirstNode returns the start of the path.
func (p *Path) FirstNode() *Node { return p.NodeAt(0) }

// LastNode returns the end of the path.
func (p *Path) LastNode() *Node { return p.NodeAt(len(p.nodes) - 1) }

// Equal compares nodes and edges position by position.
func (p *Path) Equal(o *Path) bool {
	if p == nil || o == nil {
		return p == o
	}
	if len(p.nodes) != len(o.nodes) || len(p.edges) != len(o.edges) {
		return false
	}
	for i := range p.nodes {
		if !p.nodes[i].Equal(o.nodes[i]) {
			return false
		}
	}
	for i := range p.edges {
		if !p.edges[i].Equal(o.edges[i]) {
			return false
		}
	}
	return true
}

func (p *Path) String() string {
	var sb strings.Builder
	sb.WriteString("Path{")
	for i, n := range p.nodes {
		if i > 0 {
			e := p.edges[i-1]
			fmt.Fprintf(&sb, "-[%d:%s]->", e.ID, e.Type)
		}
		fmt.Fprintf(&sb, "(%d)", n.ID)
	}
	sb.WriteByte('}')
	return sb.String()
}

// PathBuilder assembles a Path one element at a time. It expects a node
// first and then alternates; an out of order append fails and leaves the
// builder unchanged.
type PathBuilder struct {
	nodes      []*Node
	edges      []*Edge
	expectEdge bool
}

// NewPathBuilder preallocates room for nodeCount nodes.
func NewPathBuilder(nodeCount int) *PathBuilder {
	edgeCount := nodeCount - 1
	if edgeCount < 0 {
		edgeCount = 0
	}
	if nodeCount < 0 {
		nodeCount = 0
	}
	return &PathBuilder{
		nodes: make([]*Node, 0, nodeCount),
		edges: make([]*Edge, 0, edgeCount),
	}
}

// AppendNode appends a node. It fails when an edge is expected.
func (b *PathBuilder) AppendNode(n *Node) error {
	if b.expectEdge {
		return fmt.Errorf("%w: expected edge but got node", ErrPathOrder)
	}
	if n == nil {
		return fmt.Errorf("%w: nil node", ErrPathOrder)
	}
	b.nodes = append(b.nodes, n)
	b.expectEdge = true
	return nil
}

// AppendEdge appends an edge. It fails when a node is expected.
func (b *PathBuilder) AppendEdge(e *Edge) error {
	if !b.expectEdge {
		return fmt.Errorf("%w: expected node but got edge", ErrPathOrder)
	}
	if e == nil {
		return fmt.Errorf("%w: nil edge", ErrPathOrder)
	}
	b.edges = append(b.edges, e)
	b.expectEdge = false
	return nil
}

// Build returns the path once it holds one more node than edges.
func (b *PathBuilder) Build() (*Path, error) {
	if len(b.nodes) != len(b.edges)+1 {
		return nil, fmt.Errorf("%w: %d nodes, %d edges", ErrPathIncomplete, len(b.nodes), len(b.edges))
	}
	return &Path{nodes: append([]*Node(nil), b.nodes...), edges: append([]*Edge(nil), b.edges...)}, nil
}
