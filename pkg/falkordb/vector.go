package falkordb

import (
	"context"
	"fmt"
	"sort"

	"github.com/orneryd/falkorgraph/pkg/math/vector"
	"github.com/orneryd/falkorgraph/pkg/value"
)

// VectorMatch is one hit of a vector index query.
type VectorMatch struct {
	Node *value.Node
	// Score is the distance reported by the server.
	Score float64
	// Similarity is recomputed on the client from the node's attribute,
	// higher is closer.
	Similarity float64
}

// QueryVectorNodes asks the label's vector index on attr for the k nodes
// nearest q. Matches are ordered by Similarity under fn ("euclidean" or
// "cosine"), computed from the returned nodes.
func (g *Graph) QueryVectorNodes(ctx context.Context, label, attr string, k int, q value.Vector, fn string) ([]VectorMatch, error) {
	rs, err := g.Query(ctx,
		"CALL db.idx.vector.queryNodes($label, $attr, $k, $q) YIELD node, score RETURN node, score",
		map[string]any{"label": label, "attr": attr, "k": k, "q": q},
	)
	if err != nil {
		return nil, err
	}

	matches := make([]VectorMatch, 0, rs.Len())
	for i, rec := range rs.Records() {
		n, err := rec.GetNode("node")
		if err != nil {
			return nil, fmt.Errorf("match %d: %w", i, err)
		}
		score, err := rec.GetFloat64("score")
		if err != nil {
			return nil, fmt.Errorf("match %d: %w", i, err)
		}
		emb, err := embedding(n, attr)
		if err != nil {
			return nil, fmt.Errorf("match %d: %w", i, err)
		}
		sim, err := vector.Similarity(fn, q, emb)
		if err != nil {
			return nil, fmt.Errorf("match %d: %w", i, err)
		}
		matches = append(matches, VectorMatch{Node: n, Score: score, Similarity: sim})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	return matches, nil
}

// embedding reads attr as a vector. Numeric arrays are accepted too.
func embedding(n *value.Node, attr string) (value.Vector, error) {
	v, ok := n.Properties.Get(attr)
	if !ok {
		return nil, fmt.Errorf("node %d has no %q attribute", n.ID, attr)
	}
	switch val := v.(type) {
	case value.Vector:
		return val, nil
	case value.Array:
		out := make(value.Vector, len(val))
		for i, item := range val {
			switch f := item.(type) {
			case value.Double:
				out[i] = float64(f)
			case value.Int64:
				out[i] = float64(f)
			default:
				return nil, fmt.Errorf("%w: %q[%d] is %s", ErrTypeMismatch, attr, i, kindOf(item))
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %q is %s", ErrTypeMismatch, attr, kindOf(v))
}
