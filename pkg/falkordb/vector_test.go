package falkordb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/falkorgraph/pkg/value"
)

func docNode(id int64, emb ...any) []any {
	return []any{id, []any{int64(0)}, []any{
		[]any{int64(0), int64(12), emb},
	}}
}

func TestQueryVectorNodes(t *testing.T) {
	var sent string
	srv := newFakeServer(func(cmd, q string) (any, error) {
		sent = q
		return table([]any{col(1, "node"), col(1, "score")},
			[]any{cell(8, docNode(1, 3.0, 4.0)), cell(5, []byte("5"))},
			[]any{cell(8, docNode(2, 0.0, 1.0)), cell(5, []byte("1"))},
		), nil
	})
	srv.setTable("db.labels", "Doc")
	srv.setTable("db.propertyKeys", "embedding")
	c, _, _ := newTestClient(srv.handle)

	matches, err := c.SelectGraph("g").QueryVectorNodes(context.Background(), "Doc", "embedding", 2, value.Vector{0, 0}, "euclidean")
	require.NoError(t, err)
	require.Len(t, matches, 2)

	assert.Equal(t, int64(2), matches[0].Node.ID, "closest first")
	assert.InDelta(t, 0.5, matches[0].Similarity, 1e-12)
	assert.Equal(t, 1.0, matches[0].Score)
	assert.Equal(t, int64(1), matches[1].Node.ID)
	assert.InDelta(t, 1.0/6.0, matches[1].Similarity, 1e-12)

	assert.Equal(t,
		"CYPHER attr='embedding' k=2 label='Doc' q=vecf32([0.0, 0.0]) CALL db.idx.vector.queryNodes($label, $attr, $k, $q) YIELD node, score RETURN node, score",
		sent)
}

func TestEmbedding(t *testing.T) {
	n := value.NewNode(1).
		SetProperty("arr", value.Array{value.Int64(1), value.Double(2.5)}).
		SetProperty("bad", value.String("x"))

	v, err := embedding(n, "arr")
	require.NoError(t, err)
	assert.Equal(t, value.Vector{1, 2.5}, v)

	_, err = embedding(n, "bad")
	assert.ErrorIs(t, err, ErrTypeMismatch)
	_, err = embedding(n, "missing")
	assert.Error(t, err)
}
