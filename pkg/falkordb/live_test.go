package falkordb

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/falkorgraph/pkg/config"
	"github.com/orneryd/falkorgraph/pkg/value"
)

// liveGraph connects to the server named by FALKORDB_TEST_ADDR and returns a
// scratch graph that is deleted when the test ends.
func liveGraph(t *testing.T) *Graph {
	t.Helper()
	addr := os.Getenv("FALKORDB_TEST_ADDR")
	if addr == "" {
		t.Skip("FALKORDB_TEST_ADDR not set")
	}
	cfg := config.LoadDefaults()
	cfg.Server.Address = addr
	c, err := Connect(cfg)
	require.NoError(t, err)

	g := c.SelectGraph("falkorgraph_test_" + uuid.NewString()[:8])
	t.Cleanup(func() {
		_ = g.Delete(context.Background())
		_ = c.Close()
	})
	return g
}

func TestLive_ParamRoundTrip(t *testing.T) {
	g := liveGraph(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tests := []struct {
		name  string
		param any
		want  value.Value
	}{
		{"null", nil, value.Null{}},
		{"string", `S"\'`, value.String(`S"\'`)},
		{"int", bigInt, value.Int64(bigInt)},
		{"bool", true, value.Boolean(true)},
		{"double", 2.0, value.Double(2)},
		{"list", []any{1, "a", false}, value.Array{value.Int64(1), value.String("a"), value.Boolean(false)}},
		{"map", map[string]any{"k": 1.5}, value.Map{"k": value.Double(1.5)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs, err := g.Query(ctx, "RETURN $param AS v", map[string]any{"param": tt.param})
			require.NoError(t, err)
			v, err := rs.Row(0).GetByName("v")
			require.NoError(t, err)
			assert.True(t, value.Equal(tt.want, v), "got %s", value.Format(v))
		})
	}
}

func TestLive_EntitiesAndSchemaChange(t *testing.T) {
	g := liveGraph(t)
	ctx := context.Background()

	_, err := g.Query(ctx, "CREATE (:Person {name: 'Ada'})-[:KNOWS {since: 2010}]->(:Person {name: 'Bob'})", nil)
	require.NoError(t, err)

	rs, err := g.Query(ctx, "MATCH p=(a)-[r]->(b) RETURN a, r, p", nil)
	require.NoError(t, err)
	require.Equal(t, 1, rs.Len())
	rec := rs.Row(0)
	a, err := rec.GetNode("a")
	require.NoError(t, err)
	assert.True(t, a.HasLabel("Person"))
	r, err := rec.GetEdge("r")
	require.NoError(t, err)
	assert.Equal(t, "KNOWS", r.Type)

	// New names after the cache is warm must still resolve.
	_, err = g.Query(ctx, "CREATE (:City {title: 'Paris'})", nil)
	require.NoError(t, err)
	rs, err = g.Query(ctx, "MATCH (c:City) RETURN c", nil)
	require.NoError(t, err)
	city, err := rs.Row(0).GetNode("c")
	require.NoError(t, err)
	title, ok := city.Properties.Get("title")
	require.True(t, ok)
	assert.Equal(t, value.String("Paris"), title)

	rs, err = g.Query(ctx, "OPTIONAL MATCH (m:Missing) RETURN m", nil)
	require.NoError(t, err)
	assert.True(t, rs.Row(0).IsNull("m"))
}
