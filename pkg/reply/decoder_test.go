package reply

import (
	"context"
	"errors"
	"testing"

	"github.com/gomodule/redigo/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/falkorgraph/pkg/schema"
	"github.com/orneryd/falkorgraph/pkg/value"
)

type tableResolver struct {
	tables map[schema.Kind][]string
	calls  int
}

func (r *tableResolver) Resolve(_ context.Context, kind schema.Kind, idx int64) (string, error) {
	r.calls++
	t := r.tables[kind]
	if idx < 0 || idx >= int64(len(t)) {
		return "", schema.ErrUnknownIndex
	}
	return t[idx], nil
}

func newTestDecoder() (*Decoder, *tableResolver) {
	r := &tableResolver{tables: map[schema.Kind][]string{
		schema.Label:            {"Person", "City"},
		schema.PropertyKey:      {"name", "age", "since"},
		schema.RelationshipType: {"KNOWS", "LIVES_IN"},
	}}
	return NewDecoder(r), r
}

func scalar(tag int64, payload any) []any { return []any{tag, payload} }

func nodePayload(id int64, labels []any, props ...[]any) []any {
	ps := make([]any, len(props))
	for i, p := range props {
		ps[i] = p
	}
	return []any{id, labels, ps}
}

func TestDecodeScalar_Primitives(t *testing.T) {
	d, _ := newTestDecoder()
	ctx := context.Background()

	tests := []struct {
		name string
		in   any
		want value.Value
	}{
		{"null", scalar(tagNull, nil), value.Null{}},
		{"string", scalar(tagString, []byte("héllo")), value.String("héllo")},
		{"int64", scalar(tagInt64, int64(1099511627776)), value.Int64(1099511627776)},
		{"true", scalar(tagBoolean, []byte("true")), value.Boolean(true)},
		{"false", scalar(tagBoolean, "false"), value.Boolean(false)},
		{"double text", scalar(tagDouble, []byte("3.25")), value.Double(3.25)},
		{"double native", scalar(tagDouble, 2.0), value.Double(2.0)},
		{"point", scalar(tagPoint, []any{[]byte("30.5"), []byte("-40.25")}), value.Point{X: 30.5, Y: -40.25}},
		{"vector", scalar(tagVector, []any{[]byte("1.5"), int64(2), 0.25}), value.Vector{1.5, 2, 0.25}},
		{"unknown tag", scalar(99, []byte("raw")), value.Unknown{Tag: 99, Payload: []byte("raw")}},
		{"tag zero", scalar(tagUnknown, int64(5)), value.Unknown{Tag: 0, Payload: int64(5)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.DecodeScalar(ctx, tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeScalar_BooleanIsCaseSensitive(t *testing.T) {
	d, _ := newTestDecoder()
	for _, s := range []string{"True", "FALSE", "1", ""} {
		_, err := d.DecodeScalar(context.Background(), scalar(tagBoolean, []byte(s)))
		var de *DecodeError
		require.ErrorAs(t, err, &de, s)
		assert.ErrorIs(t, err, ErrMalformed)
	}
}

func TestDecodeScalar_NoWidening(t *testing.T) {
	d, _ := newTestDecoder()
	_, err := d.DecodeScalar(context.Background(), scalar(tagDouble, int64(3)))
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = d.DecodeScalar(context.Background(), scalar(tagInt64, []byte("3")))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDecodeScalar_Nested(t *testing.T) {
	d, _ := newTestDecoder()
	in := scalar(tagArray, []any{
		scalar(tagInt64, int64(1)),
		scalar(tagMap, []any{
			[]byte("a"), scalar(tagString, []byte("x")),
			[]byte("b"), scalar(tagArray, []any{scalar(tagNull, nil)}),
			[]byte("a"), scalar(tagString, []byte("y")),
		}),
	})
	got, err := d.DecodeScalar(context.Background(), in)
	require.NoError(t, err)

	want := value.Array{
		value.Int64(1),
		value.Map{"a": value.String("y"), "b": value.Array{value.Null{}}},
	}
	assert.True(t, value.Equal(want, got), "got %s", value.Format(got))
}

func TestDecodeScalar_MapOddLength(t *testing.T) {
	d, _ := newTestDecoder()
	_, err := d.DecodeScalar(context.Background(), scalar(tagMap, []any{[]byte("a")}))
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "map", de.Path)
}

func TestDecodeScalar_ErrorElement(t *testing.T) {
	d, _ := newTestDecoder()
	_, err := d.DecodeScalar(context.Background(), scalar(tagArray, []any{redis.Error("boom")}))

	var qe *QueryError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, "boom", qe.Message)
}

func TestDecodeNode(t *testing.T) {
	d, _ := newTestDecoder()
	payload := nodePayload(7, []any{int64(0), int64(1)},
		[]any{int64(0), int64(tagString), []byte("Ada")},
		[]any{int64(1), int64(tagInt64), int64(36)},
	)
	got, err := d.DecodeScalar(context.Background(), scalar(tagNode, payload))
	require.NoError(t, err)

	n, ok := got.(*value.Node)
	require.True(t, ok)
	assert.Equal(t, int64(7), n.ID)
	assert.Equal(t, []string{"Person", "City"}, n.Labels())
	assert.Equal(t, []string{"name", "age"}, n.Properties.Names())
	age, _ := n.Properties.Get("age")
	assert.Equal(t, value.Int64(36), age)
}

func TestDecodeNode_UnknownLabel(t *testing.T) {
	d, _ := newTestDecoder()
	payload := nodePayload(1, []any{int64(9)})
	_, err := d.DecodeScalar(context.Background(), scalar(tagNode, payload))
	assert.ErrorIs(t, err, schema.ErrUnknownIndex)
	assert.Contains(t, err.Error(), "node: labels[0]")
}

func TestDecodeNode_Short(t *testing.T) {
	d, _ := newTestDecoder()
	_, err := d.DecodeScalar(context.Background(), scalar(tagNode, []any{int64(1)}))
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "node", de.Path)
}

func TestDecodeEdge(t *testing.T) {
	d, _ := newTestDecoder()
	payload := []any{int64(3), int64(1), int64(7), int64(8), []any{
		[]any{int64(2), int64(tagInt64), int64(2020)},
	}}
	got, err := d.DecodeScalar(context.Background(), scalar(tagEdge, payload))
	require.NoError(t, err)

	want := value.NewEdge(3, "LIVES_IN", 7, 8).SetProperty("since", value.Int64(2020))
	assert.True(t, value.Equal(want, got))
}

func TestDecodePath(t *testing.T) {
	d, _ := newTestDecoder()
	n0 := scalar(tagNode, nodePayload(0, []any{int64(0)}))
	n1 := scalar(tagNode, nodePayload(1, []any{int64(0)}))
	e0 := scalar(tagEdge, []any{int64(5), int64(0), int64(0), int64(1), []any{}})

	got, err := d.DecodeScalar(context.Background(), scalar(tagPath, []any{
		scalar(tagArray, []any{n0, n1}),
		scalar(tagArray, []any{e0}),
	}))
	require.NoError(t, err)

	p, ok := got.(*value.Path)
	require.True(t, ok)
	assert.Equal(t, 1, p.Length())
	assert.Equal(t, int64(0), p.FirstNode().ID)
	assert.Equal(t, int64(1), p.LastNode().ID)
	assert.Equal(t, "KNOWS", p.EdgeAt(0).Type)
}

func TestDecodePath_CountMismatch(t *testing.T) {
	d, _ := newTestDecoder()
	n0 := scalar(tagNode, nodePayload(0, []any{}))
	_, err := d.DecodeScalar(context.Background(), scalar(tagPath, []any{
		scalar(tagArray, []any{n0, n0}),
		scalar(tagArray, []any{}),
	}))
	assert.ErrorIs(t, err, value.ErrPathIncomplete)
}

func TestDecodePath_Empty(t *testing.T) {
	d, _ := newTestDecoder()
	got, err := d.DecodeScalar(context.Background(), scalar(tagPath, []any{}))
	require.NoError(t, err)
	assert.Equal(t, 0, got.(*value.Path).Length())
}

func TestDecodeRows(t *testing.T) {
	d, _ := newTestDecoder()
	h, err := ParseHeader([]any{
		[]any{int64(ColumnScalar), []byte("a")},
		[]any{int64(ColumnScalar), []byte("a.age")},
	})
	require.NoError(t, err)

	rows, err := d.DecodeRows(context.Background(), h, []any{
		[]any{scalar(tagNull, nil), scalar(tagInt64, int64(1))},
		[]any{scalar(tagString, []byte("x")), scalar(tagNull, nil)},
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, value.Null{}, rows[0][0])
	assert.Equal(t, value.String("x"), rows[1][0])
	assert.Equal(t, value.Null{}, rows[1][1])
}

func TestDecodeRows_ErrorPath(t *testing.T) {
	d, _ := newTestDecoder()
	h := NewHeader("a", "b")
	_, err := d.DecodeRows(context.Background(), h, []any{
		[]any{scalar(tagNull, nil), scalar(tagNull, nil)},
		[]any{scalar(tagNull, nil), scalar(tagNode, []any{int64(1)})},
	})
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "row 1 column 1: node", de.Path)

	_, err = d.DecodeRows(context.Background(), h, []any{[]any{scalar(tagNull, nil)}})
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDecodeRows_ErrorElementIsQueryError(t *testing.T) {
	boom := redis.Error("ERR boom")
	h := NewHeader("a")
	nodeHeader, err := ParseHeader([]any{[]any{int64(ColumnNode), []byte("n")}})
	require.NoError(t, err)

	tests := []struct {
		name string
		h    Header
		rows any
	}{
		{"rows", h, boom},
		{"whole row", h, []any{boom}},
		{"map key", h, []any{[]any{scalar(tagMap, []any{boom, scalar(tagInt64, int64(1))})}}},
		{"label index", h, []any{[]any{scalar(tagNode, nodePayload(1, []any{boom}))}}},
		{"property index", h, []any{[]any{scalar(tagNode, nodePayload(1, []any{}, []any{boom, int64(tagInt64), int64(1)}))}}},
		{"node id", h, []any{[]any{scalar(tagNode, []any{boom, []any{}, []any{}})}}},
		{"edge source", h, []any{[]any{scalar(tagEdge, []any{int64(1), int64(0), boom, int64(2), []any{}})}}},
		{"node column labels", nodeHeader, []any{[]any{[]any{int64(1), boom, []any{}}}}},
		{"point component", h, []any{[]any{scalar(tagPoint, []any{1.5, boom})}}},
		{"vector element", h, []any{[]any{scalar(tagVector, []any{boom})}}},
		{"double text", h, []any{[]any{scalar(tagDouble, boom)}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, _ := newTestDecoder()
			_, err := d.DecodeRows(context.Background(), tt.h, tt.rows)

			var qe *QueryError
			require.ErrorAs(t, err, &qe)
			assert.Equal(t, "ERR boom", qe.Message)
			assert.NotErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestDecodeRows_StaleErrorElement(t *testing.T) {
	d, _ := newTestDecoder()
	_, err := d.DecodeRows(context.Background(), NewHeader("a"), []any{redis.Error("ERR version mismatch")})
	assert.ErrorIs(t, err, ErrSchemaStale)
}

func TestDecodeCell_EntityColumns(t *testing.T) {
	d, _ := newTestDecoder()
	v, err := d.DecodeCell(context.Background(), ColumnNode, nodePayload(4, []any{int64(1)}))
	require.NoError(t, err)
	assert.Equal(t, []string{"City"}, v.(*value.Node).Labels())

	v, err = d.DecodeCell(context.Background(), ColumnRelation, nil)
	require.NoError(t, err)
	assert.Equal(t, value.Null{}, v)
}

func TestDecodeScalar_ResolverErrorWrapped(t *testing.T) {
	boom := errors.New("fetch failed")
	d := NewDecoder(resolverFunc(func(context.Context, schema.Kind, int64) (string, error) {
		return "", boom
	}))
	_, err := d.DecodeScalar(context.Background(), scalar(tagEdge, []any{int64(1), int64(0), int64(1), int64(2), []any{}}))
	assert.ErrorIs(t, err, boom)
}

type resolverFunc func(context.Context, schema.Kind, int64) (string, error)

func (f resolverFunc) Resolve(ctx context.Context, k schema.Kind, i int64) (string, error) {
	return f(ctx, k, i)
}
