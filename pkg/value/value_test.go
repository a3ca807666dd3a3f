package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindString(t *testing.T) {
	assert.Equal(t, "node", KindNode.String())
	assert.Equal(t, "vector", KindVector.String())
	assert.Equal(t, "kind(42)", Kind(42).String())
}

func TestIsNull(t *testing.T) {
	assert.True(t, IsNull(nil))
	assert.True(t, IsNull(Null{}))
	assert.False(t, IsNull(String("")))
	assert.False(t, IsNull(Int64(0)))
}

func TestNative(t *testing.T) {
	v := Array{Int64(1), String("a"), Null{}, Map{"k": Boolean(true)}}
	got := Native(v)

	assert.Equal(t, []any{int64(1), "a", nil, map[string]any{"k": true}}, got)
	assert.Equal(t, "raw", Native(Unknown{Tag: 99, Payload: "raw"}))

	n := NewNode(1, "Person")
	assert.Same(t, n, Native(n))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "null", Format(nil))
	assert.Equal(t, "[1, 2.5, true]", Format(Array{Int64(1), Double(2.5), Boolean(true)}))
	assert.Equal(t, "{a: 1, b: x}", Format(Map{"b": String("x"), "a": Int64(1)}))
	assert.Equal(t, "Point{latitude=30, longitude=-40.5}", Format(Point{X: 30, Y: -40.5}))
	assert.Equal(t, "vecf32([1, 2.5])", Format(Vector{1, 2.5}))
}

func TestEqual(t *testing.T) {
	t.Run("scalars", func(t *testing.T) {
		assert.True(t, Equal(Int64(3), Int64(3)))
		assert.False(t, Equal(Int64(3), Double(3)))
		assert.True(t, Equal(nil, Null{}))
		assert.False(t, Equal(Null{}, String("null")))
	})

	t.Run("nested collections", func(t *testing.T) {
		a := Map{"xs": Array{Int64(1), Null{}}, "p": Point{X: 1, Y: 2}}
		b := Map{"p": Point{X: 1, Y: 2}, "xs": Array{Int64(1), nil}}
		assert.True(t, Equal(a, b))
		b["xs"] = Array{Int64(1)}
		assert.False(t, Equal(a, b))
	})

	t.Run("node labels are a set", func(t *testing.T) {
		a := NewNode(7, "A", "B").SetProperty("x", Int64(1)).SetProperty("y", String("s"))
		b := NewNode(7, "B", "A").SetProperty("y", String("s")).SetProperty("x", Int64(1))
		assert.True(t, Equal(a, b))

		b.AddLabel("C")
		assert.False(t, Equal(a, b))
	})

	t.Run("edges", func(t *testing.T) {
		a := NewEdge(1, "KNOWS", 2, 3).SetProperty("since", Int64(2020))
		b := NewEdge(1, "KNOWS", 2, 3).SetProperty("since", Int64(2020))
		assert.True(t, Equal(a, b))
		assert.False(t, Equal(a, NewEdge(1, "KNOWS", 3, 2)))
	})

	t.Run("unknown", func(t *testing.T) {
		assert.True(t, Equal(Unknown{Tag: 99, Payload: "x"}, Unknown{Tag: 99, Payload: "x"}))
		assert.False(t, Equal(Unknown{Tag: 99, Payload: "x"}, Unknown{Tag: 98, Payload: "x"}))
	})
}

func TestProperties(t *testing.T) {
	var p Properties
	p.Set("b", Int64(1))
	p.Set("a", Int64(2))
	p.Set("b", Int64(3))
	p.Set("c", nil)

	assert.Equal(t, []string{"b", "a", "c"}, p.Names())
	v, ok := p.Get("b")
	require.True(t, ok)
	assert.Equal(t, Int64(3), v)
	v, _ = p.Get("c")
	assert.Equal(t, Null{}, v)

	assert.True(t, p.Delete("a"))
	assert.False(t, p.Delete("a"))
	assert.Equal(t, 2, p.Len())
	assert.Equal(t, "{b: 3, c: null}", p.String())

	var seen []string
	p.Range(func(name string, _ Value) bool {
		seen = append(seen, name)
		return false
	})
	assert.Equal(t, []string{"b"}, seen)
}

func TestNodeLabels(t *testing.T) {
	n := NewNode(1, "Person", "Person", "Admin")
	assert.Equal(t, []string{"Person", "Admin"}, n.Labels())
	assert.True(t, n.HasLabel("Admin"))
	assert.True(t, n.RemoveLabel("Person"))
	assert.False(t, n.RemoveLabel("Person"))
	assert.Equal(t, []string{"Admin"}, n.Labels())
}

func TestVectorFloat32s(t *testing.T) {
	v := Vector{1, 0.5, -2}
	assert.Equal(t, []float32{1, 0.5, -2}, v.Float32s())
	assert.Equal(t, 3, v.Dim())
}
