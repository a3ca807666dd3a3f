package cypher

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/falkorgraph/pkg/value"
)

type color string

const bigInt int64 = 1 << 40

func TestEncodeValue(t *testing.T) {
	n := 42
	var nilPtr *int
	var nilSlice []string

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, "null"},
		{"nil pointer", nilPtr, "null"},
		{"nil slice", nilSlice, "null"},
		{"pointer", &n, "42"},
		{"true", true, "true"},
		{"int", -7, "-7"},
		{"int64 2^40", bigInt, "1099511627776"},
		{"uint32", uint32(9), "9"},
		{"float", 3.25, "3.25"},
		{"whole float stays double", 2.0, "2.0"},
		{"float32", float32(0.5), "0.5"},
		{"large float no exponent", 1e21, "1000000000000000000000.0"},
		{"string", "hello", "'hello'"},
		{"escaping", `S"\'`, `'S\"\\\''`},
		{"named string", color("red"), "'red'"},
		{"bytes", []byte("ab"), "'ab'"},
		{"list", []any{1, "a", nil, []int{2, 3}}, "[1, 'a', null, [2, 3]]"},
		{"array", [2]float64{1, 1.5}, "[1.0, 1.5]"},
		{"map sorted", map[string]any{"b": 1, "a": "x"}, "{a: 'x', b: 1}"},
		{"empty map", map[string]int{}, "{}"},
		{"point", value.Point{X: 30, Y: -40.5}, "point({latitude: 30.0, longitude: -40.5})"},
		{"vector", value.Vector{1, 0.5}, "vecf32([1.0, 0.5])"},
		{"graph values", value.Array{value.Int64(1), value.Null{}, value.String("q")}, "[1, null, 'q']"},
		{"graph map", value.Map{"k": value.Boolean(false)}, "{k: false}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeValue(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeValue_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want error
		path string
	}{
		{"channel", make(chan int), ErrUnsupportedType, "param"},
		{"func", func() {}, ErrUnsupportedType, "param"},
		{"struct", struct{ A int }{1}, ErrUnsupportedType, "param"},
		{"complex", complex(1, 2), ErrUnsupportedType, "param"},
		{"nested", []any{1, 2, make(chan int)}, ErrUnsupportedType, "param[2]"},
		{"nan", math.NaN(), ErrNonFinite, "param"},
		{"inf in map", map[string]any{"x": math.Inf(1)}, ErrNonFinite, "param.x"},
		{"uint64 overflow", uint64(math.MaxUint64), ErrOutOfRange, "param"},
		{"bad key", map[string]int{"not ok": 1}, ErrInvalidIdentifier, "param.not ok"},
		{"int keys", map[int]string{1: "a"}, ErrUnsupportedType, "param"},
		{"node", value.NewNode(1), ErrUnsupportedType, "param"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EncodeValue(tt.in)
			require.ErrorIs(t, err, tt.want)
			var ee *EncodingError
			require.ErrorAs(t, err, &ee)
			assert.Equal(t, tt.path, ee.Path)
		})
	}
}

func TestQuoteString_EscapesBackslashFirst(t *testing.T) {
	assert.Equal(t, `'a\\\'b'`, QuoteString(`a\'b`))
	assert.Equal(t, `''`, QuoteString(""))
}

// unquoteLiteral reads a single-quoted Cypher string the way the server lexer
// does: a backslash takes the next byte literally and a bare quote ends the
// literal.
func unquoteLiteral(t *testing.T, lit string) string {
	t.Helper()
	require.GreaterOrEqual(t, len(lit), 2)
	require.Equal(t, byte('\''), lit[0])
	var sb strings.Builder
	for i := 1; i < len(lit); i++ {
		switch c := lit[i]; c {
		case '\\':
			i++
			require.Less(t, i, len(lit), "dangling escape in %s", lit)
			sb.WriteByte(lit[i])
		case '\'':
			require.Equal(t, len(lit)-1, i, "literal %s ends early", lit)
			return sb.String()
		default:
			sb.WriteByte(c)
		}
	}
	t.Fatalf("unterminated literal %s", lit)
	return ""
}

func TestQuoteString_RoundTrips(t *testing.T) {
	for _, s := range []string{`S"\'`, "", `\`, `\\'`, `''`, `"`, "héllo wörld", "a\nb", `end\`} {
		lit := QuoteString(s)
		assert.Equal(t, s, unquoteLiteral(t, lit), "literal %s", lit)

		again, err := EncodeValue(unquoteLiteral(t, lit))
		require.NoError(t, err)
		assert.Equal(t, lit, again)
	}
}

func TestPrepareQuery(t *testing.T) {
	q, err := PrepareQuery("RETURN 1", nil)
	require.NoError(t, err)
	assert.Equal(t, "RETURN 1", q)

	q, err = PrepareQuery("RETURN $b, $a", map[string]any{"b": "x", "a": bigInt})
	require.NoError(t, err)
	assert.Equal(t, "CYPHER a=1099511627776 b='x' RETURN $b, $a", q)

	_, err = PrepareQuery("RETURN 1", map[string]any{"1bad": 1})
	assert.ErrorIs(t, err, ErrInvalidIdentifier)

	_, err = PrepareQuery("RETURN $c", map[string]any{"c": make(chan int)})
	var ee *EncodingError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, "c", ee.Path)
}

func TestIsIdentifier(t *testing.T) {
	assert.True(t, IsIdentifier("_a1"))
	assert.False(t, IsIdentifier(""))
	assert.False(t, IsIdentifier("a-b"))
	assert.False(t, IsIdentifier("9a"))
}
