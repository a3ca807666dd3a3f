package cypher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateIndex(t *testing.T) {
	tests := []struct {
		name string
		spec IndexSpec
		want string
	}{
		{
			"node range",
			IndexSpec{Entity: NodeEntity, Type: RangeIndex, Label: "Person", Properties: []string{"name", "age"}},
			"CREATE INDEX FOR (e:Person) ON (e.name,e.age)",
		},
		{
			"edge fulltext",
			IndexSpec{Entity: EdgeEntity, Type: FulltextIndex, Label: "KNOWS", Properties: []string{"note"}},
			"CREATE FULLTEXT INDEX FOR ()-[e:KNOWS]->() ON (e.note)",
		},
		{
			"node vector default similarity",
			IndexSpec{Entity: NodeEntity, Type: VectorIndex, Label: "Doc", Properties: []string{"emb"}, Dimension: 3},
			"CREATE VECTOR INDEX FOR (e:Doc) ON (e.emb) OPTIONS {dimension:3,similarityFunction:'euclidean'}",
		},
		{
			"node vector cosine",
			IndexSpec{Entity: NodeEntity, Type: VectorIndex, Label: "Doc", Properties: []string{"emb"}, Dimension: 8, Similarity: "cosine"},
			"CREATE VECTOR INDEX FOR (e:Doc) ON (e.emb) OPTIONS {dimension:8,similarityFunction:'cosine'}",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CreateIndex(tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCreateIndex_Validation(t *testing.T) {
	_, err := CreateIndex(IndexSpec{Properties: []string{"a"}})
	assert.ErrorIs(t, err, ErrMissingLabel)

	_, err = CreateIndex(IndexSpec{Label: "L"})
	assert.ErrorIs(t, err, ErrMissingProperties)

	_, err = CreateIndex(IndexSpec{Label: "L", Properties: []string{"a"}, Entity: EntityType(5)})
	assert.ErrorIs(t, err, ErrInvalidEntity)

	_, err = CreateIndex(IndexSpec{Label: "L", Properties: []string{"a"}, Type: VectorIndex})
	assert.Error(t, err)
}

func TestDropIndex(t *testing.T) {
	q, err := DropIndex(IndexSpec{Entity: NodeEntity, Type: RangeIndex, Label: "Person", Properties: []string{"age"}})
	require.NoError(t, err)
	assert.Equal(t, "DROP INDEX FOR (e:Person) ON (e.age)", q)

	q, err = DropIndex(IndexSpec{Entity: EdgeEntity, Type: VectorIndex, Label: "R", Properties: []string{"v"}})
	require.NoError(t, err)
	assert.Equal(t, "DROP VECTOR INDEX FOR ()-[e:R]->() ON (e.v)", q)
}

func TestConstraintArgs(t *testing.T) {
	args, err := ConstraintArgs("CREATE", "social", ConstraintSpec{
		Type: UniqueConstraint, Entity: NodeEntity, Label: "Person", Properties: []string{"id", "email"},
	})
	require.NoError(t, err)
	assert.Equal(t, []any{"CREATE", "social", "UNIQUE", "NODE", "Person", "PROPERTIES", 2, "id", "email"}, args)

	args, err = ConstraintArgs("DROP", "social", ConstraintSpec{
		Type: MandatoryConstraint, Entity: EdgeEntity, Label: "KNOWS", Properties: []string{"since"},
	})
	require.NoError(t, err)
	assert.Equal(t, []any{"DROP", "social", "MANDATORY", "RELATIONSHIP", "KNOWS", "PROPERTIES", 1, "since"}, args)

	_, err = ConstraintArgs("ALTER", "g", ConstraintSpec{Type: UniqueConstraint, Label: "L", Properties: []string{"a"}})
	assert.Error(t, err)
	_, err = ConstraintArgs("CREATE", "g", ConstraintSpec{Type: UniqueConstraint, Label: "L"})
	assert.ErrorIs(t, err, ErrMissingProperties)
}
