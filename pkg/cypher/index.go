package cypher

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Index and constraint errors
var (
	ErrMissingLabel      = errors.New("label or relationship type must be provided")
	ErrMissingProperties = errors.New("at least one property must be provided")
	ErrInvalidIndexType  = errors.New("invalid index type")
	ErrInvalidEntity     = errors.New("invalid entity type")
)

// EntityType selects whether an index or constraint applies to nodes or
// relationships.
type EntityType int

const (
	NodeEntity EntityType = iota
	EdgeEntity
)

func (e EntityType) String() string {
	switch e {
	case NodeEntity:
		return "NODE"
	case EdgeEntity:
		return "RELATIONSHIP"
	}
	return "entity(" + strconv.Itoa(int(e)) + ")"
}

// IndexType is the kind of index to create or drop.
type IndexType int

const (
	RangeIndex IndexType = iota
	FulltextIndex
	VectorIndex
)

func (t IndexType) String() string {
	switch t {
	case RangeIndex:
		return "RANGE"
	case FulltextIndex:
		return "FULLTEXT"
	case VectorIndex:
		return "VECTOR"
	}
	return "index(" + strconv.Itoa(int(t)) + ")"
}

// DefaultSimilarity is the vector index similarity function used when none is
// given.
const DefaultSimilarity = "euclidean"

// IndexSpec describes an index on a label (nodes) or relationship type
// (edges).
type IndexSpec struct {
	Entity     EntityType
	Type       IndexType
	Label      string
	Properties []string

	// Vector indexes only.
	Dimension  int
	Similarity string
}

func (s IndexSpec) validate() error {
	if strings.TrimSpace(s.Label) == "" {
		return ErrMissingLabel
	}
	if len(s.Properties) == 0 {
		return ErrMissingProperties
	}
	for _, p := range s.Properties {
		if strings.TrimSpace(p) == "" {
			return ErrMissingProperties
		}
	}
	if s.Type < RangeIndex || s.Type > VectorIndex {
		return fmt.Errorf("%w: %d", ErrInvalidIndexType, int(s.Type))
	}
	return nil
}

func (s IndexSpec) pattern() (string, error) {
	switch s.Entity {
	case NodeEntity:
		return "(e:" + s.Label + ")", nil
	case EdgeEntity:
		return "()-[e:" + s.Label + "]->()", nil
	}
	return "", fmt.Errorf("%w: %d", ErrInvalidEntity, int(s.Entity))
}

func typePrefix(t IndexType) string {
	if t == RangeIndex {
		return ""
	}
	return t.String() + " "
}

// CreateIndex builds the CREATE INDEX statement for spec.
func CreateIndex(spec IndexSpec) (string, error) {
	if err := spec.validate(); err != nil {
		return "", err
	}
	pattern, err := spec.pattern()
	if err != nil {
		return "", err
	}

	props := make([]string, len(spec.Properties))
	for i, p := range spec.Properties {
		props[i] = "e." + p
	}

	var sb strings.Builder
	sb.WriteString("CREATE ")
	sb.WriteString(typePrefix(spec.Type))
	sb.WriteString("INDEX FOR ")
	sb.WriteString(pattern)
	sb.WriteString(" ON (")
	sb.WriteString(strings.Join(props, ","))
	sb.WriteByte(')')

	if spec.Type == VectorIndex {
		if spec.Dimension <= 0 {
			return "", fmt.Errorf("vector index dimension must be positive, got %d", spec.Dimension)
		}
		sim := spec.Similarity
		if sim == "" {
			sim = DefaultSimilarity
		}
		sb.WriteString(" OPTIONS {dimension:")
		sb.WriteString(strconv.Itoa(spec.Dimension))
		sb.WriteString(",similarityFunction:")
		sb.WriteString(QuoteString(sim))
		sb.WriteByte('}')
	}
	return sb.String(), nil
}

// DropIndex builds the DROP INDEX statement for the first property of spec.
func DropIndex(spec IndexSpec) (string, error) {
	if err := spec.validate(); err != nil {
		return "", err
	}
	pattern, err := spec.pattern()
	if err != nil {
		return "", err
	}
	return "DROP " + typePrefix(spec.Type) + "INDEX FOR " + pattern + " ON (e." + spec.Properties[0] + ")", nil
}

// ConstraintType is UNIQUE or MANDATORY.
type ConstraintType string

const (
	UniqueConstraint    ConstraintType = "UNIQUE"
	MandatoryConstraint ConstraintType = "MANDATORY"
)

// ConstraintSpec describes a constraint managed with GRAPH.CONSTRAINT.
type ConstraintSpec struct {
	Type       ConstraintType
	Entity     EntityType
	Label      string
	Properties []string
}

// ConstraintArgs builds the arguments of
//
//	GRAPH.CONSTRAINT <op> <graph> <type> <entity> <label> PROPERTIES <n> <props...>
//
// op is "CREATE" or "DROP".
func ConstraintArgs(op, graph string, spec ConstraintSpec) ([]any, error) {
	if op != "CREATE" && op != "DROP" {
		return nil, fmt.Errorf("invalid constraint operation %q", op)
	}
	if spec.Type != UniqueConstraint && spec.Type != MandatoryConstraint {
		return nil, fmt.Errorf("invalid constraint type %q", spec.Type)
	}
	if spec.Entity != NodeEntity && spec.Entity != EdgeEntity {
		return nil, fmt.Errorf("%w: %d", ErrInvalidEntity, int(spec.Entity))
	}
	if strings.TrimSpace(spec.Label) == "" {
		return nil, ErrMissingLabel
	}
	if len(spec.Properties) == 0 {
		return nil, ErrMissingProperties
	}

	args := make([]any, 0, 7+len(spec.Properties))
	args = append(args, op, graph, string(spec.Type), spec.Entity.String(), spec.Label, "PROPERTIES", len(spec.Properties))
	for _, p := range spec.Properties {
		args = append(args, p)
	}
	return args, nil
}
