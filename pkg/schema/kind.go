package schema

import "strconv"

// Kind selects one of the three dictionaries a graph keeps.
type Kind int

const (
	Label Kind = iota
	PropertyKey
	RelationshipType

	kindCount = 3
)

// Kinds lists every dictionary kind in refresh order.
var Kinds = [kindCount]Kind{Label, PropertyKey, RelationshipType}

func (k Kind) String() string {
	switch k {
	case Label:
		return "label"
	case PropertyKey:
		return "property_key"
	case RelationshipType:
		return "relationship_type"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Procedure returns the server procedure that lists the dictionary.
func (k Kind) Procedure() string {
	switch k {
	case Label:
		return "db.labels"
	case PropertyKey:
		return "db.propertyKeys"
	case RelationshipType:
		return "db.relationshipTypes"
	}
	return ""
}

// Valid reports whether k is one of Label, PropertyKey or RelationshipType.
func (k Kind) Valid() bool { return k >= Label && k <= RelationshipType }
