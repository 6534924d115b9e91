package filter

import "github.com/paulmach/orb"

// CompareOp identifies a binary comparison operator.
type CompareOp string

const (
	CompareEqual          CompareOp = "COMPARE_EQUAL"
	CompareNotEqual       CompareOp = "COMPARE_NOTEQUAL"
	CompareLessThan       CompareOp = "COMPARE_LESSTHAN"
	CompareGreaterThan    CompareOp = "COMPARE_GREATERTHAN"
	CompareLessThanEq     CompareOp = "COMPARE_LESSTHANOREQUALTO"
	CompareGreaterThanEq  CompareOp = "COMPARE_GREATERTHANOREQUALTO"
)

// ConjunctionOp identifies how conjunction children are combined.
type ConjunctionOp string

const (
	ConjunctionAnd ConjunctionOp = "CONJUNCTION_AND"
	ConjunctionOr  ConjunctionOp = "CONJUNCTION_OR"
)

// GeoOp identifies a spatial relation between two geometry operands.
type GeoOp string

const (
	GeoIntersects GeoOp = "GEO_INTERSECTS"
	GeoDisjoint   GeoOp = "GEO_DISJOINT"
	GeoWithin     GeoOp = "GEO_WITHIN"
	GeoContains   GeoOp = "GEO_CONTAINS"
)

// Predicate is the interface implemented by all pushable filter nodes.
// Use type switches to access specific predicate data.
type Predicate interface {
	// predicateMarker is a marker method to prevent external implementation.
	predicateMarker()
}

// Comparison compares a field against a constant value (=, <>, <, >, <=, >=).
type Comparison struct {
	Field string
	Op    CompareOp
	Value any
}

// Conjunction combines child predicates with AND or OR.
type Conjunction struct {
	Op       ConjunctionOp
	Children []Predicate
}

// In tests field membership in a constant value list.
// Negate turns it into NOT IN.
type In struct {
	Field  string
	Values []any
	Negate bool
}

// IsNull matches documents where the field is missing or null.
type IsNull struct {
	Field string
}

// IsNotNull matches documents where the field has any value.
type IsNotNull struct {
	Field string
}

// Pattern matches a field against a SQL LIKE pattern.
// The pattern uses % (any run) and _ (single char) wildcards with
// backslash escaping. CaseInsensitive selects ILIKE semantics.
type Pattern struct {
	Field           string
	Pattern         string
	CaseInsensitive bool
	Negate          bool
}

// Nested scopes an inner predicate to one struct member: field paths
// inside Inner are resolved relative to Field. Host engines emit one
// Nested wrapper per struct-access level, so deep access composes as
// Nested{a, Nested{b, Comparison{c, ...}}} for a.b.c.
type Nested struct {
	Field string
	Inner Predicate
}

// GeoRelation tests a spatial relation between a geometry field and a
// constant shape. FieldFirst records the argument order of the original
// relation call: within(field, shape) versus within(shape, field) translate
// to different store-side relations.
type GeoRelation struct {
	Op         GeoOp
	Field      string
	Shape      orb.Geometry
	FieldFirst bool
}

// GeoDistance matches documents whose geometry lies within Meters of Center.
type GeoDistance struct {
	Field  string
	Center orb.Point
	Meters float64
}

// Opaque represents a condition that cannot be pushed to the store.
// Translation yields no query for it; the caller re-evaluates the condition
// on returned rows. Description is used only for logging.
type Opaque struct {
	Description string
}

func (*Comparison) predicateMarker()  {}
func (*Conjunction) predicateMarker() {}
func (*In) predicateMarker()          {}
func (*IsNull) predicateMarker()      {}
func (*IsNotNull) predicateMarker()   {}
func (*Pattern) predicateMarker()     {}
func (*Nested) predicateMarker()      {}
func (*GeoRelation) predicateMarker() {}
func (*GeoDistance) predicateMarker() {}
func (*Opaque) predicateMarker()      {}
