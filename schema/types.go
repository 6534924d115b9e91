package schema

import (
	"strings"

	"github.com/esbridge/esbridge-go/filter"
)

// Reserved output column names. Every resolved schema exposes the document
// identifier first and the unmapped-content catch-all last; a collection
// with no declared fields falls back to a single opaque source column.
const (
	IDColumn       = "_id"
	UnmappedColumn = "_unmapped_"
	SourceColumn   = "_source"
)

// Kind identifies a relational value kind.
type Kind string

const (
	KindString    Kind = "string"
	KindInt64     Kind = "int64"
	KindInt32     Kind = "int32"
	KindInt16     Kind = "int16"
	KindInt8      Kind = "int8"
	KindFloat64   Kind = "float64"
	KindFloat32   Kind = "float32"
	KindBool      Kind = "bool"
	KindTimestamp Kind = "timestamp"
	// KindJSON is an opaque column: the raw document content rendered as a
	// JSON string. Used for untyped objects and unknown store types.
	KindJSON   Kind = "json"
	KindStruct Kind = "struct"
	KindList   Kind = "list"
)

// Type is a relational type tree. Elem is set for lists, Fields for structs.
type Type struct {
	Kind   Kind    `msgpack:"kind"`
	Elem   *Type   `msgpack:"elem,omitempty"`
	Fields []Field `msgpack:"fields,omitempty"`
}

// Field is a named struct member. Field order is meaningful: it follows the
// collection mapping, with fields from later collections appended.
type Field struct {
	Name string `msgpack:"name"`
	Type Type   `msgpack:"type"`
}

// String renders the type in a canonical form used for compatibility checks
// and conflict messages, e.g. "list<struct<a:string,b:int64>>".
func (t Type) String() string {
	switch t.Kind {
	case KindList:
		if t.Elem == nil {
			return "list<json>"
		}
		return "list<" + t.Elem.String() + ">"
	case KindStruct:
		var sb strings.Builder
		sb.WriteString("struct<")
		for i, f := range t.Fields {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(f.Name)
			sb.WriteByte(':')
			sb.WriteString(f.Type.String())
		}
		sb.WriteByte('>')
		return sb.String()
	default:
		return string(t.Kind)
	}
}

// Field returns the struct field with the given name.
func (t Type) Field(name string) (Field, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Column is one resolved output column backed by a top-level document field.
type Column struct {
	Name string `msgpack:"name"`
	Type Type   `msgpack:"type"`
	// External is the store-side type name of the backing field
	// ("keyword", "long", "object", ...).
	External string `msgpack:"external"`
}

// Schema is the resolved relational view of one collection (or collection
// pattern). All fields are exported so schemas can be snapshotted for the
// bind cache.
type Schema struct {
	// Index is the collection name or pattern the schema was resolved for.
	Index string `msgpack:"index"`

	// Columns are the field-backed output columns in mapping order.
	// The reserved identifier and unmapped columns are not listed here.
	Columns []Column `msgpack:"columns"`

	// Paths maps every mapped dotted field path (including struct members)
	// to its store-side type name.
	Paths map[string]string `msgpack:"paths"`

	// TextFields marks the paths mapped as analyzed full-text.
	TextFields map[string]bool `msgpack:"text_fields"`

	// KeywordCompanions marks the full-text paths carrying an exact-match
	// keyword subfield.
	KeywordCompanions map[string]bool `msgpack:"keyword_companions"`

	// UnmappedSeen records whether document sampling observed content not
	// covered by the mapping. Advisory only: the unmapped catch-all column
	// exists either way, since the sample need not be representative.
	UnmappedSeen bool `msgpack:"unmapped_seen"`
}

// Column returns the named field-backed column.
func (s *Schema) Column(name string) (Column, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// OutputColumns lists the full output column set in row order:
// the identifier, every field column, then the unmapped catch-all.
func (s *Schema) OutputColumns() []string {
	out := make([]string, 0, len(s.Columns)+2)
	out = append(out, IDColumn)
	for _, c := range s.Columns {
		out = append(out, c.Name)
	}
	return append(out, UnmappedColumn)
}

// PathType returns the store-side type name of a dotted field path.
func (s *Schema) PathType(path string) (string, bool) {
	t, ok := s.Paths[path]
	return t, ok
}

// IsGeoPath reports whether a path holds point or shape geometry.
func (s *Schema) IsGeoPath(path string) bool {
	switch s.Paths[path] {
	case "geo_point", "geo_shape":
		return true
	}
	return false
}

// FilterMetadata derives the field metadata the filter translator needs.
func (s *Schema) FilterMetadata() filter.Metadata {
	return filter.Metadata{
		Types:             s.Paths,
		TextFields:        s.TextFields,
		KeywordCompanions: s.KeywordCompanions,
	}
}

// ValueAtPath walks a document following a dotted path. The second return
// is false when any path segment is absent. An array met before the final
// segment is mapped element-wise, so "a.b" over {"a": [{"b": 1}, {"b": 2}]}
// yields [1, 2].
func ValueAtPath(source map[string]any, path string) (any, bool) {
	return walkPath(source, strings.Split(path, "."))
}

func walkPath(cur any, segments []string) (any, bool) {
	if len(segments) == 0 {
		return cur, true
	}
	switch v := cur.(type) {
	case map[string]any:
		next, ok := v[segments[0]]
		if !ok {
			return nil, false
		}
		return walkPath(next, segments[1:])
	case []any:
		out := make([]any, 0, len(v))
		for _, el := range v {
			if val, ok := walkPath(el, segments); ok {
				out = append(out, val)
			}
		}
		if len(out) == 0 {
			return nil, false
		}
		return out, true
	default:
		return nil, false
	}
}
