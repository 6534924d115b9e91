package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// TypeConflictError indicates that two collections matched by the same
// pattern declare a field with incompatible types. The error names both
// sides so the mapping can be fixed instead of guessed at.
type TypeConflictError struct {
	Field  string
	IndexA string
	TypeA  string
	IndexB string
	TypeB  string
}

func (e *TypeConflictError) Error() string {
	return fmt.Sprintf("field %q has conflicting types across collections: %s in %q vs %s in %q",
		e.Field, e.TypeA, e.IndexA, e.TypeB, e.IndexB)
}

// property is one field declaration in a collection mapping.
type property struct {
	Type       string                     `json:"type"`
	Properties map[string]json.RawMessage `json:"properties"`
	Fields     map[string]property        `json:"fields"`

	raw json.RawMessage // original declaration, kept for ordered walks
}

// ParseMapping resolves the raw mapping document of an index name or
// pattern into a relational schema. Mappings of multiple matched
// collections are merged; a type conflict between them is a hard error.
func ParseMapping(data []byte, index string) (*Schema, error) {
	var byIndex map[string]struct {
		Mappings struct {
			Properties json.RawMessage `json:"properties"`
		} `json:"mappings"`
	}
	if err := json.Unmarshal(data, &byIndex); err != nil {
		return nil, fmt.Errorf("parse mapping for %q: %w", index, err)
	}

	sch := &Schema{
		Index:             index,
		Paths:             map[string]string{},
		TextFields:        map[string]bool{},
		KeywordCompanions: map[string]bool{},
	}

	// Merge order is the sorted collection name order, so the resolved
	// column layout does not depend on response ordering.
	names := make([]string, 0, len(byIndex))
	for name := range byIndex {
		names = append(names, name)
	}
	sort.Strings(names)

	merged := false
	var firstIndex string
	for _, name := range names {
		props := byIndex[name].Mappings.Properties
		if len(props) == 0 {
			continue
		}
		cols, err := parseProperties(sch, props, "")
		if err != nil {
			return nil, fmt.Errorf("parse mapping of collection %q: %w", name, err)
		}
		if !merged {
			sch.Columns, firstIndex, merged = cols, name, true
			continue
		}
		sch.Columns, err = mergeColumns(sch.Columns, cols, firstIndex, name)
		if err != nil {
			return nil, err
		}
	}

	// A pattern that matches nothing mapped still scans: the whole
	// document is exposed through a single opaque source column.
	if len(sch.Columns) == 0 {
		sch.Columns = []Column{{Name: SourceColumn, Type: Type{Kind: KindJSON}, External: "object"}}
	}
	return sch, nil
}

// parseProperties builds columns from one properties object, preserving the
// declaration order, and records path metadata on the schema as it walks.
func parseProperties(sch *Schema, raw json.RawMessage, prefix string) ([]Column, error) {
	names, values, err := decodeOrderedObject(raw)
	if err != nil {
		return nil, err
	}

	cols := make([]Column, 0, len(names))
	for _, name := range names {
		var prop property
		if err := json.Unmarshal(values[name], &prop); err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		prop.raw = values[name]

		path := name
		if prefix != "" {
			path = prefix + "." + name
		}

		typ, external, err := sch.resolveProperty(prop, path)
		if err != nil {
			return nil, err
		}
		sch.Paths[path] = external
		cols = append(cols, Column{Name: name, Type: typ, External: external})
	}
	return cols, nil
}

// resolveProperty maps one store field declaration to a relational type.
func (s *Schema) resolveProperty(prop property, path string) (Type, string, error) {
	switch prop.Type {
	case "text":
		s.TextFields[path] = true
		if sub, ok := prop.Fields["keyword"]; ok && sub.Type == "keyword" {
			s.KeywordCompanions[path] = true
		}
		return Type{Kind: KindString}, prop.Type, nil
	case "keyword", "ip", "version":
		return Type{Kind: KindString}, prop.Type, nil
	case "long", "unsigned_long":
		return Type{Kind: KindInt64}, prop.Type, nil
	case "integer":
		return Type{Kind: KindInt32}, prop.Type, nil
	case "short":
		return Type{Kind: KindInt16}, prop.Type, nil
	case "byte":
		return Type{Kind: KindInt8}, prop.Type, nil
	case "double", "scaled_float":
		return Type{Kind: KindFloat64}, prop.Type, nil
	case "float", "half_float":
		return Type{Kind: KindFloat32}, prop.Type, nil
	case "boolean":
		return Type{Kind: KindBool}, prop.Type, nil
	case "date", "date_nanos":
		return Type{Kind: KindTimestamp}, prop.Type, nil
	case "geo_point", "geo_shape":
		// Geometry is exposed as a GeoJSON string column.
		return Type{Kind: KindString}, prop.Type, nil
	case "nested":
		if len(prop.Properties) == 0 {
			return Type{Kind: KindJSON}, prop.Type, nil
		}
		inner, err := s.structType(prop, path)
		if err != nil {
			return Type{}, "", err
		}
		return Type{Kind: KindList, Elem: &inner}, prop.Type, nil
	case "object", "":
		if len(prop.Properties) == 0 {
			// Untyped object content stays opaque JSON.
			return Type{Kind: KindJSON}, "object", nil
		}
		inner, err := s.structType(prop, path)
		if err != nil {
			return Type{}, "", err
		}
		return inner, "object", nil
	default:
		// Unknown store types degrade to opaque JSON rather than failing
		// the whole schema.
		return Type{Kind: KindJSON}, prop.Type, nil
	}
}

func (s *Schema) structType(prop property, path string) (Type, error) {
	var propsRaw json.RawMessage
	if prop.raw != nil {
		var shell struct {
			Properties json.RawMessage `json:"properties"`
		}
		if err := json.Unmarshal(prop.raw, &shell); err != nil {
			return Type{}, fmt.Errorf("field %q: %w", path, err)
		}
		propsRaw = shell.Properties
	}
	cols, err := parseProperties(s, propsRaw, path)
	if err != nil {
		return Type{}, err
	}
	fields := make([]Field, len(cols))
	for i, c := range cols {
		fields[i] = Field{Name: c.Name, Type: c.Type}
	}
	return Type{Kind: KindStruct, Fields: fields}, nil
}

// mergeColumns merges the column sets of two collections. Fields present in
// both must have the same type, except structs, whose field sets are
// unioned with first-seen order preserved.
func mergeColumns(a, b []Column, indexA, indexB string) ([]Column, error) {
	out := make([]Column, len(a))
	copy(out, a)

	known := make(map[string]int, len(a))
	for i, c := range a {
		known[c.Name] = i
	}

	for _, c := range b {
		i, ok := known[c.Name]
		if !ok {
			known[c.Name] = len(out)
			out = append(out, c)
			continue
		}
		merged, err := mergeTypes(out[i].Type, c.Type, c.Name, indexA, indexB)
		if err != nil {
			return nil, err
		}
		out[i].Type = merged
	}
	return out, nil
}

func mergeTypes(a, b Type, path, indexA, indexB string) (Type, error) {
	switch {
	case a.Kind == KindStruct && b.Kind == KindStruct:
		fields := make([]Field, len(a.Fields))
		copy(fields, a.Fields)
		known := make(map[string]int, len(fields))
		for i, f := range fields {
			known[f.Name] = i
		}
		for _, f := range b.Fields {
			i, ok := known[f.Name]
			if !ok {
				known[f.Name] = len(fields)
				fields = append(fields, f)
				continue
			}
			merged, err := mergeTypes(fields[i].Type, f.Type, path+"."+f.Name, indexA, indexB)
			if err != nil {
				return Type{}, err
			}
			fields[i].Type = merged
		}
		return Type{Kind: KindStruct, Fields: fields}, nil

	case a.Kind == KindList && b.Kind == KindList:
		elemA, elemB := Type{Kind: KindJSON}, Type{Kind: KindJSON}
		if a.Elem != nil {
			elemA = *a.Elem
		}
		if b.Elem != nil {
			elemB = *b.Elem
		}
		merged, err := mergeTypes(elemA, elemB, path, indexA, indexB)
		if err != nil {
			return Type{}, err
		}
		return Type{Kind: KindList, Elem: &merged}, nil

	case a.String() == b.String():
		return a, nil

	default:
		return Type{}, &TypeConflictError{
			Field:  path,
			IndexA: indexA,
			TypeA:  a.String(),
			IndexB: indexB,
			TypeB:  b.String(),
		}
	}
}

// decodeOrderedObject decodes a JSON object keeping its key order, which
// the store preserves from the mapping definition.
func decodeOrderedObject(raw json.RawMessage) ([]string, map[string]json.RawMessage, error) {
	if len(raw) == 0 {
		return nil, nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, fmt.Errorf("expected object, got %v", tok)
	}

	var keys []string
	values := map[string]json.RawMessage{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key := tok.(string)
		var val json.RawMessage
		if err := dec.Decode(&val); err != nil {
			return nil, nil, err
		}
		keys = append(keys, key)
		values[key] = val
	}
	return keys, values, nil
}
