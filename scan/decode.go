package scan

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/esbridge/esbridge-go/schema"
	"github.com/esbridge/esbridge-go/transport"
)

// decodeRow materializes one document into the projected output columns.
func decodeRow(sch *schema.Schema, projection []string, hit transport.Hit) ([]any, error) {
	row := make([]any, len(projection))
	for i, name := range projection {
		switch name {
		case schema.IDColumn:
			row[i] = hit.ID
		case schema.UnmappedColumn:
			v, err := collectUnmapped(sch, hit.Source)
			if err != nil {
				return nil, err
			}
			row[i] = v
		default:
			col, ok := sch.Column(name)
			if !ok {
				return nil, fmt.Errorf("unknown column %q in projection", name)
			}
			if col.Name == schema.SourceColumn && col.Type.Kind == schema.KindJSON {
				// Fallback column of an unmapped collection: the whole
				// document rides in one opaque column.
				v, err := jsonString(hit.Source)
				if err != nil {
					return nil, err
				}
				row[i] = v
				continue
			}
			value, found := schema.ValueAtPath(hit.Source, col.Name)
			if !found {
				row[i] = nil
				continue
			}
			v, err := decodeValue(sch, value, col.Type, col.Name)
			if err != nil {
				return nil, fmt.Errorf("decode column %q of document %q: %w", name, hit.ID, err)
			}
			row[i] = v
		}
	}
	return row, nil
}

// decodeValue converts a document value to the column's relational shape.
// Single values of multi-valued fields are wrapped into one-element lists,
// matching how the store itself treats them.
func decodeValue(sch *schema.Schema, v any, t schema.Type, path string) (any, error) {
	if v == nil {
		return nil, nil
	}

	if sch.IsGeoPath(path) {
		s, err := schema.NormalizeGeo(sch.Paths[path], v)
		if err != nil {
			// Keep malformed geometry visible instead of failing the row.
			return jsonString(v)
		}
		return s, nil
	}

	switch t.Kind {
	case schema.KindList:
		elem := schema.Type{Kind: schema.KindJSON}
		if t.Elem != nil {
			elem = *t.Elem
		}
		arr, ok := v.([]any)
		if !ok {
			arr = []any{v}
		}
		out := make([]any, len(arr))
		for i, item := range arr {
			dv, err := decodeValue(sch, item, elem, path)
			if err != nil {
				return nil, err
			}
			out[i] = dv
		}
		return out, nil

	case schema.KindStruct:
		obj, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("field %q: expected object, got %T", path, v)
		}
		out := make(map[string]any, len(t.Fields))
		for _, f := range t.Fields {
			fv, present := obj[f.Name]
			if !present {
				out[f.Name] = nil
				continue
			}
			dv, err := decodeValue(sch, fv, f.Type, path+"."+f.Name)
			if err != nil {
				return nil, err
			}
			out[f.Name] = dv
		}
		return out, nil

	case schema.KindJSON:
		return jsonString(v)

	case schema.KindString:
		s, err := cast.ToStringE(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", path, err)
		}
		return s, nil

	case schema.KindInt64, schema.KindInt32, schema.KindInt16, schema.KindInt8:
		n, err := cast.ToInt64E(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", path, err)
		}
		switch t.Kind {
		case schema.KindInt32:
			return int32(n), nil
		case schema.KindInt16:
			return int16(n), nil
		case schema.KindInt8:
			return int8(n), nil
		}
		return n, nil

	case schema.KindFloat64:
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", path, err)
		}
		return f, nil

	case schema.KindFloat32:
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", path, err)
		}
		return float32(f), nil

	case schema.KindBool:
		b, err := cast.ToBoolE(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", path, err)
		}
		return b, nil

	case schema.KindTimestamp:
		ts, err := parseTimestamp(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", path, err)
		}
		return ts, nil

	default:
		return jsonString(v)
	}
}

// parseTimestamp accepts the store's default date representations:
// ISO 8601 strings and epoch milliseconds.
func parseTimestamp(v any) (time.Time, error) {
	switch d := v.(type) {
	case string:
		for _, layout := range []string{
			time.RFC3339Nano,
			"2006-01-02T15:04:05.000Z0700",
			"2006-01-02 15:04:05",
			"2006-01-02",
		} {
			if ts, err := time.Parse(layout, d); err == nil {
				return ts.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognized date %q", d)
	case float64:
		return time.UnixMilli(int64(d)).UTC(), nil
	case int64:
		return time.UnixMilli(d).UTC(), nil
	case json.Number:
		ms, err := d.Int64()
		if err != nil {
			return time.Time{}, fmt.Errorf("unrecognized date %v", d)
		}
		return time.UnixMilli(ms).UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("unrecognized date value %T", v)
	}
}

// collectUnmapped extracts the document content not covered by the schema
// into a JSON string, or nil when everything is mapped. Partially mapped
// objects contribute only their undeclared members.
func collectUnmapped(sch *schema.Schema, source map[string]any) (any, error) {
	if len(sch.Paths) == 0 {
		// Unmapped collections expose the document through the source
		// fallback column instead.
		return nil, nil
	}
	prefixes := mappedPrefixes(sch)
	residual := residualObject(sch, prefixes, source, "")
	if len(residual) == 0 {
		return nil, nil
	}
	return jsonString(residual)
}

// mappedPrefixes returns every proper ancestor path of the mapped paths,
// i.e. the object paths whose members are individually declared.
func mappedPrefixes(sch *schema.Schema) map[string]bool {
	prefixes := map[string]bool{}
	for path := range sch.Paths {
		for {
			i := strings.LastIndexByte(path, '.')
			if i < 0 {
				break
			}
			path = path[:i]
			prefixes[path] = true
		}
	}
	return prefixes
}

func residualObject(sch *schema.Schema, prefixes map[string]bool, obj map[string]any, prefix string) map[string]any {
	var out map[string]any
	for key, value := range obj {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}

		if prefixes[path] {
			sub, ok := value.(map[string]any)
			if !ok {
				continue
			}
			if rest := residualObject(sch, prefixes, sub, path); len(rest) > 0 {
				if out == nil {
					out = map[string]any{}
				}
				out[key] = rest
			}
			continue
		}
		if _, mapped := sch.Paths[path]; mapped {
			continue
		}
		if out == nil {
			out = map[string]any{}
		}
		out[key] = value
	}
	return out
}

func jsonString(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode value: %w", err)
	}
	return string(data), nil
}
