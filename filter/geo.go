package filter

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// translateGeoRelation converts a spatial relation into a geo query.
//
// The store evaluates relations as "<field> <relation> <shape>", so when the
// original call names the field as the second argument, within and contains
// swap places. Intersects and disjoint are symmetric.
//
// A within relation against an axis-aligned rectangle on a point field is
// emitted as the cheaper bounding-box query; everything else becomes a
// geo_shape query with a GeoJSON body.
func (t *Translator) translateGeoRelation(g *GeoRelation) (map[string]any, error) {
	if !t.isGeoField(g.Field) {
		return nil, nil
	}

	var relation string
	switch g.Op {
	case GeoIntersects:
		relation = "intersects"
	case GeoDisjoint:
		relation = "disjoint"
	case GeoWithin:
		relation = "within"
		if !g.FieldFirst {
			relation = "contains"
		}
	case GeoContains:
		relation = "contains"
		if !g.FieldFirst {
			relation = "within"
		}
	default:
		return nil, fmt.Errorf("unknown geo relation %q", g.Op)
	}

	if bound, ok := g.Shape.(orb.Bound); ok {
		if relation == "within" && t.meta.Types[g.Field] == "geo_point" {
			return boundingBoxClause(g.Field, bound), nil
		}
		return geoShapeClause(g.Field, envelopeShape(bound), relation), nil
	}

	return geoShapeClause(g.Field, geojson.NewGeometry(g.Shape), relation), nil
}

// translateGeoDistance emits a geo_distance query with the radius in meters.
func (t *Translator) translateGeoDistance(g *GeoDistance) (map[string]any, error) {
	if !t.isGeoField(g.Field) {
		return nil, nil
	}
	return map[string]any{
		"geo_distance": map[string]any{
			"distance": fmt.Sprintf("%gm", g.Meters),
			g.Field: map[string]any{
				"lat": g.Center.Lat(),
				"lon": g.Center.Lon(),
			},
		},
	}, nil
}

func (t *Translator) isGeoField(path string) bool {
	switch t.meta.Types[path] {
	case "geo_point", "geo_shape":
		return true
	}
	return false
}

func boundingBoxClause(field string, b orb.Bound) map[string]any {
	return map[string]any{
		"geo_bounding_box": map[string]any{
			field: map[string]any{
				"top_left":     map[string]any{"lat": b.Max.Lat(), "lon": b.Min.Lon()},
				"bottom_right": map[string]any{"lat": b.Min.Lat(), "lon": b.Max.Lon()},
			},
		},
	}
}

// envelopeShape encodes a bound in the store's envelope form:
// upper-left then lower-right corner.
func envelopeShape(b orb.Bound) map[string]any {
	return map[string]any{
		"type": "envelope",
		"coordinates": []any{
			[]any{b.Min.Lon(), b.Max.Lat()},
			[]any{b.Max.Lon(), b.Min.Lat()},
		},
	}
}

func geoShapeClause(field string, shape any, relation string) map[string]any {
	return map[string]any{
		"geo_shape": map[string]any{
			field: map[string]any{
				"shape":    shape,
				"relation": relation,
			},
		},
	}
}
