package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geojson"
	"github.com/spf13/cast"
)

// NormalizeGeo renders a stored geometry value as a canonical GeoJSON
// string. external selects the interpretation rules: point fields accept
// several legacy encodings, shape fields accept GeoJSON objects and WKT.
func NormalizeGeo(external string, v any) (string, error) {
	if external == "geo_point" {
		return NormalizeGeoPoint(v)
	}
	return NormalizeGeoShape(v)
}

// NormalizeGeoPoint accepts the store's point encodings:
//
//	{"lat": 52.5, "lon": 13.4}      object form
//	[13.4, 52.5]                    lon/lat array form
//	"52.5,13.4"                     lat,lon string form
//	"POINT (13.4 52.5)"             WKT form
func NormalizeGeoPoint(v any) (string, error) {
	switch pt := v.(type) {
	case map[string]any:
		lat, latErr := cast.ToFloat64E(pt["lat"])
		lon, lonErr := cast.ToFloat64E(pt["lon"])
		if latErr != nil || lonErr != nil {
			return "", fmt.Errorf("geo point object missing lat/lon: %v", v)
		}
		return marshalGeometry(orb.Point{lon, lat})

	case []any:
		if len(pt) < 2 {
			return "", fmt.Errorf("geo point array needs lon and lat: %v", v)
		}
		lon, lonErr := cast.ToFloat64E(pt[0])
		lat, latErr := cast.ToFloat64E(pt[1])
		if latErr != nil || lonErr != nil {
			return "", fmt.Errorf("geo point array is not numeric: %v", v)
		}
		return marshalGeometry(orb.Point{lon, lat})

	case string:
		if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(pt)), "POINT") {
			geom, err := wkt.Unmarshal(pt)
			if err != nil {
				return "", fmt.Errorf("parse WKT point %q: %w", pt, err)
			}
			return marshalGeometry(geom)
		}
		parts := strings.Split(pt, ",")
		if len(parts) != 2 {
			return "", fmt.Errorf("geo point string is not lat,lon: %q", pt)
		}
		lat, latErr := cast.ToFloat64E(strings.TrimSpace(parts[0]))
		lon, lonErr := cast.ToFloat64E(strings.TrimSpace(parts[1]))
		if latErr != nil || lonErr != nil {
			return "", fmt.Errorf("geo point string is not numeric: %q", pt)
		}
		return marshalGeometry(orb.Point{lon, lat})

	default:
		return "", fmt.Errorf("unsupported geo point value %T", v)
	}
}

// NormalizeGeoShape accepts GeoJSON geometry objects and WKT strings.
func NormalizeGeoShape(v any) (string, error) {
	switch shape := v.(type) {
	case map[string]any:
		data, err := json.Marshal(shape)
		if err != nil {
			return "", fmt.Errorf("encode geo shape: %w", err)
		}
		geom, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return "", fmt.Errorf("parse geo shape: %w", err)
		}
		return marshalGeometry(geom.Geometry())

	case string:
		geom, err := wkt.Unmarshal(shape)
		if err != nil {
			return "", fmt.Errorf("parse WKT shape %q: %w", shape, err)
		}
		return marshalGeometry(geom)

	default:
		return "", fmt.Errorf("unsupported geo shape value %T", v)
	}
}

func marshalGeometry(g orb.Geometry) (string, error) {
	data, err := geojson.NewGeometry(g).MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("encode geometry: %w", err)
	}
	return string(data), nil
}
