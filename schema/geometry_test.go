package schema

import "testing"

func TestNormalizeGeoPoint(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{
			name:  "object form",
			value: map[string]any{"lat": 52.5, "lon": 13.4},
			want:  `{"type":"Point","coordinates":[13.4,52.5]}`,
		},
		{
			name:  "array form is lon lat",
			value: []any{13.4, 52.5},
			want:  `{"type":"Point","coordinates":[13.4,52.5]}`,
		},
		{
			name:  "string form is lat lon",
			value: "52.5,13.4",
			want:  `{"type":"Point","coordinates":[13.4,52.5]}`,
		},
		{
			name:  "wkt form",
			value: "POINT (13.4 52.5)",
			want:  `{"type":"Point","coordinates":[13.4,52.5]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeGeoPoint(tt.value)
			if err != nil {
				t.Fatalf("NormalizeGeoPoint: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestNormalizeGeoPointRejectsGarbage(t *testing.T) {
	for _, v := range []any{42, "not-a-point", []any{1.0}, map[string]any{"x": 1}} {
		if _, err := NormalizeGeoPoint(v); err == nil {
			t.Errorf("NormalizeGeoPoint(%v) succeeded, want error", v)
		}
	}
}

func TestNormalizeGeoShape(t *testing.T) {
	t.Run("geojson object", func(t *testing.T) {
		got, err := NormalizeGeoShape(map[string]any{
			"type":        "Polygon",
			"coordinates": []any{[]any{[]any{0.0, 0.0}, []any{1.0, 0.0}, []any{1.0, 1.0}, []any{0.0, 0.0}}},
		})
		if err != nil {
			t.Fatalf("NormalizeGeoShape: %v", err)
		}
		want := `{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}`
		if got != want {
			t.Errorf("got %s, want %s", got, want)
		}
	})

	t.Run("wkt string", func(t *testing.T) {
		got, err := NormalizeGeoShape("LINESTRING (0 0, 1 1)")
		if err != nil {
			t.Fatalf("NormalizeGeoShape: %v", err)
		}
		want := `{"type":"LineString","coordinates":[[0,0],[1,1]]}`
		if got != want {
			t.Errorf("got %s, want %s", got, want)
		}
	})
}
