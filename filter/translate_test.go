package filter

import (
	"encoding/json"
	"errors"
	"testing"
)

func testMetadata() Metadata {
	return Metadata{
		Types: map[string]string{
			"status":             "keyword",
			"age":                "long",
			"name":               "text",
			"description":        "text",
			"location":           "geo_point",
			"area":               "geo_shape",
			"address.city":       "keyword",
			"address.note":       "text",
			"owner.address.city": "keyword",
			"pin.location":       "geo_point",
		},
		TextFields: map[string]bool{
			"name":         true,
			"description":  true,
			"address.note": true,
		},
		KeywordCompanions: map[string]bool{
			"name": true,
		},
	}
}

// clauseJSON renders a clause deterministically for comparison.
func clauseJSON(t *testing.T, clause map[string]any) string {
	t.Helper()
	data, err := json.Marshal(clause)
	if err != nil {
		t.Fatalf("marshal clause: %v", err)
	}
	return string(data)
}

func TestTranslateComparison(t *testing.T) {
	tests := []struct {
		name string
		pred Predicate
		want string
	}{
		{
			name: "equal on keyword",
			pred: &Comparison{Field: "status", Op: CompareEqual, Value: "active"},
			want: `{"term":{"status":{"value":"active"}}}`,
		},
		{
			name: "not equal",
			pred: &Comparison{Field: "status", Op: CompareNotEqual, Value: "active"},
			want: `{"bool":{"must_not":[{"term":{"status":{"value":"active"}}}]}}`,
		},
		{
			name: "less than",
			pred: &Comparison{Field: "age", Op: CompareLessThan, Value: 30},
			want: `{"range":{"age":{"lt":30}}}`,
		},
		{
			name: "less than or equal",
			pred: &Comparison{Field: "age", Op: CompareLessThanEq, Value: 30},
			want: `{"range":{"age":{"lte":30}}}`,
		},
		{
			name: "greater than",
			pred: &Comparison{Field: "age", Op: CompareGreaterThan, Value: 30},
			want: `{"range":{"age":{"gt":30}}}`,
		},
		{
			name: "greater than or equal",
			pred: &Comparison{Field: "age", Op: CompareGreaterThanEq, Value: 30},
			want: `{"range":{"age":{"gte":30}}}`,
		},
		{
			name: "equal on text with keyword companion",
			pred: &Comparison{Field: "name", Op: CompareEqual, Value: "Anna"},
			want: `{"term":{"name.keyword":{"value":"Anna"}}}`,
		},
	}

	tr := NewTranslator(testMetadata())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clause, err := tr.Translate(tt.pred)
			if err != nil {
				t.Fatalf("Translate: %v", err)
			}
			if got := clauseJSON(t, clause); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestTranslateUnsafeTextField(t *testing.T) {
	tests := []struct {
		name string
		pred Predicate
	}{
		{"equal", &Comparison{Field: "description", Op: CompareEqual, Value: "x"}},
		{"not equal", &Comparison{Field: "description", Op: CompareNotEqual, Value: "x"}},
		{"less than", &Comparison{Field: "description", Op: CompareLessThan, Value: "x"}},
		{"in", &In{Field: "description", Values: []any{"x"}}},
		{"like", &Pattern{Field: "description", Pattern: "x%"}},
	}

	tr := NewTranslator(testMetadata())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tr.Translate(tt.pred)
			var unsafeErr *UnsafeFieldError
			if !errors.As(err, &unsafeErr) {
				t.Fatalf("expected UnsafeFieldError, got %v", err)
			}
			if unsafeErr.Field != "description" {
				t.Errorf("error names field %q, want %q", unsafeErr.Field, "description")
			}
		})
	}
}

func TestTranslateUnsafeErrorInsideConjunction(t *testing.T) {
	tr := NewTranslator(testMetadata())
	pred := &Conjunction{
		Op: ConjunctionAnd,
		Children: []Predicate{
			&Comparison{Field: "status", Op: CompareEqual, Value: "active"},
			&Comparison{Field: "description", Op: CompareEqual, Value: "x"},
		},
	}
	if _, err := tr.Translate(pred); err == nil {
		t.Fatal("expected error for unsafe child, got nil")
	}
}

func TestTranslateIn(t *testing.T) {
	tr := NewTranslator(testMetadata())

	clause, err := tr.Translate(&In{Field: "status", Values: []any{"a", "b"}})
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if got, want := clauseJSON(t, clause), `{"terms":{"status":["a","b"]}}`; got != want {
		t.Errorf("got %s, want %s", got, want)
	}

	clause, err = tr.Translate(&In{Field: "status", Values: []any{"a"}, Negate: true})
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	want := `{"bool":{"must_not":[{"terms":{"status":["a"]}}]}}`
	if got := clauseJSON(t, clause); got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestTranslateNullChecks(t *testing.T) {
	tr := NewTranslator(testMetadata())

	clause, err := tr.Translate(&IsNotNull{Field: "age"})
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if got, want := clauseJSON(t, clause), `{"exists":{"field":"age"}}`; got != want {
		t.Errorf("got %s, want %s", got, want)
	}

	clause, err = tr.Translate(&IsNull{Field: "age"})
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	want := `{"bool":{"must_not":[{"exists":{"field":"age"}}]}}`
	if got := clauseJSON(t, clause); got != want {
		t.Errorf("got %s, want %s", got, want)
	}

	// Null checks on bare text fields are safe: exists does not compare values.
	if _, err := tr.Translate(&IsNotNull{Field: "description"}); err != nil {
		t.Errorf("IsNotNull on text field: %v", err)
	}
}

func TestTranslateConjunction(t *testing.T) {
	tr := NewTranslator(testMetadata())

	eq := &Comparison{Field: "status", Op: CompareEqual, Value: "a"}
	gt := &Comparison{Field: "age", Op: CompareGreaterThan, Value: 1}

	t.Run("and combines with must", func(t *testing.T) {
		clause, err := tr.Translate(&Conjunction{Op: ConjunctionAnd, Children: []Predicate{eq, gt}})
		if err != nil {
			t.Fatalf("Translate: %v", err)
		}
		want := `{"bool":{"must":[{"term":{"status":{"value":"a"}}},{"range":{"age":{"gt":1}}}]}}`
		if got := clauseJSON(t, clause); got != want {
			t.Errorf("got %s, want %s", got, want)
		}
	})

	t.Run("or combines with should", func(t *testing.T) {
		clause, err := tr.Translate(&Conjunction{Op: ConjunctionOr, Children: []Predicate{eq, gt}})
		if err != nil {
			t.Fatalf("Translate: %v", err)
		}
		want := `{"bool":{"minimum_should_match":1,"should":[{"term":{"status":{"value":"a"}}},{"range":{"age":{"gt":1}}}]}}`
		if got := clauseJSON(t, clause); got != want {
			t.Errorf("got %s, want %s", got, want)
		}
	})

	t.Run("and drops opaque children", func(t *testing.T) {
		clause, err := tr.Translate(&Conjunction{
			Op:       ConjunctionAnd,
			Children: []Predicate{eq, &Opaque{Description: "udf(age)"}},
		})
		if err != nil {
			t.Fatalf("Translate: %v", err)
		}
		want := `{"term":{"status":{"value":"a"}}}`
		if got := clauseJSON(t, clause); got != want {
			t.Errorf("got %s, want %s", got, want)
		}
	})

	t.Run("or with opaque child is untranslatable", func(t *testing.T) {
		clause, err := tr.Translate(&Conjunction{
			Op:       ConjunctionOr,
			Children: []Predicate{eq, &Opaque{Description: "udf(age)"}},
		})
		if err != nil {
			t.Fatalf("Translate: %v", err)
		}
		if clause != nil {
			t.Errorf("expected nil clause, got %s", clauseJSON(t, clause))
		}
	})

	t.Run("single child collapses", func(t *testing.T) {
		clause, err := tr.Translate(&Conjunction{Op: ConjunctionAnd, Children: []Predicate{eq}})
		if err != nil {
			t.Fatalf("Translate: %v", err)
		}
		want := `{"term":{"status":{"value":"a"}}}`
		if got := clauseJSON(t, clause); got != want {
			t.Errorf("got %s, want %s", got, want)
		}
	})

	t.Run("all opaque yields nil", func(t *testing.T) {
		clause, err := tr.Translate(&Conjunction{
			Op:       ConjunctionAnd,
			Children: []Predicate{&Opaque{}, &Opaque{}},
		})
		if err != nil {
			t.Fatalf("Translate: %v", err)
		}
		if clause != nil {
			t.Errorf("expected nil clause, got %s", clauseJSON(t, clause))
		}
	})
}

func TestTranslateNested(t *testing.T) {
	tr := NewTranslator(testMetadata())

	t.Run("single level", func(t *testing.T) {
		clause, err := tr.Translate(&Nested{
			Field: "address",
			Inner: &Comparison{Field: "city", Op: CompareEqual, Value: "Berlin"},
		})
		if err != nil {
			t.Fatalf("Translate: %v", err)
		}
		want := `{"term":{"address.city":{"value":"Berlin"}}}`
		if got := clauseJSON(t, clause); got != want {
			t.Errorf("got %s, want %s", got, want)
		}
	})

	t.Run("stacked wrappers compose", func(t *testing.T) {
		clause, err := tr.Translate(&Nested{
			Field: "owner",
			Inner: &Nested{
				Field: "address",
				Inner: &Comparison{Field: "city", Op: CompareEqual, Value: "Berlin"},
			},
		})
		if err != nil {
			t.Fatalf("Translate: %v", err)
		}
		want := `{"term":{"owner.address.city":{"value":"Berlin"}}}`
		if got := clauseJSON(t, clause); got != want {
			t.Errorf("got %s, want %s", got, want)
		}
	})

	t.Run("conjunction inside wrapper", func(t *testing.T) {
		clause, err := tr.Translate(&Nested{
			Field: "address",
			Inner: &Conjunction{Op: ConjunctionAnd, Children: []Predicate{
				&Comparison{Field: "city", Op: CompareEqual, Value: "Berlin"},
				&IsNotNull{Field: "city"},
			}},
		})
		if err != nil {
			t.Fatalf("Translate: %v", err)
		}
		want := `{"bool":{"must":[{"term":{"address.city":{"value":"Berlin"}}},{"exists":{"field":"address.city"}}]}}`
		if got := clauseJSON(t, clause); got != want {
			t.Errorf("got %s, want %s", got, want)
		}
	})

	t.Run("unsafe text member fails with full path", func(t *testing.T) {
		_, err := tr.Translate(&Nested{
			Field: "address",
			Inner: &Comparison{Field: "note", Op: CompareEqual, Value: "x"},
		})
		var unsafeErr *UnsafeFieldError
		if !errors.As(err, &unsafeErr) {
			t.Fatalf("expected UnsafeFieldError, got %v", err)
		}
		if unsafeErr.Field != "address.note" {
			t.Errorf("error names field %q, want %q", unsafeErr.Field, "address.note")
		}
	})

	t.Run("nil inner is untranslatable", func(t *testing.T) {
		clause, err := tr.Translate(&Nested{Field: "address"})
		if err != nil || clause != nil {
			t.Errorf("got (%v, %v), want (nil, nil)", clause, err)
		}
	})

	t.Run("input tree stays unmodified", func(t *testing.T) {
		inner := &Comparison{Field: "city", Op: CompareEqual, Value: "Berlin"}
		if _, err := tr.Translate(&Nested{Field: "address", Inner: inner}); err != nil {
			t.Fatalf("Translate: %v", err)
		}
		if inner.Field != "city" {
			t.Errorf("inner predicate field mutated to %q", inner.Field)
		}
	})
}

func TestValidate(t *testing.T) {
	meta := testMetadata()

	if err := Validate(&Comparison{Field: "status", Op: CompareEqual, Value: "a"}, meta); err != nil {
		t.Errorf("Validate safe predicate: %v", err)
	}

	err := Validate(&Comparison{Field: "description", Op: CompareEqual, Value: "a"}, meta)
	var unsafeErr *UnsafeFieldError
	if !errors.As(err, &unsafeErr) {
		t.Fatalf("expected UnsafeFieldError, got %v", err)
	}
}

func TestTranslateNilAndOpaque(t *testing.T) {
	tr := NewTranslator(testMetadata())

	clause, err := tr.Translate(nil)
	if err != nil || clause != nil {
		t.Errorf("nil predicate: got (%v, %v)", clause, err)
	}

	clause, err = tr.Translate(&Opaque{Description: "regexp_matches(name)"})
	if err != nil || clause != nil {
		t.Errorf("opaque predicate: got (%v, %v)", clause, err)
	}
}
