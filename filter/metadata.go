package filter

import "fmt"

// Metadata describes the store-side shape of the fields a translator may
// reference. It is derived from the resolved collection schema; the
// translator itself never inspects mappings.
type Metadata struct {
	// Types maps a dotted field path to its store-side type name
	// (e.g. "keyword", "text", "long", "geo_point").
	Types map[string]string

	// TextFields holds the paths mapped as analyzed full-text fields.
	TextFields map[string]bool

	// KeywordCompanions holds the full-text paths that carry an exact-match
	// keyword subfield (path + ".keyword").
	KeywordCompanions map[string]bool
}

// IsText reports whether the path is an analyzed full-text field.
func (m Metadata) IsText(path string) bool { return m.TextFields[path] }

// HasKeyword reports whether a full-text path has a keyword companion.
func (m Metadata) HasKeyword(path string) bool { return m.KeywordCompanions[path] }

// exactField returns the field name to use for exact-match queries
// (term, terms, range, prefix, wildcard). Full-text fields are redirected
// to their keyword companion; a full-text field without one cannot be
// filtered exactly and yields an UnsafeFieldError.
func (m Metadata) exactField(path string) (string, error) {
	if !m.IsText(path) {
		return path, nil
	}
	if m.HasKeyword(path) {
		return path + ".keyword", nil
	}
	return "", &UnsafeFieldError{Field: path}
}

// UnsafeFieldError indicates a filter on an analyzed full-text field that
// has no keyword companion. Pushing such a filter would silently match on
// analyzed tokens instead of exact values, so translation fails instead.
type UnsafeFieldError struct {
	Field string
}

func (e *UnsafeFieldError) Error() string {
	return fmt.Sprintf("cannot filter on text field %q because it lacks a .keyword subfield; "+
		"add a keyword subfield to the collection mapping, or express the condition "+
		"in the native base query instead", e.Field)
}
