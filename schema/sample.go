package schema

import (
	"context"
	"log/slog"
	"strings"

	"github.com/esbridge/esbridge-go/transport"
)

// Sampler is the slice of the transport client document sampling drives.
// *transport.Client implements it.
type Sampler interface {
	OpenScroll(ctx context.Context, index, ttl string, size int, body map[string]any) (*transport.Page, error)
	ContinueScroll(ctx context.Context, scrollID, ttl string) (*transport.Page, error)
	ClearScroll(ctx context.Context, scrollID string) error
}

// sampleScrollTTL keeps the sampling cursor alive between pages. Sampling
// inspects each page immediately, so a short keepalive is enough.
const sampleScrollTTL = "1m"

// DetectArrays samples up to sampleSize documents through a bounded scroll
// cursor, upgrades columns whose values appear as JSON arrays to list
// types, and records whether any document carries content the mapping does
// not declare. The declared mapping can express neither multi-valued
// fields nor undeclared content, so sampling is the only signal for both.
//
// The pass only ever widens scalar types to lists; running it again is a
// no-op for fields already detected. Geometry paths are skipped because
// point and shape values legitimately use array encodings. The scroll ends
// early once every candidate path has shown an array and unmapped content
// has been seen, bounding request volume. A sampling failure leaves the
// schema with whatever was observed up to that point: resolution must not
// fail just because sampling did.
func DetectArrays(ctx context.Context, s Sampler, sch *Schema, baseQuery map[string]any, sampleSize int, logger *slog.Logger) {
	if sampleSize <= 0 || len(sch.Paths) == 0 {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}

	pending := map[string]bool{}
	for path := range sch.Paths {
		if sch.IsGeoPath(path) {
			continue
		}
		if t, ok := sch.typeAtPath(path); ok && t.Kind != KindList {
			pending[path] = true
		}
	}

	query := baseQuery
	if query == nil {
		query = map[string]any{"match_all": map[string]any{}}
	}
	page, err := s.OpenScroll(ctx, sch.Index, sampleScrollTTL, sampleSize, map[string]any{"query": query})
	if err != nil {
		logger.Debug("document sampling failed, keeping declared types",
			"index", sch.Index, "error", err)
		return
	}
	scrollID := page.ScrollID

	prefixes := declaredPrefixes(sch)
	detected := map[string]bool{}
	remaining := sampleSize
	for {
		for _, hit := range page.Hits {
			if remaining <= 0 {
				break
			}
			remaining--
			for path := range pending {
				v, ok := sampleValue(hit.Source, path)
				if !ok {
					continue
				}
				if _, isArr := v.([]any); isArr {
					detected[path] = true
					delete(pending, path)
				}
			}
			if !sch.UnmappedSeen && hasUnmappedContent(sch, prefixes, hit.Source, "") {
				sch.UnmappedSeen = true
			}
			// Every trackable condition resolved: stop sampling.
			if len(pending) == 0 && sch.UnmappedSeen {
				remaining = 0
			}
		}
		if remaining <= 0 || len(page.Hits) == 0 || scrollID == "" {
			break
		}
		page, err = s.ContinueScroll(ctx, scrollID, sampleScrollTTL)
		if err != nil {
			// Keep what the sample showed so far.
			logger.Debug("document sampling cut short",
				"index", sch.Index, "error", err)
			break
		}
		if page.ScrollID != "" {
			scrollID = page.ScrollID
		}
	}

	// The cursor expires on its own; a failed release is not worth more.
	if scrollID != "" {
		if err := s.ClearScroll(ctx, scrollID); err != nil {
			logger.Debug("failed to release sampling cursor",
				"index", sch.Index, "error", err)
		}
	}

	for path := range detected {
		sch.upgradeToList(path)
	}
}

// sampleValue walks a dotted path descending through objects only. An
// array met before the final segment stops the walk: that array belongs
// to the ancestor path and must not mark descendant paths as multi-valued.
func sampleValue(source map[string]any, path string) (any, bool) {
	var cur any = source
	for _, seg := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = obj[seg]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// declaredPrefixes returns every proper ancestor of the mapped paths, i.e.
// the object paths whose members are individually declared.
func declaredPrefixes(sch *Schema) map[string]bool {
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

// hasUnmappedContent reports whether obj holds any member outside the
// declared paths. Partially declared objects are descended into; fully
// declared paths (including opaque object columns) cover their content.
func hasUnmappedContent(sch *Schema, prefixes map[string]bool, obj map[string]any, prefix string) bool {
	for key, value := range obj {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if prefixes[path] {
			if sub, ok := value.(map[string]any); ok && hasUnmappedContent(sch, prefixes, sub, path) {
				return true
			}
			continue
		}
		if _, mapped := sch.Paths[path]; !mapped {
			return true
		}
	}
	return false
}

// typeAtPath resolves the relational type at a dotted path, descending into
// struct fields and list elements.
func (s *Schema) typeAtPath(path string) (Type, bool) {
	segments := strings.Split(path, ".")
	col, ok := s.Column(segments[0])
	if !ok {
		return Type{}, false
	}
	t := col.Type
	for _, seg := range segments[1:] {
		for t.Kind == KindList && t.Elem != nil {
			t = *t.Elem
		}
		f, ok := t.Field(seg)
		if !ok {
			return Type{}, false
		}
		t = f.Type
	}
	return t, true
}

// upgradeToList wraps the type at path into a list.
func (s *Schema) upgradeToList(path string) {
	segments := strings.Split(path, ".")
	for i := range s.Columns {
		if s.Columns[i].Name != segments[0] {
			continue
		}
		upgradeTypeAt(&s.Columns[i].Type, segments[1:])
		return
	}
}

func upgradeTypeAt(t *Type, segments []string) {
	if len(segments) == 0 {
		inner := *t
		*t = Type{Kind: KindList, Elem: &inner}
		return
	}
	for t.Kind == KindList && t.Elem != nil {
		t = t.Elem
	}
	for i := range t.Fields {
		if t.Fields[i].Name == segments[0] {
			upgradeTypeAt(&t.Fields[i].Type, segments[1:])
			return
		}
	}
}
