package filter

import "fmt"

// Translator converts predicate trees into store query clauses.
// The produced clauses are plain map/slice trees ready for JSON encoding
// inside a search request body.
type Translator struct {
	meta Metadata
}

// NewTranslator creates a translator over the given field metadata.
func NewTranslator(meta Metadata) *Translator {
	if meta.Types == nil {
		meta.Types = map[string]string{}
	}
	if meta.TextFields == nil {
		meta.TextFields = map[string]bool{}
	}
	if meta.KeywordCompanions == nil {
		meta.KeywordCompanions = map[string]bool{}
	}
	return &Translator{meta: meta}
}

// Translate converts a predicate tree to a query clause.
//
// A nil clause with a nil error means the predicate (or every reachable
// part of it) cannot be expressed store-side; the caller must keep
// evaluating the original condition on returned rows. An UnsafeFieldError
// is returned when a condition targets a full-text field without a keyword
// companion: such a pushdown would be wrong, not merely incomplete.
func (t *Translator) Translate(p Predicate) (map[string]any, error) {
	if p == nil {
		return nil, nil
	}

	switch pr := p.(type) {
	case *Comparison:
		return t.translateComparison(pr)
	case *Conjunction:
		return t.translateConjunction(pr)
	case *In:
		return t.translateIn(pr)
	case *IsNull:
		return mustNot(existsClause(pr.Field)), nil
	case *IsNotNull:
		return existsClause(pr.Field), nil
	case *Pattern:
		return t.translatePattern(pr)
	case *Nested:
		return t.translateNested(pr)
	case *GeoRelation:
		return t.translateGeoRelation(pr)
	case *GeoDistance:
		return t.translateGeoDistance(pr)
	case *Opaque:
		return nil, nil
	default:
		return nil, nil
	}
}

// Validate walks a predicate tree and reports unsafe full-text conditions
// without building a query. Callers use it to reject a plan before any
// request is issued.
func Validate(p Predicate, meta Metadata) error {
	_, err := NewTranslator(meta).Translate(p)
	return err
}

func (t *Translator) translateComparison(c *Comparison) (map[string]any, error) {
	field, err := t.meta.exactField(c.Field)
	if err != nil {
		return nil, err
	}

	switch c.Op {
	case CompareEqual:
		return termClause(field, c.Value), nil
	case CompareNotEqual:
		return mustNot(termClause(field, c.Value)), nil
	case CompareLessThan:
		return rangeClause(field, "lt", c.Value), nil
	case CompareLessThanEq:
		return rangeClause(field, "lte", c.Value), nil
	case CompareGreaterThan:
		return rangeClause(field, "gt", c.Value), nil
	case CompareGreaterThanEq:
		return rangeClause(field, "gte", c.Value), nil
	default:
		return nil, fmt.Errorf("unknown comparison operator %q", c.Op)
	}
}

// translateConjunction combines child clauses.
//
// For AND, untranslatable children are dropped: the remaining clauses
// select a superset of the matching documents and the engine re-applies
// the full condition. For OR, a single untranslatable child makes the
// whole disjunction untranslatable, since dropping it would lose rows.
func (t *Translator) translateConjunction(c *Conjunction) (map[string]any, error) {
	var parts []any
	for _, child := range c.Children {
		clause, err := t.Translate(child)
		if err != nil {
			return nil, err
		}
		if clause == nil {
			if c.Op == ConjunctionOr {
				return nil, nil
			}
			continue
		}
		parts = append(parts, clause)
	}

	if len(parts) == 0 {
		return nil, nil
	}
	if len(parts) == 1 {
		return parts[0].(map[string]any), nil
	}

	if c.Op == ConjunctionOr {
		return map[string]any{
			"bool": map[string]any{
				"should":               parts,
				"minimum_should_match": 1,
			},
		}, nil
	}
	return map[string]any{
		"bool": map[string]any{"must": parts},
	}, nil
}

// translateNested resolves one level of struct access: the wrapper's field
// becomes a path prefix on the inner predicate, then translation recurses.
// Stacked wrappers unwrap one segment per call, so arbitrarily deep access
// composes.
func (t *Translator) translateNested(n *Nested) (map[string]any, error) {
	if n.Inner == nil {
		return nil, nil
	}
	return t.Translate(prefixFields(n.Inner, n.Field))
}

// prefixFields returns a copy of p with every field path extended below
// prefix. The input tree is never modified.
func prefixFields(p Predicate, prefix string) Predicate {
	switch pr := p.(type) {
	case *Comparison:
		c := *pr
		c.Field = prefix + "." + c.Field
		return &c
	case *Conjunction:
		children := make([]Predicate, len(pr.Children))
		for i, child := range pr.Children {
			children[i] = prefixFields(child, prefix)
		}
		return &Conjunction{Op: pr.Op, Children: children}
	case *In:
		c := *pr
		c.Field = prefix + "." + c.Field
		return &c
	case *IsNull:
		return &IsNull{Field: prefix + "." + pr.Field}
	case *IsNotNull:
		return &IsNotNull{Field: prefix + "." + pr.Field}
	case *Pattern:
		c := *pr
		c.Field = prefix + "." + c.Field
		return &c
	case *Nested:
		c := *pr
		c.Field = prefix + "." + c.Field
		return &c
	case *GeoRelation:
		c := *pr
		c.Field = prefix + "." + c.Field
		return &c
	case *GeoDistance:
		c := *pr
		c.Field = prefix + "." + c.Field
		return &c
	default:
		return p
	}
}

func (t *Translator) translateIn(in *In) (map[string]any, error) {
	field, err := t.meta.exactField(in.Field)
	if err != nil {
		return nil, err
	}
	values := in.Values
	if values == nil {
		values = []any{}
	}
	clause := map[string]any{
		"terms": map[string]any{field: values},
	}
	if in.Negate {
		return mustNot(clause), nil
	}
	return clause, nil
}

func termClause(field string, value any) map[string]any {
	return map[string]any{
		"term": map[string]any{
			field: map[string]any{"value": value},
		},
	}
}

func rangeClause(field, bound string, value any) map[string]any {
	return map[string]any{
		"range": map[string]any{
			field: map[string]any{bound: value},
		},
	}
}

func existsClause(field string) map[string]any {
	return map[string]any{
		"exists": map[string]any{"field": field},
	}
}

func mustNot(clause map[string]any) map[string]any {
	return map[string]any{
		"bool": map[string]any{"must_not": []any{clause}},
	}
}
