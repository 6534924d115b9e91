// Package filter models relational filter predicates and translates them
// into store-native query clauses.
//
// # Predicate model
//
// Predicates form a closed tree: comparisons, conjunctions, IN lists,
// null checks, LIKE patterns, nested struct access, spatial relations,
// and Opaque leaves for conditions the store cannot evaluate. Trees are built by the host engine
// integration and handed to a Translator together with field Metadata
// derived from the resolved schema.
//
// # Translation contract
//
// Translate returns a superset-safe clause: pushing it must never drop a
// row the original condition would keep. Untranslatable parts of an AND
// are simply omitted (the engine re-checks rows), while an untranslatable
// child of an OR poisons the whole disjunction. Conditions on analyzed
// full-text fields without a keyword companion fail hard with
// UnsafeFieldError instead of matching on analyzed tokens.
//
// # Example
//
//	tr := filter.NewTranslator(meta)
//	clause, err := tr.Translate(&filter.Conjunction{
//		Op: filter.ConjunctionAnd,
//		Children: []filter.Predicate{
//			&filter.Comparison{Field: "status", Op: filter.CompareEqual, Value: "active"},
//			&filter.Pattern{Field: "name", Pattern: "Ann%"},
//		},
//	})
package filter
