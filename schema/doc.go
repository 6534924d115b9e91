// Package schema resolves document collection mappings into relational
// schemas.
//
// A schema is built in two phases. The declared mapping is parsed into
// typed columns, with object fields becoming structs, nested fields
// becoming lists of structs, and untyped content staying opaque JSON.
// Because the mapping cannot express multi-valued fields, a bounded
// document sample then upgrades columns observed as arrays to list types;
// the sampling pass only ever widens types and never fails resolution.
//
// When an index pattern matches several collections their mappings are
// merged: shared fields must agree on type, and struct field sets are
// unioned preserving first-seen order. A disagreement is a hard error
// naming both collections and both types.
package schema
