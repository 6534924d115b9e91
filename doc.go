// Package esbridge lets a relational query engine scan schemaless document
// collections as typed tables.
//
// The esbridge package bridges the two models by:
//   - Resolving collection mappings (merged across index patterns) into
//     typed relational schemas, with document sampling for multi-valued
//     field detection
//   - Translating relational filter predicates into native store queries,
//     refusing pushdowns that would silently match analyzed tokens
//   - Streaming matching documents through scroll cursors with retrying
//     HTTP transport and decoding them into relational rows
//   - Memoizing resolved schemas in a bind cache keyed by the full
//     connection identity
//
// Every resolved schema follows the same layout: the document identifier
// column first, one column per mapped field, and a trailing catch-all
// column holding the JSON of any document content the mapping does not
// declare.
//
// # Quick Start
//
//	conn, err := esbridge.New(esbridge.Config{Host: "localhost"})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer conn.Close()
//
//	sc, err := conn.Scan(ctx, esbridge.ScanSpec{
//		Index:  "logs-*",
//		Filter: &filter.Comparison{Field: "status", Op: filter.CompareEqual, Value: "active"},
//		Limit:  scan.NoLimit,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer sc.Close(ctx)
//
//	for sc.Next(ctx) {
//		row := sc.Row()
//		// row[0] is _id, then the mapped columns, then _unmapped_.
//	}
//	if err := sc.Err(); err != nil {
//		log.Fatal(err)
//	}
//
// Filters the store cannot evaluate are simply not pushed and must be
// re-checked by the engine; filters whose pushdown would be wrong (exact
// matches on analyzed text without a keyword companion) fail with
// filter.UnsafeFieldError instead.
package esbridge
