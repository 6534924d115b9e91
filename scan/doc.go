// Package scan executes compiled scans against the document store and
// decodes hits into relational rows.
//
// Compile turns a schema, an optional predicate and an optional native base
// query into a search body with a paging plan: when limit+offset is small
// enough the scan requests exactly that many rows in a single page,
// otherwise it pages through a scroll cursor at the configured page size.
// Offsets are applied by discarding rows client-side because the cursor
// protocol cannot skip server-side.
//
// Scanner exposes the database/sql-style Next/Row/Err/Close pull loop and
// guarantees the cursor is released exactly once, with release failures
// logged and swallowed.
package scan
