// Package transport implements the HTTP client for the document store.
//
// The client classifies failures before retrying: transport-level errors
// and the transient status codes 429, 500, 502, 503 and 504 are retried
// with exponential backoff, while any other non-success status fails the
// request immediately. Every attempt, successful or not, is reported to a
// TraceSink so callers can audit the exact exchanges a query produced.
//
// Scroll cursors are exposed as explicit Open/Continue/Clear calls; the
// scan engine layers row iteration and lifecycle on top of them.
package transport
