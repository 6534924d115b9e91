package schema

import (
	"context"
	"fmt"
	"log/slog"
)

// Store is the slice of the transport client schema resolution needs.
type Store interface {
	Sampler
	GetMapping(ctx context.Context, index string) ([]byte, error)
}

// Resolve builds the relational schema of an index name or pattern.
//
// Resolution has two phases: the declared mapping fixes every field's type,
// then document sampling widens multi-valued fields to lists. baseQuery,
// when set, scopes the sampled documents the same way it scopes scans.
func Resolve(ctx context.Context, store Store, index string, baseQuery map[string]any, sampleSize int, logger *slog.Logger) (*Schema, error) {
	data, err := store.GetMapping(ctx, index)
	if err != nil {
		return nil, fmt.Errorf("fetch mapping for %q: %w", index, err)
	}
	sch, err := ParseMapping(data, index)
	if err != nil {
		return nil, err
	}
	DetectArrays(ctx, store, sch, baseQuery, sampleSize, logger)
	if logger != nil {
		logger.Debug("resolved schema",
			"index", index, "columns", len(sch.Columns), "unmapped_seen", sch.UnmappedSeen)
	}
	return sch, nil
}
