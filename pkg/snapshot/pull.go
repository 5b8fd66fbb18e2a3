package snapshot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/haivivi/rushdb-go/pkg/rushdb"
)

// DefaultPageSize is the page size Pull uses when none is given.
const DefaultPageSize = 100

// PullOptions configures Pull.
type PullOptions struct {
	// PageSize is the number of records or relationships per request.
	PageSize int

	// SkipRelationships copies records only.
	SkipRelationships bool

	// CallOptions are passed to every API call, e.g. rushdb.InTx.
	CallOptions []rushdb.CallOption

	Logger *slog.Logger
}

// PullStats reports what Pull copied.
type PullStats struct {
	Records       int `json:"records"`
	Relationships int `json:"relationships"`
}

// Pull copies every page of records matching query into store, followed by
// the relationships between records matching the same where-clause and
// labels. Records already in store are overwritten.
func Pull(ctx context.Context, client *rushdb.Client, query rushdb.SearchQuery, store Store, opts *PullOptions) (*PullStats, error) {
	if opts == nil {
		opts = &PullOptions{}
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	stats := &PullStats{}
	for rec, err := range client.Records.Iterate(ctx, query, pageSize, opts.CallOptions...) {
		if err != nil {
			return stats, fmt.Errorf("snapshot: pull records: %w", err)
		}
		if err := store.PutRecord(ctx, rec); err != nil {
			return stats, err
		}
		stats.Records++
	}
	logger.Debug("pulled records", "count", stats.Records)

	if opts.SkipRelationships {
		return stats, nil
	}

	relQuery := rushdb.SearchQuery{Where: query.Where, Labels: query.Labels}
	skip := 0
	for {
		page, err := client.Relationships.Find(ctx, relQuery, &rushdb.Pagination{
			Limit: &pageSize,
			Skip:  &skip,
		}, opts.CallOptions...)
		if err != nil {
			return stats, fmt.Errorf("snapshot: pull relationships: %w", err)
		}
		for _, rel := range page.Data {
			if err := store.PutRelationship(ctx, rel); err != nil {
				return stats, err
			}
			stats.Relationships++
		}
		if page.Empty() || !page.MayHaveMore() {
			break
		}
		skip += page.Len()
	}
	logger.Debug("pulled relationships", "count", stats.Relationships)
	return stats, nil
}
