package rushdb

import (
	"encoding/json"
	"fmt"
	"iter"
)

// SearchResult is one page of search results.
type SearchResult[T any] struct {
	// Data holds the returned page.
	Data []T `json:"data"`

	// Total is the number of matches on the server, which may exceed len(Data).
	Total int `json:"total"`

	// Query is the query that produced this page.
	Query SearchQuery `json:"query"`

	totalReported bool
}

// newSearchResult builds a page. A zero total means the server did not
// report one and the page length is used.
func newSearchResult[T any](data []T, total int, query SearchQuery) *SearchResult[T] {
	if data == nil {
		data = []T{}
	}
	reported := total != 0
	if !reported {
		total = len(data)
	}
	return &SearchResult[T]{Data: data, Total: total, Query: query, totalReported: reported}
}

// Skip returns the number of records skipped before this page.
func (r *SearchResult[T]) Skip() int {
	if r.Query.Skip == nil {
		return 0
	}
	return *r.Query.Skip
}

// Limit returns the page size requested, if any.
func (r *SearchResult[T]) Limit() (int, bool) {
	if r.Query.Limit == nil {
		return 0, false
	}
	return *r.Query.Limit, true
}

// HasMore reports whether results exist beyond this page.
func (r *SearchResult[T]) HasMore() bool {
	return r.Total > r.Skip()+len(r.Data)
}

// MayHaveMore reports whether another page should be requested. It is
// HasMore when the server reported a total; otherwise a page that filled
// its limit may be followed by more.
func (r *SearchResult[T]) MayHaveMore() bool {
	if r.totalReported {
		return r.HasMore()
	}
	limit, ok := r.Limit()
	return ok && limit > 0 && len(r.Data) >= limit
}

// Len returns the number of items in this page.
func (r *SearchResult[T]) Len() int {
	return len(r.Data)
}

// Empty reports whether the page has no items.
func (r *SearchResult[T]) Empty() bool {
	return len(r.Data) == 0
}

// All iterates over the page.
func (r *SearchResult[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i, v := range r.Data {
			if !yield(i, v) {
				return
			}
		}
	}
}

// PageInfo summarises pagination state.
type PageInfo struct {
	Total   int  `json:"total"`
	Loaded  int  `json:"loaded"`
	HasMore bool `json:"hasMore"`
	Skip    int  `json:"skip"`
	Limit   *int `json:"limit,omitempty"`
}

// PageInfo returns the pagination state of this page.
func (r *SearchResult[T]) PageInfo() PageInfo {
	info := PageInfo{
		Total:   r.Total,
		Loaded:  len(r.Data),
		HasMore: r.HasMore(),
		Skip:    r.Skip(),
	}
	if l, ok := r.Limit(); ok {
		info.Limit = &l
	}
	return info
}

func (r *SearchResult[T]) String() string {
	return fmt.Sprintf("SearchResult(count=%d, total=%d)", len(r.Data), r.Total)
}

// MutationResult is the acknowledgement returned by write endpoints.
type MutationResult struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func newMutationResult(env envelope[json.RawMessage]) *MutationResult {
	res := &MutationResult{Success: env.Success, Data: env.Data}
	var msg struct {
		Message string `json:"message"`
	}
	if len(env.Data) > 0 && json.Unmarshal(env.Data, &msg) == nil {
		res.Message = msg.Message
	}
	return res
}
