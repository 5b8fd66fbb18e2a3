package rushdb

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// Pagination pages relationship searches through the query string.
type Pagination struct {
	Limit *int
	Skip  *int
}

// RelationshipsService provides relationship search.
type RelationshipsService struct {
	client *Client
}

// newRelationshipsService creates a new relationships service.
func newRelationshipsService(client *Client) *RelationshipsService {
	return &RelationshipsService{client: client}
}

// Find lists relationships between records matching query.
func (s *RelationshipsService) Find(ctx context.Context, query SearchQuery, page *Pagination, opts ...CallOption) (*SearchResult[Relationship], error) {
	q := url.Values{}
	if page != nil {
		if page.Limit != nil {
			q.Set("limit", strconv.Itoa(*page.Limit))
		}
		if page.Skip != nil {
			q.Set("skip", strconv.Itoa(*page.Skip))
		}
	}

	var resp envelope[[]Relationship]
	err := s.client.do(ctx, apiCall{
		method: http.MethodPost,
		path:   "/relationships/search",
		query:  q,
		body:   query,
		result: &resp,
		opts:   applyCallOptions(opts),
	})
	if err != nil {
		return nil, err
	}

	// Page bounds travel in the query string, so reflect them in the
	// result's query for HasMore.
	if page != nil {
		if page.Skip != nil {
			query = query.WithSkip(*page.Skip)
		}
		if page.Limit != nil {
			query = query.WithLimit(*page.Limit)
		}
	}
	return newSearchResult(resp.Data, resp.Total, query), nil
}
