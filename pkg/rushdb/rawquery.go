package rushdb

import (
	"context"
	"encoding/json"
	"net/http"
)

// QueryService runs raw queries in the database's native query language.
type QueryService struct {
	client *Client
}

// newQueryService creates a new query service.
func newQueryService(client *Client) *QueryService {
	return &QueryService{client: client}
}

// Raw runs query with params and returns the response data unparsed.
func (s *QueryService) Raw(ctx context.Context, query string, params map[string]any, opts ...CallOption) (json.RawMessage, error) {
	if query == "" {
		return nil, &ValidationError{Field: "query", Reason: "must not be empty"}
	}

	req := struct {
		Query  string         `json:"query"`
		Params map[string]any `json:"params,omitempty"`
	}{
		Query:  query,
		Params: params,
	}

	var resp envelope[json.RawMessage]
	err := s.client.do(ctx, apiCall{
		method: http.MethodPost,
		path:   "/query/raw",
		body:   req,
		result: &resp,
		opts:   applyCallOptions(opts),
	})
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}
