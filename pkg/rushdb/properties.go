package rushdb

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// PropertiesService provides property introspection.
type PropertiesService struct {
	client *Client
}

// newPropertiesService creates a new properties service.
func newPropertiesService(client *Client) *PropertiesService {
	return &PropertiesService{client: client}
}

// Find lists properties of the records matching query.
func (s *PropertiesService) Find(ctx context.Context, query SearchQuery, opts ...CallOption) ([]Property, error) {
	var resp envelope[[]Property]
	err := s.client.do(ctx, apiCall{
		method: http.MethodPost,
		path:   "/properties/search",
		body:   query,
		result: &resp,
		opts:   applyCallOptions(opts),
	})
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// FindByID returns a property by id.
func (s *PropertiesService) FindByID(ctx context.Context, id string, opts ...CallOption) (*Property, error) {
	var resp envelope[Property]
	err := s.client.do(ctx, apiCall{
		method: http.MethodGet,
		path:   pathEscape("/properties", id),
		route:  "/properties/{id}",
		result: &resp,
		opts:   applyCallOptions(opts),
	})
	if err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// Delete deletes a property and its values from all records.
func (s *PropertiesService) Delete(ctx context.Context, id string, opts ...CallOption) (*MutationResult, error) {
	return s.client.mutate(ctx, http.MethodDelete, pathEscape("/properties", id), "/properties/{id}", nil, opts)
}

// ValuesOptions page and sort property values.
type ValuesOptions struct {
	Sort  Direction
	Skip  *int
	Limit *int

	// Query restricts the values to records matching it.
	Query SearchQuery
}

// Values returns the distinct values of property id.
func (s *PropertiesService) Values(ctx context.Context, id string, options *ValuesOptions, opts ...CallOption) (*PropertyValues, error) {
	if options == nil {
		options = &ValuesOptions{}
	}
	q := url.Values{}
	if options.Sort != "" {
		q.Set("sort", string(options.Sort))
	}
	if options.Skip != nil {
		q.Set("skip", strconv.Itoa(*options.Skip))
	}
	if options.Limit != nil {
		q.Set("limit", strconv.Itoa(*options.Limit))
	}

	var resp envelope[PropertyValues]
	err := s.client.do(ctx, apiCall{
		method: http.MethodPost,
		path:   pathEscape("/properties", id) + "/values",
		route:  "/properties/{id}/values",
		query:  q,
		body:   options.Query,
		result: &resp,
		opts:   applyCallOptions(opts),
	})
	if err != nil {
		return nil, err
	}
	return &resp.Data, nil
}
