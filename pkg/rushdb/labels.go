package rushdb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
)

// LabelCount is a label with the number of records carrying it.
type LabelCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// LabelsService provides label listing.
type LabelsService struct {
	client *Client
}

// newLabelsService creates a new labels service.
func newLabelsService(client *Client) *LabelsService {
	return &LabelsService{client: client}
}

// Find lists the labels of records matching query, sorted by name.
func (s *LabelsService) Find(ctx context.Context, query SearchQuery, opts ...CallOption) ([]LabelCount, error) {
	var resp envelope[json.RawMessage]
	err := s.client.do(ctx, apiCall{
		method: http.MethodPost,
		path:   "/labels/search",
		body:   query,
		result: &resp,
		opts:   applyCallOptions(opts),
	})
	if err != nil {
		return nil, err
	}
	labels, err := decodeLabels(resp.Data)
	if err != nil {
		return nil, &Error{Kind: KindDecode, Message: err.Error(), Method: http.MethodPost, Path: "/labels/search", Cause: err}
	}
	return labels, nil
}

// decodeLabels accepts a label→count object or a list of label names.
func decodeLabels(data json.RawMessage) ([]LabelCount, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return []LabelCount{}, nil
	}

	var labels []LabelCount
	switch data[0] {
	case '{':
		var counts map[string]int
		if err := json.Unmarshal(data, &counts); err != nil {
			return nil, fmt.Errorf("labels: %w", err)
		}
		for name, n := range counts {
			labels = append(labels, LabelCount{Name: name, Count: n})
		}
	case '[':
		var names []string
		if err := json.Unmarshal(data, &names); err != nil {
			return nil, fmt.Errorf("labels: %w", err)
		}
		for _, name := range names {
			labels = append(labels, LabelCount{Name: name})
		}
	default:
		return nil, fmt.Errorf("labels: unexpected payload %.32s", data)
	}

	sort.Slice(labels, func(i, j int) bool { return labels[i].Name < labels[j].Name })
	return labels, nil
}
