package rushdb

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"log/slog"
	"net/http"
)

// MaxBatchDelete caps the number of records removed by one delete-by-id
// batch request.
const MaxBatchDelete = 1000

// WriteOptions control record creation and import.
type WriteOptions struct {
	// ReturnResult makes the server echo the created records.
	ReturnResult bool `json:"returnResult"`

	// SuggestTypes makes the server infer property types from values.
	SuggestTypes bool `json:"suggestTypes"`
}

// DefaultWriteOptions returns {ReturnResult: true, SuggestTypes: true}.
func DefaultWriteOptions() *WriteOptions {
	return &WriteOptions{ReturnResult: true, SuggestTypes: true}
}

func writeOptions(o *WriteOptions) *WriteOptions {
	if o == nil {
		return DefaultWriteOptions()
	}
	return o
}

type writeRequest struct {
	Label   string        `json:"label"`
	Data    any           `json:"data"`
	Options *WriteOptions `json:"options"`
}

// RecordsService provides record operations.
type RecordsService struct {
	client *Client
}

// newRecordsService creates a new records service.
func newRecordsService(client *Client) *RecordsService {
	return &RecordsService{client: client}
}

// Create creates one record with label and data. A nil options uses
// DefaultWriteOptions.
func (s *RecordsService) Create(ctx context.Context, label string, data map[string]any, options *WriteOptions, opts ...CallOption) (*Record, error) {
	var resp envelope[map[string]any]
	err := s.client.do(ctx, apiCall{
		method: http.MethodPost,
		path:   "/records",
		body:   writeRequest{Label: label, Data: data, Options: writeOptions(options)},
		result: &resp,
		opts:   applyCallOptions(opts),
	})
	if err != nil {
		return nil, err
	}
	return s.client.newRecord(resp.Data), nil
}

// CreateMany imports a JSON payload as records with label. data is a list
// of objects or a nested object tree; nested objects become related records.
func (s *RecordsService) CreateMany(ctx context.Context, label string, data any, options *WriteOptions, opts ...CallOption) ([]*Record, error) {
	var resp envelope[[]map[string]any]
	err := s.client.do(ctx, apiCall{
		method: http.MethodPost,
		path:   "/records/import/json",
		body:   writeRequest{Label: label, Data: data, Options: writeOptions(options)},
		result: &resp,
		opts:   applyCallOptions(opts),
	})
	if err != nil {
		return nil, err
	}
	records := make([]*Record, len(resp.Data))
	for i, d := range resp.Data {
		records[i] = s.client.newRecord(d)
	}
	return records, nil
}

// ImportCSV imports CSV text as records with label. The CSV is parsed by the
// server; the raw response data is returned.
func (s *RecordsService) ImportCSV(ctx context.Context, label, csv string, options *WriteOptions, opts ...CallOption) (json.RawMessage, error) {
	var resp envelope[json.RawMessage]
	err := s.client.do(ctx, apiCall{
		method: http.MethodPost,
		path:   "/records/import/csv",
		body:   writeRequest{Label: label, Data: csv, Options: writeOptions(options)},
		result: &resp,
		opts:   applyCallOptions(opts),
	})
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// Set replaces all fields of record id with data.
func (s *RecordsService) Set(ctx context.Context, id string, data map[string]any, opts ...CallOption) (*MutationResult, error) {
	return s.client.mutate(ctx, http.MethodPut, pathEscape("/records", id), "/records/{id}", data, opts)
}

// Update merges data into the fields of record id.
func (s *RecordsService) Update(ctx context.Context, id string, data map[string]any, opts ...CallOption) (*MutationResult, error) {
	return s.client.mutate(ctx, http.MethodPatch, pathEscape("/records", id), "/records/{id}", data, opts)
}

// Attach creates relationships from source to every record in target.
// source and target accept the shapes described in ExtractIDs; source must
// resolve to exactly one id. Invalid shapes fail before any request is sent.
func (s *RecordsService) Attach(ctx context.Context, source, target any, options *AttachOptions, opts ...CallOption) (*MutationResult, error) {
	sourceID, targetIDs, err := resolveEndpoints(source, target)
	if err != nil {
		return nil, err
	}

	body := map[string]any{"targetIds": targetIDs}
	if options != nil {
		if options.Direction != "" {
			body["direction"] = options.Direction
		}
		if options.Type != "" {
			body["type"] = options.Type
		}
	}
	return s.client.mutate(ctx, http.MethodPost, pathEscape("/relationships", sourceID), "/relationships/{id}", body, opts)
}

// Detach removes relationships from source to every record in target.
func (s *RecordsService) Detach(ctx context.Context, source, target any, options *DetachOptions, opts ...CallOption) (*MutationResult, error) {
	sourceID, targetIDs, err := resolveEndpoints(source, target)
	if err != nil {
		return nil, err
	}

	body := map[string]any{"targetIds": targetIDs}
	if options != nil {
		if options.Direction != "" {
			body["direction"] = options.Direction
		}
		if t := options.typeOrTypes(); t != nil {
			body["typeOrTypes"] = t
		}
	}
	return s.client.mutate(ctx, http.MethodPut, pathEscape("/relationships", sourceID), "/relationships/{id}", body, opts)
}

func resolveEndpoints(source, target any) (string, []string, error) {
	sources, err := ExtractIDs(source)
	if err != nil {
		return "", nil, err
	}
	if len(sources) != 1 {
		return "", nil, &ValidationError{Field: "source", Reason: "must resolve to exactly one record", err: ErrInvalidTarget}
	}
	targets, err := ExtractIDs(target)
	if err != nil {
		return "", nil, err
	}
	return sources[0], targets, nil
}

// Delete deletes every record matching query.
func (s *RecordsService) Delete(ctx context.Context, query SearchQuery, opts ...CallOption) (*MutationResult, error) {
	return s.client.mutate(ctx, http.MethodPost, "/records/delete", "", query, opts)
}

// DeleteByID deletes records by id. A single id is deleted directly; several
// ids are deleted with one filtered batch request capped at MaxBatchDelete
// records.
func (s *RecordsService) DeleteByID(ctx context.Context, ids []string, opts ...CallOption) (*MutationResult, error) {
	switch len(ids) {
	case 0:
		return nil, &ValidationError{Field: "ids", Reason: "no record ids given"}
	case 1:
		if ids[0] == "" {
			return nil, &ValidationError{Field: "ids", Reason: "empty record id"}
		}
		return s.client.mutate(ctx, http.MethodDelete, pathEscape("/records", ids[0]), "/records/{id}", nil, opts)
	}

	body := struct {
		Limit int   `json:"limit"`
		Where Where `json:"where"`
	}{
		Limit: MaxBatchDelete,
		Where: Where{{Key: FieldID, Value: In(ids...)}},
	}
	return s.client.mutate(ctx, http.MethodPost, "/records/delete", "", body, opts)
}

// Find searches records matching query. With FromRecord the search is
// relative to that record's relationships.
//
// By default Find is lenient: any failure is logged and an empty result is
// returned. Use WithStrictFind on the client or Strict(true) on the call to
// receive the error instead.
func (s *RecordsService) Find(ctx context.Context, query SearchQuery, opts ...CallOption) (*SearchResult[*Record], error) {
	o := applyCallOptions(opts)
	res, err := s.find(ctx, query, o)
	if err == nil {
		return res, nil
	}

	strict := s.client.config.strictFind
	if o.strict != nil {
		strict = *o.strict
	}
	if strict {
		return nil, err
	}
	s.client.logger.LogAttrs(ctx, slog.LevelWarn, "rushdb find failed, returning empty result",
		slog.String("error", err.Error()))
	return newSearchResult[*Record](nil, 0, SearchQuery{}), nil
}

func (s *RecordsService) find(ctx context.Context, query SearchQuery, o callOptions) (*SearchResult[*Record], error) {
	path, route := "/records/search", ""
	if o.recordID != "" {
		path, route = pathEscape("/records", o.recordID)+"/search", "/records/{id}/search"
	}

	var resp envelope[[]map[string]any]
	err := s.client.do(ctx, apiCall{
		method: http.MethodPost,
		path:   path,
		route:  route,
		body:   query,
		result: &resp,
		opts:   o,
	})
	if err != nil {
		return nil, err
	}

	records := make([]*Record, len(resp.Data))
	for i, d := range resp.Data {
		records[i] = s.client.newRecord(d)
	}
	return newSearchResult(records, resp.Total, query), nil
}

// FindOne returns the first record matching query, or nil if none match.
// Errors are always returned.
func (s *RecordsService) FindOne(ctx context.Context, query SearchQuery, opts ...CallOption) (*Record, error) {
	res, err := s.Find(ctx, query.WithLimit(1), append(opts[:len(opts):len(opts)], Strict(true))...)
	if err != nil {
		return nil, err
	}
	if res.Empty() {
		return nil, nil
	}
	return res.Data[0], nil
}

// FindUnique returns the single record matching query. No match is an
// *Error for which IsNotFound reports true; more than one match wraps
// ErrNotUnique.
func (s *RecordsService) FindUnique(ctx context.Context, query SearchQuery, opts ...CallOption) (*Record, error) {
	res, err := s.Find(ctx, query.WithSkip(0).WithLimit(2), append(opts[:len(opts):len(opts)], Strict(true))...)
	if err != nil {
		return nil, err
	}
	switch {
	case res.Empty():
		return nil, notFound(http.MethodPost, "/records/search", "no record matches the unique query")
	case res.Len() > 1 || res.Total > 1:
		return nil, fmt.Errorf("%w: %d records match", ErrNotUnique, max(res.Len(), res.Total))
	}
	return res.Data[0], nil
}

// FindByID returns the record with id. A missing record is an *Error for
// which IsNotFound reports true.
func (s *RecordsService) FindByID(ctx context.Context, id string, opts ...CallOption) (*Record, error) {
	if id == "" {
		return nil, &ValidationError{Field: "id", Reason: "empty record id"}
	}
	path := pathEscape("/records", id)
	var resp envelope[map[string]any]
	err := s.client.do(ctx, apiCall{
		method: http.MethodGet,
		path:   path,
		route:  "/records/{id}",
		result: &resp,
		opts:   applyCallOptions(opts),
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, notFound(http.MethodGet, path, "record "+id+" not found")
	}
	return s.client.newRecord(resp.Data), nil
}

// FindByIDs returns the records with the given ids in one request. Ids the
// server does not know are left out.
func (s *RecordsService) FindByIDs(ctx context.Context, ids []string, opts ...CallOption) ([]*Record, error) {
	if len(ids) == 0 {
		return nil, &ValidationError{Field: "ids", Reason: "no record ids given"}
	}
	body := struct {
		IDs []string `json:"ids"`
	}{IDs: ids}
	var resp envelope[[]map[string]any]
	err := s.client.do(ctx, apiCall{
		method: http.MethodPost,
		path:   "/records",
		body:   body,
		result: &resp,
		opts:   applyCallOptions(opts),
	})
	if err != nil {
		return nil, err
	}
	records := make([]*Record, len(resp.Data))
	for i, d := range resp.Data {
		records[i] = s.client.newRecord(d)
	}
	return records, nil
}

func notFound(method, path, msg string) *Error {
	return &Error{
		Kind:       KindHTTP,
		Message:    msg,
		HTTPStatus: http.StatusNotFound,
		Method:     method,
		Path:       path,
	}
}

// Iterate pages through all records matching query, pageSize at a time,
// starting at query.Skip. Iteration stops at the first error, which is
// yielded.
func (s *RecordsService) Iterate(ctx context.Context, query SearchQuery, pageSize int, opts ...CallOption) iter.Seq2[*Record, error] {
	if pageSize <= 0 {
		pageSize = 100
	}
	o := applyCallOptions(opts)
	return func(yield func(*Record, error) bool) {
		q := query.WithLimit(pageSize)
		skip := 0
		if query.Skip != nil {
			skip = *query.Skip
		}
		for {
			q = q.WithSkip(skip)
			page, err := s.find(ctx, q, o)
			if err != nil {
				yield(nil, err)
				return
			}
			for _, rec := range page.Data {
				if !yield(rec, nil) {
					return
				}
			}
			if page.Empty() || !page.MayHaveMore() {
				return
			}
			skip += page.Len()
		}
	}
}
