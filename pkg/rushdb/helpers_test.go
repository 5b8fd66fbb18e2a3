package rushdb_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/haivivi/rushdb-go/pkg/rushdb"
)

// recorder is a fake transport that records requests and answers with
// handler, or with {"success":true,"data":{}} when handler is nil.
type recorder struct {
	mu       sync.Mutex
	requests []*rushdb.Request
	handler  func(req *rushdb.Request) (*rushdb.Response, error)
}

func (r *recorder) Do(ctx context.Context, req *rushdb.Request) (*rushdb.Response, error) {
	r.mu.Lock()
	r.requests = append(r.requests, req)
	h := r.handler
	r.mu.Unlock()

	if h == nil {
		return jsonResponse(http.StatusOK, map[string]any{"success": true, "data": map[string]any{}}), nil
	}
	return h(req)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.requests)
}

func (r *recorder) last(t *testing.T) *rushdb.Request {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.requests, "no request recorded")
	return r.requests[len(r.requests)-1]
}

func (r *recorder) all() []*rushdb.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*rushdb.Request(nil), r.requests...)
}

func jsonResponse(status int, body any) *rushdb.Response {
	b, _ := json.Marshal(body)
	return &rushdb.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       b,
	}
}

func ok(data any) *rushdb.Response {
	return jsonResponse(http.StatusOK, map[string]any{"success": true, "data": data})
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, handler func(req *rushdb.Request) (*rushdb.Response, error), opts ...rushdb.Option) (*rushdb.Client, *recorder) {
	t.Helper()
	rec := &recorder{handler: handler}
	opts = append([]rushdb.Option{
		rushdb.WithTransport(rec),
		rushdb.WithLogger(quietLogger()),
	}, opts...)
	c, err := rushdb.NewClient("test-key", opts...)
	require.NoError(t, err)
	return c, rec
}

// decodeBody unmarshals a recorded request body into a generic value.
func decodeBody(t *testing.T, req *rushdb.Request) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(req.Body, &m))
	return m
}
