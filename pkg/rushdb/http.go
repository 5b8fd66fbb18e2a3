package rushdb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Header names sent with every request.
const (
	HeaderTransactionID = "X-Transaction-Id"
	HeaderRequestID     = "X-Request-Id"

	// HeaderToken carries the API key unchanged; Authorization repeats it
	// as a bearer token.
	HeaderToken = "token"
)

// Request is a single API call handed to a Transport. Headers already carry
// the credential, content type and transaction scope.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// Response is the raw answer returned by a Transport.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Transport executes requests against the API. Implementations must be safe
// for concurrent use if the Client is shared.
//
// A Transport returns an error only when no response was obtained; non-2xx
// responses are returned as a Response and classified by the Client.
type Transport interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, req *Request) (*Response, error)

// Do calls f(ctx, req).
func (f TransportFunc) Do(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// httpTransport sends requests over net/http.
type httpTransport struct {
	client  *http.Client
	baseURL string
}

func newHTTPTransport(client *http.Client, baseURL string) *httpTransport {
	return &httpTransport{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (t *httpTransport) Do(ctx context.Context, r *Request) (*Response, error) {
	u := t.baseURL + r.Path
	if len(r.Query) > 0 {
		u += "?" + r.Query.Encode()
	}

	var bodyReader io.Reader
	if r.Body != nil {
		bodyReader = bytes.NewReader(r.Body)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, u, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, vs := range r.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

// apiCall describes one request built by a service.
type apiCall struct {
	method string
	path   string
	// route is the path template used for span names and metric labels.
	route  string
	query  url.Values
	body   any
	result any
	opts   callOptions
}

// envelope is the common response wrapper of the API.
type envelope[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
	Total   int  `json:"total,omitempty"`
}

// do sends the call and decodes a 2xx body into call.result.
func (c *Client) do(ctx context.Context, call apiCall) error {
	var bodyData []byte
	if call.body != nil {
		var err error
		bodyData, err = json.Marshal(call.body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
	}

	req := &Request{
		Method: call.method,
		Path:   call.path,
		Query:  call.query,
		Header: c.headers(call.opts, bodyData != nil),
		Body:   bodyData,
	}
	route := call.route
	if route == "" {
		route = call.path
	}

	ctx, span := c.tracer.Start(ctx, "rushdb."+call.method+" "+route,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", call.method),
			attribute.String("url.path", call.path),
			attribute.String("rushdb.request_id", req.Header.Get(HeaderRequestID)),
		),
	)
	defer span.End()
	if txID := call.opts.txID; txID != "" {
		span.SetAttributes(attribute.String("rushdb.transaction_id", txID))
	}

	start := time.Now()
	resp, err := c.transport.Do(ctx, req)
	status := 0
	if err == nil {
		status = resp.StatusCode
		err = c.handleResponse(resp, call.result)
	} else {
		err = connectionError(err)
	}
	if e, ok := AsError(err); ok {
		e.Method, e.Path = call.method, call.path
	}
	elapsed := time.Since(start)

	c.metrics.recordRequest(call.method, route, status, err, elapsed)
	c.logger.LogAttrs(ctx, slog.LevelDebug, "rushdb request",
		slog.String("method", call.method),
		slog.String("path", call.path),
		slog.Int("status", status),
		slog.Duration("duration", elapsed),
		slog.String("request_id", req.Header.Get(HeaderRequestID)),
		slog.String("tx", call.opts.txID),
	)

	if status != 0 {
		span.SetAttributes(attribute.Int("http.response.status_code", status))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

// mutate sends a write call and decodes the acknowledgement.
func (c *Client) mutate(ctx context.Context, method, path, route string, body any, opts []CallOption) (*MutationResult, error) {
	var resp envelope[json.RawMessage]
	err := c.do(ctx, apiCall{
		method: method,
		path:   path,
		route:  route,
		body:   body,
		result: &resp,
		opts:   applyCallOptions(opts),
	})
	if err != nil {
		return nil, err
	}
	return newMutationResult(resp), nil
}

// headers builds the request headers for a call.
func (c *Client) headers(opts callOptions, hasBody bool) http.Header {
	h := make(http.Header)
	h.Set(HeaderToken, c.config.apiKey)
	h.Set("Authorization", "Bearer "+c.config.apiKey)
	h.Set("Accept", "application/json")
	h.Set("User-Agent", c.config.userAgent)
	h.Set(HeaderRequestID, uuid.NewString())
	if hasBody {
		h.Set("Content-Type", "application/json")
	}
	if opts.txID != "" {
		h.Set(HeaderTransactionID, opts.txID)
	}
	for k, vs := range opts.header {
		for _, v := range vs {
			h.Add(k, v)
		}
	}
	return h
}

// handleResponse classifies the status code and decodes the body.
func (c *Client) handleResponse(resp *Response, result any) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseError(resp.Body, resp.StatusCode)
	}

	if result == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, result); err != nil {
		return &Error{
			Kind:       KindDecode,
			Message:    err.Error(),
			HTTPStatus: resp.StatusCode,
			Cause:      err,
		}
	}
	return nil
}

// parseError builds an HTTP error from a non-2xx body.
func parseError(body []byte, status int) *Error {
	e := &Error{
		Kind:       KindHTTP,
		Message:    parseErrorMessage(body, status),
		HTTPStatus: status,
	}
	if trimmed := bytes.TrimSpace(body); json.Valid(trimmed) && len(trimmed) > 0 {
		e.Details = json.RawMessage(trimmed)
	}
	return e
}

// connectionError wraps a transport failure. Context errors stay reachable
// through errors.Is.
func connectionError(err error) error {
	if _, ok := AsError(err); ok {
		return err
	}
	msg := err.Error()
	var uerr *url.Error
	if errors.As(err, &uerr) {
		msg = uerr.Err.Error()
	}
	return &Error{
		Kind:    KindConnection,
		Message: msg,
		Cause:   err,
	}
}

// pathEscape joins escaped path segments onto a route prefix.
func pathEscape(prefix string, segments ...string) string {
	var b strings.Builder
	b.WriteString(prefix)
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}
