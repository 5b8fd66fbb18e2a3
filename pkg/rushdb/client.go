package rushdb

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	// DefaultBaseURL is the default RushDB API base URL.
	DefaultBaseURL = "https://api.rushdb.com/api/v1"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// Version is reported in the User-Agent header.
	Version = "0.4.0"

	instrumentationName = "github.com/haivivi/rushdb-go/pkg/rushdb"
)

// Client is the RushDB API client.
type Client struct {
	// Records provides record CRUD, search, import and relationship operations.
	Records *RecordsService

	// Properties provides property introspection.
	Properties *PropertiesService

	// Labels provides label listing.
	Labels *LabelsService

	// Relationships provides relationship search.
	Relationships *RelationshipsService

	// Transactions begins and finishes transactions.
	Transactions *TransactionsService

	// Query runs raw queries.
	Query *QueryService

	config    *clientConfig
	transport Transport
	logger    *slog.Logger
	tracer    trace.Tracer
	metrics   *clientMetrics
	token     *TokenSettings
}

// clientConfig holds the client configuration.
type clientConfig struct {
	apiKey         string
	baseURL        string
	httpClient     *http.Client
	timeout        time.Duration
	transport      Transport
	logger         *slog.Logger
	tracerProvider trace.TracerProvider
	registerer     prometheus.Registerer
	strictFind     bool
	userAgent      string
}

// Option is a function that configures the client.
type Option func(*clientConfig)

// WithBaseURL sets a custom base URL, including any versioned API segment.
func WithBaseURL(url string) Option {
	return func(c *clientConfig) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client for the default transport.
func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) {
		c.httpClient = client
	}
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *clientConfig) {
		c.timeout = timeout
	}
}

// WithTransport replaces the HTTP transport. The base URL, HTTP client and
// timeout options are ignored when a transport is set.
func WithTransport(t Transport) Option {
	return func(c *clientConfig) {
		c.transport = t
	}
}

// WithLogger sets the logger used for request and degradation logs.
func WithLogger(logger *slog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = logger
	}
}

// WithTracerProvider enables OpenTelemetry spans for every request.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *clientConfig) {
		c.tracerProvider = tp
	}
}

// WithMetrics registers Prometheus request and transaction metrics on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *clientConfig) {
		c.registerer = reg
	}
}

// WithStrictFind makes Records.Find return errors instead of degrading to an
// empty result.
func WithStrictFind(strict bool) Option {
	return func(c *clientConfig) {
		c.strictFind = strict
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *clientConfig) {
		c.userAgent = ua
	}
}

// NewClient creates a new RushDB API client.
//
// The apiKey is sent as a bearer credential with every request.
//
// Example:
//
//	client, err := rushdb.NewClient("your-api-key")
//	client, err := rushdb.NewClient("your-api-key", rushdb.WithStrictFind(true))
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		apiKey:    apiKey,
		baseURL:   DefaultBaseURL,
		timeout:   DefaultTimeout,
		userAgent: "rushdb-go/" + Version,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.apiKey == "" {
		return nil, &ValidationError{Field: "api key", Reason: "must not be empty"}
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	if cfg.tracerProvider == nil {
		cfg.tracerProvider = noop.NewTracerProvider()
	}

	transport := cfg.transport
	if transport == nil {
		if !strings.HasPrefix(cfg.baseURL, "http://") && !strings.HasPrefix(cfg.baseURL, "https://") {
			return nil, &ValidationError{Field: "base url", Reason: fmt.Sprintf("%q is not an http(s) URL", cfg.baseURL)}
		}
		if cfg.httpClient == nil {
			cfg.httpClient = &http.Client{
				Timeout: cfg.timeout,
			}
		}
		transport = newHTTPTransport(cfg.httpClient, cfg.baseURL)
	}

	metrics, err := newClientMetrics(cfg.registerer)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	c := &Client{
		config:    cfg,
		transport: transport,
		logger:    cfg.logger,
		tracer:    cfg.tracerProvider.Tracer(instrumentationName, trace.WithInstrumentationVersion(Version)),
		metrics:   metrics,
	}
	if settings, _, ok := ParseToken(apiKey); ok {
		c.token = &settings
	}

	// Initialize services
	c.Records = newRecordsService(c)
	c.Properties = newPropertiesService(c)
	c.Labels = newLabelsService(c)
	c.Relationships = newRelationshipsService(c)
	c.Transactions = newTransactionsService(c)
	c.Query = newQueryService(c)

	return c, nil
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.config.baseURL
}

// StrictFind reports whether Records.Find propagates errors by default.
func (c *Client) StrictFind() bool {
	return c.config.strictFind
}

// TokenSettings returns the plan settings encoded in a prefixed API key.
func (c *Client) TokenSettings() (TokenSettings, bool) {
	if c.token == nil {
		return TokenSettings{}, false
	}
	return *c.token, true
}

// Ping reports whether the server is reachable and accepts the credential.
// It never returns an error; failures are logged at debug level.
func (c *Client) Ping(ctx context.Context) bool {
	err := c.do(ctx, apiCall{
		method: http.MethodGet,
		path:   "/settings",
	})
	if err != nil {
		c.logger.DebugContext(ctx, "rushdb ping failed", "error", err)
		return false
	}
	return true
}
