package hypixel

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultBaseURL is the public Hypixel API host
	DefaultBaseURL = "https://api.hypixel.net"

	apiKeyHeader = "API-Key"
	tracerName   = "github.com/alexbotov/hypixel/pkg/hypixel"
)

// ClientConfig holds the configuration for the Hypixel client
type ClientConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Logger  *slog.Logger
}

// DefaultConfig returns a default client configuration
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL: DefaultBaseURL,
		Timeout: 30 * time.Second,
	}
}

// Client is a Hypixel API client
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
	logger     *slog.Logger
	tracer     trace.Tracer
}

// NewClient creates a new Hypixel API client
func NewClient(config *ClientConfig) *Client {
	return NewClientWithHTTPClient(config, &http.Client{Timeout: config.Timeout})
}

// NewClientWithHTTPClient creates a new Hypixel API client with a custom HTTP client
func NewClientWithHTTPClient(config *ClientConfig, httpClient *http.Client) *Client {
	cfg := *config
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		config:     &cfg,
		httpClient: httpClient,
		logger:     logger.With("component", "hypixel"),
		tracer:     otel.Tracer(tracerName),
	}
}

// Players returns the player operations
func (c *Client) Players() *PlayerManager {
	return &PlayerManager{client: c}
}

// Skyblock returns the SkyBlock operations
func (c *Client) Skyblock() *SkyblockManager {
	return &SkyblockManager{client: c}
}

// request performs one GET against the API and returns the parsed envelope once
// its success flag is true. The full body is buffered before parsing.
func (c *Client) request(ctx context.Context, endpoint string, query url.Values, requiresKey bool) (gjson.Result, error) {
	ctx, span := c.tracer.Start(ctx, "hypixel.request",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("hypixel.endpoint", endpoint)),
	)
	defer span.End()

	start := time.Now()
	status, doc, err := c.fetch(ctx, endpoint, query, requiresKey)

	span.SetAttributes(attribute.Int("http.response.status_code", status))
	logAttrs := []any{
		"endpoint", endpoint,
		"status", status,
		"duration", time.Since(start),
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.DebugContext(ctx, "hypixel request failed", append(logAttrs, "error", err)...)
		return gjson.Result{}, err
	}

	c.logger.DebugContext(ctx, "hypixel request", logAttrs...)
	return doc, nil
}

func (c *Client) fetch(ctx context.Context, endpoint string, query url.Values, requiresKey bool) (int, gjson.Result, error) {
	target := c.config.BaseURL + "/" + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, gjson.Result{}, &TransportError{Endpoint: endpoint, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if requiresKey {
		req.Header.Set(apiKeyHeader, c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, gjson.Result{}, &TransportError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, gjson.Result{}, &TransportError{Endpoint: endpoint, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	doc, err := decodeEnvelope(endpoint, resp.StatusCode, body)
	return resp.StatusCode, doc, err
}

// decodeEnvelope parses a buffered body and checks its success flag. Only the
// JSON literal true counts as success.
func decodeEnvelope(endpoint string, status int, body []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, &MalformedResponseError{Endpoint: endpoint, StatusCode: status}
	}

	doc := gjson.ParseBytes(body)
	if doc.Get("success").Type != gjson.True {
		rejected := &UpstreamRejectedError{Endpoint: endpoint, StatusCode: status}
		if cause := doc.Get("cause"); cause.Type == gjson.String {
			rejected.Cause = cause.Str
		}
		return gjson.Result{}, rejected
	}
	return doc, nil
}

