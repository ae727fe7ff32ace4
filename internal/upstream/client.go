// Package upstream talks HTTP to the person, device, account and transaction
// services. Every call goes through a per-service circuit breaker and comes
// back either as decoded JSON or as a categorized *Error.
package upstream

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

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"detector/internal/platform/metrics"
)

// TokenHeader carries the static API token on every request.
const TokenHeader = "token"

const (
	DefaultHTTPTimeout        = 10 * time.Second
	DefaultBreakerFailures    = 5
	DefaultBreakerOpenTimeout = 10 * time.Second
)

// Client is the shared HTTP plumbing of one upstream service.
type Client struct {
	service string
	baseURL string
	token   string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type settings struct {
	httpClient         *http.Client
	timeout            time.Duration
	breakerFailures    uint32
	breakerOpenTimeout time.Duration
	logger             *slog.Logger
	metrics            *metrics.Metrics
}

type Option func(*settings)

// WithHTTPClient replaces the default client. Its Timeout is left as is.
func WithHTTPClient(c *http.Client) Option {
	return func(s *settings) {
		s.httpClient = c
	}
}

// WithTimeout bounds every HTTP round trip, including reading the body.
func WithTimeout(timeout time.Duration) Option {
	return func(s *settings) {
		s.timeout = timeout
	}
}

// WithBreaker opens the breaker after failures consecutive failures and
// keeps it open for openTimeout before letting a probe through.
func WithBreaker(failures uint32, openTimeout time.Duration) Option {
	return func(s *settings) {
		s.breakerFailures = failures
		s.breakerOpenTimeout = openTimeout
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *settings) {
		s.metrics = m
	}
}

// NewClient builds the client for service rooted at baseURL.
func NewClient(service, baseURL, token string, opts ...Option) (*Client, error) {
	if service == "" {
		return nil, errors.New("service name is required")
	}
	if baseURL == "" {
		return nil, fmt.Errorf("%s base URL is required", service)
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("parse %s base URL: %w", service, err)
	}

	cfg := settings{
		timeout:            DefaultHTTPTimeout,
		breakerFailures:    DefaultBreakerFailures,
		breakerOpenTimeout: DefaultBreakerOpenTimeout,
		logger:             slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.timeout <= 0 {
		return nil, fmt.Errorf("http timeout must be positive, got %s", cfg.timeout)
	}
	if cfg.breakerFailures == 0 {
		return nil, errors.New("breaker failure threshold must be positive")
	}
	if cfg.breakerOpenTimeout <= 0 {
		return nil, fmt.Errorf("breaker open timeout must be positive, got %s", cfg.breakerOpenTimeout)
	}

	httpClient := cfg.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.timeout}
	}

	c := &Client{
		service: service,
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    httpClient,
		logger:  cfg.logger,
		metrics: cfg.metrics,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    service,
		Timeout: cfg.breakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.breakerFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !countsAsFailure(err)
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			c.logger.Warn("upstream circuit breaker changed state",
				"service", service,
				"from", from.String(),
				"to", to.String(),
			)
			c.metrics.SetBreakerState(service, int(to))
		},
	})
	c.metrics.SetBreakerState(service, int(gobreaker.StateClosed))

	return c, nil
}

// Service names the upstream in logs and metrics.
func (c *Client) Service() string {
	return c.service
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	start := time.Now()
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.roundTrip(ctx, method, path, query, body, out)
	})

	result := "ok"
	if err != nil {
		var ue *Error
		if !errors.As(err, &ue) {
			err = newError(categorizeTransport(err), c.service, "request not attempted", err)
		}
		result = string(CategoryOf(err))

		level := slog.LevelWarn
		if CategoryOf(err) == CategoryNotFound {
			level = slog.LevelDebug
		}
		c.logger.Log(ctx, level, "upstream request failed",
			"service", c.service,
			"method", method,
			"path", path,
			"category", result,
			"error", err,
		)
	}
	c.metrics.ObserveUpstream(c.service, result, time.Since(start))
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, query url.Values, body, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return newError(CategoryInternal, c.service, "encode request", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return newError(CategoryInternal, c.service, "build request", err)
	}
	req.Header.Set(TokenHeader, c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		return newError(categorizeTransport(err), c.service, method+" "+path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return newError(categorizeStatus(resp.StatusCode), c.service,
			fmt.Sprintf("%s %s returned %d", method, path, resp.StatusCode), nil)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return newError(CategoryBadData, c.service, "decode response", err)
	}
	return nil
}
