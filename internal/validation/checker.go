package validation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"detector/internal/platform/async"
	"detector/internal/platform/metrics"
	"detector/internal/resolver"
	"detector/pkg/platform/sentinel"
)

// DefaultTimeout bounds each asynchronous multi-key check.
const DefaultTimeout = 5 * time.Second

// Registry is the lookup surface of an authoritative registry. Get returns
// an error wrapping sentinel.ErrNotFound when the key is unknown; GetMany
// omits unknown keys from its result.
type Registry[V any] interface {
	Get(ctx context.Context, key string) (V, error)
	GetMany(ctx context.Context, keys []string) (map[string]V, error)
}

type config struct {
	timeout         time.Duration
	resolverTimeout time.Duration
	chunkSize       int
	logger          *slog.Logger
	metrics         *metrics.Metrics
}

type Option func(*config)

// WithTimeout bounds the asynchronous multi-key checks.
func WithTimeout(timeout time.Duration) Option {
	return func(c *config) {
		c.timeout = timeout
	}
}

// WithResolverTimeout bounds the bulk resolution under an asynchronous check.
func WithResolverTimeout(timeout time.Duration) Option {
	return func(c *config) {
		c.resolverTimeout = timeout
	}
}

func WithChunkSize(size int) Option {
	return func(c *config) {
		c.chunkSize = size
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *config) {
		c.metrics = m
	}
}

// checker holds what the three validators share: single lookups go straight
// to the registry, multi-key lookups go through a resolver. It never caches
// an entity or a verdict.
type checker[V any] struct {
	entity   string
	registry Registry[V]
	resolver *resolver.Resolver[string, V]
	timeout  time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func newChecker[V any](entity string, registry Registry[V], opts []Option) (*checker[V], error) {
	if registry == nil {
		return nil, fmt.Errorf("%s registry is required", entity)
	}

	cfg := config{
		timeout:         DefaultTimeout,
		resolverTimeout: resolver.DefaultTimeout,
		chunkSize:       resolver.DefaultChunkSize,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive, got %s", cfg.timeout)
	}

	res, err := resolver.New[string, V](entity, registry,
		resolver.WithChunkSize(cfg.chunkSize),
		resolver.WithTimeout(cfg.resolverTimeout),
		resolver.WithLogger(cfg.logger),
		resolver.WithMetrics(cfg.metrics),
	)
	if err != nil {
		return nil, fmt.Errorf("build %s resolver: %w", entity, err)
	}

	return &checker[V]{
		entity:   entity,
		registry: registry,
		resolver: res,
		timeout:  cfg.timeout,
		logger:   cfg.logger,
		metrics:  cfg.metrics,
	}, nil
}

func (c *checker[V]) isValid(ctx context.Context, key string, valid func(V) bool) bool {
	entity, err := c.registry.Get(ctx, key)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			c.logger.InfoContext(ctx, "entity not found", "entity", c.entity, "key", key)
		} else {
			c.logger.ErrorContext(ctx, "entity lookup failed", "entity", c.entity, "key", key, "error", err)
		}
		return false
	}
	return valid(entity)
}

func (c *checker[V]) areValid(ctx context.Context, keys []string, valid func(V) bool) map[string]bool {
	if len(keys) == 0 {
		return map[string]bool{}
	}
	return verdicts(keys, c.resolver.Resolve(ctx, keys), valid)
}

func (c *checker[V]) areValidAsync(ctx context.Context, keys []string, valid func(V) bool) <-chan map[string]bool {
	if len(keys) == 0 {
		return async.Ready(map[string]bool{})
	}

	return async.Bounded(ctx, c.timeout,
		func() map[string]bool {
			return verdicts(keys, <-c.resolver.ResolveAsync(ctx, keys), valid)
		},
		func(err error) map[string]bool {
			if errors.Is(err, sentinel.ErrTimeout) {
				c.metrics.IncrementTimeout("validate")
			}
			c.logger.ErrorContext(ctx, "async validation failed", "entity", c.entity, "keys", len(keys), "error", err)
			return allInvalid(keys)
		},
	)
}

// verdicts evaluates valid for every requested key; a key with no resolved
// entity is invalid.
func verdicts[V any](keys []string, entities map[string]V, valid func(V) bool) map[string]bool {
	result := make(map[string]bool, len(keys))
	for _, key := range keys {
		entity, ok := entities[key]
		result[key] = ok && valid(entity)
	}
	return result
}

func allInvalid(keys []string) map[string]bool {
	result := make(map[string]bool, len(keys))
	for _, key := range keys {
		result[key] = false
	}
	return result
}
