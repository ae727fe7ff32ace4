// Package resolver looks up entities by key in bulk. Keys are deduplicated,
// split into fixed-size chunks and each chunk is fetched independently, so a
// failing chunk only costs the keys it carried.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"detector/internal/platform/async"
	"detector/internal/platform/metrics"
	"detector/pkg/platform/keys"
	"detector/pkg/platform/sentinel"
)

const (
	// DefaultChunkSize is the number of keys sent to the registry per request.
	DefaultChunkSize = 25

	// DefaultTimeout bounds ResolveAsync.
	DefaultTimeout = 5 * time.Second
)

// BatchSource fetches the entities for one chunk of keys. Keys the source
// cannot resolve are simply absent from the returned map.
type BatchSource[K comparable, V any] interface {
	GetMany(ctx context.Context, keys []K) (map[K]V, error)
}

// Resolver resolves keys of one entity type through a BatchSource.
type Resolver[K comparable, V any] struct {
	entity    string
	source    BatchSource[K, V]
	chunkSize int
	timeout   time.Duration
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type settings struct {
	chunkSize int
	timeout   time.Duration
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type Option func(*settings)

func WithChunkSize(size int) Option {
	return func(s *settings) {
		s.chunkSize = size
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(s *settings) {
		s.timeout = timeout
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

// New builds a Resolver. entity names the entity type in logs and metrics.
func New[K comparable, V any](entity string, source BatchSource[K, V], opts ...Option) (*Resolver[K, V], error) {
	if entity == "" {
		return nil, errors.New("entity name is required")
	}
	if source == nil {
		return nil, errors.New("batch source is required")
	}

	cfg := settings{
		chunkSize: DefaultChunkSize,
		timeout:   DefaultTimeout,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", cfg.chunkSize)
	}
	if cfg.timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive, got %s", cfg.timeout)
	}

	return &Resolver[K, V]{
		entity:    entity,
		source:    source,
		chunkSize: cfg.chunkSize,
		timeout:   cfg.timeout,
		logger:    cfg.logger,
		metrics:   cfg.metrics,
	}, nil
}

// Resolve returns the entities found for keys. Keys that could not be
// resolved, including every key of a chunk whose lookup failed, are absent
// from the result. Resolve never returns an error.
func (r *Resolver[K, V]) Resolve(ctx context.Context, requested []K) map[K]V {
	result := make(map[K]V)
	if len(requested) == 0 {
		return result
	}

	unique := keys.Dedupe(requested)
	for _, chunk := range keys.Chunk(unique, r.chunkSize) {
		found, err := r.resolveChunk(ctx, chunk)
		if err != nil {
			r.metrics.IncrementChunkFailure(r.entity)
			r.logger.ErrorContext(ctx, "resolver chunk failed",
				"entity", r.entity,
				"chunk_size", len(chunk),
				"error", err,
			)
			continue
		}
		for key, entity := range found {
			result[key] = entity
		}
	}

	return result
}

// resolveChunk shields Resolve from a source that panics.
func (r *Resolver[K, V]) resolveChunk(ctx context.Context, chunk []K) (found map[K]V, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			found, err = nil, &async.PanicError{Value: rec}
		}
	}()

	r.logger.DebugContext(ctx, "requesting chunk", "entity", r.entity, "chunk_size", len(chunk))
	return r.source.GetMany(ctx, chunk)
}

// ResolveAsync runs Resolve on its own goroutine. The returned channel yields
// exactly one map: the resolved entities, or an empty map when resolution
// takes longer than the resolver timeout or ctx is done first.
func (r *Resolver[K, V]) ResolveAsync(ctx context.Context, requested []K) <-chan map[K]V {
	if len(requested) == 0 {
		return async.Ready(map[K]V{})
	}

	return async.Bounded(ctx, r.timeout,
		func() map[K]V { return r.Resolve(ctx, requested) },
		func(err error) map[K]V {
			if errors.Is(err, sentinel.ErrTimeout) {
				r.metrics.IncrementTimeout("resolve")
			}
			r.logger.ErrorContext(ctx, "async resolution failed",
				"entity", r.entity,
				"keys", len(requested),
				"error", err,
			)
			return map[K]V{}
		},
	)
}
