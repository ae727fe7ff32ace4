// Package processor drains unverified transactions in fixed-size batches,
// decides each one on a bounded worker pool and reports the verified and
// rejected ids back to the transaction source.
package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"detector/internal/domain"
	"detector/internal/platform/async"
	"detector/internal/platform/metrics"
)

const (
	DefaultBatchSize = 50
	DefaultWorkers   = 10
	DefaultInterval  = 100 * time.Millisecond

	// DefaultLeaseRenewal is how often a held tick lease is extended.
	DefaultLeaseRenewal = 10 * time.Second
)

// Tick results, also used as metric labels.
const (
	ResultProcessed = "processed"
	ResultIdle      = "idle"
	ResultSkipped   = "skipped"
)

const (
	outcomeLegitimate = "legitimate"
	outcomeFraudulent = "fraudulent"

	actionVerify = "verify"
	actionReject = "reject"
)

// Summary describes one completed tick.
type Summary struct {
	TickID    string
	Result    string
	Fetched   int
	Verified  []string
	Rejected  []string
	VerifyErr error
	RejectErr error
}

// Processor runs the fetch, decide and dispatch cycle.
type Processor struct {
	source     TransactionSource
	dispatcher Dispatcher
	checker    LegitimacyChecker
	lease      TickLease
	renewEvery time.Duration
	batchSize  int
	workers    int
	interval   time.Duration
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
}

type Option func(*Processor)

func WithBatchSize(size int) Option {
	return func(p *Processor) {
		p.batchSize = size
	}
}

func WithWorkers(workers int) Option {
	return func(p *Processor) {
		p.workers = workers
	}
}

// WithInterval sets the pause between the end of one tick and the start of
// the next.
func WithInterval(interval time.Duration) Option {
	return func(p *Processor) {
		p.interval = interval
	}
}

// WithLease makes every tick run only while lease is held.
func WithLease(lease TickLease) Option {
	return func(p *Processor) {
		p.lease = lease
	}
}

// WithLeaseRenewal sets how often a held lease is extended while a tick
// runs. It must be well below the lease TTL.
func WithLeaseRenewal(every time.Duration) Option {
	return func(p *Processor) {
		p.renewEvery = every
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) {
		p.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Processor) {
		p.metrics = m
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(p *Processor) {
		p.tracer = tracer
	}
}

func New(source TransactionSource, dispatcher Dispatcher, checker LegitimacyChecker, opts ...Option) (*Processor, error) {
	if source == nil {
		return nil, errors.New("transaction source is required")
	}
	if dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}
	if checker == nil {
		return nil, errors.New("legitimacy checker is required")
	}

	p := &Processor{
		source:     source,
		dispatcher: dispatcher,
		checker:    checker,
		batchSize:  DefaultBatchSize,
		workers:    DefaultWorkers,
		interval:   DefaultInterval,
		renewEvery: DefaultLeaseRenewal,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer:     otel.Tracer("detector/processor"),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", p.batchSize)
	}
	if p.workers <= 0 {
		return nil, fmt.Errorf("workers must be positive, got %d", p.workers)
	}
	if p.interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %s", p.interval)
	}
	if p.renewEvery <= 0 {
		return nil, fmt.Errorf("lease renewal must be positive, got %s", p.renewEvery)
	}

	return p, nil
}

// Run ticks until ctx is cancelled, waiting the configured interval after
// each tick completes. A tick that is already running when ctx is cancelled
// is allowed to finish.
func (p *Processor) Run(ctx context.Context) error {
	p.logger.InfoContext(ctx, "processor started",
		"batch_size", p.batchSize,
		"workers", p.workers,
		"interval", p.interval,
	)

	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	for {
		if ctx.Err() != nil {
			p.logger.InfoContext(ctx, "processor stopped")
			return nil
		}

		p.safeTick(context.WithoutCancel(ctx))

		timer.Reset(p.interval)
		select {
		case <-ctx.Done():
			p.logger.InfoContext(ctx, "processor stopped")
			return nil
		case <-timer.C:
		}
	}
}

func (p *Processor) safeTick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.ErrorContext(ctx, "tick panicked", "error", &async.PanicError{Value: r})
		}
	}()
	p.Tick(ctx)
}

// Tick runs one cycle and reports what happened. Fetch and dispatch errors
// are logged and recorded in the summary; they never stop the caller.
func (p *Processor) Tick(ctx context.Context) Summary {
	start := time.Now()
	summary := Summary{TickID: uuid.NewString()}

	ctx, span := p.tracer.Start(ctx, "processor.Tick",
		trace.WithAttributes(attribute.String("tick.id", summary.TickID)))
	defer span.End()

	logger := p.logger.With("tick_id", summary.TickID)

	if p.lease != nil {
		held, err := p.lease.Acquire(ctx)
		if err != nil {
			logger.ErrorContext(ctx, "tick lease acquisition failed", "error", err)
		}
		if err != nil || !held {
			summary.Result = ResultSkipped
			p.metrics.IncrementTick(ResultSkipped)
			span.SetAttributes(attribute.String("tick.result", summary.Result))
			return summary
		}
		stopRenewal := p.keepLease(ctx, logger)
		defer func() {
			stopRenewal()
			if err := p.lease.Release(context.WithoutCancel(ctx)); err != nil {
				logger.ErrorContext(ctx, "tick lease release failed", "error", err)
			}
		}()
	}

	batch, err := p.source.FetchUnverified(ctx, p.batchSize)
	if err != nil {
		logger.ErrorContext(ctx, "fetching unverified transactions failed", "error", err)
		span.RecordError(err)
	}
	if len(batch) == 0 {
		summary.Result = ResultIdle
		p.metrics.IncrementTick(ResultIdle)
		span.SetAttributes(attribute.String("tick.result", summary.Result))
		return summary
	}
	if len(batch) > p.batchSize {
		batch = batch[:p.batchSize]
	}

	summary.Fetched = len(batch)
	summary.Verified, summary.Rejected = p.decide(ctx, batch)
	summary.VerifyErr, summary.RejectErr = p.dispatch(ctx, summary.Verified, summary.Rejected)
	summary.Result = ResultProcessed

	p.metrics.AddOutcomes(outcomeLegitimate, len(summary.Verified))
	p.metrics.AddOutcomes(outcomeFraudulent, len(summary.Rejected))
	p.metrics.ObserveTick(ResultProcessed, time.Since(start))

	span.SetAttributes(
		attribute.String("tick.result", summary.Result),
		attribute.Int("tick.fetched", summary.Fetched),
		attribute.Int("tick.verified", len(summary.Verified)),
		attribute.Int("tick.rejected", len(summary.Rejected)),
	)
	if summary.VerifyErr != nil || summary.RejectErr != nil {
		span.SetStatus(codes.Error, "dispatch failed")
	}

	logger.InfoContext(ctx, "tick processed",
		"fetched", summary.Fetched,
		"verified", len(summary.Verified),
		"rejected", len(summary.Rejected),
		"duration", time.Since(start),
	)
	return summary
}

// keepLease extends the held lease every p.renewEvery until the returned stop
// function is called. stop returns once no renewal is in flight, so a renewal
// never lands after Release.
func (p *Processor) keepLease(ctx context.Context, logger *slog.Logger) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(p.renewEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			held, err := p.lease.Renew(ctx)
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				p.metrics.IncrementLeaseRenewalFailure("error")
				logger.ErrorContext(ctx, "tick lease renewal failed", "error", err)
				continue
			}
			if !held {
				p.metrics.IncrementLeaseRenewalFailure("lost")
				logger.ErrorContext(ctx, "tick lease lost before the tick finished")
				return
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

// decide evaluates every transaction on at most p.workers goroutines.
// Submission blocks while the pool is saturated.
func (p *Processor) decide(ctx context.Context, batch []domain.Transaction) (legitimate, fraudulent []string) {
	var verified, rejected collector

	g := new(errgroup.Group)
	g.SetLimit(p.workers)
	for _, tx := range batch {
		g.Go(func() error {
			if p.isLegitimate(ctx, tx) {
				verified.add(tx.ID)
			} else {
				rejected.add(tx.ID)
			}
			return nil
		})
	}
	_ = g.Wait()

	return verified.ids(), rejected.ids()
}

func (p *Processor) isLegitimate(ctx context.Context, tx domain.Transaction) (legitimate bool) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.ErrorContext(ctx, "transaction evaluation panicked",
				"transaction_id", tx.ID,
				"error", &async.PanicError{Value: r},
			)
			legitimate = false
		}
	}()
	return p.checker.IsLegitimate(ctx, tx)
}

// dispatch sends both outcome batches concurrently. An empty batch is not
// sent, and one failing call does not affect the other.
func (p *Processor) dispatch(ctx context.Context, verified, rejected []string) (verifyErr, rejectErr error) {
	var wg sync.WaitGroup
	if len(verified) > 0 {
		wg.Go(func() {
			verifyErr = p.send(ctx, actionVerify, p.dispatcher.Verify, verified)
		})
	}
	if len(rejected) > 0 {
		wg.Go(func() {
			rejectErr = p.send(ctx, actionReject, p.dispatcher.Reject, rejected)
		})
	}
	wg.Wait()
	return verifyErr, rejectErr
}

func (p *Processor) send(ctx context.Context, action string, fn func(context.Context, []string) error, ids []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &async.PanicError{Value: r}
		}
		if err != nil {
			p.metrics.IncrementDispatchFailure(action)
			p.logger.ErrorContext(ctx, "dispatch failed",
				"action", action,
				"count", len(ids),
				"error", err,
			)
		}
	}()
	return fn(ctx, ids)
}

// collector accumulates ids from concurrent workers. Each outcome has its
// own collector so verified and rejected appends never contend.
type collector struct {
	mu  sync.Mutex
	out []string
}

func (c *collector) add(id string) {
	c.mu.Lock()
	c.out = append(c.out, id)
	c.mu.Unlock()
}

func (c *collector) ids() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.out
}
