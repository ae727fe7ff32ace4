// Package legitimacy decides whether a single transaction is legitimate by
// checking its parties, their accounts and its device in parallel.
package legitimacy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"detector/internal/domain"
	"detector/internal/platform/async"
	"detector/internal/platform/metrics"
	"detector/pkg/platform/sentinel"
)

// DefaultTimeout bounds a whole evaluation, measured from dispatch.
const DefaultTimeout = 5 * time.Second

// Evaluator combines the person, device and account checks of a transaction
// into one verdict. It never returns an error: anything it cannot confirm in
// time counts against the transaction.
type Evaluator struct {
	persons  PersonChecker
	devices  DeviceChecker
	accounts AccountChecker
	timeout  time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

type Option func(*Evaluator)

func WithTimeout(timeout time.Duration) Option {
	return func(e *Evaluator) {
		e.timeout = timeout
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Evaluator) {
		e.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Evaluator) {
		e.metrics = m
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(e *Evaluator) {
		e.tracer = tracer
	}
}

func New(persons PersonChecker, devices DeviceChecker, accounts AccountChecker, opts ...Option) (*Evaluator, error) {
	if persons == nil {
		return nil, errors.New("person checker is required")
	}
	if devices == nil {
		return nil, errors.New("device checker is required")
	}
	if accounts == nil {
		return nil, errors.New("account checker is required")
	}

	e := &Evaluator{
		persons:  persons,
		devices:  devices,
		accounts: accounts,
		timeout:  DefaultTimeout,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer:   otel.Tracer("detector/legitimacy"),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive, got %s", e.timeout)
	}

	return e, nil
}

// IsLegitimateAsync evaluates tx on its own goroutine. The channel yields
// true only if the sender and recipient are in good standing, the device is
// trusted, the sender account can fund the amount and the recipient account
// can receive it. A timeout, a cancelled ctx or a panic yields false.
func (e *Evaluator) IsLegitimateAsync(ctx context.Context, tx domain.Transaction) <-chan bool {
	ctx, span := e.tracer.Start(ctx, "legitimacy.Evaluate",
		trace.WithAttributes(attribute.String("transaction.id", tx.ID)))

	verdict := async.Bounded(ctx, e.timeout,
		func() bool { return e.evaluate(ctx, tx) },
		func(err error) bool {
			if errors.Is(err, sentinel.ErrTimeout) {
				e.metrics.IncrementTimeout("evaluate")
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, "evaluation failed closed")
			e.logger.ErrorContext(ctx, "transaction evaluation failed",
				"transaction_id", tx.ID,
				"error", err,
			)
			return false
		},
	)

	out := make(chan bool, 1)
	go func() {
		legitimate := <-verdict
		span.SetAttributes(attribute.Bool("transaction.legitimate", legitimate))
		span.End()
		out <- legitimate
	}()
	return out
}

// IsLegitimate blocks until IsLegitimateAsync answers, which is at most the
// evaluator timeout.
func (e *Evaluator) IsLegitimate(ctx context.Context, tx domain.Transaction) bool {
	return <-e.IsLegitimateAsync(ctx, tx)
}

func (e *Evaluator) evaluate(ctx context.Context, tx domain.Transaction) bool {
	persons := e.persons.AreValidAsync(ctx, []string{tx.Recipient, tx.Sender})
	devices := e.devices.AreValidAsync(ctx, []string{tx.DeviceMac})
	senders := e.accounts.AreValidSendersAsync(ctx, []string{tx.SenderAccount}, tx.Amount, tx.Sender)
	recipients := e.accounts.AreValidRecipientsAsync(ctx, []string{tx.RecipientAccount}, tx.Recipient)

	personResults := <-persons
	deviceResults := <-devices
	senderResults := <-senders
	recipientResults := <-recipients

	// A key missing from a result map reads as false.
	legitimate := personResults[tx.Recipient] &&
		personResults[tx.Sender] &&
		deviceResults[tx.DeviceMac] &&
		senderResults[tx.SenderAccount] &&
		recipientResults[tx.RecipientAccount]

	e.logger.DebugContext(ctx, "transaction evaluated",
		"transaction_id", tx.ID,
		"legitimate", legitimate,
	)
	return legitimate
}
