package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/mock/gomock"

	"detector/internal/domain"
	"detector/internal/platform/metrics"
	"detector/internal/processor/mocks"
)

// =============================================================================
// Processor Test Suite
// =============================================================================
// Tick is the only place where transaction outcomes leave the process, so the
// tests pin down which ids reach Verify and Reject and when nothing is sent.

type ProcessorSuite struct {
	suite.Suite
	ctx        context.Context
	ctrl       *gomock.Controller
	source     *mocks.MockTransactionSource
	dispatcher *mocks.MockDispatcher
	checker    *mocks.MockLegitimacyChecker
	lease      *mocks.MockTickLease
	metrics    *metrics.Metrics
	spans      *tracetest.SpanRecorder
	provider   *sdktrace.TracerProvider
}

func TestProcessorSuite(t *testing.T) {
	suite.Run(t, new(ProcessorSuite))
}

func (s *ProcessorSuite) SetupTest() {
	s.ctx = context.Background()
	s.ctrl = gomock.NewController(s.T())
	s.source = mocks.NewMockTransactionSource(s.ctrl)
	s.dispatcher = mocks.NewMockDispatcher(s.ctrl)
	s.checker = mocks.NewMockLegitimacyChecker(s.ctrl)
	s.lease = mocks.NewMockTickLease(s.ctrl)
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.spans = tracetest.NewSpanRecorder()
	s.provider = sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(s.spans))
}

func (s *ProcessorSuite) TearDownTest() {
	s.ctrl.Finish()
	_ = s.provider.Shutdown(context.Background())
}

func (s *ProcessorSuite) newProcessor(opts ...Option) *Processor {
	opts = append([]Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(s.metrics),
		WithTracer(s.provider.Tracer("detector/processor")),
	}, opts...)
	p, err := New(s.source, s.dispatcher, s.checker, opts...)
	s.Require().NoError(err)
	return p
}

func transactions(ids ...string) []domain.Transaction {
	out := make([]domain.Transaction, len(ids))
	for i, id := range ids {
		out[i] = domain.Transaction{
			ID:               id,
			Sender:           "P-" + id,
			Recipient:        "R-" + id,
			SenderAccount:    "SA-" + id,
			RecipientAccount: "RA-" + id,
			DeviceMac:        "mac-" + id,
			Amount:           decimal.NewFromInt(10),
		}
	}
	return out
}

// legitimateIDs answers true for the listed ids and false otherwise.
func legitimateIDs(ids ...string) func(context.Context, domain.Transaction) bool {
	legit := make(map[string]bool, len(ids))
	for _, id := range ids {
		legit[id] = true
	}
	return func(_ context.Context, tx domain.Transaction) bool {
		return legit[tx.ID]
	}
}

// =============================================================================
// Constructor Tests
// =============================================================================

func (s *ProcessorSuite) TestNew() {
	s.Run("nil source returns error", func() {
		_, err := New(nil, s.dispatcher, s.checker)
		s.ErrorContains(err, "transaction source is required")
	})

	s.Run("nil dispatcher returns error", func() {
		_, err := New(s.source, nil, s.checker)
		s.ErrorContains(err, "dispatcher is required")
	})

	s.Run("nil checker returns error", func() {
		_, err := New(s.source, s.dispatcher, nil)
		s.ErrorContains(err, "legitimacy checker is required")
	})

	s.Run("invalid sizes return errors", func() {
		_, err := New(s.source, s.dispatcher, s.checker, WithBatchSize(0))
		s.ErrorContains(err, "batch size must be positive")

		_, err = New(s.source, s.dispatcher, s.checker, WithLeaseRenewal(0))
		s.ErrorContains(err, "lease renewal must be positive")

		_, err = New(s.source, s.dispatcher, s.checker, WithWorkers(-1))
		s.ErrorContains(err, "workers must be positive")

		_, err = New(s.source, s.dispatcher, s.checker, WithInterval(0))
		s.ErrorContains(err, "interval must be positive")
	})

	s.Run("defaults", func() {
		p, err := New(s.source, s.dispatcher, s.checker)
		s.Require().NoError(err)
		s.Equal(50, p.batchSize)
		s.Equal(10, p.workers)
		s.Equal(100*time.Millisecond, p.interval)
	})
}

// =============================================================================
// Tick Tests
// =============================================================================

func (s *ProcessorSuite) TestTickDispatchesBothOutcomes() {
	s.source.EXPECT().FetchUnverified(gomock.Any(), DefaultBatchSize).Return(transactions("T1", "T2", "T3"), nil)
	s.checker.EXPECT().IsLegitimate(gomock.Any(), gomock.Any()).DoAndReturn(legitimateIDs("T1", "T3")).Times(3)
	s.dispatcher.EXPECT().Verify(gomock.Any(), gomock.InAnyOrder([]string{"T1", "T3"})).Return(nil)
	s.dispatcher.EXPECT().Reject(gomock.Any(), []string{"T2"}).Return(nil)

	summary := s.newProcessor().Tick(s.ctx)

	s.Equal(ResultProcessed, summary.Result)
	s.NotEmpty(summary.TickID)
	s.Equal(3, summary.Fetched)
	s.ElementsMatch([]string{"T1", "T3"}, summary.Verified)
	s.Equal([]string{"T2"}, summary.Rejected)
	s.NoError(summary.VerifyErr)
	s.NoError(summary.RejectErr)
	s.Equal(2.0, testutil.ToFloat64(s.metrics.Outcomes.WithLabelValues("legitimate")))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Outcomes.WithLabelValues("fraudulent")))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Ticks.WithLabelValues(ResultProcessed)))
}

func (s *ProcessorSuite) TestEmptyBatchIsIdle() {
	s.source.EXPECT().FetchUnverified(gomock.Any(), gomock.Any()).Return(nil, nil)

	summary := s.newProcessor().Tick(s.ctx)

	s.Equal(ResultIdle, summary.Result)
	s.Zero(summary.Fetched)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Ticks.WithLabelValues(ResultIdle)))
}

func (s *ProcessorSuite) TestFetchErrorIsIdle() {
	s.source.EXPECT().FetchUnverified(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection reset"))

	summary := s.newProcessor().Tick(s.ctx)

	s.Equal(ResultIdle, summary.Result)
}

func (s *ProcessorSuite) TestOnlyNonEmptyOutcomesAreSent() {
	s.Run("all legitimate sends only verify", func() {
		s.source.EXPECT().FetchUnverified(gomock.Any(), gomock.Any()).Return(transactions("A", "B"), nil)
		s.checker.EXPECT().IsLegitimate(gomock.Any(), gomock.Any()).Return(true).Times(2)
		s.dispatcher.EXPECT().Verify(gomock.Any(), gomock.InAnyOrder([]string{"A", "B"})).Return(nil)

		summary := s.newProcessor().Tick(s.ctx)

		s.Empty(summary.Rejected)
	})

	s.Run("all fraudulent sends only reject", func() {
		s.source.EXPECT().FetchUnverified(gomock.Any(), gomock.Any()).Return(transactions("C"), nil)
		s.checker.EXPECT().IsLegitimate(gomock.Any(), gomock.Any()).Return(false)
		s.dispatcher.EXPECT().Reject(gomock.Any(), []string{"C"}).Return(nil)

		summary := s.newProcessor().Tick(s.ctx)

		s.Empty(summary.Verified)
	})
}

func (s *ProcessorSuite) TestDispatchFailuresAreIndependent() {
	s.source.EXPECT().FetchUnverified(gomock.Any(), gomock.Any()).Return(transactions("OK", "BAD"), nil)
	s.checker.EXPECT().IsLegitimate(gomock.Any(), gomock.Any()).DoAndReturn(legitimateIDs("OK")).Times(2)
	s.dispatcher.EXPECT().Verify(gomock.Any(), []string{"OK"}).Return(errors.New("503 service unavailable"))
	s.dispatcher.EXPECT().Reject(gomock.Any(), []string{"BAD"}).Return(nil)

	summary := s.newProcessor().Tick(s.ctx)

	s.Error(summary.VerifyErr)
	s.NoError(summary.RejectErr)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.DispatchFailures.WithLabelValues("verify")))
	s.Zero(testutil.ToFloat64(s.metrics.DispatchFailures.WithLabelValues("reject")))
}

func (s *ProcessorSuite) TestDispatchPanicIsContained() {
	s.source.EXPECT().FetchUnverified(gomock.Any(), gomock.Any()).Return(transactions("X", "Y"), nil)
	s.checker.EXPECT().IsLegitimate(gomock.Any(), gomock.Any()).DoAndReturn(legitimateIDs("X")).Times(2)
	s.dispatcher.EXPECT().Verify(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, []string) error {
		panic("verify client exploded")
	})
	s.dispatcher.EXPECT().Reject(gomock.Any(), []string{"Y"}).Return(nil)

	summary := s.newProcessor().Tick(s.ctx)

	s.ErrorContains(summary.VerifyErr, "recovered panic")
	s.NoError(summary.RejectErr)
}

func (s *ProcessorSuite) TestPanickingEvaluationIsFraudulent() {
	s.source.EXPECT().FetchUnverified(gomock.Any(), gomock.Any()).Return(transactions("P1", "P2"), nil)
	s.checker.EXPECT().IsLegitimate(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, tx domain.Transaction) bool {
		if tx.ID == "P1" {
			panic("evaluator exploded")
		}
		return true
	}).Times(2)
	s.dispatcher.EXPECT().Verify(gomock.Any(), []string{"P2"}).Return(nil)
	s.dispatcher.EXPECT().Reject(gomock.Any(), []string{"P1"}).Return(nil)

	summary := s.newProcessor().Tick(s.ctx)

	s.Equal([]string{"P1"}, summary.Rejected)
}

func (s *ProcessorSuite) TestEveryTransactionLandsInExactlyOneOutcome() {
	ids := make([]string, DefaultBatchSize)
	for i := range ids {
		ids[i] = fmt.Sprintf("T%02d", i)
	}
	s.source.EXPECT().FetchUnverified(gomock.Any(), gomock.Any()).Return(transactions(ids...), nil)
	s.checker.EXPECT().IsLegitimate(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, tx domain.Transaction) bool {
		return tx.ID[len(tx.ID)-1]%2 == 0
	}).Times(len(ids))
	s.dispatcher.EXPECT().Verify(gomock.Any(), gomock.Any()).Return(nil)
	s.dispatcher.EXPECT().Reject(gomock.Any(), gomock.Any()).Return(nil)

	summary := s.newProcessor().Tick(s.ctx)

	s.Len(summary.Verified, 25)
	s.Len(summary.Rejected, 25)
	s.ElementsMatch(ids, append(append([]string{}, summary.Verified...), summary.Rejected...))
}

func (s *ProcessorSuite) TestWorkerPoolBoundsConcurrency() {
	var running, peak atomic.Int32
	s.source.EXPECT().FetchUnverified(gomock.Any(), gomock.Any()).Return(transactions("1", "2", "3", "4", "5", "6"), nil)
	s.checker.EXPECT().IsLegitimate(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, domain.Transaction) bool {
		n := running.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		running.Add(-1)
		return true
	}).Times(6)
	s.dispatcher.EXPECT().Verify(gomock.Any(), gomock.Any()).Return(nil)

	summary := s.newProcessor(WithWorkers(2)).Tick(s.ctx)

	s.Len(summary.Verified, 6)
	s.LessOrEqual(peak.Load(), int32(2))
}

// =============================================================================
// Lease Tests
// =============================================================================

func (s *ProcessorSuite) TestLease() {
	s.Run("lease held elsewhere skips tick", func() {
		s.lease.EXPECT().Acquire(gomock.Any()).Return(false, nil)

		summary := s.newProcessor(WithLease(s.lease)).Tick(s.ctx)

		s.Equal(ResultSkipped, summary.Result)
	})

	s.Run("lease error skips tick", func() {
		s.lease.EXPECT().Acquire(gomock.Any()).Return(false, errors.New("redis: connection refused"))

		summary := s.newProcessor(WithLease(s.lease)).Tick(s.ctx)

		s.Equal(ResultSkipped, summary.Result)
	})

	s.Run("held lease is released after the tick", func() {
		gomock.InOrder(
			s.lease.EXPECT().Acquire(gomock.Any()).Return(true, nil),
			s.source.EXPECT().FetchUnverified(gomock.Any(), gomock.Any()).Return(nil, nil),
			s.lease.EXPECT().Release(gomock.Any()).Return(nil),
		)

		summary := s.newProcessor(WithLease(s.lease)).Tick(s.ctx)

		s.Equal(ResultIdle, summary.Result)
	})
}

func slowChecker(d time.Duration) func(context.Context, domain.Transaction) bool {
	return func(context.Context, domain.Transaction) bool {
		time.Sleep(d)
		return true
	}
}

func (s *ProcessorSuite) expectSlowTick() {
	s.source.EXPECT().FetchUnverified(gomock.Any(), gomock.Any()).Return(transactions("T1"), nil)
	s.checker.EXPECT().IsLegitimate(gomock.Any(), gomock.Any()).DoAndReturn(slowChecker(100 * time.Millisecond))
	s.dispatcher.EXPECT().Verify(gomock.Any(), []string{"T1"}).Return(nil)
}

func (s *ProcessorSuite) TestLeaseIsRenewedWhileTickRuns() {
	var released atomic.Bool
	var renewals atomic.Int32
	s.lease.EXPECT().Acquire(gomock.Any()).Return(true, nil)
	s.lease.EXPECT().Renew(gomock.Any()).DoAndReturn(func(context.Context) (bool, error) {
		s.False(released.Load(), "renewal after release")
		renewals.Add(1)
		return true, nil
	}).MinTimes(1)
	s.lease.EXPECT().Release(gomock.Any()).DoAndReturn(func(context.Context) error {
		released.Store(true)
		return nil
	})
	s.expectSlowTick()

	summary := s.newProcessor(WithLease(s.lease), WithLeaseRenewal(10*time.Millisecond)).Tick(s.ctx)

	s.Equal(ResultProcessed, summary.Result)
	s.GreaterOrEqual(renewals.Load(), int32(1))
}

func (s *ProcessorSuite) TestLostLeaseStopsRenewal() {
	s.lease.EXPECT().Acquire(gomock.Any()).Return(true, nil)
	s.lease.EXPECT().Renew(gomock.Any()).Return(false, nil).Times(1)
	s.lease.EXPECT().Release(gomock.Any()).Return(nil)
	s.expectSlowTick()

	s.newProcessor(WithLease(s.lease), WithLeaseRenewal(10*time.Millisecond)).Tick(s.ctx)

	s.Equal(1.0, testutil.ToFloat64(s.metrics.LeaseRenewalFailures.WithLabelValues("lost")))
}

func (s *ProcessorSuite) TestLeaseRenewalErrorsAreRetried() {
	s.lease.EXPECT().Acquire(gomock.Any()).Return(true, nil)
	s.lease.EXPECT().Renew(gomock.Any()).Return(false, errors.New("redis: i/o timeout")).MinTimes(2)
	s.lease.EXPECT().Release(gomock.Any()).Return(nil)
	s.expectSlowTick()

	s.newProcessor(WithLease(s.lease), WithLeaseRenewal(10*time.Millisecond)).Tick(s.ctx)

	s.GreaterOrEqual(testutil.ToFloat64(s.metrics.LeaseRenewalFailures.WithLabelValues("error")), 2.0)
}

// =============================================================================
// Tracing Tests
// =============================================================================

// tickSpan returns the attributes of the single ended tick span.
func (s *ProcessorSuite) tickSpan() (sdktrace.ReadOnlySpan, map[attribute.Key]attribute.Value) {
	ended := s.spans.Ended()
	s.Require().Len(ended, 1)
	s.Require().Equal("processor.Tick", ended[0].Name())

	attrs := make(map[attribute.Key]attribute.Value)
	for _, kv := range ended[0].Attributes() {
		attrs[kv.Key] = kv.Value
	}
	return ended[0], attrs
}

func (s *ProcessorSuite) TestTickSpanRecordsOutcome() {
	s.source.EXPECT().FetchUnverified(gomock.Any(), gomock.Any()).Return(transactions("T1", "T2", "T3"), nil)
	s.checker.EXPECT().IsLegitimate(gomock.Any(), gomock.Any()).DoAndReturn(legitimateIDs("T1", "T3")).Times(3)
	s.dispatcher.EXPECT().Verify(gomock.Any(), gomock.Any()).Return(nil)
	s.dispatcher.EXPECT().Reject(gomock.Any(), gomock.Any()).Return(nil)

	summary := s.newProcessor().Tick(s.ctx)

	span, attrs := s.tickSpan()
	s.Equal(summary.TickID, attrs["tick.id"].AsString())
	s.Equal(ResultProcessed, attrs["tick.result"].AsString())
	s.Equal(int64(3), attrs["tick.fetched"].AsInt64())
	s.Equal(int64(2), attrs["tick.verified"].AsInt64())
	s.Equal(int64(1), attrs["tick.rejected"].AsInt64())
	s.Equal(codes.Unset, span.Status().Code)
}

func (s *ProcessorSuite) TestTickSpanMarksDispatchFailure() {
	s.source.EXPECT().FetchUnverified(gomock.Any(), gomock.Any()).Return(transactions("T1"), nil)
	s.checker.EXPECT().IsLegitimate(gomock.Any(), gomock.Any()).Return(true)
	s.dispatcher.EXPECT().Verify(gomock.Any(), gomock.Any()).Return(errors.New("transactions: 503"))

	s.newProcessor().Tick(s.ctx)

	span, _ := s.tickSpan()
	s.Equal(codes.Error, span.Status().Code)
}

func (s *ProcessorSuite) TestSkippedTickSpan() {
	s.lease.EXPECT().Acquire(gomock.Any()).Return(false, nil)

	s.newProcessor(WithLease(s.lease)).Tick(s.ctx)

	_, attrs := s.tickSpan()
	s.Equal(ResultSkipped, attrs["tick.result"].AsString())
}

// =============================================================================
// Run Tests
// =============================================================================

func (s *ProcessorSuite) TestRunTicksUntilCancelled() {
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	var ticks, inFlight atomic.Int32
	s.source.EXPECT().FetchUnverified(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, int) ([]domain.Transaction, error) {
		s.Equal(int32(1), inFlight.Add(1), "ticks must not overlap")
		defer inFlight.Add(-1)
		if ticks.Add(1) == 3 {
			cancel()
		}
		return nil, nil
	}).Times(3)

	done := make(chan error, 1)
	go func() {
		done <- s.newProcessor(WithInterval(time.Millisecond)).Run(ctx)
	}()

	select {
	case err := <-done:
		s.NoError(err)
	case <-time.After(2 * time.Second):
		s.Fail("Run did not stop after cancellation")
	}
	s.Equal(int32(3), ticks.Load())
}

func (s *ProcessorSuite) TestRunSurvivesPanickingTick() {
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	var ticks atomic.Int32
	s.source.EXPECT().FetchUnverified(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, int) ([]domain.Transaction, error) {
		if ticks.Add(1) == 1 {
			panic("source exploded")
		}
		cancel()
		return nil, nil
	}).Times(2)

	err := s.newProcessor(WithInterval(time.Millisecond)).Run(ctx)

	s.NoError(err)
	s.Equal(int32(2), ticks.Load())
}

func (s *ProcessorSuite) TestRunWithCancelledContextDoesNotTick() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	s.NoError(s.newProcessor().Run(ctx))
}
