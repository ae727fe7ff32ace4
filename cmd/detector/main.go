package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"detector/internal/legitimacy"
	"detector/internal/platform/config"
	"detector/internal/platform/httpserver"
	"detector/internal/platform/logger"
	"detector/internal/platform/metrics"
	"detector/internal/platform/redis"
	"detector/internal/platform/tracing"
	"detector/internal/processor"
	"detector/internal/processor/lease"
	"detector/internal/upstream"
	"detector/internal/validation"
)

const shutdownTimeout = 10 * time.Second

// main wires configuration, upstream clients, validators, the evaluator and
// the processor loop, serves the ops endpoints and stops on SIGINT/SIGTERM
// once the current tick has finished.
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	tp, err := tracing.New(ctx, cfg.Tracing, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(flushCtx); err != nil {
			log.Error("tracer provider shutdown failed", "error", err)
		}
	}()

	evaluator, transactions, err := buildEvaluator(cfg, log, m, tp.Tracer("detector/legitimacy"))
	if err != nil {
		return err
	}

	procOpts := []processor.Option{
		processor.WithBatchSize(cfg.Processor.BatchSize),
		processor.WithWorkers(cfg.Processor.Workers),
		processor.WithInterval(cfg.Processor.Interval),
		processor.WithLogger(log),
		processor.WithMetrics(m),
		processor.WithTracer(tp.Tracer("detector/processor")),
	}

	var checks []httpserver.ReadyCheck
	rdb, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if rdb != nil {
		defer rdb.Close()
		tickLease, err := lease.NewRedis(rdb.Client, lease.WithTTL(cfg.Redis.LeaseTTL))
		if err != nil {
			return fmt.Errorf("build tick lease: %w", err)
		}
		procOpts = append(procOpts,
			processor.WithLease(tickLease),
			processor.WithLeaseRenewal(cfg.Redis.LeaseRenewal),
		)
		checks = append(checks, httpserver.ReadyCheck{Name: "redis", Check: rdb.Health})
		log.Info("tick lease enabled",
			"ttl", cfg.Redis.LeaseTTL,
			"renewal", cfg.Redis.LeaseRenewal,
			"longest_tick", cfg.LongestTick(),
		)
	}

	proc, err := processor.New(transactions, transactions, evaluator, procOpts...)
	if err != nil {
		return fmt.Errorf("build processor: %w", err)
	}

	srv := httpserver.New(cfg.Addr, httpserver.NewOpsRouter(reg, checks...))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("ops server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("ops server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return proc.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	log.Info("detector stopped")
	return err
}

func buildEvaluator(cfg config.Config, log *slog.Logger, m *metrics.Metrics, tracer trace.Tracer) (*legitimacy.Evaluator, *upstream.Transactions, error) {
	clientOpts := []upstream.Option{
		upstream.WithTimeout(cfg.Upstream.HTTPTimeout),
		upstream.WithBreaker(cfg.Upstream.Breaker.Failures, cfg.Upstream.Breaker.OpenTimeout),
		upstream.WithLogger(log),
		upstream.WithMetrics(m),
	}
	newClient := func(name string, ep config.Endpoint) (*upstream.Client, error) {
		c, err := upstream.NewClient(name, ep.URL, ep.Token, clientOpts...)
		if err != nil {
			return nil, fmt.Errorf("build %s client: %w", name, err)
		}
		return c, nil
	}

	personClient, err := newClient("persons", cfg.Upstream.Persons)
	if err != nil {
		return nil, nil, err
	}
	deviceClient, err := newClient("devices", cfg.Upstream.Devices)
	if err != nil {
		return nil, nil, err
	}
	accountClient, err := newClient("accounts", cfg.Upstream.Accounts)
	if err != nil {
		return nil, nil, err
	}
	transactionClient, err := newClient("transactions", cfg.Upstream.Transactions)
	if err != nil {
		return nil, nil, err
	}

	personRegistry, err := upstream.NewPersonRegistry(personClient)
	if err != nil {
		return nil, nil, err
	}
	deviceRegistry, err := upstream.NewDeviceRegistry(deviceClient)
	if err != nil {
		return nil, nil, err
	}
	accountRegistry, err := upstream.NewAccountRegistry(accountClient)
	if err != nil {
		return nil, nil, err
	}

	validationOpts := []validation.Option{
		validation.WithTimeout(cfg.Validation.Timeout),
		validation.WithResolverTimeout(cfg.Resolver.Timeout),
		validation.WithChunkSize(cfg.Resolver.ChunkSize),
		validation.WithLogger(log),
		validation.WithMetrics(m),
	}
	persons, err := validation.NewPersonValidator(personRegistry, validationOpts...)
	if err != nil {
		return nil, nil, err
	}
	devices, err := validation.NewDeviceValidator(deviceRegistry, validationOpts...)
	if err != nil {
		return nil, nil, err
	}
	accounts, err := validation.NewAccountValidator(accountRegistry, validationOpts...)
	if err != nil {
		return nil, nil, err
	}

	evaluator, err := legitimacy.New(persons, devices, accounts,
		legitimacy.WithTimeout(cfg.Evaluation.Timeout),
		legitimacy.WithLogger(log),
		legitimacy.WithMetrics(m),
		legitimacy.WithTracer(tracer),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("build evaluator: %w", err)
	}

	transactions, err := upstream.NewTransactions(transactionClient, cfg.Upstream.PageSize)
	if err != nil {
		return nil, nil, err
	}

	return evaluator, transactions, nil
}
