package processor

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks TransactionSource,Dispatcher,LegitimacyChecker,TickLease

import (
	"context"

	"detector/internal/domain"
)

// TransactionSource hands out unverified transactions.
type TransactionSource interface {
	// FetchUnverified returns at most max transactions. An empty slice means
	// there is nothing to do.
	FetchUnverified(ctx context.Context, max int) ([]domain.Transaction, error)
}

// Dispatcher reports tick outcomes back to the transaction source.
type Dispatcher interface {
	Verify(ctx context.Context, ids []string) error
	Reject(ctx context.Context, ids []string) error
}

// LegitimacyChecker decides a single transaction and never errors.
type LegitimacyChecker interface {
	IsLegitimate(ctx context.Context, tx domain.Transaction) bool
}

// TickLease keeps ticks of several replicas from running at the same time.
type TickLease interface {
	// Acquire reports whether this replica now holds the lease.
	Acquire(ctx context.Context) (bool, error)
	// Renew extends a held lease and reports whether it is still held.
	Renew(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}
