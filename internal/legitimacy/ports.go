package legitimacy

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks PersonChecker,DeviceChecker,AccountChecker

import (
	"context"

	"github.com/shopspring/decimal"
)

// PersonChecker reports, per person code, whether the person may transact.
type PersonChecker interface {
	AreValidAsync(ctx context.Context, codes []string) <-chan map[string]bool
}

// DeviceChecker reports, per MAC address, whether the device is trusted.
type DeviceChecker interface {
	AreValidAsync(ctx context.Context, macs []string) <-chan map[string]bool
}

// AccountChecker reports, per account number, whether the account may act as
// sender or as recipient.
type AccountChecker interface {
	AreValidSendersAsync(ctx context.Context, numbers []string, amount decimal.Decimal, sender string) <-chan map[string]bool
	AreValidRecipientsAsync(ctx context.Context, numbers []string, recipient string) <-chan map[string]bool
}
