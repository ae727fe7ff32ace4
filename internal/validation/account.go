package validation

import (
	"context"

	"github.com/shopspring/decimal"

	"detector/internal/domain"
)

type AccountRegistry = Registry[domain.Account]

// AccountValidator checks accounts for the role they play in a transaction.
// The sender and recipient checks are separate predicates over the same
// account snapshot; neither reuses the other's verdict.
type AccountValidator struct {
	checker *checker[domain.Account]
}

func NewAccountValidator(registry AccountRegistry, opts ...Option) (*AccountValidator, error) {
	c, err := newChecker("account", registry, opts)
	if err != nil {
		return nil, err
	}
	return &AccountValidator{checker: c}, nil
}

func canSend(sender string, amount decimal.Decimal) func(domain.Account) bool {
	return func(a domain.Account) bool {
		return a.CanSend(sender, amount)
	}
}

func canReceive(recipient string) func(domain.Account) bool {
	return func(a domain.Account) bool {
		return a.CanReceive(recipient)
	}
}

// IsValidSender reports whether number is an open account owned by sender
// holding at least amount.
func (v *AccountValidator) IsValidSender(ctx context.Context, number string, amount decimal.Decimal, sender string) bool {
	return v.checker.isValid(ctx, number, canSend(sender, amount))
}

// IsValidRecipient reports whether number is an open account owned by
// recipient.
func (v *AccountValidator) IsValidRecipient(ctx context.Context, number string, recipient string) bool {
	return v.checker.isValid(ctx, number, canReceive(recipient))
}

func (v *AccountValidator) AreValidSenders(ctx context.Context, numbers []string, amount decimal.Decimal, sender string) map[string]bool {
	return v.checker.areValid(ctx, numbers, canSend(sender, amount))
}

func (v *AccountValidator) AreValidRecipients(ctx context.Context, numbers []string, recipient string) map[string]bool {
	return v.checker.areValid(ctx, numbers, canReceive(recipient))
}

func (v *AccountValidator) AreValidSendersAsync(ctx context.Context, numbers []string, amount decimal.Decimal, sender string) <-chan map[string]bool {
	return v.checker.areValidAsync(ctx, numbers, canSend(sender, amount))
}

func (v *AccountValidator) AreValidRecipientsAsync(ctx context.Context, numbers []string, recipient string) <-chan map[string]bool {
	return v.checker.areValidAsync(ctx, numbers, canReceive(recipient))
}
