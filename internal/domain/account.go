package domain

import "github.com/shopspring/decimal"

// Account is a snapshot from the account registry.
type Account struct {
	Number  string          `json:"number"`
	Owner   string          `json:"owner"` // person code
	Balance decimal.Decimal `json:"balance"`
	Closed  bool            `json:"closed"`
}

// CanSend reports whether the account may fund a transfer of amount made by
// the person identified by sender.
func (a Account) CanSend(sender string, amount decimal.Decimal) bool {
	return !a.Closed && a.Owner == sender && a.Balance.GreaterThanOrEqual(amount)
}

// CanReceive reports whether the account may be credited on behalf of the
// person identified by recipient. The balance plays no part here.
func (a Account) CanReceive(recipient string) bool {
	return !a.Closed && a.Owner == recipient
}
