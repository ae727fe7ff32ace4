package domain

import "github.com/shopspring/decimal"

// Transaction is an unverified transfer pulled from the transaction source.
// It is read-only once fetched and is owned by the single evaluation that
// decides it.
type Transaction struct {
	ID               string          `json:"id"`
	Sender           string          `json:"sender"`    // person code
	Recipient        string          `json:"recipient"` // person code
	SenderAccount    string          `json:"senderAccount"`
	RecipientAccount string          `json:"recipientAccount"`
	DeviceMac        string          `json:"deviceMac"`
	Amount           decimal.Decimal `json:"amount"`
}
