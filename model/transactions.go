package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeDeposit  TransactionType = "DEPOSIT"
	TransactionTypeTransfer TransactionType = "TRANSFER"
	TransactionTypeRevert   TransactionType = "REVERT"
)

// Transaction is an append-only ledger record. IsReversed is the only field
// that changes after creation, and only on TRANSFER records.
type Transaction struct {
	ID         int             `json:"id"`
	SenderID   *int            `json:"senderId"`
	ReceiverID int             `json:"receiverId"`
	Type       TransactionType `json:"type"`
	Amount     decimal.Decimal `json:"amount"`
	IsReversed bool            `json:"isReversed"`
	// RevertsTransactionID links a REVERT record to the transfer it undoes.
	RevertsTransactionID *int      `json:"revertsTransactionId,omitempty"`
	CreatedAt            time.Time `json:"createdAt"`
}

// Involves reports whether accountID is the sender or the receiver.
func (t *Transaction) Involves(accountID int) bool {
	if t.ReceiverID == accountID {
		return true
	}
	return t.SenderID != nil && *t.SenderID == accountID
}
