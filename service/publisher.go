package service

import (
	"context"

	"go-ledger/model"
)

// ILedgerPublisher announces committed ledger records to other systems.
type ILedgerPublisher interface {
	PublishTransactionRecorded(ctx context.Context, transaction *model.Transaction) error
}
