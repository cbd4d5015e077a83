package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a ledger participant. Balance is only ever changed by the
// transaction service inside an atomic unit.
type Account struct {
	ID           int             `json:"id"`
	Name         string          `json:"name"`
	Username     string          `json:"username"`
	PasswordHash string          `json:"-"`
	Balance      decimal.Decimal `json:"balance"`
	CreatedAt    time.Time       `json:"createdAt"`
}
