// file: model/request.go

package model

import "github.com/shopspring/decimal"

// RegisterRequest defines the payload for opening a new account.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Username string `json:"username" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginRequest defines the payload for user authentication.
type LoginRequest struct {
	Username string `json:"username" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TransferRequest moves funds from the authenticated account to RecipientID.
// Amount positivity and precision are enforced by the transaction service.
type TransferRequest struct {
	RecipientID int             `json:"recipientId" validate:"required,gt=0"`
	Amount      decimal.Decimal `json:"amount"`
}

// DepositRequest credits the authenticated account.
type DepositRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// RevertRequest undoes a transfer previously sent by the authenticated account.
type RevertRequest struct {
	TransactionID int `json:"transactionId" validate:"required,gt=0"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

type TransactionResponse struct {
	Message     string       `json:"message"`
	Transaction *Transaction `json:"transaction"`
}

type RevertResponse struct {
	Message           string       `json:"message"`
	RevertTransaction *Transaction `json:"revertTransaction"`
}
