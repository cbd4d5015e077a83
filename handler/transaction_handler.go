package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go-ledger/common"
	"go-ledger/model"
	"go-ledger/service"

	"github.com/go-chi/chi/v5"
)

// TransactionHandler holds dependencies for transaction-related handlers.
type TransactionHandler struct {
	service *service.TransactionService
}

// NewTransactionHandler creates a new TransactionHandler with its dependencies.
func NewTransactionHandler(s *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{service: s}
}

// Transfer godoc
// @Summary      Transfer money to another account
// @Description  Debits the authenticated account and credits the recipient in one atomic unit.
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        transfer body model.TransferRequest true "Recipient and amount"
// @Success      201  {object}  model.TransactionResponse
// @Failure      400  {object}  common.AppError "Invalid amount, self-transfer or insufficient funds"
// @Failure      401  {object}  common.AppError "Unauthorized: Invalid or missing token"
// @Failure      404  {object}  common.AppError "Sender or recipient account not found"
// @Failure      500  {object}  common.AppError "Internal server error while processing transfer"
// @Router       /api/transactions/transfer [post]
func (h *TransactionHandler) Transfer(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.TransferRequest
	if err := common.ValidateAndDecode(r, &req); err != nil {
		return err
	}

	userID, appErr := userIDFrom(r)
	if appErr != nil {
		return appErr
	}

	transaction, err := h.service.Transfer(r.Context(), userID, req.RecipientID, req.Amount)
	if err != nil {
		return ledgerError(err, "Could not process transfer")
	}

	writeJSON(w, http.StatusCreated, model.TransactionResponse{
		Message:     "Transfer completed successfully",
		Transaction: transaction,
	})
	return nil
}

// Deposit godoc
// @Summary      Deposit money
// @Description  Credits the authenticated account.
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        deposit body model.DepositRequest true "Amount to deposit"
// @Success      201  {object}  model.TransactionResponse
// @Failure      400  {object}  common.AppError "Invalid amount"
// @Failure      401  {object}  common.AppError "Unauthorized: Invalid or missing token"
// @Failure      404  {object}  common.AppError "Account not found"
// @Failure      500  {object}  common.AppError "Internal server error while processing deposit"
// @Router       /api/transactions/deposit [post]
func (h *TransactionHandler) Deposit(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.DepositRequest
	if err := common.ValidateAndDecode(r, &req); err != nil {
		return err
	}

	userID, appErr := userIDFrom(r)
	if appErr != nil {
		return appErr
	}

	transaction, err := h.service.Deposit(r.Context(), userID, req.Amount)
	if err != nil {
		return ledgerError(err, "Could not process deposit")
	}

	writeJSON(w, http.StatusCreated, model.TransactionResponse{
		Message:     "Deposit completed successfully",
		Transaction: transaction,
	})
	return nil
}

// Revert godoc
// @Summary      Revert a transfer
// @Description  Undoes a transfer sent by the authenticated account and records a REVERT transaction.
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        revert body model.RevertRequest true "Transaction to revert"
// @Success      201  {object}  model.RevertResponse
// @Failure      400  {object}  common.AppError "Not a transfer, or receiver cannot fund the reversal"
// @Failure      401  {object}  common.AppError "Unauthorized: Invalid or missing token"
// @Failure      403  {object}  common.AppError "Caller is not the original sender"
// @Failure      404  {object}  common.AppError "Transaction not found"
// @Failure      409  {object}  common.AppError "Transaction already reverted"
// @Failure      500  {object}  common.AppError "Internal server error while reverting"
// @Router       /api/transactions/revert [post]
func (h *TransactionHandler) Revert(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.RevertRequest
	if err := common.ValidateAndDecode(r, &req); err != nil {
		return err
	}

	userID, appErr := userIDFrom(r)
	if appErr != nil {
		return appErr
	}

	transaction, err := h.service.Revert(r.Context(), req.TransactionID, userID)
	if err != nil {
		return ledgerError(err, "Could not revert transaction")
	}

	writeJSON(w, http.StatusCreated, model.RevertResponse{
		Message:           "Transaction reverted successfully",
		RevertTransaction: transaction,
	})
	return nil
}

// ListTransactions godoc
// @Summary      List transaction history
// @Description  Retrieves every transaction the authenticated account sent or received, newest first.
// @Tags         transactions
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   model.Transaction
// @Failure      401  {object}  common.AppError "Unauthorized: Invalid or missing token"
// @Failure      404  {object}  common.AppError "Account not found"
// @Failure      500  {object}  common.AppError "Internal server error while retrieving transactions"
// @Router       /api/transactions [get]
func (h *TransactionHandler) ListTransactions(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, appErr := userIDFrom(r)
	if appErr != nil {
		return appErr
	}

	transactions, err := h.service.ListTransactions(r.Context(), userID)
	if err != nil {
		return ledgerError(err, "Could not retrieve transactions")
	}
	if transactions == nil {
		transactions = []*model.Transaction{}
	}

	writeJSON(w, http.StatusOK, transactions)
	return nil
}

// GetTransaction godoc
// @Summary      Get a transaction
// @Tags         transactions
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Transaction ID"
// @Success      200  {object}  model.Transaction
// @Failure      400  {object}  common.AppError "Invalid transaction ID in URL path"
// @Failure      403  {object}  common.AppError "Transaction does not involve the caller"
// @Failure      404  {object}  common.AppError "Transaction not found"
// @Router       /api/transactions/{id} [get]
func (h *TransactionHandler) GetTransaction(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, appErr := userIDFrom(r)
	if appErr != nil {
		return appErr
	}

	transactionID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		return common.NewAppError(http.StatusBadRequest, "Invalid transaction ID in URL path", err)
	}

	transaction, err := h.service.GetTransaction(r.Context(), userID, transactionID)
	if err != nil {
		return ledgerError(err, "Could not retrieve transaction")
	}

	writeJSON(w, http.StatusOK, transaction)
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
