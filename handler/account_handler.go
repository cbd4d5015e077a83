package handler

import (
	"net/http"

	"go-ledger/common"
	"go-ledger/logger"
	"go-ledger/service"
)

type AccountHandler struct {
	service *service.AccountService
}

func NewAccountHandler(service *service.AccountService) *AccountHandler {
	return &AccountHandler{service: service}
}

// GetMyAccount godoc
// @Summary      Show the authenticated account
// @Description  Returns the caller's account including its current balance.
// @Tags         accounts
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  model.Account
// @Failure      401  {object}  common.AppError "Unauthorized: Invalid or missing token"
// @Failure      404  {object}  common.AppError "Account not found"
// @Router       /api/accounts/me [get]
func (h *AccountHandler) GetMyAccount(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, appErr := userIDFrom(r)
	if appErr != nil {
		return appErr
	}

	logger.Log.WithField("user_id", userID).Info("Get account request received")

	account, err := h.service.GetAccount(r.Context(), userID)
	if err != nil {
		return ledgerError(err, "Could not retrieve account")
	}

	writeJSON(w, http.StatusOK, account)
	return nil
}
