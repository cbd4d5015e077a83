package handler

import (
	"net/http"

	"go-ledger/common"
	"go-ledger/service"
)

func ErrorHandlingMiddleware(next func(http.ResponseWriter, *http.Request) *common.AppError) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := next(w, r); err != nil {
			err.Send(w)
		}
	}
}

// ledgerError maps engine failures to HTTP responses. Unclassified errors are
// infrastructure failures and never leak their text to the client.
func ledgerError(err error, fallback string) *common.AppError {
	kind, ok := service.KindOf(err)
	if !ok {
		return common.NewAppError(http.StatusInternalServerError, fallback, err)
	}

	switch kind {
	case service.KindNotFound:
		return common.NewAppError(http.StatusNotFound, err.Error(), err)
	case service.KindForbidden:
		return common.NewAppError(http.StatusForbidden, err.Error(), err)
	case service.KindAlreadyReverted:
		return common.NewAppError(http.StatusConflict, err.Error(), err)
	case service.KindInvalidOperation, service.KindInsufficientFunds:
		return common.NewAppError(http.StatusBadRequest, err.Error(), err)
	default:
		return common.NewAppError(http.StatusInternalServerError, fallback, err)
	}
}
