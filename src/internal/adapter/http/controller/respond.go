package controller

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/api-sage/bank-ledger/src/internal/adapter/http/middleware"
	"github.com/api-sage/bank-ledger/src/internal/commons"
	"github.com/api-sage/bank-ledger/src/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func withRequestID[T any](r *http.Request, response commons.Response[T]) commons.Response[T] {
	return response.WithRequestID(middleware.RequestIDFromContext(r.Context()))
}

// statusFor maps a service error to an HTTP status. Unclassified errors are 500.
func statusFor(err error) int {
	var te *domain.TransferError
	if !errors.As(err, &te) {
		return http.StatusInternalServerError
	}

	switch te.Kind {
	case domain.KindInvalidAmount, domain.KindSameAccount:
		return http.StatusBadRequest
	case domain.KindAuthenticationFailed:
		return http.StatusUnauthorized
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindInactiveAccount, domain.KindNoAccounts, domain.KindNoActiveAccount, domain.KindInsufficientFunds:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// clientMessage is the text returned to callers. Classified errors carry
// stable messages; anything else is hidden behind a generic one.
func clientMessage(err error, fallback string) string {
	var te *domain.TransferError
	if errors.As(err, &te) && te.Kind != domain.KindAllocationFailed {
		return te.Message
	}
	return fallback
}
