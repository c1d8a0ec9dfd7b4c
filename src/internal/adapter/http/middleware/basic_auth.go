package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/api-sage/bank-ledger/src/internal/commons"
	"github.com/api-sage/bank-ledger/src/internal/logger"
)

// BasicAuth admits only callers presenting the configured channel credentials.
func BasicAuth(channelID, channelKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fields := logger.Fields{
				"method":    r.Method,
				"path":      r.URL.Path,
				"requestId": RequestIDFromContext(r.Context()),
			}

			if channelID == "" || channelKey == "" {
				logger.Error("basic auth middleware missing channel configuration", nil, fields)
				writeError(w, r, http.StatusInternalServerError, "server auth configuration is missing")
				return
			}

			id, key, ok := r.BasicAuth()
			if !ok || !secureEqual(id, channelID) || !secureEqual(key, channelKey) {
				fields["credentials"] = "invalid_or_missing"
				logger.Info("basic auth middleware unauthorized request", fields)
				w.Header().Set("WWW-Authenticate", `Basic realm="bank-ledger"`)
				writeError(w, r, http.StatusUnauthorized, "unauthorized")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	response := commons.ErrorResponse[struct{}](message).WithRequestID(RequestIDFromContext(r.Context()))
	_ = json.NewEncoder(w).Encode(response)
}

func secureEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
