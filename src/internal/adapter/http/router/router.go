package router

import (
	"context"
	"net/http"
	"time"

	"github.com/api-sage/bank-ledger/src/internal/adapter/http/middleware"
	"github.com/api-sage/bank-ledger/src/internal/commons"
	"github.com/api-sage/bank-ledger/src/internal/logger"
)

const healthCheckTimeout = 2 * time.Second

type RouteRegistrar interface {
	RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler)
}

// HealthCheck reports whether a dependency such as the database is reachable.
type HealthCheck func(ctx context.Context) error

type healthResponse struct {
	Status string `json:"status"`
}

// New builds the service handler. Registrars get authMiddleware; swagger,
// health and metrics routes stay open.
func New(
	transactionController RouteRegistrar,
	authMiddleware func(http.Handler) http.Handler,
	metricsHandler http.Handler,
	healthCheck HealthCheck,
) http.Handler {
	mux := http.NewServeMux()
	registerSwaggerRoutes(mux)
	registerHealthRoute(mux, healthCheck)

	if metricsHandler != nil {
		mux.Handle("GET /metrics", metricsHandler)
	}
	if transactionController != nil {
		transactionController.RegisterRoutes(mux, authMiddleware)
	}

	return middleware.RequestID(mux)
}

func registerHealthRoute(mux *http.ServeMux, healthCheck HealthCheck) {
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if healthCheck != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
			defer cancel()
			if err := healthCheck(ctx); err != nil {
				logger.Error("health check failed", err, logger.Fields{
					"requestId": middleware.RequestIDFromContext(r.Context()),
				})
				w.WriteHeader(http.StatusServiceUnavailable)
				writeBody(w, commons.ErrorResponse[healthResponse]("service unavailable", "database unreachable"))
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		writeBody(w, commons.SuccessResponse("ok", healthResponse{Status: "UP"}))
	})
}
