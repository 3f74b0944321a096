// internal/handlers/router.go
package handlers

import (
	"context"
	"net/http"

	"github.com/ammerola/lending-be/internal/handlers/middleware"
	"github.com/ammerola/lending-be/internal/pkg/config"
	"github.com/ammerola/lending-be/internal/pkg/logger"
)

// Handlers groups everything the router serves
type Handlers struct {
	Items   *ItemHandler
	Reports *ReportHandler
	Health  *HealthHandler
}

// NewRouter registers all routes and wraps them in the middleware chain.
// ctx bounds the rate limiter's background cleanup.
func NewRouter(ctx context.Context, h Handlers, log *logger.Logger, cfg *config.Config) http.Handler {
	mux := http.NewServeMux()
	registerRoutes(mux, h)

	chain := []func(http.Handler) http.Handler{
		middleware.RequestID(cfg.Security.RequestIDHeader),
		middleware.Logger(log),
		middleware.Recovery(log.Logger),
	}
	if cfg.Security.RateLimitRequests > 0 {
		chain = append(chain, middleware.RateLimit(ctx, cfg.Security.RateLimitRequests, cfg.Security.RateLimitDuration))
	}
	chain = append(chain, middleware.CORS(cfg.Security.AllowedOrigins))
	if cfg.Security.SecureHeaders {
		chain = append(chain, middleware.SecureHeaders)
	}

	return middleware.Chain(mux, chain...)
}

func registerRoutes(mux *http.ServeMux, h Handlers) {
	if h.Health != nil {
		mux.HandleFunc("GET /health", h.Health.Health)
		mux.HandleFunc("GET /ready", h.Health.Readiness)
	}

	mux.HandleFunc("POST /api/v1/items", h.Items.CreateItem)
	mux.HandleFunc("GET /api/v1/items", h.Items.ListItems)
	mux.HandleFunc("GET /api/v1/items/search", h.Items.SearchItems)
	mux.HandleFunc("GET /api/v1/items/summary", h.Items.GetSummary)
	mux.HandleFunc("GET /api/v1/items/{id}", h.Items.GetItem)
	mux.HandleFunc("PATCH /api/v1/items/{id}", h.Items.UpdateItem)
	mux.HandleFunc("DELETE /api/v1/items/{id}", h.Items.DeleteItem)
	mux.HandleFunc("GET /api/v1/items/{id}/movements", h.Items.ListMovements)

	// PATCH kept for clients of the earlier API
	for _, method := range []string{http.MethodPost, http.MethodPatch} {
		mux.HandleFunc(method+" /api/v1/items/{id}/borrow", h.Items.BorrowItem)
		mux.HandleFunc(method+" /api/v1/items/{id}/return", h.Items.ReturnItem)
	}

	if h.Reports != nil {
		mux.HandleFunc("POST /api/v1/reports/stock", h.Reports.ScheduleStockReport)
	}
}
