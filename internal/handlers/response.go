// internal/handlers/response.go
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ammerola/lending-be/internal/core/domain"
)

// envelope wraps every API response
type envelope struct {
	Status     bool   `json:"status"`
	StatusCode int    `json:"statusCode"`
	Path       string `json:"path"`
	Result     any    `json:"result,omitempty"`
	Error      string `json:"error,omitempty"`
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	writeEnvelope(w, status, envelope{
		Status:     true,
		StatusCode: status,
		Path:       r.URL.RequestURI(),
		Result:     data,
	})
}

func respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeEnvelope(w, status, envelope{
		Status:     false,
		StatusCode: status,
		Path:       r.URL.RequestURI(),
		Error:      message,
	})
}

func writeEnvelope(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// statusFor maps a ledger error kind onto an HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrExceedsBorrowed),
		errors.Is(err, domain.ErrInvalidItem),
		errors.Is(err, domain.ErrInvalidSort):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrDuplicateName), errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError renders a service failure. Rule failures keep their
// message; anything else is logged and hidden behind fallback.
func respondServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, fallback string) {
	var le *domain.LedgerError
	status := statusFor(err)
	if status == http.StatusInternalServerError || !errors.As(err, &le) {
		logger.ErrorContext(r.Context(), fallback,
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
		respondError(w, r, http.StatusInternalServerError, fallback)
		return
	}

	logger.DebugContext(r.Context(), "request rejected",
		slog.Int("status", status),
		slog.String("error", err.Error()))
	respondError(w, r, status, le.Message)
}
