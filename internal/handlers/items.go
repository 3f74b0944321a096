// internal/handlers/items.go
package handlers

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/ammerola/lending-be/internal/core/domain"
	"github.com/ammerola/lending-be/internal/core/ports"
)

const maxBodyBytes = 1 << 20

// ItemHandler handles item-related HTTP requests
type ItemHandler struct {
	service ports.LedgerService
	logger  *slog.Logger
}

// NewItemHandler creates a new item handler
func NewItemHandler(service ports.LedgerService, logger *slog.Logger) *ItemHandler {
	return &ItemHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "items")),
	}
}

// stockRequest is the body of borrow and return. Quantity stays loosely
// typed so a non-numeric value reaches the quantity rule instead of
// failing as a malformed body.
type stockRequest struct {
	Quantity any `json:"quantity"`
}

// stockResponse is returned by borrow and return
type stockResponse struct {
	Message string       `json:"message"`
	Item    stockSummary `json:"item"`
}

type stockSummary struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Quantity         int       `json:"quantity"`
	BorrowedQuantity int       `json:"borrowed_quantity"`
}

// CreateItem handles POST /api/v1/items
func (h *ItemHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var input domain.NewItem
	if !h.decode(w, r, &input) {
		return
	}

	item, err := h.service.Create(r.Context(), input)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to create item")
		return
	}

	h.logger.InfoContext(r.Context(), "item stored",
		slog.String("item_id", item.ID.String()),
		slog.Int("quantity", item.Quantity))

	respondJSON(w, r, http.StatusCreated, item)
}

// ListItems handles GET /api/v1/items
func (h *ItemHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context())
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to list items")
		return
	}
	respondJSON(w, r, http.StatusOK, items)
}

// GetItem handles GET /api/v1/items/{id}
func (h *ItemHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}

	item, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to retrieve item")
		return
	}
	respondJSON(w, r, http.StatusOK, item)
}

// UpdateItem handles PATCH /api/v1/items/{id}
func (h *ItemHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}

	var patch domain.ItemPatch
	if !h.decode(w, r, &patch) {
		return
	}

	item, err := h.service.Update(r.Context(), id, patch)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to update item")
		return
	}
	respondJSON(w, r, http.StatusOK, item)
}

// DeleteItem handles DELETE /api/v1/items/{id}
func (h *ItemHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}

	result, err := h.service.Delete(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to delete item")
		return
	}
	respondJSON(w, r, http.StatusOK, result)
}

// BorrowItem handles POST /api/v1/items/{id}/borrow
func (h *ItemHandler) BorrowItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}

	var req stockRequest
	if !h.decode(w, r, &req) {
		return
	}

	item, err := h.service.Borrow(r.Context(), id, parseQuantity(req.Quantity))
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to borrow item")
		return
	}
	respondJSON(w, r, http.StatusOK, newStockResponse("Item borrowed successfully", item))
}

// ReturnItem handles POST /api/v1/items/{id}/return
func (h *ItemHandler) ReturnItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}

	var req stockRequest
	if !h.decode(w, r, &req) {
		return
	}

	item, err := h.service.Return(r.Context(), id, parseQuantity(req.Quantity))
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to return item")
		return
	}
	respondJSON(w, r, http.StatusOK, newStockResponse("Item returned successfully", item))
}

// SearchItems handles GET /api/v1/items/search
func (h *ItemHandler) SearchItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	params, err := domain.NewSearchParams(q.Get("query"), q.Get("sortBy"), q.Get("order"))
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to search items")
		return
	}

	items, err := h.service.Search(r.Context(), params)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to search items")
		return
	}
	respondJSON(w, r, http.StatusOK, items)
}

// GetSummary handles GET /api/v1/items/summary
func (h *ItemHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to summarize ledger")
		return
	}
	respondJSON(w, r, http.StatusOK, summary)
}

// ListMovements handles GET /api/v1/items/{id}/movements
func (h *ItemHandler) ListMovements(w http.ResponseWriter, r *http.Request) {
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(w, r, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	movements, err := h.service.Movements(r.Context(), id, limit)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to list movements")
		return
	}
	respondJSON(w, r, http.StatusOK, movements)
}

// Helper methods

func (h *ItemHandler) itemID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "Invalid item ID format")
		return uuid.Nil, false
	}
	return id, true
}

func (h *ItemHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.logger.DebugContext(r.Context(), "invalid request body",
			slog.String("error", err.Error()))
		respondError(w, r, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// parseQuantity accepts JSON numbers and numeric strings. Anything else
// becomes NaN, which the quantity rule rejects.
func parseQuantity(v any) float64 {
	switch q := v.(type) {
	case float64:
		return q
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(q), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func newStockResponse(message string, item *domain.Item) stockResponse {
	return stockResponse{
		Message: message,
		Item: stockSummary{
			ID:               item.ID,
			Name:             item.Name,
			Quantity:         item.Quantity,
			BorrowedQuantity: item.BorrowedQuantity,
		},
	}
}
