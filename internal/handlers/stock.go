// internal/handlers/stock.go
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
	"github.com/ammerola/stockledger/internal/pkg/logger"
)

// StockHandler exposes the stock ledger over HTTP
type StockHandler struct {
	ledger ports.StockLedger
	logger *slog.Logger
}

// NewStockHandler creates a new stock handler
func NewStockHandler(ledger ports.StockLedger, logger *slog.Logger) *StockHandler {
	return &StockHandler{
		ledger: ledger,
		logger: logger.With(slog.String("handler", "stock")),
	}
}

// SellRequest is the body of POST /variants/{variantId}/sell
type SellRequest struct {
	Quantity int `json:"quantity"`
}

// AdjustRequest is the body of POST /variants/{variantId}/stock/adjust
type AdjustRequest struct {
	QuantityChange int    `json:"quantity_change"`
	Reason         string `json:"reason"`
}

// MovementsResponse is a page of a variant's movement history
type MovementsResponse struct {
	VariantID int64             `json:"variant_id"`
	Movements []domain.Movement `json:"movements"`
	Count     int               `json:"count"`
}

// Sell handles POST /api/v1/variants/{variantId}/sell
func (h *StockHandler) Sell(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "variantId")
	if err != nil {
		respondDomainError(w, r, h.logger, err, "sell")
		return
	}

	var req SellRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondDomainError(w, r, h.logger, err, "sell")
		return
	}

	change, err := h.ledger.Sell(withVariant(r.Context(), id), id, req.Quantity)
	if err != nil {
		respondDomainError(w, r, h.logger, err, "sell")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, change)
}

// AdjustStock handles POST /api/v1/variants/{variantId}/stock/adjust
func (h *StockHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "variantId")
	if err != nil {
		respondDomainError(w, r, h.logger, err, "adjust stock")
		return
	}

	var req AdjustRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondDomainError(w, r, h.logger, err, "adjust stock")
		return
	}

	change, err := h.ledger.AdjustStock(withVariant(r.Context(), id), id, req.QuantityChange, req.Reason)
	if err != nil {
		respondDomainError(w, r, h.logger, err, "adjust stock")
		return
	}
	if change.Movement == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, change)
}

// ListMovements handles GET /api/v1/variants/{variantId}/movements
func (h *StockHandler) ListMovements(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "variantId")
	if err != nil {
		respondDomainError(w, r, h.logger, err, "list movements")
		return
	}

	filter, err := parseMovementFilter(r)
	if err != nil {
		respondDomainError(w, r, h.logger, err, "list movements")
		return
	}

	movements, err := h.ledger.ListMovements(withVariant(r.Context(), id), id, filter)
	if err != nil {
		respondDomainError(w, r, h.logger, err, "list movements")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, MovementsResponse{
		VariantID: id,
		Movements: movements,
		Count:     len(movements),
	})
}

// parseMovementFilter reads type, since, until, limit and offset.
func parseMovementFilter(r *http.Request) (ports.MovementFilter, error) {
	var filter ports.MovementFilter
	var err error

	if raw := r.URL.Query().Get("type"); raw != "" {
		if filter.Type, err = domain.ParseMovementType(raw); err != nil {
			return filter, err
		}
	}
	if filter.Since, err = queryTime(r, "since"); err != nil {
		return filter, err
	}
	if filter.Until, err = queryTime(r, "until"); err != nil {
		return filter, err
	}
	if filter.Limit, err = queryInt(r, "limit"); err != nil {
		return filter, err
	}
	if filter.Offset, err = queryInt(r, "offset"); err != nil {
		return filter, err
	}
	return filter, nil
}

func withVariant(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, logger.ContextKeyVariantID, id)
}
