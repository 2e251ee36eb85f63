// internal/handlers/alerts.go
package handlers

import (
	"cmp"
	"log/slog"
	"net/http"
	"slices"

	"github.com/ammerola/stockledger/internal/core/ports"
)

// AlertHandler lists and acknowledges low-stock alerts
type AlertHandler struct {
	alerts ports.AlertStore
	logger *slog.Logger
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(alerts ports.AlertStore, logger *slog.Logger) *AlertHandler {
	return &AlertHandler{
		alerts: alerts,
		logger: logger.With(slog.String("handler", "alerts")),
	}
}

// ListLowStock handles GET /api/v1/alerts/low-stock. Alerts are sorted by
// quantity, lowest first.
func (h *AlertHandler) ListLowStock(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.alerts.ListLowStock(r.Context())
	if err != nil {
		respondDomainError(w, r, h.logger, err, "list low stock alerts")
		return
	}
	if alerts == nil {
		alerts = []ports.LowStockAlert{}
	}

	slices.SortFunc(alerts, func(a, b ports.LowStockAlert) int {
		if c := cmp.Compare(a.Quantity, b.Quantity); c != 0 {
			return c
		}
		return cmp.Compare(a.VariantID, b.VariantID)
	})

	respondJSON(w, h.logger, http.StatusOK, ListResponse[ports.LowStockAlert]{
		Data:  alerts,
		Count: len(alerts),
	})
}

// AcknowledgeLowStock handles DELETE /api/v1/alerts/low-stock/{variantId}
func (h *AlertHandler) AcknowledgeLowStock(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "variantId")
	if err != nil {
		respondDomainError(w, r, h.logger, err, "acknowledge alert")
		return
	}

	if err := h.alerts.ClearLowStock(r.Context(), id); err != nil {
		respondDomainError(w, r, h.logger, err, "acknowledge alert")
		return
	}

	h.logger.InfoContext(r.Context(), "low stock alert acknowledged", slog.Int64("variant_id", id))
	w.WriteHeader(http.StatusNoContent)
}
