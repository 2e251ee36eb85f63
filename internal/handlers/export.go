// internal/handlers/export.go
package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ammerola/stockledger/internal/core/ports"
)

// CodeUnavailable is returned when an optional backend is not configured.
const CodeUnavailable = "SERVICE_UNAVAILABLE"

// ExportHandler serves movement history exports. tasks and statuses are nil
// when Redis is not configured; only the synchronous download works then.
type ExportHandler struct {
	exporter ports.MovementExporter
	catalog  ports.CatalogService
	tasks    ports.TaskEnqueuer
	statuses ports.ExportStatusStore
	logger   *slog.Logger
}

// NewExportHandler creates a new export handler
func NewExportHandler(
	exporter ports.MovementExporter,
	catalog ports.CatalogService,
	tasks ports.TaskEnqueuer,
	statuses ports.ExportStatusStore,
	logger *slog.Logger,
) *ExportHandler {
	return &ExportHandler{
		exporter: exporter,
		catalog:  catalog,
		tasks:    tasks,
		statuses: statuses,
		logger:   logger.With(slog.String("handler", "export")),
	}
}

// ExportAccepted is the body of a scheduled export response
type ExportAccepted struct {
	ExportID  string `json:"export_id"`
	Status    string `json:"status"`
	StatusURL string `json:"status_url"`
}

// DownloadMovements handles GET /api/v1/variants/{variantId}/movements/export
func (h *ExportHandler) DownloadMovements(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "variantId")
	if err != nil {
		respondDomainError(w, r, h.logger, err, "export movements")
		return
	}

	filter, err := parseMovementFilter(r)
	if err != nil {
		respondDomainError(w, r, h.logger, err, "export movements")
		return
	}

	file, err := h.exporter.ExportMovements(withVariant(r.Context(), id), id, filter)
	if err != nil {
		respondDomainError(w, r, h.logger, err, "export movements")
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(file.Data); err != nil {
		h.logger.WarnContext(r.Context(), "failed to write export",
			slog.Int64("variant_id", id),
			slog.String("error", err.Error()))
	}
}

// ScheduleExport handles POST /api/v1/variants/{variantId}/movements/export.
// The workbook is built by the worker and uploaded to object storage.
func (h *ExportHandler) ScheduleExport(w http.ResponseWriter, r *http.Request) {
	if h.tasks == nil {
		respondError(w, r, h.logger, http.StatusServiceUnavailable, CodeUnavailable, "background exports are not enabled")
		return
	}

	id, err := pathID(r, "variantId")
	if err != nil {
		respondDomainError(w, r, h.logger, err, "schedule export")
		return
	}

	filter, err := parseMovementFilter(r)
	if err == nil {
		err = filter.Validate()
	}
	if err != nil {
		respondDomainError(w, r, h.logger, err, "schedule export")
		return
	}

	ctx := withVariant(r.Context(), id)
	if _, err := h.catalog.GetVariant(ctx, id); err != nil {
		respondDomainError(w, r, h.logger, err, "schedule export")
		return
	}

	exportID, err := h.tasks.EnqueueMovementExport(ctx, ports.MovementExportRequest{
		VariantID: id,
		Type:      string(filter.Type),
		Since:     filter.Since,
		Until:     filter.Until,
	})
	if err != nil {
		respondDomainError(w, r, h.logger, err, "schedule export")
		return
	}

	w.Header().Set("Location", "/api/v1/exports/"+exportID)
	respondJSON(w, h.logger, http.StatusAccepted, ExportAccepted{
		ExportID:  exportID,
		Status:    ports.ExportStatusPending,
		StatusURL: "/api/v1/exports/" + exportID,
	})
}

// GetExportStatus handles GET /api/v1/exports/{exportId}
func (h *ExportHandler) GetExportStatus(w http.ResponseWriter, r *http.Request) {
	if h.statuses == nil {
		respondError(w, r, h.logger, http.StatusServiceUnavailable, CodeUnavailable, "background exports are not enabled")
		return
	}

	status, err := h.statuses.GetExportStatus(r.Context(), r.PathValue("exportId"))
	if err != nil {
		respondDomainError(w, r, h.logger, err, "get export status")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, status)
}
