// internal/handlers/responses.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ammerola/stockledger/internal/core/domain"
)

// Error codes returned in ErrorResponse.Error
const (
	CodeNotFound   = "NOT_FOUND"
	CodeOutOfStock = "OUT_OF_STOCK"
	CodeValidation = "VALIDATION_ERROR"
	CodeConflict   = "CONFLICT"
	CodeInternal   = "INTERNAL_ERROR"
	CodeRateLimit  = "RATE_LIMITED"
)

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Status    int            `json:"status"`
	Error     string         `json:"error"`
	Message   string         `json:"message"`
	Path      string         `json:"path"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

func respondJSON(w http.ResponseWriter, logger *slog.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response",
			slog.String("error", err.Error()))
	}
}

func respondError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, status int, code, message string) {
	respondJSON(w, logger, status, ErrorResponse{
		Status:    status,
		Error:     code,
		Message:   message,
		Path:      r.URL.Path,
		Timestamp: time.Now().UTC(),
	})
}

// respondDomainError maps err onto the API error contract. Unexpected errors
// are logged and replaced by a generic message.
func respondDomainError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, op string) {
	body := ErrorResponse{
		Path:      r.URL.Path,
		Message:   err.Error(),
		Timestamp: time.Now().UTC(),
	}

	var oos *domain.OutOfStockError
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &oos):
		body.Status, body.Error = http.StatusBadRequest, CodeOutOfStock
		body.Details = map[string]any{
			"variant_id": oos.VariantID,
			"requested":  oos.Requested,
			"available":  oos.Available,
		}
	case errors.As(err, &verr):
		body.Status, body.Error = http.StatusBadRequest, CodeValidation
		body.Details = map[string]any{"field": verr.Field}
	case errors.Is(err, domain.ErrInvalidArgument):
		body.Status, body.Error = http.StatusBadRequest, CodeValidation
	case errors.Is(err, domain.ErrVariantNotFound),
		errors.Is(err, domain.ErrItemNotFound),
		errors.Is(err, domain.ErrExportNotFound):
		body.Status, body.Error = http.StatusNotFound, CodeNotFound
	case errors.Is(err, domain.ErrDuplicateSKU):
		body.Status, body.Error = http.StatusConflict, CodeConflict
	default:
		logger.ErrorContext(r.Context(), op+" failed",
			slog.String("error", err.Error()))
		body.Status, body.Error = http.StatusInternalServerError, CodeInternal
		body.Message = "internal server error"
	}

	respondJSON(w, logger, body.Status, body)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return domain.NewValidationError("body", fmt.Sprintf("is invalid: %v", err))
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError(name, "must be a positive integer")
	}
	return id, nil
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.NewValidationError(name, "must be an integer")
	}
	return n, nil
}

// queryTime accepts RFC 3339 timestamps and plain dates.
func queryTime(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, domain.NewValidationError(name, "must be an RFC 3339 timestamp or a YYYY-MM-DD date")
}
