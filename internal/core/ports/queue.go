package ports

import (
	"context"
	"time"
)

// TaskEnqueuer schedules background work after a request has committed.
type TaskEnqueuer interface {
	EnqueueLowStockAlert(ctx context.Context, alert LowStockAlert) error
	EnqueueMovementExport(ctx context.Context, req MovementExportRequest) (string, error)
}

// LowStockAlert is the payload of a low-stock notification.
type LowStockAlert struct {
	VariantID  int64     `json:"variant_id"`
	Quantity   int       `json:"quantity"`
	Threshold  int       `json:"threshold"`
	MovementID int64     `json:"movement_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// MovementExportRequest is the payload of an asynchronous history export.
type MovementExportRequest struct {
	ExportID  string     `json:"export_id"`
	VariantID int64      `json:"variant_id"`
	Type      string     `json:"type,omitempty"`
	Since     *time.Time `json:"since,omitempty"`
	Until     *time.Time `json:"until,omitempty"`
}

// ExportStatus is what the API reports for an asynchronous export.
type ExportStatus struct {
	ExportID  string    `json:"export_id"`
	VariantID int64     `json:"variant_id"`
	Status    string    `json:"status"`
	URL       string    `json:"url,omitempty"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Export status values
const (
	ExportStatusPending   = "pending"
	ExportStatusCompleted = "completed"
	ExportStatusFailed    = "failed"
)
