// Package queue schedules background work on asynq.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/ammerola/stockledger/internal/core/ports"
)

// Task types handled by the worker.
const (
	TypeLowStockAlert     = "stock:low_stock_alert"
	TypeMovementExport    = "movements:export"
	TypeCleanupStaleAlert = "alerts:cleanup"
)

// Queue names. They must match the ASYNQ_QUEUES weights.
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// Client is the part of *asynq.Client the enqueuer needs.
type Client interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Enqueuer implements ports.TaskEnqueuer on asynq
type Enqueuer struct {
	client   Client
	statuses ports.ExportStatusStore
	now      func() time.Time
	logger   *slog.Logger
}

// Statically assert that *Enqueuer implements the TaskEnqueuer interface.
var _ ports.TaskEnqueuer = (*Enqueuer)(nil)

// NewEnqueuer creates a task enqueuer. statuses records the pending state of
// exports so clients can poll them right away.
func NewEnqueuer(client Client, statuses ports.ExportStatusStore, logger *slog.Logger) *Enqueuer {
	return &Enqueuer{
		client:   client,
		statuses: statuses,
		now:      time.Now,
		logger:   logger.With(slog.String("component", "task_enqueuer")),
	}
}

// EnqueueLowStockAlert schedules an alert. Alerts for the same movement are
// deduplicated by task ID.
func (e *Enqueuer) EnqueueLowStockAlert(ctx context.Context, alert ports.LowStockAlert) error {
	b, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal low stock alert: %w", err)
	}

	task := asynq.NewTask(TypeLowStockAlert, b)
	info, err := e.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueCritical),
		asynq.MaxRetry(5),
		asynq.TaskID(fmt.Sprintf("low_stock:%d:%d", alert.VariantID, alert.MovementID)),
		asynq.Retention(time.Hour))
	if err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return nil
		}
		return fmt.Errorf("failed to enqueue low stock alert: %w", err)
	}

	e.logger.InfoContext(ctx, "low stock alert enqueued",
		slog.String("task_id", info.ID),
		slog.Int64("variant_id", alert.VariantID),
		slog.Int("quantity", alert.Quantity))
	return nil
}

// EnqueueMovementExport schedules an export and returns its ID. The pending
// status is saved before the task is enqueued so a fast worker cannot have
// its result overwritten.
func (e *Enqueuer) EnqueueMovementExport(ctx context.Context, req ports.MovementExportRequest) (string, error) {
	if req.ExportID == "" {
		req.ExportID = uuid.New().String()
	}

	b, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal export request: %w", err)
	}

	if err := e.saveStatus(ctx, req, ports.ExportStatusPending, ""); err != nil {
		return "", err
	}

	task := asynq.NewTask(TypeMovementExport, b)
	info, err := e.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueLow),
		asynq.MaxRetry(3),
		asynq.TaskID(req.ExportID),
		asynq.Timeout(5*time.Minute),
		asynq.Retention(24*time.Hour))
	if err != nil {
		if statusErr := e.saveStatus(ctx, req, ports.ExportStatusFailed, "could not be scheduled"); statusErr != nil {
			e.logger.WarnContext(ctx, "failed to record export failure",
				slog.String("export_id", req.ExportID),
				slog.String("error", statusErr.Error()))
		}
		return "", fmt.Errorf("failed to enqueue export task: %w", err)
	}

	e.logger.InfoContext(ctx, "movement export enqueued",
		slog.String("task_id", info.ID),
		slog.String("export_id", req.ExportID),
		slog.Int64("variant_id", req.VariantID))
	return req.ExportID, nil
}

func (e *Enqueuer) saveStatus(ctx context.Context, req ports.MovementExportRequest, status, msg string) error {
	if e.statuses == nil {
		return nil
	}
	err := e.statuses.SaveExportStatus(ctx, &ports.ExportStatus{
		ExportID:  req.ExportID,
		VariantID: req.VariantID,
		Status:    status,
		Error:     msg,
		UpdatedAt: e.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to save export status: %w", err)
	}
	return nil
}

// ParseLowStockAlert decodes a TypeLowStockAlert payload.
func ParseLowStockAlert(t *asynq.Task) (ports.LowStockAlert, error) {
	var alert ports.LowStockAlert
	if err := json.Unmarshal(t.Payload(), &alert); err != nil {
		return alert, fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	if alert.VariantID <= 0 {
		return alert, fmt.Errorf("payload has no variant id: %w", asynq.SkipRetry)
	}
	return alert, nil
}

// ParseMovementExport decodes a TypeMovementExport payload.
func ParseMovementExport(t *asynq.Task) (ports.MovementExportRequest, error) {
	var req ports.MovementExportRequest
	if err := json.Unmarshal(t.Payload(), &req); err != nil {
		return req, fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	if req.ExportID == "" || req.VariantID <= 0 {
		return req, fmt.Errorf("payload is missing export or variant id: %w", asynq.SkipRetry)
	}
	return req, nil
}

// NewCleanupTask builds the periodic stale alert sweep. It carries no payload.
func NewCleanupTask() *asynq.Task {
	return asynq.NewTask(TypeCleanupStaleAlert, nil,
		asynq.Queue(QueueLow),
		asynq.MaxRetry(1),
		asynq.Unique(10*time.Minute))
}
