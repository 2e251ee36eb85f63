// internal/workers/export_processor.go
package workers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strconv"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/stockledger/internal/adapters/queue"
	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
)

// ExportProcessor renders movement exports and uploads them to object storage
type ExportProcessor struct {
	exporter ports.MovementExporter
	storage  ports.ObjectStorage
	statuses ports.ExportStatusStore
	prefix   string
	expiry   time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

// NewExportProcessor creates a new export processor. Uploaded files are
// stored below prefix and linked with URLs valid for expiry.
func NewExportProcessor(
	exporter ports.MovementExporter,
	storage ports.ObjectStorage,
	statuses ports.ExportStatusStore,
	prefix string,
	expiry time.Duration,
	logger *slog.Logger,
) *ExportProcessor {
	return &ExportProcessor{
		exporter: exporter,
		storage:  storage,
		statuses: statuses,
		prefix:   prefix,
		expiry:   expiry,
		now:      time.Now,
		logger:   logger.With(slog.String("processor", "export")),
	}
}

// ProcessMovementExport handles a TypeMovementExport task. Domain errors fail
// the export at once; anything else is retried, and the export is marked
// failed when the last retry fails.
func (p *ExportProcessor) ProcessMovementExport(ctx context.Context, t *asynq.Task) error {
	start := time.Now()

	req, err := queue.ParseMovementExport(t)
	if err != nil {
		return err
	}

	p.logger.InfoContext(ctx, "processing movement export",
		slog.String("export_id", req.ExportID),
		slog.Int64("variant_id", req.VariantID))

	url, err := p.export(ctx, req)
	if err != nil {
		if domain.IsDomainError(err) && !errors.Is(err, domain.ErrStorage) {
			p.fail(ctx, req, err)
			return fmt.Errorf("export %s rejected: %v: %w", req.ExportID, err, asynq.SkipRetry)
		}
		if lastAttempt(ctx) {
			p.fail(ctx, req, err)
		}
		return fmt.Errorf("export %s failed: %w", req.ExportID, err)
	}

	if err := p.save(ctx, req, ports.ExportStatusCompleted, url, ""); err != nil {
		return err
	}

	p.logger.InfoContext(ctx, "movement export completed",
		slog.String("export_id", req.ExportID),
		slog.Duration("took", time.Since(start)))
	return nil
}

func (p *ExportProcessor) export(ctx context.Context, req ports.MovementExportRequest) (string, error) {
	filter := ports.MovementFilter{Since: req.Since, Until: req.Until}
	if req.Type != "" {
		mt, err := domain.ParseMovementType(req.Type)
		if err != nil {
			return "", err
		}
		filter.Type = mt
	}

	file, err := p.exporter.ExportMovements(ctx, req.VariantID, filter)
	if err != nil {
		return "", err
	}

	key := path.Join(p.prefix, strconv.FormatInt(req.VariantID, 10), req.ExportID, file.Filename)
	if _, err := p.storage.Upload(ctx, key, bytes.NewReader(file.Data), file.ContentType); err != nil {
		return "", err
	}
	return p.storage.PresignedURL(ctx, key, p.expiry)
}

func (p *ExportProcessor) fail(ctx context.Context, req ports.MovementExportRequest, cause error) {
	p.logger.ErrorContext(ctx, "movement export failed",
		slog.String("export_id", req.ExportID),
		slog.Int64("variant_id", req.VariantID),
		slog.String("error", cause.Error()))

	if err := p.save(ctx, req, ports.ExportStatusFailed, "", cause.Error()); err != nil {
		p.logger.WarnContext(ctx, "failed to record export failure",
			slog.String("export_id", req.ExportID),
			slog.String("error", err.Error()))
	}
}

func (p *ExportProcessor) save(ctx context.Context, req ports.MovementExportRequest, status, url, msg string) error {
	err := p.statuses.SaveExportStatus(ctx, &ports.ExportStatus{
		ExportID:  req.ExportID,
		VariantID: req.VariantID,
		Status:    status,
		URL:       url,
		Error:     msg,
		UpdatedAt: p.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to save export status: %w", err)
	}
	return nil
}

// lastAttempt reports whether the running task will not be retried again.
// Outside a worker it is always true.
func lastAttempt(ctx context.Context) bool {
	retried, ok := asynq.GetRetryCount(ctx)
	if !ok {
		return true
	}
	maxRetry, ok := asynq.GetMaxRetry(ctx)
	if !ok {
		return true
	}
	return retried >= maxRetry
}
