package workers_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/stockledger/internal/adapters/queue"
	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
	"github.com/ammerola/stockledger/internal/workers"
	"github.com/ammerola/stockledger/test/helpers"
	"github.com/ammerola/stockledger/test/mocks"
)

func newTask(t *testing.T, typ string, payload interface{}) *asynq.Task {
	t.Helper()
	b, err := json.Marshal(payload)
	require.NoError(t, err)
	return asynq.NewTask(typ, b)
}

func TestLowStockProcessor_ProcessLowStockAlert(t *testing.T) {
	alert := ports.LowStockAlert{VariantID: 5, Quantity: 2, Threshold: 3, MovementID: 77}

	tests := []struct {
		name          string
		payload       interface{}
		setupMocks    func(alerts *mocks.MockAlertStore, catalog *mocks.MockCatalogService)
		expectedError bool
		skipRetry     bool
	}{
		{
			name:    "records_alert_with_current_quantity",
			payload: alert,
			setupMocks: func(alerts *mocks.MockAlertStore, catalog *mocks.MockCatalogService) {
				catalog.EXPECT().GetVariant(gomock.Any(), int64(5)).
					Return(&domain.Variant{ID: 5, SKU: "TEE-5", StockQuantity: 1}, nil)
				want := alert
				want.Quantity = 1
				alerts.EXPECT().RecordLowStock(gomock.Any(), want).Return(nil)
			},
		},
		{
			name:    "drops_alert_after_restock",
			payload: alert,
			setupMocks: func(alerts *mocks.MockAlertStore, catalog *mocks.MockCatalogService) {
				catalog.EXPECT().GetVariant(gomock.Any(), int64(5)).
					Return(&domain.Variant{ID: 5, StockQuantity: 40}, nil)
			},
		},
		{
			name:    "drops_alert_for_deleted_variant",
			payload: alert,
			setupMocks: func(alerts *mocks.MockAlertStore, catalog *mocks.MockCatalogService) {
				catalog.EXPECT().GetVariant(gomock.Any(), int64(5)).Return(nil, domain.ErrVariantNotFound)
			},
		},
		{
			name:    "catalog_unavailable_retries",
			payload: alert,
			setupMocks: func(alerts *mocks.MockAlertStore, catalog *mocks.MockCatalogService) {
				catalog.EXPECT().GetVariant(gomock.Any(), int64(5)).
					Return(nil, domain.NewStorageError("get variant", errors.New("timeout")))
			},
			expectedError: true,
		},
		{
			name:    "alert_store_failure_retries",
			payload: alert,
			setupMocks: func(alerts *mocks.MockAlertStore, catalog *mocks.MockCatalogService) {
				catalog.EXPECT().GetVariant(gomock.Any(), int64(5)).
					Return(&domain.Variant{ID: 5, StockQuantity: 0}, nil)
				alerts.EXPECT().RecordLowStock(gomock.Any(), gomock.Any()).Return(errors.New("redis down"))
			},
			expectedError: true,
		},
		{
			name:          "invalid_payload_is_not_retried",
			payload:       map[string]string{"variant_id": "five"},
			setupMocks:    func(alerts *mocks.MockAlertStore, catalog *mocks.MockCatalogService) {},
			expectedError: true,
			skipRetry:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			alerts := mocks.NewMockAlertStore(ctrl)
			catalog := mocks.NewMockCatalogService(ctrl)
			tt.setupMocks(alerts, catalog)

			processor := workers.NewLowStockProcessor(alerts, catalog, helpers.TestLogger())
			err := processor.ProcessLowStockAlert(context.Background(), newTask(t, queue.TypeLowStockAlert, tt.payload))

			if !tt.expectedError {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.skipRetry, errors.Is(err, asynq.SkipRetry))
		})
	}
}

func TestExportProcessor_ProcessMovementExport(t *testing.T) {
	since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	req := ports.MovementExportRequest{ExportID: "exp-1", VariantID: 9, Type: "out", Since: &since}
	file := &ports.ExportFile{Filename: "movements-9.xlsx", ContentType: "application/xlsx", Data: []byte("xlsx")}

	statusIs := func(status string) gomock.Matcher {
		return gomock.Cond(func(x any) bool {
			s, ok := x.(*ports.ExportStatus)
			return ok && s.Status == status && s.ExportID == "exp-1" && s.VariantID == 9
		})
	}

	tests := []struct {
		name          string
		payload       ports.MovementExportRequest
		setupMocks    func(exp *mocks.MockMovementExporter, store *mocks.MockObjectStorage, statuses *mocks.MockExportStatusStore)
		expectedError bool
		skipRetry     bool
	}{
		{
			name:    "uploads_and_completes",
			payload: req,
			setupMocks: func(exp *mocks.MockMovementExporter, store *mocks.MockObjectStorage, statuses *mocks.MockExportStatusStore) {
				exp.EXPECT().ExportMovements(gomock.Any(), int64(9), ports.MovementFilter{Type: domain.MovementOut, Since: &since}).
					Return(file, nil)
				store.EXPECT().Upload(gomock.Any(), "exports/movements/9/exp-1/movements-9.xlsx", gomock.Any(), "application/xlsx").
					DoAndReturn(func(ctx context.Context, key string, body io.Reader, ct string) (string, error) {
						b, err := io.ReadAll(body)
						require.NoError(t, err)
						assert.Equal(t, "xlsx", string(b))
						return "s3://bucket/" + key, nil
					})
				store.EXPECT().PresignedURL(gomock.Any(), "exports/movements/9/exp-1/movements-9.xlsx", time.Hour).
					Return("https://signed.example/x", nil)
				statuses.EXPECT().SaveExportStatus(gomock.Any(), gomock.Cond(func(x any) bool {
					s := x.(*ports.ExportStatus)
					return s.Status == ports.ExportStatusCompleted && s.URL == "https://signed.example/x"
				})).Return(nil)
			},
		},
		{
			name:    "unknown_variant_fails_without_retry",
			payload: req,
			setupMocks: func(exp *mocks.MockMovementExporter, store *mocks.MockObjectStorage, statuses *mocks.MockExportStatusStore) {
				exp.EXPECT().ExportMovements(gomock.Any(), int64(9), gomock.Any()).Return(nil, domain.ErrVariantNotFound)
				statuses.EXPECT().SaveExportStatus(gomock.Any(), statusIs(ports.ExportStatusFailed)).Return(nil)
			},
			expectedError: true,
			skipRetry:     true,
		},
		{
			name:    "bad_movement_type_fails_without_retry",
			payload: ports.MovementExportRequest{ExportID: "exp-1", VariantID: 9, Type: "IN"},
			setupMocks: func(exp *mocks.MockMovementExporter, store *mocks.MockObjectStorage, statuses *mocks.MockExportStatusStore) {
				statuses.EXPECT().SaveExportStatus(gomock.Any(), statusIs(ports.ExportStatusFailed)).Return(nil)
			},
			expectedError: true,
			skipRetry:     true,
		},
		{
			name:    "upload_failure_on_last_attempt_marks_failed",
			payload: req,
			setupMocks: func(exp *mocks.MockMovementExporter, store *mocks.MockObjectStorage, statuses *mocks.MockExportStatusStore) {
				exp.EXPECT().ExportMovements(gomock.Any(), int64(9), gomock.Any()).Return(file, nil)
				store.EXPECT().Upload(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return("", errors.New("slow down"))
				statuses.EXPECT().SaveExportStatus(gomock.Any(), statusIs(ports.ExportStatusFailed)).Return(nil)
			},
			expectedError: true,
		},
		{
			name:    "storage_error_is_retried",
			payload: req,
			setupMocks: func(exp *mocks.MockMovementExporter, store *mocks.MockObjectStorage, statuses *mocks.MockExportStatusStore) {
				exp.EXPECT().ExportMovements(gomock.Any(), int64(9), gomock.Any()).
					Return(nil, domain.NewStorageError("list movements", errors.New("timeout")))
				statuses.EXPECT().SaveExportStatus(gomock.Any(), statusIs(ports.ExportStatusFailed)).Return(nil)
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			exp := mocks.NewMockMovementExporter(ctrl)
			store := mocks.NewMockObjectStorage(ctrl)
			statuses := mocks.NewMockExportStatusStore(ctrl)
			tt.setupMocks(exp, store, statuses)

			processor := workers.NewExportProcessor(exp, store, statuses, "exports/movements", time.Hour, helpers.TestLogger())
			err := processor.ProcessMovementExport(context.Background(), newTask(t, queue.TypeMovementExport, tt.payload))

			if !tt.expectedError {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.skipRetry, errors.Is(err, asynq.SkipRetry))
		})
	}
}

func TestCleanupProcessor_CleanupStaleAlerts(t *testing.T) {
	ctrl := gomock.NewController(t)
	alerts := mocks.NewMockAlertStore(ctrl)
	catalog := mocks.NewMockCatalogService(ctrl)

	alerts.EXPECT().ListLowStock(gomock.Any()).Return([]ports.LowStockAlert{
		{VariantID: 1}, {VariantID: 2}, {VariantID: 3}, {VariantID: 4},
	}, nil)

	catalog.EXPECT().GetVariant(gomock.Any(), int64(1)).Return(&domain.Variant{ID: 1, StockQuantity: 2}, nil)
	catalog.EXPECT().GetVariant(gomock.Any(), int64(2)).Return(&domain.Variant{ID: 2, StockQuantity: 50}, nil)
	catalog.EXPECT().GetVariant(gomock.Any(), int64(3)).Return(nil, domain.ErrVariantNotFound)
	catalog.EXPECT().GetVariant(gomock.Any(), int64(4)).Return(nil, errors.New("timeout"))

	alerts.EXPECT().ClearLowStock(gomock.Any(), int64(2)).Return(nil)
	alerts.EXPECT().ClearLowStock(gomock.Any(), int64(3)).Return(nil)

	processor := workers.NewCleanupProcessor(alerts, catalog, 5, helpers.TestLogger())
	require.NoError(t, processor.CleanupStaleAlerts(context.Background(), asynq.NewTask(queue.TypeCleanupStaleAlert, nil)))
}

func TestCleanupProcessor_ListFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	alerts := mocks.NewMockAlertStore(ctrl)
	alerts.EXPECT().ListLowStock(gomock.Any()).Return(nil, errors.New("redis down"))

	processor := workers.NewCleanupProcessor(alerts, mocks.NewMockCatalogService(ctrl), 5, helpers.TestLogger())
	assert.Error(t, processor.CleanupStaleAlerts(context.Background(), asynq.NewTask(queue.TypeCleanupStaleAlert, nil)))
}
