package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
	"github.com/ammerola/stockledger/internal/handlers"
	"github.com/ammerola/stockledger/test/helpers"
	"github.com/ammerola/stockledger/test/mocks"
)

func decodeError(t *testing.T, body []byte) handlers.ErrorResponse {
	t.Helper()
	var resp handlers.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp
}

func TestStockHandler_Sell(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		variantID      string
		body           string
		setupMocks     func(m *mocks.MockStockLedger)
		expectedStatus int
		validateBody   func(t *testing.T, body []byte)
	}{
		{
			name:      "sells_stock",
			variantID: "7",
			body:      `{"quantity": 3}`,
			setupMocks: func(m *mocks.MockStockLedger) {
				m.EXPECT().Sell(gomock.Any(), int64(7), 3).Return(&ports.StockChange{
					VariantID:        7,
					PreviousQuantity: 10,
					Quantity:         7,
					Movement: &domain.Movement{
						ID: 41, VariantID: 7, Type: domain.MovementOut,
						QuantityChange: -3, Reason: domain.ReasonSale, CreatedAt: at,
					},
				}, nil)
			},
			expectedStatus: http.StatusOK,
			validateBody: func(t *testing.T, body []byte) {
				var change ports.StockChange
				require.NoError(t, json.Unmarshal(body, &change))
				assert.Equal(t, 7, change.Quantity)
				assert.Equal(t, 10, change.PreviousQuantity)
				require.NotNil(t, change.Movement)
				assert.Equal(t, domain.MovementOut, change.Movement.Type)
				assert.Equal(t, -3, change.Movement.QuantityChange)
				assert.Equal(t, "SALE", change.Movement.Reason)
			},
		},
		{
			name:      "out_of_stock_reports_details",
			variantID: "7",
			body:      `{"quantity": 5}`,
			setupMocks: func(m *mocks.MockStockLedger) {
				m.EXPECT().Sell(gomock.Any(), int64(7), 5).
					Return(nil, &domain.OutOfStockError{VariantID: 7, Requested: 5, Available: 2})
			},
			expectedStatus: http.StatusBadRequest,
			validateBody: func(t *testing.T, body []byte) {
				resp := decodeError(t, body)
				assert.Equal(t, handlers.CodeOutOfStock, resp.Error)
				assert.Equal(t, http.StatusBadRequest, resp.Status)
				assert.Equal(t, "/api/v1/variants/7/sell", resp.Path)
				assert.EqualValues(t, 7, resp.Details["variant_id"])
				assert.EqualValues(t, 5, resp.Details["requested"])
				assert.EqualValues(t, 2, resp.Details["available"])
			},
		},
		{
			name:      "non_positive_quantity",
			variantID: "7",
			body:      `{"quantity": 0}`,
			setupMocks: func(m *mocks.MockStockLedger) {
				m.EXPECT().Sell(gomock.Any(), int64(7), 0).
					Return(nil, domain.NewValidationError("quantity", "must be positive"))
			},
			expectedStatus: http.StatusBadRequest,
			validateBody: func(t *testing.T, body []byte) {
				resp := decodeError(t, body)
				assert.Equal(t, handlers.CodeValidation, resp.Error)
				assert.Equal(t, "quantity", resp.Details["field"])
			},
		},
		{
			name:      "unknown_variant",
			variantID: "99",
			body:      `{"quantity": 1}`,
			setupMocks: func(m *mocks.MockStockLedger) {
				m.EXPECT().Sell(gomock.Any(), int64(99), 1).Return(nil, domain.ErrVariantNotFound)
			},
			expectedStatus: http.StatusNotFound,
			validateBody: func(t *testing.T, body []byte) {
				assert.Equal(t, handlers.CodeNotFound, decodeError(t, body).Error)
			},
		},
		{
			name:      "storage_failure_hides_cause",
			variantID: "7",
			body:      `{"quantity": 1}`,
			setupMocks: func(m *mocks.MockStockLedger) {
				m.EXPECT().Sell(gomock.Any(), int64(7), 1).
					Return(nil, domain.NewStorageError("sell", errors.New("pq: connection reset")))
			},
			expectedStatus: http.StatusInternalServerError,
			validateBody: func(t *testing.T, body []byte) {
				resp := decodeError(t, body)
				assert.Equal(t, handlers.CodeInternal, resp.Error)
				assert.NotContains(t, resp.Message, "connection reset")
			},
		},
		{
			name:           "invalid_variant_id",
			variantID:      "abc",
			body:           `{"quantity": 1}`,
			setupMocks:     func(m *mocks.MockStockLedger) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown_body_field",
			variantID:      "7",
			body:           `{"qty": 1}`,
			setupMocks:     func(m *mocks.MockStockLedger) {},
			expectedStatus: http.StatusBadRequest,
			validateBody: func(t *testing.T, body []byte) {
				assert.Equal(t, "body", decodeError(t, body).Details["field"])
			},
		},
		{
			name:           "malformed_json",
			variantID:      "7",
			body:           `{"quantity":`,
			setupMocks:     func(m *mocks.MockStockLedger) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			ledger := mocks.NewMockStockLedger(ctrl)
			tt.setupMocks(ledger)

			handler := handlers.NewStockHandler(ledger, helpers.TestLogger())

			req := httptest.NewRequest(http.MethodPost, "/api/v1/variants/"+tt.variantID+"/sell", bytes.NewBufferString(tt.body))
			req.SetPathValue("variantId", tt.variantID)
			w := httptest.NewRecorder()

			handler.Sell(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			if tt.validateBody != nil {
				tt.validateBody(t, w.Body.Bytes())
			}
		})
	}
}

func TestStockHandler_AdjustStock(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMocks     func(m *mocks.MockStockLedger)
		expectedStatus int
		validateBody   func(t *testing.T, body []byte)
	}{
		{
			name: "restock",
			body: `{"quantity_change": 10, "reason": "PURCHASE_ORDER_RECEIPT"}`,
			setupMocks: func(m *mocks.MockStockLedger) {
				m.EXPECT().AdjustStock(gomock.Any(), int64(3), 10, "PURCHASE_ORDER_RECEIPT").Return(&ports.StockChange{
					VariantID: 3, PreviousQuantity: 5, Quantity: 15,
					Movement: &domain.Movement{ID: 1, Type: domain.MovementAdjustment, QuantityChange: 10, Reason: "PURCHASE_ORDER_RECEIPT"},
				}, nil)
			},
			expectedStatus: http.StatusOK,
			validateBody: func(t *testing.T, body []byte) {
				var change ports.StockChange
				require.NoError(t, json.Unmarshal(body, &change))
				assert.Equal(t, 15, change.Quantity)
				assert.Equal(t, domain.MovementAdjustment, change.Movement.Type)
			},
		},
		{
			name: "zero_delta_has_no_movement",
			body: `{"quantity_change": 0, "reason": "noop"}`,
			setupMocks: func(m *mocks.MockStockLedger) {
				m.EXPECT().AdjustStock(gomock.Any(), int64(3), 0, "noop").Return(&ports.StockChange{VariantID: 3}, nil)
			},
			expectedStatus: http.StatusNoContent,
			validateBody: func(t *testing.T, body []byte) {
				assert.Empty(t, body)
			},
		},
		{
			name: "below_zero",
			body: `{"quantity_change": -5, "reason": "CORRECTION"}`,
			setupMocks: func(m *mocks.MockStockLedger) {
				m.EXPECT().AdjustStock(gomock.Any(), int64(3), -5, "CORRECTION").
					Return(nil, &domain.OutOfStockError{VariantID: 3, Requested: 5, Available: 3})
			},
			expectedStatus: http.StatusBadRequest,
			validateBody: func(t *testing.T, body []byte) {
				resp := decodeError(t, body)
				assert.Equal(t, handlers.CodeOutOfStock, resp.Error)
				assert.EqualValues(t, 3, resp.Details["available"])
			},
		},
		{
			name: "missing_reason",
			body: `{"quantity_change": 2}`,
			setupMocks: func(m *mocks.MockStockLedger) {
				m.EXPECT().AdjustStock(gomock.Any(), int64(3), 2, "").
					Return(nil, domain.NewValidationError("reason", "is required"))
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			ledger := mocks.NewMockStockLedger(ctrl)
			tt.setupMocks(ledger)

			handler := handlers.NewStockHandler(ledger, helpers.TestLogger())

			req := httptest.NewRequest(http.MethodPost, "/api/v1/variants/3/stock/adjust", bytes.NewBufferString(tt.body))
			req.SetPathValue("variantId", "3")
			w := httptest.NewRecorder()

			handler.AdjustStock(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.validateBody != nil {
				tt.validateBody(t, w.Body.Bytes())
			}
		})
	}
}

func TestStockHandler_ListMovements(t *testing.T) {
	since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(2026, 2, 1, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name           string
		query          string
		expectedFilter *ports.MovementFilter
		ledgerErr      error
		expectedStatus int
	}{
		{
			name:           "no_filter",
			query:          "",
			expectedFilter: &ports.MovementFilter{},
			expectedStatus: http.StatusOK,
		},
		{
			name:  "all_filters",
			query: "?type=out&since=2026-01-01&until=2026-02-01T10:30:00Z&limit=20&offset=40",
			expectedFilter: &ports.MovementFilter{
				Type: domain.MovementOut, Since: &since, Until: &until, Limit: 20, Offset: 40,
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "unknown_type",
			query:          "?type=IN",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad_since",
			query:          "?since=yesterday",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad_limit",
			query:          "?limit=ten",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "ledger_rejects_negative_offset",
			query:          "?offset=-1",
			expectedFilter: &ports.MovementFilter{Offset: -1},
			ledgerErr:      domain.NewValidationError("limit", "and offset cannot be negative"),
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			ledger := mocks.NewMockStockLedger(ctrl)

			history := []domain.Movement{
				{ID: 2, VariantID: 4, Type: domain.MovementOut, QuantityChange: -1, Reason: "SALE", CreatedAt: until},
				{ID: 1, VariantID: 4, Type: domain.MovementAdjustment, QuantityChange: 5, Reason: "init", CreatedAt: since},
			}
			if tt.expectedFilter != nil {
				call := ledger.EXPECT().ListMovements(gomock.Any(), int64(4), *tt.expectedFilter)
				if tt.ledgerErr != nil {
					call.Return(nil, tt.ledgerErr)
				} else {
					call.Return(history, nil)
				}
			}

			handler := handlers.NewStockHandler(ledger, helpers.TestLogger())

			req := httptest.NewRequest(http.MethodGet, "/api/v1/variants/4/movements"+tt.query, nil)
			req.SetPathValue("variantId", "4")
			w := httptest.NewRecorder()

			handler.ListMovements(w, req)

			require.Equal(t, tt.expectedStatus, w.Code)
			if w.Code != http.StatusOK {
				return
			}
			var resp handlers.MovementsResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, int64(4), resp.VariantID)
			assert.Equal(t, 2, resp.Count)
			assert.Equal(t, int64(2), resp.Movements[0].ID)
		})
	}
}
