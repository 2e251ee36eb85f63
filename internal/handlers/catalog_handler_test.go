package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
	"github.com/ammerola/stockledger/internal/handlers"
	"github.com/ammerola/stockledger/test/helpers"
	"github.com/ammerola/stockledger/test/mocks"
)

func TestCatalogHandler_CreateItem(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMocks     func(m *mocks.MockCatalogService)
		expectedStatus int
		validateBody   func(t *testing.T, body []byte)
	}{
		{
			name: "creates_active_item_by_default",
			body: `{"name": "Classic Tee"}`,
			setupMocks: func(m *mocks.MockCatalogService) {
				m.EXPECT().CreateItem(gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, item *domain.Item) error {
						assert.True(t, item.Active)
						item.ID = 12
						return nil
					})
			},
			expectedStatus: http.StatusCreated,
			validateBody: func(t *testing.T, body []byte) {
				var item domain.Item
				require.NoError(t, json.Unmarshal(body, &item))
				assert.Equal(t, int64(12), item.ID)
				assert.Equal(t, "Classic Tee", item.Name)
			},
		},
		{
			name: "inactive_item",
			body: `{"name": "Retired Hoodie", "active": false}`,
			setupMocks: func(m *mocks.MockCatalogService) {
				m.EXPECT().CreateItem(gomock.Any(), gomock.Cond(func(x any) bool {
					return !x.(*domain.Item).Active
				})).Return(nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "missing_name",
			body: `{"description": "nameless"}`,
			setupMocks: func(m *mocks.MockCatalogService) {
				m.EXPECT().CreateItem(gomock.Any(), gomock.Any()).Return(domain.NewValidationError("name", "is required"))
			},
			expectedStatus: http.StatusBadRequest,
			validateBody: func(t *testing.T, body []byte) {
				resp := decodeError(t, body)
				assert.Equal(t, handlers.CodeValidation, resp.Error)
				assert.Equal(t, "name is required", resp.Message)
			},
		},
		{
			name: "repository_failure",
			body: `{"name": "Classic Tee"}`,
			setupMocks: func(m *mocks.MockCatalogService) {
				m.EXPECT().CreateItem(gomock.Any(), gomock.Any()).Return(errors.New("boom"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			service := mocks.NewMockCatalogService(ctrl)
			tt.setupMocks(service)

			handler := handlers.NewCatalogHandler(service, helpers.TestLogger())

			req := httptest.NewRequest(http.MethodPost, "/api/v1/items", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()

			handler.CreateItem(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.validateBody != nil {
				tt.validateBody(t, w.Body.Bytes())
			}
		})
	}
}

func TestCatalogHandler_ListItems(t *testing.T) {
	ctrl := gomock.NewController(t)
	service := mocks.NewMockCatalogService(ctrl)
	service.EXPECT().ListItems(gomock.Any(), ports.ItemListParams{
		ActiveOnly: true, Search: "tee", Limit: 10, Offset: 20,
	}).Return([]domain.Item{{ID: 1, Name: "Classic Tee", Active: true}}, nil)

	handler := handlers.NewCatalogHandler(service, helpers.TestLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/items?active=true&search=tee&limit=10&offset=20", nil)
	w := httptest.NewRecorder()
	handler.ListItems(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp handlers.ListResponse[domain.Item]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, 10, resp.Limit)
	assert.Equal(t, "Classic Tee", resp.Data[0].Name)
}

func TestCatalogHandler_ListItems_EmptyIsArray(t *testing.T) {
	ctrl := gomock.NewController(t)
	service := mocks.NewMockCatalogService(ctrl)
	service.EXPECT().ListItems(gomock.Any(), gomock.Any()).Return(nil, nil)

	handler := handlers.NewCatalogHandler(service, helpers.TestLogger())

	w := httptest.NewRecorder()
	handler.ListItems(w, httptest.NewRequest(http.MethodGet, "/api/v1/items", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"data":[]`)
}

func TestCatalogHandler_GetItem_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	service := mocks.NewMockCatalogService(ctrl)
	service.EXPECT().GetItem(gomock.Any(), int64(5)).Return(nil, domain.ErrItemNotFound)

	handler := handlers.NewCatalogHandler(service, helpers.TestLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/items/5", nil)
	req.SetPathValue("itemId", "5")
	w := httptest.NewRecorder()
	handler.GetItem(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, handlers.CodeNotFound, decodeError(t, w.Body.Bytes()).Error)
}

func TestCatalogHandler_CreateVariant(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		serviceErr     error
		expectedStatus int
	}{
		{
			name:           "created",
			body:           `{"sku": "TEE-BLK-M", "color": "black", "size": "M", "price": "24.50", "initial_stock": 12}`,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "duplicate_sku",
			body:           `{"sku": "TEE-BLK-M", "price": "24.50"}`,
			serviceErr:     domain.ErrDuplicateSKU,
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "unknown_item",
			body:           `{"sku": "TEE-BLK-M", "price": "24.50"}`,
			serviceErr:     domain.ErrItemNotFound,
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			service := mocks.NewMockCatalogService(ctrl)
			service.EXPECT().CreateVariant(gomock.Any(), gomock.Any()).
				DoAndReturn(func(ctx context.Context, v *domain.Variant) error {
					assert.Equal(t, int64(3), v.ItemID)
					assert.Equal(t, "TEE-BLK-M", v.SKU)
					assert.True(t, v.Price.Equal(decimal.RequireFromString("24.50")))
					if tt.serviceErr != nil {
						return tt.serviceErr
					}
					assert.Equal(t, 12, v.StockQuantity)
					v.ID = 30
					return nil
				})

			handler := handlers.NewCatalogHandler(service, helpers.TestLogger())

			req := httptest.NewRequest(http.MethodPost, "/api/v1/items/3/variants", bytes.NewBufferString(tt.body))
			req.SetPathValue("itemId", "3")
			w := httptest.NewRecorder()
			handler.CreateVariant(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestCatalogHandler_UpdateVariant_SetsID(t *testing.T) {
	ctrl := gomock.NewController(t)
	service := mocks.NewMockCatalogService(ctrl)
	service.EXPECT().UpdateVariant(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, v *domain.Variant) error {
			assert.Equal(t, int64(8), v.ID)
			v.StockQuantity = 4
			return nil
		})

	handler := handlers.NewCatalogHandler(service, helpers.TestLogger())

	req := httptest.NewRequest(http.MethodPut, "/api/v1/variants/8",
		bytes.NewBufferString(`{"sku": "TEE-RED-L", "price": "19.00", "initial_stock": 999}`))
	req.SetPathValue("variantId", "8")
	w := httptest.NewRecorder()
	handler.UpdateVariant(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var v domain.Variant
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	assert.Equal(t, 4, v.StockQuantity)
}

func TestCatalogHandler_Delete(t *testing.T) {
	ctrl := gomock.NewController(t)
	service := mocks.NewMockCatalogService(ctrl)
	service.EXPECT().DeleteItem(gomock.Any(), int64(2)).Return(nil)
	service.EXPECT().DeleteVariant(gomock.Any(), int64(9)).Return(domain.ErrVariantNotFound)

	handler := handlers.NewCatalogHandler(service, helpers.TestLogger())

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/items/2", nil)
	req.SetPathValue("itemId", "2")
	w := httptest.NewRecorder()
	handler.DeleteItem(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/variants/9", nil)
	req.SetPathValue("variantId", "9")
	w = httptest.NewRecorder()
	handler.DeleteVariant(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
