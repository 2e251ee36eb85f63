// internal/handlers/catalog.go
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
)

// CatalogHandler handles item and variant HTTP requests
type CatalogHandler struct {
	service ports.CatalogService
	logger  *slog.Logger
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(service ports.CatalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "catalog")),
	}
}

// ItemRequest is the body of item create and update requests
type ItemRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Active      *bool  `json:"active,omitempty"`
}

func (req *ItemRequest) toDomain() *domain.Item {
	item := &domain.Item{
		Name:        req.Name,
		Description: req.Description,
		Active:      true,
	}
	if req.Active != nil {
		item.Active = *req.Active
	}
	return item
}

// VariantRequest is the body of variant create and update requests.
// InitialStock is only read on create.
type VariantRequest struct {
	SKU          string          `json:"sku"`
	Color        string          `json:"color,omitempty"`
	Size         string          `json:"size,omitempty"`
	Price        decimal.Decimal `json:"price"`
	InitialStock int             `json:"initial_stock,omitempty"`
}

func (req *VariantRequest) toDomain() *domain.Variant {
	return &domain.Variant{
		SKU:           req.SKU,
		Color:         req.Color,
		Size:          req.Size,
		Price:         req.Price,
		StockQuantity: req.InitialStock,
	}
}

// ListResponse wraps a page of results
type ListResponse[T any] struct {
	Data   []T `json:"data"`
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
	Count  int `json:"count"`
}

// CreateItem handles POST /api/v1/items
func (h *CatalogHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req ItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondDomainError(w, r, h.logger, err, "create item")
		return
	}

	item := req.toDomain()
	if err := h.service.CreateItem(r.Context(), item); err != nil {
		respondDomainError(w, r, h.logger, err, "create item")
		return
	}

	respondJSON(w, h.logger, http.StatusCreated, item)
}

// ListItems handles GET /api/v1/items
func (h *CatalogHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := ports.ItemListParams{
		ActiveOnly: q.Get("active") == "true",
		Search:     q.Get("search"),
	}

	var err error
	if params.Limit, err = queryInt(r, "limit"); err != nil {
		respondDomainError(w, r, h.logger, err, "list items")
		return
	}
	if params.Offset, err = queryInt(r, "offset"); err != nil {
		respondDomainError(w, r, h.logger, err, "list items")
		return
	}

	items, err := h.service.ListItems(r.Context(), params)
	if err != nil {
		respondDomainError(w, r, h.logger, err, "list items")
		return
	}
	if items == nil {
		items = []domain.Item{}
	}

	respondJSON(w, h.logger, http.StatusOK, ListResponse[domain.Item]{
		Data:   items,
		Limit:  params.Limit,
		Offset: params.Offset,
		Count:  len(items),
	})
}

// GetItem handles GET /api/v1/items/{itemId}
func (h *CatalogHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "itemId")
	if err != nil {
		respondDomainError(w, r, h.logger, err, "get item")
		return
	}

	item, err := h.service.GetItem(r.Context(), id)
	if err != nil {
		respondDomainError(w, r, h.logger, err, "get item")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, item)
}

// UpdateItem handles PUT /api/v1/items/{itemId}
func (h *CatalogHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "itemId")
	if err != nil {
		respondDomainError(w, r, h.logger, err, "update item")
		return
	}

	var req ItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondDomainError(w, r, h.logger, err, "update item")
		return
	}

	item := req.toDomain()
	item.ID = id
	if err := h.service.UpdateItem(r.Context(), item); err != nil {
		respondDomainError(w, r, h.logger, err, "update item")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, item)
}

// DeleteItem handles DELETE /api/v1/items/{itemId}
func (h *CatalogHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "itemId")
	if err != nil {
		respondDomainError(w, r, h.logger, err, "delete item")
		return
	}

	if err := h.service.DeleteItem(r.Context(), id); err != nil {
		respondDomainError(w, r, h.logger, err, "delete item")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CreateVariant handles POST /api/v1/items/{itemId}/variants
func (h *CatalogHandler) CreateVariant(w http.ResponseWriter, r *http.Request) {
	itemID, err := pathID(r, "itemId")
	if err != nil {
		respondDomainError(w, r, h.logger, err, "create variant")
		return
	}

	var req VariantRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondDomainError(w, r, h.logger, err, "create variant")
		return
	}

	variant := req.toDomain()
	variant.ItemID = itemID
	if err := h.service.CreateVariant(r.Context(), variant); err != nil {
		respondDomainError(w, r, h.logger, err, "create variant")
		return
	}

	respondJSON(w, h.logger, http.StatusCreated, variant)
}

// ListVariants handles GET /api/v1/items/{itemId}/variants
func (h *CatalogHandler) ListVariants(w http.ResponseWriter, r *http.Request) {
	itemID, err := pathID(r, "itemId")
	if err != nil {
		respondDomainError(w, r, h.logger, err, "list variants")
		return
	}

	variants, err := h.service.ListVariants(r.Context(), itemID)
	if err != nil {
		respondDomainError(w, r, h.logger, err, "list variants")
		return
	}
	if variants == nil {
		variants = []domain.Variant{}
	}

	respondJSON(w, h.logger, http.StatusOK, ListResponse[domain.Variant]{
		Data:  variants,
		Count: len(variants),
	})
}

// GetVariant handles GET /api/v1/variants/{variantId}
func (h *CatalogHandler) GetVariant(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "variantId")
	if err != nil {
		respondDomainError(w, r, h.logger, err, "get variant")
		return
	}

	variant, err := h.service.GetVariant(r.Context(), id)
	if err != nil {
		respondDomainError(w, r, h.logger, err, "get variant")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, variant)
}

// UpdateVariant handles PUT /api/v1/variants/{variantId}. The response
// carries the stored stock quantity, never the one in the request.
func (h *CatalogHandler) UpdateVariant(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "variantId")
	if err != nil {
		respondDomainError(w, r, h.logger, err, "update variant")
		return
	}

	var req VariantRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondDomainError(w, r, h.logger, err, "update variant")
		return
	}

	variant := req.toDomain()
	variant.ID = id
	if err := h.service.UpdateVariant(r.Context(), variant); err != nil {
		respondDomainError(w, r, h.logger, err, "update variant")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, variant)
}

// DeleteVariant handles DELETE /api/v1/variants/{variantId}
func (h *CatalogHandler) DeleteVariant(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "variantId")
	if err != nil {
		respondDomainError(w, r, h.logger, err, "delete variant")
		return
	}

	if err := h.service.DeleteVariant(r.Context(), id); err != nil {
		respondDomainError(w, r, h.logger, err, "delete variant")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
