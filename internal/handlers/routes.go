// internal/handlers/routes.go
package handlers

import "net/http"

// APIPrefix is the mount point of the versioned API
const APIPrefix = "/api/v1"

// Handlers bundles the HTTP handlers. Alerts may be nil.
type Handlers struct {
	Catalog *CatalogHandler
	Stock   *StockHandler
	Export  *ExportHandler
	Alerts  *AlertHandler
	Health  *HealthHandler
}

// RegisterRoutes mounts every endpoint on mux using method-aware patterns.
func RegisterRoutes(mux *http.ServeMux, h Handlers) {
	api := APIPrefix

	if h.Health != nil {
		mux.HandleFunc("GET /health", h.Health.Health)
		mux.HandleFunc("GET /health/live", h.Health.Liveness)
		mux.HandleFunc("GET /health/ready", h.Health.Readiness)
	}

	// Catalog
	mux.HandleFunc("POST "+api+"/items", h.Catalog.CreateItem)
	mux.HandleFunc("GET "+api+"/items", h.Catalog.ListItems)
	mux.HandleFunc("GET "+api+"/items/{itemId}", h.Catalog.GetItem)
	mux.HandleFunc("PUT "+api+"/items/{itemId}", h.Catalog.UpdateItem)
	mux.HandleFunc("DELETE "+api+"/items/{itemId}", h.Catalog.DeleteItem)
	mux.HandleFunc("POST "+api+"/items/{itemId}/variants", h.Catalog.CreateVariant)
	mux.HandleFunc("GET "+api+"/items/{itemId}/variants", h.Catalog.ListVariants)
	mux.HandleFunc("GET "+api+"/variants/{variantId}", h.Catalog.GetVariant)
	mux.HandleFunc("PUT "+api+"/variants/{variantId}", h.Catalog.UpdateVariant)
	mux.HandleFunc("DELETE "+api+"/variants/{variantId}", h.Catalog.DeleteVariant)

	// Stock ledger
	mux.HandleFunc("POST "+api+"/variants/{variantId}/sell", h.Stock.Sell)
	mux.HandleFunc("POST "+api+"/variants/{variantId}/stock/adjust", h.Stock.AdjustStock)
	mux.HandleFunc("GET "+api+"/variants/{variantId}/movements", h.Stock.ListMovements)

	// Exports
	mux.HandleFunc("GET "+api+"/variants/{variantId}/movements/export", h.Export.DownloadMovements)
	mux.HandleFunc("POST "+api+"/variants/{variantId}/movements/export", h.Export.ScheduleExport)
	mux.HandleFunc("GET "+api+"/exports/{exportId}", h.Export.GetExportStatus)

	if h.Alerts != nil {
		mux.HandleFunc("GET "+api+"/alerts/low-stock", h.Alerts.ListLowStock)
		mux.HandleFunc("DELETE "+api+"/alerts/low-stock/{variantId}", h.Alerts.AcknowledgeLowStock)
	}
}
