package handler

import (
	"encoding/json"
	"net/http"

	"github.com/damon-houk/fxconvert/internal/application/service"
	"github.com/damon-houk/fxconvert/internal/infrastructure/logger"
	"github.com/damon-houk/fxconvert/internal/infrastructure/middleware"
	"github.com/gorilla/mux"
)

// CurrencyHandler serves the currency list, the manual import trigger and health checks
type CurrencyHandler struct {
	currencies *service.CurrencyService
	importer   *service.ImportService
	pivot      string
	logger     logger.Logger
}

// NewCurrencyHandler creates a new currency handler; importer may be nil to disable POST /admin/import
func NewCurrencyHandler(currencies *service.CurrencyService, importer *service.ImportService, pivot string, log logger.Logger) *CurrencyHandler {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &CurrencyHandler{
		currencies: currencies,
		importer:   importer,
		pivot:      pivot,
		logger:     log,
	}
}

// ListCurrencies handles GET /currencies
func (h *CurrencyHandler) ListCurrencies(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	codes, err := h.currencies.ListCurrencies(r.Context())
	if err != nil {
		h.logger.Error("Failed to list currencies", map[string]interface{}{
			"request_id": requestID,
			"error":      err.Error(),
		})
		sendErrorResponse(w, h.logger, "Internal server error",
			"Unable to list currencies", http.StatusInternalServerError, requestID)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(CurrenciesResponse{Currencies: codes, Count: len(codes)})
}

// Import handles POST /admin/import
func (h *CurrencyHandler) Import(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	if h.importer == nil {
		sendErrorResponse(w, h.logger, "Import disabled",
			"No rate feed is configured", http.StatusServiceUnavailable, requestID)
		return
	}

	inserted, err := h.importer.Import(r.Context())
	if err != nil {
		h.logger.Error("Manual import failed", map[string]interface{}{
			"request_id": requestID,
			"error":      err.Error(),
		})
		sendErrorResponse(w, h.logger, "Import failed", err.Error(), http.StatusBadGateway, requestID)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ImportResponse{Inserted: inserted})
}

// Health handles GET /health
func (h *CurrencyHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(HealthResponse{Status: "ok", Pivot: h.pivot})
}

// RegisterRoutes registers the currency handler routes
func (h *CurrencyHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/currencies", h.ListCurrencies).Methods("GET")
	router.HandleFunc("/admin/import", h.Import).Methods("POST")
	router.HandleFunc("/health", h.Health).Methods("GET")

	h.logger.Info("Currency routes registered", map[string]interface{}{
		"routes": []string{
			"GET /currencies",
			"POST /admin/import",
			"GET /health",
		},
	})
}
