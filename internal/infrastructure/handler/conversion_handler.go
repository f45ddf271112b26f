// Package handler internal/infrastructure/handler/conversion_handler.go
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/damon-houk/fxconvert/internal/apperrors"
	"github.com/damon-houk/fxconvert/internal/application/service"
	"github.com/damon-houk/fxconvert/internal/infrastructure/logger"
	"github.com/damon-houk/fxconvert/internal/infrastructure/middleware"
	"github.com/gorilla/mux"
)

// ConversionHandler handles HTTP requests for currency conversion
type ConversionHandler struct {
	service *service.ConversionService
	logger  logger.Logger
}

// NewConversionHandler creates a new conversion handler
func NewConversionHandler(service *service.ConversionService, log logger.Logger) *ConversionHandler {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &ConversionHandler{
		service: service,
		logger:  log,
	}
}

// Convert handles GET /convert?from=GBP&to=USD&amount=22&date=2013-02-07
func (h *ConversionHandler) Convert(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	query := r.URL.Query()
	from, to := query.Get("from"), query.Get("to")

	h.logger.Info("Handling convert request", map[string]interface{}{
		"request_id": requestID,
		"from":       from,
		"to":         to,
	})

	if from == "" || to == "" {
		sendErrorResponse(w, h.logger, "Missing currency parameter",
			"The 'from' and 'to' query parameters are required", http.StatusBadRequest, requestID)
		return
	}

	conversion, err := h.service.Convert(r.Context(), from, to, service.ConvertOptions{
		Amount: query.Get("amount"),
		Date:   query.Get("date"),
	})
	if err != nil {
		h.sendDomainError(w, err, requestID)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(newConversionResponse(conversion))
}

// AlignedRates handles GET /rates/{from}/{to}?date=2013-02-07
func (h *ConversionHandler) AlignedRates(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	vars := mux.Vars(r)

	h.logger.Info("Handling aligned rates request", map[string]interface{}{
		"request_id": requestID,
		"from":       vars["from"],
		"to":         vars["to"],
	})

	fromSnap, toSnap, err := h.service.ResolveAlignedRates(r.Context(), vars["from"], vars["to"], r.URL.Query().Get("date"))
	if err != nil {
		h.sendDomainError(w, err, requestID)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(AlignedRatesResponse{
		Date: fromSnap.DateString(),
		From: newRateResponse(fromSnap),
		To:   newRateResponse(toSnap),
	})
}

// sendDomainError maps the conversion error taxonomy onto HTTP responses
func (h *ConversionHandler) sendDomainError(w http.ResponseWriter, err error, requestID string) {
	fields := map[string]interface{}{
		"request_id": requestID,
		"error":      err.Error(),
	}

	var (
		invalid *apperrors.InvalidInputError
		unknown *apperrors.UnknownCurrencyError
	)

	switch {
	case errors.As(err, &invalid):
		h.logger.Warn("Invalid conversion input", fields)
		sendErrorResponse(w, h.logger, "Invalid "+invalid.Field, err.Error(), http.StatusBadRequest, requestID)
	case errors.As(err, &unknown):
		h.logger.Warn("Unknown currency", fields)
		sendErrorResponse(w, h.logger, "Unknown currency", err.Error(), http.StatusNotFound, requestID)
	case errors.Is(err, apperrors.ErrNoAlignedData):
		h.logger.Warn("No aligned rates available", fields)
		sendErrorResponse(w, h.logger, "No aligned rates available", err.Error(),
			http.StatusUnprocessableEntity, requestID)
	case errors.Is(err, apperrors.ErrZeroRate):
		h.logger.Error("Stored rate is zero", fields)
		sendErrorResponse(w, h.logger, "Rate data unavailable", err.Error(),
			http.StatusUnprocessableEntity, requestID)
	default:
		h.logger.Error("Unexpected error in conversion handler", fields)
		sendErrorResponse(w, h.logger, "Internal server error",
			"An unexpected error occurred. Please try again later.",
			http.StatusInternalServerError, requestID)
	}
}

// RegisterRoutes registers the conversion handler routes
func (h *ConversionHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/convert", h.Convert).Methods("GET")
	router.HandleFunc("/rates/{from}/{to}", h.AlignedRates).Methods("GET")

	h.logger.Info("Conversion routes registered", map[string]interface{}{
		"routes": []string{
			"GET /convert",
			"GET /rates/{from}/{to}",
		},
	})
}

// sendErrorResponse sends a standardized error response
func sendErrorResponse(w http.ResponseWriter, log logger.Logger, message, description string, statusCode int, requestID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	resp := ErrorResponse{
		Error:       message,
		Status:      statusCode,
		Description: description,
		RequestID:   requestID,
	}

	log.Debug("Sending error response", map[string]interface{}{
		"request_id":  requestID,
		"status_code": statusCode,
		"message":     message,
	})

	json.NewEncoder(w).Encode(resp)
}
