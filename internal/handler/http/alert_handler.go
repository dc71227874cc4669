package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/cypherlabdev/kalshi-odds-scanner/internal/scanner"
	"github.com/cypherlabdev/kalshi-odds-scanner/internal/service"
)

// AlertHandler serves the read-only alert, opportunity and mapping views
type AlertHandler struct {
	alerts *service.AlertService
	runner *scanner.Runner
	logger zerolog.Logger
}

// NewAlertHandler creates a new alert HTTP handler
func NewAlertHandler(alerts *service.AlertService, runner *scanner.Runner, logger zerolog.Logger) *AlertHandler {
	return &AlertHandler{
		alerts: alerts,
		runner: runner,
		logger: logger.With().Str("component", "alert_handler").Logger(),
	}
}

// RegisterRoutes registers HTTP routes with the provided mux
func (h *AlertHandler) RegisterRoutes(mux *http.ServeMux) {
	// GET /api/v1/alerts?limit=N - Most recent alerts first
	mux.HandleFunc("/api/v1/alerts", h.handleListAlerts)

	// GET /api/v1/opportunities?limit=N - Recent alerts grouped and ranked
	mux.HandleFunc("/api/v1/opportunities", h.handleOpportunities)

	// GET /api/v1/mappings - Resolved mappings being scanned
	mux.HandleFunc("/api/v1/mappings", h.handleMappings)

	// GET /api/v1/status - Scan loop state
	mux.HandleFunc("/api/v1/status", h.handleStatus)
}

// handleListAlerts handles GET /api/v1/alerts
func (h *AlertHandler) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.errorResponse(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	limit, ok := h.parseLimit(w, r, service.DefaultAlertLimit)
	if !ok {
		return
	}

	alerts, err := h.alerts.ListRecentAlerts(r.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Int("limit", limit).Msg("failed to retrieve alerts")
		h.errorResponse(w, http.StatusInternalServerError, "failed to retrieve alerts")
		return
	}

	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"count":  len(alerts),
		"alerts": alerts,
	})
}

// handleOpportunities handles GET /api/v1/opportunities
func (h *AlertHandler) handleOpportunities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.errorResponse(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	limit, ok := h.parseLimit(w, r, service.MaxAlertLimit)
	if !ok {
		return
	}

	alerts, err := h.alerts.ListRecentAlerts(r.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to retrieve alerts for opportunities")
		h.errorResponse(w, http.StatusInternalServerError, "failed to retrieve alerts")
		return
	}

	opportunities := scanner.AggregateOpportunities(alerts)
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"count":         len(opportunities),
		"opportunities": opportunities,
	})
}

// handleMappings handles GET /api/v1/mappings
func (h *AlertHandler) handleMappings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.errorResponse(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	mappings := h.runner.Mappings()
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"count":    len(mappings),
		"mappings": mappings,
	})
}

// handleStatus handles GET /api/v1/status
func (h *AlertHandler) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.errorResponse(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	h.jsonResponse(w, http.StatusOK, h.runner.Status())
}

// parseLimit reads ?limit=N, writing a 400 when it is not a positive integer
func (h *AlertHandler) parseLimit(w http.ResponseWriter, r *http.Request, fallback int) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback, true
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		h.errorResponse(w, http.StatusBadRequest, "limit must be a positive integer")
		return 0, false
	}
	return limit, true
}

// jsonResponse writes a JSON response
func (h *AlertHandler) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode JSON response")
	}
}

// errorResponse writes a JSON error response
func (h *AlertHandler) errorResponse(w http.ResponseWriter, status int, message string) {
	h.jsonResponse(w, status, map[string]string{
		"error": message,
	})
}
