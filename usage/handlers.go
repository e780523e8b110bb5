// Copyright 2025 TraceLens
// SPDX-License-Identifier: Apache-2.0

package usage

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"tracelens/platform/tenant"
)

// Handler provides HTTP handlers for the usage metering APIs
type Handler struct {
	service *Service
}

// NewHandler creates a new usage handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers all usage routes with a gorilla/mux router
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/v1/usage/current", h.GetCurrentUsage).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/v1/usage/limit", h.CheckLimit).Methods("GET", "OPTIONS")
}

// CurrentUsageResponse is the body for GET /api/v1/usage/current
type CurrentUsageResponse struct {
	Count   int64  `json:"count"`
	Unit    string `json:"unit"`
	Backend string `json:"backend"`
	Reason  string `json:"reason"`
}

// GetCurrentUsage handles GET /api/v1/usage/current
func (h *Handler) GetCurrentUsage(w http.ResponseWriter, r *http.Request) {
	h.setCORSHeaders(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	teamID := r.Header.Get("X-Team-ID")
	if teamID == "" {
		h.writeError(w, "Team ID required", http.StatusBadRequest)
		return
	}

	count, decision, err := h.service.GetCurrentMonthCount(r.Context(), teamID)
	if err != nil {
		if errors.Is(err, tenant.ErrOrganizationNotFound) {
			h.writeError(w, "Organization not found", http.StatusNotFound)
			return
		}
		h.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(CurrentUsageResponse{
		Count:   count,
		Unit:    string(decision.UsageUnit),
		Backend: string(decision.Backend),
		Reason:  decision.Reason,
	})
}

// LimitResponse is the body for GET /api/v1/usage/limit
type LimitResponse struct {
	Exceeded bool   `json:"exceeded"`
	Count    int64  `json:"count"`
	Limit    int64  `json:"limit"`
	Unit     string `json:"unit"`
	Message  string `json:"message,omitempty"`
}

// CheckLimit handles GET /api/v1/usage/limit
func (h *Handler) CheckLimit(w http.ResponseWriter, r *http.Request) {
	h.setCORSHeaders(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	teamID := r.Header.Get("X-Team-ID")
	if teamID == "" {
		h.writeError(w, "Team ID required", http.StatusBadRequest)
		return
	}

	result, err := h.service.CheckLimit(r.Context(), teamID)
	if err != nil {
		if errors.Is(err, tenant.ErrOrganizationNotFound) {
			h.writeError(w, "Organization not found", http.StatusNotFound)
			return
		}
		h.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(LimitResponse{
		Exceeded: result.Exceeded,
		Count:    result.Count,
		Limit:    result.Limit,
		Unit:     string(result.Unit),
		Message:  result.Message,
	})
}

// setCORSHeaders sets CORS headers on all responses (not just OPTIONS)
func (h *Handler) setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Team-ID, Authorization")
}

func (h *Handler) writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   http.StatusText(status),
		"message": message,
	})
}
