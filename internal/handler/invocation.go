package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/yourorg/mcptime/internal/repository"
	"github.com/yourorg/mcptime/pkg/model"
)

// InvocationHandler handles audit-log HTTP requests
type InvocationHandler struct {
	repo   repository.InvocationRepository
	logger *slog.Logger
}

// NewInvocationHandler creates a new invocation handler
func NewInvocationHandler(repo repository.InvocationRepository, logger *slog.Logger) *InvocationHandler {
	return &InvocationHandler{
		repo:   repo,
		logger: logger,
	}
}

// ListInvocations handles GET /api/invocations?limit=N
func (h *InvocationHandler) ListInvocations(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.logger.Warn("invalid limit parameter", "limit", raw)
			h.errorJSON(w, "Invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	invocations, err := h.repo.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list invocations", "error", err)
		h.errorJSON(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.Debug("invocations listed", "count", len(invocations))
	h.json(w, model.ToInvocationListResponse(invocations), http.StatusOK)
}

// json sends a JSON response
func (h *InvocationHandler) json(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("json encode error", "error", err)
	}
}

// errorJSON sends an error JSON response
func (h *InvocationHandler) errorJSON(w http.ResponseWriter, message string, status int) {
	h.json(w, map[string]string{"error": message}, status)
}
