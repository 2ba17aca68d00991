package handler

import (
	"net/http"

	"go.uber.org/zap"
)

// HealthHandler обработчик health check запросов
type HealthHandler struct {
	registry *SessionRegistry
	logger   *zap.Logger
}

// NewHealthHandler создаёт новый HealthHandler
func NewHealthHandler(registry *SessionRegistry, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{registry: registry, logger: logger}
}

// HealthResponse ответ health check
type HealthResponse struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
}

// Check проверяет состояние сервиса
// GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, h.logger, http.StatusOK, HealthResponse{
		Status:   "ok",
		Sessions: h.registry.Len(),
	})
}
