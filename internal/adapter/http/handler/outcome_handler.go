package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/plastinin/jobwatch/internal/adapter/http/dto"
	"github.com/plastinin/jobwatch/internal/domain"
	"go.uber.org/zap"
)

// OutcomeReader чтение истории итогов (usecase.OutcomeUseCase)
type OutcomeReader interface {
	GetByTaskID(ctx context.Context, taskID string) (*domain.Outcome, error)
	List(ctx context.Context, filter domain.OutcomeFilter, pagination domain.Pagination) (*domain.OutcomeListResult, error)
}

// OutcomeHandler обработчик HTTP запросов для истории итогов
type OutcomeHandler struct {
	outcomes OutcomeReader
	logger   *zap.Logger
}

// NewOutcomeHandler создаёт новый OutcomeHandler
func NewOutcomeHandler(outcomes OutcomeReader, logger *zap.Logger) *OutcomeHandler {
	return &OutcomeHandler{
		outcomes: outcomes,
		logger:   logger,
	}
}

// GetByTaskID возвращает последний итог по задаче
// GET /api/v1/outcomes/{task_id}
func (h *OutcomeHandler) GetByTaskID(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "task_id")

	outcome, err := h.outcomes.GetByTaskID(r.Context(), taskID)
	if err != nil {
		if errors.Is(err, domain.ErrOutcomeNotFound) {
			respondError(w, h.logger, http.StatusNotFound, "not_found", "Outcome not found")
			return
		}
		h.logger.Error("Failed to get outcome", zap.String("task_id", taskID), zap.Error(err))
		respondError(w, h.logger, http.StatusInternalServerError, "internal_error", "Failed to get outcome")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, dto.OutcomeFromDomain(outcome))
}

// List возвращает историю итогов
// GET /api/v1/outcomes?page=1&page_size=20&state=FAILED&task_id=...
func (h *OutcomeHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	pagination := domain.ParsePagination(q.Get("page"), q.Get("page_size"))

	filter := domain.OutcomeFilter{TaskID: q.Get("task_id")}
	if stateStr := q.Get("state"); stateStr != "" {
		state := domain.DisplayState(stateStr)
		if !state.IsTerminal() {
			respondError(w, h.logger, http.StatusBadRequest, "invalid_state", "State must be a terminal display state")
			return
		}
		filter.State = &state
	}

	result, err := h.outcomes.List(r.Context(), filter, pagination)
	if err != nil {
		h.logger.Error("Failed to list outcomes", zap.Error(err))
		respondError(w, h.logger, http.StatusInternalServerError, "internal_error", "Failed to list outcomes")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, dto.OutcomeListFromDomain(result))
}
