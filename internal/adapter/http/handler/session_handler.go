package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/plastinin/jobwatch/internal/adapter/http/dto"
	"github.com/plastinin/jobwatch/internal/domain"
	"github.com/plastinin/jobwatch/internal/usecase"
	"github.com/plastinin/jobwatch/internal/validation"
	"go.uber.org/zap"
)

const maxRequestSize = 64 << 10

// SessionHandler обработчик HTTP запросов для сессий наблюдения
type SessionHandler struct {
	registry  *SessionRegistry
	api       usecase.JobAPI
	validator usecase.SubmissionValidator
	monitor   *usecase.Monitor
	// watchCtx живёт столько же, сколько сервер: опрос переживает HTTP запрос
	watchCtx context.Context
	logger   *zap.Logger
}

// NewSessionHandler создаёт новый SessionHandler
func NewSessionHandler(
	watchCtx context.Context,
	registry *SessionRegistry,
	api usecase.JobAPI,
	validator usecase.SubmissionValidator,
	monitor *usecase.Monitor,
	logger *zap.Logger,
) *SessionHandler {
	return &SessionHandler{
		registry:  registry,
		api:       api,
		validator: validator,
		monitor:   monitor,
		watchCtx:  watchCtx,
		logger:    logger,
	}
}

// Create отправляет задачу (или берёт готовый task_id) и начинает наблюдение
// POST /api/v1/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)

	var req dto.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Failed to decode session request", zap.Error(err))
		respondError(w, h.logger, http.StatusBadRequest, "invalid_request", "Request body must be a JSON object")
		return
	}

	id := uuid.New()
	presenter := &bridgePresenter{onStop: func() { h.registry.evictLater(id) }}
	bs := &bridgeSession{
		id:        id,
		session:   usecase.NewSession(presenter),
		submitter: usecase.NewSubmitter(h.api, h.validator, h.logger),
		presenter: presenter,
	}

	handle := domain.TaskHandle{TaskID: req.TaskID}
	if handle.TaskID == "" {
		var err error
		handle, err = bs.submitter.Submit(r.Context(), req.ToDomain())
		if err != nil {
			h.respondSubmitError(w, err)
			return
		}
	}
	bs.checkStatusURL = handle.CheckStatusURL

	if err := h.monitor.Watch(h.watchCtx, bs.session, handle); err != nil {
		h.logger.Error("Failed to start monitoring", zap.String("task_id", handle.TaskID), zap.Error(err))
		respondError(w, h.logger, http.StatusInternalServerError, "internal_error", "Failed to start monitoring")
		return
	}
	h.registry.add(bs)

	h.logger.Info("Session opened",
		zap.String("session_id", bs.id.String()),
		zap.String("task_id", handle.TaskID),
	)

	respondJSON(w, h.logger, http.StatusCreated, sessionResponse(bs))
}

// Get возвращает текущее состояние сессии
// GET /api/v1/sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	bs, ok := h.lookup(w, r)
	if !ok {
		return
	}
	respondJSON(w, h.logger, http.StatusOK, sessionResponse(bs))
}

// Refresh выполняет внеочередной опрос
// POST /api/v1/sessions/{id}/refresh
func (h *SessionHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	bs, ok := h.lookup(w, r)
	if !ok {
		return
	}

	if err := h.monitor.Refresh(r.Context(), bs.session); err != nil {
		h.respondMonitorError(w, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, sessionResponse(bs))
}

// Cancel отменяет задачу на сервере
// POST /api/v1/sessions/{id}/cancel
func (h *SessionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	bs, ok := h.lookup(w, r)
	if !ok {
		return
	}

	if err := h.monitor.Cancel(r.Context(), bs.session); err != nil {
		h.respondMonitorError(w, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, sessionResponse(bs))
}

// Delete закрывает сессию: опрос останавливается, задача на сервере продолжает работу
// DELETE /api/v1/sessions/{id}
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "invalid_id", "Invalid session ID format")
		return
	}

	bs, err := h.registry.remove(id)
	if err != nil {
		respondError(w, h.logger, http.StatusNotFound, "not_found", "Session not found")
		return
	}
	h.monitor.Leave(bs.session)

	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) lookup(w http.ResponseWriter, r *http.Request) (*bridgeSession, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "invalid_id", "Invalid session ID format")
		return nil, false
	}

	bs, err := h.registry.get(id)
	if err != nil {
		respondError(w, h.logger, http.StatusNotFound, "not_found", "Session not found")
		return nil, false
	}
	return bs, true
}

func (h *SessionHandler) respondSubmitError(w http.ResponseWriter, err error) {
	var verr *validation.Error
	if errors.As(err, &verr) {
		resp := dto.NewErrorResponse("validation_failed", "Submission form is invalid")
		for _, f := range verr.Fields {
			resp.Fields = append(resp.Fields, dto.FieldError{Field: f.Field, Message: f.Message})
		}
		respondJSON(w, h.logger, http.StatusBadRequest, resp)
		return
	}

	var subErr *domain.SubmissionError
	if errors.As(err, &subErr) {
		status := http.StatusBadGateway
		if subErr.StatusCode == 0 {
			status = http.StatusServiceUnavailable
		}
		respondError(w, h.logger, status, "submission_failed", subErr.Message)
		return
	}

	respondError(w, h.logger, http.StatusInternalServerError, "internal_error", domain.MsgSubmissionFailed)
}

func (h *SessionHandler) respondMonitorError(w http.ResponseWriter, err error) {
	var pollErr *domain.PollError
	var cancelErr *domain.CancelError

	switch {
	case errors.Is(err, domain.ErrNoActiveTask):
		respondError(w, h.logger, http.StatusConflict, "no_active_task", "Session is not watching a task")
	case errors.As(err, &pollErr):
		respondError(w, h.logger, http.StatusBadGateway, "poll_failed", pollErr.Message)
	case errors.As(err, &cancelErr):
		respondError(w, h.logger, http.StatusBadGateway, "cancel_failed", cancelErr.Message)
	default:
		h.logger.Error("Session operation failed", zap.Error(err))
		respondError(w, h.logger, http.StatusInternalServerError, "internal_error", domain.UserMessage(err))
	}
}

func sessionResponse(bs *bridgeSession) dto.SessionResponse {
	lastError, stopped := bs.presenter.snapshot()
	return dto.SessionResponse{
		ID:             bs.id.String(),
		TaskID:         bs.session.TaskID(),
		CheckStatusURL: bs.checkStatusURL,
		Polling:        bs.session.Polling(),
		Stopped:        stopped,
		PollErrors:     bs.session.PollErrors(),
		LastError:      lastError,
		Status:         dto.StatusFromDomain(bs.session.View()),
	}
}
