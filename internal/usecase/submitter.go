package usecase

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/plastinin/jobwatch/internal/domain"
	"go.uber.org/zap"
)

// ErrSubmissionInFlight предыдущая отправка ещё не завершилась
var ErrSubmissionInFlight = errors.New("submission already in flight")

// Submitter отправляет запрос на запуск задачи. Повторов нет.
type Submitter struct {
	api       JobAPI
	validator SubmissionValidator
	inFlight  atomic.Bool
	logger    *zap.Logger
}

// NewSubmitter создаёт новый экземпляр Submitter. validator может быть nil.
func NewSubmitter(api JobAPI, validator SubmissionValidator, logger *zap.Logger) *Submitter {
	return &Submitter{
		api:       api,
		validator: validator,
		logger:    logger,
	}
}

// Submit проверяет запрос и отправляет ровно один запрос на нужный эндпоинт
func (s *Submitter) Submit(ctx context.Context, req domain.SubmissionRequest) (domain.TaskHandle, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return domain.TaskHandle{}, ErrSubmissionInFlight
	}
	defer s.inFlight.Store(false)

	if s.validator != nil {
		if err := s.validator.Validate(req); err != nil {
			s.logger.Debug("Submission rejected by validation", zap.Error(err))
			return domain.TaskHandle{}, err
		}
	}

	s.logger.Info("Submitting job",
		zap.String("variant", string(req.Variant())),
		zap.String("search_query", req.SearchQuery),
		zap.Int("max_applications", req.MaxApplications),
	)

	handle, err := s.api.Submit(ctx, req)
	if err != nil {
		s.logger.Error("Submission failed",
			zap.String("endpoint", req.Endpoint()),
			zap.Error(err),
		)
		return domain.TaskHandle{}, err
	}

	if handle.TaskID == "" {
		return domain.TaskHandle{}, &domain.SubmissionError{
			Message: domain.MsgSubmissionFailed,
			Err:     domain.ErrEmptyTaskID,
		}
	}

	s.logger.Info("Job submitted", zap.String("task_id", handle.TaskID))

	return handle, nil
}
