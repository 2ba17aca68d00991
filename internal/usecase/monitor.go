package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/plastinin/jobwatch/internal/domain"
	"go.uber.org/zap"
)

const publishTimeout = 10 * time.Second

// Monitor следит за статусом задачи: опрашивает, нормализует, останавливается на финальном состоянии
type Monitor struct {
	api           JobAPI
	scheduler     *Scheduler
	publisher     OutcomePublisher
	maxPollErrors int
	logger        *zap.Logger

	publishing sync.WaitGroup
}

// MonitorOption настройка Monitor
type MonitorOption func(*Monitor)

// WithOutcomePublisher публиковать итог каждой завершённой сессии
func WithOutcomePublisher(p OutcomePublisher) MonitorOption {
	return func(m *Monitor) { m.publisher = p }
}

// WithMaxPollErrors останавливать опрос после n ошибок подряд, 0 означает без ограничения
func WithMaxPollErrors(n int) MonitorOption {
	return func(m *Monitor) { m.maxPollErrors = n }
}

// NewMonitor создаёт новый экземпляр Monitor
func NewMonitor(api JobAPI, scheduler *Scheduler, logger *zap.Logger, opts ...MonitorOption) *Monitor {
	m := &Monitor{
		api:       api,
		scheduler: scheduler,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Watch начинает наблюдение за задачей. Если сессия уже что-то опрашивала,
// прежний цикл останавливается до запуска нового.
// ctx ограничивает всё наблюдение, а не один запрос.
func (m *Monitor) Watch(ctx context.Context, s *Session, handle domain.TaskHandle) error {
	if handle.TaskID == "" {
		return domain.ErrEmptyTaskID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev := s.taskID; s.halt() {
		m.logger.Info("Stopped previous monitoring", zap.String("task_id", prev))
		s.presenter.OnStop()
	}

	s.taskID = handle.TaskID
	s.view = domain.DisplayStatus{TaskID: handle.TaskID}
	s.pollErrors = 0
	s.generation++

	gen := s.generation
	taskID := handle.TaskID
	s.ticket = m.scheduler.Start(ctx, func(pollCtx context.Context) {
		_ = m.poll(pollCtx, s, taskID, gen)
	}, func() {
		m.expire(s, taskID, gen)
	})

	m.logger.Info("Monitoring started",
		zap.String("task_id", taskID),
		zap.Duration("interval", m.scheduler.Interval()),
	)

	return nil
}

// Refresh выполняет один внеочередной опрос. Работает и после остановки цикла.
func (m *Monitor) Refresh(ctx context.Context, s *Session) error {
	s.mu.Lock()
	taskID := s.taskID
	gen := s.generation
	s.mu.Unlock()

	if taskID == "" {
		return domain.ErrNoActiveTask
	}
	return m.poll(ctx, s, taskID, gen)
}

// Cancel отменяет задачу на сервере. При успехе опрос сразу останавливается,
// а отображение переходит в CANCELLED с нулевым прогрессом без ожидания опроса.
// При ошибке опрос и отображение не меняются.
func (m *Monitor) Cancel(ctx context.Context, s *Session) error {
	taskID := s.TaskID()
	if taskID == "" {
		return domain.ErrNoActiveTask
	}

	if err := m.api.Cancel(ctx, taskID); err != nil {
		m.logger.Warn("Cancel failed",
			zap.String("task_id", taskID),
			zap.Error(err),
		)
		return err
	}

	s.mu.Lock()
	if s.taskID != taskID {
		// Пока шла отмена, сессия переключилась на другую задачу
		s.mu.Unlock()
		return nil
	}
	halted := s.halt()
	s.view = s.view.Cancelled()
	s.presenter.OnStatusUpdate(s.view)
	if halted {
		m.publishAsync(s.view)
		s.presenter.OnStop()
	}
	s.mu.Unlock()

	m.logger.Warn("Task cancelled", zap.String("task_id", taskID))
	return nil
}

// Wait ждёт публикации всех итогов, отправленных к этому моменту.
// Вызывается перед закрытием издателя.
func (m *Monitor) Wait() {
	m.publishing.Wait()
}

// Leave возврат к форме отправки: опрос останавливается, задача забывается
func (m *Monitor) Leave(s *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	taskID := s.taskID
	halted := s.halt()
	s.taskID = ""
	s.view = domain.DisplayStatus{}
	s.pollErrors = 0
	s.generation++

	if halted {
		m.logger.Info("Monitoring left", zap.String("task_id", taskID))
		s.presenter.OnStop()
	}
}

// expire вызывается при выходе цикла опроса. Если цикл закончился сам
// (отменён контекст наблюдения), сессия переводится в остановленное состояние.
func (m *Monitor) expire(s *Session, taskID string, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != gen || !s.halt() {
		return
	}
	m.logger.Info("Monitoring context ended", zap.String("task_id", taskID))
	s.presenter.OnStop()
}

// poll один цикл запрос/ответ. Ответ применяется, только если с момента
// запроса сессия не была остановлена или перезапущена.
// Опросы одной сессии не пересекаются: внеочередной ждёт опроса в полёте.
func (m *Monitor) poll(ctx context.Context, s *Session, taskID string, gen uint64) error {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()

	s.mu.Lock()
	stale := s.generation != gen
	s.mu.Unlock()
	if stale {
		return nil
	}

	status, err := m.api.Status(ctx, taskID)

	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		m.logger.Debug("Discarding stale poll response", zap.String("task_id", taskID))
		return nil
	}

	if err != nil && ctx.Err() != nil {
		// Запрос прерван вызывающей стороной, это не ошибка сервиса
		s.mu.Unlock()
		return err
	}

	if err != nil {
		s.pollErrors++
		s.presenter.OnPollError(err)
		attempts := s.pollErrors
		capped := false
		if m.maxPollErrors > 0 && attempts >= m.maxPollErrors {
			capped = s.halt()
		}
		if capped {
			s.presenter.OnStop()
		}
		s.mu.Unlock()

		m.logger.Warn("Poll failed",
			zap.String("task_id", taskID),
			zap.Int("consecutive_errors", attempts),
			zap.Error(err),
		)
		if capped {
			m.logger.Error("Monitoring stopped after repeated poll errors",
				zap.String("task_id", taskID),
				zap.Int("max_poll_errors", m.maxPollErrors),
			)
		}
		return err
	}

	s.pollErrors = 0
	s.view = s.view.Apply(*status)
	s.presenter.OnStatusUpdate(s.view)

	halted := false
	if s.view.State.IsTerminal() {
		halted = s.halt()
		if halted {
			m.publishAsync(s.view)
			s.presenter.OnStop()
		}
	}
	view := s.view
	s.mu.Unlock()

	m.logger.Debug("Poll applied",
		zap.String("task_id", taskID),
		zap.String("state", view.State.String()),
		zap.Int("percent", view.Percent),
	)

	if halted {
		m.logger.Info("Task reached terminal state",
			zap.String("task_id", taskID),
			zap.String("state", view.State.String()),
			zap.String("message", view.Message),
		)
	}
	return nil
}

// publishAsync отправляет итог в фоне. Учитывается в Wait до вызова OnStop,
// так что ожидающий остановки может затем дождаться публикации.
func (m *Monitor) publishAsync(view domain.DisplayStatus) {
	if m.publisher == nil {
		return
	}
	m.publishing.Add(1)
	go func() {
		defer m.publishing.Done()
		m.publish(view)
	}()
}

func (m *Monitor) publish(view domain.DisplayStatus) {
	outcome, err := domain.NewOutcome(view)
	if err != nil {
		m.logger.Error("Failed to build outcome", zap.Error(err))
		return
	}

	pubCtx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := m.publisher.Publish(pubCtx, outcome); err != nil {
		m.logger.Error("Failed to publish outcome",
			zap.String("task_id", outcome.TaskID),
			zap.Error(err),
		)
	}
}
