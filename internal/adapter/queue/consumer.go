package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/plastinin/jobwatch/internal/config"
	"github.com/plastinin/jobwatch/internal/domain"
	"go.uber.org/zap"
)

// OutcomeRecorder сохраняет итог (usecase.OutcomeUseCase)
type OutcomeRecorder interface {
	Record(ctx context.Context, outcome *domain.Outcome) error
}

// OutcomeConsumer обрабатывает итоги из очереди
type OutcomeConsumer struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	recorder OutcomeRecorder
	logger   *zap.Logger
}

// NewOutcomeConsumer создаёт новый экземпляр OutcomeConsumer
func NewOutcomeConsumer(
	cfg config.RedisConfig,
	recorder OutcomeRecorder,
	logger *zap.Logger,
) *OutcomeConsumer {
	server := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Addr(),
			Password: cfg.Password,
			DB:       cfg.DB,
		},
		asynq.Config{
			Concurrency: 4,
			Queues: map[string]int{
				QueueOutcomes: 10,
				"default":     1,
			},
			Logger: newAsynqLogger(logger),
		},
	)

	consumer := &OutcomeConsumer{
		server:   server,
		mux:      asynq.NewServeMux(),
		recorder: recorder,
		logger:   logger,
	}

	consumer.mux.HandleFunc(TypeWatchOutcome, consumer.handleOutcome)

	return consumer
}

// Start запускает обработку задач
func (c *OutcomeConsumer) Start() error {
	c.logger.Info("Starting outcome consumer")
	return c.server.Start(c.mux)
}

// Stop останавливает обработку задач
func (c *OutcomeConsumer) Stop() {
	c.logger.Info("Stopping outcome consumer")
	c.server.Stop()
	c.server.Shutdown()
}

// handleOutcome сохраняет итог сессии наблюдения
func (c *OutcomeConsumer) handleOutcome(ctx context.Context, t *asynq.Task) error {
	var outcome domain.Outcome
	if err := json.Unmarshal(t.Payload(), &outcome); err != nil {
		c.logger.Error("Failed to unmarshal payload",
			zap.Error(err),
			zap.ByteString("payload", t.Payload()),
		)
		// Битый payload не исправится повтором
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	if outcome.TaskID == "" {
		c.logger.Error("Outcome without task ID", zap.String("outcome_id", outcome.ID.String()))
		return fmt.Errorf("%w: %w", domain.ErrEmptyTaskID, asynq.SkipRetry)
	}

	c.logger.Info("Recording watch outcome",
		zap.String("outcome_id", outcome.ID.String()),
		zap.String("task_id", outcome.TaskID),
		zap.String("state", outcome.State.String()),
	)

	if err := c.recorder.Record(ctx, &outcome); err != nil {
		c.logger.Error("Failed to record outcome",
			zap.String("task_id", outcome.TaskID),
			zap.Error(err),
		)
		return err
	}

	return nil
}

// asynqLogger адаптер логгера для asynq
type asynqLogger struct {
	logger *zap.Logger
}

func newAsynqLogger(logger *zap.Logger) *asynqLogger {
	return &asynqLogger{logger: logger.Named("asynq")}
}

func (l *asynqLogger) Debug(args ...any) {
	l.logger.Debug(fmt.Sprint(args...))
}

func (l *asynqLogger) Info(args ...any) {
	l.logger.Info(fmt.Sprint(args...))
}

func (l *asynqLogger) Warn(args ...any) {
	l.logger.Warn(fmt.Sprint(args...))
}

func (l *asynqLogger) Error(args ...any) {
	l.logger.Error(fmt.Sprint(args...))
}

func (l *asynqLogger) Fatal(args ...any) {
	l.logger.Fatal(fmt.Sprint(args...))
}
