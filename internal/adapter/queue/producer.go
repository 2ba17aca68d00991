package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/plastinin/jobwatch/internal/config"
	"github.com/plastinin/jobwatch/internal/domain"
)

// Типы задач
const (
	TypeWatchOutcome = "watch:outcome"
)

// QueueOutcomes очередь итогов наблюдения
const QueueOutcomes = "outcomes"

// OutcomeProducer отправляет итоги сессий в очередь
type OutcomeProducer struct {
	client *asynq.Client
}

// NewOutcomeProducer создаёт новый экземпляр OutcomeProducer
func NewOutcomeProducer(cfg config.RedisConfig) *OutcomeProducer {
	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &OutcomeProducer{client: client}
}

// NewOutcomeTask собирает asynq задачу из итога.
// ID итога становится ID задачи, повторная публикация отбрасывается брокером.
func NewOutcomeTask(outcome *domain.Outcome) (*asynq.Task, error) {
	if outcome == nil || outcome.TaskID == "" {
		return nil, domain.ErrEmptyTaskID
	}

	payload, err := json.Marshal(outcome)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	return asynq.NewTask(TypeWatchOutcome, payload,
		asynq.MaxRetry(5),
		asynq.Queue(QueueOutcomes),
		asynq.TaskID(outcome.ID.String()),
	), nil
}

// Publish добавляет итог в очередь
func (p *OutcomeProducer) Publish(ctx context.Context, outcome *domain.Outcome) error {
	task, err := NewOutcomeTask(outcome)
	if err != nil {
		return err
	}

	_, err = p.client.EnqueueContext(ctx, task)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to enqueue outcome: %w", err)
	}

	return nil
}

// Close закрывает соединение
func (p *OutcomeProducer) Close() error {
	return p.client.Close()
}
