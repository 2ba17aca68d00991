package usecase

import (
	"context"

	"github.com/plastinin/jobwatch/internal/domain"
)

// JobAPI удалённый сервис выполнения задач
type JobAPI interface {
	Submit(ctx context.Context, req domain.SubmissionRequest) (domain.TaskHandle, error)
	Status(ctx context.Context, taskID string) (*domain.TaskStatus, error)
	Cancel(ctx context.Context, taskID string) error
}

// Presenter слой отображения, который получает нормализованные статусы.
// Методы вызываются под блокировкой сессии, поэтому не должны обращаться
// ни к Monitor, ни к методам Session (TaskID, View, Polling, PollErrors):
// всё нужное для отображения приходит в аргументах. Долгая работа выносится
// из вызова, например в канал.
type Presenter interface {
	// OnStatusUpdate вызывается на каждый применённый ответ опроса
	OnStatusUpdate(status domain.DisplayStatus)
	// OnPollError вызывается, если опрос не удался; опрос продолжается
	OnPollError(err error)
	// OnStop вызывается ровно один раз, когда опрос сессии остановлен
	OnStop()
}

// SubmissionValidator проверка запроса до отправки в сеть
type SubmissionValidator interface {
	Validate(req domain.SubmissionRequest) error
}

// OutcomePublisher публикует итог сессии для дальнейшей обработки (asynq)
type OutcomePublisher interface {
	Publish(ctx context.Context, outcome *domain.Outcome) error
}

// OutcomeRepository история итогов (PostgreSQL)
type OutcomeRepository interface {
	Create(ctx context.Context, outcome *domain.Outcome) error
	GetByTaskID(ctx context.Context, taskID string) (*domain.Outcome, error)
	List(ctx context.Context, filter domain.OutcomeFilter, pagination domain.Pagination) (*domain.OutcomeListResult, error)
}

// SnapshotArchive архив финальных снимков (S3)
type SnapshotArchive interface {
	Put(ctx context.Context, outcome *domain.Outcome) (key string, err error)
}
