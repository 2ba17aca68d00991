package usecase

import (
	"context"
	"fmt"

	"github.com/plastinin/jobwatch/internal/domain"
	"go.uber.org/zap"
)

// OutcomeUseCase сохранение и чтение истории итогов (сторона воркера)
type OutcomeUseCase struct {
	repo    OutcomeRepository
	archive SnapshotArchive
	logger  *zap.Logger
}

// NewOutcomeUseCase создаёт новый экземпляр OutcomeUseCase. archive может быть nil.
func NewOutcomeUseCase(repo OutcomeRepository, archive SnapshotArchive, logger *zap.Logger) *OutcomeUseCase {
	return &OutcomeUseCase{
		repo:    repo,
		archive: archive,
		logger:  logger,
	}
}

// Record архивирует снимок и сохраняет итог. Ошибка архива не мешает сохранению.
func (uc *OutcomeUseCase) Record(ctx context.Context, outcome *domain.Outcome) error {
	if outcome == nil || outcome.TaskID == "" {
		return domain.ErrEmptyTaskID
	}

	if uc.archive != nil {
		key, err := uc.archive.Put(ctx, outcome)
		if err != nil {
			uc.logger.Warn("Failed to archive snapshot",
				zap.String("task_id", outcome.TaskID),
				zap.Error(err),
			)
		} else {
			outcome.ArchiveKey = key
			uc.logger.Debug("Snapshot archived",
				zap.String("task_id", outcome.TaskID),
				zap.String("archive_key", key),
			)
		}
	}

	if err := uc.repo.Create(ctx, outcome); err != nil {
		uc.logger.Error("Failed to save outcome",
			zap.String("task_id", outcome.TaskID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to save outcome: %w", err)
	}

	uc.logger.Info("Outcome recorded",
		zap.String("task_id", outcome.TaskID),
		zap.String("state", outcome.State.String()),
	)

	return nil
}

// GetByTaskID возвращает последний итог задачи
func (uc *OutcomeUseCase) GetByTaskID(ctx context.Context, taskID string) (*domain.Outcome, error) {
	if taskID == "" {
		return nil, domain.ErrEmptyTaskID
	}
	return uc.repo.GetByTaskID(ctx, taskID)
}

// List возвращает историю итогов
func (uc *OutcomeUseCase) List(ctx context.Context, filter domain.OutcomeFilter, pagination domain.Pagination) (*domain.OutcomeListResult, error) {
	return uc.repo.List(ctx, filter, pagination)
}
