package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/plastinin/jobwatch/internal/domain"
)

// DB общая часть pgxpool.Pool и pgx.Tx
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const outcomeColumns = `id, task_id, state, message, stage, applied, total, snapshot, archive_key, finished_at`

// OutcomeRepository история итогов в PostgreSQL
type OutcomeRepository struct {
	db DB
}

// NewOutcomeRepository создаёт новый экземпляр OutcomeRepository
func NewOutcomeRepository(db DB) *OutcomeRepository {
	return &OutcomeRepository{db: db}
}

// Create сохраняет итог. Повторная доставка того же итога игнорируется.
func (r *OutcomeRepository) Create(ctx context.Context, outcome *domain.Outcome) error {
	snapshot, err := json.Marshal(outcome.Snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	query := `
		INSERT INTO watch_outcomes (` + outcomeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING
	`

	_, err = r.db.Exec(ctx, query,
		outcome.ID,
		outcome.TaskID,
		string(outcome.State),
		nullString(outcome.Message),
		nullString(outcome.Stage),
		outcome.Applied,
		outcome.Total,
		snapshot,
		nullString(outcome.ArchiveKey),
		outcome.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert outcome: %w", err)
	}

	return nil
}

// GetByTaskID возвращает последний итог по задаче
func (r *OutcomeRepository) GetByTaskID(ctx context.Context, taskID string) (*domain.Outcome, error) {
	query := `
		SELECT ` + outcomeColumns + `
		FROM watch_outcomes
		WHERE task_id = $1
		ORDER BY finished_at DESC
		LIMIT 1
	`

	outcome, err := scanOutcome(r.db.QueryRow(ctx, query, taskID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOutcomeNotFound
		}
		return nil, fmt.Errorf("failed to get outcome: %w", err)
	}

	return outcome, nil
}

// List возвращает историю итогов с пагинацией и фильтрацией
func (r *OutcomeRepository) List(ctx context.Context, filter domain.OutcomeFilter, pagination domain.Pagination) (*domain.OutcomeListResult, error) {
	countQuery, selectQuery, args := buildListQuery(filter, pagination)

	var total int
	// Последние два аргумента относятся к LIMIT/OFFSET
	if err := r.db.QueryRow(ctx, countQuery, args[:len(args)-2]...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count outcomes: %w", err)
	}

	rows, err := r.db.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query outcomes: %w", err)
	}
	defer rows.Close()

	outcomes := make([]*domain.Outcome, 0)
	for rows.Next() {
		outcome, err := scanOutcome(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan outcome: %w", err)
		}
		outcomes = append(outcomes, outcome)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return &domain.OutcomeListResult{
		Outcomes:   outcomes,
		Total:      total,
		Pagination: pagination,
	}, nil
}

// buildListQuery собирает запросы подсчёта и выборки.
// args заканчиваются на limit и offset.
func buildListQuery(filter domain.OutcomeFilter, pagination domain.Pagination) (countQuery, selectQuery string, args []any) {
	where := `FROM watch_outcomes WHERE 1=1`
	argIndex := 1

	if filter.State != nil {
		where += fmt.Sprintf(" AND state = $%d", argIndex)
		args = append(args, string(*filter.State))
		argIndex++
	}
	if filter.TaskID != "" {
		where += fmt.Sprintf(" AND task_id = $%d", argIndex)
		args = append(args, filter.TaskID)
		argIndex++
	}

	countQuery = "SELECT COUNT(*) " + where
	selectQuery = fmt.Sprintf(`
		SELECT %s
		%s
		ORDER BY finished_at DESC
		LIMIT $%d OFFSET $%d
	`, outcomeColumns, where, argIndex, argIndex+1)

	args = append(args, pagination.Limit(), pagination.Offset())
	return countQuery, selectQuery, args
}

func scanOutcome(row pgx.Row) (*domain.Outcome, error) {
	outcome := &domain.Outcome{}
	var state string
	var message, stage, archiveKey *string // NULL
	var snapshot []byte

	err := row.Scan(
		&outcome.ID,
		&outcome.TaskID,
		&state,
		&message,
		&stage,
		&outcome.Applied,
		&outcome.Total,
		&snapshot,
		&archiveKey,
		&outcome.FinishedAt,
	)
	if err != nil {
		return nil, err
	}

	outcome.State = domain.DisplayState(state)
	outcome.Message = deref(message)
	outcome.Stage = deref(stage)
	outcome.ArchiveKey = deref(archiveKey)

	if len(snapshot) > 0 {
		if err := json.Unmarshal(snapshot, &outcome.Snapshot); err != nil {
			return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
		}
	}

	return outcome, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
