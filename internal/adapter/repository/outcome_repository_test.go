package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/plastinin/jobwatch/internal/domain"
)

type fakeRow struct {
	err error
}

func (r fakeRow) Scan(...any) error { return r.err }

type fakeDB struct {
	execSQL  string
	execArgs []any
	execErr  error
	rowErr   error
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execSQL, f.execArgs = sql, args
	return pgconn.NewCommandTag("INSERT 0 1"), f.execErr
}

func (f *fakeDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeDB) QueryRow(context.Context, string, ...any) pgx.Row {
	return fakeRow{err: f.rowErr}
}

func TestOutcomeRepository_Create(t *testing.T) {
	applied := 2
	outcome, err := domain.NewOutcome(domain.DisplayStatus{
		TaskID:  "t-1",
		State:   domain.DisplayCaptchaRequired,
		Message: "Solve captcha",
		Applied: &applied,
	})
	if err != nil {
		t.Fatal(err)
	}

	db := &fakeDB{}
	repo := NewOutcomeRepository(db)
	if err := repo.Create(context.Background(), outcome); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if !strings.Contains(db.execSQL, "ON CONFLICT (id) DO NOTHING") {
		t.Errorf("insert is not idempotent: %s", db.execSQL)
	}
	if len(db.execArgs) != 10 {
		t.Fatalf("args = %d, want 10", len(db.execArgs))
	}
	if db.execArgs[2] != "CAPTCHA_REQUIRED" {
		t.Errorf("state arg = %v", db.execArgs[2])
	}
	if stage, ok := db.execArgs[4].(*string); !ok || stage != nil {
		t.Errorf("empty stage must be NULL, got %v", db.execArgs[4])
	}

	var snapshot domain.DisplayStatus
	if err := json.Unmarshal(db.execArgs[7].([]byte), &snapshot); err != nil {
		t.Fatalf("snapshot is not JSON: %v", err)
	}
	if snapshot.TaskID != "t-1" || snapshot.Message != "Solve captcha" {
		t.Errorf("snapshot = %+v", snapshot)
	}
}

func TestOutcomeRepository_CreateWrapsError(t *testing.T) {
	boom := errors.New("boom")
	repo := NewOutcomeRepository(&fakeDB{execErr: boom})

	err := repo.Create(context.Background(), &domain.Outcome{TaskID: "t-1"})
	if !errors.Is(err, boom) {
		t.Errorf("error = %v, want wrapped boom", err)
	}
}

func TestOutcomeRepository_GetByTaskIDNotFound(t *testing.T) {
	repo := NewOutcomeRepository(&fakeDB{rowErr: pgx.ErrNoRows})

	_, err := repo.GetByTaskID(context.Background(), "missing")
	if !errors.Is(err, domain.ErrOutcomeNotFound) {
		t.Errorf("error = %v, want ErrOutcomeNotFound", err)
	}
}

func TestBuildListQuery(t *testing.T) {
	failed := domain.DisplayFailed

	tests := []struct {
		name      string
		filter    domain.OutcomeFilter
		wantWhere []string
		wantArgs  []any
	}{
		{
			name:     "no filter",
			filter:   domain.OutcomeFilter{},
			wantArgs: []any{20, 20},
		},
		{
			name:      "state",
			filter:    domain.OutcomeFilter{State: &failed},
			wantWhere: []string{"state = $1", "LIMIT $2 OFFSET $3"},
			wantArgs:  []any{"FAILED", 20, 20},
		},
		{
			name:      "state and task",
			filter:    domain.OutcomeFilter{State: &failed, TaskID: "t-1"},
			wantWhere: []string{"state = $1", "task_id = $2", "LIMIT $3 OFFSET $4"},
			wantArgs:  []any{"FAILED", "t-1", 20, 20},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			countQuery, selectQuery, args := buildListQuery(tt.filter, domain.NewPagination(2, 20))

			if !strings.HasPrefix(countQuery, "SELECT COUNT(*) FROM watch_outcomes") {
				t.Errorf("countQuery = %q", countQuery)
			}
			if strings.Contains(countQuery, "LIMIT") {
				t.Errorf("countQuery must not paginate: %q", countQuery)
			}
			for _, w := range tt.wantWhere {
				if !strings.Contains(selectQuery, w) {
					t.Errorf("selectQuery missing %q:\n%s", w, selectQuery)
				}
			}
			if len(args) != len(tt.wantArgs) {
				t.Fatalf("args = %v, want %v", args, tt.wantArgs)
			}
			for i := range args {
				if args[i] != tt.wantArgs[i] {
					t.Errorf("args[%d] = %v, want %v", i, args[i], tt.wantArgs[i])
				}
			}
		})
	}
}
