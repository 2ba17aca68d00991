package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/plastinin/jobwatch/internal/domain"
	"go.uber.org/zap"
)

type fakeRecorder struct {
	got []*domain.Outcome
	err error
}

func (f *fakeRecorder) Record(_ context.Context, o *domain.Outcome) error {
	f.got = append(f.got, o)
	return f.err
}

func newOutcome(t *testing.T) *domain.Outcome {
	t.Helper()
	applied, total := 3, 5
	outcome, err := domain.NewOutcome(domain.DisplayStatus{
		TaskID:  "t-1",
		State:   domain.DisplayDone,
		Applied: &applied,
		Total:   &total,
	})
	if err != nil {
		t.Fatalf("NewOutcome() error = %v", err)
	}
	return outcome
}

func TestNewOutcomeTask(t *testing.T) {
	outcome := newOutcome(t)

	task, err := NewOutcomeTask(outcome)
	if err != nil {
		t.Fatalf("NewOutcomeTask() error = %v", err)
	}
	if task.Type() != TypeWatchOutcome {
		t.Errorf("Type() = %q, want %q", task.Type(), TypeWatchOutcome)
	}
	if len(task.Payload()) == 0 {
		t.Error("payload is empty")
	}
}

func TestNewOutcomeTask_RejectsEmptyTaskID(t *testing.T) {
	if _, err := NewOutcomeTask(&domain.Outcome{}); !errors.Is(err, domain.ErrEmptyTaskID) {
		t.Errorf("error = %v, want ErrEmptyTaskID", err)
	}
	if _, err := NewOutcomeTask(nil); !errors.Is(err, domain.ErrEmptyTaskID) {
		t.Errorf("nil outcome error = %v, want ErrEmptyTaskID", err)
	}
}

func TestHandleOutcome_RoundTripsThroughPayload(t *testing.T) {
	outcome := newOutcome(t)
	task, err := NewOutcomeTask(outcome)
	if err != nil {
		t.Fatalf("NewOutcomeTask() error = %v", err)
	}

	rec := &fakeRecorder{}
	c := &OutcomeConsumer{recorder: rec, logger: zap.NewNop()}

	if err := c.handleOutcome(context.Background(), task); err != nil {
		t.Fatalf("handleOutcome() error = %v", err)
	}
	if len(rec.got) != 1 {
		t.Fatalf("recorded %d outcomes, want 1", len(rec.got))
	}
	got := rec.got[0]
	if got.ID != outcome.ID || got.TaskID != "t-1" || got.State != domain.DisplayDone {
		t.Errorf("recorded = %+v", got)
	}
	if got.Applied == nil || *got.Applied != 3 {
		t.Errorf("Applied = %v, want 3", got.Applied)
	}
}

func TestHandleOutcome_BadPayloadSkipsRetry(t *testing.T) {
	rec := &fakeRecorder{}
	c := &OutcomeConsumer{recorder: rec, logger: zap.NewNop()}

	err := c.handleOutcome(context.Background(), asynq.NewTask(TypeWatchOutcome, []byte("{not json")))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Errorf("error = %v, want SkipRetry", err)
	}
	if len(rec.got) != 0 {
		t.Error("recorder must not be called")
	}
}

func TestHandleOutcome_RecorderErrorIsRetried(t *testing.T) {
	rec := &fakeRecorder{err: errors.New("db down")}
	c := &OutcomeConsumer{recorder: rec, logger: zap.NewNop()}

	task, err := NewOutcomeTask(newOutcome(t))
	if err != nil {
		t.Fatal(err)
	}
	err = c.handleOutcome(context.Background(), task)
	if err == nil || errors.Is(err, asynq.SkipRetry) {
		t.Errorf("error = %v, want retryable error", err)
	}
}
