package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/plastinin/jobwatch/internal/domain"
)

type pollReply struct {
	status *domain.TaskStatus
	err    error
}

// fakeAPI отвечает по сценарию; последний ответ повторяется
type fakeAPI struct {
	mu          sync.Mutex
	replies     []pollReply
	statusCalls int
	release     chan struct{} // если задан, Status ждёт его закрытия
	inFlight    int
	maxInFlight int

	cancelErr   error
	cancelCalls int

	submitHandle domain.TaskHandle
	submitErr    error
	submitCalls  int
	submitGate   chan struct{}
}

func (f *fakeAPI) Submit(ctx context.Context, req domain.SubmissionRequest) (domain.TaskHandle, error) {
	f.mu.Lock()
	f.submitCalls++
	gate := f.submitGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return f.submitHandle, f.submitErr
}

func (f *fakeAPI) Status(ctx context.Context, taskID string) (*domain.TaskStatus, error) {
	f.mu.Lock()
	idx := f.statusCalls
	f.statusCalls++
	release := f.release
	var reply pollReply
	if len(f.replies) > 0 {
		if idx >= len(f.replies) {
			idx = len(f.replies) - 1
		}
		reply = f.replies[idx]
	}
	f.inFlight++
	f.maxInFlight = max(f.maxInFlight, f.inFlight)
	f.mu.Unlock()

	if release != nil {
		<-release
	}
	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()

	if reply.err != nil {
		return nil, reply.err
	}
	if reply.status == nil {
		return &domain.TaskStatus{TaskID: taskID, State: domain.TaskStatePending}, nil
	}
	st := *reply.status
	if st.TaskID == "" {
		st.TaskID = taskID
	}
	return &st, nil
}

func (f *fakeAPI) Cancel(ctx context.Context, taskID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelCalls++
	return f.cancelErr
}

func (f *fakeAPI) peakInFlight() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxInFlight
}

func (f *fakeAPI) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusCalls
}

type recordingPresenter struct {
	mu      sync.Mutex
	updates []domain.DisplayStatus
	errs    []error
	stops   int
}

func (p *recordingPresenter) OnStatusUpdate(status domain.DisplayStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updates = append(p.updates, status)
}

func (p *recordingPresenter) OnPollError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errs = append(p.errs, err)
}

func (p *recordingPresenter) OnStop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stops++
}

func (p *recordingPresenter) stopCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stops
}

func (p *recordingPresenter) snapshot() ([]domain.DisplayStatus, []error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.DisplayStatus(nil), p.updates...), append([]error(nil), p.errs...)
}

type fakePublisher struct {
	mu       sync.Mutex
	outcomes []*domain.Outcome
	err      error
	gate     chan struct{} // если задан, Publish ждёт его закрытия
}

func (f *fakePublisher) Publish(ctx context.Context, outcome *domain.Outcome) error {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcomes = append(f.outcomes, outcome)
	return f.err
}

func (f *fakePublisher) published() []*domain.Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*domain.Outcome(nil), f.outcomes...)
}

type fakeRepo struct {
	mu       sync.Mutex
	outcomes []*domain.Outcome
	err      error
}

func (r *fakeRepo) Create(ctx context.Context, outcome *domain.Outcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.outcomes = append(r.outcomes, outcome)
	return nil
}

func (r *fakeRepo) GetByTaskID(ctx context.Context, taskID string) (*domain.Outcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.outcomes) - 1; i >= 0; i-- {
		if r.outcomes[i].TaskID == taskID {
			return r.outcomes[i], nil
		}
	}
	return nil, domain.ErrOutcomeNotFound
}

func (r *fakeRepo) List(ctx context.Context, filter domain.OutcomeFilter, pagination domain.Pagination) (*domain.OutcomeListResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &domain.OutcomeListResult{Outcomes: r.outcomes, Total: len(r.outcomes), Pagination: pagination}, nil
}

type fakeArchive struct {
	key string
	err error
}

func (a *fakeArchive) Put(ctx context.Context, outcome *domain.Outcome) (string, error) {
	return a.key, a.err
}

var errNetwork = errors.New("connection refused")

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }
