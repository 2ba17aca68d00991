package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultPollInterval интервал опроса статуса
const DefaultPollInterval = 2 * time.Second

// Scheduler запускает опрос сразу и далее с фиксированным интервалом
type Scheduler struct {
	interval time.Duration
}

// NewScheduler создаёт планировщик; неположительный интервал заменяется на DefaultPollInterval
func NewScheduler(interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Scheduler{interval: interval}
}

// Interval возвращает интервал опроса
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Ticket один запущенный цикл опроса. Вызовы poll внутри цикла строго последовательны.
type Ticket struct {
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once
	stopped atomic.Bool
}

// Start запускает цикл опроса. Первый вызов poll происходит сразу.
// Контекст poll отменяется при Stop, так что запрос в полёте прерывается.
// onExit (может быть nil) вызывается на горутине цикла после его завершения
// по любой причине, в том числе при отмене ctx, и до закрытия Done.
func (s *Scheduler) Start(ctx context.Context, poll func(ctx context.Context), onExit func()) *Ticket {
	ctx, cancel := context.WithCancel(ctx)
	t := &Ticket{
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go t.run(ctx, s.interval, poll, onExit)
	return t
}

func (t *Ticket) run(ctx context.Context, interval time.Duration, poll func(ctx context.Context), onExit func()) {
	defer close(t.done)
	if onExit != nil {
		defer onExit()
	}
	defer t.Stop()

	if ctx.Err() != nil {
		return
	}
	poll(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			poll(ctx)
		}
	}
}

// Stop останавливает цикл. Повторные вызовы ничего не делают.
// Не ждёт завершения цикла, поэтому безопасен изнутри poll.
func (t *Ticket) Stop() {
	t.once.Do(func() {
		t.stopped.Store(true)
		t.cancel()
	})
}

// Active сообщает, что цикл ещё не остановлен
func (t *Ticket) Active() bool {
	return !t.stopped.Load()
}

// Done закрывается, когда горутина цикла завершилась
func (t *Ticket) Done() <-chan struct{} {
	return t.done
}
