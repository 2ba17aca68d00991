package usecase

import (
	"sync"

	"github.com/plastinin/jobwatch/internal/domain"
)

// Session состояние одного наблюдения: текущая задача, билет опроса и то, что показано.
// Пустая сессия ничего не наблюдает.
type Session struct {
	mu        sync.Mutex
	pollMu    sync.Mutex // Опросы сессии строго по одному
	presenter Presenter

	taskID     string
	ticket     *Ticket
	generation uint64 // Растёт при каждом старте и остановке, отсекает поздние ответы
	view       domain.DisplayStatus
	pollErrors int
}

// NewSession создаёт пустую сессию
func NewSession(presenter Presenter) *Session {
	return &Session{presenter: presenter}
}

// TaskID возвращает идентификатор наблюдаемой задачи или пустую строку
func (s *Session) TaskID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.taskID
}

// View возвращает последнее показанное состояние
func (s *Session) View() domain.DisplayStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Polling сообщает, идёт ли сейчас опрос
func (s *Session) Polling() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticket != nil
}

// PollErrors количество ошибок опроса подряд
func (s *Session) PollErrors() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pollErrors
}

// halt останавливает опрос. Возвращает true, только если опрос действительно шёл.
// Вызывается под s.mu.
func (s *Session) halt() bool {
	if s.ticket == nil {
		return false
	}
	s.ticket.Stop()
	s.ticket = nil
	s.generation++
	return true
}
