package handler

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/plastinin/jobwatch/internal/domain"
	"github.com/plastinin/jobwatch/internal/usecase"
)

// bridgePresenter запоминает последнее, что показал монитор, для отдачи по HTTP
type bridgePresenter struct {
	mu        sync.Mutex
	lastError string
	stopped   bool
	onStop    func()
}

func (p *bridgePresenter) OnStatusUpdate(domain.DisplayStatus) {
	p.mu.Lock()
	p.lastError = ""
	p.mu.Unlock()
}

func (p *bridgePresenter) OnPollError(err error) {
	p.mu.Lock()
	p.lastError = domain.UserMessage(err)
	p.mu.Unlock()
}

func (p *bridgePresenter) OnStop() {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()
	if p.onStop != nil {
		p.onStop()
	}
}

func (p *bridgePresenter) snapshot() (lastError string, stopped bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastError, p.stopped
}

// bridgeSession сессия наблюдения, открытая через HTTP
type bridgeSession struct {
	id             uuid.UUID
	session        *usecase.Session
	submitter      *usecase.Submitter
	presenter      *bridgePresenter
	checkStatusURL string
}

// SessionRegistry сессии наблюдения в памяти процесса.
// Остановленная сессия живёт ещё ttl, чтобы клиент успел прочитать итог, затем забывается.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*bridgeSession
	ttl      time.Duration
}

// NewSessionRegistry создаёт пустой реестр; при ttl <= 0 сессии живут до DELETE
func NewSessionRegistry(ttl time.Duration) *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[uuid.UUID]*bridgeSession),
		ttl:      ttl,
	}
}

// evictLater забывает сессию через ttl. Вызывается из OnStop, поэтому не блокирует.
func (r *SessionRegistry) evictLater(id uuid.UUID) {
	if r.ttl <= 0 {
		return
	}
	time.AfterFunc(r.ttl, func() {
		_, _ = r.remove(id)
	})
}

func (r *SessionRegistry) add(s *bridgeSession) {
	r.mu.Lock()
	r.sessions[s.id] = s
	r.mu.Unlock()
}

func (r *SessionRegistry) get(id uuid.UUID) (*bridgeSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return s, nil
}

func (r *SessionRegistry) remove(id uuid.UUID) (*bridgeSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	delete(r.sessions, id)
	return s, nil
}

// Len количество открытых сессий
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Drain забирает все сессии из реестра
func (r *SessionRegistry) Drain() []*usecase.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*usecase.Session, 0, len(r.sessions))
	for id, s := range r.sessions {
		out = append(out, s.session)
		delete(r.sessions, id)
	}
	return out
}
