package session

import (
	"context"
	"sync"

	"github.com/yungbote/coursemarket-client/internal/domain"
)

// Persister keeps the session across restarts. Load reports ok=false when
// nothing is stored.
type Persister interface {
	Load(ctx context.Context) (domain.Session, bool, error)
	Save(ctx context.Context, s domain.Session) error
	Delete(ctx context.Context) error
}

// record is the persisted form; domain.Session hides its token from JSON.
type record struct {
	Token string            `json:"token"`
	User  *domain.Principal `json:"user,omitempty"`
}

func toRecord(s domain.Session) record {
	s = s.Clone()
	return record{Token: s.Token, User: s.Principal}
}

func (r record) session() domain.Session {
	return domain.Session{Principal: r.User, Token: r.Token}
}

type MemoryStore struct {
	mu  sync.Mutex
	rec *record
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (m *MemoryStore) Load(ctx context.Context) (domain.Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rec == nil {
		return domain.Session{}, false, nil
	}
	return m.rec.session().Clone(), true, nil
}

func (m *MemoryStore) Save(ctx context.Context, s domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := toRecord(s)
	m.rec = &rec
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = nil
	return nil
}
