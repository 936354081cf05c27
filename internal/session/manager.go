package session

import (
	"context"
	"sync"
	"time"

	"github.com/yungbote/coursemarket-client/internal/domain"
	"github.com/yungbote/coursemarket-client/internal/platform/logger"
)

// Manager owns the one credential the client holds. Every mutation is a full
// overwrite (set or clear) and is mirrored to the persister before the next
// mutation starts.
type Manager struct {
	// writeMu serializes mutations across the memory swap and the persist.
	writeMu sync.Mutex
	mu      sync.RWMutex
	cur   domain.Session
	store Persister
	log   *logger.Logger
	now   func() time.Time

	listenMu  sync.Mutex
	listeners []func(domain.Session)
}

func NewManager(store Persister, log *logger.Logger) *Manager {
	if store == nil {
		store = NewMemoryStore()
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Manager{store: store, log: log.With("component", "SessionManager"), now: time.Now}
}

// Current returns a copy of the session.
func (m *Manager) Current() domain.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cur.Clone()
}

// Token satisfies backend.TokenSource.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cur.Token
}

func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cur.IsAuthenticated() && !TokenExpired(m.cur.Token, m.now())
}

// OnChange registers fn to run after every mutation, in mutation order. fn
// must not mutate the session.
func (m *Manager) OnChange(fn func(domain.Session)) {
	if fn == nil {
		return
	}
	m.listenMu.Lock()
	m.listeners = append(m.listeners, fn)
	m.listenMu.Unlock()
}

// Set replaces the session. The in-memory session changes even when
// persisting fails; the error is returned for the caller to surface.
func (m *Manager) Set(ctx context.Context, s domain.Session) error {
	s = s.Clone()
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	m.mu.Lock()
	m.cur = s
	m.mu.Unlock()
	m.notify(s)

	if err := m.store.Save(ctx, s); err != nil {
		m.log.Warn("persist session failed", "error", err)
		return err
	}
	return nil
}

// SetPrincipal replaces the principal and keeps the current token.
func (m *Manager) SetPrincipal(ctx context.Context, p domain.Principal) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	m.mu.Lock()
	next := domain.Session{Principal: &p, Token: m.cur.Token}.Clone()
	m.cur = next
	m.mu.Unlock()
	m.notify(next)

	if err := m.store.Save(ctx, next); err != nil {
		m.log.Warn("persist session failed", "error", err)
		return err
	}
	return nil
}

func (m *Manager) Clear(ctx context.Context) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	m.mu.Lock()
	m.cur = domain.Session{}
	m.mu.Unlock()
	m.notify(domain.Session{})

	if err := m.store.Delete(ctx); err != nil {
		m.log.Warn("delete persisted session failed", "error", err)
		return err
	}
	return nil
}

// Restore loads the persisted session. An expired JWT is discarded rather
// than restored.
func (m *Manager) Restore(ctx context.Context) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	s, ok, err := m.store.Load(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if TokenExpired(s.Token, m.now()) {
		m.log.Info("stored session expired, discarding")
		return m.store.Delete(ctx)
	}
	m.mu.Lock()
	m.cur = s.Clone()
	m.mu.Unlock()
	m.notify(s)
	return nil
}

func (m *Manager) notify(s domain.Session) {
	m.listenMu.Lock()
	fns := append([]func(domain.Session){}, m.listeners...)
	m.listenMu.Unlock()
	for _, fn := range fns {
		fn(s.Clone())
	}
}
