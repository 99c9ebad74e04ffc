package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	mdxvision "github.com/mdxvision/mdx-vision-enterprise-sub003"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/internal/logging"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/ports"
)

// ErrEmptySessionID is returned for a blank device session ID.
var ErrEmptySessionID = errors.New("session id is empty")

// Factory builds the engine of a new device session.
type Factory func(ctx context.Context, sessionID string) (*mdxvision.Engine, error)

// sessionLock is dropped from Manager.locks once no goroutine waits on it.
type sessionLock struct {
	mu      sync.Mutex
	waiters int
}

// Manager owns one Engine per device session and serializes work on each.
type Manager struct {
	factory Factory

	mu      sync.Mutex // guards locks and engines
	locks   map[string]*sessionLock
	engines map[string]*mdxvision.Engine

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker also takes a cross-process lock per session, for deployments
// where several servers share one macro store.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed locks (default 30s).
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger sets the logger. The default discards.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a session manager that builds engines with factory.
func NewManager(factory Factory, opts ...Option) *Manager {
	m := &Manager{
		factory: factory,
		locks:   make(map[string]*sessionLock),
		engines: make(map[string]*mdxvision.Engine),
		lockTTL: 30 * time.Second,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// lock blocks until the caller holds sessionID locally and returns the
// matching unlock.
func (m *Manager) lock(sessionID string) func() {
	m.mu.Lock()
	l, ok := m.locks[sessionID]
	if !ok {
		l = &sessionLock{}
		m.locks[sessionID] = l
	}
	l.waiters++
	m.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		m.mu.Lock()
		if l.waiters--; l.waiters == 0 {
			delete(m.locks, sessionID)
		}
		m.mu.Unlock()
	}
}

// Get returns the engine of the session, creating it on first use.
func (m *Manager) Get(ctx context.Context, sessionID string) (*mdxvision.Engine, error) {
	var eng *mdxvision.Engine
	err := m.WithLock(ctx, sessionID, func(_ context.Context, e *mdxvision.Engine) error {
		eng = e
		return nil
	})
	return eng, err
}

// Lookup returns the engine of an already active session.
func (m *Manager) Lookup(sessionID string) (*mdxvision.Engine, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	eng, ok := m.engines[sessionID]
	return eng, ok
}

// WithLock runs fn with the session's engine while holding the session lock.
// Utterances of one device are therefore handled one at a time.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context, *mdxvision.Engine) error) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}
	defer m.lock(sessionID)()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("session %q: distributed lock: %w", sessionID, err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Session lock not released, waiting for expiry",
					"session_id", sessionID, "ttl", m.lockTTL, "err", err)
			}
		}()
	}

	eng, err := m.engine(ctx, sessionID)
	if err != nil {
		return err
	}
	return fn(ctx, eng)
}

// engine must be called with the session lock held.
func (m *Manager) engine(ctx context.Context, sessionID string) (*mdxvision.Engine, error) {
	if eng, ok := m.Lookup(sessionID); ok {
		return eng, nil
	}
	eng, err := m.factory(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to start session %q: %w", sessionID, err)
	}
	m.mu.Lock()
	m.engines[sessionID] = eng
	m.mu.Unlock()
	m.logger.Debug("Session started", "session_id", sessionID)
	return eng, nil
}

// Delete closes the session's engine and forgets it. Unknown sessions are ignored.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	defer m.lock(sessionID)()

	m.mu.Lock()
	eng, ok := m.engines[sessionID]
	delete(m.engines, sessionID)
	m.mu.Unlock()
	if ok {
		eng.Close()
		m.logger.Debug("Session closed", "session_id", sessionID)
	}
	return nil
}

// List returns the active session IDs, sorted.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.engines))
	for id := range m.engines {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close closes every engine.
func (m *Manager) Close() {
	m.mu.Lock()
	engines := m.engines
	m.engines = make(map[string]*mdxvision.Engine)
	m.mu.Unlock()
	for _, eng := range engines {
		eng.Close()
	}
}
