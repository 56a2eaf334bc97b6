package shell

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/Kia-Karami/plainshell"
)

// Manager is a registry of running sessions keyed by ID. Sessions idle
// longer than the configured TTL are stopped and dropped automatically;
// Get touches the TTL, so a session in active use never expires.
type Manager struct {
	cfg   *plainshell.Config
	cache *ttlcache.Cache[string, *Session]

	mu sync.Mutex // serializes Create's id check against its insert
}

// NewManager creates a manager using cfg for session construction and the
// idle TTL.
func NewManager(cfg *plainshell.Config) *Manager {
	ttl := time.Duration(cfg.Session.IdleTTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = ttlcache.NoTTL
	}

	cache := ttlcache.New[string, *Session](
		ttlcache.WithTTL[string, *Session](ttl),
	)
	cache.OnEviction(func(_ context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[string, *Session]) {
		item.Value().Stop()
		slog.Debug("session evicted", "id", item.Key(), "reason", int(reason))
	})
	go cache.Start()

	return &Manager{cfg: cfg, cache: cache}
}

// Create starts a new session under id with the given working directory.
// The id must not already be in use.
func (m *Manager) Create(id, dir string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cache.Has(id) {
		return nil, fmt.Errorf("shell: session %q already exists", id)
	}

	transcript := plainshell.NewTranscript(m.cfg.Output.SubscriberBuffer)
	session := NewSession(m.cfg, transcript, dir)
	if err := session.Start(); err != nil {
		return nil, err
	}

	m.cache.Set(id, session, ttlcache.DefaultTTL)
	return session, nil
}

// Get returns the session under id, or nil. A hit refreshes the idle TTL.
func (m *Manager) Get(id string) *Session {
	item := m.cache.Get(id)
	if item == nil {
		return nil
	}
	return item.Value()
}

// Remove stops and drops the session under id. Unknown ids are a no-op.
func (m *Manager) Remove(id string) {
	m.cache.Delete(id)
}

// Close stops every session and the expiration loop.
func (m *Manager) Close() {
	m.cache.DeleteAll()
	m.cache.Stop()
}
