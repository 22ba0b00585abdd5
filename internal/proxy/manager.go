package proxy

import (
	"context"
	"sync"
	"time"

	"github.com/JulianoL13/tube-summary-engine/internal/logs"
)

type State string

const (
	StateEmpty      State = "empty"
	StateLoaded     State = "loaded"
	StateExpired    State = "expired"
	StateRefreshing State = "refreshing"
)

// Source fetches candidates from the external listing API.
type Source interface {
	FetchCandidates(ctx context.Context) ([]*Candidate, error)
}

// Store persists a pool generation so it survives process restarts.
// Load reports absence as an error, not a nil pool; a nil pool with a
// nil error is tolerated and treated as nothing to adopt.
type Store interface {
	Load(ctx context.Context) (*Pool, error)
	Save(ctx context.Context, pool *Pool) error
}

// Manager owns the current pool generation and the rotation cursor.
// The fetch path has a single logical caller; the mutex exists only so
// the status API can take read snapshots from its own goroutine.
type Manager struct {
	source Source
	store  Store
	logger logs.Logger

	policy       FilterPolicy
	refreshEvery time.Duration
	maxSize      int
	now          func() time.Time

	mu         sync.RWMutex
	pool       *Pool
	cursor     int
	refreshing bool
}

type ManagerOption func(*Manager)

func WithFilterPolicy(policy FilterPolicy) ManagerOption {
	return func(m *Manager) { m.policy = policy }
}

func WithRefreshInterval(d time.Duration) ManagerOption {
	return func(m *Manager) { m.refreshEvery = d }
}

func WithMaxPoolSize(n int) ManagerOption {
	return func(m *Manager) { m.maxSize = n }
}

func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

func NewManager(source Source, store Store, logger logs.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{
		source:       source,
		store:        store,
		logger:       logger,
		policy:       PolicyPassThrough,
		refreshEvery: time.Hour,
		maxSize:      DefaultMaxSize,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Initialize adopts the persisted fallback pool when one exists and has
// not expired. Missing or corrupt state leaves the manager empty; it is
// never an error for the caller.
func (m *Manager) Initialize(ctx context.Context) {
	pool, err := m.store.Load(ctx)
	if err != nil {
		m.logger.Info("no persisted proxy pool adopted", "reason", err)
		return
	}
	if pool == nil {
		m.logger.Info("store returned no pool, starting empty")
		return
	}
	if pool.Expired(m.now()) {
		m.logger.Info("persisted proxy pool expired, starting empty",
			"fetched_at", pool.FetchedAt, "expires_at", pool.ExpiresAt)
		return
	}

	m.mu.Lock()
	m.pool = pool
	m.cursor = 0
	m.mu.Unlock()

	m.logger.Info("adopted persisted proxy pool", "size", pool.Size(), "expires_at", pool.ExpiresAt)
}

// RefreshIfNeeded replaces the pool from the listing source once the
// current generation has expired. A source failure keeps whatever pool
// is already loaded, even an expired one; it never surfaces to the
// caller of the fetch path.
func (m *Manager) RefreshIfNeeded(ctx context.Context) {
	m.mu.RLock()
	due := m.pool.Expired(m.now())
	m.mu.RUnlock()
	if !due {
		return
	}

	m.mu.Lock()
	m.refreshing = true
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.refreshing = false
		m.mu.Unlock()
	}()

	candidates, err := m.source.FetchCandidates(ctx)
	if err != nil {
		m.logger.Warn("proxy listing refresh failed, keeping current pool", "error", err)
		return
	}
	if len(candidates) == 0 {
		m.logger.Warn("proxy listing returned nothing usable, keeping current pool")
		return
	}

	filtered := Filter(candidates, m.policy)
	pool := NewPool(filtered, m.now(), m.refreshEvery, m.maxSize)

	m.mu.Lock()
	m.pool = pool
	m.cursor = 0
	m.mu.Unlock()

	m.logger.Info("proxy pool refreshed",
		"fetched", len(candidates), "kept", pool.Size(), "policy", string(m.policy))

	if err := m.store.Save(ctx, pool); err != nil {
		m.logger.Warn("failed to persist proxy pool", "error", err)
	}
}

// NextProxy returns the candidate under the rotation cursor and
// advances it. A nil return means the pool is empty and the caller
// should go direct.
func (m *Manager) NextProxy() *Candidate {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pool.Size() == 0 {
		return nil
	}
	c := m.pool.Candidates[m.cursor]
	m.cursor = (m.cursor + 1) % m.pool.Size()
	return c
}

// ReportFailure records that an attempt through the candidate failed.
// Bookkeeping only: the candidate stays in rotation until the next
// refresh drops it.
func (m *Manager) ReportFailure(c *Candidate) {
	if c == nil {
		return
	}
	m.mu.Lock()
	c.MarkFailure()
	m.mu.Unlock()
	m.logger.Debug("proxy attempt failed", "address", c.Address(), "failures", c.FailCount)
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()

	switch {
	case m.refreshing:
		return StateRefreshing
	case m.pool == nil:
		return StateEmpty
	case m.pool.Expired(m.now()):
		return StateExpired
	default:
		return StateLoaded
	}
}

// Snapshot returns a deep copy of the current generation. Candidates
// are cloned under the lock because ReportFailure keeps mutating the
// live ones while the status API reads from its own goroutine.
func (m *Manager) Snapshot() *Pool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.pool == nil {
		return nil
	}
	out := &Pool{
		Candidates: make([]*Candidate, len(m.pool.Candidates)),
		FetchedAt:  m.pool.FetchedAt,
		ExpiresAt:  m.pool.ExpiresAt,
	}
	for i, c := range m.pool.Candidates {
		out.Candidates[i] = c.Clone()
	}
	return out
}
