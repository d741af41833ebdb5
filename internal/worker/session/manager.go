// Package session provides session lifecycle management for the honeypot.
package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Mayank-Dandane/honeypot-api/internal/intel"
	"github.com/Mayank-Dandane/honeypot-api/pkg/models"
)

const (
	// SessionTimeout is how long a session may stay idle before the sweep evicts it.
	SessionTimeout = time.Hour
	// CleanupInterval is how often idle sessions are swept.
	CleanupInterval = 5 * time.Minute
)

// Update is the analysis outcome of one processed turn.
type Update struct {
	// Classification is nil when the classifier failed for this turn.
	Classification *models.Classification
	Intelligence   models.Intelligence
}

// UpdateResult describes what an Update changed.
type UpdateResult struct {
	Session models.Session
	// Confirmed is true only on the update that flipped ScamConfirmed.
	Confirmed bool
	// Discovered holds the intelligence values this update introduced.
	Discovered models.Intelligence
	// Added counts the values in Discovered.
	Added int
}

// Manager is the keyed session store. All mutations of one session happen under the
// manager lock, so concurrent turns for the same conversation never interleave.
type Manager struct {
	ctx             context.Context
	sessions        map[string]*models.Session
	onCreated       func(id string)
	onDeleted       func(id string)
	now             func() time.Time
	cancel          context.CancelFunc
	wg              sync.WaitGroup
	idleTimeout     time.Duration
	cleanupInterval time.Duration
	mu              sync.RWMutex
	startOnce       sync.Once
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithIdleTimeout sets the idle duration after which sessions are swept.
func WithIdleTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.idleTimeout = d
		}
	}
}

// WithCleanupInterval sets how often the cleanup loop sweeps.
func WithCleanupInterval(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.cleanupInterval = d
		}
	}
}

// NewManager creates an empty session store. Call Start to run the idle sweep.
func NewManager(opts ...Option) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		sessions:        make(map[string]*models.Session),
		now:             time.Now,
		idleTimeout:     SessionTimeout,
		cleanupInterval: CleanupInterval,
		ctx:             ctx,
		cancel:          cancel,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetOnSessionCreated sets the callback for session creation.
func (m *Manager) SetOnSessionCreated(fn func(id string)) {
	m.mu.Lock()
	m.onCreated = fn
	m.mu.Unlock()
}

// SetOnSessionDeleted sets the callback for session deletion (explicit or swept).
func (m *Manager) SetOnSessionDeleted(fn func(id string)) {
	m.mu.Lock()
	m.onDeleted = fn
	m.mu.Unlock()
}

// GetOrCreate returns a snapshot of the session, creating it on first reference.
func (m *Manager) GetOrCreate(id string) models.Session {
	m.mu.Lock()
	s, created := m.getOrCreateLocked(id)
	snapshot := s.Clone()
	onCreated := m.onCreated
	m.mu.Unlock()

	if created && onCreated != nil {
		onCreated(id)
	}
	return snapshot
}

// Get returns a snapshot of an existing session without creating one.
func (m *Manager) Get(id string) (models.Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return models.Session{}, false
	}
	return s.Clone(), true
}

// Update applies one turn's analysis atomically: it increments the turn counter, refreshes
// LastUpdated, merges intelligence and folds the classification into the session. A session
// swept while the turn was being analyzed is recreated.
func (m *Manager) Update(id string, u Update) UpdateResult {
	m.mu.Lock()
	s, created := m.getOrCreateLocked(id)
	onCreated := m.onCreated

	s.TotalTurns++
	s.LastUpdated = m.now()
	if s.LastUpdated.Before(s.CreatedAt) {
		s.LastUpdated = s.CreatedAt
	}

	before := s.Intelligence.Clone()
	intel.Merge(&s.Intelligence, u.Intelligence)

	var result UpdateResult
	if c := u.Classification; c != nil {
		if c.IsScam && !s.ScamConfirmed {
			s.ScamConfirmed = true
			result.Confirmed = true
		}
		if (c.IsScam || s.ScamConfirmed) && c.ScamType != models.ScamTypeUnknown && c.ScamType != "" {
			if s.ScamType == "" || s.ScamType == models.ScamTypeUnknown || c.Confidence > s.ScamTypeConfidence {
				s.ScamType = c.ScamType
				s.ScamTypeConfidence = c.Confidence
			}
		}
		for _, signal := range c.Signals {
			s.AddTactic(signal)
		}
		intel.MergeField(&s.Intelligence, models.FieldSuspiciousKeywords, c.Signals...)
		if c.Summary != "" {
			s.Summary = c.Summary
		}
	}
	result.Discovered = intel.Diff(before, s.Intelligence)
	result.Added = result.Discovered.Count()
	result.Session = s.Clone()
	m.mu.Unlock()

	if created && onCreated != nil {
		onCreated(id)
	}
	return result
}

// ClaimReport atomically checks ready against the current session and, if it holds and no
// report was attempted yet, marks the report as attempted. Only one caller per session ever
// gets true.
func (m *Manager) ClaimReport(id string, ready func(models.Session) bool) (models.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok || s.ReportAttempted {
		return models.Session{}, false
	}
	snapshot := s.Clone()
	if ready != nil && !ready(snapshot) {
		return models.Session{}, false
	}
	s.ReportAttempted = true
	snapshot.ReportAttempted = true
	return snapshot, true
}

// MarkReported records a successful dispatch. It reports whether the flag changed.
func (m *Manager) MarkReported(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok || s.ReportSent {
		return false
	}
	s.ReportSent = true
	return true
}

// Sweep evicts every session idle for longer than maxIdle and returns how many were removed.
func (m *Manager) Sweep(maxIdle time.Duration) int {
	cutoff := m.now().Add(-maxIdle)

	m.mu.Lock()
	var evicted []string
	for id, s := range m.sessions {
		if s.LastUpdated.Before(cutoff) {
			delete(m.sessions, id)
			evicted = append(evicted, id)
		}
	}
	onDeleted := m.onDeleted
	m.mu.Unlock()

	if onDeleted != nil {
		for _, id := range evicted {
			onDeleted(id)
		}
	}
	return len(evicted)
}

// Start launches the periodic idle sweep. It is safe to call more than once.
func (m *Manager) Start() {
	m.startOnce.Do(func() {
		m.wg.Add(1)
		go m.cleanupLoop()
	})
}

// Stop ends the cleanup loop and waits for it to exit.
func (m *Manager) Stop() {
	m.cancel()
	m.wg.Wait()
}

func (m *Manager) cleanupLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(m.idleTimeout); n > 0 {
				log.Info().
					Int("evicted", n).
					Int("remaining", m.GetActiveSessionCount()).
					Msg("Swept idle sessions")
			}
		}
	}
}

// DeleteSession removes a session. Deleting an unknown session is a no-op.
func (m *Manager) DeleteSession(id string) {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	onDeleted := m.onDeleted
	m.mu.Unlock()

	if ok && onDeleted != nil {
		onDeleted(id)
	}
}

// ShutdownAll stops the cleanup loop and drops every session.
func (m *Manager) ShutdownAll(ctx context.Context) {
	m.Stop()

	m.mu.RLock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	for _, id := range ids {
		if ctx.Err() != nil {
			log.Warn().Int("remaining", len(ids)).Msg("Session shutdown interrupted")
			return
		}
		m.DeleteSession(id)
	}
}

// GetActiveSessionCount returns the number of sessions held in memory.
func (m *Manager) GetActiveSessionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// GetAllSessions returns snapshots of all sessions, most recently updated first.
func (m *Manager) GetAllSessions() []models.Session {
	m.mu.RLock()
	result := make([]models.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		result = append(result, s.Clone())
	}
	m.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].LastUpdated.Equal(result[j].LastUpdated) {
			return result[i].ID < result[j].ID
		}
		return result[i].LastUpdated.After(result[j].LastUpdated)
	})
	return result
}

func (m *Manager) getOrCreateLocked(id string) (*models.Session, bool) {
	if s, ok := m.sessions[id]; ok {
		return s, false
	}
	s := models.NewSession(id, m.now())
	m.sessions[id] = s
	return s, true
}
