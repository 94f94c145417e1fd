package usecase

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"adsight/pkg/logger"
	"adsight/pkg/metrics"
)

// SessionRegistry hands out one dashboard controller per browsing session.
// Nothing is shared between sessions and nothing outlives them; idle
// sessions are pruned lazily on access instead of by a background timer.
type SessionRegistry struct {
	factory func() *Dashboard
	ttl     time.Duration
	logger  *logger.Logger
	metrics *metrics.Metrics

	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

type sessionEntry struct {
	dashboard *Dashboard
	lastSeen  time.Time
}

// NewSessionRegistry creates a registry; factory builds a fresh controller
// per session
func NewSessionRegistry(factory func() *Dashboard, ttl time.Duration, logger *logger.Logger, metrics *metrics.Metrics) *SessionRegistry {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SessionRegistry{
		factory:  factory,
		ttl:      ttl,
		logger:   logger,
		metrics:  metrics,
		sessions: make(map[string]*sessionEntry),
	}
}

// Create allocates a new session and returns its id
func (r *SessionRegistry) Create() (string, *Dashboard) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pruneLocked()

	id := uuid.New().String()
	dash := r.factory()
	r.sessions[id] = &sessionEntry{dashboard: dash, lastSeen: time.Now()}
	r.metrics.SetActiveSessions(len(r.sessions))
	r.logger.WithField("session_id", id).Info("Dashboard session created")
	return id, dash
}

// Get looks up a session and refreshes its idle clock
func (r *SessionRegistry) Get(id string) (*Dashboard, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pruneLocked()

	entry, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	entry.lastSeen = time.Now()
	return entry.dashboard, true
}

// Len reports the live session count
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *SessionRegistry) pruneLocked() {
	cutoff := time.Now().Add(-r.ttl)
	for id, entry := range r.sessions {
		if entry.lastSeen.Before(cutoff) {
			delete(r.sessions, id)
			r.logger.WithField("session_id", id).Debug("Dashboard session expired")
		}
	}
	r.metrics.SetActiveSessions(len(r.sessions))
}
