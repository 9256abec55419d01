package http

import (
	"context"
	"log/slog"
	"sync"
	"time"

	apperrors "admitcli/internal/errors"
	"admitcli/internal/infrastructure"
	"admitcli/internal/matcher"
	"admitcli/pkg/contracts/domain"
)

// DefaultSessionTTL applies when the store is created with a zero TTL.
const DefaultSessionTTL = 30 * time.Minute

// ReviewSession is a match result waiting for manual choices.
type ReviewSession struct {
	Result    *matcher.Result
	Session   matcher.Session
	RunID     string
	CreatedAt time.Time
	expires   time.Time
}

// SessionStore keeps review sessions in memory until they expire.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*ReviewSession
	ttl      time.Duration
	now      func() time.Time
	metrics  *infrastructure.PassMetrics
	logger   *slog.Logger
}

// NewSessionStore creates a store. metrics may be nil.
func NewSessionStore(ttl time.Duration, metrics *infrastructure.PassMetrics, logger *slog.Logger) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionStore{
		sessions: make(map[string]*ReviewSession),
		ttl:      ttl,
		now:      time.Now,
		metrics:  metrics,
		logger:   logger.With(slog.String("component", "session_store")),
	}
}

// Open starts a review of res and returns its id.
func (s *SessionStore) Open(ctx context.Context, res *matcher.Result, runID string) ReviewSession {
	session := matcher.NewSession(res, domain.ColGroupCode)
	now := s.now()
	rs := &ReviewSession{
		Result:    res,
		Session:   session,
		RunID:     runID,
		CreatedAt: now,
		expires:   now.Add(s.ttl),
	}

	s.mu.Lock()
	s.sessions[session.ID()] = rs
	s.mu.Unlock()

	s.metrics.SessionOpened(ctx)
	s.logger.InfoContext(ctx, "review session opened",
		slog.String("session_id", session.ID()),
		slog.String("run_id", runID),
		slog.Int("pending", session.Len()))
	return *rs
}

// Get returns a live session and extends its lifetime.
func (s *SessionStore) Get(ctx context.Context, id string) (ReviewSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rs, err := s.lookup(ctx, id)
	if err != nil {
		return ReviewSession{}, err
	}
	return *rs, nil
}

// Update applies fn to the session and stores the result. An error from fn
// leaves the session unchanged.
func (s *SessionStore) Update(ctx context.Context, id string, fn func(matcher.Session) (matcher.Session, error)) (ReviewSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rs, err := s.lookup(ctx, id)
	if err != nil {
		return ReviewSession{}, err
	}
	next, err := fn(rs.Session)
	if err != nil {
		return *rs, err
	}
	rs.Session = next
	return *rs, nil
}

// Delete drops a session. Deleting an unknown id is not an error.
func (s *SessionStore) Delete(ctx context.Context, id string) {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if ok {
		s.metrics.SessionClosed(ctx)
	}
}

// Len returns the number of stored sessions, expired or not.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep removes expired sessions and returns how many were removed.
func (s *SessionStore) Sweep(ctx context.Context) int {
	now := s.now()
	s.mu.Lock()
	removed := 0
	for id, rs := range s.sessions {
		if now.After(rs.expires) {
			delete(s.sessions, id)
			removed++
		}
	}
	s.mu.Unlock()

	for i := 0; i < removed; i++ {
		s.metrics.SessionClosed(ctx)
	}
	if removed > 0 {
		s.logger.InfoContext(ctx, "expired review sessions removed", slog.Int("count", removed))
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (s *SessionStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// lookup must be called with mu held.
func (s *SessionStore) lookup(ctx context.Context, id string) (*ReviewSession, error) {
	rs, ok := s.sessions[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("review session " + id)
	}
	now := s.now()
	if now.After(rs.expires) {
		delete(s.sessions, id)
		s.metrics.SessionClosed(ctx)
		return nil, apperrors.NewNotFoundError("review session " + id).WithContext("expired", true)
	}
	rs.expires = now.Add(s.ttl)
	return rs, nil
}
