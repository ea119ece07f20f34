package services

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"orbtrap-lab/internal/config"
	"orbtrap-lab/internal/domain/models"
	"orbtrap-lab/pkg/logger"
)

// SessionStore owns every live conversation session, keyed by the opaque
// caller-supplied id. The map is striped across fixed shards so unrelated
// conversations never contend on one lock; serialization of a single
// conversation's turns happens on the session's own lock, not here.
type SessionStore struct {
	shards []*sessionShard
	cfg    config.SessionsConfig
	logger *logger.Logger
}

type sessionShard struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
}

// NewSessionStore creates an empty store.
func NewSessionStore(cfg config.SessionsConfig, log *logger.Logger) *SessionStore {
	if cfg.ShardCount <= 0 {
		cfg.ShardCount = 32
	}
	shards := make([]*sessionShard, cfg.ShardCount)
	for i := range shards {
		shards[i] = &sessionShard{sessions: make(map[string]*models.Session)}
	}
	return &SessionStore{
		shards: shards,
		cfg:    cfg,
		logger: log.WithComponent("session-store"),
	}
}

func (s *SessionStore) shard(id string) *sessionShard {
	h := fnv.New32a()
	h.Write([]byte(id))
	return s.shards[h.Sum32()%uint32(len(s.shards))]
}

// GetOrCreate returns the session for id, creating it atomically on first
// contact. Concurrent first-contact requests for the same id observe
// exactly one session object; created reports whether this call made it.
func (s *SessionStore) GetOrCreate(id string) (sess *models.Session, created bool) {
	sh := s.shard(id)

	sh.mu.RLock()
	sess, ok := sh.sessions[id]
	sh.mu.RUnlock()
	if ok {
		return sess, false
	}

	sh.mu.Lock()
	defer sh.mu.Unlock()
	if sess, ok = sh.sessions[id]; ok {
		return sess, false
	}
	sess = models.NewSession(id)
	sh.sessions[id] = sess
	return sess, true
}

// Get returns the session for id, or nil if unknown.
func (s *SessionStore) Get(id string) *models.Session {
	sh := s.shard(id)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	return sh.sessions[id]
}

// Count returns the number of live sessions.
func (s *SessionStore) Count() int {
	total := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		total += len(sh.sessions)
		sh.mu.RUnlock()
	}
	return total
}

// Summaries snapshots every live session for the inspection endpoints.
func (s *SessionStore) Summaries() []models.SessionSummary {
	var out []models.SessionSummary
	for _, sh := range s.shards {
		sh.mu.RLock()
		sessions := make([]*models.Session, 0, len(sh.sessions))
		for _, sess := range sh.sessions {
			sessions = append(sessions, sess)
		}
		sh.mu.RUnlock()

		for _, sess := range sessions {
			sess.Lock()
			out = append(out, sess.Summarize())
			sess.Unlock()
		}
	}
	return out
}

// Run sweeps reported sessions out of the store once they age past the
// retention window. Blocks until ctx is cancelled.
func (s *SessionStore) Run(ctx context.Context) {
	interval := s.cfg.SweepInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			evicted := s.evictReported(time.Now().Add(-s.cfg.Retention))
			if evicted > 0 {
				s.logger.Info().Int("evicted", evicted).Msg("swept reported sessions")
			}
		}
	}
}

// evictReported removes sessions reported before the cutoff.
func (s *SessionStore) evictReported(cutoff time.Time) int {
	evicted := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for id, sess := range sh.sessions {
			sess.Lock()
			expired := sess.Reported && sess.ReportedAt.Before(cutoff)
			sess.Unlock()
			if expired {
				delete(sh.sessions, id)
				evicted++
			}
		}
		sh.mu.Unlock()
	}
	return evicted
}
