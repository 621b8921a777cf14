package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/raterudder/billcompare/pkg/log"
	"github.com/raterudder/billcompare/pkg/session"
)

type sessionEntry struct {
	sess     *session.Session
	lastUsed time.Time
}

type sessionHandlerFunc func(w http.ResponseWriter, r *http.Request, sess *session.Session)

// withSession resolves the {id} path value to a session, marks it as used
// and adds the id to the request logger. Sessions idle for longer than the
// TTL are dropped and reported as not found.
func (s *Server) withSession(h sessionHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		now := s.now()

		s.mu.Lock()
		entry, ok := s.sessions[id]
		if ok && s.expired(entry, now) {
			delete(s.sessions, id)
			ok = false
		}
		if ok {
			entry.lastUsed = now
		}
		s.mu.Unlock()
		if !ok {
			writeJSONError(w, "session not found", http.StatusNotFound)
			return
		}

		ctx := r.Context()
		ctx = log.With(ctx, log.Ctx(ctx).With(slog.String("sessionID", id)))
		h(w, r.WithContext(ctx), entry.sess)
	}
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := uuid.NewString()
	now := s.now()

	s.mu.Lock()
	s.evictExpiredLocked(now)
	if s.maxSessions > 0 && len(s.sessions) >= s.maxSessions {
		s.mu.Unlock()
		log.Ctx(ctx).WarnContext(ctx, "session limit reached", slog.Int("maxSessions", s.maxSessions))
		writeJSONError(w, "too many sessions", http.StatusServiceUnavailable)
		return
	}
	s.sessions[id] = &sessionEntry{
		sess:     session.New(s.loader, *s.schedule),
		lastUsed: now,
	}
	s.mu.Unlock()

	log.Ctx(ctx).DebugContext(ctx, "created session", slog.String("sessionID", id))
	writeJSON(w, http.StatusCreated, struct {
		ID string `json:"id"`
	}{ID: id})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request, _ *session.Session) {
	s.mu.Lock()
	delete(s.sessions, r.PathValue("id"))
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) expired(entry *sessionEntry, now time.Time) bool {
	return s.sessionTTL > 0 && now.Sub(entry.lastUsed) > s.sessionTTL
}

// evictExpiredLocked drops idle sessions and returns how many were removed.
// s.mu must be held.
func (s *Server) evictExpiredLocked(now time.Time) int {
	var n int
	for id, entry := range s.sessions {
		if s.expired(entry, now) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// evictLoop periodically drops idle sessions until ctx is done.
func (s *Server) evictLoop(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			n := s.evictExpiredLocked(s.now())
			remaining := len(s.sessions)
			s.mu.Unlock()
			if n > 0 {
				log.Ctx(ctx).DebugContext(ctx, "evicted idle sessions", slog.Int("evicted", n), slog.Int("remaining", remaining))
			}
		}
	}
}
