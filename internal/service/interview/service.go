package interview

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zhouzirui/z-interview/backend/internal/logger"
	"github.com/zhouzirui/z-interview/backend/internal/model/interview"
)

type entry struct {
	mu         sync.Mutex
	session    *Session
	lastActive time.Time
}

// Service keeps sessions in memory. Each session is driven by one caller at
// a time; different sessions never share state.
type Service struct {
	mu        sync.RWMutex
	sessions  map[string]*entry
	responder Responder
	evaluator Evaluator
	logger    *zap.Logger
	now       func() time.Time
}

// NewService bootstraps the in-memory session registry.
func NewService(responder Responder, evaluator Evaluator, log *zap.Logger) *Service {
	return &Service{
		sessions:  make(map[string]*entry),
		responder: responder,
		evaluator: evaluator,
		logger:    logger.OrNop(log),
		now:       time.Now,
	}
}

// CreateSession provisions a session in the Setup phase.
func (s *Service) CreateSession(_ context.Context) (View, error) {
	session := NewSession(uuid.NewString())
	session.now = s.now

	s.mu.Lock()
	s.sessions[session.ID] = &entry{session: session, lastActive: s.now()}
	s.mu.Unlock()

	s.logger.Info("session created", zap.String("session", session.ID))
	return session.View(), nil
}

// GetSession returns a snapshot of the session.
func (s *Service) GetSession(_ context.Context, sessionID string) (View, error) {
	var view View
	err := s.withSession(sessionID, func(session *Session) error {
		view = session.View()
		return nil
	})
	return view, err
}

// Transcript returns the full transcript, system message included.
func (s *Service) Transcript(_ context.Context, sessionID string) ([]interview.Message, error) {
	var out []interview.Message
	err := s.withSession(sessionID, func(session *Session) error {
		out = session.TranscriptCopy()
		return nil
	})
	return out, err
}

// Start freezes the profile and opens the interview.
func (s *Service) Start(_ context.Context, sessionID string, profile interview.Profile) (View, error) {
	var view View
	err := s.withSession(sessionID, func(session *Session) error {
		before := session.Phase
		if err := session.Start(profile); err != nil {
			return err
		}
		if before == interview.PhaseSetup {
			s.logger.Info("interview started",
				zap.String("session", sessionID),
				zap.String("level", string(session.Profile.Level)),
				zap.String("position", session.Profile.Position),
				zap.String("company", session.Profile.Company))
		}
		view = session.View()
		return nil
	})
	return view, err
}

// SubmitAnswer runs one turn. onDelta is invoked while the session is locked.
func (s *Service) SubmitAnswer(ctx context.Context, sessionID, content string, onDelta DeltaFunc) (Turn, View, error) {
	var (
		turn Turn
		view View
	)
	err := s.withSession(sessionID, func(session *Session) error {
		var err error
		turn, err = session.Submit(ctx, content, s.responder, onDelta)
		view = session.View()
		if err != nil {
			s.logger.Warn("turn rejected",
				zap.String("session", sessionID),
				zap.Int("userTurnCount", session.UserTurnCount),
				zap.Error(err))
			return err
		}
		s.logger.Info("turn completed",
			zap.String("session", sessionID),
			zap.Int("turn", turn.Number),
			zap.Bool("final", turn.Final),
			zap.String("answer", logger.TruncateForLog(turn.User.Content, 60)))
		return nil
	})
	return turn, view, err
}

// RequestFeedback evaluates a finished interview.
func (s *Service) RequestFeedback(ctx context.Context, sessionID string) (interview.Feedback, View, error) {
	var (
		fb   interview.Feedback
		view View
	)
	err := s.withSession(sessionID, func(session *Session) error {
		var err error
		fb, err = session.RequestFeedback(ctx, s.evaluator)
		view = session.View()
		if err != nil {
			s.logger.Warn("feedback failed", zap.String("session", sessionID), zap.Error(err))
		}
		return err
	})
	return fb, view, err
}

// Restart resets the session to a fresh Setup state.
func (s *Service) Restart(_ context.Context, sessionID string) (View, error) {
	var view View
	err := s.withSession(sessionID, func(session *Session) error {
		session.Restart()
		view = session.View()
		return nil
	})
	if err == nil {
		s.logger.Info("session restarted", zap.String("session", sessionID))
	}
	return view, err
}

// DeleteSession drops the session.
func (s *Service) DeleteSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	return nil
}

// SweepIdle removes sessions inactive for longer than ttl and returns how
// many were removed. Sessions busy with a turn are skipped.
func (s *Service) SweepIdle(ttl time.Duration) int {
	cutoff := s.now().Add(-ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, e := range s.sessions {
		if !e.mu.TryLock() {
			continue
		}
		idle := e.lastActive.Before(cutoff)
		e.mu.Unlock()

		if idle {
			delete(s.sessions, id)
			removed++
		}
	}

	if removed > 0 {
		s.logger.Info("idle sessions evicted", zap.Int("count", removed), zap.Duration("ttl", ttl))
	}
	return removed
}

// Len returns the number of live sessions.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Service) withSession(sessionID string, fn func(*Session) error) error {
	e, err := s.acquire(sessionID)
	if err != nil {
		return err
	}
	defer e.mu.Unlock()

	err = fn(e.session)
	e.lastActive = s.now()
	return err
}

// acquire returns the locked entry.
func (s *Service) acquire(sessionID string) (*entry, error) {
	e, ok := s.lookup(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	if err := s.lockEntry(sessionID, e); err != nil {
		return nil, err
	}
	return e, nil
}

// lockEntry locks e and confirms it is still registered: a sweep may evict
// it between lookup and lock.
func (s *Service) lockEntry(sessionID string, e *entry) error {
	e.mu.Lock()
	if current, ok := s.lookup(sessionID); !ok || current != e {
		e.mu.Unlock()
		return ErrSessionNotFound
	}
	return nil
}

func (s *Service) lookup(sessionID string) (*entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[sessionID]
	return e, ok
}
