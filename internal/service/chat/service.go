package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zhouzirui/codegen-chat/backend/internal/model/chat"
)

var ErrSessionNotFound = errors.New("session not found")

type entry struct {
	session    chat.Session
	transcript *Transcript
	// submit serialises submissions so turns stay paired.
	submit sync.Mutex
}

// Service owns the in-memory sessions and their transcripts.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]*entry
}

// NewService bootstraps an empty session registry.
func NewService() *Service {
	return &Service{
		sessions: make(map[string]*entry),
	}
}

// CreateSession provisions a session with an empty transcript.
func (s *Service) CreateSession(_ context.Context) (chat.Session, error) {
	session := chat.Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.sessions[session.ID] = &entry{session: session, transcript: NewTranscript()}
	s.mu.Unlock()

	return session, nil
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	e, err := s.lookup(sessionID)
	if err != nil {
		return chat.Session{}, err
	}
	return e.session, nil
}

// Transcript returns the live transcript of a session.
func (s *Service) Transcript(_ context.Context, sessionID string) (*Transcript, error) {
	e, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	return e.transcript, nil
}

// LoadTranscript returns a snapshot of the session's turns.
func (s *Service) LoadTranscript(ctx context.Context, sessionID string) ([]chat.Turn, error) {
	transcript, err := s.Transcript(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return transcript.All(), nil
}

// WithSubmission runs fn while holding the session's submission lock.
func (s *Service) WithSubmission(_ context.Context, sessionID string, fn func(*Transcript) error) error {
	e, err := s.lookup(sessionID)
	if err != nil {
		return err
	}

	e.submit.Lock()
	defer e.submit.Unlock()
	return fn(e.transcript)
}

// EndSession drops the session and its transcript.
func (s *Service) EndSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	return nil
}

// SessionCount reports the number of live sessions.
func (s *Service) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Service) lookup(sessionID string) (*entry, error) {
	if sessionID == "" {
		return nil, ErrSessionNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return e, nil
}
