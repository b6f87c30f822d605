package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"quizbrawl/internal/cache"
	"quizbrawl/internal/model"
	"quizbrawl/internal/repository"
)

// SessionService handles tournament session lifecycle operations
type SessionService struct {
	sessionRepo  repository.SessionRepo
	sessionCache cache.SessionCache
}

// NewSessionService creates a new session service
func NewSessionService(sessionRepo repository.SessionRepo, sessionCache cache.SessionCache) *SessionService {
	return &SessionService{
		sessionRepo:  sessionRepo,
		sessionCache: sessionCache,
	}
}

// CreateSession creates a new tournament session owned by the host
func (s *SessionService) CreateSession(ctx context.Context, hostID, name string) (*model.Session, error) {
	session := &model.Session{
		ID:        uuid.NewString(),
		HostID:    hostID,
		Name:      name,
		Status:    model.SessionWaiting,
		CreatedAt: time.Now(),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	if err := s.sessionCache.Set(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to cache session: %w", err)
	}
	return session, nil
}

// GetSession retrieves a session, cache first
func (s *SessionService) GetSession(ctx context.Context, id string) (*model.Session, error) {
	session, err := s.sessionCache.Get(ctx, id)
	if err == nil && session != nil {
		return session, nil
	}
	session, err = s.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session != nil {
		_ = s.sessionCache.Set(ctx, session)
	}
	return session, nil
}

// StartSession transitions the session to ACTIVE once the quiz phase begins
func (s *SessionService) StartSession(ctx context.Context, id, hostID string) error {
	session, err := s.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if session == nil {
		return fmt.Errorf("session not found")
	}
	if session.HostID != hostID {
		return fmt.Errorf("unauthorized: not session host")
	}
	if session.Status != model.SessionWaiting {
		return fmt.Errorf("session is not in waiting status")
	}

	session.Status = model.SessionActive
	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return err
	}
	return s.sessionCache.Set(ctx, session)
}
