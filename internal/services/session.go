package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"store-admin/internal/models"
	"store-admin/internal/storage"
)

// ErrNoSession is returned when a session key holds no identity.
var ErrNoSession = errors.New("no active session")

const sessionKeyPrefix = "session:"

// SessionStore holds the identity bound to each session key. Slots expire
// with the session lifetime, the server-side analogue of a tab's storage.
type SessionStore struct {
	kv     storage.KV
	ttl    time.Duration
	logger *slog.Logger
}

func NewSessionStore(kv storage.KV, ttl time.Duration, logger *slog.Logger) *SessionStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionStore{kv: kv, ttl: ttl, logger: logger}
}

// Get returns the session stored under key or ErrNoSession.
func (s *SessionStore) Get(ctx context.Context, key string) (*models.Session, error) {
	if key == "" {
		return nil, ErrNoSession
	}
	raw, err := s.kv.Get(ctx, sessionKeyPrefix+key)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("read session: %w", err)
	}

	var session models.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		// An unreadable slot means logged out.
		s.logger.Warn("discarding malformed session", "session", key, "error", err)
		return nil, ErrNoSession
	}
	return &session, nil
}

// Set stores session under session.ID.
func (s *SessionStore) Set(ctx context.Context, session *models.Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.kv.Set(ctx, sessionKeyPrefix+session.ID, raw, s.ttl); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// Clear removes whatever is stored under key.
func (s *SessionStore) Clear(ctx context.Context, key string) error {
	if err := s.kv.Delete(ctx, sessionKeyPrefix+key); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
