package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"store-admin/internal/config"
	"store-admin/internal/models"
	"store-admin/internal/storage"

	"gorm.io/gorm"
)

// Services wires the stores and services of one process.
type Services struct {
	Config    *config.Config
	DB        *gorm.DB
	Documents storage.DocumentStore
	KV        storage.KV

	Passwords *PasswordPolicy
	Audit     *AuditRecorder
	Sessions  *SessionStore
	Directory *AdminDirectory
	Auth      *AuthService
	Tokens    *TokenService

	logger *slog.Logger
}

// New opens the configured stores and loads the admin directory.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Services, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var db *gorm.DB
	if cfg.UsesDatabase() {
		var err error
		db, err = models.InitDB(cfg)
		if err != nil {
			return nil, err
		}
	}

	docs, err := storage.OpenDocuments(cfg, db, logger)
	if err != nil {
		return nil, err
	}
	kv, err := storage.OpenKV(cfg, db)
	if err != nil {
		return nil, err
	}

	s := Build(cfg, docs, kv, logger)
	s.DB = db

	if err := s.Directory.Reload(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to load admin directory: %w", err)
	}
	return s, nil
}

// Build assembles the services over already opened stores.
func Build(cfg *config.Config, docs storage.DocumentStore, kv storage.KV, logger *slog.Logger) *Services {
	if logger == nil {
		logger = slog.Default()
	}
	passwords := NewPasswordPolicy(cfg.Security)
	audit := NewAuditRecorder(kv, cfg.Audit, logger.With("component", "audit"))
	sessions := NewSessionStore(kv, cfg.SessionTTL(), logger)
	directory := NewAdminDirectory(docs, passwords, cfg.DefaultUsers, logger.With("component", "directory"))
	auth := NewAuthService(directory, sessions, audit, passwords, cfg.InactivityTimeout(), logger.With("component", "auth"))

	return &Services{
		Config:    cfg,
		Documents: docs,
		KV:        kv,
		Passwords: passwords,
		Audit:     audit,
		Sessions:  sessions,
		Directory: directory,
		Auth:      auth,
		Tokens:    NewTokenService(cfg.JWT),
		logger:    logger,
	}
}

type expiringKV interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// RunJanitor purges expired session slots until ctx is done. Stores that
// expire keys on their own are left alone.
func (s *Services) RunJanitor(ctx context.Context, interval time.Duration) {
	kv, ok := s.KV.(expiringKV)
	if !ok {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := kv.PurgeExpired(ctx)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					s.logger.Warn("failed to purge expired sessions", "error", err)
				}
				continue
			}
			if n > 0 {
				s.logger.Debug("purged expired sessions", "count", n)
			}
		}
	}
}

func (s *Services) Close() error {
	s.Auth.Idle().Close()

	var errs []error
	if s.KV != nil {
		errs = append(errs, s.KV.Close())
	}
	if s.DB != nil {
		if sqlDB, err := s.DB.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}
