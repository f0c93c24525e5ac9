package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"store-admin/internal/models"

	"github.com/google/uuid"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// FailureKind classifies a business-rule failure so transports can pick a
// status code. It is never rendered.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureInvalid
	FailureUnauthenticated
	FailureUnauthorized
	FailureNotFound
)

// Result is the outcome of an admin operation that can fail on a business
// rule. Transport and storage failures are returned as errors instead.
type Result struct {
	Success bool                 `json:"success"`
	Message string               `json:"message"`
	User    *models.AdminAccount `json:"user,omitempty"`
	Failure FailureKind          `json:"-"`
}

func succeeded(message string) Result {
	return Result{Success: true, Message: message}
}

func failed(kind FailureKind, message string) Result {
	return Result{Message: message, Failure: kind}
}

// AuthService is the only writer of the admin directory and the session
// store, and the only producer of admin audit entries.
type AuthService struct {
	directory *AdminDirectory
	sessions  *SessionStore
	audit     *AuditRecorder
	passwords *PasswordPolicy
	idle      *IdleMonitor
	logger    *slog.Logger
	now       func() time.Time

	// mu serializes mutations from validation through audit.
	mu sync.Mutex
}

func NewAuthService(directory *AdminDirectory, sessions *SessionStore, audit *AuditRecorder, passwords *PasswordPolicy, idleTimeout time.Duration, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &AuthService{
		directory: directory,
		sessions:  sessions,
		audit:     audit,
		passwords: passwords,
		logger:    logger,
		now:       time.Now,
	}
	s.idle = NewIdleMonitor(idleTimeout, s.expireIdle)
	return s
}

func (s *AuthService) Directory() *AdminDirectory {
	return s.directory
}

func (s *AuthService) Idle() *IdleMonitor {
	return s.idle
}

// Login checks credentials and binds the account to key. An empty key
// allocates a new one. It reports false, with no error, for unknown users,
// wrong passwords, inactive accounts and an unloaded directory.
func (s *AuthService) Login(ctx context.Context, key, username, password string) (*models.Session, bool, error) {
	if !s.directory.Loaded() {
		s.logger.Warn("login blocked: admin directory is not loaded")
		return nil, false, nil
	}

	account, found := s.directory.FindByUsername(username)
	if !found || !s.passwords.Verify(account.Credential, password) {
		return nil, false, nil
	}
	if !account.IsActive {
		return nil, false, nil
	}

	if key == "" {
		key = uuid.NewString()
	}
	session := &models.Session{
		ID:        key,
		Account:   account,
		CreatedAt: s.now().UTC(),
	}
	if err := s.sessions.Set(ctx, session); err != nil {
		return nil, false, err
	}
	s.idle.Start(key)

	return session, true, nil
}

// Logout clears key and records one ADMIN_LOGOUT for the identity it held.
// Logging out an empty key does nothing.
func (s *AuthService) Logout(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logoutLocked(ctx, key)
}

func (s *AuthService) logoutLocked(ctx context.Context, key string) error {
	s.idle.Stop(key)

	session, err := s.sessions.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			return nil
		}
		return err
	}
	if err := s.sessions.Clear(ctx, key); err != nil {
		return err
	}

	s.audit.Record(ctx, auditEntry(session.Account, models.ActionAdminLogout, "", nil))
	return nil
}

func (s *AuthService) expireIdle(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.logger.Info("admin inactive, logging out", "session", key, "timeout", s.idle.Timeout())
	if err := s.Logout(ctx, key); err != nil {
		s.logger.Error("inactivity logout failed", "session", key, "error", err)
	}
}

// Session resolves key to its session. Sessions whose account has since
// been deleted or deactivated are logged out and reported as ErrNoSession.
func (s *AuthService) Session(ctx context.Context, key string) (*models.Session, error) {
	session, err := s.sessions.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	if s.directory.Loaded() {
		current, found := s.directory.Find(session.Account.ID)
		if !found || !current.IsActive {
			s.logger.Info("ending session of removed or deactivated admin", "session", key, "admin", session.Account.Username)
			if err := s.Logout(ctx, key); err != nil {
				return nil, err
			}
			return nil, ErrNoSession
		}
	}
	return session, nil
}

// actor returns the session acting under key.
func (s *AuthService) actor(ctx context.Context, key string) (*models.Session, *Result, error) {
	session, err := s.sessions.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			res := failed(FailureUnauthenticated, "Not logged in.")
			return nil, &res, nil
		}
		return nil, nil, err
	}
	return session, nil, nil
}

// superadmin returns the acting session if it belongs to a superadmin.
func (s *AuthService) superadmin(ctx context.Context, key string) (*models.Session, *Result, error) {
	session, res, err := s.actor(ctx, key)
	if err != nil {
		return nil, nil, err
	}
	if res != nil || session.Account.Role != models.RoleSuperadmin {
		unauthorized := failed(FailureUnauthorized, "Unauthorized.")
		return nil, &unauthorized, nil
	}
	return session, nil, nil
}

// refreshSession rewrites the snapshot held by session. The directory is
// already persisted at this point, so a failure is only logged.
func (s *AuthService) refreshSession(ctx context.Context, session *models.Session, account models.AdminAccount) {
	session.Account = account.Clone()
	if err := s.sessions.Set(ctx, session); err != nil {
		s.logger.Error("failed to refresh session snapshot", "session", session.ID, "error", err)
	}
}

func auditEntry(actor models.AdminAccount, action, entity string, details map[string]any) models.AuditLogEntry {
	entry := models.AuditLogEntry{
		AdminUserID:    actor.ID,
		AdminUsername:  actor.Username,
		AdminRole:      actor.Role,
		Action:         action,
		EntityIDOrName: entity,
		Details:        details,
	}
	if entity != "" {
		entry.EntityType = models.EntityAdminUser
	}
	return entry
}

func validEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// accountIndex returns the position of id in accounts or -1.
func accountIndex(accounts []models.AdminAccount, id string) int {
	for i := range accounts {
		if accounts[i].ID == id {
			return i
		}
	}
	return -1
}

func errPersist(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
