package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"store-admin/internal/config"
	"store-admin/internal/models"
	"store-admin/internal/storage"

	"github.com/oklog/ulid/v2"
)

// AdminUsersDocument is the document holding the admin directory.
const AdminUsersDocument = "adminUsers"

// AdminDirectory is the cached copy of the admin accounts document. The
// document store is authoritative; only AuthService writes through replace.
type AdminDirectory struct {
	docs      storage.DocumentStore
	passwords *PasswordPolicy
	defaults  []config.DefaultUserConfig
	logger    *slog.Logger
	now       func() time.Time

	mu       sync.RWMutex
	accounts []models.AdminAccount
	loaded   bool
}

func NewAdminDirectory(docs storage.DocumentStore, passwords *PasswordPolicy, defaults []config.DefaultUserConfig, logger *slog.Logger) *AdminDirectory {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminDirectory{
		docs:      docs,
		passwords: passwords,
		defaults:  defaults,
		logger:    logger,
		now:       time.Now,
	}
}

func newAccountID() string {
	return "admin_" + ulid.Make().String()
}

// Reload replaces the cache with the stored document, seeding the default
// accounts when the document is missing or empty and upgrading plaintext
// credentials left by older writers.
func (d *AdminDirectory) Reload(ctx context.Context) error {
	var stored []models.AdminAccount
	found, err := d.docs.LoadDocument(ctx, AdminUsersDocument, &stored)
	if err != nil {
		return fmt.Errorf("load admin directory: %w", err)
	}

	if !found || len(stored) == 0 {
		seeded, err := d.seed()
		if err != nil {
			return err
		}
		if err := d.docs.SaveDocument(ctx, AdminUsersDocument, seeded); err != nil {
			return fmt.Errorf("save seeded admin directory: %w", err)
		}
		d.logger.Info("seeded admin directory", "accounts", len(seeded))
		d.swap(seeded)
		return nil
	}

	upgraded, err := d.upgradeCredentials(stored)
	if err != nil {
		return err
	}
	if upgraded > 0 {
		if err := d.docs.SaveDocument(ctx, AdminUsersDocument, stored); err != nil {
			return fmt.Errorf("save upgraded admin directory: %w", err)
		}
		d.logger.Info("upgraded plaintext admin credentials", "accounts", upgraded)
	}

	d.swap(stored)
	return nil
}

func (d *AdminDirectory) seed() ([]models.AdminAccount, error) {
	now := d.now().UTC()
	accounts := make([]models.AdminAccount, 0, len(d.defaults))
	for _, u := range d.defaults {
		role, err := models.ParseRole(u.Role)
		if err != nil {
			return nil, fmt.Errorf("default user %s: %w", u.Username, err)
		}
		cred, err := d.passwords.Hash(u.Password)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, models.AdminAccount{
			ID:         newAccountID(),
			Username:   u.Username,
			Name:       u.Name,
			Email:      u.Email,
			Credential: cred,
			Role:       role,
			IsActive:   true,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}
	return accounts, nil
}

func (d *AdminDirectory) upgradeCredentials(accounts []models.AdminAccount) (int, error) {
	upgraded := 0
	for i := range accounts {
		a := &accounts[i]
		plain := ""
		switch {
		case a.Credential != nil && a.Credential.Scheme == models.SchemePlain:
			plain = a.Credential.Hash
		case a.Credential == nil && a.LegacyPassword != "":
			plain = a.LegacyPassword
		default:
			continue
		}
		cred, err := d.passwords.Hash(plain)
		if err != nil {
			return 0, err
		}
		a.Credential = cred
		a.LegacyPassword = ""
		upgraded++
	}
	return upgraded, nil
}

func (d *AdminDirectory) swap(accounts []models.AdminAccount) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.accounts = accounts
	d.loaded = true
}

// replace persists accounts as the whole document and only then makes them
// the cached directory.
func (d *AdminDirectory) replace(ctx context.Context, accounts []models.AdminAccount) error {
	if err := d.docs.SaveDocument(ctx, AdminUsersDocument, accounts); err != nil {
		return fmt.Errorf("save admin directory: %w", err)
	}
	d.swap(accounts)
	return nil
}

// Loaded reports whether Reload has completed at least once.
func (d *AdminDirectory) Loaded() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.loaded
}

// List returns deep copies of all accounts in directory order.
func (d *AdminDirectory) List() []models.AdminAccount {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]models.AdminAccount, len(d.accounts))
	for i, a := range d.accounts {
		out[i] = a.Clone()
	}
	return out
}

func (d *AdminDirectory) Find(id string) (models.AdminAccount, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, a := range d.accounts {
		if a.ID == id {
			return a.Clone(), true
		}
	}
	return models.AdminAccount{}, false
}

// FindByUsername matches case-insensitively.
func (d *AdminDirectory) FindByUsername(username string) (models.AdminAccount, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, a := range d.accounts {
		if strings.EqualFold(a.Username, username) {
			return a.Clone(), true
		}
	}
	return models.AdminAccount{}, false
}
