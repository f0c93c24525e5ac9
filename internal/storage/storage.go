// Package storage holds the two persistence boundaries of the admin
// service: whole-document storage for the admin directory and expiring
// key/value slots for sessions and the audit log.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"store-admin/internal/config"

	"gorm.io/gorm"
)

var (
	// ErrKeyNotFound is returned by KV.Get for missing or expired slots.
	ErrKeyNotFound = errors.New("key not found")
	// ErrBackendUnavailable wraps transport failures of remote stores.
	ErrBackendUnavailable = errors.New("storage backend unavailable")
)

// DocumentStore loads and replaces named JSON documents.
type DocumentStore interface {
	// LoadDocument decodes the named document into v. It reports false when
	// the document does not exist.
	LoadDocument(ctx context.Context, name string, v any) (bool, error)
	// SaveDocument replaces the whole named document with v.
	SaveDocument(ctx context.Context, name string, v any) error
}

// KV is a flat key/value slot store. A zero ttl means no expiry.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// OpenDocuments builds the configured DocumentStore. db may be nil unless
// the database driver is selected.
func OpenDocuments(cfg *config.Config, db *gorm.DB, logger *slog.Logger) (DocumentStore, error) {
	switch cfg.Documents.Driver {
	case "database":
		if db == nil {
			return nil, fmt.Errorf("database document store requires a database")
		}
		return NewGormDocumentStore(db), nil
	case "http":
		return NewHTTPDocumentStore(cfg.Documents.BackendURL, cfg.BackendTimeout(), logger), nil
	}
	return nil, fmt.Errorf("unsupported documents driver: %s", cfg.Documents.Driver)
}

// OpenKV builds the configured KV store.
func OpenKV(cfg *config.Config, db *gorm.DB) (KV, error) {
	switch cfg.KV.Driver {
	case "database":
		if db == nil {
			return nil, fmt.Errorf("database kv store requires a database")
		}
		return NewGormKV(db, cfg.KV.Prefix), nil
	case "redis":
		return NewRedisKV(cfg.KV.Redis, cfg.KV.Prefix)
	}
	return nil, fmt.Errorf("unsupported kv driver: %s", cfg.KV.Driver)
}
