package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"store-admin/internal/config"
	"store-admin/internal/models"
	"store-admin/internal/storage"

	"github.com/google/uuid"
)

// AuditRecorder keeps the newest-first, capped admin audit trail in a
// single KV slot shared by every session.
type AuditRecorder struct {
	kv     storage.KV
	key    string
	max    int
	logger *slog.Logger
	now    func() time.Time

	mu sync.Mutex
}

func NewAuditRecorder(kv storage.KV, cfg config.AuditConfig, logger *slog.Logger) *AuditRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	limit := cfg.MaxEntries
	if limit <= 0 {
		limit = 500
	}
	key := cfg.StorageKey
	if key == "" {
		key = "audit_logs"
	}
	return &AuditRecorder{kv: kv, key: key, max: limit, logger: logger, now: time.Now}
}

// Record stamps entry with a fresh id and timestamp and prepends it. It
// never fails the caller: storage errors only reach the log.
func (r *AuditRecorder) Record(ctx context.Context, entry models.AuditLogEntry) {
	// The action being recorded already happened; finish even if the
	// request that caused it is gone.
	ctx = context.WithoutCancel(ctx)

	entry.ID = uuid.NewString()
	entry.Timestamp = r.now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.load(ctx)
	if err != nil {
		r.logger.Error("failed to write to audit log", "action", entry.Action, "error", err)
		return
	}

	updated := make([]models.AuditLogEntry, 0, min(len(entries)+1, r.max))
	updated = append(updated, entry)
	updated = append(updated, entries...)
	if len(updated) > r.max {
		updated = updated[:r.max]
	}

	if err := r.save(ctx, updated); err != nil {
		r.logger.Error("failed to write to audit log", "action", entry.Action, "error", err)
	}
}

// List returns every stored entry, newest first.
func (r *AuditRecorder) List(ctx context.Context) ([]models.AuditLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx)
}

// AuditFilter narrows Query results. Zero fields match everything.
type AuditFilter struct {
	AdminUsername string // case-insensitive substring
	Action        string
	EntityType    string
	DateFrom      time.Time // inclusive, from the start of that day
	DateTo        time.Time // inclusive, to the end of that day
}

func (f AuditFilter) matches(e models.AuditLogEntry) bool {
	if f.AdminUsername != "" && !strings.Contains(strings.ToLower(e.AdminUsername), strings.ToLower(f.AdminUsername)) {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if f.EntityType != "" && e.EntityType != f.EntityType {
		return false
	}
	if !f.DateFrom.IsZero() && e.Timestamp.Before(startOfDay(f.DateFrom)) {
		return false
	}
	if !f.DateTo.IsZero() && !e.Timestamp.Before(startOfDay(f.DateTo).AddDate(0, 0, 1)) {
		return false
	}
	return true
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

type AuditPage struct {
	Logs       []models.AuditLogEntry `json:"logs"`
	TotalCount int                    `json:"totalCount"`
	TotalPages int                    `json:"totalPages"`
	Page       int                    `json:"page"`
}

// Query filters the log and returns one page of it, newest first.
func (r *AuditRecorder) Query(ctx context.Context, filter AuditFilter, page, perPage int) (*AuditPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}

	entries, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]models.AuditLogEntry, 0, len(entries))
	for _, e := range entries {
		if filter.matches(e) {
			matched = append(matched, e)
		}
	}

	result := &AuditPage{
		Logs:       []models.AuditLogEntry{},
		TotalCount: len(matched),
		TotalPages: max(1, (len(matched)+perPage-1)/perPage),
		Page:       page,
	}
	start := (page - 1) * perPage
	if start < len(matched) {
		end := min(start+perPage, len(matched))
		result.Logs = matched[start:end]
	}
	return result, nil
}

// DeleteBulk removes the entries with the given ids and returns how many
// were removed.
func (r *AuditRecorder) DeleteBulk(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.load(ctx)
	if err != nil {
		return 0, err
	}
	kept := make([]models.AuditLogEntry, 0, len(entries))
	for _, e := range entries {
		if _, ok := drop[e.ID]; !ok {
			kept = append(kept, e)
		}
	}

	removed := len(entries) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if err := r.save(ctx, kept); err != nil {
		return 0, err
	}
	return removed, nil
}

func (r *AuditRecorder) load(ctx context.Context) ([]models.AuditLogEntry, error) {
	raw, err := r.kv.Get(ctx, r.key)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return []models.AuditLogEntry{}, nil
		}
		return nil, fmt.Errorf("read audit log: %w", err)
	}

	var entries []models.AuditLogEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode audit log: %w", err)
	}
	if entries == nil {
		entries = []models.AuditLogEntry{}
	}
	return entries, nil
}

func (r *AuditRecorder) save(ctx context.Context, entries []models.AuditLogEntry) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode audit log: %w", err)
	}
	if err := r.kv.Set(ctx, r.key, raw, 0); err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}
