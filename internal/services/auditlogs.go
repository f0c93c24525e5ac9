package services

import (
	"context"
	"fmt"

	"store-admin/internal/models"
)

// AuditLogs pages through the audit trail. Superadmin only.
func (s *AuthService) AuditLogs(ctx context.Context, key string, filter AuditFilter, page, perPage int) (*AuditPage, *Result, error) {
	if _, res, err := s.superadmin(ctx, key); err != nil || res != nil {
		return nil, res, err
	}
	result, err := s.audit.Query(ctx, filter, page, perPage)
	if err != nil {
		return nil, nil, err
	}
	return result, nil, nil
}

// RecentAuditLogs returns at most limit newest entries. Superadmin only.
func (s *AuthService) RecentAuditLogs(ctx context.Context, key string, limit int) ([]models.AuditLogEntry, *Result, error) {
	if _, res, err := s.superadmin(ctx, key); err != nil || res != nil {
		return nil, res, err
	}
	entries, err := s.audit.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil, nil
}

// DeleteAuditLogs removes entries by id and records the deletion itself.
func (s *AuthService) DeleteAuditLogs(ctx context.Context, key string, ids []string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	actor, res, err := s.superadmin(ctx, key)
	if err != nil || res != nil {
		return deref(res), err
	}
	if len(ids) == 0 {
		return failed(FailureInvalid, "No log IDs provided."), nil
	}

	removed, err := s.audit.DeleteBulk(ctx, ids)
	if err != nil {
		return Result{}, err
	}

	s.audit.Record(ctx, auditEntry(actor.Account, models.ActionAuditLogsDeleted, "", map[string]any{
		"count": removed,
		"ids":   ids,
	}))
	return succeeded(fmt.Sprintf("Deleted %d audit log entries.", removed)), nil
}
