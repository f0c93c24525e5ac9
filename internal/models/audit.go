package models

import "time"

// Audit actions.
const (
	ActionAdminLogout             = "ADMIN_LOGOUT"
	ActionAdminCreated            = "ADMIN_CREATED"
	ActionAdminUpdated            = "ADMIN_UPDATED"
	ActionAdminPasswordReset      = "ADMIN_PASSWORD_RESET"
	ActionAdminDeleted            = "ADMIN_DELETED"
	ActionAdminOwnPasswordChanged = "ADMIN_OWN_PASSWORD_CHANGED"
	ActionAdminOwnProfileUpdated  = "ADMIN_OWN_PROFILE_UPDATED"
	ActionAuditLogsDeleted        = "AUDIT_LOGS_DELETED"
)

const EntityAdminUser = "AdminUser"

// AuditLogEntry is immutable once recorded.
type AuditLogEntry struct {
	ID             string         `json:"id"`
	Timestamp      time.Time      `json:"timestamp"`
	AdminUserID    string         `json:"adminUserId"`
	AdminUsername  string         `json:"adminUsername"`
	AdminRole      Role           `json:"adminRole,omitempty"`
	Action         string         `json:"action"`
	EntityType     string         `json:"entityType,omitempty"`
	EntityIDOrName string         `json:"entityIdOrName,omitempty"`
	Details        map[string]any `json:"details,omitempty"`
}
