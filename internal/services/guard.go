package services

import (
	"strings"

	"store-admin/internal/models"
)

const (
	LoginView     = "/admin/login"
	DashboardView = "/admin/dashboard"
	LandingView   = "/"
)

// AccessDeniedNotice is shown when a role is not allowed on a view.
const AccessDeniedNotice = "Access Denied: You do not have permission to view this page."

type Outcome int

const (
	OutcomeRender Outcome = iota
	OutcomeRedirectLogin
	OutcomeAccessDenied
)

// Decision tells the caller what to do with a view request.
type Decision struct {
	Outcome  Outcome
	Redirect string
	Notice   string
}

// Guard decides whether a view may render for session. A nil allowed list
// admits any authenticated role.
func Guard(session *models.Session, allowed []models.Role) Decision {
	if session == nil {
		return Decision{Outcome: OutcomeRedirectLogin, Redirect: LoginView}
	}
	if allowed != nil && !models.RoleIn(session.Account.Role, allowed) {
		return Decision{Outcome: OutcomeAccessDenied, Redirect: DashboardView, Notice: AccessDeniedNotice}
	}
	return Decision{Outcome: OutcomeRender}
}

var (
	managementRoles = []models.Role{models.RoleSuperadmin, models.RoleManager}
	superadminOnly  = []models.Role{models.RoleSuperadmin}
)

type viewRule struct {
	prefix string
	roles  []models.Role
}

// viewRules are matched by longest prefix under /admin.
var viewRules = []viewRule{
	{"/admin/dashboard", models.AllRoles},
	{"/admin/products", models.AllRoles},
	{"/admin/bulk-upload", models.AllRoles},
	{"/admin/categories", managementRoles},
	{"/admin/tags", managementRoles},
	{"/admin/discounts", managementRoles},
	{"/admin/invoices", managementRoles},
	{"/admin/receipts", managementRoles},
	{"/admin/refresh-preview", managementRoles},
	{"/admin/bulk-delete", managementRoles},
	{"/admin/settings", superadminOnly},
	{"/admin/users", superadminOnly},
	{"/admin/audit-logs", superadminOnly},
}

// ViewRoles returns the roles allowed on an admin view path. ok is false
// for paths outside the guarded area, including the login view.
func ViewRoles(path string) (roles []models.Role, ok bool) {
	path = strings.TrimSuffix(path, "/")
	if path == LoginView || (path != "/admin" && !strings.HasPrefix(path, "/admin/")) {
		return nil, false
	}

	best := -1
	for i, rule := range viewRules {
		if path == rule.prefix || strings.HasPrefix(path, rule.prefix+"/") {
			if best == -1 || len(rule.prefix) > len(viewRules[best].prefix) {
				best = i
			}
		}
	}
	if best == -1 {
		return nil, true
	}
	return viewRules[best].roles, true
}
