package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"store-admin/internal/models"
)

// NewAdmin is the input of AddAdminUser.
type NewAdmin struct {
	Username string      `json:"username"`
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
	IsActive bool        `json:"isActive"`
}

// AdminUpdate carries the fields a superadmin may change; nil means keep.
type AdminUpdate struct {
	Name     *string      `json:"name,omitempty"`
	Email    *string      `json:"email,omitempty"`
	Role     *models.Role `json:"role,omitempty"`
	IsActive *bool        `json:"isActive,omitempty"`
}

func (u AdminUpdate) details() map[string]any {
	d := map[string]any{}
	if u.Name != nil {
		d["name"] = *u.Name
	}
	if u.Email != nil {
		d["email"] = *u.Email
	}
	if u.Role != nil {
		d["role"] = u.Role.String()
	}
	if u.IsActive != nil {
		d["isActive"] = *u.IsActive
	}
	return d
}

func usernameTaken(accounts []models.AdminAccount, username, exceptID string) bool {
	for _, a := range accounts {
		if a.ID != exceptID && strings.EqualFold(a.Username, username) {
			return true
		}
	}
	return false
}

func emailTaken(accounts []models.AdminAccount, email, exceptID string) bool {
	for _, a := range accounts {
		if a.ID != exceptID && strings.EqualFold(a.Email, email) {
			return true
		}
	}
	return false
}

// AdminUsers returns the directory without credentials. Superadmin only.
func (s *AuthService) AdminUsers(ctx context.Context, key string) ([]models.AdminAccount, *Result, error) {
	if _, res, err := s.superadmin(ctx, key); err != nil || res != nil {
		return nil, res, err
	}
	users := s.directory.List()
	for i := range users {
		users[i] = users[i].Sanitized()
	}
	return users, nil, nil
}

// AddAdminUser creates a new admin account.
func (s *AuthService) AddAdminUser(ctx context.Context, key string, in NewAdmin) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	actor, res, err := s.superadmin(ctx, key)
	if err != nil || res != nil {
		return deref(res), err
	}

	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)
	if utf8.RuneCountInString(username) < 3 {
		return failed(FailureInvalid, "Username must be at least 3 characters long."), nil
	}
	if !validEmail(email) {
		return failed(FailureInvalid, "Invalid email format."), nil
	}
	if !in.Role.Valid() {
		return failed(FailureInvalid, "Invalid role."), nil
	}
	if msg := s.passwords.Check(in.Password); msg != "" {
		return failed(FailureInvalid, msg), nil
	}

	accounts := s.directory.List()
	if usernameTaken(accounts, username, "") {
		return failed(FailureInvalid, fmt.Sprintf("Username %q already exists.", username)), nil
	}
	if emailTaken(accounts, email, "") {
		return failed(FailureInvalid, fmt.Sprintf("Email %q is already in use.", email)), nil
	}

	cred, err := s.passwords.Hash(in.Password)
	if err != nil {
		return Result{}, err
	}
	now := s.now().UTC()
	created := models.AdminAccount{
		ID:         newAccountID(),
		Username:   username,
		Name:       strings.TrimSpace(in.Name),
		Email:      email,
		Credential: cred,
		Role:       in.Role,
		IsActive:   in.IsActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.directory.replace(ctx, append(accounts, created)); err != nil {
		return Result{}, errPersist("add admin user", err)
	}

	s.audit.Record(ctx, auditEntry(actor.Account, models.ActionAdminCreated, created.Username, map[string]any{
		"name":  created.Name,
		"email": created.Email,
		"role":  created.Role.String(),
	}))

	out := succeeded("Admin user created successfully.")
	user := created.Sanitized()
	out.User = &user
	return out, nil
}

// UpdateAdminUser changes name, email, role or active flag of an account.
func (s *AuthService) UpdateAdminUser(ctx context.Context, key, userID string, upd AdminUpdate) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	actor, res, err := s.superadmin(ctx, key)
	if err != nil || res != nil {
		return deref(res), err
	}

	accounts := s.directory.List()
	idx := accountIndex(accounts, userID)
	if idx == -1 {
		return failed(FailureNotFound, "User not found."), nil
	}
	target := accounts[idx]

	self := target.ID == actor.Account.ID
	if self {
		if upd.IsActive != nil && !*upd.IsActive {
			return failed(FailureUnauthorized, "Superadmin cannot deactivate their own account."), nil
		}
		if upd.Role != nil && *upd.Role != models.RoleSuperadmin {
			return failed(FailureUnauthorized, "Superadmin cannot change their own role to a non-superadmin role."), nil
		}
	}
	if upd.Role != nil && !upd.Role.Valid() {
		return failed(FailureInvalid, "Invalid role."), nil
	}
	if upd.Email != nil {
		email := strings.TrimSpace(*upd.Email)
		if !validEmail(email) {
			return failed(FailureInvalid, "Invalid email format."), nil
		}
		if emailTaken(accounts, email, userID) {
			return failed(FailureInvalid, fmt.Sprintf("Email %q is already in use by another admin.", email)), nil
		}
		upd.Email = &email
	}

	if upd.Name != nil {
		target.Name = *upd.Name
	}
	if upd.Email != nil {
		target.Email = *upd.Email
	}
	if upd.Role != nil {
		target.Role = *upd.Role
	}
	if upd.IsActive != nil {
		target.IsActive = *upd.IsActive
	}
	target.UpdatedAt = s.now().UTC()
	accounts[idx] = target

	if err := s.directory.replace(ctx, accounts); err != nil {
		return Result{}, errPersist("update admin user", err)
	}
	if self {
		s.refreshSession(ctx, actor, target)
	}

	s.audit.Record(ctx, auditEntry(actor.Account, models.ActionAdminUpdated, target.Username, map[string]any{
		"updates": upd.details(),
	}))

	return succeeded("Admin user updated successfully."), nil
}

// ResetAdminPassword overwrites another account's password.
func (s *AuthService) ResetAdminPassword(ctx context.Context, key, userID, newPassword string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	actor, res, err := s.superadmin(ctx, key)
	if err != nil || res != nil {
		return deref(res), err
	}
	if msg := s.passwords.Check(newPassword); msg != "" {
		return failed(FailureInvalid, msg), nil
	}

	accounts := s.directory.List()
	idx := accountIndex(accounts, userID)
	if idx == -1 {
		return failed(FailureNotFound, "User not found."), nil
	}

	cred, err := s.passwords.Hash(newPassword)
	if err != nil {
		return Result{}, err
	}
	accounts[idx].Credential = cred
	accounts[idx].UpdatedAt = s.now().UTC()

	if err := s.directory.replace(ctx, accounts); err != nil {
		return Result{}, errPersist("reset admin password", err)
	}
	if accounts[idx].ID == actor.Account.ID {
		s.refreshSession(ctx, actor, accounts[idx])
	}

	s.audit.Record(ctx, auditEntry(actor.Account, models.ActionAdminPasswordReset, accounts[idx].Username, nil))
	return succeeded("Admin password reset successfully."), nil
}

// DeleteAdminUser removes an account other than the caller's own.
func (s *AuthService) DeleteAdminUser(ctx context.Context, key, userID string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	actor, res, err := s.superadmin(ctx, key)
	if err != nil || res != nil {
		return deref(res), err
	}
	if userID == actor.Account.ID {
		return failed(FailureUnauthorized, "Cannot delete your own superadmin account."), nil
	}

	accounts := s.directory.List()
	idx := accountIndex(accounts, userID)
	if idx == -1 {
		return failed(FailureNotFound, "User not found."), nil
	}
	target := accounts[idx]

	remaining := append(accounts[:idx:idx], accounts[idx+1:]...)
	if err := s.directory.replace(ctx, remaining); err != nil {
		return Result{}, errPersist("delete admin user", err)
	}

	s.audit.Record(ctx, auditEntry(actor.Account, models.ActionAdminDeleted, target.Username, nil))
	return succeeded("Admin user deleted successfully."), nil
}

func deref(res *Result) Result {
	if res == nil {
		return Result{}
	}
	return *res
}
