package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"store-admin/internal/models"
)

// ChangeOwnPassword replaces the caller's password after checking the
// current one.
func (s *AuthService) ChangeOwnPassword(ctx context.Context, key, currentPassword, newPassword string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	actor, res, err := s.actor(ctx, key)
	if err != nil || res != nil {
		return deref(res), err
	}

	accounts := s.directory.List()
	idx := accountIndex(accounts, actor.Account.ID)
	if idx == -1 {
		return failed(FailureNotFound, "User not found."), nil
	}
	if !s.passwords.Verify(accounts[idx].Credential, currentPassword) {
		return failed(FailureInvalid, "Incorrect current password."), nil
	}
	if msg := s.passwords.Check(newPassword); msg != "" {
		return failed(FailureInvalid, msg), nil
	}

	cred, err := s.passwords.Hash(newPassword)
	if err != nil {
		return Result{}, err
	}
	accounts[idx].Credential = cred
	accounts[idx].UpdatedAt = s.now().UTC()

	if err := s.directory.replace(ctx, accounts); err != nil {
		return Result{}, errPersist("change own password", err)
	}
	s.refreshSession(ctx, actor, accounts[idx])

	s.audit.Record(ctx, auditEntry(accounts[idx], models.ActionAdminOwnPasswordChanged, accounts[idx].Username, nil))
	return succeeded("Password changed successfully."), nil
}

// ChangeOwnUsernameAndEmail renames the caller. The audit entry is
// attributed to the old username.
func (s *AuthService) ChangeOwnUsernameAndEmail(ctx context.Context, key, newUsername, newEmail, currentPassword string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	actor, res, err := s.actor(ctx, key)
	if err != nil || res != nil {
		return deref(res), err
	}

	accounts := s.directory.List()
	idx := accountIndex(accounts, actor.Account.ID)
	if idx == -1 {
		return failed(FailureNotFound, "User not found."), nil
	}
	current := accounts[idx]

	if !s.passwords.Verify(current.Credential, currentPassword) {
		return failed(FailureInvalid, "Incorrect password."), nil
	}
	username := strings.TrimSpace(newUsername)
	email := strings.TrimSpace(newEmail)
	if utf8.RuneCountInString(username) < 3 {
		return failed(FailureInvalid, "New username must be at least 3 characters long."), nil
	}
	if !validEmail(email) {
		return failed(FailureInvalid, "Invalid email format."), nil
	}
	if usernameTaken(accounts, username, current.ID) {
		return failed(FailureInvalid, fmt.Sprintf("Username %q is already taken.", username)), nil
	}
	if emailTaken(accounts, email, current.ID) {
		return failed(FailureInvalid, fmt.Sprintf("Email %q is already in use by another admin.", email)), nil
	}

	updated := current
	updated.Username = username
	updated.Email = email
	updated.UpdatedAt = s.now().UTC()
	accounts[idx] = updated

	if err := s.directory.replace(ctx, accounts); err != nil {
		return Result{}, errPersist("change own profile", err)
	}
	s.refreshSession(ctx, actor, updated)

	s.audit.Record(ctx, auditEntry(current, models.ActionAdminOwnProfileUpdated, updated.Username, map[string]any{
		"oldUsername": current.Username,
		"newUsername": updated.Username,
		"oldEmail":    current.Email,
		"newEmail":    updated.Email,
	}))

	out := succeeded("Username and email updated successfully.")
	user := updated.Sanitized()
	out.User = &user
	return out, nil
}
