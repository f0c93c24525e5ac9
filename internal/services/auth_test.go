package services

import (
	"context"
	"strings"
	"sync"
	"testing"

	"store-admin/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func (e *testEnv) findByUsername(t *testing.T, username string) models.AdminAccount {
	t.Helper()
	a, ok := e.Directory.FindByUsername(username)
	require.True(t, ok, "account %s", username)
	return a
}

func (e *testEnv) auditActions(t *testing.T) []string {
	t.Helper()
	entries, err := e.Audit.List(context.Background())
	require.NoError(t, err)
	actions := make([]string, len(entries))
	for i, entry := range entries {
		actions[i] = entry.Action
	}
	return actions
}

func TestLoginDeterminism(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
		want     bool
	}{
		{"exact", "cuth-tech", "Silence@1", true},
		{"case-insensitive username", "CUTH-Tech", "Silence@1", true},
		{"wrong password", "cuth-tech", "silence@1", false},
		{"unknown user", "nobody", "Silence@1", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, ok, err := env.Auth.Login(ctx, "", tt.username, tt.password)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			if tt.want {
				require.NotNil(t, session)
				assert.Equal(t, "cuth-tech", session.Account.Username)
				assert.True(t, env.Auth.Idle().Active(session.ID))
			} else {
				assert.Nil(t, session)
			}
		})
	}

	assert.Empty(t, env.auditActions(t), "login is not audited")
}

func TestLoginInactiveAccount(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	key := env.superadmin(t)
	editor := env.findByUsername(t, "editor")

	res, err := env.Auth.UpdateAdminUser(ctx, key, editor.ID, AdminUpdate{IsActive: ptr(false)})
	require.NoError(t, err)
	require.True(t, res.Success, res.Message)

	_, ok, err := env.Auth.Login(ctx, "", "editor", "Editor@123")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoginUsesGivenKey(t *testing.T) {
	env := setupServices(t)
	session, ok, err := env.Auth.Login(context.Background(), "tab-1", "manager", "Manager@12")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "tab-1", session.ID)

	stored, err := env.Auth.Session(context.Background(), "tab-1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleManager, stored.Account.Role)
}

func TestLogout(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	key := env.login(t, "manager", "Manager@12")

	require.NoError(t, env.Auth.Logout(ctx, key))
	_, err := env.Auth.Session(ctx, key)
	assert.ErrorIs(t, err, ErrNoSession)
	assert.False(t, env.Auth.Idle().Active(key))

	entries, err := env.Audit.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.ActionAdminLogout, entries[0].Action)
	assert.Equal(t, "manager", entries[0].AdminUsername)
	assert.Equal(t, models.RoleManager, entries[0].AdminRole)

	// A second logout and a logout without any session are no-ops.
	require.NoError(t, env.Auth.Logout(ctx, key))
	require.NoError(t, env.Auth.Logout(ctx, ""))
	assert.Len(t, env.auditActions(t), 1)
}

func TestSessionOfDeletedAccountEnds(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	admin := env.superadmin(t)
	editorKey := env.login(t, "editor", "Editor@123")
	editor := env.findByUsername(t, "editor")

	res, err := env.Auth.DeleteAdminUser(ctx, admin, editor.ID)
	require.NoError(t, err)
	require.True(t, res.Success)

	_, err = env.Auth.Session(ctx, editorKey)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestAddAdminUser(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	key := env.superadmin(t)

	res, err := env.Auth.AddAdminUser(ctx, key, NewAdmin{
		Username: "clerk",
		Name:     "Shop Clerk",
		Email:    "clerk@example.com",
		Password: "clerk-pass",
		Role:     models.RoleEditor,
		IsActive: true,
	})
	require.NoError(t, err)
	require.True(t, res.Success, res.Message)
	assert.Equal(t, "Admin user created successfully.", res.Message)
	require.NotNil(t, res.User)
	assert.True(t, strings.HasPrefix(res.User.ID, "admin_"))
	assert.Nil(t, res.User.Credential)

	assert.Len(t, env.Directory.List(), 4)
	_, ok, err := env.Auth.Login(ctx, "", "clerk", "clerk-pass")
	require.NoError(t, err)
	assert.True(t, ok)

	entries, err := env.Audit.List(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	created := entries[0]
	assert.Equal(t, models.ActionAdminCreated, created.Action)
	assert.Equal(t, "cuth-tech", created.AdminUsername)
	assert.Equal(t, models.EntityAdminUser, created.EntityType)
	assert.Equal(t, "clerk", created.EntityIDOrName)
	assert.Equal(t, "editor", created.Details["role"])
	assert.Equal(t, "clerk@example.com", created.Details["email"])
}

func TestAddAdminUserUniqueness(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	key := env.superadmin(t)

	res, err := env.Auth.AddAdminUser(ctx, key, NewAdmin{
		Username: "MANAGER", Email: "new@example.com", Password: "secret1", Role: models.RoleEditor,
	})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, `Username "MANAGER" already exists.`, res.Message)

	res, err = env.Auth.AddAdminUser(ctx, key, NewAdmin{
		Username: "fresh", Email: "Manager@Example.com", Password: "secret1", Role: models.RoleEditor,
	})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, `Email "Manager@Example.com" is already in use.`, res.Message)
	assert.Equal(t, FailureInvalid, res.Failure)

	assert.Len(t, env.Directory.List(), 3)
	assert.Empty(t, env.auditActions(t))
}

func TestAdminOperationsRequireSuperadmin(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	key := env.login(t, "manager", "Manager@12")
	editor := env.findByUsername(t, "editor")

	results := map[string]func() (Result, error){
		"add": func() (Result, error) {
			return env.Auth.AddAdminUser(ctx, key, NewAdmin{Username: "x1x", Email: "x@example.com", Password: "secret1", Role: models.RoleEditor})
		},
		"update": func() (Result, error) {
			return env.Auth.UpdateAdminUser(ctx, key, editor.ID, AdminUpdate{Name: ptr("x")})
		},
		"reset": func() (Result, error) {
			return env.Auth.ResetAdminPassword(ctx, key, editor.ID, "secret1")
		},
		"delete": func() (Result, error) {
			return env.Auth.DeleteAdminUser(ctx, key, editor.ID)
		},
		"anonymous": func() (Result, error) {
			return env.Auth.DeleteAdminUser(ctx, "", editor.ID)
		},
	}
	for name, call := range results {
		t.Run(name, func(t *testing.T) {
			res, err := call()
			require.NoError(t, err)
			assert.False(t, res.Success)
			assert.Equal(t, "Unauthorized.", res.Message)
			assert.Equal(t, FailureUnauthorized, res.Failure)
		})
	}
	assert.Len(t, env.Directory.List(), 3)
}

func TestUpdateAdminUser(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	key := env.superadmin(t)
	manager := env.findByUsername(t, "manager")

	res, err := env.Auth.UpdateAdminUser(ctx, key, manager.ID, AdminUpdate{
		Name:  ptr("Head Manager"),
		Email: ptr("head@example.com"),
		Role:  ptr(models.RoleEditor),
	})
	require.NoError(t, err)
	require.True(t, res.Success, res.Message)
	assert.Equal(t, "Admin user updated successfully.", res.Message)

	updated := env.findByUsername(t, "manager")
	assert.Equal(t, "Head Manager", updated.Name)
	assert.Equal(t, "head@example.com", updated.Email)
	assert.Equal(t, models.RoleEditor, updated.Role)
	assert.True(t, updated.IsActive)
	assert.True(t, updated.UpdatedAt.After(manager.UpdatedAt) || updated.UpdatedAt.Equal(manager.UpdatedAt))

	entries, err := env.Audit.List(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, models.ActionAdminUpdated, entries[0].Action)
	updates, ok := entries[0].Details["updates"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "editor", updates["role"])
	assert.NotContains(t, updates, "isActive")
}

func TestUpdateAdminUserFailures(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	key := env.superadmin(t)
	self := env.findByUsername(t, "cuth-tech")
	manager := env.findByUsername(t, "manager")

	tests := []struct {
		name    string
		id      string
		upd     AdminUpdate
		message string
		kind    FailureKind
	}{
		{"unknown id", "admin_missing", AdminUpdate{Name: ptr("x")}, "User not found.", FailureNotFound},
		{"self deactivate", self.ID, AdminUpdate{IsActive: ptr(false)}, "Superadmin cannot deactivate their own account.", FailureUnauthorized},
		{"self demote", self.ID, AdminUpdate{Role: ptr(models.RoleManager)}, "Superadmin cannot change their own role to a non-superadmin role.", FailureUnauthorized},
		{"email collision", manager.ID, AdminUpdate{Email: ptr("EDITOR@example.com")}, `Email "EDITOR@example.com" is already in use by another admin.`, FailureInvalid},
		{"bad email", manager.ID, AdminUpdate{Email: ptr("not-an-email")}, "Invalid email format.", FailureInvalid},
		{"bad role", manager.ID, AdminUpdate{Role: ptr(models.Role(0))}, "Invalid role.", FailureInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := env.Auth.UpdateAdminUser(ctx, key, tt.id, tt.upd)
			require.NoError(t, err)
			assert.False(t, res.Success)
			assert.Equal(t, tt.message, res.Message)
			assert.Equal(t, tt.kind, res.Failure)
		})
	}

	again := env.findByUsername(t, "cuth-tech")
	assert.True(t, again.IsActive)
	assert.Equal(t, models.RoleSuperadmin, again.Role)
	assert.Empty(t, env.auditActions(t))
}

func TestUpdateOwnRecordRefreshesSession(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	key := env.superadmin(t)
	self := env.findByUsername(t, "cuth-tech")

	res, err := env.Auth.UpdateAdminUser(ctx, key, self.ID, AdminUpdate{Name: ptr("Owner"), Email: ptr("superadmin@example.com")})
	require.NoError(t, err)
	require.True(t, res.Success, res.Message)

	session, err := env.Auth.Session(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "Owner", session.Account.Name)
}

func TestResetAdminPasswordFloor(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	key := env.superadmin(t)
	editor := env.findByUsername(t, "editor")

	res, err := env.Auth.ResetAdminPassword(ctx, key, editor.ID, "abc")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "at least 6 characters")

	res, err = env.Auth.ResetAdminPassword(ctx, key, editor.ID, "abcdef")
	require.NoError(t, err)
	require.True(t, res.Success, res.Message)
	assert.Equal(t, "Admin password reset successfully.", res.Message)

	_, ok, err := env.Auth.Login(ctx, "", "editor", "abcdef")
	require.NoError(t, err)
	assert.True(t, ok)
	_, ok, err = env.Auth.Login(ctx, "", "editor", "Editor@123")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, []string{models.ActionAdminPasswordReset}, env.auditActions(t))

	res, err = env.Auth.ResetAdminPassword(ctx, key, "admin_missing", "abcdef")
	require.NoError(t, err)
	assert.Equal(t, "User not found.", res.Message)
}

func TestPasswordInputProblemsAreResults(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	key := env.superadmin(t)
	editor := env.findByUsername(t, "editor")

	for _, pw := range []string{strings.Repeat("a", 80), "ééé"} {
		res, err := env.Auth.ResetAdminPassword(ctx, key, editor.ID, pw)
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Equal(t, FailureInvalid, res.Failure)
		assert.NotEmpty(t, res.Message)

		res, err = env.Auth.AddAdminUser(ctx, key, NewAdmin{
			Username: "longpass",
			Email:    "longpass@example.com",
			Password: pw,
			Role:     models.RoleEditor,
		})
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.NotEmpty(t, res.Message)
	}

	res, err := env.Auth.AddAdminUser(ctx, key, NewAdmin{
		Username: "éé",
		Email:    "short@example.com",
		Password: "abcdef",
		Role:     models.RoleEditor,
	})
	require.NoError(t, err)
	assert.Equal(t, "Username must be at least 3 characters long.", res.Message)

	editorKey := env.login(t, "editor", "Editor@123")
	res, err = env.Auth.ChangeOwnPassword(ctx, editorKey, "Editor@123", strings.Repeat("b", 80))
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "at most 72 bytes")

	assert.Empty(t, env.auditActions(t))
}

func TestDeleteAdminUser(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	key := env.superadmin(t)
	self := env.findByUsername(t, "cuth-tech")
	editor := env.findByUsername(t, "editor")

	res, err := env.Auth.DeleteAdminUser(ctx, key, self.ID)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Cannot delete your own superadmin account.", res.Message)

	res, err = env.Auth.DeleteAdminUser(ctx, key, editor.ID)
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, "Admin user deleted successfully.", res.Message)

	_, found := env.Directory.Find(editor.ID)
	assert.False(t, found)
	assert.Len(t, env.Directory.List(), 2)

	entries, err := env.Audit.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.ActionAdminDeleted, entries[0].Action)
	assert.Equal(t, "editor", entries[0].EntityIDOrName)

	res, err = env.Auth.DeleteAdminUser(ctx, key, editor.ID)
	require.NoError(t, err)
	assert.Equal(t, "User not found.", res.Message)
}

func TestPersistFailureLeavesStateUntouched(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	key := env.superadmin(t)
	editor := env.findByUsername(t, "editor")
	before := env.Directory.List()

	env.docs.setFailSave(true)

	_, err := env.Auth.AddAdminUser(ctx, key, NewAdmin{Username: "clerk", Email: "clerk@example.com", Password: "secret1", Role: models.RoleEditor})
	assert.ErrorIs(t, err, errStoreDown)
	_, err = env.Auth.UpdateAdminUser(ctx, key, editor.ID, AdminUpdate{Name: ptr("Renamed")})
	assert.ErrorIs(t, err, errStoreDown)
	_, err = env.Auth.ResetAdminPassword(ctx, key, editor.ID, "abcdef")
	assert.ErrorIs(t, err, errStoreDown)
	_, err = env.Auth.DeleteAdminUser(ctx, key, editor.ID)
	assert.ErrorIs(t, err, errStoreDown)
	_, err = env.Auth.ChangeOwnPassword(ctx, key, "Silence@1", "another1")
	assert.ErrorIs(t, err, errStoreDown)
	_, err = env.Auth.ChangeOwnUsernameAndEmail(ctx, key, "owner", "owner@example.com", "Silence@1")
	assert.ErrorIs(t, err, errStoreDown)

	assert.Equal(t, before, env.Directory.List())
	assert.Empty(t, env.auditActions(t))

	session, err := env.Auth.Session(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "cuth-tech", session.Account.Username)

	env.docs.setFailSave(false)
	_, ok, err := env.Auth.Login(ctx, "", "cuth-tech", "Silence@1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestChangeOwnPassword(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	key := env.login(t, "editor", "Editor@123")

	res, err := env.Auth.ChangeOwnPassword(ctx, key, "wrong", "another1")
	require.NoError(t, err)
	assert.Equal(t, "Incorrect current password.", res.Message)

	res, err = env.Auth.ChangeOwnPassword(ctx, key, "Editor@123", "short")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "at least 6 characters")

	res, err = env.Auth.ChangeOwnPassword(ctx, key, "Editor@123", "another1")
	require.NoError(t, err)
	require.True(t, res.Success, res.Message)
	assert.Equal(t, "Password changed successfully.", res.Message)

	_, ok, err := env.Auth.Login(ctx, "", "editor", "another1")
	require.NoError(t, err)
	assert.True(t, ok)

	entries, err := env.Audit.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.ActionAdminOwnPasswordChanged, entries[0].Action)
	assert.Equal(t, "editor", entries[0].AdminUsername)

	res, err = env.Auth.ChangeOwnPassword(ctx, "", "another1", "another2")
	require.NoError(t, err)
	assert.Equal(t, "Not logged in.", res.Message)
	assert.Equal(t, FailureUnauthenticated, res.Failure)
}

func TestChangeOwnPasswordChecksDirectoryCredential(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	editorKey := env.login(t, "editor", "Editor@123")
	adminKey := env.superadmin(t)
	editor := env.findByUsername(t, "editor")

	res, err := env.Auth.ResetAdminPassword(ctx, adminKey, editor.ID, "resetpw1")
	require.NoError(t, err)
	require.True(t, res.Success, res.Message)

	res, err = env.Auth.ChangeOwnPassword(ctx, editorKey, "Editor@123", "another1")
	require.NoError(t, err)
	assert.Equal(t, "Incorrect current password.", res.Message)

	res, err = env.Auth.ChangeOwnPassword(ctx, editorKey, "resetpw1", "another1")
	require.NoError(t, err)
	assert.True(t, res.Success, res.Message)
}

func TestChangeOwnUsernameAndEmail(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	key := env.login(t, "manager", "Manager@12")

	tests := []struct {
		name     string
		username string
		email    string
		password string
		message  string
	}{
		{"wrong password", "boss", "boss@example.com", "nope", "Incorrect password."},
		{"short username", "  ab  ", "boss@example.com", "Manager@12", "New username must be at least 3 characters long."},
		{"bad email", "boss", "boss@", "Manager@12", "Invalid email format."},
		{"username taken", "Editor", "boss@example.com", "Manager@12", `Username "Editor" is already taken.`},
		{"email taken", "boss", "editor@EXAMPLE.com", "Manager@12", `Email "editor@EXAMPLE.com" is already in use by another admin.`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := env.Auth.ChangeOwnUsernameAndEmail(ctx, key, tt.username, tt.email, tt.password)
			require.NoError(t, err)
			assert.False(t, res.Success)
			assert.Equal(t, tt.message, res.Message)
		})
	}

	res, err := env.Auth.ChangeOwnUsernameAndEmail(ctx, key, " boss ", "boss@example.com", "Manager@12")
	require.NoError(t, err)
	require.True(t, res.Success, res.Message)
	assert.Equal(t, "Username and email updated successfully.", res.Message)

	session, err := env.Auth.Session(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "boss", session.Account.Username)
	assert.Equal(t, "boss@example.com", session.Account.Email)

	entries, err := env.Audit.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, models.ActionAdminOwnProfileUpdated, e.Action)
	assert.Equal(t, "manager", e.AdminUsername)
	assert.Equal(t, "boss", e.EntityIDOrName)
	assert.Equal(t, map[string]any{
		"oldUsername": "manager",
		"newUsername": "boss",
		"oldEmail":    "manager@example.com",
		"newEmail":    "boss@example.com",
	}, e.Details)

	// Keeping one's own username and email is not a collision.
	res, err = env.Auth.ChangeOwnUsernameAndEmail(ctx, key, "BOSS", "boss@example.com", "Manager@12")
	require.NoError(t, err)
	assert.True(t, res.Success, res.Message)
}

func TestConcurrentAddsKeepUniqueness(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	key := env.superadmin(t)

	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := env.Auth.AddAdminUser(ctx, key, NewAdmin{
				Username: "twin", Email: "twin@example.com", Password: "secret1", Role: models.RoleEditor,
			})
			assert.NoError(t, err)
			if res.Success {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Len(t, env.Directory.List(), 4)
}

func TestAuditLogOperations(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	key := env.superadmin(t)
	manager := env.login(t, "manager", "Manager@12")
	require.NoError(t, env.Auth.Logout(ctx, manager))

	page, res, err := env.Auth.AuditLogs(ctx, key, AuditFilter{}, 1, 20)
	require.NoError(t, err)
	require.Nil(t, res)
	require.Equal(t, 1, page.TotalCount)

	otherManager := env.login(t, "manager", "Manager@12")
	_, res, err = env.Auth.AuditLogs(ctx, otherManager, AuditFilter{}, 1, 20)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "Unauthorized.", res.Message)

	recent, res, err := env.Auth.RecentAuditLogs(ctx, key, 5)
	require.NoError(t, err)
	require.Nil(t, res)
	require.Len(t, recent, 1)

	del, err := env.Auth.DeleteAuditLogs(ctx, key, []string{recent[0].ID})
	require.NoError(t, err)
	require.True(t, del.Success, del.Message)

	entries, err := env.Audit.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.ActionAuditLogsDeleted, entries[0].Action)
	assert.EqualValues(t, 1, entries[0].Details["count"])

	del, err = env.Auth.DeleteAuditLogs(ctx, key, nil)
	require.NoError(t, err)
	assert.False(t, del.Success)
}
