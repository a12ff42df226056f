package sqlstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emphasys/identity/internal/core/domain"
	"github.com/emphasys/identity/internal/core/ports"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, Config{Path: MemoryDSN(uuid.NewString())})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, Migrate(ctx, db))
	return New(db, 2)
}

func seedRoles(t *testing.T, s *Store, names ...string) []domain.Role {
	t.Helper()
	var roles []domain.Role
	err := s.RunInTx(context.Background(), func(ctx context.Context, dir ports.Directory) error {
		for _, n := range names {
			r, err := dir.CreateRole(ctx, n)
			if err != nil {
				return err
			}
			roles = append(roles, *r)
		}
		return nil
	})
	require.NoError(t, err)
	return roles
}

func createUser(t *testing.T, s *Store, email string, roleID *int64) *domain.User {
	t.Helper()
	var created *domain.User
	err := s.RunInTx(context.Background(), func(ctx context.Context, dir ports.Directory) error {
		var err error
		created, err = dir.CreateUser(ctx, &domain.User{
			Name:           "User " + email,
			Email:          email,
			HashedPassword: "hash",
			Enabled:        true,
			RoleID:         roleID,
			CreatedOn:      time.Now().UTC(),
		})
		return err
	})
	require.NoError(t, err)
	return created
}

func TestMigrate_Idempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, Migrate(context.Background(), s.DB()))
}

func TestStore_ListRolesMarksAdminTier(t *testing.T) {
	s := newTestStore(t)
	seedRoles(t, s, "Superuser", "Admin", "Operator")

	roles, err := s.Directory().ListRoles(context.Background())
	require.NoError(t, err)
	require.Len(t, roles, 3)
	assert.Equal(t, []string{"Superuser", "Admin", "Operator"}, []string{roles[0].Name, roles[1].Name, roles[2].Name})
	assert.True(t, roles[0].AdminTier)
	assert.True(t, roles[1].AdminTier)
	assert.False(t, roles[2].AdminTier)
}

func TestStore_CreateRoleDuplicate(t *testing.T) {
	s := newTestStore(t)
	seedRoles(t, s, "Admin")

	err := s.RunInTx(context.Background(), func(ctx context.Context, dir ports.Directory) error {
		_, err := dir.CreateRole(ctx, "Admin")
		return err
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.ErrorIs(t, err, domain.ErrRoleExists)
}

func TestStore_CreateUserDuplicateEmailRollsBack(t *testing.T) {
	s := newTestStore(t)
	roles := seedRoles(t, s, "Superuser")
	first := createUser(t, s, "a@x.com", &roles[0].ID)

	err := s.RunInTx(context.Background(), func(ctx context.Context, dir ports.Directory) error {
		if _, err := dir.CreateRole(ctx, "Ghost"); err != nil {
			return err
		}
		_, err := dir.CreateUser(ctx, &domain.User{
			Name:           "Other",
			Email:          "a@x.com",
			HashedPassword: "other",
			CreatedOn:      time.Now().UTC(),
		})
		return err
	})
	require.ErrorIs(t, err, domain.ErrConflict)

	dir := s.Directory()
	got, err := dir.FindUser(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Name, got.Name)
	assert.Equal(t, "hash", got.HashedPassword)

	_, err = dir.FindRoleByName(context.Background(), "Ghost")
	assert.ErrorIs(t, err, domain.ErrRoleNotFound, "role created in the failed transaction must be rolled back")
}

func TestStore_EmailCaseSensitive(t *testing.T) {
	s := newTestStore(t)
	createUser(t, s, "a@x.com", nil)
	createUser(t, s, "A@x.com", nil)

	users, err := s.Directory().ListUsers(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestStore_SoftDeletedEmailStaysReserved(t *testing.T) {
	s := newTestStore(t)
	u := createUser(t, s, "a@x.com", nil)

	err := s.RunInTx(context.Background(), func(ctx context.Context, dir ports.Directory) error {
		return dir.SoftDeleteUser(ctx, u.ID, u.ID, time.Now().UTC())
	})
	require.NoError(t, err)

	err = s.RunInTx(context.Background(), func(ctx context.Context, dir ports.Directory) error {
		_, err := dir.CreateUser(ctx, &domain.User{Name: "n", Email: "a@x.com", HashedPassword: "h", CreatedOn: time.Now()})
		return err
	})
	assert.ErrorIs(t, err, domain.ErrEmailExists)
}

func TestStore_UpdateUserNoOpKeepsAuditStamp(t *testing.T) {
	s := newTestStore(t)
	roles := seedRoles(t, s, "Superuser", "Admin")
	u := createUser(t, s, "a@x.com", &roles[0].ID)
	other := createUser(t, s, "b@x.com", &roles[1].ID)
	ctx := context.Background()

	var changed bool
	err := s.RunInTx(ctx, func(ctx context.Context, dir ports.Directory) error {
		var err error
		_, changed, err = dir.UpdateUser(ctx, u.ID, domain.UserPatch{Name: u.Name, Email: u.Email, RoleID: u.RoleID}, other.ID, time.Now())
		return err
	})
	require.NoError(t, err)
	assert.False(t, changed)

	got, err := s.Directory().FindUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ModifiedBy)
	assert.Nil(t, got.ModifiedOn)

	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	var updated *domain.User
	err = s.RunInTx(ctx, func(ctx context.Context, dir ports.Directory) error {
		var err error
		updated, changed, err = dir.UpdateUser(ctx, u.ID, domain.UserPatch{Name: u.Name, Email: "new@x.com", RoleID: u.RoleID}, other.ID, at)
		return err
	})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "new@x.com", updated.Email)
	require.NotNil(t, updated.ModifiedBy)
	assert.Equal(t, other.ID, *updated.ModifiedBy)
	require.NotNil(t, updated.ModifiedOn)
	assert.True(t, at.Equal(*updated.ModifiedOn))

	err = s.RunInTx(ctx, func(ctx context.Context, dir ports.Directory) error {
		_, _, err := dir.UpdateUser(ctx, u.ID, domain.UserPatch{Name: u.Name, Email: "b@x.com", RoleID: u.RoleID}, other.ID, time.Now())
		return err
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestStore_UpdateUserRoleOmittedOrCleared(t *testing.T) {
	s := newTestStore(t)
	roles := seedRoles(t, s, "Superuser", "Admin")
	u := createUser(t, s, "a@x.com", &roles[1].ID)
	ctx := context.Background()

	update := func(patch domain.UserPatch) (*domain.User, bool) {
		t.Helper()
		var (
			got     *domain.User
			changed bool
		)
		err := s.RunInTx(ctx, func(ctx context.Context, dir ports.Directory) error {
			var err error
			got, changed, err = dir.UpdateUser(ctx, u.ID, patch, u.ID, time.Now())
			return err
		})
		require.NoError(t, err)
		return got, changed
	}

	got, changed := update(domain.UserPatch{Name: "Renamed", Email: u.Email})
	assert.True(t, changed)
	require.NotNil(t, got.RoleID)
	assert.Equal(t, roles[1].ID, *got.RoleID)
	assert.Equal(t, "Admin", got.RoleName())

	got, changed = update(domain.UserPatch{Name: "Renamed", Email: u.Email, ClearRole: true})
	assert.True(t, changed)
	assert.Nil(t, got.RoleID)

	_, changed = update(domain.UserPatch{Name: "Renamed", Email: u.Email})
	assert.False(t, changed)
}

func TestStore_UpdateUserUnknownRole(t *testing.T) {
	s := newTestStore(t)
	u := createUser(t, s, "a@x.com", nil)
	missing := int64(404)

	err := s.RunInTx(context.Background(), func(ctx context.Context, dir ports.Directory) error {
		_, _, err := dir.UpdateUser(ctx, u.ID, domain.UserPatch{Name: u.Name, Email: u.Email, RoleID: &missing}, u.ID, time.Now())
		return err
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_SoftDeleteTwiceReportsNotFound(t *testing.T) {
	s := newTestStore(t)
	u := createUser(t, s, "a@x.com", nil)
	keep := createUser(t, s, "b@x.com", nil)
	ctx := context.Background()

	del := func() error {
		return s.RunInTx(ctx, func(ctx context.Context, dir ports.Directory) error {
			return dir.SoftDeleteUser(ctx, u.ID, keep.ID, time.Now())
		})
	}
	require.NoError(t, del())

	users, err := s.Directory().ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, keep.ID, users[0].ID)

	assert.ErrorIs(t, del(), domain.ErrUserNotFound)

	_, err = s.Directory().FindUserByEmail(ctx, "a@x.com")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	n, err := s.Directory().CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "soft-deleted rows still count")
}

func TestStore_DeleteRole(t *testing.T) {
	s := newTestStore(t)
	roles := seedRoles(t, s, "Superuser", "Admin", "Unused")
	u := createUser(t, s, "a@x.com", &roles[1].ID)
	ctx := context.Background()

	deleteRole := func(id int64) bool {
		var ok bool
		err := s.RunInTx(ctx, func(ctx context.Context, dir ports.Directory) error {
			var err error
			ok, err = dir.DeleteRole(ctx, id)
			return err
		})
		require.NoError(t, err)
		return ok
	}

	assert.False(t, deleteRole(999), "unknown role")
	assert.False(t, deleteRole(roles[1].ID), "referenced role")
	assert.True(t, deleteRole(roles[2].ID))
	assert.False(t, deleteRole(roles[2].ID), "already removed")

	require.NoError(t, s.RunInTx(ctx, func(ctx context.Context, dir ports.Directory) error {
		return dir.SoftDeleteUser(ctx, u.ID, u.ID, time.Now())
	}))
	assert.False(t, deleteRole(roles[1].ID), "soft-deleted users still reference their role")
}

func TestStore_ListUsersJoinsRole(t *testing.T) {
	s := newTestStore(t)
	roles := seedRoles(t, s, "Superuser")
	createUser(t, s, "a@x.com", &roles[0].ID)
	createUser(t, s, "b@x.com", nil)

	users, err := s.Directory().ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	require.NotNil(t, users[0].Role)
	assert.Equal(t, "Superuser", users[0].Role.Name)
	assert.Nil(t, users[1].Role)
	assert.Equal(t, "", users[1].RoleName())
}

func TestStore_SetEnabledAndPassword(t *testing.T) {
	s := newTestStore(t)
	u := createUser(t, s, "a@x.com", nil)
	ctx := context.Background()
	at := time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)

	err := s.RunInTx(ctx, func(ctx context.Context, dir ports.Directory) error {
		got, err := dir.SetEnabled(ctx, u.ID, false, u.ID, at)
		if err != nil {
			return err
		}
		assert.False(t, got.Enabled)
		if err := dir.SetPassword(ctx, u.ID, "new-hash", at); err != nil {
			return err
		}
		return dir.TouchLogin(ctx, u.ID, at)
	})
	require.NoError(t, err)

	got, err := s.Directory().FindUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.HashedPassword)
	require.NotNil(t, got.PasswordSetOn)
	assert.True(t, at.Equal(*got.PasswordSetOn))
	require.NotNil(t, got.LastLogin)
	assert.False(t, got.ChangePassword)

	err = s.RunInTx(ctx, func(ctx context.Context, dir ports.Directory) error {
		_, err := dir.SetEnabled(ctx, 999, true, u.ID, at)
		return err
	})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestStore_ClaimBootstrapOnce(t *testing.T) {
	s := newTestStore(t)
	u := createUser(t, s, "a@x.com", nil)
	ctx := context.Background()

	claim := func() error {
		return s.RunInTx(ctx, func(ctx context.Context, dir ports.Directory) error {
			if err := dir.ClaimBootstrap(ctx, u.ID, time.Now()); err != nil {
				return err
			}
			return dir.SetCreatedBy(ctx, u.ID, u.ID)
		})
	}
	require.NoError(t, claim())

	err := claim()
	assert.ErrorIs(t, err, domain.ErrBootstrapClaimed)
	assert.True(t, errors.Is(err, domain.ErrNotAuthorized))

	got, err := s.Directory().FindUser(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CreatedBy)
	assert.Equal(t, u.ID, *got.CreatedBy)
}

func TestStore_RunInTxCanceledContext(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := s.RunInTx(ctx, func(context.Context, ports.Directory) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
