package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/emphasys/identity/internal/core/domain"
	"github.com/emphasys/identity/internal/core/ports"
)

// Bootstrapper owns the empty-store to first-superuser transition.
type Bootstrapper struct {
	store ports.DirectoryStore
	now   func() time.Time
	log   zerolog.Logger
}

func NewBootstrapper(store ports.DirectoryStore, now func() time.Time, log zerolog.Logger) *Bootstrapper {
	if now == nil {
		now = time.Now
	}
	return &Bootstrapper{store: store, now: now, log: log}
}

// EnsureRoles seeds the Superuser role when the roles table is empty.
func (b *Bootstrapper) EnsureRoles(ctx context.Context) error {
	return b.store.RunInTx(ctx, func(ctx context.Context, dir ports.Directory) error {
		n, err := dir.CountRoles(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		if _, err := dir.CreateRole(ctx, domain.SuperuserRole); err != nil {
			return fmt.Errorf("seed superuser role: %w", err)
		}
		b.log.Info().Str("role", domain.SuperuserRole).Msg("seeded initial role")
		return nil
	})
}

// State counts every user row, soft-deleted ones included.
func (b *Bootstrapper) State(ctx context.Context, dir ports.Directory) (domain.BootstrapState, error) {
	n, err := dir.CountUsers(ctx)
	if err != nil {
		return domain.StateNormal, err
	}
	if n == 0 {
		return domain.StateBootstrap, nil
	}
	return domain.StateNormal, nil
}

// CreateFirstUser inserts user as the self-authored superuser inside the caller's
// transaction. Any requested role is ignored.
func (b *Bootstrapper) CreateFirstUser(ctx context.Context, dir ports.Directory, user *domain.User) (*domain.User, error) {
	role, err := b.superuserRole(ctx, dir)
	if err != nil {
		return nil, err
	}

	user.RoleID = &role.ID
	user.Enabled = true
	user.CreatedBy = nil

	created, err := dir.CreateUser(ctx, user)
	if err != nil {
		return nil, err
	}
	if err := dir.ClaimBootstrap(ctx, created.ID, b.now().UTC()); err != nil {
		return nil, err
	}
	// created_by can only reference the row once it exists.
	if err := dir.SetCreatedBy(ctx, created.ID, created.ID); err != nil {
		return nil, err
	}
	return dir.FindUser(ctx, created.ID)
}

func (b *Bootstrapper) superuserRole(ctx context.Context, dir ports.Directory) (*domain.Role, error) {
	role, err := dir.FindRoleByName(ctx, domain.SuperuserRole)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, domain.ErrRoleNotFound) {
		return nil, err
	}

	roles, err := dir.ListRoles(ctx)
	if err != nil {
		return nil, err
	}
	if len(roles) > 0 {
		b.log.Warn().Str("role", roles[0].Name).Msg("no Superuser role, bootstrapping with earliest role")
		return &roles[0], nil
	}
	return dir.CreateRole(ctx, domain.SuperuserRole)
}
