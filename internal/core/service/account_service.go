package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/emphasys/identity/internal/core/domain"
	"github.com/emphasys/identity/internal/core/ports"
	"github.com/emphasys/identity/pkg/logger"
)

// AccountDeps wires an AccountService.
type AccountDeps struct {
	Store    ports.DirectoryStore
	Gate     *Gate
	Boot     *Bootstrapper
	Hasher   ports.PasswordHasher
	Activity ports.ActivitySink
	Now      func() time.Time
	Log      zerolog.Logger
}

// AccountService implements the role-gated user and role lifecycle.
type AccountService struct {
	store    ports.DirectoryStore
	gate     *Gate
	boot     *Bootstrapper
	hasher   ports.PasswordHasher
	activity ports.ActivitySink
	now      func() time.Time
	log      zerolog.Logger
}

var _ ports.AccountService = (*AccountService)(nil)

func NewAccountService(d AccountDeps) *AccountService {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Activity == nil {
		d.Activity = nopActivitySink{}
	}
	if d.Gate == nil {
		d.Gate = NewGate(domain.DefaultAdminTierSize)
	}
	if d.Boot == nil {
		d.Boot = NewBootstrapper(d.Store, d.Now, d.Log)
	}
	return &AccountService{
		store:    d.Store,
		gate:     d.Gate,
		boot:     d.Boot,
		hasher:   d.Hasher,
		activity: d.Activity,
		now:      d.Now,
		log:      logger.Component(d.Log, "account"),
	}
}

func (s *AccountService) ListUsers(ctx context.Context, actor *domain.Principal) ([]domain.User, error) {
	var users []domain.User
	err := s.store.RunInTx(ctx, func(ctx context.Context, dir ports.Directory) error {
		if err := s.gate.Authorize(ctx, dir, actor); err != nil {
			return err
		}
		var err error
		users, err = dir.ListUsers(ctx)
		return err
	})
	return users, err
}

// CreateUser creates an account. On an empty store the caller needs no
// credentials and the account becomes the self-authored superuser.
func (s *AccountService) CreateUser(ctx context.Context, actor *domain.Principal, in ports.CreateUserInput) (ports.CreateUserResult, error) {
	if err := checkPassword(in.Password, in.PasswordConfirmation); err != nil {
		return ports.CreateUserResult{}, err
	}
	if err := validateIdentity(in.Name, in.Email); err != nil {
		return ports.CreateUserResult{}, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return ports.CreateUserResult{}, err
	}

	enabled := true
	if in.Enabled != nil {
		enabled = *in.Enabled
	}
	user := &domain.User{
		Name:           in.Name,
		Email:          in.Email,
		HashedPassword: hash,
		Enabled:        enabled,
		RoleID:         in.RoleID,
		CreatedOn:      s.now().UTC(),
	}

	var result ports.CreateUserResult
	err = s.store.RunInTx(ctx, func(ctx context.Context, dir ports.Directory) error {
		state, err := s.boot.State(ctx, dir)
		if err != nil {
			return err
		}
		if state == domain.StateBootstrap {
			created, err := s.boot.CreateFirstUser(ctx, dir, user)
			if err != nil {
				return err
			}
			result = ports.CreateUserResult{User: created, Bootstrapped: true}
			return nil
		}

		if err := s.gate.Authorize(ctx, dir, actor); err != nil {
			return err
		}
		if user.RoleID != nil {
			if _, err := dir.FindRole(ctx, *user.RoleID); err != nil {
				return err
			}
		}
		user.CreatedBy = actorOf(actor)
		user.ChangePassword = in.ChangePassword
		created, err := dir.CreateUser(ctx, user)
		if err != nil {
			return err
		}
		result = ports.CreateUserResult{User: created}
		return nil
	})
	if err != nil {
		return ports.CreateUserResult{}, err
	}

	typ := domain.ActivityUserCreated
	if result.Bootstrapped {
		typ = domain.ActivityBootstrap
		s.log.Info().Int64("user_id", result.User.ID).Str("email", result.User.Email).Msg("bootstrap superuser created")
	}
	s.record(ctx, typ, actor, result.User.ID, result.User.Email, map[string]string{"role": result.User.RoleName()})
	return result, nil
}

func (s *AccountService) UpdateUser(ctx context.Context, actor *domain.Principal, id int64, in ports.UpdateUserInput) (*domain.User, error) {
	if err := validateIdentity(in.Name, in.Email); err != nil {
		return nil, err
	}

	var (
		user    *domain.User
		changed bool
	)
	err := s.store.RunInTx(ctx, func(ctx context.Context, dir ports.Directory) error {
		if err := s.gate.Authorize(ctx, dir, actor); err != nil {
			return err
		}
		var err error
		patch := domain.UserPatch{Name: in.Name, Email: in.Email, RoleID: in.RoleID, ClearRole: in.ClearRole}
		user, changed, err = dir.UpdateUser(ctx, id, patch, actor.Subject, s.now().UTC())
		return err
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.record(ctx, domain.ActivityUserUpdated, actor, user.ID, user.Email, nil)
	}
	return user, nil
}

func (s *AccountService) DeleteUser(ctx context.Context, actor *domain.Principal, id int64) error {
	err := s.store.RunInTx(ctx, func(ctx context.Context, dir ports.Directory) error {
		if err := s.gate.Authorize(ctx, dir, actor); err != nil {
			return err
		}
		if actor.Subject == id {
			return domain.ErrSelfDelete
		}
		return dir.SoftDeleteUser(ctx, id, actor.Subject, s.now().UTC())
	})
	if err != nil {
		return err
	}
	s.record(ctx, domain.ActivityUserDeleted, actor, id, "", nil)
	return nil
}

func (s *AccountService) SetUserEnabled(ctx context.Context, actor *domain.Principal, id int64, enabled bool) (*domain.User, error) {
	var user *domain.User
	err := s.store.RunInTx(ctx, func(ctx context.Context, dir ports.Directory) error {
		if err := s.gate.Authorize(ctx, dir, actor); err != nil {
			return err
		}
		if actor.Subject == id && !enabled {
			return domain.ErrSelfDisable
		}
		var err error
		user, err = dir.SetEnabled(ctx, id, enabled, actor.Subject, s.now().UTC())
		return err
	})
	if err != nil {
		return nil, err
	}

	typ := domain.ActivityUserDisabled
	if enabled {
		typ = domain.ActivityUserEnabled
	}
	s.record(ctx, typ, actor, user.ID, user.Email, nil)
	return user, nil
}

// ChangePassword lets any authenticated user replace their own password.
func (s *AccountService) ChangePassword(ctx context.Context, actor *domain.Principal, current, next, confirmation string) error {
	if actor == nil {
		return domain.ErrNotAuthenticated
	}
	if err := checkPassword(next, confirmation); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return err
	}

	err = s.store.RunInTx(ctx, func(ctx context.Context, dir ports.Directory) error {
		user, err := dir.FindUser(ctx, actor.Subject)
		if err != nil {
			return err
		}
		if !s.hasher.Verify(current, user.HashedPassword) {
			return domain.ErrInvalidCredentials
		}
		return dir.SetPassword(ctx, user.ID, hash, s.now().UTC())
	})
	if err != nil {
		return err
	}
	s.record(ctx, domain.ActivityPasswordChanged, actor, actor.Subject, actor.UserName, nil)
	return nil
}

func (s *AccountService) ListRoles(ctx context.Context, actor *domain.Principal) ([]domain.Role, error) {
	var roles []domain.Role
	err := s.store.RunInTx(ctx, func(ctx context.Context, dir ports.Directory) error {
		if err := s.gate.Authorize(ctx, dir, actor); err != nil {
			return err
		}
		var err error
		roles, err = dir.ListRoles(ctx)
		return err
	})
	return roles, err
}

func (s *AccountService) CreateRole(ctx context.Context, actor *domain.Principal, name string) (*domain.Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrRoleNameEmpty
	}

	var role *domain.Role
	err := s.store.RunInTx(ctx, func(ctx context.Context, dir ports.Directory) error {
		if err := s.gate.Authorize(ctx, dir, actor); err != nil {
			return err
		}
		var err error
		role, err = dir.CreateRole(ctx, name)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, domain.ActivityRoleCreated, actor, role.ID, "", map[string]string{"role": role.Name})
	return role, nil
}

// DeleteRole reports false, not an error, for unknown or still-referenced roles.
func (s *AccountService) DeleteRole(ctx context.Context, actor *domain.Principal, id int64) (bool, error) {
	var deleted bool
	err := s.store.RunInTx(ctx, func(ctx context.Context, dir ports.Directory) error {
		if err := s.gate.Authorize(ctx, dir, actor); err != nil {
			return err
		}
		var err error
		deleted, err = dir.DeleteRole(ctx, id)
		return err
	})
	if err != nil {
		return false, err
	}
	if deleted {
		s.record(ctx, domain.ActivityRoleDeleted, actor, id, "", map[string]string{"role_id": strconv.FormatInt(id, 10)})
	}
	return deleted, nil
}

func (s *AccountService) record(ctx context.Context, typ domain.ActivityType, actor *domain.Principal, subject int64, email string, detail map[string]string) {
	emit(ctx, s.activity, s.log, domain.ActivityEvent{
		Type:       typ,
		ActorID:    actorOf(actor),
		SubjectID:  subject,
		Email:      email,
		Detail:     detail,
		OccurredAt: s.now().UTC(),
	})
}

func checkPassword(password, confirmation string) error {
	switch {
	case password != confirmation:
		return domain.ErrPasswordMismatch
	case password == "":
		return domain.ErrPasswordEmpty
	case len(password) > domain.MaxPasswordBytes:
		return domain.ErrPasswordTooLong
	}
	return nil
}

func validateIdentity(name, email string) error {
	if strings.TrimSpace(name) == "" {
		return domain.ErrNameRequired
	}
	if strings.TrimSpace(email) == "" {
		return domain.ErrEmailRequired
	}
	return nil
}
