package ports

import (
	"context"

	"github.com/emphasys/identity/internal/core/domain"
)

// CreateUserInput is the DTO for account creation.
type CreateUserInput struct {
	Name                 string
	Email                string
	Password             string
	PasswordConfirmation string
	RoleID               *int64
	Enabled              *bool // nil means enabled
	// ChangePassword flags the account to rotate its password at next login.
	// Ignored for the bootstrap superuser.
	ChangePassword       bool
}

// UpdateUserInput carries the editable identity fields. Omitting RoleID keeps
// the current role; ClearRole detaches it.
type UpdateUserInput struct {
	Name      string
	Email     string
	RoleID    *int64
	ClearRole bool
}

// CreateUserResult reports the new row and whether it was the bootstrap superuser.
type CreateUserResult struct {
	User         *domain.User
	Bootstrapped bool
}

// AccountService runs the role-gated account lifecycle.
type AccountService interface {
	ListUsers(ctx context.Context, actor *domain.Principal) ([]domain.User, error)
	CreateUser(ctx context.Context, actor *domain.Principal, in CreateUserInput) (CreateUserResult, error)
	UpdateUser(ctx context.Context, actor *domain.Principal, id int64, in UpdateUserInput) (*domain.User, error)
	DeleteUser(ctx context.Context, actor *domain.Principal, id int64) error
	SetUserEnabled(ctx context.Context, actor *domain.Principal, id int64, enabled bool) (*domain.User, error)
	ChangePassword(ctx context.Context, actor *domain.Principal, current, next, confirmation string) error

	ListRoles(ctx context.Context, actor *domain.Principal) ([]domain.Role, error)
	CreateRole(ctx context.Context, actor *domain.Principal, name string) (*domain.Role, error)
	DeleteRole(ctx context.Context, actor *domain.Principal, id int64) (bool, error)
}
