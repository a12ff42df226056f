package ports

import (
	"context"
	"time"

	"github.com/emphasys/identity/internal/core/domain"
)

// RoleReader lists roles ordered by creation id.
type RoleReader interface {
	ListRoles(ctx context.Context) ([]domain.Role, error)
}

// Directory is the Role/User persistence surface bound to one transaction.
type Directory interface {
	RoleReader

	CountRoles(ctx context.Context) (int, error)
	CountUsers(ctx context.Context) (int, error)

	FindRole(ctx context.Context, id int64) (*domain.Role, error)
	FindRoleByName(ctx context.Context, name string) (*domain.Role, error)
	CreateRole(ctx context.Context, name string) (*domain.Role, error)
	DeleteRole(ctx context.Context, id int64) (bool, error)

	ListUsers(ctx context.Context) ([]domain.User, error)
	FindUser(ctx context.Context, id int64) (*domain.User, error)
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
	CreateUser(ctx context.Context, user *domain.User) (*domain.User, error)
	UpdateUser(ctx context.Context, id int64, patch domain.UserPatch, actorID int64, at time.Time) (*domain.User, bool, error)
	SetCreatedBy(ctx context.Context, id, createdBy int64) error
	SoftDeleteUser(ctx context.Context, id, actorID int64, at time.Time) error
	SetEnabled(ctx context.Context, id int64, enabled bool, actorID int64, at time.Time) (*domain.User, error)
	SetPassword(ctx context.Context, id int64, hash string, at time.Time) error
	TouchLogin(ctx context.Context, id int64, at time.Time) error

	ClaimBootstrap(ctx context.Context, userID int64, at time.Time) error
}

// DirectoryStore hands out transaction-scoped Directories. An error returned by
// fn rolls the transaction back.
type DirectoryStore interface {
	Directory() Directory
	RunInTx(ctx context.Context, fn func(ctx context.Context, dir Directory) error) error
}
