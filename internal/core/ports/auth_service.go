package ports

import (
	"context"

	"github.com/emphasys/identity/internal/core/domain"
)

// AuthService authenticates credentials and tokens.
type AuthService interface {
	Login(ctx context.Context, email, password string) (domain.TokenPair, *domain.User, error)
	Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error)
	Authenticate(ctx context.Context, accessToken string) (*domain.Principal, error)
	Logout(ctx context.Context, principal *domain.Principal) error
	Tokens(user *domain.User) (domain.TokenPair, error)
}
