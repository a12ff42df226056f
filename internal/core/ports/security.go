package ports

import (
	"time"

	"github.com/emphasys/identity/internal/core/domain"
)

// PasswordHasher produces and checks one-way password digests.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// TokenService issues and verifies signed access/refresh tokens.
type TokenService interface {
	IssueAccess(p domain.Principal, ttl time.Duration) (string, error)
	IssueRefresh(p domain.Principal, ttl time.Duration) (string, error)
	Pair(p domain.Principal) (domain.TokenPair, error)
	VerifyAccess(token string) (*domain.Principal, error)
	VerifyRefresh(token string) (*domain.Principal, error)
}
