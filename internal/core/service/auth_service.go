package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/emphasys/identity/internal/core/domain"
	"github.com/emphasys/identity/internal/core/ports"
	"github.com/emphasys/identity/pkg/logger"
)

// AuthDeps wires an AuthService. Revoked and Activity are optional.
type AuthDeps struct {
	Store    ports.DirectoryStore
	Hasher   ports.PasswordHasher
	Tokens   ports.TokenService
	Revoked  ports.RevocationList
	Activity ports.ActivitySink
	Now      func() time.Time
	Log      zerolog.Logger
}

// AuthService implements login, token refresh and principal resolution.
type AuthService struct {
	store     ports.DirectoryStore
	hasher    ports.PasswordHasher
	tokens    ports.TokenService
	revoked   ports.RevocationList
	activity  ports.ActivitySink
	now       func() time.Time
	log       zerolog.Logger
	dummyHash string
}

var _ ports.AuthService = (*AuthService)(nil)

func NewAuthService(d AuthDeps) *AuthService {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Activity == nil {
		d.Activity = nopActivitySink{}
	}
	s := &AuthService{
		store:    d.Store,
		hasher:   d.Hasher,
		tokens:   d.Tokens,
		revoked:  d.Revoked,
		activity: d.Activity,
		now:      d.Now,
		log:      logger.Component(d.Log, "auth"),
	}
	// Unknown emails still pay for one hash comparison.
	if h, err := d.Hasher.Hash("not-a-real-password"); err == nil {
		s.dummyHash = h
	}
	return s
}

// Login checks credentials. Every failure, whatever the cause, is ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (domain.TokenPair, *domain.User, error) {
	if email == "" || password == "" {
		s.loginFailed(ctx, email, "missing_credentials")
		return domain.TokenPair{}, nil, domain.ErrInvalidCredentials
	}

	dir := s.store.Directory()
	user, err := dir.FindUserByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		s.hasher.Verify(password, s.dummyHash)
		s.loginFailed(ctx, email, "unknown_user")
		return domain.TokenPair{}, nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return domain.TokenPair{}, nil, fmt.Errorf("login: %w", err)
	}

	if !s.hasher.Verify(password, user.HashedPassword) {
		s.loginFailed(ctx, email, "bad_password")
		return domain.TokenPair{}, nil, domain.ErrInvalidCredentials
	}
	if !user.Enabled {
		s.loginFailed(ctx, email, "disabled")
		return domain.TokenPair{}, nil, domain.ErrInvalidCredentials
	}

	pair, err := s.tokens.Pair(domain.PrincipalFor(user))
	if err != nil {
		return domain.TokenPair{}, nil, fmt.Errorf("login: %w", err)
	}

	now := s.now().UTC()
	if err := dir.TouchLogin(ctx, user.ID, now); err != nil {
		s.log.Warn().Err(err).Int64("user_id", user.ID).Msg("could not stamp last login")
	} else {
		user.LastLogin = &now
	}

	emit(ctx, s.activity, s.log, domain.ActivityEvent{
		Type:       domain.ActivityLoginSuccess,
		SubjectID:  user.ID,
		Email:      user.Email,
		OccurredAt: now,
	})
	return pair, user, nil
}

func (s *AuthService) loginFailed(ctx context.Context, email, reason string) {
	emit(ctx, s.activity, s.log, domain.ActivityEvent{
		Type:       domain.ActivityLoginFailure,
		Email:      email,
		Detail:     map[string]string{"reason": reason},
		OccurredAt: s.now().UTC(),
	})
}

// Refresh trades a refresh token for a new pair. The old refresh token is revoked.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	p, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return domain.TokenPair{}, err
	}
	if err := s.checkRevoked(ctx, p); err != nil {
		return domain.TokenPair{}, err
	}
	user, err := s.resolve(ctx, p)
	if err != nil {
		return domain.TokenPair{}, err
	}

	next := domain.PrincipalFor(user)
	next.Organization = p.Organization
	next.OrgID = p.OrgID
	next.AcceptedTC = p.AcceptedTC
	next.Impersonated = p.Impersonated
	next.ImpersonatedBy = p.ImpersonatedBy

	pair, err := s.tokens.Pair(next)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("refresh: %w", err)
	}
	if err := s.revoke(ctx, p); err != nil {
		return domain.TokenPair{}, err
	}

	emit(ctx, s.activity, s.log, domain.ActivityEvent{
		Type:       domain.ActivityTokenRefreshed,
		SubjectID:  user.ID,
		Email:      user.Email,
		OccurredAt: s.now().UTC(),
	})
	return pair, nil
}

// Authenticate verifies an access token and binds it to the live user row.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*domain.Principal, error) {
	p, err := s.tokens.VerifyAccess(accessToken)
	if err != nil {
		return nil, err
	}
	if err := s.checkRevoked(ctx, p); err != nil {
		return nil, err
	}
	user, err := s.resolve(ctx, p)
	if err != nil {
		return nil, err
	}
	p.Role = user.RoleName()
	return p, nil
}

func (s *AuthService) Logout(ctx context.Context, p *domain.Principal) error {
	if p == nil {
		return domain.ErrNotAuthenticated
	}
	if err := s.revoke(ctx, p); err != nil {
		return err
	}
	emit(ctx, s.activity, s.log, domain.ActivityEvent{
		Type:       domain.ActivityLogout,
		ActorID:    actorOf(p),
		SubjectID:  p.Subject,
		Email:      p.UserName,
		OccurredAt: s.now().UTC(),
	})
	return nil
}

func (s *AuthService) Tokens(user *domain.User) (domain.TokenPair, error) {
	return s.tokens.Pair(domain.PrincipalFor(user))
}

// resolve rejects tokens whose user has since been deleted, disabled or re-keyed.
func (s *AuthService) resolve(ctx context.Context, p *domain.Principal) (*domain.User, error) {
	user, err := s.store.Directory().FindUserByEmail(ctx, p.UserName)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("%w: unknown user", domain.ErrTokenInvalid)
	}
	if err != nil {
		return nil, err
	}
	if user.ID != p.Subject {
		return nil, fmt.Errorf("%w: subject mismatch", domain.ErrTokenInvalid)
	}
	if !user.Enabled {
		return nil, fmt.Errorf("%w: user disabled", domain.ErrTokenInvalid)
	}
	return user, nil
}

func (s *AuthService) checkRevoked(ctx context.Context, p *domain.Principal) error {
	if s.revoked == nil || p.TokenID == "" {
		return nil
	}
	revoked, err := s.revoked.IsRevoked(ctx, p.TokenID)
	if err != nil {
		return fmt.Errorf("revocation check: %w", err)
	}
	if revoked {
		return fmt.Errorf("%w: token revoked", domain.ErrTokenInvalid)
	}
	return nil
}

func (s *AuthService) revoke(ctx context.Context, p *domain.Principal) error {
	if s.revoked == nil || p.TokenID == "" {
		return nil
	}
	if err := s.revoked.Revoke(ctx, p.TokenID, p.ExpiresAt); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}
