package security

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/emphasys/identity/internal/core/domain"
)

// Claims is the JWT payload for both access and refresh tokens.
type Claims struct {
	UserName       string  `json:"user_name"`
	Organization   string  `json:"organization"`
	OrgID          int64   `json:"orgid"`
	Role           string  `json:"role"`
	AcceptedTC     *bool   `json:"accepted_tc"`
	Impersonated   bool    `json:"impersonated"`
	ImpersonatedBy *string `json:"impersonated_by"`
	jwt.RegisteredClaims
}

// TokenConfig configures a TokenService.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	Algorithm     string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	Audience      string
	Now           func() time.Time
}

// TokenService signs and verifies HMAC JWTs. Access and refresh tokens use different keys.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	method        jwt.SigningMethod
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
	audience      string
	now           func() time.Time
}

var ErrUnsupportedAlgorithm = errors.New("unsupported signing algorithm")

func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("token secrets must not be empty")
	}
	method, err := signingMethod(cfg.Algorithm)
	if err != nil {
		return nil, err
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 30 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 300 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &TokenService{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		method:        method,
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		issuer:        cfg.Issuer,
		audience:      cfg.Audience,
		now:           cfg.Now,
	}, nil
}

func signingMethod(alg string) (jwt.SigningMethod, error) {
	switch alg {
	case "", "HS256":
		return jwt.SigningMethodHS256, nil
	case "HS384":
		return jwt.SigningMethodHS384, nil
	case "HS512":
		return jwt.SigningMethodHS512, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, alg)
	}
}

// AccessTTL is the lifetime of tokens minted by Pair.
func (s *TokenService) AccessTTL() time.Duration { return s.accessTTL }

func (s *TokenService) IssueAccess(p domain.Principal, ttl time.Duration) (string, error) {
	return s.sign(p, ttl, s.accessSecret)
}

func (s *TokenService) IssueRefresh(p domain.Principal, ttl time.Duration) (string, error) {
	return s.sign(p, ttl, s.refreshSecret)
}

// Pair mints an access and a refresh token with the configured lifetimes.
func (s *TokenService) Pair(p domain.Principal) (domain.TokenPair, error) {
	access, err := s.IssueAccess(p, s.accessTTL)
	if err != nil {
		return domain.TokenPair{}, err
	}
	refresh, err := s.IssueRefresh(p, s.refreshTTL)
	if err != nil {
		return domain.TokenPair{}, err
	}
	return domain.TokenPair{AccessToken: access, TokenType: domain.TokenTypeBearer, RefreshToken: refresh}, nil
}

func (s *TokenService) VerifyAccess(token string) (*domain.Principal, error) {
	return s.verify(token, s.accessSecret)
}

func (s *TokenService) VerifyRefresh(token string) (*domain.Principal, error) {
	return s.verify(token, s.refreshSecret)
}

func (s *TokenService) sign(p domain.Principal, ttl time.Duration, secret []byte) (string, error) {
	now := s.now()
	claims := Claims{
		UserName:       p.UserName,
		Organization:   p.Organization,
		OrgID:          p.OrgID,
		Role:           p.Role,
		AcceptedTC:     p.AcceptedTC,
		Impersonated:   p.Impersonated,
		ImpersonatedBy: p.ImpersonatedBy,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   p.SubjectString(),
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(s.method, claims).SignedString(secret)
}

func (s *TokenService) verify(raw string, secret []byte) (*domain.Principal, error) {
	var claims Claims
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	if s.audience != "" {
		opts = append(opts, jwt.WithAudience(s.audience))
	}
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) { return secret, nil }, opts...)
	if err != nil {
		if onlyExpired(err) {
			return nil, domain.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrTokenInvalid, err)
	}

	sub, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || claims.UserName == "" {
		return nil, fmt.Errorf("%w: missing subject", domain.ErrTokenInvalid)
	}

	p := &domain.Principal{
		Subject:        sub,
		UserName:       claims.UserName,
		Organization:   claims.Organization,
		OrgID:          claims.OrgID,
		Role:           claims.Role,
		AcceptedTC:     claims.AcceptedTC,
		Impersonated:   claims.Impersonated,
		ImpersonatedBy: claims.ImpersonatedBy,
		TokenID:        claims.ID,
	}
	if claims.IssuedAt != nil {
		p.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		p.ExpiresAt = claims.ExpiresAt.Time
	}
	return p, nil
}

// onlyExpired is true when expiry is the sole reason a correctly signed token failed.
func onlyExpired(err error) bool {
	if !errors.Is(err, jwt.ErrTokenExpired) {
		return false
	}
	for _, other := range []error{
		jwt.ErrTokenSignatureInvalid,
		jwt.ErrTokenInvalidAudience,
		jwt.ErrTokenInvalidIssuer,
		jwt.ErrTokenNotValidYet,
		jwt.ErrTokenUsedBeforeIssued,
		jwt.ErrTokenRequiredClaimMissing,
	} {
		if errors.Is(err, other) {
			return false
		}
	}
	return true
}
