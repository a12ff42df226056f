package domain

import (
	"strconv"
	"time"
)

// Principal is the verified identity carried by a token.
type Principal struct {
	Subject        int64     `json:"sub"`
	UserName       string    `json:"user_name"`
	Organization   string    `json:"organization"`
	OrgID          int64     `json:"orgid"`
	Role           string    `json:"role"`
	AcceptedTC     *bool     `json:"accepted_tc"`
	Impersonated   bool      `json:"impersonated"`
	ImpersonatedBy *string   `json:"impersonated_by"`
	TokenID        string    `json:"-"`
	IssuedAt       time.Time `json:"-"`
	ExpiresAt      time.Time `json:"-"`
}

// SubjectString renders the subject the way it travels in the sub claim.
func (p *Principal) SubjectString() string {
	return strconv.FormatInt(p.Subject, 10)
}

// PrincipalFor builds the claims of a freshly authenticated user.
func PrincipalFor(u *User) Principal {
	return Principal{
		Subject:  u.ID,
		UserName: u.Email,
		Role:     u.RoleName(),
	}
}

// TokenPair is the login response payload.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token"`
}

// TokenTypeBearer is the only token type issued.
const TokenTypeBearer = "bearer"
