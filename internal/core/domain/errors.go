package domain

import (
	"errors"
	"fmt"
)

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// Kind classifies an error so transports can branch on it without matching messages.
type Kind string

const (
	KindInvalidCredentials Kind = "invalid_credentials"
	KindTokenInvalid       Kind = "token_invalid"
	KindTokenExpired       Kind = "token_expired"
	KindNotAuthorized      Kind = "not_authorized"
	KindConflict           Kind = "conflict"
	KindNotFound           Kind = "not_found"
	KindValidation         Kind = "validation"
	KindInternal           Kind = "internal"
)

// Kind sentinels. Specific errors below wrap exactly one of these.
var (
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrTokenInvalid       = errors.New("could not validate credentials")
	ErrTokenExpired       = errors.New("credentials have expired")
	ErrNotAuthorized      = errors.New("not authorized")
	ErrConflict           = errors.New("conflict")
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation failed")
)

var (
	ErrEmailExists      = fmt.Errorf("%w: user email already exists", ErrConflict)
	ErrRoleExists       = fmt.Errorf("%w: role name already exists", ErrConflict)
	ErrUserNotFound     = fmt.Errorf("%w: user", ErrNotFound)
	ErrRoleNotFound     = fmt.Errorf("%w: role", ErrNotFound)
	ErrPasswordMismatch = fmt.Errorf("%w: passwords do not match", ErrValidation)
	ErrPasswordEmpty    = fmt.Errorf("%w: password is required", ErrValidation)
	ErrPasswordTooLong  = fmt.Errorf("%w: password must be at most %d bytes", ErrValidation, MaxPasswordBytes)
	ErrSelfDelete       = fmt.Errorf("%w: cannot delete own account", ErrValidation)
	ErrSelfDisable      = fmt.Errorf("%w: cannot disable own account", ErrValidation)
	ErrRoleNameEmpty    = fmt.Errorf("%w: role name is required", ErrValidation)
	ErrNameRequired     = fmt.Errorf("%w: name is required", ErrValidation)
	ErrEmailRequired    = fmt.Errorf("%w: email is required", ErrValidation)
	ErrBootstrapClaimed = fmt.Errorf("%w: bootstrap already completed", ErrNotAuthorized)
	ErrNotAuthenticated = fmt.Errorf("%w: user not authenticated", ErrNotAuthorized)
)

var kinds = []struct {
	sentinel error
	kind     Kind
}{
	{ErrInvalidCredentials, KindInvalidCredentials},
	{ErrTokenExpired, KindTokenExpired},
	{ErrTokenInvalid, KindTokenInvalid},
	{ErrNotAuthorized, KindNotAuthorized},
	{ErrConflict, KindConflict},
	{ErrNotFound, KindNotFound},
	{ErrValidation, KindValidation},
}

// KindOf reports the kind of err, or KindInternal when err carries none.
func KindOf(err error) Kind {
	for _, k := range kinds {
		if errors.Is(err, k.sentinel) {
			return k.kind
		}
	}
	return KindInternal
}
