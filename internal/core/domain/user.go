package domain

import "time"

// SuperuserRole is the role granted to the first account created on an empty store.
const SuperuserRole = "Superuser"

// DefaultAdminTierSize is how many of the earliest-created roles form the admin tier.
const DefaultAdminTierSize = 2

// Role is a named privilege group. AdminTier is derived from creation order and never stored.
type Role struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	AdminTier bool   `json:"admin_tier"`
}

// User models an account. Soft-deleted rows keep their email reserved.
type User struct {
	ID             int64      `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	HashedPassword string     `json:"-"`
	Enabled        bool       `json:"enabled"`
	Deleted        bool       `json:"-"`
	ChangePassword bool       `json:"change_pwd"`
	RoleID         *int64     `json:"role_id"`
	Role           *Role      `json:"role,omitempty"`
	LastLogin      *time.Time `json:"last_login,omitempty"`
	PasswordSetOn  *time.Time `json:"pwd_updated_on,omitempty"`
	CreatedBy      *int64     `json:"created_by"`
	CreatedOn      time.Time  `json:"created_on"`
	ModifiedBy     *int64     `json:"modified_by,omitempty"`
	ModifiedOn     *time.Time `json:"modified_on,omitempty"`
}

// RoleName returns the joined role name, or "" when the user has none.
func (u *User) RoleName() string {
	if u == nil || u.Role == nil {
		return ""
	}
	return u.Role.Name
}

// UserPatch carries the mutable identity fields of an update. A nil RoleID
// keeps the current role unless ClearRole is set.
type UserPatch struct {
	Name      string
	Email     string
	RoleID    *int64
	ClearRole bool
}

// Over returns p with its role resolved against the stored user u.
func (p UserPatch) Over(u *User) UserPatch {
	switch {
	case p.ClearRole:
		p.RoleID = nil
	case p.RoleID == nil:
		p.RoleID = u.RoleID
	}
	return p
}

// SameAs reports whether applying p to u would change nothing.
func (p UserPatch) SameAs(u *User) bool {
	return u.Name == p.Name && u.Email == p.Email && sameID(u.RoleID, p.RoleID)
}

func sameID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// MarkAdminTier flags the first n roles of an id-ordered slice as admin tier.
func MarkAdminTier(roles []Role, n int) []Role {
	for i := range roles {
		roles[i].AdminTier = i < n
	}
	return roles
}

// BootstrapState is the phase of the first-run state machine.
type BootstrapState int

const (
	// StateNormal means at least one user row exists; every creation needs an admin actor.
	StateNormal BootstrapState = iota
	// StateBootstrap means the users table is empty; the next creation yields the superuser.
	StateBootstrap
)

func (s BootstrapState) String() string {
	if s == StateBootstrap {
		return "bootstrap"
	}
	return "normal"
}
