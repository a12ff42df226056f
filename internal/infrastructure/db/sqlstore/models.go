package sqlstore

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/emphasys/identity/internal/core/domain"
)

type roleModel struct {
	bun.BaseModel `bun:"table:roles,alias:r"`

	ID   int64  `bun:"id,pk,autoincrement"`
	Name string `bun:"name,notnull"`
}

type userModel struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID             int64      `bun:"id,pk,autoincrement"`
	Name           string     `bun:"name,notnull"`
	Email          string     `bun:"email,notnull"`
	HashedPassword string     `bun:"hashed_password,notnull"`
	Enabled        bool       `bun:"enabled,notnull"`
	Deleted        bool       `bun:"deleted,notnull"`
	ChangePassword bool       `bun:"change_pwd,notnull"`
	RoleID         *int64     `bun:"role_id"`
	Role           *roleModel `bun:"rel:belongs-to,join:role_id=id"`
	LastLogin      *time.Time `bun:"last_login"`
	PasswordSetOn  *time.Time `bun:"pwd_updated_on"`
	CreatedBy      *int64     `bun:"created_by"`
	CreatedOn      time.Time  `bun:"created_on,notnull"`
	ModifiedBy     *int64     `bun:"modified_by"`
	ModifiedOn     *time.Time `bun:"modified_on"`
}

type bootstrapModel struct {
	bun.BaseModel `bun:"table:bootstrap"`

	ID        int64     `bun:"id,pk"`
	UserID    int64     `bun:"user_id,notnull"`
	ClaimedOn time.Time `bun:"claimed_on,notnull"`
}

func (m *roleModel) toDomain() domain.Role {
	return domain.Role{ID: m.ID, Name: m.Name}
}

func (m *userModel) toDomain() *domain.User {
	u := &domain.User{
		ID:             m.ID,
		Name:           m.Name,
		Email:          m.Email,
		HashedPassword: m.HashedPassword,
		Enabled:        m.Enabled,
		Deleted:        m.Deleted,
		ChangePassword: m.ChangePassword,
		RoleID:         m.RoleID,
		LastLogin:      m.LastLogin,
		PasswordSetOn:  m.PasswordSetOn,
		CreatedBy:      m.CreatedBy,
		CreatedOn:      m.CreatedOn,
		ModifiedBy:     m.ModifiedBy,
		ModifiedOn:     m.ModifiedOn,
	}
	if m.Role != nil && m.Role.ID != 0 {
		r := m.Role.toDomain()
		u.Role = &r
	}
	return u
}

func userFromDomain(u *domain.User) *userModel {
	return &userModel{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		HashedPassword: u.HashedPassword,
		Enabled:        u.Enabled,
		Deleted:        u.Deleted,
		ChangePassword: u.ChangePassword,
		RoleID:         u.RoleID,
		LastLogin:      u.LastLogin,
		PasswordSetOn:  u.PasswordSetOn,
		CreatedBy:      u.CreatedBy,
		CreatedOn:      u.CreatedOn,
		ModifiedBy:     u.ModifiedBy,
		ModifiedOn:     u.ModifiedOn,
	}
}
