package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/emphasys/identity/internal/core/domain"
)

func (d *directory) CountUsers(ctx context.Context) (int, error) {
	n, err := d.db.NewSelect().Model((*userModel)(nil)).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (d *directory) ListUsers(ctx context.Context) ([]domain.User, error) {
	var rows []userModel
	err := d.db.NewSelect().
		Model(&rows).
		Relation("Role").
		Where("u.deleted = ?", false).
		Order("u.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users := make([]domain.User, 0, len(rows))
	for i := range rows {
		users = append(users, *rows[i].toDomain())
	}
	return users, nil
}

func (d *directory) FindUser(ctx context.Context, id int64) (*domain.User, error) {
	return d.findUser(ctx, "u.id = ?", id)
}

func (d *directory) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return d.findUser(ctx, "u.email = ?", email)
}

func (d *directory) findUser(ctx context.Context, where string, arg any) (*domain.User, error) {
	var row userModel
	err := d.db.NewSelect().
		Model(&row).
		Relation("Role").
		Where(where, arg).
		Where("u.deleted = ?", false).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return row.toDomain(), nil
}

// emailTaken checks every row, soft-deleted ones included, except exceptID.
func (d *directory) emailTaken(ctx context.Context, email string, exceptID int64) (bool, error) {
	q := d.db.NewSelect().Model((*userModel)(nil)).Where("email = ?", email)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	return q.Exists(ctx)
}

func (d *directory) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	taken, err := d.emailTaken(ctx, user.Email, 0)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	if taken {
		return nil, domain.ErrEmailExists
	}

	if err := d.requireRole(ctx, user.RoleID); err != nil {
		return nil, err
	}

	row := userFromDomain(user)
	row.ID = 0
	if _, err := d.db.NewInsert().Model(row).Returning("id").Exec(ctx); err != nil {
		return nil, mapWriteError("create user", err)
	}
	return d.FindUser(ctx, row.ID)
}

func (d *directory) UpdateUser(ctx context.Context, id int64, patch domain.UserPatch, actorID int64, at time.Time) (*domain.User, bool, error) {
	current, err := d.FindUser(ctx, id)
	if err != nil {
		return nil, false, err
	}
	patch = patch.Over(current)
	if patch.SameAs(current) {
		return current, false, nil
	}

	if patch.Email != current.Email {
		taken, err := d.emailTaken(ctx, patch.Email, id)
		if err != nil {
			return nil, false, fmt.Errorf("update user: %w", err)
		}
		if taken {
			return nil, false, domain.ErrEmailExists
		}
	}
	if err := d.requireRole(ctx, patch.RoleID); err != nil {
		return nil, false, err
	}

	_, err = d.db.NewUpdate().
		Model((*userModel)(nil)).
		Set("name = ?", patch.Name).
		Set("email = ?", patch.Email).
		Set("role_id = ?", patch.RoleID).
		Set("modified_by = ?", actorID).
		Set("modified_on = ?", at).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return nil, false, mapWriteError("update user", err)
	}

	updated, err := d.FindUser(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return updated, true, nil
}

func (d *directory) requireRole(ctx context.Context, roleID *int64) error {
	if roleID == nil {
		return nil
	}
	exists, err := d.db.NewSelect().Model((*roleModel)(nil)).Where("id = ?", *roleID).Exists(ctx)
	if err != nil {
		return fmt.Errorf("check role: %w", err)
	}
	if !exists {
		return domain.ErrRoleNotFound
	}
	return nil
}

func (d *directory) SetCreatedBy(ctx context.Context, id, createdBy int64) error {
	res, err := d.db.NewUpdate().
		Model((*userModel)(nil)).
		Set("created_by = ?", createdBy).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return mapWriteError("set created_by", err)
	}
	return requireRow(res, domain.ErrUserNotFound)
}

func (d *directory) SoftDeleteUser(ctx context.Context, id, actorID int64, at time.Time) error {
	res, err := d.db.NewUpdate().
		Model((*userModel)(nil)).
		Set("deleted = ?", true).
		Set("modified_by = ?", actorID).
		Set("modified_on = ?", at).
		Where("id = ?", id).
		Where("deleted = ?", false).
		Exec(ctx)
	if err != nil {
		return mapWriteError("delete user", err)
	}
	return requireRow(res, domain.ErrUserNotFound)
}

func (d *directory) SetEnabled(ctx context.Context, id int64, enabled bool, actorID int64, at time.Time) (*domain.User, error) {
	res, err := d.db.NewUpdate().
		Model((*userModel)(nil)).
		Set("enabled = ?", enabled).
		Set("modified_by = ?", actorID).
		Set("modified_on = ?", at).
		Where("id = ?", id).
		Where("deleted = ?", false).
		Exec(ctx)
	if err != nil {
		return nil, mapWriteError("set enabled", err)
	}
	if err := requireRow(res, domain.ErrUserNotFound); err != nil {
		return nil, err
	}
	return d.FindUser(ctx, id)
}

func (d *directory) SetPassword(ctx context.Context, id int64, hash string, at time.Time) error {
	res, err := d.db.NewUpdate().
		Model((*userModel)(nil)).
		Set("hashed_password = ?", hash).
		Set("pwd_updated_on = ?", at).
		Set("change_pwd = ?", false).
		Where("id = ?", id).
		Where("deleted = ?", false).
		Exec(ctx)
	if err != nil {
		return mapWriteError("set password", err)
	}
	return requireRow(res, domain.ErrUserNotFound)
}

func (d *directory) TouchLogin(ctx context.Context, id int64, at time.Time) error {
	_, err := d.db.NewUpdate().
		Model((*userModel)(nil)).
		Set("last_login = ?", at).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("touch login: %w", err)
	}
	return nil
}

// ClaimBootstrap writes the single bootstrap marker row. Only one transaction can ever win.
func (d *directory) ClaimBootstrap(ctx context.Context, userID int64, at time.Time) error {
	claimed, err := d.db.NewSelect().Model((*bootstrapModel)(nil)).Where("id = ?", 1).Exists(ctx)
	if err != nil {
		return fmt.Errorf("claim bootstrap: %w", err)
	}
	if claimed {
		return domain.ErrBootstrapClaimed
	}

	row := &bootstrapModel{ID: 1, UserID: userID, ClaimedOn: at}
	if _, err := d.db.NewInsert().Model(row).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrBootstrapClaimed
		}
		return fmt.Errorf("claim bootstrap: %w", err)
	}
	return nil
}

func mapWriteError(op string, err error) error {
	switch {
	case isUniqueViolation(err):
		return domain.ErrEmailExists
	case isForeignKeyViolation(err):
		return domain.ErrRoleNotFound
	case isConstraint(err):
		return fmt.Errorf("%s: %w: %v", op, domain.ErrConflict, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func requireRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
