package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/emphasys/identity/internal/core/domain"
)

func (d *directory) CountRoles(ctx context.Context) (int, error) {
	n, err := d.db.NewSelect().Model((*roleModel)(nil)).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count roles: %w", err)
	}
	return n, nil
}

func (d *directory) ListRoles(ctx context.Context) ([]domain.Role, error) {
	var rows []roleModel
	if err := d.db.NewSelect().Model(&rows).Order("r.id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	roles := make([]domain.Role, 0, len(rows))
	for i := range rows {
		roles = append(roles, rows[i].toDomain())
	}
	return domain.MarkAdminTier(roles, d.adminTier), nil
}

func (d *directory) FindRole(ctx context.Context, id int64) (*domain.Role, error) {
	return d.findRole(ctx, "r.id = ?", id)
}

func (d *directory) FindRoleByName(ctx context.Context, name string) (*domain.Role, error) {
	return d.findRole(ctx, "r.name = ?", name)
}

func (d *directory) findRole(ctx context.Context, where string, arg any) (*domain.Role, error) {
	var row roleModel
	err := d.db.NewSelect().Model(&row).Where(where, arg).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRoleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find role: %w", err)
	}
	role := row.toDomain()
	return &role, nil
}

func (d *directory) CreateRole(ctx context.Context, name string) (*domain.Role, error) {
	exists, err := d.db.NewSelect().Model((*roleModel)(nil)).Where("name = ?", name).Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("create role: %w", err)
	}
	if exists {
		return nil, domain.ErrRoleExists
	}

	row := &roleModel{Name: name}
	if _, err := d.db.NewInsert().Model(row).Returning("id").Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrRoleExists
		}
		return nil, fmt.Errorf("create role: %w", err)
	}
	role := row.toDomain()
	return &role, nil
}

// DeleteRole removes a role nobody references. Rows marked deleted still count as references.
func (d *directory) DeleteRole(ctx context.Context, id int64) (bool, error) {
	referenced, err := d.db.NewSelect().Model((*userModel)(nil)).Where("role_id = ?", id).Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("delete role: %w", err)
	}
	if referenced {
		return false, nil
	}

	res, err := d.db.NewDelete().Model((*roleModel)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		if isForeignKeyViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("delete role: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete role: %w", err)
	}
	return n > 0, nil
}
