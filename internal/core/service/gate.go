package service

import (
	"context"
	"fmt"

	"github.com/emphasys/identity/internal/core/domain"
	"github.com/emphasys/identity/internal/core/ports"
)

// Gate decides whether a principal may run administrative operations.
// The admin tier is the first tierSize roles by id, re-read on every call.
type Gate struct {
	tierSize int
}

func NewGate(tierSize int) *Gate {
	if tierSize <= 0 {
		tierSize = domain.DefaultAdminTierSize
	}
	return &Gate{tierSize: tierSize}
}

// AdminTier returns the role names currently in the admin tier.
func (g *Gate) AdminTier(ctx context.Context, roles ports.RoleReader) ([]string, error) {
	list, err := roles.ListRoles(ctx)
	if err != nil {
		return nil, fmt.Errorf("admin tier: %w", err)
	}
	n := min(g.tierSize, len(list))
	names := make([]string, 0, n)
	for _, r := range list[:n] {
		names = append(names, r.Name)
	}
	return names, nil
}

func (g *Gate) Authorize(ctx context.Context, roles ports.RoleReader, p *domain.Principal) error {
	if p == nil {
		return domain.ErrNotAuthenticated
	}
	tier, err := g.AdminTier(ctx, roles)
	if err != nil {
		return err
	}
	for _, name := range tier {
		if name == p.Role {
			return nil
		}
	}
	return fmt.Errorf("%w: role %q", domain.ErrNotAuthorized, p.Role)
}
