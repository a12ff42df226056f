package sqlstore

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/emphasys/identity/internal/core/domain"
	"github.com/emphasys/identity/internal/core/ports"
)

// Store is the bun-backed Directory Store.
type Store struct {
	db        *bun.DB
	adminTier int
}

var _ ports.DirectoryStore = (*Store)(nil)

func New(db *bun.DB, adminTier int) *Store {
	if adminTier <= 0 {
		adminTier = domain.DefaultAdminTierSize
	}
	return &Store{db: db, adminTier: adminTier}
}

// DB exposes the handle for health checks.
func (s *Store) DB() *bun.DB { return s.db }

// Directory returns a handle that runs each call in its own implicit transaction.
// Never use it from inside RunInTx.
func (s *Store) Directory() ports.Directory {
	return &directory{db: s.db, adminTier: s.adminTier}
}

// RunInTx runs fn in one transaction. Any error from fn rolls it back.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, dir ports.Directory) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &directory{db: tx, adminTier: s.adminTier})
	})
}

type directory struct {
	db        bun.IDB
	adminTier int
}
