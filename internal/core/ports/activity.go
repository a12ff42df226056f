package ports

import (
	"context"
	"time"

	"github.com/emphasys/identity/internal/core/domain"
)

// ActivitySink records audit events. Implementations must not block callers for long.
type ActivitySink interface {
	Record(ctx context.Context, event domain.ActivityEvent) error
}

// RevocationList remembers token ids that must be rejected before their expiry.
type RevocationList interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
