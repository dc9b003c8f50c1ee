package ports

import (
	"context"

	"github.com/tradedesk/dashboard/internal/core/domain"
)

// ActivityRepository persists the append-only activity trail.
// All listing methods return newest first.
type ActivityRepository interface {
	Insert(ctx context.Context, a *domain.Activity) error
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.Activity, error)
	ListAll(ctx context.Context, limit int) ([]domain.Activity, error)

	// ListIDsByUser returns every activity id owned by userID, newest first.
	ListIDsByUser(ctx context.Context, userID string) ([]string, error)
	// DeleteByIDs removes the given activities and reports how many were deleted.
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
}
