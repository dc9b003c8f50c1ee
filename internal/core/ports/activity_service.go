package ports

import (
	"context"

	"github.com/tradedesk/dashboard/internal/core/domain"
)

// ActivityService is the activity trail store.
type ActivityService interface {
	Append(ctx context.Context, userID string, t domain.ActivityType, message string) (*domain.Activity, error)
	List(ctx context.Context, userID string, limit int) ([]domain.Activity, error)
	// Recent is List capped at domain.RecentActivityLimit.
	Recent(ctx context.Context, userID string) ([]domain.Activity, error)
	// ListAll is admin-only and attaches a display name to every activity.
	ListAll(ctx context.Context, limit int, requesterRole domain.Role) ([]domain.Activity, error)
	Prune(ctx context.Context, userID string, keepCount int) (int64, error)
}
