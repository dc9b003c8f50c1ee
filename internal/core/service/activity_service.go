package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tradedesk/dashboard/internal/api/metrics"
	"github.com/tradedesk/dashboard/internal/core/domain"
	"github.com/tradedesk/dashboard/internal/core/ports"
)

var tracer = otel.Tracer("github.com/tradedesk/dashboard/internal/core/service")

type activityService struct {
	repo  ports.ActivityRepository
	admin ports.IdentityAdmin
	log   zerolog.Logger
	now   func() time.Time
}

// NewActivityService returns an ActivityService implementation. admin is used
// to resolve owner names for the admin feed and may be nil, in which case every
// owner shows as domain.UnknownUserName.
func NewActivityService(repo ports.ActivityRepository, admin ports.IdentityAdmin, log zerolog.Logger) ports.ActivityService {
	return &activityService{
		repo:  repo,
		admin: admin,
		log:   log,
		now:   time.Now,
	}
}

// Append records a new activity for userID. It is never retried.
func (s *activityService) Append(ctx context.Context, userID string, t domain.ActivityType, message string) (*domain.Activity, error) {
	ctx, span := tracer.Start(ctx, "activity.append")
	defer span.End()
	span.SetAttributes(attribute.String("activity.type", string(t)))

	if err := validateAppend(userID, t, message); err != nil {
		metrics.ActivityAppendsTotal.WithLabelValues(string(t), "invalid").Inc()
		return nil, err
	}

	a := &domain.Activity{
		ID:        newActivityID(),
		UserID:    userID,
		Type:      t,
		Message:   message,
		Timestamp: s.now().UTC().Truncate(time.Millisecond),
	}
	if err := s.repo.Insert(ctx, a); err != nil {
		metrics.ActivityAppendsTotal.WithLabelValues(string(t), "error").Inc()
		span.RecordError(err)
		return nil, &domain.StoreError{Op: "append activity", Err: err}
	}

	metrics.ActivityAppendsTotal.WithLabelValues(string(t), "ok").Inc()
	s.log.Debug().Str("user_id", userID).Str("type", string(t)).Msg("activity appended")
	return a, nil
}

// newActivityID returns a UUIDv7. Its string form sorts in creation order,
// also within one millisecond, so _id breaks timestamp ties by insertion.
func newActivityID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func validateAppend(userID string, t domain.ActivityType, message string) error {
	if strings.TrimSpace(userID) == "" {
		return domain.NewValidationError("user_id", "User ID is required")
	}
	if t == "" {
		return domain.NewValidationError("type", "Activity type is required")
	}
	if !t.Valid() {
		return domain.NewValidationError("type", fmt.Sprintf("unknown activity type %q", t))
	}
	if strings.TrimSpace(message) == "" {
		return domain.NewValidationError("message", "Activity message is required")
	}
	return nil
}

// List returns up to limit activities of userID, newest first.
func (s *activityService) List(ctx context.Context, userID string, limit int) ([]domain.Activity, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.NewValidationError("user_id", "User ID is required")
	}
	if limit <= 0 {
		limit = domain.RecentActivityLimit
	}

	items, err := s.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, &domain.StoreError{Op: "list activities", Err: err}
	}
	if items == nil {
		items = []domain.Activity{}
	}
	return items, nil
}

func (s *activityService) Recent(ctx context.Context, userID string) ([]domain.Activity, error) {
	return s.List(ctx, userID, domain.RecentActivityLimit)
}

// ListAll returns the newest activities across all users. The role check
// happens before any store access.
func (s *activityService) ListAll(ctx context.Context, limit int, requesterRole domain.Role) ([]domain.Activity, error) {
	if requesterRole != domain.RoleAdmin {
		return nil, fmt.Errorf("list all activities: %w", domain.ErrForbidden)
	}

	ctx, span := tracer.Start(ctx, "activity.list_all")
	defer span.End()

	switch {
	case limit <= 0:
		limit = domain.DefaultAdminActivityLimit
	case limit > domain.MaxAdminActivityLimit:
		limit = domain.MaxAdminActivityLimit
	}

	items, err := s.repo.ListAll(ctx, limit)
	if err != nil {
		span.RecordError(err)
		return nil, &domain.StoreError{Op: "list all activities", Err: err}
	}
	if items == nil {
		return []domain.Activity{}, nil
	}

	names := s.resolveNames(ctx, items)
	for i := range items {
		items[i].UserName = names[items[i].UserID]
	}
	return items, nil
}

// resolveNames looks every distinct owner up once. A failed lookup only
// affects the records of that owner.
func (s *activityService) resolveNames(ctx context.Context, items []domain.Activity) map[string]string {
	names := make(map[string]string)
	for _, a := range items {
		if _, done := names[a.UserID]; done {
			continue
		}
		names[a.UserID] = s.lookupName(ctx, a.UserID)
	}
	return names
}

func (s *activityService) lookupName(ctx context.Context, userID string) string {
	if s.admin == nil {
		return domain.UnknownUserName
	}
	u, err := s.admin.GetUserByID(ctx, userID)
	if err != nil || u == nil {
		metrics.DisplayNameLookupsTotal.WithLabelValues("fallback").Inc()
		ev := s.log.Warn().Str("user_id", userID)
		if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
			ev = ev.Err(err)
		}
		ev.Msg("could not resolve activity owner")
		return domain.UnknownUserName
	}
	metrics.DisplayNameLookupsTotal.WithLabelValues("ok").Inc()
	return u.DisplayName()
}

// Prune deletes all but the keepCount most recent activities of userID.
func (s *activityService) Prune(ctx context.Context, userID string, keepCount int) (int64, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, domain.NewValidationError("user_id", "User ID is required")
	}
	if keepCount < 0 {
		return 0, domain.NewValidationError("keep_count", "must not be negative")
	}

	ids, err := s.repo.ListIDsByUser(ctx, userID)
	if err != nil {
		return 0, &domain.StoreError{Op: "prune activities", Err: err}
	}
	if len(ids) <= keepCount {
		return 0, nil
	}

	deleted, err := s.repo.DeleteByIDs(ctx, ids[keepCount:])
	if err != nil {
		return 0, &domain.StoreError{Op: "prune activities", Err: err}
	}

	metrics.ActivityPrunedTotal.Add(float64(deleted))
	s.log.Info().Str("user_id", userID).Int64("deleted", deleted).Int("kept", keepCount).Msg("activities pruned")
	return deleted, nil
}
