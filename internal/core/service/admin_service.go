package service

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tradedesk/dashboard/internal/core/domain"
	"github.com/tradedesk/dashboard/internal/core/ports"
)

type adminService struct {
	admin      ports.IdentityAdmin
	activities ports.ActivityService
	log        zerolog.Logger
}

// NewAdminService returns the user-management service of the admin area.
func NewAdminService(admin ports.IdentityAdmin, activities ports.ActivityService, log zerolog.Logger) ports.AdminService {
	return &adminService{admin: admin, activities: activities, log: log}
}

func (s *adminService) ListUsers(ctx context.Context, requesterRole domain.Role, page, perPage int) ([]domain.User, error) {
	if requesterRole != domain.RoleAdmin {
		return nil, fmt.Errorf("list users: %w", domain.ErrForbidden)
	}
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 || perPage > 200 {
		perPage = 50
	}
	users, err := s.admin.ListUsers(ctx, page, perPage)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// AdjustBalance stores balance in the target user's metadata and records the
// adjustment in the admin's own trail.
func (s *adminService) AdjustBalance(ctx context.Context, admin *domain.User, targetID string, balance float64) (*domain.User, error) {
	if !domain.IsAdmin(admin) {
		return nil, fmt.Errorf("adjust balance: %w", domain.ErrForbidden)
	}
	if strings.TrimSpace(targetID) == "" {
		return nil, domain.NewValidationError("user_id", "User ID is required")
	}
	if math.IsNaN(balance) || math.IsInf(balance, 0) || balance < 0 {
		return nil, domain.NewValidationError("balance", "must be a non-negative amount")
	}

	target, err := s.admin.UpdateUserMetadata(ctx, targetID, map[string]any{domain.MetaBalance: balance})
	if err != nil {
		return nil, fmt.Errorf("adjust balance: %w", err)
	}

	msg := fmt.Sprintf("Adjusted %s's balance to $%s", target.DisplayName(), formatAmount(balance))
	if _, err := s.activities.Append(ctx, admin.ID, domain.ActivityAdminBalanceAdjustment, msg); err != nil {
		s.log.Warn().Err(err).Str("admin_id", admin.ID).Msg("failed to record balance adjustment")
	}
	return target, nil
}

// formatAmount renders v with thousands separators and at most two decimals.
func formatAmount(v float64) string {
	intPart, frac, _ := strings.Cut(strconv.FormatFloat(v, 'f', 2, 64), ".")
	frac = strings.TrimRight(frac, "0")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if frac != "" {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}
