package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tradedesk/dashboard/internal/core/domain"
	"github.com/tradedesk/dashboard/internal/core/ports"
)

type profileService struct {
	idp        ports.IdentityProvider
	activities ports.ActivityService
	log        zerolog.Logger
}

// NewProfileService returns a ProfileService backed by the identity provider.
func NewProfileService(idp ports.IdentityProvider, activities ports.ActivityService, log zerolog.Logger) ports.ProfileService {
	return &profileService{idp: idp, activities: activities, log: log}
}

func (s *profileService) Get(ctx context.Context, accessToken string) (*domain.Profile, error) {
	u, err := s.idp.GetUser(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	p := domain.ProfileFromUser(u)
	return &p, nil
}

// UpdateMetadata writes only whitelisted keys, so the role can never be changed here.
func (s *profileService) UpdateMetadata(ctx context.Context, accessToken string, upd ports.ProfileUpdate) (*domain.Profile, error) {
	md := make(map[string]any, 3)
	if upd.FullName != nil {
		md[domain.MetaFullName] = strings.TrimSpace(*upd.FullName)
	}
	if upd.Phone != nil {
		md[domain.MetaPhone] = strings.TrimSpace(*upd.Phone)
	}
	if upd.AvatarURL != nil {
		md[domain.MetaAvatarURL] = strings.TrimSpace(*upd.AvatarURL)
	}
	if len(md) == 0 {
		return nil, domain.NewValidationError("profile", "nothing to update")
	}

	u, err := s.idp.UpdateUser(ctx, accessToken, ports.UserUpdate{Metadata: md})
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	if _, err := s.activities.Append(ctx, u.ID, domain.ActivityProfileUpdate, "Profile settings updated"); err != nil {
		s.log.Warn().Err(err).Str("user_id", u.ID).Msg("failed to record profile update activity")
	}

	p := domain.ProfileFromUser(u)
	return &p, nil
}

func (s *profileService) UpdatePassword(ctx context.Context, accessToken, newPassword, confirmPassword string) error {
	if newPassword != confirmPassword {
		return domain.NewValidationError("confirm_password", "Passwords do not match")
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	if _, err := s.idp.UpdateUser(ctx, accessToken, ports.UserUpdate{Password: &newPassword}); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}
