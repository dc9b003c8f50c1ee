package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/tradedesk/dashboard/internal/core/domain"
	"github.com/tradedesk/dashboard/internal/core/ports"
)

const minPasswordLength = 6

var validate = validator.New()

// AuthService implements sign-in, sign-up and sign-out against the identity provider.
type AuthService struct {
	idp        ports.IdentityProvider
	activities ports.ActivityService
	log        zerolog.Logger
}

func NewAuthService(idp ports.IdentityProvider, activities ports.ActivityService, log zerolog.Logger) *AuthService {
	return &AuthService{idp: idp, activities: activities, log: log}
}

// SignIn authenticates the user and records exactly one login activity.
// A failed activity write does not undo the sign-in.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	email = strings.TrimSpace(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	sess, err := s.idp.SignIn(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}

	if sess.User != nil {
		msg := "User logged in: " + email
		if _, err := s.activities.Append(ctx, sess.User.ID, domain.ActivityLogin, msg); err != nil {
			s.log.Warn().Err(err).Str("user_id", sess.User.ID).Msg("failed to record login activity")
		}
	}
	return sess, nil
}

// SignUp registers a new account with the default "user" role.
func (s *AuthService) SignUp(ctx context.Context, req ports.SignUpRequest) (*domain.User, *domain.Session, error) {
	email := strings.TrimSpace(req.Email)
	if err := validateEmail(email); err != nil {
		return nil, nil, err
	}
	if err := validatePassword(req.Password); err != nil {
		return nil, nil, err
	}
	if req.ConfirmPassword != "" && req.ConfirmPassword != req.Password {
		return nil, nil, domain.NewValidationError("confirm_password", "Passwords do not match")
	}

	user, sess, err := s.idp.SignUp(ctx, ports.SignUpInput{
		Email:      email,
		Password:   req.Password,
		RedirectTo: req.RedirectTo,
		Metadata:   map[string]any{domain.MetaRole: string(domain.RoleUser)},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("sign up: %w", err)
	}
	s.log.Info().Str("user_id", user.ID).Bool("confirmed", sess != nil).Msg("user signed up")
	return user, sess, nil
}

// SignOut revokes the session at the provider. Callers clear cookies regardless.
func (s *AuthService) SignOut(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	if err := s.idp.SignOut(ctx, accessToken); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

func (s *AuthService) RequestPasswordReset(ctx context.Context, email, redirectTo string) error {
	email = strings.TrimSpace(email)
	if err := validateEmail(email); err != nil {
		return err
	}
	if err := s.idp.RequestPasswordReset(ctx, email, redirectTo); err != nil {
		return fmt.Errorf("password reset: %w", err)
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return domain.NewValidationError("email", "Email is required")
	}
	if err := validate.Var(email, "email"); err != nil {
		return domain.NewValidationError("email", "Invalid email format")
	}
	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return domain.NewValidationError("password", "Password is required")
	}
	if len(password) < minPasswordLength {
		return domain.NewValidationError("password", fmt.Sprintf("Password must be at least %d characters", minPasswordLength))
	}
	return nil
}
