package ports

import (
	"context"

	"github.com/tradedesk/dashboard/internal/core/domain"
)

// SignUpRequest is the registration form.
type SignUpRequest struct {
	Email           string
	Password        string
	ConfirmPassword string
	RedirectTo      string
}

// SessionResolution is what the session resolver learned about a request.
type SessionResolution struct {
	// User is nil when no valid session exists.
	User *domain.User
	// Refreshed holds new credentials that must be written back to the client.
	Refreshed *domain.Session
	// Cleared is set when the stored credentials are dead and should be removed.
	Cleared bool
}

// SessionResolver turns request credentials into a user.
type SessionResolver interface {
	Resolve(ctx context.Context, accessToken, refreshToken string) (SessionResolution, error)
}

type AuthService interface {
	SignIn(ctx context.Context, email, password string) (*domain.Session, error)
	SignUp(ctx context.Context, req SignUpRequest) (*domain.User, *domain.Session, error)
	SignOut(ctx context.Context, accessToken string) error
	RequestPasswordReset(ctx context.Context, email, redirectTo string) error
}

// ProfileUpdate is the whitelisted set of metadata a user may edit.
type ProfileUpdate struct {
	FullName  *string
	Phone     *string
	AvatarURL *string
}

type ProfileService interface {
	Get(ctx context.Context, accessToken string) (*domain.Profile, error)
	UpdateMetadata(ctx context.Context, accessToken string, upd ProfileUpdate) (*domain.Profile, error)
	UpdatePassword(ctx context.Context, accessToken, newPassword, confirmPassword string) error
}

// AdminService groups the user-management operations of the admin area.
type AdminService interface {
	ListUsers(ctx context.Context, requesterRole domain.Role, page, perPage int) ([]domain.User, error)
	AdjustBalance(ctx context.Context, admin *domain.User, targetID string, balance float64) (*domain.User, error)
}
