package ports

import (
	"context"

	"github.com/tradedesk/dashboard/internal/core/domain"
)

// UserUpdate carries the fields a signed-in user may change on their own account.
// Nil fields are left untouched.
type UserUpdate struct {
	Metadata map[string]any
	Password *string
}

// SignUpInput is forwarded to the identity provider on registration.
type SignUpInput struct {
	Email      string
	Password   string
	RedirectTo string
	Metadata   map[string]any
}

// IdentityProvider is the per-user surface of the external auth service.
type IdentityProvider interface {
	// GetUser validates accessToken with the provider and returns its owner.
	GetUser(ctx context.Context, accessToken string) (*domain.User, error)
	SignIn(ctx context.Context, email, password string) (*domain.Session, error)
	// SignUp returns the created user. Session is nil when the provider
	// requires email confirmation first.
	SignUp(ctx context.Context, in SignUpInput) (*domain.User, *domain.Session, error)
	SignOut(ctx context.Context, accessToken string) error
	UpdateUser(ctx context.Context, accessToken string, upd UserUpdate) (*domain.User, error)
	RefreshSession(ctx context.Context, refreshToken string) (*domain.Session, error)
	RequestPasswordReset(ctx context.Context, email, redirectTo string) error
}

// IdentityAdmin is the elevated surface used only by admin code paths.
type IdentityAdmin interface {
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	ListUsers(ctx context.Context, page, perPage int) ([]domain.User, error)
	UpdateUserMetadata(ctx context.Context, id string, metadata map[string]any) (*domain.User, error)
}
