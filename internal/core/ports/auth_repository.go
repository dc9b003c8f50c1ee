package ports

import (
	"context"

	"github.com/tradedesk/dashboard/internal/core/domain"
)

// StoredAccount is a user record held by the local identity provider.
type StoredAccount struct {
	User         domain.User
	PasswordHash string
}

// AuthRepository defines the persistence used by the local identity provider.
type AuthRepository interface {
	FindByEmail(ctx context.Context, email string) (*StoredAccount, error)
	FindByID(ctx context.Context, id string) (*StoredAccount, error)
	Create(ctx context.Context, acc *StoredAccount) (*StoredAccount, error)
	// UpdateMetadata merges metadata into the stored user_metadata bag.
	UpdateMetadata(ctx context.Context, id string, metadata map[string]any) (*StoredAccount, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	List(ctx context.Context, page, perPage int) ([]StoredAccount, error)
}

// RefreshTokenStore keeps the opaque refresh tokens of the local identity provider.
type RefreshTokenStore interface {
	Save(ctx context.Context, token, userID string) error
	// Consume returns the owner of token and invalidates it.
	Consume(ctx context.Context, token string) (string, error)
	RevokeUser(ctx context.Context, userID string) error
}
