package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tradedesk/dashboard/internal/core/domain"
	"github.com/tradedesk/dashboard/internal/core/ports"
)

const defaultRefreshTTL = 30 * 24 * time.Hour

// RefreshTokenStore keeps refresh tokens of the local identity provider.
// Keys: refresh:<token> -> user id, refresh_user:<user id> -> set of tokens.
type RefreshTokenStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRefreshTokenStore(client *redis.Client, ttl time.Duration) *RefreshTokenStore {
	if ttl <= 0 {
		ttl = defaultRefreshTTL
	}
	return &RefreshTokenStore{client: client, ttl: ttl}
}

var _ ports.RefreshTokenStore = (*RefreshTokenStore)(nil)

func (s *RefreshTokenStore) Save(ctx context.Context, token, userID string) error {
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, tokenKey(token), userID, s.ttl)
		p.SAdd(ctx, userKey(userID), token)
		p.Expire(ctx, userKey(userID), s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save refresh token: %w", err)
	}
	return nil
}

// Consume returns the owner of token and deletes it. Refresh tokens are single use.
func (s *RefreshTokenStore) Consume(ctx context.Context, token string) (string, error) {
	userID, err := s.client.GetDel(ctx, tokenKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrSessionExpired
	}
	if err != nil {
		return "", fmt.Errorf("consume refresh token: %w", err)
	}
	s.client.SRem(ctx, userKey(userID), token)
	return userID, nil
}

func (s *RefreshTokenStore) RevokeUser(ctx context.Context, userID string) error {
	tokens, err := s.client.SMembers(ctx, userKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("revoke refresh tokens: %w", err)
	}
	keys := make([]string, 0, len(tokens)+1)
	for _, t := range tokens {
		keys = append(keys, tokenKey(t))
	}
	keys = append(keys, userKey(userID))
	return s.client.Del(ctx, keys...).Err()
}

func tokenKey(token string) string { return "refresh:" + token }
func userKey(userID string) string { return "refresh_user:" + userID }
