// Package local is a self-hosted identity provider: accounts in MongoDB,
// HS256 access tokens and single-use refresh tokens in Redis.
package local

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/tradedesk/dashboard/internal/core/domain"
	"github.com/tradedesk/dashboard/internal/core/ports"
)

const defaultTokenTTL = time.Hour

// signInRecorder is implemented by repositories that track last sign-in.
type signInRecorder interface {
	TouchSignIn(ctx context.Context, id string, at time.Time) error
}

// Provider implements both ports.IdentityProvider and ports.IdentityAdmin.
type Provider struct {
	repo     ports.AuthRepository
	tokens   ports.RefreshTokenStore
	secret   []byte
	tokenTTL time.Duration
	log      zerolog.Logger
	now      func() time.Time
}

func NewProvider(repo ports.AuthRepository, tokens ports.RefreshTokenStore, jwtSecret string, tokenTTL time.Duration, log zerolog.Logger) (*Provider, error) {
	if jwtSecret == "" {
		return nil, &domain.ConfigurationError{Key: "JWT_SECRET"}
	}
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}
	return &Provider{
		repo:     repo,
		tokens:   tokens,
		secret:   []byte(jwtSecret),
		tokenTTL: tokenTTL,
		log:      log,
		now:      time.Now,
	}, nil
}

var (
	_ ports.IdentityProvider = (*Provider)(nil)
	_ ports.IdentityAdmin    = (*Provider)(nil)
)

func (p *Provider) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	acc, err := p.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	if rec, ok := p.repo.(signInRecorder); ok {
		now := p.now().UTC()
		if err := rec.TouchSignIn(ctx, acc.User.ID, now); err != nil {
			p.log.Warn().Err(err).Str("user_id", acc.User.ID).Msg("failed to record sign-in time")
		} else {
			acc.User.LastSignInAt = &now
		}
	}
	return p.issue(ctx, &acc.User)
}

// SignUp creates the account and signs it in; there is no email confirmation step.
func (p *Provider) SignUp(ctx context.Context, in ports.SignUpInput) (*domain.User, *domain.Session, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, err
	}

	md := make(map[string]any, len(in.Metadata))
	for k, v := range in.Metadata {
		md[k] = v
	}
	created, err := p.repo.Create(ctx, &ports.StoredAccount{
		User: domain.User{
			Email:     strings.ToLower(strings.TrimSpace(in.Email)),
			Metadata:  md,
			CreatedAt: p.now().UTC(),
		},
		PasswordHash: string(hash),
	})
	if err != nil {
		return nil, nil, err
	}

	sess, err := p.issue(ctx, &created.User)
	if err != nil {
		return nil, nil, err
	}
	return &created.User, sess, nil
}

func (p *Provider) GetUser(ctx context.Context, accessToken string) (*domain.User, error) {
	id, err := p.subject(accessToken, true)
	if err != nil {
		return nil, err
	}
	acc, err := p.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &acc.User, nil
}

func (p *Provider) RefreshSession(ctx context.Context, refreshToken string) (*domain.Session, error) {
	id, err := p.tokens.Consume(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	acc, err := p.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return p.issue(ctx, &acc.User)
}

// SignOut revokes every refresh token of the token's owner. Expired access
// tokens are accepted here.
func (p *Provider) SignOut(ctx context.Context, accessToken string) error {
	id, err := p.subject(accessToken, false)
	if err != nil {
		return nil
	}
	return p.tokens.RevokeUser(ctx, id)
}

func (p *Provider) UpdateUser(ctx context.Context, accessToken string, upd ports.UserUpdate) (*domain.User, error) {
	id, err := p.subject(accessToken, true)
	if err != nil {
		return nil, err
	}

	if upd.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*upd.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		if err := p.repo.UpdatePassword(ctx, id, string(hash)); err != nil {
			return nil, err
		}
	}

	acc, err := p.repo.UpdateMetadata(ctx, id, upd.Metadata)
	if err != nil {
		return nil, err
	}
	return &acc.User, nil
}

// RequestPasswordReset has no mail transport to use; it only records the request.
func (p *Provider) RequestPasswordReset(ctx context.Context, email, _ string) error {
	if _, err := p.repo.FindByEmail(ctx, email); err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return err
	}
	p.log.Info().Str("email", email).Msg("password reset requested")
	return nil
}

func (p *Provider) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	acc, err := p.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &acc.User, nil
}

func (p *Provider) ListUsers(ctx context.Context, page, perPage int) ([]domain.User, error) {
	accs, err := p.repo.List(ctx, page, perPage)
	if err != nil {
		return nil, err
	}
	users := make([]domain.User, 0, len(accs))
	for _, a := range accs {
		users = append(users, a.User)
	}
	return users, nil
}

func (p *Provider) UpdateUserMetadata(ctx context.Context, id string, metadata map[string]any) (*domain.User, error) {
	acc, err := p.repo.UpdateMetadata(ctx, id, metadata)
	if err != nil {
		return nil, err
	}
	return &acc.User, nil
}

// EnsureAdmin creates an admin account when none exists for email. It is the
// only code path that writes the admin role.
func (p *Provider) EnsureAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	_, err := p.repo.FindByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return err
	}
	_, _, err = p.SignUp(ctx, ports.SignUpInput{
		Email:    email,
		Password: password,
		Metadata: map[string]any{domain.MetaRole: string(domain.RoleAdmin)},
	})
	if err != nil && !errors.Is(err, domain.ErrUserExists) {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	p.log.Info().Str("email", email).Msg("admin account bootstrapped")
	return nil
}

func (p *Provider) issue(ctx context.Context, u *domain.User) (*domain.Session, error) {
	exp := p.now().Add(p.tokenTTL)
	claims := jwt.MapClaims{
		"sub":   u.ID,
		"email": u.Email,
		"role":  string(domain.ResolveRole(u)),
		"iat":   p.now().Unix(),
		"exp":   exp.Unix(),
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	refresh, err := randomToken()
	if err != nil {
		return nil, err
	}
	if err := p.tokens.Save(ctx, refresh, u.ID); err != nil {
		return nil, err
	}

	return &domain.Session{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    time.Unix(exp.Unix(), 0).UTC(),
		User:         u,
	}, nil
}

// subject verifies token and returns its sub claim. With validate false the
// expiry is ignored.
func (p *Provider) subject(token string, validate bool) (string, error) {
	if token == "" {
		return "", domain.ErrUnauthenticated
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(p.now),
	}
	if !validate {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return p.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", domain.ErrSessionExpired
		}
		return "", fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", domain.ErrUnauthenticated
	}
	return sub, nil
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
