package local

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/tradedesk/dashboard/internal/core/domain"
	"github.com/tradedesk/dashboard/internal/core/ports"
)

type stubAuthRepo struct {
	accounts map[string]*ports.StoredAccount // by id
	seq      int
}

func newStubAuthRepo() *stubAuthRepo {
	return &stubAuthRepo{accounts: make(map[string]*ports.StoredAccount)}
}

func cloneAccount(a *ports.StoredAccount) *ports.StoredAccount {
	c := *a
	c.User.Metadata = make(map[string]any, len(a.User.Metadata))
	for k, v := range a.User.Metadata {
		c.User.Metadata[k] = v
	}
	return &c
}

func (r *stubAuthRepo) Create(_ context.Context, acc *ports.StoredAccount) (*ports.StoredAccount, error) {
	for _, a := range r.accounts {
		if a.User.Email == acc.User.Email {
			return nil, domain.ErrUserExists
		}
	}
	r.seq++
	c := cloneAccount(acc)
	c.User.ID = fmt.Sprintf("user-%d", r.seq)
	r.accounts[c.User.ID] = c
	return cloneAccount(c), nil
}

func (r *stubAuthRepo) FindByEmail(_ context.Context, email string) (*ports.StoredAccount, error) {
	for _, a := range r.accounts {
		if a.User.Email == email {
			return cloneAccount(a), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubAuthRepo) FindByID(_ context.Context, id string) (*ports.StoredAccount, error) {
	a, ok := r.accounts[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneAccount(a), nil
}

func (r *stubAuthRepo) UpdateMetadata(_ context.Context, id string, md map[string]any) (*ports.StoredAccount, error) {
	a, ok := r.accounts[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	for k, v := range md {
		a.User.Metadata[k] = v
	}
	return cloneAccount(a), nil
}

func (r *stubAuthRepo) UpdatePassword(_ context.Context, id, hash string) error {
	a, ok := r.accounts[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	a.PasswordHash = hash
	return nil
}

func (r *stubAuthRepo) List(_ context.Context, _, _ int) ([]ports.StoredAccount, error) {
	out := make([]ports.StoredAccount, 0, len(r.accounts))
	for _, a := range r.accounts {
		out = append(out, *cloneAccount(a))
	}
	return out, nil
}

type memTokens struct {
	owners map[string]string
}

func (m *memTokens) Save(_ context.Context, token, userID string) error {
	m.owners[token] = userID
	return nil
}

func (m *memTokens) Consume(_ context.Context, token string) (string, error) {
	id, ok := m.owners[token]
	if !ok {
		return "", domain.ErrSessionExpired
	}
	delete(m.owners, token)
	return id, nil
}

func (m *memTokens) RevokeUser(_ context.Context, userID string) error {
	for t, id := range m.owners {
		if id == userID {
			delete(m.owners, t)
		}
	}
	return nil
}

func newTestProvider(t *testing.T) (*Provider, *stubAuthRepo, *memTokens) {
	t.Helper()
	repo := newStubAuthRepo()
	tokens := &memTokens{owners: map[string]string{}}
	p, err := NewProvider(repo, tokens, "secret", time.Hour, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	return p, repo, tokens
}

func TestNewProvider_RequiresSecret(t *testing.T) {
	_, err := NewProvider(newStubAuthRepo(), &memTokens{}, "", time.Hour, zerolog.Nop())
	var ce *domain.ConfigurationError
	if !errors.As(err, &ce) || ce.Key != "JWT_SECRET" {
		t.Fatalf("expected JWT_SECRET configuration error, got %v", err)
	}
}

func TestProvider_SignUpHashesPassword(t *testing.T) {
	p, repo, _ := newTestProvider(t)

	u, sess, err := p.SignUp(context.Background(), ports.SignUpInput{
		Email: "Alice@Example.com", Password: "pass123",
		Metadata: map[string]any{"role": "user"},
	})
	if err != nil {
		t.Fatalf("SignUp returned error: %v", err)
	}
	if sess == nil || sess.AccessToken == "" || sess.RefreshToken == "" {
		t.Fatalf("expected a session, got %+v", sess)
	}
	stored := repo.accounts[u.ID]
	if stored.PasswordHash == "pass123" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("pass123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if u.Email != "alice@example.com" {
		t.Fatalf("email not normalized: %q", u.Email)
	}

	if _, _, err := p.SignUp(context.Background(), ports.SignUpInput{Email: "alice@example.com", Password: "x"}); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestProvider_SignInIssuesVerifiableToken(t *testing.T) {
	p, _, _ := newTestProvider(t)
	ctx := context.Background()
	if err := p.EnsureAdmin(ctx, "carol@example.com", "s3cret"); err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}

	sess, err := p.SignIn(ctx, "carol@example.com", "s3cret")
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(sess.AccessToken, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token invalid: %v", err)
	}
	if claims["role"] != string(domain.RoleAdmin) {
		t.Fatalf("expected admin role claim, got %v", claims["role"])
	}

	u, err := p.GetUser(ctx, sess.AccessToken)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if !domain.IsAdmin(u) {
		t.Fatalf("expected admin user")
	}
}

func TestProvider_SignIn_Failures(t *testing.T) {
	p, _, _ := newTestProvider(t)
	ctx := context.Background()
	_, _, _ = p.SignUp(ctx, ports.SignUpInput{Email: "dave@example.com", Password: "goodpass"})

	if _, err := p.SignIn(ctx, "dave@example.com", "badpass"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := p.SignIn(ctx, "ghost@example.com", "pass"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("unknown email must look like a bad password, got %v", err)
	}
}

func TestProvider_ExpiredTokenAndRefresh(t *testing.T) {
	p, _, tokens := newTestProvider(t)
	ctx := context.Background()
	_, sess, err := p.SignUp(ctx, ports.SignUpInput{Email: "erin@example.com", Password: "pass123"})
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	p.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := p.GetUser(ctx, sess.AccessToken); !errors.Is(err, domain.ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}

	fresh, err := p.RefreshSession(ctx, sess.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshSession: %v", err)
	}
	if _, err := p.GetUser(ctx, fresh.AccessToken); err != nil {
		t.Fatalf("refreshed token should be valid: %v", err)
	}
	if _, err := p.RefreshSession(ctx, sess.RefreshToken); !errors.Is(err, domain.ErrSessionExpired) {
		t.Fatalf("refresh tokens are single use, got %v", err)
	}

	if err := p.SignOut(ctx, fresh.AccessToken); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if len(tokens.owners) != 0 {
		t.Fatalf("sign-out must revoke refresh tokens, left %v", tokens.owners)
	}
}

func TestProvider_RejectsForeignTokens(t *testing.T) {
	p, _, _ := newTestProvider(t)
	forged, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1", "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("other-secret"))

	if _, err := p.GetUser(context.Background(), forged); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if _, err := p.GetUser(context.Background(), ""); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for empty token, got %v", err)
	}
}

func TestProvider_UpdateUser(t *testing.T) {
	p, repo, _ := newTestProvider(t)
	ctx := context.Background()
	u, sess, _ := p.SignUp(ctx, ports.SignUpInput{Email: "fay@example.com", Password: "pass123", Metadata: map[string]any{"role": "user"}})

	newPass := "newpass1"
	got, err := p.UpdateUser(ctx, sess.AccessToken, ports.UserUpdate{
		Metadata: map[string]any{"full_name": "Fay"},
		Password: &newPass,
	})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if got.DisplayName() != "Fay" || domain.ResolveRole(got) != domain.RoleUser {
		t.Fatalf("unexpected user: %+v", got)
	}
	if bcrypt.CompareHashAndPassword([]byte(repo.accounts[u.ID].PasswordHash), []byte(newPass)) != nil {
		t.Fatalf("password not updated")
	}
}

func TestProvider_AdminSurface(t *testing.T) {
	p, _, _ := newTestProvider(t)
	ctx := context.Background()
	u, _, _ := p.SignUp(ctx, ports.SignUpInput{Email: "gil@example.com", Password: "pass123"})

	got, err := p.UpdateUserMetadata(ctx, u.ID, map[string]any{"balance": 42.0})
	if err != nil {
		t.Fatalf("UpdateUserMetadata: %v", err)
	}
	if got.Metadata["balance"] != 42.0 {
		t.Fatalf("balance not stored: %+v", got.Metadata)
	}
	users, err := p.ListUsers(ctx, 1, 50)
	if err != nil || len(users) != 1 {
		t.Fatalf("ListUsers = %v, %v", users, err)
	}
	if _, err := p.GetUserByID(ctx, "nope"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
