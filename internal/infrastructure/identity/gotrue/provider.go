package gotrue

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/tradedesk/dashboard/internal/core/domain"
	"github.com/tradedesk/dashboard/internal/core/ports"
)

// Provider is the anon-key client used on behalf of signed-in users.
type Provider struct {
	t transport
}

// NewProvider returns a Provider. anonKey is the public project key.
func NewProvider(baseURL, anonKey string, httpClient *http.Client) (*Provider, error) {
	if baseURL == "" {
		return nil, &domain.ConfigurationError{Key: "SUPABASE_URL"}
	}
	if anonKey == "" {
		return nil, &domain.ConfigurationError{Key: "SUPABASE_ANON_KEY"}
	}
	return &Provider{t: newTransport(baseURL, anonKey, httpClient)}, nil
}

var _ ports.IdentityProvider = (*Provider)(nil)

func (p *Provider) GetUser(ctx context.Context, accessToken string) (*domain.User, error) {
	if accessToken == "" {
		return nil, domain.ErrUnauthenticated
	}
	var u domain.User
	if err := p.t.do(ctx, http.MethodGet, "/user", nil, accessToken, nil, &u); err != nil {
		return nil, mapError(err, domain.ErrUnauthenticated)
	}
	return &u, nil
}

func (p *Provider) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	q := url.Values{"grant_type": {"password"}}
	body := map[string]string{"email": email, "password": password}

	var tr tokenResponse
	if err := p.t.do(ctx, http.MethodPost, "/token", q, "", body, &tr); err != nil {
		return nil, tokenError(err, domain.ErrInvalidCredentials)
	}
	return tr.session(), nil
}

func (p *Provider) RefreshSession(ctx context.Context, refreshToken string) (*domain.Session, error) {
	q := url.Values{"grant_type": {"refresh_token"}}
	body := map[string]string{"refresh_token": refreshToken}

	var tr tokenResponse
	if err := p.t.do(ctx, http.MethodPost, "/token", q, "", body, &tr); err != nil {
		return nil, tokenError(err, domain.ErrSessionExpired)
	}
	return tr.session(), nil
}

// tokenError maps the 400 invalid_grant of the token endpoint to rejected.
func tokenError(err error, rejected error) error {
	var ae *APIError
	if errors.As(err, &ae) && (ae.Status == http.StatusBadRequest || ae.Status == http.StatusUnauthorized) {
		return fmt.Errorf("%w: %s", rejected, ae.Message)
	}
	return err
}

// SignUp returns a nil session when GoTrue requires email confirmation; the
// response then is the bare user object.
func (p *Provider) SignUp(ctx context.Context, in ports.SignUpInput) (*domain.User, *domain.Session, error) {
	var q url.Values
	if in.RedirectTo != "" {
		q = url.Values{"redirect_to": {in.RedirectTo}}
	}
	body := map[string]any{
		"email":    in.Email,
		"password": in.Password,
		"data":     in.Metadata,
	}

	var resp struct {
		tokenResponse
		domain.User
	}
	if err := p.t.do(ctx, http.MethodPost, "/signup", q, "", body, &resp); err != nil {
		return nil, nil, mapError(err, domain.ErrUnauthenticated)
	}

	if resp.AccessToken != "" && resp.tokenResponse.User != nil {
		s := resp.session()
		return s.User, s, nil
	}
	u := resp.User
	return &u, nil, nil
}

func (p *Provider) SignOut(ctx context.Context, accessToken string) error {
	err := p.t.do(ctx, http.MethodPost, "/logout", nil, accessToken, nil, nil)
	var ae *APIError
	if errors.As(err, &ae) && (ae.Status == http.StatusUnauthorized || ae.Status == http.StatusNotFound) {
		return nil
	}
	return err
}

func (p *Provider) UpdateUser(ctx context.Context, accessToken string, upd ports.UserUpdate) (*domain.User, error) {
	body := map[string]any{}
	if upd.Metadata != nil {
		body["data"] = upd.Metadata
	}
	if upd.Password != nil {
		body["password"] = *upd.Password
	}

	var u domain.User
	if err := p.t.do(ctx, http.MethodPut, "/user", nil, accessToken, body, &u); err != nil {
		return nil, mapError(err, domain.ErrUnauthenticated)
	}
	return &u, nil
}

func (p *Provider) RequestPasswordReset(ctx context.Context, email, redirectTo string) error {
	var q url.Values
	if redirectTo != "" {
		q = url.Values{"redirect_to": {redirectTo}}
	}
	return p.t.do(ctx, http.MethodPost, "/recover", q, "", map[string]string{"email": email}, nil)
}
