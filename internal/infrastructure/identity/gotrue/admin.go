package gotrue

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tradedesk/dashboard/internal/core/domain"
	"github.com/tradedesk/dashboard/internal/core/ports"
)

// Admin uses the service-role key. It must only be reachable from admin code paths.
type Admin struct {
	t transport
}

// NewAdmin fails with a ConfigurationError when the service-role key is missing.
func NewAdmin(baseURL, serviceRoleKey string, httpClient *http.Client) (*Admin, error) {
	if baseURL == "" {
		return nil, &domain.ConfigurationError{Key: "SUPABASE_URL"}
	}
	if serviceRoleKey == "" {
		return nil, &domain.ConfigurationError{Key: "SUPABASE_SERVICE_ROLE_KEY"}
	}
	return &Admin{t: newTransport(baseURL, serviceRoleKey, httpClient)}, nil
}

var _ ports.IdentityAdmin = (*Admin)(nil)

func (a *Admin) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	if err := a.t.do(ctx, http.MethodGet, "/admin/users/"+url.PathEscape(id), nil, "", nil, &u); err != nil {
		return nil, mapError(err, domain.ErrForbidden)
	}
	return &u, nil
}

func (a *Admin) ListUsers(ctx context.Context, page, perPage int) ([]domain.User, error) {
	q := url.Values{
		"page":     {strconv.Itoa(page)},
		"per_page": {strconv.Itoa(perPage)},
	}
	var resp struct {
		Users []domain.User `json:"users"`
	}
	if err := a.t.do(ctx, http.MethodGet, "/admin/users", q, "", nil, &resp); err != nil {
		return nil, mapError(err, domain.ErrForbidden)
	}
	if resp.Users == nil {
		resp.Users = []domain.User{}
	}
	return resp.Users, nil
}

// UpdateUserMetadata relies on GoTrue merging user_metadata keys.
func (a *Admin) UpdateUserMetadata(ctx context.Context, id string, metadata map[string]any) (*domain.User, error) {
	body := map[string]any{"user_metadata": metadata}
	var u domain.User
	if err := a.t.do(ctx, http.MethodPut, "/admin/users/"+url.PathEscape(id), nil, "", body, &u); err != nil {
		return nil, mapError(err, domain.ErrForbidden)
	}
	return &u, nil
}
