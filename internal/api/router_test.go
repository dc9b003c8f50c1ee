package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradedesk/dashboard/internal/api/middleware"
	"github.com/tradedesk/dashboard/internal/core/domain"
	"github.com/tradedesk/dashboard/internal/core/ports"
	"github.com/tradedesk/dashboard/internal/core/service"
)

// memIdentity is an in-memory identity provider. Access tokens are "tok-<email>".
type memIdentity struct {
	mu        sync.Mutex
	passwords map[string]string
	users     map[string]*domain.User
}

func newMemIdentity() *memIdentity {
	return &memIdentity{passwords: map[string]string{}, users: map[string]*domain.User{}}
}

func (m *memIdentity) add(email, password, role, fullName string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	md := map[string]any{"role": role}
	if fullName != "" {
		md["full_name"] = fullName
	}
	m.passwords[email] = password
	m.users[email] = &domain.User{ID: "id-" + email, Email: email, Metadata: md}
}

func (m *memIdentity) byID(id string) *domain.User {
	for _, u := range m.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (m *memIdentity) GetUser(_ context.Context, token string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[strings.TrimPrefix(token, "tok-")]; ok && strings.HasPrefix(token, "tok-") {
		return u, nil
	}
	return nil, domain.ErrUnauthenticated
}

func (m *memIdentity) SignIn(_ context.Context, email, password string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if pw, ok := m.passwords[email]; !ok || pw != password {
		return nil, domain.ErrInvalidCredentials
	}
	return &domain.Session{
		AccessToken:  "tok-" + email,
		RefreshToken: "ref-" + email,
		ExpiresAt:    time.Now().Add(time.Hour),
		User:         m.users[email],
	}, nil
}

func (m *memIdentity) SignUp(context.Context, ports.SignUpInput) (*domain.User, *domain.Session, error) {
	return nil, nil, errors.New("not supported")
}

func (m *memIdentity) SignOut(context.Context, string) error { return nil }

func (m *memIdentity) UpdateUser(context.Context, string, ports.UserUpdate) (*domain.User, error) {
	return nil, errors.New("not supported")
}

func (m *memIdentity) RefreshSession(context.Context, string) (*domain.Session, error) {
	return nil, domain.ErrSessionExpired
}

func (m *memIdentity) RequestPasswordReset(context.Context, string, string) error { return nil }

func (m *memIdentity) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u := m.byID(id); u != nil {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *memIdentity) ListUsers(context.Context, int, int) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

func (m *memIdentity) UpdateUserMetadata(_ context.Context, id string, md map[string]any) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.byID(id)
	if u == nil {
		return nil, domain.ErrUserNotFound
	}
	for k, v := range md {
		u.Metadata[k] = v
	}
	return u, nil
}

type memActivities struct {
	mu    sync.Mutex
	items []domain.Activity
	err   error
}

func (r *memActivities) newest(filter func(domain.Activity) bool, limit int) []domain.Activity {
	var out []domain.Activity
	for _, a := range r.items {
		if filter(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (r *memActivities) Insert(_ context.Context, a *domain.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.items = append(r.items, *a)
	return nil
}

func (r *memActivities) ListByUser(_ context.Context, userID string, limit int) ([]domain.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.newest(func(a domain.Activity) bool { return a.UserID == userID }, limit), r.err
}

func (r *memActivities) ListAll(_ context.Context, limit int) ([]domain.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	return r.newest(func(domain.Activity) bool { return true }, limit), nil
}

func (r *memActivities) ListIDsByUser(_ context.Context, userID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for _, a := range r.newest(func(a domain.Activity) bool { return a.UserID == userID }, 0) {
		ids = append(ids, a.ID)
	}
	return ids, r.err
}

func (r *memActivities) DeleteByIDs(_ context.Context, ids []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := r.items[:0]
	for _, a := range r.items {
		if !drop[a.ID] {
			kept = append(kept, a)
		}
	}
	n := int64(len(r.items) - len(kept))
	r.items = kept
	return n, nil
}

type noMarketData struct{}

func (noMarketData) DailySeries(context.Context, string, domain.OutputSize) (*domain.PriceSeries, error) {
	return nil, &domain.UpstreamError{Kind: domain.UpstreamUnknownSymbol, Message: "Invalid ticker symbol"}
}

type testApp struct {
	e     *echo.Echo
	idp   *memIdentity
	store *memActivities
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	log := zerolog.Nop()
	idp := newMemIdentity()
	idp.add("root@example.com", "secret1", "admin", "Root Admin")
	idp.add("bob@example.com", "secret2", "user", "")
	store := &memActivities{}

	activities := service.NewActivityService(store, idp, log)
	svc := Services{
		Sessions:   service.NewSessionService(idp, log),
		Auth:       service.NewAuthService(idp, activities, log),
		Profiles:   service.NewProfileService(idp, activities, log),
		Activities: activities,
		Admin:      service.NewAdminService(idp, activities, log),
		Prices:     service.NewPriceService(noMarketData{}, nil, 0, log),
	}
	return &testApp{e: NewRouter(svc, Options{}, log), idp: idp, store: store}
}

func (a *testApp) do(t *testing.T, method, path, body string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) signIn(t *testing.T, email, password string) []*http.Cookie {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/auth/sign-in", `{"email":"`+email+`","password":"`+password+`"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return rec.Result().Cookies()
}

type feed struct {
	Data  []domain.Activity `json:"data"`
	Error *string           `json:"error"`
}

func TestRouter_SignInThenAdminFeed(t *testing.T) {
	app := newTestApp(t)

	app.signIn(t, "bob@example.com", "secret2")
	cookies := app.signIn(t, "root@example.com", "secret1")

	rec := app.do(t, http.MethodGet, "/api/admin/activities", "", cookies)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp feed
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Nil(t, resp.Error)
	require.Len(t, resp.Data, 2)

	names := map[string]string{}
	for _, a := range resp.Data {
		assert.Equal(t, domain.ActivityLogin, a.Type)
		names[a.Message] = a.UserName
	}
	assert.Equal(t, "Root Admin", names["User logged in: root@example.com"])
	assert.Equal(t, "bob@example.com", names["User logged in: bob@example.com"])
}

func TestRouter_AdminFeedErrors(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/api/admin/activities", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"authentication required"}`, rec.Body.String())

	userCookies := app.signIn(t, "bob@example.com", "secret2")
	rec = app.do(t, http.MethodGet, "/api/admin/activities", "", userCookies)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"access forbidden"}`, rec.Body.String())

	adminCookies := app.signIn(t, "root@example.com", "secret1")
	app.store.err = errors.New("connection reset")
	rec = app.do(t, http.MethodGet, "/api/admin/activities", "", adminCookies)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "connection reset")
}

func TestRouter_SignInRecordsExactlyOneLogin(t *testing.T) {
	app := newTestApp(t)
	cookies := app.signIn(t, "bob@example.com", "secret2")

	rec := app.do(t, http.MethodGet, "/api/activities", "", cookies)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp feed
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "User logged in: bob@example.com", resp.Data[0].Message)
	assert.Equal(t, "id-bob@example.com", resp.Data[0].UserID)
}

func TestRouter_Gate(t *testing.T) {
	app := newTestApp(t)
	userCookies := app.signIn(t, "bob@example.com", "secret2")
	adminCookies := app.signIn(t, "root@example.com", "secret1")

	cases := []struct {
		path     string
		cookies  []*http.Cookie
		code     int
		location string
	}{
		{"/admin/users", nil, http.StatusTemporaryRedirect, "/auth"},
		{"/dashboard", nil, http.StatusTemporaryRedirect, "/auth"},
		{"/dashboard", adminCookies, http.StatusTemporaryRedirect, "/admin"},
		{"/admin", userCookies, http.StatusTemporaryRedirect, "/dashboard"},
		{"/auth", userCookies, http.StatusTemporaryRedirect, "/dashboard"},
		{"/", nil, http.StatusTemporaryRedirect, "/auth"},
		{"/", adminCookies, http.StatusTemporaryRedirect, "/admin"},
		{"/auth", nil, http.StatusOK, ""},
		{"/dashboard", userCookies, http.StatusOK, ""},
		{"/admin/users", adminCookies, http.StatusOK, ""},
		{"/admin/reports", nil, http.StatusTemporaryRedirect, "/auth"},
		{"/dashboard/billing", nil, http.StatusTemporaryRedirect, "/auth"},
		{"/admin/users/", nil, http.StatusTemporaryRedirect, "/auth"},
		{"/admin/reports", userCookies, http.StatusTemporaryRedirect, "/dashboard"},
		{"/dashboard/billing", userCookies, http.StatusNotFound, ""},
	}
	for _, tc := range cases {
		rec := app.do(t, http.MethodGet, tc.path, "", tc.cookies)
		assert.Equal(t, tc.code, rec.Code, tc.path)
		assert.Equal(t, tc.location, rec.Header().Get("Location"), tc.path)
	}
}

func TestRouter_DeadCookiesAreCleared(t *testing.T) {
	app := newTestApp(t)
	stale := []*http.Cookie{
		{Name: middleware.AccessTokenCookie, Value: "revoked"},
	}

	rec := app.do(t, http.MethodGet, "/dashboard", "", stale)
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)

	var cleared bool
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == middleware.AccessTokenCookie && ck.Value == "" && ck.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared, "dead access cookie must be cleared")
}

func TestRouter_ErrorMapping(t *testing.T) {
	app := newTestApp(t)
	cookies := app.signIn(t, "bob@example.com", "secret2")

	rec := app.do(t, http.MethodPost, "/api/auth/sign-in", `{"email":"bob@example.com","password":"wrong12"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = app.do(t, http.MethodPost, "/api/auth/sign-in", `{"email":"not-an-email","password":"secret2"}`, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = app.do(t, http.MethodGet, "/api/prices?ticker=NOPE", "", cookies)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid ticker symbol"}`, rec.Body.String())

	rec = app.do(t, http.MethodGet, "/api/prices?ticker=AAPL", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = app.do(t, http.MethodGet, "/api/activity-types", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_AdjustBalance(t *testing.T) {
	app := newTestApp(t)
	cookies := app.signIn(t, "root@example.com", "secret1")

	rec := app.do(t, http.MethodPost, "/api/admin/users/id-bob@example.com/balance", `{"balance":1500}`, cookies)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = app.do(t, http.MethodGet, "/api/admin/activities?limit=1", "", cookies)
	var resp feed
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, domain.ActivityAdminBalanceAdjustment, resp.Data[0].Type)
	assert.Equal(t, "Adjusted bob@example.com's balance to $1,500", resp.Data[0].Message)
	assert.Equal(t, "id-root@example.com", resp.Data[0].UserID)
}
