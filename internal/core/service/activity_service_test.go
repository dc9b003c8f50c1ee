package service

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tradedesk/dashboard/internal/core/domain"
	"github.com/tradedesk/dashboard/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubActivityRepo struct {
	items     []domain.Activity // insertion order
	insertErr error
	listErr   error
	deleteErr error
	calls     int
}

// sorted orders like the Mongo repository: timestamp, then id, descending.
func (r *stubActivityRepo) sorted(userID string) []domain.Activity {
	out := make([]domain.Activity, 0, len(r.items))
	for _, a := range r.items {
		if userID == "" || a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (r *stubActivityRepo) Insert(_ context.Context, a *domain.Activity) error {
	r.calls++
	if r.insertErr != nil {
		return r.insertErr
	}
	r.items = append(r.items, *a)
	return nil
}

func (r *stubActivityRepo) ListByUser(_ context.Context, userID string, limit int) ([]domain.Activity, error) {
	r.calls++
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := r.sorted(userID)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *stubActivityRepo) ListAll(_ context.Context, limit int) ([]domain.Activity, error) {
	r.calls++
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := r.sorted("")
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *stubActivityRepo) ListIDsByUser(_ context.Context, userID string) ([]string, error) {
	r.calls++
	if r.listErr != nil {
		return nil, r.listErr
	}
	var ids []string
	for _, a := range r.sorted(userID) {
		ids = append(ids, a.ID)
	}
	return ids, nil
}

func (r *stubActivityRepo) DeleteByIDs(_ context.Context, ids []string) (int64, error) {
	r.calls++
	if r.deleteErr != nil {
		return 0, r.deleteErr
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := r.items[:0]
	var n int64
	for _, a := range r.items {
		if drop[a.ID] {
			n++
			continue
		}
		kept = append(kept, a)
	}
	r.items = kept
	return n, nil
}

type stubIdentityAdmin struct {
	users   map[string]*domain.User
	failFor map[string]error
	lookups []string
}

func (a *stubIdentityAdmin) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	a.lookups = append(a.lookups, id)
	if err := a.failFor[id]; err != nil {
		return nil, err
	}
	u, ok := a.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (a *stubIdentityAdmin) ListUsers(_ context.Context, _, _ int) ([]domain.User, error) {
	out := make([]domain.User, 0, len(a.users))
	for _, u := range a.users {
		out = append(out, *u)
	}
	return out, nil
}

func (a *stubIdentityAdmin) UpdateUserMetadata(_ context.Context, id string, md map[string]any) (*domain.User, error) {
	u, ok := a.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if u.Metadata == nil {
		u.Metadata = map[string]any{}
	}
	for k, v := range md {
		u.Metadata[k] = v
	}
	clone := *u
	return &clone, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func newActivitySvc(repo *stubActivityRepo, admin *stubIdentityAdmin) *activityService {
	var names ports.IdentityAdmin
	if admin != nil {
		names = admin
	}
	svc := NewActivityService(repo, names, zerolog.Nop()).(*activityService)
	clock := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return svc
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestActivityService_Append_ThenListReturnsIt(t *testing.T) {
	repo := &stubActivityRepo{}
	svc := newActivitySvc(repo, nil)
	ctx := context.Background()

	if _, err := svc.Append(ctx, "u1", domain.ActivityTickerChange, "Changed ticker to MSFT"); err != nil {
		t.Fatalf("append: %v", err)
	}
	created, err := svc.Append(ctx, "u1", domain.ActivityLogin, "User logged in: a@b.com")
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if created.ID == "" || created.Timestamp.IsZero() {
		t.Fatalf("expected id and timestamp, got %+v", created)
	}

	got, err := svc.List(ctx, "u1", 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].ID != created.ID {
		t.Fatalf("expected just-appended activity, got %+v", got)
	}
}

func TestActivityService_Append_SameInstantKeepsInsertionOrder(t *testing.T) {
	repo := &stubActivityRepo{}
	svc := newActivitySvc(repo, nil)
	frozen := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return frozen }
	ctx := context.Background()

	for i := 0; i < 200; i++ {
		first, err := svc.Append(ctx, "u1", domain.ActivityTickerChange, "first")
		if err != nil {
			t.Fatalf("append: %v", err)
		}
		second, err := svc.Append(ctx, "u1", domain.ActivityTickerChange, "second")
		if err != nil {
			t.Fatalf("append: %v", err)
		}
		if second.ID <= first.ID {
			t.Fatalf("id of later append must sort after earlier one: %s <= %s", second.ID, first.ID)
		}

		got, err := svc.List(ctx, "u1", 1)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(got) != 1 || got[0].ID != second.ID {
			t.Fatalf("expected just-appended activity, got %+v", got)
		}
	}
}

func TestActivityService_Append_Validation(t *testing.T) {
	repo := &stubActivityRepo{}
	svc := newActivitySvc(repo, nil)

	cases := []struct {
		userID, msg string
		typ         domain.ActivityType
		field       string
	}{
		{"", "m", domain.ActivityLogin, "user_id"},
		{"   ", "m", domain.ActivityLogin, "user_id"},
		{"u1", "m", "", "type"},
		{"u1", "m", "logout", "type"},
		{"u1", "", domain.ActivityLogin, "message"},
	}
	for _, tc := range cases {
		_, err := svc.Append(context.Background(), tc.userID, tc.typ, tc.msg)
		var ve *domain.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("expected ValidationError for %+v, got %v", tc, err)
		}
		if ve.Field != tc.field {
			t.Errorf("expected field %q, got %q", tc.field, ve.Field)
		}
	}
	if repo.calls != 0 {
		t.Fatalf("validation failures must not reach the store, got %d calls", repo.calls)
	}
}

func TestActivityService_Append_StoreError(t *testing.T) {
	repo := &stubActivityRepo{insertErr: errors.New("permission denied")}
	svc := newActivitySvc(repo, nil)

	_, err := svc.Append(context.Background(), "u1", domain.ActivityLogin, "hi")
	var se *domain.StoreError
	if !errors.As(err, &se) {
		t.Fatalf("expected StoreError, got %v", err)
	}
	if repo.calls != 1 {
		t.Fatalf("append must not be retried, got %d store calls", repo.calls)
	}
}

func TestActivityService_ConcurrentAppendsGetDistinctIDs(t *testing.T) {
	repo := &stubActivityRepo{}
	svc := newActivitySvc(repo, nil)

	a1, _ := svc.Append(context.Background(), "u1", domain.ActivityDateFilterUpdate, "start")
	a2, _ := svc.Append(context.Background(), "u1", domain.ActivityDateFilterUpdate, "start")
	if a1.ID == a2.ID {
		t.Fatalf("expected distinct ids")
	}
}

func TestActivityService_List(t *testing.T) {
	repo := &stubActivityRepo{}
	svc := newActivitySvc(repo, nil)

	got, err := svc.List(context.Background(), "nobody", 5)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}

	if _, err := svc.List(context.Background(), "", 5); err == nil {
		t.Fatalf("expected validation error for empty user id")
	}

	repo.listErr = errors.New("network down")
	_, err = svc.List(context.Background(), "u1", 5)
	var se *domain.StoreError
	if !errors.As(err, &se) {
		t.Fatalf("expected StoreError, got %v", err)
	}
}

func TestActivityService_Recent_CapsAtFive(t *testing.T) {
	repo := &stubActivityRepo{}
	svc := newActivitySvc(repo, nil)
	for i := 0; i < 8; i++ {
		if _, err := svc.Append(context.Background(), "u1", domain.ActivityTickerChange, "t"); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := svc.Recent(context.Background(), "u1")
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != domain.RecentActivityLimit {
		t.Fatalf("expected %d, got %d", domain.RecentActivityLimit, len(got))
	}
	if len(repo.items) != 8 {
		t.Fatalf("storage must not be truncated by reads, got %d", len(repo.items))
	}
}

func TestActivityService_ListAll_NonAdminForbiddenWithoutStoreAccess(t *testing.T) {
	repo := &stubActivityRepo{}
	svc := newActivitySvc(repo, &stubIdentityAdmin{})

	for _, role := range []domain.Role{domain.RoleUser, domain.RoleTrader, domain.Role("")} {
		if _, err := svc.ListAll(context.Background(), 10, role); !errors.Is(err, domain.ErrForbidden) {
			t.Fatalf("expected ErrForbidden for %q, got %v", role, err)
		}
	}
	if repo.calls != 0 {
		t.Fatalf("expected no store access, got %d calls", repo.calls)
	}
}

func TestActivityService_ListAll_ResolvesNames(t *testing.T) {
	repo := &stubActivityRepo{}
	admin := &stubIdentityAdmin{
		users: map[string]*domain.User{
			"u1": {ID: "u1", Email: "a@b.com", Metadata: map[string]any{"full_name": "Ann Lee"}},
			"u2": {ID: "u2", Email: "bob@b.com"},
		},
		failFor: map[string]error{"u3": errors.New("timeout")},
	}
	svc := newActivitySvc(repo, admin)
	ctx := context.Background()

	_, _ = svc.Append(ctx, "u1", domain.ActivityLogin, "User logged in: a@b.com")
	_, _ = svc.Append(ctx, "u2", domain.ActivityLogin, "User logged in: bob@b.com")
	_, _ = svc.Append(ctx, "u3", domain.ActivityLogin, "User logged in: c@b.com")
	_, _ = svc.Append(ctx, "u1", domain.ActivityProfileUpdate, "Profile settings updated")

	got, err := svc.ListAll(ctx, 0, domain.RoleAdmin)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 activities, got %d", len(got))
	}
	if got[0].Type != domain.ActivityProfileUpdate {
		t.Fatalf("expected newest first, got %s", got[0].Type)
	}

	byUser := map[string]string{}
	for _, a := range got {
		byUser[a.UserID] = a.UserName
	}
	if byUser["u1"] != "Ann Lee" || byUser["u2"] != "bob@b.com" || byUser["u3"] != domain.UnknownUserName {
		t.Fatalf("unexpected names: %+v", byUser)
	}
	if len(admin.lookups) != 3 {
		t.Fatalf("expected one lookup per distinct user, got %v", admin.lookups)
	}
}

func TestActivityService_ListAll_StoreError(t *testing.T) {
	repo := &stubActivityRepo{listErr: errors.New("boom")}
	svc := newActivitySvc(repo, &stubIdentityAdmin{})

	_, err := svc.ListAll(context.Background(), 10, domain.RoleAdmin)
	var se *domain.StoreError
	if !errors.As(err, &se) {
		t.Fatalf("expected StoreError, got %v", err)
	}
}

func TestActivityService_Prune(t *testing.T) {
	repo := &stubActivityRepo{}
	svc := newActivitySvc(repo, nil)
	ctx := context.Background()

	var newest []string
	for i := 0; i < 7; i++ {
		a, _ := svc.Append(ctx, "u1", domain.ActivityTickerChange, "t")
		newest = append([]string{a.ID}, newest...)
	}
	_, _ = svc.Append(ctx, "u2", domain.ActivityLogin, "other user")

	deleted, err := svc.Prune(ctx, "u1", 3)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if deleted != 4 {
		t.Fatalf("expected 4 deleted, got %d", deleted)
	}

	left, _ := svc.List(ctx, "u1", 100)
	if len(left) != 3 {
		t.Fatalf("expected 3 left, got %d", len(left))
	}
	for i, a := range left {
		if a.ID != newest[i] {
			t.Fatalf("expected most recent activities to survive, got %v", left)
		}
	}
	if other, _ := svc.List(ctx, "u2", 100); len(other) != 1 {
		t.Fatalf("prune must not touch other users")
	}

	again, err := svc.Prune(ctx, "u1", 3)
	if err != nil || again != 0 {
		t.Fatalf("second prune should be a no-op, got %d, %v", again, err)
	}

	deleted, err = svc.Prune(ctx, "u1", 10)
	if err != nil || deleted != 0 {
		t.Fatalf("keepCount above total should delete nothing, got %d, %v", deleted, err)
	}
}

func TestActivityService_Prune_Validation(t *testing.T) {
	svc := newActivitySvc(&stubActivityRepo{}, nil)
	if _, err := svc.Prune(context.Background(), "", 5); err == nil {
		t.Fatalf("expected validation error")
	}
	if _, err := svc.Prune(context.Background(), "u1", -1); err == nil {
		t.Fatalf("expected validation error for negative keep count")
	}
}
