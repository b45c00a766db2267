package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	identityservice "auth-service/internal/identity/service"
	"auth-service/internal/policy/engine"
	rtdomain "auth-service/internal/refreshtoken/domain"
	"auth-service/internal/security"
	"auth-service/internal/server/middleware"
	userdomain "auth-service/internal/user/domain"
	userrepo "auth-service/internal/user/repository"
	userservice "auth-service/internal/user/service"
)

type memUsers struct {
	mu   sync.Mutex
	byID map[string]*userdomain.User
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[string]*userdomain.User{}}
}

func (m *memUsers) find(match func(*userdomain.User) bool, withPassword bool) *userdomain.User {
	for _, u := range m.byID {
		if match(u) {
			c := *u
			if !withPassword {
				c.PasswordHash = ""
			}
			return &c
		}
	}
	return nil
}

func (m *memUsers) GetByID(ctx context.Context, id string) (*userdomain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.find(func(u *userdomain.User) bool { return u.ID == id }, false), nil
}

func (m *memUsers) GetByEmail(ctx context.Context, email string) (*userdomain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.find(func(u *userdomain.User) bool { return u.Email == email }, false), nil
}

func (m *memUsers) GetByEmailWithPassword(ctx context.Context, email string) (*userdomain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.find(func(u *userdomain.User) bool { return u.Email == email }, true), nil
}

func (m *memUsers) Create(ctx context.Context, u *userdomain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Email == u.Email {
			return userrepo.ErrEmailTaken
		}
	}
	c := *u
	m.byID[u.ID] = &c
	return nil
}

func (m *memUsers) List(ctx context.Context, f userrepo.ListFilter) ([]*userdomain.User, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*userdomain.User
	for _, u := range m.byID {
		if f.TenantID == "" || u.TenantID == f.TenantID {
			c := *u
			all = append(all, &c)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Email < all[j].Email })
	total := len(all)
	if f.Offset >= total {
		return []*userdomain.User{}, total, nil
	}
	end := min(f.Offset+f.Limit, total)
	return all[f.Offset:end], total, nil
}

func (m *memUsers) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

func (m *memUsers) seed(t *testing.T, u userdomain.User) {
	t.Helper()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	require.NoError(t, m.Create(context.Background(), &u))
}

type memStore struct {
	mu      sync.Mutex
	records map[string]rtdomain.RefreshToken
}

func newMemStore() *memStore {
	return &memStore{records: map[string]rtdomain.RefreshToken{}}
}

func (s *memStore) Create(ctx context.Context, userID string, expiresAt time.Time) (*rtdomain.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := rtdomain.RefreshToken{ID: uuid.NewString(), UserID: userID, ExpiresAt: expiresAt, CreatedAt: time.Now()}
	s.records[rec.ID] = rec
	return &rec, nil
}

func (s *memStore) DeleteByID(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return false, nil
	}
	delete(s.records, id)
	return true, nil
}

func (s *memStore) ListByUser(ctx context.Context, userID string) ([]*rtdomain.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*rtdomain.RefreshToken
	for _, rec := range s.records {
		if rec.UserID == userID {
			c := rec
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// expire moves a record's expiry into the past.
func (s *memStore) expire(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.records[id]
	rec.ExpiresAt = time.Now().Add(-time.Minute)
	s.records[id] = rec
}

func (s *memStore) forUser(userID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for id, rec := range s.records {
		if rec.UserID == userID {
			ids = append(ids, id)
		}
	}
	return ids
}

type readinessFunc func(ctx context.Context) error

func (f readinessFunc) Check(ctx context.Context) error { return f(ctx) }

type testEnv struct {
	handler  http.Handler
	users    *memUsers
	store    *memStore
	provider *security.TokenProvider
}

type envOption func(*Deps)

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	keys, err := security.NewTestKeyMaterial()
	require.NoError(t, err)
	return newTestEnvWithKeys(t, keys, opts...)
}

func newTestEnvWithKeys(t *testing.T, keys *security.KeyMaterial, opts ...envOption) *testEnv {
	t.Helper()
	provider := security.NewTokenProvider(keys, "test-issuer")
	users := newMemUsers()
	store := newMemStore()
	tokens := identityservice.NewTokenService(provider, store)
	scope, err := engine.NewOPAScopeEvaluator(context.Background(), "")
	require.NoError(t, err)

	deps := Deps{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Sessions: identityservice.NewAuthService(users, tokens, security.NewHasher(4), nil),
		Users:    userservice.NewUserService(users),
		Tokens:   provider,
		Keys:     keys,
		Scope:    scope,
		Cookies:  CookieConfig{Domain: "localhost"},
	}
	for _, opt := range opts {
		opt(&deps)
	}
	return &testEnv{handler: NewRouter(deps), users: users, store: store, provider: provider}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	if rdr != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

// accessFor mints an access token for principal without a backing session.
func (e *testEnv) accessFor(t *testing.T, principal security.Principal) *http.Cookie {
	t.Helper()
	token, _, err := e.provider.IssueAccess(principal, uuid.NewString())
	require.NoError(t, err)
	return &http.Cookie{Name: middleware.AccessTokenCookie, Value: token}
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func sessionCookies(t *testing.T, rec *httptest.ResponseRecorder) (access, refresh *http.Cookie) {
	t.Helper()
	access = cookieNamed(rec, middleware.AccessTokenCookie)
	refresh = cookieNamed(rec, RefreshTokenCookie)
	require.NotNil(t, access, "accessToken cookie")
	require.NotNil(t, refresh, "refreshToken cookie")
	return access, refresh
}

var validRegistration = map[string]string{
	"firstName": "Rakesh",
	"lastName":  "K",
	"email":     "rakesh@mern.space",
	"password":  "password",
}
