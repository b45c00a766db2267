package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	rtdomain "auth-service/internal/refreshtoken/domain"
	"auth-service/internal/security"
	telemetrydomain "auth-service/internal/telemetry/domain"
	userdomain "auth-service/internal/user/domain"
	userrepo "auth-service/internal/user/repository"
)

type memUserRepo struct {
	mu        sync.Mutex
	byID      map[string]*userdomain.User
	byEmail   map[string]*userdomain.User
	createErr error
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byID: map[string]*userdomain.User{}, byEmail: map[string]*userdomain.User{}}
}

func (r *memUserRepo) GetByID(ctx context.Context, id string) (*userdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return stripped(r.byID[id]), nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*userdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return stripped(r.byEmail[email]), nil
}

func (r *memUserRepo) GetByEmailWithPassword(ctx context.Context, email string) (*userdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byEmail[email]
	if !ok {
		return nil, nil
	}
	c := *u
	return &c, nil
}

func (r *memUserRepo) Create(ctx context.Context, u *userdomain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if _, ok := r.byEmail[u.Email]; ok {
		return userrepo.ErrEmailTaken
	}
	c := *u
	r.byID[u.ID] = &c
	r.byEmail[u.Email] = &c
	return nil
}

func (r *memUserRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

func stripped(u *userdomain.User) *userdomain.User {
	if u == nil {
		return nil
	}
	c := *u
	c.PasswordHash = ""
	return &c
}

type memRefreshStore struct {
	mu        sync.Mutex
	m         map[string]*rtdomain.RefreshToken
	createErr error
}

func newMemRefreshStore() *memRefreshStore {
	return &memRefreshStore{m: map[string]*rtdomain.RefreshToken{}}
}

func (s *memRefreshStore) Create(ctx context.Context, userID string, expiresAt time.Time) (*rtdomain.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return nil, s.createErr
	}
	rec := &rtdomain.RefreshToken{ID: uuid.New().String(), UserID: userID, ExpiresAt: expiresAt, CreatedAt: time.Now().UTC()}
	c := *rec
	s.m[rec.ID] = &c
	return rec, nil
}

func (s *memRefreshStore) DeleteByID(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[id]; !ok {
		return false, nil
	}
	delete(s.m, id)
	return true, nil
}

func (s *memRefreshStore) ListByUser(ctx context.Context, userID string) ([]*rtdomain.RefreshToken, error) {
	recs := s.byUser(userID)
	sort.Slice(recs, func(i, j int) bool { return recs[i].CreatedAt.Before(recs[j].CreatedAt) })
	return recs, nil
}

func (s *memRefreshStore) byUser(userID string) []*rtdomain.RefreshToken {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*rtdomain.RefreshToken
	for _, r := range s.m {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out
}

func (s *memRefreshStore) has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.m[id]
	return ok
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []*telemetrydomain.SessionEvent
}

func (e *recordingEmitter) Emit(ctx context.Context, ev *telemetrydomain.SessionEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, ev)
	return nil
}

func (e *recordingEmitter) waitFor(t *testing.T, typ telemetrydomain.EventType) *telemetrydomain.SessionEvent {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		e.mu.Lock()
		for _, ev := range e.events {
			if ev.Type == typ {
				e.mu.Unlock()
				return ev
			}
		}
		e.mu.Unlock()
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("no %s event emitted", typ)
	return nil
}

type authFixture struct {
	users    *memUserRepo
	store    *memRefreshStore
	provider *security.TokenProvider
	tokens   *TokenService
	events   *recordingEmitter
	svc      *AuthService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	provider, err := security.NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	return newAuthFixtureWithProvider(provider)
}

func newAuthFixtureWithProvider(provider *security.TokenProvider) *authFixture {
	f := &authFixture{
		users:    newMemUserRepo(),
		store:    newMemRefreshStore(),
		provider: provider,
		events:   &recordingEmitter{},
	}
	f.tokens = NewTokenService(provider, f.store)
	f.svc = NewAuthService(f.users, f.tokens, security.NewHasher(bcrypt.MinCost), f.events)
	return f
}

func (f *authFixture) register(t *testing.T, email, password string) *AuthResult {
	t.Helper()
	res, err := f.svc.Register(context.Background(), RegisterInput{
		FirstName: "Ada", LastName: "Lovelace", Email: email, Password: password,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return res
}

var errStoreDown = errors.New("store down")
