package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"auth-service/internal/security"
)

func TestTokenService_MintPairBindsRecord(t *testing.T) {
	f := newAuthFixture(t)
	principal := security.Principal{UserID: "user-1", Role: "customer"}

	pair, err := f.tokens.MintPair(context.Background(), principal)
	if err != nil {
		t.Fatalf("MintPair: %v", err)
	}
	if !f.store.has(pair.SessionID) {
		t.Fatal("refresh record was not persisted")
	}
	refresh, err := f.provider.ValidateRefresh(pair.RefreshToken)
	if err != nil {
		t.Fatalf("ValidateRefresh: %v", err)
	}
	if refresh.ID != pair.SessionID {
		t.Errorf("jti = %q, want record id %q", refresh.ID, pair.SessionID)
	}
	access, err := f.provider.ValidateAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("ValidateAccess: %v", err)
	}
	if access.SessionID != pair.SessionID || access.Subject != "user-1" || access.Role != "customer" {
		t.Errorf("access claims = %+v", access)
	}
	if d := pair.AccessExpiresAt.Sub(time.Now()); d < 59*time.Minute || d > time.Hour {
		t.Errorf("access expiry in %v, want ~1h", d)
	}
}

func TestTokenService_PersistRefreshTokenExpiry(t *testing.T) {
	f := newAuthFixture(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f.tokens.now = func() time.Time { return now }

	rec, err := f.tokens.PersistRefreshToken(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("PersistRefreshToken: %v", err)
	}
	if want := now.Add(365 * 24 * time.Hour); !rec.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v", rec.ExpiresAt, want)
	}
	if rec.UserID != "user-1" || rec.ID == "" {
		t.Errorf("record = %+v", rec)
	}
}

func TestTokenService_MintPairWithoutKeysHasNoSideEffect(t *testing.T) {
	provider := security.NewTokenProvider(security.NewKeyMaterial(nil, nil, []byte("secret")), "")
	f := newAuthFixtureWithProvider(provider)

	_, err := f.tokens.MintPair(context.Background(), security.Principal{UserID: "user-1"})
	if !errors.Is(err, security.ErrKeyNotConfigured) {
		t.Fatalf("MintPair: want ErrKeyNotConfigured, got %v", err)
	}
	if n := len(f.store.byUser("user-1")); n != 0 {
		t.Errorf("records = %d, want 0", n)
	}
}

func TestTokenService_MintPairStoreFailureSignsNothing(t *testing.T) {
	f := newAuthFixture(t)
	f.store.createErr = errStoreDown

	pair, err := f.tokens.MintPair(context.Background(), security.Principal{UserID: "user-1"})
	if !errors.Is(err, errStoreDown) {
		t.Fatalf("MintPair: want store error, got %v", err)
	}
	if pair != nil {
		t.Error("no token may be returned without a backing record")
	}
}

func TestTokenService_DeleteRefreshTokenIsIdempotent(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	rec, err := f.tokens.PersistRefreshToken(ctx, "user-1")
	if err != nil {
		t.Fatalf("PersistRefreshToken: %v", err)
	}

	for i, want := range []bool{true, false} {
		deleted, err := f.tokens.DeleteRefreshToken(ctx, rec.ID)
		if err != nil {
			t.Fatalf("DeleteRefreshToken #%d: %v", i+1, err)
		}
		if deleted != want {
			t.Errorf("DeleteRefreshToken #%d = %v, want %v", i+1, deleted, want)
		}
	}
	if deleted, err := f.tokens.DeleteRefreshToken(ctx, "not-a-uuid"); err != nil || deleted {
		t.Errorf("DeleteRefreshToken(malformed) = %v, %v; want false, nil", deleted, err)
	}
}

func TestTokenService_IssueRefreshTokenHasNoPersistence(t *testing.T) {
	f := newAuthFixture(t)
	tok, _, err := f.tokens.IssueRefreshToken(security.Principal{UserID: "user-1"}, "rec-1")
	if err != nil {
		t.Fatalf("IssueRefreshToken: %v", err)
	}
	if tok == "" {
		t.Fatal("empty token")
	}
	if n := len(f.store.byUser("user-1")); n != 0 {
		t.Errorf("records = %d, want 0", n)
	}
}

func TestTokenService_ActiveSessionsSkipsExpired(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.tokens.now = func() time.Time { return time.Now().Add(-2 * 365 * 24 * time.Hour) }
	if _, err := f.tokens.PersistRefreshToken(ctx, "u-1"); err != nil {
		t.Fatalf("PersistRefreshToken (stale): %v", err)
	}
	f.tokens.now = time.Now
	live, err := f.tokens.PersistRefreshToken(ctx, "u-1")
	if err != nil {
		t.Fatalf("PersistRefreshToken: %v", err)
	}
	if _, err := f.tokens.PersistRefreshToken(ctx, "u-2"); err != nil {
		t.Fatalf("PersistRefreshToken (other user): %v", err)
	}

	got, err := f.tokens.ActiveSessions(ctx, "u-1")
	if err != nil {
		t.Fatalf("ActiveSessions: %v", err)
	}
	if len(got) != 1 || got[0].ID != live.ID {
		t.Fatalf("ActiveSessions = %+v, want only %s", got, live.ID)
	}
}
