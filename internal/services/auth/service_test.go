package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/ivankudzin/sparkmatch/internal/domain/model"
	redrepo "github.com/ivankudzin/sparkmatch/internal/repo/redis"
	authsvc "github.com/ivankudzin/sparkmatch/internal/services/auth"
)

type userStoreStub struct {
	upserts int
	lastIn  authsvc.SignIn
	user    model.User
	err     error
}

func (s *userStoreStub) UpsertOnSignIn(_ context.Context, provider, subject, email, displayName string, _ time.Time) (model.User, error) {
	s.upserts++
	s.lastIn = authsvc.SignIn{Provider: provider, Subject: subject, Email: email, DisplayName: displayName}
	return s.user, s.err
}

func newTestService(t *testing.T, users authsvc.UserStore) (*authsvc.Service, *redrepo.SessionRepo, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})

	sessions := redrepo.NewSessionRepo(client)
	svc := authsvc.NewService(authsvc.NewJWTManager("test-secret", 15*time.Minute), sessions, users, 30*24*time.Hour)
	cleanup := func() {
		_ = client.Close()
		mr.Close()
	}
	return svc, sessions, cleanup
}

func TestLoginIssuesValidatableSession(t *testing.T) {
	users := &userStoreStub{user: model.User{ID: 7, DisplayName: "Ava"}}
	svc, _, cleanup := newTestService(t, users)
	defer cleanup()

	ctx := context.Background()
	result, err := svc.Login(ctx, authsvc.SignIn{Provider: "Google", Subject: "sub-123", Email: "ava@example.com", DisplayName: "Ava"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if users.upserts != 1 {
		t.Fatalf("expected one user upsert, got %d", users.upserts)
	}
	if users.lastIn.Provider != "google" {
		t.Fatalf("expected normalized provider, got %q", users.lastIn.Provider)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Fatalf("expected token pair, got %+v", result)
	}
	if result.User.ID != 7 {
		t.Fatalf("unexpected user in result: %+v", result.User)
	}

	claims, err := svc.ValidateAccessToken(ctx, result.AccessToken)
	if err != nil {
		t.Fatalf("validate access token: %v", err)
	}
	if claims.UserID != 7 {
		t.Fatalf("unexpected user id in claims: %d", claims.UserID)
	}
}

func TestLoginRejectsMissingProviderIdentity(t *testing.T) {
	svc, _, cleanup := newTestService(t, &userStoreStub{})
	defer cleanup()

	_, err := svc.Login(context.Background(), authsvc.SignIn{Provider: "", Subject: "sub"})
	if !errors.Is(err, authsvc.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	_, err = svc.Login(context.Background(), authsvc.SignIn{Provider: "google", Subject: "  "})
	if !errors.Is(err, authsvc.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank subject, got %v", err)
	}
}

func TestRefreshRotatesTokenAndInvalidatesOldOne(t *testing.T) {
	users := &userStoreStub{user: model.User{ID: 11}}
	svc, _, cleanup := newTestService(t, users)
	defer cleanup()

	ctx := context.Background()
	login, err := svc.Login(ctx, authsvc.SignIn{Provider: "github", Subject: "octo"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	refreshed, err := svc.Refresh(ctx, login.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.RefreshToken == login.RefreshToken {
		t.Fatalf("expected rotated refresh token")
	}

	if _, err := svc.Refresh(ctx, login.RefreshToken); !errors.Is(err, authsvc.ErrUnauthorized) {
		t.Fatalf("expected old refresh token to be rejected, got %v", err)
	}
}

func TestLogoutInvalidatesAccessToken(t *testing.T) {
	users := &userStoreStub{user: model.User{ID: 3}}
	svc, _, cleanup := newTestService(t, users)
	defer cleanup()

	ctx := context.Background()
	login, err := svc.Login(ctx, authsvc.SignIn{Provider: "google", Subject: "s3"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := svc.ValidateAccessToken(ctx, login.AccessToken)
	if err != nil {
		t.Fatalf("validate before logout: %v", err)
	}
	if err := svc.Logout(ctx, claims.SID); err != nil {
		t.Fatalf("logout: %v", err)
	}

	if _, err := svc.ValidateAccessToken(ctx, login.AccessToken); !errors.Is(err, authsvc.ErrUnauthorized) {
		t.Fatalf("expected unauthorized after logout, got %v", err)
	}
}

func TestExpiredSessionIsRejected(t *testing.T) {
	users := &userStoreStub{user: model.User{ID: 5}}
	svc, sessions, cleanup := newTestService(t, users)
	defer cleanup()

	ctx := context.Background()

	// Seed a session whose record is already past its expiry; the JWT
	// itself is still within its own lifetime.
	expired := authsvc.SessionRecord{
		SID:       "expired-sid",
		UserID:    5,
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	if err := sessions.Create(ctx, expired, "stale-refresh-token"); err != nil {
		t.Fatalf("seed expired session: %v", err)
	}

	token, _, err := authsvc.NewJWTManager("test-secret", 15*time.Minute).GenerateAccessToken(5, "expired-sid")
	if err != nil {
		t.Fatalf("generate access token: %v", err)
	}

	if _, err := svc.ValidateAccessToken(ctx, token); !errors.Is(err, authsvc.ErrUnauthorized) {
		t.Fatalf("expected unauthorized for expired session, got %v", err)
	}
}
