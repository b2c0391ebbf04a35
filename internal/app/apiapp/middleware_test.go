package apiapp

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	authsvc "github.com/ivankudzin/sparkmatch/internal/services/auth"
)

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
		ok     bool
	}{
		{"valid", "Bearer abc123", "abc123", true},
		{"case insensitive scheme", "bearer abc123", "abc123", true},
		{"missing token", "Bearer ", "", false},
		{"wrong scheme", "Basic abc123", "", false},
		{"empty header", "", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := extractBearerToken(tc.header)
			if ok != tc.ok || got != tc.want {
				t.Fatalf("extractBearerToken(%q) = (%q, %v), want (%q, %v)", tc.header, got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	service := authsvc.NewService(authsvc.NewJWTManager("secret", time.Minute), nil, nil, 0)
	mw := AuthMiddleware(service, nil)

	called := false
	next := http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		called = true
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	rr := httptest.NewRecorder()
	mw(next).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusUnauthorized)
	}
	if called {
		t.Fatalf("expected handler to not be called without a token")
	}
}

func TestAuthMiddlewareRejectsGarbageToken(t *testing.T) {
	service := authsvc.NewService(authsvc.NewJWTManager("secret", time.Minute), nil, nil, 0)
	mw := AuthMiddleware(service, nil)

	next := http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Fatalf("handler must not run with an invalid token")
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rr := httptest.NewRecorder()
	mw(next).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusUnauthorized)
	}
}
