package auth

import (
	"errors"
	"time"

	"github.com/ivankudzin/sparkmatch/internal/domain/model"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrSessionNotFound = errors.New("session not found")
	ErrRefreshNotFound = errors.New("refresh token not found")
)

type SessionRecord struct {
	SID       string
	UserID    int64
	ExpiresAt time.Time
}

type AccessClaims struct {
	UserID    int64
	SID       string
	ExpiresAt time.Time
}

// SignIn is an identity already authenticated by the external provider.
// Provider token verification happens upstream; this service only owns
// the session lifecycle.
type SignIn struct {
	Provider    string
	Subject     string
	Email       string
	DisplayName string
}

type AuthResult struct {
	AccessToken   string
	RefreshToken  string
	AccessExpires time.Time
	User          model.User
}
