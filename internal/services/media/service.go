package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrValidation = errors.New("validation error")

const (
	signedURLTTL = 5 * time.Minute
	maxPhotoSize = 10 << 20
)

type ProfileStore interface {
	SetProfilePhoto(ctx context.Context, userID int64, photoKey string) error
}

type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type Service struct {
	store   ProfileStore
	storage ObjectStorage
}

type Photo struct {
	Key string
	URL string
}

func NewService(store ProfileStore, storage ObjectStorage) *Service {
	return &Service{
		store:   store,
		storage: storage,
	}
}

// UploadProfilePhoto stores the photo object and binds it to the user's
// profile. A failed profile update removes the orphaned object.
func (s *Service) UploadProfilePhoto(ctx context.Context, userID int64, fileName, contentType string, body io.Reader, size int64) (Photo, error) {
	if userID <= 0 || body == nil || size <= 0 || size > maxPhotoSize {
		return Photo{}, ErrValidation
	}
	if s.store == nil || s.storage == nil {
		return Photo{}, fmt.Errorf("media dependencies are not configured")
	}

	if err := s.storage.EnsureBucket(ctx); err != nil {
		return Photo{}, fmt.Errorf("ensure bucket: %w", err)
	}

	key := buildObjectKey(userID, "profile", fileName)
	if err := s.storage.Put(ctx, key, body, size, normalizeContentType(contentType)); err != nil {
		return Photo{}, fmt.Errorf("put object: %w", err)
	}

	if err := s.store.SetProfilePhoto(ctx, userID, key); err != nil {
		_ = s.storage.Delete(ctx, key)
		return Photo{}, fmt.Errorf("set profile photo: %w", err)
	}

	url, err := s.storage.PresignGet(ctx, key, signedURLTTL)
	if err != nil {
		return Photo{}, fmt.Errorf("presign photo url: %w", err)
	}

	return Photo{Key: key, URL: url}, nil
}

// StoreSelfie archives a verification selfie and returns its object key.
// Selfies are never bound to the profile.
func (s *Service) StoreSelfie(ctx context.Context, userID int64, fileName, contentType string, body io.Reader, size int64) (string, error) {
	if userID <= 0 || body == nil || size <= 0 || size > maxPhotoSize {
		return "", ErrValidation
	}
	if s.storage == nil {
		return "", fmt.Errorf("object storage is nil")
	}

	if err := s.storage.EnsureBucket(ctx); err != nil {
		return "", fmt.Errorf("ensure bucket: %w", err)
	}

	key := buildObjectKey(userID, "selfies", fileName)
	if err := s.storage.Put(ctx, key, body, size, normalizeContentType(contentType)); err != nil {
		return "", fmt.Errorf("put selfie object: %w", err)
	}
	return key, nil
}

// PhotoURL signs a short-lived download link for a stored photo.
func (s *Service) PhotoURL(ctx context.Context, key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", ErrValidation
	}
	if s.storage == nil {
		return "", fmt.Errorf("object storage is nil")
	}

	url, err := s.storage.PresignGet(ctx, key, signedURLTTL)
	if err != nil {
		return "", fmt.Errorf("presign photo url: %w", err)
	}
	return url, nil
}

// OpenPhoto streams a stored photo, for server-side consumers like the
// verification gate.
func (s *Service) OpenPhoto(ctx context.Context, key string) (io.ReadCloser, error) {
	if strings.TrimSpace(key) == "" {
		return nil, ErrValidation
	}
	if s.storage == nil {
		return nil, fmt.Errorf("object storage is nil")
	}

	reader, err := s.storage.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("open photo object: %w", err)
	}
	return reader, nil
}

func buildObjectKey(userID int64, kind, fileName string) string {
	ext := strings.ToLower(path.Ext(strings.TrimSpace(fileName)))
	if ext == "" {
		ext = ".bin"
	}
	return fmt.Sprintf("users/%d/%s/%s%s", userID, kind, uuid.NewString(), ext)
}

func normalizeContentType(contentType string) string {
	if strings.TrimSpace(contentType) == "" {
		return "application/octet-stream"
	}
	return contentType
}
