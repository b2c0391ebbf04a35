package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ivankudzin/sparkmatch/internal/domain/model"
	"github.com/ivankudzin/sparkmatch/internal/domain/rules"
	"github.com/ivankudzin/sparkmatch/internal/pkg/validate"
)

var (
	ErrValidation  = errors.New("validation error")
	ErrAgeRejected = errors.New("age rejected")
)

const (
	maxNameLen      = 80
	maxBioLen       = 500
	maxInterests    = 10
	maxInterestsLen = 40
)

type ProfileStore interface {
	GetByID(ctx context.Context, userID int64) (model.User, error)
	SaveOnboarding(ctx context.Context, userID int64, displayName string, age int, bio string, interests []string) error
}

type Service struct {
	store ProfileStore
}

type OnboardingInput struct {
	DisplayName string
	Age         int
	Bio         string
	Interests   []string
}

func NewService(store ProfileStore) *Service {
	return &Service{store: store}
}

func (s *Service) Get(ctx context.Context, userID int64) (model.User, error) {
	if userID <= 0 {
		return model.User{}, fmt.Errorf("invalid user id: %w", ErrValidation)
	}
	if s.store == nil {
		return model.User{}, fmt.Errorf("profile store is nil")
	}

	user, err := s.store.GetByID(ctx, userID)
	if err != nil {
		return model.User{}, fmt.Errorf("get profile: %w", err)
	}
	return user, nil
}

// CompleteOnboarding validates and stores the onboarding submission.
// Underage submissions are rejected before anything is written, so a
// rejected profile never becomes discoverable.
func (s *Service) CompleteOnboarding(ctx context.Context, userID int64, in OnboardingInput) (model.User, error) {
	if userID <= 0 {
		return model.User{}, fmt.Errorf("invalid user id: %w", ErrValidation)
	}
	if s.store == nil {
		return model.User{}, fmt.Errorf("profile store is nil")
	}

	normalized, err := normalizeAndValidateInput(in)
	if err != nil {
		return model.User{}, err
	}

	if err := s.store.SaveOnboarding(ctx, userID, normalized.DisplayName, normalized.Age, normalized.Bio, normalized.Interests); err != nil {
		return model.User{}, fmt.Errorf("save onboarding: %w", err)
	}

	user, err := s.store.GetByID(ctx, userID)
	if err != nil {
		return model.User{}, fmt.Errorf("reload profile: %w", err)
	}
	return user, nil
}

func normalizeAndValidateInput(in OnboardingInput) (OnboardingInput, error) {
	out := OnboardingInput{
		DisplayName: strings.TrimSpace(in.DisplayName),
		Age:         in.Age,
		Bio:         strings.TrimSpace(in.Bio),
	}

	if !validate.Required(out.DisplayName) {
		return OnboardingInput{}, fmt.Errorf("name is required: %w", ErrValidation)
	}
	if len(out.DisplayName) > maxNameLen {
		return OnboardingInput{}, fmt.Errorf("name is too long: %w", ErrValidation)
	}
	if !validate.Required(out.Bio) {
		return OnboardingInput{}, fmt.Errorf("bio is required: %w", ErrValidation)
	}
	if len(out.Bio) > maxBioLen {
		return OnboardingInput{}, fmt.Errorf("bio is too long: %w", ErrValidation)
	}
	if !rules.AgeAllowed(out.Age) {
		return OnboardingInput{}, ErrAgeRejected
	}

	interests, err := normalizeInterests(in.Interests)
	if err != nil {
		return OnboardingInput{}, err
	}
	out.Interests = interests

	return out, nil
}

func normalizeInterests(values []string) ([]string, error) {
	if len(values) > maxInterests {
		return nil, fmt.Errorf("too many interests: %w", ErrValidation)
	}

	result := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		normalized := strings.ToLower(strings.TrimSpace(value))
		if normalized == "" {
			continue
		}
		if len(normalized) > maxInterestsLen {
			return nil, fmt.Errorf("interest %q is too long: %w", normalized, ErrValidation)
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		result = append(result, normalized)
	}

	return result, nil
}
