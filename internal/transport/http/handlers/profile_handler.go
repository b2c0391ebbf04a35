package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/ivankudzin/sparkmatch/internal/domain/model"
	authsvc "github.com/ivankudzin/sparkmatch/internal/services/auth"
	mediasvc "github.com/ivankudzin/sparkmatch/internal/services/media"
	profilesvc "github.com/ivankudzin/sparkmatch/internal/services/profiles"
	"github.com/ivankudzin/sparkmatch/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/sparkmatch/internal/transport/http/errors"
)

type ProfileHandler struct {
	service *profilesvc.Service
	media   *mediasvc.Service
}

func NewProfileHandler(service *profilesvc.Service, media *mediasvc.Service) *ProfileHandler {
	return &ProfileHandler{service: service, media: media}
}

func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "PROFILE_SERVICE_UNAVAILABLE", "profile service is unavailable")
		return
	}

	user, err := h.service.Get(r.Context(), identity.UserID)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to load profile")
		return
	}

	httperrors.Write(w, http.StatusOK, userResponse(r.Context(), h.media, user))
}

func (h *ProfileHandler) Onboarding(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "PROFILE_SERVICE_UNAVAILABLE", "profile service is unavailable")
		return
	}

	var req dto.OnboardingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	user, err := h.service.CompleteOnboarding(r.Context(), identity.UserID, profilesvc.OnboardingInput{
		DisplayName: req.DisplayName,
		Age:         req.Age,
		Bio:         req.Bio,
		Interests:   req.Interests,
	})
	if err != nil {
		switch {
		case errors.Is(err, profilesvc.ErrAgeRejected):
			writeUnprocessable(w, "AGE_REJECTED", "you must be at least 18 years old")
		case errors.Is(err, profilesvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid onboarding submission")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to save onboarding")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, userResponse(r.Context(), h.media, user))
}

// userResponse renders a user with a short-lived signed photo link. A
// presign failure degrades to an empty URL rather than failing the whole
// response.
func userResponse(ctx context.Context, media *mediasvc.Service, user model.User) dto.UserResponse {
	response := dto.UserResponse{
		ID:               user.ID,
		DisplayName:      user.DisplayName,
		Age:              user.Age,
		Bio:              user.Bio,
		Interests:        user.Interests,
		ProfileCompleted: user.ProfileCompleted,
		Verified:         user.Verified,
		VerifiedAt:       user.VerifiedAt,
	}
	if media != nil && user.PhotoKey != "" {
		if url, err := media.PhotoURL(ctx, user.PhotoKey); err == nil {
			response.PhotoURL = url
		}
	}
	return response
}
