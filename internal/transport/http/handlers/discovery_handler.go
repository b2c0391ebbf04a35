package handlers

import (
	"errors"
	"net/http"

	authsvc "github.com/ivankudzin/sparkmatch/internal/services/auth"
	discoverysvc "github.com/ivankudzin/sparkmatch/internal/services/discovery"
	mediasvc "github.com/ivankudzin/sparkmatch/internal/services/media"
	"github.com/ivankudzin/sparkmatch/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/sparkmatch/internal/transport/http/errors"
)

type DiscoveryHandler struct {
	service *discoverysvc.Service
	media   *mediasvc.Service
}

func NewDiscoveryHandler(service *discoverysvc.Service, media *mediasvc.Service) *DiscoveryHandler {
	return &DiscoveryHandler{service: service, media: media}
}

func (h *DiscoveryHandler) Candidates(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "DISCOVERY_SERVICE_UNAVAILABLE", "discovery service is unavailable")
		return
	}

	candidates, err := h.service.Candidates(r.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, discoverysvc.ErrValidation) {
			writeBadRequest(w, "VALIDATION_ERROR", "invalid candidates request")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to load candidates")
		return
	}

	items := make([]dto.UserResponse, 0, len(candidates))
	for _, candidate := range candidates {
		items = append(items, userResponse(r.Context(), h.media, candidate))
	}

	httperrors.Write(w, http.StatusOK, dto.CandidatesResponse{Items: items})
}
