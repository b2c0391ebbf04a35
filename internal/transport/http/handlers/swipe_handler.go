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

type SwipeHandler struct {
	service *discoverysvc.Service
	media   *mediasvc.Service
}

func NewSwipeHandler(service *discoverysvc.Service, media *mediasvc.Service) *SwipeHandler {
	return &SwipeHandler{service: service, media: media}
}

func (h *SwipeHandler) Handle(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "DISCOVERY_SERVICE_UNAVAILABLE", "discovery service is unavailable")
		return
	}

	var req dto.SwipeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	result, err := h.service.Swipe(r.Context(), identity.UserID, req.TargetID, req.Action)
	if err != nil {
		switch {
		case errors.Is(err, discoverysvc.ErrInvalidAction):
			writeBadRequest(w, "VALIDATION_ERROR", "unknown swipe action")
		case errors.Is(err, discoverysvc.ErrUserNotFound):
			writeNotFound(w, "NOT_FOUND", "swipe target not found")
		case errors.Is(err, discoverysvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid swipe request")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to record swipe")
		}
		return
	}

	response := dto.SwipeResponse{Matched: result.Matched}
	if result.Matched {
		match := matchResponse(r.Context(), h.media, result.Match)
		response.Match = &match
	}

	httperrors.Write(w, http.StatusOK, response)
}
