package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ivankudzin/sparkmatch/internal/domain/model"
	authsvc "github.com/ivankudzin/sparkmatch/internal/services/auth"
	matchessvc "github.com/ivankudzin/sparkmatch/internal/services/matches"
	mediasvc "github.com/ivankudzin/sparkmatch/internal/services/media"
	"github.com/ivankudzin/sparkmatch/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/sparkmatch/internal/transport/http/errors"
)

type MatchesHandler struct {
	service *matchessvc.Service
	media   *mediasvc.Service
}

func NewMatchesHandler(service *matchessvc.Service, media *mediasvc.Service) *MatchesHandler {
	return &MatchesHandler{service: service, media: media}
}

func (h *MatchesHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MATCHES_SERVICE_UNAVAILABLE", "matches service is unavailable")
		return
	}

	matches, err := h.service.List(r.Context(), identity.UserID, parseIntOrDefault(r.URL.Query().Get("limit"), 100))
	if err != nil {
		if errors.Is(err, matchessvc.ErrValidation) {
			writeBadRequest(w, "VALIDATION_ERROR", "invalid matches request")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to load matches")
		return
	}

	httperrors.Write(w, http.StatusOK, matchesResponse(r.Context(), h.media, matches))
}

// Events streams the caller's match list as server-sent events: one full
// snapshot on connect, then one per committed change.
func (h *MatchesHandler) Events(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MATCHES_SERVICE_UNAVAILABLE", "matches service is unavailable")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeInternal(w, "STREAMING_UNSUPPORTED", "response writer does not support streaming")
		return
	}

	snapshots, stop, err := h.service.Subscribe(r.Context(), identity.UserID)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to subscribe to matches")
		return
	}
	defer stop()

	writeSSEHeaders(w)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case snapshot, open := <-snapshots:
			if !open {
				return
			}
			writeSSEEvent(w, flusher, "matches", matchesResponse(r.Context(), h.media, snapshot))
		}
	}
}

// Sweep removes the caller's expired silent matches on demand, same rule
// as the background job.
func (h *MatchesHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MATCHES_SERVICE_UNAVAILABLE", "matches service is unavailable")
		return
	}

	removed, err := h.service.SweepExpired(r.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, matchessvc.ErrValidation) {
			writeBadRequest(w, "VALIDATION_ERROR", "invalid sweep request")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to sweep matches")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.SweepResponse{Removed: removed})
}

func (h *MatchesHandler) Unmatch(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MATCHES_SERVICE_UNAVAILABLE", "matches service is unavailable")
		return
	}

	var req dto.UnmatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	deleted, err := h.service.Unmatch(r.Context(), identity.UserID, req.MatchID)
	if err != nil {
		if errors.Is(err, matchessvc.ErrValidation) {
			writeBadRequest(w, "VALIDATION_ERROR", "invalid unmatch request")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to unmatch")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.UnmatchResponse{OK: true, Deleted: deleted})
}

func matchesResponse(ctx context.Context, media *mediasvc.Service, matches []model.Match) dto.MatchesResponse {
	items := make([]dto.MatchResponse, 0, len(matches))
	for _, match := range matches {
		items = append(items, matchResponse(ctx, media, match))
	}
	return dto.MatchesResponse{Items: items}
}

func matchResponse(ctx context.Context, media *mediasvc.Service, match model.Match) dto.MatchResponse {
	response := dto.MatchResponse{
		ID:              match.ID,
		TargetUserID:    match.TargetUserID,
		TargetName:      match.TargetName,
		TargetAge:       match.TargetAge,
		TargetBio:       match.TargetBio,
		TargetInterests: match.TargetInterests,
		IceBreaker:      match.IceBreaker,
		MatchedAt:       match.MatchedAt,
		ExpiresAt:       match.ExpiresAt,
		MessageCount:    match.MessageCount,
		Status:          match.Status,
	}
	if media != nil && match.TargetPhotoKey != "" {
		if url, err := media.PhotoURL(ctx, match.TargetPhotoKey); err == nil {
			response.TargetPhotoURL = url
		}
	}
	return response
}

func writeSSEHeaders(w http.ResponseWriter) {
	// The stream must outlive the server's WriteTimeout, which covers the
	// whole response. Writers that cannot lift the deadline keep it.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
}

func writeSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	flusher.Flush()
}
