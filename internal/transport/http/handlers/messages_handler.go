package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ivankudzin/sparkmatch/internal/domain/model"
	authsvc "github.com/ivankudzin/sparkmatch/internal/services/auth"
	messagessvc "github.com/ivankudzin/sparkmatch/internal/services/messages"
	"github.com/ivankudzin/sparkmatch/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/sparkmatch/internal/transport/http/errors"
)

type MessagesHandler struct {
	service *messagessvc.Service
}

func NewMessagesHandler(service *messagessvc.Service) *MessagesHandler {
	return &MessagesHandler{service: service}
}

func (h *MessagesHandler) Send(w http.ResponseWriter, r *http.Request) {
	identity, matchID, ok := h.requireConversation(w, r)
	if !ok {
		return
	}

	var req dto.SendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	message, err := h.service.Send(r.Context(), identity.UserID, matchID, req.Text)
	if err != nil {
		handleMessagesError(w, err, "failed to send message")
		return
	}

	httperrors.Write(w, http.StatusOK, messageResponse(message))
}

func (h *MessagesHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, matchID, ok := h.requireConversation(w, r)
	if !ok {
		return
	}

	messages, err := h.service.ListForMatch(r.Context(), identity.UserID, matchID, parseIntOrDefault(r.URL.Query().Get("limit"), 200))
	if err != nil {
		handleMessagesError(w, err, "failed to load messages")
		return
	}

	httperrors.Write(w, http.StatusOK, messagesResponse(messages))
}

func (h *MessagesHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	identity, matchID, ok := h.requireConversation(w, r)
	if !ok {
		return
	}

	affected, err := h.service.MarkRead(r.Context(), identity.UserID, matchID)
	if err != nil {
		handleMessagesError(w, err, "failed to mark messages read")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.MarkReadResponse{OK: true, Affected: affected})
}

// Events streams the conversation as server-sent events: one full
// snapshot on connect, then one per committed change.
func (h *MessagesHandler) Events(w http.ResponseWriter, r *http.Request) {
	identity, matchID, ok := h.requireConversation(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeInternal(w, "STREAMING_UNSUPPORTED", "response writer does not support streaming")
		return
	}

	snapshots, stop, err := h.service.Subscribe(r.Context(), identity.UserID, matchID)
	if err != nil {
		handleMessagesError(w, err, "failed to subscribe to messages")
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
			writeSSEEvent(w, flusher, "messages", messagesResponse(snapshot))
		}
	}
}

func (h *MessagesHandler) requireConversation(w http.ResponseWriter, r *http.Request) (authsvc.Identity, int64, bool) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return authsvc.Identity{}, 0, false
	}
	if h.service == nil {
		writeInternal(w, "MESSAGES_SERVICE_UNAVAILABLE", "messages service is unavailable")
		return authsvc.Identity{}, 0, false
	}

	matchID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || matchID <= 0 {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid match id")
		return authsvc.Identity{}, 0, false
	}

	return identity, matchID, true
}

func handleMessagesError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, messagessvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "invalid message request")
	case errors.Is(err, messagessvc.ErrNotFound):
		writeNotFound(w, "NOT_FOUND", "match not found")
	case errors.Is(err, messagessvc.ErrForbidden):
		writeForbidden(w, "FORBIDDEN", "you are not part of this match")
	default:
		writeInternal(w, "INTERNAL_ERROR", fallback)
	}
}

func messagesResponse(messages []model.Message) dto.MessagesResponse {
	items := make([]dto.MessageResponse, 0, len(messages))
	for _, message := range messages {
		items = append(items, messageResponse(message))
	}
	return dto.MessagesResponse{Items: items}
}

func messageResponse(message model.Message) dto.MessageResponse {
	return dto.MessageResponse{
		ID:         message.ID,
		MatchID:    message.MatchID,
		SenderID:   message.SenderID,
		ReceiverID: message.ReceiverID,
		Text:       message.Text,
		SentAt:     message.SentAt,
		Read:       message.Read,
	}
}
