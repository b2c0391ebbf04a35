package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	authsvc "github.com/ivankudzin/sparkmatch/internal/services/auth"
	mediasvc "github.com/ivankudzin/sparkmatch/internal/services/media"
	verificationsvc "github.com/ivankudzin/sparkmatch/internal/services/verification"
	"github.com/ivankudzin/sparkmatch/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/sparkmatch/internal/transport/http/errors"
)

type VerificationHandler struct {
	service *verificationsvc.Service
	media   *mediasvc.Service
	logger  *zap.Logger
}

func NewVerificationHandler(service *verificationsvc.Service, media *mediasvc.Service, logger *zap.Logger) *VerificationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VerificationHandler{service: service, media: media, logger: logger}
}

// Selfie accepts the verification selfie, archives it, and runs the
// face comparison against the profile photo. The selfie archive is
// best-effort; the comparison runs either way.
func (h *VerificationHandler) Selfie(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "VERIFICATION_SERVICE_UNAVAILABLE", "verification service is unavailable")
		return
	}

	file, header, ok := formFile(w, r, "selfie")
	if !ok {
		return
	}
	defer file.Close()

	if h.media != nil {
		if _, err := h.media.StoreSelfie(r.Context(), identity.UserID, header.Filename, header.Header.Get("Content-Type"), file, header.Size); err != nil {
			h.logger.Warn("failed to archive verification selfie", zap.Error(err), zap.Int64("user_id", identity.UserID))
		}
		if _, err := file.Seek(0, 0); err != nil {
			writeInternal(w, "INTERNAL_ERROR", "failed to read selfie")
			return
		}
	}

	result, err := h.service.Evaluate(r.Context(), identity.UserID, file)
	if err != nil {
		if errors.Is(err, verificationsvc.ErrValidation) {
			writeBadRequest(w, "VALIDATION_ERROR", "invalid verification request")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to run verification")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.VerificationResponse{
		Verified:   result.Verified,
		Confidence: result.Confidence,
		Threshold:  result.Threshold,
		Reason:     result.Reason,
		CheckedAt:  result.CheckedAt,
	})
}
