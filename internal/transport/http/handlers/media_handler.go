package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"

	authsvc "github.com/ivankudzin/sparkmatch/internal/services/auth"
	mediasvc "github.com/ivankudzin/sparkmatch/internal/services/media"
	"github.com/ivankudzin/sparkmatch/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/sparkmatch/internal/transport/http/errors"
)

const maxPhotoUploadSize = 10 << 20 // 10 MiB

type MediaHandler struct {
	service *mediasvc.Service
}

func NewMediaHandler(service *mediasvc.Service) *MediaHandler {
	return &MediaHandler{service: service}
}

func (h *MediaHandler) PhotoUpload(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MEDIA_SERVICE_UNAVAILABLE", "media service is unavailable")
		return
	}

	file, header, ok := formFile(w, r, "file")
	if !ok {
		return
	}
	defer file.Close()

	photo, err := h.service.UploadProfilePhoto(
		r.Context(),
		identity.UserID,
		header.Filename,
		header.Header.Get("Content-Type"),
		file,
		header.Size,
	)
	if err != nil {
		if errors.Is(err, mediasvc.ErrValidation) {
			writeBadRequest(w, "VALIDATION_ERROR", "invalid photo upload")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to upload photo")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.PhotoUploadResponse{
		Key: photo.Key,
		URL: photo.URL,
	})
}

// formFile extracts one uploaded file, writing the error response itself
// when the form is unusable.
func formFile(w http.ResponseWriter, r *http.Request, field string) (multipart.File, *multipart.FileHeader, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoUploadSize)
	if err := r.ParseMultipartForm(maxPhotoUploadSize); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid multipart form")
		return nil, nil, false
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", field+" is required")
		return nil, nil, false
	}
	if header == nil || header.Size <= 0 {
		_ = file.Close()
		writeBadRequest(w, "VALIDATION_ERROR", field+" is empty")
		return nil, nil, false
	}
	return file, header, true
}
