package handlers

import (
	"net/http"

	"skillswap-backend/internal/middleware"
	"skillswap-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// MediaHandler handles media upload HTTP requests
type MediaHandler struct {
	mediaService *services.MediaService
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(mediaService *services.MediaService) *MediaHandler {
	return &MediaHandler{mediaService: mediaService}
}

// Upload handles POST /api/v1/media/upload
func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req services.UploadRequest
	if !decodeBody(w, r, &req) {
		return
	}

	response, err := h.mediaService.PresignUpload(ctx, userID, req)
	if err != nil {
		respondServiceError(w, err, "generate upload URL")
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("key", response.Key).
		Msg("Pre-signed URL generated")

	respondJSON(w, http.StatusOK, response)
}
