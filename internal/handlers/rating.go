package handlers

import (
	"net/http"

	"skillswap-backend/internal/middleware"
	"skillswap-backend/internal/services"
)

// RatingHandler handles rating HTTP requests
type RatingHandler struct {
	ratingService *services.RatingService
}

// NewRatingHandler creates a new rating handler
func NewRatingHandler(ratingService *services.RatingService) *RatingHandler {
	return &RatingHandler{ratingService: ratingService}
}

// SubmitRating handles POST /api/v1/ratings
func (h *RatingHandler) SubmitRating(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req services.SubmitRatingInput
	if !decodeBody(w, r, &req) {
		return
	}

	rating, err := h.ratingService.Submit(ctx, middleware.GetIdentity(ctx), req)
	if err != nil {
		respondServiceError(w, err, "submit rating")
		return
	}
	respondJSON(w, http.StatusCreated, rating)
}

// ListRatings handles GET /api/v1/ratings
func (h *RatingHandler) ListRatings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ratings, err := h.ratingService.ListReceived(ctx, middleware.GetUserID(ctx))
	if err != nil {
		respondServiceError(w, err, "list ratings")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"ratings": ratings})
}
