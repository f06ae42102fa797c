package handlers

import (
	"net/http"

	"skillswap-backend/internal/middleware"
	"skillswap-backend/internal/services"
)

// RequestHandler handles connection request HTTP requests
type RequestHandler struct {
	requestService *services.RequestService
}

// NewRequestHandler creates a new request handler
func NewRequestHandler(requestService *services.RequestService) *RequestHandler {
	return &RequestHandler{requestService: requestService}
}

// CreateRequest handles POST /api/v1/requests
func (h *RequestHandler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req services.CreateRequestInput
	if !decodeBody(w, r, &req) {
		return
	}

	created, err := h.requestService.Create(ctx, middleware.GetIdentity(ctx), req)
	if err != nil {
		respondServiceError(w, err, "create request")
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

// ListRequests handles GET /api/v1/requests
func (h *RequestHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	reqs, err := h.requestService.List(ctx, middleware.GetUserID(ctx))
	if err != nil {
		respondServiceError(w, err, "list requests")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"requests": reqs})
}
