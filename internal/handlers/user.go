package handlers

import (
	"net/http"

	"skillswap-backend/internal/middleware"
	"skillswap-backend/internal/services"
)

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// Register handles POST /api/v1/users
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterInput
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.userService.Register(r.Context(), req)
	if err != nil {
		respondServiceError(w, err, "register user")
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

// Login handles POST /api/v1/sessions
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req services.LoginInput
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.userService.Login(r.Context(), req)
	if err != nil {
		respondServiceError(w, err, "log in")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Me handles GET /api/v1/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := h.userService.Me(ctx, middleware.GetUserID(ctx))
	if err != nil {
		respondServiceError(w, err, "get profile")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// AddSkillRequest represents the request body for adding a skill label
type AddSkillRequest struct {
	Skill string `json:"skill"`
}

// AddSkill handles POST /api/v1/me/skills
func (h *UserHandler) AddSkill(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req AddSkillRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := h.userService.AddSkill(ctx, middleware.GetUserID(ctx), req.Skill)
	if err != nil {
		respondServiceError(w, err, "add skill")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// ChangePhotoRequest represents the request body for changing the avatar
type ChangePhotoRequest struct {
	PhotoBase64 string `json:"photo_base64"`
	PhotoURL    string `json:"photo_url"`
}

// ChangePhoto handles PUT /api/v1/me/photo
func (h *UserHandler) ChangePhoto(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ChangePhotoRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.userService.ChangePhoto(ctx, middleware.GetUserID(ctx), req.PhotoBase64, req.PhotoURL); err != nil {
		respondServiceError(w, err, "change photo")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PushTokenRequest represents the request body for registering a device
type PushTokenRequest struct {
	Token string `json:"token"`
}

// UpdatePushToken handles PUT /api/v1/me/push-token
func (h *UserHandler) UpdatePushToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req PushTokenRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.userService.UpdatePushToken(ctx, middleware.GetUserID(ctx), req.Token); err != nil {
		respondServiceError(w, err, "update push token")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SearchUsers handles GET /api/v1/users?search=
func (h *UserHandler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	users, err := h.userService.SearchUsers(ctx, middleware.GetUserID(ctx), r.URL.Query().Get("search"))
	if err != nil {
		respondServiceError(w, err, "search users")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}
