package handlers

import (
	"net/http"

	"skillswap-backend/internal/middleware"
	"skillswap-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// SkillHandler handles skill post HTTP requests
type SkillHandler struct {
	skillService *services.SkillService
}

// NewSkillHandler creates a new skill handler
func NewSkillHandler(skillService *services.SkillService) *SkillHandler {
	return &SkillHandler{skillService: skillService}
}

// CreatePost handles POST /api/v1/skills
func (h *SkillHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := middleware.GetIdentity(ctx)

	var req services.PostSkillInput
	if !decodeBody(w, r, &req) {
		return
	}

	post, err := h.skillService.Post(ctx, identity, req)
	if err != nil {
		respondServiceError(w, err, "create skill post")
		return
	}

	log.Info().
		Str("user_id", identity.UserID).
		Str("post_id", post.ID).
		Str("type", string(post.Kind)).
		Msg("Skill post created")

	respondJSON(w, http.StatusCreated, post)
}

// ListPosts handles GET /api/v1/skills
func (h *SkillHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.skillService.List(r.Context())
	if err != nil {
		respondServiceError(w, err, "list skill posts")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"skills": posts})
}
