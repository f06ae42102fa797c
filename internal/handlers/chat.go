package handlers

import (
	"net/http"

	"skillswap-backend/internal/middleware"
	"skillswap-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

// ChatHandler handles chat HTTP requests
type ChatHandler struct {
	chatService *services.ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *services.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// OpenThread handles POST /api/v1/chats/{other_id}
func (h *ChatHandler) OpenThread(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	thread, err := h.chatService.OpenThread(ctx, middleware.GetUserID(ctx), chi.URLParam(r, "other_id"))
	if err != nil {
		respondServiceError(w, err, "open thread")
		return
	}
	respondJSON(w, http.StatusOK, thread)
}

// ListThreads handles GET /api/v1/chats
func (h *ChatHandler) ListThreads(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	threads, err := h.chatService.ListThreads(ctx, middleware.GetUserID(ctx))
	if err != nil {
		respondServiceError(w, err, "list threads")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"chats": threads})
}

// ListMessages handles GET /api/v1/chats/{other_id}/messages
func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	msgs, err := h.chatService.ListMessages(ctx, middleware.GetUserID(ctx), chi.URLParam(r, "other_id"))
	if err != nil {
		respondServiceError(w, err, "list messages")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"messages": msgs})
}

// SendMessageRequest represents the request body for sending a message
type SendMessageRequest struct {
	Text string `json:"text"`
}

// SendMessage handles POST /api/v1/chats/{other_id}/messages
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req SendMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}

	msg, err := h.chatService.Send(ctx, middleware.GetIdentity(ctx), chi.URLParam(r, "other_id"), req.Text)
	if err != nil {
		respondServiceError(w, err, "send message")
		return
	}
	if msg == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respondJSON(w, http.StatusCreated, msg)
}
