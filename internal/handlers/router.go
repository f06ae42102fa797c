package handlers

import (
	"net/http"

	"skillswap-backend/internal/middleware"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Handlers groups every HTTP handler of the API
type Handlers struct {
	User      *UserHandler
	Skill     *SkillHandler
	Request   *RequestHandler
	Chat      *ChatHandler
	Rating    *RatingHandler
	Media     *MediaHandler
	WebSocket *WebSocketHandler
}

// NewRouter builds the chi router serving the API
func NewRouter(h Handlers, validator middleware.TokenValidator) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)

	// Routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/users", h.User.Register)
		r.Post("/sessions", h.User.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(validator))

			r.Get("/me", h.User.Me)
			r.Post("/me/skills", h.User.AddSkill)
			r.Put("/me/photo", h.User.ChangePhoto)
			r.Put("/me/push-token", h.User.UpdatePushToken)
			r.Get("/users", h.User.SearchUsers)

			r.Post("/skills", h.Skill.CreatePost)
			r.Get("/skills", h.Skill.ListPosts)

			r.Post("/requests", h.Request.CreateRequest)
			r.Get("/requests", h.Request.ListRequests)

			r.Get("/chats", h.Chat.ListThreads)
			r.Post("/chats/{other_id}", h.Chat.OpenThread)
			r.Get("/chats/{other_id}/messages", h.Chat.ListMessages)
			r.Post("/chats/{other_id}/messages", h.Chat.SendMessage)

			r.Post("/ratings", h.Rating.SubmitRating)
			r.Get("/ratings", h.Rating.ListRatings)

			if h.Media != nil {
				r.Post("/media/upload", h.Media.Upload)
			}
		})
	})

	// WebSocket route
	r.Get("/ws", h.WebSocket.HandleWebSocket)

	return r
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
