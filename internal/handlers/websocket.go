package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"skillswap-backend/internal/common"
	"skillswap-backend/internal/livequery"
	"skillswap-backend/internal/middleware"
	"skillswap-backend/internal/models"
	"skillswap-backend/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Live query names accepted in subscribe frames
const (
	QuerySkills   = "skills"
	QueryRequests = "requests"
	QueryChats    = "chats"
	QueryMessages = "messages"
	QueryRatings  = "ratings"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler serves live queries over WebSocket
type WebSocketHandler struct {
	hub            *services.WSHub
	validator      middleware.TokenValidator
	skillService   *services.SkillService
	requestService *services.RequestService
	chatService    *services.ChatService
	ratingService  *services.RatingService
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(
	hub *services.WSHub,
	validator middleware.TokenValidator,
	skillService *services.SkillService,
	requestService *services.RequestService,
	chatService *services.ChatService,
	ratingService *services.RatingService,
) *WebSocketHandler {
	return &WebSocketHandler{
		hub:            hub,
		validator:      validator,
		skillService:   skillService,
		requestService: requestService,
		chatService:    chatService,
		ratingService:  ratingService,
	}
}

// HandleWebSocket handles WebSocket connections
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.ValidateWebSocketToken(r.URL.Query().Get("token"), h.validator)
	if err != nil {
		respondError(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	session := h.hub.Register(identity.UserID, conn)
	defer h.hub.Unregister(session)

	ctx := r.Context()
	log.Info().Str("user_id", identity.UserID).Msg("WebSocket connection established")

	for {
		_, messageBytes, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("user_id", identity.UserID).Msg("WebSocket error")
			}
			break
		}

		var msg services.WSMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			log.Debug().Err(err).Str("user_id", identity.UserID).Msg("Failed to parse WebSocket message")
			session.SendError("", "Invalid message format")
			continue
		}

		if err := h.handleMessage(ctx, *identity, session, msg); err != nil {
			log.Debug().Err(err).Str("user_id", identity.UserID).Str("type", msg.Type).Msg("Failed to handle message")
			session.SendError(msg.ID, err.Error())
		}
	}
}

// handleMessage processes incoming WebSocket messages
func (h *WebSocketHandler) handleMessage(ctx context.Context, identity models.Identity, session *services.WSSession, msg services.WSMessage) error {
	if msg.ID == "" {
		return common.Invalid("id is required")
	}

	switch msg.Type {
	case services.WSSubscribe:
		sub, err := h.subscribe(ctx, identity.UserID, session, msg)
		if err != nil {
			return err
		}
		session.Attach(msg.ID, sub)
		return nil
	case services.WSUnsubscribe:
		session.Detach(msg.ID)
		return nil
	default:
		return common.Invalid("unknown message type %q", msg.Type)
	}
}

// subscribe opens the live query named by msg, streaming snapshots to session
func (h *WebSocketHandler) subscribe(ctx context.Context, me string, session *services.WSSession, msg services.WSMessage) (*livequery.Subscription, error) {
	opts := livequery.Options{
		OnError: func(err error) {
			session.SendError(msg.ID, "live query ended: "+err.Error())
		},
	}

	switch msg.Query {
	case QuerySkills:
		return h.skillService.WatchFeed(ctx, snapshotTo[[]*models.SkillPost](session, msg.ID), opts)
	case QueryRequests:
		return h.requestService.Watch(ctx, me, snapshotTo[[]*models.ConnectionRequest](session, msg.ID), opts)
	case QueryChats:
		return h.chatService.WatchThreads(ctx, me, snapshotTo[[]*models.ThreadView](session, msg.ID), opts)
	case QueryMessages:
		return h.chatService.WatchMessages(ctx, me, msg.OtherID, snapshotTo[[]*models.Message](session, msg.ID), opts)
	case QueryRatings:
		return h.ratingService.WatchReceived(ctx, me, snapshotTo[[]*models.Rating](session, msg.ID), opts)
	default:
		return nil, common.Invalid("unknown query %q", msg.Query)
	}
}

func snapshotTo[T any](session *services.WSSession, id string) func(T) {
	return func(data T) {
		if err := session.Send(services.WSMessage{Type: services.WSSnapshot, ID: id, Data: data}); err != nil {
			log.Debug().Err(err).Str("user_id", session.UserID).Str("id", id).Msg("Failed to send snapshot")
		}
	}
}
