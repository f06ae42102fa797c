// Package push delivers best-effort notifications to users' devices.
package push

import (
	"context"
	"errors"
	"strings"

	"skillswap-backend/internal/common"
	"skillswap-backend/internal/models"

	"github.com/rs/zerolog/log"
)

// Message is one notification
type Message struct {
	Title    string
	Body     string
	Category string
}

// Sender delivers a message to one device token
type Sender interface {
	Send(ctx context.Context, token string, msg Message) error
}

// UserGetter is the part of the user repository the dispatcher needs
type UserGetter interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// Notifier is what services use to notify a user
type Notifier interface {
	Notify(ctx context.Context, userID string, msg Message)
}

// Dispatcher routes notifications to the provider matching a user's token
type Dispatcher struct {
	users UserGetter
	expo  Sender
	apns  Sender
}

// NewDispatcher creates a dispatcher. Either sender may be nil, in which case
// tokens of that kind are skipped.
func NewDispatcher(users UserGetter, expo, apns Sender) *Dispatcher {
	return &Dispatcher{users: users, expo: expo, apns: apns}
}

// Notify sends msg to userID's registered device. Failures are logged and
// never returned.
func (d *Dispatcher) Notify(ctx context.Context, userID string, msg Message) {
	logger := log.With().Str("user_id", userID).Str("category", msg.Category).Logger()

	user, err := d.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			logger.Debug().Msg("Skipping notification for unknown user")
		} else {
			logger.Warn().Err(err).Msg("Failed to load user for notification")
		}
		return
	}

	token := strings.TrimSpace(user.ExpoPushToken)
	if token == "" {
		logger.Debug().Msg("User has no push token")
		return
	}

	sender := d.apns
	if IsExpoToken(token) {
		sender = d.expo
	}
	if sender == nil {
		logger.Debug().Msg("No push provider configured for token")
		return
	}

	if err := sender.Send(ctx, token, msg); err != nil {
		logger.Warn().Err(err).Msg("Failed to send notification")
		return
	}
	logger.Debug().Msg("Notification sent")
}

// IsExpoToken reports whether token was issued by Expo
func IsExpoToken(token string) bool {
	return strings.HasPrefix(token, "ExponentPushToken[")
}

// Nop discards every notification
type Nop struct{}

// Notify implements Notifier
func (Nop) Notify(context.Context, string, Message) {}
