package services

import (
	"context"
	"time"

	"skillswap-backend/internal/push"
)

// notifyTimeout bounds one background notification batch
const notifyTimeout = 15 * time.Second

type notification struct {
	userID string
	msg    push.Message
}

// notifyAsync hands notes to n in order on a separate goroutine. The batch
// outlives the caller's request but not notifyTimeout.
func notifyAsync(ctx context.Context, n push.Notifier, notes ...notification) {
	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	go func() {
		defer cancel()
		for _, note := range notes {
			n.Notify(bg, note.userID, note.msg)
		}
	}()
}
