package push

import (
	"context"
	"fmt"
	"net/http"
	"time"

	expo "github.com/oliveroneill/exponent-server-sdk-golang/sdk"
)

// ExpoSender sends through the Expo push service
type ExpoSender struct {
	client *expo.PushClient
}

// expoTimeout bounds one publish call
const expoTimeout = 10 * time.Second

// NewExpoSender creates an Expo sender. An empty host uses Expo's public API.
func NewExpoSender(host string) *ExpoSender {
	return &ExpoSender{client: expo.NewPushClient(&expo.ClientConfig{
		Host:       host,
		HTTPClient: &http.Client{Timeout: expoTimeout},
	})}
}

// Send implements Sender. The SDK has no context support, so ctx is only
// checked before the request.
func (s *ExpoSender) Send(ctx context.Context, token string, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	to, err := expo.NewExponentPushToken(token)
	if err != nil {
		return fmt.Errorf("invalid expo token: %w", err)
	}

	pushMessage := &expo.PushMessage{
		To:       []expo.ExponentPushToken{to},
		Title:    msg.Title,
		Body:     msg.Body,
		Sound:    "default",
		Priority: expo.HighPriority,
		Data: map[string]string{
			"category": msg.Category,
		},
	}

	response, err := s.client.Publish(pushMessage)
	if err != nil {
		return fmt.Errorf("failed to publish expo message: %w", err)
	}
	if err := response.ValidateResponse(); err != nil {
		return fmt.Errorf("expo rejected message: %w", err)
	}
	return nil
}
