package push

import (
	"context"
	"fmt"

	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/certificate"
	"github.com/sideshow/apns2/payload"
)

// APNsSender sends native iOS device tokens through APNs
type APNsSender struct {
	client *apns2.Client
	topic  string
}

// NewAPNsSender loads a .p12 certificate and creates an APNs client
func NewAPNsSender(certFile, password, topic string, production bool) (*APNsSender, error) {
	cert, err := certificate.FromP12File(certFile, password)
	if err != nil {
		return nil, fmt.Errorf("failed to load apns certificate: %w", err)
	}

	client := apns2.NewClient(cert)
	if production {
		client = client.Production()
	} else {
		client = client.Development()
	}
	return &APNsSender{client: client, topic: topic}, nil
}

// Send implements Sender
func (s *APNsSender) Send(ctx context.Context, token string, msg Message) error {
	notification := &apns2.Notification{
		DeviceToken: token,
		Topic:       s.topic,
		Payload:     buildPayload(msg),
	}

	res, err := s.client.PushWithContext(ctx, notification)
	if err != nil {
		return fmt.Errorf("failed to push apns notification: %w", err)
	}
	if !res.Sent() {
		return fmt.Errorf("apns rejected notification: %d %s", res.StatusCode, res.Reason)
	}
	return nil
}

func buildPayload(msg Message) *payload.Payload {
	return payload.NewPayload().
		AlertTitle(msg.Title).
		AlertBody(msg.Body).
		Sound("default").
		Custom("category", msg.Category)
}
