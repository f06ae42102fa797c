package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"skillswap-backend/internal/common"
	"skillswap-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsers map[string]*models.User

func (f fakeUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := f[id]
	if !ok {
		return nil, fmt.Errorf("failed to get user: %w", common.ErrNotFound)
	}
	return u, nil
}

type fakeSender struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (f *fakeSender) Send(ctx context.Context, token string, msg Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, token+"|"+msg.Title)
	return f.err
}

func TestDispatcherRoutesByToken(t *testing.T) {
	users := fakeUsers{
		"expo":   {ID: "expo", ExpoPushToken: "ExponentPushToken[abc]"},
		"native": {ID: "native", ExpoPushToken: "a1b2c3"},
		"none":   {ID: "none"},
	}
	expoSender := &fakeSender{}
	apnsSender := &fakeSender{}
	d := NewDispatcher(users, expoSender, apnsSender)
	ctx := context.Background()

	d.Notify(ctx, "expo", Message{Title: "hi"})
	d.Notify(ctx, "native", Message{Title: "yo"})
	d.Notify(ctx, "none", Message{Title: "x"})
	d.Notify(ctx, "ghost", Message{Title: "x"})

	assert.Equal(t, []string{"ExponentPushToken[abc]|hi"}, expoSender.sent)
	assert.Equal(t, []string{"a1b2c3|yo"}, apnsSender.sent)
}

func TestDispatcherSwallowsErrors(t *testing.T) {
	users := fakeUsers{"u1": {ID: "u1", ExpoPushToken: "ExponentPushToken[abc]"}}
	d := NewDispatcher(users, &fakeSender{err: errors.New("down")}, nil)

	assert.NotPanics(t, func() {
		d.Notify(context.Background(), "u1", Message{Title: "hi"})
	})
}

func TestDispatcherWithoutAPNs(t *testing.T) {
	users := fakeUsers{"u1": {ID: "u1", ExpoPushToken: "a1b2c3"}}
	expoSender := &fakeSender{}
	d := NewDispatcher(users, expoSender, nil)

	d.Notify(context.Background(), "u1", Message{Title: "hi"})
	assert.Empty(t, expoSender.sent)
}

func TestIsExpoToken(t *testing.T) {
	assert.True(t, IsExpoToken("ExponentPushToken[xyz]"))
	assert.False(t, IsExpoToken("740f4707bebcf74f9b7c25d48e3358945f6aa01da5ddb387462c7eaf61bb78ad"))
	assert.False(t, IsExpoToken(""))
}

func TestExpoSenderPublishes(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var msgs []map[string]any
		_ = json.Unmarshal(body, &msgs)
		if len(msgs) > 0 {
			got = msgs[0]
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"status":"ok","id":"1"}]}`))
	}))
	defer srv.Close()

	s := NewExpoSender(srv.URL)
	err := s.Send(context.Background(), "ExponentPushToken[abc]", Message{
		Title:    "New Message from Ana",
		Body:     "hello",
		Category: "chat",
	})
	require.NoError(t, err)
	assert.Equal(t, "New Message from Ana", got["title"])
	assert.Equal(t, "hello", got["body"])
}

func TestExpoSenderRejectsBadToken(t *testing.T) {
	s := NewExpoSender("http://127.0.0.1:1")
	err := s.Send(context.Background(), "not-a-token", Message{Title: "x"})
	assert.Error(t, err)
}

func TestBuildPayload(t *testing.T) {
	raw, err := json.Marshal(buildPayload(Message{Title: "New skill request", Body: "Ana is interested in Guitar", Category: "request"}))
	require.NoError(t, err)

	var decoded struct {
		APS struct {
			Alert struct {
				Title string `json:"title"`
				Body  string `json:"body"`
			} `json:"alert"`
			Sound string `json:"sound"`
		} `json:"aps"`
		Category string `json:"category"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "New skill request", decoded.APS.Alert.Title)
	assert.Equal(t, "Ana is interested in Guitar", decoded.APS.Alert.Body)
	assert.Equal(t, "default", decoded.APS.Sound)
	assert.Equal(t, "request", decoded.Category)
}
