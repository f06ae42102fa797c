package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"skillswap-backend/internal/models"
	"skillswap-backend/internal/push"
	"skillswap-backend/internal/repository"
	"skillswap-backend/internal/store"
	"skillswap-backend/internal/usercache"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// countingStore counts calls that reach the backend
type countingStore struct {
	store.Store
	reads  atomic.Int32
	writes atomic.Int32
}

func (c *countingStore) Get(ctx context.Context, path string) (*store.Document, error) {
	c.reads.Add(1)
	return c.Store.Get(ctx, path)
}

func (c *countingStore) GetMany(ctx context.Context, q store.Query) ([]store.Document, error) {
	c.reads.Add(1)
	return c.Store.GetMany(ctx, q)
}

func (c *countingStore) Create(ctx context.Context, collection string, fields store.Fields) (string, error) {
	c.writes.Add(1)
	return c.Store.Create(ctx, collection, fields)
}

func (c *countingStore) CreateIfAbsent(ctx context.Context, path string, fields store.Fields) error {
	c.writes.Add(1)
	return c.Store.CreateIfAbsent(ctx, path, fields)
}

func (c *countingStore) Set(ctx context.Context, path string, fields store.Fields, opts store.SetOptions) error {
	c.writes.Add(1)
	return c.Store.Set(ctx, path, fields, opts)
}

type sentNotification struct {
	UserID string
	Msg    push.Message
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (r *recordingNotifier) Notify(ctx context.Context, userID string, msg push.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentNotification{UserID: userID, Msg: msg})
}

func (r *recordingNotifier) all() []sentNotification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sentNotification(nil), r.sent...)
}

// waitN blocks until n notifications were delivered
func (r *recordingNotifier) waitN(t *testing.T, n int) []sentNotification {
	t.Helper()
	require.Eventually(t, func() bool { return len(r.all()) >= n }, 5*time.Second, 5*time.Millisecond)
	notes := r.all()
	require.Len(t, notes, n)
	return notes
}

// to returns the notifications delivered to userID
func (r *recordingNotifier) to(userID string) []sentNotification {
	var out []sentNotification
	for _, n := range r.all() {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

// blockingNotifier holds every Notify until release is closed
type blockingNotifier struct {
	release chan struct{}
	calls   atomic.Int32
}

func (b *blockingNotifier) Notify(ctx context.Context, userID string, msg push.Message) {
	b.calls.Add(1)
	select {
	case <-b.release:
	case <-ctx.Done():
	}
}

type testEnv struct {
	store    *countingStore
	notifier *recordingNotifier
	users    *repository.UserRepository

	userService    *UserService
	skillService   *SkillService
	requestService *RequestService
	chatService    *ChatService
	ratingService  *RatingService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st := &countingStore{Store: store.NewMemory()}
	notifier := &recordingNotifier{}
	userRepo := repository.NewUserRepository(st)

	userService := NewUserService(userRepo, repository.NewCredentialRepository(st), "test-secret", time.Hour)
	userService.hashCost = bcrypt.MinCost

	return &testEnv{
		store:          st,
		notifier:       notifier,
		users:          userRepo,
		userService:    userService,
		skillService:   NewSkillService(st, repository.NewSkillRepository(st)),
		requestService: NewRequestService(st, repository.NewRequestRepository(st), notifier),
		chatService:    NewChatService(st, repository.NewChatRepository(st), usercache.New(userRepo), notifier),
		ratingService:  NewRatingService(st, repository.NewRatingRepository(st)),
	}
}

func (e *testEnv) addUser(t *testing.T, id, name string) models.Identity {
	t.Helper()
	require.NoError(t, e.users.Create(context.Background(), &models.User{
		ID:          id,
		Email:       id + "@example.com",
		DisplayName: name,
	}))
	return models.Identity{UserID: id, DisplayName: name}
}

func (e *testEnv) count(t *testing.T, collection string) int {
	t.Helper()
	docs, err := e.store.Store.GetMany(context.Background(), store.Query{Collection: collection})
	require.NoError(t, err)
	return len(docs)
}

func (e *testEnv) resetCounts() {
	e.store.reads.Store(0)
	e.store.writes.Store(0)
}

func waitFor[T any](t *testing.T, ch <-chan T, ok func(T) bool) T {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case v := <-ch:
			if ok(v) {
				return v
			}
		case <-deadline:
			t.Fatal("timed out waiting for snapshot")
			var zero T
			return zero
		}
	}
}
