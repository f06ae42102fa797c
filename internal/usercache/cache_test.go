package usercache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"skillswap-backend/internal/common"
	"skillswap-backend/internal/models"

	"github.com/stretchr/testify/assert"
)

type countingGetter struct {
	mu    sync.Mutex
	users map[string]*models.User
	calls map[string]int
	err   error
}

func (g *countingGetter) GetByID(ctx context.Context, id string) (*models.User, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls[id]++
	if g.err != nil {
		return nil, g.err
	}
	u, ok := g.users[id]
	if !ok {
		return nil, fmt.Errorf("failed to get user: %w", common.ErrNotFound)
	}
	return u, nil
}

func newGetter() *countingGetter {
	return &countingGetter{
		users: map[string]*models.User{
			"u1": {ID: "u1", DisplayName: "Ana", Email: "ana@x.io"},
			"u2": {ID: "u2", Email: "bo@x.io"},
			"u3": {ID: "u3"},
		},
		calls: map[string]int{},
	}
}

func TestResolveFallbacks(t *testing.T) {
	c := New(newGetter())
	ctx := context.Background()

	assert.Equal(t, "Ana", c.Resolve(ctx, "u1"))
	assert.Equal(t, "bo@x.io", c.Resolve(ctx, "u2"))
	assert.Equal(t, models.UnknownUser, c.Resolve(ctx, "u3"))
	assert.Equal(t, models.UnknownUser, c.Resolve(ctx, "nobody"))
}

func TestResolveReadsOnce(t *testing.T) {
	g := newGetter()
	c := New(g)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.Equal(t, "Ana", c.Resolve(ctx, "u1"))
	}
	assert.Equal(t, 1, g.calls["u1"])
}

func TestResolveDoesNotCacheMisses(t *testing.T) {
	g := newGetter()
	c := New(g)
	ctx := context.Background()

	assert.Equal(t, models.UnknownUser, c.Resolve(ctx, "u4"))

	g.mu.Lock()
	g.users["u4"] = &models.User{ID: "u4", DisplayName: "Cy"}
	g.mu.Unlock()

	assert.Equal(t, "Cy", c.Resolve(ctx, "u4"))
	assert.Equal(t, 2, g.calls["u4"])
}

func TestResolveStoreError(t *testing.T) {
	g := newGetter()
	g.err = errors.New("unavailable")
	c := New(g)

	assert.Equal(t, models.UnknownUser, c.Resolve(context.Background(), "u1"))
}

func TestResolveConcurrent(t *testing.T) {
	c := New(newGetter())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, "Ana", c.Resolve(ctx, "u1"))
		}()
	}
	wg.Wait()
}
