// Package usercache resolves user ids to display names, reading each user
// from the store at most once per process.
package usercache

import (
	"context"
	"errors"
	"sync"

	"skillswap-backend/internal/common"
	"skillswap-backend/internal/models"

	"github.com/rs/zerolog/log"
)

// UserGetter is the part of the user repository the cache needs
type UserGetter interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// Cache maps user ids to display names
type Cache struct {
	users UserGetter
	mu    sync.RWMutex
	names map[string]string
}

// New creates an empty cache over users
func New(users UserGetter) *Cache {
	return &Cache{
		users: users,
		names: make(map[string]string),
	}
}

// Resolve returns the display name of id, falling back to the email and then
// to models.UnknownUser. Missing users are not remembered, so a profile
// created later resolves on the next call.
func (c *Cache) Resolve(ctx context.Context, id string) string {
	c.mu.RLock()
	name, ok := c.names[id]
	c.mu.RUnlock()
	if ok {
		return name
	}

	user, err := c.users.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			log.Warn().Err(err).Str("user_id", id).Msg("Failed to resolve user name")
		}
		return models.UnknownUser
	}

	name = user.Name()
	c.mu.Lock()
	c.names[id] = name
	c.mu.Unlock()
	return name
}
