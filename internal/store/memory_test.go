package store

import (
	"context"
	"testing"
	"time"

	"skillswap-backend/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMemory(t *testing.T) *Memory {
	t.Helper()
	m := NewMemory()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	n := 0
	m.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
	return m
}

func TestMemoryGetNotFound(t *testing.T) {
	m := newTestMemory(t)

	_, err := m.Get(context.Background(), "users/missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestMemoryCreateResolvesServerTimestamp(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory(t)

	id, err := m.Create(ctx, "skills", Fields{"title": "Guitar", "createdAt": ServerTimestamp})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	doc, err := m.Get(ctx, Join("skills", id))
	require.NoError(t, err)
	assert.Equal(t, "Guitar", doc.Fields.String("title"))
	assert.False(t, doc.Fields.Time("createdAt").IsZero())
}

func TestMemoryCreateIfAbsent(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory(t)

	require.NoError(t, m.CreateIfAbsent(ctx, "chats/a_b", Fields{"lastMessage": ""}))
	require.NoError(t, m.Set(ctx, "chats/a_b", Fields{"lastMessage": "hi"}, Merge))

	err := m.CreateIfAbsent(ctx, "chats/a_b", Fields{"lastMessage": ""})
	assert.ErrorIs(t, err, common.ErrAlreadyExists)

	doc, err := m.Get(ctx, "chats/a_b")
	require.NoError(t, err)
	assert.Equal(t, "hi", doc.Fields.String("lastMessage"))
}

func TestMemorySetMergeAndReplace(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory(t)

	require.NoError(t, m.Set(ctx, "users/u1", Fields{"email": "a@x.io", "displayName": "Ana"}, SetOptions{}))
	require.NoError(t, m.Set(ctx, "users/u1", Fields{"displayName": "Ana B"}, Merge))

	doc, err := m.Get(ctx, "users/u1")
	require.NoError(t, err)
	assert.Equal(t, "a@x.io", doc.Fields.String("email"))
	assert.Equal(t, "Ana B", doc.Fields.String("displayName"))

	require.NoError(t, m.Set(ctx, "users/u1", Fields{"displayName": "Z"}, SetOptions{}))
	doc, err = m.Get(ctx, "users/u1")
	require.NoError(t, err)
	assert.Empty(t, doc.Fields.String("email"))
}

func TestMemoryQueryFiltersAndOrder(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory(t)

	add := func(from, to, title string) {
		_, err := m.Create(ctx, "requests", Fields{
			"fromUserId":   from,
			"toUserId":     to,
			"skillTitle":   title,
			"participants": []string{from, to},
			"createdAt":    ServerTimestamp,
		})
		require.NoError(t, err)
	}
	add("u1", "u2", "Guitar")
	add("u3", "u1", "Piano")
	add("u2", "u3", "Chess")

	docs, err := m.GetMany(ctx, Query{Collection: "requests"}.
		Where(ArrayContains("participants", "u1")).
		Desc("createdAt"))
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "Piano", docs[0].Fields.String("skillTitle"))
	assert.Equal(t, "Guitar", docs[1].Fields.String("skillTitle"))

	docs, err = m.GetMany(ctx, Query{Collection: "requests"}.
		Where(ArrayContains("participants", "u1")).
		Where(Eq("toUserId", "u2")).
		Where(Eq("skillTitle", "Guitar")))
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	docs, err = m.GetMany(ctx, Query{Collection: "requests"}.
		Where(Eq("skillTitle", "guitar")))
	require.NoError(t, err)
	assert.Empty(t, docs)

	docs, err = m.GetMany(ctx, Query{Collection: "requests", Limit: 1}.Desc("createdAt"))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Chess", docs[0].Fields.String("skillTitle"))
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory(t)

	skills := []string{"Go"}
	require.NoError(t, m.Set(ctx, "users/u1", Fields{"skills": skills}, SetOptions{}))
	skills[0] = "Rust"

	doc, err := m.Get(ctx, "users/u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Go"}, doc.Fields.Strings("skills"))
}

func TestMemorySubscribe(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	m := newTestMemory(t)

	stream, err := m.Subscribe(ctx, Query{Collection: "skills"}.Desc("createdAt"))
	require.NoError(t, err)
	defer stream.Close()

	docs, err := stream.Next(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)

	_, err = m.Create(ctx, "ratings", Fields{"stars": 5})
	require.NoError(t, err)
	_, err = m.Create(ctx, "skills", Fields{"title": "Guitar", "createdAt": ServerTimestamp})
	require.NoError(t, err)

	docs, err = stream.Next(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Guitar", docs[0].Fields.String("title"))
}

func TestMemoryStreamClose(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory(t)

	stream, err := m.Subscribe(ctx, Query{Collection: "skills"})
	require.NoError(t, err)
	_, err = stream.Next(ctx)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := stream.Next(ctx)
		done <- err
	}()

	stream.Close()
	stream.Close()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Next did not return after Close")
	}

	m.mu.RLock()
	assert.Empty(t, m.watchers)
	m.mu.RUnlock()
}

func TestSplitDoc(t *testing.T) {
	collection, id := SplitDoc("chats/a_b/messages/m1")
	assert.Equal(t, "chats/a_b/messages", collection)
	assert.Equal(t, "m1", id)
}
