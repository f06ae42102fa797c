package repository

import (
	"context"
	"errors"
	"fmt"

	"skillswap-backend/internal/common"
	"skillswap-backend/internal/models"
	"skillswap-backend/internal/store"
)

const (
	chatsCollection    = "chats"
	messagesCollection = "messages"
)

// ChatRepository handles store operations for threads and their messages
type ChatRepository struct {
	st store.Store
}

// NewChatRepository creates a new chat repository
func NewChatRepository(st store.Store) *ChatRepository {
	return &ChatRepository{st: st}
}

// EnsureThread creates the thread document if it does not exist yet. It never
// overwrites an existing thread.
func (r *ChatRepository) EnsureThread(ctx context.Context, threadID string, participants []string) error {
	fields := store.Fields{
		"participants": participants,
		"lastMessage":  "",
		"updatedAt":    store.ServerTimestamp,
	}
	err := r.st.CreateIfAbsent(ctx, store.Join(chatsCollection, threadID), fields)
	if err != nil && !errors.Is(err, common.ErrAlreadyExists) {
		return fmt.Errorf("failed to create thread: %w", err)
	}
	return nil
}

// GetThread retrieves a thread by ID
func (r *ChatRepository) GetThread(ctx context.Context, threadID string) (*models.Thread, error) {
	doc, err := r.st.Get(ctx, store.Join(chatsCollection, threadID))
	if err != nil {
		return nil, fmt.Errorf("failed to get thread: %w", err)
	}
	return decodeThread(*doc), nil
}

// AppendMessage adds a message to a thread and returns its generated ID
func (r *ChatRepository) AppendMessage(ctx context.Context, threadID, userID, text string) (string, error) {
	fields := store.Fields{
		"text":      text,
		"userId":    userID,
		"createdAt": store.ServerTimestamp,
	}
	id, err := r.st.Create(ctx, messagesPath(threadID), fields)
	if err != nil {
		return "", fmt.Errorf("failed to append message: %w", err)
	}
	return id, nil
}

// Touch records the latest message on the thread summary
func (r *ChatRepository) Touch(ctx context.Context, threadID, lastMessage string) error {
	fields := store.Fields{
		"lastMessage": lastMessage,
		"updatedAt":   store.ServerTimestamp,
	}
	if err := r.st.Set(ctx, store.Join(chatsCollection, threadID), fields, store.Merge); err != nil {
		return fmt.Errorf("failed to update thread: %w", err)
	}
	return nil
}

// ListThreads retrieves threads the user participates in, most recent first
func (r *ChatRepository) ListThreads(ctx context.Context, userID string) ([]*models.Thread, error) {
	docs, err := r.st.GetMany(ctx, ThreadsQuery(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}
	return DecodeThreads(docs), nil
}

// ListMessages retrieves the messages of a thread, newest first
func (r *ChatRepository) ListMessages(ctx context.Context, threadID string) ([]*models.Message, error) {
	docs, err := r.st.GetMany(ctx, MessagesQuery(threadID))
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return DecodeMessages(threadID, docs), nil
}

// ThreadsQuery is the query behind a user's thread list
func ThreadsQuery(userID string) store.Query {
	return store.Query{Collection: chatsCollection}.
		Where(store.ArrayContains("participants", userID)).
		Desc("updatedAt")
}

// MessagesQuery is the query behind a thread's message list
func MessagesQuery(threadID string) store.Query {
	return store.Query{Collection: messagesPath(threadID)}.Desc("createdAt")
}

// DecodeThreads maps chats documents to threads
func DecodeThreads(docs []store.Document) []*models.Thread {
	threads := make([]*models.Thread, 0, len(docs))
	for _, doc := range docs {
		threads = append(threads, decodeThread(doc))
	}
	return threads
}

// DecodeMessages maps message documents of one thread to messages
func DecodeMessages(threadID string, docs []store.Document) []*models.Message {
	msgs := make([]*models.Message, 0, len(docs))
	for _, doc := range docs {
		msgs = append(msgs, &models.Message{
			ID:        doc.ID,
			ThreadID:  threadID,
			UserID:    doc.Fields.String("userId"),
			Text:      doc.Fields.String("text"),
			CreatedAt: doc.Fields.Time("createdAt"),
		})
	}
	return msgs
}

func decodeThread(doc store.Document) *models.Thread {
	return &models.Thread{
		ID:           doc.ID,
		Participants: nonNil(doc.Fields.Strings("participants")),
		LastMessage:  doc.Fields.String("lastMessage"),
		UpdatedAt:    doc.Fields.Time("updatedAt"),
	}
}

func messagesPath(threadID string) string {
	return store.Join(chatsCollection, threadID, messagesCollection)
}
