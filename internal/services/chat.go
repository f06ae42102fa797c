package services

import (
	"context"
	"strings"
	"time"

	"skillswap-backend/internal/common"
	"skillswap-backend/internal/livequery"
	"skillswap-backend/internal/models"
	"skillswap-backend/internal/push"
	"skillswap-backend/internal/repository"
	"skillswap-backend/internal/store"
	"skillswap-backend/internal/usercache"

	"github.com/rs/zerolog/log"
)

// ChatService handles two-person threads and their messages
type ChatService struct {
	st       store.Store
	chatRepo *repository.ChatRepository
	names    *usercache.Cache
	notifier push.Notifier
}

// NewChatService creates a new chat service
func NewChatService(st store.Store, chatRepo *repository.ChatRepository, names *usercache.Cache, notifier push.Notifier) *ChatService {
	return &ChatService{st: st, chatRepo: chatRepo, names: names, notifier: notifier}
}

// OpenThread makes sure the thread between me and other exists
func (s *ChatService) OpenThread(ctx context.Context, me, other string) (*models.Thread, error) {
	threadID, participants, err := threadOf(me, other)
	if err != nil {
		return nil, err
	}

	if err := s.chatRepo.EnsureThread(ctx, threadID, participants); err != nil {
		return nil, err
	}
	return s.chatRepo.GetThread(ctx, threadID)
}

// Send appends a message to the thread with other and records it as the
// thread's last message. Text that is blank after trimming is ignored and
// returns a nil message; other text is stored as given.
func (s *ChatService) Send(ctx context.Context, actor models.Identity, other, text string) (*models.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	threadID, participants, err := threadOf(actor.UserID, other)
	if err != nil {
		return nil, err
	}

	if err := s.chatRepo.EnsureThread(ctx, threadID, participants); err != nil {
		return nil, err
	}

	id, err := s.chatRepo.AppendMessage(ctx, threadID, actor.UserID, text)
	if err != nil {
		return nil, err
	}

	if err := s.chatRepo.Touch(ctx, threadID, text); err != nil {
		return nil, err
	}

	log.Debug().Str("thread_id", threadID).Str("message_id", id).Msg("Message sent")

	notifyAsync(ctx, s.notifier, notification{userID: other, msg: push.Message{
		Title:    "New Message from " + actor.NameOr(models.DefaultName),
		Body:     text,
		Category: "chat",
	}})

	return &models.Message{
		ID:        id,
		ThreadID:  threadID,
		UserID:    actor.UserID,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// ListThreads returns my threads, most recently active first
func (s *ChatService) ListThreads(ctx context.Context, me string) ([]*models.ThreadView, error) {
	threads, err := s.chatRepo.ListThreads(ctx, me)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, me, threads), nil
}

// WatchThreads delivers my thread list, with the other participant's name,
// on every change
func (s *ChatService) WatchThreads(ctx context.Context, me string, onUpdate func([]*models.ThreadView), opts livequery.Options) (*livequery.Subscription, error) {
	return livequery.Subscribe(ctx, s.st, repository.ThreadsQuery(me),
		func(ctx context.Context, docs []store.Document) ([]*models.ThreadView, error) {
			return s.views(ctx, me, repository.DecodeThreads(docs)), nil
		}, onUpdate, opts)
}

// ListMessages returns the messages exchanged with other, newest first
func (s *ChatService) ListMessages(ctx context.Context, me, other string) ([]*models.Message, error) {
	threadID, _, err := threadOf(me, other)
	if err != nil {
		return nil, err
	}
	return s.chatRepo.ListMessages(ctx, threadID)
}

// WatchMessages delivers the messages exchanged with other on every change
func (s *ChatService) WatchMessages(ctx context.Context, me, other string, onUpdate func([]*models.Message), opts livequery.Options) (*livequery.Subscription, error) {
	threadID, _, err := threadOf(me, other)
	if err != nil {
		return nil, err
	}
	return livequery.Subscribe(ctx, s.st, repository.MessagesQuery(threadID),
		func(_ context.Context, docs []store.Document) ([]*models.Message, error) {
			return repository.DecodeMessages(threadID, docs), nil
		}, onUpdate, opts)
}

func (s *ChatService) views(ctx context.Context, me string, threads []*models.Thread) []*models.ThreadView {
	out := make([]*models.ThreadView, 0, len(threads))
	for _, t := range threads {
		other := t.Other(me)
		out = append(out, &models.ThreadView{
			Thread:        *t,
			OtherUserID:   other,
			OtherUserName: s.names.Resolve(ctx, other),
		})
	}
	return out
}

func threadOf(me, other string) (string, []string, error) {
	other = strings.TrimSpace(other)
	if other == "" {
		return "", nil, common.Invalid("other user id is required")
	}
	if other == me {
		return "", nil, common.ErrSelfInteraction
	}
	return models.ThreadID(me, other), []string{me, other}, nil
}
