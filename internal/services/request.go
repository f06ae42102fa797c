package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"skillswap-backend/internal/common"
	"skillswap-backend/internal/livequery"
	"skillswap-backend/internal/models"
	"skillswap-backend/internal/push"
	"skillswap-backend/internal/repository"
	"skillswap-backend/internal/store"

	"github.com/rs/zerolog/log"
)

// RequestService creates and lists connection requests
type RequestService struct {
	st          store.Store
	requestRepo *repository.RequestRepository
	notifier    push.Notifier
}

// NewRequestService creates a new request service
func NewRequestService(st store.Store, requestRepo *repository.RequestRepository, notifier push.Notifier) *RequestService {
	return &RequestService{st: st, requestRepo: requestRepo, notifier: notifier}
}

// CreateRequestInput is prefilled from the skill post being answered
type CreateRequestInput struct {
	ToUserID   string           `json:"to_user_id"`
	ToName     string           `json:"to_name"`
	SkillTitle string           `json:"skill_title"`
	SkillType  models.SkillKind `json:"skill_type"`
	Message    string           `json:"message"`
}

// Create sends a request unless the actor already sent one to the same user
// for the same title. Requests to oneself fail with common.ErrSelfInteraction
// and repeats with common.ErrDuplicateRequest; neither writes anything.
func (s *RequestService) Create(ctx context.Context, actor models.Identity, in CreateRequestInput) (*models.ConnectionRequest, error) {
	if strings.TrimSpace(in.ToUserID) == "" {
		return nil, common.Invalid("to_user_id is required")
	}
	if strings.TrimSpace(in.SkillTitle) == "" {
		return nil, common.Invalid("skill_title is required")
	}
	if in.ToUserID == actor.UserID {
		return nil, common.ErrSelfInteraction
	}

	existing, err := s.requestRepo.FindMatching(ctx, actor.UserID, in.ToUserID, in.SkillTitle)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, common.ErrDuplicateRequest
	}

	kind := in.SkillType
	if !kind.Valid() {
		kind = models.SkillOffer
	}
	message := strings.TrimSpace(in.Message)
	if message == "" {
		message = fmt.Sprintf("Interested in your %s: %s", kind, in.SkillTitle)
	}
	toName := strings.TrimSpace(in.ToName)
	if toName == "" {
		toName = models.DefaultName
	}

	req := &models.ConnectionRequest{
		FromUserID:   actor.UserID,
		FromName:     actor.NameOr(models.DefaultName),
		ToUserID:     in.ToUserID,
		ToName:       toName,
		SkillTitle:   in.SkillTitle,
		Message:      message,
		Participants: []string{actor.UserID, in.ToUserID},
		Status:       models.RequestPending,
		CreatedAt:    time.Now().UTC(),
	}

	id, err := s.requestRepo.Create(ctx, req)
	if err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, common.ErrDuplicateRequest
		}
		return nil, err
	}
	req.ID = id

	log.Info().
		Str("request_id", id).
		Str("from_user_id", req.FromUserID).
		Str("to_user_id", req.ToUserID).
		Msg("Request created")

	notifyAsync(ctx, s.notifier,
		notification{userID: actor.UserID, msg: push.Message{
			Title:    "Request sent ✅",
			Body:     "To " + req.ToName,
			Category: "request",
		}},
		notification{userID: req.ToUserID, msg: push.Message{
			Title:    "New skill request",
			Body:     fmt.Sprintf("%s is interested in %s", req.FromName, req.SkillTitle),
			Category: "request",
		}},
	)

	return req, nil
}

// List returns requests the user sent or received, newest first
func (s *RequestService) List(ctx context.Context, userID string) ([]*models.ConnectionRequest, error) {
	return s.requestRepo.ListForUser(ctx, userID)
}

// Watch delivers the user's request list on every change
func (s *RequestService) Watch(ctx context.Context, userID string, onUpdate func([]*models.ConnectionRequest), opts livequery.Options) (*livequery.Subscription, error) {
	return livequery.Subscribe(ctx, s.st, repository.ForUserQuery(userID),
		func(_ context.Context, docs []store.Document) ([]*models.ConnectionRequest, error) {
			return repository.DecodeRequests(docs), nil
		}, onUpdate, opts)
}
