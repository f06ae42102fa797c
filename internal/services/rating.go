package services

import (
	"context"
	"strings"
	"time"

	"skillswap-backend/internal/common"
	"skillswap-backend/internal/livequery"
	"skillswap-backend/internal/models"
	"skillswap-backend/internal/repository"
	"skillswap-backend/internal/store"
)

const (
	minStars = 1
	maxStars = 5
)

// RatingService handles ratings between users
type RatingService struct {
	st         store.Store
	ratingRepo *repository.RatingRepository
}

// NewRatingService creates a new rating service
func NewRatingService(st store.Store, ratingRepo *repository.RatingRepository) *RatingService {
	return &RatingService{st: st, ratingRepo: ratingRepo}
}

// SubmitRatingInput is the rate-user form
type SubmitRatingInput struct {
	ToUserID string `json:"to_user_id"`
	Stars    int    `json:"stars"`
	Comment  string `json:"comment"`
}

// Submit records a rating of another user
func (s *RatingService) Submit(ctx context.Context, actor models.Identity, in SubmitRatingInput) (*models.Rating, error) {
	toUserID := strings.TrimSpace(in.ToUserID)
	if toUserID == "" {
		return nil, common.Invalid("to_user_id is required")
	}
	if toUserID == actor.UserID {
		return nil, common.ErrSelfInteraction
	}
	if in.Stars < minStars || in.Stars > maxStars {
		return nil, common.Invalid("stars must be between %d and %d", minStars, maxStars)
	}

	rating := &models.Rating{
		FromUserID: actor.UserID,
		ToUserID:   toUserID,
		Stars:      in.Stars,
		Comment:    strings.TrimSpace(in.Comment),
		CreatedAt:  time.Now().UTC(),
	}

	id, err := s.ratingRepo.Create(ctx, rating)
	if err != nil {
		return nil, err
	}
	rating.ID = id
	return rating, nil
}

// ListReceived returns ratings given to the user
func (s *RatingService) ListReceived(ctx context.Context, userID string) ([]*models.Rating, error) {
	return s.ratingRepo.ListReceived(ctx, userID)
}

// WatchReceived delivers ratings given to the user on every change
func (s *RatingService) WatchReceived(ctx context.Context, userID string, onUpdate func([]*models.Rating), opts livequery.Options) (*livequery.Subscription, error) {
	return livequery.Subscribe(ctx, s.st, repository.ReceivedQuery(userID),
		func(_ context.Context, docs []store.Document) ([]*models.Rating, error) {
			return repository.DecodeRatings(docs), nil
		}, onUpdate, opts)
}
