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

// SkillService handles skill posts
type SkillService struct {
	st        store.Store
	skillRepo *repository.SkillRepository
}

// NewSkillService creates a new skill service
func NewSkillService(st store.Store, skillRepo *repository.SkillRepository) *SkillService {
	return &SkillService{st: st, skillRepo: skillRepo}
}

// PostSkillInput is the create-post form
type PostSkillInput struct {
	Type        models.SkillKind `json:"type"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	ImageBase64 string           `json:"image_base64"`
	ImageURI    string           `json:"image_uri"`
}

// Post publishes a skill offer or request
func (s *SkillService) Post(ctx context.Context, actor models.Identity, in PostSkillInput) (*models.SkillPost, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, common.Invalid("title is required")
	}

	kind := in.Type
	if kind == "" {
		kind = models.SkillOffer
	}
	if !kind.Valid() {
		return nil, common.Invalid("type must be %q or %q", models.SkillOffer, models.SkillRequest)
	}

	post := &models.SkillPost{
		UserID:      actor.UserID,
		UserName:    actor.NameOr(models.DefaultName),
		Kind:        kind,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		ImageBase64: in.ImageBase64,
		ImageURI:    in.ImageURI,
		CreatedAt:   time.Now().UTC(),
	}

	id, err := s.skillRepo.Create(ctx, post)
	if err != nil {
		return nil, err
	}
	post.ID = id
	return post, nil
}

// List returns every post, newest first
func (s *SkillService) List(ctx context.Context) ([]*models.SkillPost, error) {
	return s.skillRepo.List(ctx)
}

// WatchFeed delivers the full post list on every change
func (s *SkillService) WatchFeed(ctx context.Context, onUpdate func([]*models.SkillPost), opts livequery.Options) (*livequery.Subscription, error) {
	return livequery.Subscribe(ctx, s.st, repository.FeedQuery(),
		func(_ context.Context, docs []store.Document) ([]*models.SkillPost, error) {
			return repository.DecodeSkills(docs), nil
		}, onUpdate, opts)
}
