package repository

import (
	"context"
	"fmt"

	"skillswap-backend/internal/models"
	"skillswap-backend/internal/store"
)

const skillsCollection = "skills"

// SkillRepository handles store operations for skill posts
type SkillRepository struct {
	st store.Store
}

// NewSkillRepository creates a new skill repository
func NewSkillRepository(st store.Store) *SkillRepository {
	return &SkillRepository{st: st}
}

// Create adds a skill post and returns its generated ID
func (r *SkillRepository) Create(ctx context.Context, post *models.SkillPost) (string, error) {
	fields := store.Fields{
		"userId":    post.UserID,
		"userName":  post.UserName,
		"type":      string(post.Kind),
		"title":     post.Title,
		"createdAt": store.ServerTimestamp,
	}
	if post.Description != "" {
		fields["description"] = post.Description
	}
	if post.ImageBase64 != "" {
		fields["imageBase64"] = post.ImageBase64
	}
	if post.ImageURI != "" {
		fields["imageUri"] = post.ImageURI
	}

	id, err := r.st.Create(ctx, skillsCollection, fields)
	if err != nil {
		return "", fmt.Errorf("failed to create skill post: %w", err)
	}
	return id, nil
}

// List retrieves all skill posts, newest first
func (r *SkillRepository) List(ctx context.Context) ([]*models.SkillPost, error) {
	docs, err := r.st.GetMany(ctx, FeedQuery())
	if err != nil {
		return nil, fmt.Errorf("failed to list skill posts: %w", err)
	}
	return DecodeSkills(docs), nil
}

// FeedQuery is the query behind the skill feed
func FeedQuery() store.Query {
	return store.Query{Collection: skillsCollection}.Desc("createdAt")
}

// DecodeSkills maps skills documents to posts
func DecodeSkills(docs []store.Document) []*models.SkillPost {
	posts := make([]*models.SkillPost, 0, len(docs))
	for _, doc := range docs {
		f := doc.Fields
		kind := models.SkillKind(f.String("type"))
		if !kind.Valid() {
			kind = models.SkillOffer
		}
		posts = append(posts, &models.SkillPost{
			ID:          doc.ID,
			UserID:      f.String("userId"),
			UserName:    f.String("userName"),
			Kind:        kind,
			Title:       f.String("title"),
			Description: f.String("description"),
			ImageBase64: f.String("imageBase64"),
			ImageURI:    f.String("imageUri"),
			CreatedAt:   f.Time("createdAt"),
		})
	}
	return posts
}
