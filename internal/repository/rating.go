package repository

import (
	"context"
	"fmt"

	"skillswap-backend/internal/models"
	"skillswap-backend/internal/store"
)

const ratingsCollection = "ratings"

// RatingRepository handles store operations for ratings
type RatingRepository struct {
	st store.Store
}

// NewRatingRepository creates a new rating repository
func NewRatingRepository(st store.Store) *RatingRepository {
	return &RatingRepository{st: st}
}

// Create adds a rating and returns its generated ID
func (r *RatingRepository) Create(ctx context.Context, rating *models.Rating) (string, error) {
	fields := store.Fields{
		"fromUserId": rating.FromUserID,
		"toUserId":   rating.ToUserID,
		"stars":      rating.Stars,
		"comment":    rating.Comment,
		"createdAt":  store.ServerTimestamp,
	}
	id, err := r.st.Create(ctx, ratingsCollection, fields)
	if err != nil {
		return "", fmt.Errorf("failed to create rating: %w", err)
	}
	return id, nil
}

// ListReceived retrieves ratings given to a user, newest first
func (r *RatingRepository) ListReceived(ctx context.Context, userID string) ([]*models.Rating, error) {
	docs, err := r.st.GetMany(ctx, ReceivedQuery(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}
	return DecodeRatings(docs), nil
}

// ReceivedQuery is the query behind a user's received ratings
func ReceivedQuery(userID string) store.Query {
	return store.Query{Collection: ratingsCollection}.
		Where(store.Eq("toUserId", userID)).
		Desc("createdAt")
}

// DecodeRatings maps ratings documents to ratings
func DecodeRatings(docs []store.Document) []*models.Rating {
	ratings := make([]*models.Rating, 0, len(docs))
	for _, doc := range docs {
		f := doc.Fields
		ratings = append(ratings, &models.Rating{
			ID:         doc.ID,
			FromUserID: f.String("fromUserId"),
			ToUserID:   f.String("toUserId"),
			Stars:      f.Int("stars"),
			Comment:    f.String("comment"),
			CreatedAt:  f.Time("createdAt"),
		})
	}
	return ratings
}
