package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"skillswap-backend/internal/models"
	"skillswap-backend/internal/store"
)

const requestsCollection = "requests"

// RequestRepository handles store operations for connection requests
type RequestRepository struct {
	st store.Store
}

// NewRequestRepository creates a new request repository
func NewRequestRepository(st store.Store) *RequestRepository {
	return &RequestRepository{st: st}
}

// FindMatching returns requests the actor already sent to target for title
func (r *RequestRepository) FindMatching(ctx context.Context, fromUserID, toUserID, title string) ([]*models.ConnectionRequest, error) {
	q := store.Query{Collection: requestsCollection}.
		Where(store.ArrayContains("participants", fromUserID)).
		Where(store.Eq("toUserId", toUserID)).
		Where(store.Eq("skillTitle", title))

	docs, err := r.st.GetMany(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}

	return DecodeRequests(docs), nil
}

// Create writes a request at a key derived from (from, to, title). A second
// write for the same triple fails with common.ErrAlreadyExists.
func (r *RequestRepository) Create(ctx context.Context, req *models.ConnectionRequest) (string, error) {
	id := RequestKey(req.FromUserID, req.ToUserID, req.SkillTitle)
	fields := store.Fields{
		"fromUserId":   req.FromUserID,
		"fromName":     req.FromName,
		"toUserId":     req.ToUserID,
		"toName":       req.ToName,
		"skillTitle":   req.SkillTitle,
		"message":      req.Message,
		"participants": []string{req.FromUserID, req.ToUserID},
		"status":       req.Status,
		"createdAt":    store.ServerTimestamp,
	}
	if err := r.st.CreateIfAbsent(ctx, store.Join(requestsCollection, id), fields); err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	return id, nil
}

// ListForUser retrieves requests the user sent or received, newest first
func (r *RequestRepository) ListForUser(ctx context.Context, userID string) ([]*models.ConnectionRequest, error) {
	docs, err := r.st.GetMany(ctx, ForUserQuery(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	return DecodeRequests(docs), nil
}

// ForUserQuery is the query behind a user's request list
func ForUserQuery(userID string) store.Query {
	return store.Query{Collection: requestsCollection}.
		Where(store.ArrayContains("participants", userID)).
		Desc("createdAt")
}

// RequestKey derives the document id of a request
func RequestKey(fromUserID, toUserID, title string) string {
	sum := sha256.Sum256([]byte(fromUserID + "\x00" + toUserID + "\x00" + title))
	return hex.EncodeToString(sum[:16])
}

// DecodeRequests maps requests documents to connection requests
func DecodeRequests(docs []store.Document) []*models.ConnectionRequest {
	reqs := make([]*models.ConnectionRequest, 0, len(docs))
	for _, doc := range docs {
		f := doc.Fields
		reqs = append(reqs, &models.ConnectionRequest{
			ID:           doc.ID,
			FromUserID:   f.String("fromUserId"),
			FromName:     f.String("fromName"),
			ToUserID:     f.String("toUserId"),
			ToName:       f.String("toName"),
			SkillTitle:   f.String("skillTitle"),
			Message:      f.String("message"),
			Participants: nonNil(f.Strings("participants")),
			Status:       f.String("status"),
			CreatedAt:    f.Time("createdAt"),
		})
	}
	return reqs
}
