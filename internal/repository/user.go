package repository

import (
	"context"
	"fmt"
	"strings"

	"skillswap-backend/internal/models"
	"skillswap-backend/internal/store"
)

const (
	usersCollection       = "users"
	credentialsCollection = "credentials"
)

// UserRepository handles store operations for user profiles
type UserRepository struct {
	st store.Store
}

// NewUserRepository creates a new user repository
func NewUserRepository(st store.Store) *UserRepository {
	return &UserRepository{st: st}
}

// Create writes a new user profile
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	fields := store.Fields{
		"uid":           user.ID,
		"email":         user.Email,
		"displayName":   user.DisplayName,
		"photoURL":      user.PhotoURL,
		"skills":        nonNil(user.Skills),
		"expoPushToken": user.ExpoPushToken,
		"createdAt":     store.ServerTimestamp,
	}
	if err := r.st.Set(ctx, store.Join(usersCollection, user.ID), fields, store.SetOptions{}); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	doc, err := r.st.Get(ctx, store.Join(usersCollection, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return DecodeUser(*doc), nil
}

// List retrieves every user profile
func (r *UserRepository) List(ctx context.Context) ([]*models.User, error) {
	docs, err := r.st.GetMany(ctx, store.Query{Collection: usersCollection})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	users := make([]*models.User, 0, len(docs))
	for _, doc := range docs {
		users = append(users, DecodeUser(doc))
	}
	return users, nil
}

// UpdateSkills replaces the skill set of a user
func (r *UserRepository) UpdateSkills(ctx context.Context, userID string, skills []string) error {
	return r.merge(ctx, userID, store.Fields{"skills": nonNil(skills)}, "skills")
}

// UpdatePhoto stores a new avatar, inline or linked
func (r *UserRepository) UpdatePhoto(ctx context.Context, userID, photoBase64, photoURL string) error {
	fields := store.Fields{}
	if photoBase64 != "" {
		fields["photoBase64"] = photoBase64
	}
	if photoURL != "" {
		fields["photoURL"] = photoURL
	}
	return r.merge(ctx, userID, fields, "photo")
}

// UpdatePushToken updates the push token for a user
func (r *UserRepository) UpdatePushToken(ctx context.Context, userID, token string) error {
	return r.merge(ctx, userID, store.Fields{"expoPushToken": token}, "push token")
}

func (r *UserRepository) merge(ctx context.Context, userID string, fields store.Fields, what string) error {
	if err := r.st.Set(ctx, store.Join(usersCollection, userID), fields, store.Merge); err != nil {
		return fmt.Errorf("failed to update %s: %w", what, err)
	}
	return nil
}

// DecodeUser maps a users document to a profile
func DecodeUser(doc store.Document) *models.User {
	f := doc.Fields
	return &models.User{
		ID:            doc.ID,
		Email:         f.String("email"),
		DisplayName:   f.String("displayName"),
		PhotoURL:      f.String("photoURL"),
		PhotoBase64:   f.String("photoBase64"),
		Skills:        nonNil(f.Strings("skills")),
		ExpoPushToken: f.String("expoPushToken"),
		CreatedAt:     f.Time("createdAt"),
	}
}

// CredentialRepository handles login credentials, keyed by normalized email
type CredentialRepository struct {
	st store.Store
}

// NewCredentialRepository creates a new credential repository
func NewCredentialRepository(st store.Store) *CredentialRepository {
	return &CredentialRepository{st: st}
}

// Claim stores the credential unless the email is already registered, in
// which case the error wraps common.ErrAlreadyExists
func (r *CredentialRepository) Claim(ctx context.Context, email string, cred *models.Credential) error {
	fields := store.Fields{
		"userId":       cred.UserID,
		"passwordHash": cred.PasswordHash,
		"createdAt":    store.ServerTimestamp,
	}
	if err := r.st.CreateIfAbsent(ctx, store.Join(credentialsCollection, NormalizeEmail(email)), fields); err != nil {
		return fmt.Errorf("failed to claim email: %w", err)
	}
	return nil
}

// GetByEmail retrieves the credential registered for an email
func (r *CredentialRepository) GetByEmail(ctx context.Context, email string) (*models.Credential, error) {
	doc, err := r.st.Get(ctx, store.Join(credentialsCollection, NormalizeEmail(email)))
	if err != nil {
		return nil, fmt.Errorf("failed to get credential: %w", err)
	}
	return &models.Credential{
		UserID:       doc.Fields.String("userId"),
		PasswordHash: doc.Fields.String("passwordHash"),
		CreatedAt:    doc.Fields.Time("createdAt"),
	}, nil
}

// NormalizeEmail lowercases and trims an email for use as a key
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
