package models

import (
	"sort"
	"strings"
	"time"
)

// SkillKind tags a skill post as an offer or a request
type SkillKind string

const (
	SkillOffer   SkillKind = "offer"
	SkillRequest SkillKind = "request"
)

// Valid reports whether k is one of the two known kinds
func (k SkillKind) Valid() bool {
	return k == SkillOffer || k == SkillRequest
}

// RequestPending is the only status the service writes.
const RequestPending = "pending"

// UnknownUser is shown when a user id cannot be resolved.
const UnknownUser = "Unknown User"

// Identity is the acting user of a request
type Identity struct {
	UserID      string
	DisplayName string
}

// DefaultName is used for names a client did not supply.
const DefaultName = "User"

// NameOr returns the identity's display name, or fallback when it is empty
func (i Identity) NameOr(fallback string) string {
	if i.DisplayName != "" {
		return i.DisplayName
	}
	return fallback
}

// User represents a user profile
type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	DisplayName   string    `json:"display_name"`
	PhotoURL      string    `json:"photo_url,omitempty"`
	PhotoBase64   string    `json:"photo_base64,omitempty"`
	Skills        []string  `json:"skills"`
	ExpoPushToken string    `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
}

// Name returns the label shown to other users
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	if u.Email != "" {
		return u.Email
	}
	return UnknownUser
}

// Credential links a login email to a user
type Credential struct {
	UserID       string
	PasswordHash string
	CreatedAt    time.Time
}

// SkillPost represents an offer or request posted by a user
type SkillPost struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	UserName    string    `json:"user_name"`
	Kind        SkillKind `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	ImageBase64 string    `json:"image_base64,omitempty"`
	ImageURI    string    `json:"image_uri,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ConnectionRequest represents one user's interest in another user's post
type ConnectionRequest struct {
	ID           string    `json:"id"`
	FromUserID   string    `json:"from_user_id"`
	FromName     string    `json:"from_name"`
	ToUserID     string    `json:"to_user_id"`
	ToName       string    `json:"to_name"`
	SkillTitle   string    `json:"skill_title"`
	Message      string    `json:"message"`
	Participants []string  `json:"participants"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// Thread represents a two-person chat
type Thread struct {
	ID           string    `json:"id"`
	Participants []string  `json:"participants"`
	LastMessage  string    `json:"last_message"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Other returns the participant that is not userID
func (t *Thread) Other(userID string) string {
	for _, p := range t.Participants {
		if p != userID {
			return p
		}
	}
	return ""
}

// ThreadView is a thread as listed for one participant
type ThreadView struct {
	Thread
	OtherUserID   string `json:"other_user_id"`
	OtherUserName string `json:"other_user_name"`
}

// Message represents one chat message
type Message struct {
	ID        string    `json:"id"`
	ThreadID  string    `json:"thread_id"`
	UserID    string    `json:"user_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Rating represents stars given by one user to another
type Rating struct {
	ID         string    `json:"id"`
	FromUserID string    `json:"from_user_id"`
	ToUserID   string    `json:"to_user_id"`
	Stars      int       `json:"stars"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"created_at"`
}

// ThreadID derives the chat id of two users. The smaller id comes first so
// both participants open the same thread.
func ThreadID(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return strings.Join(ids, "_")
}
