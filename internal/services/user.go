package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"skillswap-backend/internal/common"
	"skillswap-backend/internal/models"
	"skillswap-backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// UserService handles user-related business logic
type UserService struct {
	userRepo  *repository.UserRepository
	credRepo  *repository.CredentialRepository
	jwtSecret string
	jwtTTL    time.Duration
	hashCost  int
}

// NewUserService creates a new user service
func NewUserService(
	userRepo *repository.UserRepository,
	credRepo *repository.CredentialRepository,
	jwtSecret string,
	jwtTTL time.Duration,
) *UserService {
	return &UserService{
		userRepo:  userRepo,
		credRepo:  credRepo,
		jwtSecret: jwtSecret,
		jwtTTL:    jwtTTL,
		hashCost:  bcrypt.DefaultCost,
	}
}

// RegisterInput is the sign-up form
type RegisterInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	PhotoURL    string `json:"photo_url"`
	PushToken   string `json:"push_token"`
}

// LoginInput is the sign-in form
type LoginInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	PushToken string `json:"push_token"`
}

// AuthResult is returned by Register and Login
type AuthResult struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// GenerateJWT generates a JWT token for a user
func (s *UserService) GenerateJWT(userID, name string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"name":    name,
		"exp":     now.Add(s.jwtTTL).Unix(),
		"iat":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateJWT validates a JWT token and returns the identity it carries
func (s *UserService) ValidateJWT(tokenString string) (*models.Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse token: %v", common.ErrUnauthorized, err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("%w: invalid token", common.ErrUnauthorized)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: invalid token claims", common.ErrUnauthorized)
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return nil, fmt.Errorf("%w: user_id not found in token", common.ErrUnauthorized)
	}
	name, _ := claims["name"].(string)

	return &models.Identity{UserID: userID, DisplayName: name}, nil
}

// Register creates an account and its profile
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" {
		return nil, common.Invalid("email is required")
	}
	if len(in.Password) < minPasswordLength {
		return nil, common.Invalid("password must be at least %d characters", minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	userID := uuid.New().String()
	cred := &models.Credential{UserID: userID, PasswordHash: string(hash)}
	if err := s.credRepo.Claim(ctx, email, cred); err != nil {
		return nil, err
	}

	user := &models.User{
		ID:            userID,
		Email:         email,
		DisplayName:   strings.TrimSpace(in.DisplayName),
		PhotoURL:      in.PhotoURL,
		Skills:        []string{},
		ExpoPushToken: in.PushToken,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.GenerateJWT(user.ID, user.DisplayName)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	log.Info().Str("user_id", user.ID).Msg("User registered")
	return &AuthResult{User: user, Token: token}, nil
}

// Login verifies credentials and refreshes the push token when one is given
func (s *UserService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	if strings.TrimSpace(in.Email) == "" {
		return nil, common.Invalid("email is required")
	}
	if in.Password == "" {
		return nil, common.Invalid("password is required")
	}

	cred, err := s.credRepo.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid email or password", common.ErrUnauthorized)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(in.Password)); err != nil {
		return nil, fmt.Errorf("%w: invalid email or password", common.ErrUnauthorized)
	}

	if in.PushToken != "" {
		if err := s.userRepo.UpdatePushToken(ctx, cred.UserID, in.PushToken); err != nil {
			return nil, err
		}
	}

	user, err := s.userRepo.GetByID(ctx, cred.UserID)
	if err != nil {
		return nil, err
	}

	token, err := s.GenerateJWT(user.ID, user.DisplayName)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

// Me returns the caller's profile
func (s *UserService) Me(ctx context.Context, userID string) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// AddSkill adds a label to the caller's skill set
func (s *UserService) AddSkill(ctx context.Context, userID, label string) (*models.User, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, common.Invalid("skill is required")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	for _, existing := range user.Skills {
		if existing == label {
			return user, nil
		}
	}

	user.Skills = append(user.Skills, label)
	if err := s.userRepo.UpdateSkills(ctx, userID, user.Skills); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePhoto stores a new avatar, given inline or as an uploaded URL
func (s *UserService) ChangePhoto(ctx context.Context, userID, photoBase64, photoURL string) error {
	if photoBase64 == "" && photoURL == "" {
		return common.Invalid("photo_base64 or photo_url is required")
	}
	return s.userRepo.UpdatePhoto(ctx, userID, photoBase64, photoURL)
}

// UpdatePushToken registers the caller's device token
func (s *UserService) UpdatePushToken(ctx context.Context, userID, token string) error {
	return s.userRepo.UpdatePushToken(ctx, userID, strings.TrimSpace(token))
}

// SearchUsers lists other users whose name or email contains query
func (s *UserService) SearchUsers(ctx context.Context, userID, query string) ([]*models.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]*models.User, 0, len(users))
	for _, u := range users {
		if u.ID == userID {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(u.DisplayName), query) &&
			!strings.Contains(strings.ToLower(u.Email), query) {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}
