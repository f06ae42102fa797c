package services

import (
	"context"
	"testing"
	"time"

	"skillswap-backend/internal/common"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	token, err := env.userService.GenerateJWT("u1", "Ana")
	require.NoError(t, err)

	identity, err := env.userService.ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", identity.UserID)
	assert.Equal(t, "Ana", identity.DisplayName)
}

func TestValidateJWTRejects(t *testing.T) {
	env := newTestEnv(t)

	other := NewUserService(nil, nil, "other-secret", time.Hour)
	foreign, err := other.GenerateJWT("u1", "Ana")
	require.NoError(t, err)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "u1",
		"exp":     time.Now().Add(-time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	noUser, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":      "not.a.token",
		"wrong secret": foreign,
		"expired":      expired,
		"no user_id":   noUser,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := env.userService.ValidateJWT(token)
			assert.ErrorIs(t, err, common.ErrUnauthorized)
		})
	}
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	reg, err := env.userService.Register(ctx, RegisterInput{
		Email:       "Ana@Example.com",
		Password:    "secret1",
		DisplayName: "Ana",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, reg.Token)
	assert.Equal(t, "Ana", reg.User.DisplayName)

	_, err = env.userService.Register(ctx, RegisterInput{Email: "ana@example.com ", Password: "another1"})
	assert.ErrorIs(t, err, common.ErrAlreadyExists)

	login, err := env.userService.Login(ctx, LoginInput{
		Email:     "ana@example.com",
		Password:  "secret1",
		PushToken: "ExponentPushToken[abc]",
	})
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, login.User.ID)
	assert.Equal(t, "ExponentPushToken[abc]", login.User.ExpoPushToken)

	identity, err := env.userService.ValidateJWT(login.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, identity.UserID)
	assert.Equal(t, "Ana", identity.DisplayName)

	_, err = env.userService.Login(ctx, LoginInput{Email: "ana@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	_, err = env.userService.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.userService.Register(ctx, RegisterInput{Password: "secret1"})
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = env.userService.Register(ctx, RegisterInput{Email: "a@x.io", Password: "123"})
	assert.ErrorIs(t, err, common.ErrValidation)

	assert.Equal(t, 0, env.count(t, "credentials"))
}

func TestAddSkillHasSetSemantics(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addUser(t, "alice", "Alice")

	_, err := env.userService.AddSkill(ctx, "alice", "Guitar")
	require.NoError(t, err)
	_, err = env.userService.AddSkill(ctx, "alice", " Guitar ")
	require.NoError(t, err)
	user, err := env.userService.AddSkill(ctx, "alice", "Chess")
	require.NoError(t, err)
	assert.Equal(t, []string{"Guitar", "Chess"}, user.Skills)

	me, err := env.userService.Me(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"Guitar", "Chess"}, me.Skills)
	assert.Equal(t, "Alice", me.DisplayName)

	_, err = env.userService.AddSkill(ctx, "alice", "")
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = env.userService.AddSkill(ctx, "ghost", "Guitar")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestChangePhoto(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addUser(t, "alice", "Alice")

	require.NoError(t, env.userService.ChangePhoto(ctx, "alice", "", "https://cdn.example.com/profilePics/alice.jpg"))
	me, err := env.userService.Me(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/profilePics/alice.jpg", me.PhotoURL)
	assert.Equal(t, "Alice", me.DisplayName)

	assert.ErrorIs(t, env.userService.ChangePhoto(ctx, "alice", "", ""), common.ErrValidation)
}

func TestSearchUsers(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addUser(t, "alice", "Alice")
	env.addUser(t, "bob", "Bob")
	env.addUser(t, "carol", "Carol")

	all, err := env.userService.SearchUsers(ctx, "alice", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	found, err := env.userService.SearchUsers(ctx, "alice", "BO")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "bob", found[0].ID)

	byEmail, err := env.userService.SearchUsers(ctx, "alice", "carol@example")
	require.NoError(t, err)
	require.Len(t, byEmail, 1)

	self, err := env.userService.SearchUsers(ctx, "alice", "alice")
	require.NoError(t, err)
	assert.Empty(t, self)
}

func TestLoginRequiresCredentials(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		in   LoginInput
	}{
		{name: "empty", in: LoginInput{}},
		{name: "blank email", in: LoginInput{Email: "  ", Password: "secret1"}},
		{name: "no password", in: LoginInput{Email: "ana@example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env.resetCounts()
			_, err := env.userService.Login(context.Background(), tt.in)
			assert.ErrorIs(t, err, common.ErrValidation)
			assert.Zero(t, env.store.reads.Load())
			assert.Zero(t, env.store.writes.Load())
		})
	}
}
