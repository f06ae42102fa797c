package services

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"skillswap-backend/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMedia(t *testing.T, mc MediaConfig) *MediaService {
	t.Helper()
	mc.AccessKey = "AKIDEXAMPLE"
	mc.SecretKey = "secret"
	if mc.Region == "" {
		mc.Region = "us-east-1"
	}
	if mc.Bucket == "" {
		mc.Bucket = "skillswap-media"
	}
	s, err := NewMediaService(context.Background(), mc)
	require.NoError(t, err)
	return s
}

func TestPresignAvatar(t *testing.T) {
	s := newTestMedia(t, MediaConfig{})

	res, err := s.PresignUpload(context.Background(), "u1", UploadRequest{Purpose: PurposeAvatar})
	require.NoError(t, err)
	assert.Equal(t, "profilePics/u1.jpg", res.Key)
	assert.Equal(t, "https://skillswap-media.s3.us-east-1.amazonaws.com/profilePics/u1.jpg", res.PublicURL)
	assert.Equal(t, 300, res.ExpiresIn)

	u, err := url.Parse(res.UploadURL)
	require.NoError(t, err)
	assert.Contains(t, u.Path, "profilePics/u1.jpg")
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
}

func TestPresignSkillImageWithEndpoint(t *testing.T) {
	s := newTestMedia(t, MediaConfig{Endpoint: "https://s3.example.net"})

	a, err := s.PresignUpload(context.Background(), "u1", UploadRequest{Purpose: PurposeSkill, ContentType: "image/png"})
	require.NoError(t, err)
	b, err := s.PresignUpload(context.Background(), "u1", UploadRequest{Purpose: PurposeSkill})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(a.Key, "skills/u1/"))
	assert.NotEqual(t, a.Key, b.Key)
	assert.True(t, strings.HasPrefix(a.UploadURL, "https://s3.example.net/skillswap-media/skills/u1/"))
	assert.Equal(t, "https://s3.example.net/skillswap-media/"+a.Key, a.PublicURL)
}

func TestPresignRejects(t *testing.T) {
	s := newTestMedia(t, MediaConfig{PublicURL: "https://cdn.example.com/"})

	_, err := s.PresignUpload(context.Background(), "u1", UploadRequest{Purpose: "banner"})
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = s.PresignUpload(context.Background(), "u1", UploadRequest{ContentType: "text/html"})
	assert.ErrorIs(t, err, common.ErrValidation)

	res, err := s.PresignUpload(context.Background(), "u1", UploadRequest{})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/profilePics/u1.jpg", res.PublicURL)
}

func TestEndpointScheme(t *testing.T) {
	tests := []struct {
		endpoint   string
		disableSSL bool
		want       string
	}{
		{"", true, ""},
		{"minio:9000", true, "http://minio:9000"},
		{"minio:9000", false, "https://minio:9000"},
		{"https://s3.example.net", true, "https://s3.example.net"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, endpointURL(tt.endpoint, tt.disableSSL), tt.endpoint)
	}
}

func TestPresignPlainHTTPEndpoint(t *testing.T) {
	s := newTestMedia(t, MediaConfig{Endpoint: "localhost:9000", DisableSSL: true})

	res, err := s.PresignUpload(context.Background(), "u1", UploadRequest{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.UploadURL, "http://localhost:9000/skillswap-media/profilePics/u1.jpg"))
	assert.Equal(t, "http://localhost:9000/skillswap-media/profilePics/u1.jpg", res.PublicURL)
}
