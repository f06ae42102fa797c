package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"skillswap-backend/internal/common"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const uploadURLExpiry = 5 * time.Minute

// Upload purposes
const (
	PurposeAvatar = "avatar"
	PurposeSkill  = "skill"
)

// MediaConfig configures the media bucket
type MediaConfig struct {
	Region     string
	Bucket     string
	AccessKey  string
	SecretKey  string
	Endpoint   string
	PublicURL  string
	DisableSSL bool // http for an Endpoint given without a scheme
}

// MediaService issues pre-signed upload URLs for avatars and post images
type MediaService struct {
	presign   *s3.PresignClient
	bucket    string
	publicURL string
}

// NewMediaService creates a new media service
func NewMediaService(ctx context.Context, mc MediaConfig) (*MediaService, error) {
	mc.Endpoint = endpointURL(mc.Endpoint, mc.DisableSSL)

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(mc.Region),
	}
	if mc.AccessKey != "" && mc.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(mc.AccessKey, mc.SecretKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if mc.Endpoint != "" {
			o.BaseEndpoint = aws.String(mc.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &MediaService{
		presign:   s3.NewPresignClient(s3Client),
		bucket:    mc.Bucket,
		publicURL: publicBaseURL(mc),
	}, nil
}

// UploadRequest represents a request to get a pre-signed URL
type UploadRequest struct {
	Purpose     string `json:"purpose"`
	ContentType string `json:"content_type"`
}

// UploadResponse represents the response with pre-signed URL
type UploadResponse struct {
	UploadURL string `json:"upload_url"`
	PublicURL string `json:"public_url"`
	Key       string `json:"key"`
	ExpiresIn int    `json:"expires_in"`
}

// PresignUpload generates a pre-signed PUT URL for an image. The public URL
// is what the client stores as photo_url or image_uri once the upload is done.
func (s *MediaService) PresignUpload(ctx context.Context, userID string, in UploadRequest) (*UploadResponse, error) {
	var key string
	switch in.Purpose {
	case PurposeAvatar, "":
		key = fmt.Sprintf("profilePics/%s.jpg", userID)
	case PurposeSkill:
		key = fmt.Sprintf("skills/%s/%s.jpg", userID, uuid.New().String())
	default:
		return nil, common.Invalid("purpose must be %q or %q", PurposeAvatar, PurposeSkill)
	}

	contentType := in.ContentType
	if contentType == "" {
		contentType = "image/jpeg"
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, common.Invalid("content_type must be an image type")
	}

	request, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = uploadURLExpiry
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate pre-signed URL: %w", err)
	}

	return &UploadResponse{
		UploadURL: request.URL,
		PublicURL: s.publicURL + "/" + key,
		Key:       key,
		ExpiresIn: int(uploadURLExpiry.Seconds()),
	}, nil
}

// endpointURL adds a scheme to a bare host:port endpoint
func endpointURL(endpoint string, disableSSL bool) string {
	if endpoint == "" || strings.Contains(endpoint, "://") {
		return endpoint
	}
	if disableSSL {
		return "http://" + endpoint
	}
	return "https://" + endpoint
}

func publicBaseURL(mc MediaConfig) string {
	switch {
	case mc.PublicURL != "":
		return strings.TrimRight(mc.PublicURL, "/")
	case mc.Endpoint != "":
		return strings.TrimRight(mc.Endpoint, "/") + "/" + mc.Bucket
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", mc.Bucket, mc.Region)
	}
}
