package media

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/castellan-io/backoffice/pkg/errors"
)

const objectPrefix = "media/giftcards"

var allowedContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type gcsClient interface {
	SignedURL(bucket, object, contentType string, expires time.Duration) (string, error)
}

// Service exposes media-presign semantics.
type Service interface {
	PresignUpload(ctx context.Context, userID uuid.UUID, input PresignInput) (*PresignOutput, error)
}

type service struct {
	gcs         gcsClient
	bucket      string
	uploadTTL   time.Duration
	maxUploadMB int
}

// ServiceParams packages the dependencies for the media service.
type ServiceParams struct {
	GCS         gcsClient
	Bucket      string
	UploadTTL   time.Duration
	MaxUploadMB int
}

// NewService constructs a media service backed by the provided GCS signer.
func NewService(params ServiceParams) (Service, error) {
	if params.GCS == nil {
		return nil, fmt.Errorf("gcs client required")
	}
	if params.Bucket == "" {
		return nil, fmt.Errorf("gcs bucket required")
	}
	if params.UploadTTL <= 0 {
		return nil, fmt.Errorf("upload ttl must be positive")
	}
	if params.MaxUploadMB <= 0 {
		return nil, fmt.Errorf("max upload size must be positive")
	}
	return &service{
		gcs:         params.GCS,
		bucket:      params.Bucket,
		uploadTTL:   params.UploadTTL,
		maxUploadMB: params.MaxUploadMB,
	}, nil
}

// PresignInput models the payload required to request an upload URL.
type PresignInput struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	SizeBytes   int64  `json:"sizeBytes"`
}

// PresignOutput contains the signed upload URL and where the object will live.
type PresignOutput struct {
	UploadURL string    `json:"uploadUrl"`
	PublicURL string    `json:"publicUrl"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s *service) PresignUpload(ctx context.Context, userID uuid.UUID, input PresignInput) (*PresignOutput, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	contentType := strings.ToLower(strings.TrimSpace(input.ContentType))
	ext, ok := allowedContentTypes[contentType]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			"contentType must be one of image/jpeg, image/png, image/gif, image/webp")
	}

	if input.SizeBytes <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sizeBytes must be positive")
	}
	maxBytes := int64(s.maxUploadMB) * 1024 * 1024
	if input.SizeBytes > maxBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("file exceeds the %dMB upload limit", s.maxUploadMB))
	}

	if fileExt := strings.ToLower(path.Ext(strings.TrimSpace(input.FileName))); fileExt != "" {
		ext = fileExt
	}
	key := fmt.Sprintf("%s/%s%s", objectPrefix, uuid.NewString(), ext)

	uploadURL, err := s.gcs.SignedURL(s.bucket, key, contentType, s.uploadTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sign upload url")
	}

	return &PresignOutput{
		UploadURL: uploadURL,
		PublicURL: fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, key),
		Key:       key,
		ExpiresAt: time.Now().UTC().Add(s.uploadTTL),
	}, nil
}
