package media

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/castellan-io/backoffice/pkg/errors"
)

type stubGCS struct {
	lastObject      string
	lastContentType string
	url             string
	err             error
}

func (s *stubGCS) SignedURL(bucket, object, contentType string, expires time.Duration) (string, error) {
	s.lastObject = object
	s.lastContentType = contentType
	if s.err != nil {
		return "", s.err
	}
	return s.url, nil
}

func newTestService(t *testing.T, gcs *stubGCS) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		GCS:         gcs,
		Bucket:      "backoffice-media",
		UploadTTL:   15 * time.Minute,
		MaxUploadMB: 5,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestPresignUploadSuccess(t *testing.T) {
	gcs := &stubGCS{url: "https://storage.googleapis.com/signed"}
	svc := newTestService(t, gcs)

	out, err := svc.PresignUpload(context.Background(), uuid.New(), PresignInput{
		FileName:    "photo.JPG",
		ContentType: "image/jpeg",
		SizeBytes:   1024,
	})
	if err != nil {
		t.Fatalf("presign: %v", err)
	}

	if out.UploadURL != gcs.url {
		t.Fatalf("unexpected upload url %s", out.UploadURL)
	}
	if !strings.HasPrefix(out.Key, "media/giftcards/") || !strings.HasSuffix(out.Key, ".jpg") {
		t.Fatalf("unexpected key %s", out.Key)
	}
	if out.PublicURL != "https://storage.googleapis.com/backoffice-media/"+out.Key {
		t.Fatalf("unexpected public url %s", out.PublicURL)
	}
	if gcs.lastContentType != "image/jpeg" {
		t.Fatalf("content type not passed to signer: %s", gcs.lastContentType)
	}
	if gcs.lastObject != out.Key {
		t.Fatalf("signed object mismatch: %s vs %s", gcs.lastObject, out.Key)
	}
}

func TestPresignUploadValidation(t *testing.T) {
	svc := newTestService(t, &stubGCS{url: "https://example.com"})

	cases := []struct {
		name  string
		input PresignInput
		code  pkgerrors.Code
	}{
		{"pdf rejected", PresignInput{FileName: "doc.pdf", ContentType: "application/pdf", SizeBytes: 100}, pkgerrors.CodeValidation},
		{"missing content type", PresignInput{FileName: "a.png", SizeBytes: 100}, pkgerrors.CodeValidation},
		{"zero size", PresignInput{FileName: "a.png", ContentType: "image/png"}, pkgerrors.CodeValidation},
		{"too large", PresignInput{FileName: "a.png", ContentType: "image/png", SizeBytes: 6 * 1024 * 1024}, pkgerrors.CodeValidation},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.PresignUpload(context.Background(), uuid.New(), tc.input)
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != tc.code {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
		})
	}

	_, err := svc.PresignUpload(context.Background(), uuid.Nil, PresignInput{
		FileName: "a.png", ContentType: "image/png", SizeBytes: 100,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for missing identity, got %v", err)
	}
}
