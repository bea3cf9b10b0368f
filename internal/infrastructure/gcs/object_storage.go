package gcs

import (
	"context"
	"errors"
	"io"
	"strings"

	"cloud.google.com/go/storage"

	"github.com/oksasatya/mother-community/internal/domain/repository"
	"github.com/oksasatya/mother-community/pkg/helpers"
)

var ErrNotConfigured = errors.New("object storage not configured")

// ObjectStorage keeps avatars and event images in a public-read bucket.
type ObjectStorage struct {
	client *storage.Client
	bucket string
}

func NewObjectStorage(client *storage.Client, bucket string) *ObjectStorage {
	return &ObjectStorage{client: client, bucket: bucket}
}

func (s *ObjectStorage) Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error) {
	if s == nil || s.client == nil || s.bucket == "" {
		return "", ErrNotConfigured
	}
	return helpers.UploadObject(ctx, s.client, s.bucket, objectPath, contentType, r)
}

func (s *ObjectStorage) PublicURL(objectPath string) string {
	return helpers.PublicURL(s.bucket, objectPath)
}

// Remove accepts either an object path or a public URL of this bucket.
func (s *ObjectStorage) Remove(ctx context.Context, objectPath string) error {
	if s == nil || s.client == nil || s.bucket == "" {
		return ErrNotConfigured
	}
	objectPath = strings.TrimPrefix(objectPath, helpers.PublicURL(s.bucket, ""))
	return helpers.DeleteObject(ctx, s.client, s.bucket, objectPath)
}

var _ repository.ObjectStorage = (*ObjectStorage)(nil)
