package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Default expiry duration for presigned URLs
const DefaultPresignedURLExpiry = 15 * time.Minute

var ErrUnsupportedContentType = errors.New("unsupported content type")

// FileStorage defines the interface for object storage operations.
type FileStorage interface {
	// GeneratePresignedUploadURL creates a temporary URL that allows PUT requests
	// for uploading an object directly to the storage provider.
	GeneratePresignedUploadURL(ctx context.Context, objectKey string, contentType string, expires time.Duration) (string, error)

	// GeneratePresignedDownloadURL creates a temporary URL that allows GET requests
	// for downloading/viewing an object directly from the storage provider.
	GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error)

	DeleteObject(ctx context.Context, objectKey string) error
}

// ImageObjectKey builds a unique key such as
// "profile-pictures/<owner>/<uuid>.png" for an image upload.
func ImageObjectKey(prefix, owner, contentType string) (string, error) {
	parts := strings.Split(strings.ToLower(contentType), "/")
	if len(parts) != 2 || parts[0] != "image" || parts[1] == "" {
		return "", fmt.Errorf("%w: %q, expected image/*", ErrUnsupportedContentType, contentType)
	}
	return path.Join(prefix, owner, fmt.Sprintf("%s.%s", uuid.NewString(), parts[1])), nil
}

// KeyBelongsTo reports whether objectKey was issued under prefix/owner.
func KeyBelongsTo(objectKey, prefix, owner string) bool {
	return strings.HasPrefix(objectKey, path.Join(prefix, owner)+"/")
}
