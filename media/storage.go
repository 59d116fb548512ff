// Package media stores uploaded assets (avatars, cover images, video files)
// in S3 compatible object storage.
package media

import (
	"context"
	"io"
	"time"
)

// Storage is the object storage surface the HTTP layer depends on.
type Storage interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	PresignPut(ctx context.Context, key string, expires time.Duration) (string, error)
	PresignGet(ctx context.Context, key string, expires time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
	ObjectURL(key string) string
}
