package ports

import (
	"context"
	"io"
	"time"
)

// ObjectStorage stores generated files.
type ObjectStorage interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}
