package storage

import (
	"context"
	"io"
	"time"
)

// Storage is the object store archived exports are written to.
type Storage interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}
