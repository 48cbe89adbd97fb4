package receipts

import (
	"context"
	"time"
)

// Store persists receipt files and hands back shareable links.
type Store interface {
	Put(ctx context.Context, name, contentType string, data []byte) (string, error)
	Link(ctx context.Context, key string, ttl time.Duration) (string, error)
}
