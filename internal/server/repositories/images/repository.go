package images

import "context"

// Repository keeps image blobs in the database under a caller-chosen key.
type Repository interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
