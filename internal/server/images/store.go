// Package images keeps vault images either in the gateway database or in an
// S3-compatible bucket. Callers encrypt before Put and decrypt after Get.
package images

import (
	"context"
	"database/sql"
	"encoding/base64"
	"net/http"
	"strings"

	imagerepo "github.com/dmitrijs2005/vaultkeeper/internal/server/repositories/images"
)

// Store is a flat key/blob store. Get returns common.ErrorNotFound for a
// missing key; Delete of a missing key succeeds.
type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// DefaultMediaType is reported when the bytes do not identify themselves.
const DefaultMediaType = "image/webp"

// VaultKey is the storage key of a vault's image.
func VaultKey(vaultID string) string {
	return "vaults/" + vaultID
}

// DataURL renders b as a base64 data URL, sniffing the media type.
func DataURL(b []byte) string {
	mediaType := http.DetectContentType(b)
	if !strings.HasPrefix(mediaType, "image/") {
		mediaType = DefaultMediaType
	}
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(b)
}

// DBStore keeps blobs in the images table.
type DBStore struct {
	db   *sql.DB
	repo func(db *sql.DB) imagerepo.Repository
}

func NewDBStore(db *sql.DB, repo func(db *sql.DB) imagerepo.Repository) *DBStore {
	return &DBStore{db: db, repo: repo}
}

func (s *DBStore) Put(ctx context.Context, key string, data []byte) error {
	return s.repo(s.db).Put(ctx, key, data)
}

func (s *DBStore) Get(ctx context.Context, key string) ([]byte, error) {
	return s.repo(s.db).Get(ctx, key)
}

func (s *DBStore) Delete(ctx context.Context, key string) error {
	return s.repo(s.db).Delete(ctx, key)
}
