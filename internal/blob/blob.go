// Package blob stores uploaded photos and hands back the URL they are served from.
package blob

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/najdeno/internal/imaging"
	"github.com/erazemk/najdeno/internal/store"
)

// URLPrefix is where the API serves stored images.
const URLPrefix = "/api/images/"

// Photo kinds used as the first path segment.
const (
	KindItem  = "items"
	KindFound = "found"
	KindClaim = "claims"
)

// profiles picks the normalization for each kind. Claim photos are proof of
// ownership and keep more detail.
var profiles = map[string]imaging.Profile{
	KindItem:  imaging.Listing,
	KindFound: imaging.Listing,
	KindClaim: imaging.Evidence,
}

// ProfileFor returns the imaging profile for the kind in path.
func ProfileFor(path string) imaging.Profile {
	kind, _, _ := strings.Cut(path, "/")
	if p, ok := profiles[kind]; ok {
		return p
	}
	return imaging.Listing
}

// DBStore keeps processed photos as blobs in the database.
type DBStore struct {
	DB *sql.DB
}

// Store normalizes data for its kind, saves it under path and returns its URL.
func (s *DBStore) Store(ctx context.Context, data []byte, path string) (string, error) {
	processed, err := imaging.Normalize(data, ProfileFor(path))
	if err != nil {
		return "", fmt.Errorf("processing %s: %w", path, err)
	}

	id, err := store.SaveImage(ctx, s.DB, path, processed.Data, processed.MIME)
	if err != nil {
		return "", err
	}
	return URLPrefix + id, nil
}

// Remove deletes the image behind url. Unknown URLs are ignored.
func (s *DBStore) Remove(ctx context.Context, url string) error {
	id, ok := ImageID(url)
	if !ok {
		return nil
	}
	_, err := store.DeleteImage(ctx, s.DB, id)
	return err
}

// ObjectPath returns kind/<user>/<unix millis>-<random>.jpg.
func ObjectPath(kind, userID string, at time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("%s/%s/%d-%s.jpg", kind, userID, at.UnixMilli(), suffix)
}

// ImageID extracts the image id from a URL returned by Store.
func ImageID(url string) (string, bool) {
	id, ok := strings.CutPrefix(url, URLPrefix)
	return id, ok && id != ""
}
