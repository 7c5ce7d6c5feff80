// Package lifecycle enforces the item and claim state machines: moderation,
// found-reports, ownership claims and their resolution. Every operation takes
// the acting identity and re-reads state from the store, so callers never
// mutate records directly.
package lifecycle

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/erazemk/najdeno/internal/blob"
	"github.com/erazemk/najdeno/internal/metrics"
	"github.com/erazemk/najdeno/internal/model"
)

// DefaultMaxImages is the per-submission photo limit.
const DefaultMaxImages = 3

// ObjectStore persists photo bytes and returns the URL they are served from.
// Remove deletes an object by the URL Store returned.
type ObjectStore interface {
	Store(ctx context.Context, data []byte, path string) (string, error)
	Remove(ctx context.Context, url string) error
}

// Upload is one photo attached to a submission.
type Upload struct {
	Name string
	Data []byte
}

// Service runs lifecycle operations against the database.
type Service struct {
	DB        *sql.DB
	Images    ObjectStore
	MaxImages int
	Now       func() time.Time
}

// New returns a Service with default limits.
func New(db *sql.DB, images ObjectStore) *Service {
	return &Service{DB: db, Images: images, MaxImages: DefaultMaxImages, Now: time.Now}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) checkUploads(photos []Upload) error {
	limit := s.MaxImages
	if limit <= 0 {
		limit = DefaultMaxImages
	}
	if len(photos) > limit {
		return model.Invalid("images", fmt.Sprintf("at most %d photos allowed", limit))
	}
	return nil
}

// storeImages uploads photos before the record write. A photo that fails to
// upload is dropped; the submission goes ahead with the rest.
func (s *Service) storeImages(ctx context.Context, kind, userID string, photos []Upload) []string {
	urls := []string{}
	for _, p := range photos {
		if len(p.Data) == 0 {
			continue
		}
		if s.Images == nil {
			metrics.UploadFailures.WithLabelValues(kind).Inc()
			slog.Warn("photo dropped, no object store configured", "kind", kind, "user", userID, "name", p.Name)
			continue
		}
		url, err := s.Images.Store(ctx, p.Data, blob.ObjectPath(kind, userID, s.now()))
		if err != nil {
			metrics.UploadFailures.WithLabelValues(kind).Inc()
			slog.Warn("photo upload failed, skipping", "kind", kind, "user", userID, "name", p.Name, "error", err)
			continue
		}
		urls = append(urls, url)
	}
	return urls
}

// discardImages removes photos uploaded for a submission that lost its write.
func (s *Service) discardImages(ctx context.Context, urls []string) {
	if s.Images == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	for _, url := range urls {
		if err := s.Images.Remove(ctx, url); err != nil {
			slog.Warn("failed to remove orphaned photo", "url", url, "error", err)
		}
	}
}

func requireUser(actor model.Actor) error {
	if !actor.Authenticated() {
		return fmt.Errorf("sign-in required: %w", model.ErrForbidden)
	}
	return nil
}

func requireAdmin(actor model.Actor) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("administrator role required: %w", model.ErrForbidden)
	}
	return nil
}

func itemNotFound(id string) error {
	return fmt.Errorf("item %s: %w", id, model.ErrNotFound)
}

func claimNotFound(id string) error {
	return fmt.Errorf("claim %s: %w", id, model.ErrNotFound)
}

func invalidTransition(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, model.ErrInvalidTransition)...)
}

func conflict(operation, format string, args ...any) error {
	metrics.Conflict(operation)
	return fmt.Errorf(format+": %w", append(args, model.ErrConflict)...)
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
