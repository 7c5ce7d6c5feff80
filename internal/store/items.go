package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/erazemk/najdeno/internal/model"
)

const itemColumns = `i.id, i.type, i.title, i.description, i.category, i.location, i.item_date,
	i.image_urls, i.created_by, i.status, i.rejection_note, i.found_by, i.found_location,
	i.found_message, i.found_images, i.found_at, i.created_at, i.updated_at`

// ItemFilter narrows ListItems. Zero values match everything.
type ItemFilter struct {
	Statuses      []string
	ExcludeStatus string
	Type          string
	Category      string
	CreatedBy     string
	Search        string
}

// FoundReport is the evidence a finder attaches to a lost item.
type FoundReport struct {
	FinderID string
	Location string
	Message  *string
	Images   []string
	At       time.Time
}

type rowScanner interface {
	Scan(dest ...any) error
}

// CreateItem inserts a new item in pending status.
func CreateItem(ctx context.Context, q Querier, createdBy string, n model.NewItem, imageURLs []string) (*model.Item, error) {
	urls, err := encodeURLs(imageURLs)
	if err != nil {
		return nil, err
	}

	id := NewID()
	ts := now()
	_, err = q.ExecContext(ctx,
		`INSERT INTO items (id, type, title, description, category, location, item_date,
		                    image_urls, created_by, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, n.Type, n.Title, n.Description, n.Category, n.Location, n.ItemDate.UTC(),
		urls, createdBy, model.ItemStatusPending, ts, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	return GetItem(ctx, q, id)
}

// GetItem returns an item by ID.
func GetItem(ctx context.Context, q Querier, id string) (*model.Item, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items i WHERE i.id = ?`, id,
	)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ListItems returns items matching the filter, newest first.
func ListItems(ctx context.Context, q Querier, f ItemFilter) ([]model.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items i WHERE 1=1`
	var args []any

	if len(f.Statuses) > 0 {
		query += ` AND i.status IN (?` + strings.Repeat(`, ?`, len(f.Statuses)-1) + `)`
		for _, s := range f.Statuses {
			args = append(args, s)
		}
	}
	if f.ExcludeStatus != "" {
		query += ` AND i.status <> ?`
		args = append(args, f.ExcludeStatus)
	}
	if f.Type != "" {
		query += ` AND i.type = ?`
		args = append(args, f.Type)
	}
	if f.Category != "" {
		query += ` AND i.category = ?`
		args = append(args, f.Category)
	}
	if f.CreatedBy != "" {
		query += ` AND i.created_by = ?`
		args = append(args, f.CreatedBy)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		query += ` AND (lower(i.title) LIKE ? OR lower(i.description) LIKE ? OR lower(i.location) LIKE ?)`
		args = append(args, like, like, like)
	}

	query += ` ORDER BY i.created_at DESC, i.id DESC`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// SetItemStatus moves an item from one status to another. It only writes if
// the item is still in status from and reports whether it did. Approval
// clears any earlier rejection note.
func SetItemStatus(ctx context.Context, q Querier, id, from, to string) (bool, error) {
	result, err := q.ExecContext(ctx,
		`UPDATE items
		 SET status = ?,
		     rejection_note = CASE WHEN ? = 'approved' THEN NULL ELSE rejection_note END,
		     updated_at = ?
		 WHERE id = ? AND status = ?`,
		to, to, now(), id, from,
	)
	if err != nil {
		return false, fmt.Errorf("updating item status: %w", err)
	}
	return affected(result, "updating item status")
}

// RejectItem moves a pending item to rejected with an optional note.
func RejectItem(ctx context.Context, q Querier, id string, note *string) (bool, error) {
	result, err := q.ExecContext(ctx,
		`UPDATE items SET status = 'rejected', rejection_note = ?, updated_at = ?
		 WHERE id = ? AND status = 'pending'`,
		note, now(), id,
	)
	if err != nil {
		return false, fmt.Errorf("rejecting item: %w", err)
	}
	return affected(result, "rejecting item")
}

// RecordFoundReport writes the found-report fields and moves the item to
// found. The write only happens for an approved lost item that nobody has
// reported yet and that the finder did not post.
func RecordFoundReport(ctx context.Context, q Querier, id string, r FoundReport) (bool, error) {
	images, err := encodeURLs(r.Images)
	if err != nil {
		return false, err
	}

	result, err := q.ExecContext(ctx,
		`UPDATE items
		 SET status = 'found', found_by = ?, found_location = ?, found_message = ?,
		     found_images = ?, found_at = ?, updated_at = ?
		 WHERE id = ? AND type = 'lost' AND status = 'approved'
		   AND found_by IS NULL AND created_by <> ?`,
		r.FinderID, r.Location, r.Message, images, r.At.UTC(), now(),
		id, r.FinderID,
	)
	if err != nil {
		return false, fmt.Errorf("recording found report: %w", err)
	}
	return affected(result, "recording found report")
}

// DeleteItem removes a pending item owned by ownerID.
func DeleteItem(ctx context.Context, q Querier, id, ownerID string) (bool, error) {
	result, err := q.ExecContext(ctx,
		`DELETE FROM items WHERE id = ? AND created_by = ? AND status = 'pending'`,
		id, ownerID,
	)
	if err != nil {
		return false, fmt.Errorf("deleting item: %w", err)
	}
	return affected(result, "deleting item")
}

func scanItem(s rowScanner) (*model.Item, error) {
	item := &model.Item{}
	var imageURLs, rejectionNote, foundBy, foundLocation, foundMessage, foundImages sql.NullString
	err := s.Scan(&item.ID, &item.Type, &item.Title, &item.Description, &item.Category,
		&item.Location, &item.ItemDate, &imageURLs, &item.CreatedBy, &item.Status,
		&rejectionNote, &foundBy, &foundLocation, &foundMessage, &foundImages,
		&item.FoundAt, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if item.ImageURLs, err = decodeURLs(imageURLs); err != nil {
		return nil, err
	}
	item.RejectionNote = nullString(rejectionNote)
	item.FoundBy = nullString(foundBy)
	item.FoundLocation = nullString(foundLocation)
	item.FoundMessage = nullString(foundMessage)
	if foundImages.Valid {
		if item.FoundImages, err = decodeURLs(foundImages); err != nil {
			return nil, err
		}
	}
	return item, nil
}
