package store

import (
	"context"
	"database/sql"
	"fmt"
)

// SaveImage stores image bytes under a logical path and returns the image id.
func SaveImage(ctx context.Context, q Querier, path string, data []byte, mime string) (string, error) {
	id := NewID()
	_, err := q.ExecContext(ctx,
		`INSERT INTO images (id, path, data, mime, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, path, data, mime, now(),
	)
	if err != nil {
		return "", fmt.Errorf("saving image: %w", err)
	}
	return id, nil
}

// GetImage returns an image's data and MIME type. Data is nil if the image
// does not exist.
func GetImage(ctx context.Context, q Querier, id string) ([]byte, string, error) {
	var data []byte
	var mime string
	err := q.QueryRowContext(ctx,
		`SELECT data, mime FROM images WHERE id = ?`, id,
	).Scan(&data, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting image: %w", err)
	}
	return data, mime, nil
}

// DeleteImage removes an image and reports whether it existed.
func DeleteImage(ctx context.Context, q Querier, id string) (bool, error) {
	result, err := q.ExecContext(ctx, `DELETE FROM images WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("deleting image: %w", err)
	}
	return affected(result, "deleting image")
}
