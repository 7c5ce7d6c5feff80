package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/najdeno/internal/model"
)

const claimSelect = `SELECT c.id, c.item_id, c.claimant_id, c.message, c.proof_image_urls, c.status,
	       c.rejection_note, c.created_at, c.updated_at,
	       i.title, i.type, u.full_name, u.email
	FROM claims c
	JOIN items i ON i.id = c.item_id
	JOIN users u ON u.id = c.claimant_id`

// ClaimFilter narrows ListClaims. Zero values match everything.
type ClaimFilter struct {
	ItemID     string
	ClaimantID string
	Status     string
}

// CreateClaim inserts a pending claim. A second pending claim by the same
// claimant on the same item violates a unique index and returns
// model.ErrConflict.
func CreateClaim(ctx context.Context, q Querier, itemID, claimantID, message string, proofURLs []string) (*model.Claim, error) {
	urls, err := encodeURLs(proofURLs)
	if err != nil {
		return nil, err
	}

	id := NewID()
	ts := now()
	_, err = q.ExecContext(ctx,
		`INSERT INTO claims (id, item_id, claimant_id, message, proof_image_urls, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, 'pending', ?, ?)`,
		id, itemID, claimantID, message, urls, ts, ts,
	)
	if err != nil {
		return nil, conflictOr(err, "creating claim")
	}

	return GetClaim(ctx, q, id)
}

// GetClaim returns a claim by ID with item and claimant fields joined.
func GetClaim(ctx context.Context, q Querier, id string) (*model.Claim, error) {
	row := q.QueryRowContext(ctx, claimSelect+` WHERE c.id = ?`, id)
	c, err := scanClaim(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting claim: %w", err)
	}
	return c, nil
}

// ListClaims returns claims matching the filter, newest first.
func ListClaims(ctx context.Context, q Querier, f ClaimFilter) ([]model.Claim, error) {
	query := claimSelect + ` WHERE 1=1`
	var args []any

	if f.ItemID != "" {
		query += ` AND c.item_id = ?`
		args = append(args, f.ItemID)
	}
	if f.ClaimantID != "" {
		query += ` AND c.claimant_id = ?`
		args = append(args, f.ClaimantID)
	}
	if f.Status != "" {
		query += ` AND c.status = ?`
		args = append(args, f.Status)
	}

	query += ` ORDER BY c.created_at DESC, c.id DESC`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing claims: %w", err)
	}
	defer rows.Close()

	var claims []model.Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning claim: %w", err)
		}
		claims = append(claims, *c)
	}
	return claims, rows.Err()
}

// HasPendingClaim reports whether claimantID already has a pending claim on itemID.
func HasPendingClaim(ctx context.Context, q Querier, itemID, claimantID string) (bool, error) {
	var count int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM claims WHERE item_id = ? AND claimant_id = ? AND status = 'pending'`,
		itemID, claimantID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking pending claims: %w", err)
	}
	return count > 0, nil
}

// SetClaimStatus moves a claim from one status to another, storing note.
// It only writes if the claim is still in status from and reports whether it did.
func SetClaimStatus(ctx context.Context, q Querier, id, from, to string, note *string) (bool, error) {
	result, err := q.ExecContext(ctx,
		`UPDATE claims SET status = ?, rejection_note = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		to, note, now(), id, from,
	)
	if err != nil {
		return false, conflictOr(err, "updating claim status")
	}
	return affected(result, "updating claim status")
}

// RejectPendingClaims rejects every pending claim on itemID except exceptID
// and returns how many were rejected.
func RejectPendingClaims(ctx context.Context, q Querier, itemID, exceptID, note string) (int64, error) {
	result, err := q.ExecContext(ctx,
		`UPDATE claims SET status = 'rejected', rejection_note = ?, updated_at = ?
		 WHERE item_id = ? AND id <> ? AND status = 'pending'`,
		note, now(), itemID, exceptID,
	)
	if err != nil {
		return 0, fmt.Errorf("rejecting sibling claims: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rejecting sibling claims: %w", err)
	}
	return n, nil
}

func scanClaim(s rowScanner) (*model.Claim, error) {
	c := &model.Claim{Claimant: &model.Profile{}}
	var proofURLs, rejectionNote sql.NullString
	err := s.Scan(&c.ID, &c.ItemID, &c.ClaimantID, &c.Message, &proofURLs, &c.Status,
		&rejectionNote, &c.CreatedAt, &c.UpdatedAt,
		&c.ItemTitle, &c.ItemType, &c.Claimant.FullName, &c.Claimant.Email)
	if err != nil {
		return nil, err
	}
	if c.ProofImageURLs, err = decodeURLs(proofURLs); err != nil {
		return nil, err
	}
	c.RejectionNote = nullString(rejectionNote)
	c.Claimant.ID = c.ClaimantID
	return c, nil
}
