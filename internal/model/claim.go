package model

import "time"

// Claim asserts ownership of an item. Third parties claim found-type items;
// the original poster files one as proof after a found-report on a lost item.
type Claim struct {
	ID             string    `json:"id"`
	ItemID         string    `json:"item_id"`
	ClaimantID     string    `json:"claimant_id"`
	Message        string    `json:"message"`
	ProofImageURLs []string  `json:"proof_image_urls"`
	Status         string    `json:"status"`
	RejectionNote  *string   `json:"rejection_note,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Joined fields (not always populated).
	ItemTitle string   `json:"item_title,omitempty"`
	ItemType  string   `json:"item_type,omitempty"`
	Claimant  *Profile `json:"claimant,omitempty"`
}

// Claim statuses.
const (
	ClaimStatusPending  = "pending"
	ClaimStatusApproved = "approved"
	ClaimStatusRejected = "rejected"
)

// SiblingRejectionNote is stored on pending claims that lose to an approved one.
const SiblingRejectionNote = "another claim for this item was approved"
