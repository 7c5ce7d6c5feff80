package model

import (
	"strings"
	"time"
)

// Item is a lost or found report posted by a user.
type Item struct {
	ID            string     `json:"id"`
	Type          string     `json:"type"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	Category      string     `json:"category"`
	Location      string     `json:"location"`
	ItemDate      time.Time  `json:"item_date"`
	ImageURLs     []string   `json:"image_urls"`
	CreatedBy     string     `json:"created_by"`
	Status        string     `json:"status"`
	RejectionNote *string    `json:"rejection_note,omitempty"`
	FoundBy       *string    `json:"found_by,omitempty"`
	FoundLocation *string    `json:"found_location,omitempty"`
	FoundMessage  *string    `json:"found_message,omitempty"`
	FoundImages   []string   `json:"found_images,omitempty"`
	FoundAt       *time.Time `json:"found_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	// Joined fields (not always populated).
	Poster *Profile `json:"poster,omitempty"`
	Finder *Profile `json:"finder,omitempty"`
}

// Item types.
const (
	ItemTypeLost  = "lost"
	ItemTypeFound = "found"
)

// Item statuses.
const (
	ItemStatusPending  = "pending"
	ItemStatusApproved = "approved"
	ItemStatusRejected = "rejected"
	ItemStatusFound    = "found"
	ItemStatusClaimed  = "claimed"
	ItemStatusResolved = "resolved"
)

// Item categories.
const (
	CategoryStationery  = "stationery"
	CategoryElectronics = "electronics"
	CategoryClothing    = "clothing"
	CategoryIDDocs      = "id_docs"
	CategoryOther       = "other"
)

var categories = map[string]bool{
	CategoryStationery:  true,
	CategoryElectronics: true,
	CategoryClothing:    true,
	CategoryIDDocs:      true,
	CategoryOther:       true,
}

// itemTransitions is the item status graph. Rejected and resolved have no
// outgoing edges; a rejected post is never resubmitted, the poster creates a
// new one instead.
var itemTransitions = map[string][]string{
	ItemStatusPending:  {ItemStatusApproved, ItemStatusRejected},
	ItemStatusApproved: {ItemStatusFound, ItemStatusClaimed},
	ItemStatusFound:    {ItemStatusClaimed},
	ItemStatusClaimed:  {ItemStatusResolved},
}

// PublicItemStatuses are the statuses shown in the shared feed.
var PublicItemStatuses = []string{
	ItemStatusApproved,
	ItemStatusFound,
	ItemStatusClaimed,
	ItemStatusResolved,
}

// ValidItemStatus reports whether s is one of the six item statuses.
func ValidItemStatus(s string) bool {
	switch s {
	case ItemStatusPending, ItemStatusApproved, ItemStatusRejected,
		ItemStatusFound, ItemStatusClaimed, ItemStatusResolved:
		return true
	}
	return false
}

// ValidItemType reports whether t is lost or found.
func ValidItemType(t string) bool {
	return t == ItemTypeLost || t == ItemTypeFound
}

// ValidCategory reports whether c is a known category.
func ValidCategory(c string) bool {
	return categories[c]
}

// CanTransition reports whether the graph has an edge from -> to.
func CanTransition(from, to string) bool {
	for _, next := range itemTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsPublic reports whether the item is visible outside moderation.
func (i *Item) IsPublic() bool {
	for _, s := range PublicItemStatuses {
		if i.Status == s {
			return true
		}
	}
	return false
}

// IsSettled reports whether a claim has already been accepted for the item.
func (i *Item) IsSettled() bool {
	return i.Status == ItemStatusClaimed || i.Status == ItemStatusResolved
}

// HasFoundReport reports whether the found-report fields are set.
func (i *Item) HasFoundReport() bool {
	return i.FoundBy != nil
}

// NewItem holds the poster-supplied fields of a new item.
type NewItem struct {
	Type        string
	Title       string
	Description string
	Category    string
	Location    string
	ItemDate    time.Time
}

// Normalize trims whitespace and fills defaults.
func (n *NewItem) Normalize(now time.Time) {
	n.Type = strings.ToLower(strings.TrimSpace(n.Type))
	n.Title = strings.TrimSpace(n.Title)
	n.Description = strings.TrimSpace(n.Description)
	n.Category = strings.ToLower(strings.TrimSpace(n.Category))
	n.Location = strings.TrimSpace(n.Location)
	if n.Category == "" {
		n.Category = CategoryOther
	}
	if n.ItemDate.IsZero() {
		n.ItemDate = now
	}
}

// Validate checks the required fields.
func (n *NewItem) Validate() error {
	if !ValidItemType(n.Type) {
		return Invalid("type", "must be lost or found")
	}
	if n.Title == "" {
		return Invalid("title", "required")
	}
	if len(n.Title) > 200 {
		return Invalid("title", "must be at most 200 characters")
	}
	if n.Location == "" {
		return Invalid("location", "required")
	}
	if !ValidCategory(n.Category) {
		return Invalid("category", "unknown category")
	}
	return nil
}
