package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/erazemk/najdeno/internal/blob"
	"github.com/erazemk/najdeno/internal/metrics"
	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/store"
)

// FoundInput is a finder's report on someone else's lost item.
type FoundInput struct {
	Location string
	Message  string
	Photos   []Upload
}

// ReportFound records that the actor found another user's lost item and
// moves it to found. This is the only write a non-owner makes on an item;
// it is guarded by the single-finder rule, so a second report fails with
// model.ErrConflict.
func (s *Service) ReportFound(ctx context.Context, actor model.Actor, itemID string, in FoundInput) (*model.Item, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	location := strings.TrimSpace(in.Location)
	if location == "" {
		return nil, model.Invalid("found_location", "required")
	}
	if err := s.checkUploads(in.Photos); err != nil {
		return nil, err
	}

	item, err := store.GetItem(ctx, s.DB, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil || (!item.IsPublic() && !actor.IsAdmin()) {
		return nil, itemNotFound(itemID)
	}
	if item.CreatedBy == actor.ID {
		return nil, fmt.Errorf("cannot report your own item %s as found: %w", itemID, model.ErrForbidden)
	}
	if item.Type != model.ItemTypeLost {
		return nil, invalidTransition("item %s is a %s post, only lost items can be reported found", itemID, item.Type)
	}
	if item.HasFoundReport() {
		return nil, conflict("report_found", "item %s was already reported found", itemID)
	}
	if item.Status != model.ItemStatusApproved {
		return nil, invalidTransition("item %s is %s, expected %s", itemID, item.Status, model.ItemStatusApproved)
	}

	images := s.storeImages(ctx, blob.KindFound, actor.ID, in.Photos)

	ok, err := store.RecordFoundReport(ctx, s.DB, itemID, store.FoundReport{
		FinderID: actor.ID,
		Location: location,
		Message:  optional(in.Message),
		Images:   images,
		At:       s.now(),
	})
	if err != nil || !ok {
		s.discardImages(ctx, images)
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, conflict("report_found", "item %s was reported found concurrently", itemID)
	}
	metrics.Transition(model.ItemStatusApproved, model.ItemStatusFound)

	slog.Info("found report recorded", "item", itemID, "from", model.ItemStatusApproved, "to", model.ItemStatusFound,
		"finder", actor.ID, "images", len(images))
	return store.GetItem(ctx, s.DB, itemID)
}

// ClaimInput is the message and proof photos attached to a claim.
type ClaimInput struct {
	Message string
	Photos  []Upload
}

// SubmitOwnerProof lets the poster of a lost item that someone reported
// found prove it is theirs. The proof is stored as a pending claim.
func (s *Service) SubmitOwnerProof(ctx context.Context, actor model.Actor, itemID string, in ClaimInput) (*model.Claim, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	if err := s.checkClaimInput(in); err != nil {
		return nil, err
	}

	item, err := store.GetItem(ctx, s.DB, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, itemNotFound(itemID)
	}
	if item.CreatedBy != actor.ID {
		return nil, fmt.Errorf("only the poster can prove ownership of item %s: %w", itemID, model.ErrForbidden)
	}
	if item.Status != model.ItemStatusFound {
		return nil, invalidTransition("item %s is %s, expected %s", itemID, item.Status, model.ItemStatusFound)
	}

	return s.createClaim(ctx, actor, item, in, "owner_proof")
}
