package lifecycle

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/erazemk/najdeno/internal/blob"
	"github.com/erazemk/najdeno/internal/metrics"
	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/store"
)

// SubmitClaim asserts that the actor owns a found item someone else posted.
func (s *Service) SubmitClaim(ctx context.Context, actor model.Actor, itemID string, in ClaimInput) (*model.Claim, error) {
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
	if item == nil || (!item.IsPublic() && !actor.IsAdmin()) {
		return nil, itemNotFound(itemID)
	}
	if item.Type != model.ItemTypeFound {
		return nil, invalidTransition("item %s is a %s post, only found items can be claimed", itemID, item.Type)
	}
	if item.CreatedBy == actor.ID {
		return nil, fmt.Errorf("cannot claim your own item %s: %w", itemID, model.ErrForbidden)
	}
	if item.Status != model.ItemStatusApproved {
		return nil, invalidTransition("item %s is %s, expected %s", itemID, item.Status, model.ItemStatusApproved)
	}

	return s.createClaim(ctx, actor, item, in, "claim")
}

// ApproveClaim accepts a pending claim and moves its item to claimed in the
// same transaction. Other pending claims on the item are rejected. Approving
// a claim that is already approved changes nothing.
func (s *Service) ApproveClaim(ctx context.Context, actor model.Actor, claimID string) (*model.Claim, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	var (
		from     string
		siblings int64
		repeated bool
	)
	err := store.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		claim, err := store.GetClaim(ctx, tx, claimID)
		if err != nil {
			return err
		}
		if claim == nil {
			return claimNotFound(claimID)
		}
		item, err := store.GetItem(ctx, tx, claim.ItemID)
		if err != nil {
			return err
		}
		if item == nil {
			return itemNotFound(claim.ItemID)
		}

		switch claim.Status {
		case model.ClaimStatusRejected:
			return invalidTransition("claim %s was already rejected", claimID)
		case model.ClaimStatusApproved:
			if item.IsSettled() {
				repeated = true
				return nil
			}
			// The claim was approved without its item following; finish the job.
			from = item.Status
			siblings, err = settleItem(ctx, tx, item, claim.ID)
			return err
		}

		if err := claimable(item, claim); err != nil {
			return err
		}

		ok, err := store.SetClaimStatus(ctx, tx, claim.ID, model.ClaimStatusPending, model.ClaimStatusApproved, nil)
		if err != nil {
			if errors.Is(err, model.ErrConflict) {
				return conflict("approve_claim", "item %s already has an approved claim", item.ID)
			}
			return err
		}
		if !ok {
			return conflict("approve_claim", "claim %s was moderated concurrently", claimID)
		}

		from = item.Status
		siblings, err = settleItem(ctx, tx, item, claim.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if repeated {
		slog.Info("claim already approved", "claim", claimID, "admin", actor.ID)
	} else {
		metrics.ClaimDecisions.WithLabelValues("approved").Inc()
		metrics.Transition(from, model.ItemStatusClaimed)
		if siblings > 0 {
			metrics.ClaimDecisions.WithLabelValues("auto_rejected").Add(float64(siblings))
		}
		slog.Info("claim approved", "claim", claimID, "from", from, "to", model.ItemStatusClaimed,
			"admin", actor.ID, "rejected_siblings", siblings)
	}
	return store.GetClaim(ctx, s.DB, claimID)
}

// RejectClaim turns down a pending claim. The note is optional.
func (s *Service) RejectClaim(ctx context.Context, actor model.Actor, claimID, note string) (*model.Claim, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	claim, err := store.GetClaim(ctx, s.DB, claimID)
	if err != nil {
		return nil, err
	}
	if claim == nil {
		return nil, claimNotFound(claimID)
	}
	if claim.Status != model.ClaimStatusPending {
		return nil, invalidTransition("claim %s is %s, expected %s", claimID, claim.Status, model.ClaimStatusPending)
	}

	ok, err := store.SetClaimStatus(ctx, s.DB, claimID, model.ClaimStatusPending, model.ClaimStatusRejected, optional(note))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, conflict("reject_claim", "claim %s was moderated concurrently", claimID)
	}
	metrics.ClaimDecisions.WithLabelValues("rejected").Inc()

	slog.Info("claim rejected", "claim", claimID, "admin", actor.ID)
	return store.GetClaim(ctx, s.DB, claimID)
}

// ListMyClaims returns the claims the actor has submitted, newest first.
func (s *Service) ListMyClaims(ctx context.Context, actor model.Actor) ([]model.Claim, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	return store.ListClaims(ctx, s.DB, store.ClaimFilter{ClaimantID: actor.ID})
}

func (s *Service) checkClaimInput(in ClaimInput) error {
	if strings.TrimSpace(in.Message) == "" {
		return model.Invalid("message", "required")
	}
	return s.checkUploads(in.Photos)
}

// createClaim stores a pending claim once the caller has checked the item.
// The item is checked again inside the insert transaction, so a claim never
// lands on an item whose claim was approved in the meantime.
func (s *Service) createClaim(ctx context.Context, actor model.Actor, item *model.Item, in ClaimInput, event string) (*model.Claim, error) {
	pending, err := store.HasPendingClaim(ctx, s.DB, item.ID, actor.ID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, conflict(event, "you already have a pending claim on item %s", item.ID)
	}

	urls := s.storeImages(ctx, blob.KindClaim, actor.ID, in.Photos)

	var claim *model.Claim
	err = store.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		current, err := store.GetItem(ctx, tx, item.ID)
		if err != nil {
			return err
		}
		if current == nil {
			return itemNotFound(item.ID)
		}
		if !eligible(current, actor.ID) {
			return conflict(event, "item %s is now %s", item.ID, current.Status)
		}
		claim, err = store.CreateClaim(ctx, tx, item.ID, actor.ID, strings.TrimSpace(in.Message), urls)
		if errors.Is(err, model.ErrConflict) {
			metrics.Conflict(event)
		}
		return err
	})
	if err != nil {
		s.discardImages(ctx, urls)
		return nil, err
	}
	metrics.ClaimDecisions.WithLabelValues("submitted").Inc()

	slog.Info("claim submitted", "claim", claim.ID, "item", item.ID, "user", actor.ID, "kind", event, "images", len(urls))
	return claim, nil
}

// eligible reports whether claimantID may hold a pending claim on item.
// Found posts take claims from anyone but the poster; lost posts that were
// reported found take proof from the poster only.
func eligible(item *model.Item, claimantID string) bool {
	switch {
	case item.Type == model.ItemTypeFound && item.Status == model.ItemStatusApproved:
		return claimantID != item.CreatedBy
	case item.Type == model.ItemTypeLost && item.Status == model.ItemStatusFound:
		return claimantID == item.CreatedBy
	}
	return false
}

// claimable checks that a pending claim can still be approved against its
// item.
func claimable(item *model.Item, claim *model.Claim) error {
	if item.IsSettled() {
		return invalidTransition("item %s is already %s", item.ID, item.Status)
	}
	if eligible(item, claim.ClaimantID) {
		return nil
	}
	return invalidTransition("claim %s cannot be approved while item %s is %s", claim.ID, item.ID, item.Status)
}

// settleItem moves the item to claimed and rejects the remaining pending
// claims. It returns how many claims it rejected.
func settleItem(ctx context.Context, tx *sql.Tx, item *model.Item, approvedID string) (int64, error) {
	if !model.CanTransition(item.Status, model.ItemStatusClaimed) {
		return 0, invalidTransition("item %s cannot move from %s to %s", item.ID, item.Status, model.ItemStatusClaimed)
	}
	ok, err := store.SetItemStatus(ctx, tx, item.ID, item.Status, model.ItemStatusClaimed)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, conflict("approve_claim", "item %s changed while its claim was approved", item.ID)
	}
	return store.RejectPendingClaims(ctx, tx, item.ID, approvedID, model.SiblingRejectionNote)
}
