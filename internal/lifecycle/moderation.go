package lifecycle

import (
	"context"
	"log/slog"

	"github.com/erazemk/najdeno/internal/metrics"
	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/store"
)

// Backlog is the administrator's moderation queue.
type Backlog struct {
	PendingItems  []model.Item  `json:"pending_items"`
	ReviewedItems []model.Item  `json:"reviewed_items"`
	PendingClaims []model.Claim `json:"pending_claims"`
}

// ApproveItem publishes a pending post.
func (s *Service) ApproveItem(ctx context.Context, actor model.Actor, id string) (*model.Item, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	item, err := s.pendingItem(ctx, id)
	if err != nil {
		return nil, err
	}

	ok, err := store.SetItemStatus(ctx, s.DB, item.ID, model.ItemStatusPending, model.ItemStatusApproved)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, conflict("approve_item", "item %s was moderated concurrently", id)
	}
	metrics.Transition(model.ItemStatusPending, model.ItemStatusApproved)

	slog.Info("item approved", "item", id, "from", model.ItemStatusPending, "to", model.ItemStatusApproved, "admin", actor.ID)
	return store.GetItem(ctx, s.DB, id)
}

// RejectItem turns down a pending post. The note is optional and is shown to
// the poster.
func (s *Service) RejectItem(ctx context.Context, actor model.Actor, id, note string) (*model.Item, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	item, err := s.pendingItem(ctx, id)
	if err != nil {
		return nil, err
	}

	ok, err := store.RejectItem(ctx, s.DB, item.ID, optional(note))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, conflict("reject_item", "item %s was moderated concurrently", id)
	}
	metrics.Transition(model.ItemStatusPending, model.ItemStatusRejected)

	slog.Info("item rejected", "item", id, "from", model.ItemStatusPending, "to", model.ItemStatusRejected, "admin", actor.ID)
	return store.GetItem(ctx, s.DB, id)
}

// Backlog returns posts awaiting review, posts already reviewed and pending
// claims.
func (s *Service) Backlog(ctx context.Context, actor model.Actor) (*Backlog, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	var b Backlog
	var err error
	if b.PendingItems, err = store.ListItems(ctx, s.DB, store.ItemFilter{
		Statuses: []string{model.ItemStatusPending},
	}); err != nil {
		return nil, err
	}
	if b.ReviewedItems, err = store.ListItems(ctx, s.DB, store.ItemFilter{
		ExcludeStatus: model.ItemStatusPending,
	}); err != nil {
		return nil, err
	}
	if b.PendingClaims, err = store.ListClaims(ctx, s.DB, store.ClaimFilter{
		Status: model.ClaimStatusPending,
	}); err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *Service) pendingItem(ctx context.Context, id string) (*model.Item, error) {
	item, err := store.GetItem(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, itemNotFound(id)
	}
	if item.Status != model.ItemStatusPending {
		return nil, invalidTransition("item %s is %s, expected %s", id, item.Status, model.ItemStatusPending)
	}
	return item, nil
}
