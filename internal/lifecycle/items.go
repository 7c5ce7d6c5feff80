package lifecycle

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/erazemk/najdeno/internal/blob"
	"github.com/erazemk/najdeno/internal/metrics"
	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/store"
)

// FeedFilter narrows the public feed.
type FeedFilter struct {
	Type     string
	Category string
	Search   string
}

// CreateItem stores a new pending post for the actor. Photos are uploaded
// first; any that fail are left out of the post.
func (s *Service) CreateItem(ctx context.Context, actor model.Actor, n model.NewItem, photos []Upload) (*model.Item, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	n.Normalize(s.now())
	if err := n.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkUploads(photos); err != nil {
		return nil, err
	}

	urls := s.storeImages(ctx, blob.KindItem, actor.ID, photos)

	item, err := store.CreateItem(ctx, s.DB, actor.ID, n, urls)
	if err != nil {
		return nil, err
	}

	slog.Info("item posted", "item", item.ID, "type", item.Type, "user", actor.ID, "images", len(urls))
	return item, nil
}

// GetItem returns one item with poster and finder profiles attached.
// Pending and rejected posts are only visible to their poster and to
// administrators; everyone else gets model.ErrNotFound.
func (s *Service) GetItem(ctx context.Context, actor model.Actor, id string) (*model.Item, error) {
	item, err := store.GetItem(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, itemNotFound(id)
	}
	if !item.IsPublic() && item.CreatedBy != actor.ID && !actor.IsAdmin() {
		return nil, itemNotFound(id)
	}

	if item.Poster, err = store.GetProfile(ctx, s.DB, item.CreatedBy); err != nil {
		return nil, err
	}
	if item.FoundBy != nil {
		if item.Finder, err = store.GetProfile(ctx, s.DB, *item.FoundBy); err != nil {
			return nil, err
		}
	}
	return item, nil
}

// ListFeed returns every publicly visible item, newest first.
func (s *Service) ListFeed(ctx context.Context, f FeedFilter) ([]model.Item, error) {
	if f.Type != "" && !model.ValidItemType(f.Type) {
		return nil, model.Invalid("type", "must be lost or found")
	}
	if f.Category != "" && !model.ValidCategory(f.Category) {
		return nil, model.Invalid("category", "unknown category")
	}
	return store.ListItems(ctx, s.DB, store.ItemFilter{
		Statuses: model.PublicItemStatuses,
		Type:     f.Type,
		Category: f.Category,
		Search:   f.Search,
	})
}

// ListMine returns all of the actor's posts regardless of status.
func (s *Service) ListMine(ctx context.Context, actor model.Actor) ([]model.Item, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	return store.ListItems(ctx, s.DB, store.ItemFilter{CreatedBy: actor.ID})
}

// DeleteItem removes the actor's own post while it is still awaiting review.
func (s *Service) DeleteItem(ctx context.Context, actor model.Actor, id string) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	item, err := store.GetItem(ctx, s.DB, id)
	if err != nil {
		return err
	}
	if item == nil {
		return itemNotFound(id)
	}
	if item.CreatedBy != actor.ID {
		return fmt.Errorf("item %s belongs to another user: %w", id, model.ErrForbidden)
	}
	if item.Status != model.ItemStatusPending {
		return invalidTransition("item %s is %s, only pending posts can be deleted", id, item.Status)
	}

	ok, err := store.DeleteItem(ctx, s.DB, id, actor.ID)
	if err != nil {
		return err
	}
	if !ok {
		return conflict("delete_item", "item %s changed before it could be deleted", id)
	}

	slog.Info("item deleted", "item", id, "user", actor.ID)
	return nil
}

// MarkReturned closes out a claimed item. Only the poster can do this.
func (s *Service) MarkReturned(ctx context.Context, actor model.Actor, id string) (*model.Item, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	item, err := store.GetItem(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, itemNotFound(id)
	}
	if item.CreatedBy != actor.ID {
		return nil, fmt.Errorf("only the poster can mark item %s returned: %w", id, model.ErrForbidden)
	}
	if item.Status != model.ItemStatusClaimed {
		return nil, invalidTransition("item %s is %s, expected %s", id, item.Status, model.ItemStatusClaimed)
	}

	ok, err := store.SetItemStatus(ctx, s.DB, id, model.ItemStatusClaimed, model.ItemStatusResolved)
	if err != nil {
		return nil, err
	}
	if !ok {
		// claimed has a single outgoing edge, so losing the race means
		// someone else already resolved it.
		return nil, invalidTransition("item %s is no longer %s", id, model.ItemStatusClaimed)
	}
	metrics.Transition(model.ItemStatusClaimed, model.ItemStatusResolved)

	slog.Info("item resolved", "item", id, "from", model.ItemStatusClaimed, "to", model.ItemStatusResolved, "user", actor.ID)
	return store.GetItem(ctx, s.DB, id)
}
