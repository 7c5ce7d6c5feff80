package lifecycle

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/najdeno/internal/db"
	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/store"
)

// memStore accepts every upload except ones whose bytes are "broken".
// onStore, when set, runs once before the next upload is kept.
type memStore struct {
	mu      sync.Mutex
	paths   []string
	removed []string
	onStore func()
}

func (m *memStore) Store(_ context.Context, data []byte, path string) (string, error) {
	if string(data) == "broken" {
		return "", errors.New("bucket unavailable")
	}
	m.mu.Lock()
	hook := m.onStore
	m.onStore = nil
	m.mu.Unlock()
	if hook != nil {
		hook()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.paths = append(m.paths, path)
	return "/api/images/" + path, nil
}

func (m *memStore) Remove(_ context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, url)
	return nil
}

type fixture struct {
	svc    *Service
	db     *sql.DB
	images *memStore
	admin model.Actor
	alice model.Actor
	bob   model.Actor
	carol model.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	database := db.NewTestDB(t)
	images := &memStore{}
	f := &fixture{svc: New(database, images), db: database, images: images}
	f.svc.Now = func() time.Time { return time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC) }
	f.admin = newActor(t, database, "admin@uni.edu", model.RoleAdmin)
	f.alice = newActor(t, database, "alice@uni.edu", model.RoleStudent)
	f.bob = newActor(t, database, "bob@uni.edu", model.RoleStudent)
	f.carol = newActor(t, database, "carol@uni.edu", model.RoleStudent)
	return f
}

func newActor(t *testing.T, database *sql.DB, email, role string) model.Actor {
	t.Helper()
	u, err := store.CreateUser(context.Background(), database, email, email, "hash", role)
	require.NoError(t, err)
	return model.Actor{ID: u.ID, Role: u.Role}
}

// post creates an item as owner and, when approve is set, publishes it.
func (f *fixture) post(t *testing.T, owner model.Actor, itemType string, approve bool) *model.Item {
	t.Helper()
	ctx := context.Background()
	item, err := f.svc.CreateItem(ctx, owner, model.NewItem{
		Type:     itemType,
		Title:    "Blue umbrella",
		Location: "Library, 2nd floor",
	}, nil)
	require.NoError(t, err)
	if approve {
		item, err = f.svc.ApproveItem(ctx, f.admin, item.ID)
		require.NoError(t, err)
	}
	return item
}

func claimInput(msg string) ClaimInput {
	return ClaimInput{Message: msg}
}

func TestCreateItemStartsPending(t *testing.T) {
	f := newFixture(t)

	item, err := f.svc.CreateItem(context.Background(), f.alice, model.NewItem{
		Type:     "LOST",
		Title:    "  Student ID  ",
		Location: "Cafeteria",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, model.ItemStatusPending, item.Status)
	assert.Equal(t, model.ItemTypeLost, item.Type)
	assert.Equal(t, "Student ID", item.Title)
	assert.Equal(t, model.CategoryOther, item.Category)
	assert.Equal(t, f.alice.ID, item.CreatedBy)
	assert.Empty(t, item.ImageURLs)
}

func TestCreateItemValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateItem(ctx, f.alice, model.NewItem{Type: "lost", Location: "Gym"}, nil)
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = f.svc.CreateItem(ctx, f.alice, model.NewItem{Type: "misplaced", Title: "Keys", Location: "Gym"}, nil)
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = f.svc.CreateItem(ctx, model.Actor{}, model.NewItem{Type: "lost", Title: "Keys", Location: "Gym"}, nil)
	assert.ErrorIs(t, err, model.ErrForbidden)
}

func TestCreateItemSkipsFailedUploads(t *testing.T) {
	f := newFixture(t)

	item, err := f.svc.CreateItem(context.Background(), f.alice, model.NewItem{
		Type: "found", Title: "Laptop charger", Location: "Lab 3",
	}, []Upload{
		{Name: "a.jpg", Data: []byte("one")},
		{Name: "b.jpg", Data: []byte("broken")},
		{Name: "c.jpg", Data: []byte("three")},
	})
	require.NoError(t, err)
	assert.Len(t, item.ImageURLs, 2)
	for _, u := range item.ImageURLs {
		assert.Contains(t, u, "/api/images/items/"+f.alice.ID+"/")
	}
}

func TestCreateItemTooManyPhotos(t *testing.T) {
	f := newFixture(t)
	photos := make([]Upload, DefaultMaxImages+1)
	for i := range photos {
		photos[i] = Upload{Name: "p.jpg", Data: []byte("x")}
	}

	_, err := f.svc.CreateItem(context.Background(), f.alice, model.NewItem{
		Type: "lost", Title: "Scarf", Location: "Hall",
	}, photos)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestModerationGate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.post(t, f.alice, model.ItemTypeLost, false)

	_, err := f.svc.ApproveItem(ctx, f.bob, item.ID)
	assert.ErrorIs(t, err, model.ErrForbidden)

	_, err = f.svc.ApproveItem(ctx, f.admin, "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)

	approved, err := f.svc.ApproveItem(ctx, f.admin, item.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ItemStatusApproved, approved.Status)

	_, err = f.svc.ApproveItem(ctx, f.admin, item.ID)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	_, err = f.svc.RejectItem(ctx, f.admin, item.ID, "duplicate")
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
}

func TestRejectItemStoresNote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.post(t, f.alice, model.ItemTypeFound, false)

	rejected, err := f.svc.RejectItem(ctx, f.admin, item.ID, "  photo shows a person  ")
	require.NoError(t, err)
	assert.Equal(t, model.ItemStatusRejected, rejected.Status)
	require.NotNil(t, rejected.RejectionNote)
	assert.Equal(t, "photo shows a person", *rejected.RejectionNote)

	other := f.post(t, f.alice, model.ItemTypeFound, false)
	rejected, err = f.svc.RejectItem(ctx, f.admin, other.ID, "")
	require.NoError(t, err)
	assert.Nil(t, rejected.RejectionNote)

	// Rejected is terminal.
	_, err = f.svc.ApproveItem(ctx, f.admin, item.ID)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
}

func TestGetItemVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.post(t, f.alice, model.ItemTypeLost, false)

	got, err := f.svc.GetItem(ctx, f.alice, item.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Poster)
	assert.Equal(t, "alice@uni.edu", got.Poster.Email)

	_, err = f.svc.GetItem(ctx, f.admin, item.ID)
	assert.NoError(t, err)

	_, err = f.svc.GetItem(ctx, f.bob, item.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = f.svc.GetItem(ctx, model.Actor{}, item.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = f.svc.ApproveItem(ctx, f.admin, item.ID)
	require.NoError(t, err)

	got, err = f.svc.GetItem(ctx, model.Actor{}, item.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Finder)
}

func TestListFeedShowsOnlyPublicItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	lost := f.post(t, f.alice, model.ItemTypeLost, true)
	found := f.post(t, f.bob, model.ItemTypeFound, true)
	f.post(t, f.carol, model.ItemTypeLost, false)
	rejected := f.post(t, f.carol, model.ItemTypeFound, false)
	_, err := f.svc.RejectItem(ctx, f.admin, rejected.ID, "")
	require.NoError(t, err)

	feed, err := f.svc.ListFeed(ctx, FeedFilter{})
	require.NoError(t, err)
	require.Len(t, feed, 2)
	assert.Equal(t, found.ID, feed[0].ID)
	assert.Equal(t, lost.ID, feed[1].ID)

	feed, err = f.svc.ListFeed(ctx, FeedFilter{Type: model.ItemTypeLost})
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, lost.ID, feed[0].ID)

	_, err = f.svc.ListFeed(ctx, FeedFilter{Category: "jewellery"})
	assert.ErrorIs(t, err, model.ErrValidation)

	mine, err := f.svc.ListMine(ctx, f.carol)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestDeleteItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pending := f.post(t, f.alice, model.ItemTypeLost, false)
	approved := f.post(t, f.alice, model.ItemTypeLost, true)

	assert.ErrorIs(t, f.svc.DeleteItem(ctx, f.bob, pending.ID), model.ErrForbidden)
	assert.ErrorIs(t, f.svc.DeleteItem(ctx, f.alice, approved.ID), model.ErrInvalidTransition)
	assert.ErrorIs(t, f.svc.DeleteItem(ctx, f.alice, "missing"), model.ErrNotFound)

	require.NoError(t, f.svc.DeleteItem(ctx, f.alice, pending.ID))
	_, err := f.svc.GetItem(ctx, f.alice, pending.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestReportFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.post(t, f.alice, model.ItemTypeLost, true)

	_, err := f.svc.ReportFound(ctx, f.bob, item.ID, FoundInput{Location: "   "})
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = f.svc.ReportFound(ctx, f.alice, item.ID, FoundInput{Location: "Gym"})
	assert.ErrorIs(t, err, model.ErrForbidden)

	_, err = f.svc.ReportFound(ctx, f.bob, "missing", FoundInput{Location: "Gym"})
	assert.ErrorIs(t, err, model.ErrNotFound)

	found, err := f.svc.ReportFound(ctx, f.bob, item.ID, FoundInput{
		Location: "Gym lockers",
		Message:  "Handed to reception",
		Photos:   []Upload{{Name: "evidence.jpg", Data: []byte("img")}},
	})
	require.NoError(t, err)
	assert.Equal(t, model.ItemStatusFound, found.Status)
	require.NotNil(t, found.FoundBy)
	assert.Equal(t, f.bob.ID, *found.FoundBy)
	require.NotNil(t, found.FoundLocation)
	assert.Equal(t, "Gym lockers", *found.FoundLocation)
	require.NotNil(t, found.FoundMessage)
	require.NotNil(t, found.FoundAt)
	assert.Len(t, found.FoundImages, 1)

	// First reporter wins, whoever asks next.
	_, err = f.svc.ReportFound(ctx, f.carol, item.ID, FoundInput{Location: "Hall"})
	assert.ErrorIs(t, err, model.ErrConflict)
	_, err = f.svc.ReportFound(ctx, f.bob, item.ID, FoundInput{Location: "Hall"})
	assert.ErrorIs(t, err, model.ErrConflict)

	detail, err := f.svc.GetItem(ctx, f.alice, item.ID)
	require.NoError(t, err)
	require.NotNil(t, detail.Finder)
	assert.Equal(t, "bob@uni.edu", detail.Finder.Email)
}

func TestReportFoundRequiresApprovedLostItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	foundType := f.post(t, f.alice, model.ItemTypeFound, true)
	_, err := f.svc.ReportFound(ctx, f.bob, foundType.ID, FoundInput{Location: "Gym"})
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	pending := f.post(t, f.alice, model.ItemTypeLost, false)
	_, err = f.svc.ReportFound(ctx, f.bob, pending.ID, FoundInput{Location: "Gym"})
	assert.ErrorIs(t, err, model.ErrNotFound)

	// Admins can see pending posts but still cannot skip moderation.
	_, err = f.svc.ReportFound(ctx, f.admin, pending.ID, FoundInput{Location: "Gym"})
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
}

func TestConcurrentReportFoundHasOneWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.post(t, f.alice, model.ItemTypeLost, true)

	finders := []model.Actor{f.bob, f.carol}
	for i := 0; i < 4; i++ {
		finders = append(finders, newActor(t, f.db, "finder"+string(rune('a'+i))+"@uni.edu", model.RoleStudent))
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
	)
	for _, finder := range finders {
		wg.Add(1)
		go func(a model.Actor) {
			defer wg.Done()
			_, err := f.svc.ReportFound(ctx, a, item.ID, FoundInput{Location: "Quad"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, model.ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(finder)
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, len(finders)-1, conflicts)
}

func TestReportFoundLoserPhotosRemoved(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.post(t, f.alice, model.ItemTypeLost, true)

	// Carol's report lands while bob's photo is uploading.
	f.images.onStore = func() {
		_, err := f.svc.ReportFound(ctx, f.carol, item.ID, FoundInput{Location: "Gym"})
		require.NoError(t, err)
	}
	_, err := f.svc.ReportFound(ctx, f.bob, item.ID, FoundInput{
		Location: "Library",
		Photos:   []Upload{{Name: "umbrella.jpg", Data: []byte("umbrella")}},
	})
	assert.ErrorIs(t, err, model.ErrConflict)

	got, err := store.GetItem(ctx, f.db, item.ID)
	require.NoError(t, err)
	require.NotNil(t, got.FoundBy)
	assert.Equal(t, f.carol.ID, *got.FoundBy)
	assert.Empty(t, got.FoundImages)

	require.Len(t, f.images.paths, 1)
	assert.Equal(t, []string{"/api/images/" + f.images.paths[0]}, f.images.removed)
}

func TestOwnerProofPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.post(t, f.alice, model.ItemTypeLost, true)

	// No proof before somebody reports the item found.
	_, err := f.svc.SubmitOwnerProof(ctx, f.alice, item.ID, claimInput("it has my initials"))
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	_, err = f.svc.ReportFound(ctx, f.bob, item.ID, FoundInput{Location: "Gym"})
	require.NoError(t, err)

	_, err = f.svc.SubmitOwnerProof(ctx, f.bob, item.ID, claimInput("mine"))
	assert.ErrorIs(t, err, model.ErrForbidden)

	_, err = f.svc.SubmitOwnerProof(ctx, f.alice, item.ID, claimInput(" "))
	assert.ErrorIs(t, err, model.ErrValidation)

	proof, err := f.svc.SubmitOwnerProof(ctx, f.alice, item.ID, ClaimInput{
		Message: "Initials A.K. inside the handle",
		Photos:  []Upload{{Name: "receipt.jpg", Data: []byte("receipt")}},
	})
	require.NoError(t, err)
	assert.Equal(t, model.ClaimStatusPending, proof.Status)
	assert.Equal(t, f.alice.ID, proof.ClaimantID)
	assert.Len(t, proof.ProofImageURLs, 1)

	_, err = f.svc.SubmitOwnerProof(ctx, f.alice, item.ID, claimInput("again"))
	assert.ErrorIs(t, err, model.ErrConflict)

	approved, err := f.svc.ApproveClaim(ctx, f.admin, proof.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ClaimStatusApproved, approved.Status)

	claimed, err := f.svc.GetItem(ctx, f.alice, item.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ItemStatusClaimed, claimed.Status)
	assert.NotNil(t, claimed.FoundBy)

	_, err = f.svc.MarkReturned(ctx, f.bob, item.ID)
	assert.ErrorIs(t, err, model.ErrForbidden)

	resolved, err := f.svc.MarkReturned(ctx, f.alice, item.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ItemStatusResolved, resolved.Status)

	_, err = f.svc.MarkReturned(ctx, f.alice, item.ID)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
}

func TestOwnerProofResubmitAfterRejection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.post(t, f.alice, model.ItemTypeLost, true)
	_, err := f.svc.ReportFound(ctx, f.bob, item.ID, FoundInput{Location: "Gym"})
	require.NoError(t, err)

	first, err := f.svc.SubmitOwnerProof(ctx, f.alice, item.ID, claimInput("blurry photo"))
	require.NoError(t, err)
	_, err = f.svc.RejectClaim(ctx, f.admin, first.ID, "need a clearer photo")
	require.NoError(t, err)

	second, err := f.svc.SubmitOwnerProof(ctx, f.alice, item.ID, claimInput("sharp photo"))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestSubmitClaimRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.post(t, f.alice, model.ItemTypeFound, true)

	_, err := f.svc.SubmitClaim(ctx, f.alice, item.ID, claimInput("mine"))
	assert.ErrorIs(t, err, model.ErrForbidden)

	_, err = f.svc.SubmitClaim(ctx, f.bob, item.ID, claimInput(""))
	assert.ErrorIs(t, err, model.ErrValidation)

	lost := f.post(t, f.alice, model.ItemTypeLost, true)
	_, err = f.svc.SubmitClaim(ctx, f.bob, lost.ID, claimInput("mine"))
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	claim, err := f.svc.SubmitClaim(ctx, f.bob, item.ID, claimInput("It has a sticker"))
	require.NoError(t, err)
	assert.Equal(t, model.ClaimStatusPending, claim.Status)
	assert.Equal(t, item.Title, claim.ItemTitle)

	_, err = f.svc.SubmitClaim(ctx, f.bob, item.ID, claimInput("second try"))
	assert.ErrorIs(t, err, model.ErrConflict)

	_, err = f.svc.RejectClaim(ctx, f.bob, claim.ID, "")
	assert.ErrorIs(t, err, model.ErrForbidden)

	rejected, err := f.svc.RejectClaim(ctx, f.admin, claim.ID, "no proof")
	require.NoError(t, err)
	assert.Equal(t, model.ClaimStatusRejected, rejected.Status)

	_, err = f.svc.RejectClaim(ctx, f.admin, claim.ID, "")
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	again, err := f.svc.SubmitClaim(ctx, f.bob, item.ID, claimInput("receipt attached"))
	require.NoError(t, err)
	assert.Equal(t, model.ClaimStatusPending, again.Status)

	mine, err := f.svc.ListMyClaims(ctx, f.bob)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestSubmitClaimLosesToConcurrentApproval(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.post(t, f.alice, model.ItemTypeFound, true)

	first, err := f.svc.SubmitClaim(ctx, f.bob, item.ID, claimInput("my initials are on it"))
	require.NoError(t, err)

	// The approval commits while carol's photo is still uploading.
	f.images.onStore = func() {
		_, err := f.svc.ApproveClaim(ctx, f.admin, first.ID)
		require.NoError(t, err)
	}
	_, err = f.svc.SubmitClaim(ctx, f.carol, item.ID, ClaimInput{
		Message: "it is mine",
		Photos:  []Upload{{Name: "receipt.jpg", Data: []byte("receipt")}},
	})
	assert.ErrorIs(t, err, model.ErrConflict)

	claims, err := store.ListClaims(ctx, f.db, store.ClaimFilter{ItemID: item.ID})
	require.NoError(t, err)
	require.Len(t, claims, 1)
	assert.Equal(t, first.ID, claims[0].ID)
	assert.Equal(t, model.ClaimStatusApproved, claims[0].Status)

	require.Len(t, f.images.paths, 1)
	assert.Equal(t, []string{"/api/images/" + f.images.paths[0]}, f.images.removed)
}

func TestDuplicateClaimUploadsNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.post(t, f.alice, model.ItemTypeFound, true)

	_, err := f.svc.SubmitClaim(ctx, f.bob, item.ID, claimInput("mine"))
	require.NoError(t, err)

	_, err = f.svc.SubmitClaim(ctx, f.bob, item.ID, ClaimInput{
		Message: "mine again",
		Photos:  []Upload{{Name: "a.jpg", Data: []byte("a")}},
	})
	assert.ErrorIs(t, err, model.ErrConflict)
	assert.Empty(t, f.images.paths)
}

func TestApproveClaimRejectsSiblings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.post(t, f.alice, model.ItemTypeFound, true)

	bobs, err := f.svc.SubmitClaim(ctx, f.bob, item.ID, claimInput("bob's"))
	require.NoError(t, err)
	carols, err := f.svc.SubmitClaim(ctx, f.carol, item.ID, claimInput("carol's"))
	require.NoError(t, err)

	_, err = f.svc.ApproveClaim(ctx, f.bob, bobs.ID)
	assert.ErrorIs(t, err, model.ErrForbidden)

	approved, err := f.svc.ApproveClaim(ctx, f.admin, bobs.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ClaimStatusApproved, approved.Status)

	item, err = f.svc.GetItem(ctx, f.alice, item.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ItemStatusClaimed, item.Status)

	sibling, err := store.GetClaim(ctx, f.db, carols.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ClaimStatusRejected, sibling.Status)
	require.NotNil(t, sibling.RejectionNote)
	assert.Equal(t, model.SiblingRejectionNote, *sibling.RejectionNote)

	// Approving the same claim twice changes nothing.
	again, err := f.svc.ApproveClaim(ctx, f.admin, bobs.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ClaimStatusApproved, again.Status)
	assert.Equal(t, approved.UpdatedAt, again.UpdatedAt)

	_, err = f.svc.ApproveClaim(ctx, f.admin, carols.ID)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	// The item no longer takes claims.
	_, err = f.svc.SubmitClaim(ctx, f.carol, item.ID, claimInput("really mine"))
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	_, err = f.svc.ApproveClaim(ctx, f.admin, "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestApproveClaimOnSettledItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.post(t, f.alice, model.ItemTypeFound, true)
	claim, err := f.svc.SubmitClaim(ctx, f.bob, item.ID, claimInput("mine"))
	require.NoError(t, err)

	// Simulate the item being settled underneath a still-pending claim.
	ok, err := store.SetItemStatus(ctx, f.db, item.ID, model.ItemStatusApproved, model.ItemStatusClaimed)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = f.svc.ApproveClaim(ctx, f.admin, claim.ID)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	stored, err := store.GetClaim(ctx, f.db, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ClaimStatusPending, stored.Status)
}

func TestApproveClaimRollsBackOnItemFailure(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	svc := New(sqlDB, nil)
	admin := model.Actor{ID: "admin-1", Role: model.RoleAdmin}
	ts := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

	claimRows := sqlmock.NewRows([]string{
		"id", "item_id", "claimant_id", "message", "proof_image_urls", "status",
		"rejection_note", "created_at", "updated_at", "title", "type", "full_name", "email",
	}).AddRow("claim-1", "item-1", "user-2", "mine", "[]", model.ClaimStatusPending,
		nil, ts, ts, "Umbrella", model.ItemTypeFound, "Bob", "bob@uni.edu")

	itemRows := sqlmock.NewRows([]string{
		"id", "type", "title", "description", "category", "location", "item_date",
		"image_urls", "created_by", "status", "rejection_note", "found_by", "found_location",
		"found_message", "found_images", "found_at", "created_at", "updated_at",
	}).AddRow("item-1", model.ItemTypeFound, "Umbrella", "", model.CategoryOther, "Library", ts,
		"[]", "user-1", model.ItemStatusApproved, nil, nil, nil,
		nil, nil, nil, ts, ts)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM claims c").WithArgs("claim-1").WillReturnRows(claimRows)
	mock.ExpectQuery("FROM items i WHERE i\\.id").WithArgs("item-1").WillReturnRows(itemRows)
	mock.ExpectExec("UPDATE claims SET status").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE items").WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	_, err = svc.ApproveClaim(context.Background(), admin, "claim-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk I/O error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBacklog(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.post(t, f.alice, model.ItemTypeLost, false)
	found := f.post(t, f.alice, model.ItemTypeFound, true)
	_, err := f.svc.SubmitClaim(ctx, f.bob, found.ID, claimInput("mine"))
	require.NoError(t, err)

	_, err = f.svc.Backlog(ctx, f.alice)
	assert.ErrorIs(t, err, model.ErrForbidden)

	b, err := f.svc.Backlog(ctx, f.admin)
	require.NoError(t, err)
	assert.Len(t, b.PendingItems, 1)
	assert.Len(t, b.ReviewedItems, 1)
	assert.Len(t, b.PendingClaims, 1)
}
