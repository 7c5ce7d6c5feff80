package store

import (
	"context"
	"errors"
	"testing"

	"github.com/erazemk/najdeno/internal/db"
	"github.com/erazemk/najdeno/internal/model"
)

func TestCreateClaimOnePendingPerClaimant(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := mustUser(t, database, "owner@uni.edu")
	claimant := mustUser(t, database, "claimant@uni.edu")
	item := mustItem(t, database, owner.ID, model.ItemTypeFound, "Calculator")

	first, err := CreateClaim(ctx, database, item.ID, claimant.ID, "it has my name on it", []string{"/api/images/p"})
	if err != nil {
		t.Fatalf("CreateClaim: %v", err)
	}
	if first.Status != model.ClaimStatusPending {
		t.Errorf("expected pending, got %q", first.Status)
	}
	if first.ItemTitle != "Calculator" || first.Claimant.Email != "claimant@uni.edu" {
		t.Errorf("expected joined fields, got %+v", first)
	}

	pending, _ := HasPendingClaim(ctx, database, item.ID, claimant.ID)
	if !pending {
		t.Error("expected pending claim to be detected")
	}

	_, err = CreateClaim(ctx, database, item.ID, claimant.ID, "again", nil)
	if !errors.Is(err, model.ErrConflict) {
		t.Fatalf("expected ErrConflict for second pending claim, got %v", err)
	}

	note := "not enough proof"
	ok, err := SetClaimStatus(ctx, database, first.ID, model.ClaimStatusPending, model.ClaimStatusRejected, &note)
	if err != nil || !ok {
		t.Fatalf("SetClaimStatus: ok=%v err=%v", ok, err)
	}

	// Resubmission after rejection is accepted.
	if _, err := CreateClaim(ctx, database, item.ID, claimant.ID, "here is a receipt", nil); err != nil {
		t.Fatalf("CreateClaim after rejection: %v", err)
	}
}

func TestRejectPendingClaims(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := mustUser(t, database, "owner@uni.edu")
	a := mustUser(t, database, "a@uni.edu")
	b := mustUser(t, database, "b@uni.edu")
	c := mustUser(t, database, "c@uni.edu")
	item := mustItem(t, database, owner.ID, model.ItemTypeFound, "Headphones")

	winner, _ := CreateClaim(ctx, database, item.ID, a.ID, "mine", nil)
	CreateClaim(ctx, database, item.ID, b.ID, "mine too", nil)
	CreateClaim(ctx, database, item.ID, c.ID, "no, mine", nil)

	n, err := RejectPendingClaims(ctx, database, item.ID, winner.ID, model.SiblingRejectionNote)
	if err != nil {
		t.Fatalf("RejectPendingClaims: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 rejected siblings, got %d", n)
	}

	pending, _ := ListClaims(ctx, database, ClaimFilter{ItemID: item.ID, Status: model.ClaimStatusPending})
	if len(pending) != 1 || pending[0].ID != winner.ID {
		t.Errorf("expected only the winner to remain pending, got %v", pending)
	}

	mine, _ := ListClaims(ctx, database, ClaimFilter{ClaimantID: b.ID})
	if len(mine) != 1 || mine[0].RejectionNote == nil || *mine[0].RejectionNote != model.SiblingRejectionNote {
		t.Errorf("expected sibling rejection note, got %v", mine)
	}
}

func TestSingleApprovedClaimPerItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := mustUser(t, database, "owner@uni.edu")
	a := mustUser(t, database, "a@uni.edu")
	b := mustUser(t, database, "b@uni.edu")
	item := mustItem(t, database, owner.ID, model.ItemTypeFound, "Jacket")

	ca, _ := CreateClaim(ctx, database, item.ID, a.ID, "mine", nil)
	cb, _ := CreateClaim(ctx, database, item.ID, b.ID, "mine", nil)

	if ok, err := SetClaimStatus(ctx, database, ca.ID, model.ClaimStatusPending, model.ClaimStatusApproved, nil); err != nil || !ok {
		t.Fatalf("approve first: ok=%v err=%v", ok, err)
	}

	_, err := SetClaimStatus(ctx, database, cb.ID, model.ClaimStatusPending, model.ClaimStatusApproved, nil)
	if !errors.Is(err, model.ErrConflict) {
		t.Errorf("expected ErrConflict for second approval, got %v", err)
	}
}
