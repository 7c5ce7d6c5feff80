package api

import (
	"context"
	"net/http"
	"time"

	"github.com/erazemk/najdeno/internal/lifecycle"
	"github.com/erazemk/najdeno/internal/model"
)

// ItemsHandler handles posting, browsing and acting on items.
type ItemsHandler struct {
	Service        *lifecycle.Service
	MaxUploadBytes int64
}

// List handles GET /api/items, the public feed.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := h.Service.ListFeed(r.Context(), lifecycle.FeedFilter{
		Type:     q.Get("type"),
		Category: q.Get("category"),
		Search:   q.Get("q"),
	})
	if err != nil {
		serviceError(w, r, err)
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Mine handles GET /api/items/mine.
func (h *ItemsHandler) Mine(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.ListMine(r.Context(), actor(r))
	if err != nil {
		serviceError(w, r, err)
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	sub, err := readSubmission(w, r, h.MaxUploadBytes)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	n := model.NewItem{
		Type:        sub.get("type"),
		Title:       sub.get("title"),
		Description: sub.get("description"),
		Category:    sub.get("category"),
		Location:    sub.get("location"),
	}
	if raw := sub.get("item_date"); raw != "" {
		n.ItemDate, err = parseDate(raw)
		if err != nil {
			jsonResponse(w, http.StatusBadRequest, errorBody{
				Error: "item_date must be YYYY-MM-DD or RFC 3339", Code: "validation", Field: "item_date",
			})
			return
		}
	}

	item, err := h.Service.CreateItem(r.Context(), actor(r), n, sub.photos)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, item)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.Service.GetItem(r.Context(), actor(r), r.PathValue("id"))
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteItem(r.Context(), actor(r), r.PathValue("id")); err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

// ReportFound handles POST /api/items/{id}/found. The finder does not own the
// item; the lifecycle service applies the narrow checks that allow the write.
func (h *ItemsHandler) ReportFound(w http.ResponseWriter, r *http.Request) {
	sub, err := readSubmission(w, r, h.MaxUploadBytes)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := h.Service.ReportFound(r.Context(), actor(r), r.PathValue("id"), lifecycle.FoundInput{
		Location: sub.get("found_location"),
		Message:  sub.get("found_message"),
		Photos:   sub.photos,
	})
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Claim handles POST /api/items/{id}/claims.
func (h *ItemsHandler) Claim(w http.ResponseWriter, r *http.Request) {
	h.claim(w, r, h.Service.SubmitClaim)
}

// Proof handles POST /api/items/{id}/proof.
func (h *ItemsHandler) Proof(w http.ResponseWriter, r *http.Request) {
	h.claim(w, r, h.Service.SubmitOwnerProof)
}

type claimFunc func(ctx context.Context, a model.Actor, itemID string, in lifecycle.ClaimInput) (*model.Claim, error)

func (h *ItemsHandler) claim(w http.ResponseWriter, r *http.Request, submit claimFunc) {
	sub, err := readSubmission(w, r, h.MaxUploadBytes)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	claim, err := submit(r.Context(), actor(r), r.PathValue("id"), lifecycle.ClaimInput{
		Message: sub.get("message"),
		Photos:  sub.photos,
	})
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, claim)
}

// Returned handles POST /api/items/{id}/returned.
func (h *ItemsHandler) Returned(w http.ResponseWriter, r *http.Request) {
	item, err := h.Service.MarkReturned(r.Context(), actor(r), r.PathValue("id"))
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}
