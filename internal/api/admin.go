package api

import (
	"net/http"

	"github.com/erazemk/najdeno/internal/lifecycle"
)

// AdminHandler handles the moderation endpoints.
type AdminHandler struct {
	Service *lifecycle.Service
}

type rejectRequest struct {
	Note string `json:"note"`
}

// Backlog handles GET /api/admin/backlog.
func (h *AdminHandler) Backlog(w http.ResponseWriter, r *http.Request) {
	b, err := h.Service.Backlog(r.Context(), actor(r))
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, b)
}

// ApproveItem handles POST /api/admin/items/{id}/approve.
func (h *AdminHandler) ApproveItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.Service.ApproveItem(r.Context(), actor(r), r.PathValue("id"))
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// RejectItem handles POST /api/admin/items/{id}/reject.
func (h *AdminHandler) RejectItem(w http.ResponseWriter, r *http.Request) {
	note, ok := readNote(w, r)
	if !ok {
		return
	}
	item, err := h.Service.RejectItem(r.Context(), actor(r), r.PathValue("id"), note)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// ApproveClaim handles POST /api/admin/claims/{id}/approve.
func (h *AdminHandler) ApproveClaim(w http.ResponseWriter, r *http.Request) {
	claim, err := h.Service.ApproveClaim(r.Context(), actor(r), r.PathValue("id"))
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, claim)
}

// RejectClaim handles POST /api/admin/claims/{id}/reject.
func (h *AdminHandler) RejectClaim(w http.ResponseWriter, r *http.Request) {
	note, ok := readNote(w, r)
	if !ok {
		return
	}
	claim, err := h.Service.RejectClaim(r.Context(), actor(r), r.PathValue("id"), note)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, claim)
}

// readNote reads an optional {"note": "..."} body. An empty body means no note.
func readNote(w http.ResponseWriter, r *http.Request) (string, bool) {
	if r.ContentLength == 0 {
		return "", true
	}
	var req rejectRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return "", false
	}
	return req.Note, true
}
