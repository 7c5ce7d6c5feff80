package api

import (
	"net/http"

	"github.com/erazemk/najdeno/internal/lifecycle"
	"github.com/erazemk/najdeno/internal/model"
)

// ClaimsHandler serves the claimant's view of their claims.
type ClaimsHandler struct {
	Service *lifecycle.Service
}

// Mine handles GET /api/claims/mine.
func (h *ClaimsHandler) Mine(w http.ResponseWriter, r *http.Request) {
	claims, err := h.Service.ListMyClaims(r.Context(), actor(r))
	if err != nil {
		serviceError(w, r, err)
		return
	}
	if claims == nil {
		claims = []model.Claim{}
	}
	jsonResponse(w, http.StatusOK, claims)
}
