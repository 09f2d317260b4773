package api

import (
	"encoding/json"
	"net/http"
)

type identityHookRequest struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

// IdentityHookHandler handles POST /internal/identity-hook, the
// identity-provider post-confirmation callback.
//
// @Summary Identity-provider post-confirmation hook
// @Tags Identity
// @Router /internal/identity-hook [post]
func (h *Handlers) IdentityHookHandler(w http.ResponseWriter, r *http.Request) {
	var req identityHookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.deps.Services.IdentityHook.Confirm(r.Context(), req.UserID, req.Email); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondWithSuccess[any](w, http.StatusOK, nil)
}
