package handlers

import (
	"net/http"

	"github.com/harixx/slack-dm-tracker-web-app/internal/api/middleware"
	"github.com/harixx/slack-dm-tracker-web-app/internal/models"
)

// UserResponse is the /api/user payload.
type UserResponse struct {
	User models.UserProfile `json:"user"`
	Team models.TeamProfile `json:"team"`
}

// GetUser returns the authenticated user's profile and team.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	sess, err := h.store.GetSession(r.Context(), claims.UserID)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", claims.UserID).Msg("session lookup failed")
		h.Error(w, http.StatusInternalServerError, "Failed to fetch user")
		return
	}
	if sess == nil {
		h.Error(w, http.StatusNotFound, "User not found")
		return
	}

	h.JSON(w, http.StatusOK, UserResponse{User: sess.User(), Team: sess.Team()})
}
