package handlers

import (
	"net/http"

	"github.com/harixx/slack-dm-tracker-web-app/internal/api/middleware"
	"github.com/harixx/slack-dm-tracker-web-app/internal/models"
)

// SyncResponse is the /api/sync-dms payload.
type SyncResponse struct {
	Success bool              `json:"success"`
	Count   int               `json:"count"`
	Skipped int               `json:"skipped"` // conversations dropped after fetch errors
	DMs     []models.DMRecord `json:"dms"`
}

// ListDMs returns the current stored record set for the user.
func (h *Handler) ListDMs(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	sess, err := h.store.GetSession(r.Context(), claims.UserID)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", claims.UserID).Msg("session lookup failed")
		h.Error(w, http.StatusInternalServerError, "Failed to fetch DMs")
		return
	}
	if sess == nil {
		h.Error(w, http.StatusNotFound, "User not found")
		return
	}

	records, err := h.store.GetRecords(r.Context(), claims.UserID)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", claims.UserID).Msg("record lookup failed")
		h.Error(w, http.StatusInternalServerError, "Failed to fetch DMs")
		return
	}

	h.JSON(w, http.StatusOK, records)
}

// SyncDMs runs a full sync for the user and returns the fresh record set.
func (h *Handler) SyncDMs(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	sess, err := h.store.GetSession(r.Context(), claims.UserID)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", claims.UserID).Msg("session lookup failed")
		h.Error(w, http.StatusInternalServerError, "Failed to sync DMs")
		return
	}
	if sess == nil {
		h.Error(w, http.StatusNotFound, "User not found")
		return
	}

	records, skipped, err := h.syncer.Sync(r.Context(), sess)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", claims.UserID).Msg("dm sync failed")
		h.Error(w, http.StatusBadGateway, "Failed to sync DMs")
		return
	}

	h.JSON(w, http.StatusOK, SyncResponse{
		Success: true,
		Count:   len(records),
		Skipped: skipped,
		DMs:     records,
	})
}
