package handlers

import (
	"net/http"
	"time"

	"github.com/harixx/slack-dm-tracker-web-app/internal/api/middleware"
	"github.com/harixx/slack-dm-tracker-web-app/internal/digest"
	"github.com/harixx/slack-dm-tracker-web-app/internal/models"
)

// DigestResponse is the /api/send-digest payload.
type DigestResponse struct {
	Success bool          `json:"success"`
	Digest  models.Digest `json:"digest"`
}

// SendDigest builds today's digest and delivers it to the user as a DM.
func (h *Handler) SendDigest(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	sess, err := h.store.GetSession(r.Context(), claims.UserID)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", claims.UserID).Msg("session lookup failed")
		h.Error(w, http.StatusInternalServerError, "Failed to send digest")
		return
	}
	if sess == nil {
		h.Error(w, http.StatusNotFound, "User not found")
		return
	}

	d, err := h.notifier.SendDaily(r.Context(), claims.UserID)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", claims.UserID).Msg("digest delivery failed")
		h.Error(w, http.StatusBadGateway, "Failed to send digest")
		return
	}
	if d == nil {
		// Session vanished between the check above and delivery.
		h.Error(w, http.StatusNotFound, "User not found")
		return
	}

	h.JSON(w, http.StatusOK, DigestResponse{Success: true, Digest: *d})
}

// PreviewDigest returns today's digest with the shorter preview bound,
// without delivering anything.
func (h *Handler) PreviewDigest(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	records, err := h.store.GetRecords(r.Context(), claims.UserID)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", claims.UserID).Msg("record lookup failed")
		h.Error(w, http.StatusInternalServerError, "Failed to build digest")
		return
	}

	today := time.Now().UTC().Format("2006-01-02")
	h.JSON(w, http.StatusOK, digest.Build(records, today, digest.TopPreview))
}
