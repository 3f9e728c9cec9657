package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/harixx/slack-dm-tracker-web-app/internal/config"
	"github.com/harixx/slack-dm-tracker-web-app/internal/digest"
	"github.com/harixx/slack-dm-tracker-web-app/internal/dmsync"
	"github.com/harixx/slack-dm-tracker-web-app/internal/slackclient"
	"github.com/harixx/slack-dm-tracker-web-app/internal/store"
)

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	store    store.DataStore
	slack    slackclient.API
	syncer   *dmsync.Syncer
	notifier *digest.Notifier
	cfg      *config.Config
	logger   zerolog.Logger
	redis    *redis.Client // nil unless rate limiting is configured

	states *stateStore
}

// NewHandler creates a new Handler with the given dependencies. redis may
// be nil.
func NewHandler(st store.DataStore, api slackclient.API, syncer *dmsync.Syncer, notifier *digest.Notifier, cfg *config.Config, logger zerolog.Logger, redisClient *redis.Client) *Handler {
	return &Handler{
		store:    st,
		slack:    api,
		syncer:   syncer,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
		redis:    redisClient,
		states:   newStateStore(),
	}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}
