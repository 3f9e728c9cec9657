package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/harixx/slack-dm-tracker-web-app/internal/metrics"
	"github.com/harixx/slack-dm-tracker-web-app/internal/models"
	"github.com/harixx/slack-dm-tracker-web-app/internal/slackclient"
	"github.com/harixx/slack-dm-tracker-web-app/internal/token"
)

const (
	authorizeURL = "https://slack.com/oauth/v2/authorize"
	oauthScopes  = "chat:write,users:read,im:history,im:read"
	stateTTL     = 10 * time.Minute
)

// stateStore tracks outstanding OAuth state parameters so the callback
// can reject forged redirects.
type stateStore struct {
	mu     sync.Mutex
	states map[string]time.Time
}

func newStateStore() *stateStore {
	return &stateStore{states: make(map[string]time.Time)}
}

func (s *stateStore) issue() string {
	state := uuid.NewString()
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, t := range s.states {
		if now.Sub(t) > stateTTL {
			delete(s.states, k)
		}
	}
	s.states[state] = now
	return state
}

func (s *stateStore) consume(state string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	issued, ok := s.states[state]
	if !ok {
		return false
	}
	delete(s.states, state)
	return time.Since(issued) <= stateTTL
}

// Install starts the OAuth flow by redirecting to the provider's
// authorization endpoint with the fixed scope set.
func (h *Handler) Install(w http.ResponseWriter, r *http.Request) {
	if h.cfg.SlackClientID == "" {
		h.logger.Error().Msg("slack client ID not configured")
		h.Error(w, http.StatusInternalServerError, "Slack client ID not configured")
		return
	}

	q := url.Values{}
	q.Set("client_id", h.cfg.SlackClientID)
	q.Set("scope", oauthScopes)
	q.Set("redirect_uri", h.cfg.RedirectURL())
	q.Set("state", h.states.issue())

	http.Redirect(w, r, authorizeURL+"?"+q.Encode(), http.StatusFound)
}

// Callback finishes the OAuth flow: it exchanges the authorization code,
// stores the session and redirects back to the dashboard with a signed
// session token and the user profile attached. Provider errors and
// malformed callbacks redirect back with an error indicator instead of
// rendering a failure page.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if errParam := q.Get("error"); errParam != "" {
		h.logger.Warn().Str("error", errParam).Msg("oauth rejected by provider")
		h.redirectError(w, r, errParam)
		return
	}
	code := q.Get("code")
	if code == "" {
		h.redirectError(w, r, "no_code")
		return
	}
	if !h.states.consume(q.Get("state")) {
		h.redirectError(w, r, "bad_state")
		return
	}

	grant, err := h.slack.ExchangeCode(r.Context(), code)
	if err != nil {
		h.logger.Error().Err(err).Msg("oauth code exchange failed")
		h.redirectError(w, r, "token_exchange_failed")
		return
	}

	info, err := h.slack.UserInfo(r.Context(), grant.AccessToken, grant.UserID)
	if err != nil {
		h.logger.Error().Err(err).Msg("user info lookup failed")
		h.redirectError(w, r, "user_info_failed")
		return
	}

	sess := &models.Session{
		UserID:       grant.UserID,
		TeamID:       grant.TeamID,
		TeamName:     grant.TeamName,
		TeamDomain:   teamDomain(grant.TeamName),
		AccessToken:  grant.AccessToken,
		BotToken:     grant.BotToken,
		UserName:     info.Name,
		UserRealName: realName(info),
		UserAvatar:   info.Avatar,
		CreatedAt:    time.Now().UTC(),
	}
	if err := h.store.PutSession(r.Context(), sess); err != nil {
		h.logger.Error().Err(err).Str("user_id", sess.UserID).Msg("failed to store session")
		h.redirectError(w, r, "session_store_failed")
		return
	}

	signed, err := token.Sign(h.cfg.JWTSecret, sess.UserID, sess.TeamID, time.Now())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to sign session token")
		h.redirectError(w, r, "token_sign_failed")
		return
	}

	metrics.InstallsTotal.Inc()
	h.logger.Info().Str("user_id", sess.UserID).Str("team_id", sess.TeamID).Msg("installation completed")

	userJSON, _ := json.Marshal(sess.User())
	redirect := h.cfg.FrontendURL + "?token=" + url.QueryEscape(signed) + "&user=" + url.QueryEscape(string(userJSON))
	http.Redirect(w, r, redirect, http.StatusFound)
}

func (h *Handler) redirectError(w http.ResponseWriter, r *http.Request, reason string) {
	http.Redirect(w, r, h.cfg.FrontendURL+"?error="+url.QueryEscape(reason), http.StatusFound)
}

// teamDomain derives the workspace subdomain the way the dashboard
// expects: the team name lowercased.
func teamDomain(teamName string) string {
	return strings.ToLower(teamName)
}

func realName(info *slackclient.UserInfo) string {
	if info.RealName != "" {
		return info.RealName
	}
	return info.Name
}
