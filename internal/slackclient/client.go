package slackclient

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/slack-go/slack"

	"github.com/harixx/slack-dm-tracker-web-app/internal/metrics"
	"github.com/harixx/slack-dm-tracker-web-app/internal/models"
)

const (
	// conversationPageSize bounds both the IM listing and per-conversation
	// history fetch, matching the provider's default page size.
	conversationPageSize = 100
)

// IMChannel is one direct-message channel visible to a credential.
type IMChannel struct {
	ID     string
	UserID string // counterpart
}

// UserInfo is the subset of a provider user profile the tracker keeps.
type UserInfo struct {
	ID       string
	Name     string
	RealName string
	Avatar   string
}

// OAuthGrant is the result of exchanging an authorization code.
type OAuthGrant struct {
	UserID      string
	AccessToken string // user token, used for reads
	BotToken    string // bot token, used for digest delivery
	TeamID      string
	TeamName    string
}

// API is the provider surface the tracker depends on. The concrete Client
// wraps the Slack Web API; tests substitute fakes.
type API interface {
	ListIMChannels(ctx context.Context, token string) ([]IMChannel, error)
	ChannelHistory(ctx context.Context, token, channelID string, oldest time.Time) ([]models.RawMessage, error)
	UserInfo(ctx context.Context, token, userID string) (*UserInfo, error)
	PostMessage(ctx context.Context, token, channelID, text string) error
	ExchangeCode(ctx context.Context, code string) (*OAuthGrant, error)
}

// Client implements API against the Slack Web API.
type Client struct {
	clientID     string
	clientSecret string
	redirectURL  string
	httpClient   *http.Client
}

// New creates a Slack API client. The OAuth credentials are only needed
// for ExchangeCode; read and write calls take a per-user token.
func New(clientID, clientSecret, redirectURL string) *Client {
	return &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURL:  redirectURL,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// ListIMChannels returns the direct-message conversations visible to the
// token, bounded to one page.
func (c *Client) ListIMChannels(ctx context.Context, token string) ([]IMChannel, error) {
	api := slack.New(token, slack.OptionHTTPClient(c.httpClient))

	done := observe("conversations.list")
	channels, _, err := api.GetConversationsContext(ctx, &slack.GetConversationsParameters{
		Types: []string{"im"},
		Limit: conversationPageSize,
	})
	done(err)
	if err != nil {
		return nil, fmt.Errorf("list im conversations: %w", err)
	}

	ims := make([]IMChannel, 0, len(channels))
	for _, ch := range channels {
		ims = append(ims, IMChannel{ID: ch.ID, UserID: ch.User})
	}
	return ims, nil
}

// ChannelHistory returns one page of a conversation's history no older
// than oldest, in the provider's pagination order.
func (c *Client) ChannelHistory(ctx context.Context, token, channelID string, oldest time.Time) ([]models.RawMessage, error) {
	api := slack.New(token, slack.OptionHTTPClient(c.httpClient))

	done := observe("conversations.history")
	resp, err := api.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
		ChannelID: channelID,
		Oldest:    strconv.FormatInt(oldest.Unix(), 10),
		Limit:     conversationPageSize,
	})
	done(err)
	if err != nil {
		return nil, fmt.Errorf("history for %s: %w", channelID, err)
	}

	msgs := make([]models.RawMessage, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		msgs = append(msgs, models.RawMessage{
			UserID:  m.User,
			TS:      m.Timestamp,
			Text:    m.Text,
			Type:    m.Type,
			Subtype: m.SubType,
		})
	}
	return msgs, nil
}

// UserInfo fetches a user's display profile.
func (c *Client) UserInfo(ctx context.Context, token, userID string) (*UserInfo, error) {
	api := slack.New(token, slack.OptionHTTPClient(c.httpClient))

	done := observe("users.info")
	user, err := api.GetUserInfoContext(ctx, userID)
	done(err)
	if err != nil {
		return nil, fmt.Errorf("user info for %s: %w", userID, err)
	}

	return &UserInfo{
		ID:       user.ID,
		Name:     user.Name,
		RealName: user.RealName,
		Avatar:   user.Profile.Image48,
	}, nil
}

// PostMessage sends a plain-text message to a channel (a user ID opens
// the DM channel with that user).
func (c *Client) PostMessage(ctx context.Context, token, channelID, text string) error {
	api := slack.New(token, slack.OptionHTTPClient(c.httpClient))

	done := observe("chat.postMessage")
	_, _, err := api.PostMessageContext(ctx, channelID, slack.MsgOptionText(text, false))
	done(err)
	if err != nil {
		return fmt.Errorf("post message to %s: %w", channelID, err)
	}
	return nil
}

// ExchangeCode trades an OAuth authorization code for tokens.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*OAuthGrant, error) {
	done := observe("oauth.v2.access")
	resp, err := slack.GetOAuthV2ResponseContext(ctx, c.httpClient, c.clientID, c.clientSecret, code, c.redirectURL)
	done(err)
	if err != nil {
		return nil, fmt.Errorf("oauth exchange: %w", err)
	}

	grant := &OAuthGrant{
		UserID:      resp.AuthedUser.ID,
		AccessToken: resp.AuthedUser.AccessToken,
		BotToken:    resp.AccessToken,
		TeamID:      resp.Team.ID,
		TeamName:    resp.Team.Name,
	}
	// Installs without user scopes still return a bot token; reads need
	// some credential either way.
	if grant.AccessToken == "" {
		grant.AccessToken = resp.AccessToken
	}
	return grant, nil
}

// observe times one provider call and counts failures.
func observe(method string) func(error) {
	start := time.Now()
	return func(err error) {
		metrics.SlackAPILatency.WithLabelValues(method).Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.SlackAPIErrors.WithLabelValues(method).Inc()
		}
	}
}
