package models

import "time"

// Session is an OAuth installation: the linkage between a local user and
// their provider credentials. The core treats the tokens as opaque; an
// expired or revoked token surfaces as a fetch failure on the next sync.
type Session struct {
	UserID       string    `json:"user_id"`
	TeamID       string    `json:"team_id"`
	TeamName     string    `json:"team_name"`
	TeamDomain   string    `json:"team_domain"`
	AccessToken  string    `json:"-"`
	BotToken     string    `json:"-"`
	UserName     string    `json:"user_name"`
	UserRealName string    `json:"user_real_name"`
	UserAvatar   string    `json:"user_avatar"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserProfile is the user shape exposed over the API and in the OAuth
// redirect back to the dashboard.
type UserProfile struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	RealName string `json:"real_name"`
	Avatar   string `json:"avatar,omitempty"`
}

// TeamProfile is the team shape exposed over the API.
type TeamProfile struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Domain string `json:"domain"`
}

// User returns the session's user profile.
func (s *Session) User() UserProfile {
	return UserProfile{
		ID:       s.UserID,
		Name:     s.UserName,
		RealName: s.UserRealName,
		Avatar:   s.UserAvatar,
	}
}

// Team returns the session's team profile.
func (s *Session) Team() TeamProfile {
	return TeamProfile{
		ID:     s.TeamID,
		Name:   s.TeamName,
		Domain: s.TeamDomain,
	}
}

// DeliveryToken returns the token used to post messages back to the user,
// preferring the bot token when the installation has one.
func (s *Session) DeliveryToken() string {
	if s.BotToken != "" {
		return s.BotToken
	}
	return s.AccessToken
}
