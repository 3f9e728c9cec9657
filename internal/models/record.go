package models

import "time"

// DMRecord is one outbound direct message sent by the tracked user,
// annotated with its reply status as of the last sync.
//
// The ID is derived from immutable provider identifiers (channel ID plus
// the message's native timestamp) so it stays stable across full-replace
// syncs.
type DMRecord struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	RecipientID     string     `json:"recipient_id"`
	RecipientName   string     `json:"recipient_name"`
	RecipientAvatar string     `json:"recipient_avatar"`
	Text            string     `json:"message"`
	SentAt          time.Time  `json:"timestamp"`
	HasReply        bool       `json:"has_reply"`
	ReplyAt         *time.Time `json:"reply_timestamp,omitempty"`
	Permalink       string     `json:"slack_link"`
	DateKey         string     `json:"date"` // YYYY-MM-DD, UTC day of SentAt
	ChannelID       string     `json:"channel_id"`
}
