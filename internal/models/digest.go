package models

// Digest is a per-day aggregate of outbound DMs and their reply status.
// It is derived on demand from the stored record set, never persisted.
type Digest struct {
	Date             string     `json:"date"`
	TotalSent        int        `json:"total_sent"`
	TotalReplies     int        `json:"total_replies"`
	ReplyRatePercent int        `json:"reply_rate"`
	TopConversations []DMRecord `json:"top_conversations"`
}
