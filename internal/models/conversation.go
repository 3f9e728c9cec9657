package models

// RawMessage is a message as returned by the provider, before reply
// resolution. TS is the provider's native fractional timestamp string
// (e.g. "1719846023.000200"); it is kept verbatim because record IDs and
// permalinks are built from it.
type RawMessage struct {
	UserID  string
	TS      string
	Text    string
	Type    string
	Subtype string
}

// Conversation is one direct-message channel between the tracked user and
// a single counterpart, with its history bounded to the lookback window.
// Messages carry provider pagination order, not necessarily chronological.
type Conversation struct {
	ChannelID       string
	CounterpartID   string
	RecipientName   string
	RecipientAvatar string
	Messages        []RawMessage
}
