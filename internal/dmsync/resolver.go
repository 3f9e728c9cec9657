package dmsync

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/harixx/slack-dm-tracker-web-app/internal/models"
)

// Resolution is one outbound message with its computed reply state.
type Resolution struct {
	Message  models.RawMessage
	HasReply bool
	ReplyTS  string // earliest inbound timestamp after Message.TS
}

// inboundTS pairs a parsed timestamp with its original string so the
// earliest reply can be reported in the provider's native form.
type inboundTS struct {
	val float64
	ts  string
}

// genuine reports whether m is a real user message rather than a join,
// edit or other subtyped event.
func genuine(m models.RawMessage) bool {
	return m.Type == "message" && m.Subtype == ""
}

// tsValue parses a provider timestamp for ordering. Slack ts values are
// fractional seconds with sub-second precision; comparisons must use the
// full value so two messages in the same second stay ordered.
func tsValue(ts string) float64 {
	v, _ := strconv.ParseFloat(ts, 64)
	return v
}

// tsTime converts a provider timestamp to an absolute instant in UTC.
func tsTime(ts string) time.Time {
	sec, frac, _ := strings.Cut(ts, ".")
	s, _ := strconv.ParseInt(sec, 10, 64)
	var ns int64
	if frac != "" {
		if len(frac) > 9 {
			frac = frac[:9]
		}
		for len(frac) < 9 {
			frac += "0"
		}
		ns, _ = strconv.ParseInt(frac, 10, 64)
	}
	return time.Unix(s, ns).UTC()
}

// ResolveReplies computes reply state for every outbound message in one
// conversation. A message counts as outbound when the tracked user sent
// it and it is a genuine message; inbound messages are the counterpart's
// under the same filter. An outbound message has a reply iff some inbound
// timestamp is strictly greater than its own, and ReplyTS is the earliest
// such timestamp. Inbound timestamps are sorted once so each lookup is a
// binary search; results are identical to the naive pairwise scan.
//
// Results preserve the input order of the outbound messages. A
// conversation with no outbound messages resolves to an empty slice.
func ResolveReplies(userID, counterpartID string, msgs []models.RawMessage) []Resolution {
	var inbound []inboundTS
	for _, m := range msgs {
		if m.UserID == counterpartID && genuine(m) {
			inbound = append(inbound, inboundTS{val: tsValue(m.TS), ts: m.TS})
		}
	}
	sort.Slice(inbound, func(i, j int) bool { return inbound[i].val < inbound[j].val })

	var out []Resolution
	for _, m := range msgs {
		if m.UserID != userID || !genuine(m) {
			continue
		}
		res := Resolution{Message: m}
		sent := tsValue(m.TS)
		// First inbound strictly after the outbound message. Equal
		// timestamps never qualify.
		idx := sort.Search(len(inbound), func(i int) bool { return inbound[i].val > sent })
		if idx < len(inbound) {
			res.HasReply = true
			res.ReplyTS = inbound[idx].ts
		}
		out = append(out, res)
	}
	return out
}
