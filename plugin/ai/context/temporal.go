// Package context assembles time-aware prompt context for the assistant.
package context

import (
	"fmt"
	"strings"
	"time"

	"github.com/hrygo/orcha/plugin/ai/session"
)

// Tag classifies how recently the user last spoke.
type Tag string

const (
	TagFirstConversation Tag = "FIRST_CONVERSATION"
	TagSameConversation  Tag = "SAME_CONVERSATION"
	TagSameDay           Tag = "SAME_DAY"
	TagNewConversation   Tag = "NEW_CONVERSATION"
)

// SameConversationWindow is how long a same-day gap still counts as one conversation.
const SameConversationWindow = time.Hour

// turnLayouts are tried in order when reading a turn timestamp.
// The zone-less layout is read in the tagger's local zone.
var turnLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// TemporalContext is the tag for one user plus the times needed to render it.
type TemporalContext struct {
	UserID string
	Tag    Tag
	Now    time.Time
	Last   *time.Time
}

// Render formats the context for splicing into a prompt.
func (c TemporalContext) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s]\n", c.Tag)
	fmt.Fprintf(&b, "Current date and time: %s", c.Now.Format("Monday, January 2, 2006 at 03:04 PM"))

	switch c.Tag {
	case TagSameDay:
		fmt.Fprintf(&b, "\nLast message: today at %s", c.Last.Format("03:04 PM"))
	case TagNewConversation:
		fmt.Fprintf(&b, "\nLast conversation: %s", c.Last.Format("Monday, January 2, 2006"))
	}
	return b.String()
}

// TemporalTagger classifies the gap since a user's last turn.
type TemporalTagger struct {
	now func() time.Time
}

// NewTemporalTagger creates a tagger; a nil clock means time.Now.
func NewTemporalTagger(now func() time.Time) *TemporalTagger {
	if now == nil {
		now = time.Now
	}
	return &TemporalTagger{now: now}
}

// Tag classifies last, the time of the user's previous turn, against now.
func (t *TemporalTagger) Tag(userID string, last *time.Time) TemporalContext {
	now := t.now()
	tc := TemporalContext{UserID: userID, Now: now, Tag: TagFirstConversation}
	if last == nil {
		return tc
	}

	local := last.In(now.Location())
	tc.Last = &local

	switch {
	case !sameDate(now, local):
		tc.Tag = TagNewConversation
	case now.Sub(local) <= SameConversationWindow:
		tc.Tag = TagSameConversation
	default:
		tc.Tag = TagSameDay
	}
	return tc
}

// TagTurns tags using the latest user turn whose timestamp parses.
func (t *TemporalTagger) TagTurns(userID string, turns []session.Turn) TemporalContext {
	loc := t.now().Location()
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role != session.RoleUser {
			continue
		}
		if ts, ok := parseTurnTime(turns[i].Timestamp, loc); ok {
			return t.Tag(userID, &ts)
		}
	}
	return t.Tag(userID, nil)
}

func parseTurnTime(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range turnLayouts {
		if ts, err := time.ParseInLocation(layout, s, loc); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
