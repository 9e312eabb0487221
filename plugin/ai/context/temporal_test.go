package context

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hrygo/orcha/plugin/ai/session"
)

var now = time.Date(2026, 10, 14, 10, 37, 0, 0, time.UTC)

func fixedClock() time.Time { return now }

func ptr(t time.Time) *time.Time { return &t }

func TestTemporalTagger_Tag(t *testing.T) {
	tests := []struct {
		name string
		last *time.Time
		want Tag
	}{
		{"no prior turn", nil, TagFirstConversation},
		{"minutes ago", ptr(now.Add(-37 * time.Minute)), TagSameConversation},
		{"exactly one hour", ptr(now.Add(-time.Hour)), TagSameConversation},
		{"just over an hour", ptr(now.Add(-time.Hour - time.Minute)), TagSameDay},
		{"early this morning", ptr(time.Date(2026, 10, 14, 0, 10, 0, 0, time.UTC)), TagSameDay},
		{"late yesterday", ptr(time.Date(2026, 10, 13, 23, 59, 0, 0, time.UTC)), TagNewConversation},
		{"last month", ptr(time.Date(2026, 9, 14, 10, 37, 0, 0, time.UTC)), TagNewConversation},
		{"other zone, previous date", ptr(time.Date(2026, 10, 14, 1, 0, 0, 0, time.FixedZone("PKT", 5*3600))), TagNewConversation},
	}

	tagger := NewTemporalTagger(fixedClock)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := tagger.Tag("u", tt.last)
			assert.Equal(t, tt.want, tc.Tag)
			assert.Equal(t, "u", tc.UserID)
		})
	}
}

func TestTemporalContext_Render(t *testing.T) {
	tagger := NewTemporalTagger(fixedClock)
	header := "Current date and time: Wednesday, October 14, 2026 at 10:37 AM"

	tests := []struct {
		name string
		last *time.Time
		want string
	}{
		{
			name: "first",
			want: "[FIRST_CONVERSATION]\n" + header,
		},
		{
			name: "same conversation",
			last: ptr(now.Add(-5 * time.Minute)),
			want: "[SAME_CONVERSATION]\n" + header,
		},
		{
			name: "same day",
			last: ptr(time.Date(2026, 10, 14, 8, 15, 0, 0, time.UTC)),
			want: "[SAME_DAY]\n" + header + "\nLast message: today at 08:15 AM",
		},
		{
			name: "new conversation",
			last: ptr(time.Date(2026, 10, 12, 19, 0, 0, 0, time.UTC)),
			want: "[NEW_CONVERSATION]\n" + header + "\nLast conversation: Monday, October 12, 2026",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tagger.Tag("u", tt.last).Render())
		})
	}
}

func TestTemporalTagger_TagTurns(t *testing.T) {
	tagger := NewTemporalTagger(fixedClock)

	tests := []struct {
		name  string
		turns []session.Turn
		want  Tag
		last  string
	}{
		{
			name: "no turns",
			want: TagFirstConversation,
		},
		{
			name: "only assistant turns",
			turns: []session.Turn{
				{Role: session.RoleAssistant, Content: "hi", Timestamp: "2026-10-14T10:30:00Z"},
			},
			want: TagFirstConversation,
		},
		{
			name: "skips unparsable and assistant turns",
			turns: []session.Turn{
				{Role: session.RoleUser, Content: "one", Timestamp: "2026-10-14T08:00:00Z"},
				{Role: session.RoleAssistant, Content: "two", Timestamp: "2026-10-14T10:30:00Z"},
				{Role: session.RoleUser, Content: "three", Timestamp: "yesterday-ish"},
				{Role: session.RoleUser, Content: "four"},
			},
			want: TagSameDay,
			last: "08:00",
		},
		{
			name: "zone-less timestamp",
			turns: []session.Turn{
				{Role: session.RoleUser, Content: "hey", Timestamp: "2026-10-14T10:20:00.123456"},
			},
			want: TagSameConversation,
			last: "10:20",
		},
		{
			name: "space separated timestamp",
			turns: []session.Turn{
				{Role: session.RoleUser, Content: "hey", Timestamp: "2026-10-10 18:00:00"},
			},
			want: TagNewConversation,
			last: "18:00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := tagger.TagTurns("u", tt.turns)
			assert.Equal(t, tt.want, tc.Tag)
			if tt.last == "" {
				assert.Nil(t, tc.Last)
				return
			}
			if assert.NotNil(t, tc.Last) {
				assert.Equal(t, tt.last, tc.Last.Format("15:04"))
			}
		})
	}
}

func TestTemporalTagger_DefaultClock(t *testing.T) {
	tc := NewTemporalTagger(nil).Tag("u", nil)
	assert.WithinDuration(t, time.Now(), tc.Now, time.Minute)
	assert.True(t, strings.HasPrefix(tc.Render(), "[FIRST_CONVERSATION]\nCurrent date and time: "))
}
