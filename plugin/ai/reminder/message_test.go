package reminder

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/orcha/plugin/ai"
	"github.com/hrygo/orcha/plugin/ai/session"
	"github.com/hrygo/orcha/store"
)

type staticUpcoming []*store.Event

func (s staticUpcoming) UpcomingEvents(string, int) []*store.Event { return s }

var generatorNow = time.Date(2026, 10, 14, 8, 40, 0, 0, time.UTC)

func standup() *store.Event {
	return &store.Event{
		ID:        "evt-1",
		Title:     "Standup",
		Timestamp: time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC),
	}
}

func TestFallbackMessage(t *testing.T) {
	e := standup()
	assert.Equal(t, "🔔 Reminder: Standup at 09:00 AM", FallbackMessage(e))

	e.Description = "room 4"
	e.Timestamp = time.Date(2026, 10, 14, 15, 5, 0, 0, time.UTC)
	assert.Equal(t, "🔔 Reminder: Standup at 03:05 PM\n\nroom 4", FallbackMessage(e))
}

func TestMessageGenerator_WithoutLLM(t *testing.T) {
	g := NewMessageGenerator()
	assert.Equal(t, FallbackMessage(standup()), g.Generate(context.Background(), "u", standup()))
}

func TestMessageGenerator_Polish(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  string
	}{
		{"already fine", "🔔 Standup starts in 20 minutes!", "🔔 Standup starts in 20 minutes!"},
		{"missing emoji", "Standup in 20 minutes.", "🔔 Standup in 20 minutes."},
		{"missing title", "Time to head over!", "🔔 Standup: Time to head over!"},
		{"empty", "   ", "🔔 Reminder: Standup at 09:00 AM"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &ai.MockLLM{Replies: []string{tt.reply}}
			g := NewMessageGenerator(WithLLM(llm, nil), WithGeneratorClock(func() time.Time { return generatorNow }))
			assert.Equal(t, tt.want, g.Generate(context.Background(), "u", standup()))
		})
	}
}

func TestMessageGenerator_PromptContext(t *testing.T) {
	llm := &ai.MockLLM{Replies: []string{"🔔 Standup soon"}}
	turns := session.NewTurnStore(10)
	turns.AppendTurn("u", session.Turn{Role: session.RoleUser, Content: "thanks mate"})

	others := staticUpcoming{standup(), {ID: "evt-2", Title: "Lunch with Sam"}}
	g := NewMessageGenerator(
		WithLLM(llm, nil),
		WithUpcoming(others),
		WithTurns(turns),
		WithGeneratorClock(func() time.Time { return generatorNow }),
	)

	g.Generate(context.Background(), "u", standup())
	require.Equal(t, 1, llm.CallCount())

	prompt := llm.Calls[0][1].Content
	assert.Contains(t, prompt, "Event: Standup")
	assert.Contains(t, prompt, "Scheduled for: 09:00 AM on Wednesday")
	assert.Contains(t, prompt, "Time until event: 20 minutes")
	assert.Contains(t, prompt, "1 other event(s) today. Their next event is: Lunch with Sam.")
	assert.Contains(t, prompt, "User: thanks mate")
	assert.Equal(t, "system", llm.Calls[0][0].Role)
}

func TestMessageGenerator_FallsBackOnError(t *testing.T) {
	llm := &ai.MockLLM{Err: errors.New("down")}
	g := NewMessageGenerator(WithLLM(llm, nil))
	assert.Equal(t, FallbackMessage(standup()), g.Generate(context.Background(), "u", standup()))
}

func TestMessageGenerator_RateLimited(t *testing.T) {
	llm := &ai.MockLLM{Replies: []string{"🔔 Standup now"}}
	g := NewMessageGenerator(WithLLM(llm, ai.NewRateLimiter(1, 1)))
	ctx := context.Background()

	assert.Equal(t, "🔔 Standup now", g.Generate(ctx, "u", standup()))
	assert.True(t, strings.HasPrefix(g.Generate(ctx, "u", standup()), "🔔 Reminder:"), "second call uses the template")
	assert.Equal(t, "🔔 Standup now", g.Generate(ctx, "other", standup()))
	assert.Equal(t, 2, llm.CallCount())
}

func TestTimeUntil(t *testing.T) {
	now := generatorNow
	assert.Equal(t, "", timeUntil(now, now))
	assert.Equal(t, "", timeUntil(now, now.Add(-time.Minute)))
	assert.Equal(t, "5 minutes", timeUntil(now, now.Add(5*time.Minute)))
	assert.Equal(t, "1 hour", timeUntil(now, now.Add(90*time.Minute)))
	assert.Equal(t, "3 hours", timeUntil(now, now.Add(3*time.Hour)))
}
