package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hrygo/orcha/plugin/ai"
	"github.com/hrygo/orcha/plugin/ai/session"
	"github.com/hrygo/orcha/store"
)

const reminderEmoji = "🔔"

const reminderSystemPrompt = `You are a helpful reminder assistant. Create a friendly, personalized reminder message.
The reminder should:
- Be concise but conversational, no more than 2-3 sentences
- Include the reminder title and time
- Mention other events today briefly, if there are any
- Add a sense of urgency if the event is coming up soon

Format your response as plain text that will be sent directly to the user.
DO NOT include any meta text or explanations.`

// UpcomingLister returns a user's upcoming events.
type UpcomingLister interface {
	UpcomingEvents(userID string, horizonDays int) []*store.Event
}

// TurnLister returns a user's most recent conversation turns.
type TurnLister interface {
	Recent(userID string, n int) []session.Turn
}

// MessageGenerator phrases reminder messages, optionally through an LLM.
// Without an LLM, or when the user's LLM budget is spent, it falls back to
// a fixed template.
type MessageGenerator struct {
	llm     ai.LLMService
	limiter *ai.RateLimiter
	events  UpcomingLister
	turns   TurnLister
	now     func() time.Time
	logger  *slog.Logger
}

// GeneratorOption configures a MessageGenerator.
type GeneratorOption func(*MessageGenerator)

// WithLLM enables personalized messages rate-limited by limiter.
func WithLLM(llm ai.LLMService, limiter *ai.RateLimiter) GeneratorOption {
	return func(g *MessageGenerator) {
		g.llm = llm
		g.limiter = limiter
	}
}

// WithUpcoming lets the generator mention the user's other events today.
func WithUpcoming(events UpcomingLister) GeneratorOption {
	return func(g *MessageGenerator) {
		g.events = events
	}
}

// WithTurns lets the generator match the tone of the recent conversation.
func WithTurns(turns TurnLister) GeneratorOption {
	return func(g *MessageGenerator) {
		g.turns = turns
	}
}

// WithGeneratorClock sets the reference clock.
func WithGeneratorClock(now func() time.Time) GeneratorOption {
	return func(g *MessageGenerator) {
		if now != nil {
			g.now = now
		}
	}
}

// NewMessageGenerator creates a generator; with no options it only uses the template.
func NewMessageGenerator(opts ...GeneratorOption) *MessageGenerator {
	g := &MessageGenerator{
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// FallbackMessage is the template reminder text.
func FallbackMessage(event *store.Event) string {
	msg := fmt.Sprintf("%s Reminder: %s at %s", reminderEmoji, event.Title, event.Timestamp.Format("03:04 PM"))
	if event.Description != "" {
		msg += "\n\n" + event.Description
	}
	return msg
}

// Generate returns the reminder text for event. It never fails.
func (g *MessageGenerator) Generate(ctx context.Context, userID string, event *store.Event) string {
	if g.llm == nil {
		return FallbackMessage(event)
	}
	if !g.limiter.Allow(userID) {
		g.logger.Debug("LLM reminder budget exhausted, using template", "user_id", userID)
		return FallbackMessage(event)
	}

	reply, err := g.llm.Chat(ctx, []ai.Message{
		ai.SystemPrompt(reminderSystemPrompt),
		ai.UserMessage(g.buildPrompt(userID, event)),
	})
	if err != nil {
		g.logger.Warn("failed to generate reminder with LLM",
			"user_id", userID,
			"event_id", event.ID,
			"error", err,
		)
		return FallbackMessage(event)
	}

	return polish(reply, event)
}

func (g *MessageGenerator) buildPrompt(userID string, event *store.Event) string {
	now := g.now()

	var b strings.Builder
	fmt.Fprintf(&b, "Create a personalized reminder for:\n")
	fmt.Fprintf(&b, "Event: %s\n", event.Title)
	fmt.Fprintf(&b, "Description: %s\n", event.Description)
	fmt.Fprintf(&b, "Scheduled for: %s on %s\n", event.Timestamp.Format("03:04 PM"), event.Timestamp.Format("Monday"))
	fmt.Fprintf(&b, "Current time: %s on %s\n", now.Format("03:04 PM"), now.Format("Monday"))
	if until := timeUntil(now, event.Timestamp); until != "" {
		fmt.Fprintf(&b, "Time until event: %s\n", until)
	}

	if g.events != nil {
		var others []*store.Event
		for _, e := range g.events.UpcomingEvents(userID, 1) {
			if e.ID != event.ID {
				others = append(others, e)
			}
		}
		if len(others) > 0 {
			fmt.Fprintf(&b, "\nThe user has %d other event(s) today. Their next event is: %s.\n", len(others), others[0].Title)
		}
	}

	if g.turns != nil {
		if recent := g.turns.Recent(userID, 2); len(recent) > 0 {
			b.WriteString("\nRecent conversation tone (for reference):\n")
			for _, t := range recent {
				speaker := "Assistant"
				if t.Role == session.RoleUser {
					speaker = "User"
				}
				fmt.Fprintf(&b, "%s: %s\n", speaker, t.Content)
			}
		}
	}
	return b.String()
}

// polish makes sure an LLM reply carries the emoji and the event title.
func polish(reply string, event *store.Event) string {
	msg := strings.TrimSpace(reply)
	if msg == "" {
		return FallbackMessage(event)
	}
	if !strings.HasPrefix(msg, reminderEmoji) {
		msg = reminderEmoji + " " + msg
	}
	if !strings.Contains(strings.ToLower(msg), strings.ToLower(event.Title)) {
		msg = fmt.Sprintf("%s %s: %s", reminderEmoji, event.Title, strings.TrimSpace(strings.TrimPrefix(msg, reminderEmoji)))
	}
	return msg
}

func timeUntil(now, ts time.Time) string {
	if !ts.After(now) {
		return ""
	}
	minutes := int(ts.Sub(now) / time.Minute)
	if minutes < 60 {
		return fmt.Sprintf("%d minutes", minutes)
	}
	hours := minutes / 60
	if hours == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", hours)
}
