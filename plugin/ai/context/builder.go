package context

import (
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/hrygo/orcha/plugin/ai/session"
)

// Default builder values.
const (
	DefaultMaxTokens   = 1024
	DefaultMaxTurns    = 10
	DefaultRecentTurns = 3
)

// ScheduleSummarizer renders a user's schedule as text.
type ScheduleSummarizer interface {
	Context(userID string) string
}

// TurnLister returns a user's most recent conversation turns, oldest first.
type TurnLister interface {
	Recent(userID string, n int) []session.Turn
}

// Config configures the Builder.
type Config struct {
	MaxTokens   int // Token budget for the whole preamble
	MaxTurns    int // Turns read from the conversation
	RecentTurns int // Turns kept at high priority
}

// DefaultConfig returns default configuration.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   DefaultMaxTokens,
		MaxTurns:    DefaultMaxTurns,
		RecentTurns: DefaultRecentTurns,
	}
}

// Result is an assembled prompt preamble.
type Result struct {
	Temporal    TemporalContext
	Text        string
	TotalTokens int
	Sources     []string
}

// Stats holds builder statistics.
type Stats struct {
	TotalBuilds   int64
	AverageTokens float64
}

// Builder assembles the temporal tag, the schedule summary and the
// recent conversation into one budgeted preamble.
type Builder struct {
	cfg      Config
	tagger   *TemporalTagger
	schedule ScheduleSummarizer
	turns    TurnLister

	totalBuilds int64
	totalTokens int64
}

// NewBuilder creates a Builder. Either provider may be nil.
func NewBuilder(cfg Config, tagger *TemporalTagger, schedule ScheduleSummarizer, turns TurnLister) *Builder {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = DefaultMaxTurns
	}
	if cfg.RecentTurns <= 0 {
		cfg.RecentTurns = DefaultRecentTurns
	}
	if tagger == nil {
		tagger = NewTemporalTagger(nil)
	}
	return &Builder{
		cfg:      cfg,
		tagger:   tagger,
		schedule: schedule,
		turns:    turns,
	}
}

// Build assembles the preamble for userID. Segments that survive the budget
// are rendered in a fixed order: temporal tag, schedule, then conversation.
func (b *Builder) Build(userID string) *Result {
	var turns []session.Turn
	if b.turns != nil {
		turns = b.turns.Recent(userID, b.cfg.MaxTurns)
	}

	// The turn being answered is not yet recorded, so every stored turn is prior contact.
	temporal := b.tagger.TagTurns(userID, turns)

	segments := []*ContextSegment{newSegment(temporal.Render(), PriorityTemporal, "temporal")}
	if b.schedule != nil {
		if summary := b.schedule.Context(userID); summary != "" {
			segments = append(segments, newSegment("### Schedule\n"+summary, PrioritySchedule, "schedule"))
		}
	}
	if len(turns) > 0 {
		recent, older := splitByRecency(turns, b.cfg.RecentTurns)
		if len(older) > 0 {
			segments = append(segments, newSegment(formatConversation(older), PriorityOlderTurns, "conversation"))
		}
		segments = append(segments, newSegment(formatConversation(recent), PriorityRecentTurns, "conversation"))
	}

	for i, seg := range segments {
		seg.order = i
	}
	kept := RankAndTruncate(segments, b.cfg.MaxTokens)
	sort.Slice(kept, func(i, j int) bool { return kept[i].order < kept[j].order })

	result := &Result{Temporal: temporal}
	parts := make([]string, 0, len(kept))
	for _, seg := range kept {
		parts = append(parts, seg.Content)
		result.TotalTokens += seg.TokenCost
		if n := len(result.Sources); n == 0 || result.Sources[n-1] != seg.Source {
			result.Sources = append(result.Sources, seg.Source)
		}
	}
	result.Text = strings.Join(parts, "\n\n")

	atomic.AddInt64(&b.totalBuilds, 1)
	atomic.AddInt64(&b.totalTokens, int64(result.TotalTokens))
	return result
}

// GetStats returns builder statistics.
func (b *Builder) GetStats() Stats {
	builds := atomic.LoadInt64(&b.totalBuilds)
	if builds == 0 {
		return Stats{}
	}
	return Stats{
		TotalBuilds:   builds,
		AverageTokens: float64(atomic.LoadInt64(&b.totalTokens)) / float64(builds),
	}
}

func newSegment(content string, priority ContextPriority, source string) *ContextSegment {
	return &ContextSegment{
		Content:   content,
		Priority:  priority,
		TokenCost: EstimateTokens(content),
		Source:    source,
	}
}

// splitByRecency splits turns into the last recentCount and the rest.
func splitByRecency(turns []session.Turn, recentCount int) (recent, older []session.Turn) {
	if len(turns) <= recentCount {
		return turns, nil
	}
	split := len(turns) - recentCount
	return turns[split:], turns[:split]
}

func formatConversation(turns []session.Turn) string {
	var sb strings.Builder
	for i, t := range turns {
		if i > 0 {
			sb.WriteString("\n")
		}
		switch t.Role {
		case session.RoleUser:
			fmt.Fprintf(&sb, "User: %s", t.Content)
		case session.RoleAssistant:
			fmt.Fprintf(&sb, "Assistant: %s", t.Content)
		default:
			fmt.Fprintf(&sb, "%s: %s", t.Role, t.Content)
		}
	}
	return sb.String()
}
