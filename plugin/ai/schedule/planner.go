package schedule

import (
	"context"
	"log/slog"
	"strings"
	"time"

	engineerrors "github.com/hrygo/orcha/internal/errors"
	"github.com/hrygo/orcha/internal/observability"
	"github.com/hrygo/orcha/plugin/ai"
	"github.com/hrygo/orcha/plugin/ai/aitime"
	"github.com/hrygo/orcha/plugin/ai/cache"
	schedulesvc "github.com/hrygo/orcha/server/service/schedule"
	"github.com/hrygo/orcha/store"
)

const (
	// MaxInputLength bounds planner input, in bytes.
	MaxInputLength = 500

	// DefaultDurationMinutes is the span checked for conflicts.
	DefaultDurationMinutes = 60
)

// Plan sources.
const (
	SourceRules = "rules"
	SourceLLM   = "llm"
)

// EventService is the part of the schedule service the planner uses.
type EventService interface {
	AddEvent(ctx context.Context, create *schedulesvc.CreateEvent) (*store.Event, error)
	CheckConflicts(userID string, proposed time.Time, durationMinutes int) []*store.Event
	SuggestAlternatives(userID string, proposed time.Time, durationMinutes int) []schedulesvc.TimeSlot
}

// Plan is a proposed event derived from text, not yet stored.
type Plan struct {
	Title        string
	Timestamp    time.Time
	Reminder     bool
	Source       string
	Conflicts    []*store.Event
	Alternatives []schedulesvc.TimeSlot
}

// HasConflicts reports whether the plan overlaps existing events.
func (p *Plan) HasConflicts() bool {
	return len(p.Conflicts) > 0
}

// Planner turns "remind me to ..." style text into a Plan.
type Planner struct {
	extractor  aitime.TimeExtractor
	events     EventService
	classifier *IntentClassifier
	llm        ai.LLMService
	limiter    *ai.RateLimiter
	replies    *cache.LRUCache
	now        func() time.Time
	logger     *slog.Logger
}

// PlannerOption configures a Planner.
type PlannerOption func(*Planner)

// WithPlannerLLM enables the LLM fallback for text the rules cannot place in time.
func WithPlannerLLM(llm ai.LLMService, limiter *ai.RateLimiter) PlannerOption {
	return func(p *Planner) {
		p.llm = llm
		p.limiter = limiter
	}
}

// WithPlannerCache reuses LLM replies for text already planned the same day.
func WithPlannerCache(c *cache.LRUCache) PlannerOption {
	return func(p *Planner) {
		p.replies = c
	}
}

// WithPlannerClock sets the reference clock used in LLM prompts.
func WithPlannerClock(now func() time.Time) PlannerOption {
	return func(p *Planner) {
		if now != nil {
			p.now = now
		}
	}
}

// WithPlannerLogger sets the logger.
func WithPlannerLogger(logger *slog.Logger) PlannerOption {
	return func(p *Planner) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPlanner creates a Planner.
func NewPlanner(extractor aitime.TimeExtractor, events EventService, opts ...PlannerOption) *Planner {
	p := &Planner{
		extractor:  extractor,
		events:     events,
		classifier: NewIntentClassifier(),
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Plan extracts a title and a time from text and checks the slot for
// conflicts. A request phrased as "remind me" always yields a reminder.
func (p *Planner) Plan(ctx context.Context, userID, text string, reminder bool) (*Plan, error) {
	text = strings.TrimSpace(text)
	if userID == "" {
		return nil, engineerrors.InvalidArgument("user_id is required")
	}
	if text == "" {
		return nil, engineerrors.InvalidArgument("empty input")
	}
	if len(text) > MaxInputLength {
		return nil, engineerrors.InvalidArgument("input too long").WithContext("max_length", MaxInputLength)
	}

	reqCtx := observability.NewRequestContext(p.logger, "plan_event", userID)

	plan := &Plan{
		Title:    ExtractTitle(text),
		Reminder: reminder || p.classifier.Classify(text).Intent == IntentRemind,
		Source:   SourceRules,
	}

	ts, ok := p.resolveTime(text)
	if !ok {
		llmTitle, llmTime, err := p.planWithLLM(ctx, userID, text)
		if err != nil {
			reqCtx.Debug("no time found in request", slog.String("error", err.Error()))
			return nil, err
		}
		ts = llmTime
		if llmTitle != "" {
			plan.Title = llmTitle
		}
		plan.Source = SourceLLM
	}
	plan.Timestamp = ts.Truncate(time.Minute)

	if plan.Title == "" {
		plan.Title = store.DefaultEventTitle
		if plan.Reminder {
			plan.Title = store.DefaultReminderTitle
		}
	}

	if p.events != nil {
		plan.Conflicts = p.events.CheckConflicts(userID, plan.Timestamp, DefaultDurationMinutes)
		if plan.HasConflicts() {
			plan.Alternatives = p.events.SuggestAlternatives(userID, plan.Timestamp, DefaultDurationMinutes)
		}
	}

	reqCtx.Info("event planned",
		slog.String("source", plan.Source),
		slog.Time("timestamp", plan.Timestamp),
		slog.Int("conflicts", len(plan.Conflicts)),
		slog.Int64(observability.LogFieldDuration, reqCtx.DurationMs()),
	)
	return plan, nil
}

// Commit stores the plan as an event.
func (p *Planner) Commit(ctx context.Context, userID string, plan *Plan) (*store.Event, error) {
	if plan == nil {
		return nil, engineerrors.InvalidArgument("plan is required")
	}
	if p.events == nil {
		return nil, engineerrors.InvalidArgument("planner has no event service")
	}
	return p.events.AddEvent(ctx, &schedulesvc.CreateEvent{
		UserID:    userID,
		Title:     plan.Title,
		Timestamp: plan.Timestamp,
		Reminder:  plan.Reminder,
	})
}

// resolveTime finds a time in text, merging a separate clock into dates only.
func (p *Planner) resolveTime(text string) (time.Time, bool) {
	m, err := aitime.ResolveDateTime(p.extractor, text)
	if err != nil {
		return time.Time{}, false
	}
	return m.Time, true
}
