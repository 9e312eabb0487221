package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/orcha/internal/observability"
	"github.com/hrygo/orcha/internal/profile"
	"github.com/hrygo/orcha/plugin/ai"
	"github.com/hrygo/orcha/plugin/ai/aitime"
	"github.com/hrygo/orcha/plugin/ai/cache"
	aicontext "github.com/hrygo/orcha/plugin/ai/context"
	"github.com/hrygo/orcha/plugin/ai/habit"
	aischedule "github.com/hrygo/orcha/plugin/ai/schedule"
	"github.com/hrygo/orcha/plugin/ai/session"
	"github.com/hrygo/orcha/server/service/schedule"
	"github.com/hrygo/orcha/server/timezone"
	"github.com/hrygo/orcha/store"
	"github.com/hrygo/orcha/store/db"
)

// engine wires the components every command needs.
type engine struct {
	profile   *profile.Profile
	logger    *slog.Logger
	store     *store.Store
	service   *schedule.Service
	extractor *aitime.Extractor
	analyzer  *habit.Analyzer
	turns     *session.TurnStore
	llm       ai.LLMService
	limiter   *ai.RateLimiter
	replies   *cache.LRUCache
	now       func() time.Time
}

func newEngine(ctx context.Context) (*engine, error) {
	p, err := loadProfile()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load profile")
	}

	logger := observability.NewLogger(os.Stderr, p.LogLevel, p.LogFormat)
	slog.SetDefault(logger)

	driver, err := db.NewDBDriver(p)
	if err != nil {
		return nil, err
	}
	st := store.New(driver, p)

	loc, err := timezone.ParseTimezone(p.Timezone)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	now := timezone.Clock(loc)

	service, err := schedule.NewService(ctx, st,
		schedule.WithLogger(logger),
		schedule.WithClock(now),
		schedule.WithLookahead(p.ReminderLookahead),
	)
	if err != nil {
		_ = st.Close()
		return nil, errors.Wrap(err, "failed to load calendars")
	}

	turns := session.NewTurnStore(session.DefaultMaxTurns)
	turns.SetClock(now)

	e := &engine{
		profile:   p,
		logger:    logger,
		store:     st,
		service:   service,
		extractor: aitime.NewExtractor(aitime.WithLogger(logger), aitime.WithClock(now)),
		analyzer:  habit.NewAnalyzer(service, habit.WithClock(now)),
		turns:     turns,
		now:       now,
	}

	aiConfig := ai.NewConfigFromProfile(p)
	if aiConfig.Enabled {
		if err := aiConfig.Validate(); err != nil {
			logger.Warn("AI disabled: invalid configuration", "error", err)
			return e, nil
		}
		llm, err := ai.NewLLMService(&aiConfig.LLM)
		if err != nil {
			logger.Warn("AI disabled: failed to create LLM client", "error", err)
			return e, nil
		}
		e.llm = llm
		e.limiter = ai.NewRateLimiter(aiConfig.LLM.RequestsPerMinute, 0)
		e.replies = cache.NewLRUCache(cache.DefaultCapacity, cache.DefaultTTL)
		e.replies.SetClock(now)
		logger.Info("AI enabled", "provider", aiConfig.LLM.Provider, "model", aiConfig.LLM.Model)
	}
	return e, nil
}

func (e *engine) planner() *aischedule.Planner {
	opts := []aischedule.PlannerOption{
		aischedule.WithPlannerLogger(e.logger),
		aischedule.WithPlannerClock(e.now),
		aischedule.WithPlannerCache(e.replies),
	}
	if e.llm != nil {
		opts = append(opts, aischedule.WithPlannerLLM(e.llm, e.limiter))
	}
	return aischedule.NewPlanner(e.extractor, e.service, opts...)
}

func (e *engine) contextBuilder() *aicontext.Builder {
	return aicontext.NewBuilder(aicontext.DefaultConfig(), aicontext.NewTemporalTagger(e.now), e.analyzer, e.turns)
}

func (e *engine) Close() error {
	return e.store.Close()
}

// withEngine runs fn with a fresh engine and closes it afterwards.
func withEngine(ctx context.Context, fn func(*engine) error) error {
	e, err := newEngine(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := e.Close(); err != nil {
			e.logger.Warn("failed to close store", "error", err)
		}
	}()
	return fn(e)
}
