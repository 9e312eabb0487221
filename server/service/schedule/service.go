// Package schedule provides the in-memory event store: per-user calendars
// loaded at start, mirrored to durable storage on every mutation, and the
// reminder and conflict queries that run over them.
//
// Key properties:
//   - Events are always kept in ascending timestamp order
//   - Each calendar is guarded by its own lock; mutations persist under it
//   - Persistence failures are logged, memory stays authoritative
package schedule

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	engineerrors "github.com/hrygo/orcha/internal/errors"
	"github.com/hrygo/orcha/internal/observability"
	"github.com/hrygo/orcha/store"
)

// calendar is one user's ordered event list.
type calendar struct {
	mu     sync.Mutex
	userID string
	events []*store.Event
}

// Service owns every user calendar.
type Service struct {
	store     CalendarStore
	now       func() time.Time
	logger    *slog.Logger
	lookahead time.Duration

	mu        sync.RWMutex
	calendars map[string]*calendar
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the reference clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLookahead sets the due-reminder window.
func WithLookahead(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.lookahead = d
		}
	}
}

// NewService creates the service and loads every persisted calendar.
// A calendar that cannot be read or decoded is logged and starts empty.
func NewService(ctx context.Context, st CalendarStore, opts ...Option) (*Service, error) {
	s := &Service{
		store:     st,
		now:       time.Now,
		logger:    slog.Default(),
		lookahead: DefaultReminderLookahead,
		calendars: make(map[string]*calendar),
	}
	for _, opt := range opts {
		opt(s)
	}

	owners, err := st.ListCalendarOwners(ctx)
	if err != nil {
		return nil, err
	}

	loaded, skipped := 0, 0
	for _, userID := range owners {
		events, err := st.LoadCalendar(ctx, userID)
		if err != nil {
			s.logger.Warn("skipping calendar that failed to load",
				"user_id", userID,
				observability.LogFieldErrorCode, engineerrors.GetCodeFromError(err, engineerrors.ErrCodePersistenceFailure),
				"error", err,
			)
			skipped++
			events = nil
		}
		sortEvents(events)
		s.calendars[userID] = &calendar{userID: userID, events: events}
		loaded += len(events)
	}

	s.logger.Info("calendars loaded",
		"users", len(owners),
		"events", loaded,
		"skipped", skipped,
	)
	return s, nil
}

// calendar returns the user's calendar, creating an empty one if needed.
func (s *Service) calendar(userID string) *calendar {
	s.mu.RLock()
	cal, ok := s.calendars[userID]
	s.mu.RUnlock()
	if ok {
		return cal
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cal, ok = s.calendars[userID]; ok {
		return cal
	}
	cal = &calendar{userID: userID}
	s.calendars[userID] = cal
	return cal
}

// lookup returns the user's calendar without creating one.
func (s *Service) lookup(userID string) (*calendar, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cal, ok := s.calendars[userID]
	return cal, ok
}

// snapshot returns every calendar, ordered by user id.
func (s *Service) snapshot() []*calendar {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cals := make([]*calendar, 0, len(s.calendars))
	for _, cal := range s.calendars {
		cals = append(cals, cal)
	}
	sort.Slice(cals, func(i, j int) bool {
		return cals[i].userID < cals[j].userID
	})
	return cals
}

// persist rewrites the calendar record. The caller must hold cal.mu.
// Failures are logged and swallowed.
func (s *Service) persist(ctx context.Context, cal *calendar) {
	if err := s.store.SaveCalendar(ctx, cal.userID, cal.events); err != nil {
		s.logger.Error("failed to persist calendar",
			"user_id", cal.userID,
			"events", len(cal.events),
			observability.LogFieldErrorCode, engineerrors.GetCodeFromError(err, engineerrors.ErrCodePersistenceFailure),
			"error", err,
		)
	}
}

// AddEvent creates, stores and persists a new event.
func (s *Service) AddEvent(ctx context.Context, create *CreateEvent) (*store.Event, error) {
	if create == nil || create.UserID == "" {
		return nil, engineerrors.InvalidArgument("user_id is required")
	}
	if create.Timestamp.IsZero() {
		return nil, engineerrors.InvalidArgument("timestamp is required")
	}

	reqCtx := observability.NewRequestContext(s.logger, "add_event", create.UserID)
	defer func() {
		reqCtx.Debug("event add operation",
			slog.Int64(observability.LogFieldDuration, reqCtx.DurationMs()),
		)
	}()

	title := create.Title
	if title == "" {
		title = store.DefaultEventTitle
		if create.Reminder {
			title = store.DefaultReminderTitle
		}
	}

	event := &store.Event{
		ID:          uuid.NewString(),
		UserID:      create.UserID,
		Title:       title,
		Description: create.Description,
		Timestamp:   create.Timestamp.Truncate(time.Minute),
		CreatedAt:   s.now(),
		Reminder:    create.Reminder,
	}

	cal := s.calendar(create.UserID)
	cal.mu.Lock()
	defer cal.mu.Unlock()

	// Insert after every event with the same or an earlier timestamp.
	i := sort.Search(len(cal.events), func(i int) bool {
		return cal.events[i].Timestamp.After(event.Timestamp)
	})
	cal.events = append(cal.events, nil)
	copy(cal.events[i+1:], cal.events[i:])
	cal.events[i] = event

	s.persist(ctx, cal)

	reqCtx.Info("event added",
		slog.String(observability.LogFieldEventID, event.ID),
		slog.Time("timestamp", event.Timestamp),
		slog.Bool("reminder", event.Reminder),
	)
	return event.Clone(), nil
}

// UpcomingEvents returns events with now <= timestamp <= now+horizon, ascending.
func (s *Service) UpcomingEvents(userID string, horizonDays int) []*store.Event {
	if horizonDays <= 0 {
		horizonDays = DefaultUpcomingDays
	}
	now := s.now()
	until := now.AddDate(0, 0, horizonDays)

	return s.filter(userID, func(e *store.Event) bool {
		return !e.Timestamp.Before(now) && !e.Timestamp.After(until)
	})
}

// ListEvents returns the user's full history, ascending.
func (s *Service) ListEvents(userID string) []*store.Event {
	return s.filter(userID, func(*store.Event) bool { return true })
}

// EventsBetween returns events with from <= timestamp < to, ascending.
func (s *Service) EventsBetween(userID string, from, to time.Time) []*store.Event {
	return s.filter(userID, func(e *store.Event) bool {
		return !e.Timestamp.Before(from) && e.Timestamp.Before(to)
	})
}

// GetEvent returns a copy of the event, or false if the user has no such event.
func (s *Service) GetEvent(userID, eventID string) (*store.Event, bool) {
	found := s.filter(userID, func(e *store.Event) bool { return e.ID == eventID })
	if len(found) == 0 {
		return nil, false
	}
	return found[0], true
}

func (s *Service) filter(userID string, keep func(*store.Event) bool) []*store.Event {
	cal, ok := s.lookup(userID)
	if !ok {
		return []*store.Event{}
	}

	cal.mu.Lock()
	defer cal.mu.Unlock()

	result := make([]*store.Event, 0, len(cal.events))
	for _, e := range cal.events {
		if keep(e) {
			result = append(result, e.Clone())
		}
	}
	return result
}

// RemoveEvent deletes an event by id. It reports false when nothing was removed.
func (s *Service) RemoveEvent(ctx context.Context, userID, eventID string) bool {
	cal, ok := s.lookup(userID)
	if !ok {
		return false
	}

	cal.mu.Lock()
	defer cal.mu.Unlock()

	for i, e := range cal.events {
		if e.ID != eventID {
			continue
		}
		cal.events = append(cal.events[:i], cal.events[i+1:]...)
		s.persist(ctx, cal)
		s.logger.Info("event removed", "user_id", userID, "event_id", eventID)
		return true
	}
	return false
}

// Prune removes events older than maxAgeDays across all users and returns
// how many were removed. Only calendars that changed are persisted.
func (s *Service) Prune(ctx context.Context, maxAgeDays int) int {
	if maxAgeDays <= 0 {
		maxAgeDays = DefaultPruneDays
	}
	cutoff := s.now().AddDate(0, 0, -maxAgeDays)

	removed := 0
	for _, cal := range s.snapshot() {
		cal.mu.Lock()
		kept := cal.events[:0]
		for _, e := range cal.events {
			if e.Timestamp.Before(cutoff) {
				continue
			}
			kept = append(kept, e)
		}
		if n := len(cal.events) - len(kept); n > 0 {
			for i := len(kept); i < len(cal.events); i++ {
				cal.events[i] = nil
			}
			cal.events = kept
			removed += n
			s.persist(ctx, cal)
		}
		cal.mu.Unlock()
	}

	if removed > 0 {
		s.logger.Info("pruned old events", "removed", removed, "cutoff", cutoff)
	}
	return removed
}

// Users returns the ids of every known calendar owner.
func (s *Service) Users() []string {
	cals := s.snapshot()
	ids := make([]string, 0, len(cals))
	for _, cal := range cals {
		ids = append(ids, cal.userID)
	}
	return ids
}

func sortEvents(events []*store.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
}
