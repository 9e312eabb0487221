package schedule

import (
	"context"
	"time"

	"github.com/hrygo/orcha/store"
)

const (
	// DefaultUpcomingDays is the horizon used when UpcomingEvents is given a non-positive one.
	DefaultUpcomingDays = 7

	// DefaultPruneDays is the age cutoff used when Prune is given a non-positive one.
	DefaultPruneDays = 30

	// DefaultReminderLookahead is how far ahead of an event the due sweep reports it.
	DefaultReminderLookahead = 30 * time.Minute

	// DefaultConflictWindow is the span every existing event occupies for conflict checks.
	DefaultConflictWindow = 60 * time.Minute
)

// CalendarStore is the persistence surface the schedule service needs.
// *store.Store satisfies it.
type CalendarStore interface {
	ListCalendarOwners(ctx context.Context) ([]string, error)
	LoadCalendar(ctx context.Context, userID string) ([]*store.Event, error)
	SaveCalendar(ctx context.Context, userID string, events []*store.Event) error
}

// CreateEvent represents the request to add an event.
type CreateEvent struct {
	UserID      string
	Title       string
	Description string
	Timestamp   time.Time
	Reminder    bool
}

// DueReminder is an event whose reminder has just become due.
type DueReminder struct {
	UserID string
	Event  *store.Event
}

// TimeSlot represents a free period that can be used for scheduling.
type TimeSlot struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Reason string    `json:"reason"` // Human-readable description
	Score  int       `json:"score"`  // Priority score (higher = better recommended)
}

var _ CalendarStore = (*store.Store)(nil)
