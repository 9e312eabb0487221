// Package habit summarizes a user's schedule for prompt context.
package habit

import (
	"fmt"
	"strings"
	"time"

	"github.com/hrygo/orcha/server/service/schedule"
	"github.com/hrygo/orcha/server/timezone"
	"github.com/hrygo/orcha/store"
)

// LookbackDays is the history window examined by Analyze.
const LookbackDays = 14

// EventSource is the read side of the schedule service.
type EventSource interface {
	UpcomingEvents(userID string, horizonDays int) []*store.Event
	EventsBetween(userID string, from, to time.Time) []*store.Event
}

// bucket labels in rendering order.
var bucketLabels = [...]string{"Today", "Tomorrow", "Later this week", "Next week"}

// mondayFirst lists weekdays in tally order.
var mondayFirst = [...]time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// Analyzer renders upcoming events and activity patterns as text.
type Analyzer struct {
	events EventSource
	now    func() time.Time
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithClock sets the reference clock.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) {
		if now != nil {
			a.now = now
		}
	}
}

// NewAnalyzer creates an Analyzer over events.
func NewAnalyzer(events EventSource, opts ...Option) *Analyzer {
	a := &Analyzer{
		events: events,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Context groups the coming week of events by calendar-day distance from
// today and appends the activity summary. It returns "" when there is
// nothing to say.
func (a *Analyzer) Context(userID string) string {
	today := a.now()

	var buckets [len(bucketLabels)][]*store.Event
	for _, e := range a.events.UpcomingEvents(userID, schedule.DefaultUpcomingDays) {
		i := bucketIndex(timezone.DaysBetween(today, e.Timestamp))
		buckets[i] = append(buckets[i], e)
	}

	var sections []string
	for i, events := range buckets {
		if len(events) == 0 {
			continue
		}
		var b strings.Builder
		b.WriteString(bucketLabels[i])
		b.WriteString(":")
		for _, e := range events {
			fmt.Fprintf(&b, "\n- %s %s", e.Timestamp.In(today.Location()).Format("03:04 PM"), e.Title)
		}
		sections = append(sections, b.String())
	}

	if summary := a.Analyze(userID); summary != "" {
		sections = append(sections, "Pattern: "+summary)
	}
	return strings.Join(sections, "\n\n")
}

// Analyze reports the busiest weekday and hour over the last LookbackDays.
// Ties go to the earlier weekday (Monday first) and the earlier hour.
func (a *Analyzer) Analyze(userID string) string {
	now := a.now()
	history := a.events.EventsBetween(userID, now.AddDate(0, 0, -LookbackDays), now)
	if len(history) == 0 {
		return ""
	}

	var days [7]int
	var hours [24]int
	// Records may decode in another zone; read every time on the reference clock.
	for _, e := range history {
		ts := e.Timestamp.In(now.Location())
		days[weekdayIndex(ts.Weekday())]++
		hours[ts.Hour()]++
	}

	return fmt.Sprintf("most activities are on %ss around %s",
		mondayFirst[argmax(days[:])], hourLabel(argmax(hours[:])))
}

func bucketIndex(days int) int {
	switch {
	case days <= 0:
		return 0
	case days == 1:
		return 1
	case days < 7:
		return 2
	default:
		return 3
	}
}

func weekdayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// argmax returns the first index holding the largest count.
func argmax(counts []int) int {
	best := 0
	for i, c := range counts {
		if c > counts[best] {
			best = i
		}
	}
	return best
}

func hourLabel(hour int) string {
	switch hour {
	case 0:
		return "midnight"
	case 12:
		return "noon"
	}
	return time.Date(2000, 1, 1, hour, 0, 0, 0, time.UTC).Format("03:04 PM")
}
