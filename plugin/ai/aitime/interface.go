// Package aitime extracts calendar times from free-form English text.
package aitime

import (
	"time"
)

// TimeExtractor is the extraction contract consumed by intent handlers.
type TimeExtractor interface {
	// Extract returns the first time expression found in text.
	// Supports: "tonight", "tomorrow", "next friday", "in 10 minutes", "on 14/10", "at 3pm"
	Extract(text string) (time.Time, bool)

	// Resolve is Extract that also reports the winning rule.
	Resolve(text string) (Match, error)

	// ExtractClock evaluates only the "at H[:MM][am|pm]" rule, so callers can
	// merge a date and a clock found by two separate calls.
	ExtractClock(text string) (time.Time, bool)
}

// Combine merges the calendar date of date with the clock of clock.
func Combine(date, clock time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(),
		clock.Hour(), clock.Minute(), 0, 0, date.Location())
}

// ResolveDateTime resolves text and, when the winning rule produced a
// date, merges in a separately stated clock so "tomorrow at 3pm" lands on
// tomorrow at 15:00. The returned Match carries the merged time.
func ResolveDateTime(x TimeExtractor, text string) (Match, error) {
	m, err := x.Resolve(text)
	if err != nil {
		return Match{}, err
	}
	if !m.Rule.IsDate() {
		return m, nil
	}
	if clock, ok := x.ExtractClock(text); ok {
		m.Time = Combine(m.Time, clock)
	}
	return m, nil
}
