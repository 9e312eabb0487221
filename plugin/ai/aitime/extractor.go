package aitime

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	engineerrors "github.com/hrygo/orcha/internal/errors"
)

// RuleName identifies an extraction rule.
type RuleName string

const (
	RuleToday       RuleName = "today"
	RuleTomorrow    RuleName = "tomorrow"
	RuleNextWeek    RuleName = "next_week"
	RuleThisMonth   RuleName = "this_month"
	RuleNextMonth   RuleName = "next_month"
	RuleWeekday     RuleName = "weekday"
	RuleRelative    RuleName = "relative"
	RuleNumericDate RuleName = "numeric_date"
	RuleClock       RuleName = "clock"
)

// IsDate reports whether the rule yields a calendar date whose clock may
// come from a separate "at" phrase. Relative offsets are exact instants.
func (r RuleName) IsDate() bool {
	switch r {
	case RuleRelative, RuleClock:
		return false
	}
	return true
}

// SameWeekdayPolicy decides what a bare weekday name means when it names today.
type SameWeekdayPolicy int

const (
	// SameWeekdayNextWeek resolves "monday" said on a Monday to the Monday seven days later.
	SameWeekdayNextWeek SameWeekdayPolicy = iota
	// SameWeekdayToday resolves "monday" said on a Monday to today.
	SameWeekdayToday
)

// TwoDigitYearPivot splits two-digit years: below it maps to 20xx, otherwise 19xx.
const TwoDigitYearPivot = 50

// TonightHour is the clock assigned to "tonight".
const TonightHour = 21

// ErrNoTimeFound is returned by Resolve when no rule matches.
var ErrNoTimeFound = engineerrors.ParseFailure("no time found")

// weekdayIndex maps weekday names to a Monday-first index.
var weekdayIndex = map[string]int{
	"monday":    0,
	"tuesday":   1,
	"wednesday": 2,
	"thursday":  3,
	"friday":    4,
	"saturday":  5,
	"sunday":    6,
}

type resolver func(e *Extractor, m []string, now time.Time) (time.Time, error)

type rule struct {
	name    RuleName
	pattern *regexp.Regexp
	resolve resolver
}

// rules are evaluated top to bottom; the first pattern that matches decides the result.
var rules = []rule{
	{RuleToday, regexp.MustCompile(`today|tonight`), resolveToday},
	{RuleTomorrow, regexp.MustCompile(`tomorrow`), resolveTomorrow},
	{RuleNextWeek, regexp.MustCompile(`next week`), resolveNextWeek},
	{RuleThisMonth, regexp.MustCompile(`this month`), resolveThisMonth},
	{RuleNextMonth, regexp.MustCompile(`next month`), resolveNextMonth},
	{RuleWeekday, regexp.MustCompile(`(this |next )?(monday|tuesday|wednesday|thursday|friday|saturday|sunday)`), resolveWeekday},
	{RuleRelative, regexp.MustCompile(`\bin (\d+) (day|days|hour|hours|minute|minutes)`), resolveRelative},
	{RuleNumericDate, regexp.MustCompile(`\bon (\d{1,2})[/.-](\d{1,2})(?:[/.-](\d+))?`), resolveNumericDate},
	{RuleClock, clockPattern, resolveClock},
}

var clockPattern = regexp.MustCompile(`\bat (\d{1,2}):?(\d{2})?\s*(am|pm)?`)

// Match is a successful extraction.
type Match struct {
	Rule RuleName
	Time time.Time
}

// Extractor resolves time expressions against a reference clock.
type Extractor struct {
	now         func() time.Time
	logger      *slog.Logger
	sameWeekday SameWeekdayPolicy
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithClock sets the reference clock.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger sets the logger used to report failing rules.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithSameWeekdayPolicy sets how a bare weekday naming today resolves.
func WithSameWeekdayPolicy(p SameWeekdayPolicy) Option {
	return func(e *Extractor) {
		e.sameWeekday = p
	}
}

// NewExtractor creates an extractor using time.Now as reference clock.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		now:         time.Now,
		logger:      slog.Default(),
		sameWeekday: SameWeekdayNextWeek,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract implements TimeExtractor.
func (e *Extractor) Extract(text string) (time.Time, bool) {
	m, err := e.Resolve(text)
	if err != nil {
		return time.Time{}, false
	}
	return m.Time, true
}

// ExtractClock implements TimeExtractor.
func (e *Extractor) ExtractClock(text string) (time.Time, bool) {
	m, err := e.resolveWith(text, rules[len(rules)-1:])
	if err != nil {
		return time.Time{}, false
	}
	return m.Time, true
}

// Resolve runs the rule table and reports which rule produced the time.
// A matching rule that fails to resolve ends the evaluation with a PARSE_FAILURE.
func (e *Extractor) Resolve(text string) (Match, error) {
	return e.resolveWith(text, rules)
}

func (e *Extractor) resolveWith(text string, table []rule) (Match, error) {
	input := strings.ToLower(text)
	now := e.now()

	for _, r := range table {
		m := r.pattern.FindStringSubmatch(input)
		if m == nil {
			continue
		}
		t, err := r.resolve(e, m, now)
		if err != nil {
			e.logger.Warn("failed to resolve time expression",
				"rule", r.name,
				"pattern", r.pattern.String(),
				"error", err,
			)
			return Match{}, engineerrors.Wrap(err, engineerrors.ErrCodeParseFailure, fmt.Sprintf("rule %s failed", r.name))
		}
		return Match{Rule: r.name, Time: t}, nil
	}

	return Match{}, ErrNoTimeFound
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func resolveToday(_ *Extractor, m []string, now time.Time) (time.Time, error) {
	day := midnight(now)
	if strings.Contains(m[0], "tonight") {
		return day.Add(TonightHour * time.Hour), nil
	}
	return day, nil
}

func resolveTomorrow(_ *Extractor, _ []string, now time.Time) (time.Time, error) {
	return midnight(now).AddDate(0, 0, 1), nil
}

func resolveNextWeek(_ *Extractor, _ []string, now time.Time) (time.Time, error) {
	return midnight(now).AddDate(0, 0, 7), nil
}

func resolveThisMonth(_ *Extractor, _ []string, now time.Time) (time.Time, error) {
	return time.Date(now.Year(), now.Month(), 15, 0, 0, 0, 0, now.Location()), nil
}

// resolveNextMonth adds 32 days to the first of the following month, which
// lands early in the month after next.
func resolveNextMonth(_ *Extractor, _ []string, now time.Time) (time.Time, error) {
	firstOfNext := time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, now.Location())
	return firstOfNext.AddDate(0, 0, 32), nil
}

func resolveWeekday(e *Extractor, m []string, now time.Time) (time.Time, error) {
	target, ok := weekdayIndex[m[2]]
	if !ok {
		return time.Time{}, fmt.Errorf("unknown weekday %q", m[2])
	}
	current := (int(now.Weekday()) + 6) % 7
	hasNext := strings.Contains(m[0], "next")

	daysAhead := target - current
	sameDayRollover := daysAhead == 0 && e.sameWeekday == SameWeekdayNextWeek
	if daysAhead < 0 || sameDayRollover || hasNext {
		daysAhead += 7
	}
	return midnight(now).AddDate(0, 0, daysAhead), nil
}

func resolveRelative(_ *Extractor, m []string, now time.Time) (time.Time, error) {
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return time.Time{}, err
	}
	return applyRelative(now, n, m[2]), nil
}

// applyRelative computes hour and minute offsets from now (at minute precision)
// and day offsets from today's midnight. Unknown units add nothing.
func applyRelative(now time.Time, n int, unit string) time.Time {
	minute := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), now.Minute(), 0, 0, now.Location())
	switch {
	case strings.HasPrefix(unit, "day"):
		return midnight(now).AddDate(0, 0, n)
	case strings.HasPrefix(unit, "hour"):
		return minute.Add(time.Duration(n) * time.Hour)
	case strings.HasPrefix(unit, "minute"):
		return minute.Add(time.Duration(n) * time.Minute)
	default:
		return minute
	}
}

func resolveNumericDate(_ *Extractor, m []string, now time.Time) (time.Time, error) {
	first, err := strconv.Atoi(m[1])
	if err != nil {
		return time.Time{}, err
	}
	second, err := strconv.Atoi(m[2])
	if err != nil {
		return time.Time{}, err
	}

	year := now.Year()
	if m[3] != "" {
		// The year group takes every digit so "1/2/123" fails instead of reading "12".
		if n := len(m[3]); n == 3 || n > 4 {
			return time.Time{}, fmt.Errorf("malformed year %q", m[3])
		}
		y, err := strconv.Atoi(m[3])
		if err != nil {
			return time.Time{}, err
		}
		year = expandYear(y, len(m[3]))
	}

	// Day first; swap once if that is not a real date.
	if isValidDate(year, second, first) {
		return time.Date(year, time.Month(second), first, 0, 0, 0, 0, now.Location()), nil
	}
	if isValidDate(year, first, second) {
		return time.Date(year, time.Month(first), second, 0, 0, 0, 0, now.Location()), nil
	}
	return time.Time{}, fmt.Errorf("invalid date %s/%s/%d", m[1], m[2], year)
}

func expandYear(y, digits int) int {
	if digits > 2 {
		return y
	}
	if y < TwoDigitYearPivot {
		return 2000 + y
	}
	return 1900 + y
}

func isValidDate(year, month, day int) bool {
	if month < 1 || month > 12 || day < 1 {
		return false
	}
	daysInMonth := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
	return day <= daysInMonth
}

func resolveClock(_ *Extractor, m []string, now time.Time) (time.Time, error) {
	hour, err := strconv.Atoi(m[1])
	if err != nil {
		return time.Time{}, err
	}
	minute := 0
	if m[2] != "" {
		if minute, err = strconv.Atoi(m[2]); err != nil {
			return time.Time{}, err
		}
	}

	switch m[3] {
	case "pm":
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}

	if hour > 23 || minute > 59 {
		return time.Time{}, fmt.Errorf("invalid clock %02d:%02d", hour, minute)
	}
	return time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location()), nil
}

var _ TimeExtractor = (*Extractor)(nil)
