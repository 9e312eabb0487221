package aitime

import (
	"strings"
	"time"
)

// MockExtractor is a mock implementation of TimeExtractor for testing.
// Results are looked up by lower-cased substring; the first key found in the
// input wins, so callers should avoid overlapping keys.
type MockExtractor struct {
	// Dates maps a phrase to the value returned by Extract.
	Dates map[string]time.Time
	// Rules maps a Dates phrase to the rule Resolve reports. Unlisted
	// phrases report RuleToday.
	Rules map[string]RuleName
	// Clocks maps a phrase to the value returned by ExtractClock.
	Clocks map[string]time.Time

	// Calls records every Extract and Resolve input.
	Calls []string
}

// NewMockExtractor creates an empty MockExtractor.
func NewMockExtractor() *MockExtractor {
	return &MockExtractor{
		Dates:  make(map[string]time.Time),
		Rules:  make(map[string]RuleName),
		Clocks: make(map[string]time.Time),
	}
}

// Extract implements TimeExtractor.
func (m *MockExtractor) Extract(text string) (time.Time, bool) {
	m.Calls = append(m.Calls, text)
	_, t, ok := lookup(m.Dates, text)
	return t, ok
}

// Resolve implements TimeExtractor.
func (m *MockExtractor) Resolve(text string) (Match, error) {
	m.Calls = append(m.Calls, text)
	phrase, t, ok := lookup(m.Dates, text)
	if !ok {
		return Match{}, ErrNoTimeFound
	}
	rule, ok := m.Rules[phrase]
	if !ok {
		rule = RuleToday
	}
	return Match{Rule: rule, Time: t}, nil
}

// ExtractClock implements TimeExtractor.
func (m *MockExtractor) ExtractClock(text string) (time.Time, bool) {
	_, t, ok := lookup(m.Clocks, text)
	return t, ok
}

func lookup(table map[string]time.Time, text string) (string, time.Time, bool) {
	input := strings.ToLower(text)
	for phrase, t := range table {
		if strings.Contains(input, phrase) {
			return phrase, t, true
		}
	}
	return "", time.Time{}, false
}

// Ensure MockExtractor implements TimeExtractor
var _ TimeExtractor = (*MockExtractor)(nil)
