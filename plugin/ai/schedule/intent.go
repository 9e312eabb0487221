// Package schedule turns free-form requests into calendar actions.
package schedule

import (
	"regexp"
	"strings"
)

// Intent represents the kind of calendar request.
type Intent int

const (
	// IntentUnknown is for unrecognized requests.
	IntentUnknown Intent = iota
	// IntentCreate adds an event.
	IntentCreate
	// IntentRemind adds an event with a reminder.
	IntentRemind
	// IntentQuery lists upcoming events.
	IntentQuery
	// IntentFreeTime looks for open slots.
	IntentFreeTime
	// IntentCancel removes an event.
	IntentCancel
)

// String returns the string representation of Intent.
func (i Intent) String() string {
	switch i {
	case IntentCreate:
		return "create"
	case IntentRemind:
		return "remind"
	case IntentQuery:
		return "query"
	case IntentFreeTime:
		return "free_time"
	case IntentCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// Pattern matches score higher than keyword fallbacks.
const (
	patternConfidence = 0.9
	keywordConfidence = 0.6
)

// intentPatterns are checked in order; the first matching intent wins.
var intentPatterns = []struct {
	intent   Intent
	patterns []*regexp.Regexp
}{
	{IntentFreeTime, []*regexp.Regexp{
		regexp.MustCompile(`\b(free time|free slots?|when am i free|am i free|available slots?|open slots?)\b`),
		regexp.MustCompile(`\bfind (me )?(some )?time\b`),
	}},
	{IntentRemind, []*regexp.Regexp{
		regexp.MustCompile(`\bremind me\b`),
		regexp.MustCompile(`\b(set|add|create) (a )?reminder\b`),
	}},
	{IntentCancel, []*regexp.Regexp{
		regexp.MustCompile(`^(please )?(cancel|delete|remove|drop)\b`),
		regexp.MustCompile(`\b(cancel|delete|remove) (my|the|that|this)\b`),
	}},
	{IntentQuery, []*regexp.Regexp{
		regexp.MustCompile(`\bwhat('s| is| do i have)\b.*\b(on|today|tomorrow|schedule|planned|coming up|agenda)\b`),
		regexp.MustCompile(`\b(show|list|view)( me)? (my )?(schedule|events|calendar|agenda|plans)\b`),
		regexp.MustCompile(`\b(upcoming|my schedule|my agenda)\b`),
	}},
	{IntentCreate, []*regexp.Regexp{
		regexp.MustCompile(`^(please )?(schedule|book|add|create|plan|set up|arrange|put)\b`),
		regexp.MustCompile(`\b(schedule|book|set up|arrange) (a|an|my|the)\b`),
	}},
}

var (
	timeKeywords   = []string{"today", "tonight", "tomorrow", "next ", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday", " at ", " in ", " on "}
	createKeywords = []string{"meeting", "call", "lunch", "dinner", "appointment", "standup", "sync", "review", "interview", "gym"}
)

// ClassifyResult holds the classification result.
type ClassifyResult struct {
	Intent     Intent
	Confidence float32
}

// IntentClassifier classifies requests with ordered regular expressions,
// falling back to keyword heuristics.
type IntentClassifier struct{}

// NewIntentClassifier creates a new IntentClassifier.
func NewIntentClassifier() *IntentClassifier {
	return &IntentClassifier{}
}

// Classify determines the intent of text.
func (c *IntentClassifier) Classify(text string) ClassifyResult {
	input := strings.ToLower(strings.TrimSpace(text))
	if input == "" {
		return ClassifyResult{Intent: IntentUnknown}
	}

	for _, group := range intentPatterns {
		for _, p := range group.patterns {
			if p.MatchString(input) {
				return ClassifyResult{Intent: group.intent, Confidence: patternConfidence}
			}
		}
	}

	// A time phrase plus an event-like noun is most likely a create.
	if containsAny(" "+input+" ", timeKeywords) && containsAny(input, createKeywords) {
		return ClassifyResult{Intent: IntentCreate, Confidence: keywordConfidence}
	}
	if strings.HasSuffix(input, "?") && containsAny(" "+input+" ", timeKeywords) {
		return ClassifyResult{Intent: IntentQuery, Confidence: keywordConfidence}
	}
	return ClassifyResult{Intent: IntentUnknown}
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
