package schedule

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxTitleLength bounds derived titles, in runes.
const MaxTitleLength = 80

// triggerPattern strips the leading request phrase.
var triggerPattern = regexp.MustCompile(`(?i)^\s*(please\s+)?(can you\s+)?(remind me\s+(to|about|of)|remind me|schedule|book|add|create|plan|set up|arrange|put)\b(\s+(a|an|my|the)\b)?(\s+(event|reminder|appointment)\s+(for|to))?`)

// timePhrasePatterns mirror what the extractor understands.
var timePhrasePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(today|tonight|tomorrow|next week|this month|next month)\b`),
	regexp.MustCompile(`(?i)\b((this|next)\s+)?(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`),
	regexp.MustCompile(`(?i)\bin \d+ (days?|hours?|minutes?)\b`),
	regexp.MustCompile(`(?i)\bon \d{1,2}[/.-]\d{1,2}([/.-]\d+)?\b`),
	regexp.MustCompile(`(?i)\bat \d{1,2}(:?\d{2})?\s*(am|pm)\b`),
	regexp.MustCompile(`(?i)\bat \d{1,2}:\d{2}\b`),
	// A bare "at 3" is a clock only at the end of a clause; "at 3 charts" is not.
	regexp.MustCompile(`(?i)\bat \d{1,2}\s*([,.;!?]|$)`),
	regexp.MustCompile(`(?i)\bon my calendar\b|\bto my calendar\b`),
}

var (
	leadingPattern  = regexp.MustCompile(`(?i)^(to|about|of)\s+`)
	danglingPattern = regexp.MustCompile(`(?i)(\s+(on|at|for|by|from|in))+\s*$`)
	spacePattern    = regexp.MustCompile(`\s+`)
)

// ExtractTitle derives an event title by removing the request phrase and
// every time expression from text. It returns "" when nothing is left.
func ExtractTitle(text string) string {
	cleaned := triggerPattern.ReplaceAllString(text, "")
	for _, p := range timePhrasePatterns {
		cleaned = p.ReplaceAllString(cleaned, " ")
	}
	cleaned = spacePattern.ReplaceAllString(cleaned, " ")
	cleaned = strings.Trim(cleaned, " ,.;:!?-")
	cleaned = leadingPattern.ReplaceAllString(cleaned, "")
	cleaned = danglingPattern.ReplaceAllString(cleaned, "")
	cleaned = strings.Trim(cleaned, " ,.;:!?-")

	if cleaned == "" {
		return ""
	}
	if utf8.RuneCountInString(cleaned) > MaxTitleLength {
		cleaned = strings.TrimSpace(string([]rune(cleaned)[:MaxTitleLength]))
	}
	return capitalize(cleaned)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
