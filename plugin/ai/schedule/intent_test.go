package schedule

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntentClassifier_Classify(t *testing.T) {
	tests := []struct {
		input      string
		want       Intent
		confidence float32
	}{
		{"remind me to call mom", IntentRemind, patternConfidence},
		{"Remind me to cancel the gym", IntentRemind, patternConfidence},
		{"set a reminder for the dentist", IntentRemind, patternConfidence},
		{"Schedule a meeting tomorrow", IntentCreate, patternConfidence},
		{"book the car service for friday", IntentCreate, patternConfidence},
		{"what's on tomorrow?", IntentQuery, patternConfidence},
		{"show my schedule", IntentQuery, patternConfidence},
		{"When am I free on friday", IntentFreeTime, patternConfidence},
		{"find me some time for a sync", IntentFreeTime, patternConfidence},
		{"cancel my dentist appointment", IntentCancel, patternConfidence},
		{"delete the standup", IntentCancel, patternConfidence},
		{"lunch with sam tomorrow", IntentCreate, keywordConfidence},
		{"anything on friday?", IntentQuery, keywordConfidence},
		{"hello there", IntentUnknown, 0},
		{"   ", IntentUnknown, 0},
	}

	c := NewIntentClassifier()
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := c.Classify(tt.input)
			assert.Equal(t, tt.want, got.Intent, "intent %s", got.Intent)
			assert.Equal(t, tt.confidence, got.Confidence)
		})
	}
}

func TestIntent_String(t *testing.T) {
	assert.Equal(t, "create", IntentCreate.String())
	assert.Equal(t, "remind", IntentRemind.String())
	assert.Equal(t, "query", IntentQuery.String())
	assert.Equal(t, "free_time", IntentFreeTime.String())
	assert.Equal(t, "cancel", IntentCancel.String())
	assert.Equal(t, "unknown", IntentUnknown.String())
	assert.Equal(t, "unknown", Intent(99).String())
}

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Remind me to call mom tomorrow at 3pm", "Call mom"},
		{"Schedule a meeting with Bob next friday at 10am", "Meeting with Bob"},
		{"Add an event for dentist on 24/12 at 9:30am", "Dentist"},
		{"dentist on 1/2/123", "Dentist"},
		{"lunch with Sam in 2 hours", "Lunch with Sam"},
		{"Please book the team retro for this month", "Team retro"},
		{"remind me about the report, tonight", "Report"},
		{"remind me tonight", ""},
		{"remind me in 10 minutes to look at 3 charts", "Look at 3 charts"},
		{"remind me tomorrow to call the dentist at 4", "Call the dentist"},
		{"meet Ana at 14:30", "Meet Ana"},
		{"at 9am", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractTitle(tt.input))
		})
	}
}

func TestExtractTitle_Truncates(t *testing.T) {
	title := ExtractTitle(strings.Repeat("a", 100))
	assert.Equal(t, MaxTitleLength, len(title))
	assert.Equal(t, "A", title[:1])
}
