package store

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

const (
	// DefaultEventTitle is used when an event is created without a title.
	DefaultEventTitle = "Untitled Event"
	// DefaultReminderTitle is used when a reminder intent yields no title.
	DefaultReminderTitle = "Reminder"
)

// Event is the object representing a scheduled calendar item.
type Event struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
	CreatedAt   time.Time `json:"created_at"`
	Reminder    bool      `json:"reminder"`
	Reminded    bool      `json:"reminded"`
}

// Clone returns a copy of the event so callers cannot mutate stored state.
func (e *Event) Clone() *Event {
	if e == nil {
		return nil
	}
	c := *e
	return &c
}

// legacyTimeLayouts are ISO-8601 forms without a zone offset, as written by
// older calendar files. They are interpreted in the local zone.
var legacyTimeLayouts = []string{
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// UnmarshalJSON accepts RFC 3339 timestamps as well as zone-less ISO-8601 ones.
func (e *Event) UnmarshalJSON(data []byte) error {
	type eventAlias Event
	var raw struct {
		eventAlias
		Timestamp string `json:"timestamp"`
		CreatedAt string `json:"created_at"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	ts, err := parseISOTime(raw.Timestamp)
	if err != nil {
		return errors.Wrap(err, "invalid timestamp")
	}
	*e = Event(raw.eventAlias)
	e.Timestamp = ts

	if raw.CreatedAt != "" {
		createdAt, err := parseISOTime(raw.CreatedAt)
		if err != nil {
			return errors.Wrap(err, "invalid created_at")
		}
		e.CreatedAt = createdAt
	}
	return nil
}

func parseISOTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty time value")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	for _, layout := range legacyTimeLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Errorf("unrecognized time format %q", value)
}
