package store

import (
	"context"
	"encoding/json"

	"github.com/hrygo/orcha/internal/profile"

	engineerrors "github.com/hrygo/orcha/internal/errors"
)

// Store provides access to persisted user calendars.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	return s.driver.Close()
}

// ListCalendarOwners returns every user id with a persisted calendar.
func (s *Store) ListCalendarOwners(ctx context.Context) ([]string, error) {
	ids, err := s.driver.ListRecords(ctx)
	if err != nil {
		return nil, engineerrors.PersistenceFailure("failed to list calendars", err)
	}
	return ids, nil
}

// LoadCalendar reads and decodes a user's calendar.
// A missing record yields an empty calendar; an undecodable one yields a MALFORMED_RECORD error.
func (s *Store) LoadCalendar(ctx context.Context, userID string) ([]*Event, error) {
	data, err := s.driver.ReadRecord(ctx, userID)
	if err != nil {
		return nil, engineerrors.PersistenceFailure("failed to read calendar", err).WithContext("user_id", userID)
	}
	if len(data) == 0 {
		return []*Event{}, nil
	}

	events, err := DecodeCalendar(data)
	if err != nil {
		return nil, engineerrors.MalformedRecord(userID, err)
	}
	for _, e := range events {
		if e.UserID == "" {
			e.UserID = userID
		}
	}
	return events, nil
}

// SaveCalendar rewrites a user's calendar record in full.
func (s *Store) SaveCalendar(ctx context.Context, userID string, events []*Event) error {
	data, err := EncodeCalendar(events)
	if err != nil {
		return engineerrors.PersistenceFailure("failed to encode calendar", err).WithContext("user_id", userID)
	}
	if err := s.driver.WriteRecord(ctx, userID, data); err != nil {
		return engineerrors.PersistenceFailure("failed to write calendar", err).WithContext("user_id", userID)
	}
	return nil
}

// EncodeCalendar serializes a calendar as an indented JSON array.
func EncodeCalendar(events []*Event) ([]byte, error) {
	if events == nil {
		events = []*Event{}
	}
	return json.MarshalIndent(events, "", "  ")
}

// DecodeCalendar parses a calendar record. Every event must carry an id.
func DecodeCalendar(data []byte) ([]*Event, error) {
	var events []*Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, err
	}
	for i, e := range events {
		if e == nil || e.ID == "" {
			return nil, engineerrors.InvalidArgument("event without id").WithContext("index", i)
		}
	}
	return events, nil
}
