package schedule

import (
	"context"
)

// DueReminders reports every event with reminder set, not yet reminded, and
// now <= timestamp <= now+lookahead. Each reported event is flipped to
// reminded and persisted before it is returned, so it is reported at most once.
func (s *Service) DueReminders(ctx context.Context) []DueReminder {
	now := s.now()
	until := now.Add(s.lookahead)

	var due []DueReminder
	for _, cal := range s.snapshot() {
		cal.mu.Lock()
		flipped := 0
		for _, e := range cal.events {
			if !e.Reminder || e.Reminded {
				continue
			}
			if e.Timestamp.Before(now) || e.Timestamp.After(until) {
				continue
			}
			e.Reminded = true
			flipped++
			due = append(due, DueReminder{UserID: cal.userID, Event: e.Clone()})
		}
		if flipped > 0 {
			s.persist(ctx, cal)
		}
		cal.mu.Unlock()
	}

	if len(due) > 0 {
		s.logger.Debug("due reminders collected", "count", len(due))
	}
	return due
}
