package schedule

import (
	"sort"
	"time"

	"github.com/hrygo/orcha/store"
)

const (
	freeSlotHourStart = 8  // 8 AM
	freeSlotHourEnd   = 22 // 10 PM
)

// CheckConflicts returns every event whose conflict window
// [timestamp, timestamp+60m) overlaps [proposed, proposed+duration).
// A non-positive duration is treated as 60 minutes.
func (s *Service) CheckConflicts(userID string, proposed time.Time, durationMinutes int) []*store.Event {
	if durationMinutes <= 0 {
		durationMinutes = int(DefaultConflictWindow / time.Minute)
	}
	end := proposed.Add(time.Duration(durationMinutes) * time.Minute)

	return s.filter(userID, func(e *store.Event) bool {
		return overlaps(e.Timestamp, e.Timestamp.Add(DefaultConflictWindow), proposed, end)
	})
}

func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// FindFreeSlots finds the free periods of at least duration between 08:00
// and 22:00 on the given date. Each slot starts where a gap begins.
func (s *Service) FindFreeSlots(userID string, date time.Time, duration time.Duration) []TimeSlot {
	if duration <= 0 {
		duration = DefaultConflictWindow
	}
	loc := date.Location()
	startOfDay := time.Date(date.Year(), date.Month(), date.Day(), freeSlotHourStart, 0, 0, 0, loc)
	endOfDay := time.Date(date.Year(), date.Month(), date.Day(), freeSlotHourEnd, 0, 0, 0, loc)

	// Include events that start before the range but still occupy it.
	events := s.EventsBetween(userID, startOfDay.Add(-DefaultConflictWindow), endOfDay)
	return findSlotsInRange(events, startOfDay, endOfDay, duration)
}

// findSlotsInRange finds available time slots within a range.
func findSlotsInRange(events []*store.Event, startOfDay, endOfDay time.Time, duration time.Duration) []TimeSlot {
	busyRanges := make([]timeRange, 0, len(events))
	for _, e := range events {
		start := e.Timestamp.In(startOfDay.Location())
		busyRanges = append(busyRanges, timeRange{start: start, end: start.Add(DefaultConflictWindow)})
	}

	sort.Slice(busyRanges, func(i, j int) bool {
		return busyRanges[i].start.Before(busyRanges[j].start)
	})

	freeSlots := []TimeSlot{}
	current := startOfDay

	for _, busy := range busyRanges {
		if !busy.end.After(current) {
			continue
		}

		if busy.start.After(current) {
			gapEnd := busy.start
			if gapEnd.After(endOfDay) {
				gapEnd = endOfDay
			}
			if gapEnd.Sub(current) >= duration {
				freeSlots = append(freeSlots, newSlot(current, gapEnd))
			}
		}

		if busy.end.After(current) {
			current = busy.end
		}
		if !current.Before(endOfDay) {
			return freeSlots
		}
	}

	if endOfDay.Sub(current) >= duration {
		freeSlots = append(freeSlots, newSlot(current, endOfDay))
	}
	return freeSlots
}

func newSlot(start, end time.Time) TimeSlot {
	return TimeSlot{
		Start:  start,
		End:    end,
		Reason: start.Format("03:04 PM") + " - " + end.Format("03:04 PM"),
		Score:  int(end.Sub(start) / time.Minute),
	}
}

// SuggestAlternatives returns free slots on the proposed day, closest to the
// proposed time first. It returns nil when the proposed time has no conflict.
func (s *Service) SuggestAlternatives(userID string, proposed time.Time, durationMinutes int) []TimeSlot {
	if len(s.CheckConflicts(userID, proposed, durationMinutes)) == 0 {
		return nil
	}
	if durationMinutes <= 0 {
		durationMinutes = int(DefaultConflictWindow / time.Minute)
	}
	duration := time.Duration(durationMinutes) * time.Minute

	slots := s.FindFreeSlots(userID, proposed, duration)
	for i := range slots {
		slots[i].Score = calculateScore(proposed, slots[i])
	}
	sort.SliceStable(slots, func(i, j int) bool {
		return slots[i].Score > slots[j].Score
	})
	return slots
}

// calculateScore calculates a priority score for a time slot.
// Higher scores indicate better alternatives.
func calculateScore(requested time.Time, alt TimeSlot) int {
	score := 0

	// Proximity to requested time
	hourDiff := alt.Start.Hour() - requested.Hour()
	if hourDiff < 0 {
		hourDiff = -hourDiff
	}
	if hourDiff == 0 {
		score += 50
	} else {
		score += (24 - hourDiff) * 2
	}

	// Same half of the day
	if (alt.Start.Hour() < 12) == (requested.Hour() < 12) {
		score += 20
	}

	hour := alt.Start.Hour()
	if hour >= 9 && hour <= 11 {
		score += 15 // Morning prime time
	} else if hour >= 14 && hour <= 16 {
		score += 15 // Afternoon prime time
	}

	return score
}

type timeRange struct {
	start, end time.Time
}
