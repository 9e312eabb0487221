package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/orcha/store"
	"github.com/hrygo/orcha/store/db/memory"
)

func newMemoryStore() *store.Store {
	return store.New(memory.NewDB(), nil)
}

func TestService_CheckConflicts(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, memory.NewDB(), &testClock{now: at(8, 0)})
	proposed := at(12, 0)

	add := func(title string, ts time.Time) {
		_, err := svc.AddEvent(ctx, &CreateEvent{UserID: "u", Title: title, Timestamp: ts})
		require.NoError(t, err)
	}
	add("half hour later", proposed.Add(30*time.Minute))
	add("ninety minutes later", proposed.Add(90*time.Minute))
	add("ends exactly at start", proposed.Add(-60*time.Minute))
	add("started before", proposed.Add(-30*time.Minute))

	titles := func(events []*store.Event) []string {
		out := []string{}
		for _, e := range events {
			out = append(out, e.Title)
		}
		return out
	}

	tests := []struct {
		name     string
		duration int
		want     []string
	}{
		{"one hour", 60, []string{"started before", "half hour later"}},
		{"default duration", 0, []string{"started before", "half hour later"}},
		{"short", 15, []string{"started before"}},
		{"long", 120, []string{"started before", "half hour later", "ninety minutes later"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, titles(svc.CheckConflicts("u", proposed, tt.duration)))
		})
	}

	assert.Empty(t, svc.CheckConflicts("other", proposed, 60))
}

func TestService_FindFreeSlots(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, memory.NewDB(), &testClock{now: at(6, 0)})

	for _, ts := range []time.Time{at(9, 0), at(14, 0), at(14, 30)} {
		_, err := svc.AddEvent(ctx, &CreateEvent{UserID: "u", Timestamp: ts})
		require.NoError(t, err)
	}

	type span struct{ start, end string }
	spans := func(slots []TimeSlot) []span {
		out := []span{}
		for _, s := range slots {
			out = append(out, span{s.Start.Format("15:04"), s.End.Format("15:04")})
		}
		return out
	}

	tests := []struct {
		name     string
		duration time.Duration
		want     []span
	}{
		{"one hour", time.Hour, []span{{"08:00", "09:00"}, {"10:00", "14:00"}, {"15:30", "22:00"}}},
		{"two hours", 2 * time.Hour, []span{{"10:00", "14:00"}, {"15:30", "22:00"}}},
		{"five hours", 5 * time.Hour, []span{{"15:30", "22:00"}}},
		{"whole day", 15 * time.Hour, []span{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, spans(svc.FindFreeSlots("u", at(0, 0), tt.duration)))
		})
	}
}

func TestService_FindFreeSlotsEdges(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, memory.NewDB(), &testClock{now: at(6, 0)})

	slots := svc.FindFreeSlots("empty", at(0, 0), time.Hour)
	require.Len(t, slots, 1)
	assert.Equal(t, at(8, 0), slots[0].Start)
	assert.Equal(t, at(22, 0), slots[0].End)

	for _, ts := range []time.Time{at(7, 30), at(21, 30)} {
		_, err := svc.AddEvent(ctx, &CreateEvent{UserID: "u", Timestamp: ts})
		require.NoError(t, err)
	}
	slots = svc.FindFreeSlots("u", at(0, 0), time.Hour)
	require.Len(t, slots, 1)
	assert.Equal(t, at(8, 30), slots[0].Start, "an event before 08:00 still blocks its window")
	assert.Equal(t, at(21, 30), slots[0].End)
}

func TestService_SuggestAlternatives(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, memory.NewDB(), &testClock{now: at(6, 0)})

	assert.Nil(t, svc.SuggestAlternatives("u", at(10, 0), 60), "no conflict needs no alternatives")

	_, err := svc.AddEvent(ctx, &CreateEvent{UserID: "u", Title: "Busy Meeting", Timestamp: at(10, 0)})
	require.NoError(t, err)

	alternatives := svc.SuggestAlternatives("u", at(10, 0), 60)
	require.Len(t, alternatives, 2)
	assert.Equal(t, at(11, 0), alternatives[0].Start, "the closest morning slot ranks first")
	assert.Equal(t, at(8, 0), alternatives[1].Start)
	assert.Greater(t, alternatives[0].Score, alternatives[1].Score)
}
