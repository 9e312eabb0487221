package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/orcha/store/db/memory"
)

func TestService_DueRemindersStandup(t *testing.T) {
	ctx := context.Background()
	db := memory.NewDB()
	clock := &testClock{now: at(7, 0)}
	svc := newTestService(t, db, clock)

	standup, err := svc.AddEvent(ctx, &CreateEvent{UserID: "u", Title: "Standup", Timestamp: at(9, 0), Reminder: true})
	require.NoError(t, err)

	assert.Empty(t, svc.DueReminders(ctx), "two hours ahead is outside the window")

	clock.Set(at(8, 45))
	due := svc.DueReminders(ctx)
	require.Len(t, due, 1)
	assert.Equal(t, "u", due[0].UserID)
	assert.Equal(t, standup.ID, due[0].Event.ID)
	assert.True(t, due[0].Event.Reminded)

	assert.Empty(t, svc.DueReminders(ctx), "a reminder is reported at most once")

	clock.Set(at(9, 0))
	assert.Empty(t, svc.DueReminders(ctx))

	reloaded := newTestService(t, db, clock)
	events := reloaded.ListEvents("u")
	require.Len(t, events, 1)
	assert.True(t, events[0].Reminded, "the flip is persisted")
	assert.Empty(t, reloaded.DueReminders(ctx))
}

func TestService_DueRemindersWindow(t *testing.T) {
	ctx := context.Background()
	clock := &testClock{now: at(10, 0)}
	svc := newTestService(t, memory.NewDB(), clock)

	tests := []struct {
		title    string
		ts       time.Time
		reminder bool
		wantDue  bool
	}{
		{"exactly now", at(10, 0), true, true},
		{"window edge", at(10, 30), true, true},
		{"just past window", at(10, 31), true, false},
		{"already passed", at(9, 59), true, false},
		{"no reminder", at(10, 10), false, false},
	}
	for _, tt := range tests {
		_, err := svc.AddEvent(ctx, &CreateEvent{UserID: "u", Title: tt.title, Timestamp: tt.ts, Reminder: tt.reminder})
		require.NoError(t, err)
	}

	got := make(map[string]bool)
	for _, d := range svc.DueReminders(ctx) {
		got[d.Event.Title] = true
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.wantDue, got[tt.title])
		})
	}
}

func TestService_DueRemindersAcrossUsers(t *testing.T) {
	ctx := context.Background()
	db := memory.NewDB()
	clock := &testClock{now: at(10, 0)}
	svc := newTestService(t, db, clock)

	for _, user := range []string{"b", "a", "c"} {
		_, err := svc.AddEvent(ctx, &CreateEvent{UserID: user, Timestamp: at(10, 15), Reminder: true})
		require.NoError(t, err)
	}
	writes := db.Writes()

	due := svc.DueReminders(ctx)
	require.Len(t, due, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{due[0].UserID, due[1].UserID, due[2].UserID})
	assert.Equal(t, writes+3, db.Writes())
}

func TestService_CustomLookahead(t *testing.T) {
	ctx := context.Background()
	clock := &testClock{now: at(10, 0)}
	svc, err := NewService(ctx, newMemoryStore(), WithClock(clock.Now), WithLookahead(5*time.Minute))
	require.NoError(t, err)

	_, err = svc.AddEvent(ctx, &CreateEvent{UserID: "u", Timestamp: at(10, 10), Reminder: true})
	require.NoError(t, err)
	assert.Empty(t, svc.DueReminders(ctx))

	clock.Set(at(10, 5))
	assert.Len(t, svc.DueReminders(ctx), 1)
}
