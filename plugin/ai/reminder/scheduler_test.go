package reminder

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/orcha/server/service/schedule"
	"github.com/hrygo/orcha/store"
	"github.com/hrygo/orcha/store/db/memory"
)

// fakeSource hands out queued reminders once and counts prune calls.
type fakeSource struct {
	mu     sync.Mutex
	due    []schedule.DueReminder
	prunes []int
}

func (f *fakeSource) DueReminders(context.Context) []schedule.DueReminder {
	f.mu.Lock()
	defer f.mu.Unlock()
	due := f.due
	f.due = nil
	return due
}

func (f *fakeSource) Prune(_ context.Context, days int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prunes = append(f.prunes, days)
	return 0
}

func (f *fakeSource) pruneCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prunes)
}

func dueEvent(user, id, title string) schedule.DueReminder {
	return schedule.DueReminder{
		UserID: user,
		Event: &store.Event{
			ID:        id,
			UserID:    user,
			Title:     title,
			Timestamp: time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC),
			Reminder:  true,
			Reminded:  true,
		},
	}
}

func TestScheduler_StartStop(t *testing.T) {
	scheduler := NewScheduler(&fakeSource{}, nil, NewMockNotifier(), SchedulerConfig{Interval: 100 * time.Millisecond})

	ctx := context.Background()
	require.NoError(t, scheduler.Start(ctx))
	assert.True(t, scheduler.IsRunning())

	// Double start should be no-op
	require.NoError(t, scheduler.Start(ctx))

	scheduler.Stop()
	assert.False(t, scheduler.IsRunning())

	// Double stop should be no-op
	scheduler.Stop()
}

func TestScheduler_ProcessesDueReminders(t *testing.T) {
	source := &fakeSource{due: []schedule.DueReminder{
		dueEvent("1", "a", "Standup"),
		dueEvent("1", "b", "Lunch"),
		dueEvent("2", "c", "Gym"),
	}}
	notifier := NewMockNotifier()

	scheduler := NewScheduler(source, nil, notifier, SchedulerConfig{Interval: 50 * time.Millisecond})
	processedChan := scheduler.EnableTestMode()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, scheduler.Start(ctx))

	select {
	case processed := <-processedChan:
		assert.Equal(t, 3, processed)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timeout waiting for reminders to be processed")
	}

	scheduler.Stop()
	sent := notifier.Sent()
	require.Len(t, sent, 3)
	assert.Equal(t, "🔔 Reminder: Standup at 09:00 AM", sent[0].Message)
	assert.Equal(t, "2", sent[2].UserID)
	assert.Equal(t, int64(3), scheduler.Stats().TotalDelivered)
}

func TestScheduler_RunOnceReportsFailures(t *testing.T) {
	source := &fakeSource{due: []schedule.DueReminder{dueEvent("1", "a", "Standup")}}
	notifier := NewMockNotifier()
	notifier.SetFail(true)

	scheduler := NewScheduler(source, nil, notifier, DefaultSchedulerConfig())
	delivered, err := scheduler.RunOnce(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 0, delivered)
	assert.Equal(t, int64(1), scheduler.Stats().TotalFailed)

	// The sweep already marked the event, so nothing is redelivered.
	notifier.SetFail(false)
	delivered, err = scheduler.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, delivered)
}

func TestScheduler_PrunesOnInterval(t *testing.T) {
	source := &fakeSource{}
	scheduler := NewScheduler(source, nil, NewMockNotifier(), SchedulerConfig{
		Interval:      time.Minute,
		PruneInterval: time.Hour,
		PruneDays:     10,
	})
	now := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	scheduler.now = func() time.Time { return now }

	ctx := context.Background()
	scheduler.processCycle(ctx)
	assert.Equal(t, 1, source.pruneCount(), "first cycle prunes")

	now = now.Add(30 * time.Minute)
	scheduler.processCycle(ctx)
	assert.Equal(t, 1, source.pruneCount())

	now = now.Add(31 * time.Minute)
	scheduler.processCycle(ctx)
	assert.Equal(t, 2, source.pruneCount())
	assert.Equal(t, []int{10, 10}, source.prunes)
}

func TestScheduler_NoPruneWhenDisabled(t *testing.T) {
	source := &fakeSource{}
	scheduler := NewScheduler(source, nil, nil, SchedulerConfig{Interval: time.Minute})
	scheduler.processCycle(context.Background())
	assert.Equal(t, 0, source.pruneCount())
}

func TestScheduler_ContextCancellation(t *testing.T) {
	scheduler := NewScheduler(&fakeSource{}, nil, NewMockNotifier(), SchedulerConfig{Interval: 100 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, scheduler.Start(ctx))

	cancel()
	assert.Eventually(t, func() bool { return !scheduler.IsRunning() }, time.Second, 10*time.Millisecond)
	scheduler.Stop()
}

// The schedule service and the scheduler together deliver a due event exactly once.
func TestScheduler_DeliversExactlyOnce(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 14, 8, 45, 0, 0, time.UTC)
	svc, err := schedule.NewService(ctx, store.New(memory.NewDB(), nil),
		schedule.WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	_, err = svc.AddEvent(ctx, &schedule.CreateEvent{
		UserID:      "42",
		Title:       "Standup",
		Description: "daily sync",
		Timestamp:   time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC),
		Reminder:    true,
	})
	require.NoError(t, err)

	notifier := NewMockNotifier()
	scheduler := NewScheduler(svc, nil, notifier, DefaultSchedulerConfig())

	for i := 0; i < 3; i++ {
		_, err := scheduler.RunOnce(ctx)
		require.NoError(t, err)
	}

	sent := notifier.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "42", sent[0].UserID)
	assert.Equal(t, "🔔 Reminder: Standup at 09:00 AM\n\ndaily sync", sent[0].Message)
}
