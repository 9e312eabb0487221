// Package reminder delivers due event reminders on a periodic schedule.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hrygo/orcha/store"
)

// Notifier delivers a reminder message to a user.
type Notifier interface {
	Notify(ctx context.Context, userID string, event *store.Event, message string) error
	Name() string
}

// LogNotifier writes reminders to a structured logger. It is the default
// sink when no chat transport is attached.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier; a nil logger means slog.Default().
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(_ context.Context, userID string, event *store.Event, message string) error {
	n.logger.Info("reminder",
		"user_id", userID,
		"event_id", event.ID,
		"title", event.Title,
		"timestamp", event.Timestamp,
		"message", message,
	)
	return nil
}

// Name implements Notifier.
func (n *LogNotifier) Name() string {
	return "log"
}

// Dispatcher fans a reminder out to every registered notifier.
type Dispatcher struct {
	mu        sync.RWMutex
	notifiers []Notifier
	logger    *slog.Logger
}

// NewDispatcher creates a dispatcher over the given notifiers.
func NewDispatcher(notifiers ...Notifier) *Dispatcher {
	return &Dispatcher{
		notifiers: notifiers,
		logger:    slog.Default(),
	}
}

// Register adds a notifier.
func (d *Dispatcher) Register(n Notifier) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notifiers = append(d.notifiers, n)
	d.logger.Info("registered reminder notifier", "notifier", n.Name())
}

// Notify implements Notifier. It tries every notifier and joins their errors.
func (d *Dispatcher) Notify(ctx context.Context, userID string, event *store.Event, message string) error {
	d.mu.RLock()
	notifiers := append([]Notifier(nil), d.notifiers...)
	d.mu.RUnlock()

	var errs []error
	for _, n := range notifiers {
		if err := n.Notify(ctx, userID, event, message); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Name implements Notifier.
func (d *Dispatcher) Name() string {
	return "dispatcher"
}

// SentMessage is a message recorded by MockNotifier.
type SentMessage struct {
	UserID  string
	EventID string
	Message string
	SentAt  time.Time
}

// MockNotifier is a mock implementation of Notifier for testing.
type MockNotifier struct {
	SentMessages []SentMessage
	ShouldFail   bool
	mu           sync.Mutex
}

// NewMockNotifier creates a new MockNotifier.
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{
		SentMessages: make([]SentMessage, 0),
	}
}

// Notify records a sent message.
func (n *MockNotifier) Notify(_ context.Context, userID string, event *store.Event, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.ShouldFail {
		return fmt.Errorf("mock notifier failure")
	}

	n.SentMessages = append(n.SentMessages, SentMessage{
		UserID:  userID,
		EventID: event.ID,
		Message: message,
		SentAt:  time.Now(),
	})
	return nil
}

// Name implements Notifier.
func (n *MockNotifier) Name() string {
	return "mock"
}

// GetSentCount returns the number of messages sent.
func (n *MockNotifier) GetSentCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.SentMessages)
}

// Sent returns a copy of the recorded messages.
func (n *MockNotifier) Sent() []SentMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]SentMessage(nil), n.SentMessages...)
}

// SetFail toggles failure mode.
func (n *MockNotifier) SetFail(fail bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ShouldFail = fail
}
