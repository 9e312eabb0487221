package reminder

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/lithammer/shortuuid/v4"

	"github.com/hrygo/orcha/server/service/schedule"
)

// DueSource is the part of the schedule service the scheduler drives.
type DueSource interface {
	DueReminders(ctx context.Context) []schedule.DueReminder
	Prune(ctx context.Context, maxAgeDays int) int
}

// Scheduler runs background tasks for processing due reminders.
type Scheduler struct {
	source        DueSource
	generator     *MessageGenerator
	notifier      Notifier
	interval      time.Duration
	pruneInterval time.Duration
	pruneDays     int
	lastPrune     time.Time
	now           func() time.Time
	running       bool
	stopCh        chan struct{}
	wg            sync.WaitGroup
	mu            sync.Mutex
	logger        *slog.Logger
	metrics       *MetricsCollector
	processedChan chan int // For testing: reports processed count
}

// SchedulerConfig holds configuration for the scheduler.
type SchedulerConfig struct {
	Interval      time.Duration // How often to check for due reminders
	PruneInterval time.Duration // How often to prune old events; 0 disables pruning
	PruneDays     int           // Age cutoff for pruning
}

// DefaultSchedulerConfig returns default scheduler configuration.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Interval:      time.Minute,
		PruneInterval: 24 * time.Hour,
		PruneDays:     schedule.DefaultPruneDays,
	}
}

// NewScheduler creates a new reminder scheduler.
// A nil generator uses the template message; a nil notifier logs reminders.
func NewScheduler(source DueSource, generator *MessageGenerator, notifier Notifier, config SchedulerConfig) *Scheduler {
	if config.Interval <= 0 {
		config.Interval = time.Minute
	}
	if config.PruneDays <= 0 {
		config.PruneDays = schedule.DefaultPruneDays
	}
	if generator == nil {
		generator = NewMessageGenerator()
	}
	if notifier == nil {
		notifier = NewLogNotifier(nil)
	}

	return &Scheduler{
		source:        source,
		generator:     generator,
		notifier:      notifier,
		interval:      config.Interval,
		pruneInterval: config.PruneInterval,
		pruneDays:     config.PruneDays,
		now:           time.Now,
		stopCh:        make(chan struct{}),
		logger:        slog.Default(),
		metrics:       NewMetricsCollector(),
	}
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	s.wg.Add(1)
	go s.run(ctx)

	s.logger.Info("reminder scheduler started", "interval", s.interval, "prune_interval", s.pruneInterval)
	return nil
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("reminder scheduler stopped")
}

// IsRunning returns whether the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// SetLogger sets a custom logger.
func (s *Scheduler) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// Stats returns delivery statistics.
func (s *Scheduler) Stats() Stats {
	return s.metrics.GetStats()
}

// EnableTestMode enables test mode with a channel for processed counts.
func (s *Scheduler) EnableTestMode() <-chan int {
	s.processedChan = make(chan int, 100)
	return s.processedChan
}

// run is the main scheduler loop.
func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Process immediately on start
	s.processCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler context cancelled")
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.processCycle(ctx)
		}
	}
}

// processCycle runs one cycle of reminder processing.
func (s *Scheduler) processCycle(ctx context.Context) {
	processed, err := s.RunOnce(ctx)
	if err != nil {
		s.logger.Error("failed to deliver some reminders", "error", err)
	}

	s.maybePrune(ctx)

	// Report to test channel if enabled
	if s.processedChan != nil {
		select {
		case s.processedChan <- processed:
		default:
			// Don't block if channel is full
		}
	}
}

// RunOnce collects due reminders and delivers them once. It returns how many
// were delivered. A reminder whose delivery fails is not retried: the sweep
// has already marked it as reminded.
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	cycleID := shortuuid.New()
	logger := s.logger.With("cycle_id", cycleID)
	start := time.Now()

	due := s.source.DueReminders(ctx)

	delivered := 0
	var errs []error
	for _, d := range due {
		select {
		case <-ctx.Done():
			errs = append(errs, ctx.Err())
			s.metrics.Record(delivered, len(due)-delivered)
			return delivered, errors.Join(errs...)
		default:
		}

		message := s.generator.Generate(ctx, d.UserID, d.Event)
		if err := s.notifier.Notify(ctx, d.UserID, d.Event, message); err != nil {
			logger.Warn("failed to deliver reminder",
				"user_id", d.UserID,
				"event_id", d.Event.ID,
				"notifier", s.notifier.Name(),
				"error", err,
			)
			errs = append(errs, err)
			continue
		}
		delivered++
	}

	s.metrics.Record(delivered, len(errs))
	if len(due) > 0 {
		logger.Info("processed due reminders",
			"due", len(due),
			"delivered", delivered,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
	return delivered, errors.Join(errs...)
}

func (s *Scheduler) maybePrune(ctx context.Context) {
	if s.pruneInterval <= 0 {
		return
	}
	now := s.now()
	if !s.lastPrune.IsZero() && now.Sub(s.lastPrune) < s.pruneInterval {
		return
	}
	s.lastPrune = now
	if removed := s.source.Prune(ctx, s.pruneDays); removed > 0 {
		s.logger.Info("pruned old events", "removed", removed, "max_age_days", s.pruneDays)
	}
}

// Stats holds scheduler statistics.
type Stats struct {
	TotalDelivered int64     `json:"total_delivered"`
	TotalFailed    int64     `json:"total_failed"`
	Cycles         int64     `json:"cycles"`
	LastRunAt      time.Time `json:"last_run_at"`
}

// MetricsCollector collects scheduler metrics.
type MetricsCollector struct {
	stats Stats
	mu    sync.RWMutex
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{}
}

// Record records the outcome of one cycle.
func (m *MetricsCollector) Record(delivered, failed int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.TotalDelivered += int64(delivered)
	m.stats.TotalFailed += int64(failed)
	m.stats.Cycles++
	m.stats.LastRunAt = time.Now()
}

// GetStats returns current statistics.
func (m *MetricsCollector) GetStats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stats
}
