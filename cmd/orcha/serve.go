package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/hrygo/orcha/plugin/ai/reminder"
)

// statsInterval is how often the daemon logs delivery statistics.
const statsInterval = time.Hour

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the reminder daemon until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return withEngine(ctx, func(e *engine) error {
				return serve(ctx, e)
			})
		},
	}

	cmd.Flags().String("webhook-url", "", "post reminders to this URL as JSON")
	cmd.Flags().String("webhook-secret", "", "value of the X-Webhook-Secret header")
	_ = viper.BindPFlag("webhook-url", cmd.Flags().Lookup("webhook-url"))
	_ = viper.BindPFlag("webhook-secret", cmd.Flags().Lookup("webhook-secret"))
	return cmd
}

func serve(ctx context.Context, e *engine) error {
	dispatcher := reminder.NewDispatcher(reminder.NewLogNotifier(e.logger))
	if url := viper.GetString("webhook-url"); url != "" {
		dispatcher.Register(reminder.NewWebhookNotifier(reminder.WebhookConfig{
			URL:    url,
			Secret: viper.GetString("webhook-secret"),
		}))
	}

	genOpts := []reminder.GeneratorOption{
		reminder.WithUpcoming(e.service),
		reminder.WithTurns(e.turns),
		reminder.WithGeneratorClock(e.now),
	}
	if e.llm != nil {
		genOpts = append(genOpts, reminder.WithLLM(e.llm, e.limiter))
	}

	scheduler := reminder.NewScheduler(e.service, reminder.NewMessageGenerator(genOpts...), dispatcher, reminder.SchedulerConfig{
		Interval:      e.profile.ReminderInterval,
		PruneInterval: 24 * time.Hour,
		PruneDays:     e.profile.PruneDays,
	})
	scheduler.SetLogger(e.logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := scheduler.Start(gctx); err != nil {
			return err
		}
		<-gctx.Done()
		scheduler.Stop()
		return nil
	})
	g.Go(func() error {
		ticker := time.NewTicker(statsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				stats := scheduler.Stats()
				e.logger.Info("reminder stats",
					"delivered", stats.TotalDelivered,
					"failed", stats.TotalFailed,
					"cycles", stats.Cycles,
					"users", len(e.service.Users()),
				)
			}
		}
	})

	e.logger.Info("orcha is up",
		"version", e.profile.Version,
		"mode", e.profile.Mode,
		"driver", e.profile.Driver,
		"users", len(e.service.Users()),
	)
	return g.Wait()
}
