package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/orcha/internal/profile"
)

// version is set at build time.
var version = "dev"

var (
	rootCmd = &cobra.Command{
		Use:           "orcha",
		Short:         "A temporal assistant engine: natural-language times, per-user calendars and reminders.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	viper.SetDefault("mode", "demo")
	viper.SetDefault("driver", "file")
	viper.SetDefault("user", "local")
	viper.SetDefault("log-level", "info")
	viper.SetDefault("log-format", "text")
	viper.SetDefault("reminder-interval", profile.DefaultReminderInterval)
	viper.SetDefault("reminder-lookahead", profile.DefaultReminderLookahead)
	viper.SetDefault("prune-days", profile.DefaultPruneDays)
	viper.SetDefault("upcoming-days", profile.DefaultUpcomingDays)

	flags := rootCmd.PersistentFlags()
	flags.String("mode", "demo", `mode of the engine, can be "prod" or "dev" or "demo"`)
	flags.String("data", "", "data directory")
	flags.String("driver", "file", "calendar storage driver: file, sqlite, postgres or memory")
	flags.String("dsn", "", "database source name (or calendar directory for the file driver)")
	flags.String("user", "local", "user id the command acts for")
	flags.String("log-level", "info", "log level: debug, info, warn or error")
	flags.String("log-format", "text", "log format: text or json")
	flags.Duration("reminder-interval", profile.DefaultReminderInterval, "how often due reminders are swept")
	flags.Duration("reminder-lookahead", profile.DefaultReminderLookahead, "how far ahead of an event its reminder fires")
	flags.Int("prune-days", profile.DefaultPruneDays, "age in days after which events are pruned")
	flags.Int("upcoming-days", profile.DefaultUpcomingDays, "default horizon for upcoming events")
	flags.String("timezone", "", "IANA zone of the reference clock (default: host local)")

	for _, name := range []string{
		"mode", "data", "driver", "dsn", "user", "log-level", "log-format",
		"reminder-interval", "reminder-lookahead", "prune-days", "upcoming-days", "timezone",
	} {
		if err := viper.BindPFlag(name, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("orcha")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(
		newServeCmd(),
		newAddCmd(),
		newListCmd(),
		newRemoveCmd(),
		newContextCmd(),
		newParseCmd(),
		newConflictsCmd(),
		newFreeCmd(),
	)
}

// loadProfile builds the profile from flags, ORCHA_* variables and defaults.
func loadProfile() (*profile.Profile, error) {
	p := &profile.Profile{
		Mode:              viper.GetString("mode"),
		Data:              viper.GetString("data"),
		Driver:            viper.GetString("driver"),
		DSN:               viper.GetString("dsn"),
		Version:           version,
		LogLevel:          viper.GetString("log-level"),
		LogFormat:         viper.GetString("log-format"),
		ReminderInterval:  viper.GetDuration("reminder-interval"),
		ReminderLookahead: viper.GetDuration("reminder-lookahead"),
		PruneDays:         viper.GetInt("prune-days"),
		UpcomingDays:      viper.GetInt("upcoming-days"),
		Timezone:          viper.GetString("timezone"),
	}
	p.FromEnv()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func currentUser() string {
	return viper.GetString("user")
}

func formatTime(t time.Time) string {
	return t.Format("Mon Jan 2 2006 03:04 PM")
}

func main() {
	// A missing .env is fine; variables may come from the environment.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
