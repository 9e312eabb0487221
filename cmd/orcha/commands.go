package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	engineerrors "github.com/hrygo/orcha/internal/errors"
	"github.com/hrygo/orcha/plugin/ai/aitime"
	"github.com/hrygo/orcha/server/service/schedule"
	"github.com/hrygo/orcha/server/timezone"
	"github.com/hrygo/orcha/store"
)

func newAddCmd() *cobra.Command {
	var reminder, dryRun bool
	cmd := &cobra.Command{
		Use:   "add <text>",
		Short: `Add an event from text, e.g. "remind me to call mom tomorrow at 3pm"`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(e *engine) error {
				planner := e.planner()
				text := strings.Join(args, " ")
				out := cmd.OutOrStdout()

				plan, err := planner.Plan(cmd.Context(), currentUser(), text, reminder)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s at %s", plan.Title, formatTime(plan.Timestamp))
				if plan.Reminder {
					fmt.Fprint(out, " (reminder)")
				}
				fmt.Fprintln(out)

				if plan.HasConflicts() {
					fmt.Fprintln(out, "Conflicts with:")
					printEvents(out, plan.Conflicts)
					if len(plan.Alternatives) > 0 {
						fmt.Fprintln(out, "Free instead:")
						printSlots(out, plan.Alternatives)
					}
				}
				if dryRun {
					return nil
				}

				event, err := planner.Commit(cmd.Context(), currentUser(), plan)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Added %s\n", event.ID)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&reminder, "reminder", false, "send a reminder before the event")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show the plan without storing it")
	return cmd
}

func newListCmd() *cobra.Command {
	var all bool
	var days int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List upcoming events",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEngine(cmd.Context(), func(e *engine) error {
				var events []*store.Event
				if all {
					events = e.service.ListEvents(currentUser())
				} else {
					if days <= 0 {
						days = viper.GetInt("upcoming-days")
					}
					events = e.service.UpcomingEvents(currentUser(), days)
				}
				if len(events) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No events.")
					return nil
				}
				printEvents(cmd.OutOrStdout(), events)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include past events")
	cmd.Flags().IntVar(&days, "days", 0, "horizon in days (defaults to --upcoming-days)")
	return cmd
}

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <event-id>",
		Short: "Remove an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(e *engine) error {
				if !e.service.RemoveEvent(cmd.Context(), currentUser(), args[0]) {
					return engineerrors.NotFound("event not found").WithContext("event_id", args[0])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
				return nil
			})
		},
	}
}

func newContextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "context",
		Short: "Print the prompt context for the user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEngine(cmd.Context(), func(e *engine) error {
				fmt.Fprintln(cmd.OutOrStdout(), e.contextBuilder().Build(currentUser()).Text)
				return nil
			})
		},
	}
}

func newParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <text>",
		Short: "Show which time the extractor finds in text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := timezone.ParseTimezone(viper.GetString("timezone"))
			if err != nil {
				return err
			}
			extractor := aitime.NewExtractor(aitime.WithClock(timezone.Clock(loc)))
			text := strings.Join(args, " ")
			out := cmd.OutOrStdout()

			match, err := extractor.Resolve(text)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "rule:  %s\n", match.Rule)
			fmt.Fprintf(out, "time:  %s\n", formatTime(match.Time))
			if merged, err := aitime.ResolveDateTime(extractor, text); err == nil && !merged.Time.Equal(match.Time) {
				fmt.Fprintf(out, "merged: %s\n", formatTime(merged.Time))
			}
			return nil
		},
	}
}

func newConflictsCmd() *cobra.Command {
	var duration int
	cmd := &cobra.Command{
		Use:   "conflicts <time text>",
		Short: `List events overlapping a proposed time, e.g. "tomorrow at 3pm"`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(e *engine) error {
				ts, err := resolveText(e.extractor, strings.Join(args, " "))
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				conflicts := e.service.CheckConflicts(currentUser(), ts, duration)
				if len(conflicts) == 0 {
					fmt.Fprintf(out, "%s is free.\n", formatTime(ts))
					return nil
				}
				printEvents(out, conflicts)
				if alts := e.service.SuggestAlternatives(currentUser(), ts, duration); len(alts) > 0 {
					fmt.Fprintln(out, "Free instead:")
					printSlots(out, alts)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&duration, "duration", 60, "proposed duration in minutes")
	return cmd
}

func newFreeCmd() *cobra.Command {
	var duration time.Duration
	cmd := &cobra.Command{
		Use:   "free [date text]",
		Short: "Find free slots on a day (today by default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(e *engine) error {
				day := e.now()
				if len(args) > 0 {
					ts, err := resolveText(e.extractor, strings.Join(args, " "))
					if err != nil {
						return err
					}
					day = ts
				}
				slots := e.service.FindFreeSlots(currentUser(), day, duration)
				if len(slots) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No free slots.")
					return nil
				}
				printSlots(cmd.OutOrStdout(), slots)
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&duration, "duration", time.Hour, "minimum slot length")
	return cmd
}

// resolveText extracts a time, merging a separately stated clock into dates.
func resolveText(extractor aitime.TimeExtractor, text string) (time.Time, error) {
	m, err := aitime.ResolveDateTime(extractor, text)
	if err != nil {
		return time.Time{}, engineerrors.ParseFailure("no time found").WithContext("text", text)
	}
	return m.Time, nil
}

func printEvents(w io.Writer, events []*store.Event) {
	for _, e := range events {
		flag := " "
		if e.Reminder {
			flag = "*"
		}
		fmt.Fprintf(w, "%s %s  %s  [%s]\n", flag, formatTime(e.Timestamp), e.Title, e.ID)
	}
}

func printSlots(w io.Writer, slots []schedule.TimeSlot) {
	for _, s := range slots {
		fmt.Fprintf(w, "  %s\n", s.Reason)
	}
}
