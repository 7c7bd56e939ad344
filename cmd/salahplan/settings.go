package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/salahplan/internal/analytics"
	"github.com/sandeepkv93/salahplan/internal/model"
	"github.com/sandeepkv93/salahplan/internal/planner"
	"github.com/sandeepkv93/salahplan/internal/quran"
	"github.com/sandeepkv93/salahplan/internal/timerange"
)

func parseSwitch(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "yes":
		return true, nil
	case "off", "false", "no":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", s)
}

func printPrayerTimes(w io.Writer, s planner.State) {
	ps := s.PrayerSettings
	source := "manual"
	if ps.AutoFetch {
		source = "auto"
	}
	fmt.Fprintf(w, "%s, %s (%s)\n", ps.City, ps.Country, source)
	if s.PrayerTimes == nil {
		fmt.Fprintln(w, "no prayer times for today")
		return
	}
	for _, name := range model.PrayerNames {
		fmt.Fprintf(w, "%-8s %s\n", name, s.PrayerTimes.Get(name))
	}
}

func prayerCmd(opts *rootOptions) *cobra.Command {
	var (
		city, country, juristic, latitude string
		auto, alerts, weekly              string
	)
	cmd := &cobra.Command{
		Use:   "prayer",
		Short: "Show today's prayer times or change prayer settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			update := func(ps *model.PrayerSettings) error {
				if city != "" {
					ps.City = city
				}
				if country != "" {
					ps.Country = country
				}
				if juristic != "" {
					ps.Juristic = model.Juristic(juristic)
				}
				if latitude != "" {
					ps.HighLatitudeMethod = model.HighLatitudeMethod(latitude)
				}
				for _, f := range []struct {
					raw string
					dst *bool
				}{{auto, &ps.AutoFetch}, {alerts, &ps.Notifications}, {weekly, &ps.RepeatWeekly}} {
					if f.raw == "" {
						continue
					}
					v, err := parseSwitch(f.raw)
					if err != nil {
						return err
					}
					*f.dst = v
				}
				return nil
			}
			changed := false
			for _, name := range []string{"city", "country", "juristic", "latitude", "auto", "alerts", "weekly"} {
				changed = changed || cmd.Flags().Changed(name)
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				if changed {
					_, err := a.rt.Do(ctx, func(s planner.State, _ time.Time) (planner.State, error) {
						ps := s.PrayerSettings
						if err := update(&ps); err != nil {
							return s, err
						}
						return s.SetPrayerSettings(ps)
					})
					if err != nil {
						return err
					}
				}
				s, err := a.rt.Settle(ctx)
				if err != nil {
					return err
				}
				printPrayerTimes(cmd.OutOrStdout(), s)
				return nil
			})
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&city, "city", "", "city used for fetched times")
	fs.StringVar(&country, "country", "", "country used for fetched times")
	fs.StringVar(&juristic, "juristic", "", "Asr method: Standard or Hanafi")
	fs.StringVar(&latitude, "latitude", "", "high latitude method: AngleBased, MiddleOfTheNight, OneSeventh")
	fs.StringVar(&auto, "auto", "", "fetch times automatically: on or off")
	fs.StringVar(&alerts, "alerts", "", "prayer notifications: on or off")
	fs.StringVar(&weekly, "weekly", "", "reuse the Monday manual slot every day: on or off")
	cmd.AddCommand(prayerManualCmd(opts))
	return cmd
}

func prayerManualCmd(opts *rootOptions) *cobra.Command {
	var day string
	cmd := &cobra.Command{
		Use:   "manual <prayer> <time>",
		Short: "Set a manual prayer time for a weekday",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			for _, n := range model.PrayerNames {
				if strings.EqualFold(n, args[0]) {
					name = n
				}
			}
			if name == "" {
				return fmt.Errorf("unknown prayer %q", args[0])
			}
			at, ok := timerange.ParseClock(args[1])
			if !ok {
				return fmt.Errorf("invalid time %q", args[1])
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				weekday := day
				if weekday == "" {
					weekday = a.rt.Now().Weekday().String()
				}
				valid := false
				for d := time.Sunday; d <= time.Saturday; d++ {
					if strings.EqualFold(d.String(), weekday) {
						weekday, valid = d.String(), true
					}
				}
				if !valid {
					return fmt.Errorf("unknown weekday %q", day)
				}
				_, err := a.rt.Do(ctx, func(s planner.State, _ time.Time) (planner.State, error) {
					ps := s.PrayerSettings
					manual := make(map[string]model.PrayerTimes, len(ps.ManualTimes)+1)
					for k, v := range ps.ManualTimes {
						manual[k] = v
					}
					slot := manual[weekday]
					slot.Set(name, at.String())
					manual[weekday] = slot
					ps.ManualTimes = manual
					return s.SetPrayerSettings(ps)
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s on %s\n", name, at.String(), weekday)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&day, "day", "", "weekday of the slot, default today")
	return cmd
}

func healthCmd(opts *rootOptions) *cobra.Command {
	var start, end string
	cmd := &cobra.Command{
		Use:   "health [habit on|off]",
		Short: "Show or change the daily health habits",
		Args:  cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return fmt.Errorf("expected a habit and on or off")
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				if len(args) == 2 {
					habit := model.Habit(strings.ToLower(args[0]))
					if _, ok := model.HabitTitles[habit]; !ok {
						return fmt.Errorf("unknown habit %q", args[0])
					}
					enabled, err := parseSwitch(args[1])
					if err != nil {
						return err
					}
					_, err = a.rt.Do(ctx, func(s planner.State, now time.Time) (planner.State, error) {
						h := s.HealthSettings
						hs := h.Habit(habit)
						hs.Enabled = enabled
						if start != "" {
							hs.StartTime = start
						}
						if end != "" {
							hs.EndTime = end
						}
						if _, err := hs.Window(); err != nil {
							return s, err
						}
						h.SetHabit(habit, hs)
						return s.SaveHealthSettings(h, now), nil
					})
					if err != nil {
						return err
					}
				}
				s, err := a.rt.Snapshot(ctx)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				for _, habit := range model.Habits {
					hs := s.HealthSettings.Habit(habit)
					state := "off"
					if hs.Enabled {
						state = "on"
					}
					fmt.Fprintf(w, "%-8s %-3s %s – %s\n", habit, state, hs.StartTime, hs.EndTime)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "start time, 24-hour HH:MM")
	cmd.Flags().StringVar(&end, "end", "", "end time, 24-hour HH:MM")
	return cmd
}

func quranCmd(opts *rootOptions) *cobra.Command {
	var minutes int
	cmd := &cobra.Command{
		Use:   "quran [on|off]",
		Short: "Show recitation progress or change the pre-Fajr recitation",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if minutes < 0 {
				return fmt.Errorf("minutes must be positive")
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				if len(args) == 1 {
					enabled, err := parseSwitch(args[0])
					if err != nil {
						return err
					}
					_, err = a.rt.Do(ctx, func(s planner.State, now time.Time) (planner.State, error) {
						d := minutes
						if d == 0 {
							d = s.HealthSettings.QuranRecitation.Duration
						}
						return s.SetQuranSettings(enabled, d, now), nil
					})
					if err != nil {
						return err
					}
				}
				s, err := a.rt.Settle(ctx)
				if err != nil {
					return err
				}
				q := s.HealthSettings.QuranRecitation
				state := "off"
				if q.Enabled {
					state = "on"
				}
				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "recitation %s, %d minutes before Fajr\n", state, q.Duration)
				fmt.Fprintf(w, "progress %d/%d days (%.0f%%)\n", quran.CompletedDays(q.CompletionHistory), quran.Goal, quran.Ratio(q.CompletionHistory)*100)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&minutes, "minutes", 0, "recitation length in minutes")
	return cmd
}

func themeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "theme [light|dark|high-contrast]",
		Short: "Show or set the theme",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				var (
					s   planner.State
					err error
				)
				if len(args) == 1 {
					s, err = a.rt.Do(ctx, func(s planner.State, _ time.Time) (planner.State, error) {
						return s.SetTheme(model.Theme(strings.ToLower(args[0])))
					})
				} else {
					s, err = a.rt.Snapshot(ctx)
				}
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), s.Theme)
				return nil
			})
		},
	}
}

func notificationsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "List notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				s, err := a.rt.Snapshot(ctx)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				if len(s.Notifications) == 0 {
					fmt.Fprintln(w, "no notifications")
					return nil
				}
				for _, n := range s.Notifications {
					mark := " "
					if !n.Read {
						mark = "*"
					}
					fmt.Fprintf(w, "%s %s  %s: %s\n", mark, n.Time().Format("Jan 2 03:04 PM"), n.Title, n.Body)
				}
				return nil
			})
		},
	}
	simple := func(use, short, done string, fn func(planner.State) planner.State) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(cmd, opts, func(ctx context.Context, a *app) error {
					_, err := a.rt.Do(ctx, func(s planner.State, _ time.Time) (planner.State, error) {
						return fn(s), nil
					})
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), done)
					return nil
				})
			},
		}
	}
	cmd.AddCommand(simple("read", "Mark all notifications read", "notifications marked read", planner.State.MarkNotificationsRead))
	cmd.AddCommand(simple("clear", "Remove all notifications", "notifications cleared", planner.State.ClearNotifications))
	return cmd
}

func statsCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize completed and pending tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				s, err := a.rt.Settle(ctx)
				if err != nil {
					return err
				}
				sum := analytics.Summarize(s.Tasks, a.rt.Now())
				w := cmd.OutOrStdout()
				if asJSON {
					return printJSON(w, sum)
				}
				fmt.Fprintf(w, "total %d, done %d, pending %d\n", sum.Total, sum.Done, sum.Pending)
				for _, c := range sum.Categories {
					fmt.Fprintf(w, "  %-9s %d\n", c.Category, c.Count)
				}
				if sum.MostFrequent != "" {
					fmt.Fprintf(w, "most frequent: %s\n", sum.MostFrequent)
				}
				for _, d := range sum.Week {
					fmt.Fprintf(w, "  %s %s %d done\n", d.Day, d.Date, d.Count)
				}
				fmt.Fprintf(w, "committed today: %dh %dm\n", sum.Committed.Hours(), sum.Committed.Remainder())
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")
	return cmd
}
