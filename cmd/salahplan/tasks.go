package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/salahplan/internal/aiparse"
	"github.com/sandeepkv93/salahplan/internal/model"
	"github.com/sandeepkv93/salahplan/internal/planner"
	"github.com/sandeepkv93/salahplan/internal/timerange"
)

// requestSlack is added to the HTTP timeout for one CLI invocation.
const requestSlack = 5 * time.Second

func dateOrToday(date string, now time.Time) (string, error) {
	if date == "" {
		return model.DateKey(now), nil
	}
	if _, err := model.ParseDate(date, now.Location()); err != nil {
		return "", fmt.Errorf("invalid date %q: %w", date, err)
	}
	return date, nil
}

func tasksOn(s planner.State, date string) []model.Task {
	var out []model.Task
	for _, t := range s.Tasks {
		if t.On(date) {
			out = append(out, t)
		}
	}
	return out
}

// pick resolves a 1-based row of the day's list.
func pick(tasks []model.Task, arg string) (model.Task, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(tasks) {
		return model.Task{}, fmt.Errorf("no task %s on this day", arg)
	}
	return tasks[n-1], nil
}

func printTasks(w io.Writer, tasks []model.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "no tasks")
		return
	}
	for i, t := range tasks {
		check := " "
		if t.Status == model.StatusDone {
			check = "x"
		}
		fmt.Fprintf(w, "%d. [%s] %-24s %-20s %s\n", i+1, check, t.Title, t.Time.String(), t.Category)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func todayCmd(opts *rootOptions) *cobra.Command {
	var date string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "today",
		Short: "List the tasks of a day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				s, err := a.rt.Settle(ctx)
				if err != nil {
					return err
				}
				day, err := dateOrToday(date, a.rt.Now())
				if err != nil {
					return err
				}
				tasks := tasksOn(s, day)
				if asJSON {
					if tasks == nil {
						tasks = []model.Task{}
					}
					return printJSON(cmd.OutOrStdout(), tasks)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n", day)
				printTasks(cmd.OutOrStdout(), tasks)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to list (YYYY-MM-DD), default today")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print tasks as JSON")
	return cmd
}

func addCmd(opts *rootOptions) *cobra.Command {
	var (
		at, category, date, repeat string
		reminder                   int
	)
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := planner.TaskInput{
				Title:    strings.Join(args, " "),
				Date:     date,
				Time:     timerange.ParseWindow(at),
				Reminder: reminder,
			}
			if category != "" {
				c, ok := model.ParseCategory(category)
				if !ok {
					return fmt.Errorf("%w: %q", model.ErrInvalidCategory, category)
				}
				in.Category = c
			}
			if repeat != "" {
				f, ok := model.ParseFrequency(repeat)
				if !ok {
					return fmt.Errorf("unknown repeat %q, want daily, weekly or monthly", repeat)
				}
				in.Recurrence = &model.Recurrence{Frequency: f}
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				return saveAndReport(ctx, cmd.OutOrStdout(), a, in)
			})
		},
	}
	cmd.Flags().StringVar(&at, "time", "", `time or range, e.g. "09:00 AM" or "09:00 AM – 10:00 AM"`)
	cmd.Flags().StringVar(&category, "category", "", "task category")
	cmd.Flags().StringVar(&date, "date", "", "day of the task (YYYY-MM-DD), default today")
	cmd.Flags().StringVar(&repeat, "repeat", "", "recurrence: daily, weekly, monthly")
	cmd.Flags().IntVar(&reminder, "reminder", 0, "minutes before start to remind")
	return cmd
}

// saveAndReport waits for today's prayer tasks so the save is checked
// against them.
func saveAndReport(ctx context.Context, w io.Writer, a *app, in planner.TaskInput) error {
	if _, err := a.rt.Settle(ctx); err != nil {
		return err
	}
	var saved model.Task
	_, err := a.rt.Do(ctx, func(s planner.State, now time.Time) (planner.State, error) {
		next, task, err := s.SaveTask(in, now)
		saved = task
		return next, err
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "added %s %q (%s) on %s\n", saved.ID, saved.Title, saved.Time.String(), saved.Date)
	return nil
}

func aiCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ai <request>",
		Short: "Add a task described in plain language",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				if a.parser == nil {
					return errors.New("ai assistant is not configured, set SALAHPLAN_GEMINI_API_KEY")
				}
				draft, err := aiparse.ParseTask(ctx, a.parser, strings.Join(args, " "))
				if err != nil {
					return err
				}
				return saveAndReport(ctx, cmd.OutOrStdout(), a, planner.FromDraft(draft))
			})
		},
	}
}

// taskCmd builds a command acting on one row of a day's list.
func taskCmd(opts *rootOptions, use, short string, act func(ctx context.Context, a *app, t model.Task) (string, error)) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   use + " <n>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				s, err := a.rt.Settle(ctx)
				if err != nil {
					return err
				}
				day, err := dateOrToday(date, a.rt.Now())
				if err != nil {
					return err
				}
				t, err := pick(tasksOn(s, day), args[0])
				if err != nil {
					return err
				}
				msg, err := act(ctx, a, t)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), msg)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day of the list (YYYY-MM-DD), default today")
	return cmd
}

func toggleCmd(opts *rootOptions) *cobra.Command {
	return taskCmd(opts, "toggle", "Flip a task between pending and done", func(ctx context.Context, a *app, t model.Task) (string, error) {
		s, err := a.rt.Do(ctx, func(s planner.State, now time.Time) (planner.State, error) {
			return s.ToggleTask(t.ID, t.Date, now)
		})
		if err != nil {
			return "", err
		}
		updated, _ := s.Find(t.ID, t.Date)
		return fmt.Sprintf("%s: %s", updated.Title, updated.Status), nil
	})
}

func deleteCmd(opts *rootOptions) *cobra.Command {
	return taskCmd(opts, "delete", "Delete a task", func(ctx context.Context, a *app, t model.Task) (string, error) {
		_, err := a.rt.Do(ctx, func(s planner.State, _ time.Time) (planner.State, error) {
			return s.DeleteTask(t.ID, t.Date)
		})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("deleted %s", t.Title), nil
	})
}

func repeatCmd(opts *rootOptions) *cobra.Command {
	return taskCmd(opts, "repeat", "Copy a task to the next day", func(ctx context.Context, a *app, t model.Task) (string, error) {
		var copied model.Task
		_, err := a.rt.Do(ctx, func(s planner.State, now time.Time) (planner.State, error) {
			next, task, err := s.RepeatTomorrow(t.ID, t.Date, now)
			copied = task
			return next, err
		})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("repeated %s on %s", copied.Title, copied.Date), nil
	})
}
