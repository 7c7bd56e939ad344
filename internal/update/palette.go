package update

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/salahplan/internal/commands"
	"github.com/sandeepkv93/salahplan/internal/model"
	"github.com/sandeepkv93/salahplan/internal/planner"
	"github.com/sandeepkv93/salahplan/internal/timerange"
)

func (m Model) handlePaletteKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closePalette()
		m.Status = StatusBar{Text: "command palette closed"}
	case "enter":
		m.Palette.Input = m.commandInput.Value()
		return m.executePaletteCommand()
	default:
		if msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace {
			m.commandInput.SetValue(m.commandInput.Value() + string(msg.Runes))
			m.Palette.Input = m.commandInput.Value()
			return m, nil
		}
		var cmd tea.Cmd
		m.commandInput, cmd = m.commandInput.Update(msg)
		m.Palette.Input = m.commandInput.Value()
		return m, cmd
	}
	return m, nil
}

func (m *Model) closePalette() {
	m.Palette.Active = false
	m.Palette.Input = ""
	m.commandInput.SetValue("")
	m.commandInput.Blur()
}

func invalidArg(format string, args ...any) error {
	return &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// taskAt resolves a 1-based row of today's list.
func (m Model) taskAt(index int) (model.Task, error) {
	tasks := m.today()
	if index < 1 || index > len(tasks) {
		return model.Task{}, invalidArg("no task %d today", index)
	}
	return tasks[index-1], nil
}

func (m Model) executePaletteCommand() (Model, tea.Cmd) {
	raw := strings.TrimSpace(m.Palette.Input)
	m.closePalette()
	cmd, err := commands.Parse(raw)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}

	var follow tea.Cmd
	res, err := commands.Execute(cmd, commands.Handlers{
		Add: func(a commands.AddArgs) (commands.Result, error) {
			follow = m.saveTask(fmt.Sprintf("added %s", a.Title), planner.TaskInput{
				Title:    a.Title,
				Category: a.Category,
				Time:     timerange.ParseWindow(a.Time),
				Reminder: a.Reminder,
			})
			return commands.Result{Message: "adding " + a.Title}, nil
		},
		Done: func(a commands.IndexArgs) (commands.Result, error) {
			t, err := m.taskAt(a.Index)
			if err != nil {
				return commands.Result{}, err
			}
			follow = m.act(fmt.Sprintf("%s done", t.Title), func(s planner.State, now time.Time) (planner.State, error) {
				return s.SetTaskStatus(t.ID, t.Date, model.StatusDone, now)
			})
			return commands.Result{Message: "completing " + t.Title}, nil
		},
		Repeat: func(a commands.IndexArgs) (commands.Result, error) {
			t, err := m.taskAt(a.Index)
			if err != nil {
				return commands.Result{}, err
			}
			follow = m.act(fmt.Sprintf("repeated %s tomorrow", t.Title), func(s planner.State, now time.Time) (planner.State, error) {
				next, _, err := s.RepeatTomorrow(t.ID, t.Date, now)
				return next, err
			})
			return commands.Result{Message: "repeating " + t.Title}, nil
		},
		Delete: func(a commands.IndexArgs) (commands.Result, error) {
			t, err := m.taskAt(a.Index)
			if err != nil {
				return commands.Result{}, err
			}
			follow = m.act(fmt.Sprintf("deleted %s", t.Title), func(s planner.State, _ time.Time) (planner.State, error) {
				return s.DeleteTask(t.ID, t.Date)
			})
			return commands.Result{Message: "deleting " + t.Title}, nil
		},
		Theme: func(a commands.ThemeArgs) (commands.Result, error) {
			follow = m.act(fmt.Sprintf("theme: %s", a.Theme), func(s planner.State, _ time.Time) (planner.State, error) {
				return s.SetTheme(a.Theme)
			})
			return commands.Result{Message: "switching theme"}, nil
		},
		Clear: func() (commands.Result, error) {
			follow = m.act("notifications cleared", wrap(planner.State.ClearNotifications))
			return commands.Result{Message: "clearing notifications"}, nil
		},
		AI: func(a commands.AIArgs) (commands.Result, error) {
			if m.parser == nil {
				return commands.Result{}, invalidArg("ai assistant is not configured")
			}
			follow = m.aiAddCmd(a.Prompt)
			return commands.Result{Message: "asking the assistant..."}, nil
		},
		Health: func(a commands.HealthArgs) (commands.Result, error) {
			if a.Start != "" {
				if _, err := (model.HabitSetting{StartTime: a.Start, EndTime: a.End}).Window(); err != nil {
					return commands.Result{}, invalidArg("%v", err)
				}
			}
			follow = m.act(fmt.Sprintf("%s updated", a.Habit), func(s planner.State, now time.Time) (planner.State, error) {
				h := s.HealthSettings
				hs := h.Habit(a.Habit)
				hs.Enabled = a.Enabled
				if a.Start != "" {
					hs.StartTime, hs.EndTime = a.Start, a.End
				}
				h.SetHabit(a.Habit, hs)
				return s.SaveHealthSettings(h, now), nil
			})
			return commands.Result{Message: "updating " + string(a.Habit)}, nil
		},
		Quran: func(a commands.QuranArgs) (commands.Result, error) {
			follow = m.act("quran recitation updated", func(s planner.State, now time.Time) (planner.State, error) {
				minutes := a.Minutes
				if minutes == 0 {
					minutes = s.HealthSettings.QuranRecitation.Duration
				}
				return s.SetQuranSettings(a.Enabled, minutes, now), nil
			})
			return commands.Result{Message: "updating quran recitation"}, nil
		},
		City: func(a commands.CityArgs) (commands.Result, error) {
			follow = m.updatePrayerSettings(fmt.Sprintf("location: %s, %s", a.City, a.Country), func(s *model.PrayerSettings) {
				s.City, s.Country = a.City, a.Country
				s.AutoFetch = true
			})
			return commands.Result{Message: "changing location"}, nil
		},
	})
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}
	m.Status = StatusBar{Text: res.Message}
	return m, follow
}
