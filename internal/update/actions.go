package update

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/salahplan/internal/aiparse"
	"github.com/sandeepkv93/salahplan/internal/model"
	"github.com/sandeepkv93/salahplan/internal/planner"
)

func loadStateCmd(p Planner) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		st, err := p.Snapshot(ctx)
		if err != nil {
			return AppErrorMsg{Err: err}
		}
		return StateMsg{State: st, Now: p.Now()}
	}
}

func waitForChangeCmd(ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return ChangedMsg{}
	}
}

func clockTickCmd() tea.Cmd {
	return tea.Tick(clockInterval, func(t time.Time) tea.Msg { return ClockTickMsg{At: t} })
}

// act runs fn on the planner and reports text on success.
func (m Model) act(text string, fn planner.Transition) tea.Cmd {
	p := m.planner
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		st, err := p.Do(ctx, fn)
		return ActionMsg{Text: text, State: st, Err: err}
	}
}

// wrap lifts a transition that cannot fail.
func wrap(fn func(planner.State) planner.State) planner.Transition {
	return func(s planner.State, _ time.Time) (planner.State, error) {
		return fn(s), nil
	}
}

func (m Model) saveTask(text string, in planner.TaskInput) tea.Cmd {
	return m.act(text, func(s planner.State, now time.Time) (planner.State, error) {
		next, _, err := s.SaveTask(in, now)
		return next, err
	})
}

// aiAddCmd asks the parser for a task and saves whatever comes back.
func (m Model) aiAddCmd(prompt string) tea.Cmd {
	p, parser := m.planner, m.parser
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), aiTimeout)
		defer cancel()
		draft, err := aiparse.ParseTask(ctx, parser, prompt)
		if err != nil {
			return ActionMsg{Err: err}
		}
		st, err := p.Do(ctx, func(s planner.State, now time.Time) (planner.State, error) {
			next, _, err := s.SaveTask(planner.FromDraft(draft), now)
			return next, err
		})
		return ActionMsg{Text: fmt.Sprintf("added %q at %s", draft.Title, draft.Time), State: st, Err: err}
	}
}

func (m Model) toggleSelected() tea.Cmd {
	t, ok := m.selectedTask()
	if !ok {
		return nil
	}
	return m.act(fmt.Sprintf("toggled %s", t.Title), func(s planner.State, now time.Time) (planner.State, error) {
		return s.ToggleTask(t.ID, t.Date, now)
	})
}

func (m Model) repeatSelected() tea.Cmd {
	t, ok := m.selectedTask()
	if !ok {
		return nil
	}
	return m.act(fmt.Sprintf("repeated %s tomorrow", t.Title), func(s planner.State, now time.Time) (planner.State, error) {
		next, _, err := s.RepeatTomorrow(t.ID, t.Date, now)
		return next, err
	})
}

func (m Model) deleteSelected() tea.Cmd {
	t, ok := m.selectedTask()
	if !ok {
		return nil
	}
	return m.act(fmt.Sprintf("deleted %s", t.Title), func(s planner.State, _ time.Time) (planner.State, error) {
		return s.DeleteTask(t.ID, t.Date)
	})
}

var themeCycle = []model.Theme{model.ThemeLight, model.ThemeDark, model.ThemeHighContrast}

func nextTheme(cur model.Theme) model.Theme {
	for i, t := range themeCycle {
		if t == cur {
			return themeCycle[(i+1)%len(themeCycle)]
		}
	}
	return themeCycle[0]
}

func (m Model) cycleTheme() tea.Cmd {
	theme := nextTheme(m.State.Theme)
	return m.act(fmt.Sprintf("theme: %s", theme), func(s planner.State, _ time.Time) (planner.State, error) {
		return s.SetTheme(theme)
	})
}

func (m Model) updatePrayerSettings(text string, change func(*model.PrayerSettings)) tea.Cmd {
	return m.act(text, func(s planner.State, _ time.Time) (planner.State, error) {
		settings := s.PrayerSettings
		change(&settings)
		return s.SetPrayerSettings(settings)
	})
}

func (m Model) toggleHabit(habit model.Habit) tea.Cmd {
	return m.act(fmt.Sprintf("toggled %s", habit), func(s planner.State, now time.Time) (planner.State, error) {
		h := s.HealthSettings
		hs := h.Habit(habit)
		hs.Enabled = !hs.Enabled
		h.SetHabit(habit, hs)
		return s.SaveHealthSettings(h, now), nil
	})
}

func (m Model) toggleQuran() tea.Cmd {
	return m.act("toggled quran recitation", func(s planner.State, now time.Time) (planner.State, error) {
		q := s.HealthSettings.QuranRecitation
		return s.SetQuranSettings(!q.Enabled, q.Duration, now), nil
	})
}
