package update

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"

	"github.com/sandeepkv93/salahplan/internal/analytics"
	"github.com/sandeepkv93/salahplan/internal/model"
	"github.com/sandeepkv93/salahplan/internal/quran"
	"github.com/sandeepkv93/salahplan/internal/timerange"
	"github.com/sandeepkv93/salahplan/internal/views"
)

const aboutMarkdown = `# salahplan

A daily planner built around the five prayers.

- Prayer tasks follow the times fetched for your city, or the manual times
  you enter.
- Health habits (gym, sleep, lunch, dinner) become daily tasks.
- Quran recitation is scheduled to end at Fajr and counts toward a
  60-day goal.
- Prayers are marked done 20 minutes after their time.

Type **/** for commands, for example ` + "`/add Pay rent @ 10:00 AM #finance !15`" + `.
`

func (m Model) theme() string {
	return string(m.State.Theme)
}

func (m Model) today() []model.Task {
	return m.State.Today(m.Now)
}

func (m Model) selectedTask() (model.Task, bool) {
	tasks := m.today()
	if m.Cursor < 0 || m.Cursor >= len(tasks) {
		return model.Task{}, false
	}
	return tasks[m.Cursor], true
}

func (m *Model) clampCursor() {
	n := len(m.today())
	if m.Cursor >= n {
		m.Cursor = n - 1
	}
	if m.Cursor < 0 {
		m.Cursor = 0
	}
}

func committedText(c analytics.Committed) string {
	return fmt.Sprintf("%dh %dm", c.Hours(), c.Remainder())
}

func (m Model) renderTodayView() string {
	tasks := m.today()
	items := make([]views.TodayItemData, 0, len(tasks))
	for _, t := range tasks {
		items = append(items, views.TodayItemData{
			Title:    t.Title,
			Time:     t.Time.String(),
			Category: string(t.Category),
			Origin:   string(t.Origin.Kind),
			Done:     t.Status == model.StatusDone,
			Reminder: t.Reminder,
		})
	}
	return views.RenderTodayPanel(views.TodayPanelData{
		Theme:     m.theme(),
		Date:      model.DateKey(m.Now),
		Items:     items,
		Cursor:    m.Cursor,
		Committed: committedText(analytics.CommittedToday(m.State.Tasks, m.Now)),
	})
}

func (m Model) prayerLoading() bool {
	return m.State.PrayerTimes == nil && m.State.PrayerSettings.AutoFetch
}

func (m Model) renderPrayerView() string {
	s := m.State.PrayerSettings
	source := "manual"
	if s.AutoFetch {
		source = "auto"
	}
	data := views.PrayerPanelData{
		City:          s.City,
		Country:       s.Country,
		Source:        source,
		Loading:       !m.Loaded || m.prayerLoading(),
		SpinnerView:   m.fetchSpinner.View(),
		Notifications: s.Notifications,
	}
	if m.State.PrayerTimes != nil {
		data.TableView = m.prayerTable.View()
		data.Next = nextPrayer(*m.State.PrayerTimes, m.Now)
	}
	return views.RenderPrayerPanel(data)
}

// nextPrayer names the first prayer still ahead of now.
func nextPrayer(times model.PrayerTimes, now time.Time) string {
	for _, name := range model.PrayerNames {
		at, ok := timerange.ParseInstant(times.Get(name), now)
		if ok && at.After(now) {
			return fmt.Sprintf("%s at %s", name, times.Get(name))
		}
	}
	return ""
}

func (m *Model) syncPrayerTable() {
	if m.State.PrayerTimes == nil {
		m.prayerTable.SetRows([]table.Row{})
		return
	}
	date := model.DateKey(m.Now)
	rows := make([]table.Row, 0, len(model.PrayerNames))
	for _, name := range model.PrayerNames {
		at := m.State.PrayerTimes.Get(name)
		if at == "" {
			continue
		}
		status := "-"
		if t, ok := m.State.Find(model.PrayerTaskID(name), date); ok {
			status = string(t.Status)
		}
		rows = append(rows, table.Row{name, at, status})
	}
	m.prayerTable.SetRows(rows)
}

func (m Model) renderHealthView() string {
	h := m.State.HealthSettings
	habits := make([]views.HabitRowData, 0, len(model.Habits))
	for _, habit := range model.Habits {
		s := h.Habit(habit)
		habits = append(habits, views.HabitRowData{
			Name:    string(habit),
			Window:  s.StartTime + "-" + s.EndTime,
			Enabled: s.Enabled,
		})
	}
	history := h.QuranRecitation.CompletionHistory
	return views.RenderHealthPanel(views.HealthPanelData{
		Habits:       habits,
		RepeatDaily:  h.RepeatDaily,
		QuranEnabled: h.QuranRecitation.Enabled,
		QuranMinutes: h.QuranRecitation.Duration,
		QuranDone:    quran.CompletedDays(history),
		QuranGoal:    quran.Goal,
		ProgressView: m.quranProgress.ViewAs(quran.Ratio(history)),
	})
}

func (m Model) renderAnalyticsView() string {
	s := analytics.Summarize(m.State.Tasks, m.Now)
	data := views.AnalyticsPanelData{
		Total:        s.Total,
		Done:         s.Done,
		Pending:      s.Pending,
		MostFrequent: string(s.MostFrequent),
		Committed:    committedText(s.Committed),
	}
	for _, c := range s.Categories {
		data.Categories = append(data.Categories, views.CountData{Label: string(c.Category), Count: c.Count})
	}
	for _, d := range s.Week {
		data.Week = append(data.Week, views.CountData{Label: d.Day, Count: d.Count})
	}
	return views.RenderAnalyticsPanel(data)
}

func (m Model) renderNotificationsView() string {
	items := make([]views.NotificationData, 0, len(m.State.Notifications))
	for _, n := range m.State.Notifications {
		items = append(items, views.NotificationData{
			Title: n.Title,
			Body:  n.Body,
			At:    n.Time().In(m.Now.Location()).Format("Jan 2 03:04 PM"),
			Read:  n.Read,
		})
	}
	return views.RenderNotificationsPanel(views.NotificationsPanelData{
		Items:  items,
		Unread: m.State.UnreadNotifications(),
	})
}

func (m *Model) syncAbout() {
	if m.aboutTheme == m.theme() && m.aboutTheme != "" {
		return
	}
	m.aboutTheme = m.theme()
	m.aboutViewport.SetContent(views.RenderMarkdown(aboutMarkdown, m.aboutTheme))
}

func (m Model) renderCommandPalette() string {
	if !m.Palette.Active {
		return ""
	}
	return views.RenderCommandPalette(true, m.commandInput.View())
}

// renderLatestNotification shows the newest unread notification as a toast.
func (m Model) renderLatestNotification() string {
	for _, n := range m.State.Notifications {
		if !n.Read {
			return views.RenderNotification(n.Title, n.Body)
		}
	}
	return ""
}

func (m *Model) syncBubbleData() {
	m.clampCursor()
	m.syncPrayerTable()
	m.syncAbout()
}

func (m Model) rightPane() string {
	parts := []string{}
	if p := m.renderCommandPalette(); p != "" {
		parts = append(parts, p)
	}
	if m.HelpVisible {
		parts = append(parts, m.renderHelpView())
	}
	return strings.Join(parts, "\n\n")
}
