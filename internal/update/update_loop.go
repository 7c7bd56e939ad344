package update

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/salahplan/internal/model"
	"github.com/sandeepkv93/salahplan/internal/planner"
	"github.com/sandeepkv93/salahplan/internal/views"
)

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		loadStateCmd(m.planner),
		waitForChangeCmd(m.planner.Changes()),
		clockTickCmd(),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.update(msg)
	next.syncBubbleData()
	return next, cmd
}

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(typed)
	case tea.WindowSizeMsg:
		m.Width = typed.Width
		m.helpModel.Width = typed.Width
		return m, nil
	case StateMsg:
		m.State = typed.State
		m.Now = typed.Now
		m.Loaded = true
		return m, m.startSpinner()
	case ChangedMsg:
		return m, tea.Batch(loadStateCmd(m.planner), waitForChangeCmd(m.planner.Changes()))
	case ActionMsg:
		if typed.Err != nil {
			m.LastError = typed.Err
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
			return m, nil
		}
		m.State = typed.State
		m.Status = StatusBar{Text: typed.Text}
		return m, m.startSpinner()
	case ClockTickMsg:
		m.Now = m.planner.Now()
		return m, clockTickCmd()
	case spinner.TickMsg:
		if !m.spinnerActive {
			return m, nil
		}
		if m.Loaded && !m.prayerLoading() {
			m.spinnerActive = false
			return m, nil
		}
		var cmd tea.Cmd
		m.fetchSpinner, cmd = m.fetchSpinner.Update(typed)
		return m, cmd
	case SwitchViewMsg:
		if isKnownView(typed.View) {
			m.CurrentView = typed.View
		}
		return m, nil
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case AppErrorMsg:
		m.LastError = typed.Err
		if typed.Err != nil {
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
		}
		return m, nil
	}
	return m, nil
}

// startSpinner starts the fetch spinner while prayer times are outstanding.
func (m *Model) startSpinner() tea.Cmd {
	if m.spinnerActive || !m.prayerLoading() {
		return nil
	}
	m.spinnerActive = true
	return m.fetchSpinner.Tick
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.Palette.Active {
		return m.handlePaletteKey(msg)
	}

	switch msg.String() {
	case "ctrl+c", m.Keys.Quit:
		m.Quitting = true
		return m, tea.Quit
	case "/":
		m.Palette.Active = true
		m.Palette.Input = ""
		m.commandInput.SetValue("")
		m.commandInput.Focus()
		m.Status = StatusBar{Text: "command palette active"}
		return m, nil
	case m.Keys.Help:
		m.HelpVisible = !m.HelpVisible
		return m, nil
	case m.Keys.Theme:
		return m, m.cycleTheme()
	}
	if v, ok := m.viewForKey(msg.String()); ok {
		m.CurrentView = v
		return m, nil
	}

	switch m.CurrentView {
	case ViewToday:
		return m.handleTodayKey(msg)
	case ViewPrayer:
		return m.handlePrayerKey(msg)
	case ViewHealth:
		return m.handleHealthKey(msg)
	case ViewNotifications:
		return m.handleNotificationsKey(msg)
	case ViewAbout:
		var cmd tea.Cmd
		m.aboutViewport, cmd = m.aboutViewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) viewForKey(k string) (View, bool) {
	switch k {
	case m.Keys.Today:
		return ViewToday, true
	case m.Keys.Prayer:
		return ViewPrayer, true
	case m.Keys.Health:
		return ViewHealth, true
	case m.Keys.Analytics:
		return ViewAnalytics, true
	case m.Keys.Notifications:
		return ViewNotifications, true
	case m.Keys.About:
		return ViewAbout, true
	}
	return "", false
}

func (m Model) handleTodayKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		m.Cursor++
		m.clampCursor()
	case "k", "up":
		m.Cursor--
		m.clampCursor()
	case " ", "x", "enter":
		return m, m.toggleSelected()
	case "r":
		return m, m.repeatSelected()
	case "d":
		return m, m.deleteSelected()
	}
	return m, nil
}

func (m Model) handlePrayerKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "a":
		return m, m.updatePrayerSettings("toggled auto-fetch", func(s *model.PrayerSettings) {
			s.AutoFetch = !s.AutoFetch
		})
	case "n":
		return m, m.updatePrayerSettings("toggled prayer alerts", func(s *model.PrayerSettings) {
			s.Notifications = !s.Notifications
		})
	}
	return m, nil
}

var habitKeys = map[string]model.Habit{
	"g": model.HabitGym,
	"s": model.HabitSleep,
	"l": model.HabitLunch,
	"n": model.HabitDinner,
}

func (m Model) handleHealthKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	k := msg.String()
	if habit, ok := habitKeys[k]; ok {
		return m, m.toggleHabit(habit)
	}
	if k == "o" {
		return m, m.toggleQuran()
	}
	return m, nil
}

func (m Model) handleNotificationsKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "m":
		return m, m.act("notifications marked read", wrap(planner.State.MarkNotificationsRead))
	case "c":
		return m, m.act("notifications cleared", wrap(planner.State.ClearNotifications))
	}
	return m, nil
}

func (m Model) View() string {
	if m.Quitting {
		return ""
	}
	left := ""
	switch m.CurrentView {
	case ViewToday:
		left = m.renderTodayView()
	case ViewPrayer:
		left = m.renderPrayerView()
	case ViewHealth:
		left = m.renderHealthView()
	case ViewAnalytics:
		left = m.renderAnalyticsView()
	case ViewNotifications:
		left = m.renderNotificationsView()
	case ViewAbout:
		left = m.aboutViewport.View()
	}

	status := ""
	if m.Status.Text != "" {
		status = "status: " + m.Status.Text
		if m.Status.IsError {
			status = "status: error: " + m.Status.Text
		}
	}

	tabs := make([]string, 0, len(allViews))
	active := ""
	for _, v := range allViews {
		label := string(v)
		if n := m.State.UnreadNotifications(); v == ViewNotifications && n > 0 {
			label = fmt.Sprintf("%s (%d)", label, n)
		}
		if v == m.CurrentView {
			active = label
		}
		tabs = append(tabs, label)
	}

	return views.RenderApp(views.AppData{
		Theme:        m.theme(),
		Header:       fmt.Sprintf("salahplan | %s | %s", m.Now.Format("Mon Jan 2 03:04 PM"), m.State.PrayerSettings.City),
		Tabs:         tabs,
		ActiveTab:    active,
		LeftPane:     left,
		RightPane:    m.rightPane(),
		StatusLine:   status,
		StatusError:  m.Status.IsError,
		Notification: m.renderLatestNotification(),
		Footer:       strings.Join([]string{"1-6 views", "/ cmd", m.Keys.Theme + " theme", m.Keys.Help + " help", m.Keys.Quit + " quit"}, " | "),
	})
}

func isKnownView(v View) bool {
	for _, known := range allViews {
		if v == known {
			return true
		}
	}
	return false
}
