package views

import (
	"fmt"
	"strings"
)

type TodayItemData struct {
	Title    string
	Time     string
	Category string
	Origin   string
	Done     bool
	Reminder int
}

type TodayPanelData struct {
	Theme     string
	Date      string
	Items     []TodayItemData
	Cursor    int
	Committed string
}

type PrayerPanelData struct {
	City          string
	Country       string
	Source        string
	TableView     string
	Loading       bool
	SpinnerView   string
	Notifications bool
	Next          string
}

type HabitRowData struct {
	Name    string
	Window  string
	Enabled bool
}

type HealthPanelData struct {
	Habits       []HabitRowData
	RepeatDaily  bool
	QuranEnabled bool
	QuranMinutes int
	QuranDone    int
	QuranGoal    int
	ProgressView string
}

type CountData struct {
	Label string
	Count int
}

type AnalyticsPanelData struct {
	Total        int
	Done         int
	Pending      int
	Categories   []CountData
	MostFrequent string
	Week         []CountData
	Committed    string
}

type NotificationData struct {
	Title string
	Body  string
	At    string
	Read  bool
}

type NotificationsPanelData struct {
	Items  []NotificationData
	Unread int
}

type HelpPanelData struct {
	CurrentView string
	Bindings    []string
	HelpView    string
}

func RenderTodayPanel(data TodayPanelData) string {
	st := StylesFor(data.Theme)
	var b strings.Builder
	b.WriteString(fmt.Sprintf("today: %s\n", data.Date))
	b.WriteString("actions: [j/k]move [space]done [r]repeat tomorrow [d]delete\n")
	if data.Committed != "" {
		b.WriteString(st.Muted.Render("committed: "+data.Committed) + "\n")
	}
	b.WriteString("\n")
	if len(data.Items) == 0 {
		b.WriteString("(no tasks today)")
		return b.String()
	}
	for i, item := range data.Items {
		cursor := " "
		if i == data.Cursor {
			cursor = ">"
		}
		check := "[ ]"
		if item.Done {
			check = "[x]"
		}
		line := fmt.Sprintf("%s %d. %s %s  %s %s", cursor, i+1, check, item.Title, item.Time, categoryBadge(item))
		if item.Reminder > 0 {
			line += fmt.Sprintf(" !%dm", item.Reminder)
		}
		switch {
		case i == data.Cursor:
			line = st.Selected.Render(line)
		case item.Done:
			line = st.Done.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func categoryBadge(item TodayItemData) string {
	switch item.Origin {
	case "prayer":
		return "[PRAYER]"
	case "health":
		return "[HEALTH]"
	}
	return "[" + strings.ToUpper(item.Category) + "]"
}

func RenderPrayerPanel(data PrayerPanelData) string {
	var b strings.Builder
	b.WriteString("prayer times:\n")
	b.WriteString(fmt.Sprintf("location: %s, %s | source: %s\n", data.City, data.Country, data.Source))
	alerts := "off"
	if data.Notifications {
		alerts = "on"
	}
	b.WriteString(fmt.Sprintf("alerts: %s\n", alerts))
	b.WriteString("actions: [a]auto-fetch [n]alerts /city <city>, <country>\n\n")
	switch {
	case data.Loading:
		b.WriteString(data.SpinnerView + " fetching prayer times...")
	case data.TableView == "":
		b.WriteString("(no prayer times for today)")
	default:
		b.WriteString(data.TableView)
		if data.Next != "" {
			b.WriteString("\nnext: " + data.Next)
		}
	}
	return b.String()
}

func RenderHealthPanel(data HealthPanelData) string {
	var b strings.Builder
	b.WriteString("health habits:\n")
	b.WriteString("actions: [g]gym [s]sleep [l]lunch [n]dinner [o]quran\n\n")
	for _, h := range data.Habits {
		mark := "off"
		if h.Enabled {
			mark = "on "
		}
		b.WriteString(fmt.Sprintf("- %-8s %s %s\n", h.Name, mark, h.Window))
	}
	repeat := "no"
	if data.RepeatDaily {
		repeat = "yes"
	}
	b.WriteString(fmt.Sprintf("repeat daily: %s\n", repeat))

	b.WriteString("\nquran recitation:\n")
	if data.QuranEnabled {
		b.WriteString(fmt.Sprintf("on, %d minutes before Fajr\n", data.QuranMinutes))
	} else {
		b.WriteString("off\n")
	}
	b.WriteString(fmt.Sprintf("progress: %d / %d days\n", data.QuranDone, data.QuranGoal))
	b.WriteString(data.ProgressView)
	return b.String()
}

func RenderAnalyticsPanel(data AnalyticsPanelData) string {
	var b strings.Builder
	b.WriteString("analytics:\n")
	b.WriteString(fmt.Sprintf("total: %d | done: %d | pending: %d\n", data.Total, data.Done, data.Pending))
	if data.MostFrequent != "" {
		b.WriteString(fmt.Sprintf("most frequent: %s\n", data.MostFrequent))
	}
	if data.Committed != "" {
		b.WriteString(fmt.Sprintf("committed today: %s\n", data.Committed))
	}
	b.WriteString("\ncategories:\n")
	for _, c := range data.Categories {
		b.WriteString(fmt.Sprintf("  %-9s %s %d\n", c.Label, bar(c.Count, data.Total, 20), c.Count))
	}
	b.WriteString("\ncompleted this week:\n")
	most := 0
	for _, d := range data.Week {
		most = max(most, d.Count)
	}
	for _, d := range data.Week {
		b.WriteString(fmt.Sprintf("  %-3s %s %d\n", d.Label, bar(d.Count, most, 20), d.Count))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func bar(n, total, width int) string {
	if total <= 0 {
		return strings.Repeat("-", width)
	}
	filled := min(n*width/total, width)
	return strings.Repeat("#", filled) + strings.Repeat("-", width-filled)
}

func RenderNotificationsPanel(data NotificationsPanelData) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("notifications: %d unread\n", data.Unread))
	b.WriteString("actions: [m]mark read [c]clear\n\n")
	if len(data.Items) == 0 {
		b.WriteString("(none)")
		return b.String()
	}
	for _, n := range data.Items {
		dot := " "
		if !n.Read {
			dot = "*"
		}
		b.WriteString(fmt.Sprintf("%s %s  %s\n  %s\n", dot, n.At, n.Title, n.Body))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func RenderCommandPalette(active bool, input string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("command: %s", input)
}

func RenderNotification(title, body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	return fmt.Sprintf("notification: [%s] %s", title, body)
}

func RenderHelpPanel(data HelpPanelData) string {
	return fmt.Sprintf("help:\n%s view:\n%s\n\n%s",
		strings.ToLower(data.CurrentView),
		strings.Join(data.Bindings, "\n"),
		data.HelpView,
	)
}
