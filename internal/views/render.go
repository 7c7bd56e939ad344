package views

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

type AppData struct {
	Theme        string
	Header       string
	Tabs         []string
	ActiveTab    string
	LeftPane     string
	RightPane    string
	StatusLine   string
	StatusError  bool
	Footer       string
	Notification string
}

// Styles is the set of styles one theme renders with.
type Styles struct {
	Header   lipgloss.Style
	Tab      lipgloss.Style
	TabOn    lipgloss.Style
	Panel    lipgloss.Style
	Status   lipgloss.Style
	Error    lipgloss.Style
	Footer   lipgloss.Style
	Selected lipgloss.Style
	Done     lipgloss.Style
	Muted    lipgloss.Style
	Badge    lipgloss.Style
}

type palette struct {
	accent, text, muted, ok, err, border lipgloss.Color
}

var palettes = map[string]palette{
	"light":         {accent: "4", text: "0", muted: "8", ok: "2", err: "1", border: "8"},
	"dark":          {accent: "12", text: "15", muted: "8", ok: "10", err: "9", border: "12"},
	"high-contrast": {accent: "11", text: "15", muted: "15", ok: "10", err: "9", border: "15"},
}

const panelWidth = 58

// StylesFor returns the styles of a theme. Unknown themes render light.
func StylesFor(theme string) Styles {
	p, ok := palettes[theme]
	if !ok {
		p = palettes["light"]
	}
	border := lipgloss.RoundedBorder()
	if theme == "high-contrast" {
		border = lipgloss.ThickBorder()
	}
	return Styles{
		Header:   lipgloss.NewStyle().Bold(true).Foreground(p.accent),
		Tab:      lipgloss.NewStyle().Padding(0, 1).Foreground(p.muted),
		TabOn:    lipgloss.NewStyle().Padding(0, 1).Bold(true).Underline(true).Foreground(p.accent),
		Panel:    lipgloss.NewStyle().Border(border).BorderForeground(p.border).Padding(0, 1),
		Status:   lipgloss.NewStyle().Foreground(p.ok),
		Error:    lipgloss.NewStyle().Foreground(p.err),
		Footer:   lipgloss.NewStyle().Foreground(p.muted),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(p.accent),
		Done:     lipgloss.NewStyle().Strikethrough(true).Foreground(p.muted),
		Muted:    lipgloss.NewStyle().Foreground(p.muted),
		Badge:    lipgloss.NewStyle().Foreground(p.text).Bold(true),
	}
}

func RenderApp(data AppData) string {
	st := StylesFor(data.Theme)
	left := st.Panel.Width(panelWidth).Render(data.LeftPane)
	row := left
	if strings.TrimSpace(data.RightPane) != "" {
		right := st.Panel.Width(panelWidth).Render(data.RightPane)
		row = lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	}

	status := st.Status.Render(data.StatusLine)
	if data.StatusError {
		status = st.Error.Render(data.StatusLine)
	}

	lines := []string{st.Header.Render(data.Header)}
	if len(data.Tabs) > 0 {
		lines = append(lines, renderTabs(st, data.Tabs, data.ActiveTab))
	}
	lines = append(lines, row)
	if data.StatusLine != "" {
		lines = append(lines, status)
	}
	if data.Notification != "" {
		lines = append(lines, st.Panel.Render(data.Notification))
	}
	if data.Footer != "" {
		lines = append(lines, st.Footer.Render(data.Footer))
	}
	return strings.Join(lines, "\n")
}

func renderTabs(st Styles, tabs []string, active string) string {
	out := make([]string, 0, len(tabs))
	for _, tab := range tabs {
		if tab == active {
			out = append(out, st.TabOn.Render(tab))
			continue
		}
		out = append(out, st.Tab.Render(tab))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, out...)
}

// RenderMarkdown renders md with the glamour style matching theme.
func RenderMarkdown(md, theme string) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	style := "light"
	if theme == "dark" || theme == "high-contrast" {
		style = "dark"
	}
	out, err := glamour.Render(md, style)
	if err != nil {
		return md
	}
	return strings.TrimSpace(out)
}
