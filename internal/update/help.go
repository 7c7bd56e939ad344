package update

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"

	"github.com/sandeepkv93/salahplan/internal/views"
)

type KeyBinding struct {
	Key    string
	Action string
}

type helpKeyMap struct {
	short []key.Binding
	full  [][]key.Binding
}

func (k helpKeyMap) ShortHelp() []key.Binding  { return k.short }
func (k helpKeyMap) FullHelp() [][]key.Binding { return k.full }

func (m Model) renderHelpView() string {
	var plain []string
	for _, kb := range m.viewBindings() {
		plain = append(plain, fmt.Sprintf("- %s: %s", kb.Key, kb.Action))
	}
	global := m.bindings(m.globalBindings())
	return views.RenderHelpPanel(views.HelpPanelData{
		CurrentView: string(m.CurrentView),
		Bindings:    plain,
		HelpView: m.helpModel.View(helpKeyMap{
			short: global,
			full:  [][]key.Binding{global},
		}),
	})
}

func (m Model) globalBindings() []KeyBinding {
	return []KeyBinding{
		{Key: m.Keys.Today, Action: "today"},
		{Key: m.Keys.Prayer, Action: "prayer times"},
		{Key: m.Keys.Health, Action: "health"},
		{Key: m.Keys.Analytics, Action: "analytics"},
		{Key: m.Keys.Notifications, Action: "notifications"},
		{Key: m.Keys.About, Action: "about"},
		{Key: "/", Action: "command palette"},
		{Key: m.Keys.Theme, Action: "cycle theme"},
		{Key: m.Keys.Help, Action: "toggle help"},
		{Key: m.Keys.Quit, Action: "quit"},
	}
}

func (m Model) viewBindings() []KeyBinding {
	switch m.CurrentView {
	case ViewToday:
		return []KeyBinding{
			{Key: "j/k", Action: "move selection"},
			{Key: "space", Action: "toggle done"},
			{Key: "r", Action: "repeat tomorrow"},
			{Key: "d", Action: "delete task"},
		}
	case ViewPrayer:
		return []KeyBinding{
			{Key: "a", Action: "toggle auto-fetch"},
			{Key: "n", Action: "toggle prayer alerts"},
		}
	case ViewHealth:
		return []KeyBinding{
			{Key: "g/s/l/n", Action: "toggle gym/sleep/lunch/dinner"},
			{Key: "o", Action: "toggle quran recitation"},
		}
	case ViewNotifications:
		return []KeyBinding{
			{Key: "m", Action: "mark all read"},
			{Key: "c", Action: "clear all"},
		}
	case ViewAbout:
		return []KeyBinding{{Key: "j/k", Action: "scroll"}}
	default:
		return []KeyBinding{{Key: "-", Action: "no contextual bindings"}}
	}
}

func (m Model) bindings(kbs []KeyBinding) []key.Binding {
	out := make([]key.Binding, 0, len(kbs))
	for _, kb := range kbs {
		out = append(out, key.NewBinding(key.WithKeys(kb.Key), key.WithHelp(kb.Key, kb.Action)))
	}
	return out
}
