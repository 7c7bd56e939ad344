package update

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"

	"github.com/sandeepkv93/salahplan/internal/aiparse"
	"github.com/sandeepkv93/salahplan/internal/planner"
)

type View string

const (
	ViewToday         View = "Today"
	ViewPrayer        View = "Prayer"
	ViewHealth        View = "Health"
	ViewAnalytics     View = "Analytics"
	ViewNotifications View = "Notifications"
	ViewAbout         View = "About"
)

var allViews = []View{ViewToday, ViewPrayer, ViewHealth, ViewAnalytics, ViewNotifications, ViewAbout}

// requestTimeout bounds one round trip to the planner. AI prompts get
// aiTimeout instead.
const (
	requestTimeout = 5 * time.Second
	aiTimeout      = 30 * time.Second
	clockInterval  = 30 * time.Second
)

// Planner is the part of planner.Runtime the TUI drives.
type Planner interface {
	Do(ctx context.Context, fn planner.Transition) (planner.State, error)
	Snapshot(ctx context.Context) (planner.State, error)
	Changes() <-chan struct{}
	Now() time.Time
}

type StatusBar struct {
	Text    string
	IsError bool
}

type GlobalKeyMap struct {
	Today         string
	Prayer        string
	Health        string
	Analytics     string
	Notifications string
	About         string
	Theme         string
	Help          string
	Quit          string
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

type Model struct {
	CurrentView View
	State       planner.State
	Now         time.Time
	Loaded      bool
	Cursor      int
	Palette     CommandPaletteState
	HelpVisible bool
	Status      StatusBar
	Keys        GlobalKeyMap
	Quitting    bool
	LastError   error
	Width       int

	planner Planner
	parser  aiparse.Parser

	prayerTable   table.Model
	commandInput  textinput.Model
	quranProgress progress.Model
	fetchSpinner  spinner.Model
	helpModel     help.Model
	aboutViewport viewport.Model
	spinnerActive bool
	aboutTheme    string
}

// StateMsg carries a fresh snapshot from the planner.
type StateMsg struct {
	State planner.State
	Now   time.Time
}

// ActionMsg reports the outcome of a transition started from the TUI.
type ActionMsg struct {
	Text  string
	State planner.State
	Err   error
}

type ChangedMsg struct{}

type ClockTickMsg struct {
	At time.Time
}

type SwitchViewMsg struct {
	View View
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

// NewModel builds the TUI over p. A nil parser disables /ai.
func NewModel(p Planner, parser aiparse.Parser) Model {
	m := Model{
		CurrentView: ViewToday,
		Now:         p.Now(),
		planner:     p,
		parser:      parser,
		Keys: GlobalKeyMap{
			Today:         "1",
			Prayer:        "2",
			Health:        "3",
			Analytics:     "4",
			Notifications: "5",
			About:         "6",
			Theme:         "t",
			Help:          "?",
			Quit:          "q",
		},
	}
	m.initBubbleComponents()
	return m
}

func (m *Model) initBubbleComponents() {
	cols := []table.Column{
		{Title: "Prayer", Width: 10},
		{Title: "Time", Width: 10},
		{Title: "Status", Width: 8},
	}
	m.prayerTable = table.New(table.WithColumns(cols), table.WithRows([]table.Row{}), table.WithHeight(6))

	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 48

	m.quranProgress = progress.New(progress.WithDefaultGradient(), progress.WithWidth(40))

	m.fetchSpinner = spinner.New()
	m.fetchSpinner.Spinner = spinner.Dot

	m.helpModel = help.New()
	m.aboutViewport = viewport.New(54, 16)
}
