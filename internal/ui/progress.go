// Package ui renders live compile progress in the terminal.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"wsc/internal/driver"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	queuedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	workingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
)

// statusColumn is the width of the right-aligned status label.
const statusColumn = 10

// fixture is the last known state of one compilation unit.
type fixture struct {
	path   string
	stage  driver.Stage
	status driver.Status
}

func (f fixture) finished() bool {
	return f.status == driver.StatusDone || f.status == driver.StatusError
}

// label names what the unit is doing right now.
func (f fixture) label() string {
	switch f.status {
	case driver.StatusDone:
		return "done"
	case driver.StatusError:
		return "error"
	case driver.StatusWorking:
		switch f.stage {
		case driver.StageCache:
			return "cache"
		case driver.StageDecode:
			return "decoding"
		case driver.StageSema:
			return "checking"
		case driver.StageLower:
			return "lowering"
		}
	}
	return "queued"
}

// weight estimates how far through the pipeline a working unit is.
func (f fixture) weight() float64 {
	if f.finished() {
		return 1
	}
	if f.status != driver.StatusWorking {
		return 0
	}
	switch f.stage {
	case driver.StageCache:
		return 0.05
	case driver.StageDecode:
		return 0.1
	case driver.StageSema:
		return 0.4
	case driver.StageLower:
		return 0.7
	}
	return 0
}

func (f fixture) style() lipgloss.Style {
	switch f.status {
	case driver.StatusDone:
		return doneStyle
	case driver.StatusError:
		return errorStyle
	case driver.StatusWorking:
		return workingStyle
	}
	return queuedStyle
}

type progressModel struct {
	title    string
	events   <-chan driver.Event
	spin     spinner.Model
	bar      progress.Model
	units    []fixture
	byPath   map[string]int
	width    int
	finished bool
}

type eventMsg driver.Event

// closedMsg reports that the event channel was closed.
type closedMsg struct{}

// NewProgressModel shows one line per fixture and an overall bar. The
// program exits when events is closed.
func NewProgressModel(title string, files []string, events <-chan driver.Event) tea.Model {
	m := &progressModel{
		title:  title,
		events: events,
		spin:   spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(workingStyle)),
		bar:    progress.New(progress.WithDefaultGradient(), progress.WithWidth(76)),
		units:  make([]fixture, len(files)),
		byPath: make(map[string]int, len(files)),
		width:  80,
	}
	for i, f := range files {
		m.units[i] = fixture{path: f, status: driver.StatusQueued}
		m.byPath[f] = i
	}
	return m
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.next())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		return m, tea.Batch(m.record(driver.Event(msg)), m.next())
	case closedMsg:
		m.finished = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.finished {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.bar.Width = msg.Width - 4
		}
	case progress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		m.bar = bar.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	if len(m.units) == 0 {
		return ""
	}
	var b strings.Builder
	if m.finished {
		b.WriteString(titleStyle.Render("done: " + m.title))
	} else {
		b.WriteString(m.spin.View() + " " + titleStyle.Render(m.title))
	}
	b.WriteString("\n\n")

	pathWidth := max(m.width-statusColumn-6, 20)
	for _, u := range m.units {
		label := u.style().Render(fmt.Sprintf("%*s", statusColumn, u.label()))
		fmt.Fprintf(&b, "  %s  %s\n", label, truncate(u.path, pathWidth))
	}
	b.WriteString("\n")
	if m.finished {
		b.WriteString(m.bar.ViewAs(1))
	} else {
		b.WriteString(m.bar.View())
	}
	b.WriteString("\n")
	return b.String()
}

// next waits for the following driver event.
func (m *progressModel) next() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return closedMsg{}
		}
		return eventMsg(ev)
	}
}

// record applies ev to its unit and animates the bar. Events for files
// outside the list are ignored.
func (m *progressModel) record(ev driver.Event) tea.Cmd {
	i, ok := m.byPath[ev.File]
	if !ok {
		return nil
	}
	m.units[i].stage = ev.Stage
	m.units[i].status = ev.Status
	return m.bar.SetPercent(m.fraction())
}

func (m *progressModel) fraction() float64 {
	sum := 0.0
	for _, u := range m.units {
		sum += u.weight()
	}
	return sum / float64(len(m.units))
}

// truncate shortens value to at most width display columns, ending in "...".
func truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}
