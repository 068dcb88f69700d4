package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/studiowebux/loadcli/internal/stats"
)

var (
	styleTitle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	styleHeader = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	styleSubtle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	styleOK     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	styleErr    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	styleFrame  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2)
)

// snapshotMsg delivers a drained reporter window to the model
type snapshotMsg struct {
	snap stats.Snapshot
}

// Dashboard is the live full-screen view of a running load test. It renders
// the same per-second snapshots the line reporter would print.
type Dashboard struct {
	prog *tea.Program
}

// NewDashboard creates a dashboard. stop is invoked when the user quits
// (q / ctrl+c) so the engine shuts down gracefully.
func NewDashboard(description string, stop func()) *Dashboard {
	m := model{
		description: description,
		spinner:     spinner.New(spinner.WithSpinner(spinner.Dot)),
		start:       time.Now(),
		stop:        stop,
	}
	return &Dashboard{
		prog: tea.NewProgram(m, tea.WithAltScreen()),
	}
}

// Publish is the stats.Sink fed by the reporter
func (d *Dashboard) Publish(snap stats.Snapshot) {
	d.prog.Send(snapshotMsg{snap: snap})
}

// Start runs the event loop; it blocks until Quit or a user keypress
func (d *Dashboard) Start() error {
	_, err := d.prog.Run()
	return err
}

// Quit tears the dashboard down once the engine has drained
func (d *Dashboard) Quit() {
	d.prog.Quit()
}

type model struct {
	description string
	spinner     spinner.Model
	start       time.Time
	stop        func()
	stopping    bool
	width       int

	latest  stats.Snapshot
	windows int
}

func (m model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if !m.stopping {
				m.stopping = true
				m.stop()
			}
			return m, nil
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case snapshotMsg:
		m.latest = msg.snap
		m.windows++
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder

	title := "loadcli - running"
	if m.stopping {
		title = "loadcli - draining in-flight requests"
	}
	b.WriteString(m.spinner.View() + " " + styleTitle.Render(title) + "\n")
	b.WriteString(styleSubtle.Render(m.description) + "\n\n")

	s := m.latest

	b.WriteString(styleHeader.Render("Last window") + "\n")
	b.WriteString(fmt.Sprintf("  sent %-8d done %-8d %s %-8d %s %-8d\n",
		s.Sent, s.Done,
		styleOK.Render("ok"), s.OK,
		styleErr.Render("err"), s.Err))
	b.WriteString(fmt.Sprintf("  p50 %-10s p90 %-10s p99 %-10s\n",
		fmt.Sprintf("%.1fms", s.P50Ms),
		fmt.Sprintf("%.1fms", s.P90Ms),
		fmt.Sprintf("%.1fms", s.P99Ms)))
	b.WriteString("\n")

	b.WriteString(styleHeader.Render("Cumulative") + "\n")
	b.WriteString(fmt.Sprintf("  done %-8d %s %-8d %s %-8d\n",
		s.TotalDone,
		styleOK.Render("ok"), s.TotalOK,
		styleErr.Render("err"), s.TotalErr))

	elapsed := time.Since(m.start).Truncate(time.Second)
	b.WriteString(fmt.Sprintf("  windows %-6d elapsed %s\n", m.windows, elapsed))
	b.WriteString("\n")
	b.WriteString(styleSubtle.Render("press q to stop"))

	return styleFrame.Render(b.String())
}
