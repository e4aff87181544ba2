// Package monitor renders received status reports, as log lines or as a
// live terminal table.
package monitor

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/robotalks/cmt.go/pkg/telemetry"
)

// Line formats a report as a single log line.
func Line(board string, r *telemetry.StatusReport) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s #%d sched=%d/%d", board, r.Seq, r.ScheduledBusy, r.ScheduledSlots)
	for _, c := range r.Cores {
		fmt.Fprintf(&sb, " | core%d %s", c.Core, coreSummary(c))
	}
	return sb.String()
}

func coreSummary(c *telemetry.CoreStatus) string {
	return fmt.Sprintf("load=%s msgs=%d q=%d/%d/%d errs=%d longest=%dus(%s)",
		load(c), c.Retrieved, c.QueueHigh, c.QueueNormal, c.QueueLow,
		c.PostErrors, c.LongestUs, c.LongestKindName())
}

func load(c *telemetry.CoreStatus) string {
	total := c.ActiveUs + c.IdleUs
	if !c.IdleTracked || total == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", float64(c.ActiveUs)*100/float64(total))
}

// ReportMsg delivers a received report to the Model.
type ReportMsg telemetry.Received

// Model is the bubbletea model of the live table.
type Model struct {
	Source string

	ch      <-chan telemetry.Received
	reports map[string]*telemetry.StatusReport
	errors  int
	lastErr error
	width   int
}

// NewModel creates a Model showing the reports from ch. source describes
// where they come from.
func NewModel(source string, ch <-chan telemetry.Received) Model {
	return Model{
		Source:  source,
		ch:      ch,
		reports: make(map[string]*telemetry.StatusReport),
		width:   80,
	}
}

// Listen returns a command delivering the next report from ch.
func Listen(ch <-chan telemetry.Received) tea.Cmd {
	return func() tea.Msg {
		r, ok := <-ch
		if !ok {
			return tea.Quit()
		}
		return ReportMsg(r)
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return Listen(m.ch)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case ReportMsg:
		if msg.Err != nil {
			m.errors++
			m.lastErr = msg.Err
		} else {
			m.reports[msg.Board] = msg.Report
		}
		return m, Listen(m.ch)
	}
	return m, nil
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)
	boardStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("10"))
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

// View implements tea.Model.
func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("CMT monitor: "+m.Source) + "\n")
	if len(m.reports) == 0 {
		sb.WriteString(labelStyle.Render("waiting for reports...") + "\n")
	}
	boards := make([]string, 0, len(m.reports))
	for board := range m.reports {
		boards = append(boards, board)
	}
	sort.Strings(boards)
	for _, board := range boards {
		sb.WriteString(boxStyle.Width(m.width-4).Render(m.renderBoard(board, m.reports[board])) + "\n")
	}
	if m.errors > 0 {
		sb.WriteString(errorStyle.Render(fmt.Sprintf("%d bad reports, last: %v", m.errors, m.lastErr)) + "\n")
	}
	sb.WriteString(labelStyle.Render("q: quit"))
	return sb.String()
}

func (m Model) renderBoard(board string, r *telemetry.StatusReport) string {
	lines := []string{
		boardStyle.Render(board) + labelStyle.Render(fmt.Sprintf("  #%d  ticks %d  scheduled %d/%d",
			r.Seq, r.Ticks, r.ScheduledBusy, r.ScheduledSlots)),
	}
	for _, c := range r.Cores {
		state := "stopped"
		if c.Running {
			state = "running"
		}
		lines = append(lines, fmt.Sprintf("%s %-7s %s",
			labelStyle.Render(fmt.Sprintf("core%d", c.Core)), state, coreSummary(c)))
	}
	return strings.Join(lines, "\n")
}
