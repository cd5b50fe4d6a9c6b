package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertwitch/linedup/internal/scan"
	"github.com/dustin/go-humanize"
)

const (
	// refreshInterval is the interval at which the scan progress is polled.
	refreshInterval = 100 * time.Millisecond

	// maxLogLines is the amount of most recent log lines kept for rendering.
	maxLogLines = 8
)

//nolint:gochecknoglobals
var (
	// titleStyle defines the style for the title line.
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	// infoStyle defines the style for the counters.
	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA"))

	// logStyle defines the style for the log lines.
	logStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A0A0A0"))

	// helpStyle defines the style for the help line.
	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))
)

// ScanProgressMsg is a [tea.Msg] containing [scan.Progress] information.
type ScanProgressMsg struct {
	t    time.Time
	data scan.Progress
}

// FinishedMsg is a [tea.Msg] signaling the end of the scan.
type FinishedMsg struct {
	Summary *scan.Summary
}

// TeaModel is the principal [tea.Model] for the command-line user interface.
type TeaModel struct {
	width int

	cancel context.CancelFunc

	uiHandler *Handler
	scanner   progressProvider

	data    scan.Progress
	summary *scan.Summary

	spinner  spinner.Model
	progress progress.Model
	logs     []string

	ready    bool
	finished bool
}

// NewTeaModel returns an initial new [TeaModel].
//
//nolint:mnd
func NewTeaModel(uiHandler *Handler, scanner progressProvider, cancel context.CancelFunc) TeaModel {
	return TeaModel{
		uiHandler: uiHandler,
		scanner:   scanner,
		cancel:    cancel,
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot)),
		progress: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(60),
		),
		logs: make([]string, 0, maxLogLines),
	}
}

// Init initializes the model within a [tea.Program].
func (m TeaModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		updateScanProgress(m.scanner),
	)
}

// updateScanProgress produces a [tea.Cmd] for later scheduling in a
// [tea.Program]. When executed, a [ScanProgressMsg] is returned.
func updateScanProgress(s progressProvider) tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return ScanProgressMsg{
			t:    t,
			data: s.Progress(),
		}
	})
}

// Update is the principal message handling method of the model.
//
//nolint:ireturn
func (m TeaModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if !m.ready {
		m.ready = true
		if m.uiHandler != nil {
			m.uiHandler.Ready.Store(true)
		}
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()

			return m, tea.Quit
		case "q":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progress.Width = min(max(msg.Width-4, 10), 80) //nolint:mnd

	case ScanProgressMsg:
		if m.finished {
			break
		}
		m.data = msg.data
		cmds = append(cmds,
			m.progress.SetPercent(m.data.Tasks.ProgressPct/100), //nolint:mnd
			updateScanProgress(m.scanner),
		)

	case FinishedMsg:
		m.finished = true
		m.summary = msg.Summary
		m.data = m.scanner.Progress()

		return m, tea.Quit

	case LogMsg:
		if len(m.logs) >= maxLogLines {
			m.logs = m.logs[1:]
		}
		m.logs = append(m.logs, strings.TrimSuffix(string(msg), "\n"))

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case progress.FrameMsg:
		updated, cmd := m.progress.Update(msg)
		if progressModel, ok := updated.(progress.Model); ok {
			m.progress = progressModel
		}
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// View is the principal rendering function of the model.
func (m TeaModel) View() string {
	title := m.spinner.View() + " Scanning for duplicate lines"
	bar := m.progress.View()

	if m.finished {
		title = "Scan finished"
		bar = m.progress.ViewAs(1)
	}

	parts := []string{
		titleStyle.Render(title),
		"",
		bar,
		"",
		infoStyle.Render(m.details()),
	}

	if len(m.logs) > 0 {
		parts = append(parts, "", logStyle.Render(strings.Join(m.logs, "\n")))
	}

	if !m.finished {
		parts = append(parts, "", helpStyle.Render("q: close display • ctrl+c: cancel scan"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...) + "\n"
}

func (m TeaModel) details() string {
	d := m.data

	details := fmt.Sprintf(
		"Files: Visited=%s, Checked=%s (%d/%d done, %d in progress)\n"+
			"Results: Duplicates=%d, ReadErrors=%d, TraversalErrors=%d\n"+
			"Read: %s",
		humanize.Comma(int64(d.Visited)), //nolint:gosec
		humanize.Comma(int64(d.Checked)), //nolint:gosec
		d.Tasks.FinishedTasks,
		d.Tasks.TotalTasks,
		d.Tasks.InFlightTasks,
		d.Reports,
		d.ReadErrors,
		d.TraversalErrors,
		humanize.IBytes(d.BytesRead),
	)

	if m.summary != nil {
		details += "\nTook: " + m.summary.Duration().Round(time.Millisecond).String()
	}

	return details
}
