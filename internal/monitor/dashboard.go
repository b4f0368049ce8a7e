// Package monitor renders a live terminal dashboard for an autopilot run.
// It follows the state file with fsnotify and falls back to a periodic
// tick, so the view stays current even on filesystems without events.
package monitor

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"

	"github.com/deepredk/oh-my-claudecode/internal/autopilot"
)

const (
	sparklineWidth  = 30
	sparklineHeight = 3
	historySize     = 30
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("51")).
			Bold(true).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true).
			MarginTop(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("45"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("231")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46")).
			Bold(true)

	currentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("226")).
			Bold(true)

	failedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	containerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(1, 2)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			MarginTop(1)

	sparklineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51"))
)

// Model is the BubbleTea model for the run dashboard.
type Model struct {
	dir      string
	store    *autopilot.FileStore
	interval time.Duration
	watcher  *fsnotify.Watcher

	rec        *autopilot.Record
	lastUpdate time.Time
	err        error
	quitting   bool

	iterProgress progress.Model
	taskProgress progress.Model

	iterationHistory []float64
}

// NewModel creates a dashboard model for the run in dir. The watcher is
// optional; with nil the dashboard refreshes on the tick alone.
func NewModel(dir string, store *autopilot.FileStore, interval time.Duration, watcher *fsnotify.Watcher) Model {
	iterProg := progress.New(
		progress.WithGradient("#00ff00", "#ffff00"),
		progress.WithWidth(40),
	)
	taskProg := progress.New(
		progress.WithGradient("#00ffff", "#ff00ff"),
		progress.WithWidth(40),
	)

	return Model{
		dir:              dir,
		store:            store,
		interval:         interval,
		watcher:          watcher,
		iterProgress:     iterProg,
		taskProgress:     taskProg,
		iterationHistory: make([]float64, 0, historySize),
	}
}

type tickMsg time.Time
type recordMsg struct{ rec *autopilot.Record }
type fsEventMsg struct{}
type errMsg error

// Init starts the refresh loop.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tick(m.interval), loadRecord(m.store, m.dir)}
	if m.watcher != nil {
		cmds = append(cmds, waitForEvent(m.watcher))
	}
	return tea.Batch(cmds...)
}

func tick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func loadRecord(store *autopilot.FileStore, dir string) tea.Cmd {
	return func() tea.Msg {
		rec, err := store.Load(dir)
		if err != nil {
			return errMsg(err)
		}
		return recordMsg{rec: rec}
	}
}

// waitForEvent blocks on the watcher's channels until the state file
// changes. Create/write/rename all mean "reload"; the atomic save renames
// over the live file.
func waitForEvent(w *fsnotify.Watcher) tea.Cmd {
	return func() tea.Msg {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return nil
				}
				if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) != 0 {
					return fsEventMsg{}
				}
			case err, ok := <-w.Errors:
				if !ok {
					return nil
				}
				return errMsg(err)
			}
		}
	}
}

// Update handles dashboard messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "r":
			return m, loadRecord(m.store, m.dir)
		}

	case tickMsg:
		return m, tea.Batch(tick(m.interval), loadRecord(m.store, m.dir))

	case fsEventMsg:
		return m, tea.Batch(loadRecord(m.store, m.dir), waitForEvent(m.watcher))

	case recordMsg:
		m.rec = msg.rec
		m.lastUpdate = time.Now()
		m.err = nil
		if msg.rec != nil {
			m.iterationHistory = appendToHistory(m.iterationHistory, float64(msg.rec.Iteration))
		}
		return m, nil

	case errMsg:
		m.err = error(msg)
		return m, nil
	}

	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.err != nil {
		return m.renderError()
	}
	if m.rec == nil {
		return m.renderNoRun()
	}
	return m.renderRun()
}

func (m Model) renderError() string {
	header := headerStyle.Render("omcc autopilot watch")
	content := "\n" +
		failedStyle.Render("cannot read run state") + "\n\n" +
		dimStyle.Render("Dir: ") + valueStyle.Render(m.dir) + "\n" +
		dimStyle.Render("Error: ") + failedStyle.Render(m.err.Error()) + "\n" +
		footerStyle.Render("[q] quit  [r] retry") + "\n"
	return containerStyle.Render(header + "\n" + content)
}

func (m Model) renderNoRun() string {
	header := headerStyle.Render("omcc autopilot watch")
	content := "\n" +
		dimStyle.Render("No run in ") + valueStyle.Render(m.dir) + "\n" +
		dimStyle.Render("Start one with: omcc autopilot start \"<task>\"") + "\n" +
		footerStyle.Render("[q] quit  [r] refresh") + "\n"
	return containerStyle.Render(header + "\n" + content)
}

func (m Model) renderRun() string {
	rec := m.rec
	header := headerStyle.Render("omcc autopilot watch")

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Run ") + valueStyle.Render(rec.RunID))
	b.WriteString(dimStyle.Render("  started " + rec.StartedAt.Format("15:04:05")))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Task ") + valueStyle.Render(truncate(rec.OriginalIdea, 60)))
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("Phases"))
	b.WriteString("\n" + phaseTrail(rec.Phase, rec.FailedFrom) + "\n")

	b.WriteString(sectionStyle.Render("Iterations"))
	b.WriteString("\n")
	iterPct := float64(rec.Iteration) / float64(rec.MaxIterations)
	b.WriteString(m.iterProgress.ViewAs(iterPct))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %d/%d", rec.Iteration, rec.MaxIterations)))
	b.WriteString("\n" + renderSparkline(m.iterationHistory) + "\n")

	if rec.Execution.TasksTotal > 0 {
		b.WriteString(sectionStyle.Render("Tasks"))
		b.WriteString("\n")
		taskPct := float64(rec.Execution.TasksCompleted) / float64(rec.Execution.TasksTotal)
		b.WriteString(m.taskProgress.ViewAs(taskPct))
		b.WriteString(dimStyle.Render(fmt.Sprintf("  %d/%d", rec.Execution.TasksCompleted, rec.Execution.TasksTotal)))
		b.WriteString("\n")
	}

	if !m.lastUpdate.IsZero() {
		b.WriteString(dimStyle.Render("\nupdated " + m.lastUpdate.Format("15:04:05")))
	}
	b.WriteString(footerStyle.Render("\n[q] quit  [r] refresh"))
	b.WriteString("\n")

	return containerStyle.Render(header + "\n" + b.String())
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}

func appendToHistory(history []float64, value float64) []float64 {
	history = append(history, value)
	if len(history) > historySize {
		history = history[1:]
	}
	return history
}

func renderSparkline(data []float64) string {
	if len(data) == 0 {
		return dimStyle.Render(fmt.Sprintf("%*s", sparklineWidth, "no data"))
	}
	spark := sparkline.New(sparklineWidth, sparklineHeight)
	for _, v := range data {
		spark.Push(v)
	}
	return sparklineStyle.Render(spark.View())
}

func phaseTrail(current, failedFrom autopilot.Phase) string {
	var parts []string
	reached := false
	for _, p := range autopilot.WorkPhases() {
		switch {
		case current == autopilot.PhaseFailed && p == failedFrom:
			parts = append(parts, failedStyle.Render("✗ "+string(p)))
			reached = true
		case p == current:
			parts = append(parts, currentStyle.Render("● "+string(p)))
			reached = true
		case !reached:
			parts = append(parts, doneStyle.Render("✓ "+string(p)))
		default:
			parts = append(parts, dimStyle.Render("○ "+string(p)))
		}
	}
	trail := strings.Join(parts, dimStyle.Render(" » "))
	switch current {
	case autopilot.PhaseComplete:
		trail += "  " + doneStyle.Render("✓ COMPLETE")
	case autopilot.PhaseFailed:
		trail += "  " + failedStyle.Render("✗ FAILED")
	}
	return trail
}
