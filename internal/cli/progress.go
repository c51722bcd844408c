package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/raphaelgruber/regextract/internal/models"
	"github.com/raphaelgruber/regextract/internal/service"
)

// recentLines is how many finished files the progress view lists.
const recentLines = 5

// Theme holds the color scheme for the progress display.
type Theme struct {
	Status  lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Status:  lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Warning: lipgloss.Color("#FFAF00"), // amber
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) warningStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Warning)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// outcomeStyle colors a run status.
func (t Theme) outcomeStyle(status models.RunStatus) lipgloss.Style {
	switch status {
	case models.StatusSuccess:
		return t.completedStyle()
	case models.StatusPartialSuccess, models.StatusNoData, models.StatusEmpty, models.StatusSkipped:
		return t.warningStyle()
	default:
		return t.errorStyle()
	}
}

// fileStartedMsg and fileFinishedMsg mirror service.Observer events.
type fileStartedMsg struct {
	index, total int
	file         string
}

type fileFinishedMsg struct {
	index, total int
	rec          models.RunRecord
}

// batchDoneMsg is sent once the batch runner returned.
type batchDoneMsg struct{}

// programObserver forwards batch events to a running bubbletea program.
type programObserver struct {
	p *tea.Program
}

func (o programObserver) FileStarted(index, total int, file string) {
	o.p.Send(fileStartedMsg{index: index, total: total, file: file})
}

func (o programObserver) FileFinished(index, total int, rec models.RunRecord) {
	o.p.Send(fileFinishedMsg{index: index, total: total, rec: rec})
}

// lineObserver prints one line per finished file when no TTY is attached.
type lineObserver struct{}

func (lineObserver) FileStarted(index, total int, file string) {}

func (lineObserver) FileFinished(index, total int, rec models.RunRecord) {
	fmt.Printf("[%d/%d] %s: %s\n", index+1, total, rec.File, rec.Outcome())
}

// progressModel is the bubbletea model for a batch run.
type progressModel struct {
	cancel   context.CancelFunc
	progress progress.Model
	theme    Theme
	started  time.Time

	total    int
	finished int
	current  string
	counts   map[models.RunStatus]int
	recent   []models.RunRecord

	done     bool
	quitting bool
}

// newProgressModel creates a progress model. cancel interrupts the batch.
func newProgressModel(cancel context.CancelFunc) progressModel {
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)

	return progressModel{
		cancel:   cancel,
		progress: prog,
		theme:    defaultTheme,
		started:  time.Now(),
		counts:   make(map[models.RunStatus]int),
	}
}

// Init returns the initial command.
func (m progressModel) Init() tea.Cmd {
	return m.progress.Init()
}

// Update handles messages and returns the updated model.
func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			// The batch stops at the next suspension point and sends
			// batchDoneMsg.
			m.quitting = true
			m.cancel()
		}

	case fileStartedMsg:
		m.total = msg.total
		m.current = msg.file

	case fileFinishedMsg:
		m.total = msg.total
		m.finished++
		m.current = ""
		m.counts[msg.rec.Status]++
		m.recent = append(m.recent, msg.rec)
		if len(m.recent) > recentLines {
			m.recent = m.recent[len(m.recent)-recentLines:]
		}

	case batchDoneMsg:
		m.done = true
		return m, tea.Quit

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress display.
func (m progressModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

// renderContent builds the display string.
func (m progressModel) renderContent() string {
	if m.done {
		return m.finalView()
	}

	var b strings.Builder

	var pct float64
	if m.total > 0 {
		pct = float64(m.finished) / float64(m.total)
	}
	status := m.theme.statusStyle().Render("[running]")
	if m.quitting {
		status = m.theme.warningStyle().Render("[stopping]")
	}
	fmt.Fprintf(&b, "%s %s %d/%d files  %s\n",
		status, m.progress.ViewAs(pct), m.finished, m.total,
		time.Since(m.started).Truncate(time.Second))

	for _, rec := range m.recent {
		fmt.Fprintf(&b, "  %s %s\n", m.theme.outcomeStyle(rec.Status).Render(rec.Outcome()), rec.File)
	}
	if m.current != "" {
		fmt.Fprintf(&b, "  %s %s\n", m.theme.statusStyle().Render("extracting"), m.current)
	}

	b.WriteString(m.theme.hintStyle().Render("Press Ctrl+C to interrupt the run"))
	b.WriteString("\n")
	return b.String()
}

// finalView renders the completion message.
func (m progressModel) finalView() string {
	if m.quitting {
		return m.theme.warningStyle().Render(fmt.Sprintf("Interrupted after %d/%d files.\n", m.finished, m.total))
	}
	return m.theme.completedStyle().Render(fmt.Sprintf("✓ Processed %d files\n", m.finished))
}

// runWithProgress runs a batch behind the interactive progress UI.
// Ctrl+C cancels the batch; the partial result is still returned.
func runWithProgress(ctx context.Context, run func(context.Context, service.Observer) (*service.BatchResult, error)) (*service.BatchResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newProgressModel(cancel))

	var (
		result *service.BatchResult
		runErr error
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		result, runErr = run(ctx, programObserver{p: p})
		p.Send(batchDoneMsg{})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-done
		return result, fmt.Errorf("progress UI error: %w", err)
	}
	<-done
	return result, runErr
}
