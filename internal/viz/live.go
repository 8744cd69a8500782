package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/driftgrid/internal/dp"
)

// TickMsg drives the live view's step cadence.
type TickMsg time.Time

// Model is a bubbletea model that steps a dynamic program live and renders
// the distribution as a heatmap.
type Model struct {
	program   *dp.DynamicProgram
	frameRate int
	running   bool
	err       error
}

// NewModel wraps a built program for live viewing. frameRate is steps per
// second.
func NewModel(program *dp.DynamicProgram, frameRate int) Model {
	if frameRate <= 0 {
		frameRate = 20
	}
	return Model{
		program:   program,
		frameRate: frameRate,
		running:   true,
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.frameRate), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "s":
			// Single step while paused.
			if !m.running && m.err == nil {
				m.err = m.program.Step()
			}
		}
	case TickMsg:
		if m.running && m.err == nil && m.program.State() != dp.StateComplete {
			m.err = m.program.Step()
		}
		return m, m.tick()
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("driftgrid live"))
	b.WriteByte('\n')
	b.WriteString(PanelStyle.Render(Heatmap(m.program.Distribution())))
	b.WriteByte('\n')

	status := StatusRunning.Render("stepping")
	switch {
	case m.err != nil:
		status = StatusDone.Render("error: " + m.err.Error())
	case m.program.State() == dp.StateComplete && m.program.Converged():
		status = StatusDone.Render("converged")
	case m.program.State() == dp.StateComplete:
		status = StatusDone.Render("complete")
	case !m.running:
		status = StatusDone.Render("paused")
	}

	peak := peakOf(m.program)
	stats := lipgloss.JoinHorizontal(lipgloss.Top,
		StatLabel.Render("step "), StatValue.Render(fmt.Sprintf("%-6d", m.program.Steps())),
		StatLabel.Render("  peak "), StatValue.Render(fmt.Sprintf("%-10.3e", peak)),
		StatLabel.Render("  absorbed "), StatValue.Render(fmt.Sprintf("%-10.3e", m.program.AbsorbedMass())),
		"  ", status,
	)
	b.WriteString(stats)
	b.WriteByte('\n')
	b.WriteString(KeyHint.Render("space pause · s step · q quit"))
	b.WriteByte('\n')

	return b.String()
}

func peakOf(p *dp.DynamicProgram) float64 {
	peak := 0.0
	for r := 0; r < p.Rows(); r++ {
		for c := 0; c < p.Cols(); c++ {
			v, _ := p.MassAt(r, c)
			if v > peak {
				peak = v
			}
		}
	}
	return peak
}

// RunLive blocks running the live view until the user quits.
func RunLive(program *dp.DynamicProgram, frameRate int) error {
	_, err := tea.NewProgram(NewModel(program, frameRate)).Run()
	return err
}
