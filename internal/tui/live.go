// Package tui renders a live terminal view of a running integration:
// a scrolling trajectory chart, the current state vector, and the step
// statistics as they accumulate.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/parex-ode/parex/internal/ode"
)

var (
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	green  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	red    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// Progress is one update from the integration goroutine.
type Progress struct {
	T     float64
	Y     ode.State
	Stats ode.Stats
	Done  bool
	Err   error
}

type progressMsg Progress

type closedMsg struct{}

// Model is the bubbletea model for one live run.
type Model struct {
	problem   string
	component int
	t0, t1    float64
	ch        <-chan Progress

	cur     Progress
	history []float64
	done    bool
	err     error

	width  int
	height int
}

// NewLive builds the live view for a run over [t0, t1] that reports on ch.
// component selects which state component the chart tracks.
func NewLive(problem string, component int, t0, t1 float64, ch <-chan Progress) Model {
	return Model{
		problem:   problem,
		component: component,
		t0:        t0,
		t1:        t1,
		ch:        ch,
		history:   make([]float64, 0, 256),
		width:     80,
		height:    24,
	}
}

func waitForProgress(ch <-chan Progress) tea.Cmd {
	return func() tea.Msg {
		p, ok := <-ch
		if !ok {
			return closedMsg{}
		}
		return progressMsg(p)
	}
}

func (m Model) Init() tea.Cmd { return waitForProgress(m.ch) }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case progressMsg:
		m.cur = Progress(msg)
		if m.component < len(m.cur.Y) {
			m.history = append(m.history, m.cur.Y[m.component])
		}
		if m.cur.Err != nil {
			m.err = m.cur.Err
		}
		if m.cur.Done {
			m.done = true
		}
		return m, waitForProgress(m.ch)

	case closedMsg:
		m.done = true
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(cyan.Render(fmt.Sprintf(" %s", m.problem)))
	b.WriteString(dim.Render(fmt.Sprintf("  t=%.3f / %.3f", m.cur.T, m.t1)))
	b.WriteString("\n\n")

	if len(m.history) > 1 {
		w := m.width - 12
		if w < 20 {
			w = 20
		}
		h := m.height - 12
		if h < 5 {
			h = 5
		}
		chart := asciigraph.Plot(m.history,
			asciigraph.Height(h),
			asciigraph.Width(w),
			asciigraph.Caption(fmt.Sprintf("y%d", m.component)),
		)
		b.WriteString(chart)
		b.WriteString("\n\n")
	}

	b.WriteString(m.progressBar())
	b.WriteString("\n")
	b.WriteString(m.stateLine())
	b.WriteString("\n")
	b.WriteString(m.statsLine())
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(red.Render(" error: " + m.err.Error()))
		b.WriteString(dim.Render("  press q to quit"))
	case m.done:
		b.WriteString(green.Render(" done"))
		b.WriteString(dim.Render("  press q to quit"))
	default:
		b.WriteString(dim.Render(" integrating...  q to abort view"))
	}
	b.WriteString("\n")
	return b.String()
}

func (m Model) progressBar() string {
	frac := 0.0
	if m.t1 > m.t0 {
		frac = (m.cur.T - m.t0) / (m.t1 - m.t0)
	}
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	barWidth := m.width - 12
	if barWidth < 10 {
		barWidth = 10
	}
	filled := int(frac * float64(barWidth))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
	return fmt.Sprintf(" %s %s", green.Render(bar), white.Render(fmt.Sprintf("%3.0f%%", frac*100)))
}

func (m Model) stateLine() string {
	parts := make([]string, 0, 4)
	for i, v := range m.cur.Y {
		if i >= 4 {
			parts = append(parts, "...")
			break
		}
		parts = append(parts, fmt.Sprintf("y%d=%+.4f", i, v))
	}
	return dim.Render(" " + strings.Join(parts, "  "))
}

func (m Model) statsLine() string {
	s := m.cur.Stats
	return yellow.Render(fmt.Sprintf(" steps %d/%d rej  evals %d (seq %d)  jac %d",
		s.AcceptedSteps, s.RejectedSteps, s.TotalEvals, s.SequentialEvals, s.JacobianEvals))
}
