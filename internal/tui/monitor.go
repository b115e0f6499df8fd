package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/pidloop/internal/dynamo"
	"github.com/san-kum/pidloop/internal/loop"
	"github.com/san-kum/pidloop/internal/pid"
)

var (
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	green  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	red    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)

	title = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213"))
	panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("238")).
		Padding(0, 1)
)

const (
	historyLen = 120
	maxSpeed   = 64
	frameRate  = 30
)

// Options configures a live monitor.
type Options struct {
	Name  string
	Gains [3]float64
	// Nudge is the setpoint change per up/down key press.
	Nudge float64
}

type model struct {
	opts Options
	ctrl *pid.Shared
	sess *loop.Session

	setpoint float64
	last     dynamo.Sample
	pv       []float64
	sp       []float64
	out      []float64

	paused  bool
	speed   int
	faults  int
	lastErr error

	width int
}

// NewModel wires a session to a monitor. The session must be driving ctrl.
func NewModel(opts Options, ctrl *pid.Shared, sess *loop.Session) tea.Model {
	if opts.Nudge <= 0 {
		opts.Nudge = 1
	}
	sess.Endless()
	return model{
		opts:     opts,
		ctrl:     ctrl,
		sess:     sess,
		setpoint: sess.Setpoint(),
		pv:       make([]float64, 0, historyLen),
		sp:       make([]float64, 0, historyLen),
		out:      make([]float64, 0, historyLen),
		speed:    1,
		width:    80,
	}
}

// Run starts the monitor on the terminal and blocks until the user quits.
func Run(m tea.Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Init() tea.Cmd { return tick() }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tickMsg:
		if !m.paused {
			m.advance()
		}
		return m, tick()
	}
	return m, nil
}

func (m *model) advance() {
	for i := 0; i < m.speed && !m.sess.Done(); i++ {
		s, err := m.sess.Tick()
		if err != nil {
			m.faults++
			m.lastErr = err
		}
		m.last = s
		m.pv = push(m.pv, s.PV)
		m.sp = push(m.sp, s.Setpoint)
		m.out = push(m.out, s.Output)
	}
}

func push(h []float64, v float64) []float64 {
	if len(h) == historyLen {
		h = append(h[:0], h[1:]...)
	}
	return append(h, v)
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case " ", "p":
		m.paused = !m.paused
	case "+", "=":
		m.speed = min(m.speed*2, maxSpeed)
	case "-", "_":
		m.speed = max(m.speed/2, 1)
	case "up", "k":
		m.setpoint += m.opts.Nudge
		m.sess.Override(m.setpoint)
	case "down", "j":
		m.setpoint -= m.opts.Nudge
		m.sess.Override(m.setpoint)
	case "r":
		g := m.opts.Gains
		m.ctrl.Init(g[0], g[1], g[2])
		m.faults = 0
		m.lastErr = nil
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString(title.Render("pidloop") + dim.Render(" · "+m.opts.Name) + "\n\n")

	d := m.ctrl.Diagnostics()
	rows := []struct {
		label string
		value float64
	}{
		{"t", m.sess.Time()},
		{"setpoint", m.sess.Setpoint()},
		{"pv", m.last.PV},
		{"output", d.Output},
		{"error", d.Error},
		{"integral", d.Integral},
	}
	var stats strings.Builder
	for _, r := range rows {
		stats.WriteString(fmt.Sprintf("%s %s\n", dim.Render(fmt.Sprintf("%-9s", r.label)), white.Render(formatValue(r.value))))
	}
	stats.WriteString(fmt.Sprintf("%s %s\n", dim.Render(fmt.Sprintf("%-9s", "speed")), cyan.Render(fmt.Sprintf("%dx", m.speed))))
	stats.WriteString(dim.Render(fmt.Sprintf("%-9s ", "status")) + m.status())
	b.WriteString(panel.Render(stats.String()) + "\n\n")

	if len(m.pv) > 1 {
		width := max(m.width-12, 20)
		graph := asciigraph.PlotMany([][]float64{m.sp, m.pv},
			asciigraph.Height(10),
			asciigraph.Width(width),
			asciigraph.SeriesColors(asciigraph.Yellow, asciigraph.Green),
			asciigraph.Caption("setpoint (yellow) / pv (green)"),
		)
		b.WriteString(graph + "\n\n")
	}

	if m.lastErr != nil {
		b.WriteString(red.Render(m.lastErr.Error()) + "\n")
	}
	b.WriteString(dim.Render("space pause · +/- speed · ↑/↓ setpoint · r re-init · q quit"))
	return b.String()
}

func (m model) status() string {
	switch {
	case m.sess.Done():
		return red.Render("halted")
	case m.paused:
		return yellow.Render("paused")
	case m.faults > 0:
		return yellow.Render(fmt.Sprintf("running (%d faults)", m.faults))
	}
	return green.Render("running")
}

func formatValue(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return red.Render(fmt.Sprint(v))
	}
	return fmt.Sprintf("%10.4f", v)
}
