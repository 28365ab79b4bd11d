// Package tui renders a terminal status view of a running snapgrid
// engine: clock position, the active transition (if any), and the last
// few outbound messages. It is an outer-layer demo harness, not part of
// the core (spec.md §1 scopes UI out of the engine); its rendering style
// is adapted from the teacher's internal/views package.
package tui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/schollz/snapgrid/internal/clock"
	"github.com/schollz/snapgrid/internal/engine"
	"github.com/schollz/snapgrid/internal/music"
	"github.com/schollz/snapgrid/internal/store"
	"github.com/schollz/snapgrid/internal/wire"
)

const maxRecentMessages = 8

// tickMsg drives the redraw loop; it carries no playback semantics of
// its own, it only asks the view to re-read the clock/engine state.
type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(33*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Model is the bubbletea model for the status view.
type Model struct {
	clk *clock.Clock
	eng *engine.Engine
	st  *store.Store

	bar progress.Model

	mu           sync.Mutex
	lastInterp   engine.Interpolation
	haveInterp   bool
	lastComplete store.Snapshot
	completeAt   time.Time
	recent       []wire.Message

	headerStyle  lipgloss.Style
	labelStyle   lipgloss.Style
	valueStyle   lipgloss.Style
	dimStyle     lipgloss.Style
	containerStyle lipgloss.Style
}

// NewModel builds a status-view model reading from clk/eng/st. Call
// PushInterpolation/PushComplete from the engine's callbacks and
// RecordMessage from the sink to feed it live data.
func NewModel(clk *clock.Clock, eng *engine.Engine, st *store.Store) *Model {
	bar := progress.New(progress.WithDefaultGradient())
	return &Model{
		clk:            clk,
		eng:            eng,
		st:             st,
		bar:            bar,
		headerStyle:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7")),
		labelStyle:     lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		valueStyle:     lipgloss.NewStyle().Foreground(lipgloss.Color("15")),
		dimStyle:       lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		containerStyle: lipgloss.NewStyle().Padding(1, 2),
	}
}

// PushInterpolation is handed to engine.OnInterpolationUpdate.
func (m *Model) PushInterpolation(i engine.Interpolation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastInterp = i
	m.haveInterp = true
}

// PushComplete is handed to engine.OnComplete.
func (m *Model) PushComplete(s store.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastComplete = s
	m.completeAt = time.Now()
	m.haveInterp = false
}

// RecordMessage appends msg to the recent-messages ring, trimmed to
// maxRecentMessages. Meant to be wrapped around the real sink so the
// view can show what was just sent.
func (m *Model) RecordMessage(msg wire.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recent = append(m.recent, msg)
	if len(m.recent) > maxRecentMessages {
		m.recent = m.recent[len(m.recent)-maxRecentMessages:]
	}
}

func (m *Model) Init() tea.Cmd {
	return tick()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case tickMsg:
		return m, tick()
	}
	return m, nil
}

func (m *Model) View() string {
	st := m.clk.GetState()

	var b strings.Builder
	b.WriteString(m.headerStyle.Render("snapgrid"))
	b.WriteString("\n\n")

	transport := "stopped"
	if st.IsRunning {
		transport = "running"
	}
	source := "internal"
	if st.Source == clock.SourceExternal {
		source = "external"
	}
	b.WriteString(fmt.Sprintf("%s %s  %s %s  %s %.1f\n",
		m.labelStyle.Render("transport:"), m.valueStyle.Render(transport),
		m.labelStyle.Render("source:"), m.valueStyle.Render(source),
		m.labelStyle.Render("bpm:"), st.BPM))
	b.WriteString(fmt.Sprintf("%s %d  %s %d\n\n",
		m.labelStyle.Render("bar:"), st.CurrentBar,
		m.labelStyle.Render("beat:"), st.CurrentBeat))

	m.mu.Lock()
	interp, haveInterp := m.lastInterp, m.haveInterp
	lastComplete, completeAt := m.lastComplete, m.completeAt
	recent := append([]wire.Message{}, m.recent...)
	m.mu.Unlock()

	if haveInterp {
		b.WriteString(m.labelStyle.Render("transitioning: "))
		b.WriteString(m.valueStyle.Render(interp.SnapshotID))
		b.WriteString("\n")
		b.WriteString(m.bar.ViewAs(interp.Progress))
		b.WriteString("\n\n")
	} else if !completeAt.IsZero() {
		b.WriteString(m.dimStyle.Render(fmt.Sprintf("last completed: %s (%s ago)\n\n",
			lastComplete.Name, time.Since(completeAt).Round(100*time.Millisecond))))
	}

	if !m.eng.IsActive() {
		b.WriteString(m.dimStyle.Render("no active transition\n"))
	}

	b.WriteString("\n")
	b.WriteString(m.labelStyle.Render("recent messages:"))
	b.WriteString("\n")
	for _, msg := range recent {
		b.WriteString("  " + formatMessage(msg) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(m.dimStyle.Render("q to quit"))

	return m.containerStyle.Render(b.String())
}

func formatMessage(msg wire.Message) string {
	switch v := msg.(type) {
	case wire.CC:
		return fmt.Sprintf("CC  ch%-2d cc%-3d = %-3d", v.Channel, v.CC, v.Value)
	case wire.PC:
		return fmt.Sprintf("PC  ch%-2d program %-3d", v.Channel, v.Program)
	case wire.Note:
		name := music.MidiToNoteName(v.Note)
		if v.On {
			return fmt.Sprintf("NOTE ON  ch%-2d %-4s vel %-3d", v.Channel, name, v.Velocity)
		}
		return fmt.Sprintf("NOTE OFF ch%-2d %-4s", v.Channel, name)
	case wire.NRPN:
		return fmt.Sprintf("NRPN ch%-2d %d/%d = %d", v.Channel, v.MSB, v.LSB, v.Value)
	default:
		return fmt.Sprintf("%+v", msg)
	}
}
