// Package tui is the terminal front end: the same session state as the
// desktop window, rendered with lipgloss and driven by bubbletea.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	eq "github.com/edward-ap/mcmplayer/internal/equalizer"
	"github.com/edward-ap/mcmplayer/internal/install"
	"github.com/edward-ap/mcmplayer/internal/player"
	"github.com/edward-ap/mcmplayer/internal/session"
)

const (
	meterBars    = 24
	tickInterval = 60 * time.Millisecond
)

// Session is what the terminal view drives.
type Session interface {
	State() session.State
	SelectPreset(eq.PresetName) error
	SaveCustomPreset() error
	TogglePlay(ctx context.Context) error
	Install(ctx context.Context) (install.Outcome, error)
	Levels(bars int) ([]float64, bool)
}

type stateMsg session.State
type tickMsg time.Time
type actionDoneMsg struct{ err error }

// promptMsg asks the user the install question; the answer goes to reply.
type promptMsg struct{ reply chan<- bool }
type promptClosedMsg struct{}

// Model is the bubbletea model.
type Model struct {
	ctx     context.Context
	sess    Session
	state   session.State
	frame   int
	width   int
	levels  []float64
	prompt  chan<- bool
	errText string
}

// New returns a model for sess. ctx bounds the blocking actions it starts.
func New(ctx context.Context, sess Session) Model {
	return Model{ctx: ctx, sess: sess, state: sess.State()}
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("231"))
	accentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	activeStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("16")).Background(lipgloss.Color("39")).Padding(0, 1)
	presetStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Padding(0, 1)
	bannerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("231")).Background(lipgloss.Color("28")).Padding(0, 1)
	promptStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))
	splashStyle  = lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).BorderForeground(lipgloss.Color("39")).Padding(1, 4)
	meterStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("45"))
	playingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	waitStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

var meterGlyphs = []rune(" ▁▂▃▄▅▆▇█")

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd { return tick() }

// Update implements tea.Model. Session calls run as commands so that the
// observer's Send never waits on this loop.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tickMsg:
		m.frame++
		if m.state.Transport == player.Playing {
			if lv, ok := m.sess.Levels(meterBars); ok {
				m.levels = lv
			}
		} else {
			m.levels = nil
		}
		return m, tick()

	case stateMsg:
		m.state = session.State(msg)

	case actionDoneMsg:
		m.errText = ""
		if msg.err != nil && !errors.Is(msg.err, session.ErrNotReady) && !errors.Is(msg.err, context.Canceled) {
			m.errText = msg.err.Error()
		}

	case promptMsg:
		m.prompt = msg.reply

	case promptClosedMsg:
		m.prompt = nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" || key == "q" {
		m.answer(false)
		return m, tea.Quit
	}
	if m.prompt != nil {
		switch key {
		case "y", "Y":
			m.answer(true)
		case "n", "N", "esc":
			m.answer(false)
		}
		return m, nil
	}
	if m.state.Phase != session.Ready {
		return m, nil
	}

	switch key {
	case "1", "2", "3", "4":
		p := eq.AllPresets[key[0]-'1']
		return m, m.run(func() error { return m.sess.SelectPreset(p) })
	case " ":
		return m, m.run(func() error { return m.sess.TogglePlay(m.ctx) })
	case "s":
		return m, m.run(m.sess.SaveCustomPreset)
	case "i":
		if !m.state.Install.Available {
			return m, nil
		}
		return m, m.run(func() error {
			_, err := m.sess.Install(m.ctx)
			return err
		})
	}
	return m, nil
}

func (m *Model) answer(ok bool) {
	if m.prompt == nil {
		return
	}
	m.prompt <- ok
	m.prompt = nil
}

func (m Model) run(fn func() error) tea.Cmd {
	return func() tea.Msg { return actionDoneMsg{err: fn()} }
}

// View implements tea.Model.
func (m Model) View() string {
	if m.state.Phase == session.Booting {
		return m.viewSplash()
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("MCM Audio Player"))
	b.WriteString("\n\n")

	presets := make([]string, 0, len(eq.AllPresets))
	for i, p := range eq.AllPresets {
		label := fmt.Sprintf("%d %s", i+1, p)
		if p == m.state.Preset {
			presets = append(presets, activeStyle.Render(label))
		} else {
			presets = append(presets, presetStyle.Render(label))
		}
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, presets...))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.state.Settings.String()))
	b.WriteString("\n\n")

	b.WriteString(m.viewTransport())
	b.WriteString("\n")
	if len(m.levels) > 0 {
		b.WriteString(meterStyle.Render(meterLine(m.levels)))
		b.WriteString("\n")
	}
	b.WriteString(accentStyle.Render(m.state.Status))
	b.WriteString("\n")
	if m.errText != "" {
		b.WriteString(errStyle.Render(m.errText))
		b.WriteString("\n")
	}

	if m.state.Install.ShowThankYou {
		b.WriteString("\n")
		b.WriteString(bannerStyle.Render("Thanks for installing MCM Audio Player!"))
		b.WriteString("\n")
	}
	if m.prompt != nil {
		b.WriteString("\n")
		b.WriteString(promptStyle.Render("Add MCM Audio Player to your applications menu? [y/n]"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	help := "1-4 preset · space play/pause · s save custom"
	if m.state.Install.Available {
		help += " · i install"
	}
	help += " · q quit"
	b.WriteString(dimStyle.Render(help))
	return b.String()
}

func (m Model) viewSplash() string {
	dots := strings.Repeat("•", m.frame/8%4)
	body := lipgloss.JoinVertical(lipgloss.Center,
		titleStyle.Render("M C M"),
		accentStyle.Render("AUDIO PLAYER"),
		dimStyle.Render(fmt.Sprintf("%-3s", dots)),
	)
	box := splashStyle.Render(body)
	if m.width > 0 {
		return lipgloss.PlaceHorizontal(m.width, lipgloss.Center, box)
	}
	return box
}

func (m Model) viewTransport() string {
	switch {
	case m.state.Toggling:
		return waitStyle.Render("◌ …")
	case m.state.Transport == player.Playing:
		return playingStyle.Render("● Playing") + dimStyle.Render("  [space] pause")
	case m.state.Transport == player.Paused:
		return dimStyle.Render("○ Paused   [space] play")
	default:
		return dimStyle.Render("○ Stopped  [space] play")
	}
}

func meterLine(levels []float64) string {
	top := len(meterGlyphs) - 1
	out := make([]rune, len(levels))
	for i, v := range levels {
		idx := int(v*float64(top) + 0.5)
		if idx < 0 {
			idx = 0
		}
		if idx > top {
			idx = top
		}
		out[i] = meterGlyphs[idx]
	}
	return string(out)
}
