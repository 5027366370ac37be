package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	eq "github.com/edward-ap/mcmplayer/internal/equalizer"
	"github.com/edward-ap/mcmplayer/internal/install"
	"github.com/edward-ap/mcmplayer/internal/player"
	"github.com/edward-ap/mcmplayer/internal/session"
)

type stubSession struct {
	state     session.State
	selected  []eq.PresetName
	toggles   int
	saves     int
	installs  int
	toggleErr error
}

func (s *stubSession) State() session.State { return s.state }

func (s *stubSession) SelectPreset(p eq.PresetName) error {
	s.selected = append(s.selected, p)
	return nil
}

func (s *stubSession) SaveCustomPreset() error { s.saves++; return nil }

func (s *stubSession) TogglePlay(context.Context) error {
	s.toggles++
	return s.toggleErr
}

func (s *stubSession) Install(context.Context) (install.Outcome, error) {
	s.installs++
	return install.OutcomeAccepted, nil
}

func (s *stubSession) Levels(bars int) ([]float64, bool) {
	out := make([]float64, bars)
	for i := range out {
		out[i] = 1
	}
	return out, true
}

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press feeds msg and runs the resulting command, if any, feeding its
// message back in.
func press(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(Model)
	if cmd != nil {
		if out := cmd(); out != nil {
			if _, quit := out.(tea.QuitMsg); !quit {
				next, _ = m.Update(out)
				m = next.(Model)
			}
		}
	}
	return m
}

func readyStub() *stubSession {
	return &stubSession{state: session.State{Phase: session.Ready, Settings: eq.FlatSettings}}
}

func TestKeysIgnoredWhileBooting(t *testing.T) {
	s := &stubSession{}
	m := New(context.Background(), s)
	m = press(t, m, key("2"))
	m = press(t, m, key(" "))
	assert.Empty(t, s.selected)
	assert.Zero(t, s.toggles)
	assert.Contains(t, m.View(), "AUDIO PLAYER")
}

func TestPresetAndTransportKeys(t *testing.T) {
	s := readyStub()
	m := New(context.Background(), s)

	for _, k := range []string{"1", "2", "3", "4"} {
		m = press(t, m, key(k))
	}
	assert.Equal(t, []eq.PresetName{eq.Flat, eq.BassBoost, eq.VolumeExtender, eq.Custom}, s.selected)

	m = press(t, m, key(" "))
	m = press(t, m, key("s"))
	assert.Equal(t, 1, s.toggles)
	assert.Equal(t, 1, s.saves)
	assert.Empty(t, m.errText)
}

func TestToggleErrorShown(t *testing.T) {
	s := readyStub()
	s.toggleErr = errors.New("activate audio: no device")
	m := New(context.Background(), s)
	m = press(t, m, key(" "))
	assert.Contains(t, m.View(), "no device")
}

func TestInstallKeyNeedsCapability(t *testing.T) {
	s := readyStub()
	m := New(context.Background(), s)
	m = press(t, m, key("i"))
	assert.Zero(t, s.installs)
	assert.NotContains(t, m.View(), "i install")

	st := s.state
	st.Install.Available = true
	m = press(t, m, stateMsg(st))
	assert.Contains(t, m.View(), "i install")
	m = press(t, m, key("i"))
	assert.Equal(t, 1, s.installs)
}

func TestPromptAnswers(t *testing.T) {
	s := readyStub()
	m := New(context.Background(), s)

	reply := make(chan bool, 1)
	m = press(t, m, promptMsg{reply: reply})
	assert.Contains(t, m.View(), "[y/n]")

	// other keys are swallowed while the question is open
	m = press(t, m, key("2"))
	assert.Empty(t, s.selected)

	m = press(t, m, key("y"))
	require.Len(t, reply, 1)
	assert.True(t, <-reply)
	assert.NotContains(t, m.View(), "[y/n]")
}

func TestConfirmViaCancelled(t *testing.T) {
	var sent []tea.Msg
	confirm := confirmVia(func(msg tea.Msg) { sent = append(sent, msg) })
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ok, err := confirm(ctx)
	assert.False(t, ok)
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, sent, 2)
	assert.IsType(t, promptMsg{}, sent[0])
	assert.IsType(t, promptClosedMsg{}, sent[1])
}

func TestViewShowsStateAndBanner(t *testing.T) {
	s := readyStub()
	m := New(context.Background(), s)
	st := session.State{
		Phase:     session.Ready,
		Preset:    eq.BassBoost,
		Settings:  eq.Resolve(eq.BassBoost, eq.FlatSettings),
		Transport: player.Playing,
		Status:    "Playing",
		Install:   install.State{Installed: true, ShowThankYou: true},
	}
	m = press(t, m, stateMsg(st))
	m = press(t, m, tickMsg{})

	v := m.View()
	assert.Contains(t, v, "Bass Boost")
	assert.Contains(t, v, "Playing")
	assert.Contains(t, v, "Thanks for installing")
	assert.Contains(t, v, strings.Repeat("█", meterBars))
}

func TestMeterLine(t *testing.T) {
	assert.Equal(t, " ▄█", meterLine([]float64{0, 0.5, 1}))
	assert.Equal(t, "█ ", meterLine([]float64{3, -1}))
}
