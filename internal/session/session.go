// Package session is the presentation model shared by the desktop and the
// terminal front ends. It consolidates every piece of UI state into one
// State value that changes through a single update path.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/edward-ap/mcmplayer/internal/dsp"
	eq "github.com/edward-ap/mcmplayer/internal/equalizer"
	"github.com/edward-ap/mcmplayer/internal/install"
	"github.com/edward-ap/mcmplayer/internal/player"
)

// BootDuration is how long the splash stays up before the controls appear.
const BootDuration = 2500 * time.Millisecond

// ErrNotReady is returned for user actions that arrive during boot.
var ErrNotReady = errors.New("player is still booting")

// Phase is the presentation phase.
type Phase int

const (
	Booting Phase = iota
	Ready
)

func (p Phase) String() string {
	if p == Ready {
		return "Ready"
	}
	return "Booting"
}

// State is everything a front end renders.
type State struct {
	Phase     Phase
	Preset    eq.PresetName
	Settings  eq.ToneSettings
	Transport player.TransportState
	// Toggling is true while a play/pause request waits on the engine.
	Toggling bool
	Install  install.State
	Status   string
}

// Options tunes a Session.
type Options struct {
	BootDelay time.Duration
	Log       zerolog.Logger
}

// Session wires the settings store, the audio graph, the transport and the
// install controller together and exposes user actions.
type Session struct {
	store     *eq.Store
	graph     *player.Graph
	transport *player.Transport
	installer *install.Controller
	launcher  *install.LauncherSource
	bootDelay time.Duration
	log       zerolog.Logger

	mu        sync.Mutex
	state     State
	started   bool
	bootTimer *time.Timer
	confirm   install.ConfirmFunc

	subMu  sync.Mutex
	subs   map[int]func(State)
	nextID int

	cancels []func()
}

// New assembles a session from its parts. launcher may be nil when the
// platform has no install support.
func New(store *eq.Store, graph *player.Graph, transport *player.Transport,
	installer *install.Controller, opts Options) *Session {
	if opts.BootDelay <= 0 {
		opts.BootDelay = BootDuration
	}
	snap := store.Snapshot()
	s := &Session{
		store:     store,
		graph:     graph,
		transport: transport,
		installer: installer,
		bootDelay: opts.BootDelay,
		log:       opts.Log,
		subs:      map[int]func(State){},
		state: State{
			Phase:     Booting,
			Preset:    snap.Preset,
			Settings:  snap.Settings,
			Transport: transport.State(),
			Install:   installer.State(),
		},
	}
	if err := graph.Apply(snap.Settings); err != nil {
		s.log.Warn().Err(err).Msg("push initial tone settings")
	}
	s.cancels = append(s.cancels,
		store.Subscribe(s.onSettings),
		installer.Subscribe(s.onInstall),
		transport.Subscribe(s.onTransport),
	)
	return s
}

// attachLauncher sets the platform install source; Start registers it.
func (s *Session) attachLauncher(l *install.LauncherSource) {
	s.launcher = l
}

func (s *Session) onSettings(snap eq.Snapshot) {
	if err := s.graph.Apply(snap.Settings); err != nil {
		s.log.Warn().Err(err).Msg("push tone settings")
	}
	s.update(func(st *State) {
		st.Preset = snap.Preset
		st.Settings = snap.Settings
	})
}

// onTransport mirrors transport changes that happen outside TogglePlay,
// such as the stop at the end of the media.
func (s *Session) onTransport(ts player.TransportState) {
	s.update(func(st *State) {
		if st.Toggling || st.Transport == ts {
			return
		}
		st.Transport = ts
		if ts == player.Stopped {
			st.Status = "Playback ended"
		}
	})
}

func (s *Session) onInstall(is install.State) {
	s.update(func(st *State) { st.Install = is })
}

// update is the single mutation path: fn edits the state under the lock and
// observers get a copy afterwards.
func (s *Session) update(fn func(*State)) {
	s.mu.Lock()
	fn(&s.state)
	st := s.state
	s.mu.Unlock()

	s.subMu.Lock()
	fns := make([]func(State), 0, len(s.subs))
	for _, f := range s.subs {
		fns = append(fns, f)
	}
	s.subMu.Unlock()
	for _, f := range fns {
		f(st)
	}
}

// State returns a copy of the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn for every state change. fn may be called from any
// goroutine; front ends hop to their UI thread themselves.
func (s *Session) Subscribe(fn func(State)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()
	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// SetConfirm installs the front end's install confirmation dialog.
func (s *Session) SetConfirm(fn install.ConfirmFunc) {
	s.mu.Lock()
	s.confirm = fn
	s.mu.Unlock()
}

func (s *Session) confirmInstall(ctx context.Context) (bool, error) {
	s.mu.Lock()
	fn := s.confirm
	s.mu.Unlock()
	if fn == nil {
		return false, errors.New("install confirmation unavailable")
	}
	return fn(ctx)
}

// Start enters Booting, registers platform signals and schedules Ready.
// Calling it again has no effect.
func (s *Session) Start() {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.bootTimer = time.AfterFunc(s.bootDelay, func() {
		s.update(func(st *State) {
			st.Phase = Ready
			st.Status = "Ready"
		})
		s.log.Info().Msg("boot finished")
	})
	s.mu.Unlock()

	s.update(func(st *State) {
		st.Phase = Booting
		st.Status = "Booting…"
	})
	if s.launcher != nil {
		s.launcher.Register(s.installer)
	}
}

func (s *Session) ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Phase == Ready
}

// SelectPreset activates a tone preset.
func (s *Session) SelectPreset(p eq.PresetName) error {
	if !s.ready() {
		return ErrNotReady
	}
	settings := s.store.ApplyPreset(p)
	s.update(func(st *State) { st.Status = fmt.Sprintf("%s: %s", st.Preset, settings) })
	return nil
}

// SaveCustomPreset stores the current settings as the custom preset. A
// persistence error is reported in the status line and returned.
func (s *Session) SaveCustomPreset() error {
	if !s.ready() {
		return ErrNotReady
	}
	_, err := s.store.SaveCustomPreset()
	if err != nil {
		s.log.Error().Err(err).Msg("save custom preset")
		s.update(func(st *State) { st.Status = "Could not save custom preset" })
		return err
	}
	s.update(func(st *State) { st.Status = "Custom preset saved!" })
	return nil
}

// TogglePlay starts or pauses playback. It blocks while a suspended output
// resumes; the first call also opens the stream.
func (s *Session) TogglePlay(ctx context.Context) error {
	if !s.ready() {
		return ErrNotReady
	}
	s.update(func(st *State) {
		st.Toggling = true
		if st.Transport == player.Stopped {
			st.Status = "Connecting…"
		}
	})
	next, err := s.transport.Toggle(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("toggle playback")
		s.update(func(st *State) {
			st.Toggling = false
			st.Transport = next
			st.Status = "Playback failed: " + err.Error()
		})
		return err
	}
	s.update(func(st *State) {
		st.Toggling = false
		st.Transport = next
		st.Status = next.String()
	})
	return nil
}

// Install runs the install prompt if one is available.
func (s *Session) Install(ctx context.Context) (install.Outcome, error) {
	if !s.ready() {
		return install.OutcomeUnavailable, ErrNotReady
	}
	out, err := s.installer.Install(ctx)
	if err != nil {
		s.update(func(st *State) { st.Status = "Install failed: " + err.Error() })
		return out, err
	}
	if out == install.OutcomeDismissed {
		s.update(func(st *State) { st.Status = "Install dismissed" })
	}
	return out, nil
}

// Levels returns `bars` RMS levels of the post-gain signal, or false when
// the engine has no analysis tap.
func (s *Session) Levels(bars int) ([]float64, bool) {
	samples, ok := s.graph.Samples(1024)
	if !ok {
		return nil, false
	}
	return dsp.Levels(samples, bars), true
}

// HasAnalyser reports whether a level meter can be shown.
func (s *Session) HasAnalyser() bool {
	_, ok := s.graph.Engine().(player.Analyser)
	return ok
}

// Close stops timers, detaches observers and releases the audio engine.
func (s *Session) Close() {
	s.mu.Lock()
	if s.bootTimer != nil {
		s.bootTimer.Stop()
	}
	s.mu.Unlock()
	for _, c := range s.cancels {
		c()
	}
	s.installer.Close()
	s.graph.Release()
}
