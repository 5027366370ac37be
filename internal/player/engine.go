// Package player owns the audio engine behind the tone chain: the engine
// backends, the lazily connected graph that receives tone settings, and the
// play/pause transport.
package player

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	eq "github.com/edward-ap/mcmplayer/internal/equalizer"
)

// ErrNotConnected is returned when an engine is used before ConnectChain.
var ErrNotConnected = errors.New("audio chain not connected")

// Engine is the audio backend: a media source wired through
// bass shelf, treble shelf and gain into the output device.
type Engine interface {
	// ConnectChain builds source → bass → treble → gain → output. It is
	// called once, from a user action.
	ConnectChain(ctx context.Context) error
	// SetParameters pushes tone settings onto the live nodes.
	SetParameters(s eq.ToneSettings) error
	// Suspended reports whether the output must be resumed before playing.
	Suspended() bool
	// Resume wakes a suspended output and returns once it is running.
	Resume(ctx context.Context) error
	Play() error
	Pause() error
	// Release frees the output device and media.
	Release()
}

// Analyser is implemented by engines that expose the post-gain signal.
type Analyser interface {
	Samples(n int) []float64
}

// EndNotifier is implemented by engines whose source can run out. fn runs
// on its own goroutine once the media has finished; the engine has already
// dropped the finished chain, so the next ConnectChain opens it again.
type EndNotifier interface {
	OnEnded(fn func())
}

// Graph wraps an Engine with lazy connection and idempotent parameter pushes.
type Graph struct {
	engine Engine
	log    zerolog.Logger

	// connMu serializes ConnectChain; mu is never held across it, so Apply
	// stays quick while a connection is in progress.
	connMu sync.Mutex

	mu         sync.Mutex
	connected  bool
	pending    eq.ToneSettings
	applied    eq.ToneSettings
	hasApplied bool
	pushes     int
	onEnded    []func()
}

// NewGraph wraps engine. Nothing touches the audio device until Activate.
func NewGraph(engine Engine, log zerolog.Logger) *Graph {
	g := &Graph{engine: engine, log: log, pending: eq.FlatSettings}
	if n, ok := engine.(EndNotifier); ok {
		n.OnEnded(g.ended)
	}
	return g
}

// Engine returns the wrapped backend.
func (g *Graph) Engine() Engine { return g.engine }

// Connected reports whether the chain has been built.
func (g *Graph) Connected() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.connected
}

// Activate connects the chain on first use and pushes the latest settings.
// Later calls return immediately until the media ends.
func (g *Graph) Activate(ctx context.Context) error {
	g.connMu.Lock()
	defer g.connMu.Unlock()
	if g.Connected() {
		return nil
	}
	if err := g.engine.ConnectChain(ctx); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.connected = true
	g.log.Info().Msg("audio chain connected")
	return g.pushLocked(g.pending)
}

// Apply records s as the desired settings and pushes it when connected.
// Applying the settings already in place does nothing.
func (g *Graph) Apply(s eq.ToneSettings) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pending = s
	if !g.connected {
		return nil
	}
	return g.pushLocked(s)
}

func (g *Graph) pushLocked(s eq.ToneSettings) error {
	if g.hasApplied && g.applied == s {
		return nil
	}
	if err := g.engine.SetParameters(s); err != nil {
		return err
	}
	g.applied = s
	g.hasApplied = true
	g.pushes++
	g.log.Debug().Stringer("settings", s).Msg("parameters pushed")
	return nil
}

// OnEnded registers fn to run after the media finished and the graph went
// back to its unconnected state.
func (g *Graph) OnEnded(fn func()) {
	g.mu.Lock()
	g.onEnded = append(g.onEnded, fn)
	g.mu.Unlock()
}

// ended forgets the finished chain so the next Activate reconnects and
// pushes the pending settings onto fresh nodes.
func (g *Graph) ended() {
	g.mu.Lock()
	g.connected = false
	g.hasApplied = false
	fns := append([]func(){}, g.onEnded...)
	g.mu.Unlock()

	g.log.Info().Msg("media ended")
	for _, fn := range fns {
		fn()
	}
}

// Pushes counts parameter pushes that reached the engine.
func (g *Graph) Pushes() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pushes
}

// Samples forwards to the engine's analysis tap, if it has one.
func (g *Graph) Samples(n int) ([]float64, bool) {
	a, ok := g.engine.(Analyser)
	if !ok || !g.Connected() {
		return nil, false
	}
	return a.Samples(n), true
}

// Release frees the engine.
func (g *Graph) Release() {
	g.engine.Release()
}
