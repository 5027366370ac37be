package player

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// TransportState is the play/pause state of the media.
type TransportState int

const (
	// Stopped is the initial state: nothing has played yet.
	Stopped TransportState = iota
	Playing
	Paused
)

func (s TransportState) String() string {
	switch s {
	case Playing:
		return "Playing"
	case Paused:
		return "Paused"
	default:
		return "Stopped"
	}
}

// Transport toggles playback through a Graph, activating it on the first
// toggle so the output device is only opened from a user action.
type Transport struct {
	graph *Graph
	log   zerolog.Logger

	// serializes toggles; a second toggle waits for a pending resume
	opMu sync.Mutex

	mu    sync.Mutex
	state TransportState

	subMu  sync.Mutex
	subs   map[int]func(TransportState)
	nextID int
}

// NewTransport returns a stopped transport driving graph. When the media
// ends the transport falls back to Stopped and the next toggle reopens it.
func NewTransport(graph *Graph, log zerolog.Logger) *Transport {
	t := &Transport{graph: graph, log: log, subs: map[int]func(TransportState){}}
	graph.OnEnded(t.ended)
	return t
}

func (t *Transport) ended() {
	t.set(Stopped)
	t.log.Info().Msg("playback reached the end")
}

func (t *Transport) set(next TransportState) {
	t.mu.Lock()
	changed := t.state != next
	t.state = next
	t.mu.Unlock()
	if !changed {
		return
	}

	t.subMu.Lock()
	fns := make([]func(TransportState), 0, len(t.subs))
	for _, fn := range t.subs {
		fns = append(fns, fn)
	}
	t.subMu.Unlock()
	for _, fn := range fns {
		fn(next)
	}
}

// Subscribe registers fn for every state change, including the stop that
// follows the end of the media. The returned func unsubscribes.
func (t *Transport) Subscribe(fn func(TransportState)) (cancel func()) {
	t.subMu.Lock()
	id := t.nextID
	t.nextID++
	t.subs[id] = fn
	t.subMu.Unlock()
	return func() {
		t.subMu.Lock()
		delete(t.subs, id)
		t.subMu.Unlock()
	}
}

// State returns the current transport state.
func (t *Transport) State() TransportState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Toggle pauses when playing and plays otherwise. A suspended engine is
// resumed first; Toggle blocks until that completes. On error the state is
// left unchanged.
func (t *Transport) Toggle(ctx context.Context) (TransportState, error) {
	t.opMu.Lock()
	defer t.opMu.Unlock()

	if err := t.graph.Activate(ctx); err != nil {
		return t.State(), fmt.Errorf("activate audio: %w", err)
	}
	engine := t.graph.Engine()
	if engine.Suspended() {
		t.log.Debug().Msg("resuming suspended output")
		if err := engine.Resume(ctx); err != nil {
			return t.State(), fmt.Errorf("resume output: %w", err)
		}
	}

	next := Playing
	if t.State() == Playing {
		if err := engine.Pause(); err != nil {
			return t.State(), fmt.Errorf("pause: %w", err)
		}
		next = Paused
	} else {
		if err := engine.Play(); err != nil {
			return t.State(), fmt.Errorf("play: %w", err)
		}
	}

	t.set(next)
	t.log.Info().Stringer("state", next).Msg("transport toggled")
	return next, nil
}
