// Package install manages the one-shot "install" offer: a deferred
// capability handed over by the platform, the user's decision on it, and the
// brief thank-you banner once the player is installed.
package install

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ThankYouDuration is how long the confirmation banner stays visible.
const ThankYouDuration = 4 * time.Second

// Outcome is the user's answer to the install prompt.
type Outcome int

const (
	// OutcomeUnavailable means there was no capability to prompt with.
	OutcomeUnavailable Outcome = iota
	OutcomeAccepted
	OutcomeDismissed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAccepted:
		return "accepted"
	case OutcomeDismissed:
		return "dismissed"
	default:
		return "unavailable"
	}
}

// Capability is a single-use permission to show the install prompt.
type Capability interface {
	Prompt(ctx context.Context) (Outcome, error)
}

// State is what the presentation layer needs to render install affordances.
type State struct {
	Available    bool
	Installed    bool
	ShowThankYou bool
}

// Controller tracks the deferred capability and the installed flag.
type Controller struct {
	log      zerolog.Logger
	thankYou time.Duration

	mu        sync.Mutex
	deferred  Capability
	installed bool
	showThank bool
	timer     *time.Timer

	subMu  sync.Mutex
	subs   map[int]func(State)
	nextID int
}

// NewController returns a controller with the standard banner duration.
func NewController(log zerolog.Logger) *Controller {
	return NewControllerWithDuration(log, ThankYouDuration)
}

// NewControllerWithDuration lets tests shorten the banner.
func NewControllerWithDuration(log zerolog.Logger, thankYou time.Duration) *Controller {
	return &Controller{log: log, thankYou: thankYou, subs: map[int]func(State){}}
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() State {
	return State{
		Available:    c.deferred != nil && !c.installed,
		Installed:    c.installed,
		ShowThankYou: c.showThank,
	}
}

// Offer handles the "install available" signal by holding on to the capability.
// Offers after installation are ignored.
func (c *Controller) Offer(offered Capability) {
	if offered == nil {
		return
	}
	c.mu.Lock()
	if c.installed {
		c.mu.Unlock()
		c.log.Debug().Msg("install offer ignored, already installed")
		return
	}
	c.deferred = offered
	st := c.stateLocked()
	c.mu.Unlock()
	c.log.Info().Msg("install available")
	c.notify(st)
}

// Install prompts with the held capability and reports the user's choice.
// The capability is consumed before prompting, so concurrent or repeated
// calls find nothing and return OutcomeUnavailable.
func (c *Controller) Install(ctx context.Context) (Outcome, error) {
	c.mu.Lock()
	offered := c.deferred
	c.deferred = nil
	st := c.stateLocked()
	c.mu.Unlock()
	if offered == nil {
		return OutcomeUnavailable, nil
	}
	c.notify(st)

	outcome, err := offered.Prompt(ctx)
	if err != nil {
		c.log.Warn().Err(err).Msg("install prompt failed")
		return outcome, err
	}
	c.log.Info().Stringer("outcome", outcome).Msg("install prompt answered")
	return outcome, nil
}

// MarkInstalled handles the "installed" signal: it drops any capability and
// shows the thank-you banner for the configured duration.
func (c *Controller) MarkInstalled() {
	c.mu.Lock()
	c.installed = true
	c.deferred = nil
	c.showThank = true
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.thankYou, c.hideThankYou)
	st := c.stateLocked()
	c.mu.Unlock()
	c.log.Info().Msg("installed")
	c.notify(st)
}

func (c *Controller) hideThankYou() {
	c.mu.Lock()
	if !c.showThank {
		c.mu.Unlock()
		return
	}
	c.showThank = false
	c.timer = nil
	st := c.stateLocked()
	c.mu.Unlock()
	c.notify(st)
}

// Close stops a pending banner timer.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.mu.Unlock()
}

// Subscribe registers fn for state changes. fn may run on a timer goroutine.
func (c *Controller) Subscribe(fn func(State)) (cancel func()) {
	c.subMu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.subMu.Unlock()
	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

func (c *Controller) notify(st State) {
	c.subMu.Lock()
	fns := make([]func(State), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()
	for _, fn := range fns {
		fn(st)
	}
}
