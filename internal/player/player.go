package player

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	vlc "github.com/adrg/libvlc-go/v3"
	"github.com/rs/zerolog"

	"github.com/edward-ap/mcmplayer/internal/dsp"
	eq "github.com/edward-ap/mcmplayer/internal/equalizer"
)

const (
	// vlcAmpLimit is libVLC's accepted range for preamp and band amplitudes.
	vlcAmpLimit = 20.0
	// vlcResponseRate is the rate used to evaluate shelf responses at the
	// equalizer's band centres.
	vlcResponseRate = 48000.0
)

// VLCEngine hands streaming and decoding to libVLC and emulates the shelf
// chain with libVLC's graphic equalizer: each band receives the combined
// shelf response at its centre frequency and the linear gain becomes the
// preamp.
type VLCEngine struct {
	url string
	log zerolog.Logger

	p     *vlc.Player
	media *vlc.Media
	eq    *vlc.Equalizer
	bands []float64

	endEvent vlc.EventID
	hasEvent bool

	// single lock guarding all C/libVLC invocations
	vlcMu sync.Mutex

	endMu   sync.Mutex
	onEnded func()
}

// NewVLCEngine constructs an engine for url without touching libVLC.
func NewVLCEngine(url string, log zerolog.Logger) *VLCEngine {
	return &VLCEngine{url: url, log: log}
}

// ConnectChain initialises libVLC (plugin path, caching arguments), loads the
// media and attaches a flat equalizer.
func (e *VLCEngine) ConnectChain(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.vlcMu.Lock()
	defer e.vlcMu.Unlock()
	if e.p != nil {
		return nil
	}

	// Provide plugin path via ENV when a plugins folder ships next to the binary.
	if exe, err := os.Executable(); err == nil {
		plugins := filepath.Join(filepath.Dir(exe), "plugins")
		if st, err := os.Stat(plugins); err == nil && st.IsDir() {
			_ = os.Setenv("VLC_PLUGIN_PATH", plugins)
		}
	}

	args := []string{
		"--no-video",
		"--no-color",
		"--network-caching=1500",
		"--http-reconnect",
	}
	if isTraceLoggingEnabled() {
		args = append(args,
			"--verbose=2",
			"--file-logging",
			"--log-verbose=2",
			"--logfile=vlc.log",
		)
	}
	if err := vlc.Init(args...); err != nil {
		return fmt.Errorf("libvlc init failed: %w", err)
	}
	e.log.Info().Str("version", vlc.Version().String()).Msg("libvlc initialised")

	player, err := vlc.NewPlayer()
	if err != nil {
		vlc.Release()
		return fmt.Errorf("new vlc player failed: %w", err)
	}

	m, err := vlc.NewMediaFromURL(strings.TrimSpace(e.url))
	if err != nil {
		player.Release()
		vlc.Release()
		return fmt.Errorf("new media from url failed: %w", err)
	}
	_ = m.AddOptions(":network-caching=1500", ":http-reconnect")
	if err := player.SetMedia(m); err != nil {
		m.Release()
		player.Release()
		vlc.Release()
		return fmt.Errorf("set media failed: %w", err)
	}

	equalizer, err := vlc.NewEqualizer()
	if err != nil {
		m.Release()
		player.Release()
		vlc.Release()
		return fmt.Errorf("new equalizer failed: %w", err)
	}
	n := int(vlc.EqualizerBandCount())
	bands := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		bands = append(bands, vlc.EqualizerBandFrequency(uint(i)))
	}

	_ = player.SetVolume(100)
	e.p, e.media, e.eq, e.bands = player, m, equalizer, bands
	e.watchEnd()
	return e.p.SetEqualizer(e.eq)
}

// watchEnd forwards libVLC's end-of-media event. The callback runs on a
// libVLC thread, so the handler is dispatched on its own goroutine and never
// calls back into the player from there.
func (e *VLCEngine) watchEnd() {
	em, err := e.p.EventManager()
	if err != nil {
		e.log.Warn().Err(err).Msg("no vlc event manager")
		return
	}
	id, err := em.Attach(vlc.MediaPlayerEndReached, func(vlc.Event, interface{}) {
		e.endMu.Lock()
		fn := e.onEnded
		e.endMu.Unlock()
		if fn != nil {
			go fn()
		}
	}, nil)
	if err != nil {
		e.log.Warn().Err(err).Msg("attach end-of-media event")
		return
	}
	e.endEvent, e.hasEvent = id, true
}

// OnEnded implements EndNotifier. libVLC keeps the media loaded, so the next
// Play starts it from the beginning.
func (e *VLCEngine) OnEnded(fn func()) {
	e.endMu.Lock()
	e.onEnded = fn
	e.endMu.Unlock()
}

// BandAmps converts tone settings to a preamp and per-band amplitudes (dB)
// for a graphic equalizer with the given band centres. Values are clamped
// to libVLC's ±20 dB range.
func BandAmps(bands []float64, s eq.ToneSettings) (preamp float64, amps []float64) {
	preamp = -vlcAmpLimit
	if s.Gain > 0 {
		preamp = clampDB(20 * math.Log10(s.Gain))
	}
	amps = make([]float64, len(bands))
	for i, f := range bands {
		db := dsp.ShelfResponseDB(dsp.LowShelf, dsp.BassCornerHz, s.Bass, vlcResponseRate, f) +
			dsp.ShelfResponseDB(dsp.HighShelf, dsp.TrebleCornerHz, s.Treble, vlcResponseRate, f)
		amps[i] = clampDB(db)
	}
	return preamp, amps
}

func clampDB(v float64) float64 {
	if v < -vlcAmpLimit {
		return -vlcAmpLimit
	}
	if v > vlcAmpLimit {
		return vlcAmpLimit
	}
	return v
}

// SetParameters implements Engine.
func (e *VLCEngine) SetParameters(s eq.ToneSettings) error {
	e.vlcMu.Lock()
	defer e.vlcMu.Unlock()
	if e.p == nil || e.eq == nil {
		return ErrNotConnected
	}
	preamp, amps := BandAmps(e.bands, s)
	if err := e.eq.SetPreampValue(preamp); err != nil {
		return err
	}
	for i, v := range amps {
		if err := e.eq.SetAmpValueAtIndex(v, uint(i)); err != nil {
			return err
		}
	}
	// libVLC copies equalizer settings, so changes need re-applying.
	return e.p.SetEqualizer(e.eq)
}

// Suspended implements Engine. libVLC opens its output on play, so there is
// nothing to wake up.
func (e *VLCEngine) Suspended() bool { return false }

// Resume implements Engine.
func (e *VLCEngine) Resume(ctx context.Context) error { return ctx.Err() }

// Play starts or resumes playback.
func (e *VLCEngine) Play() error {
	e.vlcMu.Lock()
	defer e.vlcMu.Unlock()
	if e.p == nil {
		return ErrNotConnected
	}
	if err := e.p.Play(); err != nil {
		return fmt.Errorf("play failed: %w", err)
	}
	return nil
}

// Pause pauses playback, keeping the media loaded.
func (e *VLCEngine) Pause() error {
	e.vlcMu.Lock()
	defer e.vlcMu.Unlock()
	if e.p == nil {
		return ErrNotConnected
	}
	return e.p.SetPause(true)
}

// Release frees libVLC resources.
func (e *VLCEngine) Release() {
	e.vlcMu.Lock()
	defer e.vlcMu.Unlock()
	if e.p == nil {
		return
	}
	if e.hasEvent {
		if em, err := e.p.EventManager(); err == nil {
			em.Detach(e.endEvent)
		}
		e.hasEvent = false
	}
	_ = e.p.Stop()
	e.p.Release()
	e.p = nil
	if e.media != nil {
		e.media.Release()
		e.media = nil
	}
	if e.eq != nil {
		e.eq.Release()
		e.eq = nil
	}
	vlc.Release()
}
