package player

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/rs/zerolog"

	"github.com/edward-ap/mcmplayer/internal/dsp"
	eq "github.com/edward-ap/mcmplayer/internal/equalizer"
)

const (
	// speakerBuffer trades latency for robustness against decoder hiccups.
	speakerBuffer = 100 * time.Millisecond
	// tapSize holds roughly 50ms at 44.1kHz for the level meter.
	tapSize = 2048
)

// output is the device side of the chain; speakerOutput is the real one.
type output interface {
	Init(sr beep.SampleRate, bufferSize int) error
	Play(s beep.Streamer)
	Lock()
	Unlock()
	Suspend() error
	Resume() error
	Close()
}

type speakerOutput struct{}

func (speakerOutput) Init(sr beep.SampleRate, bufferSize int) error {
	return speaker.Init(sr, bufferSize)
}
func (speakerOutput) Play(s beep.Streamer) { speaker.Play(s) }
func (speakerOutput) Lock()                { speaker.Lock() }
func (speakerOutput) Unlock()              { speaker.Unlock() }
func (speakerOutput) Suspend() error       { return speaker.Suspend() }
func (speakerOutput) Resume() error        { return speaker.Resume() }
func (speakerOutput) Close()               { speaker.Close() }

// chain holds the live nodes between the decoded source and the output.
type chain struct {
	source *beep.Ctrl
	bass   *dsp.Shelf
	treble *dsp.Shelf
	gain   *effects.Gain
	tap    *dsp.Tap
}

// buildChain wires src into fresh nodes. done runs once, from the output's
// goroutine, when src is exhausted.
func buildChain(src beep.Streamer, sr beep.SampleRate, done func()) *chain {
	c := &chain{source: &beep.Ctrl{Streamer: beep.Seq(src, beep.Callback(done)), Paused: true}}
	c.bass = dsp.NewShelf(c.source, dsp.LowShelf, dsp.BassCornerHz, sr)
	c.treble = dsp.NewShelf(c.bass, dsp.HighShelf, dsp.TrebleCornerHz, sr)
	c.gain = &effects.Gain{Streamer: c.treble, Gain: 0}
	c.tap = dsp.NewTap(c.gain, tapSize)
	return c
}

// BeepEngine streams an MP3 over HTTP, decodes it in-process and runs it
// through the shelf filters and gain before the speaker.
type BeepEngine struct {
	url    string
	client *http.Client
	out    output
	log    zerolog.Logger

	mu        sync.Mutex
	chain     *chain
	stream    beep.StreamSeekCloser
	cancel    context.CancelFunc
	suspended bool
	// rate is the speaker's sample rate; zero until the first connection
	rate    beep.SampleRate
	onEnded func()
}

// NewBeepEngine returns an engine for url. A nil client uses http.DefaultClient.
func NewBeepEngine(url string, client *http.Client, log zerolog.Logger) *BeepEngine {
	if client == nil {
		client = http.DefaultClient
	}
	return &BeepEngine{url: url, client: client, out: speakerOutput{}, log: log}
}

// ConnectChain opens the stream, builds the node chain and attaches it to a
// suspended speaker. ctx bounds the connection phase only; the stream itself
// lives until it ends or Release is called.
func (e *BeepEngine) ConnectChain(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.chain != nil {
		return nil
	}

	streamCtx, cancel := context.WithCancel(context.Background())
	stop := context.AfterFunc(ctx, cancel)
	body, err := e.open(streamCtx)
	stop()
	if err != nil {
		cancel()
		return err
	}

	stream, format, err := mp3.Decode(body)
	if err != nil {
		body.Close()
		cancel()
		return fmt.Errorf("decode mp3: %w", err)
	}
	e.log.Info().
		Int("sample_rate", int(format.SampleRate)).
		Int("channels", format.NumChannels).
		Msg("stream opened")

	if err := e.attachLocked(stream, format.SampleRate, cancel); err != nil {
		stream.Close()
		cancel()
		return err
	}
	return nil
}

// attachLocked builds a chain for stream and hands it to the output, which
// starts suspended. The speaker is initialised once; a later stream with a
// different rate is resampled to it.
func (e *BeepEngine) attachLocked(stream beep.StreamSeekCloser, sr beep.SampleRate, cancel context.CancelFunc) error {
	if e.rate == 0 {
		if err := e.out.Init(sr, sr.N(speakerBuffer)); err != nil {
			return fmt.Errorf("speaker init failed: %w", err)
		}
		e.rate = sr
	}
	var src beep.Streamer = stream
	if sr != e.rate {
		src = beep.Resample(4, sr, e.rate, stream)
	}

	var c *chain
	c = buildChain(src, e.rate, func() { go e.finish(c) })
	e.out.Play(c.tap)
	if err := e.out.Suspend(); err != nil {
		e.log.Warn().Err(err).Msg("speaker suspend failed")
	} else {
		e.suspended = true
	}

	e.chain = c
	e.stream = stream
	e.cancel = cancel
	return nil
}

// OnEnded implements EndNotifier.
func (e *BeepEngine) OnEnded(fn func()) {
	e.mu.Lock()
	e.onEnded = fn
	e.mu.Unlock()
}

// finish drops c once its source ran dry, unless it was already replaced
// or released.
func (e *BeepEngine) finish(c *chain) {
	e.mu.Lock()
	if e.chain != c {
		e.mu.Unlock()
		return
	}
	e.dropChainLocked()
	fn := e.onEnded
	e.mu.Unlock()

	e.log.Info().Msg("stream finished")
	if fn != nil {
		fn()
	}
}

func (e *BeepEngine) dropChainLocked() {
	if e.stream != nil {
		_ = e.stream.Close()
		e.stream = nil
	}
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.chain = nil
}

func (e *BeepEngine) open(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.url, nil)
	if err != nil {
		return nil, fmt.Errorf("new request failed: %w", err)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", e.url, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: unexpected status %s", e.url, resp.Status)
	}
	return resp.Body, nil
}

// SetParameters implements Engine. Gain is linear; effects.Gain adds it on
// top of unity, hence the offset.
func (e *BeepEngine) SetParameters(s eq.ToneSettings) error {
	e.mu.Lock()
	c := e.chain
	e.mu.Unlock()
	if c == nil {
		return ErrNotConnected
	}
	e.out.Lock()
	c.gain.Gain = s.Gain - 1
	e.out.Unlock()
	c.bass.SetGainDB(s.Bass)
	c.treble.SetGainDB(s.Treble)
	return nil
}

// Suspended implements Engine.
func (e *BeepEngine) Suspended() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.suspended
}

// Resume implements Engine.
func (e *BeepEngine) Resume(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.suspended {
		return nil
	}
	if err := e.out.Resume(); err != nil {
		return fmt.Errorf("speaker resume failed: %w", err)
	}
	e.suspended = false
	return nil
}

// Play implements Engine.
func (e *BeepEngine) Play() error { return e.setPaused(false) }

// Pause implements Engine.
func (e *BeepEngine) Pause() error { return e.setPaused(true) }

func (e *BeepEngine) setPaused(p bool) error {
	e.mu.Lock()
	c := e.chain
	e.mu.Unlock()
	if c == nil {
		return ErrNotConnected
	}
	e.out.Lock()
	c.source.Paused = p
	e.out.Unlock()
	return nil
}

// Samples implements Analyser.
func (e *BeepEngine) Samples(n int) []float64 {
	e.mu.Lock()
	c := e.chain
	e.mu.Unlock()
	if c == nil {
		return nil
	}
	return c.tap.Samples(n)
}

// Release implements Engine.
func (e *BeepEngine) Release() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.chain == nil && e.rate == 0 {
		return
	}
	e.out.Close()
	e.dropChainLocked()
	e.rate = 0
}
