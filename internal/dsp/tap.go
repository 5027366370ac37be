package dsp

import (
	"math"
	"sync"

	"github.com/gopxl/beep/v2"
)

// Tap is a pass-through streamer that copies a mono mix of everything it
// forwards into a ring buffer, for level meters.
type Tap struct {
	s    beep.Streamer
	mu   sync.Mutex
	buf  []float64
	pos  int
	size int
}

// NewTap wraps a streamer with a ring buffer of the given size.
func NewTap(s beep.Streamer, bufSize int) *Tap {
	if bufSize < 1 {
		bufSize = 1
	}
	return &Tap{
		s:    s,
		buf:  make([]float64, bufSize),
		size: bufSize,
	}
}

// Stream passes audio through while capturing it.
func (t *Tap) Stream(samples [][2]float64) (int, bool) {
	n, ok := t.s.Stream(samples)
	t.mu.Lock()
	for i := 0; i < n; i++ {
		t.buf[t.pos] = (samples[i][0] + samples[i][1]) / 2
		t.pos = (t.pos + 1) % t.size
	}
	t.mu.Unlock()
	return n, ok
}

// Err returns the underlying streamer's error.
func (t *Tap) Err() error {
	return t.s.Err()
}

// Samples returns the last n samples in chronological order.
func (t *Tap) Samples(n int) []float64 {
	if n > t.size {
		n = t.size
	}
	if n < 0 {
		n = 0
	}
	out := make([]float64, n)
	t.mu.Lock()
	start := (t.pos - n + t.size) % t.size
	for i := 0; i < n; i++ {
		out[i] = t.buf[(start+i)%t.size]
	}
	t.mu.Unlock()
	return out
}

// Levels splits samples into `bars` consecutive windows and returns the RMS
// of each, clamped to [0, 1].
func Levels(samples []float64, bars int) []float64 {
	if bars <= 0 {
		return nil
	}
	out := make([]float64, bars)
	if len(samples) == 0 {
		return out
	}
	per := len(samples) / bars
	if per == 0 {
		per = 1
	}
	for b := 0; b < bars; b++ {
		start := b * per
		if start >= len(samples) {
			break
		}
		end := start + per
		if end > len(samples) || b == bars-1 {
			end = len(samples)
		}
		var sum float64
		for _, v := range samples[start:end] {
			sum += v * v
		}
		rms := math.Sqrt(sum / float64(end-start))
		if rms > 1 {
			rms = 1
		}
		out[b] = rms
	}
	return out
}
