// Package dsp contains the streamers that make up the tone chain: shelving
// biquads and an analysis tap, all stackable on a beep.Streamer.
package dsp

import (
	"math"
	"math/cmplx"
	"sync"

	"github.com/gopxl/beep/v2"
)

// ShelfKind selects which end of the spectrum a shelf acts on.
type ShelfKind int

const (
	// LowShelf boosts or cuts below the corner frequency.
	LowShelf ShelfKind = iota
	// HighShelf boosts or cuts above the corner frequency.
	HighShelf
)

const (
	// BassCornerHz is the low-shelf corner used by the tone chain.
	BassCornerHz = 200.0
	// TrebleCornerHz is the high-shelf corner used by the tone chain.
	TrebleCornerHz = 3000.0
)

// Coefficients are normalized biquad coefficients (a0 == 1).
type Coefficients struct {
	B0, B1, B2 float64
	A1, A2     float64
}

// ShelfCoefficients computes shelf coefficients with slope 1 for the given
// corner, gain in dB and sample rate.
func ShelfCoefficients(kind ShelfKind, cornerHz, gainDB, sampleRate float64) Coefficients {
	A := math.Pow(10, gainDB/40)
	w0 := 2 * math.Pi * cornerHz / sampleRate
	cosW := math.Cos(w0)
	alpha := math.Sin(w0) / 2 * math.Sqrt2
	twoSqrtAAlpha := 2 * math.Sqrt(A) * alpha

	var b0, b1, b2, a0, a1, a2 float64
	switch kind {
	case HighShelf:
		b0 = A * ((A + 1) + (A-1)*cosW + twoSqrtAAlpha)
		b1 = -2 * A * ((A - 1) + (A+1)*cosW)
		b2 = A * ((A + 1) + (A-1)*cosW - twoSqrtAAlpha)
		a0 = (A + 1) - (A-1)*cosW + twoSqrtAAlpha
		a1 = 2 * ((A - 1) - (A+1)*cosW)
		a2 = (A + 1) - (A-1)*cosW - twoSqrtAAlpha
	default:
		b0 = A * ((A + 1) - (A-1)*cosW + twoSqrtAAlpha)
		b1 = 2 * A * ((A - 1) - (A+1)*cosW)
		b2 = A * ((A + 1) - (A-1)*cosW - twoSqrtAAlpha)
		a0 = (A + 1) + (A-1)*cosW + twoSqrtAAlpha
		a1 = -2 * ((A - 1) + (A+1)*cosW)
		a2 = (A + 1) + (A-1)*cosW - twoSqrtAAlpha
	}
	return Coefficients{B0: b0 / a0, B1: b1 / a0, B2: b2 / a0, A1: a1 / a0, A2: a2 / a0}
}

// MagnitudeDB evaluates the filter's magnitude response at freqHz.
func (c Coefficients) MagnitudeDB(freqHz, sampleRate float64) float64 {
	w := 2 * math.Pi * freqHz / sampleRate
	z1 := cmplx.Exp(complex(0, -w))
	z2 := z1 * z1
	num := complex(c.B0, 0) + complex(c.B1, 0)*z1 + complex(c.B2, 0)*z2
	den := complex(1, 0) + complex(c.A1, 0)*z1 + complex(c.A2, 0)*z2
	return 20 * math.Log10(cmplx.Abs(num/den))
}

// ShelfResponseDB is a convenience for the response of a single shelf.
func ShelfResponseDB(kind ShelfKind, cornerHz, gainDB, sampleRate, freqHz float64) float64 {
	return ShelfCoefficients(kind, cornerHz, gainDB, sampleRate).MagnitudeDB(freqHz, sampleRate)
}

// Shelf is a stereo shelving filter streamer. Gain changes are safe from any
// goroutine; filter state survives them so playback does not click.
type Shelf struct {
	input      beep.Streamer
	kind       ShelfKind
	cornerHz   float64
	sampleRate float64

	mu     sync.Mutex
	gainDB float64
	c      Coefficients

	x1, x2, y1, y2 [2]float64
}

// NewShelf wraps input with a flat (0 dB) shelf.
func NewShelf(input beep.Streamer, kind ShelfKind, cornerHz float64, sr beep.SampleRate) *Shelf {
	s := &Shelf{
		input:      input,
		kind:       kind,
		cornerHz:   cornerHz,
		sampleRate: float64(sr),
	}
	s.c = ShelfCoefficients(kind, cornerHz, 0, s.sampleRate)
	return s
}

// SetGainDB changes the shelf gain. It reports false when the gain was
// already in place and nothing was recomputed.
func (s *Shelf) SetGainDB(db float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if db == s.gainDB {
		return false
	}
	s.gainDB = db
	s.c = ShelfCoefficients(s.kind, s.cornerHz, db, s.sampleRate)
	return true
}

// GainDB returns the current shelf gain.
func (s *Shelf) GainDB() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gainDB
}

// Stream implements beep.Streamer.
func (s *Shelf) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = s.input.Stream(samples)
	s.mu.Lock()
	c := s.c
	s.mu.Unlock()
	for i := 0; i < n; i++ {
		for ch := 0; ch < 2; ch++ {
			x := samples[i][ch]
			y := c.B0*x + c.B1*s.x1[ch] + c.B2*s.x2[ch] - c.A1*s.y1[ch] - c.A2*s.y2[ch]
			s.x2[ch], s.x1[ch] = s.x1[ch], x
			s.y2[ch], s.y1[ch] = s.y1[ch], y
			samples[i][ch] = y
		}
	}
	return n, ok
}

// Err implements beep.Streamer.
func (s *Shelf) Err() error { return s.input.Err() }
