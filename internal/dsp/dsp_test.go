package dsp

import (
	"math"
	"testing"

	"github.com/gopxl/beep/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRate = 44100.0

func constant(v float64) beep.Streamer {
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			samples[i] = [2]float64{v, v}
		}
		return len(samples), true
	})
}

func TestShelfResponseEnds(t *testing.T) {
	tests := []struct {
		name   string
		kind   ShelfKind
		corner float64
		gain   float64
		dcDB   float64
		nyqDB  float64
	}{
		{"low +8", LowShelf, BassCornerHz, 8, 8, 0},
		{"low -6", LowShelf, BassCornerHz, -6, -6, 0},
		{"high -2", HighShelf, TrebleCornerHz, -2, 0, -2},
		{"high +5", HighShelf, TrebleCornerHz, 5, 0, 5},
		{"flat", LowShelf, BassCornerHz, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := ShelfCoefficients(tt.kind, tt.corner, tt.gain, testRate)
			assert.InDelta(t, tt.dcDB, c.MagnitudeDB(0, testRate), 1e-6)
			assert.InDelta(t, tt.nyqDB, c.MagnitudeDB(testRate/2, testRate), 1e-6)
		})
	}
}

func TestShelfResponseAtCornerIsHalfGain(t *testing.T) {
	got := ShelfResponseDB(LowShelf, BassCornerHz, 8, testRate, BassCornerHz)
	assert.InDelta(t, 4, got, 0.05)
}

func TestShelfStreamDCSteadyState(t *testing.T) {
	s := NewShelf(constant(0.25), LowShelf, BassCornerHz, beep.SampleRate(testRate))
	require.True(t, s.SetGainDB(8))

	buf := make([][2]float64, 512)
	for i := 0; i < 200; i++ {
		n, ok := s.Stream(buf)
		require.True(t, ok)
		require.Equal(t, len(buf), n)
	}
	want := 0.25 * math.Pow(10, 8.0/20)
	assert.InDelta(t, want, buf[len(buf)-1][0], 1e-4)
	assert.InDelta(t, want, buf[len(buf)-1][1], 1e-4)
}

func TestShelfSetGainIdempotent(t *testing.T) {
	s := NewShelf(constant(0), HighShelf, TrebleCornerHz, beep.SampleRate(testRate))
	assert.False(t, s.SetGainDB(0), "flat shelf starts at 0 dB")
	assert.True(t, s.SetGainDB(-2))
	assert.False(t, s.SetGainDB(-2))
	assert.Equal(t, -2.0, s.GainDB())
}

func TestTapSamplesChronological(t *testing.T) {
	next := 0.0
	src := beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			next++
			samples[i] = [2]float64{next, next}
		}
		return len(samples), true
	})
	tap := NewTap(src, 4)
	buf := make([][2]float64, 6)
	tap.Stream(buf)

	assert.Equal(t, []float64{3, 4, 5, 6}, tap.Samples(10))
	assert.Equal(t, []float64{5, 6}, tap.Samples(2))
	assert.NoError(t, tap.Err())
}

func TestLevels(t *testing.T) {
	assert.Nil(t, Levels([]float64{1}, 0))
	assert.Equal(t, []float64{0, 0}, Levels(nil, 2))

	got := Levels([]float64{0.5, -0.5, 0, 0, 3, 3}, 3)
	require.Len(t, got, 3)
	assert.InDelta(t, 0.5, got[0], 1e-9)
	assert.InDelta(t, 0, got[1], 1e-9)
	assert.InDelta(t, 1, got[2], 1e-9)
}
