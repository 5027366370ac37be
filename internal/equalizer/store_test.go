package equalizer

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edward-ap/mcmplayer/internal/storage"
)

type failingStore struct{ storage.Store }

func (failingStore) Set(string, []byte) error { return errors.New("disk full") }

func TestFreshSessionCustomDefaults(t *testing.T) {
	s := NewStore(storage.NewMemoryStore(), zerolog.Nop())

	snap := s.Snapshot()
	assert.Equal(t, Flat, snap.Preset)
	assert.Equal(t, FlatSettings, snap.Settings)
	assert.Equal(t, FlatSettings, snap.Custom)

	assert.Equal(t, ToneSettings{Gain: 1, Bass: 0, Treble: 0}, s.ApplyPreset(Custom))
	assert.Equal(t, Custom, s.Snapshot().Preset)
}

func TestApplyPresetUpdatesNameAndSettingsTogether(t *testing.T) {
	s := NewStore(nil, zerolog.Nop())
	var seen []Snapshot
	cancel := s.Subscribe(func(snap Snapshot) { seen = append(seen, snap) })
	defer cancel()

	got := s.ApplyPreset(BassBoost)
	assert.Equal(t, ToneSettings{Gain: 1.1, Bass: 8, Treble: -2}, got)
	got = s.ApplyPreset(VolumeExtender)
	assert.Equal(t, ToneSettings{Gain: 1.4, Bass: 3, Treble: 2}, got)

	require.Len(t, seen, 2)
	assert.Equal(t, BassBoost, seen[0].Preset)
	assert.Equal(t, Resolve(BassBoost, FlatSettings), seen[0].Settings)
	assert.Equal(t, VolumeExtender, seen[1].Preset)
	assert.Equal(t, Resolve(VolumeExtender, FlatSettings), seen[1].Settings)
}

func TestApplyUnknownPresetFallsBackToFlat(t *testing.T) {
	s := NewStore(nil, zerolog.Nop())
	s.ApplyPreset(BassBoost)
	got := s.ApplyPreset(PresetName(17))
	assert.Equal(t, FlatSettings, got)
	assert.Equal(t, Flat, s.Snapshot().Preset)
}

func TestSaveThenApplyCustomRoundTrip(t *testing.T) {
	kv := storage.NewMemoryStore()
	s := NewStore(kv, zerolog.Nop())
	s.ApplyPreset(VolumeExtender)

	saved, err := s.SaveCustomPreset()
	require.NoError(t, err)
	assert.Equal(t, ToneSettings{Gain: 1.4, Bass: 3, Treble: 2}, saved)

	s.ApplyPreset(Flat)
	assert.Equal(t, saved, s.ApplyPreset(Custom))

	raw, ok, err := kv.Get(CustomPresetKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"gain":1.4,"bass":3,"treble":2}`, string(raw))

	// a new session sees the persisted value
	next := NewStore(kv, zerolog.Nop())
	assert.Equal(t, saved, next.Snapshot().Custom)
	assert.Equal(t, saved, next.ApplyPreset(Custom))
}

func TestSaveOverwritesPrevious(t *testing.T) {
	kv := storage.NewMemoryStore()
	s := NewStore(kv, zerolog.Nop())
	s.ApplyPreset(BassBoost)
	_, err := s.SaveCustomPreset()
	require.NoError(t, err)
	s.ApplyPreset(Flat)
	_, err = s.SaveCustomPreset()
	require.NoError(t, err)

	raw, _, _ := kv.Get(CustomPresetKey)
	var ts ToneSettings
	require.NoError(t, json.Unmarshal(raw, &ts))
	assert.Equal(t, FlatSettings, ts)
}

func TestCorruptStoredPresetFallsBack(t *testing.T) {
	for _, raw := range []string{
		"{gain:",
		"null",
		"{}",
		`{"bass":3}`,
		`{"gain":1.2,"bass":3}`,
		`{"gain":-1,"bass":0,"treble":0}`,
		`[1,0,0]`,
	} {
		t.Run(raw, func(t *testing.T) {
			kv := storage.NewMemoryStore()
			require.NoError(t, kv.Set(CustomPresetKey, []byte(raw)))
			s := NewStore(kv, zerolog.Nop())
			assert.Equal(t, FlatSettings, s.Snapshot().Custom)
			assert.Equal(t, FlatSettings, s.ApplyPreset(Custom))
		})
	}
}

func TestStoredPresetWithZeroFieldsLoads(t *testing.T) {
	kv := storage.NewMemoryStore()
	require.NoError(t, kv.Set(CustomPresetKey, []byte(`{"gain":0,"bass":0,"treble":-4}`)))
	s := NewStore(kv, zerolog.Nop())
	assert.Equal(t, ToneSettings{Gain: 0, Bass: 0, Treble: -4}, s.ApplyPreset(Custom))
}

func TestSaveReportsPersistenceError(t *testing.T) {
	s := NewStore(failingStore{storage.NewMemoryStore()}, zerolog.Nop())
	s.ApplyPreset(BassBoost)
	saved, err := s.SaveCustomPreset()
	require.Error(t, err)
	// the session still uses the new custom value
	assert.Equal(t, saved, s.ApplyPreset(Custom))
}

func TestUnsubscribe(t *testing.T) {
	s := NewStore(nil, zerolog.Nop())
	calls := 0
	cancel := s.Subscribe(func(Snapshot) { calls++ })
	s.ApplyPreset(Flat)
	cancel()
	s.ApplyPreset(BassBoost)
	assert.Equal(t, 1, calls)
}
