package equalizer

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/edward-ap/mcmplayer/internal/storage"
)

// CustomPresetKey is the storage key of the saved custom preset.
const CustomPresetKey = "mcm_custom_preset"

// Snapshot is a consistent view of the active preset and its settings.
type Snapshot struct {
	Preset   PresetName
	Settings ToneSettings
	Custom   ToneSettings
}

// Store owns the active preset, the active settings and the custom preset.
// The preset name and settings always change together.
type Store struct {
	kv  storage.Store
	log zerolog.Logger

	mu       sync.Mutex
	preset   PresetName
	settings ToneSettings
	custom   ToneSettings

	subMu  sync.Mutex
	subs   map[int]func(Snapshot)
	nextID int
}

// NewStore loads the custom preset from kv. A missing or unreadable value
// falls back to FlatSettings; the store starts on Flat.
func NewStore(kv storage.Store, log zerolog.Logger) *Store {
	s := &Store{
		kv:       kv,
		log:      log,
		preset:   Flat,
		settings: FlatSettings,
		custom:   FlatSettings,
		subs:     map[int]func(Snapshot){},
	}
	s.custom = s.loadCustom()
	return s
}

func (s *Store) loadCustom() ToneSettings {
	if s.kv == nil {
		return FlatSettings
	}
	raw, ok, err := s.kv.Get(CustomPresetKey)
	if err != nil {
		s.log.Warn().Err(err).Msg("custom preset unreadable, using defaults")
		return FlatSettings
	}
	if !ok {
		return FlatSettings
	}
	ts, err := decodeCustom(raw)
	if err != nil {
		s.log.Warn().Err(err).Str("key", CustomPresetKey).Msg("custom preset corrupt, using defaults")
		return FlatSettings
	}
	return ts
}

// storedSettings tells a missing field apart from a zero one.
type storedSettings struct {
	Gain   *float64 `json:"gain"`
	Bass   *float64 `json:"bass"`
	Treble *float64 `json:"treble"`
}

var errIncompletePreset = errors.New("stored preset is incomplete")

// decodeCustom accepts only a complete preset with a non-negative gain.
func decodeCustom(raw []byte) (ToneSettings, error) {
	var st storedSettings
	if err := json.Unmarshal(raw, &st); err != nil {
		return ToneSettings{}, err
	}
	if st.Gain == nil || st.Bass == nil || st.Treble == nil {
		return ToneSettings{}, errIncompletePreset
	}
	if *st.Gain < 0 {
		return ToneSettings{}, fmt.Errorf("negative gain %v", *st.Gain)
	}
	return ToneSettings{Gain: *st.Gain, Bass: *st.Bass, Treble: *st.Treble}, nil
}

// Snapshot returns the current preset, settings and custom preset.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{Preset: s.preset, Settings: s.settings, Custom: s.custom}
}

// ApplyPreset activates name and returns the settings it resolved to.
// Unknown names activate Flat.
func (s *Store) ApplyPreset(name PresetName) ToneSettings {
	if !name.Valid() {
		s.log.Debug().Int("preset", int(name)).Msg("unknown preset, falling back to flat")
		name = Flat
	}
	s.mu.Lock()
	s.settings = Resolve(name, s.custom)
	s.preset = name
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.log.Info().Str("preset", name.String()).Stringer("settings", snap.Settings).Msg("preset applied")
	s.notify(snap)
	return snap.Settings
}

// SaveCustomPreset stores the active settings as the custom preset, both in
// memory and in the key-value store. The in-memory copy is updated even if
// persisting fails; the error is returned for the caller to report.
func (s *Store) SaveCustomPreset() (ToneSettings, error) {
	s.mu.Lock()
	s.custom = s.settings
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)

	if s.kv == nil {
		return snap.Custom, nil
	}
	b, err := json.Marshal(snap.Custom)
	if err != nil {
		return snap.Custom, err
	}
	if err := s.kv.Set(CustomPresetKey, b); err != nil {
		return snap.Custom, fmt.Errorf("save custom preset: %w", err)
	}
	s.log.Info().Stringer("settings", snap.Custom).Msg("custom preset saved")
	return snap.Custom, nil
}

// Subscribe registers fn to run after every change. fn runs on the caller's
// goroutine, outside the store lock. The returned func unsubscribes.
func (s *Store) Subscribe(fn func(Snapshot)) (cancel func()) {
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

func (s *Store) notify(snap Snapshot) {
	s.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}
