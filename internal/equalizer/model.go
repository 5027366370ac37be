// Package equalizer holds the tone model: the three-parameter settings that
// drive the audio chain, the built-in presets, and the store that remembers
// the active preset and the user's custom one.
package equalizer

import (
	"fmt"
	"strings"
)

// ToneSettings is the full equalization state pushed onto the audio chain.
// Gain is a linear multiplier; Bass and Treble are shelf gains in dB.
type ToneSettings struct {
	Gain   float64 `json:"gain"`
	Bass   float64 `json:"bass"`
	Treble float64 `json:"treble"`
}

// String renders the settings the way the status line shows them.
func (s ToneSettings) String() string {
	return fmt.Sprintf("gain %.2f, bass %+.1f dB, treble %+.1f dB", s.Gain, s.Bass, s.Treble)
}

// FlatSettings is the neutral setting and the custom preset default.
var FlatSettings = ToneSettings{Gain: 1, Bass: 0, Treble: 0}

// PresetName identifies one of the four tone presets.
type PresetName int

const (
	// Flat leaves the signal untouched.
	Flat PresetName = iota
	// BassBoost lifts the low shelf and trims the highs.
	BassBoost
	// VolumeExtender raises overall level with a mild smile curve.
	VolumeExtender
	// Custom recalls the user's saved settings.
	Custom
)

// AllPresets lists presets in display order.
var AllPresets = []PresetName{Flat, BassBoost, VolumeExtender, Custom}

var presetNames = map[PresetName]string{
	Flat:           "Flat",
	BassBoost:      "Bass Boost",
	VolumeExtender: "Volume Extender",
	Custom:         "Custom",
}

// String returns the display name.
func (p PresetName) String() string {
	if s, ok := presetNames[p]; ok {
		return s
	}
	return fmt.Sprintf("PresetName(%d)", int(p))
}

// Valid reports whether p is one of the four known presets.
func (p PresetName) Valid() bool {
	_, ok := presetNames[p]
	return ok
}

// ParsePresetName performs a case-insensitive lookup that accepts display
// names ("Bass Boost") and compact identifiers ("bassboost", "bass-boost").
func ParsePresetName(s string) (PresetName, bool) {
	key := normalizeName(s)
	for _, p := range AllPresets {
		if normalizeName(p.String()) == key {
			return p, true
		}
	}
	return Flat, false
}

func normalizeName(s string) string {
	r := strings.NewReplacer(" ", "", "-", "", "_", "")
	return strings.ToLower(r.Replace(strings.TrimSpace(s)))
}

var builtinSettings = map[PresetName]ToneSettings{
	Flat:           FlatSettings,
	BassBoost:      {Gain: 1.1, Bass: 8, Treble: -2},
	VolumeExtender: {Gain: 1.4, Bass: 3, Treble: 2},
}

// Resolve maps a preset to its settings. Custom resolves to the given custom
// value; anything unrecognised resolves to Flat.
func Resolve(p PresetName, custom ToneSettings) ToneSettings {
	if p == Custom {
		return custom
	}
	if s, ok := builtinSettings[p]; ok {
		return s
	}
	return FlatSettings
}
