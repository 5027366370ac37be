package equalizer

import "testing"

func TestAllPresetsCount(t *testing.T) {
	const expected = 4
	if len(AllPresets) != expected {
		t.Fatalf("expected %d presets, got %d", expected, len(AllPresets))
	}
	for i, p := range AllPresets {
		if !p.Valid() {
			t.Fatalf("preset %d is not valid", i)
		}
		if p.String() == "" {
			t.Fatalf("preset %d has empty name", i)
		}
	}
}

func TestResolveBuiltins(t *testing.T) {
	custom := ToneSettings{Gain: 0.7, Bass: -3, Treble: 5}
	tests := []struct {
		preset PresetName
		want   ToneSettings
	}{
		{Flat, ToneSettings{Gain: 1, Bass: 0, Treble: 0}},
		{BassBoost, ToneSettings{Gain: 1.1, Bass: 8, Treble: -2}},
		{VolumeExtender, ToneSettings{Gain: 1.4, Bass: 3, Treble: 2}},
		{Custom, custom},
		{PresetName(42), FlatSettings},
		{PresetName(-1), FlatSettings},
	}
	for _, tt := range tests {
		t.Run(tt.preset.String(), func(t *testing.T) {
			if got := Resolve(tt.preset, custom); got != tt.want {
				t.Fatalf("Resolve(%v) = %+v, want %+v", tt.preset, got, tt.want)
			}
		})
	}
}

func TestParsePresetName(t *testing.T) {
	tests := []struct {
		in   string
		want PresetName
		ok   bool
	}{
		{"flat", Flat, true},
		{"Bass Boost", BassBoost, true},
		{"bass-boost", BassBoost, true},
		{" VOLUME_extender ", VolumeExtender, true},
		{"custom", Custom, true},
		{"loudness", Flat, false},
		{"", Flat, false},
	}
	for _, tt := range tests {
		got, ok := ParsePresetName(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("ParsePresetName(%q) = %v,%v want %v,%v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestPresetNameStringUnknown(t *testing.T) {
	if got := PresetName(9).String(); got != "PresetName(9)" {
		t.Fatalf("unexpected string %q", got)
	}
}
