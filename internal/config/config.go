// Package config defines the MCM player configuration format and helpers for
// loading or saving it to disk.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// AppID is the stable application identifier used for config storage.
	AppID = "com.edward-ap.mcmplayer"
	// AppConfigSubdir is the OS-specific directory that holds the config file.
	AppConfigSubdir = "MCMPlayer"
	// AppConfigName is the JSON file stored on disk.
	AppConfigName = "config.json"
	// StorageName is the key-value file that holds persisted user presets.
	StorageName = "storage.json"

	// DefaultStreamURL is the remote MP3 the player streams.
	DefaultStreamURL = "https://www.soundhelix.com/examples/mp3/SoundHelix-Song-1.mp3"
	// DefaultWidth is the preferred window width when no persisted value exists.
	DefaultWidth = 420
	// DefaultHeight is the preferred window height.
	DefaultHeight = 520
	// MinWindowWidth keeps the preset row readable.
	MinWindowWidth = 360

	// EngineBeep decodes and filters in-process and plays through the speaker.
	EngineBeep = "beep"
	// EngineVLC hands playback to libVLC and maps tone settings onto its equalizer.
	EngineVLC = "vlc"

	// FrontendGUI is the fyne desktop window.
	FrontendGUI = "gui"
	// FrontendTUI is the terminal interface.
	FrontendTUI = "tui"
)

// Config aggregates every user-facing preference persisted between sessions.
type Config struct {
	StreamURL string `json:"streamUrl"`
	Engine    string `json:"engine"`
	Frontend  string `json:"frontend"`
	WindowW   int    `json:"windowW"`
	WindowH   int    `json:"windowH"`
}

// ConfigDir resolves the writable directory that should contain the config file.
func ConfigDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppConfigSubdir), nil
}

// ConfigPath is a helper that returns the full path to config.json.
func ConfigPath() (string, error) {
	d, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, AppConfigName), nil
}

// StoragePath returns the full path to the key-value storage file.
func StoragePath() (string, error) {
	d, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, StorageName), nil
}

// Load reads the config from disk, applying defaults when the file is missing
// or holds values the player cannot use.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			// Try saving an initial config, but still return defaults even if it fails.
			_ = cfg.Save()
			return cfg, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("config parse error: %w", err)
	}
	cfg.applyRuntimeDefaults()
	return cfg, nil
}

// Save persists the configuration to disk, creating directories as needed.
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// AppID returns the stable identifier used by the GUI framework.
func (c *Config) AppID() string { return AppID }

// Default builds an in-memory config populated with safe defaults.
func Default() *Config {
	cfg := &Config{
		StreamURL: DefaultStreamURL,
		Engine:    EngineBeep,
		Frontend:  FrontendGUI,
		WindowW:   DefaultWidth,
		WindowH:   DefaultHeight,
	}
	cfg.applyRuntimeDefaults()
	return cfg
}

// Override applies non-empty session overrides (usually CLI flags) without
// touching what is stored on disk. An unknown engine or front end is an
// error and leaves c unchanged.
func (c *Config) Override(streamURL, engine, frontend string) error {
	engine = strings.ToLower(strings.TrimSpace(engine))
	frontend = strings.ToLower(strings.TrimSpace(frontend))
	switch engine {
	case "", EngineBeep, EngineVLC:
	default:
		return fmt.Errorf("unknown engine %q (want %s or %s)", engine, EngineBeep, EngineVLC)
	}
	switch frontend {
	case "", FrontendGUI, FrontendTUI:
	default:
		return fmt.Errorf("unknown front end %q (want %s or %s)", frontend, FrontendGUI, FrontendTUI)
	}

	if s := strings.TrimSpace(streamURL); s != "" {
		c.StreamURL = s
	}
	if engine != "" {
		c.Engine = engine
	}
	if frontend != "" {
		c.Frontend = frontend
	}
	c.applyRuntimeDefaults()
	return nil
}

// applyRuntimeDefaults normalizes config values after a load or when defaults
// are constructed, ensuring the UI always receives sane inputs.
func (c *Config) applyRuntimeDefaults() {
	if strings.TrimSpace(c.StreamURL) == "" {
		c.StreamURL = DefaultStreamURL
	}
	switch e := strings.ToLower(strings.TrimSpace(c.Engine)); e {
	case EngineBeep, EngineVLC:
		c.Engine = e
	default:
		c.Engine = EngineBeep
	}
	switch f := strings.ToLower(strings.TrimSpace(c.Frontend)); f {
	case FrontendGUI, FrontendTUI:
		c.Frontend = f
	default:
		c.Frontend = FrontendGUI
	}
	if c.WindowW == 0 {
		c.WindowW = DefaultWidth
	}
	if c.WindowW < MinWindowWidth {
		c.WindowW = MinWindowWidth
	}
	if c.WindowH <= 0 {
		c.WindowH = DefaultHeight
	}
}
