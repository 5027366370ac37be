package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestLoadDefaultConfig(t *testing.T) {
	tempDir := t.TempDir()
	restore := overrideConfigEnv(tempDir)
	defer restore()

	path, err := ConfigPath()
	if err != nil {
		t.Fatalf("ConfigPath error: %v", err)
	}
	_ = os.Remove(path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load returned nil config")
	}
	if cfg.StreamURL != DefaultStreamURL {
		t.Errorf("StreamURL = %q, want %q", cfg.StreamURL, DefaultStreamURL)
	}
	if cfg.Engine != EngineBeep {
		t.Errorf("Engine = %q, want %q", cfg.Engine, EngineBeep)
	}
	if cfg.Frontend != FrontendGUI {
		t.Errorf("Frontend = %q, want %q", cfg.Frontend, FrontendGUI)
	}
	if cfg.WindowW != DefaultWidth {
		t.Errorf("WindowW = %d, want %d", cfg.WindowW, DefaultWidth)
	}
	if cfg.WindowH != DefaultHeight {
		t.Errorf("WindowH = %d, want %d", cfg.WindowH, DefaultHeight)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected config file at %s, got error: %v", path, err)
	}
}

func TestLoadNormalizesStoredValues(t *testing.T) {
	tempDir := t.TempDir()
	restore := overrideConfigEnv(tempDir)
	defer restore()

	path, err := ConfigPath()
	if err != nil {
		t.Fatalf("ConfigPath error: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	raw := `{"streamUrl":"  ","engine":"VLC","frontend":"curses","windowW":100,"windowH":-3}`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.StreamURL != DefaultStreamURL {
		t.Errorf("StreamURL = %q, want default", cfg.StreamURL)
	}
	if cfg.Engine != EngineVLC {
		t.Errorf("Engine = %q, want %q", cfg.Engine, EngineVLC)
	}
	if cfg.Frontend != FrontendGUI {
		t.Errorf("Frontend = %q, want %q", cfg.Frontend, FrontendGUI)
	}
	if cfg.WindowW != MinWindowWidth {
		t.Errorf("WindowW = %d, want %d", cfg.WindowW, MinWindowWidth)
	}
	if cfg.WindowH != DefaultHeight {
		t.Errorf("WindowH = %d, want %d", cfg.WindowH, DefaultHeight)
	}
}

func TestLoadRejectsBrokenJSON(t *testing.T) {
	tempDir := t.TempDir()
	restore := overrideConfigEnv(tempDir)
	defer restore()

	path, _ := ConfigPath()
	_ = os.MkdirAll(filepath.Dir(path), 0o755)
	if err := os.WriteFile(path, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestOverride(t *testing.T) {
	cfg := Default()
	if err := cfg.Override(" http://example.test/a.mp3 ", "VLC", ""); err != nil {
		t.Fatalf("Override: %v", err)
	}
	if cfg.StreamURL != "http://example.test/a.mp3" {
		t.Errorf("StreamURL = %q", cfg.StreamURL)
	}
	if cfg.Engine != EngineVLC {
		t.Errorf("Engine = %q", cfg.Engine)
	}
	if cfg.Frontend != FrontendGUI {
		t.Errorf("Frontend changed to %q", cfg.Frontend)
	}
}

func TestOverrideRejectsUnknownNames(t *testing.T) {
	tests := []struct {
		name     string
		engine   string
		frontend string
	}{
		{name: "mistyped engine", engine: "vcl"},
		{name: "unknown engine", engine: "alsa"},
		{name: "mistyped front end", frontend: "tiu"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			before := *cfg
			if err := cfg.Override("http://example.test/b.mp3", tt.engine, tt.frontend); err == nil {
				t.Fatal("expected an error")
			}
			if *cfg != before {
				t.Errorf("config changed to %+v", *cfg)
			}
		})
	}
}

func overrideConfigEnv(tempDir string) func() {
	originals := map[string]string{
		"APPDATA":         os.Getenv("APPDATA"),
		"LOCALAPPDATA":    os.Getenv("LOCALAPPDATA"),
		"USERPROFILE":     os.Getenv("USERPROFILE"),
		"XDG_CONFIG_HOME": os.Getenv("XDG_CONFIG_HOME"),
		"HOME":            os.Getenv("HOME"),
	}

	if runtime.GOOS == "windows" {
		os.Setenv("APPDATA", tempDir)
		os.Setenv("LOCALAPPDATA", tempDir)
		os.Setenv("USERPROFILE", tempDir)
	} else {
		xdg := filepath.Join(tempDir, "xdg")
		_ = os.MkdirAll(xdg, 0o755)
		os.Setenv("XDG_CONFIG_HOME", xdg)
		os.Setenv("HOME", tempDir)
	}

	return func() {
		for k, v := range originals {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}
}
