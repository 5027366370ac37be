// Package logging configures the zerolog loggers shared by every component.
// Until Init is called, loggers write warnings and errors to stderr.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	config "github.com/edward-ap/mcmplayer/internal/config"
)

// LogFileName is the diagnostics file created inside the log directory.
const LogFileName = "mcmplayer.log"

// EnvLogPath overrides the default log directory when no flag is given.
const EnvLogPath = "MCMPLAYER_LOG_PATH"

var (
	mu   sync.Mutex
	root = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
		Level(zerolog.WarnLevel).With().Timestamp().Logger()
	file *os.File
)

// ResolveDir picks the log directory: explicit flag first, then the
// environment, then a logs folder next to the config file.
func ResolveDir(flagPath string) (string, error) {
	if flagPath != "" {
		return absolute(flagPath)
	}
	if envPath := os.Getenv(EnvLogPath); envPath != "" {
		return absolute(envPath)
	}
	dir, err := config.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "logs"), nil
}

func absolute(p string) (string, error) {
	if filepath.IsAbs(p) {
		return p, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, p), nil
}

// Init redirects all loggers into dir/mcmplayer.log. Trace lowers the level
// to debug; otherwise info and above are written.
func Init(dir string, trace bool) error {
	mu.Lock()
	defer mu.Unlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, LogFileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if file != nil {
		file.Close()
	}
	file = f

	level := zerolog.InfoLevel
	if trace {
		level = zerolog.DebugLevel
	}
	root = newLogger(zerolog.ConsoleWriter{Out: f, TimeFormat: "2006-01-02 15:04:05", NoColor: true}, level)
	return nil
}

// SetOutput replaces the root logger's sink; tests use it to capture output.
func SetOutput(w io.Writer, level zerolog.Level) {
	mu.Lock()
	root = newLogger(w, level)
	mu.Unlock()
}

func newLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(w).Level(level).With().Timestamp().Int("pid", os.Getpid()).Logger()
}

// For returns a child logger tagged with the component name.
func For(component string) zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return root.With().Str("component", component).Logger()
}

// Close flushes and closes the log file, if one is open.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if file != nil {
		file.Close()
		file = nil
	}
}
