package install

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/rs/zerolog"
)

// DesktopFileName is the launcher entry written on install.
const DesktopFileName = "mcmplayer.desktop"

// ConfirmFunc asks the user whether to install. It blocks until answered or
// ctx is done.
type ConfirmFunc func(ctx context.Context) (bool, error)

// LauncherSource is the desktop counterpart of a browser's install events:
// it offers a capability when no application-menu entry exists yet and
// reports installation once the entry is written.
type LauncherSource struct {
	dir     string
	exec    string
	confirm ConfirmFunc
	log     zerolog.Logger
}

// NewLauncherSource returns a source writing into the user's XDG
// applications directory. ok is false on platforms without one, in which
// case no install affordance should be shown.
func NewLauncherSource(confirm ConfirmFunc, log zerolog.Logger) (*LauncherSource, bool) {
	if runtime.GOOS != "linux" {
		return nil, false
	}
	dir, err := applicationsDir()
	if err != nil {
		log.Debug().Err(err).Msg("no applications directory")
		return nil, false
	}
	exe, err := os.Executable()
	if err != nil {
		log.Debug().Err(err).Msg("cannot resolve executable")
		return nil, false
	}
	return NewLauncherSourceAt(dir, exe, confirm, log), true
}

// NewLauncherSourceAt builds a source for an explicit directory and
// executable path.
func NewLauncherSourceAt(dir, exec string, confirm ConfirmFunc, log zerolog.Logger) *LauncherSource {
	return &LauncherSource{dir: dir, exec: exec, confirm: confirm, log: log}
}

func applicationsDir() (string, error) {
	if d := os.Getenv("XDG_DATA_HOME"); d != "" {
		return filepath.Join(d, "applications"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "applications"), nil
}

// EntryPath is where the launcher entry lives.
func (s *LauncherSource) EntryPath() string {
	return filepath.Join(s.dir, DesktopFileName)
}

// Installed reports whether the entry already exists.
func (s *LauncherSource) Installed() bool {
	_, err := os.Stat(s.EntryPath())
	return err == nil
}

// Register sends the current platform signal to c: "installed" is not
// re-announced for an existing entry (the platform tracks it), otherwise
// the capability is offered.
func (s *LauncherSource) Register(c *Controller) {
	if s.Installed() {
		s.log.Info().Str("path", s.EntryPath()).Msg("launcher already registered")
		return
	}
	c.Offer(&launcherCapability{src: s, ctrl: c})
	s.log.Info().Str("path", s.EntryPath()).Msg("launcher registration offered")
}

func (s *LauncherSource) write() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	entry := strings.Join([]string{
		"[Desktop Entry]",
		"Type=Application",
		"Name=MCM Audio Player",
		"Comment=Stream with bass, treble and volume presets",
		"Exec=" + desktopExec(s.exec),
		"Terminal=false",
		"Categories=AudioVideo;Audio;Player;",
		"",
	}, "\n")
	return os.WriteFile(s.EntryPath(), []byte(entry), 0o644)
}

// desktopValueEscaper applies the escapes every Desktop Entry string value
// gets, after argument quoting. A literal % would start a field code.
var desktopValueEscaper = strings.NewReplacer(
	`\`, `\\`,
	"\n", `\n`,
	"\t", `\t`,
	"\r", `\r`,
	"%", "%%",
)

// desktopExec quotes path as a single Exec argument.
func desktopExec(path string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range path {
		switch r {
		case '"', '`', '$', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return desktopValueEscaper.Replace(b.String())
}

type launcherCapability struct {
	src  *LauncherSource
	ctrl *Controller
}

var errNoConfirm = errors.New("no confirmation handler")

func (l *launcherCapability) Prompt(ctx context.Context) (Outcome, error) {
	if l.src.confirm == nil {
		return OutcomeDismissed, errNoConfirm
	}
	ok, err := l.src.confirm(ctx)
	if err != nil {
		return OutcomeDismissed, err
	}
	if !ok {
		return OutcomeDismissed, nil
	}
	if err := l.src.write(); err != nil {
		return OutcomeAccepted, fmt.Errorf("write launcher: %w", err)
	}
	l.ctrl.MarkInstalled()
	return OutcomeAccepted, nil
}
