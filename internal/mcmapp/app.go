// Package mcmapp presents the MCM player in a fyne desktop window: a boot
// splash followed by the preset row, transport controls and install
// affordances.
package mcmapp

import (
	"context"
	"errors"
	"image/color"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"

	"github.com/edward-ap/mcmplayer/internal/config"
	eq "github.com/edward-ap/mcmplayer/internal/equalizer"
	"github.com/edward-ap/mcmplayer/internal/logging"
	"github.com/edward-ap/mcmplayer/internal/player"
	"github.com/edward-ap/mcmplayer/internal/session"
	"github.com/edward-ap/mcmplayer/internal/ui"
)

const (
	meterBars     = 16
	meterInterval = 60 * time.Millisecond
)

// App owns the fyne application, the main window and the widgets that
// mirror session state.
type App struct {
	fa   fyne.App
	w    fyne.Window
	cfg  *config.Config
	sess *session.Session
	log  zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	// boot splash and the control surface share a stack; one is visible
	splash   fyne.CanvasObject
	controls fyne.CanvasObject

	presetBtns  map[eq.PresetName]*widget.Button
	playBtn     *widget.Button
	saveBtn     *widget.Button
	installBtn  *widget.Button
	banner      fyne.CanvasObject
	settingsLbl *widget.Label
	statusLbl   *widget.Label
	tickerBg    *canvas.Rectangle
	ind         *ui.StreamIndicator
	ticker      *ui.StatusTicker
	meter       *ui.LevelMeter

	shortcutCatcher *shortcutCatcher

	meterMu   sync.Mutex
	meterStop chan struct{}

	unsubscribe func()
}

// NewApp creates the desktop front end for sess.
func NewApp(cfg *config.Config, sess *session.Session) *App {
	fa := app.NewWithID(config.AppID)
	fa.Settings().SetTheme(theme.DarkTheme())
	if AppIcon != nil {
		fa.SetIcon(AppIcon)
	}
	return newApp(fa, cfg, sess)
}

func newApp(fa fyne.App, cfg *config.Config, sess *session.Session) *App {
	w := fa.NewWindow("MCM Audio Player")
	w.SetMaster()
	if AppIcon != nil {
		w.SetIcon(AppIcon)
	}
	width := float32(cfg.WindowW)
	if width < config.MinWindowWidth {
		width = config.MinWindowWidth
	}
	w.Resize(fyne.NewSize(width, float32(cfg.WindowH)))

	ctx, cancel := context.WithCancel(context.Background())
	a := &App{
		fa:     fa,
		w:      w,
		cfg:    cfg,
		sess:   sess,
		log:    logging.For("gui"),
		ctx:    ctx,
		cancel: cancel,
	}
	a.buildUI()
	sess.SetConfirm(a.confirmInstall)

	w.SetCloseIntercept(func() {
		a.saveWindowSize(w.Canvas().Size())
		a.shutdown()
		w.Close()
		fa.Quit()
	})
	w.Canvas().SetOnTypedKey(a.handleShortcutKey)
	return a
}

// saveWindowSize writes only the window size back to disk so that flag
// overrides held in a.cfg stay out of the stored config.
func (a *App) saveWindowSize(sz fyne.Size) {
	stored, err := config.Load()
	if err != nil {
		stored = config.Default()
	}
	stored.WindowW = int(sz.Width)
	stored.WindowH = int(sz.Height)
	if err := stored.Save(); err != nil {
		a.log.Warn().Err(err).Msg("save window size")
	}
}

// Run shows the splash, starts the session and enters the fyne event loop.
func (a *App) Run() {
	a.start()
	a.w.ShowAndRun()
}

func (a *App) start() {
	a.unsubscribe = a.sess.Subscribe(func(st session.State) {
		ui.CallOnMain(func() { a.render(st) })
	})
	a.sess.Start()
	a.render(a.sess.State())
}

func (a *App) shutdown() {
	a.cancel()
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	a.stopMeter()
	a.ticker.Close()
	a.ind.SetMode(ui.IndicatorIdle)
	a.sess.Close()
}

func (a *App) buildUI() {
	splash := canvas.NewImageFromImage(renderSplash(420, 520))
	splash.FillMode = canvas.ImageFillContain
	a.splash = splash

	a.controls = a.buildControls()
	a.controls.Hide()

	a.shortcutCatcher = newShortcutCatcher(a.handleShortcutKey)
	root := container.NewStack(
		canvas.NewRectangle(splashTop),
		a.shortcutCatcher,
		a.splash,
		a.controls,
	)
	a.w.SetContent(root)
	a.ensureShortcutFocus()
}

func (a *App) buildControls() fyne.CanvasObject {
	title := canvas.NewText("MCM Audio Player", color.White)
	title.TextSize = 20
	title.TextStyle = fyne.TextStyle{Bold: true}
	title.Alignment = fyne.TextAlignCenter

	// --- PRESETS --------------------------------------------------------

	a.presetBtns = make(map[eq.PresetName]*widget.Button, len(eq.AllPresets))
	presetRow := container.NewGridWithColumns(2)
	for _, p := range eq.AllPresets {
		p := p
		btn := widget.NewButton(p.String(), func() { a.selectPreset(p) })
		a.presetBtns[p] = btn
		presetRow.Add(btn)
	}

	a.settingsLbl = widget.NewLabel("")
	a.settingsLbl.Alignment = fyne.TextAlignCenter
	a.settingsLbl.TextStyle = fyne.TextStyle{Monospace: true}

	// --- TRANSPORT ------------------------------------------------------

	a.playBtn = widget.NewButtonWithIcon("Play", theme.MediaPlayIcon(), a.togglePlay)
	a.playBtn.Importance = widget.HighImportance
	a.ind = ui.NewStreamIndicator(14)

	a.statusLbl = widget.NewLabel("")
	a.statusLbl.Truncation = fyne.TextTruncateClip
	labelWrap := container.NewStack(a.statusLbl)
	a.ticker = ui.NewStatusTicker(a.statusLbl, labelWrap, "")

	a.tickerBg = canvas.NewRectangle(color.NRGBA{0x00, 0x99, 0xFF, 0x40})
	statusRow := container.NewStack(
		a.tickerBg,
		container.NewPadded(container.NewBorder(nil, nil, a.ind.CanvasObject(), nil, labelWrap)),
	)

	a.meter = ui.NewLevelMeter(meterBars, accent)
	if !a.sess.HasAnalyser() {
		a.meter.Hide()
	}

	// --- CUSTOM / INSTALL -----------------------------------------------

	a.saveBtn = widget.NewButtonWithIcon("Save as Custom", theme.DocumentSaveIcon(), a.saveCustom)

	a.installBtn = widget.NewButtonWithIcon("Install App", theme.DownloadIcon(), a.install)
	a.installBtn.Hide()

	bannerBg := canvas.NewRectangle(color.NRGBA{0x2e, 0x7d, 0x32, 0xFF})
	bannerText := canvas.NewText("Thanks for installing MCM Audio Player!", color.White)
	bannerText.Alignment = fyne.TextAlignCenter
	a.banner = container.NewStack(bannerBg, container.NewPadded(bannerText))
	a.banner.Hide()

	return container.NewPadded(container.NewVBox(
		title,
		widget.NewSeparator(),
		presetRow,
		a.settingsLbl,
		a.playBtn,
		statusRow,
		a.meter,
		a.saveBtn,
		a.installBtn,
		a.banner,
	))
}

// render projects st onto the widgets. It runs on the UI thread.
func (a *App) render(st session.State) {
	if st.Phase == session.Booting {
		a.splash.Show()
		a.controls.Hide()
		return
	}
	a.splash.Hide()
	a.controls.Show()

	for p, btn := range a.presetBtns {
		if p == st.Preset {
			btn.Importance = widget.HighImportance
		} else {
			btn.Importance = widget.MediumImportance
		}
		btn.Refresh()
	}
	a.settingsLbl.SetText(st.Settings.String())

	switch {
	case st.Toggling:
		a.playBtn.Disable()
		a.ind.SetMode(ui.IndicatorWaiting)
	case st.Transport == player.Playing:
		a.playBtn.Enable()
		a.playBtn.SetText("Pause")
		a.playBtn.SetIcon(theme.MediaPauseIcon())
		a.ind.SetMode(ui.IndicatorActive)
	default:
		a.playBtn.Enable()
		a.playBtn.SetText("Play")
		a.playBtn.SetIcon(theme.MediaPlayIcon())
		a.ind.SetMode(ui.IndicatorIdle)
	}
	if st.Transport == player.Playing && !st.Toggling {
		a.startMeter()
	} else {
		a.stopMeter()
	}

	setVisible(a.installBtn, st.Install.Available)
	setVisible(a.banner, st.Install.ShowThankYou)

	if st.Status != a.ticker.Text() {
		a.ticker.SetText(st.Status)
		a.flashTicker()
	}
}

func setVisible(o fyne.CanvasObject, on bool) {
	if on {
		o.Show()
	} else {
		o.Hide()
	}
}

// flashTicker briefly brightens the status background on new messages.
func (a *App) flashTicker() {
	a.tickerBg.FillColor = color.NRGBA{0x00, 0xCC, 0xFF, 0x60}
	a.tickerBg.Refresh()
	time.AfterFunc(180*time.Millisecond, func() {
		ui.CallOnMain(func() {
			a.tickerBg.FillColor = color.NRGBA{0x00, 0x99, 0xFF, 0x40}
			a.tickerBg.Refresh()
		})
	})
}

func (a *App) startMeter() {
	if !a.sess.HasAnalyser() {
		return
	}
	a.meterMu.Lock()
	defer a.meterMu.Unlock()
	if a.meterStop != nil {
		return
	}
	stop := make(chan struct{})
	a.meterStop = stop
	go func() {
		t := time.NewTicker(meterInterval)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
			}
			if levels, ok := a.sess.Levels(meterBars); ok {
				a.meter.SetLevels(levels)
			}
		}
	}()
}

func (a *App) stopMeter() {
	a.meterMu.Lock()
	if a.meterStop != nil {
		close(a.meterStop)
		a.meterStop = nil
	}
	a.meterMu.Unlock()
	a.meter.Reset()
}

// --- actions ------------------------------------------------------------

func (a *App) selectPreset(p eq.PresetName) {
	if err := a.sess.SelectPreset(p); err != nil {
		a.log.Debug().Err(err).Stringer("preset", p).Msg("preset ignored")
	}
}

func (a *App) saveCustom() {
	if err := a.sess.SaveCustomPreset(); err != nil && !errors.Is(err, session.ErrNotReady) {
		dialog.ShowError(err, a.w)
	}
}

// togglePlay runs off the UI thread: resuming the output may block.
func (a *App) togglePlay() {
	go func() {
		err := a.sess.TogglePlay(a.ctx)
		if err == nil || errors.Is(err, session.ErrNotReady) || errors.Is(err, context.Canceled) {
			return
		}
		ui.CallOnMain(func() { dialog.ShowError(err, a.w) })
	}()
}

func (a *App) install() {
	go func() {
		if _, err := a.sess.Install(a.ctx); err != nil && !errors.Is(err, session.ErrNotReady) {
			ui.CallOnMain(func() { dialog.ShowError(err, a.w) })
		}
	}()
}

// confirmInstall shows the install question and waits for the answer.
func (a *App) confirmInstall(ctx context.Context) (bool, error) {
	answer := make(chan bool, 1)
	var d dialog.Dialog
	ui.CallOnMain(func() {
		d = dialog.NewConfirm("Install MCM Audio Player",
			"Add MCM Audio Player to your applications menu?",
			func(ok bool) { answer <- ok }, a.w)
		d.Show()
	})
	select {
	case ok := <-answer:
		return ok, nil
	case <-ctx.Done():
		ui.CallOnMain(func() {
			if d != nil {
				d.Hide()
			}
		})
		return false, ctx.Err()
	}
}

func presetForKey(key fyne.KeyName) (eq.PresetName, bool) {
	switch key {
	case fyne.Key1:
		return eq.Flat, true
	case fyne.Key2:
		return eq.BassBoost, true
	case fyne.Key3:
		return eq.VolumeExtender, true
	case fyne.Key4:
		return eq.Custom, true
	}
	return 0, false
}

// handleShortcutKey centralizes keyboard shortcuts regardless of which widget
// currently owns focus.
func (a *App) handleShortcutKey(ke *fyne.KeyEvent) {
	if ke == nil {
		return
	}
	if p, ok := presetForKey(ke.Name); ok {
		a.selectPreset(p)
		return
	}
	switch ke.Name {
	case fyne.KeySpace:
		a.togglePlay()
	case fyne.KeyS:
		a.saveCustom()
	case fyne.KeyI:
		a.install()
	}
}

// ensureShortcutFocus keeps the invisible shortcut catcher focused so key
// handling works whichever button was clicked last.
func (a *App) ensureShortcutFocus() {
	ui.CallOnMain(func() {
		if a.w != nil && a.shortcutCatcher != nil {
			a.w.Canvas().Focus(a.shortcutCatcher)
		}
	})
}

type shortcutCatcher struct {
	widget.BaseWidget
	onKey func(*fyne.KeyEvent)
}

func newShortcutCatcher(handler func(*fyne.KeyEvent)) *shortcutCatcher {
	c := &shortcutCatcher{onKey: handler}
	c.ExtendBaseWidget(c)
	return c
}

func (s *shortcutCatcher) CreateRenderer() fyne.WidgetRenderer {
	rect := canvas.NewRectangle(color.NRGBA{0, 0, 0, 0})
	rect.SetMinSize(fyne.NewSize(1, 1))
	return widget.NewSimpleRenderer(rect)
}

func (s *shortcutCatcher) MinSize() fyne.Size {
	return fyne.NewSize(1, 1)
}

func (s *shortcutCatcher) Resize(size fyne.Size) {
	s.BaseWidget.Resize(fyne.NewSize(1, 1))
}

func (s *shortcutCatcher) FocusGained() {}

func (s *shortcutCatcher) FocusLost() {}

func (s *shortcutCatcher) TypedKey(ev *fyne.KeyEvent) {
	if s.onKey != nil {
		s.onKey(ev)
	}
}

func (s *shortcutCatcher) TypedRune(r rune) {}
