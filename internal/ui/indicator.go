package ui

import (
	"image/color"
	"math"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
)

// IndicatorMode is what the stream dot shows.
type IndicatorMode int

const (
	IndicatorIdle IndicatorMode = iota
	// IndicatorWaiting is a steady amber while the output resumes or the
	// stream connects.
	IndicatorWaiting
	IndicatorActive
)

var (
	idleColor    = color.NRGBA{0x80, 0x80, 0x80, 0xFF}
	waitingColor = color.NRGBA{0xF2, 0xA3, 0x3A, 0xFF}
)

// StreamIndicator is a tiny circular indicator that breathes through green
// hues while audio is playing.
type StreamIndicator struct {
	wrap   *fyne.Container
	circle *canvas.Circle

	mu   sync.Mutex
	mode IndicatorMode
	stop chan struct{}
}

// NewStreamIndicator constructs a StreamIndicator with the given diameter.
func NewStreamIndicator(diameter float32) *StreamIndicator {
	c := canvas.NewCircle(idleColor)
	c.StrokeColor = color.NRGBA{0, 0, 0, 0}
	inner := container.New(layout.NewGridWrapLayout(fyne.NewSize(diameter, diameter)), c)
	return &StreamIndicator{wrap: container.NewCenter(inner), circle: c}
}

// CanvasObject returns the fyne object suitable for embedding in layouts.
func (s *StreamIndicator) CanvasObject() fyne.CanvasObject { return s.wrap }

// Mode returns the current mode.
func (s *StreamIndicator) Mode() IndicatorMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SetMode switches the indicator. Only IndicatorActive animates.
func (s *StreamIndicator) SetMode(m IndicatorMode) {
	s.mu.Lock()
	if m == s.mode {
		s.mu.Unlock()
		return
	}
	s.mode = m
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
	if m == IndicatorActive {
		s.stop = make(chan struct{})
		go s.animate(s.stop)
	}
	s.mu.Unlock()

	switch m {
	case IndicatorIdle:
		s.fill(idleColor)
	case IndicatorWaiting:
		s.fill(waitingColor)
	}
}

func (s *StreamIndicator) fill(col color.Color) {
	CallOnMain(func() {
		s.circle.FillColor = col
		s.circle.Refresh()
	})
}

func (s *StreamIndicator) animate(stop <-chan struct{}) {
	t := time.NewTicker(90 * time.Millisecond)
	defer t.Stop()
	hue := 90.0
	dir := 1.0
	for {
		select {
		case <-stop:
			return
		case <-t.C:
		}
		// swing between yellow-green and teal
		hue += 4 * dir
		if hue >= 170 || hue <= 90 {
			dir = -dir
		}
		s.fill(hsvToNRGBA(hue, 0.65, 0.95))
	}
}

// hsvToNRGBA converts HSV (0..360, 0..1, 0..1) to color.NRGBA.
func hsvToNRGBA(h, s, v float64) color.NRGBA {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60.0, 2)-1))
	m := v - c
	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return color.NRGBA{
		R: uint8((r+m)*255 + 0.5),
		G: uint8((g+m)*255 + 0.5),
		B: uint8((b+m)*255 + 0.5),
		A: 0xFF,
	}
}
