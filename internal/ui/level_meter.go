package ui

import (
	"image/color"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
)

// LevelMeter draws a row of vertical bars, each scaled to a level in [0, 1].
type LevelMeter struct {
	widget.BaseWidget

	mu     sync.Mutex
	levels []float64
	bars   []*canvas.Rectangle
	fill   color.Color
}

// NewLevelMeter creates a meter with n bars.
func NewLevelMeter(n int, fill color.Color) *LevelMeter {
	if n < 1 {
		n = 1
	}
	m := &LevelMeter{levels: make([]float64, n), fill: fill}
	m.ExtendBaseWidget(m)
	return m
}

// Levels returns a copy of the displayed levels.
func (m *LevelMeter) Levels() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.levels...)
}

// SetLevels updates the bars from any goroutine. Missing entries read as
// zero and extra entries are ignored.
func (m *LevelMeter) SetLevels(levels []float64) {
	m.mu.Lock()
	for i := range m.levels {
		v := 0.0
		if i < len(levels) {
			v = levels[i]
		}
		m.levels[i] = clampFloat64(v, 0, 1)
	}
	m.mu.Unlock()
	CallOnMain(m.Refresh)
}

// Reset drops all bars to zero.
func (m *LevelMeter) Reset() { m.SetLevels(nil) }

// CreateRenderer implements fyne.Widget.
func (m *LevelMeter) CreateRenderer() fyne.WidgetRenderer {
	m.mu.Lock()
	m.bars = make([]*canvas.Rectangle, len(m.levels))
	objs := make([]fyne.CanvasObject, len(m.levels))
	for i := range m.bars {
		r := canvas.NewRectangle(m.fill)
		m.bars[i] = r
		objs[i] = r
	}
	m.mu.Unlock()
	return &levelMeterRenderer{m: m, objects: objs}
}

type levelMeterRenderer struct {
	m       *LevelMeter
	objects []fyne.CanvasObject
}

func (r *levelMeterRenderer) Layout(size fyne.Size) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	n := len(r.m.bars)
	if n == 0 {
		return
	}
	const gap float32 = 2
	w := (size.Width - gap*float32(n-1)) / float32(n)
	if w < 1 {
		w = 1
	}
	for i, bar := range r.m.bars {
		h := size.Height * float32(r.m.levels[i])
		bar.Resize(fyne.NewSize(w, h))
		bar.Move(fyne.NewPos(float32(i)*(w+gap), size.Height-h))
	}
}

func (r *levelMeterRenderer) MinSize() fyne.Size {
	return fyne.NewSize(float32(len(r.objects))*6, 36)
}

func (r *levelMeterRenderer) Refresh() {
	r.Layout(r.m.Size())
	for _, o := range r.objects {
		o.Refresh()
	}
}

func (r *levelMeterRenderer) Objects() []fyne.CanvasObject { return r.objects }

func (r *levelMeterRenderer) Destroy() {}
