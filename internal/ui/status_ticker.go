package ui

import (
	"context"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/widget"
)

// StatusTicker shows one status line and scrolls it as a marquee when it
// overflows the parent. SetText is safe to call from any goroutine.
type StatusTicker struct {
	lbl    *widget.Label
	parent fyne.CanvasObject
	bind   binding.String

	mu       sync.Mutex
	cancel   context.CancelFunc
	lastText string

	speed   time.Duration
	padding string
}

// NewStatusTicker binds lbl and measures overflow against parent.
func NewStatusTicker(lbl *widget.Label, parent fyne.CanvasObject, initial string) *StatusTicker {
	b := binding.NewString()
	lbl.Bind(b)
	_ = b.Set(initial)
	return &StatusTicker{
		lbl:      lbl,
		parent:   parent,
		bind:     b,
		lastText: initial,
		speed:    120 * time.Millisecond,
		padding:  "   ",
	}
}

// Text returns the last text set.
func (tc *StatusTicker) Text() string {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return tc.lastText
}

// Close stops any scrolling goroutine.
func (tc *StatusTicker) Close() {
	tc.mu.Lock()
	if tc.cancel != nil {
		tc.cancel()
		tc.cancel = nil
	}
	tc.mu.Unlock()
}

// SetText updates the status. Repeating the current text is a no-op so a
// running marquee is not restarted.
func (tc *StatusTicker) SetText(text string) {
	tc.mu.Lock()
	if text == tc.lastText {
		tc.mu.Unlock()
		return
	}
	if tc.cancel != nil {
		tc.cancel()
		tc.cancel = nil
	}
	tc.lastText = text
	tc.mu.Unlock()

	_ = tc.bind.Set(text)

	textW := measureLabelTextWidth(tc.lbl, text)
	if tc.parent == nil || !tickerNeedsScroll(textW, tc.parent.Size().Width) {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	tc.mu.Lock()
	tc.cancel = cancel
	tc.mu.Unlock()
	go tc.scroll(ctx, text, textW)
}

func (tc *StatusTicker) scroll(ctx context.Context, text string, textW float32) {
	work := []rune(tc.padding + text + tc.padding)
	t := time.NewTicker(tc.speed)
	defer t.Stop()
	offset := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		if !tickerNeedsScroll(textW, tc.parent.Size().Width) {
			_ = tc.bind.Set(text)
			return
		}
		offset++
		_ = tc.bind.Set(rotateRunes(work, offset))
	}
}

// measureLabelTextWidth estimates the width the label would need for the text.
func measureLabelTextWidth(lbl *widget.Label, text string) float32 {
	if lbl == nil {
		return 0
	}
	tmp := widget.NewLabel(text)
	tmp.Alignment = lbl.Alignment
	tmp.TextStyle = lbl.TextStyle
	tmp.Importance = lbl.Importance
	tmp.Wrapping = lbl.Wrapping
	tmp.Truncation = lbl.Truncation
	tmp.Refresh()
	return tmp.MinSize().Width
}
