package mcmapp

import (
	"bytes"
	"image"
	"image/color"
	"image/png"

	"fyne.io/fyne/v2"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	splashTop    = color.NRGBA{0x1a, 0x1a, 0x2e, 0xFF}
	splashBottom = color.NRGBA{0x0f, 0x34, 0x60, 0xFF}
	accent       = color.NRGBA{0x00, 0x99, 0xFF, 0xFF}
)

// AppIcon is the window and application icon, drawn at startup.
var AppIcon fyne.Resource

func init() {
	var buf bytes.Buffer
	if err := png.Encode(&buf, renderBadge(64)); err == nil {
		AppIcon = fyne.NewStaticResource("mcm64.png", buf.Bytes())
	}
}

// renderSplash draws the boot screen: a vertical gradient with the product
// name scaled up from the 7x13 bitmap face.
func renderSplash(w, h int) image.Image {
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	fillGradient(dst, splashTop, splashBottom)

	title := renderText("MCM", color.White)
	scale := w / 2 / title.Bounds().Dx()
	if scale < 1 {
		scale = 1
	}
	tr := centeredRect(dst.Bounds(), title.Bounds().Dx()*scale, title.Bounds().Dy()*scale, -h/10)
	draw.NearestNeighbor.Scale(dst, tr, title, title.Bounds(), draw.Over, nil)

	sub := renderText("AUDIO PLAYER", accent)
	subScale := scale / 3
	if subScale < 1 {
		subScale = 1
	}
	sr := centeredRect(dst.Bounds(), sub.Bounds().Dx()*subScale, sub.Bounds().Dy()*subScale, h/10)
	draw.NearestNeighbor.Scale(dst, sr, sub, sub.Bounds(), draw.Over, nil)
	return dst
}

// renderBadge draws the square icon: "M" on the accent disc.
func renderBadge(size int) image.Image {
	dst := image.NewNRGBA(image.Rect(0, 0, size, size))
	r := float64(size) / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx, dy := float64(x)+0.5-r, float64(y)+0.5-r
			if dx*dx+dy*dy <= r*r {
				dst.SetNRGBA(x, y, splashBottom)
			}
		}
	}
	glyph := renderText("M", color.White)
	scale := size / 2 / glyph.Bounds().Dy()
	if scale < 1 {
		scale = 1
	}
	gr := centeredRect(dst.Bounds(), glyph.Bounds().Dx()*scale, glyph.Bounds().Dy()*scale, 0)
	draw.CatmullRom.Scale(dst, gr, glyph, glyph.Bounds(), draw.Over, nil)
	return dst
}

// renderText rasterises s with the basic bitmap face on a transparent,
// tightly sized canvas.
func renderText(s string, col color.Color) *image.NRGBA {
	face := basicfont.Face7x13
	width := font.MeasureString(face, s).Ceil()
	m := face.Metrics()
	height := (m.Ascent + m.Descent).Ceil()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.Point26_6{X: 0, Y: m.Ascent},
	}
	d.DrawString(s)
	return img
}

func fillGradient(dst *image.NRGBA, top, bottom color.NRGBA) {
	b := dst.Bounds()
	h := b.Dy()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		t := float64(y-b.Min.Y) / float64(max(h-1, 1))
		c := color.NRGBA{
			R: lerp8(top.R, bottom.R, t),
			G: lerp8(top.G, bottom.G, t),
			B: lerp8(top.B, bottom.B, t),
			A: 0xFF,
		}
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.SetNRGBA(x, y, c)
		}
	}
}

func lerp8(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t + 0.5)
}

// centeredRect returns a w×h rectangle centred in outer, shifted down by dy.
func centeredRect(outer image.Rectangle, w, h, dy int) image.Rectangle {
	x0 := outer.Min.X + (outer.Dx()-w)/2
	y0 := outer.Min.Y + (outer.Dy()-h)/2 + dy
	return image.Rect(x0, y0, x0+w, y0+h)
}
