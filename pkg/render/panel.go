package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// PanelSink receives finished rasters. The e-paper driver implements this;
// the diagnostics mode writes PNGs.
type PanelSink interface {
	WriteFrame(img image.Image) error
}

// PanelConfig describes the target panel geometry.
type PanelConfig struct {
	Width    int
	Height   int
	Rotation int // degrees clockwise, multiple of 90
}

// PanelRenderer rasterizes frames into a monochrome image at the panel's
// native geometry. The e-paper panel is 1-bit; everything is drawn black on
// white and the driver thresholds the gray raster.
type PanelRenderer struct {
	cfg  PanelConfig
	sink PanelSink
	face font.Face
}

// NewPanelRenderer builds a rasterizer targeting sink.
func NewPanelRenderer(cfg PanelConfig, sink PanelSink) *PanelRenderer {
	return &PanelRenderer{
		cfg:  cfg,
		sink: sink,
		face: basicfont.Face7x13,
	}
}

// Render draws the frame and hands the raster to the sink.
func (r *PanelRenderer) Render(f Frame) error {
	w, h := r.cfg.Width, r.cfg.Height
	if r.cfg.Rotation%180 != 0 {
		w, h = h, w
	}

	img := image.NewGray(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	lineH := r.face.Metrics().Height.Ceil() + 2
	y := lineH

	r.drawChrome(img, f.Chrome, w, y)
	y += lineH + 2

	if f.Doc.Title != "" {
		r.drawText(img, f.Doc.Title, AlignCenter, w, y)
		y += lineH
	}
	if f.Doc.BigText != "" {
		y += lineH / 2
		r.drawText(img, f.Doc.BigText, AlignCenter, w, y)
		y += lineH + lineH/2
	}
	for _, line := range f.Doc.Lines {
		if y > h-2 {
			break
		}
		r.drawText(img, line.Text, line.Align, w, y)
		y += lineH
	}

	out := rotate(img, r.cfg.Rotation)
	return r.sink.WriteFrame(out)
}

// drawChrome renders the overlay row and a separator rule.
func (r *PanelRenderer) drawChrome(img *image.Gray, c Chrome, w, baseline int) {
	link := "x"
	if c.LinkUp {
		link = "^"
	}
	r.drawText(img, c.Now.Format("15:04"), AlignLeft, w, baseline)
	r.drawText(img, fmt.Sprintf("%s %d%%", link, c.BatteryPercent), AlignRight, w, baseline)

	ruleY := baseline + 3
	for x := 0; x < w; x++ {
		img.SetGray(x, ruleY, color.Gray{Y: 0})
	}
}

// drawText draws one string at the given baseline with alignment.
func (r *PanelRenderer) drawText(img *image.Gray, text string, align Align, w, baseline int) {
	d := font.Drawer{
		Dst:  img,
		Src:  image.Black,
		Face: r.face,
	}
	width := d.MeasureString(text).Ceil()
	x := 2
	switch align {
	case AlignCenter:
		x = (w - width) / 2
	case AlignRight:
		x = w - width - 2
	}
	if x < 0 {
		x = 0
	}
	d.Dot = fixed.P(x, baseline)
	d.DrawString(text)
}

// rotate orients the raster for the panel's mounting.
func rotate(img image.Image, degrees int) image.Image {
	switch ((degrees % 360) + 360) % 360 {
	case 90:
		return imaging.Rotate270(img) // imaging rotates counter-clockwise
	case 180:
		return imaging.Rotate180(img)
	case 270:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
