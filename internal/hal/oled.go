package hal

import (
	"image"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// frameDrawer is the part of *ssd1306.Dev the display needs.
type frameDrawer interface {
	Bounds() image.Rectangle
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
}

// OLEDDisplay renders single-line frames on a monochrome SSD1306 panel using
// the 7x13 bitmap font, anchored at the top-left corner.
type OLEDDisplay struct {
	dev  frameDrawer
	face font.Face
}

// NewOLEDDisplay wraps an initialised panel.
func NewOLEDDisplay(dev frameDrawer) *OLEDDisplay {
	return &OLEDDisplay{dev: dev, face: basicfont.Face7x13}
}

// Render implements garage.Display. Each frame starts from a blank image so
// nothing from the previous frame survives.
func (o *OLEDDisplay) Render(text string) error {
	img := o.rasterise(text)
	return o.dev.Draw(o.dev.Bounds(), img, image.Point{})
}

func (o *OLEDDisplay) rasterise(text string) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(o.dev.Bounds())
	d := font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{C: image1bit.On},
		Face: o.face,
		Dot:  fixed.P(img.Bounds().Min.X, img.Bounds().Min.Y+o.face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(text)
	return img
}
