package hal

import (
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

type fakePanel struct {
	bounds image.Rectangle
	frames []image.Image
	err    error
}

func (p *fakePanel) Bounds() image.Rectangle { return p.bounds }

func (p *fakePanel) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	if p.err != nil {
		return p.err
	}
	p.frames = append(p.frames, src)
	return nil
}

func litPixels(img image.Image) (n int, maxX, maxY int) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.At(x, y) == image1bit.On {
				n++
				maxX = max(maxX, x)
				maxY = max(maxY, y)
			}
		}
	}
	return n, maxX, maxY
}

func TestOLEDDisplay_RendersTextTopLeft(t *testing.T) {
	panel := &fakePanel{bounds: image.Rect(0, 0, 128, 32)}
	d := NewOLEDDisplay(panel)

	require.NoError(t, d.Render("FULL"))
	require.Len(t, panel.frames, 1)

	n, maxX, maxY := litPixels(panel.frames[0])
	assert.Positive(t, n)
	assert.Less(t, maxX, 4*7, "text should occupy four 7px cells")
	assert.Less(t, maxY, 13, "text should sit on the first line")
	assert.Equal(t, panel.bounds, panel.frames[0].Bounds())
}

func TestOLEDDisplay_EachFrameStartsBlank(t *testing.T) {
	panel := &fakePanel{bounds: image.Rect(0, 0, 128, 32)}
	d := NewOLEDDisplay(panel)

	require.NoError(t, d.Render("Spaces: 100"))
	require.NoError(t, d.Render(""))

	n, _, _ := litPixels(panel.frames[1])
	assert.Zero(t, n, "an empty frame must not keep pixels from the previous one")

	wide, _, _ := litPixels(panel.frames[0])
	require.NoError(t, d.Render("Spaces: 1"))
	narrow, _, _ := litPixels(panel.frames[2])
	assert.Less(t, narrow, wide)
}

func TestOLEDDisplay_PropagatesDrawError(t *testing.T) {
	busErr := errors.New("i2c write failed")
	d := NewOLEDDisplay(&fakePanel{bounds: image.Rect(0, 0, 128, 32), err: busErr})

	assert.ErrorIs(t, d.Render("Spaces: 3"), busErr)
}
