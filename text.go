package simview

import (
	"bytes"
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/gofont/goregular"
)

// DefaultLabelSize is the entity label font size in world pixels.
const DefaultLabelSize = 10

// LabelFont wraps Ebitengine's text/v2 for entity labels.
type LabelFont struct {
	face *text.GoTextFace
	lh   float64 // cached line height
}

// LoadLabelFont loads a TrueType font from raw TTF/OTF data at the given size.
func LoadLabelFont(ttfData []byte, size float64) (*LabelFont, error) {
	source, err := text.NewGoTextFaceSource(bytes.NewReader(ttfData))
	if err != nil {
		return nil, fmt.Errorf("simview: parse font: %w", err)
	}
	face := &text.GoTextFace{Source: source, Size: size}
	m := face.Metrics()
	return &LabelFont{face: face, lh: m.HAscent + m.HDescent + m.HLineGap}, nil
}

// DefaultLabelFont loads Go Regular at DefaultLabelSize.
func DefaultLabelFont() (*LabelFont, error) {
	return LoadLabelFont(goregular.TTF, DefaultLabelSize)
}

// Measure returns the width and height of the rendered string.
func (f *LabelFont) Measure(s string) (width, height float64) {
	return text.Measure(s, f.face, f.lh)
}

// LineHeight returns the vertical distance between baselines.
func (f *LabelFont) LineHeight() float64 {
	return f.lh
}

// drawCentered draws s with its top edge centered on (x, y) in the space
// described by m.
func (f *LabelFont) drawCentered(dst *ebiten.Image, s string, x, y float64, m ebiten.GeoM, c Color) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.GeoM.Concat(m)
	op.ColorScale.ScaleWithColor(c.toRGBA())
	op.LineSpacing = f.lh
	op.PrimaryAlign = text.AlignCenter
	text.Draw(dst, s, f.face, op)
}
