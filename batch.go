package simview

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// submit draws cmds onto target. view maps world pixels to canvas pixels.
func (r *Renderer) submit(target *ebiten.Image, cmds []DrawCommand, view ebiten.GeoM) {
	var op ebiten.DrawImageOptions
	for i := range cmds {
		cmd := &cmds[i]
		switch cmd.Type {
		case CommandFill:
			submitRect(target, cmd.X, cmd.Y, cmd.Width, cmd.Height, cmd.Color, view, &op)
		case CommandStroke:
			submitStroke(target, cmd, view, &op)
		case CommandImage:
			submitImage(target, cmd, view, &op)
		case CommandLabel:
			r.submitLabel(target, cmd, view, &op)
		}
	}
}

// submitRect fills a world-space rectangle by scaling WhitePixel.
func submitRect(target *ebiten.Image, x, y, w, h float64, c Color, view ebiten.GeoM, op *ebiten.DrawImageOptions) {
	if w <= 0 || h <= 0 {
		return
	}
	op.GeoM.Reset()
	op.GeoM.Scale(w, h)
	op.GeoM.Translate(x, y)
	op.GeoM.Concat(view)
	op.ColorScale.Reset()
	op.ColorScale.Scale(float32(c.R*c.A), float32(c.G*c.A), float32(c.B*c.A), float32(c.A))
	target.DrawImage(WhitePixel, op)
}

// submitStroke draws an outline centered on the rectangle edge, half inside
// and half outside.
func submitStroke(target *ebiten.Image, cmd *DrawCommand, view ebiten.GeoM, op *ebiten.DrawImageOptions) {
	s := cmd.Stroke
	if s <= 0 {
		return
	}
	h := s / 2
	x0, y0 := cmd.X-h, cmd.Y-h
	w, ht := cmd.Width+s, cmd.Height+s
	submitRect(target, x0, y0, w, s, cmd.Color, view, op)
	submitRect(target, x0, y0+ht-s, w, s, cmd.Color, view, op)
	submitRect(target, x0, y0+s, s, ht-2*s, cmd.Color, view, op)
	submitRect(target, x0+w-s, y0+s, s, ht-2*s, cmd.Color, view, op)
}

// submitImage scales an image into the command rectangle.
func submitImage(target *ebiten.Image, cmd *DrawCommand, view ebiten.GeoM, op *ebiten.DrawImageOptions) {
	if cmd.Image == nil {
		return
	}
	b := cmd.Image.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return
	}
	op.GeoM.Reset()
	op.GeoM.Scale(cmd.Width/float64(b.Dx()), cmd.Height/float64(b.Dy()))
	op.GeoM.Translate(cmd.X, cmd.Y)
	op.GeoM.Concat(view)
	op.ColorScale.Reset()
	op.Filter = ebiten.FilterLinear
	target.DrawImage(cmd.Image, op)
	op.Filter = ebiten.FilterNearest
}

// submitLabel draws an entity label. The selected label sits on a dark
// backing box.
func (r *Renderer) submitLabel(target *ebiten.Image, cmd *DrawCommand, view ebiten.GeoM, op *ebiten.DrawImageOptions) {
	if cmd.Text == "" {
		return
	}
	f := r.labelFont()
	if f == nil {
		return
	}
	if cmd.Selected {
		w, h := f.Measure(cmd.Text)
		submitRect(target,
			cmd.X-w/2-labelPadding, cmd.Y-labelPadding,
			w+2*labelPadding, h+2*labelPadding,
			Color{0, 0, 0, 0.7}, view, op)
	}
	f.drawCentered(target, cmd.Text, cmd.X, cmd.Y, view, cmd.Color)
}

// labelFont loads the label font on first use. A font that fails to load
// disables labels.
func (r *Renderer) labelFont() *LabelFont {
	if r.font != nil {
		if r.font.face == nil {
			return nil
		}
		return r.font
	}
	f, err := DefaultLabelFont()
	if err != nil {
		r.log.WithError(err).Warn("labels disabled")
		r.font = &LabelFont{}
		return nil
	}
	r.font = f
	return f
}
