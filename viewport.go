package simview

import (
	"math"
)

const (
	// ZoomStep is the per-notch zoom factor of the wheel and the zoom buttons.
	ZoomStep = 1.1
	// DefaultPanThreshold is the drag distance, in screen pixels, below which a
	// press-release on the background is a click rather than a pan.
	DefaultPanThreshold = 4.0
)

// ViewState is the persisted part of a Viewport.
type ViewState struct {
	Scale   float64 `mapstructure:"scale"`
	OffsetX float64 `mapstructure:"offset_x"`
	OffsetY float64 `mapstructure:"offset_y"`
}

// Viewport maps world pixels (tile index times TileSize) to canvas pixels:
// screen = world*scale + Offset. It never animates; every change is immediate.
// The scale is only ever written through clampScale, so it always lies in
// [MinScale, MaxScale].
type Viewport struct {
	scale            float64
	OffsetX, OffsetY float64

	MinScale, MaxScale float64
	PanThreshold       float64
	// DampenWheel applies a cube root to the per-notch wheel factor, for
	// platforms whose wheel deltas arrive far more often than one per notch.
	DampenWheel bool

	canvasW, canvasH float64
	worldW, worldH   float64

	panning      bool
	panStart     Vec2
	viewStart    Vec2
	dragDistance float64

	onChange func(ViewState)
}

// NewViewport creates a viewport at scale 1 with the given scale limits.
func NewViewport(minScale, maxScale float64) *Viewport {
	if minScale <= 0 {
		minScale = DefaultMinScale
	}
	if maxScale < minScale {
		maxScale = minScale
	}
	return &Viewport{
		scale:        clamp(1, minScale, maxScale),
		MinScale:     minScale,
		MaxScale:     maxScale,
		PanThreshold: DefaultPanThreshold,
	}
}

// OnChange registers fn to be called after every view-state mutation.
func (v *Viewport) OnChange(fn func(ViewState)) {
	v.onChange = fn
}

// Scale returns the current zoom factor.
func (v *Viewport) Scale() float64 {
	return v.scale
}

// State returns the persisted fields.
func (v *Viewport) State() ViewState {
	return ViewState{Scale: v.scale, OffsetX: v.OffsetX, OffsetY: v.OffsetY}
}

// Restore applies a saved state, clamping its scale. It reports false and
// leaves the viewport untouched when the state is unusable.
func (v *Viewport) Restore(s ViewState) bool {
	if !(s.Scale > 0) || math.IsInf(s.Scale, 0) || math.IsNaN(s.OffsetX) || math.IsNaN(s.OffsetY) {
		return false
	}
	v.scale = v.clampScale(s.Scale)
	v.OffsetX, v.OffsetY = s.OffsetX, s.OffsetY
	v.changed()
	return true
}

// SetCanvasSize records the canvas size in pixels. It reports whether the
// size changed.
func (v *Viewport) SetCanvasSize(w, h float64) bool {
	if w == v.canvasW && h == v.canvasH {
		return false
	}
	v.canvasW, v.canvasH = w, h
	return true
}

// CanvasSize returns the canvas size in pixels.
func (v *Viewport) CanvasSize() (w, h float64) {
	return v.canvasW, v.canvasH
}

// SetWorldSize records the world size in pixels.
func (v *Viewport) SetWorldSize(w, h float64) {
	v.worldW, v.worldH = w, h
}

// WorldSize returns the world size in pixels.
func (v *Viewport) WorldSize() (w, h float64) {
	return v.worldW, v.worldH
}

func (v *Viewport) clampScale(s float64) float64 {
	return clamp(s, v.MinScale, v.MaxScale)
}

func (v *Viewport) changed() {
	if v.onChange != nil {
		v.onChange(v.State())
	}
}

// ZoomAtPoint multiplies the scale by m, clamped, keeping the world point
// under the canvas point (px, py) fixed on screen.
func (v *Viewport) ZoomAtPoint(px, py, m float64) {
	old := v.scale
	next := v.clampScale(old * m)
	if next == old || old == 0 {
		return
	}
	ratio := next / old
	v.OffsetX = px - ratio*(px-v.OffsetX)
	v.OffsetY = py - ratio*(py-v.OffsetY)
	v.scale = next
	v.changed()
}

// Zoom multiplies the scale by m, anchored at the canvas center.
func (v *Viewport) Zoom(m float64) {
	v.ZoomAtPoint(v.canvasW/2, v.canvasH/2, m)
}

// ZoomIn and ZoomOut step the zoom by one notch around the canvas center.
func (v *Viewport) ZoomIn()  { v.Zoom(ZoomStep) }
func (v *Viewport) ZoomOut() { v.Zoom(1 / ZoomStep) }

// Fit scales the whole world into the canvas, never above native size, and
// centers it. A viewport without a canvas or world is left untouched.
func (v *Viewport) Fit() {
	if v.canvasW <= 0 || v.canvasH <= 0 || v.worldW <= 0 || v.worldH <= 0 {
		return
	}
	s := math.Min(1, math.Min(v.canvasW/v.worldW, v.canvasH/v.worldH))
	v.scale = v.clampScale(s)
	v.center()
	v.changed()
}

// Center places the world in the middle of the canvas at the current scale.
func (v *Viewport) Center() {
	if v.canvasW <= 0 || v.canvasH <= 0 {
		return
	}
	v.center()
	v.changed()
}

func (v *Viewport) center() {
	v.OffsetX = (v.canvasW - v.worldW*v.scale) / 2
	v.OffsetY = (v.canvasH - v.worldH*v.scale) / 2
}

// Wheel zooms at the canvas point (px, py) for a wheel movement of deltaY
// notches. Positive deltaY zooms in.
func (v *Viewport) Wheel(px, py, deltaY float64) {
	if deltaY == 0 {
		return
	}
	step := ZoomStep
	if v.DampenWheel {
		step = math.Cbrt(step)
	}
	v.ZoomAtPoint(px, py, math.Pow(step, deltaY))
}

// BeginPan starts a pan gesture at canvas point (x, y).
func (v *Viewport) BeginPan(x, y float64) {
	v.panning = true
	v.panStart = Vec2{x, y}
	v.viewStart = Vec2{v.OffsetX, v.OffsetY}
	v.dragDistance = 0
}

// Panning reports whether a pan gesture is in progress.
func (v *Viewport) Panning() bool {
	return v.panning
}

// MovePan moves the world with the pointer while a gesture is active.
func (v *Viewport) MovePan(x, y float64) {
	if !v.panning {
		return
	}
	dx, dy := x-v.panStart.X, y-v.panStart.Y
	v.dragDistance = math.Max(v.dragDistance, math.Hypot(dx, dy))
	v.OffsetX = v.viewStart.X + dx
	v.OffsetY = v.viewStart.Y + dy
	v.changed()
}

// EndPan finishes the gesture. It reports true when the pointer never moved
// PanThreshold pixels away from where it went down, which makes the gesture
// a click.
func (v *Viewport) EndPan() (click bool) {
	if !v.panning {
		return false
	}
	v.panning = false
	return v.dragDistance < v.PanThreshold
}

// Matrix returns the world-to-canvas affine matrix Translate(offset)*Scale.
func (v *Viewport) Matrix() [6]float64 {
	return translateScale(v.OffsetX, v.OffsetY, v.scale)
}

// WorldToScreen converts world pixels to canvas pixels.
func (v *Viewport) WorldToScreen(wx, wy float64) (sx, sy float64) {
	return transformPoint(v.Matrix(), wx, wy)
}

// ScreenToWorld converts canvas pixels to world pixels.
func (v *Viewport) ScreenToWorld(sx, sy float64) (wx, wy float64) {
	return transformPoint(invertAffine(v.Matrix()), sx, sy)
}

// VisibleBounds returns the world-space rectangle covered by the canvas.
func (v *Viewport) VisibleBounds() Rect {
	x0, y0 := v.ScreenToWorld(0, 0)
	x1, y1 := v.ScreenToWorld(v.canvasW, v.canvasH)
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// VisibleTileBounds returns the tiles of a cols x rows map of tileSize tiles
// that intersect the canvas, clipped to the map.
func (v *Viewport) VisibleTileBounds(cols, rows int, tileSize float64) TileRange {
	span := tileSize * v.scale
	if span <= 0 || cols <= 0 || rows <= 0 {
		return TileRange{}
	}
	r := TileRange{
		StartX: int(math.Max(0, math.Floor(-v.OffsetX/span))),
		StartY: int(math.Max(0, math.Floor(-v.OffsetY/span))),
		EndX:   int(math.Min(float64(cols), math.Ceil((v.canvasW-v.OffsetX)/span))),
		EndY:   int(math.Min(float64(rows), math.Ceil((v.canvasH-v.OffsetY)/span))),
	}
	if r.Empty() {
		return TileRange{}
	}
	return r
}
