package simview

import (
	"fmt"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

// TileSize is the edge length of one map tile in world pixels.
const TileSize = 32

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
// Premultiplication occurs at render submission time.
type Color struct {
	R, G, B, A float64
}

var (
	ColorWhite = Color{1, 1, 1, 1}
	ColorBlack = Color{0, 0, 0, 1}
)

// Vec2 is a 2D vector used for positions and offsets.
type Vec2 struct {
	X, Y float64
}

// WhitePixel is a 1x1 white image scaled and tinted for solid rectangles.
var WhitePixel *ebiten.Image

func init() {
	WhitePixel = ebiten.NewImage(1, 1)
	WhitePixel.Fill(color.White)
}

// Rect is an axis-aligned rectangle. The coordinate system has its origin at
// the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// Intersects reports whether r and o overlap. Touching edges count.
func (r Rect) Intersects(o Rect) bool {
	overlapX := o.X <= r.X+r.Width && r.X <= o.X+o.Width
	overlapY := o.Y <= r.Y+r.Height && r.Y <= o.Y+o.Height
	return overlapX && overlapY
}

// TileRange is a half-open range of tile columns and rows [StartX, EndX) x [StartY, EndY).
type TileRange struct {
	StartX, StartY, EndX, EndY int
}

// Empty reports whether the range covers no tiles.
func (r TileRange) Empty() bool {
	return r.EndX <= r.StartX || r.EndY <= r.StartY
}

// Count returns the number of tiles in the range.
func (r TileRange) Count() int {
	if r.Empty() {
		return 0
	}
	return (r.EndX - r.StartX) * (r.EndY - r.StartY)
}

// ParseHexColor parses "#RRGGBB" into an opaque Color.
func ParseHexColor(s string) (Color, error) {
	var r, g, b uint8
	if len(s) != 7 || s[0] != '#' {
		return Color{}, fmt.Errorf("simview: invalid hex color %q", s)
	}
	if _, err := fmt.Sscanf(s[1:], "%02x%02x%02x", &r, &g, &b); err != nil {
		return Color{}, fmt.Errorf("simview: invalid hex color %q: %w", s, err)
	}
	return Color{float64(r) / 255, float64(g) / 255, float64(b) / 255, 1}, nil
}

// mustHex is ParseHexColor for package-level palette literals.
func mustHex(s string) Color {
	c, err := ParseHexColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

// HSL converts hue (degrees), saturation and lightness (both [0, 1]) to an
// opaque Color, matching the CSS hsl() function.
func HSL(h, s, l float64) Color {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	c := (1 - math.Abs(2*l-1)) * s
	hp := h / 60
	x := c * (1 - math.Abs(math.Mod(hp, 2)-1))
	var r, g, b float64
	switch {
	case hp < 1:
		r, g, b = c, x, 0
	case hp < 2:
		r, g, b = x, c, 0
	case hp < 3:
		r, g, b = 0, c, x
	case hp < 4:
		r, g, b = 0, x, c
	case hp < 5:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	m := l - c/2
	return Color{r + m, g + m, b + m, 1}
}

// toRGBA converts a Color to a premultiplied color.RGBA.
func (c Color) toRGBA() color.RGBA {
	return color.RGBA{
		R: uint8(clamp01(c.R*c.A) * 255),
		G: uint8(clamp01(c.G*c.A) * 255),
		B: uint8(clamp01(c.B*c.A) * 255),
		A: uint8(clamp01(c.A) * 255),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
