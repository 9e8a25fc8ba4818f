package simview

import (
	"slices"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/sirupsen/logrus"
)

// DefaultCullThreshold is the tile count above which only visible tiles are
// drawn.
const DefaultCullThreshold = 256 * 256

const (
	entityInset  = 2.0
	entityStroke = 2.0
	labelGap     = 2.0
	labelPadding = 2.0
)

// CommandType identifies the kind of draw command.
type CommandType uint8

const (
	CommandFill   CommandType = iota // solid rectangle
	CommandStroke                    // rectangle outline of width Stroke
	CommandImage                     // image scaled into the rectangle
	CommandLabel                     // text centered on X, top at Y
)

// DrawCommand is a single draw instruction in world pixels. Commands are
// emitted by Build and submitted by Draw, which keeps frame building free of
// GPU work.
type DrawCommand struct {
	Type          CommandType
	X, Y          float64
	Width, Height float64
	Color         Color
	Stroke        float64
	Image         *ebiten.Image
	Text          string
	Selected      bool

	// Entity is the id the command belongs to, empty for tiles.
	Entity string
}

// Frame is everything needed to paint one frame of the world.
type Frame struct {
	Snapshot *Snapshot
	Tweens   *TweenStore
	Viewport *Viewport
	Selected string
	Now      time.Time
}

// Renderer paints tiles and entities onto an offscreen canvas that tracks
// the destination size.
type Renderer struct {
	Palette       *Palette
	Sprites       *SpriteCache
	UseSprites    bool
	CullThreshold int

	font     *LabelFont
	canvas   *ebiten.Image
	commands []DrawCommand
	stats    RenderStats
	debug    bool
	log      logrus.FieldLogger
}

// NewRenderer creates a renderer with the default palette. A nil sprites
// cache draws every entity as a colored square.
func NewRenderer(sprites *SpriteCache, log logrus.FieldLogger) *Renderer {
	if log == nil {
		log = discardLogger()
	}
	return &Renderer{
		Palette:       DefaultPalette(),
		Sprites:       sprites,
		UseSprites:    sprites != nil,
		CullThreshold: DefaultCullThreshold,
		log:           log,
	}
}

// SetDebug enables per-frame stats logging.
func (r *Renderer) SetDebug(on bool) {
	r.debug = on
}

// Stats returns the counters of the last built frame.
func (r *Renderer) Stats() RenderStats {
	return r.stats
}

// Build emits the draw commands for f: tiles first, then each entity as a
// square or sprite plus a label. The returned slice is reused by the next
// call. A frame without a snapshot or viewport yields nothing.
func (r *Renderer) Build(f Frame) []DrawCommand {
	start := time.Now()
	r.commands = r.commands[:0]
	r.stats = RenderStats{}
	if f.Snapshot == nil || f.Viewport == nil {
		return r.commands
	}
	r.buildTiles(f.Snapshot.World.Tilemap, f.Viewport)
	r.buildEntities(f)
	r.stats.Commands = len(r.commands)
	r.stats.BuildTime = time.Since(start)
	return r.commands
}

func (r *Renderer) buildTiles(tm *Tilemap, vp *Viewport) {
	if tm == nil {
		return
	}
	rng := TileRange{EndX: tm.Width, EndY: tm.Height}
	if tm.Width*tm.Height > r.CullThreshold {
		rng = vp.VisibleTileBounds(tm.Width, tm.Height, TileSize)
		r.stats.Culled = true
	}
	r.commands = slices.Grow(r.commands, rng.Count())
	for y := rng.StartY; y < rng.EndY && y < len(tm.Tiles); y++ {
		row := tm.Tiles[y]
		for x := rng.StartX; x < rng.EndX && x < len(row); x++ {
			r.commands = append(r.commands, DrawCommand{
				Type:   CommandFill,
				X:      float64(x * TileSize),
				Y:      float64(y * TileSize),
				Width:  TileSize,
				Height: TileSize,
				Color:  r.Palette.Tile(row[x]),
			})
			r.stats.Tiles++
		}
	}
}

func (r *Renderer) buildEntities(f Frame) {
	var visible Rect
	cw, ch := f.Viewport.CanvasSize()
	cull := cw > 0 && ch > 0
	if cull {
		visible = f.Viewport.VisibleBounds()
	}
	for _, id := range f.Snapshot.EntityIDs() {
		e := f.Snapshot.World.Entities[id]
		x, y, ok := entityPosition(f.Tweens, e, f.Now)
		if !ok {
			continue
		}
		if cull && !visible.Intersects(entityBounds(x, y)) {
			r.stats.Offscreen++
			continue
		}
		r.stats.Entities++

		box := DrawCommand{
			X:      x + entityInset,
			Y:      y + entityInset,
			Width:  TileSize - 2*entityInset,
			Height: TileSize - 2*entityInset,
			Entity: e.ID,
		}
		if r.UseSprites && r.Sprites != nil && e.Model != "" {
			img, state := r.Sprites.Get(e.Model)
			if state == SpriteReady {
				box.Type = CommandImage
				box.Image = img
				box.Color = ColorWhite
				r.commands = append(r.commands, box)
			} else {
				box.Type = CommandFill
				box.Color = ColorPlaceholder
				r.commands = append(r.commands, box)
				r.stats.Placeholders++
			}
		} else {
			box.Type = CommandFill
			box.Color = r.Palette.Entity(e.ID)
			r.commands = append(r.commands, box)
			box.Type = CommandStroke
			box.Color = ColorBlack
			box.Stroke = entityStroke
			r.commands = append(r.commands, box)
		}

		selected := e.ID == f.Selected && f.Selected != ""
		label := DrawCommand{
			Type:     CommandLabel,
			X:        x + TileSize/2,
			Y:        y + TileSize + labelGap,
			Text:     e.Label(),
			Color:    ColorLabel,
			Selected: selected,
			Entity:   e.ID,
		}
		if selected {
			label.Color = ColorLabelSelected
		}
		r.commands = append(r.commands, label)
	}
}

// entityBounds is the world area an entity at (x, y) may paint: its tile,
// the label row below it, and a tile either side for wide labels.
func entityBounds(x, y float64) Rect {
	return Rect{X: x - TileSize, Y: y, Width: 3 * TileSize, Height: 2 * TileSize}
}

// entityPosition resolves the world pixel position of e: the tween position
// when one exists, otherwise the raw tile position.
func entityPosition(ts *TweenStore, e *Entity, now time.Time) (x, y float64, ok bool) {
	if e == nil {
		return 0, 0, false
	}
	if ts != nil {
		if x, y, ok := ts.RenderPosition(e.ID, now); ok {
			return x, y, true
		}
	}
	if e.Location == nil {
		return 0, 0, false
	}
	return float64(e.Location.X * TileSize), float64(e.Location.Y * TileSize), true
}

// Draw paints f onto dst. The offscreen canvas is reallocated only when the
// destination size changes.
func (r *Renderer) Draw(dst *ebiten.Image, f Frame) {
	if dst == nil {
		return
	}
	b := dst.Bounds()
	resized := r.ensureCanvas(b.Dx(), b.Dy())
	r.canvas.Clear()

	cmds := r.Build(f)
	r.stats.Resized = resized
	if len(cmds) > 0 {
		r.submit(r.canvas, cmds, geoM(f.Viewport.Matrix()))
	}
	dst.DrawImage(r.canvas, nil)
	r.debugLog()
}

// ensureCanvas reports whether the canvas had to be (re)allocated.
func (r *Renderer) ensureCanvas(w, h int) bool {
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	if r.canvas != nil {
		cb := r.canvas.Bounds()
		if cb.Dx() == w && cb.Dy() == h {
			return false
		}
		r.canvas.Deallocate()
	}
	r.canvas = ebiten.NewImage(w, h)
	return true
}

// Canvas returns the offscreen canvas, or nil before the first Draw.
func (r *Renderer) Canvas() *ebiten.Image {
	return r.canvas
}
