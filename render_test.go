package simview

import (
	"testing"
	"time"
)

func gridSnapshot(w, h, code int) *Snapshot {
	tiles := make([][]int, h)
	for y := range tiles {
		tiles[y] = make([]int, w)
		for x := range tiles[y] {
			tiles[y][x] = code
		}
	}
	return &Snapshot{World: World{
		Tilemap:  &Tilemap{Width: w, Height: h, Tiles: tiles},
		Entities: map[string]*Entity{},
	}}
}

func countType(cmds []DrawCommand, typ CommandType) int {
	n := 0
	for _, c := range cmds {
		if c.Type == typ {
			n++
		}
	}
	return n
}

func TestRendererEmptyFrame(t *testing.T) {
	r := NewRenderer(nil, nil)
	if cmds := r.Build(Frame{}); len(cmds) != 0 {
		t.Errorf("empty frame produced %d commands", len(cmds))
	}
}

func TestRendererSmallMapDrawsEveryTile(t *testing.T) {
	r := NewRenderer(nil, nil)
	vp := newTestViewport(100, 100, 320, 320)
	cmds := r.Build(Frame{Snapshot: gridSnapshot(10, 10, TileWater), Viewport: vp, Now: t0})

	if got := countType(cmds, CommandFill); got != 100 {
		t.Errorf("tile fills = %d, want 100", got)
	}
	if st := r.Stats(); st.Culled || st.Tiles != 100 || st.Commands != 100 {
		t.Errorf("stats = %+v", st)
	}
	if cmds[0].Color != mustHex("#88CCFF") || cmds[0].Width != TileSize {
		t.Errorf("first tile = %+v", cmds[0])
	}
	last := cmds[99]
	if last.X != 9*TileSize || last.Y != 9*TileSize {
		t.Errorf("last tile at (%v, %v)", last.X, last.Y)
	}
}

func TestRendererCullsLargeMaps(t *testing.T) {
	r := NewRenderer(nil, nil)
	vp := newTestViewport(800, 600, 300*TileSize, 300*TileSize)
	cmds := r.Build(Frame{Snapshot: gridSnapshot(300, 300, TileSand), Viewport: vp, Now: t0})

	st := r.Stats()
	if !st.Culled {
		t.Fatal("300x300 map not culled")
	}
	if want := 25 * 19; st.Tiles != want || len(cmds) != want {
		t.Errorf("tiles = %d commands = %d, want %d", st.Tiles, len(cmds), want)
	}
}

func TestRendererCullThresholdBoundary(t *testing.T) {
	r := NewRenderer(nil, nil)
	r.CullThreshold = 100
	vp := newTestViewport(64, 64, 320, 320)

	r.Build(Frame{Snapshot: gridSnapshot(10, 10, 0), Viewport: vp, Now: t0})
	if r.Stats().Culled {
		t.Error("map at threshold culled")
	}
	r.Build(Frame{Snapshot: gridSnapshot(11, 10, 0), Viewport: vp, Now: t0})
	if st := r.Stats(); !st.Culled || st.Tiles != 4 {
		t.Errorf("map above threshold: %+v, want culled to 4 tiles", st)
	}
}

func TestRendererUnknownTileIsMagenta(t *testing.T) {
	r := NewRenderer(nil, nil)
	cmds := r.Build(Frame{Snapshot: gridSnapshot(1, 1, 77), Viewport: newTestViewport(10, 10, 32, 32), Now: t0})
	if len(cmds) != 1 || cmds[0].Color != ColorUnknownTile {
		t.Errorf("commands = %+v", cmds)
	}
}

func TestRendererEntities(t *testing.T) {
	s := gridSnapshot(0, 0, 0)
	s.World.Entities = map[string]*Entity{
		"b": {ID: "b", Name: "Bee", Location: &Location{X: 2, Y: 1}},
		"a": {ID: "a", Location: &Location{X: 0, Y: 0}},
		"x": {ID: "x"}, // no location: not drawn
	}
	r := NewRenderer(nil, nil)
	cmds := r.Build(Frame{Snapshot: s, Viewport: newTestViewport(100, 100, 0, 0), Selected: "b", Now: t0})

	if len(cmds) != 6 {
		t.Fatalf("commands = %d, want 6", len(cmds))
	}
	fill, stroke, label := cmds[3], cmds[4], cmds[5]
	if fill.Type != CommandFill || fill.X != 2*TileSize+2 || fill.Y != TileSize+2 || fill.Width != TileSize-4 {
		t.Errorf("fill = %+v", fill)
	}
	if fill.Color != r.Palette.Entity("b") {
		t.Error("fill color not the entity hue")
	}
	if stroke.Type != CommandStroke || stroke.Stroke != 2 || stroke.Color != ColorBlack {
		t.Errorf("stroke = %+v", stroke)
	}
	if label.Type != CommandLabel || label.Text != "Bee" || !label.Selected || label.Color != ColorLabelSelected {
		t.Errorf("label = %+v", label)
	}
	if label.X != 2*TileSize+TileSize/2 || label.Y != 2*TileSize+2 {
		t.Errorf("label at (%v, %v)", label.X, label.Y)
	}
	if cmds[2].Text != "a" || cmds[2].Selected {
		t.Errorf("unselected label = %+v", cmds[2])
	}
	if r.Stats().Entities != 2 {
		t.Errorf("Entities = %d, want 2", r.Stats().Entities)
	}
	// Two fills, two strokes of four edges, one plain label, one boxed label.
	if got := r.DrawCalls(); got != 2+8+1+2 {
		t.Errorf("DrawCalls = %d", got)
	}
}

func TestRendererSkipsOffscreenEntities(t *testing.T) {
	s := gridSnapshot(0, 0, 0)
	s.World.Entities = map[string]*Entity{
		"edge": {ID: "edge", Location: &Location{X: 3, Y: 0}},
		"far":  {ID: "far", Location: &Location{X: 10, Y: 10}},
		"near": {ID: "near", Location: &Location{X: 0, Y: 0}},
	}
	r := NewRenderer(nil, nil)
	cmds := r.Build(Frame{Snapshot: s, Viewport: newTestViewport(100, 100, 0, 0), Now: t0})

	st := r.Stats()
	if st.Entities != 2 || st.Offscreen != 1 {
		t.Errorf("entities = %d offscreen = %d, want 2 and 1", st.Entities, st.Offscreen)
	}
	for _, c := range cmds {
		if c.Entity == "far" {
			t.Fatalf("offscreen entity drawn: %+v", c)
		}
	}

	// Without a canvas size nothing is known to be off screen.
	r.Build(Frame{Snapshot: s, Viewport: NewViewport(0.1, 1), Now: t0})
	if st := r.Stats(); st.Entities != 3 || st.Offscreen != 0 {
		t.Errorf("no canvas: entities = %d offscreen = %d", st.Entities, st.Offscreen)
	}
}

func TestRendererUsesTweenPosition(t *testing.T) {
	s := gridSnapshot(0, 0, 0)
	s.World.Entities = map[string]*Entity{"d": {ID: "d", Location: &Location{X: 1, Y: 0}}}
	ts := NewTweenStore(100 * time.Millisecond)
	ts.Advance("d", 0, 0, t0)
	ts.Advance("d", 1, 0, t0)

	r := NewRenderer(nil, nil)
	cmds := r.Build(Frame{Snapshot: s, Tweens: ts, Viewport: newTestViewport(100, 100, 0, 0), Now: ms(50)})
	if !approxEqual(cmds[0].X, 16+entityInset, 1e-6) {
		t.Errorf("fill X = %v, want tweened 18", cmds[0].X)
	}

	// Without tween state the raw tile position is used.
	ts.Reset()
	cmds = r.Build(Frame{Snapshot: s, Tweens: ts, Viewport: newTestViewport(100, 100, 0, 0), Now: ms(50)})
	if cmds[0].X != TileSize+entityInset {
		t.Errorf("fill X = %v, want raw tile position", cmds[0].X)
	}
}

func TestRendererSpritePlaceholder(t *testing.T) {
	srv, _ := spriteServer(t)
	sc := newTestSpriteCache(t, srv)

	s := gridSnapshot(0, 0, 0)
	s.World.Entities = map[string]*Entity{
		"a": {ID: "a", Model: "gonk", Location: &Location{}},
		"b": {ID: "b", Model: "missing", Location: &Location{X: 1}},
	}
	r := NewRenderer(sc, nil)
	vp := newTestViewport(100, 100, 0, 0)

	cmds := r.Build(Frame{Snapshot: s, Viewport: vp, Now: t0})
	if r.Stats().Placeholders != 2 || cmds[0].Color != ColorPlaceholder {
		t.Fatalf("loading frame: placeholders = %d, first = %+v", r.Stats().Placeholders, cmds[0])
	}

	sc.Wait()
	cmds = r.Build(Frame{Snapshot: s, Viewport: vp, Now: t0})
	if cmds[0].Type != CommandImage || cmds[0].Image == nil {
		t.Errorf("loaded sprite = %+v", cmds[0])
	}
	if cmds[2].Type != CommandFill || cmds[2].Color != ColorPlaceholder {
		t.Errorf("failed sprite = %+v, want placeholder", cmds[2])
	}
	if r.Stats().Placeholders != 1 {
		t.Errorf("Placeholders = %d, want 1", r.Stats().Placeholders)
	}
}

func TestRendererDrawReusesCanvas(t *testing.T) {
	r := NewRenderer(nil, nil)
	if !r.ensureCanvas(64, 32) {
		t.Fatal("first canvas not reported as allocated")
	}
	if r.ensureCanvas(64, 32) {
		t.Error("same size reallocated")
	}
	if !r.ensureCanvas(65, 32) {
		t.Error("new size not reallocated")
	}
	if b := r.Canvas().Bounds(); b.Dx() != 65 {
		t.Errorf("canvas width = %d", b.Dx())
	}
}
