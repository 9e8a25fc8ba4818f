package simview

import "unicode/utf16"

// Tile type codes understood by the default palette.
const (
	TileSand  = 0
	TileRock  = 1
	TileWater = 2
)

var (
	// ColorUnknownTile marks tile codes missing from the palette.
	ColorUnknownTile = mustHex("#FF00FF")
	// ColorPlaceholder fills an entity whose sprite is not loaded.
	ColorPlaceholder = mustHex("#888888")
	// ColorLabel and ColorLabelSelected are the entity label styles.
	ColorLabel         = ColorWhite
	ColorLabelSelected = mustHex("#FFE066")
)

// Palette maps tile codes and entity ids to fill colors. Entity colors are
// memoized since they depend on the id alone.
type Palette struct {
	tiles    map[int]Color
	unknown  Color
	entities map[string]Color
}

// DefaultPalette returns the sand/rock/water palette.
func DefaultPalette() *Palette {
	return &Palette{
		tiles: map[int]Color{
			TileSand:  mustHex("#C2A060"),
			TileRock:  mustHex("#555555"),
			TileWater: mustHex("#88CCFF"),
		},
		unknown:  ColorUnknownTile,
		entities: make(map[string]Color),
	}
}

// Tile returns the fill for a tile code; unmapped codes are magenta.
func (p *Palette) Tile(code int) Color {
	if c, ok := p.tiles[code]; ok {
		return c
	}
	return p.unknown
}

// SetTile maps code to c.
func (p *Palette) SetTile(code int, c Color) {
	p.tiles[code] = c
}

// Entity returns the stable fill color for an entity id.
func (p *Palette) Entity(id string) Color {
	if c, ok := p.entities[id]; ok {
		return c
	}
	c := HSL(float64(EntityHue(id)), 0.65, 0.55)
	p.entities[id] = c
	return c
}

// EntityHue hashes id to a hue in [0, 360). The hash runs over UTF-16 code
// units with h = h*131 + unit in uint32 arithmetic. An empty id hashes as
// "unknown".
func EntityHue(id string) uint32 {
	if id == "" {
		id = "unknown"
	}
	var h uint32
	for _, u := range utf16.Encode([]rune(id)) {
		h = h*131 + uint32(u)
	}
	return h % 360
}
