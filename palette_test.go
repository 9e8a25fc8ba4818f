package simview

import "testing"

func TestPaletteTiles(t *testing.T) {
	p := DefaultPalette()
	tests := []struct {
		name string
		code int
		want string
	}{
		{"sand", TileSand, "#C2A060"},
		{"rock", TileRock, "#555555"},
		{"water", TileWater, "#88CCFF"},
		{"unknown", 9, "#FF00FF"},
		{"negative", -1, "#FF00FF"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, want := p.Tile(tt.code), mustHex(tt.want); got != want {
				t.Errorf("Tile(%d) = %+v, want %+v", tt.code, got, want)
			}
		})
	}
}

func TestPaletteSetTile(t *testing.T) {
	p := DefaultPalette()
	p.SetTile(7, ColorBlack)
	if got := p.Tile(7); got != ColorBlack {
		t.Errorf("Tile(7) = %+v, want black", got)
	}
}

func TestEntityHue(t *testing.T) {
	tests := []struct {
		id   string
		want uint32
	}{
		{"a", 97},
		{"ab", (97*131 + 98) % 360},
		{"", EntityHue("unknown")},
	}
	for _, tt := range tests {
		if got := EntityHue(tt.id); got != tt.want {
			t.Errorf("EntityHue(%q) = %d, want %d", tt.id, got, tt.want)
		}
	}
}

func TestEntityHueWrapsUint32(t *testing.T) {
	// Long ids overflow uint32 and must still land in [0, 360).
	id := "droid-0123456789-abcdefghijklmnopqrstuvwxyz"
	h := EntityHue(id)
	if h >= 360 {
		t.Fatalf("EntityHue = %d, want < 360", h)
	}
	if h != EntityHue(id) {
		t.Error("EntityHue not deterministic")
	}
}

func TestPaletteEntityStable(t *testing.T) {
	p := DefaultPalette()
	a := p.Entity("droid-1")
	if b := p.Entity("droid-1"); a != b {
		t.Errorf("Entity color changed between calls: %+v vs %+v", a, b)
	}
	if c := DefaultPalette().Entity("droid-1"); a != c {
		t.Errorf("Entity color differs across palettes: %+v vs %+v", a, c)
	}
	if want := HSL(float64(EntityHue("droid-1")), 0.65, 0.55); a != want {
		t.Errorf("Entity color = %+v, want %+v", a, want)
	}
}
