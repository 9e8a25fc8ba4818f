package simview

import (
	"fmt"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// Overlay geometry, in canvas pixels. DebugPrint glyphs are 6x16.
const (
	PanelWidth     = 340.0
	panelPadding   = 6.0
	lineHeight     = 16.0
	glyphWidth     = 6.0
	indentWidth    = 12.0
	gaugeBarHeight = 8.0
	statsRefresh   = 30 // frames between FPS/TPS samples
)

var (
	panelBackground  = Color{0, 0, 0, 0.72}
	statusBackground = Color{0, 0, 0, 0.5}
	gaugeTrack       = Color{0.25, 0.25, 0.25, 1}
	gaugeFill        = mustHex("#4caf50")
	gaugeBusy        = mustHex("#ff9800")
	gaugeDisabled    = Color{0.4, 0.4, 0.4, 1}
)

// PanelRow is one row of the side panel.
type PanelRow struct {
	Text   string
	Indent int
	// Toggle is the inspector group id the row expands or collapses.
	Toggle string
	// Gauge, when set, draws a bar under Text.
	Gauge *Gauge
}

// Overlay draws the HUD: a status line, the side panel with the selected
// entity's details, the inspector tree and the entity list, and debug stats.
type Overlay struct {
	ShowInspector bool
	ShowEntities  bool
	ShowDebug     bool

	panel  Rect
	rows   []PanelRow
	rowY   []float64
	frames int
	fps    float64
	tps    float64
}

// NewOverlay returns an overlay with the inspector shown.
func NewOverlay() *Overlay {
	return &Overlay{ShowInspector: true}
}

// Contains reports whether (sx, sy) is over the side panel as last laid out.
func (o *Overlay) Contains(sx, sy float64) bool {
	return o.panel.Width > 0 && o.panel.Contains(sx, sy)
}

// LineAt returns the inspector group id of the row at (sx, sy), or "".
func (o *Overlay) LineAt(sx, sy float64) string {
	if !o.Contains(sx, sy) {
		return ""
	}
	for i, y := range o.rowY {
		if sy >= y && sy < y+lineHeight {
			return o.rows[i].Toggle
		}
	}
	return ""
}

// Rows returns the rows of the last layout.
func (o *Overlay) Rows() []PanelRow {
	return o.rows
}

// Layout computes the side panel for a canvas of w by h pixels. The panel is
// hidden when it has nothing to show.
func (o *Overlay) Layout(a *App, w, h float64) {
	o.rows = o.rows[:0]
	o.rowY = o.rowY[:0]
	o.panel = Rect{}

	if e := a.snapshot.Entity(a.selected); e != nil {
		for _, l := range DetailLines(e) {
			o.rows = append(o.rows, PanelRow{Text: l})
		}
		gauges := EntityGauges(e)
		for i := range gauges {
			o.rows = append(o.rows, PanelRow{Text: gaugeTitle(gauges[i]), Gauge: &gauges[i]})
		}
		o.rows = append(o.rows, PanelRow{})
	}
	if o.ShowInspector {
		for _, l := range a.inspector.Lines() {
			row := PanelRow{Text: l.Text, Indent: l.Depth}
			if l.Group {
				row.Toggle = l.ID
			}
			o.rows = append(o.rows, row)
		}
	}
	if o.ShowEntities && a.snapshot != nil {
		o.rows = append(o.rows, PanelRow{Text: fmt.Sprintf("Entities (%d)", len(a.snapshot.World.Entities))})
		for _, id := range a.snapshot.EntityIDs() {
			o.rows = append(o.rows, PanelRow{Text: EntityLine(a.snapshot.World.Entities[id], id == a.selected), Indent: 1})
		}
	}
	if len(o.rows) == 0 {
		return
	}

	pw := PanelWidth
	if pw > w {
		pw = w
	}
	o.panel = Rect{X: w - pw, Y: lineHeight, Width: pw, Height: h - lineHeight}

	y := o.panel.Y + panelPadding
	for _, r := range o.rows {
		o.rowY = append(o.rowY, y)
		y += lineHeight
		if r.Gauge != nil {
			y += gaugeBarHeight + 2
		}
	}
}

// Draw paints the overlay. It runs after the world has been drawn.
func (o *Overlay) Draw(screen *ebiten.Image, a *App) {
	b := screen.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())

	if o.frames%statsRefresh == 0 {
		o.fps, o.tps = ebiten.ActualFPS(), ebiten.ActualTPS()
	}
	o.frames++

	fillRect(screen, 0, 0, w, lineHeight, statusBackground)
	ebitenutil.DebugPrintAt(screen, StatusLine(a.snapshot, o.fps, o.tps), 4, 0)

	o.Layout(a, w, h)
	if o.panel.Width > 0 {
		fillRect(screen, o.panel.X, o.panel.Y, o.panel.Width, o.panel.Height, panelBackground)
		maxChars := int((o.panel.Width - 2*panelPadding) / glyphWidth)
		for i, r := range o.rows {
			y := o.rowY[i]
			if y+lineHeight > o.panel.Y+o.panel.Height {
				break
			}
			x := o.panel.X + panelPadding + float64(r.Indent)*indentWidth
			ebitenutil.DebugPrintAt(screen, truncate(r.Text, maxChars-r.Indent*2), int(x), int(y))
			if r.Gauge != nil {
				drawGauge(screen, r.Gauge, x, y+lineHeight, o.panel.Width-2*panelPadding-float64(r.Indent)*indentWidth)
			}
		}
	}

	if o.ShowDebug {
		lines := DebugLines(a)
		y := h - float64(len(lines))*lineHeight
		fillRect(screen, 0, y, 260, h-y, statusBackground)
		for _, l := range lines {
			ebitenutil.DebugPrintAt(screen, l, 4, int(y))
			y += lineHeight
		}
	}
}

// StatusLine summarizes the simulation state for the top bar.
func StatusLine(s *Snapshot, fps, tps float64) string {
	if s == nil {
		return fmt.Sprintf("Waiting for simulation...  FPS %.1f TPS %.1f", fps, tps)
	}
	state := "Running"
	if s.Paused {
		state = "Paused"
	}
	return fmt.Sprintf("Tick %d  %s  Delay %gs  FPS %.1f TPS %.1f", s.TickCount, state, s.SimulationDelay, fps, tps)
}

// DetailLines describes the selected entity.
func DetailLines(e *Entity) []string {
	if e == nil {
		return nil
	}
	lines := []string{
		"Name: " + e.Label(),
		"ID: " + e.ID,
	}
	if e.Model != "" {
		lines = append(lines, "Model: "+e.Model)
	}
	if e.Location != nil {
		lines = append(lines, fmt.Sprintf("Location: %d, %d", e.Location.X, e.Location.Y))
	}
	return lines
}

// EntityLine is one row of the entity list.
func EntityLine(e *Entity, selected bool) string {
	marker := "  "
	if selected {
		marker = "> "
	}
	if e.Location == nil {
		return marker + e.Label()
	}
	return fmt.Sprintf("%s%s (%d, %d)", marker, e.Label(), e.Location.X, e.Location.Y)
}

// GaugeBar renders g as a text bar of width cells, for headless output.
func GaugeBar(g Gauge, width int) string {
	if width <= 0 {
		return ""
	}
	if g.Disabled {
		return "[" + strings.Repeat(" ", width) + "] " + g.Tooltip
	}
	filled := int(g.Percent/100*float64(width) + 0.5)
	return fmt.Sprintf("[%s%s] %3.0f%%", strings.Repeat("#", filled), strings.Repeat("-", width-filled), g.Percent)
}

// DebugLines reports renderer, loop and inspector counters.
func DebugLines(a *App) []string {
	rs := a.renderer.Stats()
	ds := a.inspector.Stats()
	return []string{
		fmt.Sprintf("tiles %d  entities %d  offscreen %d  culled %t", rs.Tiles, rs.Entities, rs.Offscreen, rs.Culled),
		fmt.Sprintf("commands %d  draw calls %d", rs.Commands, a.renderer.DrawCalls()),
		fmt.Sprintf("build %s", rs.BuildTime),
		fmt.Sprintf("frames %d  faults %d  tweens %d", a.loop.Frames(), a.loop.Faults(), a.tweens.Len()),
		fmt.Sprintf("snapshots %d  diff +%d -%d ~%d", a.applied, ds.Added, ds.Removed, ds.Changed),
		fmt.Sprintf("zoom %.2f", a.viewport.State().Scale),
	}
}

func gaugeTitle(g Gauge) string {
	if g.Status != "" {
		return g.Title + " (" + g.Status + ")"
	}
	return g.Title
}

func drawGauge(dst *ebiten.Image, g *Gauge, x, y, w float64) {
	fillRect(dst, x, y, w, gaugeBarHeight, gaugeTrack)
	switch {
	case g.Disabled:
		fillRect(dst, x, y, w, gaugeBarHeight, gaugeDisabled)
	case g.Status == "Busy":
		fillRect(dst, x, y, w*g.Percent/100, gaugeBarHeight, gaugeBusy)
	default:
		fillRect(dst, x, y, w*g.Percent/100, gaugeBarHeight, gaugeFill)
	}
}

// fillRect fills a canvas-space rectangle.
func fillRect(dst *ebiten.Image, x, y, w, h float64, c Color) {
	var op ebiten.DrawImageOptions
	submitRect(dst, x, y, w, h, c, ebiten.GeoM{}, &op)
}

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n == 1 {
		return "~"
	}
	return string(r[:n-1]) + "~"
}
