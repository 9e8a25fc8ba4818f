package simview

import (
	"time"

	"github.com/sirupsen/logrus"
)

// RenderStats holds per-frame metrics of the world renderer.
type RenderStats struct {
	Tiles        int
	Entities     int
	Offscreen    int
	Placeholders int
	Commands     int
	Culled       bool
	Resized      bool
	BuildTime    time.Duration
}

// DrawCalls counts the DrawImage calls submit makes for the last frame:
// strokes draw four edges and selected labels add a backing box.
func (r *Renderer) DrawCalls() int {
	count := 0
	for i := range r.commands {
		switch r.commands[i].Type {
		case CommandStroke:
			count += 4
		case CommandLabel:
			count++
			if r.commands[i].Selected {
				count++
			}
		default:
			count++
		}
	}
	return count
}

// debugLog reports the last frame's stats when debug is on.
func (r *Renderer) debugLog() {
	if !r.debug {
		return
	}
	r.log.WithFields(logrus.Fields{
		"tiles":        r.stats.Tiles,
		"entities":     r.stats.Entities,
		"offscreen":    r.stats.Offscreen,
		"placeholders": r.stats.Placeholders,
		"commands":     r.stats.Commands,
		"draw_calls":   r.DrawCalls(),
		"culled":       r.stats.Culled,
		"resized":      r.stats.Resized,
		"build":        r.stats.BuildTime,
	}).Debug("frame")
}
