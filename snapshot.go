package simview

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Snapshot is one complete state push from the upstream simulation. It is
// replaced wholesale on every event and never patched in place.
type Snapshot struct {
	TickCount       int64   `json:"tick_count"`
	Paused          bool    `json:"paused"`
	SimulationDelay float64 `json:"simulation_delay"`
	World           World   `json:"world"`

	// Raw is the undecoded payload, kept for the order-preserving inspector.
	Raw []byte `json:"-"`
}

// World holds the tilemap and the entities keyed by id.
type World struct {
	Tilemap  *Tilemap           `json:"tilemap"`
	Entities map[string]*Entity `json:"entities"`
}

// Tilemap is a row-major grid of tile type codes.
type Tilemap struct {
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Tiles  [][]int `json:"tiles"`
}

// At returns the tile code at (x, y) and whether it exists. Rows shorter than
// Width are tolerated.
func (t *Tilemap) At(x, y int) (int, bool) {
	if t == nil || y < 0 || y >= len(t.Tiles) {
		return 0, false
	}
	row := t.Tiles[y]
	if x < 0 || x >= len(row) {
		return 0, false
	}
	return row[x], true
}

// PixelSize returns the world size in pixels.
func (t *Tilemap) PixelSize() (w, h float64) {
	if t == nil {
		return 0, 0
	}
	return float64(t.Width * TileSize), float64(t.Height * TileSize)
}

// Location is an integer tile coordinate.
type Location struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Entity is a view-model rebuilt on every snapshot. Only ID survives across
// snapshots, as the key into tween, color and selection state.
type Entity struct {
	ID       string           `json:"id"`
	Location *Location        `json:"location"`
	Model    string           `json:"model"`
	Name     string           `json:"name"`
	Slots    map[string]*Slot `json:"slots"`
}

// Label returns the display name, falling back to the id.
func (e *Entity) Label() string {
	if e.Name != "" {
		return e.Name
	}
	return e.ID
}

// Slot is a component socket. A nil Component is an empty socket.
type Slot struct {
	Accepts   string         `json:"accepts"`
	Component map[string]any `json:"component"`
}

// DecodeSnapshot parses one snapshot payload. Entities missing an id inherit
// their map key.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("simview: decode snapshot: %w", err)
	}
	for id, e := range s.World.Entities {
		if e == nil {
			delete(s.World.Entities, id)
			continue
		}
		if e.ID == "" {
			e.ID = id
		}
	}
	s.Raw = data
	return &s, nil
}

// EntityIDs returns the entity ids sorted, for a stable draw order.
func (s *Snapshot) EntityIDs() []string {
	if s == nil {
		return nil
	}
	ids := make([]string, 0, len(s.World.Entities))
	for id := range s.World.Entities {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Entity returns the entity with the given id, or nil.
func (s *Snapshot) Entity(id string) *Entity {
	if s == nil {
		return nil
	}
	return s.World.Entities[id]
}

// DictEntry is one lookup target in a Dictionary. Exactly one field is set.
type DictEntry struct {
	Entity    *Entity
	Slot      *Slot
	Component map[string]any
}

// Dictionary indexes a snapshot by entity id, by "<entity>.<slot>" for
// occupied slots, and by component id.
type Dictionary map[string]DictEntry

// BuildDictionary indexes s. A nil snapshot yields an empty dictionary.
func BuildDictionary(s *Snapshot) Dictionary {
	d := make(Dictionary)
	if s == nil {
		return d
	}
	for id, e := range s.World.Entities {
		d[id] = DictEntry{Entity: e}
		for name, slot := range e.Slots {
			if slot == nil || slot.Component == nil {
				continue
			}
			d[id+"."+name] = DictEntry{Slot: slot}
			if cid, ok := slot.Component["id"].(string); ok && cid != "" {
				d[cid] = DictEntry{Component: slot.Component}
			}
		}
	}
	return d
}
