package simview

import (
	"fmt"
	"sort"
)

// SlotKind is the closed set of component kinds a slot can accept.
type SlotKind uint8

const (
	SlotUnknown SlotKind = iota
	SlotDroidAgent
	SlotPowerPack
	SlotWaterTank
)

// AllSlotKinds lists every known kind, excluding SlotUnknown.
var AllSlotKinds = []SlotKind{SlotDroidAgent, SlotPowerPack, SlotWaterTank}

var slotKindNames = map[SlotKind]string{
	SlotDroidAgent: "DroidAgentSimple",
	SlotPowerPack:  "PowerPack",
	SlotWaterTank:  "WaterTank",
}

// ParseSlotKind maps an "accepts" tag to its kind.
func ParseSlotKind(accepts string) SlotKind {
	for k, name := range slotKindNames {
		if name == accepts {
			return k
		}
	}
	return SlotUnknown
}

// String returns the "accepts" tag of k.
func (k SlotKind) String() string {
	if name, ok := slotKindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// gaugeSpec describes how a slot kind is shown as a progress gauge.
type gaugeSpec struct {
	title    string
	valueKey string
	maxKey   string
	tooltip  func(value, max any, pct float64) string
	status   bool // show busy/idle from is_active
}

var slotGauges = map[SlotKind]gaugeSpec{
	SlotDroidAgent: {
		title:    "Agent",
		valueKey: "last_total_tokens",
		maxKey:   "tokens_max",
		tooltip: func(v, m any, pct float64) string {
			return fmt.Sprintf("Context Size: %s, Max: %s (%.2f%%)", FormatScalar(v), FormatScalar(m), pct)
		},
		status: true,
	},
	SlotPowerPack: {
		title:    "Power Pack",
		valueKey: "charge",
		maxKey:   "charge_max",
		tooltip: func(v, m any, _ float64) string {
			return fmt.Sprintf("Charge: %s, Capacity: %s", FormatScalar(v), FormatScalar(m))
		},
	},
	SlotWaterTank: {
		title:    "Water Tank",
		valueKey: "fill",
		maxKey:   "capacity",
		tooltip: func(v, m any, _ float64) string {
			return fmt.Sprintf("Fill: %s, Capacity: %s", FormatScalar(v), FormatScalar(m))
		},
	},
}

// Gauge is the display model of one slot.
type Gauge struct {
	Key      string // "<entity>.<slot>"
	Slot     string
	Kind     SlotKind
	Title    string
	Value    float64
	Max      float64
	Percent  float64 // clamped to [0, 100]
	Disabled bool
	Tooltip  string
	// Status is "Busy" or "Idle" for agent slots, empty otherwise.
	Status string
}

// SlotGauge builds the gauge for one slot. ok is false for kinds without a
// gauge.
func SlotGauge(entityID, name string, slot *Slot) (Gauge, bool) {
	if slot == nil {
		return Gauge{}, false
	}
	kind := ParseSlotKind(slot.Accepts)
	spec, ok := slotGauges[kind]
	if !ok {
		return Gauge{}, false
	}
	g := Gauge{
		Key:   entityID + "." + name,
		Slot:  name,
		Kind:  kind,
		Title: spec.title + " - " + name,
	}
	if spec.status {
		g.Status = "Idle"
	}
	if slot.Component == nil {
		g.Disabled = true
		g.Tooltip = "No component present"
		return g, true
	}

	rawV, rawM := slot.Component[spec.valueKey], slot.Component[spec.maxKey]
	g.Value, _ = numberField(rawV)
	g.Max, _ = numberField(rawM)
	pct := 0.0
	if g.Max != 0 {
		pct = g.Value / g.Max * 100
	}
	g.Percent = clamp(pct, 0, 100)
	g.Tooltip = spec.tooltip(rawV, rawM, pct)
	if spec.status {
		if active, _ := slot.Component["is_active"].(bool); active {
			g.Status = "Busy"
		}
	}
	return g, true
}

// EntityGauges returns the gauges of every slot of e, ordered by slot name.
func EntityGauges(e *Entity) []Gauge {
	if e == nil {
		return nil
	}
	names := make([]string, 0, len(e.Slots))
	for name := range e.Slots {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]Gauge, 0, len(names))
	for _, name := range names {
		if g, ok := SlotGauge(e.ID, name, e.Slots[name]); ok {
			out = append(out, g)
		}
	}
	return out
}

func numberField(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
