package simview

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// --- Per-pointer state ---

// pointerTarget is what a press landed on; it owns the gesture until release.
type pointerTarget uint8

const (
	targetNone pointerTarget = iota
	targetWorld
	targetEntity
	targetPanel
)

type pointerState struct {
	down   bool
	target pointerTarget
	entity string // entity under the press, for targetEntity
	line   string // inspector line under the press, for targetPanel
}

// --- Key bindings ---

// Action is a keyboard-triggered command.
type Action uint8

const (
	ActionNone Action = iota
	ActionZoomIn
	ActionZoomOut
	ActionFit
	ActionCenter
	ActionTogglePause
	ActionDelayUp
	ActionDelayDown
	ActionNextEntity
	ActionPrevEntity
	ActionClearSelection
	ActionToggleInspector
	ActionToggleEntities
	ActionToggleDebug
)

var keyBindings = map[ebiten.Key]Action{
	ebiten.KeyEqual:          ActionZoomIn,
	ebiten.KeyNumpadAdd:      ActionZoomIn,
	ebiten.KeyMinus:          ActionZoomOut,
	ebiten.KeyNumpadSubtract: ActionZoomOut,
	ebiten.KeyF:              ActionFit,
	ebiten.KeyC:              ActionCenter,
	ebiten.KeySpace:          ActionTogglePause,
	ebiten.KeyBracketRight:   ActionDelayUp,
	ebiten.KeyBracketLeft:    ActionDelayDown,
	ebiten.KeyTab:            ActionNextEntity,
	ebiten.KeyBackquote:      ActionPrevEntity,
	ebiten.KeyEscape:         ActionClearSelection,
	ebiten.KeyI:              ActionToggleInspector,
	ebiten.KeyL:              ActionToggleEntities,
	ebiten.KeyF3:             ActionToggleDebug,
}

// ActionForKey returns the action bound to k.
func ActionForKey(k ebiten.Key) Action {
	return keyBindings[k]
}

// EntityIndexForKey maps Digit1..Digit9 to entity list positions 0..8.
func EntityIndexForKey(k ebiten.Key) (int, bool) {
	if k >= ebiten.KeyDigit1 && k <= ebiten.KeyDigit9 {
		return int(k - ebiten.KeyDigit1), true
	}
	return 0, false
}

// handleKey runs whatever k is bound to.
func (a *App) handleKey(k ebiten.Key) {
	if i, ok := EntityIndexForKey(k); ok {
		a.selectIndex(i)
		return
	}
	if act := ActionForKey(k); act != ActionNone {
		a.Perform(act)
	}
}

// --- Frame input ---

// processInput consumes one injected event if any are queued, otherwise the
// real mouse, wheel and keyboard state.
func (a *App) processInput() {
	if a.processInjectedInput() {
		return
	}

	mx, my := ebiten.CursorPosition()
	sx, sy := float64(mx), float64(my)
	a.processPointer(sx, sy, ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft))

	if _, wy := ebiten.Wheel(); wy != 0 && !a.overlay.Contains(sx, sy) {
		a.viewport.Wheel(sx, sy, wy)
	}

	a.keys = inpututil.AppendJustPressedKeys(a.keys[:0])
	for _, k := range a.keys {
		a.handleKey(k)
	}
}

// processPointer runs the primary-button state machine. A press on an entity
// selects it on release over the same entity; a press on the background pans,
// and a pan that stays under the threshold is a click that clears the
// selection. A press on an inspector row toggles it on release.
func (a *App) processPointer(sx, sy float64, pressed bool) {
	ps := &a.pointer

	switch {
	case pressed && !ps.down:
		ps.down = true
		ps.entity, ps.line = "", ""
		switch {
		case a.overlay.Contains(sx, sy):
			ps.target = targetPanel
			ps.line = a.overlay.LineAt(sx, sy)
		default:
			if id := a.HitTest(sx, sy); id != "" {
				ps.target = targetEntity
				ps.entity = id
			} else {
				ps.target = targetWorld
				a.viewport.BeginPan(sx, sy)
			}
		}

	case pressed && ps.down:
		if ps.target == targetWorld {
			a.viewport.MovePan(sx, sy)
		}

	case !pressed && ps.down:
		ps.down = false
		switch ps.target {
		case targetWorld:
			a.viewport.MovePan(sx, sy)
			if a.viewport.EndPan() {
				a.ClearSelection()
			}
		case targetEntity:
			if a.HitTest(sx, sy) == ps.entity {
				a.Select(ps.entity)
			}
		case targetPanel:
			if ps.line != "" && a.overlay.LineAt(sx, sy) == ps.line {
				a.inspector.Toggle(ps.line)
			}
		}
		ps.target = targetNone
	}
}
