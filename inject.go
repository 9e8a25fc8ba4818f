package simview

import "github.com/hajimehoshi/ebiten/v2"

// syntheticEvent is a single injected input event in canvas coordinates.
// Injected events go through the same paths as real input.
type syntheticEvent struct {
	x, y    float64
	pressed bool
	wheel   float64
	key     ebiten.Key
	isKey   bool
}

// InjectPress queues a primary-button press at (x, y). Each queued event is
// consumed by one Update.
func (a *App) InjectPress(x, y float64) {
	a.injectQueue = append(a.injectQueue, syntheticEvent{x: x, y: y, pressed: true})
}

// InjectMove queues a pointer move with the button held.
func (a *App) InjectMove(x, y float64) {
	a.injectQueue = append(a.injectQueue, syntheticEvent{x: x, y: y, pressed: true})
}

// InjectRelease queues a button release at (x, y).
func (a *App) InjectRelease(x, y float64) {
	a.injectQueue = append(a.injectQueue, syntheticEvent{x: x, y: y})
}

// InjectClick queues a press and a release at the same point. Consumes two
// frames.
func (a *App) InjectClick(x, y float64) {
	a.InjectPress(x, y)
	a.InjectRelease(x, y)
}

// InjectDrag queues a press at (fromX, fromY), frames-2 interpolated moves
// and a release at (toX, toY). Minimum frames is 2.
func (a *App) InjectDrag(fromX, fromY, toX, toY float64, frames int) {
	if frames < 2 {
		frames = 2
	}
	a.InjectPress(fromX, fromY)
	steps := frames - 2
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps+1)
		a.InjectMove(fromX+(toX-fromX)*t, fromY+(toY-fromY)*t)
	}
	a.InjectRelease(toX, toY)
}

// InjectWheel queues a wheel movement of dy notches at (x, y).
func (a *App) InjectWheel(x, y, dy float64) {
	a.injectQueue = append(a.injectQueue, syntheticEvent{x: x, y: y, wheel: dy})
}

// InjectKey queues a key press.
func (a *App) InjectKey(k ebiten.Key) {
	a.injectQueue = append(a.injectQueue, syntheticEvent{key: k, isKey: true})
}

// processInjectedInput pops one queued event and feeds it through the real
// input paths. It reports whether an event was consumed, in which case real
// input is skipped for the frame.
func (a *App) processInjectedInput() bool {
	if len(a.injectQueue) == 0 {
		return false
	}
	evt := a.injectQueue[0]
	copy(a.injectQueue, a.injectQueue[1:])
	a.injectQueue = a.injectQueue[:len(a.injectQueue)-1]

	switch {
	case evt.isKey:
		a.handleKey(evt.key)
	case evt.wheel != 0:
		if !a.overlay.Contains(evt.x, evt.y) {
			a.viewport.Wheel(evt.x, evt.y, evt.wheel)
		}
	default:
		a.processPointer(evt.x, evt.y, evt.pressed)
	}
	return true
}
