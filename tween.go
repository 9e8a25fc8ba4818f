package simview

import (
	"math"
	"time"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// DefaultTweenDuration is how long an entity takes to slide one tile.
const DefaultTweenDuration = 100 * time.Millisecond

// tweenState is the interpolation state of one entity, in world pixels.
type tweenState struct {
	prevX, prevY     float64
	targetX, targetY float64
	moveStart        time.Time
	interpX, interpY float64
	progress         float64 // 0..1, 1 = settled

	// curve maps elapsed milliseconds to eased progress; nil is linear.
	curve *gween.Tween
	// missed counts consecutive snapshots in which the entity was absent.
	missed int
}

// easings are the curves selectable by name. Linear has no curve: its
// progress is the time fraction itself, computed in float64.
var easings = map[string]ease.TweenFunc{
	"linear":       nil,
	"in_quad":      ease.InQuad,
	"out_quad":     ease.OutQuad,
	"in_out_quad":  ease.InOutQuad,
	"out_cubic":    ease.OutCubic,
	"in_out_cubic": ease.InOutCubic,
	"in_out_sine":  ease.InOutSine,
	"in_out_circ":  ease.InOutCirc,
	"in_out_expo":  ease.InOutExpo,
	"out_back":     ease.OutBack,
	"out_bounce":   ease.OutBounce,
	"out_elastic":  ease.OutElastic,
}

// EasingByName returns the named easing curve. A nil fn with ok true is
// linear.
func EasingByName(name string) (fn ease.TweenFunc, ok bool) {
	fn, ok = easings[name]
	return fn, ok
}

// TweenStore turns coarse, irregular tile moves into smooth per-frame
// positions. Entities are keyed by id; state is created on first sight.
type TweenStore struct {
	duration time.Duration
	easing   ease.TweenFunc
	states   map[string]*tweenState
}

// NewTweenStore creates a store whose tweens last d. A non-positive d uses
// DefaultTweenDuration.
func NewTweenStore(d time.Duration) *TweenStore {
	if d <= 0 {
		d = DefaultTweenDuration
	}
	return &TweenStore{
		duration: d,
		states:   make(map[string]*tweenState),
	}
}

// Duration returns the tween duration.
func (ts *TweenStore) Duration() time.Duration {
	return ts.duration
}

// SetEasing replaces the easing curve used by tweens started after the call.
// A nil fn restores exact linear interpolation.
func (ts *TweenStore) SetEasing(fn ease.TweenFunc) {
	ts.easing = fn
}

// Len returns the number of tracked entities.
func (ts *TweenStore) Len() int {
	return len(ts.states)
}

// Has reports whether id has tween state.
func (ts *TweenStore) Has(id string) bool {
	_, ok := ts.states[id]
	return ok
}

// Reset drops every tween.
func (ts *TweenStore) Reset() {
	clear(ts.states)
}

// Advance sets a new destination for id, in tile units. A first sighting pops
// in at rest. A move of more than one tile on either axis, measured from the
// previous target, is a teleport and snaps immediately. Anything else starts
// a tween from wherever the entity is currently drawn.
func (ts *TweenStore) Advance(id string, tileX, tileY int, now time.Time) {
	tx := float64(tileX * TileSize)
	ty := float64(tileY * TileSize)

	st, ok := ts.states[id]
	if !ok {
		ts.states[id] = &tweenState{
			prevX: tx, prevY: ty,
			targetX: tx, targetY: ty,
			moveStart: now,
			interpX:   tx, interpY: ty,
			progress: 1,
			curve:    ts.newCurve(),
		}
		return
	}
	st.missed = 0

	dxTiles := math.Abs(tx-st.targetX) / TileSize
	dyTiles := math.Abs(ty-st.targetY) / TileSize
	teleport := dxTiles > 1 || dyTiles > 1

	if st.progress != 1 {
		// Chain from the in-flight position so a new target never snaps.
		st.prevX, st.prevY = ts.sample(st, now)
	} else {
		st.prevX, st.prevY = st.targetX, st.targetY
	}

	st.targetX, st.targetY = tx, ty
	st.moveStart = now
	st.curve = ts.newCurve()

	if teleport {
		st.progress = 1
		st.prevX, st.prevY = tx, ty
		st.interpX, st.interpY = tx, ty
		return
	}
	st.progress = 0
}

func (ts *TweenStore) newCurve() *gween.Tween {
	if ts.easing == nil {
		return nil
	}
	return gween.New(0, 1, float32(durationMillis(ts.duration)), ts.easing)
}

// durationMillis keeps sub-millisecond precision.
func durationMillis(d time.Duration) float64 {
	return d.Seconds() * 1000
}

// fraction returns the clamped linear time fraction of the tween at now.
func (ts *TweenStore) fraction(st *tweenState, now time.Time) float64 {
	return clamp01(float64(now.Sub(st.moveStart)) / float64(ts.duration))
}

// sample evaluates the tween at now without touching cached state.
func (ts *TweenStore) sample(st *tweenState, now time.Time) (x, y float64) {
	t := ts.fraction(st, now)
	if t >= 1 || st.progress == 1 {
		return st.targetX, st.targetY
	}
	var eased float64
	if st.curve != nil {
		v, _ := st.curve.Set(float32(durationMillis(now.Sub(st.moveStart))))
		eased = float64(v)
	} else {
		eased = t
	}
	return st.prevX + (st.targetX-st.prevX)*eased, st.prevY + (st.targetY-st.prevY)*eased
}

// RenderPosition returns the interpolated pixel position of id at now and
// refreshes the cached interp/progress fields. ok is false for unknown ids.
func (ts *TweenStore) RenderPosition(id string, now time.Time) (x, y float64, ok bool) {
	st, found := ts.states[id]
	if !found {
		return 0, 0, false
	}
	if st.progress == 1 {
		return st.targetX, st.targetY, true
	}
	x, y = ts.sample(st, now)
	st.interpX, st.interpY = x, y
	if t := ts.fraction(st, now); t >= 1 {
		st.progress = 1
		st.interpX, st.interpY = st.targetX, st.targetY
	} else {
		st.progress = t
	}
	return st.interpX, st.interpY, true
}

// Position returns the position cached by the last Step or RenderPosition.
func (ts *TweenStore) Position(id string) (x, y float64, ok bool) {
	st, found := ts.states[id]
	if !found {
		return 0, 0, false
	}
	return st.interpX, st.interpY, true
}

// Progress returns the cached progress of id (1 = settled).
func (ts *TweenStore) Progress(id string) (float64, bool) {
	st, found := ts.states[id]
	if !found {
		return 0, false
	}
	return st.progress, true
}

// Step refreshes every tracked entity once and reports how many are still
// moving.
func (ts *TweenStore) Step(now time.Time) (moving int) {
	for id := range ts.states {
		ts.RenderPosition(id, now)
		if ts.states[id].progress < 1 {
			moving++
		}
	}
	return moving
}

// Retain ages out entities absent from the current snapshot. State is dropped
// once an id has been missing from two consecutive snapshots. It returns the
// number of entries removed.
func (ts *TweenStore) Retain(present map[string]*Entity) (removed int) {
	for id, st := range ts.states {
		if _, ok := present[id]; ok {
			st.missed = 0
			continue
		}
		st.missed++
		if st.missed >= 2 {
			delete(ts.states, id)
			removed++
		}
	}
	return removed
}
