package simview

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/sirupsen/logrus"
)

// controlTimeout bounds each pause/delay request.
const controlTimeout = 5 * time.Second

// inspectorTitle and inspectorPath name the root of the snapshot inspector.
const (
	inspectorTitle = "Entities"
	inspectorPath  = "entities"
)

// App owns every piece of process-wide viewer state and implements
// ebiten.Game. Update and Draw run on Ebitengine's goroutine, which is the
// only writer; snapshots from the network arrive over a channel and are
// applied at the start of Update.
type App struct {
	cfg Config
	log logrus.FieldLogger
	now func() time.Time

	client    *Client
	incoming  <-chan *Snapshot
	storage   *Storage
	saver     *Debouncer[ViewState]
	viewport  *Viewport
	tweens    *TweenStore
	inspector *Inspector
	renderer  *Renderer
	sprites   *SpriteCache
	loop      *FrameLoop
	overlay   *Overlay

	snapshot  *Snapshot
	dict      Dictionary
	selected  string
	viewReady bool
	applied   uint64

	pointer     pointerState
	injectQueue []syntheticEvent
	keys        []ebiten.Key

	controls sync.WaitGroup
}

// Option configures an App.
type Option func(*App)

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(a *App) { a.log = log }
}

// WithClock replaces time.Now, for deterministic tweens.
func WithClock(now func() time.Time) Option {
	return func(a *App) { a.now = now }
}

// WithClient sets the upstream client used by the pause and delay controls.
func WithClient(c *Client) Option {
	return func(a *App) { a.client = c }
}

// WithSnapshots sets the channel Update drains for new snapshots.
func WithSnapshots(ch <-chan *Snapshot) Option {
	return func(a *App) { a.incoming = ch }
}

// WithStorage replaces the storage opened from Config.StateFile.
func WithStorage(s *Storage) Option {
	return func(a *App) { a.storage = s }
}

// WithSprites sets the sprite cache and turns sprite rendering on.
func WithSprites(c *SpriteCache) Option {
	return func(a *App) { a.sprites = c }
}

// NewApp builds the viewer from cfg.
func NewApp(cfg Config, opts ...Option) (*App, error) {
	a := &App{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	if a.log == nil {
		a.log = discardLogger()
	}

	if a.client == nil {
		c, err := NewClient(cfg.ServerURL, nil)
		if err != nil {
			return nil, err
		}
		a.client = c
	}
	if a.storage == nil {
		a.storage = OpenStorage(cfg.StateFile, a.log)
	}
	if a.sprites == nil && cfg.RenderSprites {
		sc, err := NewSpriteCache(a.client.BaseURL(), cfg.SpritePath, a.client.HTTPClient(), a.log)
		if err != nil {
			return nil, fmt.Errorf("simview: new app: %w", err)
		}
		a.sprites = sc
	}

	a.viewport = NewViewport(cfg.MinScale, cfg.MaxScale)
	a.viewport.DampenWheel = cfg.DampenWheel
	a.saver = NewDebouncer(cfg.SaveDebounce, a.storage.SaveView)
	a.viewport.OnChange(a.saver.Trigger)

	a.tweens = NewTweenStore(cfg.TweenDuration)
	if fn, ok := EasingByName(cfg.TweenEasing); ok {
		a.tweens.SetEasing(fn)
	}
	a.inspector = NewInspector()
	a.renderer = NewRenderer(a.sprites, a.log)
	a.renderer.SetDebug(cfg.Debug)
	a.loop = NewFrameLoop(a.step, a.log)
	a.overlay = NewOverlay()
	a.overlay.ShowDebug = cfg.Debug
	a.dict = make(Dictionary)
	return a, nil
}

// Reset drops all snapshot-derived state. The viewport, storage and
// configuration are kept.
func (a *App) Reset() {
	a.loop.Stop()
	a.loop.Tick(a.now())
	a.snapshot = nil
	a.dict = make(Dictionary)
	a.selected = ""
	a.tweens.Reset()
	a.inspector.Reset()
	a.pointer = pointerState{}
	a.injectQueue = a.injectQueue[:0]
	a.applied = 0
}

// Close flushes pending view state and waits for background work.
func (a *App) Close() {
	a.saver.Flush()
	a.controls.Wait()
	if a.sprites != nil {
		a.sprites.Close()
	}
}

// --- Accessors for collaborators ---

func (a *App) Viewport() *Viewport        { return a.viewport }
func (a *App) TweenStore() *TweenStore    { return a.tweens }
func (a *App) Inspector() *Inspector      { return a.inspector }
func (a *App) Renderer() *Renderer        { return a.renderer }
func (a *App) Loop() *FrameLoop           { return a.loop }
func (a *App) Overlay() *Overlay          { return a.overlay }
func (a *App) Snapshot() *Snapshot        { return a.snapshot }
func (a *App) Dictionary() Dictionary     { return a.dict }
func (a *App) Selected() string           { return a.selected }
func (a *App) Applied() uint64            { return a.applied }
func (a *App) Storage() *Storage          { return a.storage }
func (a *App) Logger() logrus.FieldLogger { return a.log }

// --- Snapshot application ---

// ApplySnapshot makes s the current state. The entity dictionary is rebuilt
// before anything that reads it, then tween targets advance, the inspector
// reconciles and the frame loop is started.
func (a *App) ApplySnapshot(s *Snapshot) {
	if s == nil {
		return
	}
	now := a.now()

	a.snapshot = s
	a.dict = BuildDictionary(s)
	a.applied++

	if tm := s.World.Tilemap; tm != nil {
		a.viewport.SetWorldSize(tm.PixelSize())
	}
	a.initView()

	for id, e := range s.World.Entities {
		if e.Location == nil {
			continue
		}
		a.tweens.Advance(id, e.Location.X, e.Location.Y, now)
	}
	a.tweens.Retain(s.World.Entities)

	a.ReconcileInspector(s)

	if a.selected != "" && s.Entity(a.selected) == nil {
		a.selected = ""
	}
	a.loop.Start()

	a.log.WithFields(logrus.Fields{
		"tick":     s.TickCount,
		"entities": len(s.World.Entities),
	}).Debug("snapshot applied")
}

// ReconcileInspector patches the inspector tree against s.
func (a *App) ReconcileInspector(s *Snapshot) DiffStats {
	if s == nil || len(s.Raw) == 0 {
		return DiffStats{}
	}
	v, err := ParseValue(s.Raw)
	if err != nil {
		a.log.WithError(err).Debug("inspector skipped")
		return DiffStats{}
	}
	return a.inspector.Reconcile(v, inspectorTitle, inspectorPath)
}

// drainSnapshots applies every pending snapshot in arrival order.
func (a *App) drainSnapshots() {
	if a.incoming == nil {
		return
	}
	for {
		select {
		case s, ok := <-a.incoming:
			if !ok {
				a.incoming = nil
				return
			}
			a.ApplySnapshot(s)
		default:
			return
		}
	}
}

// initView restores the saved camera, or fits the world, once both the
// canvas and world sizes are known.
func (a *App) initView() {
	if a.viewReady {
		return
	}
	cw, ch := a.viewport.CanvasSize()
	if cw <= 0 || ch <= 0 {
		return
	}
	if vs, ok := a.storage.LoadView(); ok && a.viewport.Restore(vs) {
		a.viewReady = true
		return
	}
	if ww, wh := a.viewport.WorldSize(); ww > 0 && wh > 0 {
		a.viewport.Fit()
		a.viewReady = true
	}
}

// step is the per-frame animation task.
func (a *App) step(now time.Time) {
	a.tweens.Step(now)
}

// --- ebiten.Game ---

// Update applies pending snapshots, processes input and runs the frame loop.
func (a *App) Update() error {
	a.drainSnapshots()
	a.processInput()
	a.loop.Tick(a.now())
	return nil
}

// Draw paints the world and the overlays.
func (a *App) Draw(screen *ebiten.Image) {
	a.renderer.Draw(screen, a.Frame())
	a.overlay.Draw(screen, a)
}

// Layout tracks the window size; the canvas is always window-sized.
func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	if a.viewport.SetCanvasSize(float64(outsideWidth), float64(outsideHeight)) {
		a.initView()
	}
	return outsideWidth, outsideHeight
}

// Frame returns the inputs of the next world paint.
func (a *App) Frame() Frame {
	return Frame{
		Snapshot: a.snapshot,
		Tweens:   a.tweens,
		Viewport: a.viewport,
		Selected: a.selected,
		Now:      a.now(),
	}
}

// --- Hit testing and selection ---

// RenderPosition returns the current world pixel position of entity id.
func (a *App) RenderPosition(id string) (x, y float64, ok bool) {
	return entityPosition(a.tweens, a.snapshot.Entity(id), a.now())
}

// HitTest returns the entity drawn at canvas point (sx, sy), or "". Entities
// drawn later win.
func (a *App) HitTest(sx, sy float64) string {
	if a.snapshot == nil {
		return ""
	}
	wx, wy := a.viewport.ScreenToWorld(sx, sy)
	ids := a.snapshot.EntityIDs()
	now := a.now()
	for i := len(ids) - 1; i >= 0; i-- {
		x, y, ok := entityPosition(a.tweens, a.snapshot.World.Entities[ids[i]], now)
		if !ok {
			continue
		}
		if wx >= x && wx < x+TileSize && wy >= y && wy < y+TileSize {
			return ids[i]
		}
	}
	return ""
}

// Select makes id the selected entity. Unknown ids are ignored.
func (a *App) Select(id string) {
	if a.snapshot.Entity(id) == nil {
		return
	}
	a.selected = id
}

// ClearSelection drops the selection.
func (a *App) ClearSelection() {
	a.selected = ""
}

// cycleSelection moves the selection through the entity ids in order.
func (a *App) cycleSelection(step int) {
	ids := a.snapshot.EntityIDs()
	if len(ids) == 0 {
		return
	}
	idx := -1
	for i, id := range ids {
		if id == a.selected {
			idx = i
			break
		}
	}
	switch {
	case idx < 0 && step > 0:
		idx = 0
	case idx < 0:
		idx = len(ids) - 1
	default:
		idx = (idx + step + len(ids)) % len(ids)
	}
	a.selected = ids[idx]
}

// selectIndex selects the i-th entity in id order, if there is one.
func (a *App) selectIndex(i int) {
	ids := a.snapshot.EntityIDs()
	if i < 0 || i >= len(ids) {
		return
	}
	a.selected = ids[i]
}

// --- Commands ---

// Perform runs a keyboard or button action.
func (a *App) Perform(act Action) {
	switch act {
	case ActionZoomIn:
		a.viewport.ZoomIn()
	case ActionZoomOut:
		a.viewport.ZoomOut()
	case ActionFit:
		a.viewport.Fit()
	case ActionCenter:
		a.viewport.Center()
	case ActionTogglePause:
		a.TogglePause()
	case ActionDelayUp:
		a.StepDelay(true)
	case ActionDelayDown:
		a.StepDelay(false)
	case ActionNextEntity:
		a.cycleSelection(1)
	case ActionPrevEntity:
		a.cycleSelection(-1)
	case ActionClearSelection:
		a.ClearSelection()
	case ActionToggleInspector:
		a.overlay.ShowInspector = !a.overlay.ShowInspector
	case ActionToggleEntities:
		a.overlay.ShowEntities = !a.overlay.ShowEntities
	case ActionToggleDebug:
		a.overlay.ShowDebug = !a.overlay.ShowDebug
		a.renderer.SetDebug(a.overlay.ShowDebug)
	}
}

// TogglePause asks the server to flip the paused state. The local snapshot
// is updated immediately; the next pushed snapshot is authoritative.
func (a *App) TogglePause() {
	if a.snapshot == nil {
		return
	}
	paused := !a.snapshot.Paused
	a.snapshot.Paused = paused
	a.control("paused", func(ctx context.Context) error {
		return a.client.SetPaused(ctx, paused)
	})
}

// StepDelay moves the simulation delay one step up or down.
func (a *App) StepDelay(up bool) {
	if a.snapshot == nil {
		return
	}
	delay := NextDelay(a.snapshot.SimulationDelay, up)
	if delay == a.snapshot.SimulationDelay {
		return
	}
	a.snapshot.SimulationDelay = delay
	a.control("simulation_delay", func(ctx context.Context) error {
		return a.client.SetDelay(ctx, delay)
	})
}

// control runs a server request off the game goroutine.
func (a *App) control(name string, fn func(ctx context.Context) error) {
	a.controls.Add(1)
	go func() {
		defer a.controls.Done()
		ctx, cancel := context.WithTimeout(context.Background(), controlTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			a.log.WithError(err).WithField("control", name).Warn("control request failed")
			return
		}
		a.log.WithField("control", name).Debug("control request sent")
	}()
}

// WaitControls blocks until every control request has finished.
func (a *App) WaitControls() {
	a.controls.Wait()
}
