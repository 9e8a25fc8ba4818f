package simview

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	viewStateKey  = "tilemap_view"
	windowsPrefix = "windows."
)

// WindowGeometry is the saved position and size of one window.
type WindowGeometry struct {
	X      float64 `mapstructure:"x"`
	Y      float64 `mapstructure:"y"`
	Width  float64 `mapstructure:"width"`
	Height float64 `mapstructure:"height"`
}

// Storage is a small best-effort key/value file for view state. Failures are
// logged at debug level and otherwise ignored; a broken store behaves like an
// empty one. A nil *Storage is valid and stores nothing.
type Storage struct {
	mu   sync.Mutex
	path string
	v    *viper.Viper
	log  logrus.FieldLogger
}

// OpenStorage loads path if it exists. An empty path yields a memory-only
// store.
func OpenStorage(path string, log logrus.FieldLogger) *Storage {
	if log == nil {
		log = discardLogger()
	}
	s := &Storage{path: path, v: viper.New(), log: log.WithField("store", path)}
	s.v.SetConfigType("yaml")
	if path == "" {
		return s
	}
	s.v.SetConfigFile(path)
	if err := s.v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.log.WithError(err).Debug("storage: read failed, starting empty")
	}
	return s
}

// Path returns the backing file, or "" for a memory-only store.
func (s *Storage) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// SaveView persists the viewport state.
func (s *Storage) SaveView(vs ViewState) {
	s.put(viewStateKey, map[string]any{
		"scale":    vs.Scale,
		"offset_x": vs.OffsetX,
		"offset_y": vs.OffsetY,
	})
}

// LoadView returns the saved viewport state, if any.
func (s *Storage) LoadView() (ViewState, bool) {
	var vs ViewState
	if !s.get(viewStateKey, &vs) {
		return ViewState{}, false
	}
	return vs, vs.Scale > 0
}

// SaveWindow persists the geometry of window id.
func (s *Storage) SaveWindow(id string, g WindowGeometry) {
	s.put(windowsPrefix+id, map[string]any{
		"x":      g.X,
		"y":      g.Y,
		"width":  g.Width,
		"height": g.Height,
	})
}

// LoadWindow returns the saved geometry of window id, if any.
func (s *Storage) LoadWindow(id string) (WindowGeometry, bool) {
	var g WindowGeometry
	if !s.get(windowsPrefix+id, &g) {
		return WindowGeometry{}, false
	}
	return g, g.Width > 0 && g.Height > 0
}

func (s *Storage) get(key string, out any) bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.v.IsSet(key) {
		return false
	}
	if err := s.v.UnmarshalKey(key, out); err != nil {
		s.log.WithError(err).WithField("key", key).Debug("storage: decode failed")
		return false
	}
	return true
}

func (s *Storage) put(key string, value map[string]any) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.v.Set(key, value)
	if s.path == "" {
		return
	}
	if err := s.write(); err != nil {
		s.log.WithError(err).WithField("key", key).Debug("storage: write failed")
	}
}

func (s *Storage) write() error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("simview: create storage dir: %w", err)
		}
	}
	if err := s.v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("simview: write storage: %w", err)
	}
	return nil
}

// Debouncer delays fn until no new value has arrived for delay. Each Trigger
// cancels the pending call and schedules a new one with the latest value.
type Debouncer[T any] struct {
	mu      sync.Mutex
	delay   time.Duration
	fn      func(T)
	timer   *time.Timer
	pending T
	armed   bool
}

// NewDebouncer creates a debouncer calling fn.
func NewDebouncer[T any](delay time.Duration, fn func(T)) *Debouncer[T] {
	return &Debouncer[T]{delay: delay, fn: fn}
}

// Trigger schedules fn(v), replacing any pending call.
func (d *Debouncer[T]) Trigger(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.pending = v
	d.armed = true
	d.timer = time.AfterFunc(d.delay, d.fire)
}

func (d *Debouncer[T]) fire() {
	d.mu.Lock()
	if !d.armed {
		d.mu.Unlock()
		return
	}
	v := d.pending
	d.armed = false
	d.timer = nil
	d.mu.Unlock()
	d.fn(v)
}

// Pending reports whether a call is scheduled.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.armed
}

// Flush runs a pending call immediately.
func (d *Debouncer[T]) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.mu.Unlock()
	d.fire()
}

// Stop drops a pending call.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.armed = false
}
