package simview

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// FrameLoop is the per-frame animation task. It is started once, re-runs its
// step on every Tick until Stop is requested, and survives a panicking frame.
// Tick is driven by the game's Update, which Ebitengine calls once per tick.
type FrameLoop struct {
	step    func(now time.Time)
	log     logrus.FieldLogger
	running bool
	stop    bool
	frames  uint64
	faults  uint64
}

// NewFrameLoop creates a stopped loop around step.
func NewFrameLoop(step func(now time.Time), log logrus.FieldLogger) *FrameLoop {
	if log == nil {
		log = discardLogger()
	}
	return &FrameLoop{step: step, log: log}
}

// Start schedules the loop. Repeated calls are no-ops.
func (l *FrameLoop) Start() {
	if l.running {
		return
	}
	l.running = true
	l.stop = false
	l.log.Debug("frame loop started")
}

// Stop requests that the loop not be resubmitted after the current frame.
func (l *FrameLoop) Stop() {
	l.stop = true
}

// Running reports whether the loop is scheduled.
func (l *FrameLoop) Running() bool {
	return l.running
}

// Frames returns the number of frames run, and Faults the number that panicked.
func (l *FrameLoop) Frames() uint64 { return l.frames }
func (l *FrameLoop) Faults() uint64 { return l.faults }

// Tick runs one frame if the loop is scheduled, then checks for a stop request
// before resubmitting.
func (l *FrameLoop) Tick(now time.Time) {
	if !l.running {
		return
	}
	l.runFrame(now)
	if l.stop {
		l.running = false
		l.stop = false
		l.log.Debug("frame loop stopped")
	}
}

func (l *FrameLoop) runFrame(now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			l.faults++
			l.log.WithField("frame", l.frames).Error(fmt.Sprintf("frame loop: recovered: %v", r))
		}
	}()
	l.frames++
	if l.step != nil {
		l.step(now)
	}
}
