package simview

import (
	"context"
	"errors"
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const mainWindowID = "main"

// session stops the game once its context is done.
type session struct {
	*App
	ctx context.Context
}

func (s *session) Update() error {
	if s.ctx.Err() != nil {
		return ebiten.Termination
	}
	return s.App.Update()
}

// Run opens the viewer window and blocks until it is closed or ctx is done.
// The initial snapshot fetch and the event stream run in the background and
// feed the same channel; their failures are logged, not fatal.
func Run(ctx context.Context, cfg Config, log logrus.FieldLogger) error {
	if log == nil {
		log = discardLogger()
	}
	client, err := NewClient(cfg.ServerURL, nil)
	if err != nil {
		return err
	}
	stream := NewStream(cfg.ServerURL, nil, cfg.ReconnectDelay, log)
	app, err := NewApp(cfg,
		WithLogger(log),
		WithClient(client),
		WithSnapshots(stream.Snapshots()),
	)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		snap, err := client.FetchSnapshot(gctx)
		if err != nil {
			log.WithError(err).Warn("initial snapshot unavailable, waiting for the event stream")
			return nil
		}
		stream.Publish(snap)
		return nil
	})
	g.Go(func() error {
		err := stream.Run(gctx)
		if errors.Is(err, ErrStreamUnsupported) || errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	w, h := cfg.WindowWidth, cfg.WindowHeight
	if geo, ok := app.Storage().LoadWindow(mainWindowID); ok {
		w, h = int(geo.Width), int(geo.Height)
	}
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowTitle(cfg.WindowTitle)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	log.WithFields(logrus.Fields{
		"server": cfg.ServerURL,
		"width":  w,
		"height": h,
	}).Info("viewer starting")

	runErr := ebiten.RunGame(&session{App: app, ctx: ctx})
	cancel()
	if err := g.Wait(); err != nil {
		log.WithError(err).Warn("background task failed")
	}

	if cw, ch := app.Viewport().CanvasSize(); cw > 0 && ch > 0 {
		app.Storage().SaveWindow(mainWindowID, WindowGeometry{Width: cw, Height: ch})
	}
	app.Close()

	log.WithFields(logrus.Fields{
		"snapshots": app.Applied(),
		"received":  stream.Received(),
		"dropped":   stream.Dropped(),
		"connects":  stream.Connects(),
	}).Info("viewer stopped")

	if runErr != nil && !errors.Is(runErr, ebiten.Termination) {
		return fmt.Errorf("simview: run game: %w", runErr)
	}
	return nil
}
