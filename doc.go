// Package simview is a live viewer for a tile-based simulation server, built
// on [Ebitengine].
//
// The server exposes its whole world as a JSON snapshot: a tilemap, a set of
// entities with tile locations and component slots, the tick counter and the
// pause and delay controls. simview fetches the first snapshot from
// GET /simulation, then follows GET /events, a server-sent event stream that
// pushes a fresh snapshot on every change.
//
// # Quick start
//
// The simplest way to get started is [Run], which loads nothing on its own
// and takes a ready [Config]:
//
//	cfg, err := simview.LoadConfig("simview.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	logger := simview.NewLogger(cfg.Log)
//	if err := simview.Run(ctx, cfg, logger); err != nil {
//		logger.WithError(err).Fatal("viewer failed")
//	}
//
// For full control, build an [App] with [NewApp] and hand it to
// [ebiten.RunGame]. Snapshots reach the App through the channel given with
// [WithSnapshots]; [Stream] and [Client] produce them.
//
// # Rendering
//
// Every tile is a colored square from the [Palette]; entities are drawn as a
// square (or sprite, when enabled) with a name label, inset from the tile
// edges. Large maps are culled to the visible tile range. [Renderer.Build]
// emits plain [DrawCommand] values so frames can be inspected without a GPU.
//
// # Motion
//
// When a snapshot moves an entity, [TweenStore] eases it from wherever it is
// on screen to its new tile over [DefaultTweenDuration]. A tween that is
// interrupted restarts from the interpolated position, so entities never
// jump.
//
// # Inspector
//
// The side panel shows the raw snapshot as a collapsible tree. [Inspector]
// reconciles each new snapshot against the existing tree by property key, so
// expanded groups stay expanded across updates.
//
// # Persistence
//
// Zoom and pan are saved to a small YAML file through [Storage], debounced by
// [DefaultSaveDebounce], and restored on the next start.
//
// [Ebitengine]: https://ebitengine.org
package simview
