package simview

import (
	"context"
	"fmt"
	"image"
	_ "image/png"
	"net/http"
	"sync"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/sirupsen/logrus"
)

// SpriteState describes where a sprite is in its lifecycle.
type SpriteState uint8

const (
	SpriteLoading SpriteState = iota // fetch in flight; draw the placeholder
	SpriteReady                      // image available
	SpriteFailed                     // fetch or decode failed; placeholder for good
)

// SpriteCache lazily fetches entity sprites by model name. Lookups never
// block: the first Get for a model starts a background fetch and reports
// SpriteLoading. Decoded images are uploaded to the GPU on the next Get,
// which runs on the render goroutine.
type SpriteCache struct {
	base   string
	tmpl   string
	client *http.Client
	cache  *ristretto.Cache[string, *ebiten.Image]
	log    logrus.FieldLogger

	mu       sync.Mutex
	inflight map[string]struct{}
	decoded  map[string]image.Image
	// pinned holds uploaded images the cache refused, so each decoded
	// sprite is uploaded to the GPU once.
	pinned   map[string]*ebiten.Image
	failed   map[string]struct{}
	wg       sync.WaitGroup
}

// NewSpriteCache creates a cache resolving models against base using the
// path template tmpl (for example "/resources/sprites/%s.png").
func NewSpriteCache(base, tmpl string, client *http.Client, log logrus.FieldLogger) (*SpriteCache, error) {
	if client == nil {
		client = http.DefaultClient
	}
	if log == nil {
		log = discardLogger()
	}
	cache, err := ristretto.NewCache(&ristretto.Config[string, *ebiten.Image]{
		NumCounters: 10000,
		MaxCost:     64 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("simview: sprite cache: %w", err)
	}
	return &SpriteCache{
		base:     base,
		tmpl:     tmpl,
		client:   client,
		cache:    cache,
		log:      log,
		inflight: make(map[string]struct{}),
		decoded:  make(map[string]image.Image),
		pinned:   make(map[string]*ebiten.Image),
		failed:   make(map[string]struct{}),
	}, nil
}

// URL returns the sprite location for model; it is also the cache key.
func (c *SpriteCache) URL(model string) string {
	return c.base + fmt.Sprintf(c.tmpl, model)
}

// Get returns the sprite for model and its state.
func (c *SpriteCache) Get(model string) (*ebiten.Image, SpriteState) {
	key := c.URL(model)
	if img, ok := c.cache.Get(key); ok {
		return img, SpriteReady
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, bad := c.failed[key]; bad {
		return nil, SpriteFailed
	}
	if img, ok := c.pinned[key]; ok {
		return img, SpriteReady
	}
	if src, ok := c.decoded[key]; ok {
		img := ebiten.NewImageFromImage(src)
		delete(c.decoded, key)
		b := src.Bounds()
		if c.cache.Set(key, img, int64(b.Dx()*b.Dy()*4)) {
			c.cache.Wait()
		} else {
			c.pinned[key] = img
		}
		return img, SpriteReady
	}
	if _, busy := c.inflight[key]; !busy {
		c.inflight[key] = struct{}{}
		c.wg.Add(1)
		go c.fetch(key)
	}
	return nil, SpriteLoading
}

func (c *SpriteCache) fetch(key string) {
	defer c.wg.Done()
	img, err := c.download(context.Background(), key)

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inflight, key)
	if err != nil {
		c.failed[key] = struct{}{}
		c.log.WithError(err).WithField("url", key).Debug("sprite unavailable")
		return
	}
	c.decoded[key] = img
}

func (c *SpriteCache) download(ctx context.Context, url string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("simview: sprite request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("simview: fetch sprite: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("simview: fetch sprite: %s", resp.Status)
	}
	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("simview: decode sprite: %w", err)
	}
	return img, nil
}

// Wait blocks until every in-flight fetch has finished.
func (c *SpriteCache) Wait() {
	c.wg.Wait()
}

// Close waits for fetches and releases the cache.
func (c *SpriteCache) Close() {
	c.wg.Wait()
	c.cache.Close()
}
