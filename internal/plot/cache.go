package plot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/KaramelBytes/edareport/internal/logging"
	"github.com/KaramelBytes/edareport/internal/viz"
	"golang.org/x/sync/errgroup"
)

// Cache holds rendered PNGs by chart ID. It is safe for concurrent use and
// satisfies render.ImageSource.
type Cache struct {
	mu     sync.RWMutex
	images map[string][]byte
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{images: make(map[string][]byte)}
}

// Image returns the PNG for a chart ID.
func (c *Cache) Image(id string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.images[id]
	return b, ok
}

// Put stores a PNG.
func (c *Cache) Put(id string, png []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.images[id] = png
}

// Len reports how many images are cached.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// RenderAll renders every chart not yet cached, at most limit at a time. The
// first failure cancels the remaining work.
func (c *Cache) RenderAll(ctx context.Context, b Backend, charts []viz.Chart, limit int) error {
	logger := logging.FromContext(ctx)
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for _, ch := range charts {
		id := ch.ID()
		if _, ok := c.Image(id); ok {
			continue
		}
		g.Go(func() error {
			start := time.Now()
			png, err := b.Render(gctx, ch)
			if err != nil {
				return fmt.Errorf("render chart %s: %w", id, err)
			}
			c.Put(id, png)
			logger.Debug("chart rendered", "chart", id, "bytes", len(png), "elapsed", time.Since(start))
			return nil
		})
	}
	return g.Wait()
}
