// Package intent classifies incoming messages and dispatches them to the
// tool pipeline, the tool runner, the library, or the persona responder.
package intent

import (
	"context"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	"github.com/tsaristov/boop-final-prototype/internal/logging"
	"github.com/tsaristov/boop-final-prototype/internal/tool"
)

// DefaultCacheTTL is how long a loaded tool list stays fresh.
const DefaultCacheTTL = 5 * time.Minute

// ToolSummary is the cached view of one installed tool.
type ToolSummary struct {
	Name      string
	Summary   string
	Functions []tool.CatalogFunction
}

// ListCache caches the installed tool list with a TTL and explicit
// invalidation. The clock is injected for tests; a filesystem watcher on
// the tools directory invalidates on changes between sweeps.
type ListCache struct {
	store *tool.Store
	ttl   time.Duration
	now   func() time.Time

	mu      sync.Mutex
	cached  []ToolSummary
	fetched time.Time
	valid   bool

	watcher *fsnotify.Watcher
	done    chan struct{}
}

func NewListCache(store *tool.Store, ttl time.Duration) *ListCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &ListCache{store: store, ttl: ttl, now: time.Now}
}

// Get returns the tool list, reloading when the cache is stale. Summary
// documents load concurrently across namespaces.
func (c *ListCache) Get(ctx context.Context) ([]ToolSummary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.valid && c.now().Sub(c.fetched) < c.ttl {
		return c.cached, nil
	}

	summaries, err := c.load(ctx)
	if err != nil {
		return nil, err
	}

	c.cached = summaries
	c.fetched = c.now()
	c.valid = true
	return summaries, nil
}

// Invalidate drops the cached list; the next Get reloads.
func (c *ListCache) Invalidate() {
	c.mu.Lock()
	c.valid = false
	c.mu.Unlock()
}

func (c *ListCache) load(ctx context.Context) ([]ToolSummary, error) {
	names := c.store.ListNamespaces()
	summaries := make([]ToolSummary, len(names))

	g, _ := errgroup.WithContext(ctx)
	for i, name := range names {
		g.Go(func() error {
			s := ToolSummary{Name: tool.NormalizeName(name)}
			if text, err := c.store.ReadDoc(name, tool.DocSummary); err == nil {
				s.Summary = text
			}
			if doc, err := c.store.ReadDoc(name, tool.DocFunctions); err == nil {
				s.Functions = tool.ParseCatalog(doc)
			}
			summaries[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logging.IntentDebug("loaded %d tool summaries", len(summaries))
	return summaries, nil
}

// Watch invalidates the cache whenever the tools directory changes.
func (c *ListCache) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(c.store.Root()); err != nil {
		watcher.Close()
		return err
	}

	c.watcher = watcher
	c.done = make(chan struct{})

	go func() {
		for {
			select {
			case _, ok := <-watcher.Events:
				if !ok {
					return
				}
				c.Invalidate()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logging.Intent("tools watcher error: %v", err)
			case <-c.done:
				return
			}
		}
	}()
	return nil
}

// Close stops the watcher.
func (c *ListCache) Close() {
	if c.watcher != nil {
		close(c.done)
		c.watcher.Close()
	}
}
