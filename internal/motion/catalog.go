package motion

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// manifest is the on-disk catalog shape.
type manifest struct {
	Motions []Definition `json:"motions"`
}

// Catalog is the immutable in-memory motion index. Load is idempotent and
// single-flight; a missing or malformed manifest yields an empty catalog so
// downstream selection degrades to "no motion available" instead of erroring.
type Catalog struct {
	path   string
	logger zerolog.Logger

	once sync.Once

	mu    sync.RWMutex
	defs  []Definition
	byID  map[string]int
	ready bool

	watcher *fsnotify.Watcher
}

// NewCatalog points at a manifest file; nothing is read until Load.
func NewCatalog(path string, logger zerolog.Logger) *Catalog {
	return &Catalog{
		path:   path,
		logger: logger.With().Str("component", "motion-catalog").Logger(),
	}
}

// Load fetches and parses the manifest once. Concurrent callers share the
// one in-flight load. Always returns nil; catalog errors are non-fatal.
func (c *Catalog) Load(ctx context.Context) error {
	c.once.Do(func() {
		c.reload()
	})
	return nil
}

// Reload re-reads the manifest, replacing the index atomically.
func (c *Catalog) Reload() {
	c.reload()
}

func (c *Catalog) reload() {
	defs, err := readManifest(c.path)
	if err != nil {
		c.logger.Warn().Err(err).Str("path", c.path).
			Msg("motion manifest unavailable, catalog is empty")
		defs = nil
	}

	byID := make(map[string]int, len(defs))
	for i := range defs {
		byID[defs[i].ID] = i
	}

	c.mu.Lock()
	c.defs = defs
	c.byID = byID
	c.ready = true
	c.mu.Unlock()

	c.logger.Info().Int("motions", len(defs)).Msg("motion catalog loaded")
}

func readManifest(path string) ([]Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	base := filepath.Dir(path)
	for i := range m.Motions {
		f := m.Motions[i].File
		if f != "" && !filepath.IsAbs(f) && !strings.Contains(f, "://") {
			m.Motions[i].File = filepath.Join(base, f)
		}
	}
	return m.Motions, nil
}

// Ready reports whether Load has completed at least once.
func (c *Catalog) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

// All returns a copy of every definition.
func (c *Catalog) All() []Definition {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Definition, len(c.defs))
	copy(out, c.defs)
	return out
}

// ByID resolves one definition by motion id.
func (c *Catalog) ByID(id string) (Definition, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i, ok := c.byID[id]; ok {
		return c.defs[i], true
	}
	return Definition{}, false
}

// FindByCategory returns every definition in the category.
func (c *Catalog) FindByCategory(cat Category) []Definition {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []Definition
	for i := range c.defs {
		if c.defs[i].Category == cat {
			out = append(out, c.defs[i])
		}
	}
	return out
}

// FindByKeyword returns every definition listing the keyword.
func (c *Catalog) FindByKeyword(kw string) []Definition {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []Definition
	for i := range c.defs {
		if c.defs[i].HasKeyword(kw) {
			out = append(out, c.defs[i])
		}
	}
	return out
}

// Watch reloads the catalog when the manifest file changes on disk. Returns
// after wiring the watcher; it stops when ctx is cancelled.
func (c *Catalog) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(c.path)); err != nil {
		w.Close()
		return err
	}
	c.mu.Lock()
	c.watcher = w
	c.mu.Unlock()

	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Name != c.path {
					continue
				}
				if ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) {
					c.logger.Info().Str("path", ev.Name).Msg("manifest changed, reloading")
					c.reload()
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				c.logger.Warn().Err(err).Msg("manifest watch error")
			}
		}
	}()
	return nil
}

// Close stops the manifest watcher if one was started. The watch goroutine
// exits when the event channel closes.
func (c *Catalog) Close() error {
	c.mu.Lock()
	w := c.watcher
	c.watcher = nil
	c.mu.Unlock()
	if w == nil {
		return nil
	}
	return w.Close()
}
