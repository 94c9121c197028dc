// Package intent provides a read-only view over the declared intents of a
// workspace.
//
// Intents are externally sourced from .orchestration/active_intents.yaml and
// never written by the middleware. Each intent declares the glob patterns it
// is authorised to modify (its owned scope); the gatekeeper enforces them.
package intent

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/papercomputeco/chorus/pkg/orchdir"
)

// Intent is one declared unit of business work.
type Intent struct {
	ID         string   `yaml:"id" json:"id"`
	Name       string   `yaml:"name" json:"name"`
	OwnedScope []string `yaml:"owned_scope" json:"owned_scope"`
}

// catalogFile is the on-disk shape of active_intents.yaml.
type catalogFile struct {
	Intents []Intent `yaml:"intents"`
}

// ErrNotFound indicates the intent id does not resolve in the catalog.
var ErrNotFound = errors.New("intent not found")

// Catalog resolves intents by id with a process-local cache.
type Catalog struct {
	mu     sync.Mutex
	cache  map[string]Intent
	logger *slog.Logger
}

// NewCatalog creates an intent catalog.
func NewCatalog(logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{
		cache:  make(map[string]Intent),
		logger: logger,
	}
}

// Load reads every intent declared for the workspace. A missing catalog file
// yields an empty list, not an error.
func (c *Catalog) Load(workspaceRoot string) ([]Intent, error) {
	data, err := os.ReadFile(orchdir.IntentsPath(workspaceRoot))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading intent catalog: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing intent catalog: %w", err)
	}

	c.mu.Lock()
	for _, it := range file.Intents {
		c.cache[it.ID] = it
	}
	c.mu.Unlock()

	return file.Intents, nil
}

// FindByID resolves an intent, reading the catalog file. The cache is
// refreshed as a side effect. Returns [ErrNotFound] when the id is not
// declared.
func (c *Catalog) FindByID(workspaceRoot, id string) (*Intent, error) {
	intents, err := c.Load(workspaceRoot)
	if err != nil {
		return nil, err
	}

	for i := range intents {
		if intents[i].ID == id {
			return &intents[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// GetCached returns the cached intent for id without touching disk.
func (c *Catalog) GetCached(id string) (*Intent, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	it, ok := c.cache[id]
	if !ok {
		return nil, false
	}
	return &it, true
}

// Invalidate drops the cache. The watcher calls this when the catalog file
// changes.
func (c *Catalog) Invalidate() {
	c.mu.Lock()
	c.cache = make(map[string]Intent)
	c.mu.Unlock()
}
