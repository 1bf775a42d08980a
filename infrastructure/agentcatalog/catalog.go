package agentcatalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	domainAgent "github.com/ganga90/olive-couple-sync-sub002/domains/agent"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

type catalogFile struct {
	Agents []domainAgent.CatalogEntry `yaml:"agents"`
}

// Catalog serves agent definitions from a YAML file. Watch hot-reloads the
// file on change so new agents roll out without a restart; a broken edit
// keeps the last good snapshot.
type Catalog struct {
	path string

	mu      sync.RWMutex
	entries []domainAgent.CatalogEntry
	byID    map[string]domainAgent.CatalogEntry

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// Load reads the catalog file. A missing file yields an empty catalog, which
// simply means no background agents run.
func Load(path string) (*Catalog, error) {
	c := &Catalog{path: path, byID: map[string]domainAgent.CatalogEntry{}}
	if err := c.reload(); err != nil {
		if os.IsNotExist(err) {
			logrus.Warnf("[CATALOG] %s not found, starting with an empty agent catalog", path)
			return c, nil
		}
		return nil, err
	}
	return c, nil
}

func (c *Catalog) reload() error {
	raw, err := os.ReadFile(c.path)
	if err != nil {
		return err
	}

	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("parse agent catalog: %w", err)
	}

	byID := make(map[string]domainAgent.CatalogEntry, len(file.Agents))
	for _, entry := range file.Agents {
		if entry.ID == "" {
			return fmt.Errorf("agent catalog entry without id")
		}
		byID[entry.ID] = entry
	}

	c.mu.Lock()
	c.entries = file.Agents
	c.byID = byID
	c.mu.Unlock()

	logrus.Infof("[CATALOG] loaded %d agent(s) from %s", len(file.Agents), c.path)
	return nil
}

func (c *Catalog) Entries() []domainAgent.CatalogEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domainAgent.CatalogEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

func (c *Catalog) Get(agentID string) (domainAgent.CatalogEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.byID[agentID]
	return entry, ok
}

// Watch reloads the catalog whenever the file changes. Editors often replace
// the file (rename+create), so the watch sits on the directory.
func (c *Catalog) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(c.path)); err != nil {
		watcher.Close()
		return err
	}

	c.watcher = watcher
	c.done = make(chan struct{})

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(c.path) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if err := c.reload(); err != nil {
					logrus.WithError(err).Warn("[CATALOG] reload failed, keeping previous catalog")
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logrus.WithError(err).Warn("[CATALOG] watcher error")
			case <-c.done:
				return
			}
		}
	}()

	return nil
}

func (c *Catalog) Close() {
	if c.watcher != nil {
		close(c.done)
		c.watcher.Close()
	}
}
