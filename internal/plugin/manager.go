package plugin

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ayusman/soundwave/internal/log"
)

// ManifestFile is the file a plugin directory must contain.
const ManifestFile = "plugin.json"

// ErrPluginNotFound is returned when no discovered plugin matches a lookup.
var ErrPluginNotFound = errors.New("plugin not found")

var errNoManifest = errors.New("no manifest")

// Manager holds the plugins found under one directory. Lookups go by name
// or by the actions a caller needs, so a sink can bind to any plugin that
// can drive the system volume.
type Manager struct {
	dir string

	mu     sync.RWMutex
	byName map[string]*Plugin
}

// NewManager returns a Manager for dir. Nothing is read until Discover.
func NewManager(dir string) *Manager {
	return &Manager{
		dir:    dir,
		byName: make(map[string]*Plugin),
	}
}

// Discover rescans the plugin directory. Every subdirectory holding a valid
// manifest becomes a plugin; broken manifests are logged and skipped. A
// missing directory, or a path that is not a directory, yields no plugins.
func (m *Manager) Discover() error {
	found := make(map[string]*Plugin)

	var entries []os.DirEntry
	info, err := os.Stat(m.dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return err
	case info.IsDir():
		if entries, err = os.ReadDir(m.dir); err != nil {
			return err
		}
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		p, err := load(filepath.Join(m.dir, entry.Name()))
		if errors.Is(err, errNoManifest) {
			continue
		}
		if err != nil {
			log.Warn("skipping plugin", "path", filepath.Join(m.dir, entry.Name()), "error", err)
			continue
		}
		if prev, ok := found[p.Manifest.Name]; ok {
			log.Warn("duplicate plugin name", "name", p.Manifest.Name, "kept", prev.Path, "skipped", p.Path)
			continue
		}
		found[p.Manifest.Name] = p
	}

	m.mu.Lock()
	m.byName = found
	m.mu.Unlock()

	log.Info("plugins discovered", "dir", m.dir, "count", len(found))
	return nil
}

// load reads the manifest in dir.
func load(dir string) (*Plugin, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errNoManifest
	}
	if err != nil {
		return nil, err
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	if manifest.Name == "" || manifest.Executable == "" {
		return nil, errors.New("manifest needs a name and an executable")
	}

	return &Plugin{
		Manifest:   manifest,
		Path:       dir,
		Executable: filepath.Join(dir, manifest.Executable),
	}, nil
}

// Get returns the plugin called name.
func (m *Manager) Get(name string) (*Plugin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPluginNotFound, name)
	}
	return p, nil
}

// List returns all discovered plugins sorted by name.
func (m *Manager) List() []*Plugin {
	m.mu.RLock()
	defer m.mu.RUnlock()

	plugins := make([]*Plugin, 0, len(m.byName))
	for _, p := range m.byName {
		plugins = append(plugins, p)
	}
	sort.Slice(plugins, func(i, j int) bool {
		return plugins[i].Manifest.Name < plugins[j].Manifest.Name
	})
	return plugins
}

// Find returns the first plugin, in name order, whose manifest lists every
// one of actions.
func (m *Manager) Find(actions ...string) (*Plugin, error) {
	for _, p := range m.List() {
		if supportsAll(p, actions) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: none handles %s", ErrPluginNotFound, strings.Join(actions, ", "))
}

// Resolve prefers the plugin called preferred when it handles actions and
// otherwise falls back to Find.
func (m *Manager) Resolve(preferred string, actions ...string) (*Plugin, error) {
	if p, err := m.Get(preferred); err == nil {
		if supportsAll(p, actions) {
			return p, nil
		}
		log.Warn("preferred plugin lacks actions", "plugin", preferred, "actions", actions)
	}
	return m.Find(actions...)
}

func supportsAll(p *Plugin, actions []string) bool {
	for _, a := range actions {
		if !p.Manifest.Supports(a) {
			return false
		}
	}
	return true
}

// Dir returns the directory Discover scans.
func (m *Manager) Dir() string {
	return m.dir
}
