package plugin

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/ayusman/mudra/internal/log"
)

// ErrPluginNotFound is returned when a requested plugin cannot be found.
var ErrPluginNotFound = errors.New("plugin not found")

const manifestFile = "plugin.json"

// Manager holds the plugins discovered under one directory.
type Manager struct {
	pluginDir string
	plugins   map[string]*Plugin
	mu        sync.RWMutex
}

// NewManager creates a Manager for pluginDir. Nothing is loaded until Discover.
func NewManager(pluginDir string) *Manager {
	return &Manager{
		pluginDir: pluginDir,
		plugins:   make(map[string]*Plugin),
	}
}

// Discover rescans the plugin directory, replacing the previous set.
// A missing directory yields no plugins. Unreadable or incomplete
// manifests are skipped with a warning.
func (m *Manager) Discover() error {
	found := make(map[string]*Plugin)

	entries, err := os.ReadDir(m.pluginDir)
	if errors.Is(err, os.ErrNotExist) {
		m.replace(found)
		return nil
	}
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		p, err := loadPlugin(filepath.Join(m.pluginDir, entry.Name()))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			log.Warn("skipping plugin", "dir", entry.Name(), "error", err)
			continue
		}
		if _, dup := found[p.Manifest.Name]; dup {
			log.Warn("duplicate plugin name", "name", p.Manifest.Name, "dir", entry.Name())
			continue
		}
		found[p.Manifest.Name] = p
	}

	m.replace(found)
	log.Info("plugins discovered", "dir", m.pluginDir, "count", len(found))
	return nil
}

func (m *Manager) replace(plugins map[string]*Plugin) {
	m.mu.Lock()
	m.plugins = plugins
	m.mu.Unlock()
}

func loadPlugin(dir string) (*Plugin, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		return nil, err
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, err
	}
	if manifest.Name == "" || manifest.Executable == "" {
		return nil, errors.New("manifest needs name and executable")
	}

	return &Plugin{
		Manifest:   manifest,
		Path:       dir,
		Executable: filepath.Join(dir, manifest.Executable),
	}, nil
}

// Get returns a plugin by name, or ErrPluginNotFound.
func (m *Manager) Get(name string) (*Plugin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	plugin, ok := m.plugins[name]
	if !ok {
		return nil, ErrPluginNotFound
	}
	return plugin, nil
}

// List returns all discovered plugins ordered by name.
func (m *Manager) List() []*Plugin {
	m.mu.RLock()
	plugins := make([]*Plugin, 0, len(m.plugins))
	for _, p := range m.plugins {
		plugins = append(plugins, p)
	}
	m.mu.RUnlock()

	sort.Slice(plugins, func(i, j int) bool {
		return plugins[i].Manifest.Name < plugins[j].Manifest.Name
	})
	return plugins
}

// PluginDir returns the plugin directory path.
func (m *Manager) PluginDir() string {
	return m.pluginDir
}
