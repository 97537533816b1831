package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/wricardo/mcp-training/tilepuzzle/game/engine"
	"github.com/wricardo/mcp-training/tilepuzzle/game/levels"
	"github.com/wricardo/mcp-training/tilepuzzle/game/partition"
	"github.com/wricardo/mcp-training/tilepuzzle/game/service"
)

var (
	ErrConfigNotFound = service.ErrConfigNotFound
	ErrInvalidConfig  = service.ErrInvalidConfig
)

// packExtensions are tried in order when a name has no extension
var packExtensions = []string{".json", ".yaml", ".yml"}

// Manager handles level pack loading and caching
type Manager struct {
	configDir   string
	defaultPack *engine.LevelPack
	configs     map[string]*engine.LevelPack
	images      map[string]*partition.Image
	mu          sync.RWMutex
}

// NewManager creates a new configuration manager
func NewManager(configDir string) (*Manager, error) {
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("config directory does not exist: %s", configDir)
	}

	m := &Manager{
		configDir: configDir,
		configs:   make(map[string]*engine.LevelPack),
		images:    make(map[string]*partition.Image),
	}

	if err := m.loadDefaultConfig(); err != nil {
		return nil, fmt.Errorf("failed to load default config: %w", err)
	}

	return m, nil
}

// ConfigDir returns the directory packs are loaded from
func (m *Manager) ConfigDir() string {
	return m.configDir
}

// DecodePack parses pack data. ext selects YAML (".yaml", ".yml") or JSON.
// Defaults are applied before validation.
func DecodePack(data []byte, ext string) (*engine.LevelPack, error) {
	var pack engine.LevelPack
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &pack); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &pack); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	pack.ApplyDefaults()
	if err := engine.ValidateLevelPack(&pack); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return &pack, nil
}

// isPackFile reports whether path looks like a level pack
func isPackFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range packExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// packName strips a pack extension from name
func packName(name string) string {
	if isPackFile(name) {
		return strings.TrimSuffix(name, filepath.Ext(name))
	}
	return name
}

// findPackFile locates the file backing name
func (m *Manager) findPackFile(name string) (string, error) {
	if isPackFile(name) {
		path := filepath.Join(m.configDir, name)
		if _, err := os.Stat(path); err != nil {
			return "", ErrConfigNotFound
		}
		return path, nil
	}
	for _, ext := range packExtensions {
		path := filepath.Join(m.configDir, name+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", ErrConfigNotFound
}

// LoadConfig loads a level pack by name, with or without its extension
func (m *Manager) LoadConfig(name string) (*engine.LevelPack, error) {
	key := packName(name)
	if key == "" || strings.ContainsAny(key, `/\`) {
		return nil, ErrConfigNotFound
	}

	m.mu.RLock()
	if pack, exists := m.configs[key]; exists {
		m.mu.RUnlock()
		return pack, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if pack, exists := m.configs[key]; exists {
		return pack, nil
	}

	path, err := m.findPackFile(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	pack, err := DecodePack(data, filepath.Ext(path))
	if err != nil {
		return nil, err
	}

	m.configs[key] = pack
	return pack, nil
}

// ReloadConfig drops name from the cache and loads it again from disk
func (m *Manager) ReloadConfig(name string) error {
	m.mu.Lock()
	delete(m.configs, packName(name))
	m.mu.Unlock()

	_, err := m.LoadConfig(name)
	return err
}

// ListConfigs returns information about all valid level packs
func (m *Manager) ListConfigs() ([]*service.ConfigInfo, error) {
	entries, err := os.ReadDir(m.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	var configs []*service.ConfigInfo
	seen := make(map[string]bool)

	for _, entry := range entries {
		if entry.IsDir() || !isPackFile(entry.Name()) {
			continue
		}

		name := packName(entry.Name())
		if seen[name] {
			continue
		}

		pack, err := m.LoadConfig(entry.Name())
		if err != nil {
			// Skip invalid packs
			continue
		}
		seen[name] = true

		configs = append(configs, &service.ConfigInfo{
			Filename:    entry.Name(),
			ConfigID:    name,
			Name:        pack.Name,
			Description: pack.Description,
			Cols:        pack.Cols,
			Rows:        pack.Rows,
			Levels:      len(pack.Images),
		})
	}

	sort.Slice(configs, func(i, j int) bool { return configs[i].ConfigID < configs[j].ConfigID })
	return configs, nil
}

// GetDefault returns the default level pack
func (m *Manager) GetDefault() *engine.LevelPack {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultPack
}

// SetDefault sets the default level pack by name
func (m *Manager) SetDefault(name string) error {
	pack, err := m.LoadConfig(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultPack = pack
	return nil
}

// RefreshCache drops every cached pack and image and reloads the default
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	m.configs = make(map[string]*engine.LevelPack)
	m.images = make(map[string]*partition.Image)
	m.mu.Unlock()

	return m.loadDefaultConfig()
}

// Count returns the number of cached packs
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.configs)
}

func (m *Manager) loadDefaultConfig() error {
	pack, err := m.LoadConfig("classic")
	if err != nil {
		configs, listErr := m.ListConfigs()
		if listErr != nil || len(configs) == 0 {
			m.setDefault(m.createMinimalConfig())
			return nil
		}

		pack, err = m.LoadConfig(configs[0].Filename)
		if err != nil {
			m.setDefault(m.createMinimalConfig())
			return nil
		}
	}

	m.setDefault(pack)
	return nil
}

func (m *Manager) setDefault(pack *engine.LevelPack) {
	m.mu.Lock()
	m.defaultPack = pack
	m.mu.Unlock()
}

// SaveConfig writes a level pack as indented JSON
func (m *Manager) SaveConfig(name string, pack *engine.LevelPack) error {
	if pack == nil {
		return fmt.Errorf("%w: pack is nil", ErrInvalidConfig)
	}
	key := packName(name)
	if key == "" || strings.ContainsAny(key, `/\`) || strings.HasPrefix(key, ".") {
		return fmt.Errorf("%w: bad config name %q", ErrInvalidConfig, name)
	}

	// Work on a copy so the caller's pack keeps its zero fields
	saved := *pack
	saved.Images = append([]string(nil), pack.Images...)
	pack = &saved

	pack.ApplyDefaults()
	if err := engine.ValidateLevelPack(pack); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	// Submitted packs may only name images inside the config directory
	for i, p := range pack.Images {
		if !filepath.IsLocal(p) {
			return fmt.Errorf("%w: image %d path %q is outside the config directory", ErrInvalidConfig, i, p)
		}
	}

	data, err := json.MarshalIndent(pack, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	configPath := filepath.Join(m.configDir, key+".json")
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	m.mu.Lock()
	m.configs[key] = pack
	m.mu.Unlock()

	return nil
}

// LoadLevels decodes the images a pack names, relative to the config
// directory. Decoded images are cached until the next refresh.
func (m *Manager) LoadLevels(pack *engine.LevelPack) []*partition.Image {
	if pack == nil {
		return nil
	}

	result := make([]*partition.Image, len(pack.Images))
	var missing []int

	m.mu.RLock()
	for i, p := range pack.Images {
		if img, ok := m.images[m.imagePath(p)]; ok {
			result[i] = img
		} else {
			missing = append(missing, i)
		}
	}
	m.mu.RUnlock()

	if len(missing) == 0 {
		return result
	}

	for _, i := range missing {
		path := m.imagePath(pack.Images[i])
		img := levels.Load(path)
		result[i] = img
		if img.Readable {
			m.mu.Lock()
			m.images[path] = img
			m.mu.Unlock()
		}
	}
	return result
}

func (m *Manager) imagePath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.configDir, p)
}

// createMinimalConfig returns a pack without images. Sessions created from it
// fail to start until a real pack is added.
func (m *Manager) createMinimalConfig() *engine.LevelPack {
	return engine.DefaultLevelPack("default")
}
