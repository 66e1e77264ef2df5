package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/wricardo/blockyard/game/engine"
	"github.com/wricardo/blockyard/game/service"
)

var (
	ErrConfigNotFound = service.ErrConfigNotFound
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// DefaultConfigName is the world used when no name is given. If no file
// with this name exists the built-in classic world stands in for it.
const DefaultConfigName = "classic"

// extensions are tried in order when a name has no extension
var extensions = []string{".json", ".yaml", ".yml"}

// Manager handles world configuration loading and caching
type Manager struct {
	configDir     string
	defaultName   string
	defaultConfig *engine.WorldConfig
	configs       map[string]*engine.WorldConfig
	mu            sync.RWMutex
}

// NewManager creates a new configuration manager
func NewManager(configDir string) (*Manager, error) {
	// Ensure config directory exists
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("config directory does not exist: %s", configDir)
	}

	m := &Manager{
		configDir: configDir,
		configs:   make(map[string]*engine.WorldConfig),
	}

	if err := m.loadDefaultConfig(); err != nil {
		return nil, fmt.Errorf("failed to load default config: %w", err)
	}

	return m, nil
}

// LoadConfig loads a configuration by name. The name may carry a .json,
// .yaml or .yml extension; without one each is tried in that order.
func (m *Manager) LoadConfig(name string) (*engine.WorldConfig, error) {
	key := configID(name)
	if key == "" || strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return nil, fmt.Errorf("%w: '%s'", ErrConfigNotFound, name)
	}

	m.mu.RLock()
	if config, exists := m.configs[key]; exists {
		m.mu.RUnlock()
		return config, nil
	}
	m.mu.RUnlock()

	path, err := m.resolve(name)
	if err != nil {
		if errors.Is(err, ErrConfigNotFound) && key == DefaultConfigName {
			return m.cache(key, engine.DefaultWorldConfig()), nil
		}
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config, err := engine.ParseWorldConfig(path, data)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %v", ErrInvalidConfig, filepath.Base(path), err)
	}

	if err := engine.ValidateWorldConfig(config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return m.cache(key, config), nil
}

// cache stores a config unless another goroutine got there first, and
// returns whichever copy won
func (m *Manager) cache(key string, config *engine.WorldConfig) *engine.WorldConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.configs[key]; ok {
		return existing
	}
	m.configs[key] = config
	return config
}

func (m *Manager) resolve(name string) (string, error) {
	if ext := strings.ToLower(filepath.Ext(name)); isConfigExt(ext) {
		path := filepath.Join(m.configDir, name)
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("%w: '%s'", ErrConfigNotFound, name)
		}
		return path, nil
	}

	for _, ext := range extensions {
		path := filepath.Join(m.configDir, name+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: '%s'", ErrConfigNotFound, name)
}

// ListConfigs returns information about all available configurations,
// sorted by identifier. Files that fail validation are skipped.
func (m *Manager) ListConfigs() ([]*service.ConfigInfo, error) {
	entries, err := os.ReadDir(m.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	var configs []*service.ConfigInfo
	seen := make(map[string]bool)

	for _, entry := range entries {
		if entry.IsDir() || !isConfigExt(strings.ToLower(filepath.Ext(entry.Name()))) {
			continue
		}

		id := configID(entry.Name())
		if seen[id] {
			continue
		}

		config, err := m.LoadConfig(entry.Name())
		if err != nil {
			// Skip invalid configs
			continue
		}
		seen[id] = true

		configs = append(configs, configInfo(entry.Name(), id, config))
	}

	if !seen[DefaultConfigName] && m.defaultName == DefaultConfigName {
		configs = append(configs, configInfo("", DefaultConfigName, m.GetDefault()))
	}

	sort.Slice(configs, func(i, j int) bool { return configs[i].ConfigID < configs[j].ConfigID })
	return configs, nil
}

func configInfo(filename, id string, config *engine.WorldConfig) *service.ConfigInfo {
	return &service.ConfigInfo{
		Filename:     filename,
		ConfigID:     id, // This is the identifier to use for session creation
		Name:         config.Name,
		Description:  config.Description,
		Width:        config.Width,
		Height:       config.Height,
		StartingWood: config.StartingWood,
	}
}

// GetDefault returns the default configuration
func (m *Manager) GetDefault() *engine.WorldConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultConfig
}

// DefaultName returns the identifier of the default configuration
func (m *Manager) DefaultName() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultName
}

// SetDefault sets the default configuration by name
func (m *Manager) SetDefault(name string) error {
	config, err := m.LoadConfig(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultName = configID(name)
	m.defaultConfig = config
	return nil
}

// RefreshCache drops every cached configuration and reloads the default
// from disk
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	m.configs = make(map[string]*engine.WorldConfig)
	m.mu.Unlock()

	return m.loadDefaultConfig()
}

// loadDefaultConfig picks classic, then the first valid config on disk,
// then the built-in classic world
func (m *Manager) loadDefaultConfig() error {
	name := DefaultConfigName
	config, err := m.LoadConfig(name)
	if err != nil {
		configs, listErr := m.ListConfigs()
		if listErr != nil {
			return listErr
		}
		if len(configs) > 0 {
			name = configs[0].ConfigID
			config, err = m.LoadConfig(name)
		}
		if err != nil || len(configs) == 0 {
			name = DefaultConfigName
			config = engine.DefaultWorldConfig()
		}
	}

	m.mu.Lock()
	m.defaultName = name
	m.defaultConfig = config
	m.mu.Unlock()
	return nil
}

// SaveConfig validates a configuration and writes it as JSON
func (m *Manager) SaveConfig(name string, config *engine.WorldConfig) error {
	key := configID(name)
	if key == "" || strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return fmt.Errorf("%w: bad config name '%s'", ErrInvalidConfig, name)
	}

	config.ApplyDefaults()
	if err := engine.ValidateWorldConfig(config); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	configPath := filepath.Join(m.configDir, key+".json")
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	m.mu.Lock()
	m.configs[key] = config
	m.mu.Unlock()

	return nil
}

// configID strips a known extension from a file or config name
func configID(name string) string {
	ext := filepath.Ext(name)
	if isConfigExt(strings.ToLower(ext)) {
		return strings.TrimSuffix(name, ext)
	}
	return name
}

func isConfigExt(ext string) bool {
	for _, e := range extensions {
		if ext == e {
			return true
		}
	}
	return false
}
