package feed

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

const configExt = ".yml"

// ConfigCache holds the named feed definitions found in a directory of
// <name>.yml files, keyed by feed name.
type ConfigCache struct {
	dir string

	mu    sync.RWMutex
	feeds map[string]*Config
}

func NewConfigCache(dir string) *ConfigCache {
	return &ConfigCache{
		dir:   dir,
		feeds: make(map[string]*Config),
	}
}

func (cc *ConfigCache) Dir() string {
	return cc.dir
}

// LoadAll reads every definition in the directory. A missing directory
// means no named feeds; a single broken file fails the whole load.
func (cc *ConfigCache) LoadAll() error {
	entries, err := os.ReadDir(cc.dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to list feed definitions: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != configExt {
			continue
		}

		feedConfig, err := cc.Load(feedNameFromPath(entry.Name()))
		if err != nil {
			return err
		}
		slog.Debug("Feed definition loaded", "feed", feedConfig.Name, "creator_id", feedConfig.CreatorID, "enabled", feedConfig.Settings.Enabled)
	}

	return nil
}

// Load (re)reads the definition of feed name and replaces the cached one.
// On error the previous definition, if any, is left in place.
func (cc *ConfigCache) Load(name string) (*Config, error) {
	path := filepath.Join(cc.dir, name+configExt)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed definition %s: %w", path, err)
	}

	feedConfig := &Config{}
	if err := yaml.Unmarshal(data, feedConfig); err != nil {
		return nil, fmt.Errorf("failed to parse feed definition %s: %w", path, err)
	}
	feedConfig.Name = name
	feedConfig.Settings.applyDefaults()

	if err := feedConfig.validate(); err != nil {
		return nil, fmt.Errorf("feed definition %s: %w", path, err)
	}

	cc.mu.Lock()
	cc.feeds[name] = feedConfig
	cc.mu.Unlock()

	return feedConfig, nil
}

func (cc *ConfigCache) Remove(name string) {
	cc.mu.Lock()
	delete(cc.feeds, name)
	cc.mu.Unlock()
}

func (cc *ConfigCache) Lookup(name string) (*Config, bool) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	feedConfig, ok := cc.feeds[name]
	return feedConfig, ok
}

// Configs returns the cached definitions ordered by feed name.
func (cc *ConfigCache) Configs() []*Config {
	cc.mu.RLock()
	configs := make([]*Config, 0, len(cc.feeds))
	for _, feedConfig := range cc.feeds {
		configs = append(configs, feedConfig)
	}
	cc.mu.RUnlock()

	sort.Slice(configs, func(i, j int) bool { return configs[i].Name < configs[j].Name })
	return configs
}

func (cc *ConfigCache) Count() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return len(cc.feeds)
}

func feedNameFromPath(path string) string {
	return strings.TrimSuffix(filepath.Base(path), configExt)
}
