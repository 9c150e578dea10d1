// hot-reload.go: dynamic configuration with Argus integration
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package lockfree

import (
	"sync"
	"time"

	"github.com/agilira/argus"
)

// Tunable is the subset of Map behavior that can be adjusted without
// rebuilding it. MaxTrieDepth cannot be changed after construction (it
// governs the shape of an already-published trie), so only the
// reclamation knobs (backlog warning length, sweeper interval) are exposed
// here.
type Tunable interface {
	setReclaimQueueWarnLen(n int)
	setTryForceInterval(d time.Duration)
}

// HotConfig provides dynamic configuration reload capabilities using Argus.
// It watches a configuration file and automatically updates a Map's
// reclamation tuning when changes are detected.
type HotConfig struct {
	target  Tunable
	watcher *argus.Watcher
	mu      sync.RWMutex
	config  Config

	// OnReload is called after configuration is successfully reloaded.
	// This callback is optional and must be fast and non-blocking.
	OnReload func(oldConfig, newConfig Config)
}

// HotConfigOptions configures hot reload behavior.
type HotConfigOptions struct {
	// ConfigPath is the path to the configuration file to watch.
	// Supports JSON, YAML, TOML, HCL, INI, Properties formats.
	ConfigPath string

	// PollInterval is how often to check for configuration changes.
	// Default: 1 second. Minimum: 100ms.
	PollInterval time.Duration

	// OnReload is called after configuration is successfully reloaded.
	OnReload func(oldConfig, newConfig Config)

	// Logger for hot reload operations.
	Logger Logger
}

// NewHotConfig creates a new hot-reloadable configuration for target.
// It starts watching the configuration file immediately.
//
// Example configuration file (YAML):
//
//	reclaim:
//	  queue_warn_len: 4096
//	  try_force_interval: "500ms"
//
// Supported configuration keys:
//   - reclaim.queue_warn_len (int): backlog length that triggers a warning
//   - reclaim.try_force_interval (duration string): sweeper cadence,
//     stored in the target's Config; a sweeper already started with
//     StartSweeper keeps the interval it was started with
//
// MaxTrieDepth is not reloadable: it is fixed at construction because it
// shapes an already-published trie.
func NewHotConfig(target Tunable, opts HotConfigOptions) (*HotConfig, error) {
	if opts.ConfigPath == "" {
		return nil, NewErrInvalidConfig("config_path is required")
	}

	if opts.PollInterval == 0 {
		opts.PollInterval = 1 * time.Second
	} else if opts.PollInterval < 100*time.Millisecond {
		opts.PollInterval = 100 * time.Millisecond
	}

	if opts.Logger == nil {
		opts.Logger = NoOpLogger{}
	}

	hc := &HotConfig{
		target:   target,
		OnReload: opts.OnReload,
		config:   DefaultConfig(),
	}

	argusConfig := argus.Config{
		PollInterval: opts.PollInterval,
	}

	watcher, err := argus.UniversalConfigWatcherWithConfig(opts.ConfigPath, hc.handleConfigChange, argusConfig)
	if err != nil {
		return nil, err
	}
	hc.watcher = watcher

	return hc, nil
}

// Start begins watching the configuration file for changes.
func (hc *HotConfig) Start() error {
	if hc.watcher.IsRunning() {
		return nil
	}
	return hc.watcher.Start()
}

// Stop stops watching the configuration file.
func (hc *HotConfig) Stop() error {
	return hc.watcher.Stop()
}

// GetConfig returns the current configuration (thread-safe).
func (hc *HotConfig) GetConfig() Config {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	return hc.config
}

// handleConfigChange is called by Argus when configuration changes.
func (hc *HotConfig) handleConfigChange(configData map[string]interface{}) {
	hc.mu.Lock()
	oldConfig := hc.config
	newConfig := hc.parseConfig(configData)
	hc.config = newConfig
	hc.mu.Unlock()

	hc.applyChanges(newConfig)

	if hc.OnReload != nil {
		hc.OnReload(oldConfig, newConfig)
	}
}

// parsePositiveInt extracts a positive integer from interface{} value.
// Supports both int and float64 types (YAML/JSON may vary).
func parsePositiveInt(value interface{}) (int, bool) {
	switch v := value.(type) {
	case int:
		if v > 0 {
			return v, true
		}
	case float64:
		if v > 0 {
			return int(v), true
		}
	}
	return 0, false
}

// parseDuration extracts a time.Duration from a string value.
func parseDuration(value interface{}) (time.Duration, bool) {
	if str, ok := value.(string); ok {
		if d, err := time.ParseDuration(str); err == nil {
			return d, true
		}
	}
	return 0, false
}

// parseConfig extracts reclamation tuning from Argus config data.
func (hc *HotConfig) parseConfig(data map[string]interface{}) Config {
	config := hc.config

	reclaimSection, ok := data["reclaim"].(map[string]interface{})
	if !ok {
		if _, hasWarnLen := data["queue_warn_len"]; hasWarnLen {
			reclaimSection = data
		} else {
			return config
		}
	}

	if warnLen, ok := parsePositiveInt(reclaimSection["queue_warn_len"]); ok {
		config.ReclaimQueueWarnLen = warnLen
	}

	if interval, ok := parseDuration(reclaimSection["try_force_interval"]); ok {
		config.TryForceInterval = interval
	}

	return config
}

// applyChanges pushes reloaded tuning knobs to the target Map.
func (hc *HotConfig) applyChanges(cfg Config) {
	if hc.target == nil {
		return
	}
	if cfg.ReclaimQueueWarnLen > 0 {
		hc.target.setReclaimQueueWarnLen(cfg.ReclaimQueueWarnLen)
	}
	if cfg.TryForceInterval > 0 {
		hc.target.setTryForceInterval(cfg.TryForceInterval)
	}
}
