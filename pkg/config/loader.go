package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// pluginsYAMLConfig represents the complete plugins.yaml file structure.
type pluginsYAMLConfig struct {
	Server  *serverYAMLConfig         `yaml:"server"`
	Plugins map[string]PluginDefaults `yaml:"plugins"`
}

// serverYAMLConfig mirrors ServerConfig but uses pointers for MCPEnabled and
// ConcurrencyCap so an omitted field can be told apart from an explicit
// "false" or 0.
type serverYAMLConfig struct {
	ListenAddr     string        `yaml:"listen_addr,omitempty"`
	ConcurrencyCap *int          `yaml:"concurrency_cap,omitempty"`
	MCPEnabled     *bool         `yaml:"mcp_enabled,omitempty"`
	ShutdownGrace  time.Duration `yaml:"shutdown_grace,omitempty"`
}

// Initialize loads, validates, and returns ready-to-use configuration.
// This is the primary entry point for configuration loading.
//
// Steps performed:
//  1. Load .env (if present) so subsequent env lookups see its values
//  2. Load plugins.yaml from configDir, expanding environment variables
//  3. Merge compiled-in defaults with the YAML-supplied overrides
//  4. Validate all configuration
//  5. Return Config ready for use
func Initialize(_ context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("initializing configuration")

	envPath := filepath.Join(configDir, ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		log.Warn("failed to load .env", "path", envPath, "error", err)
	}

	cfg, err := load(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	stats := cfg.Stats()
	log.Info("configuration initialized", "plugins", stats.Plugins)

	return cfg, nil
}

func load(configDir string) (*Config, error) {
	loader := &configLoader{configDir: configDir}

	yamlCfg, err := loader.loadPluginsYAML()
	if err != nil {
		if errors.Is(err, ErrConfigNotFound) {
			// No plugins.yaml: run entirely on compiled-in defaults.
			return &Config{
				configDir: configDir,
				Server:    DefaultServerConfig(),
				Plugins:   map[string]PluginDefaults{},
			}, nil
		}
		return nil, NewLoadError("plugins.yaml", err)
	}

	server := DefaultServerConfig()
	if yamlCfg.Server != nil {
		mergeServerConfig(&server, yamlCfg.Server)
	}

	plugins := make(map[string]PluginDefaults, len(yamlCfg.Plugins))
	for id, override := range yamlCfg.Plugins {
		merged := DefaultPluginDefaults()
		mergePluginDefaults(&merged, &override)
		plugins[id] = merged
	}

	return &Config{
		configDir: configDir,
		Server:    server,
		Plugins:   plugins,
	}, nil
}

func validate(cfg *Config) error {
	return NewValidator(cfg).ValidateAll()
}

type configLoader struct {
	configDir string
}

func (l *configLoader) loadYAML(filename string, target any) error {
	path := filepath.Join(l.configDir, filename)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return err
	}

	data = ExpandEnv(data)

	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return nil
}

func (l *configLoader) loadPluginsYAML() (*pluginsYAMLConfig, error) {
	var cfg pluginsYAMLConfig
	cfg.Plugins = make(map[string]PluginDefaults)

	if err := l.loadYAML("plugins.yaml", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeServerConfig overrides base with any field set in override.
func mergeServerConfig(base *ServerConfig, override *serverYAMLConfig) {
	if override.ListenAddr != "" {
		base.ListenAddr = override.ListenAddr
	}
	if override.ConcurrencyCap != nil {
		base.ConcurrencyCap = *override.ConcurrencyCap
	}
	if override.ShutdownGrace > 0 {
		base.ShutdownGrace = override.ShutdownGrace
	}
	if override.MCPEnabled != nil {
		base.MCPEnabled = *override.MCPEnabled
	}
}

// mergePluginDefaults overrides base with any non-zero field set in override.
func mergePluginDefaults(base *PluginDefaults, override *PluginDefaults) {
	if override.Concurrency > 0 {
		base.Concurrency = override.Concurrency
	}
	if override.AttemptTimeout > 0 {
		base.AttemptTimeout = override.AttemptTimeout
	}
	if override.Retries > 0 {
		base.Retries = override.Retries
	}
	if override.RetryBaseDelay > 0 {
		base.RetryBaseDelay = override.RetryBaseDelay
	}
	if override.RetryMaxDelay > 0 {
		base.RetryMaxDelay = override.RetryMaxDelay
	}
	if override.RatePerSecond > 0 {
		base.RatePerSecond = override.RatePerSecond
	}
}
