package config

import "time"

// Config is the fully loaded, validated, ready-to-use server configuration.
type Config struct {
	configDir string

	Server  ServerConfig
	Plugins map[string]PluginDefaults
}

// ServerConfig groups the settings for the serve subcommand: the REST
// listener, the MCP stdio surface, and the session registry's concurrency
// cap.
type ServerConfig struct {
	ListenAddr     string        `yaml:"listen_addr"`
	ConcurrencyCap int           `yaml:"concurrency_cap"`
	MCPEnabled     bool          `yaml:"mcp_enabled"`
	ShutdownGrace  time.Duration `yaml:"shutdown_grace"`
}

// PluginDefaults carries per-plugin default scheduler settings loaded from
// plugins.yaml and validated at startup. Campaign argv parsing does not read
// them: its flag defaults are fixed values equal to DefaultPluginDefaults.
type PluginDefaults struct {
	Concurrency    int           `yaml:"concurrency,omitempty"`
	AttemptTimeout time.Duration `yaml:"attempt_timeout,omitempty"`
	Retries        int           `yaml:"retries,omitempty"`
	RetryBaseDelay time.Duration `yaml:"retry_base_delay,omitempty"`
	RetryMaxDelay  time.Duration `yaml:"retry_max_delay,omitempty"`
	RatePerSecond  float64       `yaml:"rate_per_second,omitempty"`
}

// Stats summarizes a loaded configuration for startup logging.
type Stats struct {
	Plugins int
}

// Stats returns summary counts for startup logging.
func (c *Config) Stats() Stats {
	return Stats{Plugins: len(c.Plugins)}
}

// ConfigDir returns the directory this configuration was loaded from.
func (c *Config) ConfigDir() string {
	return c.configDir
}
