package config

import "time"

// DefaultServerConfig returns the compiled-in server defaults, used when no
// server.yaml section is present or a field is left unset.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		ListenAddr:     ":8443",
		ConcurrencyCap: 10,
		MCPEnabled:     true,
		ShutdownGrace:  5 * time.Second,
	}
}

// DefaultPluginDefaults returns the compiled-in scheduler defaults applied
// to every plugin that does not override them.
func DefaultPluginDefaults() PluginDefaults {
	return PluginDefaults{
		Concurrency:    10,
		AttemptTimeout: 5 * time.Second,
		Retries:        2,
		RetryBaseDelay: 200 * time.Millisecond,
		RetryMaxDelay:  5 * time.Second,
	}
}
