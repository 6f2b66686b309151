package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server: DefaultServerConfig(),
		Plugins: map[string]PluginDefaults{
			"http.basic": DefaultPluginDefaults(),
		},
	}
}

func TestValidateAllAcceptsDefaults(t *testing.T) {
	require.NoError(t, NewValidator(validConfig()).ValidateAll())
}

func TestValidateServerRejectsEmptyListenAddr(t *testing.T) {
	cfg := validConfig()
	cfg.Server.ListenAddr = ""

	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingRequiredField)
}

func TestValidateServerRejectsZeroConcurrencyCap(t *testing.T) {
	cfg := validConfig()
	cfg.Server.ConcurrencyCap = 0

	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
}

func TestValidatePluginsRejectsMaxDelayBelowBaseDelay(t *testing.T) {
	cfg := validConfig()
	defaults := cfg.Plugins["http.basic"]
	defaults.RetryBaseDelay = 5 * time.Second
	defaults.RetryMaxDelay = 1 * time.Second
	cfg.Plugins["http.basic"] = defaults

	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retry_max_delay")
}

func TestValidatePluginsRejectsNegativeRate(t *testing.T) {
	cfg := validConfig()
	defaults := cfg.Plugins["http.basic"]
	defaults.RatePerSecond = -1
	cfg.Plugins["http.basic"] = defaults

	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
}
