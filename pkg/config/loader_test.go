package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeMissingFileFallsBackToDefaults(t *testing.T) {
	ctx := context.Background()
	cfg, err := Initialize(ctx, t.TempDir())

	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, DefaultServerConfig(), cfg.Server)
	assert.Empty(t, cfg.Plugins)
}

func TestInitializeInvalidYAML(t *testing.T) {
	configDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "plugins.yaml"), []byte("{{{"), 0644))

	_, err := Initialize(context.Background(), configDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load configuration")
}

func TestInitializeMergesPluginOverrides(t *testing.T) {
	configDir := t.TempDir()
	yamlContent := `
server:
  listen_addr: ":9000"
  concurrency_cap: 25
plugins:
  http.basic:
    concurrency: 50
    attempt_timeout: 2s
`
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "plugins.yaml"), []byte(yamlContent), 0644))

	cfg, err := Initialize(context.Background(), configDir)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.ListenAddr)
	assert.Equal(t, 25, cfg.Server.ConcurrencyCap)
	assert.True(t, cfg.Server.MCPEnabled, "unset mcp_enabled should keep the compiled-in default per mergeServerConfig")

	httpBasic, ok := cfg.Plugins["http.basic"]
	require.True(t, ok)
	assert.Equal(t, 50, httpBasic.Concurrency)
	assert.Equal(t, 2*time.Second, httpBasic.AttemptTimeout)
	// Retries was left unset in the override, so the compiled-in default survives.
	assert.Equal(t, DefaultPluginDefaults().Retries, httpBasic.Retries)
}

func TestInitializeValidationFailure(t *testing.T) {
	configDir := t.TempDir()
	yamlContent := `
server:
  concurrency_cap: 0
`
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "plugins.yaml"), []byte(yamlContent), 0644))

	_, err := Initialize(context.Background(), configDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration validation failed")
}
