package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BlockchainHB/launchfast-sub000/internal/config"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

const minimalYAML = `
database:
  user: launchfast
  password: secret
provider:
  api_key: test-key
`

func TestLoad_MinimalFileWithDefaults(t *testing.T) {
	t.Parallel()
	path := writeConfigFile(t, minimalYAML)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "launchfast", cfg.Database.User)
	assert.Equal(t, config.DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, config.DefaultProviderBaseURL, cfg.Provider.BaseURL)
}

func TestLoad_ExplicitValuesWin(t *testing.T) {
	t.Parallel()
	path := writeConfigFile(t, minimalYAML+`
server:
  port: 9090
  mode: release
log:
  level: debug
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()
	_, err := config.Load("/nonexistent/config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_InvalidConfigRejected(t *testing.T) {
	t.Parallel()
	path := writeConfigFile(t, minimalYAML+`
log:
  level: shout
`)

	_, err := config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	// t.Setenv is incompatible with t.Parallel.
	t.Setenv("LAUNCHFAST_DATABASE_USER", "envuser")
	t.Setenv("LAUNCHFAST_DATABASE_PASSWORD", "envpass")
	t.Setenv("LAUNCHFAST_PROVIDER_API_KEY", "env-key")
	t.Setenv("LAUNCHFAST_SERVER_PORT", "7070")

	cfg, err := config.LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "envuser", cfg.Database.User)
	assert.Equal(t, "env-key", cfg.Provider.APIKey)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestMustLoad_PanicsOnError(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { config.MustLoad("/nonexistent/config.yaml") })
}
