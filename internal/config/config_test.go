package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "local.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := write(t, `
env: staging
storage_path: storage/medreq.db
api:
  base_url: http://localhost:8082/api
  token_file: /tmp/session
  timeout: 3s
sandbox:
  address: localhost:9000
  skip_seed: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.Env)
	assert.Equal(t, "storage/medreq.db", cfg.StoragePath)
	assert.Equal(t, "http://localhost:8082/api", cfg.API.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.API.Timeout)
	assert.Equal(t, "localhost:9000", cfg.Sandbox.Addr)
	assert.True(t, cfg.Sandbox.SkipSeed)
}

func TestLoadEnvOverridesAndDefaults(t *testing.T) {
	path := write(t, `
storage_path: medreq.db
api:
  base_url: http://localhost:8082/api
`)
	t.Setenv("API_TOKEN", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "from-env", cfg.API.Token)
	assert.Equal(t, 15*time.Second, cfg.API.Timeout)
	assert.Equal(t, "localhost:8082", cfg.Sandbox.Addr)
	assert.False(t, cfg.Sandbox.SkipSeed)
}

func TestLoadFromConfigPathEnv(t *testing.T) {
	path := write(t, `
storage_path: medreq.db
api:
  base_url: http://localhost:8082/api
  token: abc
`)
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "abc", cfg.API.Token)
}

func TestLoadErrors(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	_, err := Load("")
	assert.ErrorContains(t, err, "config path is not set")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "does not exist")

	_, err = Load(write(t, "env: dev\n"))
	assert.Error(t, err)

	_, err = Load(write(t, "storage_path: x.db\napi:\n  base_url: http://x\n"))
	assert.ErrorContains(t, err, "api.token or api.token_file")
}
