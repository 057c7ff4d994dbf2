package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pesto.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFile(t *testing.T) {
	t.Setenv("TEST_PESTO_KEY", "from-env")
	path := writeConfig(t, `
server:
  access_key: ${TEST_PESTO_KEY}
  url: ${TEST_PESTO_UNSET:-http://localhost:9000/}
build:
  front_matter: false
  aliases: [date=created_at]
output:
  driver: redis
  redis:
    addrs: ["localhost:6379"]
    ttl_sec: 3600
`)

	cfg, err := LoadFile(path, false)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Server.AccessKey)
	assert.Equal(t, "http://localhost:9000/", cfg.Server.URL)
	assert.False(t, cfg.Build.FrontMatterEnabled())
	assert.Equal(t, []string{"date=created_at"}, cfg.Build.Aliases)
	assert.Equal(t, DriverRedis, cfg.Output.Driver)
	assert.Equal(t, 3600, cfg.Output.Redis.TTLSec)
	assert.Equal(t, "{created_at}.md", cfg.Build.FileName)
}

func TestLoadFile_MissingOptional(t *testing.T) {
	t.Setenv(EnvServerURL, "")
	t.Setenv(EnvAccessKey, "k")

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), true)
	require.NoError(t, err)
	assert.Equal(t, DefaultServerURL, cfg.Server.URL)
	assert.Equal(t, "k", cfg.Server.AccessKey)
	assert.True(t, cfg.Build.FrontMatterEnabled())
	assert.Equal(t, DriverFS, cfg.Output.Driver)
}

func TestLoadFile_MissingRequired(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), false)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadFile_BadYAML(t *testing.T) {
	_, err := LoadFile(writeConfig(t, "server: [unclosed"), false)
	require.Error(t, err)
}

func TestDefault(t *testing.T) {
	t.Setenv(EnvServerURL, "https://example.test/")
	cfg := Default()
	assert.Equal(t, "https://example.test/", cfg.Server.URL)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 30, cfg.Server.TimeoutSec)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"unknown driver", func(c *Config) { c.Output.Driver = "s3" }, "output.driver"},
		{"redis without addrs", func(c *Config) { c.Output.Driver = DriverRedis }, "output.redis.addrs"},
		{"negative ttl", func(c *Config) { c.Output.Redis.TTLSec = -1 }, "ttl_sec"},
		{"bad port", func(c *Config) { c.HTTP.Port = 70000 }, "http.port"},
		{"bad level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_PESTO_SET", "value")
	out := expandEnvVars([]byte("a=${TEST_PESTO_SET} b=${TEST_PESTO_NOPE:-fallback} c=${TEST_PESTO_NOPE}"))
	assert.Equal(t, "a=value b=fallback c=", string(out))
}
