package configloader

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvExplorerAPIKey, EnvLogLevel, EnvServerPort, EnvCacheTTL} {
		t.Setenv(key, "")
	}
}

func TestParse_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Parse([]byte("{}"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, 120, cfg.Server.WriteTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "/swagger", cfg.Swagger.Path)
	assert.Equal(t, 50, cfg.Explorer.PageSize)
	assert.Equal(t, "https://api.dexscreener.com", cfg.DEXScreener.BaseURL)
	assert.Equal(t, 8.0, cfg.HTTPClient.RateLimit)
	assert.Equal(t, 0, cfg.HTTPClient.MaxRetries)
	assert.Equal(t, uint32(5), cfg.HTTPClient.BreakerFailures)
	assert.Equal(t, 200, cfg.Pager.HolderMaxPages)
	assert.Equal(t, 20, cfg.Pager.WalletMaxPages)
	assert.Equal(t, 4, cfg.Stats.MaxConcurrent)
	assert.Equal(t, 90*time.Second, cfg.StatTimeout())
	assert.Equal(t, time.Duration(0), cfg.CacheTTL())
	assert.Equal(t, 2*time.Minute, cfg.CacheLoadTimeout())
}

func TestParse_KeepsExplicitValues(t *testing.T) {
	clearEnv(t)

	cfg, err := Parse([]byte(`
server:
  port: ":9090"
explorer:
  pageSize: 25
cache:
  ttlMinutes: 10
networks:
  - identifier: ethereum
    explorerApiUrl: https://eth.example/api/v2
`))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Port)
	assert.Equal(t, 25, cfg.Explorer.PageSize)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL())
	require.Len(t, cfg.Networks, 1)
	assert.Equal(t, "https://eth.example/api/v2", cfg.Networks[0].ExplorerAPIURL)
}

func TestParse_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvExplorerAPIKey, "secret")
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvServerPort, ":7000")
	t.Setenv(EnvCacheTTL, "15")

	cfg, err := Parse([]byte(`
explorer:
  apiKey: from-file
logging:
  level: warn
`))
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.Explorer.APIKey)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, ":7000", cfg.Server.Port)
	assert.Equal(t, 15*time.Minute, cfg.CacheTTL())
}

func TestParse_InvalidCacheTTLEnvIgnored(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvCacheTTL, "soon")

	cfg, err := Parse([]byte("cache:\n  ttlMinutes: 3\n"))
	require.NoError(t, err)
	assert.Equal(t, 3*time.Minute, cfg.CacheTTL())
}

func TestParse_ValidationErrors(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"negative ttl", "cache:\n  ttlMinutes: -1\n", "cache.ttlMinutes"},
		{"negative retries", "httpClient:\n  maxRetries: -2\n", "httpClient.maxRetries"},
		{"network without identifier", "networks:\n  - name: Nameless\n", "networks[0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse([]byte("server: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal")
}

func TestLoad_ExampleConfig(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join("..", "..", "..", "config", "config.yml"))
	require.NoError(t, err)
	require.NotEmpty(t, cfg.Networks)
	assert.Equal(t, "pulsechain", cfg.Networks[0].Identifier)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("TOKENSTATS_TEST_VALUE=loaded\n"), 0o600))
	t.Setenv("TOKENSTATS_TEST_VALUE", "")
	require.NoError(t, os.Unsetenv("TOKENSTATS_TEST_VALUE"))

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), path))
	assert.Equal(t, "loaded", os.Getenv("TOKENSTATS_TEST_VALUE"))
}

func TestMillis(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, Millis(1500))
}
