package configloader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"tokenstats/internal/domain/entity"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// ServerConfig holds server-specific configurations.
type ServerConfig struct {
	Port         string `yaml:"port"`
	ReadTimeout  int    `yaml:"readTimeout"`
	WriteTimeout int    `yaml:"writeTimeout"`
	IdleTimeout  int    `yaml:"idleTimeout"`
}

// LoggingConfig holds logging-specific configurations.
type LoggingConfig struct {
	Level string `yaml:"level"` // e.g., "debug", "info", "warn", "error"
}

// SwaggerConfig holds configuration for Swagger UI.
type SwaggerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ExplorerConfig holds explorer API specific configurations. The base URL
// comes from the active network.
type ExplorerConfig struct {
	APIKey               string `yaml:"apiKey"`
	PageSize             int    `yaml:"pageSize"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
}

// DEXScreenerConfig holds DEXScreener API specific configurations.
type DEXScreenerConfig struct {
	BaseURL              string `yaml:"baseURL"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
}

// HTTPClientConfig holds the rate limit, retry and breaker settings shared by
// the upstream clients.
type HTTPClientConfig struct {
	RateLimit            float64 `yaml:"rateLimit"`
	BurstLimit           int     `yaml:"burstLimit"`
	MaxRetries           int     `yaml:"maxRetries"`
	RetryBaseDelayMs     int64   `yaml:"retryBaseDelayMs"`
	RetryMaxDelayMs      int64   `yaml:"retryMaxDelayMs"`
	BreakerFailures      uint32  `yaml:"breakerFailures"`
	BreakerCooldownMs    int64   `yaml:"breakerCooldownMs"`
	MaxResponseBodyBytes int     `yaml:"maxResponseBodyBytes"`
}

// PagerConfig holds page budgets for the cursor walks.
type PagerConfig struct {
	HolderMaxPages      int `yaml:"holderMaxPages"`
	TransferMaxPages    int `yaml:"transferMaxPages"`
	WalletMaxPages      int `yaml:"walletMaxPages"`
	TransactionMaxPages int `yaml:"transactionMaxPages"`
}

// CacheConfig holds configuration for the per-token cache.
type CacheConfig struct {
	// TTLMinutes of every cached slot; 0 keeps slots for the process lifetime.
	TTLMinutes         int `yaml:"ttlMinutes"`
	// LoadTimeoutSeconds bounds one slot load, which outlives the request that started it.
	LoadTimeoutSeconds int `yaml:"loadTimeoutSeconds"`
}

// StatsConfig holds configuration for the stat registry.
type StatsConfig struct {
	MaxConcurrent  int   `yaml:"maxConcurrent"`
	TimeoutSeconds int64 `yaml:"timeoutSeconds"`
}

// Config is the top-level configuration structure.
type Config struct {
	Server      ServerConfig               `yaml:"server"`
	Logging     LoggingConfig              `yaml:"logging"`
	Swagger     SwaggerConfig              `yaml:"swagger"`
	Explorer    ExplorerConfig             `yaml:"explorer"`
	DEXScreener DEXScreenerConfig          `yaml:"dexScreener"`
	HTTPClient  HTTPClientConfig           `yaml:"httpClient"`
	Pager       PagerConfig                `yaml:"pager"`
	Cache       CacheConfig                `yaml:"cache"`
	Stats       StatsConfig                `yaml:"stats"`
	Networks    []entity.NetworkDefinition `yaml:"networks"`
}

// Env variables that override the file.
const (
	EnvExplorerAPIKey = "EXPLORER_API_KEY"
	EnvLogLevel       = "LOG_LEVEL"
	EnvServerPort     = "SERVER_PORT"
	EnvCacheTTL       = "CACHE_TTL_MINUTES"
)

// LoadDotEnv loads a .env file into the process environment. A missing file
// is not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				logrus.Debugf("No env file at %s, skipping", p)
				continue
			}
			return fmt.Errorf("failed to load env file %s: %w", p, err)
		}
		logrus.Infof("Loaded environment from %s", p)
	}
	return nil
}

// Load reads the YAML configuration file from the given path, applies env
// overrides and fills defaults.
func Load(path string) (*Config, error) {
	logrus.Infof("Loading configuration from path: %s", path)
	data, err := os.ReadFile(path)
	if err != nil {
		logrus.Errorf("Failed to read config file %s: %v", path, err)
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML data, applies env overrides and fills defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		logrus.Errorf("Failed to unmarshal config data: %v", err)
		return nil, fmt.Errorf("failed to unmarshal config data: %w", err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logrus.Info("Configuration loaded successfully.")
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvExplorerAPIKey); v != "" {
		cfg.Explorer.APIKey = v
		logrus.Infof("Explorer API key taken from %s", EnvExplorerAPIKey)
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv(EnvServerPort); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv(EnvCacheTTL); v != "" {
		if ttl, err := strconv.Atoi(v); err == nil {
			cfg.Cache.TTLMinutes = ttl
		} else {
			logrus.Warnf("Ignoring invalid %s=%q: %v", EnvCacheTTL, v, err)
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = ":8080"
		logrus.Infof("Server.Port not set, defaulting to %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout <= 0 {
		cfg.Server.ReadTimeout = 15
	}
	if cfg.Server.WriteTimeout <= 0 {
		cfg.Server.WriteTimeout = 120
		logrus.Infof("Server.WriteTimeout not set, defaulting to %d seconds", cfg.Server.WriteTimeout)
	}
	if cfg.Server.IdleTimeout <= 0 {
		cfg.Server.IdleTimeout = 60
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Swagger.Path == "" {
		cfg.Swagger.Path = "/swagger"
	}

	if cfg.Explorer.PageSize <= 0 {
		cfg.Explorer.PageSize = 50
		logrus.Infof("Explorer.PageSize not set, defaulting to %d", cfg.Explorer.PageSize)
	}
	if cfg.Explorer.RequestTimeoutMillis <= 0 {
		cfg.Explorer.RequestTimeoutMillis = 15000
		logrus.Infof("Explorer.RequestTimeoutMillis not set, defaulting to %d ms", cfg.Explorer.RequestTimeoutMillis)
	}
	if cfg.DEXScreener.BaseURL == "" {
		cfg.DEXScreener.BaseURL = "https://api.dexscreener.com"
		logrus.Infof("DEXScreener.BaseURL not set, defaulting to %s", cfg.DEXScreener.BaseURL)
	}
	if cfg.DEXScreener.RequestTimeoutMillis <= 0 {
		cfg.DEXScreener.RequestTimeoutMillis = 10000
		logrus.Infof("DEXScreener.RequestTimeoutMillis not set, defaulting to %d ms", cfg.DEXScreener.RequestTimeoutMillis)
	}

	if cfg.HTTPClient.RateLimit <= 0 {
		cfg.HTTPClient.RateLimit = 8
		logrus.Infof("HTTPClient.RateLimit not set, defaulting to %.0f rps", cfg.HTTPClient.RateLimit)
	}
	if cfg.HTTPClient.BurstLimit <= 0 {
		cfg.HTTPClient.BurstLimit = 16
	}
	if cfg.HTTPClient.RetryBaseDelayMs <= 0 {
		cfg.HTTPClient.RetryBaseDelayMs = 250
	}
	if cfg.HTTPClient.RetryMaxDelayMs <= 0 {
		cfg.HTTPClient.RetryMaxDelayMs = 5000
	}
	if cfg.HTTPClient.BreakerFailures == 0 {
		cfg.HTTPClient.BreakerFailures = 5
		logrus.Infof("HTTPClient.BreakerFailures not set, defaulting to %d", cfg.HTTPClient.BreakerFailures)
	}
	if cfg.HTTPClient.BreakerCooldownMs <= 0 {
		cfg.HTTPClient.BreakerCooldownMs = 30000
	}

	if cfg.Pager.HolderMaxPages <= 0 {
		cfg.Pager.HolderMaxPages = 200
		logrus.Infof("Pager.HolderMaxPages not set, defaulting to %d", cfg.Pager.HolderMaxPages)
	}
	if cfg.Pager.TransferMaxPages <= 0 {
		cfg.Pager.TransferMaxPages = 200
	}
	if cfg.Pager.WalletMaxPages <= 0 {
		cfg.Pager.WalletMaxPages = 20
	}
	if cfg.Pager.TransactionMaxPages <= 0 {
		cfg.Pager.TransactionMaxPages = 20
	}

	if cfg.Cache.LoadTimeoutSeconds <= 0 {
		cfg.Cache.LoadTimeoutSeconds = 120
	}

	if cfg.Stats.MaxConcurrent <= 0 {
		cfg.Stats.MaxConcurrent = 4
		logrus.Infof("Stats.MaxConcurrent not set, defaulting to %d", cfg.Stats.MaxConcurrent)
	}
	if cfg.Stats.TimeoutSeconds <= 0 {
		cfg.Stats.TimeoutSeconds = 90
	}
}

// Validate rejects settings the services cannot run with.
func (c *Config) Validate() error {
	if c.Cache.TTLMinutes < 0 {
		return fmt.Errorf("cache.ttlMinutes must not be negative, got %d", c.Cache.TTLMinutes)
	}
	if c.HTTPClient.MaxRetries < 0 {
		return fmt.Errorf("httpClient.maxRetries must not be negative, got %d", c.HTTPClient.MaxRetries)
	}
	for i, network := range c.Networks {
		if network.Identifier == "" {
			return fmt.Errorf("networks[%d]: identifier is required", i)
		}
		if network.DEXScreenerChainID == "" {
			logrus.Warnf("Network '%s' has no dexScreenerChainId configured; the built-in value is used if one exists.", network.Identifier)
		}
	}
	return nil
}

// Millis converts a millisecond setting to a duration.
func Millis(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// CacheTTL is the configured cache TTL.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLMinutes) * time.Minute
}

// CacheLoadTimeout bounds a single cache slot load.
func (c *Config) CacheLoadTimeout() time.Duration {
	return time.Duration(c.Cache.LoadTimeoutSeconds) * time.Second
}

// StatTimeout is the per-stat computation timeout.
func (c *Config) StatTimeout() time.Duration {
	return time.Duration(c.Stats.TimeoutSeconds) * time.Second
}
